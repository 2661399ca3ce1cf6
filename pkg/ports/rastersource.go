// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
)

// RasterSource renders an animation one frame at a time.
//
// A source is stateful and driven by exactly one sequential caller. Seeking
// re-renders the full scene, so callers seek once per sampled frame.
type RasterSource interface {
	// SeekAndRender renders the frame at offset (relative to the animation's
	// first frame) and returns a freshly allocated straight RGBA8 buffer of
	// the dimensions the source was opened with. The caller owns the buffer.
	SeekAndRender(ctx context.Context, offset int) ([]byte, error)

	// Close releases rendering resources. It is safe to call more than once.
	Close() error
}

// RasterSourceFactory creates a RasterSource for a given output size.
type RasterSourceFactory interface {
	// Open prepares a source that renders at width x height pixels.
	// scale is the factor already applied to the nominal size.
	Open(ctx context.Context, width, height, scale int) (RasterSource, error)
}

// RasterSourceFactoryFunc is a function adapter for RasterSourceFactory.
type RasterSourceFactoryFunc func(ctx context.Context, width, height, scale int) (RasterSource, error)

// Open implements RasterSourceFactory.
func (f RasterSourceFactoryFunc) Open(ctx context.Context, width, height, scale int) (RasterSource, error) {
	return f(ctx, width, height, scale)
}
