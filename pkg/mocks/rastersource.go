package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/user/lottie2apng/pkg/ports"
)

// ErrSourceClosed is returned when a closed RasterSource is seeked.
var ErrSourceClosed = errors.New("raster source closed")

// RasterSource is a deterministic synthetic implementation of
// ports.RasterSource. By default every offset renders a distinct Pattern.
type RasterSource struct {
	mu sync.Mutex

	Width  int
	Height int

	RenderFunc func(ctx context.Context, offset int) ([]byte, error)
	CloseFunc  func() error

	// Recorded calls for verification
	Seeks      []int
	CloseCalls int
}

// NewRasterSource creates a synthetic source of width x height pixels.
func NewRasterSource(width, height int) *RasterSource {
	return &RasterSource{Width: width, Height: height}
}

// NewStaticRasterSource creates a source that renders the same pixels for every offset.
func NewStaticRasterSource(width, height int) *RasterSource {
	src := NewRasterSource(width, height)
	src.RenderFunc = func(ctx context.Context, offset int) ([]byte, error) {
		return Pattern(width, height, 0), nil
	}
	return src
}

func (m *RasterSource) SeekAndRender(ctx context.Context, offset int) ([]byte, error) {
	m.mu.Lock()
	if m.CloseCalls > 0 {
		m.mu.Unlock()
		return nil, ErrSourceClosed
	}
	m.Seeks = append(m.Seeks, offset)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, offset)
	}
	return Pattern(m.Width, m.Height, offset), nil
}

func (m *RasterSource) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// SeekOffsets returns a copy of the recorded seek offsets.
func (m *RasterSource) SeekOffsets() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.Seeks...)
}

// Closed reports whether Close has been called at least once.
func (m *RasterSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalls > 0
}

var _ ports.RasterSource = (*RasterSource)(nil)

// Pattern renders a straight RGBA8 test frame. Distinct offsets below 256
// always differ in the first pixel; alpha varies across the frame so that
// transparency survives encoding paths.
func Pattern(width, height, offset int) []byte {
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			pix[i] = byte(x*7 + offset*13)
			pix[i+1] = byte(y*5 + offset*3)
			pix[i+2] = byte(x + y + offset)
			pix[i+3] = byte(255 - (x*3+y)%128)
		}
	}
	return pix
}

// RasterSourceFactory is a mock implementation of ports.RasterSourceFactory.
type RasterSourceFactory struct {
	mu sync.Mutex

	OpenFunc func(ctx context.Context, width, height, scale int) (ports.RasterSource, error)

	// Source is returned by Open when set; otherwise a fresh NewRasterSource.
	Source *RasterSource

	Opened []*RasterSource
	Scales []int
}

func (m *RasterSourceFactory) Open(ctx context.Context, width, height, scale int) (ports.RasterSource, error) {
	m.mu.Lock()
	m.Scales = append(m.Scales, scale)
	m.mu.Unlock()
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, width, height, scale)
	}
	src := m.Source
	if src == nil {
		src = NewRasterSource(width, height)
	}
	m.mu.Lock()
	m.Opened = append(m.Opened, src)
	m.mu.Unlock()
	return src, nil
}

// Last returns the most recently opened source, or nil.
func (m *RasterSourceFactory) Last() *RasterSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Opened) == 0 {
		return nil
	}
	return m.Opened[len(m.Opened)-1]
}

var _ ports.RasterSourceFactory = (*RasterSourceFactory)(nil)
