// Package apngencoder assembles animated PNG (APNG) files from straight
// RGBA8 frames. Frames are either stored losslessly as 32-bit RGBA or
// quantized to one global palette shared by every frame.
package apngencoder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/user/lottie2apng/pkg/ports"
)

// MaxDimension is the largest supported canvas edge in pixels.
const MaxDimension = 1 << 15

type frame struct {
	pix     []byte // raw RGBA, palette mode only, released once indexed
	data    []byte // zlib stream of the filtered scanlines
	delayMs int
}

// Encoder implements ports.AnimationEncoder.
//
// Lossless frames are filtered and compressed as they arrive. Paletted
// frames are held until End because the palette depends on every frame.
type Encoder struct {
	mu sync.Mutex

	width  int
	height int
	opts   ports.EncoderOptions
	level  int
	began  bool

	frames []frame
	hist   histogram
}

// New creates a new APNG encoder.
func New() *Encoder {
	return &Encoder{}
}

// Begin initializes the encoder for a canvas of width x height pixels.
func (e *Encoder) Begin(width, height int, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if opts.Colors < 0 || opts.Colors > 256 {
		return fmt.Errorf("%w: colors must be 0-256, got %d", ErrInvalidOptions, opts.Colors)
	}
	if opts.LoopCount < 0 {
		return fmt.Errorf("%w: negative loop count %d", ErrInvalidOptions, opts.LoopCount)
	}
	level, err := zlibLevel(opts.CompressionLevel)
	if err != nil {
		return err
	}

	e.width = width
	e.height = height
	e.opts = opts
	e.level = level
	e.frames = nil
	e.hist = nil
	if opts.Colors > 0 {
		e.hist = make(histogram)
	}
	e.began = true
	return nil
}

// AddFrame appends a frame displayed for delayMs milliseconds.
func (e *Encoder) AddFrame(pix []byte, delayMs int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.began {
		return ErrNotInitialized
	}
	if want := e.width * e.height * 4; len(pix) != want {
		return fmt.Errorf("%w: got %d bytes, expected %d", ErrFrameSize, len(pix), want)
	}
	if delayMs < 0 {
		return fmt.Errorf("%w: %d ms", ErrInvalidDelay, delayMs)
	}

	if e.opts.Colors > 0 {
		e.hist.add(pix)
		e.frames = append(e.frames, frame{pix: pix, delayMs: delayMs})
		return nil
	}

	data, err := e.compress(filterRGBA(pix, e.width, e.height))
	if err != nil {
		return err
	}
	e.frames = append(e.frames, frame{data: data, delayMs: delayMs})
	return nil
}

// End writes the complete APNG and resets the encoder. Palette building
// and per-frame compression stop with ctx.Err() once ctx is done.
func (e *Encoder) End(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.began {
		return nil, ErrNotInitialized
	}
	defer e.reset()

	if len(e.frames) == 0 {
		return nil, ErrNoFrames
	}

	var buf bytes.Buffer
	if err := e.writeTo(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Abort drops every buffered frame. The encoder must be restarted with
// Begin before it is used again.
func (e *Encoder) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

// Buffered reports how many frames are held since Begin.
func (e *Encoder) Buffered() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.frames)
}

func (e *Encoder) reset() {
	e.began = false
	e.frames = nil
	e.hist = nil
}

func (e *Encoder) writeTo(ctx context.Context, w io.Writer) error {
	var pal *palette
	colorType := byte(colorTypeRGBA)
	if e.opts.Colors > 0 {
		var err error
		if pal, err = buildPalette(ctx, e.hist, e.opts.Colors); err != nil {
			return err
		}
		e.hist = nil
		colorType = colorTypePaletted
		for i := range e.frames {
			if err := ctx.Err(); err != nil {
				return err
			}
			f := &e.frames[i]
			data, err := e.compress(pal.indexRows(f.pix, e.width, e.height))
			if err != nil {
				return err
			}
			f.data, f.pix = data, nil
		}
	}

	delays := make([][]delayFraction, len(e.frames))
	numFrames := 0
	for i, f := range e.frames {
		segments, err := delaySegments(f.delayMs)
		if err != nil {
			return err
		}
		delays[i] = segments
		numFrames += len(segments)
	}

	cw := &chunkWriter{w: w}
	cw.signature()
	cw.ihdr(e.width, e.height, colorType)
	cw.actl(numFrames, e.opts.LoopCount)
	if pal != nil {
		cw.plte(pal.colors)
		cw.trns(pal.colors, pal.nonOpaque)
	}
	first := true
	for i, f := range e.frames {
		for _, d := range delays[i] {
			cw.fctl(e.width, e.height, d.num, d.den)
			cw.frameData(f.data, first)
			first = false
		}
	}
	cw.iend()
	return cw.err
}

func (e *Encoder) compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, e.level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return buf.Bytes(), nil
}

// zlibLevel maps the configured level, where 0 selects the default.
func zlibLevel(level int) (int, error) {
	switch {
	case level == 0:
		return zlib.DefaultCompression, nil
	case level >= zlib.BestSpeed && level <= zlib.BestCompression:
		return level, nil
	default:
		return 0, fmt.Errorf("%w: compression level must be 1-9, got %d", ErrInvalidOptions, level)
	}
}

var _ ports.AnimationEncoder = (*Encoder)(nil)
