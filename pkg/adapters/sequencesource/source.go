// Package sequencesource plays a directory of PNG stills as an animation.
package sequencesource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
)

// DefaultFrameRate is used when a sequence is probed without a rate.
const DefaultFrameRate = 30

// ErrClosed is returned when seeking a closed source.
var ErrClosed = errors.New("sequence source closed")

// Sequence describes the frames found in a directory.
type Sequence struct {
	Dir       string
	Files     []string // base names, sorted
	Width     int      // size of the first frame
	Height    int
	FrameRate float64
}

// Probe lists the PNG files in dir and reads the first frame's size.
func Probe(fs ports.FileSystem, dir string, frameRate float64) (*Sequence, error) {
	names, err := fs.ReadDir(dir)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "sequence", "list frames", err)
	}
	var files []string
	for _, n := range names {
		if strings.EqualFold(filepath.Ext(n), ".png") {
			files = append(files, n)
		}
	}
	if len(files) == 0 {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "sequence", fmt.Sprintf("no PNG frames in %s", dir), nil)
	}

	data, err := fs.ReadFile(filepath.Join(dir, files[0]))
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "sequence", "read first frame", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "sequence", files[0], err)
	}
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return &Sequence{Dir: dir, Files: files, Width: cfg.Width, Height: cfg.Height, FrameRate: frameRate}, nil
}

// Meta describes the sequence as an animation of len(Files) frames.
func (s *Sequence) Meta() pipeline.AnimationMeta {
	return pipeline.AnimationMeta{
		FrameRate:  s.FrameRate,
		FirstFrame: 0,
		LastFrame:  float64(len(s.Files)),
		Width:      s.Width,
		Height:     s.Height,
		Name:       filepath.Base(filepath.Clean(s.Dir)),
	}
}

// Factory opens sources over a probed sequence.
type Factory struct {
	seq    *Sequence
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a Factory.
func New(seq *Sequence, fs ports.FileSystem, logger ports.Logger) *Factory {
	return &Factory{seq: seq, fs: fs, logger: logger.WithComponent("sequence")}
}

// Open implements ports.RasterSourceFactory.
func (f *Factory) Open(ctx context.Context, width, height, scale int) (ports.RasterSource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", width, height)
	}
	f.logger.Debug("Opened sequence of %d frames at %dx%d", len(f.seq.Files), width, height)
	return &Source{seq: f.seq, fs: f.fs, width: width, height: height, logger: f.logger}, nil
}

// Source decodes one still per seek and fits it to the output size.
type Source struct {
	seq           *Sequence
	fs            ports.FileSystem
	width, height int
	logger        ports.Logger
	closed        bool
}

// SeekAndRender implements ports.RasterSource.
func (s *Source) SeekAndRender(ctx context.Context, offset int) ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 || offset >= len(s.seq.Files) {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", offset, len(s.seq.Files))
	}

	name := s.seq.Files[offset]
	data, err := s.fs.ReadFile(filepath.Join(s.seq.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return fit(img, s.width, s.height), nil
}

// fit returns img as straight RGBA8 at width x height. Same-size NRGBA
// input is copied verbatim.
func fit(img image.Image, width, height int) []byte {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if src, ok := img.(*image.NRGBA); ok && b.Dx() == width && b.Dy() == height {
		for y := 0; y < height; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+width*4], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return dst.Pix
	}
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst.Pix
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst.Pix
}

// Close implements ports.RasterSource.
func (s *Source) Close() error {
	s.closed = true
	return nil
}

var (
	_ ports.RasterSourceFactory = (*Factory)(nil)
	_ ports.RasterSource        = (*Source)(nil)
)
