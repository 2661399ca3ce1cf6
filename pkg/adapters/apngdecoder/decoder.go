// Package apngdecoder reads animated PNG files. It validates every chunk
// checksum and sequence number, decodes each frame with the standard PNG
// decoder and composites frames according to their dispose and blend ops.
package apngdecoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/user/lottie2apng/pkg/ports"
	"golang.org/x/image/draw"
)

// Dispose and blend operations
const (
	DisposeNone       = 0
	DisposeBackground = 1
	DisposePrevious   = 2

	BlendSource = 0
	BlendOver   = 1
)

// FrameInfo describes one fcTL entry.
type FrameInfo struct {
	Sequence  uint32
	Width     int
	Height    int
	X         int
	Y         int
	DelayNum  uint16
	DelayDen  uint16
	Dispose   byte
	Blend     byte
	DataBytes int // compressed image data across IDAT/fdAT chunks

	data []byte
}

// DelayMs returns the frame delay in milliseconds. A zero denominator
// means 1/100 second units.
func (f FrameInfo) DelayMs() float64 {
	den := float64(f.DelayDen)
	if den == 0 {
		den = 100
	}
	return float64(f.DelayNum) * 1000 / den
}

// Info is the chunk-level structure of an APNG.
type Info struct {
	Width       int
	Height      int
	BitDepth    int
	ColorType   int
	NumFrames   int
	NumPlays    int
	PaletteSize int
	Transparent int // tRNS entries
	Animated    bool
	Frames      []FrameInfo

	ihdr []byte
	plte []byte
	trns []byte
}

// Inspect parses the chunk structure without decoding pixels.
func Inspect(r io.Reader) (*Info, error) {
	chunks, err := readChunks(r)
	if err != nil {
		return nil, err
	}
	return parse(chunks)
}

func parse(chunks []chunk) (*Info, error) {
	if len(chunks) == 0 || chunks[0].typ != "IHDR" || len(chunks[0].data) != 13 {
		return nil, fmt.Errorf("%w: missing IHDR", ErrFormat)
	}
	ihdr := chunks[0].data
	info := &Info{
		Width:     int(binary.BigEndian.Uint32(ihdr[0:4])),
		Height:    int(binary.BigEndian.Uint32(ihdr[4:8])),
		BitDepth:  int(ihdr[8]),
		ColorType: int(ihdr[9]),
		ihdr:      ihdr,
	}

	var (
		nextSeq   uint32
		current   *FrameInfo
		seenIDAT  bool
		defaultIn bool // the default image is the first animation frame
		static    []byte
	)

	for _, c := range chunks[1:] {
		switch c.typ {
		case "PLTE":
			info.plte = c.data
			info.PaletteSize = len(c.data) / 3
		case "tRNS":
			info.trns = c.data
			info.Transparent = len(c.data)
		case "acTL":
			if len(c.data) != 8 || seenIDAT {
				return nil, fmt.Errorf("%w: misplaced acTL", ErrFormat)
			}
			info.Animated = true
			info.NumFrames = int(binary.BigEndian.Uint32(c.data[0:4]))
			info.NumPlays = int(binary.BigEndian.Uint32(c.data[4:8]))
		case "fcTL":
			if len(c.data) != 26 {
				return nil, fmt.Errorf("%w: fcTL length %d", ErrFormat, len(c.data))
			}
			f, err := parseFCTL(c.data)
			if err != nil {
				return nil, err
			}
			if f.Sequence != nextSeq {
				return nil, fmt.Errorf("%w: fcTL has %d, expected %d", ErrSequence, f.Sequence, nextSeq)
			}
			nextSeq++
			if f.Width == 0 || f.Height == 0 || f.X+f.Width > info.Width || f.Y+f.Height > info.Height {
				return nil, fmt.Errorf("%w: frame %d region outside canvas", ErrFormat, len(info.Frames))
			}
			if !seenIDAT {
				defaultIn = true
			}
			info.Frames = append(info.Frames, f)
			current = &info.Frames[len(info.Frames)-1]
		case "IDAT":
			seenIDAT = true
			if defaultIn && current != nil {
				current.data = append(current.data, c.data...)
			}
			static = append(static, c.data...)
		case "fdAT":
			if len(c.data) < 4 {
				return nil, fmt.Errorf("%w: short fdAT", ErrFormat)
			}
			if seq := binary.BigEndian.Uint32(c.data[:4]); seq != nextSeq {
				return nil, fmt.Errorf("%w: fdAT has %d, expected %d", ErrSequence, seq, nextSeq)
			}
			nextSeq++
			if current == nil {
				return nil, fmt.Errorf("%w: fdAT before fcTL", ErrFormat)
			}
			current.data = append(current.data, c.data[4:]...)
		}
	}

	if !seenIDAT {
		return nil, fmt.Errorf("%w: no image data", ErrFormat)
	}

	if !info.Animated {
		// A plain PNG is a single frame with no delay.
		info.NumFrames = 1
		info.Frames = []FrameInfo{{Width: info.Width, Height: info.Height, data: static}}
	} else if len(info.Frames) != info.NumFrames {
		return nil, fmt.Errorf("%w: acTL declares %d frames, found %d", ErrFormat, info.NumFrames, len(info.Frames))
	}

	for i := range info.Frames {
		f := &info.Frames[i]
		if len(f.data) == 0 {
			return nil, fmt.Errorf("%w: frame %d has no image data", ErrFormat, i)
		}
		f.DataBytes = len(f.data)
	}
	return info, nil
}

func parseFCTL(b []byte) (FrameInfo, error) {
	f := FrameInfo{
		Sequence: binary.BigEndian.Uint32(b[0:4]),
		Width:    int(binary.BigEndian.Uint32(b[4:8])),
		Height:   int(binary.BigEndian.Uint32(b[8:12])),
		X:        int(binary.BigEndian.Uint32(b[12:16])),
		Y:        int(binary.BigEndian.Uint32(b[16:20])),
		DelayNum: binary.BigEndian.Uint16(b[20:22]),
		DelayDen: binary.BigEndian.Uint16(b[22:24]),
		Dispose:  b[24],
		Blend:    b[25],
	}
	if f.Dispose > DisposePrevious || f.Blend > BlendOver {
		return f, fmt.Errorf("%w: unknown dispose/blend op %d/%d", ErrFormat, f.Dispose, f.Blend)
	}
	return f, nil
}

// Decoder implements ports.AnimationDecoder.
type Decoder struct{}

// New creates a new APNG decoder.
func New() *Decoder {
	return &Decoder{}
}

// Decode reads and composites every frame from r.
func (d *Decoder) Decode(r io.Reader) (*ports.DecodedAnimation, error) {
	info, err := Inspect(r)
	if err != nil {
		return nil, err
	}

	anim := &ports.DecodedAnimation{
		Width:     info.Width,
		Height:    info.Height,
		LoopCount: info.NumPlays,
		Frames:    make([]ports.AnimationFrame, 0, len(info.Frames)),
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, info.Width, info.Height))
	for i, f := range info.Frames {
		img, err := info.decodeFrame(f)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}

		region := image.Rect(f.X, f.Y, f.X+f.Width, f.Y+f.Height)
		dispose := f.Dispose
		if i == 0 && dispose == DisposePrevious {
			dispose = DisposeBackground
		}
		var saved *image.NRGBA
		if dispose == DisposePrevious {
			saved = image.NewNRGBA(region)
			copyRegion(saved, canvas, region)
		}

		if f.Blend == BlendOver {
			draw.Draw(canvas, region, img, image.Point{}, draw.Over)
		} else {
			copyRegion(canvas, img, region)
		}

		out := image.NewNRGBA(canvas.Rect)
		copy(out.Pix, canvas.Pix)
		anim.Frames = append(anim.Frames, ports.AnimationFrame{Image: out, DelayMs: f.DelayMs()})

		switch dispose {
		case DisposeBackground:
			draw.Draw(canvas, region, image.Transparent, image.Point{}, draw.Src)
		case DisposePrevious:
			copyRegion(canvas, saved, region)
		}
	}
	return anim, nil
}

// decodeFrame wraps a frame's image data in a standalone PNG and decodes
// it with image/png. The result is converted to straight RGBA whose bounds
// start at the origin.
func (info *Info) decodeFrame(f FrameInfo) (*image.NRGBA, error) {
	var buf bytes.Buffer
	buf.Write(pngSignature)

	ihdr := make([]byte, len(info.ihdr))
	copy(ihdr, info.ihdr)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(f.Width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(f.Height))
	writeChunk(&buf, "IHDR", ihdr)
	if info.plte != nil {
		writeChunk(&buf, "PLTE", info.plte)
	}
	if info.trns != nil {
		writeChunk(&buf, "tRNS", info.trns)
	}
	writeChunk(&buf, "IDAT", f.data)
	writeChunk(&buf, "IEND", nil)

	img, err := png.Decode(&buf)
	if err != nil {
		return nil, err
	}
	return toNRGBA(img), nil
}

// toNRGBA converts without going through premultiplied alpha so that
// straight colour values survive exactly.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return out
}

// copyRegion copies r from src into dst. src is addressed relative to
// its own origin when its bounds do not contain r.
func copyRegion(dst, src *image.NRGBA, r image.Rectangle) {
	off := image.Point{}
	if !r.In(src.Rect) {
		off = r.Min.Sub(src.Rect.Min)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		si := src.PixOffset(r.Min.X-off.X, y-off.Y)
		di := dst.PixOffset(r.Min.X, y)
		copy(dst.Pix[di:di+r.Dx()*4], src.Pix[si:si+r.Dx()*4])
	}
}

var _ ports.AnimationDecoder = (*Decoder)(nil)
