package apngdecoder

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/user/lottie2apng/pkg/adapters/apngencoder"
	"github.com/user/lottie2apng/pkg/mocks"
	"github.com/user/lottie2apng/pkg/ports"
)

var (
	red   = color.NRGBA{255, 0, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
	green = color.NRGBA{0, 255, 0, 255}
	white = color.NRGBA{255, 255, 255, 255}
	empty = color.NRGBA{}
)

type testFrame struct {
	img                *image.NRGBA
	x, y               int
	dispose, blend     byte
	delayNum, delayDen uint16
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// idat compresses img as unfiltered RGBA scanlines.
func idat(t *testing.T, img *image.NRGBA) []byte {
	t.Helper()
	b := img.Bounds()
	var raw []byte
	for y := 0; y < b.Dy(); y++ {
		raw = append(raw, 0)
		raw = append(raw, img.Pix[y*img.Stride:y*img.Stride+b.Dx()*4]...)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// buildAPNG assembles an RGBA APNG by hand.
func buildAPNG(t *testing.T, w, h int, frames []testFrame) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(pngSignature)

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(w))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(h))
	ihdr[8], ihdr[9] = 8, 6
	writeChunk(&buf, "IHDR", ihdr)

	actl := make([]byte, 8)
	binary.BigEndian.PutUint32(actl[0:4], uint32(len(frames)))
	writeChunk(&buf, "acTL", actl)

	seq := uint32(0)
	for i, f := range frames {
		fc := make([]byte, 26)
		b := f.img.Bounds()
		binary.BigEndian.PutUint32(fc[0:4], seq)
		binary.BigEndian.PutUint32(fc[4:8], uint32(b.Dx()))
		binary.BigEndian.PutUint32(fc[8:12], uint32(b.Dy()))
		binary.BigEndian.PutUint32(fc[12:16], uint32(f.x))
		binary.BigEndian.PutUint32(fc[16:20], uint32(f.y))
		binary.BigEndian.PutUint16(fc[20:22], f.delayNum)
		binary.BigEndian.PutUint16(fc[22:24], f.delayDen)
		fc[24], fc[25] = f.dispose, f.blend
		writeChunk(&buf, "fcTL", fc)
		seq++

		data := idat(t, f.img)
		if i == 0 {
			writeChunk(&buf, "IDAT", data)
		} else {
			fd := make([]byte, 4+len(data))
			binary.BigEndian.PutUint32(fd[:4], seq)
			copy(fd[4:], data)
			writeChunk(&buf, "fdAT", fd)
			seq++
		}
	}
	writeChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func at(img *image.NRGBA, x, y int) color.NRGBA {
	return img.NRGBAAt(x, y)
}

func TestDecoder_DisposeAndBlend(t *testing.T) {
	over := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	over.SetNRGBA(3, 3, white)

	data := buildAPNG(t, 4, 4, []testFrame{
		{img: solid(4, 4, red), dispose: DisposeNone, blend: BlendSource, delayNum: 1, delayDen: 10},
		{img: solid(2, 2, blue), x: 1, y: 1, dispose: DisposeBackground, blend: BlendSource, delayNum: 50, delayDen: 1000},
		{img: solid(1, 1, green), dispose: DisposePrevious, blend: BlendSource, delayNum: 3},
		{img: over, dispose: DisposeNone, blend: BlendOver, delayNum: 1, delayDen: 1},
	})

	anim, err := New().Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(anim.Frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(anim.Frames))
	}

	checks := []struct {
		frame int
		x, y  int
		want  color.NRGBA
	}{
		{0, 0, 0, red},
		{0, 2, 2, red},
		{1, 1, 1, blue},
		{1, 2, 2, blue},
		{1, 0, 0, red},
		{2, 0, 0, green}, // drawn over the untouched corner
		{2, 1, 1, empty}, // frame 1 region disposed to background
		{2, 3, 3, red},
		{3, 0, 0, red}, // frame 2 disposed to previous
		{3, 1, 1, empty},
		{3, 3, 3, white}, // blended over
		{3, 3, 0, red},   // transparent source pixels keep the canvas
	}
	for _, c := range checks {
		if got := at(anim.Frames[c.frame].Image, c.x, c.y); got != c.want {
			t.Errorf("frame %d (%d,%d): expected %v, got %v", c.frame, c.x, c.y, c.want, got)
		}
	}

	delays := []float64{100, 50, 30, 1000}
	for i, want := range delays {
		if anim.Frames[i].DelayMs != want {
			t.Errorf("frame %d: expected delay %v, got %v", i, want, anim.Frames[i].DelayMs)
		}
	}
}

func TestDecoder_StaticPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(3, 2, blue)); err != nil {
		t.Fatal(err)
	}

	anim, err := New().Decode(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(anim.Frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(anim.Frames))
	}
	if got := at(anim.Frames[0].Image, 2, 1); got != blue {
		t.Errorf("expected blue, got %v", got)
	}
}

func encoded(t *testing.T) []byte {
	t.Helper()
	enc := apngencoder.New()
	if err := enc.Begin(6, 5, ports.EncoderOptions{Colors: 32}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := enc.AddFrame(mocks.Pattern(6, 5, i), 40); err != nil {
			t.Fatal(err)
		}
	}
	data, err := enc.End(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestInspect(t *testing.T) {
	info, err := Inspect(bytes.NewReader(encoded(t)))
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	if info.Width != 6 || info.Height != 5 {
		t.Errorf("expected 6x5, got %dx%d", info.Width, info.Height)
	}
	if !info.Animated || info.NumFrames != 3 || len(info.Frames) != 3 {
		t.Errorf("expected 3 animation frames, got %d/%d", info.NumFrames, len(info.Frames))
	}
	if info.ColorType != 3 || info.PaletteSize == 0 || info.PaletteSize > 32 {
		t.Errorf("expected paletted image with <= 32 entries, got type %d size %d", info.ColorType, info.PaletteSize)
	}
	if info.Transparent == 0 {
		t.Error("expected tRNS entries for translucent pattern")
	}
	// fcTL, IDAT | fcTL, fdAT | fcTL, fdAT
	expectedSeq := []uint32{0, 1, 3}
	for i, f := range info.Frames {
		if f.Sequence != expectedSeq[i] {
			t.Errorf("frame %d: expected sequence %d, got %d", i, expectedSeq[i], f.Sequence)
		}
		if f.Dispose != DisposeNone || f.Blend != BlendSource {
			t.Errorf("frame %d: unexpected ops %d/%d", i, f.Dispose, f.Blend)
		}
		if f.DelayMs() != 40 {
			t.Errorf("frame %d: expected 40ms, got %v", i, f.DelayMs())
		}
	}
}

func TestDecoder_CorruptChecksum(t *testing.T) {
	data := encoded(t)
	// flip a byte inside the first fcTL payload
	i := bytes.Index(data, []byte("fcTL"))
	data[i+10] ^= 0xFF

	_, err := New().Decode(bytes.NewReader(data))
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}

func TestDecoder_SequenceMismatch(t *testing.T) {
	data := buildAPNG(t, 2, 2, []testFrame{
		{img: solid(2, 2, red), delayNum: 10, delayDen: 100},
		{img: solid(2, 2, blue), delayNum: 10, delayDen: 100},
	})

	// Rewrite the second fcTL with a wrong sequence number and a valid CRC.
	chunks, err := readChunks(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	buf.Write(pngSignature)
	seen := 0
	for _, c := range chunks {
		if c.typ == "fcTL" {
			if seen == 1 {
				binary.BigEndian.PutUint32(c.data[0:4], 7)
			}
			seen++
		}
		writeChunk(&buf, c.typ, c.data)
	}

	_, err = New().Decode(&buf)
	if !errors.Is(err, ErrSequence) {
		t.Errorf("expected ErrSequence, got %v", err)
	}
}

func TestDecoder_Malformed(t *testing.T) {
	valid := encoded(t)

	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{"empty", nil, ErrSignature},
		{"not png", []byte("GIF89a......"), ErrSignature},
		{"truncated", valid[:len(valid)-20], ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New().Decode(bytes.NewReader(tt.data)); !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestFrameInfo_DelayMs(t *testing.T) {
	tests := []struct {
		num, den uint16
		want     float64
	}{
		{42, 1000, 42},
		{1, 10, 100},
		{5, 0, 50}, // zero denominator means hundredths
		{0, 1000, 0},
		{35007, 500, 70014},
	}
	for _, tt := range tests {
		if got := (FrameInfo{DelayNum: tt.num, DelayDen: tt.den}).DelayMs(); got != tt.want {
			t.Errorf("%d/%d: expected %v, got %v", tt.num, tt.den, tt.want, got)
		}
	}
}
