package sequencesource

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/user/lottie2apng/pkg/adapters/logger"
	"github.com/user/lottie2apng/pkg/mocks"
	"github.com/user/lottie2apng/pkg/pipeline"
)

func encodeFrame(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newSequenceFS(t *testing.T) *mocks.FileSystem {
	fs := mocks.NewFileSystem()
	fs.WriteFile("frames/b_002.png", encodeFrame(t, 4, 2, color.NRGBA{0, 255, 0, 255}))
	fs.WriteFile("frames/a_001.png", encodeFrame(t, 4, 2, color.NRGBA{200, 10, 20, 128}))
	fs.WriteFile("frames/notes.txt", []byte("ignored"))
	fs.WriteFile("frames/c_003.PNG", encodeFrame(t, 4, 2, color.NRGBA{0, 0, 255, 255}))
	return fs
}

func TestProbe(t *testing.T) {
	seq, err := Probe(newSequenceFS(t), "frames", 12)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if len(seq.Files) != 3 || seq.Files[0] != "a_001.png" || seq.Files[2] != "c_003.PNG" {
		t.Errorf("Files = %v", seq.Files)
	}
	m := seq.Meta()
	want := pipeline.AnimationMeta{FrameRate: 12, FirstFrame: 0, LastFrame: 3, Width: 4, Height: 2, Name: "frames"}
	if m != want {
		t.Errorf("Meta() = %+v, want %+v", m, want)
	}

	seq, err = Probe(newSequenceFS(t), "frames", 0)
	if err != nil {
		t.Fatal(err)
	}
	if seq.FrameRate != DefaultFrameRate {
		t.Errorf("FrameRate = %v, want default", seq.FrameRate)
	}
}

func TestProbe_Errors(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFile("empty/readme.txt", []byte("x"))
	fs.WriteFile("broken/f.png", []byte("not a png"))

	for _, dir := range []string{"missing", "empty", "broken"} {
		if _, err := Probe(fs, dir, 30); !errors.Is(err, pipeline.ErrValidation) {
			t.Errorf("Probe(%q) error = %v, want ErrValidation", dir, err)
		}
	}
}

func TestSource_SeekAndRender(t *testing.T) {
	fs := newSequenceFS(t)
	seq, err := Probe(fs, "frames", 30)
	if err != nil {
		t.Fatal(err)
	}
	src, err := New(seq, fs, logger.NewNoop()).Open(context.Background(), 4, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	pix, err := src.SeekAndRender(context.Background(), 0)
	if err != nil {
		t.Fatalf("SeekAndRender() error = %v", err)
	}
	if len(pix) != 4*2*4 {
		t.Fatalf("length = %d", len(pix))
	}
	// Straight alpha survives unchanged.
	if got := [4]byte{pix[0], pix[1], pix[2], pix[3]}; got != [4]byte{200, 10, 20, 128} {
		t.Errorf("pixel = %v", got)
	}

	if _, err := src.SeekAndRender(context.Background(), 3); err == nil {
		t.Error("expected out of range error")
	}
}

func TestSource_Scales(t *testing.T) {
	fs := newSequenceFS(t)
	seq, _ := Probe(fs, "frames", 30)
	src, err := New(seq, fs, logger.NewNoop()).Open(context.Background(), 8, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	pix, err := src.SeekAndRender(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(pix) != 8*4*4 {
		t.Fatalf("length = %d", len(pix))
	}
	for i := 0; i < len(pix); i += 4 {
		if pix[i+1] < 250 || pix[i+3] < 250 {
			t.Fatalf("pixel %d = %v, want opaque green", i/4, pix[i:i+4])
		}
	}
}

func TestSource_Closed(t *testing.T) {
	fs := newSequenceFS(t)
	seq, _ := Probe(fs, "frames", 30)
	src, _ := New(seq, fs, logger.NewNoop()).Open(context.Background(), 4, 2, 1)
	src.Close()
	if _, err := src.SeekAndRender(context.Background(), 0); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}
