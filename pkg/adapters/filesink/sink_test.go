package filesink

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/user/lottie2apng/pkg/mocks"
)

var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	if !New(testBaseDir, mocks.NewFileSystem()).Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveJSON(t *testing.T) {
	tests := []struct {
		name string
		save func(*Sink, []byte) error
		file string
	}{
		{"sample plan", (*Sink).SaveSamplePlanJSON, "sample-plan.json"},
		{"capture", (*Sink).SaveCaptureJSON, "capture.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			sink := New(testBaseDir, fs)
			data := []byte(`{"test": true}`)
			if err := tt.save(sink, data); err != nil {
				t.Fatalf("save failed: %v", err)
			}
			saved, ok := fs.GetFile(filepath.Join(testBaseDir, tt.file))
			if !ok {
				t.Fatalf("expected %s to be saved", tt.file)
			}
			if string(saved) != string(data) {
				t.Errorf("expected %q, got %q", data, saved)
			}
		})
	}
}

func TestSink_SaveSurvivingFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs)

	pix := mocks.Pattern(3, 2, 1)
	orig := append([]byte(nil), pix...)
	if err := sink.SaveSurvivingFrame(7, 3, 2, pix); err != nil {
		t.Fatalf("SaveSurvivingFrame failed: %v", err)
	}
	if !bytes.Equal(pix, orig) {
		t.Error("sink modified the frame buffer")
	}

	data, ok := fs.GetFile(filepath.Join(testBaseDir, "frames", "frame-0007.png"))
	if !ok {
		t.Fatal("expected frame-0007.png")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("decoded %T, want *image.NRGBA", img)
	}
	if !bytes.Equal(nrgba.Pix, orig) {
		t.Error("saved pixels differ")
	}
}

func TestSink_SaveSurvivingFrame_WrongSize(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem())
	if err := sink.SaveSurvivingFrame(0, 3, 2, make([]byte, 10)); err == nil {
		t.Error("expected size error")
	}
}
