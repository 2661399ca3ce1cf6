// Package filesink writes debug output under a base directory.
package filesink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/user/lottie2apng/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a new file sink rooted at baseDir.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{baseDir: baseDir, fs: fs}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveSamplePlanJSON writes sample-plan.json.
func (s *Sink) SaveSamplePlanJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "sample-plan.json"), data)
}

// SaveCaptureJSON writes capture.json.
func (s *Sink) SaveCaptureJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "capture.json"), data)
}

// SaveSurvivingFrame writes frames/frame-NNNN.png. pix is only read.
func (s *Sink) SaveSurvivingFrame(index, width, height int, pix []byte) error {
	if len(pix) != width*height*4 {
		return fmt.Errorf("frame %d: buffer is %d bytes, want %d", index, len(pix), width*height*4)
	}
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	img := &image.NRGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index)), buf.Bytes())
}

var _ ports.DebugSink = (*Sink)(nil)
