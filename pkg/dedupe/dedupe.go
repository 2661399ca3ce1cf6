// Package dedupe folds runs of pixel-identical frames into a single frame
// whose display duration is the sum of the run.
package dedupe

import (
	"bytes"

	"github.com/user/lottie2apng/pkg/pipeline"
)

// sampleStride is the byte distance between probes of the coarse pre-check.
// It is a multiple of 4 so every probe lands on a pixel boundary.
const sampleStride = 400

// Equal reports whether a and b are byte-identical. A strided probe of
// whole pixels short-circuits obviously different frames; equality is only
// ever declared after a full comparison.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i+4 <= len(a); i += sampleStride {
		if a[i] != b[i] || a[i+1] != b[i+1] || a[i+2] != b[i+2] || a[i+3] != b[i+3] {
			return false
		}
	}
	return bytes.Equal(a, b)
}

// Deduplicator consumes frames in sampled order and keeps the survivors.
// It is not safe for concurrent use.
type Deduplicator struct {
	frames     []pipeline.SurvivingFrame
	duplicates int
}

// New creates an empty Deduplicator sized for up to capacity survivors.
func New(capacity int) *Deduplicator {
	if capacity < 0 {
		capacity = 0
	}
	return &Deduplicator{frames: make([]pipeline.SurvivingFrame, 0, capacity)}
}

// Add offers the next captured frame. When pix equals the most recent
// survivor the sample's delay is folded into that survivor and pix is
// dropped; otherwise pix becomes a new survivor. It reports whether the
// frame was retained.
func (d *Deduplicator) Add(sample pipeline.SampledFrame, pix []byte) bool {
	if n := len(d.frames); n > 0 && Equal(d.frames[n-1].Pix, pix) {
		d.frames[n-1].DelayMs += sample.DelayMs
		d.duplicates++
		return false
	}
	d.frames = append(d.frames, pipeline.SurvivingFrame{SampledFrame: sample, Pix: pix})
	return true
}

// Len returns the number of survivors so far.
func (d *Deduplicator) Len() int {
	return len(d.frames)
}

// Duplicates returns how many frames were folded away.
func (d *Deduplicator) Duplicates() int {
	return d.duplicates
}

// Frames hands the survivors to the caller and resets the Deduplicator.
func (d *Deduplicator) Frames() []pipeline.SurvivingFrame {
	frames := d.frames
	d.frames = nil
	return frames
}
