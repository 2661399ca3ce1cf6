// Package nullsink provides a debug sink that discards everything.
package nullsink

import "github.com/user/lottie2apng/pkg/ports"

// Sink is a no-op implementation of ports.DebugSink.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false; callers skip building debug payloads.
func (s *Sink) Enabled() bool { return false }

func (s *Sink) SaveSamplePlanJSON(data []byte) error { return nil }

func (s *Sink) SaveCaptureJSON(data []byte) error { return nil }

func (s *Sink) SaveSurvivingFrame(index, width, height int, pix []byte) error { return nil }

var _ ports.DebugSink = (*Sink)(nil)
