package mocks

import (
	"sync"

	"github.com/user/lottie2apng/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	SamplePlanJSON  []byte
	CaptureJSON     []byte
	SurvivingFrames map[int][]byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:         enabled,
		SurvivingFrames: make(map[int][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveSamplePlanJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SamplePlanJSON = data
	return nil
}

func (m *DebugSink) SaveCaptureJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CaptureJSON = data
	return nil
}

func (m *DebugSink) SaveSurvivingFrame(index, width, height int, pix []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SurvivingFrames[index] = pix
	return nil
}

// SurvivingFrameCount returns the number of saved surviving frames.
func (m *DebugSink) SurvivingFrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SurvivingFrames)
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                                      { return false }
func (m *NullSink) SaveSamplePlanJSON(data []byte) error               { return nil }
func (m *NullSink) SaveCaptureJSON(data []byte) error                  { return nil }
func (m *NullSink) SaveSurvivingFrame(index, w, h int, p []byte) error { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
