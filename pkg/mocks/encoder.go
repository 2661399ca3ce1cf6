package mocks

import (
	"context"
	"sync"

	"github.com/user/lottie2apng/pkg/ports"
)

// AnimationEncoder is a mock implementation of ports.AnimationEncoder.
type AnimationEncoder struct {
	mu sync.Mutex

	BeginFunc    func(width, height int, opts ports.EncoderOptions) error
	AddFrameFunc func(pix []byte, delayMs int) error
	EndFunc      func(ctx context.Context) ([]byte, error)

	// Recorded calls for verification
	BeginCalled   bool
	Width         int
	Height        int
	Options       ports.EncoderOptions
	AddFrameCalls []AddFrameCall
	EndCalled     bool
	AbortCalled   bool
}

// AddFrameCall records a call to AddFrame.
type AddFrameCall struct {
	DelayMs int
	Size    int
}

func (m *AnimationEncoder) Begin(width, height int, opts ports.EncoderOptions) error {
	m.mu.Lock()
	m.BeginCalled = true
	m.Width, m.Height, m.Options = width, height, opts
	m.mu.Unlock()
	if m.BeginFunc != nil {
		return m.BeginFunc(width, height, opts)
	}
	return nil
}

func (m *AnimationEncoder) AddFrame(pix []byte, delayMs int) error {
	m.mu.Lock()
	m.AddFrameCalls = append(m.AddFrameCalls, AddFrameCall{DelayMs: delayMs, Size: len(pix)})
	m.mu.Unlock()
	if m.AddFrameFunc != nil {
		return m.AddFrameFunc(pix, delayMs)
	}
	return nil
}

func (m *AnimationEncoder) End(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	m.EndCalled = true
	m.mu.Unlock()
	if m.EndFunc != nil {
		return m.EndFunc(ctx)
	}
	// PNG signature
	return []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, nil
}

func (m *AnimationEncoder) Abort() {
	m.mu.Lock()
	m.AbortCalled = true
	m.mu.Unlock()
}

// FrameDelays returns the delays passed to AddFrame, in call order.
func (m *AnimationEncoder) FrameDelays() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	delays := make([]int, len(m.AddFrameCalls))
	for i, c := range m.AddFrameCalls {
		delays[i] = c.DelayMs
	}
	return delays
}

var _ ports.AnimationEncoder = (*AnimationEncoder)(nil)
