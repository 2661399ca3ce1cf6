// Package progress shapes pipeline progress for display: it keeps the
// reported percentage monotonic, thins out repetitive updates and
// estimates progress for phases that report none.
package progress

import (
	"sync"

	"github.com/user/lottie2apng/pkg/ports"
)

// Monotonic forwards progress clamped to [0,100] and never lets the
// percentage decrease. Repeats of the last (percent, stage) pair are dropped.
// It is safe for concurrent use.
type Monotonic struct {
	mu        sync.Mutex
	next      ports.ProgressReporter
	last      float64
	lastStage string
	started   bool
}

// NewMonotonic wraps next. A nil next discards every update.
func NewMonotonic(next ports.ProgressReporter) *Monotonic {
	return &Monotonic{next: next}
}

// Report implements ports.ProgressReporter.
func (m *Monotonic) Report(percent float64, stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	percent = min(max(percent, 0), 100)
	if m.started && percent < m.last {
		percent = m.last
	}
	if m.started && percent == m.last && stage == m.lastStage {
		return
	}
	m.started = true
	m.last = percent
	m.lastStage = stage

	if m.next != nil {
		m.next.Report(percent, stage)
	}
}

// Percent returns the last forwarded percentage.
func (m *Monotonic) Percent() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Stage returns the last forwarded stage label.
func (m *Monotonic) Stage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastStage
}

var _ ports.ProgressReporter = (*Monotonic)(nil)
