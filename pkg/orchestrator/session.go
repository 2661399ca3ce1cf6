package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
)

// Status is a snapshot of the current or most recent run.
type Status struct {
	RunID     string             `json:"runId"`
	State     string             `json:"state"`
	Percent   float64            `json:"percent"`
	Stage     string             `json:"stage"`
	Error     string             `json:"error,omitempty"`
	Kind      pipeline.ErrorKind `json:"kind,omitempty"`
	Filename  string             `json:"filename,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Session runs conversions one at a time. Starting a run cancels the
// in-flight one and waits until its raster source and encoder are torn
// down.
type Session struct {
	orchestrator *Orchestrator

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	status Status
}

// NewSession creates a session around o.
func NewSession(o *Orchestrator) *Session {
	return &Session{
		orchestrator: o,
		status:       Status{State: pipeline.StateIdle.String(), UpdatedAt: time.Now()},
	}
}

// Run supersedes any in-flight run and executes config. Progress and state
// changes are mirrored into Status before being forwarded to config's own
// observers.
func (s *Session) Run(ctx context.Context, config Config) (RunResult, error) {
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}
	runID := config.RunID

	s.mu.Lock()
	for s.cancel != nil {
		s.cancel()
		prev := s.done
		s.mu.Unlock()
		<-prev
		s.mu.Lock()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	s.status = Status{RunID: runID, State: pipeline.StateIdle.String(), UpdatedAt: time.Now()}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.cancel, s.done = nil, nil
		}
		s.mu.Unlock()
		cancel()
		close(done)
	}()

	next := config.Progress
	config.Progress = ports.ProgressFunc(func(percent float64, stage string) {
		s.update(runID, func(st *Status) {
			st.Percent = percent
			st.Stage = stage
		})
		if next != nil {
			next.Report(percent, stage)
		}
	})
	onState := config.OnState
	config.OnState = func(state pipeline.RunState) {
		s.update(runID, func(st *Status) { st.State = state.String() })
		if onState != nil {
			onState(state)
		}
	}

	result, err := s.orchestrator.Run(runCtx, config)
	s.update(runID, func(st *Status) {
		if err != nil {
			st.Error = pipeline.UserMessage(err)
			st.Kind = pipeline.KindOf(err)
			return
		}
		st.Filename = result.Filename
	})
	return result, err
}

// Cancel aborts the in-flight run, if any, and waits for its teardown.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Busy reports whether a run is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Status returns a snapshot of the latest run.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// update applies fn to the status if runID is still the latest run.
func (s *Session) update(runID string, fn func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.RunID != runID {
		return
	}
	fn(&s.status)
	s.status.UpdatedAt = time.Now()
}
