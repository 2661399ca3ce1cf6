package progress

import (
	"strings"
	"sync"

	"github.com/user/lottie2apng/pkg/ports"
)

// DefaultBucket is the percentage granularity used when none is given.
const DefaultBucket = 1.0

// Sampler suppresses repetitive progress updates while preserving signal
// when stages or percentage buckets change. Completion (100%) is always
// forwarded.
type Sampler struct {
	mu         sync.Mutex
	next       ports.ProgressReporter
	bucketSize float64
	lastStage  string
	lastBucket int
}

// NewSampler constructs a sampler in front of next that emits when the
// percent crosses bucket boundaries or when the stage changes.
func NewSampler(next ports.ProgressReporter, bucketSize float64) *Sampler {
	if bucketSize <= 0 {
		bucketSize = DefaultBucket
	}
	return &Sampler{next: next, bucketSize: bucketSize, lastBucket: -1}
}

// ShouldEmit reports whether an update should be forwarded and records it.
func (s *Sampler) ShouldEmit(percent float64, stage string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stage = strings.TrimSpace(stage)
	emit := false
	if stage != "" && stage != s.lastStage {
		s.lastStage = stage
		s.lastBucket = -1
		emit = true
	}
	bucket := int(percent / s.bucketSize)
	if percent >= 100 {
		bucket = int(100/s.bucketSize) + 1
	}
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}

// Report implements ports.ProgressReporter.
func (s *Sampler) Report(percent float64, stage string) {
	if s.ShouldEmit(percent, stage) && s.next != nil {
		s.next.Report(percent, stage)
	}
}

// Reset clears the sampler state (e.g. when a new run starts).
func (s *Sampler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastStage = ""
	s.lastBucket = -1
}

var _ ports.ProgressReporter = (*Sampler)(nil)
