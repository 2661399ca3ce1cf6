// Package progressbar renders pipeline progress as a terminal bar.
package progressbar

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/user/lottie2apng/pkg/ports"
)

// Reporter implements ports.ProgressReporter with a 0-100 bar whose
// description tracks the stage label.
type Reporter struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	stage string
	done  bool
}

// New creates a bar that writes to w.
func New(w io.Writer) *Reporter {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(50*time.Millisecond),
		progressbar.OptionOnCompletion(func() { io.WriteString(w, "\n") }),
	)
	return &Reporter{bar: bar}
}

// NewAuto returns a bar on f when f is a terminal and a no-op reporter
// otherwise.
func NewAuto(f *os.File) ports.ProgressReporter {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return New(f)
	}
	return ports.ProgressFunc(func(float64, string) {})
}

// Report implements ports.ProgressReporter.
func (r *Reporter) Report(percent float64, stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	if stage != r.stage {
		r.stage = stage
		r.bar.Describe(l10n.T(stage))
	}
	if percent >= 100 {
		r.done = true
		r.bar.Finish()
		return
	}
	r.bar.Set(int(percent))
}

var _ ports.ProgressReporter = (*Reporter)(nil)
