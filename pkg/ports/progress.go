package ports

// ProgressReporter receives pipeline progress. Percent is in [0,100] and
// stage is a short human-readable label.
type ProgressReporter interface {
	Report(percent float64, stage string)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(percent float64, stage string)

// Report implements ProgressReporter.
func (f ProgressFunc) Report(percent float64, stage string) {
	f(percent, stage)
}
