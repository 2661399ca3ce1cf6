package progress

import (
	"time"

	"github.com/fogleman/ease"
)

// Estimator produces an eased progress estimate for work that reports no
// progress of its own. The estimate rises from From toward Cap and never
// reaches Cap; at the expected duration it has covered 87.5% of the range.
type Estimator struct {
	From     float64
	Cap      float64
	Expected time.Duration
}

// At returns the estimate after elapsed time.
func (e Estimator) At(elapsed time.Duration) float64 {
	if elapsed <= 0 || e.Cap <= e.From {
		return e.From
	}
	expected := e.Expected
	if expected <= 0 {
		expected = time.Second
	}
	x := float64(elapsed) / float64(expected)
	// x/(1+x) maps [0,inf) onto [0,1)
	return e.From + (e.Cap-e.From)*ease.OutCubic(x/(1+x))
}

// Per-pixel encode cost used to size the expected duration.
const (
	losslessCostPerPixel = 12 * time.Nanosecond
	paletteCostPerPixel  = 30 * time.Nanosecond
	minEncodeEstimate    = 300 * time.Millisecond
)

// EstimateEncodeDuration guesses how long encoding frames of width x height
// will take. Quantization costs more per pixel than lossless filtering.
func EstimateEncodeDuration(frames, width, height, colors int) time.Duration {
	cost := losslessCostPerPixel
	if colors > 0 {
		cost = paletteCostPerPixel
	}
	d := time.Duration(frames) * time.Duration(width) * time.Duration(height) * cost
	return max(d, minEncodeEstimate)
}
