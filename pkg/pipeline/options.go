package pipeline

import (
	"fmt"
	"slices"
	"strings"
)

// Quality is a palette tier. Lossless keeps full 32-bit colour; the other
// tiers cap the shared palette at a decreasing number of colours.
type Quality string

const (
	QualityLossless Quality = "lossless"
	QualityHigh     Quality = "high"
	QualityMedium   Quality = "medium"
	QualityLow      Quality = "low"
)

// Qualities lists the tiers from best to smallest.
var Qualities = []Quality{QualityLossless, QualityHigh, QualityMedium, QualityLow}

var qualityColors = map[Quality]int{
	QualityLossless: 0,
	QualityHigh:     256,
	QualityMedium:   128,
	QualityLow:      64,
}

// Colors returns the palette ceiling of the tier, 0 meaning lossless.
func (q Quality) Colors() int {
	return qualityColors[q]
}

// Valid reports whether q names a known tier.
func (q Quality) Valid() bool {
	_, ok := qualityColors[q]
	return ok
}

// ParseQuality parses a tier name case-insensitively.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if !q.Valid() {
		return "", Wrap(ErrConfiguration, "options", "quality",
			fmt.Errorf("unknown quality %q (want lossless, high, medium or low)", s))
	}
	return q, nil
}

// ScaleOptions are the supported output scale factors.
var ScaleOptions = []int{1, 2, 3, 4}

// FrameRateOptions are the offered target rates; 0 keeps the native rate.
var FrameRateOptions = []float64{0, 60, 30, 24, 15, 12}

// ValidateScale returns a configuration error unless scale is supported.
func ValidateScale(scale int) error {
	if !slices.Contains(ScaleOptions, scale) {
		return Wrap(ErrConfiguration, "options", "scale",
			fmt.Errorf("unsupported scale %d (want 1-4)", scale))
	}
	return nil
}

// ValidateFrameRate returns a configuration error unless fps is offered.
func ValidateFrameRate(fps float64) error {
	if !slices.Contains(FrameRateOptions, fps) {
		return Wrap(ErrConfiguration, "options", "fps",
			fmt.Errorf("unsupported frame rate %v (want 0, 60, 30, 24, 15 or 12)", fps))
	}
	return nil
}
