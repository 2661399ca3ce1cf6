// Package sample implements the frame sampling stage.
package sample

import (
	"context"
	"fmt"
	"math"

	"github.com/user/lottie2apng/pkg/pipeline"
)

// Stage maps a target frame rate onto source frame offsets and delays.
type Stage struct{}

// NewStage creates a new sample stage.
func NewStage() *Stage {
	return &Stage{}
}

// Execute builds the sample plan.
func (s *Stage) Execute(ctx context.Context, input pipeline.SampleInput) (pipeline.SamplePlan, error) {
	return Plan(input.Meta, input.TargetRate)
}

// EffectiveRate returns the output frame rate: the native rate when target
// is 0, otherwise min(target, native). It never upsamples.
func EffectiveRate(native, target float64) float64 {
	if target == 0 {
		return native
	}
	return math.Min(target, native)
}

// Plan computes the sampled timeline for meta at targetRate.
func Plan(meta pipeline.AnimationMeta, targetRate float64) (pipeline.SamplePlan, error) {
	if math.IsNaN(targetRate) || math.IsInf(targetRate, 0) || targetRate < 0 {
		return pipeline.SamplePlan{}, pipeline.Wrap(pipeline.ErrConfiguration, "sample", "target rate",
			fmt.Errorf("invalid target frame rate %v", targetRate))
	}
	if math.IsNaN(meta.FrameRate) || math.IsInf(meta.FrameRate, 0) {
		return pipeline.SamplePlan{}, pipeline.Wrap(pipeline.ErrConfiguration, "sample", "native rate",
			fmt.Errorf("invalid native frame rate %v", meta.FrameRate))
	}

	rate := EffectiveRate(meta.FrameRate, targetRate)
	if rate <= 0 {
		return pipeline.SamplePlan{}, pipeline.Wrap(pipeline.ErrConfiguration, "sample", "effective rate",
			fmt.Errorf("degenerate sample rate %v (native %v, target %v)", rate, meta.FrameRate, targetRate))
	}

	step := meta.FrameRate / rate
	totalSource := int(math.Floor(meta.LastFrame - meta.FirstFrame))
	delay := int(math.Round(1000 / rate))
	if delay < 1 {
		delay = 1
	}

	totalOutput := 1
	if totalSource > 1 {
		totalOutput = int(math.Ceil(float64(totalSource) / step))
	}
	lastOffset := totalSource - 1
	if lastOffset < 0 {
		lastOffset = 0
	}

	first := int(math.Floor(meta.FirstFrame))
	frames := make([]pipeline.SampledFrame, totalOutput)
	for i := range frames {
		offset := int(math.Floor(float64(i) * step))
		if offset > lastOffset {
			offset = lastOffset
		}
		frames[i] = pipeline.SampledFrame{
			Offset:           offset,
			SourceFrameIndex: first + offset,
			DelayMs:          delay,
		}
	}

	return pipeline.SamplePlan{
		EffectiveRate:     rate,
		Step:              step,
		TotalSourceFrames: totalSource,
		DelayMs:           delay,
		Frames:            frames,
	}, nil
}
