// Package pipeline provides the shared types and stage plumbing for the
// frame pipeline: sampling, capture with duplicate folding, and encoding.
package pipeline

import (
	"context"
)

// Stage is one step of a conversion. Stages own no state between runs;
// everything a run needs travels in In.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a function to Stage. Tests use it to stub single stages.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute calls f.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// The three stages of a conversion, in run order.
type (
	SampleStage  = Stage[SampleInput, SamplePlan]
	CaptureStage = Stage[CaptureInput, CaptureResult]
	EncodeStage  = Stage[EncodeInput, EncodeResult]
)
