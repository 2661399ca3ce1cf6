// Package capture implements the frame capture stage.
package capture

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/user/lottie2apng/pkg/dedupe"
	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
)

// DefaultYieldEvery is the number of frames captured between cooperative yields.
const DefaultYieldEvery = 5

// Stage drives a raster source through a sample plan and folds duplicate frames.
type Stage struct {
	sink   ports.DebugSink
	logger ports.Logger
}

// New creates a new capture stage.
func New(sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		sink:   sink,
		logger: logger.WithComponent("capture"),
	}
}

// Execute seeks the source exactly once per sampled frame, in plan order.
// The source is closed on every exit path before Execute returns.
func (s *Stage) Execute(ctx context.Context, input pipeline.CaptureInput) (pipeline.CaptureResult, error) {
	result := pipeline.CaptureResult{}

	if input.Source == nil {
		return result, pipeline.Wrap(pipeline.ErrCapture, "capture", "no raster source", nil)
	}
	defer func() {
		if err := input.Source.Close(); err != nil {
			s.logger.Warn("Failed to close raster source: %s", err.Error())
			return
		}
		s.logger.Debug("Raster source closed")
	}()

	frames := input.Plan.Frames
	if len(frames) == 0 {
		return result, pipeline.Wrap(pipeline.ErrCapture, "capture", "empty sample plan", nil)
	}

	want := input.Size.BufferSize()
	if want <= 0 {
		return result, pipeline.Wrap(pipeline.ErrConfiguration, "capture",
			fmt.Sprintf("invalid output size %dx%d", input.Size.Width, input.Size.Height), nil)
	}

	yieldEvery := input.YieldEvery
	if yieldEvery <= 0 {
		yieldEvery = DefaultYieldEvery
	}

	s.logger.Debug("Capturing %d frames at %dx%d", len(frames), input.Size.Width, input.Size.Height)

	dd := dedupe.New(len(frames))
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return result, pipeline.Wrap(pipeline.ErrCanceled, "capture", fmt.Sprintf("frame %d", i), err)
		}

		pix, err := input.Source.SeekAndRender(ctx, frame.Offset)
		result.Captured++
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return result, pipeline.Wrap(pipeline.ErrCanceled, "capture", fmt.Sprintf("frame %d", frame.Offset), err)
			}
			return result, pipeline.Wrap(pipeline.ErrCapture, "capture", fmt.Sprintf("render frame %d", frame.Offset), err)
		}
		if len(pix) != want {
			return result, pipeline.Wrap(pipeline.ErrCapture, "capture",
				fmt.Sprintf("frame %d: buffer is %d bytes, expected %d", frame.Offset, len(pix), want), nil)
		}

		if dd.Add(frame, pix) && s.sink != nil && s.sink.Enabled() {
			s.sink.SaveSurvivingFrame(dd.Len()-1, input.Size.Width, input.Size.Height, pix)
		}

		if input.Progress != nil {
			input.Progress(float64(i+1) / float64(len(frames)))
		}

		if (i+1)%yieldEvery == 0 {
			runtime.Gosched()
		}
	}

	result.Duplicates = dd.Duplicates()
	result.Frames = dd.Frames()
	s.logger.Debug("Captured %d frames, %d duplicates folded", result.Captured, result.Duplicates)

	return result, nil
}
