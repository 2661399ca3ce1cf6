// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
	"github.com/user/lottie2apng/pkg/progress"
)

// Progress sub-ranges. Capture is reported linearly, encoding is estimated
// and held below encodeCap until the encoder returns.
const (
	captureStart = 0.0
	captureEnd   = 20.0
	encodeCap    = 90.0
)

// DefaultEncodeTick is how often the encode estimate is refreshed.
const DefaultEncodeTick = 150 * time.Millisecond

// Config contains all configuration for the orchestrator.
type Config struct {
	// Input
	Meta      pipeline.AnimationMeta
	Source    ports.RasterSourceFactory
	InputName string // File name stem used for the suggested filename
	RunID     string // Generated when empty

	// Output
	Scale            int
	Quality          pipeline.Quality
	TargetFPS        float64 // 0 keeps the native rate
	LoopCount        int     // 0 = infinite
	CompressionLevel int     // zlib level, 0 = default
	OutputPath       string  // Written through the file system when set

	// Scheduling
	YieldEvery int
	EncodeTick time.Duration

	// Observers
	Progress ports.ProgressReporter
	OnState  func(state pipeline.RunState)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Scale:      1,
		Quality:    pipeline.QualityHigh,
		TargetFPS:  0,
		LoopCount:  0,
		YieldEvery: 5,
		EncodeTick: DefaultEncodeTick,
	}
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	sampleStage  pipeline.SampleStage
	captureStage pipeline.CaptureStage
	encodeStage  pipeline.EncodeStage
	fs           ports.FileSystem
	sink         ports.DebugSink
	logger       ports.Logger
}

// New creates a new Orchestrator.
func New(
	sampleStage pipeline.SampleStage,
	captureStage pipeline.CaptureStage,
	encodeStage pipeline.EncodeStage,
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		sampleStage:  sampleStage,
		captureStage: captureStage,
		encodeStage:  encodeStage,
		fs:           fs,
		sink:         sink,
		logger:       logger,
	}
}

// run holds per-run state so one Orchestrator can serve sequential runs.
type run struct {
	config Config
	state  pipeline.RunState
	report *progress.Monotonic
}

func (r *run) transition(state pipeline.RunState) {
	r.state = state
	if r.config.OnState != nil {
		r.config.OnState(state)
	}
}

// Run executes the complete pipeline. On failure the returned error carries
// exactly one pipeline marker and no partial animation is returned.
func (o *Orchestrator) Run(ctx context.Context, config Config) (result RunResult, err error) {
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}
	r := &run{
		config: config,
		state:  pipeline.StateIdle,
		report: progress.NewMonotonic(progress.NewSampler(config.Progress, progress.DefaultBucket)),
	}
	started := time.Now()

	defer func() {
		if err == nil {
			return
		}
		if ctx.Err() != nil && pipeline.KindOf(err) != pipeline.KindCanceled {
			err = pipeline.Wrap(pipeline.ErrCanceled, "orchestrator", r.state.String(), err)
		}
		result = RunResult{RunID: config.RunID, State: pipeline.StateFailed}
		r.transition(pipeline.StateFailed)
		if pipeline.KindOf(err) == pipeline.KindCanceled {
			o.logger.Warn("Conversion %s canceled", config.RunID)
			return
		}
		o.logger.Error("Conversion %s failed: %s", config.RunID, err.Error())
	}()

	o.logger.Info("Starting conversion %s", config.RunID)
	r.report.Report(0, pipeline.LabelPreparing)

	colors, err := validate(config)
	if err != nil {
		return RunResult{}, err
	}
	size := config.Meta.OutputSize(config.Scale)

	// 1. Sample
	r.transition(pipeline.StateCapturing)
	plan, err := o.sampleStage.Execute(ctx, pipeline.SampleInput{Meta: config.Meta, TargetRate: config.TargetFPS})
	if err != nil {
		return RunResult{}, err
	}
	o.logger.Info("Sampling %d of %d source frames at %s fps",
		len(plan.Frames), plan.TotalSourceFrames, formatRate(plan.EffectiveRate))

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(plan, "", "  "); err == nil {
			o.sink.SaveSamplePlanJSON(data)
		}
	}

	// 2. Capture
	source, err := config.Source.Open(ctx, size.Width, size.Height, config.Scale)
	if err != nil {
		if ctx.Err() != nil {
			return RunResult{}, pipeline.Wrap(pipeline.ErrCanceled, "capture", "open source", err)
		}
		return RunResult{}, pipeline.Wrap(pipeline.ErrCapture, "capture", "open source", err)
	}
	o.logger.Info("Capturing frames at %dx%d", size.Width, size.Height)

	captured, err := o.captureStage.Execute(ctx, pipeline.CaptureInput{
		Plan:       plan,
		Size:       size,
		Source:     source,
		YieldEvery: config.YieldEvery,
		Progress: func(fraction float64) {
			r.report.Report(captureStart+(captureEnd-captureStart)*fraction, pipeline.LabelCapturing)
		},
	})
	if err != nil {
		return RunResult{}, err
	}
	o.logger.Info("Captured %d frames, %d unique after folding duplicates", captured.Captured, len(captured.Frames))

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(newCaptureReport(captured), "", "  "); err == nil {
			o.sink.SaveCaptureJSON(data)
		}
	}

	if err := ctx.Err(); err != nil {
		return RunResult{}, pipeline.Wrap(pipeline.ErrCanceled, "capture", "finished", err)
	}

	// 3. Encode
	r.transition(pipeline.StateEncoding)
	r.report.Report(captureEnd, pipeline.LabelEncoding)
	surviving, duplicates, capturedCount := len(captured.Frames), captured.Duplicates, captured.Captured
	input := pipeline.EncodeInput{
		Frames:           captured.Frames,
		Size:             size,
		Colors:           colors,
		LoopCount:        config.LoopCount,
		CompressionLevel: config.CompressionLevel,
	}
	// Frame buffers now belong to the encoder.
	captured.Frames = nil

	if colors == 0 {
		o.logger.Info("Encoding %d frames losslessly", surviving)
	} else {
		o.logger.Info("Encoding %d frames with up to %d colors", surviving, colors)
	}
	encoded, err := o.encode(ctx, input, r.report, config.EncodeTick)
	if err != nil {
		return RunResult{}, err
	}

	// 4. Write output file
	if config.OutputPath != "" {
		if err := o.fs.WriteFile(config.OutputPath, encoded.Animation.Data); err != nil {
			return RunResult{}, pipeline.Wrap(pipeline.ErrInternal, "orchestrator", "write output", err)
		}
		o.logger.Info("Wrote %s", config.OutputPath)
	}

	r.transition(pipeline.StateDone)
	r.report.Report(100, pipeline.LabelDone)

	result = RunResult{
		RunID:           config.RunID,
		State:           pipeline.StateDone,
		Animation:       encoded.Animation,
		Filename:        SuggestedFilename(config.InputName, config.Meta.Name, config.Scale, config.Quality, plan.EffectiveRate),
		OutputPath:      config.OutputPath,
		Width:           size.Width,
		Height:          size.Height,
		Scale:           config.Scale,
		Quality:         config.Quality,
		Colors:          colors,
		EffectiveFPS:    plan.EffectiveRate,
		SampledFrames:   len(plan.Frames),
		CapturedFrames:  capturedCount,
		SurvivingFrames: surviving,
		DuplicateFrames: duplicates,
		DurationMs:      encoded.DurationMs,
		FileSize:        encoded.FileSize,
		Elapsed:         time.Since(started),
	}

	o.logger.Info("Conversion %s completed: %s, %d frames, %d ms in %s",
		config.RunID, humanize.Bytes(uint64(result.FileSize)), result.SurvivingFrames,
		result.DurationMs, result.Elapsed.Round(time.Millisecond))

	return result, nil
}

type encodeOutcome struct {
	result pipeline.EncodeResult
	err    error
}

// encode runs the encode stage on its own goroutine and reports an eased
// estimate until it returns. If ctx is canceled the stage is stopped and
// waited for before encode returns.
func (o *Orchestrator) encode(ctx context.Context, input pipeline.EncodeInput, report ports.ProgressReporter, tick time.Duration) (pipeline.EncodeResult, error) {
	if tick <= 0 {
		tick = DefaultEncodeTick
	}
	estimate := progress.Estimator{
		From:     captureEnd,
		Cap:      encodeCap,
		Expected: progress.EstimateEncodeDuration(len(input.Frames), input.Size.Width, input.Size.Height, input.Colors),
	}

	encodeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan encodeOutcome, 1)
	go func() {
		res, err := o.encodeStage.Execute(encodeCtx, input)
		done <- encodeOutcome{result: res, err: err}
	}()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case out := <-done:
			return out.result, out.err
		case <-ticker.C:
			report.Report(estimate.At(time.Since(start)), pipeline.LabelEncoding)
		case <-ctx.Done():
			cancel()
			<-done
			return pipeline.EncodeResult{}, pipeline.Wrap(pipeline.ErrCanceled, "encode", "abandoned", ctx.Err())
		}
	}
}

func validate(config Config) (int, error) {
	m := config.Meta
	switch {
	case math.IsNaN(m.FrameRate) || math.IsInf(m.FrameRate, 0) || m.FrameRate < 0:
		return 0, pipeline.Wrap(pipeline.ErrValidation, "orchestrator", "meta",
			fmt.Errorf("invalid frame rate %v", m.FrameRate))
	case !(m.LastFrame > m.FirstFrame):
		return 0, pipeline.Wrap(pipeline.ErrValidation, "orchestrator", "meta",
			fmt.Errorf("out point %v must be after in point %v", m.LastFrame, m.FirstFrame))
	case m.Width <= 0 || m.Height <= 0:
		return 0, pipeline.Wrap(pipeline.ErrValidation, "orchestrator", "meta",
			fmt.Errorf("invalid size %dx%d", m.Width, m.Height))
	}

	if config.Source == nil {
		return 0, pipeline.Wrap(pipeline.ErrConfiguration, "orchestrator", "source", fmt.Errorf("no raster source"))
	}
	if err := pipeline.ValidateScale(config.Scale); err != nil {
		return 0, err
	}
	if !config.Quality.Valid() {
		return 0, pipeline.Wrap(pipeline.ErrConfiguration, "orchestrator", "quality",
			fmt.Errorf("unknown quality %q", config.Quality))
	}
	if config.LoopCount < 0 {
		return 0, pipeline.Wrap(pipeline.ErrConfiguration, "orchestrator", "loop count",
			fmt.Errorf("negative loop count %d", config.LoopCount))
	}
	if config.CompressionLevel < 0 || config.CompressionLevel > 9 {
		return 0, pipeline.Wrap(pipeline.ErrConfiguration, "orchestrator", "compression level",
			fmt.Errorf("compression level %d outside 0-9", config.CompressionLevel))
	}
	return config.Quality.Colors(), nil
}

func formatRate(fps float64) string {
	if fps == math.Trunc(fps) {
		return fmt.Sprintf("%d", int(fps))
	}
	return fmt.Sprintf("%.2f", fps)
}

// captureReport is the debug sink view of a capture result.
type captureReport struct {
	Captured   int           `json:"captured"`
	Duplicates int           `json:"duplicates"`
	Surviving  int           `json:"surviving"`
	DurationMs int           `json:"durationMs"`
	Frames     []frameTiming `json:"frames"`
}

type frameTiming struct {
	Offset           int `json:"offset"`
	SourceFrameIndex int `json:"sourceFrameIndex"`
	DelayMs          int `json:"delayMs"`
}

func newCaptureReport(r pipeline.CaptureResult) captureReport {
	report := captureReport{
		Captured:   r.Captured,
		Duplicates: r.Duplicates,
		Surviving:  len(r.Frames),
		DurationMs: r.TotalDurationMs(),
		Frames:     make([]frameTiming, len(r.Frames)),
	}
	for i, f := range r.Frames {
		report.Frames[i] = frameTiming{
			Offset:           f.Offset,
			SourceFrameIndex: f.SourceFrameIndex,
			DelayMs:          f.DelayMs,
		}
	}
	return report
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	RunID string
	State pipeline.RunState

	// Artifact
	Animation  pipeline.EncodedAnimation
	Filename   string // Suggested download name
	OutputPath string // Empty unless written
	FileSize   int64

	// Output settings
	Width        int
	Height       int
	Scale        int
	Quality      pipeline.Quality
	Colors       int
	EffectiveFPS float64

	// Frame statistics
	SampledFrames   int
	CapturedFrames  int
	SurvivingFrames int
	DuplicateFrames int
	DurationMs      int

	Elapsed time.Duration
}
