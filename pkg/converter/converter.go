package converter

import (
	"context"

	"github.com/user/lottie2apng/pkg/adapters/apngencoder"
	"github.com/user/lottie2apng/pkg/adapters/filesink"
	"github.com/user/lottie2apng/pkg/adapters/nullsink"
	"github.com/user/lottie2apng/pkg/adapters/sourcedetect"
	"github.com/user/lottie2apng/pkg/orchestrator"
	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
	"github.com/user/lottie2apng/pkg/stages/capture"
	"github.com/user/lottie2apng/pkg/stages/encode"
	"github.com/user/lottie2apng/pkg/stages/sample"
)

// Converter wires inputs, stages and adapters for conversions.
type Converter struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a Converter.
func New(fs ports.FileSystem, logger ports.Logger) *Converter {
	return &Converter{fs: fs, logger: logger}
}

// Open detects the input at path (Lottie JSON, dotLottie or a directory of
// PNG frames) and prepares its raster source.
func (c *Converter) Open(path string, cfg Config) (*sourcedetect.Input, error) {
	return sourcedetect.Open(c.fs, path, cfg.SourceOptions(), c.logger)
}

// OpenBytes prepares an in-memory Lottie JSON or dotLottie payload.
func (c *Converter) OpenBytes(data []byte, name string, cfg Config) (*sourcedetect.Input, error) {
	in, err := sourcedetect.FromBytes(data, cfg.SourceOptions(), c.logger)
	if err != nil {
		return nil, err
	}
	in.Name = name
	return in, nil
}

// NewOrchestrator builds an orchestrator with a fresh encoder and the debug
// sink cfg asks for.
func (c *Converter) NewOrchestrator(cfg Config) (*orchestrator.Orchestrator, error) {
	var sink ports.DebugSink
	if cfg.Debug {
		if err := c.fs.MkdirAll(cfg.DebugDir); err != nil {
			return nil, pipeline.Wrap(pipeline.ErrConfiguration, "converter", "create debug directory", err)
		}
		sink = filesink.New(cfg.DebugDir, c.fs)
	} else {
		sink = nullsink.New()
	}

	return orchestrator.New(
		sample.NewStage(),
		capture.New(sink, c.logger),
		encode.NewStage(apngencoder.New(), c.logger),
		c.fs,
		sink,
		c.logger,
	), nil
}

// Convert runs one conversion of an opened input. outputPath may be empty
// to keep the animation in memory only.
func (c *Converter) Convert(ctx context.Context, input *sourcedetect.Input, cfg Config, outputPath string, progress ports.ProgressReporter) (orchestrator.RunResult, error) {
	orch, err := c.NewOrchestrator(cfg)
	if err != nil {
		return orchestrator.RunResult{}, err
	}
	runCfg := cfg.ToOrchestratorConfig(input, outputPath)
	runCfg.Progress = progress
	return orch.Run(ctx, runCfg)
}

// ConvertFile opens inputPath and converts it into outputPath.
func (c *Converter) ConvertFile(ctx context.Context, inputPath, outputPath string, cfg Config, progress ports.ProgressReporter) (orchestrator.RunResult, error) {
	input, err := c.Open(inputPath, cfg)
	if err != nil {
		return orchestrator.RunResult{}, err
	}
	return c.Convert(ctx, input, cfg, outputPath, progress)
}
