// Package main provides the CLI entry point for lottie2apng.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/lottie2apng/pkg/adapters/logger"
	"github.com/user/lottie2apng/pkg/adapters/osfilesystem"
	"github.com/user/lottie2apng/pkg/adapters/progressbar"
	"github.com/user/lottie2apng/pkg/adapters/sourcedetect"
	"github.com/user/lottie2apng/pkg/config"
	"github.com/user/lottie2apng/pkg/converter"
	"github.com/user/lottie2apng/pkg/orchestrator"
	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
	"github.com/user/lottie2apng/pkg/stages/sample"
	"github.com/user/lottie2apng/pkg/summarizer"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Convert ConvertCmd `cmd:"" help:"Convert a Lottie animation to an animated PNG."`
	Info    InfoCmd    `cmd:"" help:"Show animation metadata."`
	Inspect InspectCmd `cmd:"" help:"List the frames of an animated PNG."`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP conversion service."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// ConvertCmd defines the convert subcommand.
type ConvertCmd struct {
	Input  string `arg:"" help:"Lottie JSON, dotLottie file or directory of PNG frames."`
	Output string `short:"o" help:"Output APNG path (default: suggested filename next to the input)."`

	// Output options (override the config file)
	Scale     *int     `short:"s" group:"Output" help:"Scale factor (1, 2, 3 or 4)."`
	Quality   *string  `short:"q" group:"Output" help:"Quality tier (lossless, high, medium, low)."`
	FPS       *float64 `short:"f" name:"fps" group:"Output" help:"Target frame rate (0, 60, 30, 24, 15 or 12; 0 keeps the native rate)."`
	Loop      *int     `group:"Output" help:"Number of plays (0 = infinite)."`
	Summary   string   `group:"Output" help:"Write a Markdown conversion summary to this path (- for stdout)."`
	Overwrite bool     `short:"y" group:"Output" help:"Overwrite an existing output file."`

	// Rendering
	Renderer    *string  `short:"r" group:"Rendering" help:"Renderer (auto, vector, chrome)."`
	ChromePath  *string  `group:"Rendering" help:"Path to Chrome executable (falls back to CHROME_PATH env)."`
	NoHeadless  bool     `group:"Rendering" help:"Run the browser in non-headless mode."`
	SequenceFPS *float64 `group:"Rendering" help:"Frame rate of PNG sequence inputs."`

	// Config file
	Config string `short:"c" type:"path" help:"Configuration file (YAML or TOML)."`

	// Debug options
	Debug    bool    `short:"d" group:"Debug" help:"Enable debug output."`
	DebugDir *string `group:"Debug" help:"Directory for debug output."`

	// Logging options
	LogLevel string `short:"l" group:"Logging" help:"Log level (debug, info, warn, error)."`
	Quiet    bool   `short:"Q" group:"Logging" help:"Suppress log output and the progress bar."`
}

// InfoCmd shows the metadata of an input.
type InfoCmd struct {
	Input string `arg:"" help:"Lottie JSON, dotLottie file or directory of PNG frames."`
}

// InspectCmd lists the frames of an APNG file.
type InspectCmd struct {
	File string `arg:"" help:"APNG file to inspect."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("lottie2apng"),
		kong.Description(l10n.T("Convert Lottie animations to animated PNG.")),
		kong.UsageOnError(),
		kong.PostBuild(translateHelp),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, pipeline.UserMessage(err))
		os.Exit(exitCode(err))
	}
}

// translateHelp localizes command and flag help after kong builds the model.
func translateHelp(k *kong.Kong) error {
	var walk func(n *kong.Node)
	walk = func(n *kong.Node) {
		n.Help = l10n.T(strings.TrimSuffix(n.Help, "."))
		n.Detail = l10n.T(n.Detail)
		for _, f := range n.Flags {
			f.Help = l10n.T(strings.TrimSuffix(f.Help, "."))
			if f.Group != nil {
				f.Group.Title = l10n.T(f.Group.Title)
			}
		}
		for _, p := range n.Positional {
			p.Help = l10n.T(strings.TrimSuffix(p.Help, "."))
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(k.Model.Node)
	return nil
}

// exitCode distinguishes user errors from runtime failures.
func exitCode(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindValidation, pipeline.KindConfiguration:
		return 2
	case pipeline.KindCanceled:
		return 130
	default:
		return 1
	}
}

// newLogger creates the console logger for the given level, or a no-op
// logger when quiet.
func newLogger(level string, quiet bool) ports.Logger {
	if quiet {
		return logger.NewNoop()
	}
	parsed, err := ports.ParseLogLevel(level)
	if err != nil {
		parsed = ports.LevelInfo
	}
	return logger.NewConsole(parsed)
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// loadConfig reads path, or returns defaults when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Run executes the convert command.
func (cmd *ConvertCmd) Run() error {
	fileCfg, err := loadConfig(cmd.Config)
	if err != nil {
		return err
	}
	fileCfg, err = cmd.applyFlags(fileCfg)
	if err != nil {
		return err
	}
	cfg := converter.NewConfigBuilderFrom(fileCfg).Build()

	log := newLogger(fileCfg.LogLevel, cmd.Quiet)

	ctx, cancel := signalContext(log)
	defer cancel()

	fs := osfilesystem.New()
	conv := converter.New(fs, log)

	input, err := conv.Open(cmd.Input, cfg)
	if err != nil {
		return err
	}

	output := cmd.Output
	if output == "" {
		fps := sample.EffectiveRate(input.Meta.FrameRate, cfg.FPS)
		name := orchestrator.SuggestedFilename(input.Name, input.Meta.Name, cfg.Scale, cfg.Quality, fps)
		output = filepath.Join(filepath.Dir(filepath.Clean(cmd.Input)), name)
	}
	if !cmd.Overwrite {
		if exists, _ := fs.Exists(output); exists {
			return pipeline.Wrap(pipeline.ErrConfiguration, "cli", "output", fmt.Errorf("%s already exists (use --overwrite)", output))
		}
	}

	var progress ports.ProgressReporter
	if !cmd.Quiet {
		progress = progressbar.NewAuto(os.Stderr)
	}

	result, err := conv.Convert(ctx, input, cfg, output, progress)
	if err != nil {
		return err
	}

	if cmd.Summary != "" {
		if err := writeSummary(cmd.Summary, cmd.Input, input, cfg, result); err != nil {
			log.Warn("Failed to write summary: %v", err)
		} else if cmd.Summary != summarizer.StdoutPath {
			log.Info("Summary saved to %s", cmd.Summary)
		}
	}

	log.Info("Output saved to %s", result.OutputPath)
	return nil
}

// applyFlags merges CLI overrides into the file configuration. Flag values
// are validated with the same rules as the file.
func (cmd *ConvertCmd) applyFlags(fileCfg config.Config) (config.Config, error) {
	if cmd.Scale != nil {
		fileCfg.Scale = *cmd.Scale
	}
	if cmd.Quality != nil {
		fileCfg.Quality = *cmd.Quality
	}
	if cmd.FPS != nil {
		fileCfg.FPS = *cmd.FPS
	}
	if cmd.Loop != nil {
		fileCfg.LoopCount = *cmd.Loop
	}
	if cmd.Renderer != nil {
		fileCfg.Renderer = *cmd.Renderer
	}
	if cmd.ChromePath != nil {
		fileCfg.ChromePath = *cmd.ChromePath
	}
	if cmd.NoHeadless {
		fileCfg.Headless = false
	}
	if cmd.SequenceFPS != nil {
		fileCfg.SourceFPS = *cmd.SequenceFPS
	}
	if cmd.Debug {
		fileCfg.Debug = true
	}
	if cmd.DebugDir != nil {
		fileCfg.DebugDir = *cmd.DebugDir
	}
	if cmd.LogLevel != "" {
		fileCfg.LogLevel = cmd.LogLevel
	}
	if err := fileCfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return fileCfg, nil
}

// writeSummary renders the Markdown report for a finished conversion.
func writeSummary(path, inputPath string, input *sourcedetect.Input, cfg converter.Config, result orchestrator.RunResult) error {
	source := summarizer.SourceInfo{
		Name:        input.Meta.Name,
		Path:        inputPath,
		Kind:        string(input.Kind),
		Renderer:    string(input.Renderer),
		Width:       input.Meta.Width,
		Height:      input.Meta.Height,
		FrameRate:   input.Meta.FrameRate,
		TotalFrames: int(input.Meta.LastFrame - input.Meta.FirstFrame),
		DurationMs:  int(input.Meta.DurationSeconds() * 1000),
	}
	if source.Name == "" {
		source.Name = input.Name
	}

	summary := summarizer.NewBuilder().
		WithSource(source).
		WithSettings(summarizer.Settings{
			Scale:     result.Scale,
			Quality:   string(result.Quality),
			Colors:    result.Colors,
			TargetFPS: cfg.FPS,
			LoopCount: cfg.LoopCount,
		}).
		WithOutput(summarizer.OutputInfo{
			Path:            result.OutputPath,
			Filename:        result.Filename,
			Width:           result.Width,
			Height:          result.Height,
			EffectiveFPS:    result.EffectiveFPS,
			SampledFrames:   result.SampledFrames,
			SurvivingFrames: result.SurvivingFrames,
			DuplicateFrames: result.DuplicateFrames,
			DurationMs:      result.DurationMs,
			FileSize:        result.FileSize,
			Elapsed:         result.Elapsed,
		}).
		Build()

	formatter := summarizer.NewMarkdownFormatter(
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	return summarizer.NewWriter(formatter, osfilesystem.New(), os.Stdout).Write(path, summary)
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("lottie2apng version %s", version))
	return nil
}
