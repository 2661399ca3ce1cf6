// Package converter provides a high-level API for turning Lottie animations
// (JSON, dotLottie or PNG sequences) into animated PNGs.
package converter

import (
	"time"

	"github.com/user/lottie2apng/pkg/adapters/chromesource"
	"github.com/user/lottie2apng/pkg/adapters/sourcedetect"
	"github.com/user/lottie2apng/pkg/config"
	"github.com/user/lottie2apng/pkg/orchestrator"
	"github.com/user/lottie2apng/pkg/pipeline"
)

// QualityPreset represents a palette tier name.
type QualityPreset = pipeline.Quality

const (
	QualityLossless QualityPreset = pipeline.QualityLossless
	QualityHigh     QualityPreset = pipeline.QualityHigh
	QualityMedium   QualityPreset = pipeline.QualityMedium
	QualityLow      QualityPreset = pipeline.QualityLow
)

// QualitySettings contains the palette parameters of a preset.
type QualitySettings struct {
	Colors      int    // Palette ceiling, 0 = lossless
	Description string // Short translation key
}

// GetQualitySettings returns settings for the given preset. Unknown presets
// fall back to high.
func GetQualitySettings(preset QualityPreset) QualitySettings {
	switch preset {
	case QualityLossless:
		return QualitySettings{Colors: 0, Description: "Best quality, largest file"}
	case QualityMedium:
		return QualitySettings{Colors: 128, Description: "128 colors, balanced quality and size"}
	case QualityLow:
		return QualitySettings{Colors: 64, Description: "64 colors, smallest file"}
	default: // high
		return QualitySettings{Colors: 256, Description: "256 colors, nearly lossless"}
	}
}

// Config represents the configuration for one conversion.
type Config struct {
	// Output
	Scale            int           // Output scale factor (1-4)
	Quality          QualityPreset // Palette tier
	FPS              float64       // Target frame rate, 0 keeps the native rate
	LoopCount        int           // Number of plays, 0 = infinite
	CompressionLevel int           // zlib level (1-9), 0 = default

	// Rendering
	Renderer    sourcedetect.Renderer
	ChromePath  string
	ScriptURL   string
	LoadTimeout time.Duration
	Headless    bool
	SequenceFPS float64 // Frame rate assumed for PNG sequences

	YieldEvery int

	// Debug
	Debug    bool
	DebugDir string
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with default values.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: defaults()}
}

// NewConfigBuilderFrom starts from a loaded configuration file.
func NewConfigBuilderFrom(c config.Config) *ConfigBuilder {
	opts := c.SourceOptions()
	quality, err := pipeline.ParseQuality(c.Quality)
	if err != nil {
		quality = QualityHigh
	}
	return &ConfigBuilder{config: Config{
		Scale:            c.Scale,
		Quality:          quality,
		FPS:              c.FPS,
		LoopCount:        c.LoopCount,
		CompressionLevel: c.CompressionLevel,
		Renderer:         opts.Renderer,
		ChromePath:       opts.Chrome.ChromePath,
		ScriptURL:        opts.Chrome.ScriptURL,
		LoadTimeout:      opts.Chrome.LoadTimeout,
		Headless:         opts.Chrome.Headless,
		SequenceFPS:      opts.SequenceFPS,
		YieldEvery:       c.YieldEvery,
		Debug:            c.Debug,
		DebugDir:         c.DebugDir,
	}}
}

func defaults() Config {
	return Config{
		Scale:       1,
		Quality:     QualityHigh,
		Renderer:    sourcedetect.RendererAuto,
		ScriptURL:   chromesource.DefaultScriptURL,
		LoadTimeout: chromesource.DefaultLoadTimeout,
		Headless:    true,
		YieldEvery:  5,
		DebugDir:    "./debug",
	}
}

// Build returns the final Config, applying constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	// Clamp scale to the supported 1-4 range
	cfg.Scale = min(max(cfg.Scale, 1), 4)

	if !cfg.Quality.Valid() {
		cfg.Quality = QualityHigh
	}
	if cfg.Renderer == "" {
		cfg.Renderer = sourcedetect.RendererAuto
	}

	return cfg
}

// WithScale sets the output scale factor. Values outside 1-4 are clamped.
func (b *ConfigBuilder) WithScale(scale int) *ConfigBuilder {
	b.config.Scale = scale
	return b
}

// WithQualityPreset applies a palette tier.
func (b *ConfigBuilder) WithQualityPreset(preset QualityPreset) *ConfigBuilder {
	b.config.Quality = preset
	return b
}

// WithFPS sets the target frame rate. 0 keeps the native rate; higher
// rates than the native one are capped when sampling.
func (b *ConfigBuilder) WithFPS(fps float64) *ConfigBuilder {
	b.config.FPS = fps
	return b
}

// WithLoopCount sets the number of plays (0 = infinite).
func (b *ConfigBuilder) WithLoopCount(n int) *ConfigBuilder {
	b.config.LoopCount = n
	return b
}

// WithCompressionLevel sets the zlib level.
func (b *ConfigBuilder) WithCompressionLevel(level int) *ConfigBuilder {
	b.config.CompressionLevel = level
	return b
}

// WithRenderer selects the raster source for Lottie documents.
func (b *ConfigBuilder) WithRenderer(r sourcedetect.Renderer) *ConfigBuilder {
	b.config.Renderer = r
	return b
}

// WithChromePath sets the Chrome executable.
func (b *ConfigBuilder) WithChromePath(path string) *ConfigBuilder {
	b.config.ChromePath = path
	return b
}

// WithScriptURL sets the lottie-web script loaded by the Chrome renderer.
func (b *ConfigBuilder) WithScriptURL(url string) *ConfigBuilder {
	b.config.ScriptURL = url
	return b
}

// WithHeadless toggles headless Chrome.
func (b *ConfigBuilder) WithHeadless(headless bool) *ConfigBuilder {
	b.config.Headless = headless
	return b
}

// WithSequenceFPS sets the frame rate assumed for PNG sequences.
func (b *ConfigBuilder) WithSequenceFPS(fps float64) *ConfigBuilder {
	b.config.SequenceFPS = fps
	return b
}

// WithDebug enables debug output into dir.
func (b *ConfigBuilder) WithDebug(enabled bool, dir string) *ConfigBuilder {
	b.config.Debug = enabled
	if dir != "" {
		b.config.DebugDir = dir
	}
	return b
}

// SourceOptions converts Config to raster source selection options.
func (c Config) SourceOptions() sourcedetect.Options {
	return sourcedetect.Options{
		Renderer: c.Renderer,
		Chrome: chromesource.Options{
			ChromePath:  c.ChromePath,
			ScriptURL:   c.ScriptURL,
			LoadTimeout: c.LoadTimeout,
			Headless:    c.Headless,
		},
		SequenceFPS: c.SequenceFPS,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config for input.
func (c Config) ToOrchestratorConfig(input *sourcedetect.Input, outputPath string) orchestrator.Config {
	cfg := orchestrator.DefaultConfig()
	cfg.Meta = input.Meta
	cfg.Source = input.Factory
	cfg.InputName = input.Name
	cfg.OutputPath = outputPath

	cfg.Scale = c.Scale
	cfg.Quality = c.Quality
	cfg.TargetFPS = c.FPS
	cfg.LoopCount = c.LoopCount
	cfg.CompressionLevel = c.CompressionLevel
	if c.YieldEvery > 0 {
		cfg.YieldEvery = c.YieldEvery
	}
	return cfg
}
