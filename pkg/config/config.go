// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/user/lottie2apng/pkg/adapters/chromesource"
	"github.com/user/lottie2apng/pkg/adapters/sequencesource"
	"github.com/user/lottie2apng/pkg/adapters/sourcedetect"
	"github.com/user/lottie2apng/pkg/orchestrator"
	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for lottie2apng.
type Config struct {
	// Output
	Scale            int     `yaml:"scale" toml:"scale"`
	Quality          string  `yaml:"quality" toml:"quality"`
	FPS              float64 `yaml:"fps" toml:"fps"`
	LoopCount        int     `yaml:"loop_count" toml:"loop_count"`
	CompressionLevel int     `yaml:"compression_level" toml:"compression_level"`

	// Rendering
	Renderer        string  `yaml:"renderer" toml:"renderer"`
	ChromePath      string  `yaml:"chrome_path" toml:"chrome_path"`
	LottieScriptURL string  `yaml:"lottie_script_url" toml:"lottie_script_url"`
	LoadTimeoutMs   int     `yaml:"load_timeout_ms" toml:"load_timeout_ms"`
	Headless        bool    `yaml:"headless" toml:"headless"`
	SourceFPS       float64 `yaml:"source_fps" toml:"source_fps"`

	// Scheduling
	YieldEvery int `yaml:"yield_every" toml:"yield_every"`

	// Logging
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug" toml:"debug"`
	DebugDir string `yaml:"debug_dir" toml:"debug_dir"`

	Serve ServeConfig `yaml:"serve" toml:"serve"`
}

// ServeConfig configures the HTTP server.
type ServeConfig struct {
	Addr         string `yaml:"addr" toml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Output
		Scale:   1,
		Quality: string(pipeline.QualityHigh),
		FPS:     0,

		// Rendering
		Renderer:        string(sourcedetect.RendererAuto),
		LottieScriptURL: chromesource.DefaultScriptURL,
		LoadTimeoutMs:   int(chromesource.DefaultLoadTimeout / time.Millisecond),
		Headless:        true,
		SourceFPS:       sequencesource.DefaultFrameRate,

		YieldEvery: 5,
		LogLevel:   "info",

		// Debug
		DebugDir: "./debug",

		Serve: ServeConfig{
			Addr:         "127.0.0.1:8080",
			MaxBodyBytes: 32 << 20,
		},
	}
}

// LoadFromFile loads configuration from a YAML or TOML file, chosen by
// extension, on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, pipeline.Wrap(pipeline.ErrConfiguration, "config", "read", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return cfg, pipeline.Wrap(pipeline.ErrConfiguration, "config", "format",
			fmt.Errorf("unsupported config extension %q (want .yaml, .yml or .toml)", ext))
	}
	if err != nil {
		return cfg, pipeline.Wrap(pipeline.ErrConfiguration, "config", "parse "+filepath.Base(path), err)
	}

	return cfg, nil
}

// Validate checks every option and returns the first configuration error.
func (c Config) Validate() error {
	if err := pipeline.ValidateScale(c.Scale); err != nil {
		return err
	}
	if _, err := pipeline.ParseQuality(c.Quality); err != nil {
		return err
	}
	if err := pipeline.ValidateFrameRate(c.FPS); err != nil {
		return err
	}
	if _, err := sourcedetect.ParseRenderer(c.Renderer); err != nil {
		return err
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		return pipeline.Wrap(pipeline.ErrConfiguration, "config", "log_level", err)
	}

	switch {
	case c.LoopCount < 0:
		return invalid("loop_count", "must not be negative")
	case c.CompressionLevel < 0 || c.CompressionLevel > 9:
		return invalid("compression_level", "must be between 0 and 9")
	case c.LoadTimeoutMs < 0:
		return invalid("load_timeout_ms", "must not be negative")
	case c.SourceFPS < 0:
		return invalid("source_fps", "must not be negative")
	case c.YieldEvery < 0:
		return invalid("yield_every", "must not be negative")
	case c.Serve.MaxBodyBytes < 0:
		return invalid("serve.max_body_bytes", "must not be negative")
	}
	return nil
}

func invalid(field, reason string) error {
	return pipeline.Wrap(pipeline.ErrConfiguration, "config", field, fmt.Errorf("%s %s", field, reason))
}

// SourceOptions converts Config to raster source selection options.
func (c Config) SourceOptions() sourcedetect.Options {
	renderer, err := sourcedetect.ParseRenderer(c.Renderer)
	if err != nil {
		renderer = sourcedetect.RendererAuto
	}
	return sourcedetect.Options{
		Renderer: renderer,
		Chrome: chromesource.Options{
			ChromePath:  c.ChromePath,
			ScriptURL:   c.LottieScriptURL,
			LoadTimeout: time.Duration(c.LoadTimeoutMs) * time.Millisecond,
			Headless:    c.Headless,
		},
		SequenceFPS: c.SourceFPS,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config. Input fields
// (meta, source, name) are left for the caller.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	cfg := orchestrator.DefaultConfig()
	if q, err := pipeline.ParseQuality(c.Quality); err == nil {
		cfg.Quality = q
	}
	cfg.Scale = c.Scale
	cfg.TargetFPS = c.FPS
	cfg.LoopCount = c.LoopCount
	cfg.CompressionLevel = c.CompressionLevel
	if c.YieldEvery > 0 {
		cfg.YieldEvery = c.YieldEvery
	}
	return cfg
}
