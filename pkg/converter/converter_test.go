package converter

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/user/lottie2apng/pkg/adapters/apngdecoder"
	"github.com/user/lottie2apng/pkg/adapters/logger"
	"github.com/user/lottie2apng/pkg/adapters/sourcedetect"
	"github.com/user/lottie2apng/pkg/config"
	"github.com/user/lottie2apng/pkg/mocks"
	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
)

// A dot slides for 20 frames and then holds still for 10.
const slideDoc = `{"v":"5.7.4","fr":30,"ip":0,"op":30,"w":40,"h":20,"nm":"slide","layers":[
	{"ty":4,"nm":"dot","ind":1,"ip":0,"op":30,"st":0,
	 "ks":{"p":{"a":1,"k":[
		{"t":0,"s":[5,10,0],"o":{"x":[0],"y":[0]},"i":{"x":[1],"y":[1]}},
		{"t":20,"s":[35,10,0]}]}},
	 "shapes":[
		{"ty":"el","p":{"a":0,"k":[0,0]},"s":{"a":0,"k":[8,8]}},
		{"ty":"fl","c":{"a":0,"k":[1,0.5,0,1]},"o":{"a":0,"k":100}}]}
]}`

func TestGetQualitySettings(t *testing.T) {
	tests := []struct {
		preset QualityPreset
		colors int
	}{
		{QualityLossless, 0},
		{QualityHigh, 256},
		{QualityMedium, 128},
		{QualityLow, 64},
		{"unknown", 256},
	}
	for _, tt := range tests {
		s := GetQualitySettings(tt.preset)
		if s.Colors != tt.colors || s.Description == "" {
			t.Errorf("%s: got %+v, want %d colors", tt.preset, s, tt.colors)
		}
		if tt.preset.Valid() && s.Colors != tt.preset.Colors() {
			t.Errorf("%s: settings disagree with tier colors", tt.preset)
		}
	}
}

func TestConfigBuilder(t *testing.T) {
	cfg := NewConfigBuilder().Build()
	if cfg.Scale != 1 || cfg.Quality != QualityHigh || cfg.FPS != 0 || cfg.Renderer != sourcedetect.RendererAuto {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	cfg = NewConfigBuilder().
		WithScale(9).
		WithQualityPreset(QualityLow).
		WithFPS(15).
		WithLoopCount(2).
		WithCompressionLevel(9).
		WithRenderer(sourcedetect.RendererVector).
		WithChromePath("/opt/chrome").
		WithHeadless(false).
		WithSequenceFPS(24).
		WithDebug(true, "/tmp/dbg").
		Build()

	if cfg.Scale != 4 {
		t.Errorf("expected scale clamped to 4, got %d", cfg.Scale)
	}
	if cfg.Quality != QualityLow || cfg.FPS != 15 || cfg.LoopCount != 2 || cfg.CompressionLevel != 9 {
		t.Errorf("unexpected output settings %+v", cfg)
	}
	opts := cfg.SourceOptions()
	if opts.Renderer != sourcedetect.RendererVector || opts.Chrome.ChromePath != "/opt/chrome" || opts.Chrome.Headless {
		t.Errorf("unexpected source options %+v", opts)
	}
	if opts.SequenceFPS != 24 || !cfg.Debug || cfg.DebugDir != "/tmp/dbg" {
		t.Errorf("unexpected options %+v", cfg)
	}

	if got := NewConfigBuilder().WithScale(0).WithQualityPreset("ultra").Build(); got.Scale != 1 || got.Quality != QualityHigh {
		t.Errorf("expected constraints applied, got %+v", got)
	}
}

func TestNewConfigBuilderFrom(t *testing.T) {
	fileCfg := config.Defaults()
	fileCfg.Scale = 3
	fileCfg.Quality = "medium"
	fileCfg.FPS = 24
	fileCfg.Renderer = "vector"

	cfg := NewConfigBuilderFrom(fileCfg).WithFPS(12).Build()
	if cfg.Scale != 3 || cfg.Quality != QualityMedium || cfg.Renderer != sourcedetect.RendererVector {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.FPS != 12 {
		t.Errorf("expected builder override, got %v", cfg.FPS)
	}
}

func TestConverter_ConvertFile(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFile("/in/slide.json", []byte(slideDoc))

	conv := New(fs, logger.NewNoop())
	cfg := NewConfigBuilder().
		WithRenderer(sourcedetect.RendererVector).
		WithQualityPreset(QualityLossless).
		WithScale(2).
		Build()

	var last float64
	progress := func(percent float64, stage string) {
		if percent < last {
			t.Errorf("progress decreased: %v -> %v", last, percent)
		}
		last = percent
	}

	result, err := conv.ConvertFile(context.Background(), "/in/slide.json", "/out/slide.png", cfg, ports.ProgressFunc(progress))
	if err != nil {
		t.Fatalf("ConvertFile failed: %v", err)
	}

	if last != 100 {
		t.Errorf("expected final progress 100, got %v", last)
	}
	if result.Width != 80 || result.Height != 40 {
		t.Errorf("expected 80x40, got %dx%d", result.Width, result.Height)
	}
	if result.CapturedFrames != 30 || result.SurvivingFrames+result.DuplicateFrames != 30 {
		t.Errorf("unexpected frame counts %+v", result)
	}
	if result.DuplicateFrames < 9 {
		t.Errorf("expected the 10-frame hold folded, got %d duplicates", result.DuplicateFrames)
	}
	if result.DurationMs != 30*33 {
		t.Errorf("expected %d ms, got %d", 30*33, result.DurationMs)
	}
	if result.Filename != "slide_2x_lossless_30fps.png" {
		t.Errorf("unexpected filename %q", result.Filename)
	}

	data, ok := fs.GetFile("/out/slide.png")
	if !ok {
		t.Fatal("output not written")
	}
	anim, err := apngdecoder.New().Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(anim.Frames) != result.SurvivingFrames {
		t.Errorf("decoded %d frames, expected %d", len(anim.Frames), result.SurvivingFrames)
	}
	if anim.Width != 80 || anim.Height != 40 {
		t.Errorf("decoded size %dx%d", anim.Width, anim.Height)
	}
}

func TestConverter_OpenBytes(t *testing.T) {
	conv := New(mocks.NewFileSystem(), logger.NewNoop())
	cfg := NewConfigBuilder().WithRenderer(sourcedetect.RendererVector).Build()

	in, err := conv.OpenBytes([]byte(slideDoc), "upload", cfg)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if in.Name != "upload" || in.Kind != sourcedetect.KindLottie || in.Renderer != sourcedetect.RendererVector {
		t.Errorf("unexpected input %+v", in)
	}
	if in.Meta.FrameRate != 30 || in.Meta.LastFrame != 30 {
		t.Errorf("unexpected meta %+v", in.Meta)
	}

	if _, err := conv.OpenBytes([]byte("not an animation"), "x", cfg); pipeline.KindOf(err) != pipeline.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestConverter_DebugOutput(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFile("/in/slide.json", []byte(slideDoc))

	conv := New(fs, logger.NewNoop())
	cfg := NewConfigBuilder().
		WithRenderer(sourcedetect.RendererVector).
		WithFPS(15).
		WithDebug(true, "/dbg").
		Build()

	result, err := conv.ConvertFile(context.Background(), "/in/slide.json", "", cfg, nil)
	if err != nil {
		t.Fatalf("ConvertFile failed: %v", err)
	}
	if result.OutputPath != "" {
		t.Errorf("expected no output path, got %q", result.OutputPath)
	}
	if len(result.Animation.Data) == 0 {
		t.Error("expected in-memory animation")
	}

	files := fs.GetAllFiles()
	for _, name := range []string{"/dbg/sample-plan.json", "/dbg/capture.json"} {
		if _, ok := files[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}
	frames := 0
	for name := range files {
		if strings.HasPrefix(name, "/dbg/frames/") {
			frames++
		}
	}
	if frames != result.SurvivingFrames {
		t.Errorf("expected %d frame dumps, got %d", result.SurvivingFrames, frames)
	}
}

func TestConverter_MissingInput(t *testing.T) {
	conv := New(mocks.NewFileSystem(), logger.NewNoop())
	_, err := conv.ConvertFile(context.Background(), "/missing.json", "", NewConfigBuilder().Build(), nil)
	if pipeline.KindOf(err) != pipeline.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}
