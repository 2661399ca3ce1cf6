package summarizer

import "time"

// Summary contains all data collected during a conversion.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Input animation
	Source SourceInfo

	// Conversion options
	Settings Settings

	// Produced APNG
	Output OutputInfo
}

// SourceInfo describes the converted input.
type SourceInfo struct {
	Name        string
	Path        string
	Kind        string // lottie, dotlottie or sequence
	Renderer    string // vector or chrome; empty for sequences
	Width       int
	Height      int
	FrameRate   float64
	TotalFrames int
	DurationMs  int
}

// Settings contains the conversion options.
type Settings struct {
	Scale     int
	Quality   string
	Colors    int     // 0 = lossless
	TargetFPS float64 // 0 = native
	LoopCount int     // 0 = infinite
}

// OutputInfo contains information about the produced animation.
type OutputInfo struct {
	Path            string
	Filename        string
	Width           int
	Height          int
	EffectiveFPS    float64
	SampledFrames   int
	SurvivingFrames int
	DuplicateFrames int
	DurationMs      int
	FileSize        int64
	Elapsed         time.Duration
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets input information.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithSettings sets conversion options.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutput sets output information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
