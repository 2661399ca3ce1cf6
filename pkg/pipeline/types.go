package pipeline

import (
	"math"

	"github.com/user/lottie2apng/pkg/ports"
)

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height in pixels.
type Dimension struct {
	Width  int
	Height int
}

// BufferSize returns the byte length of a straight RGBA8 buffer of this size.
func (d Dimension) BufferSize() int {
	return d.Width * d.Height * 4
}

// AnimationMeta describes the source animation. It is read-only for the
// duration of a run.
type AnimationMeta struct {
	FrameRate  float64 // Native frames per second
	FirstFrame float64 // In-point (inclusive)
	LastFrame  float64 // Out-point (exclusive)
	Width      int     // Nominal width before scaling
	Height     int     // Nominal height before scaling
	Name       string  // Display name
}

// DurationSeconds returns (last - first) / frame rate, or 0 for a zero rate.
func (m AnimationMeta) DurationSeconds() float64 {
	if m.FrameRate <= 0 {
		return 0
	}
	return (m.LastFrame - m.FirstFrame) / m.FrameRate
}

// OutputSize returns round(nominal * scale) for both axes.
func (m AnimationMeta) OutputSize(scale int) Dimension {
	return Dimension{
		Width:  int(math.Round(float64(m.Width) * float64(scale))),
		Height: int(math.Round(float64(m.Height) * float64(scale))),
	}
}

// =============================================================================
// Sample Stage Types
// =============================================================================

// SampleInput contains parameters for frame sampling.
type SampleInput struct {
	Meta       AnimationMeta
	TargetRate float64 // 0 means the native rate
}

// SampledFrame is one entry of the output timeline.
type SampledFrame struct {
	Offset           int // 0-based offset from the first frame; what the raster source is seeked to
	SourceFrameIndex int // Absolute frame index in [FirstFrame, LastFrame)
	DelayMs          int // Display duration in milliseconds
}

// SamplePlan is the Sampler's output.
type SamplePlan struct {
	EffectiveRate     float64
	Step              float64
	TotalSourceFrames int
	DelayMs           int
	Frames            []SampledFrame
}

// =============================================================================
// Capture Stage Types
// =============================================================================

// CaptureInput contains parameters for driving a raster source.
type CaptureInput struct {
	Plan       SamplePlan
	Size       Dimension
	Source     ports.RasterSource
	YieldEvery int // Frames between cooperative yields (default: 5)

	// Progress receives capture progress in [0,1] after every processed frame.
	Progress func(fraction float64)
}

// SurvivingFrame is a frame retained after duplicate folding. Pix is owned
// by whoever holds the frame; it is handed on, never copied.
type SurvivingFrame struct {
	SampledFrame        // DelayMs holds the accumulated duration
	Pix          []byte // Straight RGBA8, row-major
}

// CaptureResult contains the surviving frames and capture statistics.
type CaptureResult struct {
	Frames     []SurvivingFrame
	Captured   int // Number of raster source seeks
	Duplicates int // Frames folded into a previous survivor
}

// TotalDurationMs returns the sum of all surviving frame durations.
func (r CaptureResult) TotalDurationMs() int {
	total := 0
	for _, f := range r.Frames {
		total += f.DelayMs
	}
	return total
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains parameters for container assembly.
type EncodeInput struct {
	Frames           []SurvivingFrame
	Size             Dimension
	Colors           int // 0 = lossless, otherwise palette ceiling (<= 256)
	LoopCount        int // 0 = infinite
	CompressionLevel int // zlib level, 0 means the encoder default
}

// EncodedAnimation is the terminal artifact of a run.
type EncodedAnimation struct {
	Data        []byte
	ContentType string
}

// EncodeResult contains the encoded animation.
type EncodeResult struct {
	Animation  EncodedAnimation
	FrameCount int
	DurationMs int
	FileSize   int64
}

// ContentTypeAPNG is the MIME type of the produced artifact.
const ContentTypeAPNG = "image/apng"
