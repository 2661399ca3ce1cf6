package ports

// DebugSink abstracts debug output for intermediate results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSamplePlanJSON saves the sampler's timeline as JSON.
	SaveSamplePlanJSON(data []byte) error

	// SaveCaptureJSON saves capture statistics and surviving frame timings.
	SaveCaptureJSON(data []byte) error

	// SaveSurvivingFrame saves a surviving frame as a still PNG.
	SaveSurvivingFrame(index, width, height int, pix []byte) error
}
