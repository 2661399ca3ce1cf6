package apngencoder

import "errors"

var (
	// ErrNotInitialized is returned when encoder methods are called before Begin.
	ErrNotInitialized = errors.New("apngencoder: encoder not initialized")

	// ErrNoFrames is returned when End is called without any frame.
	ErrNoFrames = errors.New("apngencoder: no frames to encode")

	// ErrInvalidDimensions is returned for canvases the container cannot describe.
	ErrInvalidDimensions = errors.New("apngencoder: invalid dimensions")

	// ErrFrameSize is returned when a frame buffer does not match the canvas.
	ErrFrameSize = errors.New("apngencoder: frame buffer size mismatch")

	// ErrInvalidOptions is returned for out-of-range encoder options.
	ErrInvalidOptions = errors.New("apngencoder: invalid options")

	// ErrInvalidDelay is returned for negative frame delays.
	ErrInvalidDelay = errors.New("apngencoder: invalid frame delay")
)
