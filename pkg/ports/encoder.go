package ports

import "context"

// AnimationEncoder assembles frames into an animated image container.
type AnimationEncoder interface {
	// Begin initializes the encoder for a canvas of width x height pixels.
	Begin(width, height int, opts EncoderOptions) error

	// AddFrame appends a full-canvas straight RGBA8 frame displayed for
	// delayMs milliseconds. The encoder takes ownership of pix.
	AddFrame(pix []byte, delayMs int) error

	// End finalizes encoding and returns the container bytes. It returns
	// ctx.Err() if ctx is done before the container is complete.
	End(ctx context.Context) ([]byte, error)

	// Abort discards every frame buffered since Begin.
	Abort()
}

// EncoderOptions configures container assembly.
type EncoderOptions struct {
	Colors           int // Palette ceiling: 0 keeps full 32-bit colour, otherwise 1-256
	LoopCount        int // Number of plays, 0 = infinite
	CompressionLevel int // zlib level (1-9), 0 selects the default
}
