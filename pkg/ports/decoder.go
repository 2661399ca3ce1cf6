package ports

import (
	"image"
	"io"
)

// AnimationFrame is a fully composited frame of a decoded animation.
type AnimationFrame struct {
	Image   *image.NRGBA
	DelayMs float64 // Exact delay in milliseconds (delay_num / delay_den * 1000)
}

// DecodedAnimation is the result of decoding an animated image.
type DecodedAnimation struct {
	Width     int
	Height    int
	LoopCount int
	Frames    []AnimationFrame
}

// AnimationDecoder abstracts animated image decoding.
type AnimationDecoder interface {
	// Decode reads and composites every frame from r.
	Decode(r io.Reader) (*DecodedAnimation, error)
}
