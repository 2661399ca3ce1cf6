// Package encode implements the container assembly stage.
package encode

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
)

// Stage hands surviving frames to an animation encoder in order.
type Stage struct {
	encoder ports.AnimationEncoder
	logger  ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(encoder ports.AnimationEncoder, logger ports.Logger) *Stage {
	return &Stage{
		encoder: encoder,
		logger:  logger.WithComponent("encode"),
	}
}

// Execute encodes all frames into a single animated image. Frame buffers
// are released as they are handed to the encoder. On failure or
// cancellation the encoder drops whatever it buffered.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (result pipeline.EncodeResult, err error) {
	if len(input.Frames) == 0 {
		return result, pipeline.Wrap(pipeline.ErrEncode, "encode", "no frames to encode", nil)
	}

	opts := ports.EncoderOptions{
		Colors:           input.Colors,
		LoopCount:        input.LoopCount,
		CompressionLevel: input.CompressionLevel,
	}

	if opts.Colors == 0 {
		s.logger.Debug("Encoding %d frames losslessly", len(input.Frames))
	} else {
		s.logger.Debug("Encoding %d frames with up to %d colors", len(input.Frames), opts.Colors)
	}

	if err := s.encoder.Begin(input.Size.Width, input.Size.Height, opts); err != nil {
		return result, pipeline.Wrap(pipeline.ErrEncode, "encode", "begin", err)
	}
	defer func() {
		if err != nil {
			s.encoder.Abort()
		}
	}()

	durationMs := 0
	for i := range input.Frames {
		select {
		case <-ctx.Done():
			return result, pipeline.Wrap(pipeline.ErrCanceled, "encode", fmt.Sprintf("frame %d", i), ctx.Err())
		default:
		}

		frame := &input.Frames[i]
		if err := s.encoder.AddFrame(frame.Pix, frame.DelayMs); err != nil {
			return result, pipeline.Wrap(pipeline.ErrEncode, "encode", fmt.Sprintf("frame %d", i), err)
		}
		durationMs += frame.DelayMs
		frame.Pix = nil
	}

	data, err := s.encoder.End(ctx)
	if ctx.Err() != nil {
		return result, pipeline.Wrap(pipeline.ErrCanceled, "encode", "end", ctx.Err())
	}
	if err != nil {
		return result, pipeline.Wrap(pipeline.ErrEncode, "encode", "end", err)
	}

	result.Animation = pipeline.EncodedAnimation{Data: data, ContentType: pipeline.ContentTypeAPNG}
	result.FrameCount = len(input.Frames)
	result.DurationMs = durationMs
	result.FileSize = int64(len(data))

	s.logger.Debug("APNG encoded: %s", humanize.Bytes(uint64(result.FileSize)))

	return result, nil
}
