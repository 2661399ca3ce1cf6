package encode

import (
	"context"
	"errors"
	"testing"

	"github.com/user/lottie2apng/pkg/adapters/apngencoder"
	"github.com/user/lottie2apng/pkg/adapters/logger"
	"github.com/user/lottie2apng/pkg/mocks"
	"github.com/user/lottie2apng/pkg/pipeline"
)

func frames(delays ...int) []pipeline.SurvivingFrame {
	out := make([]pipeline.SurvivingFrame, len(delays))
	for i, d := range delays {
		out[i] = pipeline.SurvivingFrame{
			SampledFrame: pipeline.SampledFrame{Offset: i, SourceFrameIndex: i, DelayMs: d},
			Pix:          mocks.Pattern(4, 4, i),
		}
	}
	return out
}

func TestStage_Execute(t *testing.T) {
	mockEncoder := &mocks.AnimationEncoder{}

	stage := NewStage(mockEncoder, logger.NewNoop())

	input := pipeline.EncodeInput{
		Frames:    frames(42, 84, 42),
		Size:      pipeline.Dimension{Width: 4, Height: 4},
		Colors:    128,
		LoopCount: 0,
	}

	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !mockEncoder.BeginCalled {
		t.Error("expected Begin to be called")
	}
	if !mockEncoder.EndCalled {
		t.Error("expected End to be called")
	}
	if mockEncoder.AbortCalled {
		t.Error("expected Abort not to be called on success")
	}
	if mockEncoder.Width != 4 || mockEncoder.Height != 4 {
		t.Errorf("expected 4x4 canvas, got %dx%d", mockEncoder.Width, mockEncoder.Height)
	}
	if mockEncoder.Options.Colors != 128 {
		t.Errorf("expected 128 colors, got %d", mockEncoder.Options.Colors)
	}

	delays := mockEncoder.FrameDelays()
	expected := []int{42, 84, 42}
	if len(delays) != len(expected) {
		t.Fatalf("expected %d AddFrame calls, got %d", len(expected), len(delays))
	}
	for i := range expected {
		if delays[i] != expected[i] {
			t.Errorf("frame %d: expected delay %d, got %d", i, expected[i], delays[i])
		}
	}

	if result.DurationMs != 168 {
		t.Errorf("expected duration 168, got %d", result.DurationMs)
	}
	if result.FrameCount != 3 {
		t.Errorf("expected 3 frames, got %d", result.FrameCount)
	}
	if result.Animation.ContentType != pipeline.ContentTypeAPNG {
		t.Errorf("unexpected content type %q", result.Animation.ContentType)
	}
	if result.FileSize != int64(len(result.Animation.Data)) || result.FileSize == 0 {
		t.Errorf("unexpected file size %d", result.FileSize)
	}
}

func TestStage_Execute_ReleasesBuffers(t *testing.T) {
	stage := NewStage(&mocks.AnimationEncoder{}, logger.NewNoop())

	input := pipeline.EncodeInput{Frames: frames(10, 10), Size: pipeline.Dimension{Width: 4, Height: 4}}
	if _, err := stage.Execute(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, f := range input.Frames {
		if f.Pix != nil {
			t.Errorf("frame %d: expected buffer to be released", i)
		}
	}
}

func TestStage_Execute_EmptyFrames(t *testing.T) {
	stage := NewStage(&mocks.AnimationEncoder{}, logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.EncodeInput{})
	if !errors.Is(err, pipeline.ErrEncode) {
		t.Errorf("expected encode error for empty frames, got %v", err)
	}
}

func TestStage_Execute_EncoderFailure(t *testing.T) {
	boom := errors.New("palette overflow")
	mockEncoder := &mocks.AnimationEncoder{
		AddFrameFunc: func(pix []byte, delayMs int) error { return boom },
	}
	stage := NewStage(mockEncoder, logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.EncodeInput{
		Frames: frames(10), Size: pipeline.Dimension{Width: 4, Height: 4},
	})
	if !errors.Is(err, pipeline.ErrEncode) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped encode error, got %v", err)
	}
	if mockEncoder.EndCalled {
		t.Error("expected End not to be called after a frame failure")
	}
	if !mockEncoder.AbortCalled {
		t.Error("expected buffered frames to be discarded after a frame failure")
	}
}

func TestStage_Execute_ContextCancelled(t *testing.T) {
	mockEncoder := &mocks.AnimationEncoder{}
	stage := NewStage(mockEncoder, logger.NewNoop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := stage.Execute(ctx, pipeline.EncodeInput{
		Frames: frames(10, 10), Size: pipeline.Dimension{Width: 4, Height: 4},
	})
	if pipeline.KindOf(err) != pipeline.KindCanceled {
		t.Errorf("expected canceled, got %v", err)
	}
	if len(mockEncoder.AddFrameCalls) != 0 {
		t.Errorf("expected no frames encoded, got %d", len(mockEncoder.AddFrameCalls))
	}
	if !mockEncoder.AbortCalled {
		t.Error("expected Abort after cancellation")
	}
}

func TestStage_Execute_CancelledDuringEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mockEncoder := &mocks.AnimationEncoder{
		EndFunc: func(ctx context.Context) ([]byte, error) {
			cancel()
			return nil, ctx.Err()
		},
	}
	stage := NewStage(mockEncoder, logger.NewNoop())

	_, err := stage.Execute(ctx, pipeline.EncodeInput{
		Frames: frames(10, 10), Size: pipeline.Dimension{Width: 4, Height: 4}, Colors: 16,
	})
	if pipeline.KindOf(err) != pipeline.KindCanceled {
		t.Errorf("expected canceled, got %v", err)
	}
	if !mockEncoder.AbortCalled {
		t.Error("expected Abort after cancellation")
	}
}

func TestStage_Execute_DiscardsRealEncoderState(t *testing.T) {
	enc := apngencoder.New()
	stage := NewStage(enc, logger.NewNoop())

	input := pipeline.EncodeInput{
		Frames: frames(10, 10, 10), Size: pipeline.Dimension{Width: 4, Height: 4}, Colors: 16,
	}
	// The second frame is truncated, so the first is already buffered when AddFrame fails.
	input.Frames[1].Pix = input.Frames[1].Pix[:8]

	if _, err := stage.Execute(context.Background(), input); pipeline.KindOf(err) != pipeline.KindEncode {
		t.Fatalf("expected encode error, got %v", err)
	}
	if n := enc.Buffered(); n != 0 {
		t.Errorf("expected no buffered frames, got %d", n)
	}
}
