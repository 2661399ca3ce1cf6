package apngencoder

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/lottie2apng/pkg/adapters/apngdecoder"
	"github.com/user/lottie2apng/pkg/mocks"
	"github.com/user/lottie2apng/pkg/ports"
)

func encode(t *testing.T, width, height int, opts ports.EncoderOptions, frames [][]byte, delays []int) []byte {
	t.Helper()
	enc := New()
	if err := enc.Begin(width, height, opts); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for i, f := range frames {
		if err := enc.AddFrame(f, delays[i]); err != nil {
			t.Fatalf("AddFrame %d failed: %v", i, err)
		}
	}
	data, err := enc.End(context.Background())
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	return data
}

func decode(t *testing.T, data []byte) *ports.DecodedAnimation {
	t.Helper()
	anim, err := apngdecoder.New().Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return anim
}

// gradient renders a smooth two-axis gradient shifted by offset.
func gradient(width, height, offset int) []byte {
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			pix[i] = byte((x*4 + offset) % 256)
			pix[i+1] = byte(y * 4)
			pix[i+2] = 128
			pix[i+3] = 255
		}
	}
	return pix
}

// noise renders incompressible pixels from a fixed linear congruential sequence.
func noise(width, height int, seed uint32) []byte {
	pix := make([]byte, width*height*4)
	s := seed
	for i := range pix {
		s = s*1664525 + 1013904223
		pix[i] = byte(s >> 24)
	}
	return pix
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func maxChannelError(t *testing.T, want, got []byte) int {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length mismatch: %d vs %d", len(want), len(got))
	}
	worst := 0
	for i := 0; i < len(want); i += 4 {
		if want[i+3] == 0 {
			// colour of a fully transparent pixel is irrelevant
			worst = max(worst, int(got[i+3]))
			continue
		}
		for ch := 0; ch < 4; ch++ {
			worst = max(worst, abs(int(want[i+ch])-int(got[i+ch])))
		}
	}
	return worst
}

func TestEncoder_LosslessRoundTrip(t *testing.T) {
	const w, h = 16, 12
	frames := [][]byte{mocks.Pattern(w, h, 0), mocks.Pattern(w, h, 1), mocks.Pattern(w, h, 2)}
	originals := [][]byte{clone(frames[0]), clone(frames[1]), clone(frames[2])}
	delays := []int{42, 84, 1000}

	data := encode(t, w, h, ports.EncoderOptions{}, frames, delays)
	anim := decode(t, data)

	if anim.Width != w || anim.Height != h {
		t.Errorf("expected %dx%d, got %dx%d", w, h, anim.Width, anim.Height)
	}
	if anim.LoopCount != 0 {
		t.Errorf("expected infinite loop, got %d", anim.LoopCount)
	}
	if len(anim.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(anim.Frames))
	}
	for i, f := range anim.Frames {
		if !bytes.Equal(f.Image.Pix, originals[i]) {
			t.Errorf("frame %d: pixels differ after lossless round trip", i)
		}
		if f.DelayMs != float64(delays[i]) {
			t.Errorf("frame %d: expected delay %d, got %v", i, delays[i], f.DelayMs)
		}
	}
}

func TestEncoder_PaletteExactWhenColorsFit(t *testing.T) {
	const w, h = 8, 8
	// 4 distinct colours per frame, 8 in total
	frames := make([][]byte, 2)
	for f := range frames {
		pix := make([]byte, w*h*4)
		for i := 0; i < w*h; i++ {
			pix[i*4] = byte(f*100 + (i%4)*10)
			pix[i*4+1] = 20
			pix[i*4+2] = 30
			pix[i*4+3] = 255
		}
		frames[f] = pix
	}
	originals := [][]byte{clone(frames[0]), clone(frames[1])}

	anim := decode(t, encode(t, w, h, ports.EncoderOptions{Colors: 64}, frames, []int{100, 100}))

	for i, f := range anim.Frames {
		if !bytes.Equal(f.Image.Pix, originals[i]) {
			t.Errorf("frame %d: expected exact palette reproduction", i)
		}
	}
}

func TestEncoder_PaletteErrorBound(t *testing.T) {
	const w, h = 64, 64
	original := gradient(w, h, 0)

	anim := decode(t, encode(t, w, h, ports.EncoderOptions{Colors: 256}, [][]byte{clone(original)}, []int{40}))

	if got := maxChannelError(t, original, anim.Frames[0].Image.Pix); got > 8 {
		t.Errorf("expected per-channel error <= 8, got %d", got)
	}
}

func TestEncoder_PaletteKeepsTransparency(t *testing.T) {
	const w, h = 32, 32
	pix := gradient(w, h, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			switch {
			case x < 8:
				pix[i+3] = 0 // fully transparent, arbitrary colour
			case x < 16:
				pix[i+3] = 128
			}
		}
	}
	original := clone(pix)

	anim := decode(t, encode(t, w, h, ports.EncoderOptions{Colors: 64}, [][]byte{pix}, []int{40}))
	got := anim.Frames[0].Image.Pix

	for y := 0; y < h; y++ {
		for x := 0; x < 16; x++ {
			i := (y*w + x) * 4
			if x < 8 && got[i+3] != 0 {
				t.Fatalf("pixel (%d,%d): expected transparent, got alpha %d", x, y, got[i+3])
			}
			if x >= 8 && got[i+3] == 0 || x >= 8 && got[i+3] == 255 {
				t.Fatalf("pixel (%d,%d): expected partial alpha, got %d", x, y, got[i+3])
			}
		}
	}
	if e := maxChannelError(t, original, got); e > 64 {
		t.Errorf("quantization error too large: %d", e)
	}
}

func TestEncoder_Deterministic(t *testing.T) {
	const w, h = 40, 30
	build := func() [][]byte {
		return [][]byte{gradient(w, h, 0), gradient(w, h, 16), mocks.Pattern(w, h, 3)}
	}

	for _, colors := range []int{0, 256, 64} {
		a := encode(t, w, h, ports.EncoderOptions{Colors: colors}, build(), []int{50, 50, 50})
		b := encode(t, w, h, ports.EncoderOptions{Colors: colors}, build(), []int{50, 50, 50})
		if !bytes.Equal(a, b) {
			t.Errorf("colors=%d: expected identical output for identical input", colors)
		}
	}
}

func TestEncoder_LongHold(t *testing.T) {
	const w, h = 4, 4
	tests := []struct {
		ms       int
		segments int
	}{
		{70000, 1},  // 70/1
		{70014, 1},  // 35007/500
		{70013, 2},  // 65535 + 4478
		{200001, 4}, // three full segments and 3396
	}

	for _, tt := range tests {
		frames := [][]byte{mocks.Pattern(w, h, 0), mocks.Pattern(w, h, 1)}
		data := encode(t, w, h, ports.EncoderOptions{}, frames, []int{tt.ms, 40})

		info, err := apngdecoder.Inspect(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%d ms: inspect failed: %v", tt.ms, err)
		}
		if info.NumFrames != tt.segments+1 || len(info.Frames) != tt.segments+1 {
			t.Fatalf("%d ms: expected %d frames, got %d", tt.ms, tt.segments+1, info.NumFrames)
		}
		var held float64
		for _, f := range info.Frames[:tt.segments] {
			held += f.DelayMs()
		}
		if held != float64(tt.ms) {
			t.Errorf("%d ms: frames hold %v ms", tt.ms, held)
		}
		if last := info.Frames[tt.segments]; last.DelayMs() != 40 {
			t.Errorf("%d ms: expected trailing 40ms frame, got %v", tt.ms, last.DelayMs())
		}

		anim := decode(t, data)
		for k := 0; k < tt.segments; k++ {
			if !bytes.Equal(anim.Frames[k].Image.Pix, anim.Frames[0].Image.Pix) {
				t.Errorf("%d ms: segment %d shows different pixels", tt.ms, k)
			}
		}
	}
}

func TestEncoder_SmallerPaletteNotLarger(t *testing.T) {
	const w, h = 64, 64
	build := func() [][]byte {
		frames := make([][]byte, 6)
		for i := range frames {
			frames[i] = gradient(w, h, i*8)
		}
		return frames
	}
	delays := []int{83, 83, 83, 83, 83, 83}

	high := encode(t, w, h, ports.EncoderOptions{Colors: 256}, build(), delays)
	low := encode(t, w, h, ports.EncoderOptions{Colors: 64}, build(), delays)

	if len(low) > len(high) {
		t.Errorf("64 colours (%d bytes) larger than 256 colours (%d bytes)", len(low), len(high))
	}
}

func TestEncoder_MultiChunkFrames(t *testing.T) {
	const w, h = 600, 600 // incompressible data well above maxChunkData
	frames := [][]byte{noise(w, h, 1), noise(w, h, 2)}
	originals := [][]byte{clone(frames[0]), clone(frames[1])}

	data := encode(t, w, h, ports.EncoderOptions{CompressionLevel: 1}, frames, []int{100, 100})

	info, err := apngdecoder.Inspect(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if info.Frames[1].DataBytes <= maxChunkData {
		t.Fatalf("expected frame data to span several chunks, got %d bytes", info.Frames[1].DataBytes)
	}

	anim := decode(t, data)
	for i, f := range anim.Frames {
		if !bytes.Equal(f.Image.Pix, originals[i]) {
			t.Errorf("frame %d: pixels differ", i)
		}
	}
}

func TestEncoder_Errors(t *testing.T) {
	t.Run("add before begin", func(t *testing.T) {
		if err := New().AddFrame(make([]byte, 4), 10); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("expected ErrNotInitialized, got %v", err)
		}
	})

	t.Run("end before begin", func(t *testing.T) {
		if _, err := New().End(context.Background()); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("expected ErrNotInitialized, got %v", err)
		}
	})

	t.Run("no frames", func(t *testing.T) {
		enc := New()
		enc.Begin(2, 2, ports.EncoderOptions{})
		if _, err := enc.End(context.Background()); !errors.Is(err, ErrNoFrames) {
			t.Errorf("expected ErrNoFrames, got %v", err)
		}
	})

	t.Run("wrong frame size", func(t *testing.T) {
		enc := New()
		enc.Begin(2, 2, ports.EncoderOptions{})
		if err := enc.AddFrame(make([]byte, 12), 10); !errors.Is(err, ErrFrameSize) {
			t.Errorf("expected ErrFrameSize, got %v", err)
		}
	})

	t.Run("negative delay", func(t *testing.T) {
		enc := New()
		enc.Begin(1, 1, ports.EncoderOptions{})
		if err := enc.AddFrame(make([]byte, 4), -1); !errors.Is(err, ErrInvalidDelay) {
			t.Errorf("expected ErrInvalidDelay, got %v", err)
		}
	})

	invalid := []struct {
		name   string
		w, h   int
		opts   ports.EncoderOptions
		target error
	}{
		{"zero width", 0, 10, ports.EncoderOptions{}, ErrInvalidDimensions},
		{"too tall", 10, MaxDimension + 1, ports.EncoderOptions{}, ErrInvalidDimensions},
		{"too many colors", 10, 10, ports.EncoderOptions{Colors: 257}, ErrInvalidOptions},
		{"negative loop", 10, 10, ports.EncoderOptions{LoopCount: -1}, ErrInvalidOptions},
		{"bad level", 10, 10, ports.EncoderOptions{CompressionLevel: 12}, ErrInvalidOptions},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if err := New().Begin(tt.w, tt.h, tt.opts); !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestEncoder_Reusable(t *testing.T) {
	enc := New()
	for run := 0; run < 2; run++ {
		if err := enc.Begin(4, 4, ports.EncoderOptions{Colors: 16, LoopCount: 3}); err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		enc.AddFrame(mocks.Pattern(4, 4, run), 100)
		data, err := enc.End(context.Background())
		if err != nil {
			t.Fatalf("run %d: End failed: %v", run, err)
		}
		if anim := decode(t, data); len(anim.Frames) != 1 || anim.LoopCount != 3 {
			t.Errorf("run %d: unexpected animation %d frames, %d loops", run, len(anim.Frames), anim.LoopCount)
		}
	}
}

func TestDelaySegments(t *testing.T) {
	tests := []struct {
		ms   int
		want []delayFraction
	}{
		{0, []delayFraction{{0, 1}}},
		{42, []delayFraction{{21, 500}}},
		{83, []delayFraction{{83, 1000}}},
		{100, []delayFraction{{1, 10}}},
		{65535, []delayFraction{{65535, 1000}}},
		{65536, []delayFraction{{8192, 125}}},
		{131071, []delayFraction{{65535, 1000}, {65535, 1000}, {1, 1000}}},
	}

	for _, tt := range tests {
		got, err := delaySegments(tt.ms)
		if err != nil {
			t.Errorf("%d ms: unexpected error %v", tt.ms, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("%d ms: expected %v, got %v", tt.ms, tt.want, got)
			continue
		}
		for k := range got {
			if got[k] != tt.want[k] {
				t.Errorf("%d ms: expected %v, got %v", tt.ms, tt.want, got)
				break
			}
		}
	}

	if _, err := delaySegments(-5); !errors.Is(err, ErrInvalidDelay) {
		t.Errorf("expected ErrInvalidDelay, got %v", err)
	}
}

// highColor renders frames in which almost every pixel has its own colour.
func highColor(width, height, frame int) []byte {
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			pix[i] = byte(x)
			pix[i+1] = byte(y)
			pix[i+2] = byte(frame*29 + (x^y)&7)
			pix[i+3] = byte(255 - (x+y)&15)
		}
	}
	return pix
}

func TestEncoder_EndCanceled(t *testing.T) {
	const w, h = 256, 256
	enc := New()
	if err := enc.Begin(w, h, ports.EncoderOptions{Colors: 256}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for i := 0; i < 8; i++ {
		if err := enc.AddFrame(highColor(w, h, i), 40); err != nil {
			t.Fatalf("AddFrame %d failed: %v", i, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if _, err := enc.End(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("canceled End took %s", elapsed)
	}
	if n := enc.Buffered(); n != 0 {
		t.Errorf("expected no buffered frames after cancel, got %d", n)
	}
	if _, err := enc.End(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized after cancel, got %v", err)
	}
}

func TestEncoder_Abort(t *testing.T) {
	enc := New()
	if err := enc.Begin(4, 4, ports.EncoderOptions{Colors: 16}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	enc.AddFrame(mocks.Pattern(4, 4, 0), 100)
	enc.AddFrame(mocks.Pattern(4, 4, 1), 100)
	if n := enc.Buffered(); n != 2 {
		t.Fatalf("expected 2 buffered frames, got %d", n)
	}

	enc.Abort()
	if n := enc.Buffered(); n != 0 {
		t.Errorf("expected no buffered frames, got %d", n)
	}
	if err := enc.AddFrame(mocks.Pattern(4, 4, 2), 100); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized after Abort, got %v", err)
	}

	// Begin starts over cleanly.
	if err := enc.Begin(4, 4, ports.EncoderOptions{Colors: 16}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	enc.AddFrame(mocks.Pattern(4, 4, 3), 100)
	data, err := enc.End(context.Background())
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if anim := decode(t, data); len(anim.Frames) != 1 {
		t.Errorf("expected 1 frame, got %d", len(anim.Frames))
	}
}

func TestEncoder_HighColorWithinBudget(t *testing.T) {
	const w, h = 256, 256
	frames := make([][]byte, 8)
	delays := make([]int, len(frames))
	for i := range frames {
		frames[i] = highColor(w, h, i)
		delays[i] = 40
	}

	start := time.Now()
	data := encode(t, w, h, ports.EncoderOptions{Colors: 256}, frames, delays)
	if elapsed := time.Since(start); elapsed > 15*time.Second {
		t.Errorf("quantizing %d high-colour frames took %s", len(frames), elapsed)
	}

	info, err := apngdecoder.Inspect(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if info.PaletteSize == 0 || info.PaletteSize > 256 || info.NumFrames != len(frames) {
		t.Errorf("unexpected result: palette %d, %d frames", info.PaletteSize, info.NumFrames)
	}
}
