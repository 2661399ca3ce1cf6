package apngencoder

import "fmt"

// maxDelayMs is the longest hold a single fcTL can carry at millisecond
// resolution.
const maxDelayMs = 0xFFFF

// delayFraction is one fcTL delay, num/den seconds.
type delayFraction struct {
	num, den uint16
}

// delaySegments expresses a delay in milliseconds as fcTL fractions whose
// sum is exactly ms. A single reduced fraction is used when it fits in 16
// bits; longer holds repeat the frame.
func delaySegments(ms int) ([]delayFraction, error) {
	if ms < 0 {
		return nil, fmt.Errorf("%w: %d ms", ErrInvalidDelay, ms)
	}
	g := gcd(ms, 1000)
	if n := ms / g; n <= 0xFFFF {
		return []delayFraction{{num: uint16(n), den: uint16(1000 / g)}}, nil
	}

	segments := make([]delayFraction, 0, ms/maxDelayMs+1)
	for ms > 0 {
		part := min(ms, maxDelayMs)
		segments = append(segments, delayFraction{num: uint16(part), den: 1000})
		ms -= part
	}
	return segments, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
