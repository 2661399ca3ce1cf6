package apngdecoder

import "errors"

var (
	// ErrSignature is returned when the stream does not start with the PNG signature.
	ErrSignature = errors.New("apngdecoder: not a PNG stream")

	// ErrChecksum is returned when a chunk CRC does not match its contents.
	ErrChecksum = errors.New("apngdecoder: chunk checksum mismatch")

	// ErrSequence is returned when fcTL/fdAT sequence numbers are out of order.
	ErrSequence = errors.New("apngdecoder: sequence number out of order")

	// ErrFormat is returned for structurally invalid streams.
	ErrFormat = errors.New("apngdecoder: invalid format")
)
