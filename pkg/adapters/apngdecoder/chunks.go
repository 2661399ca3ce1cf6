package apngdecoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// maxChunkLength is the PNG limit of 2^31-1 bytes per chunk.
const maxChunkLength = 1<<31 - 1

type chunk struct {
	typ  string
	data []byte
}

// readChunks reads every chunk up to and including IEND, verifying the
// signature and each CRC.
func readChunks(r io.Reader) ([]chunk, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil || !bytes.Equal(sig, pngSignature) {
		return nil, ErrSignature
	}

	var chunks []chunk
	var header [8]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil, fmt.Errorf("%w: truncated before IEND", ErrFormat)
		}
		length := binary.BigEndian.Uint32(header[:4])
		if length > maxChunkLength {
			return nil, fmt.Errorf("%w: chunk length %d", ErrFormat, length)
		}
		typ := string(header[4:8])

		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("%w: truncated %s chunk", ErrFormat, typ)
		}
		var footer [4]byte
		if _, err := io.ReadFull(r, footer[:]); err != nil {
			return nil, fmt.Errorf("%w: truncated %s chunk", ErrFormat, typ)
		}

		crc := crc32.NewIEEE()
		crc.Write(header[4:8])
		crc.Write(data)
		if crc.Sum32() != binary.BigEndian.Uint32(footer[:]) {
			return nil, fmt.Errorf("%w: %s chunk", ErrChecksum, typ)
		}

		chunks = append(chunks, chunk{typ: typ, data: data})
		if typ == "IEND" {
			return chunks, nil
		}
	}
}

func writeChunk(buf *bytes.Buffer, typ string, data []byte) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(len(data)))
	buf.Write(b[:])
	buf.WriteString(typ)
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	binary.BigEndian.PutUint32(b[:], crc.Sum32())
	buf.Write(b[:])
}
