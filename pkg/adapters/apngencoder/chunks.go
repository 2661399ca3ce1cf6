package apngencoder

import (
	"encoding/binary"
	"hash/crc32"
	"io"
)

// pngSignature opens every PNG and APNG stream.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// maxChunkData bounds the payload of a single IDAT/fdAT chunk. Larger frame
// data is split across consecutive chunks.
const maxChunkData = 1 << 20

// PNG colour types
const (
	colorTypePaletted = 3
	colorTypeRGBA     = 6
)

// APNG frame operations
const (
	disposeOpNone = 0
	blendOpSource = 0
)

// chunkWriter writes length-prefixed, CRC-terminated chunks. The first
// write error is sticky.
type chunkWriter struct {
	w   io.Writer
	err error
	seq uint32 // next fcTL/fdAT sequence number
}

func (cw *chunkWriter) write(typ string, data []byte) {
	if cw.err != nil {
		return
	}
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	copy(header[4:], typ)

	crc := crc32.NewIEEE()
	crc.Write(header[4:8])
	crc.Write(data)

	var footer [4]byte
	binary.BigEndian.PutUint32(footer[:], crc.Sum32())

	for _, b := range [][]byte{header[:], data, footer[:]} {
		if _, err := cw.w.Write(b); err != nil {
			cw.err = err
			return
		}
	}
}

func (cw *chunkWriter) signature() {
	if cw.err != nil {
		return
	}
	_, cw.err = cw.w.Write(pngSignature)
}

func (cw *chunkWriter) ihdr(width, height int, colorType byte) {
	var b [13]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(width))
	binary.BigEndian.PutUint32(b[4:8], uint32(height))
	b[8] = 8 // bit depth
	b[9] = colorType
	// compression, filter and interlace methods are all 0
	cw.write("IHDR", b[:])
}

func (cw *chunkWriter) actl(numFrames, numPlays int) {
	var b [8]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(numFrames))
	binary.BigEndian.PutUint32(b[4:8], uint32(numPlays))
	cw.write("acTL", b[:])
}

func (cw *chunkWriter) fctl(width, height int, delayNum, delayDen uint16) {
	var b [26]byte
	binary.BigEndian.PutUint32(b[0:4], cw.seq)
	binary.BigEndian.PutUint32(b[4:8], uint32(width))
	binary.BigEndian.PutUint32(b[8:12], uint32(height))
	// x and y offsets stay 0: every frame covers the full canvas
	binary.BigEndian.PutUint16(b[20:22], delayNum)
	binary.BigEndian.PutUint16(b[22:24], delayDen)
	b[24] = disposeOpNone
	b[25] = blendOpSource
	cw.seq++
	cw.write("fcTL", b[:])
}

// frameData writes compressed image data as IDAT chunks for the default
// image or as sequence-numbered fdAT chunks for every later frame.
func (cw *chunkWriter) frameData(data []byte, first bool) {
	for len(data) > 0 {
		n := min(len(data), maxChunkData)
		if first {
			cw.write("IDAT", data[:n])
		} else {
			b := make([]byte, 4+n)
			binary.BigEndian.PutUint32(b[:4], cw.seq)
			copy(b[4:], data[:n])
			cw.seq++
			cw.write("fdAT", b)
		}
		data = data[n:]
	}
}

func (cw *chunkWriter) plte(colors [][4]uint8) {
	b := make([]byte, 0, 3*len(colors))
	for _, c := range colors {
		b = append(b, c[0], c[1], c[2])
	}
	cw.write("PLTE", b)
}

// trns writes the alpha of the leading non-opaque palette entries. Trailing
// entries default to opaque, so the chunk is omitted when none are needed.
func (cw *chunkWriter) trns(colors [][4]uint8, nonOpaque int) {
	if nonOpaque == 0 {
		return
	}
	b := make([]byte, nonOpaque)
	for i := range b {
		b[i] = colors[i][3]
	}
	cw.write("tRNS", b)
}

func (cw *chunkWriter) iend() {
	cw.write("IEND", nil)
}
