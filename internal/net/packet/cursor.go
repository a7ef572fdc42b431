package packet

import "errors"

// ErrShortRead is reported by Reader.Err after any read ran past the end of
// the buffer. Reads past the end yield zero values.
var ErrShortRead = errors.New("packet: read past end of bit stream")

// Bits are addressed most-significant first within each byte, so bit
// position p lives in byte p/8 under mask 0x80>>(p%8). Reader and Writer
// share this layout; multi-byte values are little-endian byte sequences
// placed at the current bit position without implicit alignment.

func bitMask(pos int) byte {
	return 0x80 >> uint(pos&7)
}

func bytesFor(bits int) int {
	return (bits + 7) >> 3
}
