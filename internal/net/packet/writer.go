package packet

import (
	"encoding/binary"
	"math"
)

// Writer is the write side of the bit cursor.
type Writer struct {
	buf  []byte
	bits int
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// NewWriterWithID starts a frame with a one-byte message identifier.
func NewWriterWithID(id byte) *Writer {
	w := NewWriter()
	w.WriteU8(id)
	return w
}

// WriteBit appends a single bit.
func (w *Writer) WriteBit(v bool) {
	if w.bits&7 == 0 {
		w.buf = append(w.buf, 0)
	}
	if v {
		w.buf[len(w.buf)-1] |= bitMask(w.bits)
	}
	w.bits++
}

// WriteU8 appends 8 bits at the current bit position.
func (w *Writer) WriteU8(v byte) {
	off := w.bits & 7
	if off == 0 {
		w.buf = append(w.buf, v)
	} else {
		w.buf[len(w.buf)-1] |= v >> uint(off)
		w.buf = append(w.buf, v<<uint(8-off))
	}
	w.bits += 8
}

// WriteBytes appends raw bytes, unaligned if the cursor is mid-byte.
func (w *Writer) WriteBytes(b []byte) {
	if w.bits&7 == 0 {
		w.buf = append(w.buf, b...)
		w.bits += len(b) * 8
		return
	}
	for _, v := range b {
		w.WriteU8(v)
	}
}

func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.WriteBytes(b[:])
}

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.WriteBytes(b[:])
}

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.WriteBytes(b[:])
}

func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }

func (w *Writer) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

// WriteFlagged writes a presence bit and, when set, calls fn for the payload.
func (w *Writer) WriteFlagged(present bool, fn func(*Writer)) {
	w.WriteBit(present)
	if present {
		fn(w)
	}
}

// Align pads with zero bits up to the next byte boundary.
func (w *Writer) Align() {
	w.bits = len(w.buf) * 8
}

// Bytes returns the written stream; a trailing partial byte is zero padded.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// BitLen returns the number of bits written.
func (w *Writer) BitLen() int {
	return w.bits
}

// Len returns the written length in bytes, counting a partial byte.
func (w *Writer) Len() int {
	return bytesFor(w.bits)
}
