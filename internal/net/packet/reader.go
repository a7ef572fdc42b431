package packet

import (
	"encoding/binary"
	"math"
)

// Reader is the read side of the bit cursor. It never panics on short
// input; exhausted reads return zero values and latch ErrShortRead.
type Reader struct {
	data []byte
	pos  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) fail() {
	r.err = ErrShortRead
	r.pos = len(r.data) * 8
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() bool {
	if r.pos >= len(r.data)*8 {
		r.fail()
		return false
	}
	v := r.data[r.pos>>3]&bitMask(r.pos) != 0
	r.pos++
	return v
}

// ReadU8 reads 8 bits from the current bit position.
func (r *Reader) ReadU8() byte {
	if r.pos+8 > len(r.data)*8 {
		r.fail()
		return 0
	}
	i, off := r.pos>>3, r.pos&7
	v := r.data[i]
	if off != 0 {
		v = v<<uint(off) | r.data[i+1]>>uint(8-off)
	}
	r.pos += 8
	return v
}

// ReadBytes reads n bytes. On short input it returns nil.
func (r *Reader) ReadBytes(n int) []byte {
	if n < 0 || r.pos+n*8 > len(r.data)*8 {
		r.fail()
		return nil
	}
	b := make([]byte, n)
	if r.pos&7 == 0 {
		copy(b, r.data[r.pos>>3:])
		r.pos += n * 8
		return b
	}
	for i := range b {
		b[i] = r.ReadU8()
	}
	return b
}

func (r *Reader) ReadU16() uint16 {
	b := r.ReadBytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) ReadU32() uint32 {
	b := r.ReadBytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) ReadU64() uint64 {
	b := r.ReadBytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) ReadI32() int32 { return int32(r.ReadU32()) }

func (r *Reader) ReadI64() int64 { return int64(r.ReadU64()) }

func (r *Reader) ReadF32() float32 { return math.Float32frombits(r.ReadU32()) }

func (r *Reader) ReadF64() float64 { return math.Float64frombits(r.ReadU64()) }

// Align skips to the next byte boundary.
func (r *Reader) Align() {
	r.pos = bytesFor(r.pos) * 8
}

// Err reports ErrShortRead once any read has run out of input.
func (r *Reader) Err() error {
	return r.err
}

// BitPos returns the current read position in bits.
func (r *Reader) BitPos() int {
	return r.pos
}

// RemainingBits returns the number of unread bits.
func (r *Reader) RemainingBits() int {
	return len(r.data)*8 - r.pos
}

// Rest returns the unread bytes from the next byte boundary on.
func (r *Reader) Rest() []byte {
	i := bytesFor(r.pos)
	if i >= len(r.data) {
		return nil
	}
	return r.data[i:]
}
