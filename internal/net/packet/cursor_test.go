package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterGoldenVectors(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  []byte
		bits  int
	}{
		{
			name:  "single bits msb first",
			write: func(w *Writer) { w.WriteBit(true); w.WriteBit(false); w.WriteBit(true) },
			want:  []byte{0xA0},
			bits:  3,
		},
		{
			name:  "u16 after one bit is unaligned",
			write: func(w *Writer) { w.WriteBit(true); w.WriteU16(0x1234) },
			want:  []byte{0x9A, 0x09, 0x00},
			bits:  17,
		},
		{
			name:  "align pads with zeros",
			write: func(w *Writer) { w.WriteBit(true); w.Align(); w.WriteU8(0xFF) },
			want:  []byte{0x80, 0xFF},
			bits:  16,
		},
		{
			name:  "u32 little endian",
			write: func(w *Writer) { w.WriteU32(1) },
			want:  []byte{0x01, 0x00, 0x00, 0x00},
			bits:  32,
		},
		{
			name:  "f32 one",
			write: func(w *Writer) { w.WriteF32(1.0) },
			want:  []byte{0x00, 0x00, 0x80, 0x3F},
			bits:  32,
		},
		{
			name:  "i64 minus one after a zero bit",
			write: func(w *Writer) { w.WriteBit(false); w.WriteI64(-1) },
			want:  []byte{0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x80},
			bits:  65,
		},
		{
			name:  "wide string with u8 length",
			write: func(w *Writer) { w.WriteWideU8("ab") },
			want:  []byte{0x02, 'a', 0x00, 'b', 0x00},
			bits:  40,
		},
		{
			name:  "flagged absent writes only the bit",
			write: func(w *Writer) { w.WriteFlagged(false, func(w *Writer) { w.WriteU32(7) }) },
			want:  []byte{0x00},
			bits:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			tt.write(w)
			assert.Equal(t, tt.want, w.Bytes())
			assert.Equal(t, tt.bits, w.BitLen())
		})
	}
}

func TestReaderMirrorsWriter(t *testing.T) {
	w := NewWriter()
	w.WriteBit(true)
	w.WriteU16(0xBEEF)
	w.WriteBit(false)
	w.WriteI64(-42)
	w.WriteF32(2.5)
	w.WriteU8(7)
	w.Align()
	w.WriteU32(0xCAFEBABE)
	w.WriteWideU32("zone")

	r := NewReader(w.Bytes())
	assert.True(t, r.ReadBit())
	assert.Equal(t, uint16(0xBEEF), r.ReadU16())
	assert.False(t, r.ReadBit())
	assert.Equal(t, int64(-42), r.ReadI64())
	assert.Equal(t, float32(2.5), r.ReadF32())
	assert.Equal(t, byte(7), r.ReadU8())
	r.Align()
	assert.Equal(t, uint32(0xCAFEBABE), r.ReadU32())
	assert.Equal(t, "zone", r.ReadWideU32())
	require.NoError(t, r.Err())
	assert.Equal(t, w.BitLen(), r.BitPos())
}

func TestReaderShortReadYieldsZero(t *testing.T) {
	r := NewReader([]byte{0xFF})
	assert.Equal(t, uint32(0), r.ReadU32())
	assert.ErrorIs(t, r.Err(), ErrShortRead)
	assert.False(t, r.ReadBit())
	assert.Equal(t, 0, r.RemainingBits())
}

func TestReaderRejectsOversizedWideCount(t *testing.T) {
	w := NewWriter()
	w.WriteU32(1 << 30)
	r := NewReader(w.Bytes())
	assert.Equal(t, "", r.ReadWideU32())
	assert.ErrorIs(t, r.Err(), ErrShortRead)
}

func TestWideRoundTrip(t *testing.T) {
	for _, s := range []string{"", "Nimbus Station", "ÆØÅ"} {
		assert.Equal(t, s, DecodeWide(EncodeWide(s)))
	}
	assert.Equal(t, 3, WideLen("abc"))
}
