package packet

import (
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeWide converts a UTF-8 string to UTF-16LE code units.
func EncodeWide(s string) []byte {
	if s == "" {
		return nil
	}
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		// invalid UTF-8 input; replace byte-wise
		out := make([]byte, 0, len(s)*2)
		for i := 0; i < len(s); i++ {
			out = append(out, s[i], 0)
		}
		return out
	}
	return b
}

// DecodeWide converts UTF-16LE code units back to UTF-8.
func DecodeWide(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	s, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(s)
}

// WideLen returns the number of UTF-16 code units for s.
func WideLen(s string) int {
	return len(EncodeWide(s)) / 2
}

// WriteWide writes s as UTF-16LE without a length prefix.
func (w *Writer) WriteWide(s string) {
	w.WriteBytes(EncodeWide(s))
}

// WriteWideU8 writes a u8 code-unit count followed by the UTF-16LE text,
// truncated to 255 units.
func (w *Writer) WriteWideU8(s string) {
	b := EncodeWide(s)
	if len(b) > 255*2 {
		b = b[:255*2]
	}
	w.WriteU8(byte(len(b) / 2))
	w.WriteBytes(b)
}

// WriteWideU32 writes a u32 code-unit count followed by the UTF-16LE text.
func (w *Writer) WriteWideU32(s string) {
	b := EncodeWide(s)
	w.WriteU32(uint32(len(b) / 2))
	w.WriteBytes(b)
}

// ReadWide reads n UTF-16 code units.
func (r *Reader) ReadWide(n int) string {
	return DecodeWide(r.ReadBytes(n * 2))
}

// ReadWideU32 reads a u32 code-unit count followed by that many units.
// Counts larger than the remaining input fail the read.
func (r *Reader) ReadWideU32() string {
	n := int(r.ReadU32())
	if n*16 > r.RemainingBits() {
		r.fail()
		return ""
	}
	return r.ReadWide(n)
}
