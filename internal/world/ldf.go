package world

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lugo/server/internal/net/packet"
)

// LDFType is the value type tag of a settings entry.
type LDFType uint8

const (
	LDFWString LDFType = 0
	LDFInt32   LDFType = 1
	LDFFloat   LDFType = 3
	LDFDouble  LDFType = 4
	LDFUint32  LDFType = 5
	LDFBool    LDFType = 7
	LDFUint64  LDFType = 8
	LDFObjID   LDFType = 9
	LDFString  LDFType = 13
)

// LDFValue is a typed settings value. V holds string, int32, float32,
// float64, uint32, bool, uint64 or int64 depending on Type.
type LDFValue struct {
	Type LDFType
	V    any
}

type ldfEntry struct {
	key   string
	value LDFValue
}

// Settings is an ordered key/value dictionary in the LDF format used by
// level templates and by replicated script data.
type Settings struct {
	entries []ldfEntry
	index   map[string]int
}

func NewSettings() *Settings {
	return &Settings{index: make(map[string]int)}
}

// ParseSettings reads lines of the form key=type:value. Malformed lines
// are returned as an error after the valid ones have been kept.
func ParseSettings(lines []string) (*Settings, error) {
	s := NewSettings()
	var bad []string
	for _, line := range lines {
		if err := s.parseLine(line); err != nil {
			bad = append(bad, line)
		}
	}
	if len(bad) > 0 {
		return s, fmt.Errorf("malformed settings: %q", bad)
	}
	return s, nil
}

func (s *Settings) parseLine(line string) error {
	key, rest, ok := strings.Cut(line, "=")
	if !ok || key == "" {
		return fmt.Errorf("missing key")
	}
	typ, raw, ok := strings.Cut(rest, ":")
	if !ok {
		return fmt.Errorf("missing type")
	}
	t, err := strconv.ParseUint(typ, 10, 8)
	if err != nil {
		return err
	}
	var v any
	switch LDFType(t) {
	case LDFWString, LDFString:
		v = raw
	case LDFInt32:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return err
		}
		v = int32(n)
	case LDFFloat:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		v = float32(f)
	case LDFDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		v = f
	case LDFUint32:
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return err
		}
		v = uint32(n)
	case LDFBool:
		v = raw == "1" || strings.EqualFold(raw, "true")
	case LDFUint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		v = n
	case LDFObjID:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		v = n
	default:
		return fmt.Errorf("unknown type %d", t)
	}
	s.Set(key, LDFValue{Type: LDFType(t), V: v})
	return nil
}

// Set inserts or replaces key, keeping the original position on replace.
func (s *Settings) Set(key string, v LDFValue) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[key]; ok {
		s.entries[i].value = v
		return
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, ldfEntry{key: key, value: v})
}

func (s *Settings) Get(key string) (LDFValue, bool) {
	if s == nil {
		return LDFValue{}, false
	}
	i, ok := s.index[key]
	if !ok {
		return LDFValue{}, false
	}
	return s.entries[i].value, true
}

func (s *Settings) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *Settings) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Keys returns the keys in insertion order.
func (s *Settings) Keys() []string {
	out := make([]string, 0, s.Len())
	if s == nil {
		return out
	}
	for _, e := range s.entries {
		out = append(out, e.key)
	}
	return out
}

// Clone returns an independent copy.
func (s *Settings) Clone() *Settings {
	c := NewSettings()
	if s == nil {
		return c
	}
	for _, e := range s.entries {
		c.Set(e.key, e.value)
	}
	return c
}

// Float returns a numeric setting as float64.
func (s *Settings) Float(key string) (float64, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.V.(type) {
	case int32:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns a numeric setting truncated to int64.
func (s *Settings) Int(key string) (int64, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.V.(type) {
	case uint64:
		return int64(n), true
	case int64:
		return n, true
	}
	f, ok := s.Float(key)
	return int64(f), ok
}

func (s *Settings) Bool(key string) bool {
	f, ok := s.Float(key)
	return ok && f != 0
}

func (s *Settings) String(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	if str, ok := v.V.(string); ok {
		return str, true
	}
	return formatLDF(v), true
}

// Lines renders the dictionary back to key=type:value lines.
func (s *Settings) Lines() []string {
	out := make([]string, 0, s.Len())
	if s == nil {
		return out
	}
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s=%d:%s", e.key, e.value.Type, formatLDF(e.value)))
	}
	return out
}

func formatLDF(v LDFValue) string {
	switch n := v.V.(type) {
	case bool:
		if n {
			return "1"
		}
		return "0"
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(n)
	}
}

// WriteBinary writes the uncompressed binary LDF form.
func (s *Settings) WriteBinary(w *packet.Writer) {
	w.WriteU32(uint32(s.Len()))
	if s == nil {
		return
	}
	for _, e := range s.entries {
		key := packet.EncodeWide(e.key)
		w.WriteU8(byte(len(key)))
		w.WriteBytes(key)
		w.WriteU8(byte(e.value.Type))
		switch n := e.value.V.(type) {
		case string:
			if e.value.Type == LDFString {
				w.WriteU32(uint32(len(n)))
				w.WriteBytes([]byte(n))
			} else {
				w.WriteWideU32(n)
			}
		case int32:
			w.WriteI32(n)
		case float32:
			w.WriteF32(n)
		case float64:
			w.WriteF64(n)
		case uint32:
			w.WriteU32(n)
		case bool:
			if n {
				w.WriteU8(1)
			} else {
				w.WriteU8(0)
			}
		case uint64:
			w.WriteU64(n)
		case int64:
			w.WriteI64(n)
		default:
			w.WriteU32(0)
		}
	}
}

// WriteCompressed writes the size-prefixed LDF blob used by replica
// components: [u32 size+1][u8 compressed=0][binary LDF].
func (s *Settings) WriteCompressed(w *packet.Writer) {
	body := packet.NewWriter()
	s.WriteBinary(body)
	w.WriteU32(uint32(body.Len() + 1))
	w.WriteU8(0)
	w.WriteBytes(body.Bytes())
}

// ReadSettingsBinary parses the binary LDF form.
func ReadSettingsBinary(r *packet.Reader) (*Settings, error) {
	s := NewSettings()
	n := int(r.ReadU32())
	for i := 0; i < n && r.Err() == nil; i++ {
		key := packet.DecodeWide(r.ReadBytes(int(r.ReadU8())))
		t := LDFType(r.ReadU8())
		var v any
		switch t {
		case LDFWString:
			v = r.ReadWideU32()
		case LDFString:
			v = string(r.ReadBytes(int(r.ReadU32())))
		case LDFInt32:
			v = r.ReadI32()
		case LDFFloat:
			v = r.ReadF32()
		case LDFDouble:
			v = r.ReadF64()
		case LDFUint32:
			v = r.ReadU32()
		case LDFBool:
			v = r.ReadU8() != 0
		case LDFUint64:
			v = r.ReadU64()
		case LDFObjID:
			v = r.ReadI64()
		default:
			return s, fmt.Errorf("unknown ldf type %d for %q", t, key)
		}
		s.Set(key, LDFValue{Type: t, V: v})
	}
	return s, r.Err()
}

// settingVectors reads a setting holding "x,y,z" points separated by ';'.
// Malformed points are skipped.
func settingVectors(s *Settings, key string) []Vector3 {
	str, ok := s.String(key)
	if !ok {
		return nil
	}
	var out []Vector3
	for _, point := range strings.Split(str, ";") {
		if v, ok := parseVector(point); ok {
			out = append(out, v)
		}
	}
	return out
}

func parseVector(str string) (Vector3, bool) {
	parts := strings.Split(str, ",")
	if len(parts) != 3 {
		return Vector3{}, false
	}
	var out [3]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil || math.IsNaN(f) {
			return Vector3{}, false
		}
		out[i] = float32(f)
	}
	return VectorFromArray(out), true
}
