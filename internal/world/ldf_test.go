package world

import (
	"testing"

	"github.com/lugo/server/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettingsTypes(t *testing.T) {
	s, err := ParseSettings([]string{
		"name=0:Crate",
		"count=1:-4",
		"speed=3:1.5",
		"id=5:7",
		"on=7:1",
		"big=8:18446744073709551615",
		"owner=9:-2",
		"tag=13:abc",
	})
	require.NoError(t, err)
	assert.Equal(t, 8, s.Len())

	name, ok := s.String("name")
	assert.True(t, ok)
	assert.Equal(t, "Crate", name)

	n, ok := s.Int("count")
	assert.True(t, ok)
	assert.Equal(t, int64(-4), n)

	f, ok := s.Float("speed")
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	assert.True(t, s.Bool("on"))
	assert.False(t, s.Bool("missing"))

	v, _ := s.Get("big")
	assert.Equal(t, uint64(18446744073709551615), v.V)
	v, _ = s.Get("owner")
	assert.Equal(t, int64(-2), v.V)
	assert.Equal(t, []string{"name", "count", "speed", "id", "on", "big", "owner", "tag"}, s.Keys())
}

func TestParseSettingsKeepsValidLines(t *testing.T) {
	s, err := ParseSettings([]string{"ok=1:1", "broken", "bad=1:x", "typeless=abc"})
	assert.Error(t, err)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Has("ok"))
}

func TestSettingsLinesRoundTrip(t *testing.T) {
	lines := []string{"a=0:x", "b=1:3", "c=7:1", "d=3:0.25"}
	s, err := ParseSettings(lines)
	require.NoError(t, err)
	assert.Equal(t, lines, s.Lines())
}

func TestSetKeepsPosition(t *testing.T) {
	s := NewSettings()
	s.Set("a", LDFValue{Type: LDFInt32, V: int32(1)})
	s.Set("b", LDFValue{Type: LDFInt32, V: int32(2)})
	s.Set("a", LDFValue{Type: LDFInt32, V: int32(3)})
	assert.Equal(t, []string{"a=1:3", "b=1:2"}, s.Lines())
}

func TestBinarySettingsReadBack(t *testing.T) {
	s, err := ParseSettings([]string{"name=0:ab", "n=1:5", "f=3:2", "on=7:1", "id=9:77", "raw=13:xyz"})
	require.NoError(t, err)

	w := packet.NewWriter()
	s.WriteBinary(w)
	got, err := ReadSettingsBinary(packet.NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, s.Lines(), got.Lines())
}

func TestWriteCompressedHeader(t *testing.T) {
	s := NewSettings()
	s.Set("n", LDFValue{Type: LDFInt32, V: int32(5)})

	body := packet.NewWriter()
	s.WriteBinary(body)

	w := packet.NewWriter()
	s.WriteCompressed(w)
	r := packet.NewReader(w.Bytes())
	assert.Equal(t, uint32(body.Len()+1), r.ReadU32())
	assert.Zero(t, r.ReadU8(), "uncompressed marker")
	assert.Equal(t, body.Bytes(), r.ReadBytes(body.Len()))
}

func TestSettingVectors(t *testing.T) {
	s, err := ParseSettings([]string{"spawn_locations=0:1,2,3; 4,5,6;bad"})
	require.NoError(t, err)
	assert.Equal(t, []Vector3{{1, 2, 3}, {4, 5, 6}}, settingVectors(s, "spawn_locations"))
	assert.Nil(t, settingVectors(s, "missing"))
}

func TestNilSettingsAreEmpty(t *testing.T) {
	var s *Settings
	assert.Zero(t, s.Len())
	assert.False(t, s.Has("x"))
	assert.Empty(t, s.Lines())
	assert.Equal(t, 0, s.Clone().Len())
}
