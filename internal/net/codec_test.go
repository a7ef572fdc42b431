package net

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{0x24, 0x80, 0x01, 0x00}))
	assert.Equal(t, []byte{4, 0, 0, 0, 0x24, 0x80, 0x01, 0x00}, buf.Bytes())

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x24, 0x80, 0x01, 0x00}, got)
}

func TestReadFrameRejectsBadLength(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 0}))
	assert.Error(t, err)

	_, err = ReadFrame(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0x7F}))
	assert.Error(t, err)

	_, err = ReadFrame(bytes.NewReader([]byte{8, 0, 0, 0, 1, 2}))
	assert.Error(t, err)
}
