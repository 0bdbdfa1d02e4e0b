package psd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validHeaderBytes() []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("8BPS")
	binary.Write(buf, binary.BigEndian, uint16(1))
	buf.Write(make([]byte, 6))
	binary.Write(buf, binary.BigEndian, uint16(3))
	binary.Write(buf, binary.BigEndian, uint32(10))
	binary.Write(buf, binary.BigEndian, uint32(20))
	binary.Write(buf, binary.BigEndian, uint16(8))
	binary.Write(buf, binary.BigEndian, uint16(ColorModeRGB))
	return buf.Bytes()
}

func TestDecodeHeaderValid(t *testing.T) {
	c := NewCursor(validHeaderBytes(), 0)
	h, err := decodeHeader(c)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), h.Version)
	assert.Equal(t, uint32(10), h.Height)
	assert.Equal(t, uint32(20), h.Width)
	assert.Equal(t, ColorModeRGB, h.ColorMode)
	assert.False(t, h.IsBig())
}

func TestDecodeHeaderBadSignature(t *testing.T) {
	b := validHeaderBytes()
	b[0] = 'X'
	_, err := decodeHeader(NewCursor(b, 0))
	require.Error(t, err)
	var sigErr *InvalidSignatureError
	assert.ErrorAs(t, err, &sigErr)
}

func TestDecodeHeaderBadVersion(t *testing.T) {
	b := validHeaderBytes()
	binary.BigEndian.PutUint16(b[4:6], 3)
	_, err := decodeHeader(NewCursor(b, 0))
	require.Error(t, err)
	var verErr *UnsupportedVersionError
	assert.ErrorAs(t, err, &verErr)
}

func TestDecodeHeaderBadColorMode(t *testing.T) {
	b := validHeaderBytes()
	binary.BigEndian.PutUint16(b[24:26], 99)
	_, err := decodeHeader(NewCursor(b, 0))
	require.Error(t, err)
	var modeErr *InvalidColorModeError
	assert.ErrorAs(t, err, &modeErr)
}

func TestDecodeHeaderOutOfRangeWidth(t *testing.T) {
	b := validHeaderBytes()
	binary.BigEndian.PutUint32(b[18:22], 0) // width = 0 is out of range
	_, err := decodeHeader(NewCursor(b, 0))
	require.Error(t, err)
	var rangeErr *OutOfRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestColorModeString(t *testing.T) {
	assert.Equal(t, "Rgb", ColorModeRGB.String())
	assert.Contains(t, ColorMode(123).String(), "Unknown")
}
