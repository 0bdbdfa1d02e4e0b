package psd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleAtDepth8(t *testing.T) {
	plane := &decodedPlane{bytes: []byte{10, 20, 30, 40}, depth: 8}
	assert.Equal(t, byte(10), sampleAt(plane, 2, 0, 0))
	assert.Equal(t, byte(40), sampleAt(plane, 2, 1, 1))
}

func TestSampleAtDepth1(t *testing.T) {
	// 1 row, 8 pixels, byte 0b10100000 -> pixels 0 and 2 set
	plane := &decodedPlane{bytes: []byte{0xA0}, depth: 1}
	assert.Equal(t, byte(255), sampleAt(plane, 8, 0, 0))
	assert.Equal(t, byte(0), sampleAt(plane, 8, 1, 0))
	assert.Equal(t, byte(255), sampleAt(plane, 8, 2, 0))
}

func TestSampleAtDepth16(t *testing.T) {
	// one pixel, big-endian 16-bit value 0xABCD -> high byte 0xAB
	plane := &decodedPlane{bytes: []byte{0xAB, 0xCD}, depth: 16}
	assert.Equal(t, byte(0xAB), sampleAt(plane, 1, 0, 0))
}

func TestSampleAtDepth32Float(t *testing.T) {
	// encode float32 1.0 big-endian -> clamps to 255
	plane := &decodedPlane{bytes: []byte{0x3F, 0x80, 0x00, 0x00}, depth: 32}
	assert.Equal(t, byte(255), sampleAt(plane, 1, 0, 0))
}

func TestSampleAtNilPlane(t *testing.T) {
	assert.Equal(t, byte(0), sampleAt(nil, 4, 0, 0))
}

func TestAssembleLayerRGBAIntersectsBounds(t *testing.T) {
	rec := &layerRecord{Top: -1, Left: -1, Bottom: 1, Right: 1}
	planes := map[ChannelKind]*decodedPlane{
		ChannelRed:   {bytes: []byte{1, 2, 3, 4}, depth: 8},
		ChannelGreen: {bytes: []byte{5, 6, 7, 8}, depth: 8},
		ChannelBlue:  {bytes: []byte{9, 10, 11, 12}, depth: 8},
	}

	out, err := assembleLayerRGBA(rec, planes, ColorModeRGB, 2, 2)
	require.NoError(t, err)
	require.Len(t, out, 2*2*4)

	// Only document pixel (0,0) falls inside the layer's [-1,-1,1,1) rect,
	// mapping to the layer-local pixel (1,1).
	assert.Equal(t, byte(4), out[0])
	assert.Equal(t, byte(8), out[1])
	assert.Equal(t, byte(12), out[2])
	assert.Equal(t, byte(255), out[3])

	// Pixel (1,1) is outside the layer rect entirely, so it stays zeroed.
	idx := (1*2 + 1) * 4
	assert.Equal(t, byte(0), out[idx])
	assert.Equal(t, byte(0), out[idx+3])
}

func TestAssembleLayerRGBAUnsupportedColorMode(t *testing.T) {
	rec := &layerRecord{Right: 1, Bottom: 1}
	_, err := assembleLayerRGBA(rec, nil, ColorModeCMYK, 1, 1)
	require.Error(t, err)
	var unsupported *UnsupportedColorModeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestAssembleDocumentRGBAGrayscale(t *testing.T) {
	planes := map[int]*decodedPlane{
		0: {bytes: []byte{100}, depth: 8},
		1: {bytes: []byte{200}, depth: 8},
	}
	out, err := assembleDocumentRGBA(planes, ColorModeGrayscale, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{100, 100, 100, 200}, out)
}
