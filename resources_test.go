package psd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeResourceEntry(buf *bytes.Buffer, id uint16, name string, data []byte) {
	buf.WriteString("8BIM")
	binary.Write(buf, binary.BigEndian, id)
	b := newPSDBuilder()
	b.pascalString(name, 2)
	buf.Write(b.buf.Bytes())
	binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 != 0 {
		buf.WriteByte(0)
	}
}

func TestDecodeResourcesBasic(t *testing.T) {
	buf := new(bytes.Buffer)
	writeResourceEntry(buf, 1036, "", []byte{1, 2, 3})
	writeResourceEntry(buf, 1037, "", []byte{4, 5})

	r, err := decodeResources(NewCursor(buf.Bytes(), 0))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, r.Raw[1036])
	assert.Equal(t, []byte{4, 5}, r.Raw[1037])
	assert.Empty(t, r.Duplicates)
}

func TestDecodeResourcesDuplicate(t *testing.T) {
	buf := new(bytes.Buffer)
	writeResourceEntry(buf, 1036, "", []byte{1})
	writeResourceEntry(buf, 1036, "", []byte{2})

	r, err := decodeResources(NewCursor(buf.Bytes(), 0))
	require.NoError(t, err)
	require.Len(t, r.Duplicates, 1)
	assert.Equal(t, uint16(1036), r.Duplicates[0].ID)
}

func buildGuidesResourceData(guides []Guide) []byte {
	b := newPSDBuilder()
	b.raw(make([]byte, 12)) // version + grid info
	b.u32(uint32(len(guides)))
	for _, g := range guides {
		b.i32(g.Position)
		if g.IsHorizontal {
			b.u8(0)
		} else {
			b.u8(1)
		}
	}
	return b.buf.Bytes()
}

func TestResourcesGuides(t *testing.T) {
	data := buildGuidesResourceData([]Guide{{Position: 100, IsHorizontal: true}, {Position: 200, IsHorizontal: false}})
	buf := new(bytes.Buffer)
	writeResourceEntry(buf, resourceIDGuides, "", data)

	r, err := decodeResources(NewCursor(buf.Bytes(), 0))
	require.NoError(t, err)

	guides, err := r.Guides()
	require.NoError(t, err)
	require.NotNil(t, guides)
	require.Len(t, guides.Guides, 2)
	assert.Equal(t, int32(100), guides.Guides[0].Position)
	assert.True(t, guides.Guides[0].IsHorizontal)
	assert.False(t, guides.Guides[1].IsHorizontal)
}

func TestResourcesGuidesAbsent(t *testing.T) {
	r := &Resources{Raw: make(map[uint16][]byte)}
	guides, err := r.Guides()
	require.NoError(t, err)
	assert.Nil(t, guides)
}

func buildSlicesV6Data() []byte {
	b := newPSDBuilder()
	b.i32(6) // version
	b.i32(0) // bounds top
	b.i32(0) // bounds left
	b.i32(10)
	b.i32(10)
	b.u32(0) // name length 0 (unicode string)
	b.i32(1) // slice count

	b.i32(1)  // slice ID
	b.i32(0)  // group ID
	b.i32(0)  // origin
	b.u32(0)  // name
	b.i32(0)  // type
	b.i32(0)  // bounds top
	b.i32(0)
	b.i32(5)
	b.i32(5)
	b.u32(0) // url
	b.u32(0) // target
	b.u32(0) // message
	b.u32(0) // alt
	b.u32(0) // cellTextIsHTML
	b.u32(0) // cellText
	b.i32(0) // horizontal align
	b.i32(0) // vertical align
	b.raw(make([]byte, 4))

	return b.buf.Bytes()
}

func TestResourcesSlicesV6(t *testing.T) {
	data := buildSlicesV6Data()
	buf := new(bytes.Buffer)
	writeResourceEntry(buf, resourceIDSlices, "", data)

	r, err := decodeResources(NewCursor(buf.Bytes(), 0))
	require.NoError(t, err)

	slices, err := r.Slices()
	require.NoError(t, err)
	require.NotNil(t, slices)
	assert.Equal(t, int32(6), slices.Version)
	require.Len(t, slices.Slices, 1)
	assert.Equal(t, int32(1), slices.Slices[0].ID)
	assert.Equal(t, int32(5), slices.Slices[0].Bounds.Bottom)
}

func TestResourcesSlicesAbsent(t *testing.T) {
	r := &Resources{Raw: make(map[uint16][]byte)}
	slices, err := r.Slices()
	require.NoError(t, err)
	assert.Nil(t, slices)
}
