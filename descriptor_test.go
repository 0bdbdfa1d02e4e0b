package psd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorParserParseBoolean(t *testing.T) {
	buf := new(bytes.Buffer)

	writeUnicodeString(buf, "TestClass")
	writeString(buf, "Test")

	binary.Write(buf, binary.BigEndian, uint32(1))

	writeString(buf, "bool")

	buf.WriteString("bool")
	buf.WriteByte(1) // true

	parser := NewDescriptorParser(buf.Bytes())
	result, err := parser.Parse()

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, true, result["bool"])
}

func TestDescriptorParserParseInt(t *testing.T) {
	buf := new(bytes.Buffer)

	writeUnicodeString(buf, "Test")
	writeString(buf, "Test")

	binary.Write(buf, binary.BigEndian, uint32(1))

	writeString(buf, "num")

	buf.WriteString("long")
	binary.Write(buf, binary.BigEndian, int32(42))

	parser := NewDescriptorParser(buf.Bytes())
	result, err := parser.Parse()

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, int32(42), result["num"])
}

func TestDescriptorParserParseDouble(t *testing.T) {
	buf := new(bytes.Buffer)

	writeUnicodeString(buf, "Test")
	writeString(buf, "Test")

	binary.Write(buf, binary.BigEndian, uint32(1))

	writeString(buf, "val")

	buf.WriteString("doub")
	binary.Write(buf, binary.BigEndian, float64(3.14))

	parser := NewDescriptorParser(buf.Bytes())
	result, err := parser.Parse()

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.InDelta(t, 3.14, result["val"], 0.001)
}

func TestDescriptorParserParseText(t *testing.T) {
	buf := new(bytes.Buffer)

	writeUnicodeString(buf, "Test")
	writeString(buf, "Test")

	binary.Write(buf, binary.BigEndian, uint32(1))

	writeString(buf, "text")

	buf.WriteString("TEXT")
	writeUnicodeString(buf, "Hello World")

	parser := NewDescriptorParser(buf.Bytes())
	result, err := parser.Parse()

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "Hello World", result["text"])
}

func TestDescriptorParserParseEnum(t *testing.T) {
	buf := new(bytes.Buffer)

	writeUnicodeString(buf, "Test")
	writeString(buf, "Test")

	binary.Write(buf, binary.BigEndian, uint32(1))

	writeString(buf, "mode")

	buf.WriteString("enum")
	writeString(buf, "Type")
	writeString(buf, "Val ")

	parser := NewDescriptorParser(buf.Bytes())
	result, err := parser.Parse()

	assert.NoError(t, err)
	assert.NotNil(t, result)

	enum := result["mode"].(map[string]interface{})
	assert.Equal(t, "Type", enum["type"])
	assert.Equal(t, "Val ", enum["value"])
}

func TestDescriptorParserParseList(t *testing.T) {
	buf := new(bytes.Buffer)

	writeUnicodeString(buf, "Test")
	writeString(buf, "Test")

	binary.Write(buf, binary.BigEndian, uint32(1))

	writeString(buf, "list")

	buf.WriteString("VlLs")

	binary.Write(buf, binary.BigEndian, uint32(3))

	buf.WriteString("long")
	binary.Write(buf, binary.BigEndian, int32(1))
	buf.WriteString("long")
	binary.Write(buf, binary.BigEndian, int32(2))
	buf.WriteString("long")
	binary.Write(buf, binary.BigEndian, int32(3))

	parser := NewDescriptorParser(buf.Bytes())
	result, err := parser.Parse()

	assert.NoError(t, err)
	assert.NotNil(t, result)

	list := result["list"].([]interface{})
	assert.Len(t, list, 3)
	assert.Equal(t, int32(1), list[0])
	assert.Equal(t, int32(2), list[1])
	assert.Equal(t, int32(3), list[2])
}

func TestDescriptorParserParseUnitDouble(t *testing.T) {
	buf := new(bytes.Buffer)

	writeUnicodeString(buf, "Test")
	writeString(buf, "Test")

	binary.Write(buf, binary.BigEndian, uint32(1))

	writeString(buf, "scl ")

	buf.WriteString("UntF")
	buf.WriteString("#Prc")
	binary.Write(buf, binary.BigEndian, float64(100))

	parser := NewDescriptorParser(buf.Bytes())
	result, err := parser.Parse()

	assert.NoError(t, err)
	unit := result["scl "].(map[string]interface{})
	assert.Equal(t, "Percent", unit["unit"])
	assert.InDelta(t, 100.0, unit["value"], 0.001)
}

func TestDescriptorParserUnknownItemTypeReturnsTypedError(t *testing.T) {
	buf := new(bytes.Buffer)

	writeUnicodeString(buf, "Test")
	writeString(buf, "Test")

	binary.Write(buf, binary.BigEndian, uint32(1))

	writeString(buf, "bad ")

	buf.WriteString("zzzz")

	parser := NewDescriptorParser(buf.Bytes())
	_, err := parser.Parse()

	var typeErr *InvalidDescriptorTypeError
	assert.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "zzzz", typeErr.TypeTag)
}

func TestDescriptorParserUnknownReferenceTypeReturnsTypedError(t *testing.T) {
	buf := new(bytes.Buffer)

	writeUnicodeString(buf, "Test")
	writeString(buf, "Test")

	binary.Write(buf, binary.BigEndian, uint32(1))

	writeString(buf, "ref ")

	buf.WriteString("obj ")
	binary.Write(buf, binary.BigEndian, uint32(1))
	buf.WriteString("nope")

	parser := NewDescriptorParser(buf.Bytes())
	_, err := parser.Parse()

	var refErr *InvalidReferenceTypeError
	assert.True(t, errors.As(err, &refErr))
	assert.Equal(t, "nope", refErr.TypeTag)
}

func writeUnicodeString(buf *bytes.Buffer, s string) {
	runes := []rune(s)
	binary.Write(buf, binary.BigEndian, uint32(len(runes)))
	for _, r := range runes {
		binary.Write(buf, binary.BigEndian, uint16(r))
	}
}

func writeString(buf *bytes.Buffer, s string) {
	if len(s) == 4 {
		binary.Write(buf, binary.BigEndian, uint32(0))
		buf.WriteString(s)
	} else {
		binary.Write(buf, binary.BigEndian, uint32(len(s)))
		buf.WriteString(s)
	}
}
