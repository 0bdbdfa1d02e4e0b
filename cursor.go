package psd

import (
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Cursor is a positioned, bounds-checked view over a borrowed byte slice.
// It never copies the underlying bytes except when asked to (ReadString);
// Take, Peek, Rest and Sub return views that alias them. Every read
// advances pos and fails with UnexpectedEOFError rather
// than panicking on underflow.
type Cursor struct {
	data []byte
	pos  int
	base int // offset of data[0] within the original document, for error reporting
}

// NewCursor wraps data for positional reads starting at offset base within
// the original document (used only to annotate errors with true offsets).
func NewCursor(data []byte, base int) *Cursor {
	return &Cursor{data: data, pos: 0, base: base}
}

// Pos returns the cursor's current offset within its own view.
func (c *Cursor) Pos() int { return c.pos }

// At returns the cursor's current offset within the original document.
func (c *Cursor) At() int { return c.base + c.pos }

// Len returns the number of unread bytes remaining in the view.
func (c *Cursor) Len() int { return len(c.data) - c.pos }

func (c *Cursor) require(n int) error {
	if c.pos+n > len(c.data) {
		return &UnexpectedEOFError{Need: n, Have: c.Len(), At: c.At()}
	}
	return nil
}

// Skip advances the cursor by n bytes without reading them.
func (c *Cursor) Skip(n int) error {
	if err := c.require(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// Take returns a sub-view of the next n bytes and advances past them. The
// returned slice aliases the cursor's backing array; it is never retained
// past the lifetime of the Psd that produced the cursor.
func (c *Cursor) Take(n int) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Peek returns the next n bytes without advancing the cursor.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}
	return c.data[c.pos : c.pos+n], nil
}

// Rest returns every unread byte as a sub-view, advancing to the end.
func (c *Cursor) Rest() []byte {
	b := c.data[c.pos:]
	c.pos = len(c.data)
	return b
}

// Sub creates an independent Cursor over the next n bytes of this one,
// advancing this cursor past them. Used by SectionSplitter to hand each
// section its own positional view.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	b, err := c.Take(n)
	if err != nil {
		return nil, err
	}
	return NewCursor(b, c.base+c.pos-n), nil
}

// ReadByte reads a single unsigned byte.
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.Take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a big-endian uint16.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.Take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadInt16 reads a big-endian int16.
func (c *Cursor) ReadInt16() (int16, error) {
	v, err := c.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a big-endian uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.Take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadInt32 reads a big-endian int32.
func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a big-endian uint64.
func (c *Cursor) ReadUint64() (uint64, error) {
	b, err := c.Take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadLength reads a uint32 if big is false, or a uint64 if big is true.
// Several PSB (version 2) fields widen their length prefix this way.
func (c *Cursor) ReadLength(big bool) (uint64, error) {
	if big {
		return c.ReadUint64()
	}
	v, err := c.ReadUint32()
	return uint64(v), err
}

// ReadString reads n raw bytes and returns them as a Go string with no
// encoding conversion.
func (c *Cursor) ReadString(n int) (string, error) {
	b, err := c.Take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ExpectSignature reads len(tag) bytes and fails with InvalidSignatureError
// if they don't match tag exactly.
func (c *Cursor) ExpectSignature(tag string) error {
	at := c.At()
	got, err := c.ReadString(len(tag))
	if err != nil {
		return err
	}
	if got != tag {
		return &InvalidSignatureError{Expected: tag, Got: got, At: at}
	}
	return nil
}

// ReadPascalString reads a u8-length-prefixed byte string padded so that
// (1+length) is a multiple of pad. Legacy (pre-`luni`) PSD layer names are
// written in Mac OS Roman; non-ASCII bytes are decoded through that
// codepage and the result normalized to NFC, so names compare stably
// regardless of which tool authored the file.
func (c *Cursor) ReadPascalString(pad int) (string, error) {
	at := c.At()
	length, err := c.ReadByte()
	if err != nil {
		return "", err
	}

	raw, err := c.Take(int(length))
	if err != nil {
		return "", &MalformedPascalStringError{At: at}
	}

	if pad > 1 {
		total := int(length) + 1
		rem := total % pad
		if rem != 0 {
			if err := c.Skip(pad - rem); err != nil {
				return "", &MalformedPascalStringError{At: at}
			}
		}
	}

	return normalizeName(decodeMacRoman(raw)), nil
}

// ReadUnicodeString reads a u32-length-prefixed (in UTF-16 code units)
// UTF-16BE string, as used by the `luni` Additional Layer Information key.
func (c *Cursor) ReadUnicodeString() (string, error) {
	at := c.At()
	length, err := c.ReadUint32()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}

	raw, err := c.Take(int(length) * 2)
	if err != nil {
		return "", &MalformedUnicodeNameError{At: at}
	}

	units := make([]uint16, length)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(raw[i*2:])
	}

	return normalizeName(string(utf16.Decode(units))), nil
}

func decodeMacRoman(raw []byte) string {
	isASCII := true
	for _, b := range raw {
		if b >= 0x80 {
			isASCII = false
			break
		}
	}
	if isASCII {
		return string(raw)
	}

	decoded, err := charmap.Macintosh.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func normalizeName(s string) string {
	return norm.NFC.String(s)
}
