package psd

import "fmt"

// ColorMode identifies a PSD document's color space, as declared in the
// file header.
type ColorMode uint16

// Color modes, as declared in the 26-byte file header.
const (
	ColorModeBitmap       ColorMode = 0
	ColorModeGrayscale    ColorMode = 1
	ColorModeIndexed      ColorMode = 2
	ColorModeRGB          ColorMode = 3
	ColorModeCMYK         ColorMode = 4
	ColorModeMultichannel ColorMode = 7
	ColorModeDuotone      ColorMode = 8
	ColorModeLab          ColorMode = 9
)

var colorModeNames = map[ColorMode]string{
	ColorModeBitmap:       "Bitmap",
	ColorModeGrayscale:    "Grayscale",
	ColorModeIndexed:      "Indexed",
	ColorModeRGB:          "Rgb",
	ColorModeCMYK:         "Cmyk",
	ColorModeMultichannel: "Multichannel",
	ColorModeDuotone:      "Duotone",
	ColorModeLab:          "Lab",
}

// String returns the human-readable color mode name, per spec.md's
// ColorMode variant list.
func (m ColorMode) String() string {
	if name, ok := colorModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint16(m))
}

// FileHeader is the parsed, validated 26-byte PSD/PSB file header.
// Immutable once decoded.
type FileHeader struct {
	Version      uint16 // 1 (PSD) or 2 (PSB)
	ChannelCount uint16
	Height       uint32
	Width        uint32
	Depth        uint16
	ColorMode    ColorMode
}

// IsBig reports whether this is a PSB (large document format) file.
func (h *FileHeader) IsBig() bool { return h.Version == 2 }

const maxHeightV1, maxWidthV1 = 30000, 30000
const maxHeightV2, maxWidthV2 = 300000, 300000

// decodeHeader parses the fixed 26-byte header view produced by the
// SectionSplitter: signature, version, 6 reserved bytes, channel count,
// height, width, depth, and color mode, validating each field's documented
// range.
func decodeHeader(c *Cursor) (*FileHeader, error) {
	if err := c.ExpectSignature("8BPS"); err != nil {
		return nil, err
	}

	at := c.At()
	version, err := c.ReadUint16()
	if err != nil {
		return nil, err
	}
	if version != 1 && version != 2 {
		return nil, &UnsupportedVersionError{Version: version, At: at}
	}

	reservedAt := c.At()
	reserved, err := c.Take(6)
	if err != nil {
		return nil, err
	}
	for _, b := range reserved {
		if b != 0 {
			return nil, &OutOfRangeError{Field: "reserved", Value: int64(b), At: reservedAt}
		}
	}

	channelsAt := c.At()
	channels, err := c.ReadUint16()
	if err != nil {
		return nil, err
	}
	if channels < 1 || channels > 56 {
		return nil, &OutOfRangeError{Field: "channels", Value: int64(channels), At: channelsAt}
	}

	heightAt := c.At()
	height, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	maxH := uint32(maxHeightV1)
	if version == 2 {
		maxH = maxHeightV2
	}
	if height < 1 || height > maxH {
		return nil, &OutOfRangeError{Field: "height", Value: int64(height), At: heightAt}
	}

	widthAt := c.At()
	width, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	maxW := uint32(maxWidthV1)
	if version == 2 {
		maxW = maxWidthV2
	}
	if width < 1 || width > maxW {
		return nil, &OutOfRangeError{Field: "width", Value: int64(width), At: widthAt}
	}

	depthAt := c.At()
	depth, err := c.ReadUint16()
	if err != nil {
		return nil, err
	}
	switch depth {
	case 1, 8, 16, 32:
	default:
		return nil, &OutOfRangeError{Field: "depth", Value: int64(depth), At: depthAt}
	}

	modeAt := c.At()
	mode, err := c.ReadUint16()
	if err != nil {
		return nil, err
	}
	cm := ColorMode(mode)
	if _, ok := colorModeNames[cm]; !ok {
		return nil, &InvalidColorModeError{Value: mode, At: modeAt}
	}

	return &FileHeader{
		Version:      version,
		ChannelCount: channels,
		Height:       height,
		Width:        width,
		Depth:        depth,
		ColorMode:    cm,
	}, nil
}
