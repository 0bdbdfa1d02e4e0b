package psd

import "math"

// decodedPlane is one (layer, channel kind) pair's fully decoded,
// row-major sample buffer at the layer's own bit depth.
type decodedPlane struct {
	bytes []byte
	depth uint16
}

// decodeLayerChannel decompresses a single channel's stored bytes,
// previously captured by decodeLayerChannelData as a
// compression-tag-prefixed blob, into a planar sample buffer.
func decodeLayerChannel(kind ChannelKind, stored []byte, width, height int, depth uint16, isBig bool) (*decodedPlane, error) {
	if len(stored) < 2 {
		return &decodedPlane{bytes: nil, depth: depth}, nil
	}

	compression := Compression(uint16(stored[0])<<8 | uint16(stored[1]))
	raw := stored[2:]

	decoded, err := decodeChannel(kind, compression, raw, width, height, depth, isBig)
	if err != nil {
		return nil, err
	}

	return &decodedPlane{bytes: decoded, depth: depth}, nil
}

// sampleAt reads the sample at planar row-major position (x, y) for a
// plane of the given width, projecting it to an 8-bit value per §4.7's
// depth projection rule. A nil plane (channel absent) yields 0.
func sampleAt(plane *decodedPlane, width, x, y int) byte {
	if plane == nil || plane.bytes == nil {
		return 0
	}

	rowSize := bytesPerRow(width, plane.depth)

	switch plane.depth {
	case 1:
		byteIdx := y*rowSize + x/8
		if byteIdx >= len(plane.bytes) {
			return 0
		}
		bit := plane.bytes[byteIdx] & (0x80 >> uint(x%8))
		if bit != 0 {
			return 255
		}
		return 0

	case 16:
		idx := y*rowSize + x*2
		if idx >= len(plane.bytes) {
			return 0
		}
		return plane.bytes[idx] // high byte, big-endian

	case 32:
		idx := y*rowSize + x*4
		if idx+4 > len(plane.bytes) {
			return 0
		}
		f := decodeFloat32BE(plane.bytes[idx : idx+4])
		return clampFloatToByte(f)

	default: // 8
		idx := y*rowSize + x
		if idx >= len(plane.bytes) {
			return 0
		}
		return plane.bytes[idx]
	}
}

func decodeFloat32BE(b []byte) float32 {
	bits := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return math.Float32frombits(bits)
}

func clampFloatToByte(f float32) byte {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return byte(f*255.0 + 0.5)
}

// assembleLayerRGBA builds a layer's document-sized RGBA buffer per §4.7: compute
// the intersection of the layer's rect with the document bounds, then for
// every pixel in that intersection read R/G/B (and A from the
// TransparencyMask channel, defaulting to opaque) from the decoded
// per-channel planes.
func assembleLayerRGBA(rec *layerRecord, planes map[ChannelKind]*decodedPlane, colorMode ColorMode, docW, docH int) ([]byte, error) {
	out := make([]byte, docW*docH*4)

	left, top := int(rec.Left), int(rec.Top)
	right, bottom := int(rec.Right), int(rec.Bottom)

	ix0, iy0 := maxInt(left, 0), maxInt(top, 0)
	ix1, iy1 := minInt(right, docW), minInt(bottom, docH)
	if ix0 >= ix1 || iy0 >= iy1 {
		return out, nil
	}

	width := rec.Width()

	var rPlane, gPlane, bPlane, aPlane *decodedPlane
	grayscale := colorMode == ColorModeGrayscale || colorMode == ColorModeBitmap
	switch colorMode {
	case ColorModeRGB:
		rPlane, gPlane, bPlane = planes[ChannelRed], planes[ChannelGreen], planes[ChannelBlue]
	case ColorModeGrayscale, ColorModeBitmap:
		rPlane = planes[ChannelRed]
	default:
		return nil, &UnsupportedColorModeError{Mode: colorMode}
	}
	aPlane = planes[ChannelTransparencyMask]

	for y := iy0; y < iy1; y++ {
		localY := y - top
		for x := ix0; x < ix1; x++ {
			localX := x - left

			var r, g, b, a byte = 0, 0, 0, 255

			if grayscale {
				v := sampleAt(rPlane, width, localX, localY)
				r, g, b = v, v, v
			} else {
				r = sampleAt(rPlane, width, localX, localY)
				g = sampleAt(gPlane, width, localX, localY)
				b = sampleAt(bPlane, width, localX, localY)
			}

			if aPlane != nil && aPlane.bytes != nil {
				a = sampleAt(aPlane, width, localX, localY)
			}

			idx := (y*docW + x) * 4
			out[idx] = r
			out[idx+1] = g
			out[idx+2] = b
			out[idx+3] = a
		}
	}

	return out, nil
}

// assembleDocumentRGBA builds the whole document's RGBA buffer from the
// planar, merged image-data section: all of channel 0 for the full
// W×H plane, then channel 1, etc., as a single compression-tagged block.
func assembleDocumentRGBA(channelPlanes map[int]*decodedPlane, colorMode ColorMode, width, height int) ([]byte, error) {
	out := make([]byte, width*height*4)

	grayscale := colorMode == ColorModeGrayscale || colorMode == ColorModeBitmap
	var rPlane, gPlane, bPlane *decodedPlane
	switch colorMode {
	case ColorModeRGB:
		rPlane, gPlane, bPlane = channelPlanes[0], channelPlanes[1], channelPlanes[2]
	case ColorModeGrayscale, ColorModeBitmap:
		rPlane = channelPlanes[0]
	default:
		return nil, &UnsupportedColorModeError{Mode: colorMode}
	}
	aPlane := channelPlanes[3]
	if aPlane == nil {
		// Some documents carry the alpha in the last channel index instead
		// of a fixed slot; fall back to looking past the known color
		// channels if more planes were captured than the color mode needs.
		if grayscale {
			aPlane = channelPlanes[1]
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var r, g, b, a byte = 0, 0, 0, 255

			if grayscale {
				v := sampleAt(rPlane, width, x, y)
				r, g, b = v, v, v
			} else {
				r = sampleAt(rPlane, width, x, y)
				g = sampleAt(gPlane, width, x, y)
				b = sampleAt(bPlane, width, x, y)
			}

			if aPlane != nil && aPlane.bytes != nil {
				a = sampleAt(aPlane, width, x, y)
			}

			idx := (y*width + x) * 4
			out[idx] = r
			out[idx+1] = g
			out[idx+2] = b
			out[idx+3] = a
		}
	}

	return out, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
