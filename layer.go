package psd

import (
	"image"
	"image/color"
)

// Layer is a read-only view over one decoded layer record, exposing
// geometry, blend state, and lazily decoded RGBA pixels. Layer values are
// only valid for the lifetime of the Psd that produced them.
type Layer struct {
	psd         *Psd
	index       int // position in Psd.Layers() (top-first, dividers excluded)
	recordIndex int // position in Psd's full top-to-bottom record slice
	record      *layerRecord
}

// Name returns the layer's name: the `luni` Unicode override if present,
// otherwise the Pascal-string name.
func (l *Layer) Name() string { return l.record.Name }

// Width and Height report the layer's own rectangle dimensions, which may
// exceed the document canvas.
func (l *Layer) Width() int32  { return int32(l.record.Width()) }
func (l *Layer) Height() int32 { return int32(l.record.Height()) }

// Top, Left, Bottom, Right report the layer's rectangle in document
// coordinates; negative values are valid (the layer extends above/left of
// the canvas origin).
func (l *Layer) Top() int32    { return l.record.Top }
func (l *Layer) Left() int32   { return l.record.Left }
func (l *Layer) Bottom() int32 { return l.record.Bottom }
func (l *Layer) Right() int32  { return l.record.Right }

// Opacity returns the layer's 0..255 opacity byte.
func (l *Layer) Opacity() uint8 { return l.record.Opacity }

// Visible reports whether the layer's visibility flag is set.
func (l *Layer) Visible() bool { return l.record.Visible() }

// IsGroup reports whether this layer is a group's opening `lsct` marker.
func (l *Layer) IsGroup() bool { return l.record.IsGroupOpen() }

// BlendModeKey returns the layer's raw 4-byte blend-mode tag (whitespace
// trimmed), e.g. "norm", "mul", "scrn".
func (l *Layer) BlendModeKey() string { return l.record.BlendModeKey }

// BlendModeName returns the human-readable name for BlendModeKey.
func (l *Layer) BlendModeName() string { return blendModeName(l.record.BlendModeKey) }

// GroupPath returns the chain of ancestor group names from the document
// root down to this layer's immediate parent group.
func (l *Layer) GroupPath() []string {
	nodeIdx, ok := l.psd.nodeForRecord[l.recordIndex]
	if !ok {
		return nil
	}
	return l.psd.tree.nodes[nodeIdx].Path()
}

// Compression reports the on-disk compression tag for one of this
// layer's channels. UnknownLayerError is never returned here; a channel
// the layer doesn't declare yields (0, false).
func (l *Layer) Compression(kind ChannelKind) (Compression, bool) {
	stored, ok := l.record.rawChannels[kind]
	if !ok || len(stored) < 2 {
		return 0, false
	}
	return Compression(uint16(stored[0])<<8 | uint16(stored[1])), true
}

// Rgba returns this layer's pixel data as interleaved RGBA at the
// document's width and height, per §4.7: pixels outside the layer's
// rectangle (intersected with the document bounds) are transparent black.
// The channel planes are decoded once and cached for the lifetime of the
// Psd; the RGBA buffer is assembled anew on each call.
func (l *Layer) Rgba() ([]byte, error) {
	planes, err := l.psd.decodeAllChannels(l.recordIndex, l.record)
	if err != nil {
		return nil, err
	}
	return assembleLayerRGBA(l.record, planes, l.psd.header.ColorMode, int(l.psd.header.Width), int(l.psd.header.Height))
}

// ToImage returns Rgba() as a stdlib image.RGBA sized to the document
// canvas, for callers who want to hand the result to image/png or
// image/draw.
func (l *Layer) ToImage() (*image.RGBA, error) {
	pixels, err := l.Rgba()
	if err != nil {
		return nil, err
	}
	return rgbaBytesToImage(pixels, int(l.psd.header.Width), int(l.psd.header.Height)), nil
}

func rgbaBytesToImage(pixels []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := (y*width + x) * 4
			img.SetRGBA(x, y, color.RGBA{R: pixels[idx], G: pixels[idx+1], B: pixels[idx+2], A: pixels[idx+3]})
		}
	}
	return img
}
