package psd

import (
	"image"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// Psd is the immutable, decoded view of a PSD/PSB document: its header,
// the resources the core interprets, the ordered layer records, and the
// group hierarchy built from them. All pixel data is decoded lazily and
// cached for the lifetime of the value.
type Psd struct {
	header    *FileHeader
	resources *Resources

	records          []*layerRecord // top-to-bottom display order, dividers included
	layerOrder       []int          // indices into records, in Layers() order (dividers excluded)
	negativeLayerCount bool          // true if the on-disk signed layer count was negative

	tree          *GroupTree
	nodeForRecord map[int]int

	imageData *Cursor

	channelCache *lru.Cache[channelCacheKey, *decodedPlane]
	docPlanes    map[int]*decodedPlane
	docDecoded   bool
	compression  Compression

	strictBlend bool
}

type channelCacheKey struct {
	recordIndex int
	kind        ChannelKind
}

// DecodeOption configures Decode's behavior.
type DecodeOption func(*Psd)

// WithStrictBlendModes makes Flatten/FlattenLayersRgba fail with
// UnsupportedBlendModeError instead of silently treating a non-normal
// blend-mode layer as normal.
func WithStrictBlendModes() DecodeOption {
	return func(p *Psd) { p.strictBlend = true }
}

// Decode parses a complete PSD or PSB document from data, validating
// every section's framing and every layer record's structure without
// decoding any channel's pixel bytes; those are produced lazily on first
// access.
func Decode(data []byte, opts ...DecodeOption) (*Psd, error) {
	sections, err := splitSections(data)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	header, err := decodeHeader(sections.header)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	resources, err := decodeResources(sections.resources)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	records, negativeLayerCount, err := decodeLayerRecords(sections.layerAndMask, header.IsBig())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	psd := &Psd{
		header:             header,
		resources:          resources,
		imageData:          sections.imageData,
		negativeLayerCount: negativeLayerCount,
	}

	compTag, err := sections.imageData.Peek(2)
	if err != nil {
		return nil, errors.WithStack(&TruncatedSectionError{Which: "image data", At: sections.imageData.At()})
	}
	compression, err := parseCompression(uint16(compTag[0])<<8 | uint16(compTag[1]), sections.imageData.At())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	psd.compression = compression

	if len(records) == 0 {
		records = []*layerRecord{synthesizePseudoLayer(header)}
	}
	psd.records = records

	for i, rec := range records {
		if !rec.IsGroupEnd() {
			psd.layerOrder = append(psd.layerOrder, i)
		}
	}

	psd.tree, psd.nodeForRecord = decodeGroupTree(records, int32(header.Width), int32(header.Height))

	totalChannelPairs := 0
	for _, rec := range records {
		totalChannelPairs += len(rec.Channels)
	}
	if totalChannelPairs < 1 {
		totalChannelPairs = 1
	}
	cache, err := lru.New[channelCacheKey, *decodedPlane](totalChannelPairs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	psd.channelCache = cache

	for _, opt := range opts {
		opt(psd)
	}

	return psd, nil
}

// synthesizePseudoLayer builds the single implicit layer a PSD with an
// empty layer-info block carries: its pixel content is the document's own
// flattened image-data section, spanning the whole canvas.
func synthesizePseudoLayer(header *FileHeader) *layerRecord {
	return &layerRecord{
		Top: 0, Left: 0, Bottom: int32(header.Height), Right: int32(header.Width),
		Opacity:     255,
		Name:        "Background",
		rawChannels: nil,
	}
}

// Width and Height report the document canvas size in pixels.
func (p *Psd) Width() int32  { return int32(p.header.Width) }
func (p *Psd) Height() int32 { return int32(p.header.Height) }

// Depth returns the document's bits-per-channel depth (1, 8, 16, or 32).
func (p *Psd) Depth() uint16 { return p.header.Depth }

// ColorMode returns the document's declared color mode.
func (p *Psd) ColorMode() ColorMode { return p.header.ColorMode }

// Compression returns the whole document's image-data section
// compression tag.
func (p *Psd) Compression() Compression { return p.compression }

// IsBig reports whether the document is a PSB (large document format)
// file.
func (p *Psd) IsBig() bool { return p.header.IsBig() }

// FirstAlphaIsMergedTransparency reports whether the on-disk layer count
// was negative: when true, the first alpha channel among the document's
// merged (whole-image) channels holds the transparency mask for the
// flattened result rather than an extra spot-color channel.
func (p *Psd) FirstAlphaIsMergedTransparency() bool { return p.negativeLayerCount }

// DuplicateResources lists image resource IDs that appeared more than
// once; informational only, never a fatal decode error.
func (p *Psd) DuplicateResources() []DuplicateResourceError { return p.resources.Duplicates }

// Layers returns every layer in top-first display order. Section-divider
// "bounding" rows (a group's closing marker) are excluded, per the
// documented layer count convention; a group's own opening entry is
// included as an ordinary (if folder-flavored) layer.
func (p *Psd) Layers() []*Layer {
	out := make([]*Layer, len(p.layerOrder))
	for i, recIdx := range p.layerOrder {
		out[i] = &Layer{psd: p, index: i, recordIndex: recIdx, record: p.records[recIdx]}
	}
	return out
}

// LayerByName returns the first layer (top-first order) whose name
// matches exactly, or UnknownLayerError if none do.
func (p *Psd) LayerByName(name string) (*Layer, error) {
	for i, recIdx := range p.layerOrder {
		if p.records[recIdx].Name == name {
			return &Layer{psd: p, index: i, recordIndex: recIdx, record: p.records[recIdx]}, nil
		}
	}
	return nil, &UnknownLayerError{Name: name}
}

// LayerByIdx returns the layer at the given top-first display index.
func (p *Psd) LayerByIdx(idx int) (*Layer, error) {
	if idx < 0 || idx >= len(p.layerOrder) {
		return nil, &UnknownLayerError{Idx: idx, ByIdx: true}
	}
	recIdx := p.layerOrder[idx]
	return &Layer{psd: p, index: idx, recordIndex: recIdx, record: p.records[recIdx]}, nil
}

// Tree returns the document's group hierarchy.
func (p *Psd) Tree() *GroupTree { return p.tree }

// Slices parses and returns the Slices (0x041A) image resource, if
// present.
func (p *Psd) Slices() (*SlicesResource, error) { return p.resources.Slices() }

// Guides parses and returns the Guides (0x0408) image resource, if
// present.
func (p *Psd) Guides() (*GuidesResource, error) { return p.resources.Guides() }

// Rgba returns the whole document's flattened image-data section as
// interleaved RGBA, decoding and caching it on first call.
func (p *Psd) Rgba() ([]byte, error) {
	if err := p.ensureDocumentPlanesDecoded(); err != nil {
		return nil, err
	}
	return assembleDocumentRGBA(p.docPlanes, p.header.ColorMode, int(p.header.Width), int(p.header.Height))
}

// ToImage returns Rgba() as a stdlib image.RGBA.
func (p *Psd) ToImage() (*image.RGBA, error) {
	pixels, err := p.Rgba()
	if err != nil {
		return nil, err
	}
	return rgbaBytesToImage(pixels, int(p.header.Width), int(p.header.Height)), nil
}

func (p *Psd) ensureDocumentPlanesDecoded() error {
	if p.docDecoded {
		return nil
	}
	planes, compression, err := decodeDocumentChannels(p.imageData, int(p.header.ChannelCount), int(p.header.Width), int(p.header.Height), p.header.Depth, p.header.IsBig())
	if err != nil {
		return err
	}
	p.docPlanes = planes
	p.compression = compression
	p.docDecoded = true
	return nil
}

// FlattenLayersRgba flattens every layer passing filter into a single
// interleaved RGBA buffer at document size, per §4.8.
func (p *Psd) FlattenLayersRgba(filter FlattenFilter) ([]byte, error) {
	return flatten(p.Layers(), filter, p.strictBlend, int(p.header.Width), int(p.header.Height))
}

// Flatten is an alias for FlattenLayersRgba.
func (p *Psd) Flatten(filter FlattenFilter) ([]byte, error) {
	return p.FlattenLayersRgba(filter)
}

// decodeAllChannels decodes (and caches) every channel a layer record
// declares, returning them keyed by ChannelKind for pixel assembly.
func (p *Psd) decodeAllChannels(recordIndex int, rec *layerRecord) (map[ChannelKind]*decodedPlane, error) {
	if rec.rawChannels == nil {
		// The synthesized pseudo-layer has no channel records of its own;
		// its pixels come straight from the document's image-data section.
		if err := p.ensureDocumentPlanesDecoded(); err != nil {
			return nil, err
		}
		remapped := make(map[ChannelKind]*decodedPlane, len(p.docPlanes))
		for idx, plane := range p.docPlanes {
			remapped[ChannelKind(idx)] = plane
		}
		return remapped, nil
	}

	out := make(map[ChannelKind]*decodedPlane, len(rec.rawChannels))
	width, height := rec.Width(), rec.Height()

	for kind, stored := range rec.rawChannels {
		key := channelCacheKey{recordIndex: recordIndex, kind: kind}
		if plane, ok := p.channelCache.Get(key); ok {
			out[kind] = plane
			continue
		}

		plane, err := decodeLayerChannel(kind, stored, width, height, p.header.Depth, p.header.IsBig())
		if err != nil {
			return nil, err
		}
		p.channelCache.Add(key, plane)
		out[kind] = plane
	}

	return out, nil
}
