package psd

import "strings"

// SectionDividerType classifies an `lsct`/`lsdk` Additional Layer
// Information entry: whether a layer record opens a group, closes one
// (its "bounding" marker), or is an ordinary layer.
type SectionDividerType int32

const (
	SectionDividerOther         SectionDividerType = 0
	SectionDividerOpenFolder    SectionDividerType = 1
	SectionDividerClosedFolder  SectionDividerType = 2
	SectionDividerBoundingStart SectionDividerType = 3
)

// channelDescriptor is one layer record's channel declaration: which
// ChannelKind it holds and how many bytes (compression tag included) its
// still undecoded data occupies in the channel image data block.
type channelDescriptor struct {
	Kind   ChannelKind
	Length int
}

// layerRecord is one parsed entry of the layer-and-mask information
// section's layer records. Channel pixel bytes are not decoded here;
// rawChannels holds a copy of each channel's still-compressed bytes,
// prefixed with its 2-byte compression tag, so decoding can be deferred
// and memoized per (layer, kind). It does not keep offsets into the
// source bytes.
type layerRecord struct {
	Top, Left, Bottom, Right int32
	Channels                 []channelDescriptor
	BlendModeKey             string
	Opacity                  uint8
	Clipping                 uint8
	Flags                    uint8
	Name                     string
	SectionDivider           SectionDividerType
	hasSectionDivider        bool
	rawChannels              map[ChannelKind][]byte
}

func (r *layerRecord) Width() int  { return int(r.Right - r.Left) }
func (r *layerRecord) Height() int { return int(r.Bottom - r.Top) }

// Visible reports whether the layer's visibility flag bit is clear.
func (r *layerRecord) Visible() bool { return r.Flags&0x02 == 0 }

// IsGroupOpen reports whether this record opens a layer group (it carries
// an `lsct`/`lsdk` entry of type 1 or 2).
func (r *layerRecord) IsGroupOpen() bool {
	return r.hasSectionDivider &&
		(r.SectionDivider == SectionDividerOpenFolder || r.SectionDivider == SectionDividerClosedFolder)
}

// IsGroupEnd reports whether this record is a group's closing ("bounding")
// marker.
func (r *layerRecord) IsGroupEnd() bool {
	return r.hasSectionDivider && r.SectionDivider == SectionDividerBoundingStart
}

// decodeLayerRecords parses the layer info sub-section of the
// layer-and-mask information section: an empty block means the document
// carries only its flattened image data and has no layer records at all.
// The returned slice is in top-to-bottom display order (the on-disk
// bottom-to-top order is reversed once every record is parsed), matching
// the convention layer indices and group trees are built on.
func decodeLayerRecords(c *Cursor, isBig bool) ([]*layerRecord, bool, error) {
	if c.Len() == 0 {
		return nil, false, nil
	}

	length, err := c.ReadLength(isBig)
	if err != nil {
		return nil, false, &TruncatedSectionError{Which: "layer info", At: c.At()}
	}
	if length == 0 {
		return nil, false, nil
	}

	body, err := c.Sub(int(length))
	if err != nil {
		return nil, false, &TruncatedSectionError{Which: "layer info", At: c.At()}
	}

	rawCount, err := body.ReadInt16()
	if err != nil {
		return nil, false, err
	}
	negative := rawCount < 0
	count := rawCount
	if count < 0 {
		count = -count
	}

	records := make([]*layerRecord, count)
	for i := int16(0); i < count; i++ {
		rec, err := decodeOneLayerRecord(body, isBig)
		if err != nil {
			return nil, false, err
		}
		records[i] = rec
	}

	for _, rec := range records {
		if err := decodeLayerChannelData(body, rec, isBig); err != nil {
			return nil, false, err
		}
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return records, negative, nil
}

func decodeOneLayerRecord(c *Cursor, isBig bool) (*layerRecord, error) {
	rec := &layerRecord{}

	var err error
	if rec.Top, err = c.ReadInt32(); err != nil {
		return nil, err
	}
	if rec.Left, err = c.ReadInt32(); err != nil {
		return nil, err
	}
	if rec.Bottom, err = c.ReadInt32(); err != nil {
		return nil, err
	}
	if rec.Right, err = c.ReadInt32(); err != nil {
		return nil, err
	}
	if rec.Bottom < rec.Top {
		return nil, &OutOfRangeError{Field: "layer rect bottom", Value: int64(rec.Bottom), At: c.At()}
	}
	if rec.Right < rec.Left {
		return nil, &OutOfRangeError{Field: "layer rect right", Value: int64(rec.Right), At: c.At()}
	}

	numChannels, err := c.ReadUint16()
	if err != nil {
		return nil, err
	}

	rec.Channels = make([]channelDescriptor, numChannels)
	for i := uint16(0); i < numChannels; i++ {
		kindAt := c.At()
		rawKind, err := c.ReadInt16()
		if err != nil {
			return nil, err
		}
		kind, err := parseChannelKind(rawKind, kindAt)
		if err != nil {
			return nil, err
		}

		length, err := c.ReadLength(isBig)
		if err != nil {
			return nil, err
		}

		rec.Channels[i] = channelDescriptor{Kind: kind, Length: int(length)}
	}

	if err := c.ExpectSignature("8BIM"); err != nil {
		return nil, err
	}

	blendMode, err := c.ReadString(4)
	if err != nil {
		return nil, err
	}
	rec.BlendModeKey = strings.TrimSpace(blendMode)

	if rec.Opacity, err = c.ReadByte(); err != nil {
		return nil, err
	}
	if rec.Clipping, err = c.ReadByte(); err != nil {
		return nil, err
	}
	if rec.Flags, err = c.ReadByte(); err != nil {
		return nil, err
	}
	if err := c.Skip(1); err != nil { // filler
		return nil, err
	}

	extraLen, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	if extraLen == 0 {
		return rec, nil
	}

	extra, err := c.Sub(int(extraLen))
	if err != nil {
		return nil, &TruncatedSectionError{Which: "layer extra data", At: c.At()}
	}

	if err := skipLengthPrefixedBlock(extra, "layer mask data"); err != nil {
		return nil, err
	}
	if err := skipLengthPrefixedBlock(extra, "layer blending ranges"); err != nil {
		return nil, err
	}

	name, err := extra.ReadPascalString(4)
	if err != nil {
		return nil, err
	}
	rec.Name = name

	for extra.Len() > 0 {
		if extra.Len() < 4 {
			break
		}
		if err := decodeAdditionalLayerInfoEntry(extra, rec, isBig); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

func skipLengthPrefixedBlock(c *Cursor, which string) error {
	length, err := c.ReadUint32()
	if err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	if err := c.Skip(int(length)); err != nil {
		return &TruncatedSectionError{Which: which, At: c.At()}
	}
	return nil
}

// v2LengthKeys are the Additional Layer Information keys whose length
// prefix widens to 64 bits under PSB, per Adobe's specification.
var v2LengthKeys = map[string]bool{
	"LMsk": true, "Lr16": true, "Lr32": true, "Layr": true,
	"Mt16": true, "Mt32": true, "Mtrn": true, "Alph": true,
	"FMsk": true, "lnk2": true, "FEid": true, "FXid": true, "PxSD": true,
}

func decodeAdditionalLayerInfoEntry(c *Cursor, rec *layerRecord, isBig bool) error {
	sig, err := c.ReadString(4)
	if err != nil {
		return err
	}
	if sig != "8BIM" && sig != "8B64" {
		// Not a recognized ALI block signature; treat the rest of the
		// extra-data block as exhausted rather than failing the decode.
		c.Rest()
		return nil
	}

	key, err := c.ReadString(4)
	if err != nil {
		return err
	}

	useBig := isBig && v2LengthKeys[key]
	length, err := c.ReadLength(useBig)
	if err != nil {
		return err
	}

	data, err := c.Take(int(length))
	if err != nil {
		return &TruncatedSectionError{Which: "additional layer info " + key, At: c.At()}
	}

	switch key {
	case "luni":
		name, err := decodeUnicodeNameField(data)
		if err == nil && name != "" {
			rec.Name = name
		}
	case "lsct", "lsdk":
		rec.hasSectionDivider = true
		rec.SectionDivider = decodeSectionDividerField(data)
	}

	if length%2 != 0 {
		if c.Len() > 0 {
			if err := c.Skip(1); err != nil {
				return err
			}
		}
	}

	return nil
}

func decodeUnicodeNameField(data []byte) (string, error) {
	sub := NewCursor(data, 0)
	return sub.ReadUnicodeString()
}

func decodeSectionDividerField(data []byte) SectionDividerType {
	if len(data) < 4 {
		return SectionDividerOther
	}
	sub := NewCursor(data, 0)
	v, err := sub.ReadInt32()
	if err != nil {
		return SectionDividerOther
	}
	return SectionDividerType(v)
}

// decodeLayerChannelData reads each channel descriptor's bytes (a 2-byte
// compression tag followed by compressed or raw pixel data) into
// rec.rawChannels, keyed by ChannelKind, leaving actual pixel decoding to
// the lazily memoized per-channel cache.
func decodeLayerChannelData(c *Cursor, rec *layerRecord, isBig bool) error {
	rec.rawChannels = make(map[ChannelKind][]byte)

	for _, ch := range rec.Channels {
		if ch.Length < 2 {
			if ch.Length > 0 {
				if err := c.Skip(ch.Length); err != nil {
					return &TruncatedSectionError{Which: "layer channel data", At: c.At()}
				}
			}
			continue
		}

		block, err := c.Sub(ch.Length)
		if err != nil {
			return &TruncatedSectionError{Which: "layer channel data", At: c.At()}
		}

		compTag, err := block.ReadUint16()
		if err != nil {
			return err
		}
		compAt := block.At() - 2
		compression, err := parseCompression(compTag, compAt)
		if err != nil {
			return err
		}

		rest := block.Rest()
		rec.rawChannels[ch.Kind] = encodeRawChannel(compression, rest)
	}

	return nil
}

// encodeRawChannel prefixes a decoded-pending channel's bytes with its
// compression tag, so the lazy decode cache can decompress on first
// access without re-reading the layer-and-mask section.
func encodeRawChannel(compression Compression, rest []byte) []byte {
	out := make([]byte, 2+len(rest))
	out[0] = byte(compression >> 8)
	out[1] = byte(compression)
	copy(out[2:], rest)
	return out
}
