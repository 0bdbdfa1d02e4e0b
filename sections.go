package psd

// majorSections holds the four independent byte-views the SectionSplitter
// carves out of the input, plus the header view, in file order. Each is an
// independent Cursor so HeaderDecoder/ResourceDecoder/LayerRecordDecoder
// never see past their own section's bounds.
type majorSections struct {
	header        *Cursor
	colorModeData *Cursor
	resources     *Cursor
	layerAndMask  *Cursor
	imageData     *Cursor
}

const headerSize = 26

// splitSections walks the fixed 26-byte header, then the three
// length-prefixed sections (color mode data, image resources, layer and
// mask info), treating everything left over as the image data section.
// Each length prefix is validated against the remaining input before the
// corresponding sub-cursor is produced.
func splitSections(data []byte) (*majorSections, error) {
	root := NewCursor(data, 0)

	header, err := root.Sub(headerSize)
	if err != nil {
		return nil, &TruncatedSectionError{Which: "header", At: root.At()}
	}

	// The version byte lives 4 bytes into the header view; we need it
	// before the layer-and-mask length prefix because that prefix widens
	// to 64 bits under PSB (version 2).
	versionPeek, err := header.Peek(6)
	if err != nil {
		return nil, &TruncatedSectionError{Which: "header", At: header.At()}
	}
	isBig := len(versionPeek) >= 6 && versionPeek[4] == 0 && versionPeek[5] == 2

	colorModeData, err := readLengthPrefixedSection(root, "color mode data", false)
	if err != nil {
		return nil, err
	}

	resources, err := readLengthPrefixedSection(root, "image resources", false)
	if err != nil {
		return nil, err
	}

	layerAndMask, err := readLengthPrefixedSection(root, "layer and mask information", isBig)
	if err != nil {
		return nil, err
	}

	imageData := NewCursor(root.Rest(), root.At())

	return &majorSections{
		header:        header,
		colorModeData: colorModeData,
		resources:     resources,
		layerAndMask:  layerAndMask,
		imageData:     imageData,
	}, nil
}

func readLengthPrefixedSection(root *Cursor, which string, big bool) (*Cursor, error) {
	at := root.At()
	length, err := root.ReadLength(big)
	if err != nil {
		return nil, &TruncatedSectionError{Which: which, At: at}
	}
	if uint64(root.Len()) < length {
		return nil, &TruncatedSectionError{Which: which, At: root.At()}
	}
	return root.Sub(int(length))
}
