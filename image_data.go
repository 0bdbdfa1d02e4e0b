package psd

// decodeDocumentChannels decodes the image-data section: a single u16
// compression tag, then `channelCount` planes of the full document, each
// `width*height` samples at `depth` bits per sample. RLE documents carry
// one combined row-count table of `channelCount*height` entries (grouped
// by channel, not interleaved row-by-row) ahead of all channel data.
func decodeDocumentChannels(c *Cursor, channelCount int, width, height int, depth uint16, isBig bool) (map[int]*decodedPlane, Compression, error) {
	compAt := c.At()
	compTag, err := c.ReadUint16()
	if err != nil {
		return nil, 0, err
	}
	compression, err := parseCompression(compTag, compAt)
	if err != nil {
		return nil, 0, err
	}

	rowSize := bytesPerRow(width, depth)
	planeSize := rowSize * height

	planes := make(map[int]*decodedPlane, channelCount)

	switch compression {
	case RawData:
		for ch := 0; ch < channelCount; ch++ {
			data, err := c.Take(planeSize)
			if err != nil {
				return nil, 0, &MalformedChannelError{Kind: ChannelKind(ch), Expected: planeSize, Got: c.Len()}
			}
			out := make([]byte, planeSize)
			copy(out, data)
			planes[ch] = &decodedPlane{bytes: out, depth: depth}
		}

	case RleCompressed:
		totalRows := channelCount * height
		rowCounts := make([]int, totalRows)
		for i := 0; i < totalRows; i++ {
			if isBig {
				v, err := c.ReadUint32()
				if err != nil {
					return nil, 0, &MalformedChannelError{Kind: ChannelKind(i / height), Expected: planeSize, Got: 0}
				}
				rowCounts[i] = int(v)
			} else {
				v, err := c.ReadUint16()
				if err != nil {
					return nil, 0, &MalformedChannelError{Kind: ChannelKind(i / height), Expected: planeSize, Got: 0}
				}
				rowCounts[i] = int(v)
			}
		}

		for ch := 0; ch < channelCount; ch++ {
			out := make([]byte, 0, planeSize)
			for row := 0; row < height; row++ {
				count := rowCounts[ch*height+row]
				rowBytes, err := c.Take(count)
				if err != nil {
					return nil, 0, &MalformedChannelError{Kind: ChannelKind(ch), Expected: planeSize, Got: len(out)}
				}
				decoded, err := decompressPackBits(rowBytes, rowSize)
				if err != nil {
					return nil, 0, &MalformedChannelError{Kind: ChannelKind(ch), Expected: planeSize, Got: len(out)}
				}
				out = append(out, decoded...)
			}
			planes[ch] = &decodedPlane{bytes: out, depth: depth}
		}

	default:
		return nil, 0, &UnsupportedError{Reason: "zip image-data compression"}
	}

	return planes, compression, nil
}
