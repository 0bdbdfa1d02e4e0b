package psd

// imageResource is one raw entry from the Image Resources section.
type imageResource struct {
	ID   uint16
	Name string
	Data []byte
}

// Resources is the decoded Image Resources section: every resource's raw
// bytes keyed by ID, plus parsed views for the IDs the core recognizes
// (slices, guides). Resources the core doesn't interpret are still
// reachable via Raw.
type Resources struct {
	Raw         map[uint16][]byte
	Duplicates  []DuplicateResourceError
	slicesData  []byte
	guidesData  []byte
}

const (
	resourceIDSlices = 1050 // 0x041A
	resourceIDGuides = 1032 // 0x0408
)

// decodeResources iterates "8BIM" | id(u16) | Pascal-name(pad 2) |
// u32 data-length | data(pad 2) entries until the section view is
// exhausted. Unknown IDs are retained in Raw but not otherwise
// interpreted; a resource whose padded size leaves 0 or 1 trailing byte is
// tolerated, not treated as truncation.
func decodeResources(c *Cursor) (*Resources, error) {
	r := &Resources{Raw: make(map[uint16][]byte)}

	for c.Len() > 0 {
		if c.Len() < 2 {
			// Tolerate a single stray padding byte at the very end.
			break
		}

		res, err := decodeOneResource(c)
		if err != nil {
			return nil, err
		}

		if _, exists := r.Raw[res.ID]; exists {
			r.Duplicates = append(r.Duplicates, DuplicateResourceError{ID: res.ID})
		}
		r.Raw[res.ID] = res.Data

		switch res.ID {
		case resourceIDSlices:
			r.slicesData = res.Data
		case resourceIDGuides:
			r.guidesData = res.Data
		}
	}

	return r, nil
}

func decodeOneResource(c *Cursor) (*imageResource, error) {
	if err := c.ExpectSignature("8BIM"); err != nil {
		return nil, err
	}

	id, err := c.ReadUint16()
	if err != nil {
		return nil, err
	}

	name, err := c.ReadPascalString(2)
	if err != nil {
		return nil, err
	}

	length, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}

	data, err := c.Take(int(length))
	if err != nil {
		return nil, &TruncatedSectionError{Which: "image resource data", At: c.At()}
	}

	if length%2 != 0 {
		// Tolerate running out of padding at the very end of the section.
		if c.Len() > 0 {
			if err := c.Skip(1); err != nil {
				return nil, err
			}
		}
	}

	return &imageResource{ID: id, Name: name, Data: data}, nil
}

// Rectangle is a resource-space bounding box (slices/guides use their own
// top/left/bottom/right encoding, distinct from a layer's Rect).
type Rectangle struct {
	Top, Left, Bottom, Right int32
}

// Slice describes one entry of the Slices (0x041A) image resource.
type Slice struct {
	ID                int32
	GroupID           int32
	Origin            int32
	AssociatedLayerID int32
	Name              string
	Type              int32
	Bounds            Rectangle
	URL               string
	Target            string
	Message           string
	Alt               string
	CellTextIsHTML    bool
	CellText          string
	HorizontalAlign   int32
	VerticalAlign     int32
}

// SlicesResource is the parsed Slices (0x041A) image resource, in either
// its legacy version-6 fixed layout or its version-7/8 descriptor-encoded
// layout.
type SlicesResource struct {
	Version int32
	Bounds  Rectangle
	Name    string
	Slices  []Slice
}

// Slices parses the Slices (0x041A / resource ID 1050) image resource, if
// present. Absent is not an error: it returns a nil result.
func (r *Resources) Slices() (*SlicesResource, error) {
	if len(r.slicesData) == 0 {
		return nil, nil
	}

	c := NewCursor(r.slicesData, 0)
	result := &SlicesResource{}

	version, err := c.ReadInt32()
	if err != nil {
		return nil, err
	}
	result.Version = version

	if version == 6 {
		if err := parseSlicesV6(c, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	// Version 7/8: a descriptor-version u32 we don't need, then a
	// descriptor structure.
	if _, err := c.ReadUint32(); err != nil {
		return nil, err
	}
	desc, err := NewDescriptorParser(c.Rest()).Parse()
	if err != nil {
		return nil, err
	}

	result.Bounds = extractBounds(desc, "bounds")
	if baseName, ok := desc["baseName"].(string); ok {
		result.Name = baseName
	}
	if slicesArray, ok := desc["slices"].([]interface{}); ok {
		result.Slices = make([]Slice, 0, len(slicesArray))
		for _, sliceData := range slicesArray {
			if sliceMap, ok := sliceData.(map[string]interface{}); ok {
				result.Slices = append(result.Slices, normalizeSliceV7(sliceMap))
			}
		}
	}

	return result, nil
}

func parseSlicesV6(c *Cursor, result *SlicesResource) error {
	var err error
	if result.Bounds, err = readRectangle(c); err != nil {
		return err
	}
	if result.Name, err = c.ReadUnicodeString(); err != nil {
		return err
	}

	count, err := c.ReadInt32()
	if err != nil {
		return err
	}

	result.Slices = make([]Slice, count)
	for i := int32(0); i < count; i++ {
		s := &result.Slices[i]

		if s.ID, err = c.ReadInt32(); err != nil {
			return err
		}
		if s.GroupID, err = c.ReadInt32(); err != nil {
			return err
		}
		if s.Origin, err = c.ReadInt32(); err != nil {
			return err
		}
		if s.Origin == 1 {
			if s.AssociatedLayerID, err = c.ReadInt32(); err != nil {
				return err
			}
		}
		if s.Name, err = c.ReadUnicodeString(); err != nil {
			return err
		}
		if s.Type, err = c.ReadInt32(); err != nil {
			return err
		}
		if s.Bounds, err = readRectangle(c); err != nil {
			return err
		}
		if s.URL, err = c.ReadUnicodeString(); err != nil {
			return err
		}
		if s.Target, err = c.ReadUnicodeString(); err != nil {
			return err
		}
		if s.Message, err = c.ReadUnicodeString(); err != nil {
			return err
		}
		if s.Alt, err = c.ReadUnicodeString(); err != nil {
			return err
		}
		htmlFlag, err := c.ReadUint32()
		if err != nil {
			return err
		}
		s.CellTextIsHTML = htmlFlag != 0
		if s.CellText, err = c.ReadUnicodeString(); err != nil {
			return err
		}
		if s.HorizontalAlign, err = c.ReadInt32(); err != nil {
			return err
		}
		if s.VerticalAlign, err = c.ReadInt32(); err != nil {
			return err
		}
		if err := c.Skip(4); err != nil { // ARGB default color
			return err
		}
	}

	return nil
}

func readRectangle(c *Cursor) (Rectangle, error) {
	var r Rectangle
	var err error
	if r.Top, err = c.ReadInt32(); err != nil {
		return r, err
	}
	if r.Left, err = c.ReadInt32(); err != nil {
		return r, err
	}
	if r.Bottom, err = c.ReadInt32(); err != nil {
		return r, err
	}
	if r.Right, err = c.ReadInt32(); err != nil {
		return r, err
	}
	return r, nil
}

func extractBounds(data map[string]interface{}, key string) Rectangle {
	var bounds Rectangle
	boundsMap, ok := data[key].(map[string]interface{})
	if !ok {
		return bounds
	}
	if top, ok := boundsMap["Top "].(int32); ok {
		bounds.Top = top
	}
	if left, ok := boundsMap["Left"].(int32); ok {
		bounds.Left = left
	}
	if bottom, ok := boundsMap["Btom"].(int32); ok {
		bounds.Bottom = bottom
	}
	if right, ok := boundsMap["Rght"].(int32); ok {
		bounds.Right = right
	}
	return bounds
}

func normalizeSliceV7(data map[string]interface{}) Slice {
	var s Slice
	if id, ok := data["sliceID"].(int32); ok {
		s.ID = id
	}
	if groupID, ok := data["groupID"].(int32); ok {
		s.GroupID = groupID
	}
	if origin, ok := data["origin"].(int32); ok {
		s.Origin = origin
	}
	if sliceType, ok := data["Type"].(int32); ok {
		s.Type = sliceType
	}
	s.Bounds = extractBounds(data, "bounds")
	if url, ok := data["url"].(string); ok {
		s.URL = url
	}
	if msg, ok := data["Msge"].(string); ok {
		s.Message = msg
	}
	if alt, ok := data["altTag"].(string); ok {
		s.Alt = alt
	}
	if cellText, ok := data["cellText"].(string); ok {
		s.CellText = cellText
	}
	if htmlFlag, ok := data["cellTextIsHTML"].(bool); ok {
		s.CellTextIsHTML = htmlFlag
	}
	if hAlign, ok := data["horzAlign"].(int32); ok {
		s.HorizontalAlign = hAlign
	}
	if vAlign, ok := data["vertAlign"].(int32); ok {
		s.VerticalAlign = vAlign
	}
	return s
}

// Guide is one entry of the Guides (0x0408) image resource.
type Guide struct {
	Position     int32
	IsHorizontal bool
}

// GuidesResource is the parsed Guides (0x0408 / resource ID 1032) image
// resource.
type GuidesResource struct {
	Guides []Guide
}

// Guides parses the Guides (0x0408 / resource ID 1032) image resource, if
// present.
func (r *Resources) Guides() (*GuidesResource, error) {
	if len(r.guidesData) == 0 {
		return nil, nil
	}

	c := NewCursor(r.guidesData, 0)
	if err := c.Skip(12); err != nil { // version (4) + grid info (8)
		return nil, err
	}

	count, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}

	result := &GuidesResource{Guides: make([]Guide, count)}
	for i := uint32(0); i < count; i++ {
		position, err := c.ReadInt32()
		if err != nil {
			return nil, err
		}
		direction, err := c.ReadByte()
		if err != nil {
			return nil, err
		}
		result.Guides[i] = Guide{Position: position, IsHorizontal: direction == 0}
	}

	return result, nil
}
