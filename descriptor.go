package psd

import (
	"encoding/binary"
	"math"
)

// Descriptor represents one decoded Objc/GlbO descriptor structure: its
// class name/ID plus the key/value map Parse builds from its items.
// Descriptors carry the structured metadata modern PSD features (v7/8
// Slices, some Additional Layer Information entries) wrap their data in.
type Descriptor struct {
	Class string
	Data  map[string]interface{}
}

// DescriptorParser decodes a descriptor structure from its own Cursor
// view, sharing the same bounds-checked, offset-annotated reads every
// other section decoder in the package uses.
type DescriptorParser struct {
	c *Cursor
}

// NewDescriptorParser wraps data for descriptor decoding.
func NewDescriptorParser(data []byte) *DescriptorParser {
	return &DescriptorParser{c: NewCursor(data, 0)}
}

// Parse decodes a full descriptor: its class, then a u32 item count
// followed by that many key/value pairs.
func (d *DescriptorParser) Parse() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	class, err := d.parseClass()
	if err != nil {
		return nil, err
	}
	result["class"] = class

	numItems, err := d.c.ReadUint32()
	if err != nil {
		return nil, err
	}

	for i := uint32(0); i < numItems; i++ {
		key, value, err := d.parseKeyItem()
		if err != nil {
			return nil, err
		}
		result[key] = value
	}

	return result, nil
}

// parseClass reads a class structure: a Unicode name followed by an ID.
func (d *DescriptorParser) parseClass() (map[string]interface{}, error) {
	class := make(map[string]interface{})

	name, err := d.c.ReadUnicodeString()
	if err != nil {
		return nil, err
	}
	class["name"] = name

	id, err := d.parseID()
	if err != nil {
		return nil, err
	}
	class["id"] = id

	return class, nil
}

// parseID reads a u32 length followed by that many bytes, or — when the
// length is 0 — a bare 4-byte OSType code.
func (d *DescriptorParser) parseID() (string, error) {
	length, err := d.c.ReadUint32()
	if err != nil {
		return "", err
	}
	if length == 0 {
		length = 4
	}

	raw, err := d.c.Take(int(length))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// parseKeyItem reads one key/value pair: an ID key followed by a typed
// value.
func (d *DescriptorParser) parseKeyItem() (string, interface{}, error) {
	key, err := d.parseID()
	if err != nil {
		return "", nil, err
	}

	value, err := d.parseItem("")
	if err != nil {
		return "", nil, err
	}

	return key, value, nil
}

// parseItem reads a value of any descriptor type, reading the 4-byte type
// tag first unless the caller already knows it.
func (d *DescriptorParser) parseItem(itemType string) (interface{}, error) {
	at := d.c.At()
	if itemType == "" {
		tag, err := d.c.ReadString(4)
		if err != nil {
			return nil, err
		}
		itemType = tag
	}

	switch itemType {
	case "bool":
		return d.parseBoolean()
	case "type", "GlbC":
		return d.parseClass()
	case "Objc", "GlbO":
		return d.Parse()
	case "doub":
		return d.parseDouble()
	case "enum":
		return d.parseEnum()
	case "alis":
		return d.parseAlias()
	case "long":
		return d.parseInt()
	case "comp":
		return d.parseLargeInt()
	case "VlLs":
		return d.parseList()
	case "ObAr":
		return d.parseObjectArray()
	case "tdta":
		return d.parseRawData()
	case "obj ":
		return d.parseReference()
	case "TEXT":
		return d.c.ReadUnicodeString()
	case "UntF":
		return d.parseUnitDouble()
	case "UnFl":
		return d.parseUnitFloat()
	default:
		return nil, &InvalidDescriptorTypeError{TypeTag: itemType, At: at}
	}
}

func (d *DescriptorParser) parseBoolean() (bool, error) {
	v, err := d.c.ReadByte()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (d *DescriptorParser) parseDouble() (float64, error) {
	raw, err := d.c.Take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(raw)), nil
}

func (d *DescriptorParser) parseInt() (int32, error) {
	return d.c.ReadInt32()
}

func (d *DescriptorParser) parseLargeInt() (int64, error) {
	v, err := d.c.ReadUint64()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// parseEnum reads an enumerated value: a type ID followed by a value ID.
func (d *DescriptorParser) parseEnum() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	typeID, err := d.parseID()
	if err != nil {
		return nil, err
	}
	result["type"] = typeID

	valueID, err := d.parseID()
	if err != nil {
		return nil, err
	}
	result["value"] = valueID

	return result, nil
}

// parseAlias reads a length-prefixed alias blob.
func (d *DescriptorParser) parseAlias() ([]byte, error) {
	length, err := d.c.ReadUint32()
	if err != nil {
		return nil, err
	}
	return d.c.Take(int(length))
}

// parseList reads a u32 count followed by that many typed items.
func (d *DescriptorParser) parseList() ([]interface{}, error) {
	count, err := d.c.ReadUint32()
	if err != nil {
		return nil, err
	}

	items := make([]interface{}, count)
	for i := uint32(0); i < count; i++ {
		value, err := d.parseItem("")
		if err != nil {
			return nil, err
		}
		items[i] = value
	}

	return items, nil
}

// parseObjectArray is unimplemented: object arrays are rare enough in
// practice that neither this decoder nor the format's other known
// implementations bother with them.
func (d *DescriptorParser) parseObjectArray() (interface{}, error) {
	return nil, &UnsupportedError{Reason: "descriptor object array"}
}

// parseRawData reads a length-prefixed raw byte blob (used by `tdta`
// items such as embedded text engine data).
func (d *DescriptorParser) parseRawData() ([]byte, error) {
	length, err := d.c.ReadUint32()
	if err != nil {
		return nil, err
	}
	return d.c.Take(int(length))
}

// parseReference reads a u32 item count followed by that many typed
// reference entries (property, class, enum reference, identifier,
// index, name, or offset).
func (d *DescriptorParser) parseReference() ([]map[string]interface{}, error) {
	numItems, err := d.c.ReadUint32()
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, numItems)
	for i := uint32(0); i < numItems; i++ {
		at := d.c.At()
		refType, err := d.c.ReadString(4)
		if err != nil {
			return nil, err
		}

		var value interface{}
		switch refType {
		case "prop":
			value, err = d.parseProperty()
		case "Clss":
			value, err = d.parseClass()
		case "Enmr":
			value, err = d.parseEnumReference()
		case "Idnt", "indx", "rele":
			value, err = d.parseInt()
		case "name":
			value, err = d.c.ReadUnicodeString()
		default:
			return nil, &InvalidReferenceTypeError{TypeTag: refType, At: at}
		}
		if err != nil {
			return nil, err
		}

		items[i] = map[string]interface{}{"type": refType, "value": value}
	}

	return items, nil
}

// parseProperty reads a property reference: a class followed by an ID.
func (d *DescriptorParser) parseProperty() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	class, err := d.parseClass()
	if err != nil {
		return nil, err
	}
	result["class"] = class

	id, err := d.parseID()
	if err != nil {
		return nil, err
	}
	result["id"] = id

	return result, nil
}

// parseEnumReference reads an enum reference: a class, a type ID, and a
// value ID.
func (d *DescriptorParser) parseEnumReference() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	class, err := d.parseClass()
	if err != nil {
		return nil, err
	}
	result["class"] = class

	typeID, err := d.parseID()
	if err != nil {
		return nil, err
	}
	result["type"] = typeID

	valueID, err := d.parseID()
	if err != nil {
		return nil, err
	}
	result["value"] = valueID

	return result, nil
}

// unitTypeNames maps a UntF/UnFl unit ID to its human-readable name.
var unitTypeNames = map[string]string{
	"#Ang": "Angle",
	"#Rsl": "Density",
	"#Rlt": "Distance",
	"#Nne": "None",
	"#Prc": "Percent",
	"#Pxl": "Pixels",
	"#Mlm": "Millimeters",
	"#Pnt": "Points",
}

// parseUnitDouble reads a `UntF` value: a 4-byte unit ID followed by a
// float64.
func (d *DescriptorParser) parseUnitDouble() (map[string]interface{}, error) {
	unitID, err := d.c.ReadString(4)
	if err != nil {
		return nil, err
	}

	value, err := d.parseDouble()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{"id": unitID, "unit": unitName(unitID), "value": value}, nil
}

// parseUnitFloat reads an `UnFl` value: a 4-byte unit ID followed by a
// float32.
func (d *DescriptorParser) parseUnitFloat() (map[string]interface{}, error) {
	unitID, err := d.c.ReadString(4)
	if err != nil {
		return nil, err
	}

	raw, err := d.c.Take(4)
	if err != nil {
		return nil, err
	}
	value := decodeFloat32BE(raw)

	return map[string]interface{}{"id": unitID, "unit": unitName(unitID), "value": value}, nil
}

func unitName(id string) string {
	if name, ok := unitTypeNames[id]; ok {
		return name
	}
	return "Unknown"
}
