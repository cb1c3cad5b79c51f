package buildmap

import (
	"encoding/json"
	"fmt"
	"io"
)

// DrawType selects how a sprite is projected.
type DrawType uint8

const (
	DrawFace DrawType = iota
	DrawWall
	DrawFloor
	DrawSloped
)

var drawTypeNames = [...]string{"Face", "Wall", "Floor", "Sloped"}

func (d DrawType) String() string {
	if int(d) < len(drawTypeNames) {
		return drawTypeNames[d]
	}
	return fmt.Sprintf("DrawType(%d)", uint8(d))
}

// ParseDrawType accepts the names produced by String.
func ParseDrawType(name string) (DrawType, error) {
	for i, n := range drawTypeNames {
		if n == name {
			return DrawType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: draw type '%s' is not one of Face, Wall, Floor, Sloped", ErrOutOfRange, name)
}

func (d DrawType) MarshalJSON() ([]byte, error) {
	if int(d) >= len(drawTypeNames) {
		return nil, fmt.Errorf("%w: draw type %d", ErrOutOfRange, uint8(d))
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either the name or its numeric value.
func (d *DrawType) UnmarshalJSON(data []byte) error {
	v, err := parseDrawType(data, "draw type")
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func parseDrawType(raw json.RawMessage, what string) (DrawType, error) {
	switch jsonKind(raw) {
	case "string":
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return 0, fmt.Errorf("%s: %w", what, err)
		}
		return ParseDrawType(name)
	case "number":
		n, err := parseInteger[uint8](raw, what)
		if err != nil {
			return 0, err
		}
		if err := checkRange(what, n, 0, uint8(DrawSloped)); err != nil {
			return 0, err
		}
		return DrawType(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a string or an integer, got %s", ErrInvalidType, what, jsonKind(raw))
	}
}

// MaxSpriteReserved is the largest value of the 5 reserved attribute bits.
const MaxSpriteReserved = 1<<5 - 1

// SpriteAttributes is the unpacked form of a sprite stat word.
//
//	bit 0      blocks movement
//	bit 1      translucent
//	bit 2      x flipped
//	bit 3      y flipped
//	bits 4-5   draw type
//	bit 6      one sided
//	bit 7      real centered
//	bit 8      blocks hitscan
//	bit 9      reverse translucence
//	bits 10-14 reserved
//	bit 15     invisible
type SpriteAttributes struct {
	BlockClipping      bool
	Translucent        bool
	XFlipped           bool
	YFlipped           bool
	DrawType           DrawType
	OneSided           bool
	RealCentered       bool
	BlockHitscan       bool
	ReverseTranslucent bool
	reserved           uint8
	Invisible          bool
}

func (a SpriteAttributes) Reserved() uint8 { return a.reserved }

// SetReserved fails with ErrOutOfRange above MaxSpriteReserved.
func (a *SpriteAttributes) SetReserved(reserved uint8) error {
	if err := checkRange("sprite attributes reserved", reserved, 0, MaxSpriteReserved); err != nil {
		return err
	}
	a.reserved = reserved
	return nil
}

func (a SpriteAttributes) Pack() uint16 {
	var raw uint16
	raw |= boolBit(a.BlockClipping, 0)
	raw |= boolBit(a.Translucent, 1)
	raw |= boolBit(a.XFlipped, 2)
	raw |= boolBit(a.YFlipped, 3)
	raw |= uint16(a.DrawType&0x3) << 4
	raw |= boolBit(a.OneSided, 6)
	raw |= boolBit(a.RealCentered, 7)
	raw |= boolBit(a.BlockHitscan, 8)
	raw |= boolBit(a.ReverseTranslucent, 9)
	raw |= uint16(a.reserved&MaxSpriteReserved) << 10
	raw |= boolBit(a.Invisible, 15)
	return raw
}

func UnpackSpriteAttributes(raw uint16) SpriteAttributes {
	return SpriteAttributes{
		BlockClipping:      raw&0x0001 != 0,
		Translucent:        raw&0x0002 != 0,
		XFlipped:           raw&0x0004 != 0,
		YFlipped:           raw&0x0008 != 0,
		DrawType:           DrawType(raw>>4) & 0x3,
		OneSided:           raw&0x0040 != 0,
		RealCentered:       raw&0x0080 != 0,
		BlockHitscan:       raw&0x0100 != 0,
		ReverseTranslucent: raw&0x0200 != 0,
		reserved:           uint8(raw>>10) & MaxSpriteReserved,
		Invisible:          raw&0x8000 != 0,
	}
}

type jsonSpriteAttributes struct {
	BlockClipping      bool     `json:"blockClipping"`
	Translucent        bool     `json:"translucent"`
	XFlipped           bool     `json:"xFlipped"`
	YFlipped           bool     `json:"yFlipped"`
	DrawType           DrawType `json:"drawType"`
	OneSided           bool     `json:"oneSided"`
	RealCentered       bool     `json:"realCentered"`
	BlockHitscan       bool     `json:"blockHitscan"`
	ReverseTranslucent bool     `json:"reverseTranslucent"`
	Reserved           uint8    `json:"reserved"`
	Invisible          bool     `json:"invisible"`
}

func (a SpriteAttributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSpriteAttributes{
		BlockClipping:      a.BlockClipping,
		Translucent:        a.Translucent,
		XFlipped:           a.XFlipped,
		YFlipped:           a.YFlipped,
		DrawType:           a.DrawType,
		OneSided:           a.OneSided,
		RealCentered:       a.RealCentered,
		BlockHitscan:       a.BlockHitscan,
		ReverseTranslucent: a.ReverseTranslucent,
		Reserved:           a.reserved,
		Invisible:          a.Invisible,
	})
}

func (a *SpriteAttributes) UnmarshalJSON(data []byte) error {
	o, err := newJSONObject("sprite attributes", data)
	if err != nil {
		return err
	}
	attributes, err := parseSpriteAttributes(o)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid sprite attributes")
		return err
	}
	*a = attributes
	return nil
}

func parseSpriteAttributes(o *jsonObject) (SpriteAttributes, error) {
	var a SpriteAttributes
	flags := []struct {
		key string
		dst *bool
	}{
		{"blockClipping", &a.BlockClipping},
		{"translucent", &a.Translucent},
		{"xFlipped", &a.XFlipped},
		{"yFlipped", &a.YFlipped},
		{"oneSided", &a.OneSided},
		{"realCentered", &a.RealCentered},
		{"blockHitscan", &a.BlockHitscan},
		{"reverseTranslucent", &a.ReverseTranslucent},
		{"invisible", &a.Invisible},
	}
	for _, f := range flags {
		v, err := o.boolean(f.key)
		if err != nil {
			return SpriteAttributes{}, err
		}
		*f.dst = v
	}
	raw, err := o.field("drawType")
	if err != nil {
		return SpriteAttributes{}, err
	}
	if a.DrawType, err = parseDrawType(raw, o.name+" 'drawType' property"); err != nil {
		return SpriteAttributes{}, err
	}
	reserved, err := jsonInteger[uint8](o, "reserved")
	if err != nil {
		return SpriteAttributes{}, err
	}
	if err := a.SetReserved(reserved); err != nil {
		return SpriteAttributes{}, fmt.Errorf("%s: %w", o.name, err)
	}
	return a, o.close()
}

// Sprite is an object placed in the map: decoration, enemy, pickup or effect marker.
type Sprite struct {
	SectorItem
	Attributes SpriteAttributes
	TexturedItem
	ClippingDistance uint8
	Filler           uint8
	XRepeat          uint8
	YRepeat          uint8
	XOffset          int8
	YOffset          int8
	StatusNumber     int16
	Owner            int16
	Velocity         Velocity3D
	TaggedItem
}

// SpriteSizeBytes is the encoded size of a sprite in the modern layout.
const SpriteSizeBytes = Point3DSize + 2 + TexturedItemSize + 6 + 2 + 2 + 2 + 2 + Velocity3DSize + TaggedItemSize

// binSpriteV6 is the legacy sprite record. The tile number follows the offsets, and a filler byte
// pads the record to the modern size.
type binSpriteV6 struct {
	Position         binPoint3D
	Attributes       uint16
	Shade            int8
	Palette          uint8
	ClippingDistance uint8
	XRepeat, YRepeat uint8
	XOffset, YOffset int8
	Tile             uint16
	Angle            int16
	Velocity         binVelocity
	Owner            int16
	SectorIndex      uint16
	StatusNumber     int16
	Tags             binTags
	Filler           uint8
}

// binSpriteV7 is the modern sprite record.
type binSpriteV7 struct {
	Position         binPoint3D
	Attributes       uint16
	Tile             uint16
	Shade            int8
	Palette          uint8
	ClippingDistance uint8
	Filler           uint8
	XRepeat, YRepeat uint8
	XOffset, YOffset int8
	SectorIndex      uint16
	StatusNumber     int16
	Angle            int16
	Owner            int16
	Velocity         binVelocity
	Tags             binTags
}

// SpriteSize is the encoded size of a sprite in the given map version, summed in that version's
// field order.
func SpriteSize(mapVersion uint32) int {
	if layoutFor(mapVersion) == layoutLegacy {
		return Point3DSize + 2 + 1 + 1 + 1 + 2 + 2 + 2 + 2 + Velocity3DSize + 2 + 2 + 2 + TaggedItemSize + 1
	}
	return SpriteSizeBytes
}

func (s Sprite) toV6() binSpriteV6 {
	return binSpriteV6{
		Position:         s.Position.bin(),
		Attributes:       s.Attributes.Pack(),
		Shade:            s.Shade,
		Palette:          s.PaletteLookupTableNumber,
		ClippingDistance: s.ClippingDistance,
		XRepeat:          s.XRepeat,
		YRepeat:          s.YRepeat,
		XOffset:          s.XOffset,
		YOffset:          s.YOffset,
		Tile:             s.TileNumber,
		Angle:            s.Angle(),
		Velocity:         s.Velocity.bin(),
		Owner:            s.Owner,
		SectorIndex:      s.SectorIndex,
		StatusNumber:     s.StatusNumber,
		Tags:             s.TaggedItem.bin(),
		Filler:           s.Filler,
	}
}

func spriteFromV6(b binSpriteV6) (Sprite, error) {
	item, err := sectorItemFromBin(b.Position, b.Angle, b.SectorIndex)
	if err != nil {
		return Sprite{}, err
	}
	return Sprite{
		SectorItem:       item,
		Attributes:       UnpackSpriteAttributes(b.Attributes),
		TexturedItem:     TexturedItem{TileNumber: b.Tile, Shade: b.Shade, PaletteLookupTableNumber: b.Palette},
		ClippingDistance: b.ClippingDistance,
		Filler:           b.Filler,
		XRepeat:          b.XRepeat,
		YRepeat:          b.YRepeat,
		XOffset:          b.XOffset,
		YOffset:          b.YOffset,
		StatusNumber:     b.StatusNumber,
		Owner:            b.Owner,
		Velocity:         Velocity3D(b.Velocity),
		TaggedItem:       TaggedItem(b.Tags),
	}, nil
}

func (s Sprite) toV7() binSpriteV7 {
	return binSpriteV7{
		Position:         s.Position.bin(),
		Attributes:       s.Attributes.Pack(),
		Tile:             s.TileNumber,
		Shade:            s.Shade,
		Palette:          s.PaletteLookupTableNumber,
		ClippingDistance: s.ClippingDistance,
		Filler:           s.Filler,
		XRepeat:          s.XRepeat,
		YRepeat:          s.YRepeat,
		XOffset:          s.XOffset,
		YOffset:          s.YOffset,
		SectorIndex:      s.SectorIndex,
		StatusNumber:     s.StatusNumber,
		Angle:            s.Angle(),
		Owner:            s.Owner,
		Velocity:         s.Velocity.bin(),
		Tags:             s.TaggedItem.bin(),
	}
}

func spriteFromV7(b binSpriteV7) (Sprite, error) {
	item, err := sectorItemFromBin(b.Position, b.Angle, b.SectorIndex)
	if err != nil {
		return Sprite{}, err
	}
	return Sprite{
		SectorItem:       item,
		Attributes:       UnpackSpriteAttributes(b.Attributes),
		TexturedItem:     TexturedItem{TileNumber: b.Tile, Shade: b.Shade, PaletteLookupTableNumber: b.Palette},
		ClippingDistance: b.ClippingDistance,
		Filler:           b.Filler,
		XRepeat:          b.XRepeat,
		YRepeat:          b.YRepeat,
		XOffset:          b.XOffset,
		YOffset:          b.YOffset,
		StatusNumber:     b.StatusNumber,
		Owner:            b.Owner,
		Velocity:         Velocity3D(b.Velocity),
		TaggedItem:       TaggedItem(b.Tags),
	}, nil
}

// ReadSprite decodes one sprite laid out for mapVersion.
func ReadSprite(r io.Reader, mapVersion uint32) (*Sprite, error) {
	var s Sprite
	var err error
	switch layoutFor(mapVersion) {
	case layoutLegacy:
		var b binSpriteV6
		if err := readLE(r, &b); err != nil {
			return nil, fmt.Errorf("sprite: %w", err)
		}
		s, err = spriteFromV6(b)
	default:
		var b binSpriteV7
		if err := readLE(r, &b); err != nil {
			return nil, fmt.Errorf("sprite: %w", err)
		}
		s, err = spriteFromV7(b)
	}
	if err != nil {
		return nil, fmt.Errorf("sprite: %w", err)
	}
	return &s, nil
}

// Encode writes the sprite laid out for mapVersion.
func (s Sprite) Encode(w io.Writer, mapVersion uint32) error {
	if layoutFor(mapVersion) == layoutLegacy {
		return writeLE(w, s.toV6())
	}
	return writeLE(w, s.toV7())
}

type jsonSprite struct {
	jsonSectorItem
	Attributes SpriteAttributes `json:"attributes"`
	TexturedItem
	ClippingDistance uint8      `json:"clippingDistance"`
	Filler           uint8      `json:"filler"`
	XRepeat          uint8      `json:"xRepeat"`
	YRepeat          uint8      `json:"yRepeat"`
	XOffset          int8       `json:"xOffset"`
	YOffset          int8       `json:"yOffset"`
	StatusNumber     int16      `json:"statusNumber"`
	Owner            int16      `json:"owner"`
	Velocity         Velocity3D `json:"velocity"`
	TaggedItem
}

func (s Sprite) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSprite{
		jsonSectorItem:   s.SectorItem.jsonFields(),
		Attributes:       s.Attributes,
		TexturedItem:     s.TexturedItem,
		ClippingDistance: s.ClippingDistance,
		Filler:           s.Filler,
		XRepeat:          s.XRepeat,
		YRepeat:          s.YRepeat,
		XOffset:          s.XOffset,
		YOffset:          s.YOffset,
		StatusNumber:     s.StatusNumber,
		Owner:            s.Owner,
		Velocity:         s.Velocity,
		TaggedItem:       s.TaggedItem,
	})
}

func (s *Sprite) UnmarshalJSON(data []byte) error {
	sprite, err := parseSpriteJSON(data, "sprite")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse sprite")
		return err
	}
	*s = sprite
	return nil
}

func parseSpriteJSON(data []byte, name string) (Sprite, error) {
	o, err := newJSONObject(name, data)
	if err != nil {
		return Sprite{}, err
	}
	var s Sprite
	if s.SectorItem, err = parseSectorItem(o); err != nil {
		return Sprite{}, err
	}
	attributes, err := o.object("attributes")
	if err != nil {
		return Sprite{}, err
	}
	if s.Attributes, err = parseSpriteAttributes(attributes); err != nil {
		return Sprite{}, err
	}
	if s.TexturedItem, err = parseTexturedItem(o); err != nil {
		return Sprite{}, err
	}
	for _, f := range []struct {
		key string
		dst *uint8
	}{
		{"clippingDistance", &s.ClippingDistance},
		{"filler", &s.Filler},
		{"xRepeat", &s.XRepeat},
		{"yRepeat", &s.YRepeat},
	} {
		if *f.dst, err = jsonInteger[uint8](o, f.key); err != nil {
			return Sprite{}, err
		}
	}
	if s.XOffset, err = jsonInteger[int8](o, "xOffset"); err != nil {
		return Sprite{}, err
	}
	if s.YOffset, err = jsonInteger[int8](o, "yOffset"); err != nil {
		return Sprite{}, err
	}
	if s.StatusNumber, err = jsonInteger[int16](o, "statusNumber"); err != nil {
		return Sprite{}, err
	}
	if s.Owner, err = jsonInteger[int16](o, "owner"); err != nil {
		return Sprite{}, err
	}
	velocity, err := o.object("velocity")
	if err != nil {
		return Sprite{}, err
	}
	if s.Velocity, err = parseVelocity3D(velocity); err != nil {
		return Sprite{}, err
	}
	if s.TaggedItem, err = parseTaggedItem(o); err != nil {
		return Sprite{}, err
	}
	return s, o.close()
}
