package buildmap

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxWallReserved is the largest value of the 6 reserved attribute bits.
const MaxWallReserved = 1<<6 - 1

// WallAttributes is the unpacked form of a wall stat word.
//
//	bit 0      blocks movement
//	bit 1      bottoms of invisible walls swapped
//	bit 2      align picture on bottom
//	bit 3      x flipped
//	bit 4      masked
//	bit 5      one way masked
//	bit 6      blocks hitscan
//	bit 7      translucent
//	bit 8      y flipped
//	bit 9      reverse translucence
//	bits 10-15 reserved
type WallAttributes struct {
	BlockClipping        bool
	BottomsSwapped       bool
	AlignPictureOnBottom bool
	XFlipped             bool
	Masked               bool
	OneWay               bool
	BlockHitscan         bool
	Translucent          bool
	YFlipped             bool
	ReverseTranslucent   bool
	reserved             uint8
}

func (a WallAttributes) Reserved() uint8 { return a.reserved }

// SetReserved fails with ErrOutOfRange above MaxWallReserved.
func (a *WallAttributes) SetReserved(reserved uint8) error {
	if err := checkRange("wall attributes reserved", reserved, 0, MaxWallReserved); err != nil {
		return err
	}
	a.reserved = reserved
	return nil
}

func (a WallAttributes) Pack() uint16 {
	var raw uint16
	raw |= boolBit(a.BlockClipping, 0)
	raw |= boolBit(a.BottomsSwapped, 1)
	raw |= boolBit(a.AlignPictureOnBottom, 2)
	raw |= boolBit(a.XFlipped, 3)
	raw |= boolBit(a.Masked, 4)
	raw |= boolBit(a.OneWay, 5)
	raw |= boolBit(a.BlockHitscan, 6)
	raw |= boolBit(a.Translucent, 7)
	raw |= boolBit(a.YFlipped, 8)
	raw |= boolBit(a.ReverseTranslucent, 9)
	raw |= uint16(a.reserved&MaxWallReserved) << 10
	return raw
}

func UnpackWallAttributes(raw uint16) WallAttributes {
	return WallAttributes{
		BlockClipping:        raw&0x001 != 0,
		BottomsSwapped:       raw&0x002 != 0,
		AlignPictureOnBottom: raw&0x004 != 0,
		XFlipped:             raw&0x008 != 0,
		Masked:               raw&0x010 != 0,
		OneWay:               raw&0x020 != 0,
		BlockHitscan:         raw&0x040 != 0,
		Translucent:          raw&0x080 != 0,
		YFlipped:             raw&0x100 != 0,
		ReverseTranslucent:   raw&0x200 != 0,
		reserved:             uint8(raw >> 10),
	}
}

type jsonWallAttributes struct {
	BlockClipping        bool  `json:"blockClipping"`
	BottomsSwapped       bool  `json:"bottomsSwapped"`
	AlignPictureOnBottom bool  `json:"alignPictureOnBottom"`
	XFlipped             bool  `json:"xFlipped"`
	Masked               bool  `json:"masked"`
	OneWay               bool  `json:"oneWay"`
	BlockHitscan         bool  `json:"blockHitscan"`
	Translucent          bool  `json:"translucent"`
	YFlipped             bool  `json:"yFlipped"`
	ReverseTranslucent   bool  `json:"reverseTranslucent"`
	Reserved             uint8 `json:"reserved"`
}

func (a WallAttributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonWallAttributes{
		BlockClipping:        a.BlockClipping,
		BottomsSwapped:       a.BottomsSwapped,
		AlignPictureOnBottom: a.AlignPictureOnBottom,
		XFlipped:             a.XFlipped,
		Masked:               a.Masked,
		OneWay:               a.OneWay,
		BlockHitscan:         a.BlockHitscan,
		Translucent:          a.Translucent,
		YFlipped:             a.YFlipped,
		ReverseTranslucent:   a.ReverseTranslucent,
		Reserved:             a.reserved,
	})
}

func (a *WallAttributes) UnmarshalJSON(data []byte) error {
	o, err := newJSONObject("wall attributes", data)
	if err != nil {
		return err
	}
	attributes, err := parseWallAttributes(o)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid wall attributes")
		return err
	}
	*a = attributes
	return nil
}

func parseWallAttributes(o *jsonObject) (WallAttributes, error) {
	var a WallAttributes
	flags := []struct {
		key string
		dst *bool
	}{
		{"blockClipping", &a.BlockClipping},
		{"bottomsSwapped", &a.BottomsSwapped},
		{"alignPictureOnBottom", &a.AlignPictureOnBottom},
		{"xFlipped", &a.XFlipped},
		{"masked", &a.Masked},
		{"oneWay", &a.OneWay},
		{"blockHitscan", &a.BlockHitscan},
		{"translucent", &a.Translucent},
		{"yFlipped", &a.YFlipped},
		{"reverseTranslucent", &a.ReverseTranslucent},
	}
	for _, f := range flags {
		v, err := o.boolean(f.key)
		if err != nil {
			return WallAttributes{}, err
		}
		*f.dst = v
	}
	reserved, err := jsonInteger[uint8](o, "reserved")
	if err != nil {
		return WallAttributes{}, err
	}
	if err := a.SetReserved(reserved); err != nil {
		return WallAttributes{}, fmt.Errorf("%s: %w", o.name, err)
	}
	return a, o.close()
}

// Wall is one edge of a sector, running from Position to the position of the wall at NextWallIndex.
// AdjacentWallIndex and NextSectorIndex are NoIndex unless the wall is shared with another sector.
type Wall struct {
	Position          Point2D
	NextWallIndex     uint16
	AdjacentWallIndex uint16
	NextSectorIndex   uint16
	Attributes        WallAttributes
	TexturedItem
	MaskedTileNumber uint16
	XRepeat          uint8
	YRepeat          uint8
	XPanning         uint8
	YPanning         uint8
	TaggedItem
}

// NewWall returns an unlinked wall.
func NewWall(position Point2D) Wall {
	return Wall{Position: position, AdjacentWallIndex: NoIndex, NextSectorIndex: NoIndex}
}

func (w Wall) HasAdjacentWall() bool { return w.AdjacentWallIndex != NoIndex }
func (w Wall) HasNextSector() bool   { return w.NextSectorIndex != NoIndex }

// binWallV6 is the legacy wall record: the next sector sits between the two wall links and the
// attributes follow the palette.
type binWallV6 struct {
	Position                       binPoint2D
	NextWall, NextSector, Adjacent uint16
	Tile, MaskedTile               uint16
	Shade                          int8
	Palette                        uint8
	Attributes                     uint16
	XRepeat, YRepeat               uint8
	XPanning, YPanning             uint8
	Tags                           binTags
}

// binWallV7 is the modern wall record.
type binWallV7 struct {
	Position                       binPoint2D
	NextWall, Adjacent, NextSector uint16
	Attributes                     uint16
	Tile, MaskedTile               uint16
	Shade                          int8
	Palette                        uint8
	XRepeat, YRepeat               uint8
	XPanning, YPanning             uint8
	Tags                           binTags
}

// WallSize is the encoded size of a wall. Both layouts use 32 bytes.
func WallSize(mapVersion uint32) int {
	if layoutFor(mapVersion) == layoutLegacy {
		return wallSizeV6
	}
	return wallSizeV7
}

const (
	wallSizeV6 = Point2DSize + 3*2 + 2*2 + 2 + 2 + 4 + TaggedItemSize
	wallSizeV7 = Point2DSize + 3*2 + 2 + 2*2 + 2 + 4 + TaggedItemSize
)

func (w Wall) toV6() binWallV6 {
	return binWallV6{
		Position:   w.Position.bin(),
		NextWall:   w.NextWallIndex,
		NextSector: w.NextSectorIndex,
		Adjacent:   w.AdjacentWallIndex,
		Tile:       w.TileNumber,
		MaskedTile: w.MaskedTileNumber,
		Shade:      w.Shade,
		Palette:    w.PaletteLookupTableNumber,
		Attributes: w.Attributes.Pack(),
		XRepeat:    w.XRepeat,
		YRepeat:    w.YRepeat,
		XPanning:   w.XPanning,
		YPanning:   w.YPanning,
		Tags:       w.TaggedItem.bin(),
	}
}

func wallFromV6(b binWallV6) Wall {
	return Wall{
		Position:          Point2D(b.Position),
		NextWallIndex:     b.NextWall,
		AdjacentWallIndex: b.Adjacent,
		NextSectorIndex:   b.NextSector,
		Attributes:        UnpackWallAttributes(b.Attributes),
		TexturedItem:      TexturedItem{TileNumber: b.Tile, Shade: b.Shade, PaletteLookupTableNumber: b.Palette},
		MaskedTileNumber:  b.MaskedTile,
		XRepeat:           b.XRepeat,
		YRepeat:           b.YRepeat,
		XPanning:          b.XPanning,
		YPanning:          b.YPanning,
		TaggedItem:        TaggedItem(b.Tags),
	}
}

func (w Wall) toV7() binWallV7 {
	return binWallV7{
		Position:   w.Position.bin(),
		NextWall:   w.NextWallIndex,
		Adjacent:   w.AdjacentWallIndex,
		NextSector: w.NextSectorIndex,
		Attributes: w.Attributes.Pack(),
		Tile:       w.TileNumber,
		MaskedTile: w.MaskedTileNumber,
		Shade:      w.Shade,
		Palette:    w.PaletteLookupTableNumber,
		XRepeat:    w.XRepeat,
		YRepeat:    w.YRepeat,
		XPanning:   w.XPanning,
		YPanning:   w.YPanning,
		Tags:       w.TaggedItem.bin(),
	}
}

func wallFromV7(b binWallV7) Wall {
	return Wall{
		Position:          Point2D(b.Position),
		NextWallIndex:     b.NextWall,
		AdjacentWallIndex: b.Adjacent,
		NextSectorIndex:   b.NextSector,
		Attributes:        UnpackWallAttributes(b.Attributes),
		TexturedItem:      TexturedItem{TileNumber: b.Tile, Shade: b.Shade, PaletteLookupTableNumber: b.Palette},
		MaskedTileNumber:  b.MaskedTile,
		XRepeat:           b.XRepeat,
		YRepeat:           b.YRepeat,
		XPanning:          b.XPanning,
		YPanning:          b.YPanning,
		TaggedItem:        TaggedItem(b.Tags),
	}
}

// ReadWall decodes one wall laid out for mapVersion.
func ReadWall(r io.Reader, mapVersion uint32) (*Wall, error) {
	var w Wall
	switch layoutFor(mapVersion) {
	case layoutLegacy:
		var b binWallV6
		if err := readLE(r, &b); err != nil {
			return nil, fmt.Errorf("wall: %w", err)
		}
		w = wallFromV6(b)
	default:
		var b binWallV7
		if err := readLE(r, &b); err != nil {
			return nil, fmt.Errorf("wall: %w", err)
		}
		w = wallFromV7(b)
	}
	return &w, nil
}

// Encode writes the wall laid out for mapVersion.
func (w Wall) Encode(wr io.Writer, mapVersion uint32) error {
	if layoutFor(mapVersion) == layoutLegacy {
		return writeLE(wr, w.toV6())
	}
	return writeLE(wr, w.toV7())
}

type jsonWall struct {
	Position          Point2D        `json:"position"`
	NextWallIndex     uint16         `json:"nextWallIndex"`
	AdjacentWallIndex uint16         `json:"adjacentWallIndex"`
	NextSectorIndex   uint16         `json:"nextSectorIndex"`
	Attributes        WallAttributes `json:"attributes"`
	TexturedItem
	MaskedTileNumber uint16 `json:"maskedTileNumber"`
	XRepeat          uint8  `json:"xRepeat"`
	YRepeat          uint8  `json:"yRepeat"`
	XPanning         uint8  `json:"xPanning"`
	YPanning         uint8  `json:"yPanning"`
	TaggedItem
}

func (w Wall) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonWall(w))
}

func (w *Wall) UnmarshalJSON(data []byte) error {
	wall, err := parseWallJSON(data, "wall")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse wall")
		return err
	}
	*w = wall
	return nil
}

func parseWallJSON(data []byte, name string) (Wall, error) {
	o, err := newJSONObject(name, data)
	if err != nil {
		return Wall{}, err
	}
	var w Wall
	position, err := o.object("position")
	if err != nil {
		return Wall{}, err
	}
	if w.Position, err = parsePoint2D(position); err != nil {
		return Wall{}, err
	}
	if w.NextWallIndex, err = jsonInteger[uint16](o, "nextWallIndex"); err != nil {
		return Wall{}, err
	}
	if w.AdjacentWallIndex, err = jsonInteger[uint16](o, "adjacentWallIndex"); err != nil {
		return Wall{}, err
	}
	if w.NextSectorIndex, err = jsonInteger[uint16](o, "nextSectorIndex"); err != nil {
		return Wall{}, err
	}
	attributes, err := o.object("attributes")
	if err != nil {
		return Wall{}, err
	}
	if w.Attributes, err = parseWallAttributes(attributes); err != nil {
		return Wall{}, err
	}
	if w.TexturedItem, err = parseTexturedItem(o); err != nil {
		return Wall{}, err
	}
	if w.MaskedTileNumber, err = jsonInteger[uint16](o, "maskedTileNumber"); err != nil {
		return Wall{}, err
	}
	for _, f := range []struct {
		key string
		dst *uint8
	}{
		{"xRepeat", &w.XRepeat},
		{"yRepeat", &w.YRepeat},
		{"xPanning", &w.XPanning},
		{"yPanning", &w.YPanning},
	} {
		if *f.dst, err = jsonInteger[uint8](o, f.key); err != nil {
			return Wall{}, err
		}
	}
	if w.TaggedItem, err = parseTaggedItem(o); err != nil {
		return Wall{}, err
	}
	return w, o.close()
}
