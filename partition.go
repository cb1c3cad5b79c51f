package buildmap

import (
	"encoding/json"
	"fmt"
)

// PartitionType tells a floor from a ceiling. A partition does not store it: the sector slot holding
// the partition decides.
type PartitionType uint8

const (
	Floor PartitionType = iota
	Ceiling
)

func (t PartitionType) String() string {
	if t == Ceiling {
		return "ceiling"
	}
	return "floor"
}

// MaxPartitionReserved is the largest value of the 9 reserved attribute bits.
const MaxPartitionReserved = 1<<9 - 1

// PartitionAttributes is the unpacked form of a floor or ceiling stat word.
//
//	bit 0     parallaxing sky
//	bit 1     sloped
//	bit 2     swap x and y texture axes
//	bit 3     double smooshiness
//	bit 4     x flipped
//	bit 5     y flipped
//	bit 6     align texture to the first wall
//	bits 7-15 reserved
type PartitionAttributes struct {
	Parallaxing       bool
	Sloped            bool
	SwapXY            bool
	DoubleSmooshiness bool
	XFlipped          bool
	YFlipped          bool
	AlignToFirstWall  bool
	reserved          uint16
}

func (a PartitionAttributes) Reserved() uint16 { return a.reserved }

// SetReserved fails with ErrOutOfRange above MaxPartitionReserved.
func (a *PartitionAttributes) SetReserved(reserved uint16) error {
	if err := checkRange("partition attributes reserved", reserved, 0, MaxPartitionReserved); err != nil {
		return err
	}
	a.reserved = reserved
	return nil
}

// Pack returns the raw stat word.
func (a PartitionAttributes) Pack() uint16 {
	var raw uint16
	raw |= boolBit(a.Parallaxing, 0)
	raw |= boolBit(a.Sloped, 1)
	raw |= boolBit(a.SwapXY, 2)
	raw |= boolBit(a.DoubleSmooshiness, 3)
	raw |= boolBit(a.XFlipped, 4)
	raw |= boolBit(a.YFlipped, 5)
	raw |= boolBit(a.AlignToFirstWall, 6)
	raw |= (a.reserved & MaxPartitionReserved) << 7
	return raw
}

// UnpackPartitionAttributes splits a raw stat word into its flags.
func UnpackPartitionAttributes(raw uint16) PartitionAttributes {
	return PartitionAttributes{
		Parallaxing:       raw&0x01 != 0,
		Sloped:            raw&0x02 != 0,
		SwapXY:            raw&0x04 != 0,
		DoubleSmooshiness: raw&0x08 != 0,
		XFlipped:          raw&0x10 != 0,
		YFlipped:          raw&0x20 != 0,
		AlignToFirstWall:  raw&0x40 != 0,
		reserved:          raw >> 7,
	}
}

func boolBit(set bool, bit uint) uint16 {
	if set {
		return 1 << bit
	}
	return 0
}

type jsonPartitionAttributes struct {
	Parallaxing       bool   `json:"parallaxing"`
	Sloped            bool   `json:"sloped"`
	SwapXY            bool   `json:"swapXY"`
	DoubleSmooshiness bool   `json:"doubleSmooshiness"`
	XFlipped          bool   `json:"xFlipped"`
	YFlipped          bool   `json:"yFlipped"`
	AlignToFirstWall  bool   `json:"alignToFirstWall"`
	Reserved          uint16 `json:"reserved"`
}

func (a PartitionAttributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonPartitionAttributes{
		Parallaxing:       a.Parallaxing,
		Sloped:            a.Sloped,
		SwapXY:            a.SwapXY,
		DoubleSmooshiness: a.DoubleSmooshiness,
		XFlipped:          a.XFlipped,
		YFlipped:          a.YFlipped,
		AlignToFirstWall:  a.AlignToFirstWall,
		Reserved:          a.reserved,
	})
}

func (a *PartitionAttributes) UnmarshalJSON(data []byte) error {
	o, err := newJSONObject("partition attributes", data)
	if err != nil {
		return err
	}
	attributes, err := parsePartitionAttributes(o)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid partition attributes")
		return err
	}
	*a = attributes
	return nil
}

func parsePartitionAttributes(o *jsonObject) (PartitionAttributes, error) {
	var a PartitionAttributes
	flags := []struct {
		key string
		dst *bool
	}{
		{"parallaxing", &a.Parallaxing},
		{"sloped", &a.Sloped},
		{"swapXY", &a.SwapXY},
		{"doubleSmooshiness", &a.DoubleSmooshiness},
		{"xFlipped", &a.XFlipped},
		{"yFlipped", &a.YFlipped},
		{"alignToFirstWall", &a.AlignToFirstWall},
	}
	for _, f := range flags {
		v, err := o.boolean(f.key)
		if err != nil {
			return PartitionAttributes{}, err
		}
		*f.dst = v
	}
	reserved, err := jsonInteger[uint16](o, "reserved")
	if err != nil {
		return PartitionAttributes{}, err
	}
	if err := a.SetReserved(reserved); err != nil {
		return PartitionAttributes{}, fmt.Errorf("%s: %w", o.name, err)
	}
	return a, o.close()
}

// Partition describes one floor or ceiling surface of a sector.
type Partition struct {
	Height     int32
	Attributes PartitionAttributes
	Slope      int16
	TexturedItem
	XPanning uint8
	YPanning uint8
}

// PartitionSize is the number of bytes a partition occupies inside an encoded sector: the height, tile
// number and slope, plus five single byte fields in version 6 or a 16 bit attribute word and four
// single byte fields otherwise.
func PartitionSize(mapVersion uint32) int {
	size := 4 + 2*2
	if layoutFor(mapVersion) == layoutLegacy {
		return size + 5
	}
	return size + 6
}

// surfaceV7 is one partition block of the modern sector layout. The height is stored apart.
type surfaceV7 struct {
	Attributes uint16
	TileNumber uint16
	Slope      int16
	Shade      int8
	Palette    uint8
	XPanning   uint8
	YPanning   uint8
}

func (p Partition) surfaceV7() surfaceV7 {
	return surfaceV7{
		Attributes: p.Attributes.Pack(),
		TileNumber: p.TileNumber,
		Slope:      p.Slope,
		Shade:      p.Shade,
		Palette:    p.PaletteLookupTableNumber,
		XPanning:   p.XPanning,
		YPanning:   p.YPanning,
	}
}

func partitionFromV7(height int32, s surfaceV7) Partition {
	return Partition{
		Height:     height,
		Attributes: UnpackPartitionAttributes(s.Attributes),
		Slope:      s.Slope,
		TexturedItem: TexturedItem{
			TileNumber:               s.TileNumber,
			Shade:                    s.Shade,
			PaletteLookupTableNumber: s.Palette,
		},
		XPanning: s.XPanning,
		YPanning: s.YPanning,
	}
}

// legacyAttributes narrows the stat word to the single byte version 6 stores.
func (p Partition) legacyAttributes(t PartitionType) (uint8, error) {
	raw := p.Attributes.Pack()
	if raw > 0xFF {
		return 0, fmt.Errorf("%w: %s attributes are 0x%04x, version %d stores at most 0xff", ErrOutOfRange, t, raw, LegacyVersion)
	}
	return uint8(raw), nil
}

type jsonPartition struct {
	Height     int32               `json:"height"`
	Attributes PartitionAttributes `json:"attributes"`
	Slope      int16               `json:"slope"`
	TexturedItem
	XPanning uint8 `json:"xPanning"`
	YPanning uint8 `json:"yPanning"`
}

// MarshalJSON has no type property: the owning sector's property name carries it.
func (p Partition) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonPartition{
		Height:       p.Height,
		Attributes:   p.Attributes,
		Slope:        p.Slope,
		TexturedItem: p.TexturedItem,
		XPanning:     p.XPanning,
		YPanning:     p.YPanning,
	})
}

func (p *Partition) UnmarshalJSON(data []byte) error {
	o, err := newJSONObject("partition", data)
	if err != nil {
		return err
	}
	partition, err := parsePartition(o)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid partition")
		return err
	}
	*p = partition
	return nil
}

func parsePartition(o *jsonObject) (Partition, error) {
	var p Partition
	var err error
	if p.Height, err = jsonInteger[int32](o, "height"); err != nil {
		return Partition{}, err
	}
	attributes, err := o.object("attributes")
	if err != nil {
		return Partition{}, err
	}
	if p.Attributes, err = parsePartitionAttributes(attributes); err != nil {
		return Partition{}, err
	}
	if p.Slope, err = jsonInteger[int16](o, "slope"); err != nil {
		return Partition{}, err
	}
	if p.TexturedItem, err = parseTexturedItem(o); err != nil {
		return Partition{}, err
	}
	if p.XPanning, err = jsonInteger[uint8](o, "xPanning"); err != nil {
		return Partition{}, err
	}
	if p.YPanning, err = jsonInteger[uint8](o, "yPanning"); err != nil {
		return Partition{}, err
	}
	return p, o.close()
}
