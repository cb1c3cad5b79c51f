package buildmap

import (
	"encoding/json"
	"fmt"
	"io"
)

// Sector is a closed region bounded by a run of walls, with a floor and a ceiling.
// FirstWallIndex and NumberOfWalls are not checked against the map's walls.
type Sector struct {
	FirstWallIndex uint16
	NumberOfWalls  uint16
	Ceiling        Partition
	Floor          Partition
	Visibility     uint8
	TaggedItem

	// Filler only exists in the modern layout.
	Filler uint8

	// TrailingData holds the 3 bytes that pad a version 6 sector to 40 bytes.
	TrailingData [3]byte
}

// Partition returns the slot holding the partition of type t.
func (s *Sector) Partition(t PartitionType) *Partition {
	if t == Ceiling {
		return &s.Ceiling
	}
	return &s.Floor
}

// binSectorV6 is the legacy sector record. Fields of the two surfaces are interleaved.
type binSectorV6 struct {
	FirstWall, NumWalls                uint16
	CeilingTile, FloorTile             uint16
	CeilingSlope, FloorSlope           int16
	CeilingHeight, FloorHeight         int32
	CeilingShade, FloorShade           int8
	CeilingXPanning, FloorXPanning     uint8
	CeilingYPanning, FloorYPanning     uint8
	CeilingAttributes, FloorAttributes uint8
	CeilingPalette, FloorPalette       uint8
	Visibility                         uint8
	Tags                               binTags
	Trailing                           [3]byte
}

// binSectorV7 is the modern sector record: heights first, then one block per surface.
type binSectorV7 struct {
	FirstWall, NumWalls        uint16
	CeilingHeight, FloorHeight int32
	Ceiling, Floor             surfaceV7
	Visibility, Filler         uint8
	Tags                       binTags
}

// SectorSize is the encoded size of a sector in the given map version.
func SectorSize(mapVersion uint32) int {
	size := TaggedItemSize + 2*PartitionSize(mapVersion) + 4 + 2
	if layoutFor(mapVersion) == layoutLegacy {
		size += 2
	}
	return size
}

func (s Sector) toV6() (binSectorV6, error) {
	ceilingAttributes, err := s.Ceiling.legacyAttributes(Ceiling)
	if err != nil {
		return binSectorV6{}, err
	}
	floorAttributes, err := s.Floor.legacyAttributes(Floor)
	if err != nil {
		return binSectorV6{}, err
	}
	return binSectorV6{
		FirstWall:         s.FirstWallIndex,
		NumWalls:          s.NumberOfWalls,
		CeilingTile:       s.Ceiling.TileNumber,
		FloorTile:         s.Floor.TileNumber,
		CeilingSlope:      s.Ceiling.Slope,
		FloorSlope:        s.Floor.Slope,
		CeilingHeight:     s.Ceiling.Height,
		FloorHeight:       s.Floor.Height,
		CeilingShade:      s.Ceiling.Shade,
		FloorShade:        s.Floor.Shade,
		CeilingXPanning:   s.Ceiling.XPanning,
		FloorXPanning:     s.Floor.XPanning,
		CeilingYPanning:   s.Ceiling.YPanning,
		FloorYPanning:     s.Floor.YPanning,
		CeilingAttributes: ceilingAttributes,
		FloorAttributes:   floorAttributes,
		CeilingPalette:    s.Ceiling.PaletteLookupTableNumber,
		FloorPalette:      s.Floor.PaletteLookupTableNumber,
		Visibility:        s.Visibility,
		Tags:              s.TaggedItem.bin(),
		Trailing:          s.TrailingData,
	}, nil
}

func sectorFromV6(b binSectorV6) Sector {
	return Sector{
		FirstWallIndex: b.FirstWall,
		NumberOfWalls:  b.NumWalls,
		Ceiling: Partition{
			Height:     b.CeilingHeight,
			Attributes: UnpackPartitionAttributes(uint16(b.CeilingAttributes)),
			Slope:      b.CeilingSlope,
			TexturedItem: TexturedItem{
				TileNumber:               b.CeilingTile,
				Shade:                    b.CeilingShade,
				PaletteLookupTableNumber: b.CeilingPalette,
			},
			XPanning: b.CeilingXPanning,
			YPanning: b.CeilingYPanning,
		},
		Floor: Partition{
			Height:     b.FloorHeight,
			Attributes: UnpackPartitionAttributes(uint16(b.FloorAttributes)),
			Slope:      b.FloorSlope,
			TexturedItem: TexturedItem{
				TileNumber:               b.FloorTile,
				Shade:                    b.FloorShade,
				PaletteLookupTableNumber: b.FloorPalette,
			},
			XPanning: b.FloorXPanning,
			YPanning: b.FloorYPanning,
		},
		Visibility:   b.Visibility,
		TaggedItem:   TaggedItem(b.Tags),
		TrailingData: b.Trailing,
	}
}

func (s Sector) toV7() binSectorV7 {
	return binSectorV7{
		FirstWall:     s.FirstWallIndex,
		NumWalls:      s.NumberOfWalls,
		CeilingHeight: s.Ceiling.Height,
		FloorHeight:   s.Floor.Height,
		Ceiling:       s.Ceiling.surfaceV7(),
		Floor:         s.Floor.surfaceV7(),
		Visibility:    s.Visibility,
		Filler:        s.Filler,
		Tags:          s.TaggedItem.bin(),
	}
}

func sectorFromV7(b binSectorV7) Sector {
	return Sector{
		FirstWallIndex: b.FirstWall,
		NumberOfWalls:  b.NumWalls,
		Ceiling:        partitionFromV7(b.CeilingHeight, b.Ceiling),
		Floor:          partitionFromV7(b.FloorHeight, b.Floor),
		Visibility:     b.Visibility,
		Filler:         b.Filler,
		TaggedItem:     TaggedItem(b.Tags),
	}
}

// ReadSector decodes one sector laid out for mapVersion. On error nothing is returned.
func ReadSector(r io.Reader, mapVersion uint32) (*Sector, error) {
	var s Sector
	switch layoutFor(mapVersion) {
	case layoutLegacy:
		var b binSectorV6
		if err := readLE(r, &b); err != nil {
			return nil, fmt.Errorf("sector: %w", err)
		}
		s = sectorFromV6(b)
	default:
		var b binSectorV7
		if err := readLE(r, &b); err != nil {
			return nil, fmt.Errorf("sector: %w", err)
		}
		s = sectorFromV7(b)
	}
	return &s, nil
}

// Encode writes the sector laid out for mapVersion. Nothing is written on error.
func (s Sector) Encode(w io.Writer, mapVersion uint32) error {
	var record any
	switch layoutFor(mapVersion) {
	case layoutLegacy:
		b, err := s.toV6()
		if err != nil {
			return fmt.Errorf("sector: %w", err)
		}
		record = b
	default:
		record = s.toV7()
	}
	return writeLE(w, record)
}

type jsonSector struct {
	FirstWallIndex uint16    `json:"firstWallIndex"`
	NumberOfWalls  uint16    `json:"numberOfWalls"`
	Ceiling        Partition `json:"ceiling"`
	Floor          Partition `json:"floor"`
	Visibility     uint8     `json:"visibility"`
	Filler         uint8     `json:"filler"`
	TaggedItem
	TrailingData []int `json:"trailingData,omitempty"`
}

func (s Sector) MarshalJSON() ([]byte, error) {
	js := jsonSector{
		FirstWallIndex: s.FirstWallIndex,
		NumberOfWalls:  s.NumberOfWalls,
		Ceiling:        s.Ceiling,
		Floor:          s.Floor,
		Visibility:     s.Visibility,
		Filler:         s.Filler,
		TaggedItem:     s.TaggedItem,
	}
	if s.TrailingData != [3]byte{} {
		js.TrailingData = byteValues(s.TrailingData[:])
	}
	return json.Marshal(js)
}

func (s *Sector) UnmarshalJSON(data []byte) error {
	sector, err := parseSectorJSON(data, "sector")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse sector")
		return err
	}
	*s = sector
	return nil
}

func parseSectorJSON(data []byte, name string) (Sector, error) {
	o, err := newJSONObject(name, data)
	if err != nil {
		return Sector{}, err
	}
	var s Sector
	if s.FirstWallIndex, err = jsonInteger[uint16](o, "firstWallIndex"); err != nil {
		return Sector{}, err
	}
	if s.NumberOfWalls, err = jsonInteger[uint16](o, "numberOfWalls"); err != nil {
		return Sector{}, err
	}
	for _, t := range []PartitionType{Ceiling, Floor} {
		obj, err := o.object(t.String())
		if err != nil {
			return Sector{}, err
		}
		p, err := parsePartition(obj)
		if err != nil {
			return Sector{}, err
		}
		*s.Partition(t) = p
	}
	if s.Visibility, err = jsonInteger[uint8](o, "visibility"); err != nil {
		return Sector{}, err
	}
	if s.Filler, err = jsonInteger[uint8](o, "filler"); err != nil {
		return Sector{}, err
	}
	if s.TaggedItem, err = parseTaggedItem(o); err != nil {
		return Sector{}, err
	}
	if o.has("trailingData") {
		items, err := o.array("trailingData")
		if err != nil {
			return Sector{}, err
		}
		if len(items) != len(s.TrailingData) {
			return Sector{}, fmt.Errorf("%w: %s trailing data has %d bytes, must have %d", ErrOutOfRange, name, len(items), len(s.TrailingData))
		}
		trailing, err := parseByteArray(items, name+" trailing data")
		if err != nil {
			return Sector{}, err
		}
		copy(s.TrailingData[:], trailing)
	}
	return s, o.close()
}
