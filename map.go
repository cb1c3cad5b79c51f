// Package buildmap reads and writes Build engine MAP files.
//
// A map is a version number, the player start, and three ordered tables of sectors, walls and
// sprites, followed by any bytes the format does not describe. Version 6 uses the legacy record
// layouts and every other version the modern ones. Maps convert losslessly between the binary
// format and an equivalent JSON document; LoadMap and Save pick the codec from the file extension.
package buildmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultJSONIndent is the indentation Save uses for JSON files.
const DefaultJSONIndent = "  "

// Map is a whole level. The sector, wall and sprite counts are the lengths of the slices.
type Map struct {
	Version     uint32
	PlayerSpawn PlayerSpawn
	Sectors     []Sector
	Walls       []Wall
	Sprites     []Sprite

	// TrailingData is everything after the last sprite, kept verbatim.
	TrailingData []byte
}

// NewMap returns an empty map with the default player start.
func NewMap(version uint32) *Map {
	return &Map{
		Version:     version,
		PlayerSpawn: NewPlayerSpawn(),
		Sectors:     []Sector{},
		Walls:       []Wall{},
		Sprites:     []Sprite{},
	}
}

// ReadMap decodes a binary map. The reader is consumed to EOF; whatever follows the sprites
// becomes TrailingData.
func ReadMap(r io.Reader) (*Map, error) {
	m, err := decodeMap(r)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read map")
		return nil, err
	}
	return m, nil
}

func decodeMap(r io.Reader) (*Map, error) {
	logger.Debug().Msg("Reading map ...")
	var m Map
	if err := readLE(r, &m.Version); err != nil {
		return nil, fmt.Errorf("map version: %w", err)
	}
	logger.Debug().Uint32("version", m.Version).Stringer("layout", layoutFor(m.Version)).Msg("Map header")

	spawn, err := ReadPlayerSpawn(r)
	if err != nil {
		return nil, err
	}
	m.PlayerSpawn = spawn

	if m.Sectors, err = readEntities(r, m.Version, "sector", ReadSector); err != nil {
		return nil, err
	}
	if m.Walls, err = readEntities(r, m.Version, "wall", ReadWall); err != nil {
		return nil, err
	}
	if m.Sprites, err = readEntities(r, m.Version, "sprite", ReadSprite); err != nil {
		return nil, err
	}

	if m.TrailingData, err = io.ReadAll(r); err != nil {
		return nil, fmt.Errorf("map trailing data: %w", err)
	}
	if len(m.TrailingData) > 0 {
		logger.Debug().Msgf("Read %d trailing bytes", len(m.TrailingData))
	}
	return &m, nil
}

// readEntities reads a 16 bit count followed by that many records.
func readEntities[T any](r io.Reader, mapVersion uint32, kind string, read func(io.Reader, uint32) (*T, error)) ([]T, error) {
	var count uint16
	if err := readLE(r, &count); err != nil {
		return nil, fmt.Errorf("%s count: %w", kind, err)
	}
	logger.Debug().Msgf("Reading %d %ss ...", count, kind)
	items := make([]T, 0, count)
	for i := 0; i < int(count); i++ {
		item, err := read(r, mapVersion)
		if err != nil {
			return nil, fmt.Errorf("%s #%d: %w", kind, i+1, err)
		}
		items = append(items, *item)
	}
	logger.Debug().Msgf("Read %d %ss", len(items), kind)
	return items, nil
}

// UnmarshalBinary replaces m with the map decoded from data.
func (m *Map) UnmarshalBinary(data []byte) error {
	decoded, err := ReadMap(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}

// SizeInBytes is the exact length of the binary encoding.
func (m *Map) SizeInBytes() int {
	size := 4 + PlayerSpawnSize + 3*2
	size += len(m.Sectors) * SectorSize(m.Version)
	size += len(m.Walls) * WallSize(m.Version)
	size += len(m.Sprites) * SpriteSize(m.Version)
	return size + len(m.TrailingData)
}

func (m *Map) MarshalBinary() ([]byte, error) {
	data, err := m.encode()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to write map")
		return nil, err
	}
	return data, nil
}

// WriteTo encodes the whole map before writing, so nothing reaches w if encoding fails.
func (m *Map) WriteTo(w io.Writer) (int64, error) {
	data, err := m.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

func (m *Map) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(m.SizeInBytes())
	if err := writeLE(&buf, m.Version); err != nil {
		return nil, err
	}
	if err := m.PlayerSpawn.Encode(&buf); err != nil {
		return nil, err
	}
	if err := writeEntities(&buf, m.Version, "sector", m.Sectors, Sector.Encode); err != nil {
		return nil, err
	}
	if err := writeEntities(&buf, m.Version, "wall", m.Walls, Wall.Encode); err != nil {
		return nil, err
	}
	if err := writeEntities(&buf, m.Version, "sprite", m.Sprites, Sprite.Encode); err != nil {
		return nil, err
	}
	buf.Write(m.TrailingData)
	return buf.Bytes(), nil
}

func writeEntities[T any](w io.Writer, mapVersion uint32, kind string, items []T, encode func(T, io.Writer, uint32) error) error {
	if len(items) > math.MaxUint16 {
		return fmt.Errorf("%w: map has %d %ss, the format stores at most %d", ErrTooManyEntities, len(items), kind, math.MaxUint16)
	}
	if err := writeLE(w, uint16(len(items))); err != nil {
		return err
	}
	for i, item := range items {
		if err := encode(item, w, mapVersion); err != nil {
			return fmt.Errorf("%s #%d: %w", kind, i+1, err)
		}
	}
	return nil
}

type jsonMap struct {
	Version      uint32      `json:"version"`
	PlayerSpawn  PlayerSpawn `json:"playerSpawn"`
	Sectors      []Sector    `json:"sectors"`
	Walls        []Wall      `json:"walls"`
	Sprites      []Sprite    `json:"sprites"`
	TrailingData []int       `json:"trailingData,omitempty"`
}

// MarshalJSON always emits the three tables as arrays, empty or not.
func (m *Map) MarshalJSON() ([]byte, error) {
	jm := jsonMap{
		Version:     m.Version,
		PlayerSpawn: m.PlayerSpawn,
		Sectors:     nonNil(m.Sectors),
		Walls:       nonNil(m.Walls),
		Sprites:     nonNil(m.Sprites),
	}
	if len(m.TrailingData) > 0 {
		jm.TrailingData = byteValues(m.TrailingData)
	}
	return json.Marshal(jm)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func (m *Map) UnmarshalJSON(data []byte) error {
	decoded, err := parseMapJSON(data)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse map")
		return err
	}
	*m = *decoded
	return nil
}

func parseMapJSON(data []byte) (*Map, error) {
	logger.Debug().Msg("Parsing map JSON ...")
	o, err := newJSONObject("map", data)
	if err != nil {
		return nil, err
	}
	var m Map
	if m.Version, err = jsonInteger[uint32](o, "version"); err != nil {
		return nil, err
	}
	spawn, err := o.field("playerSpawn")
	if err != nil {
		return nil, err
	}
	if m.PlayerSpawn, err = parsePlayerSpawnJSON(spawn); err != nil {
		return nil, err
	}
	if m.Sectors, err = parseEntities(o, "sectors", "sector", parseSectorJSON); err != nil {
		return nil, err
	}
	if m.Walls, err = parseEntities(o, "walls", "wall", parseWallJSON); err != nil {
		return nil, err
	}
	if m.Sprites, err = parseEntities(o, "sprites", "sprite", parseSpriteJSON); err != nil {
		return nil, err
	}
	m.TrailingData = []byte{}
	if o.has("trailingData") {
		items, err := o.array("trailingData")
		if err != nil {
			return nil, err
		}
		if m.TrailingData, err = parseByteArray(items, "map trailing data"); err != nil {
			return nil, err
		}
	}
	if err := o.close(); err != nil {
		return nil, err
	}
	return &m, nil
}

// parseEntities decodes the array under key, naming elements "<kind> #n" from 1.
func parseEntities[T any](o *jsonObject, key, kind string, parse func([]byte, string) (T, error)) ([]T, error) {
	raw, err := o.array(key)
	if err != nil {
		return nil, err
	}
	if len(raw) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: map has %d %ss, the format stores at most %d", ErrTooManyEntities, len(raw), kind, math.MaxUint16)
	}
	items := make([]T, 0, len(raw))
	for i, item := range raw {
		v, err := parse(item, fmt.Sprintf("%s #%d", kind, i+1))
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	logger.Debug().Msgf("Parsed %d %ss", len(items), kind)
	return items, nil
}

// Equal reports whether both maps hold the same data. A nil and an empty table are equal.
func (m *Map) Equal(other *Map) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Version == other.Version &&
		m.PlayerSpawn == other.PlayerSpawn &&
		slices.Equal(m.Sectors, other.Sectors) &&
		slices.Equal(m.Walls, other.Walls) &&
		slices.Equal(m.Sprites, other.Sprites) &&
		bytes.Equal(m.TrailingData, other.TrailingData)
}

// SectorWalls returns the walls of sector i, or false when the sector or its wall range lies outside
// the map.
func (m *Map) SectorWalls(i int) ([]Wall, bool) {
	if i < 0 || i >= len(m.Sectors) {
		return nil, false
	}
	s := m.Sectors[i]
	first, end := int(s.FirstWallIndex), int(s.FirstWallIndex)+int(s.NumberOfWalls)
	if end > len(m.Walls) {
		return nil, false
	}
	return m.Walls[first:end:end], true
}

// SectorSprites returns the sprites placed in sector i, in map order.
func (m *Map) SectorSprites(i int) []Sprite {
	var sprites []Sprite
	for _, s := range m.Sprites {
		if int(s.SectorIndex) == i {
			sprites = append(sprites, s)
		}
	}
	return sprites
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// LoadMap reads a map file, as JSON when the extension is .json in any case and as binary otherwise.
func LoadMap(path string) (*Map, error) {
	logger.Info().Str("path", path).Msg("Loading map")
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to open map")
		return nil, err
	}
	var m *Map
	if isJSONPath(path) {
		m, err = parseMapJSON(data)
	} else {
		m, err = decodeMap(bytes.NewReader(data))
	}
	if err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		logger.Error().Err(err).Msg("Failed to load map")
		return nil, err
	}
	logger.Info().
		Str("path", path).
		Int("sectors", len(m.Sectors)).
		Int("walls", len(m.Walls)).
		Int("sprites", len(m.Sprites)).
		Msg("Loaded map")
	return m, nil
}

// Save writes the map to path, choosing the codec like LoadMap. An existing file is only replaced
// when overwrite is set; otherwise the error wraps ErrFileExists.
func (m *Map) Save(path string, overwrite bool) error {
	return m.SaveIndent(path, overwrite, DefaultJSONIndent)
}

// SaveIndent is Save with the JSON indentation given. Binary files ignore indent.
func (m *Map) SaveIndent(path string, overwrite bool, indent string) error {
	logger.Info().Str("path", path).Bool("overwrite", overwrite).Msg("Saving map")
	var data []byte
	var err error
	if isJSONPath(path) {
		data, err = json.MarshalIndent(m, "", indent)
	} else {
		data, err = m.encode()
	}
	if err == nil {
		err = writeFile(path, data, overwrite)
	}
	if err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		logger.Error().Err(err).Msg("Failed to save map")
		return err
	}
	logger.Info().Str("path", path).Int("bytes", len(data)).Msg("Saved map")
	return nil
}

func writeFile(path string, data []byte, overwrite bool) error {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: use overwrite to replace it", ErrFileExists)
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
