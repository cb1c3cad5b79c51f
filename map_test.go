package buildmap

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testMap builds two sectors sharing an edge: a square (walls 0-3) and a triangle (walls 4-6).
// Wall 1 and wall 6 are the two sides of the shared edge.
func testMap(t *testing.T, version uint32) *Map {
	t.Helper()
	m := NewMap(version)
	m.PlayerSpawn.Position = Point3D{X: 512, Y: 512, Z: 8192}
	require.NoError(t, m.PlayerSpawn.SetAngle(512))

	square := testSector(t, version, 0, 4)
	square.LowTag = 7
	triangle := testSector(t, version, 4, 3)
	m.Sectors = []Sector{square, triangle}

	corners := []Point2D{
		{X: 0, Y: 0}, {X: 1024, Y: 0}, {X: 1024, Y: 1024}, {X: 0, Y: 1024},
		{X: 1024, Y: 0}, {X: 2048, Y: 512}, {X: 1024, Y: 1024},
	}
	next := []uint16{1, 2, 3, 0, 5, 6, 4}
	for i, p := range corners {
		w := NewWall(p)
		w.NextWallIndex = next[i]
		w.TileNumber = uint16(100 + i)
		w.XRepeat = 8
		w.YRepeat = 8
		m.Walls = append(m.Walls, w)
	}
	m.Walls[1].NextSectorIndex = 1
	m.Walls[1].AdjacentWallIndex = 6
	m.Walls[6].NextSectorIndex = 0
	m.Walls[6].AdjacentWallIndex = 1
	m.Walls[3].HighTag = 2

	m.Sprites = []Sprite{
		testSprite(t, 0, 512, DrawFace),
		testSprite(t, 1, 1024, DrawWall),
	}
	m.TrailingData = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	return m
}

func emptyMapBytes(version byte) []byte {
	data := []byte{version, 0, 0, 0}
	data = append(data, make([]byte, PlayerSpawnSize)...)
	return append(data, 0, 0, 0, 0, 0, 0)
}

func TestReadMap_Empty(t *testing.T) {
	m, err := ReadMap(bytes.NewReader(emptyMapBytes(7)))
	require.NoError(t, err)

	assert.Equal(t, uint32(7), m.Version)
	assert.Empty(t, m.Sectors)
	assert.Empty(t, m.Walls)
	assert.Empty(t, m.Sprites)
	assert.Len(t, m.TrailingData, 0)
	assert.Equal(t, int16(0), m.PlayerSpawn.Angle())
}

func TestNewMap_Encode(t *testing.T) {
	m := NewMap(7)
	m.PlayerSpawn = PlayerSpawn{}
	data, err := m.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, emptyMapBytes(7), data)
	assert.Equal(t, len(data), m.SizeInBytes())
}

func TestMap_BinaryRoundTrip(t *testing.T) {
	for _, version := range []uint32{6, 7, 8} {
		m := testMap(t, version)
		data, err := m.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, data, m.SizeInBytes())
		assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, data[len(data)-4:])

		var got Map
		require.NoError(t, got.UnmarshalBinary(data))
		assert.True(t, m.Equal(&got), "version %d", version)
		assert.Equal(t, m.TrailingData, got.TrailingData)
	}
}

func TestMap_WriteTo(t *testing.T) {
	m := testMap(t, 7)
	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(m.SizeInBytes()), n)

	got, err := ReadMap(&buf)
	require.NoError(t, err)
	assert.True(t, m.Equal(got))
}

func TestMap_NoTrailingData(t *testing.T) {
	m := testMap(t, 7)
	m.TrailingData = nil
	data, err := m.MarshalBinary()
	require.NoError(t, err)

	got, err := ReadMap(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, got.TrailingData)
	assert.True(t, m.Equal(got))
}

func TestReadMap_Underrun(t *testing.T) {
	logs := captureLogs(t)

	m := testMap(t, 7)
	m.TrailingData = nil
	data, err := m.MarshalBinary()
	require.NoError(t, err)

	got, err := ReadMap(bytes.NewReader(data[:len(data)-1]))
	require.ErrorIs(t, err, ErrBufferUnderrun)
	assert.Contains(t, err.Error(), "sprite #2")
	assert.Nil(t, got)
	assert.Contains(t, logs.String(), "Failed to read map")

	_, err = ReadMap(bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrBufferUnderrun)
	assert.Contains(t, err.Error(), "map version")

	_, err = ReadMap(bytes.NewReader(emptyMapBytes(7)[:21]))
	require.ErrorIs(t, err, ErrBufferUnderrun)
	assert.Contains(t, err.Error(), "sector count")
}

func TestMap_UnmarshalBinaryKeepsTargetOnError(t *testing.T) {
	m := testMap(t, 7)
	before := *m
	err := m.UnmarshalBinary([]byte{7, 0})
	require.ErrorIs(t, err, ErrBufferUnderrun)
	assert.True(t, before.Equal(m))
}

func TestMap_TooManyEntities(t *testing.T) {
	m := NewMap(7)
	m.Sectors = make([]Sector, 65536)

	_, err := m.MarshalBinary()
	assert.ErrorIs(t, err, ErrTooManyEntities)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	assert.ErrorIs(t, err, ErrTooManyEntities)
	assert.Zero(t, buf.Len())

	m.Sectors = make([]Sector, 65535)
	data, err := m.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, m.SizeInBytes())
}

func TestMap_JSONRoundTrip(t *testing.T) {
	for _, version := range []uint32{6, 7} {
		m := testMap(t, version)
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var got Map
		require.NoError(t, json.Unmarshal(data, &got))
		assert.True(t, m.Equal(&got), "version %d", version)
	}
}

func TestMap_ZeroSectorRoundTrip(t *testing.T) {
	for _, version := range []uint32{6, 7} {
		m := NewMap(version)
		m.Sectors = []Sector{{}}

		data, err := json.Marshal(m)
		require.NoError(t, err)
		var fromJSON Map
		require.NoError(t, json.Unmarshal(data, &fromJSON))
		assert.True(t, m.Equal(&fromJSON), "version %d", version)

		data, err = m.MarshalBinary()
		require.NoError(t, err)
		fromBinary, err := ReadMap(bytes.NewReader(data))
		require.NoError(t, err)
		assert.True(t, m.Equal(fromBinary), "version %d", version)
	}
}

func TestMap_JSONEmpty(t *testing.T) {
	data, err := json.Marshal(&Map{Version: 7})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sectors":[]`)
	assert.Contains(t, string(data), `"walls":[]`)
	assert.Contains(t, string(data), `"sprites":[]`)
	assert.NotContains(t, string(data), "trailingData")

	var got Map
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Empty(t, got.Sectors)
	assert.Empty(t, got.TrailingData)
}

func TestMap_JSONErrors(t *testing.T) {
	logs := captureLogs(t)

	m := testMap(t, 7)
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	var sectors []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(fields["sectors"], &sectors))
	delete(sectors[1], "visibility")
	fields["sectors"], err = json.Marshal(sectors)
	require.NoError(t, err)
	broken, err := json.Marshal(fields)
	require.NoError(t, err)

	var got Map
	err = json.Unmarshal(broken, &got)
	require.ErrorIs(t, err, ErrMissingProperty)
	assert.Contains(t, err.Error(), "sector #2 is missing 'visibility' property")
	assert.Contains(t, logs.String(), "Failed to parse map")

	delete(fields, "walls")
	broken, err = json.Marshal(fields)
	require.NoError(t, err)
	assert.ErrorIs(t, json.Unmarshal(broken, &got), ErrMissingProperty)

	err = json.Unmarshal([]byte(`{"version": "7"}`), &got)
	assert.ErrorIs(t, err, ErrInvalidType)

	err = json.Unmarshal([]byte(`{"version": 7, "playerSpawn": {}, "sectors": {}, "walls": [], "sprites": []}`), &got)
	assert.ErrorIs(t, err, ErrMissingProperty)
}

func TestMap_Equal(t *testing.T) {
	a := testMap(t, 7)
	b := testMap(t, 7)
	assert.True(t, a.Equal(b))

	b.Walls[2].XPanning++
	assert.False(t, a.Equal(b))

	empty := NewMap(7)
	empty.PlayerSpawn = PlayerSpawn{}
	assert.True(t, (&Map{Version: 7}).Equal(empty), "nil and empty tables are equal")
	assert.False(t, a.Equal(nil))
}

func TestMap_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	for _, version := range []uint32{6, 7} {
		m := testMap(t, version)
		binPath := filepath.Join(dir, "level.map")
		jsonPath := filepath.Join(dir, "level.JSON")

		require.NoError(t, m.Save(binPath, true))
		require.NoError(t, m.Save(jsonPath, true))

		raw, err := os.ReadFile(jsonPath)
		require.NoError(t, err)
		assert.True(t, json.Valid(raw))
		assert.Contains(t, string(raw), "\n  \"version\"")

		fromBinary, err := LoadMap(binPath)
		require.NoError(t, err)
		fromJSON, err := LoadMap(jsonPath)
		require.NoError(t, err)

		assert.True(t, m.Equal(fromBinary), "version %d", version)
		assert.True(t, fromBinary.Equal(fromJSON), "version %d", version)
	}
}

func TestMap_SaveRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.map")
	m := testMap(t, 7)
	require.NoError(t, m.Save(path, false))

	other := NewMap(7)
	err := other.Save(path, false)
	require.ErrorIs(t, err, ErrFileExists)

	loaded, err := LoadMap(path)
	require.NoError(t, err)
	assert.True(t, m.Equal(loaded), "refused save must leave the file alone")

	require.NoError(t, other.Save(path, true))
	loaded, err = LoadMap(path)
	require.NoError(t, err)
	assert.True(t, other.Equal(loaded))
}

func TestMap_SaveIndent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.json")
	require.NoError(t, NewMap(7).SaveIndent(path, false, "\t"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n\t\"version\": 7")
}

func TestMap_SaveEncodeErrorCreatesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.map")
	m := testMap(t, 6)
	require.NoError(t, m.Sectors[0].Ceiling.Attributes.SetReserved(511))

	err := m.Save(path, false)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.NoFileExists(t, path)
}

func TestLoadMap_Missing(t *testing.T) {
	_, err := LoadMap(filepath.Join(t.TempDir(), "nothing.map"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMap_SectorWalls(t *testing.T) {
	m := testMap(t, 7)

	walls, ok := m.SectorWalls(1)
	require.True(t, ok)
	require.Len(t, walls, 3)
	assert.Equal(t, Point2D{X: 2048, Y: 512}, walls[1].Position)

	_, ok = m.SectorWalls(2)
	assert.False(t, ok)
	_, ok = m.SectorWalls(-1)
	assert.False(t, ok)

	m.Sectors[1].NumberOfWalls = 10
	_, ok = m.SectorWalls(1)
	assert.False(t, ok)
}

func TestMap_SectorSprites(t *testing.T) {
	m := testMap(t, 7)
	sprites := m.SectorSprites(1)
	require.Len(t, sprites, 1)
	assert.Equal(t, DrawWall, sprites[0].Attributes.DrawType)
	assert.Empty(t, m.SectorSprites(5))
}
