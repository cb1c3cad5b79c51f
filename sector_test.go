package buildmap

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs routes the package logger into a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { SetLogger(zerolog.Nop()) })
	return &buf
}

// testSector fills every field the given version can store.
func testSector(t *testing.T, version uint32, firstWall, numWalls uint16) Sector {
	t.Helper()
	var s Sector
	s.FirstWallIndex = firstWall
	s.NumberOfWalls = numWalls

	s.Ceiling.Height = -16384
	s.Ceiling.Slope = 100
	s.Ceiling.TileNumber = 12
	s.Ceiling.Shade = -8
	s.Ceiling.PaletteLookupTableNumber = 2
	s.Ceiling.XPanning = 1
	s.Ceiling.YPanning = 2
	s.Ceiling.Attributes.Parallaxing = true
	s.Ceiling.Attributes.Sloped = true

	s.Floor.Height = 8192
	s.Floor.Slope = -20
	s.Floor.TileNumber = 34
	s.Floor.Shade = 5
	s.Floor.XPanning = 3
	s.Floor.YPanning = 4
	s.Floor.Attributes.AlignToFirstWall = true

	s.Visibility = 4
	s.Extra = 65535

	if version == LegacyVersion {
		s.TrailingData = [3]byte{1, 2, 3}
	} else {
		s.Filler = 5
		require.NoError(t, s.Floor.Attributes.SetReserved(300))
	}
	return s
}

func TestPartitionSize(t *testing.T) {
	assert.Equal(t, 13, PartitionSize(6))
	assert.Equal(t, 14, PartitionSize(7))
	assert.Equal(t, 14, PartitionSize(0))
	assert.Equal(t, 14, PartitionSize(8))
}

func TestPartitionAttributes_Reserved(t *testing.T) {
	var a PartitionAttributes
	require.NoError(t, a.SetReserved(MaxPartitionReserved))
	assert.Equal(t, uint16(511), a.Reserved())

	err := a.SetReserved(512)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, uint16(511), a.Reserved())
}

func TestPartitionAttributes_Pack(t *testing.T) {
	a := PartitionAttributes{Sloped: true, YFlipped: true}
	require.NoError(t, a.SetReserved(3))
	assert.Equal(t, uint16(0x02|0x20|3<<7), a.Pack())
	assert.Equal(t, a, UnpackPartitionAttributes(a.Pack()))

	all := UnpackPartitionAttributes(0xFFFF)
	assert.True(t, all.Parallaxing && all.Sloped && all.SwapXY && all.DoubleSmooshiness)
	assert.True(t, all.XFlipped && all.YFlipped && all.AlignToFirstWall)
	assert.Equal(t, uint16(511), all.Reserved())
	assert.Equal(t, uint16(0xFFFF), all.Pack())
}

func TestPartition_JSON(t *testing.T) {
	p := Partition{Height: -4096, Slope: 7, XPanning: 8, YPanning: 9}
	p.TileNumber = 99
	p.Attributes.SwapXY = true
	require.NoError(t, p.Attributes.SetReserved(17))

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "type")

	var got Partition
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, p, got)

	bad := bytes.Replace(data, []byte(`"reserved":17`), []byte(`"reserved":512`), 1)
	require.NotEqual(t, data, bad)
	assert.ErrorIs(t, json.Unmarshal(bad, &got), ErrOutOfRange)
}

func TestSectorSize(t *testing.T) {
	assert.Equal(t, 40, SectorSize(6))
	assert.Equal(t, 40, SectorSize(7))
	assert.Equal(t, 40, binary.Size(binSectorV6{}))
	assert.Equal(t, 40, binary.Size(binSectorV7{}))
}

func TestSector_BinaryRoundTrip(t *testing.T) {
	for _, version := range []uint32{6, 7, 9} {
		s := testSector(t, version, 10, 4)

		var buf bytes.Buffer
		require.NoError(t, s.Encode(&buf, version))
		require.Equal(t, SectorSize(version), buf.Len(), "version %d", version)

		got, err := ReadSector(&buf, version)
		require.NoError(t, err)
		assert.Equal(t, s, *got, "version %d", version)
	}
}

func TestSector_ZeroValueRoundTrip(t *testing.T) {
	var s Sector
	for _, version := range []uint32{6, 7} {
		var buf bytes.Buffer
		require.NoError(t, s.Encode(&buf, version))
		got, err := ReadSector(&buf, version)
		require.NoError(t, err)
		assert.Equal(t, s, *got, "version %d", version)
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var got Sector
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, s, got)
}

func TestSector_LayoutsDiffer(t *testing.T) {
	s := testSector(t, 7, 10, 4)
	s.Floor.Attributes = PartitionAttributes{AlignToFirstWall: true}

	var legacy, modern bytes.Buffer
	require.NoError(t, s.Encode(&legacy, 6))
	require.NoError(t, s.Encode(&modern, 7))
	require.Equal(t, legacy.Len(), modern.Len())
	assert.NotEqual(t, legacy.Bytes(), modern.Bytes())

	// Both layouts open with the wall range.
	assert.Equal(t, legacy.Bytes()[:4], modern.Bytes()[:4])
	// Legacy continues with the tile numbers, modern with the heights.
	assert.Equal(t, uint16(12), binary.LittleEndian.Uint16(legacy.Bytes()[4:6]))
	assert.Equal(t, int32(-16384), int32(binary.LittleEndian.Uint32(modern.Bytes()[4:8])))
	assert.Equal(t, int32(-16384), int32(binary.LittleEndian.Uint32(legacy.Bytes()[12:16])))
}

func TestSector_LegacyAttributeWidth(t *testing.T) {
	s := testSector(t, 6, 0, 0)
	require.NoError(t, s.Ceiling.Attributes.SetReserved(2))

	var buf bytes.Buffer
	err := s.Encode(&buf, 6)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Zero(t, buf.Len(), "nothing is written on error")

	require.NoError(t, s.Encode(&buf, 7))
}

func TestSector_ReadShort(t *testing.T) {
	got, err := ReadSector(bytes.NewReader(make([]byte, 39)), 7)
	assert.ErrorIs(t, err, ErrBufferUnderrun)
	assert.Nil(t, got)
}

func TestSector_JSONRoundTrip(t *testing.T) {
	for _, version := range []uint32{6, 7} {
		s := testSector(t, version, 3, 5)
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var got Sector
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, s, got)
	}
}

func TestSector_JSONTrailingData(t *testing.T) {
	legacy, err := json.Marshal(testSector(t, 6, 0, 0))
	require.NoError(t, err)
	assert.Contains(t, string(legacy), `"trailingData":[1,2,3]`)

	modern, err := json.Marshal(testSector(t, 7, 0, 0))
	require.NoError(t, err)
	assert.NotContains(t, string(modern), "trailingData")

	bad := bytes.Replace(legacy, []byte(`[1,2,3]`), []byte(`[1,2]`), 1)
	var got Sector
	assert.ErrorIs(t, json.Unmarshal(bad, &got), ErrOutOfRange)
}

func TestSector_JSONMissingFloor(t *testing.T) {
	logs := captureLogs(t)

	data, err := json.Marshal(testSector(t, 7, 0, 0))
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	delete(fields, "floor")
	data, err = json.Marshal(fields)
	require.NoError(t, err)

	var got Sector
	err = json.Unmarshal(data, &got)
	require.ErrorIs(t, err, ErrMissingProperty)
	assert.Contains(t, err.Error(), "sector is missing 'floor' property")
	assert.Equal(t, Sector{}, got)

	assert.Contains(t, logs.String(), "Failed to parse sector")
	assert.Contains(t, logs.String(), "'floor'")
}

func TestSector_JSONStrict(t *testing.T) {
	data, err := json.Marshal(testSector(t, 7, 0, 0))
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	fields["lightLevel"] = json.RawMessage(`3`)
	unknown, err := json.Marshal(fields)
	require.NoError(t, err)

	var got Sector
	assert.ErrorIs(t, json.Unmarshal(unknown, &got), ErrUnknownProperty)

	delete(fields, "lightLevel")
	fields["visibility"] = json.RawMessage(`256`)
	wide, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.ErrorIs(t, json.Unmarshal(wide, &got), ErrOutOfRange)
}

func TestSector_Partition(t *testing.T) {
	var s Sector
	s.Partition(Ceiling).Height = 1
	s.Partition(Floor).Height = 2
	assert.Equal(t, int32(1), s.Ceiling.Height)
	assert.Equal(t, int32(2), s.Floor.Height)
	assert.Equal(t, "ceiling", Ceiling.String())
	assert.Equal(t, "floor", Floor.String())
}

func TestSector_LegacyAttributeErrorNamesSlot(t *testing.T) {
	var s Sector
	require.NoError(t, s.Floor.Attributes.SetReserved(4))

	err := s.Encode(&bytes.Buffer{}, 6)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "floor attributes")
}
