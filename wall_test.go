package buildmap

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWall(t *testing.T) Wall {
	t.Helper()
	w := NewWall(Point2D{X: -512, Y: 1024})
	w.NextWallIndex = 1
	w.AdjacentWallIndex = 20
	w.NextSectorIndex = 3
	w.Attributes.Masked = true
	w.Attributes.ReverseTranslucent = true
	require.NoError(t, w.Attributes.SetReserved(MaxWallReserved))
	w.TileNumber = 400
	w.Shade = -12
	w.PaletteLookupTableNumber = 1
	w.MaskedTileNumber = 401
	w.XRepeat = 8
	w.YRepeat = 16
	w.XPanning = 32
	w.YPanning = 64
	w.LowTag = 5
	w.HighTag = 6
	return w
}

func TestWallAttributes_Reserved(t *testing.T) {
	var a WallAttributes
	require.NoError(t, a.SetReserved(63))
	assert.Equal(t, uint8(63), a.Reserved())
	assert.ErrorIs(t, a.SetReserved(64), ErrOutOfRange)
	assert.Equal(t, uint8(63), a.Reserved())
}

func TestWallAttributes_Pack(t *testing.T) {
	a := WallAttributes{BlockClipping: true, YFlipped: true}
	require.NoError(t, a.SetReserved(1))
	assert.Equal(t, uint16(0x001|0x100|1<<10), a.Pack())
	assert.Equal(t, a, UnpackWallAttributes(a.Pack()))

	all := UnpackWallAttributes(0xFFFF)
	assert.Equal(t, uint8(63), all.Reserved())
	assert.Equal(t, uint16(0xFFFF), all.Pack())
}

func TestNewWall_Unlinked(t *testing.T) {
	w := NewWall(Point2D{})
	assert.False(t, w.HasAdjacentWall())
	assert.False(t, w.HasNextSector())

	w.NextSectorIndex = 0
	w.AdjacentWallIndex = 0
	assert.True(t, w.HasAdjacentWall())
	assert.True(t, w.HasNextSector())
}

func TestWallSize(t *testing.T) {
	assert.Equal(t, 32, WallSize(6))
	assert.Equal(t, 32, WallSize(7))
	assert.Equal(t, 32, binary.Size(binWallV6{}))
	assert.Equal(t, 32, binary.Size(binWallV7{}))
}

func TestWall_BinaryRoundTrip(t *testing.T) {
	w := testWall(t)
	for _, version := range []uint32{6, 7} {
		var buf bytes.Buffer
		require.NoError(t, w.Encode(&buf, version))
		require.Equal(t, WallSize(version), buf.Len())

		got, err := ReadWall(&buf, version)
		require.NoError(t, err)
		assert.Equal(t, w, *got, "version %d", version)
	}
}

func TestWall_Layouts(t *testing.T) {
	w := testWall(t)
	var legacy, modern bytes.Buffer
	require.NoError(t, w.Encode(&legacy, 6))
	require.NoError(t, w.Encode(&modern, 7))
	assert.NotEqual(t, legacy.Bytes(), modern.Bytes())

	le := binary.LittleEndian
	// Legacy puts the next sector between the wall links.
	assert.Equal(t, uint16(3), le.Uint16(legacy.Bytes()[10:12]))
	assert.Equal(t, uint16(20), le.Uint16(legacy.Bytes()[12:14]))
	assert.Equal(t, uint16(20), le.Uint16(modern.Bytes()[10:12]))
	assert.Equal(t, uint16(3), le.Uint16(modern.Bytes()[12:14]))

	// Attributes come before the tile in the modern layout and after the palette in the legacy one.
	assert.Equal(t, w.Attributes.Pack(), le.Uint16(modern.Bytes()[14:16]))
	assert.Equal(t, uint16(400), le.Uint16(modern.Bytes()[16:18]))
	assert.Equal(t, uint16(400), le.Uint16(legacy.Bytes()[14:16]))
	assert.Equal(t, w.Attributes.Pack(), le.Uint16(legacy.Bytes()[20:22]))
}

func TestWall_ReadShort(t *testing.T) {
	got, err := ReadWall(bytes.NewReader(make([]byte, 31)), 6)
	assert.ErrorIs(t, err, ErrBufferUnderrun)
	assert.Nil(t, got)
}

func TestWall_JSON(t *testing.T) {
	w := testWall(t)
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"masked":true`)
	assert.Contains(t, string(data), `"nextSectorIndex":3`)

	var got Wall
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, w, got)

	bad := bytes.Replace(data, []byte(`"reserved":63`), []byte(`"reserved":64`), 1)
	require.NotEqual(t, data, bad)
	assert.ErrorIs(t, json.Unmarshal(bad, &got), ErrOutOfRange)

	wide := bytes.Replace(data, []byte(`"xRepeat":8`), []byte(`"xRepeat":300`), 1)
	require.NotEqual(t, data, wide)
	assert.ErrorIs(t, json.Unmarshal(wide, &got), ErrOutOfRange)
}
