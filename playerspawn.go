package buildmap

import (
	"encoding/json"
	"fmt"
	"io"
)

// PlayerSpawnSize is the encoded size of the player start.
const PlayerSpawnSize = Point3DSize + 2 + 2

// Defaults the editor uses for a new map's player start.
const (
	DefaultSpawnX     = 32768
	DefaultSpawnY     = 32768
	DefaultSpawnAngle = 1536
)

// PlayerSpawn is where the first player starts. It follows the version header in every map version.
type PlayerSpawn struct {
	SectorItem
}

// NewPlayerSpawn returns the default player start, facing north.
func NewPlayerSpawn() PlayerSpawn {
	return PlayerSpawn{SectorItem{
		Position: Point3D{X: DefaultSpawnX, Y: DefaultSpawnY},
		angle:    DefaultSpawnAngle,
	}}
}

// ReadPlayerSpawn decodes the 16 byte player start.
func ReadPlayerSpawn(r io.Reader) (PlayerSpawn, error) {
	var b binSectorItem
	if err := readLE(r, &b); err != nil {
		return PlayerSpawn{}, fmt.Errorf("player spawn: %w", err)
	}
	item, err := sectorItemFromBin(b.Position, b.Angle, b.SectorIndex)
	if err != nil {
		return PlayerSpawn{}, fmt.Errorf("player spawn: %w", err)
	}
	return PlayerSpawn{item}, nil
}

// Encode writes the player start.
func (p PlayerSpawn) Encode(w io.Writer) error {
	return writeLE(w, p.bin())
}

func (p PlayerSpawn) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.jsonFields())
}

func (p *PlayerSpawn) UnmarshalJSON(data []byte) error {
	spawn, err := parsePlayerSpawnJSON(data)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse player spawn")
		return err
	}
	*p = spawn
	return nil
}

func parsePlayerSpawnJSON(data []byte) (PlayerSpawn, error) {
	o, err := newJSONObject("player spawn", data)
	if err != nil {
		return PlayerSpawn{}, err
	}
	item, err := parseSectorItem(o)
	if err != nil {
		return PlayerSpawn{}, err
	}
	return PlayerSpawn{item}, o.close()
}
