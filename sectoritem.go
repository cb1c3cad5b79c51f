package buildmap

import (
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Build angles are fixed point: a full turn is 2048 units, 0 faces east and 512 faces south.
const (
	AngleUnits = 2048
	MaxAngle   = AngleUnits - 1
)

// SectorItem is an object placed in a sector: a position, a facing angle and the owning sector.
type SectorItem struct {
	Position    Point3D
	angle       int16
	SectorIndex uint16
}

// NewSectorItem validates angle before building the item.
func NewSectorItem(position Point3D, angle int16, sectorIndex uint16) (SectorItem, error) {
	item := SectorItem{Position: position, SectorIndex: sectorIndex}
	if err := item.SetAngle(angle); err != nil {
		return SectorItem{}, err
	}
	return item, nil
}

func (s SectorItem) Angle() int16 { return s.angle }

func (s SectorItem) AngleDegrees() float64 { return AngleToDegrees(s.angle) }

func (s SectorItem) AngleRadians() float64 { return AngleToRadians(s.angle) }

// SetAngle fails with ErrOutOfRange outside [0, MaxAngle] and leaves the angle untouched.
func (s *SectorItem) SetAngle(angle int16) error {
	if err := checkAngle(angle); err != nil {
		return err
	}
	s.angle = angle
	return nil
}

func (s *SectorItem) SetAngleDegrees(degrees float64) error {
	angle, err := AngleFromDegrees(degrees)
	if err != nil {
		return err
	}
	s.angle = angle
	return nil
}

func (s *SectorItem) SetAngleRadians(radians float64) error {
	angle, err := AngleFromRadians(radians)
	if err != nil {
		return err
	}
	s.angle = angle
	return nil
}

func checkAngle[T constraints.Integer](angle T) error {
	return checkRange("angle", int64(angle), 0, MaxAngle)
}

// AngleFromDegrees scales degrees to Build units, truncating toward zero.
func AngleFromDegrees(degrees float64) (int16, error) {
	return scaledAngle(degrees*AngleUnits/360, "degrees", degrees)
}

// AngleFromRadians scales radians to Build units, truncating toward zero.
func AngleFromRadians(radians float64) (int16, error) {
	return scaledAngle(radians*(AngleUnits/2)/math.Pi, "radians", radians)
}

func scaledAngle(scaled float64, unit string, input float64) (int16, error) {
	if math.IsNaN(scaled) || scaled <= -1 || scaled >= AngleUnits {
		return 0, fmt.Errorf("%w: %v %s is %v angle units, must be between 0 and %d", ErrOutOfRange, input, unit, scaled, MaxAngle)
	}
	return int16(scaled), nil
}

func AngleToDegrees(angle int16) float64 {
	return float64(angle) * 360 / AngleUnits
}

func AngleToRadians(angle int16) float64 {
	return degreesToRadians(AngleToDegrees(angle))
}

func degreesToRadians[T constraints.Integer | constraints.Float](n T) float64 {
	return float64(n) * (math.Pi / 180)
}

type jsonSectorItem struct {
	Position    Point3D `json:"position"`
	Angle       int16   `json:"angle"`
	SectorIndex uint16  `json:"sectorIndex"`
}

func (s SectorItem) jsonFields() jsonSectorItem {
	return jsonSectorItem{Position: s.Position, Angle: s.angle, SectorIndex: s.SectorIndex}
}

func (s SectorItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.jsonFields())
}

func (s *SectorItem) UnmarshalJSON(data []byte) error {
	o, err := newJSONObject("sector item", data)
	if err != nil {
		return err
	}
	item, err := parseSectorItem(o)
	if err == nil {
		err = o.close()
	}
	if err != nil {
		logger.Error().Err(err).Msg("Invalid sector item")
		return err
	}
	*s = item
	return nil
}

// parseSectorItem reads position, angle and sectorIndex from the owning entity's object.
func parseSectorItem(o *jsonObject) (SectorItem, error) {
	position, err := o.object("position")
	if err != nil {
		return SectorItem{}, err
	}
	var item SectorItem
	if item.Position, err = parsePoint3D(position); err != nil {
		return SectorItem{}, err
	}
	angle, err := jsonInteger[int16](o, "angle")
	if err != nil {
		return SectorItem{}, err
	}
	if err := item.SetAngle(angle); err != nil {
		return SectorItem{}, fmt.Errorf("%s: %w", o.name, err)
	}
	if item.SectorIndex, err = jsonInteger[uint16](o, "sectorIndex"); err != nil {
		return SectorItem{}, err
	}
	return item, nil
}

// binSectorItem is the contiguous form used by the player spawn.
type binSectorItem struct {
	Position    binPoint3D
	Angle       int16
	SectorIndex uint16
}

func (s SectorItem) bin() binSectorItem {
	return binSectorItem{Position: s.Position.bin(), Angle: s.angle, SectorIndex: s.SectorIndex}
}

// sectorItemFromBin rejects angles outside the valid range.
func sectorItemFromBin(position binPoint3D, angle int16, sectorIndex uint16) (SectorItem, error) {
	return NewSectorItem(Point3D(position), angle, sectorIndex)
}
