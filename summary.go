package buildmap

import (
	"math"

	"gopkg.in/yaml.v3"
)

// BoundBox is the extent of the wall vertices in map units. Y grows downwards, so Top <= Bottom.
type BoundBox struct {
	Left   int32 `yaml:"left"`
	Right  int32 `yaml:"right"`
	Top    int32 `yaml:"top"`
	Bottom int32 `yaml:"bottom"`
}

func newBBox() *BoundBox {
	return &BoundBox{
		Left:   math.MaxInt32,
		Right:  math.MinInt32,
		Top:    math.MaxInt32,
		Bottom: math.MinInt32,
	}
}

func (b *BoundBox) add(p Point2D) {
	b.Left = min(b.Left, p.X)
	b.Right = max(b.Right, p.X)
	b.Top = min(b.Top, p.Y)
	b.Bottom = max(b.Bottom, p.Y)
}

// Width and Height widen to int64 so opposite extremes do not overflow.
func (b BoundBox) Width() int64  { return int64(b.Right) - int64(b.Left) }
func (b BoundBox) Height() int64 { return int64(b.Bottom) - int64(b.Top) }

type SpawnSummary struct {
	Position Point3D `yaml:"position"`
	Angle    int16   `yaml:"angle"`
	Degrees  float64 `yaml:"degrees"`
	Sector   uint16  `yaml:"sector"`
}

// TagCounts counts entities with a non-zero low or high tag.
type TagCounts struct {
	Sectors int `yaml:"sectors"`
	Walls   int `yaml:"walls"`
	Sprites int `yaml:"sprites"`
}

// Summary describes a map at a glance.
type Summary struct {
	Version       uint32         `yaml:"version"`
	Layout        string         `yaml:"layout"`
	SizeInBytes   int            `yaml:"sizeInBytes"`
	Sectors       int            `yaml:"sectors"`
	Walls         int            `yaml:"walls"`
	Sprites       int            `yaml:"sprites"`
	TrailingBytes int            `yaml:"trailingBytes"`
	PlayerSpawn   SpawnSummary   `yaml:"playerSpawn"`
	Bounds        *BoundBox      `yaml:"bounds,omitempty"`
	Tagged        TagCounts      `yaml:"tagged"`
	OneSidedWalls int            `yaml:"oneSidedWalls"`
	DrawTypes     map[string]int `yaml:"drawTypes,omitempty"`
}

func (m *Map) Summary() Summary {
	s := Summary{
		Version:       m.Version,
		Layout:        layoutFor(m.Version).String(),
		SizeInBytes:   m.SizeInBytes(),
		Sectors:       len(m.Sectors),
		Walls:         len(m.Walls),
		Sprites:       len(m.Sprites),
		TrailingBytes: len(m.TrailingData),
		PlayerSpawn: SpawnSummary{
			Position: m.PlayerSpawn.Position,
			Angle:    m.PlayerSpawn.Angle(),
			Degrees:  m.PlayerSpawn.AngleDegrees(),
			Sector:   m.PlayerSpawn.SectorIndex,
		},
	}
	for _, sector := range m.Sectors {
		if sector.HasLowTag() || sector.HasHighTag() {
			s.Tagged.Sectors++
		}
	}
	if len(m.Walls) > 0 {
		s.Bounds = newBBox()
	}
	for _, w := range m.Walls {
		s.Bounds.add(w.Position)
		if w.HasLowTag() || w.HasHighTag() {
			s.Tagged.Walls++
		}
		if !w.HasNextSector() {
			s.OneSidedWalls++
		}
	}
	for _, sprite := range m.Sprites {
		if sprite.HasLowTag() || sprite.HasHighTag() {
			s.Tagged.Sprites++
		}
		if s.DrawTypes == nil {
			s.DrawTypes = make(map[string]int)
		}
		s.DrawTypes[sprite.Attributes.DrawType.String()]++
	}
	return s
}

// YAML renders the summary for the command line.
func (s Summary) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
