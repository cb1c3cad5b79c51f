package buildmap

import (
	"fmt"
	"io"
)

// PrintTree writes the sectors of m with their walls and sprites indented below them. Sprites whose
// sector index matches no sector are listed last.
func PrintTree(w io.Writer, m *Map) error {
	p := treePrinter{w: w}
	p.line("", "- map v%d (%s), %d sectors, %d walls, %d sprites",
		m.Version, layoutFor(m.Version), len(m.Sectors), len(m.Walls), len(m.Sprites))
	p.line("   ", "- spawn at %v angle %d in sector %d",
		m.PlayerSpawn.Position, m.PlayerSpawn.Angle(), m.PlayerSpawn.SectorIndex)

	for i, s := range m.Sectors {
		p.line("   ", "- sector %d: floor %d, ceiling %d%s",
			i, s.Floor.Height, s.Ceiling.Height, tagLabel(s.TaggedItem))
		walls, ok := m.SectorWalls(i)
		switch {
		case !ok && s.NumberOfWalls == 0:
			p.line("      ", "- no walls, first wall %d out of range", s.FirstWallIndex)
		case !ok:
			p.line("      ", "- walls [%d, %d) out of range",
				s.FirstWallIndex, int(s.FirstWallIndex)+int(s.NumberOfWalls))
		}
		for j, wall := range walls {
			p.line("      ", "- wall %d at %v%s%s",
				int(s.FirstWallIndex)+j, wall.Position, portal(wall), tagLabel(wall.TaggedItem))
		}
		for _, sprite := range m.SectorSprites(i) {
			p.sprite("      ", sprite)
		}
	}

	for _, sprite := range m.Sprites {
		if int(sprite.SectorIndex) >= len(m.Sectors) {
			p.sprite("   ", sprite)
		}
	}
	return p.err
}

type treePrinter struct {
	w   io.Writer
	err error
}

// line stops writing after the first error.
func (p *treePrinter) line(prefix, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, prefix+format+"\n", args...)
}

func (p *treePrinter) sprite(prefix string, s Sprite) {
	p.line(prefix, "- sprite tile %d at %v angle %d, %s, status %d%s",
		s.TileNumber, s.Position, s.Angle(), s.Attributes.DrawType, s.StatusNumber, tagLabel(s.TaggedItem))
}

func portal(w Wall) string {
	if !w.HasNextSector() {
		return ""
	}
	return fmt.Sprintf(" -> sector %d", w.NextSectorIndex)
}

func tagLabel(t TaggedItem) string {
	if !t.HasLowTag() && !t.HasHighTag() {
		return ""
	}
	return fmt.Sprintf(" [lo %d hi %d]", t.LowTag, t.HighTag)
}
