package engine

import (
	"math"
	"sort"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
)

// GuidelineSolver derives alignment guidelines and per-net restricted
// center lines from chip and pin geometry. It completes in one step.
type GuidelineSolver struct {
	solver.Base

	schematic *model.Schematic
	nets      []Net
	clearance float64

	Guidelines      []model.Guideline
	RestrictedLines []model.RestrictedCenterLine
}

// NewGuidelineSolver prepares a guideline pass over the fitted chips.
func NewGuidelineSolver(s *model.Schematic, nets []Net, settings model.Settings) *GuidelineSolver {
	return &GuidelineSolver{
		Base:      solver.Base{Name: "guidelines", MaxIterations: settings.MaxIterations},
		schematic: s,
		nets:      nets,
		clearance: settings.GuidelineClearance,
	}
}

func (g *GuidelineSolver) Step() {
	chips := g.schematic.Chips()
	g.Guidelines = append(
		axisGuidelines(chips, geom.Vertical, g.clearance),
		axisGuidelines(chips, geom.Horizontal, g.clearance)...,
	)
	g.RestrictedLines = restrictedCenterLines(g.schematic, g.nets)
	g.MarkSolved()
}

// axisGuidelines collects the coordinates along one axis: pin positions,
// chip edges pushed out by clearance, and the midline of every gap between
// two chips that do not overlap on that axis. A vertical guideline fixes x.
func axisGuidelines(chips []model.Chip, o geom.Orientation, clearance float64) []model.Guideline {
	lo := func(b geom.Bounds) float64 { return b.MinY }
	hi := func(b geom.Bounds) float64 { return b.MaxY }
	pinCoord := func(p model.Pin) float64 { return p.Y }
	if o == geom.Vertical {
		lo = func(b geom.Bounds) float64 { return b.MinX }
		hi = func(b geom.Bounds) float64 { return b.MaxX }
		pinCoord = func(p model.Pin) float64 { return p.X }
	}

	var coords []float64
	for _, c := range chips {
		for _, p := range c.Pins {
			coords = append(coords, pinCoord(p))
		}
		b := c.Bounds()
		coords = append(coords, lo(b)-clearance, hi(b)+clearance)
	}
	for i := range chips {
		for j := range chips {
			bi, bj := chips[i].Bounds(), chips[j].Bounds()
			if i != j && hi(bi) < lo(bj) {
				coords = append(coords, (hi(bi)+lo(bj))/2)
			}
		}
	}

	coords = dedupeSorted(coords)
	out := make([]model.Guideline, len(coords))
	for i, c := range coords {
		out[i] = model.Guideline{Orientation: o, Coord: c}
	}
	return out
}

// dedupeSorted sorts vals and drops values within geom.Epsilon of their
// predecessor.
func dedupeSorted(vals []float64) []float64 {
	sort.Float64s(vals)
	out := vals[:0]
	for _, v := range vals {
		if len(out) > 0 && math.Abs(v-out[len(out)-1]) <= geom.Epsilon {
			continue
		}
		out = append(out, v)
	}
	return out
}

// restrictedCenterLines returns, per net, the center line of each chip a
// net pin faces out of. A pin facing x± restricts the vertical line through
// the chip center, spanning the chip's height; y± is symmetric.
func restrictedCenterLines(s *model.Schematic, nets []Net) []model.RestrictedCenterLine {
	var out []model.RestrictedCenterLine
	for _, n := range nets {
		seen := map[string]bool{}
		for _, pinID := range n.PinIDs {
			pin, ok := s.Pin(pinID)
			if !ok {
				continue
			}
			chip, ok := s.Chip(pin.ChipID)
			if !ok {
				continue
			}
			facing := s.Facing(pinID)
			if facing == model.DirUnknown {
				continue
			}
			b := chip.Bounds()
			line := model.RestrictedCenterLine{NetID: n.ID, ChipID: chip.ChipID}
			if facing.IsHorizontal() {
				line.Orientation = geom.Vertical
				line.Coord = chip.Center.X
				line.SpanMin, line.SpanMax = b.MinY, b.MaxY
			} else {
				line.Orientation = geom.Horizontal
				line.Coord = chip.Center.Y
				line.SpanMin, line.SpanMax = b.MinX, b.MaxX
			}
			key := chip.ChipID + "/" + string(line.Orientation)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, line)
		}
	}
	return out
}

func (g *GuidelineSolver) Visualize() graphics.Graphics {
	out := graphics.Graphics{Title: g.Name}
	var extent geom.Bounds
	for i, c := range g.schematic.Chips() {
		if i == 0 {
			extent = c.Bounds()
		} else {
			extent = extent.Union(c.Bounds())
		}
	}
	extent = extent.Expand(1)
	for _, gl := range g.Guidelines {
		line := graphics.Line{StrokeColor: "#cccccc", Dashed: true, Step: g.Iterations}
		if gl.Orientation == geom.Vertical {
			line.Points = []geom.Point{geom.Pt(gl.Coord, extent.MinY), geom.Pt(gl.Coord, extent.MaxY)}
		} else {
			line.Points = []geom.Point{geom.Pt(extent.MinX, gl.Coord), geom.Pt(extent.MaxX, gl.Coord)}
		}
		out.Lines = append(out.Lines, line)
	}
	for _, rl := range g.RestrictedLines {
		line := graphics.Line{StrokeColor: "#ff8888", Label: rl.NetID, Step: g.Iterations}
		if rl.Orientation == geom.Vertical {
			line.Points = []geom.Point{geom.Pt(rl.Coord, rl.SpanMin), geom.Pt(rl.Coord, rl.SpanMax)}
		} else {
			line.Points = []geom.Point{geom.Pt(rl.SpanMin, rl.Coord), geom.Pt(rl.SpanMax, rl.Coord)}
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}
