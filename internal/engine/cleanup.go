package engine

import (
	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
	"github.com/piwi3910/SchemTrace/internal/spatial"
)

// CleanupPath simplifies pts until nothing changes: duplicate and collinear
// points go, and U-shaped notches collapse to an L (or a straight run when
// the ends line up) whenever the shortcut is shorter and collides reports
// it clear. Points of keep lying on pts stay on the path, so pins a merged
// trace passes through are never cut off. A nil collides accepts every
// shortcut. The result is a fixed point, so cleaning twice equals cleaning
// once.
func CleanupPath(pts []geom.Point, keep []geom.Point, collides func([]geom.Point) bool) []geom.Point {
	var held []geom.Point
	for _, k := range keep {
		if geom.OnPath(pts, k) {
			held = append(held, k)
		}
	}
	cur := geom.SimplifyKeeping(pts, held)
	for {
		next := geom.SimplifyKeeping(collapseNotch(cur, held, collides), held)
		if samePath(next, cur) {
			return cur
		}
		cur = next
	}
}

// collapseNotch replaces the first collapsible notch p0-p1-p2-p3, where
// p0→p1 and p2→p3 run in opposite directions.
func collapseNotch(pts []geom.Point, keep []geom.Point, collides func([]geom.Point) bool) []geom.Point {
	length := geom.PathLength(pts)
	for i := 0; i+3 < len(pts); i++ {
		p0, p1, p2, p3 := pts[i], pts[i+1], pts[i+2], pts[i+3]
		d1x, d1y := p1.X-p0.X, p1.Y-p0.Y
		d3x, d3y := p3.X-p2.X, p3.Y-p2.Y
		if d1x*d3x+d1y*d3y >= 0 {
			continue
		}

		var shortcuts [][]geom.Point
		if geom.IsOrthogonal(p0, p3) {
			shortcuts = append(shortcuts, nil)
		} else {
			shortcuts = append(shortcuts,
				[]geom.Point{geom.Pt(p0.X, p3.Y)},
				[]geom.Point{geom.Pt(p3.X, p0.Y)},
			)
		}
		for _, mid := range shortcuts {
			cand := make([]geom.Point, 0, len(pts))
			cand = append(cand, pts[:i+1]...)
			cand = append(cand, mid...)
			cand = append(cand, pts[i+3:]...)
			if geom.PathLength(cand) >= length-geom.Epsilon {
				continue
			}
			if !geom.IsOrthogonalPath(cand) || !geom.CoversAll(cand, keep) {
				continue
			}
			if collides != nil && collides(cand) {
				continue
			}
			return cand
		}
	}
	return pts
}

func samePath(a, b []geom.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Near(b[i]) {
			return false
		}
	}
	return true
}

// endpointPin finds the trace pin sitting at p.
func endpointPin(s *model.Schematic, t model.TracePath, p geom.Point) model.PinRef {
	for _, id := range t.PinIDs {
		if ref, ok := s.PinRef(id); ok && ref.Point.Near(p) {
			return ref
		}
	}
	return model.PinRef{}
}

// newTraceChecker builds a checker for an existing trace: every chip the
// trace touches is treated as its own.
func newTraceChecker(s *model.Schematic, idx *spatial.Index, t model.TracePath, settings model.Settings) pathChecker {
	c := pathChecker{
		index:     idx,
		opts:      spatial.CrossOptions{Margin: settings.ObstacleMargin},
		ownMargin: settings.OwnChipMargin,
	}
	if len(t.Points) > 0 {
		c.start = endpointPin(s, t, t.Points[0])
		c.end = endpointPin(s, t, t.Points[len(t.Points)-1])
	}
	for _, id := range t.ChipIDs {
		if containsString(c.opts.ExcludeIDs, id) {
			continue
		}
		c.opts.ExcludeIDs = append(c.opts.ExcludeIDs, id)
		if chip, ok := s.Chip(id); ok {
			c.own = append(c.own, ownChip{id: id, bounds: chip.Bounds()})
		}
	}
	return c
}

// pinPoints returns where the trace's pins sit.
func pinPoints(s *model.Schematic, t model.TracePath) []geom.Point {
	out := make([]geom.Point, 0, len(t.PinIDs))
	for _, id := range t.PinIDs {
		if ref, ok := s.PinRef(id); ok {
			out = append(out, ref.Point)
		}
	}
	return out
}

// foreignPinPoints returns every pin of the schematic the trace does not own.
func foreignPinPoints(s *model.Schematic, t model.TracePath) []geom.Point {
	var out []geom.Point
	for _, id := range s.PinIDs() {
		if containsString(t.PinIDs, id) {
			continue
		}
		if ref, ok := s.PinRef(id); ok {
			out = append(out, ref.Point)
		}
	}
	return out
}

// restrictedCrossings counts the segments of pts crossing a restricted
// center line of another net.
func restrictedCrossings(pts []geom.Point, netID string, lines []model.RestrictedCenterLine) int {
	n := 0
	for _, l := range lines {
		if l.NetID == netID {
			continue
		}
		for i := 0; i+1 < len(pts); i++ {
			if l.Crosses(pts[i], pts[i+1]) {
				n++
			}
		}
	}
	return n
}

// pinsTouched counts the points of pins lying on pts.
func pinsTouched(pts []geom.Point, pins []geom.Point) int {
	n := 0
	for _, p := range pins {
		if geom.OnPath(pts, p) {
			n++
		}
	}
	return n
}

// crossesForeignLabel reports whether pts enters a label box of another net.
func crossesForeignLabel(pts []geom.Point, netID string, obstacles []labelObstacle) bool {
	for _, o := range obstacles {
		if o.NetID == netID {
			continue
		}
		for i := 0; i+1 < len(pts); i++ {
			if geom.SegmentCrossesInterior(pts[i], pts[i+1], o.Bounds) {
				return true
			}
		}
	}
	return false
}

// CleanupSolver runs CleanupPath over every trace, one trace per step.
// Shortcuts must stay clear of chips and of other nets' labels, and may not
// add crossings of other nets' restricted center lines or run over pins the
// trace does not own.
type CleanupSolver struct {
	solver.Base

	schematic  *model.Schematic
	index      *spatial.Index
	obstacles  []labelObstacle
	restricted []model.RestrictedCenterLine
	settings   model.Settings
	next       int

	Traces  []model.TracePath
	Removed int
}

// NewCleanupSolver prepares cleanup of traces. The slice is copied.
func NewCleanupSolver(s *model.Schematic, idx *spatial.Index, traces []model.TracePath,
	labels []model.NetLabelPlacement, restricted []model.RestrictedCenterLine, settings model.Settings) *CleanupSolver {
	cs := &CleanupSolver{
		Base:       solver.Base{Name: "cleanup", MaxIterations: settings.MaxIterations},
		schematic:  s,
		index:      idx,
		obstacles:  mergeLabelObstacles(labels),
		restricted: restricted,
		settings:   settings,
	}
	for _, t := range traces {
		cs.Traces = append(cs.Traces, t.Clone())
	}
	return cs
}

func (cs *CleanupSolver) Step() {
	if cs.next >= len(cs.Traces) {
		cs.MarkSolved()
		return
	}
	t := &cs.Traces[cs.next]
	cs.next++
	checker := newTraceChecker(cs.schematic, cs.index, *t, cs.settings)
	foreign := foreignPinPoints(cs.schematic, *t)
	crossings := restrictedCrossings(t.Points, t.NetID, cs.restricted)
	touched := pinsTouched(t.Points, foreign)
	before := len(t.Points)
	t.Points = CleanupPath(t.Points, pinPoints(cs.schematic, *t), func(pts []geom.Point) bool {
		return checker.Collides(pts) ||
			crossesForeignLabel(pts, t.NetID, cs.obstacles) ||
			restrictedCrossings(pts, t.NetID, cs.restricted) > crossings ||
			pinsTouched(pts, foreign) > touched
	})
	cs.Removed += before - len(t.Points)
}

func (cs *CleanupSolver) Visualize() graphics.Graphics {
	out := graphics.Graphics{Title: cs.Name}
	for _, t := range cs.Traces {
		out.Lines = append(out.Lines, graphics.Line{Points: t.Points, StrokeColor: "#2a6fdb", Label: t.NetID, Step: cs.Iterations})
	}
	return out
}
