package engine

import (
	"fmt"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
	"github.com/piwi3910/SchemTrace/internal/spatial"
)

// labelObstacle is one or more same-net labels merged into a single box.
type labelObstacle struct {
	NetID  string
	Bounds geom.Bounds
	Labels []int
}

// mergeLabelObstacles unions same-net labels whose boxes touch, until no
// two remaining boxes of one net touch. Order follows the first label.
func mergeLabelObstacles(labels []model.NetLabelPlacement) []labelObstacle {
	obs := make([]labelObstacle, len(labels))
	for i, l := range labels {
		obs[i] = labelObstacle{NetID: l.NetID, Bounds: l.Bounds(), Labels: []int{i}}
	}
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(obs) && !merged; i++ {
			for j := i + 1; j < len(obs); j++ {
				if obs[i].NetID != obs[j].NetID || !obs[i].Bounds.Touches(obs[j].Bounds) {
					continue
				}
				obs[i].Bounds = obs[i].Bounds.Union(obs[j].Bounds)
				obs[i].Labels = append(obs[i].Labels, obs[j].Labels...)
				obs = append(obs[:j], obs[j+1:]...)
				merged = true
				break
			}
		}
	}
	return obs
}

type overlapConflict struct {
	trace, segment, obstacle int
}

type parkKey struct {
	trace, obstacle int
}

// OverlapSolver moves trace segments out of other nets' label boxes. It
// owns private copies of traces and labels. The first step merges label
// obstacles; every later step detects the first conflict and hands it to a
// SingleOverlapSolver. Conflicts that cannot be fixed are parked.
type OverlapSolver struct {
	solver.Base

	schematic *model.Schematic
	index     *spatial.Index
	settings  model.Settings

	obstacles []labelObstacle
	merged    bool
	parked    map[parkKey]bool
	passes    int
	last      *overlapConflict

	Traces     []model.TracePath
	Labels     []model.NetLabelPlacement
	Fixed      int
	Unresolved int
}

// NewOverlapSolver copies traces and labels into a new working set.
func NewOverlapSolver(s *model.Schematic, idx *spatial.Index, traces []model.TracePath,
	labels []model.NetLabelPlacement, settings model.Settings) *OverlapSolver {
	ol := &OverlapSolver{
		Base:      solver.Base{Name: "overlap", MaxIterations: settings.MaxIterations},
		schematic: s,
		index:     idx,
		settings:  settings,
		parked:    map[parkKey]bool{},
	}
	for _, t := range traces {
		ol.Traces = append(ol.Traces, t.Clone())
	}
	ol.Labels = append(ol.Labels, labels...)
	return ol
}

func (ol *OverlapSolver) Step() {
	if !ol.merged {
		ol.obstacles = mergeLabelObstacles(ol.Labels)
		ol.merged = true
		return
	}

	c, ok := ol.findConflict()
	if !ok {
		ol.finish()
		return
	}
	if ol.passes >= ol.settings.MaxOverlapIterations {
		ol.finish()
		return
	}
	ol.passes++
	ol.last = &c

	t := &ol.Traces[c.trace]
	checker := newTraceChecker(ol.schematic, ol.index, *t, ol.settings)
	obstacle := ol.obstacles[c.obstacle]
	before := ol.conflictsOf(t.Points, t.NetID)
	accept := func(pts []geom.Point) bool {
		if checker.Collides(pts) || pathCrossesInterior(pts, obstacle.Bounds) {
			return false
		}
		return ol.conflictsOf(pts, t.NetID) < before
	}

	fix := NewSingleOverlapSolver(t.Points, c.segment, obstacle.Bounds, ol.settings, accept)
	fix.Logger = ol.Logger
	if err := solver.Solve(fix); err != nil {
		ol.parked[parkKey{trace: c.trace, obstacle: c.obstacle}] = true
		ol.Log().Debug("overlap parked", "conflict", c.String(), "trace", t.ID, "net", obstacle.NetID, "error", err)
		return
	}
	after := ol.conflictsOf(fix.Path, t.NetID)
	t.Points = CleanupPath(fix.Path, pinPoints(ol.schematic, *t), func(pts []geom.Point) bool {
		return checker.Collides(pts) || ol.conflictsOf(pts, t.NetID) > after
	})
	ol.Fixed++
	ol.Log().Debug("overlap fixed", "conflict", c.String(), "trace", t.ID, "remaining", after)
}

// finish settles the terminal state from the residual conflict count.
func (ol *OverlapSolver) finish() {
	ol.Unresolved = 0
	for _, t := range ol.Traces {
		ol.Unresolved += ol.conflictsOf(t.Points, t.NetID)
	}
	ol.refreshLabelFlags()
	if ol.Unresolved == 0 {
		ol.MarkSolved()
		return
	}
	ol.Fail("%d unresolved label/trace overlaps after %d passes", ol.Unresolved, ol.passes)
}

// refreshLabelFlags clears TraceConflict on labels no foreign trace enters.
func (ol *OverlapSolver) refreshLabelFlags() {
	for i := range ol.Labels {
		l := &ol.Labels[i]
		if !l.TraceConflict {
			continue
		}
		l.TraceConflict = false
		for _, t := range ol.Traces {
			if t.NetID != l.NetID && pathCrossesInterior(t.Points, l.Bounds()) {
				l.TraceConflict = true
				break
			}
		}
	}
}

// findConflict returns the first segment entering a label obstacle of
// another net, in trace, segment, obstacle order, skipping parked ones.
func (ol *OverlapSolver) findConflict() (overlapConflict, bool) {
	for ti, t := range ol.Traces {
		for si := 0; si+1 < len(t.Points); si++ {
			for oi, o := range ol.obstacles {
				if o.NetID == t.NetID || ol.parked[parkKey{trace: ti, obstacle: oi}] {
					continue
				}
				if geom.SegmentCrossesInterior(t.Points[si], t.Points[si+1], o.Bounds) {
					return overlapConflict{trace: ti, segment: si, obstacle: oi}, true
				}
			}
		}
	}
	return overlapConflict{}, false
}

// conflictsOf counts the foreign obstacles pts enters.
func (ol *OverlapSolver) conflictsOf(pts []geom.Point, netID string) int {
	n := 0
	for _, o := range ol.obstacles {
		if o.NetID != netID && pathCrossesInterior(pts, o.Bounds) {
			n++
		}
	}
	return n
}

func pathCrossesInterior(pts []geom.Point, b geom.Bounds) bool {
	for i := 0; i+1 < len(pts); i++ {
		if geom.SegmentCrossesInterior(pts[i], pts[i+1], b) {
			return true
		}
	}
	return false
}

func (ol *OverlapSolver) Visualize() graphics.Graphics {
	out := graphics.Graphics{Title: ol.Name}
	for _, o := range ol.obstacles {
		c := o.Bounds.Center()
		out.Rects = append(out.Rects, graphics.Rect{
			Center: c, Width: o.Bounds.Width(), Height: o.Bounds.Height(),
			StrokeColor: "#ee964b", Label: o.NetID, Step: ol.Iterations,
		})
	}
	for _, t := range ol.Traces {
		out.Lines = append(out.Lines, graphics.Line{Points: t.Points, StrokeColor: "#2a6fdb", Label: t.NetID, Step: ol.Iterations})
	}
	if ol.last != nil && ol.last.trace < len(ol.Traces) {
		t := ol.Traces[ol.last.trace]
		if ol.last.segment+1 < len(t.Points) {
			out.Lines = append(out.Lines, graphics.Line{
				Points:      []geom.Point{t.Points[ol.last.segment], t.Points[ol.last.segment+1]},
				StrokeColor: "#cc3333",
				StrokeWidth: 2,
				Step:        ol.Iterations,
			})
		}
	}
	return out
}

// SingleOverlapSolver shifts one segment of a path perpendicular to itself
// until it clears a box. Offsets are center ± k·(half extent + clearance)
// for k = 1..3, positive side first. Connector points keep both path
// anchors in place. Each step tests one offset; the accepted variant with
// the least added length wins.
type SingleOverlapSolver struct {
	solver.Base

	points  []geom.Point
	segment int
	box     geom.Bounds
	accept  func([]geom.Point) bool

	variants [][]geom.Point
	next     int
	best     []geom.Point

	Path []geom.Point
}

// shiftMultiples bounds how far a segment is pushed away from a box.
const shiftMultiples = 3

// NewSingleOverlapSolver prepares the shift of points[segment] out of box.
func NewSingleOverlapSolver(points []geom.Point, segment int, box geom.Bounds,
	settings model.Settings, accept func([]geom.Point) bool) *SingleOverlapSolver {
	so := &SingleOverlapSolver{
		Base:    solver.Base{Name: "single-overlap", MaxIterations: settings.MaxIterations},
		points:  append([]geom.Point(nil), points...),
		segment: segment,
		box:     box,
		accept:  accept,
	}
	so.variants = shiftVariants(so.points, segment, box, settings.OverlapClearance)
	return so
}

// shiftVariants builds pts[:i+1] + P_i' + P_{i+1}' + pts[i+1:] for every
// candidate offset of segment i.
func shiftVariants(pts []geom.Point, i int, box geom.Bounds, clearance float64) [][]geom.Point {
	if i < 0 || i+1 >= len(pts) {
		return nil
	}
	p, q := pts[i], pts[i+1]
	horizontal := geom.SegmentOrientation(p, q) == geom.Horizontal
	center, half := box.Center().X, box.Width()/2
	if horizontal {
		center, half = box.Center().Y, box.Height()/2
	}

	var out [][]geom.Point
	for k := 1; k <= shiftMultiples; k++ {
		for _, sign := range []float64{1, -1} {
			off := center + sign*float64(k)*(half+clearance)
			var p2, q2 geom.Point
			if horizontal {
				p2, q2 = geom.Pt(p.X, off), geom.Pt(q.X, off)
			} else {
				p2, q2 = geom.Pt(off, p.Y), geom.Pt(off, q.Y)
			}
			v := make([]geom.Point, 0, len(pts)+2)
			v = append(v, pts[:i+1]...)
			v = append(v, p2, q2)
			v = append(v, pts[i+1:]...)
			out = append(out, geom.Simplify(v))
		}
	}
	return out
}

func (so *SingleOverlapSolver) Step() {
	if so.next >= len(so.variants) {
		if so.best == nil {
			so.Fail("no shift of segment %d clears the label", so.segment)
			return
		}
		so.Path = so.best
		so.MarkSolved()
		return
	}
	v := so.variants[so.next]
	so.next++
	if !geom.IsOrthogonalPath(v) || (so.accept != nil && !so.accept(v)) {
		return
	}
	if so.best == nil || geom.PathLength(v) < geom.PathLength(so.best)-geom.Epsilon {
		so.best = v
	}
}

func (so *SingleOverlapSolver) Visualize() graphics.Graphics {
	out := graphics.Graphics{Title: so.Name}
	c := so.box.Center()
	out.Rects = append(out.Rects, graphics.Rect{Center: c, Width: so.box.Width(), Height: so.box.Height(), StrokeColor: "#ee964b", Step: so.Iterations})
	out.Lines = append(out.Lines, graphics.Line{Points: so.points, StrokeColor: "#aaaaaa", Dashed: true, Step: so.Iterations})
	if so.best != nil {
		out.Lines = append(out.Lines, graphics.Line{Points: so.best, StrokeColor: "#2a9d2a", Step: so.Iterations})
	}
	return out
}

// String describes the conflict for logs.
func (c overlapConflict) String() string {
	return fmt.Sprintf("trace %d segment %d obstacle %d", c.trace, c.segment, c.obstacle)
}
