package engine

import (
	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
	"github.com/piwi3910/SchemTrace/internal/spatial"
)

// DirectLineSolver is the lighter fallback router. It never looks at
// guidelines: straight line, both L shapes, mid-channel Z shapes, and
// detours around the first chip blocking the direct route.
type DirectLineSolver struct {
	solver.Base
	lineSearch

	Pair      model.ConnectionPair
	clearance float64
	overshoot float64

	generated bool
	queue     [][]geom.Point

	Path []geom.Point
}

// NewDirectLineSolver prepares the fallback search for one pair.
func NewDirectLineSolver(s *model.Schematic, idx *spatial.Index, pair model.ConnectionPair, settings model.Settings) *DirectLineSolver {
	return &DirectLineSolver{
		Base:       solver.Base{Name: "direct-line " + pair.ID, MaxIterations: settings.MaxIterations},
		lineSearch: newLineSearch(newPathChecker(s, idx, pair.Pins, settings), pair),
		Pair:       pair,
		clearance:  settings.GuidelineClearance,
		overshoot:  settings.ElbowOvershoot,
	}
}

func (dl *DirectLineSolver) Step() {
	if !dl.generated {
		dl.queue = dl.candidates()
		dl.generated = true
		return
	}
	if len(dl.queue) == 0 {
		dl.Path = dl.finish(&dl.Base)
		return
	}
	pts := dl.queue[0]
	dl.queue = dl.queue[1:]
	if dl.test(pts) {
		dl.Path = dl.finish(&dl.Base)
	}
}

func (dl *DirectLineSolver) candidates() [][]geom.Point {
	a, b := dl.from, dl.to
	var out [][]geom.Point
	if geom.IsOrthogonal(a, b) {
		out = append(out, []geom.Point{a, b})
	}
	h := []geom.Point{a, geom.Pt(b.X, a.Y), b}
	v := []geom.Point{a, geom.Pt(a.X, b.Y), b}
	out = append(out, h, v)

	mid := geom.Pt((a.X+b.X)/2, (a.Y+b.Y)/2)
	out = append(out,
		[]geom.Point{a, geom.Pt(mid.X, a.Y), geom.Pt(mid.X, b.Y), b},
		[]geom.Point{a, geom.Pt(a.X, mid.Y), geom.Pt(b.X, mid.Y), b},
	)

	blocker, ok := dl.firstBlocker([]geom.Point{a, b}, h, v)
	if !ok {
		return out
	}
	e := blocker.Bounds.Expand(dl.clearance)
	sa := stubPoint(a, dl.Pair.Pins[0].Facing, dl.overshoot)
	sb := stubPoint(b, dl.Pair.Pins[1].Facing, dl.overshoot)
	for _, x := range []float64{e.MinX, e.MaxX} {
		out = append(out,
			[]geom.Point{a, geom.Pt(x, a.Y), geom.Pt(x, b.Y), b},
			[]geom.Point{a, sa, geom.Pt(x, sa.Y), geom.Pt(x, sb.Y), sb, b},
		)
	}
	for _, y := range []float64{e.MinY, e.MaxY} {
		out = append(out,
			[]geom.Point{a, geom.Pt(a.X, y), geom.Pt(b.X, y), b},
			[]geom.Point{a, sa, geom.Pt(sa.X, y), geom.Pt(sb.X, y), sb, b},
		)
	}
	return out
}

// firstBlocker returns the first foreign chip hit by any of the paths,
// tried in order.
func (dl *DirectLineSolver) firstBlocker(paths ...[]geom.Point) (spatial.Obstacle, bool) {
	for _, pts := range paths {
		for i := 0; i+1 < len(pts); i++ {
			hits := dl.checker.index.CrossingObstacles(pts[i], pts[i+1], dl.checker.opts)
			if len(hits) > 0 {
				return hits[0], true
			}
		}
	}
	return spatial.Obstacle{}, false
}

func (dl *DirectLineSolver) Visualize() graphics.Graphics {
	return dl.visualize(dl.Name, dl.Iterations)
}
