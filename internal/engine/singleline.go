package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
	"github.com/piwi3910/SchemTrace/internal/spatial"
)

// ErrNoCandidatePath is the failure of a line solver that ran out of
// collision-free candidates.
var ErrNoCandidatePath = errors.New("No more candidate elbows, everything had collisions")

type ownChip struct {
	id     string
	bounds geom.Bounds
}

// pathChecker tests candidate polylines for one pin pair. Foreign chips go
// through the spatial index; the pair's own chips are tested shrunk by the
// inward margin, and a segment leaving a pin in its facing direction is
// never blocked by that pin's chip.
type pathChecker struct {
	index      *spatial.Index
	opts       spatial.CrossOptions
	own        []ownChip
	ownMargin  float64
	start, end model.PinRef
}

func newPathChecker(s *model.Schematic, idx *spatial.Index, pins [2]model.PinRef, settings model.Settings) pathChecker {
	c := pathChecker{
		index:     idx,
		opts:      spatial.CrossOptions{Margin: settings.ObstacleMargin},
		ownMargin: settings.OwnChipMargin,
		start:     pins[0],
		end:       pins[1],
	}
	for _, p := range pins {
		if containsString(c.opts.ExcludeIDs, p.ChipID) {
			continue
		}
		c.opts.ExcludeIDs = append(c.opts.ExcludeIDs, p.ChipID)
		if chip, ok := s.Chip(p.ChipID); ok {
			c.own = append(c.own, ownChip{id: chip.ChipID, bounds: chip.Bounds()})
		}
	}
	return c
}

// Collides reports whether pts hits any chip.
func (c pathChecker) Collides(pts []geom.Point) bool {
	if c.index.PathCrossesAny(pts, c.opts) {
		return true
	}
	last := len(pts) - 2
	for k := 0; k+1 < len(pts); k++ {
		a, b := pts[k], pts[k+1]
		for _, oc := range c.own {
			if k == 0 && oc.id == c.start.ChipID && leavesToward(a, b, c.start.Facing) {
				continue
			}
			if k == last && oc.id == c.end.ChipID && leavesToward(b, a, c.end.Facing) {
				continue
			}
			if geom.SegmentIntersectsBounds(a, b, oc.bounds.Expand(c.ownMargin)) {
				return true
			}
		}
	}
	return false
}

// leavesToward reports whether the segment from-to points along d.
func leavesToward(from, to geom.Point, d model.Direction) bool {
	dx, dy := d.Vector()
	vx, vy := to.X-from.X, to.Y-from.Y
	switch {
	case dx != 0:
		return geom.NearlyEqual(vy, 0) && vx*dx > geom.Epsilon
	case dy != 0:
		return geom.NearlyEqual(vx, 0) && vy*dy > geom.Epsilon
	}
	return false
}

// lineSearch holds the candidate bookkeeping shared by both line solvers.
// Among collision-free candidates the shortest wins, then the one with
// fewer turns, then the earliest generated.
type lineSearch struct {
	checker pathChecker
	from    geom.Point
	to      geom.Point
	seen    map[string]bool

	current   []geom.Point
	best      []geom.Point
	bestLen   float64
	bestTurns int
	Tested    int
	Rejected  int
}

func newLineSearch(checker pathChecker, pair model.ConnectionPair) lineSearch {
	return lineSearch{
		checker: checker,
		from:    pair.Pins[0].Point,
		to:      pair.Pins[1].Point,
		seen:    map[string]bool{},
	}
}

// test simplifies and checks one candidate. It returns true once no later
// candidate can beat the best one.
func (ls *lineSearch) test(raw []geom.Point) bool {
	pts := geom.Simplify(raw)
	key := pathKey(pts)
	if ls.seen[key] {
		return false
	}
	ls.seen[key] = true
	ls.current = pts
	ls.Tested++
	if !geom.IsOrthogonalPath(pts) || ls.checker.Collides(pts) {
		ls.Rejected++
		return false
	}
	length, turns := geom.PathLength(pts), geom.TurnCount(pts)
	if ls.best == nil || length < ls.bestLen-geom.Epsilon ||
		(math.Abs(length-ls.bestLen) <= geom.Epsilon && turns < ls.bestTurns) {
		ls.best, ls.bestLen, ls.bestTurns = pts, length, turns
	}
	minTurns := 1
	if geom.IsOrthogonal(ls.from, ls.to) {
		minTurns = 0
	}
	return ls.bestLen <= geom.Manhattan(ls.from, ls.to)+geom.Epsilon && ls.bestTurns <= minTurns
}

// finish moves b to its terminal state and returns the chosen path.
func (ls *lineSearch) finish(b *solver.Base) []geom.Point {
	if ls.best == nil {
		b.FailWith(ErrNoCandidatePath)
		return nil
	}
	b.MarkSolved()
	return ls.best
}

func (ls *lineSearch) visualize(title string, step int) graphics.Graphics {
	out := graphics.Graphics{Title: title}
	out.Points = append(out.Points,
		graphics.Point{X: ls.from.X, Y: ls.from.Y, Color: "#333333", Step: step},
		graphics.Point{X: ls.to.X, Y: ls.to.Y, Color: "#333333", Step: step},
	)
	if ls.current != nil {
		out.Lines = append(out.Lines, graphics.Line{Points: ls.current, StrokeColor: "#aaaaaa", Dashed: true, Step: step})
	}
	if ls.best != nil {
		out.Lines = append(out.Lines, graphics.Line{Points: ls.best, StrokeColor: "#2a9d2a", Step: step})
	}
	return out
}

func pathKey(pts []geom.Point) string {
	var sb strings.Builder
	for _, p := range pts {
		fmt.Fprintf(&sb, "%.6f,%.6f;", p.X, p.Y)
	}
	return sb.String()
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// stubPoint moves p outward along d by length.
func stubPoint(p geom.Point, d model.Direction, length float64) geom.Point {
	dx, dy := d.Vector()
	return p.Add(dx*length, dy*length)
}

// SingleLineSolver routes one connection pair with the guideline-driven
// search: straight line, elbows, then guideline channels. The first step
// generates the fixed candidates; every later step tests one candidate.
type SingleLineSolver struct {
	solver.Base
	lineSearch

	Pair       model.ConnectionPair
	guidelines []model.Guideline
	overshoot  float64
	perAxis    int

	generated bool
	queue     [][]geom.Point
	xs, ys    []float64
	combos    *pairIterator
	sa, sb    geom.Point

	Path []geom.Point
}

// NewSingleLineSolver prepares the search for one pair.
func NewSingleLineSolver(s *model.Schematic, idx *spatial.Index, pair model.ConnectionPair,
	guidelines []model.Guideline, settings model.Settings) *SingleLineSolver {
	return &SingleLineSolver{
		Base:       solver.Base{Name: "single-line " + pair.ID, MaxIterations: settings.MaxIterations},
		lineSearch: newLineSearch(newPathChecker(s, idx, pair.Pins, settings), pair),
		Pair:       pair,
		guidelines: guidelines,
		overshoot:  settings.ElbowOvershoot,
		perAxis:    settings.MaxGuidelinesPerAxis,
	}
}

func (sl *SingleLineSolver) Step() {
	if !sl.generated {
		sl.generate()
		sl.generated = true
		return
	}
	pts, ok := sl.nextCandidate()
	if !ok {
		sl.Path = sl.finish(&sl.Base)
		return
	}
	if sl.test(pts) {
		sl.Path = sl.finish(&sl.Base)
	}
}

// preferHorizontalFirst reads the elbow order off the facing directions:
// leave along the first pin's normal, or arrive along the second's.
func preferHorizontalFirst(fa, fb model.Direction) bool {
	switch {
	case fa.IsHorizontal():
		return true
	case fa.IsVertical():
		return false
	case fb.IsVertical():
		return true
	case fb.IsHorizontal():
		return false
	}
	return true
}

func (sl *SingleLineSolver) generate() {
	a, b := sl.from, sl.to
	fa, fb := sl.Pair.Pins[0].Facing, sl.Pair.Pins[1].Facing
	sl.sa = stubPoint(a, fa, sl.overshoot)
	sl.sb = stubPoint(b, fb, sl.overshoot)
	sa, sb := sl.sa, sl.sb

	if geom.IsOrthogonal(a, b) {
		sl.queue = append(sl.queue, []geom.Point{a, b})
	}

	horizontal := func() [][]geom.Point {
		return [][]geom.Point{
			{a, geom.Pt(b.X, a.Y), b},
			{a, sa, geom.Pt(sb.X, sa.Y), sb, b},
		}
	}
	vertical := func() [][]geom.Point {
		return [][]geom.Point{
			{a, geom.Pt(a.X, b.Y), b},
			{a, sa, geom.Pt(sa.X, sb.Y), sb, b},
		}
	}
	if preferHorizontalFirst(fa, fb) {
		sl.queue = append(sl.queue, horizontal()...)
		sl.queue = append(sl.queue, vertical()...)
	} else {
		sl.queue = append(sl.queue, vertical()...)
		sl.queue = append(sl.queue, horizontal()...)
	}

	mid := geom.Pt((a.X+b.X)/2, (a.Y+b.Y)/2)
	sl.xs = nearestGuidelines(sl.guidelines, geom.Vertical, mid.X, sl.perAxis)
	sl.ys = nearestGuidelines(sl.guidelines, geom.Horizontal, mid.Y, sl.perAxis)
	for _, x := range sl.xs {
		sl.queue = append(sl.queue, []geom.Point{a, sa, geom.Pt(x, sa.Y), geom.Pt(x, sb.Y), sb, b})
	}
	for _, y := range sl.ys {
		sl.queue = append(sl.queue, []geom.Point{a, sa, geom.Pt(sa.X, y), geom.Pt(sb.X, y), sb, b})
	}
	sl.combos = newPairIterator(len(sl.xs), len(sl.ys))
}

// nextCandidate pops the fixed queue, then expands guideline
// combinations lazily, two shapes per (x, y) pair.
func (sl *SingleLineSolver) nextCandidate() ([]geom.Point, bool) {
	if len(sl.queue) == 0 {
		i, j, ok := sl.combos.Next()
		if !ok {
			return nil, false
		}
		a, b, sa, sb := sl.from, sl.to, sl.sa, sl.sb
		x, y := sl.xs[i], sl.ys[j]
		sl.queue = append(sl.queue,
			[]geom.Point{a, sa, geom.Pt(x, sa.Y), geom.Pt(x, y), geom.Pt(sb.X, y), sb, b},
			[]geom.Point{a, sa, geom.Pt(sa.X, y), geom.Pt(x, y), geom.Pt(x, sb.Y), sb, b},
		)
	}
	pts := sl.queue[0]
	sl.queue = sl.queue[1:]
	return pts, true
}

// nearestGuidelines returns up to n guideline coordinates of orientation o,
// nearest to target first.
func nearestGuidelines(gls []model.Guideline, o geom.Orientation, target float64, n int) []float64 {
	var coords []float64
	for _, g := range gls {
		if g.Orientation == o {
			coords = append(coords, g.Coord)
		}
	}
	sort.SliceStable(coords, func(i, j int) bool {
		return math.Abs(coords[i]-target) < math.Abs(coords[j]-target)
	})
	if len(coords) > n {
		coords = coords[:n]
	}
	return coords
}

func (sl *SingleLineSolver) Visualize() graphics.Graphics {
	return sl.visualize(sl.Name, sl.Iterations)
}
