// Package spatial indexes chip bodies for the router. The R-tree is used as
// a range-query oracle; crossing tests run on the candidates it returns.
package spatial

import (
	"math"
	"sort"

	"github.com/tidwall/rtree"

	"github.com/piwi3910/SchemTrace/internal/geom"
)

// Obstacle is an indexed rectangle, usually a chip body.
type Obstacle struct {
	ID     string
	Bounds geom.Bounds
}

// CrossOptions tunes a crossing query.
type CrossOptions struct {
	// ExcludeIDs are never treated as obstacles.
	ExcludeIDs []string
	// Margin grows every obstacle before testing. Negative values shrink
	// them, which lets a segment run along an edge.
	Margin float64
}

// Index is a static spatial index over obstacles. It must be rebuilt when
// obstacle geometry changes.
type Index struct {
	tree      rtree.RTreeG[int]
	obstacles []Obstacle
}

// NewIndex builds an index over the given obstacles.
func NewIndex(obstacles []Obstacle) *Index {
	idx := &Index{obstacles: make([]Obstacle, len(obstacles))}
	copy(idx.obstacles, obstacles)
	for i, o := range idx.obstacles {
		idx.tree.Insert(
			[2]float64{o.Bounds.MinX, o.Bounds.MinY},
			[2]float64{o.Bounds.MaxX, o.Bounds.MaxY},
			i,
		)
	}
	return idx
}

// Len returns the number of indexed obstacles.
func (idx *Index) Len() int {
	return len(idx.obstacles)
}

// Obstacles returns a copy of the indexed obstacles in insertion order.
func (idx *Index) Obstacles() []Obstacle {
	out := make([]Obstacle, len(idx.obstacles))
	copy(out, idx.obstacles)
	return out
}

// QueryRect returns every obstacle whose bounds touch b, in insertion order.
func (idx *Index) QueryRect(b geom.Bounds) []Obstacle {
	hits := idx.search(b)
	out := make([]Obstacle, 0, len(hits))
	for _, i := range hits {
		out = append(out, idx.obstacles[i])
	}
	return out
}

// search returns matching obstacle indices sorted ascending so results do
// not depend on tree layout.
func (idx *Index) search(b geom.Bounds) []int {
	var hits []int
	idx.tree.Search(
		[2]float64{b.MinX - geom.Epsilon, b.MinY - geom.Epsilon},
		[2]float64{b.MaxX + geom.Epsilon, b.MaxY + geom.Epsilon},
		func(_, _ [2]float64, i int) bool {
			hits = append(hits, i)
			return true
		},
	)
	sort.Ints(hits)
	return hits
}

// SegmentCrossesAny reports whether p1-p2 intersects any non-excluded
// obstacle after applying the margin.
func (idx *Index) SegmentCrossesAny(p1, p2 geom.Point, opts CrossOptions) bool {
	return len(idx.crossing(p1, p2, opts, true)) > 0
}

// CrossingObstacles returns every non-excluded obstacle the segment intersects.
func (idx *Index) CrossingObstacles(p1, p2 geom.Point, opts CrossOptions) []Obstacle {
	return idx.crossing(p1, p2, opts, false)
}

// PathCrossesAny reports whether any segment of the polyline crosses an obstacle.
func (idx *Index) PathCrossesAny(pts []geom.Point, opts CrossOptions) bool {
	for i := 0; i+1 < len(pts); i++ {
		if idx.SegmentCrossesAny(pts[i], pts[i+1], opts) {
			return true
		}
	}
	return false
}

func (idx *Index) crossing(p1, p2 geom.Point, opts CrossOptions, firstOnly bool) []Obstacle {
	query := geom.SegmentBounds(p1, p2).Expand(math.Max(opts.Margin, 0))
	var out []Obstacle
	for _, i := range idx.search(query) {
		o := idx.obstacles[i]
		if excluded(o.ID, opts.ExcludeIDs) {
			continue
		}
		if geom.SegmentIntersectsBounds(p1, p2, o.Bounds.Expand(opts.Margin)) {
			out = append(out, o)
			if firstOnly {
				return out
			}
		}
	}
	return out
}

func excluded(id string, ids []string) bool {
	for _, e := range ids {
		if e == id {
			return true
		}
	}
	return false
}
