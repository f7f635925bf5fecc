package engine

import (
	"math"

	"github.com/piwi3910/SchemTrace/internal/geom"
)

// mstEdge joins a pin newly added to the tree (From) to the tree pin it
// was reached from (To).
type mstEdge struct {
	From, To int
	Weight   float64
}

// minimumSpanningForest runs Prim's algorithm over the complete graph of
// pts with Manhattan weights, seeded at the first point. Edges rejected by
// admissible are never used, so the result may be a forest. Ties go to the
// lower input index on both ends.
func minimumSpanningForest(pts []geom.Point, admissible func(i, j int) bool) []mstEdge {
	n := len(pts)
	if n < 2 {
		return nil
	}
	inTree := make([]bool, n)
	best := make([]float64, n)
	parent := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
		parent[i] = -1
	}

	relax := func(u int) {
		for v := 0; v < n; v++ {
			if inTree[v] || v == u {
				continue
			}
			if admissible != nil && !admissible(u, v) {
				continue
			}
			if w := geom.Manhattan(pts[u], pts[v]); w < best[v]-geom.Epsilon {
				best[v] = w
				parent[v] = u
			}
		}
	}

	var edges []mstEdge
	for added := 0; added < n; added++ {
		next := -1
		for v := 0; v < n; v++ {
			if inTree[v] {
				continue
			}
			if next == -1 || best[v] < best[next]-geom.Epsilon {
				next = v
			}
		}
		inTree[next] = true
		if parent[next] >= 0 {
			edges = append(edges, mstEdge{From: next, To: parent[next], Weight: best[next]})
		}
		relax(next)
	}
	return edges
}

// pairIterator yields the index pairs (i, j) of an n×m grid one at a time,
// row by row. It is restartable with Reset.
type pairIterator struct {
	n, m int
	i, j int
}

func newPairIterator(n, m int) *pairIterator {
	return &pairIterator{n: n, m: m}
}

// Next returns the next pair, or ok=false once the grid is exhausted.
func (it *pairIterator) Next() (i, j int, ok bool) {
	if it.m == 0 || it.i >= it.n {
		return 0, 0, false
	}
	i, j = it.i, it.j
	it.j++
	if it.j >= it.m {
		it.j = 0
		it.i++
	}
	return i, j, true
}

// Reset rewinds the iterator to the first pair.
func (it *pairIterator) Reset() {
	it.i, it.j = 0, 0
}
