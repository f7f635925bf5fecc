package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SchemTrace/internal/geom"
)

func testIndex() *Index {
	return NewIndex([]Obstacle{
		{ID: "U1", Bounds: geom.Bounds{MinX: -1, MinY: -1, MaxX: 1, MaxY: 1}},
		{ID: "U2", Bounds: geom.Bounds{MinX: 4, MinY: -1, MaxX: 6, MaxY: 1}},
		{ID: "U3", Bounds: geom.Bounds{MinX: 10, MinY: 10, MaxX: 12, MaxY: 12}},
	})
}

func TestQueryRect(t *testing.T) {
	idx := testIndex()

	hits := idx.QueryRect(geom.Bounds{MinX: 0, MinY: 0, MaxX: 5, MaxY: 0.5})
	require.Len(t, hits, 2)
	assert.Equal(t, "U1", hits[0].ID)
	assert.Equal(t, "U2", hits[1].ID)

	assert.Empty(t, idx.QueryRect(geom.Bounds{MinX: 20, MinY: 20, MaxX: 21, MaxY: 21}))
}

func TestSegmentCrossesAny_Exclusions(t *testing.T) {
	idx := testIndex()
	p1, p2 := geom.Pt(-3, 0), geom.Pt(8, 0)

	assert.True(t, idx.SegmentCrossesAny(p1, p2, CrossOptions{}))
	assert.True(t, idx.SegmentCrossesAny(p1, p2, CrossOptions{ExcludeIDs: []string{"U1"}}))
	assert.False(t, idx.SegmentCrossesAny(p1, p2, CrossOptions{ExcludeIDs: []string{"U1", "U2"}}))
}

func TestSegmentCrossesAny_EdgeAndNegativeMargin(t *testing.T) {
	idx := NewIndex([]Obstacle{{ID: "chip", Bounds: geom.Bounds{MinX: -1, MinY: -1, MaxX: 1, MaxY: 1}}})
	p1, p2 := geom.Pt(-5, 1), geom.Pt(5, 1)

	assert.True(t, idx.SegmentCrossesAny(p1, p2, CrossOptions{Margin: 0}))
	assert.False(t, idx.SegmentCrossesAny(p1, p2, CrossOptions{Margin: -1e-6}))
}

func TestSegmentCrossesAny_MarginMonotonic(t *testing.T) {
	idx := testIndex()
	segments := [][2]geom.Point{
		{geom.Pt(-3, 1), geom.Pt(8, 1)},
		{geom.Pt(-3, 1.05), geom.Pt(8, 1.05)},
		{geom.Pt(2, -5), geom.Pt(2, 5)},
		{geom.Pt(1.02, -5), geom.Pt(1.02, 5)},
		{geom.Pt(9.95, 0), geom.Pt(9.95, 20)},
	}
	margins := []float64{-0.5, -1e-6, 0, 0.01, 0.1, 1}

	for _, s := range segments {
		for i := 0; i+1 < len(margins); i++ {
			small := idx.CrossingObstacles(s[0], s[1], CrossOptions{Margin: margins[i]})
			large := idx.CrossingObstacles(s[0], s[1], CrossOptions{Margin: margins[i+1]})
			assert.GreaterOrEqual(t, len(large), len(small),
				"margin %v found fewer crossings than margin %v for %v", margins[i+1], margins[i], s)
		}
	}
}

func TestPathCrossesAny(t *testing.T) {
	idx := testIndex()
	around := []geom.Point{geom.Pt(-3, 0), geom.Pt(-3, 3), geom.Pt(8, 3), geom.Pt(8, 0)}
	assert.False(t, idx.PathCrossesAny(around, CrossOptions{}))

	through := []geom.Point{geom.Pt(-3, 0), geom.Pt(8, 0)}
	assert.True(t, idx.PathCrossesAny(through, CrossOptions{}))
}
