// Package geom holds the 2D primitives shared by every routing stage:
// points, axis-aligned bounds, segment clipping and orthogonal path math.
package geom

import "math"

// Epsilon is the tolerance used for coordinate comparisons.
const Epsilon = 1e-6

// Point is a 2D coordinate in schematic units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Near reports whether p and q coincide within Epsilon.
func (p Point) Near(q Point) bool {
	return NearlyEqual(p.X, q.X) && NearlyEqual(p.Y, q.Y)
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// NearlyEqual compares two coordinates within Epsilon.
func NearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

// Manhattan returns the L1 distance between two points.
func Manhattan(a, b Point) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}

// Euclidean returns the L2 distance between two points.
func Euclidean(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Bounds is an axis-aligned rectangle. Edges are inclusive.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// BoundsFromCenter builds bounds from a center and full width/height.
func BoundsFromCenter(c Point, width, height float64) Bounds {
	return Bounds{
		MinX: c.X - width/2,
		MinY: c.Y - height/2,
		MaxX: c.X + width/2,
		MaxY: c.Y + height/2,
	}
}

// BoundsOfPoints returns the tight bounds of a point set.
func BoundsOfPoints(pts []Point) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of the bounds.
func (b Bounds) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Expand grows the bounds by m on every side. A negative m shrinks them.
func (b Bounds) Expand(m float64) Bounds {
	return Bounds{MinX: b.MinX - m, MinY: b.MinY - m, MaxX: b.MaxX + m, MaxY: b.MaxY + m}
}

// Union returns the smallest bounds containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// IsEmpty reports whether the bounds are inverted on either axis.
func (b Bounds) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// Contains reports whether p lies inside or on the boundary.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX-Epsilon && p.X <= b.MaxX+Epsilon &&
		p.Y >= b.MinY-Epsilon && p.Y <= b.MaxY+Epsilon
}

// Touches reports whether two bounds share any point, edges included.
func (b Bounds) Touches(o Bounds) bool {
	return b.MinX <= o.MaxX+Epsilon && b.MaxX >= o.MinX-Epsilon &&
		b.MinY <= o.MaxY+Epsilon && b.MaxY >= o.MinY-Epsilon
}

// Overlaps reports whether two bounds share interior area (not just touch).
func (b Bounds) Overlaps(o Bounds) bool {
	return b.MinX < o.MaxX-Epsilon && b.MaxX > o.MinX+Epsilon &&
		b.MinY < o.MaxY-Epsilon && b.MaxY > o.MinY+Epsilon
}

// SegmentIntersectsBounds clips the segment p1-p2 against b using the
// Liang-Barsky parametric test. Touching the boundary counts as an
// intersection.
func SegmentIntersectsBounds(p1, p2 Point, b Bounds) bool {
	if b.IsEmpty() {
		return false
	}
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{p1.X - b.MinX, b.MaxX - p1.X, p1.Y - b.MinY, b.MaxY - p1.Y}

	u1, u2 := 0.0, 1.0
	for i := 0; i < 4; i++ {
		if p[i] == 0 {
			if q[i] < 0 {
				return false
			}
			continue
		}
		t := q[i] / p[i]
		if p[i] < 0 {
			if t > u2 {
				return false
			}
			if t > u1 {
				u1 = t
			}
		} else {
			if t < u1 {
				return false
			}
			if t < u2 {
				u2 = t
			}
		}
	}
	return u1 <= u2
}

// SegmentCrossesInterior reports whether the segment enters the open
// interior of b, ignoring contact along the boundary.
func SegmentCrossesInterior(p1, p2 Point, b Bounds) bool {
	inner := b.Expand(-Epsilon)
	if inner.IsEmpty() {
		return false
	}
	return SegmentIntersectsBounds(p1, p2, inner)
}

// PathIntersectsBounds reports whether any segment of the polyline touches b.
func PathIntersectsBounds(pts []Point, b Bounds) bool {
	for i := 0; i+1 < len(pts); i++ {
		if SegmentIntersectsBounds(pts[i], pts[i+1], b) {
			return true
		}
	}
	return false
}
