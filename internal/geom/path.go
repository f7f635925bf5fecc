package geom

import "math"

// Orientation of an axis-aligned line or segment.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// IsOrthogonal reports whether a and b lie on a shared horizontal or vertical line.
func IsOrthogonal(a, b Point) bool {
	return NearlyEqual(a.X, b.X) || NearlyEqual(a.Y, b.Y)
}

// IsOrthogonalPath reports whether every consecutive pair of points is orthogonal.
func IsOrthogonalPath(pts []Point) bool {
	for i := 0; i+1 < len(pts); i++ {
		if !IsOrthogonal(pts[i], pts[i+1]) {
			return false
		}
	}
	return true
}

// SegmentOrientation classifies the segment a-b. Zero-length segments are
// reported as horizontal.
func SegmentOrientation(a, b Point) Orientation {
	if NearlyEqual(a.Y, b.Y) {
		return Horizontal
	}
	return Vertical
}

// PathLength returns the summed Manhattan length of the polyline.
func PathLength(pts []Point) float64 {
	total := 0.0
	for i := 0; i+1 < len(pts); i++ {
		total += Manhattan(pts[i], pts[i+1])
	}
	return total
}

// TurnCount returns the number of direction changes along the polyline.
// Zero-length segments are skipped.
func TurnCount(pts []Point) int {
	turns := 0
	var prev Orientation
	for i := 0; i+1 < len(pts); i++ {
		if pts[i].Near(pts[i+1]) {
			continue
		}
		o := SegmentOrientation(pts[i], pts[i+1])
		if prev != "" && o != prev {
			turns++
		}
		prev = o
	}
	return turns
}

// collinear reports whether a, b and c lie on one horizontal or vertical line.
func collinear(a, b, c Point) bool {
	return (NearlyEqual(a.X, b.X) && NearlyEqual(b.X, c.X)) ||
		(NearlyEqual(a.Y, b.Y) && NearlyEqual(b.Y, c.Y))
}

// Simplify drops duplicate consecutive points and collinear intermediates
// until neither remains. Endpoints are always kept.
func Simplify(pts []Point) []Point {
	return SimplifyKeeping(pts, nil)
}

// SimplifyKeeping is Simplify that never takes a point of keep off the
// path. Points inside a straight run always go; the tip of a run that
// doubles back goes only when no keep point lies on the folded part.
func SimplifyKeeping(pts []Point, keep []Point) []Point {
	out := simplifyOnce(pts, keep)
	for {
		next := simplifyOnce(out, keep)
		if len(next) == len(out) {
			return next
		}
		out = next
	}
}

func simplifyOnce(pts []Point, keep []Point) []Point {
	if len(pts) <= 2 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out
	}
	last := len(pts) - 1
	dedup := make([]Point, 0, len(pts))
	for i, p := range pts {
		if len(dedup) > 0 && dedup[len(dedup)-1].Near(p) {
			if i == last {
				dedup[len(dedup)-1] = p
			}
			continue
		}
		dedup = append(dedup, p)
	}
	if len(dedup) == 1 {
		// Degenerate path: keep both original endpoints.
		return []Point{pts[0], pts[last]}
	}

	out := make([]Point, 0, len(dedup))
	out = append(out, dedup[0])
	for i := 1; i < len(dedup)-1; i++ {
		a, b, c := out[len(out)-1], dedup[i], dedup[i+1]
		if collinear(a, b, c) && (continues(a, b, c) || !foldHides(a, b, c, keep)) {
			continue
		}
		out = append(out, b)
	}
	out = append(out, dedup[len(dedup)-1])
	return out
}

// continues reports whether a-b-c keeps its direction through b.
func continues(a, b, c Point) bool {
	return (b.X-a.X)*(c.X-b.X)+(b.Y-a.Y)*(c.Y-b.Y) > 0
}

// foldHides reports whether replacing a-b-c by a-c loses a keep point.
func foldHides(a, b, c Point, keep []Point) bool {
	for _, k := range keep {
		if (OnSegment(a, b, k) || OnSegment(b, c, k)) && !OnSegment(a, c, k) {
			return true
		}
	}
	return false
}

// OnSegment reports whether p lies on the axis-aligned segment a-b.
func OnSegment(a, b, p Point) bool {
	if NearlyEqual(a.X, b.X) {
		return NearlyEqual(p.X, a.X) &&
			p.Y >= math.Min(a.Y, b.Y)-Epsilon && p.Y <= math.Max(a.Y, b.Y)+Epsilon
	}
	if NearlyEqual(a.Y, b.Y) {
		return NearlyEqual(p.Y, a.Y) &&
			p.X >= math.Min(a.X, b.X)-Epsilon && p.X <= math.Max(a.X, b.X)+Epsilon
	}
	return p.Near(a) || p.Near(b)
}

// OnPath reports whether p lies on some segment of the polyline.
func OnPath(pts []Point, p Point) bool {
	if len(pts) == 1 {
		return pts[0].Near(p)
	}
	for i := 0; i+1 < len(pts); i++ {
		if OnSegment(pts[i], pts[i+1], p) {
			return true
		}
	}
	return false
}

// CoversAll reports whether every point of want lies on the polyline.
func CoversAll(pts []Point, want []Point) bool {
	for _, w := range want {
		if !OnPath(pts, w) {
			return false
		}
	}
	return true
}

// ReversePath returns a reversed copy of pts.
func ReversePath(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// SegmentBounds returns the bounds of a single segment.
func SegmentBounds(a, b Point) Bounds {
	return Bounds{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
	}
}

// SegmentCrossesLine reports whether the segment strictly straddles the
// axis-aligned line at coord (vertical line: x = coord) within [spanMin, spanMax]
// on the other axis.
func SegmentCrossesLine(a, b Point, o Orientation, coord, spanMin, spanMax float64) bool {
	if o == Vertical {
		lo, hi := math.Min(a.X, b.X), math.Max(a.X, b.X)
		if !(lo < coord-Epsilon && hi > coord+Epsilon) {
			return false
		}
		// Orthogonal segments crossing a vertical line are horizontal.
		y := a.Y
		if !NearlyEqual(a.Y, b.Y) {
			y = a.Y + (b.Y-a.Y)*(coord-a.X)/(b.X-a.X)
		}
		return y >= spanMin-Epsilon && y <= spanMax+Epsilon
	}
	lo, hi := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	if !(lo < coord-Epsilon && hi > coord+Epsilon) {
		return false
	}
	x := a.X
	if !NearlyEqual(a.X, b.X) {
		x = a.X + (b.X-a.X)*(coord-a.Y)/(b.Y-a.Y)
	}
	return x >= spanMin-Epsilon && x <= spanMax+Epsilon
}
