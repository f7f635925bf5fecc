package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/model"
)

// chainTolerance is the largest endpoint gap still treated as connected.
const chainTolerance = 0.001

// segment is a line segment between two points, used for chaining
// disconnected LINE entities into closed outlines.
type segment struct {
	start geom.Point
	end   geom.Point
}

// ImportDXF reads chips from a DXF drawing. Every closed shape (LWPOLYLINE
// or chain of connected LINEs) becomes a chip sized to its bounding box, and
// every CIRCLE becomes a pin of the chip whose outline contains its center.
// Chips are named U1, U2, ... left to right, then top to bottom; pins are
// numbered per chip in the same order.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines [][]geom.Point
	var segments []segment
	var pins []geom.Point

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			outline := lwPolylinePoints(e)
			if len(outline) >= 3 {
				outlines = append(outlines, outline)
			} else {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			pins = append(pins, geom.Pt(e.Center[0], e.Center[1]))

		case *entity.Line:
			segments = append(segments, segment{
				start: geom.Pt(e.Start[0], e.Start[1]),
				end:   geom.Pt(e.End[0], e.End[1]),
			})

		default:
			// Text and other annotations carry no geometry we route around.
		}
	}

	outlines = append(outlines, chainSegments(segments, chainTolerance)...)
	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	var bounds []geom.Bounds
	for _, o := range outlines {
		b := geom.BoundsOfPoints(o)
		if b.Width() < chainTolerance || b.Height() < chainTolerance {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.3f x %.3f)", b.Width(), b.Height()))
			continue
		}
		bounds = append(bounds, b)
	}
	sort.Slice(bounds, func(i, j int) bool { return readingOrder(bounds[i].Center(), bounds[j].Center()) })

	sort.Slice(pins, func(i, j int) bool { return readingOrder(pins[i], pins[j]) })
	owned := make([][]geom.Point, len(bounds))
	for _, p := range pins {
		owner := smallestContaining(bounds, p)
		if owner < 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped pin at (%.3f, %.3f) outside every chip", p.X, p.Y))
			continue
		}
		owned[owner] = append(owned[owner], p)
	}

	for i, b := range bounds {
		chip := model.Chip{
			ChipID: fmt.Sprintf("U%d", i+1),
			Center: b.Center(),
			Width:  b.Width(),
			Height: b.Height(),
		}
		for n, p := range owned[i] {
			chip.Pins = append(chip.Pins, model.Pin{
				PinID:  fmt.Sprintf("%s.%d", chip.ChipID, n+1),
				X:      p.X,
				Y:      p.Y,
				ChipID: chip.ChipID,
			})
		}
		result.Chips = append(result.Chips, chip)
	}
	return result
}

// readingOrder sorts by x, then by descending y.
func readingOrder(a, b geom.Point) bool {
	if !geom.NearlyEqual(a.X, b.X) {
		return a.X < b.X
	}
	return a.Y > b.Y
}

// smallestContaining returns the index of the smallest bounds containing p,
// or -1.
func smallestContaining(bounds []geom.Bounds, p geom.Point) int {
	best := -1
	bestArea := math.Inf(1)
	for i, b := range bounds {
		if !b.Contains(p) {
			continue
		}
		if area := b.Width() * b.Height(); area < bestArea {
			best, bestArea = i, area
		}
	}
	return best
}

// lwPolylinePoints returns the polyline vertices. Bulges are ignored since
// only the bounding box is kept.
func lwPolylinePoints(lw *entity.LwPolyline) []geom.Point {
	pts := make([]geom.Point, 0, len(lw.Vertices))
	for _, v := range lw.Vertices {
		pts = append(pts, geom.Pt(v[0], v[1]))
	}
	return pts
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them connected.
// Open chains are dropped.
func chainSegments(segs []segment, tolerance float64) [][]geom.Point {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines [][]geom.Point

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []geom.Point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		}
	}

	return outlines
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b geom.Point, tolerance float64) bool {
	return geom.Euclidean(a, b) <= tolerance
}
