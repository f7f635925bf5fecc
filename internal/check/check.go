// Package check verifies a routed layout independently of the solvers that
// produced it.
package check

import (
	"fmt"
	"math"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/spatial"
)

// Kind classifies a violation.
type Kind string

const (
	KindNonOrthogonal   Kind = "non-orthogonal"
	KindDetached        Kind = "detached-endpoint"
	KindPinOffTrace     Kind = "pin-off-trace"
	KindChipCollision   Kind = "chip-collision"
	KindTightClearance  Kind = "tight-clearance"
	KindLabelOnChip     Kind = "label-on-chip"
	KindLabelOnLabel    Kind = "label-on-label"
	KindLabelOnTrace    Kind = "label-on-trace"
	KindDegenerateTrace Kind = "degenerate-trace"
)

// Violation is one problem found in a layout.
type Violation struct {
	Kind     Kind
	TraceID  string
	NetID    string
	ObjectID string
	At       geom.Point
	// Distance is the gap to the obstacle for clearance warnings.
	Distance float64
}

// Options tunes CheckLayout.
type Options struct {
	// MinClearance flags trace corners closer than this to a foreign chip
	// without touching it. Zero disables the check.
	MinClearance float64
}

// CheckLayout inspects every trace and label of r. Chips come from r.Chips.
func CheckLayout(r model.RoutingResult, opts Options) []Violation {
	obstacles := make([]spatial.Obstacle, len(r.Chips))
	pins := map[string]geom.Point{}
	for i, c := range r.Chips {
		obstacles[i] = spatial.Obstacle{ID: c.ChipID, Bounds: c.Bounds()}
		for _, p := range c.Pins {
			pins[p.PinID] = p.Point()
		}
	}
	idx := spatial.NewIndex(obstacles)

	var out []Violation
	for _, t := range r.Traces {
		out = append(out, checkTrace(t, idx, pins, opts)...)
	}
	out = append(out, checkLabels(r, idx)...)
	return dedupe(out)
}

func checkTrace(t model.TracePath, idx *spatial.Index, pins map[string]geom.Point, opts Options) []Violation {
	v := func(k Kind, obj string, at geom.Point) Violation {
		return Violation{Kind: k, TraceID: t.ID, NetID: t.NetID, ObjectID: obj, At: at}
	}
	if len(t.Points) < 2 {
		return []Violation{v(KindDegenerateTrace, "", geom.Point{})}
	}

	var out []Violation
	for _, end := range []geom.Point{t.Points[0], t.Points[len(t.Points)-1]} {
		if !atAnyPin(end, t.PinIDs, pins) {
			out = append(out, v(KindDetached, "", end))
		}
	}
	// Merged traces run through junction pins; every claimed pin must lie
	// on the polyline, not only the two ends.
	for _, id := range t.PinIDs {
		if pin, ok := pins[id]; ok && !geom.OnPath(t.Points, pin) {
			out = append(out, v(KindPinOffTrace, id, pin))
		}
	}

	opt := spatial.CrossOptions{ExcludeIDs: t.ChipIDs}
	last := len(t.Points) - 2
	for i := 0; i+1 < len(t.Points); i++ {
		a, b := t.Points[i], t.Points[i+1]
		if !geom.IsOrthogonal(a, b) {
			out = append(out, v(KindNonOrthogonal, "", a))
		}
		for _, o := range idx.CrossingObstacles(a, b, opt) {
			out = append(out, v(KindChipCollision, o.ID, a))
		}
		// The pin segments may start inside their own chip.
		if i == 0 || i == last {
			continue
		}
		for _, o := range idx.QueryRect(geom.SegmentBounds(a, b)) {
			if containsString(t.ChipIDs, o.ID) && geom.SegmentCrossesInterior(a, b, o.Bounds) {
				out = append(out, v(KindChipCollision, o.ID, a))
			}
		}
	}

	if opts.MinClearance > 0 {
		for _, p := range t.Points {
			near := geom.Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}.Expand(opts.MinClearance)
			for _, o := range idx.QueryRect(near) {
				if containsString(t.ChipIDs, o.ID) {
					continue
				}
				if d := distanceToBounds(p, o.Bounds); d > geom.Epsilon && d < opts.MinClearance {
					c := v(KindTightClearance, o.ID, p)
					c.Distance = d
					out = append(out, c)
				}
			}
		}
	}
	return out
}

func checkLabels(r model.RoutingResult, idx *spatial.Index) []Violation {
	var out []Violation
	for i, l := range r.Labels {
		box := l.Bounds()
		for _, o := range idx.QueryRect(box) {
			if o.Bounds.Overlaps(box) {
				out = append(out, Violation{Kind: KindLabelOnChip, NetID: l.NetID, ObjectID: o.ID, At: l.Center})
			}
		}
		for _, other := range r.Labels[i+1:] {
			if other.Bounds().Overlaps(box) {
				out = append(out, Violation{Kind: KindLabelOnLabel, NetID: l.NetID, ObjectID: other.NetID, At: l.Center})
			}
		}
		for _, t := range r.Traces {
			if t.NetID == l.NetID {
				continue
			}
			for k := 0; k+1 < len(t.Points); k++ {
				if geom.SegmentCrossesInterior(t.Points[k], t.Points[k+1], box) {
					out = append(out, Violation{Kind: KindLabelOnTrace, TraceID: t.ID, NetID: l.NetID, ObjectID: t.NetID, At: l.Center})
					break
				}
			}
		}
	}
	return out
}

func atAnyPin(p geom.Point, ids []string, pins map[string]geom.Point) bool {
	for _, id := range ids {
		if pin, ok := pins[id]; ok && pin.Near(p) {
			return true
		}
	}
	return false
}

// distanceToBounds returns the Euclidean distance from p to the nearest
// point of b, or 0 when p is inside.
func distanceToBounds(p geom.Point, b geom.Bounds) float64 {
	nearestX := math.Max(b.MinX, math.Min(p.X, b.MaxX))
	nearestY := math.Max(b.MinY, math.Min(p.Y, b.MaxY))
	return math.Hypot(p.X-nearestX, p.Y-nearestY)
}

// dedupe keeps one violation per (kind, trace, net, object).
func dedupe(vs []Violation) []Violation {
	type key struct {
		kind               Kind
		trace, net, object string
	}
	seen := make(map[key]bool)
	var out []Violation
	for _, v := range vs {
		k := key{v.Kind, v.TraceID, v.NetID, v.ObjectID}
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// FormatViolations produces one human-readable line per violation.
func FormatViolations(vs []Violation) []string {
	var lines []string
	for _, v := range vs {
		var msg string
		switch v.Kind {
		case KindNonOrthogonal:
			msg = fmt.Sprintf("Trace %s (net %s): diagonal segment at (%.3f, %.3f)", v.TraceID, v.NetID, v.At.X, v.At.Y)
		case KindDetached:
			msg = fmt.Sprintf("Trace %s (net %s): endpoint (%.3f, %.3f) is not on one of its pins", v.TraceID, v.NetID, v.At.X, v.At.Y)
		case KindPinOffTrace:
			msg = fmt.Sprintf("Trace %s (net %s): pin %s at (%.3f, %.3f) is not on the trace", v.TraceID, v.NetID, v.ObjectID, v.At.X, v.At.Y)
		case KindChipCollision:
			msg = fmt.Sprintf("Trace %s (net %s): crosses chip %s near (%.3f, %.3f)", v.TraceID, v.NetID, v.ObjectID, v.At.X, v.At.Y)
		case KindTightClearance:
			msg = fmt.Sprintf("Trace %s (net %s): corner (%.3f, %.3f) is %.3f from chip %s", v.TraceID, v.NetID, v.At.X, v.At.Y, v.Distance, v.ObjectID)
		case KindLabelOnChip:
			msg = fmt.Sprintf("Label %s at (%.3f, %.3f) overlaps chip %s", v.NetID, v.At.X, v.At.Y, v.ObjectID)
		case KindLabelOnLabel:
			msg = fmt.Sprintf("Label %s at (%.3f, %.3f) overlaps label %s", v.NetID, v.At.X, v.At.Y, v.ObjectID)
		case KindLabelOnTrace:
			msg = fmt.Sprintf("Label %s at (%.3f, %.3f) sits on trace %s of net %s", v.NetID, v.At.X, v.At.Y, v.TraceID, v.ObjectID)
		default:
			msg = fmt.Sprintf("Trace %s (net %s): %s", v.TraceID, v.NetID, v.Kind)
		}
		lines = append(lines, msg)
	}
	return lines
}
