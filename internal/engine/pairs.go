package engine

import (
	"fmt"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
)

// Reasons a spanning-tree edge was left out.
const (
	RejectChipCrossing   = "chip-crossing"
	RejectRestrictedLine = "restricted-center-line"
	RejectMaxDistance    = "max-pair-distance"
)

// RejectedPair is a pin pair the connection-pair filters refused.
type RejectedPair struct {
	NetID  string
	PinIDs [2]string
	Reason string
}

// PairSolver picks, for every net, the pin pairs that get a drawn trace.
// Each step handles one net.
type PairSolver struct {
	solver.Base

	schematic  *model.Schematic
	nets       []Net
	restricted []model.RestrictedCenterLine
	maxDist    float64
	next       int

	Pairs    []model.ConnectionPair
	Rejected []RejectedPair
}

// NewPairSolver prepares the pair selection for nets.
func NewPairSolver(s *model.Schematic, nets []Net, restricted []model.RestrictedCenterLine, settings model.Settings) *PairSolver {
	return &PairSolver{
		Base:       solver.Base{Name: "pairs", MaxIterations: settings.MaxIterations},
		schematic:  s,
		nets:       nets,
		restricted: restricted,
		maxDist:    s.Problem().MaxMspPairDistance,
	}
}

func (ps *PairSolver) Step() {
	if ps.next >= len(ps.nets) {
		ps.MarkSolved()
		return
	}
	n := ps.nets[ps.next]
	ps.next++
	if len(n.PinIDs) < 2 {
		return
	}

	refs := make([]model.PinRef, 0, len(n.PinIDs))
	for _, id := range n.PinIDs {
		ref, ok := ps.schematic.PinRef(id)
		if !ok {
			ps.Fail("net %s: pin %s: %v", n.ID, id, model.ErrUnknownPin)
			return
		}
		refs = append(refs, ref)
	}
	pts := make([]geom.Point, len(refs))
	for i, r := range refs {
		pts[i] = r.Point
	}

	rejected := map[[2]int]string{}
	admissible := func(i, j int) bool {
		key := [2]int{min(i, j), max(i, j)}
		if reason, done := rejected[key]; done {
			return reason == ""
		}
		reason := ps.rejectReason(n.ID, refs[i], refs[j])
		rejected[key] = reason
		return reason == ""
	}

	edges := minimumSpanningForest(pts, admissible)
	for _, e := range edges {
		a, b := refs[e.From], refs[e.To]
		ps.Pairs = append(ps.Pairs, model.ConnectionPair{
			ID:         fmt.Sprintf("%s:%s-%s", n.ID, a.PinID, b.PinID),
			NetID:      n.ID,
			UserNetIDs: n.UserNetIDs,
			Pins:       [2]model.PinRef{a, b},
		})
	}

	// The net ended up split: report what was filtered.
	if len(edges) < len(refs)-1 {
		for i := range refs {
			for j := i + 1; j < len(refs); j++ {
				if reason := rejected[[2]int{i, j}]; reason != "" {
					ps.Rejected = append(ps.Rejected, RejectedPair{
						NetID:  n.ID,
						PinIDs: [2]string{refs[i].PinID, refs[j].PinID},
						Reason: reason,
					})
				}
			}
		}
	}
	ps.Log().Debug("net paired", "net", n.ID, "pins", len(refs), "pairs", len(edges))
}

// rejectReason returns why a and b must not be wired directly, or "".
func (ps *PairSolver) rejectReason(netID string, a, b model.PinRef) string {
	if ps.crossesOwnChip(a, b.Point) || ps.crossesOwnChip(b, a.Point) {
		return RejectChipCrossing
	}
	if ps.maxDist > 0 && geom.Manhattan(a.Point, b.Point) > ps.maxDist+geom.Epsilon {
		return RejectMaxDistance
	}
	if ps.blockedByRestrictedLines(netID, a.Point, b.Point) {
		return RejectRestrictedLine
	}
	return ""
}

// crossesOwnChip reports whether partner lies at or beyond the far edge of
// the chip p faces out of, so a direct line would cut through the body.
func (ps *PairSolver) crossesOwnChip(p model.PinRef, partner geom.Point) bool {
	chip, ok := ps.schematic.Chip(p.ChipID)
	if !ok {
		return false
	}
	b := chip.Bounds()
	switch p.Facing {
	case model.DirXNeg:
		return partner.X >= b.MaxX-geom.Epsilon
	case model.DirXPos:
		return partner.X <= b.MinX+geom.Epsilon
	case model.DirYNeg:
		return partner.Y >= b.MaxY-geom.Epsilon
	case model.DirYPos:
		return partner.Y <= b.MinY+geom.Epsilon
	}
	return false
}

// blockedByRestrictedLines applies the two-detour rule: an axis-aligned
// pair is tested as one segment, any other pair is blocked only when both
// L-shaped detours cross a line of another net.
func (ps *PairSolver) blockedByRestrictedLines(netID string, a, b geom.Point) bool {
	var lines []model.RestrictedCenterLine
	for _, l := range ps.restricted {
		if l.NetID != netID {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return false
	}
	crosses := func(path ...geom.Point) bool {
		for i := 0; i+1 < len(path); i++ {
			for _, l := range lines {
				if l.Crosses(path[i], path[i+1]) {
					return true
				}
			}
		}
		return false
	}
	if geom.IsOrthogonal(a, b) {
		return crosses(a, b)
	}
	horizontalFirst := crosses(a, geom.Pt(b.X, a.Y), b)
	verticalFirst := crosses(a, geom.Pt(a.X, b.Y), b)
	return horizontalFirst && verticalFirst
}

func (ps *PairSolver) Visualize() graphics.Graphics {
	out := graphics.Graphics{Title: ps.Name}
	for _, p := range ps.Pairs {
		out.Lines = append(out.Lines, graphics.Line{
			Points:      []geom.Point{p.Pins[0].Point, p.Pins[1].Point},
			StrokeColor: "#3366cc",
			Label:       p.ID,
			Step:        ps.Iterations,
		})
	}
	for _, r := range ps.Rejected {
		a, _ := ps.schematic.Pin(r.PinIDs[0])
		b, _ := ps.schematic.Pin(r.PinIDs[1])
		out.Lines = append(out.Lines, graphics.Line{
			Points:      []geom.Point{a.Point(), b.Point()},
			StrokeColor: "#cc3333",
			Dashed:      true,
			Label:       r.Reason,
			Step:        ps.Iterations,
		})
	}
	return out
}
