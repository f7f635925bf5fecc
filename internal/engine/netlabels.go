package engine

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
	"github.com/piwi3910/SchemTrace/internal/spatial"
)

const msgLabelBudget = "no label position found within the search budget"

// NetLabelSolver places one label per wired island of every net that
// needs one. Each step handles one net.
type NetLabelSolver struct {
	solver.Base

	schematic    *model.Schematic
	index        *spatial.Index
	nets         []Net
	traces       []model.TracePath
	orientations map[string][]model.Direction
	settings     model.Settings
	next         int

	Labels   []model.NetLabelPlacement
	Failures []model.LabelFailure
}

// NewNetLabelSolver prepares label placement against the routed traces.
func NewNetLabelSolver(s *model.Schematic, idx *spatial.Index, nets []Net, traces []model.TracePath, settings model.Settings) *NetLabelSolver {
	return &NetLabelSolver{
		Base:         solver.Base{Name: "net-labels", MaxIterations: settings.MaxIterations},
		schematic:    s,
		index:        idx,
		nets:         nets,
		traces:       traces,
		orientations: s.Problem().AvailableNetLabelOrientations,
		settings:     settings,
	}
}

func (ns *NetLabelSolver) Step() {
	if ns.next >= len(ns.nets) {
		ns.MarkSolved()
		return
	}
	n := ns.nets[ns.next]
	ns.next++

	islands := netIslands(n, ns.traces)
	if !n.FromNetConnection && len(islands) <= 1 {
		return
	}
	for _, island := range islands {
		label, ok := ns.place(n, island, false)
		if !ok && ns.settings.AllowTraceOverlapFallback {
			label, ok = ns.place(n, island, true)
		}
		if !ok {
			ns.Failures = append(ns.Failures, model.LabelFailure{NetID: n.ID, PinIDs: island, Error: msgLabelBudget})
			ns.Log().Warn("label unplaceable", "net", n.ID, "pins", island)
			continue
		}
		ns.Labels = append(ns.Labels, label)
	}
}

// netIslands splits a net's pins into the groups already joined by traces.
// Islands and their pins keep the net's pin order.
func netIslands(n Net, traces []model.TracePath) [][]string {
	pos := make(map[string]int, len(n.PinIDs))
	g := simple.NewUndirectedGraph()
	for i, id := range n.PinIDs {
		pos[id] = i
		g.AddNode(simple.Node(int64(i)))
	}
	for _, t := range traces {
		if t.NetID != n.ID {
			continue
		}
		for k := 0; k+1 < len(t.PinIDs); k++ {
			a, okA := pos[t.PinIDs[k]]
			b, okB := pos[t.PinIDs[k+1]]
			if okA && okB && a != b {
				g.SetEdge(g.NewEdge(simple.Node(int64(a)), simple.Node(int64(b))))
			}
		}
	}
	var groups [][]int
	for _, comp := range topo.ConnectedComponents(g) {
		idx := nodeIndexes(comp)
		sort.Ints(idx)
		groups = append(groups, idx)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	out := make([][]string, len(groups))
	for i, grp := range groups {
		for _, k := range grp {
			out[i] = append(out[i], n.PinIDs[k])
		}
	}
	return out
}

// place searches label boxes around the island's pins: pin by pin, at
// growing standoff, facing direction first among the allowed ones. With
// relaxed set, traces of other nets are ignored and the label is flagged.
func (ns *NetLabelSolver) place(n Net, island []string, relaxed bool) (model.NetLabelPlacement, bool) {
	width := ns.settings.LabelWidth(n.ID, n.LabelWidth)
	height := ns.settings.NetLabelHeight
	budget := ns.settings.MaxLabelCandidates
	tried := 0

	for _, pinID := range island {
		ref, ok := ns.schematic.PinRef(pinID)
		if !ok {
			continue
		}
		dirs := ns.allowedDirections(n, ref.Facing)
		for step := 0; step <= ns.settings.MaxLabelStandoffSteps; step++ {
			for _, d := range dirs {
				if budget > 0 && tried >= budget {
					return model.NetLabelPlacement{}, false
				}
				tried++
				anchor := stubPoint(ref.Point, d, float64(step)*ns.settings.LabelStandoffStep)
				label := labelBox(n.ID, pinID, d, anchor, width, height)
				if ns.blocked(n.ID, label.Bounds(), relaxed) {
					continue
				}
				label.TraceConflict = relaxed && ns.hitsForeignTrace(n.ID, label.Bounds())
				for _, t := range ns.traces {
					if t.NetID == n.ID && containsString(island, t.PinIDs[0]) {
						label.PairIDs = append(label.PairIDs, t.PairIDs...)
					}
				}
				return label, true
			}
		}
	}
	return model.NetLabelPlacement{}, false
}

// allowedDirections returns the net's whitelist (all four by default) with
// the pin's facing direction moved to the front.
func (ns *NetLabelSolver) allowedDirections(n Net, facing model.Direction) []model.Direction {
	allowed := model.AllDirections
	for _, id := range append([]string{n.ID}, n.UserNetIDs...) {
		if dirs, ok := ns.orientations[id]; ok && len(dirs) > 0 {
			allowed = dirs
			break
		}
	}
	out := make([]model.Direction, 0, len(allowed))
	for _, d := range allowed {
		if d == facing {
			out = append(out, d)
		}
	}
	for _, d := range allowed {
		if d != facing {
			out = append(out, d)
		}
	}
	return out
}

// labelBox builds the label extending from anchor along d. Labels along y
// are drawn rotated, so their box is height wide.
func labelBox(netID, pinID string, d model.Direction, anchor geom.Point, width, height float64) model.NetLabelPlacement {
	w, h := width, height
	if d.IsVertical() {
		w, h = height, width
	}
	dx, dy := d.Vector()
	center := anchor.Add(dx*w/2, dy*h/2)
	return model.NetLabelPlacement{
		NetID:       netID,
		PinID:       pinID,
		Orientation: d,
		Anchor:      anchor,
		Center:      center,
		Width:       w,
		Height:      h,
	}
}

func (ns *NetLabelSolver) blocked(netID string, box geom.Bounds, relaxed bool) bool {
	for _, o := range ns.index.QueryRect(box) {
		if o.Bounds.Overlaps(box) {
			return true
		}
	}
	for _, l := range ns.Labels {
		if l.Bounds().Overlaps(box) {
			return true
		}
	}
	return !relaxed && ns.hitsForeignTrace(netID, box)
}

func (ns *NetLabelSolver) hitsForeignTrace(netID string, box geom.Bounds) bool {
	for _, t := range ns.traces {
		if t.NetID == netID {
			continue
		}
		for i := 0; i+1 < len(t.Points); i++ {
			if geom.SegmentCrossesInterior(t.Points[i], t.Points[i+1], box) {
				return true
			}
		}
	}
	return false
}

func (ns *NetLabelSolver) Visualize() graphics.Graphics {
	out := graphics.Graphics{Title: ns.Name}
	for _, l := range ns.Labels {
		color := "#f4d35e"
		if l.TraceConflict {
			color = "#ee964b"
		}
		out.Rects = append(out.Rects, graphics.Rect{
			Center: l.Center, Width: l.Width, Height: l.Height,
			FillColor: color, Label: l.NetID, Step: ns.Iterations,
		})
	}
	for _, f := range ns.Failures {
		for _, id := range f.PinIDs {
			if p, ok := ns.schematic.Pin(id); ok {
				out.Circles = append(out.Circles, graphics.Circle{
					Center: p.Point(), Radius: 0.1, FillColor: "#cc3333", Label: f.NetID, Step: ns.Iterations,
				})
			}
		}
	}
	return out
}
