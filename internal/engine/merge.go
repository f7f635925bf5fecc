package engine

import (
	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
)

// MergeSolver splices same-net traces that share an endpoint into one
// polyline. Each step performs one splice; it is solved when no two traces
// can be joined. The shared pin stays on the merged path even where the
// path doubles back through it.
type MergeSolver struct {
	solver.Base

	schematic *model.Schematic

	Traces []model.TracePath
	Merges int
}

// NewMergeSolver copies traces into a merge pass.
func NewMergeSolver(s *model.Schematic, traces []model.TracePath, settings model.Settings) *MergeSolver {
	ms := &MergeSolver{Base: solver.Base{Name: "merge", MaxIterations: settings.MaxIterations}, schematic: s}
	for _, t := range traces {
		ms.Traces = append(ms.Traces, t.Clone())
	}
	return ms
}

func (ms *MergeSolver) Step() {
	for i := range ms.Traces {
		for j := i + 1; j < len(ms.Traces); j++ {
			if ms.Traces[i].NetID != ms.Traces[j].NetID {
				continue
			}
			pts, ok := splice(ms.Traces[i].Points, ms.Traces[j].Points)
			if !ok {
				continue
			}
			merged := mergeTraceMeta(ms.Traces[i], ms.Traces[j])
			merged.Points = geom.SimplifyKeeping(pts, pinPoints(ms.schematic, merged))
			ms.Traces[i] = merged
			ms.Traces = append(ms.Traces[:j], ms.Traces[j+1:]...)
			ms.Merges++
			return
		}
	}
	ms.MarkSolved()
}

// splice joins a and b at a shared endpoint, reversing b as needed. The
// result starts where a starts unless a's start is the shared point.
func splice(a, b []geom.Point) ([]geom.Point, bool) {
	if len(a) < 2 || len(b) < 2 {
		return nil, false
	}
	aStart, aEnd := a[0], a[len(a)-1]
	bStart, bEnd := b[0], b[len(b)-1]
	join := func(first, second []geom.Point) []geom.Point {
		out := make([]geom.Point, 0, len(first)+len(second)-1)
		out = append(out, first...)
		return append(out, second[1:]...)
	}
	switch {
	case aEnd.Near(bStart):
		return join(a, b), true
	case aEnd.Near(bEnd):
		return join(a, geom.ReversePath(b)), true
	case aStart.Near(bEnd):
		return join(b, a), true
	case aStart.Near(bStart):
		return join(geom.ReversePath(b), a), true
	}
	return nil, false
}

func mergeTraceMeta(a, b model.TracePath) model.TracePath {
	out := a.Clone()
	out.PairIDs = appendUnique(out.PairIDs, b.PairIDs...)
	out.UserNetIDs = appendUnique(out.UserNetIDs, b.UserNetIDs...)
	out.PinIDs = appendUnique(out.PinIDs, b.PinIDs...)
	out.ChipIDs = appendUnique(out.ChipIDs, b.ChipIDs...)
	return out
}

func appendUnique(list []string, vals ...string) []string {
	for _, v := range vals {
		if !containsString(list, v) {
			list = append(list, v)
		}
	}
	return list
}

func (ms *MergeSolver) Visualize() graphics.Graphics {
	out := graphics.Graphics{Title: ms.Name}
	for _, t := range ms.Traces {
		out.Lines = append(out.Lines, graphics.Line{Points: t.Points, StrokeColor: "#2a6fdb", Label: t.ID, Step: ms.Iterations})
		out.Points = append(out.Points,
			graphics.Point{X: t.Points[0].X, Y: t.Points[0].Y, Step: ms.Iterations},
			graphics.Point{X: t.Points[len(t.Points)-1].X, Y: t.Points[len(t.Points)-1].Y, Step: ms.Iterations},
		)
	}
	return out
}
