package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
)

func solveLabels(t *testing.T, p model.InputProblem, traces []model.TracePath, settings model.Settings) *NetLabelSolver {
	t.Helper()
	s := mustSchematic(t, p)
	ns := NewNetLabelSolver(s, chipIndex(s), GroupNets(s.Problem()), traces, settings)
	require.NoError(t, solver.Solve(ns))
	return ns
}

func gndProblem() model.InputProblem {
	return model.InputProblem{
		Chips:          []model.Chip{testChip("U1", 0, 0, 1, 1, testPin("U1.1", 0.5, 0))},
		NetConnections: []model.NetConnection{{NetID: "GND", PinIDs: []string{"U1.1"}}},
	}
}

func TestNetLabelSolver_FacingDirectionFirst(t *testing.T) {
	ns := solveLabels(t, gndProblem(), nil, defaultTestSettings())

	require.Len(t, ns.Labels, 1)
	l := ns.Labels[0]
	assert.Equal(t, "GND", l.NetID)
	assert.Equal(t, "U1.1", l.PinID)
	assert.Equal(t, model.DirXPos, l.Orientation)
	assert.InDelta(t, 0.4, l.Width, 1e-9)
	assert.InDelta(t, 0.2, l.Height, 1e-9)
	assert.InDelta(t, 0.7, l.Center.X, 1e-9)
	assert.InDelta(t, 0, l.Center.Y, 1e-9)
	assert.False(t, l.TraceConflict)
	assert.Empty(t, ns.Failures)
}

func TestNetLabelSolver_WhitelistAndStandoff(t *testing.T) {
	p := gndProblem()
	p.AvailableNetLabelOrientations = map[string][]model.Direction{"GND": {model.DirYPos}}

	ns := solveLabels(t, p, nil, defaultTestSettings())

	require.Len(t, ns.Labels, 1)
	l := ns.Labels[0]
	assert.Equal(t, model.DirYPos, l.Orientation)
	// rotated: the box is label-height wide
	assert.InDelta(t, 0.2, l.Width, 1e-9)
	assert.InDelta(t, 0.4, l.Height, 1e-9)
	// pushed out until it clears the top edge of U1
	assert.InDelta(t, 0.5, l.Anchor.Y, 1e-9)
	assert.False(t, l.Bounds().Overlaps(geom.BoundsFromCenter(geom.Pt(0, 0), 1, 1)))
}

func TestNetLabelSolver_OneLabelPerIsland(t *testing.T) {
	p := model.InputProblem{
		Chips: []model.Chip{
			testChip("U1", 0, 0, 1, 1, testPin("a", 0.5, 0)),
			testChip("U2", 4, 0, 1, 1, testPin("b", 3.5, 0)),
			testChip("U3", 0, 4, 1, 1, testPin("c", 0.5, 4)),
		},
		DirectConnections: []model.DirectConnection{
			{PinIDs: [2]string{"a", "b"}, NetID: "D"},
			{PinIDs: [2]string{"b", "c"}, NetID: "D"},
		},
	}
	traces := []model.TracePath{{
		ID: "trace:D:a-b", NetID: "D", PairIDs: []string{"D:a-b"},
		PinIDs: []string{"a", "b"}, ChipIDs: []string{"U1", "U2"},
		Points: []geom.Point{{X: 0.5, Y: 0}, {X: 3.5, Y: 0}},
	}}

	ns := solveLabels(t, p, traces, defaultTestSettings())

	require.Len(t, ns.Labels, 2)
	assert.Equal(t, "a", ns.Labels[0].PinID)
	assert.Equal(t, []string{"D:a-b"}, ns.Labels[0].PairIDs)
	assert.Equal(t, "c", ns.Labels[1].PinID)
	assert.Empty(t, ns.Labels[1].PairIDs)

	// Fully wired, the direct-only net needs no label.
	traces = append(traces, model.TracePath{
		ID: "trace:D:c-b", NetID: "D", PairIDs: []string{"D:c-b"},
		PinIDs: []string{"c", "b"}, ChipIDs: []string{"U3", "U2"},
		Points: []geom.Point{{X: 0.5, Y: 4}, {X: 3.5, Y: 4}, {X: 3.5, Y: 0}},
	})
	ns = solveLabels(t, p, traces, defaultTestSettings())
	assert.Empty(t, ns.Labels)
	assert.Empty(t, ns.Failures)
}

func TestNetLabelSolver_FailureWhenEveryBoxBlocked(t *testing.T) {
	p := gndProblem()
	p.AvailableNetLabelOrientations = map[string][]model.Direction{"GND": {model.DirXNeg}}
	settings := defaultTestSettings()
	settings.MaxLabelStandoffSteps = 0

	ns := solveLabels(t, p, nil, settings)

	assert.Empty(t, ns.Labels)
	require.Len(t, ns.Failures, 1)
	assert.Equal(t, "GND", ns.Failures[0].NetID)
	assert.Equal(t, []string{"U1.1"}, ns.Failures[0].PinIDs)
	assert.Equal(t, msgLabelBudget, ns.Failures[0].Error)
}

func TestNetLabelSolver_RelaxedFallbackFlagsConflict(t *testing.T) {
	p := gndProblem()
	p.AvailableNetLabelOrientations = map[string][]model.Direction{"GND": {model.DirXPos}}
	settings := defaultTestSettings()
	settings.MaxLabelStandoffSteps = 0
	foreign := []model.TracePath{{
		ID: "trace:other", NetID: "OTHER",
		Points: []geom.Point{{X: 0.7, Y: -1}, {X: 0.7, Y: 1}},
	}}

	ns := solveLabels(t, p, foreign, settings)
	require.Len(t, ns.Labels, 1)
	assert.True(t, ns.Labels[0].TraceConflict)

	settings.AllowTraceOverlapFallback = false
	ns = solveLabels(t, p, foreign, settings)
	assert.Empty(t, ns.Labels)
	assert.Len(t, ns.Failures, 1)
}

func TestNetLabelSolver_LabelsNeverOverlap(t *testing.T) {
	chip := testChip("U1", 0, 0, 1, 1, testPin("p1", 0.5, 0), testPin("p2", 0.5, 0.1), testPin("p3", 0.5, -0.1))
	p := model.InputProblem{
		Chips: []model.Chip{chip},
		NetConnections: []model.NetConnection{
			{NetID: "A", PinIDs: []string{"p1"}},
			{NetID: "B", PinIDs: []string{"p2"}},
			{NetID: "C", PinIDs: []string{"p3"}},
		},
	}

	ns := solveLabels(t, p, nil, defaultTestSettings())

	require.Len(t, ns.Labels, 3)
	for i, a := range ns.Labels {
		assert.False(t, a.Bounds().Overlaps(chip.Bounds()), a.NetID)
		for _, b := range ns.Labels[i+1:] {
			assert.False(t, a.Bounds().Overlaps(b.Bounds()), "%s and %s", a.NetID, b.NetID)
		}
	}
}

func TestLabelBox_VerticalIsRotated(t *testing.T) {
	l := labelBox("N", "p", model.DirYNeg, geom.Pt(0, 0), 0.4, 0.2)
	assert.InDelta(t, 0.2, l.Width, 1e-9)
	assert.InDelta(t, 0.4, l.Height, 1e-9)
	assert.InDelta(t, -0.2, l.Center.Y, 1e-9)

	l = labelBox("N", "p", model.DirXNeg, geom.Pt(1, 1), 0.4, 0.2)
	assert.InDelta(t, 0.8, l.Center.X, 1e-9)
	assert.InDelta(t, 1, l.Center.Y, 1e-9)
}

func TestAllowedDirections_UserNetIDWhitelist(t *testing.T) {
	ns := &NetLabelSolver{orientations: map[string][]model.Direction{
		"VCC": {model.DirYNeg, model.DirXPos},
	}}
	n := Net{ID: "net-1234abcd", UserNetIDs: []string{"VCC"}}

	assert.Equal(t, []model.Direction{model.DirXPos, model.DirYNeg}, ns.allowedDirections(n, model.DirXPos))
	assert.Equal(t, []model.Direction{model.DirYNeg, model.DirXPos}, ns.allowedDirections(n, model.DirYPos))
	assert.Equal(t, []model.Direction{model.DirYPos, model.DirXPos, model.DirXNeg, model.DirYNeg},
		ns.allowedDirections(Net{ID: "X"}, model.DirYPos))
}
