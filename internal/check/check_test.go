package check

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SchemTrace/internal/engine"
	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/model"
)

func chip(id string, cx, cy, w, h float64, pins ...model.Pin) model.Chip {
	for i := range pins {
		pins[i].ChipID = id
	}
	return model.Chip{ChipID: id, Center: geom.Pt(cx, cy), Width: w, Height: h, Pins: pins}
}

// layout has two pinned chips with a small foreign chip X between them.
func layout(traces []model.TracePath, labels ...model.NetLabelPlacement) model.RoutingResult {
	return model.RoutingResult{
		Chips: []model.Chip{
			chip("U1", 0, 0, 1, 1, model.Pin{PinID: "a", X: 0.5, Y: 0}),
			chip("U2", 4, 0, 1, 1, model.Pin{PinID: "b", X: 3.5, Y: 0}),
			chip("X", 2, 0, 0.4, 0.4),
		},
		Traces: traces,
		Labels: labels,
	}
}

func trace(points ...geom.Point) model.TracePath {
	return model.TracePath{
		ID: "t1", NetID: "SIG", PinIDs: []string{"a", "b"}, ChipIDs: []string{"U1", "U2"},
		Points: points,
	}
}

// detour goes over X at y=0.5.
func detour() model.TracePath {
	return trace(geom.Pt(0.5, 0), geom.Pt(1.5, 0), geom.Pt(1.5, 0.5), geom.Pt(3.5, 0.5), geom.Pt(3.5, 0))
}

func kinds(vs []Violation) []Kind {
	out := make([]Kind, len(vs))
	for i, v := range vs {
		out[i] = v.Kind
	}
	return out
}

func TestCheckLayout_CleanDetour(t *testing.T) {
	assert.Empty(t, CheckLayout(layout([]model.TracePath{detour()}), Options{}))
}

func TestCheckLayout_ChipCollision(t *testing.T) {
	vs := CheckLayout(layout([]model.TracePath{trace(geom.Pt(0.5, 0), geom.Pt(3.5, 0))}), Options{})

	require.Len(t, vs, 1)
	assert.Equal(t, KindChipCollision, vs[0].Kind)
	assert.Equal(t, "X", vs[0].ObjectID)
	assert.Equal(t, "t1", vs[0].TraceID)
}

func TestCheckLayout_OwnChipInteriorMidPath(t *testing.T) {
	// Leaves a, dives through U1 and comes back out below.
	tr := trace(geom.Pt(0.5, 0), geom.Pt(1, 0), geom.Pt(1, 0.2), geom.Pt(-1, 0.2), geom.Pt(-1, -1),
		geom.Pt(3.5, -1), geom.Pt(3.5, 0))

	vs := CheckLayout(layout([]model.TracePath{tr}), Options{})

	require.Len(t, vs, 1)
	assert.Equal(t, KindChipCollision, vs[0].Kind)
	assert.Equal(t, "U1", vs[0].ObjectID)
}

func TestCheckLayout_DiagonalAndDetached(t *testing.T) {
	tr := trace(geom.Pt(0.5, 0), geom.Pt(1.5, 1), geom.Pt(3.5, 1), geom.Pt(3.5, 2))

	vs := CheckLayout(layout([]model.TracePath{tr}), Options{})

	assert.ElementsMatch(t, []Kind{KindDetached, KindNonOrthogonal, KindPinOffTrace}, kinds(vs))
	for _, v := range vs {
		switch v.Kind {
		case KindDetached:
			assert.Equal(t, geom.Pt(3.5, 2), v.At)
		case KindPinOffTrace:
			assert.Equal(t, "b", v.ObjectID)
		}
	}
}

func TestCheckLayout_MergedTraceMissesInteriorPin(t *testing.T) {
	merged := func(points ...geom.Point) model.RoutingResult {
		return model.RoutingResult{
			Chips: []model.Chip{
				chip("U1", 0, 0, 1, 1, model.Pin{PinID: "a", X: 0.5, Y: 0}),
				chip("U2", 4, 0, 1, 1, model.Pin{PinID: "b", X: 3.5, Y: 0}),
				chip("U3", 2, 3, 1, 1, model.Pin{PinID: "c", X: 2, Y: 2.5}),
			},
			Traces: []model.TracePath{{
				ID: "m1", NetID: "SIG", PinIDs: []string{"a", "c", "b"}, ChipIDs: []string{"U1", "U3", "U2"},
				Points: points,
			}},
		}
	}

	// Both ends sit on pins but the branch up to c is gone.
	vs := CheckLayout(merged(geom.Pt(0.5, 0), geom.Pt(3.5, 0)), Options{})
	require.Len(t, vs, 1)
	assert.Equal(t, KindPinOffTrace, vs[0].Kind)
	assert.Equal(t, "c", vs[0].ObjectID)
	assert.Equal(t, geom.Pt(2, 2.5), vs[0].At)
	assert.Contains(t, FormatViolations(vs)[0], "pin c at (2.000, 2.500) is not on the trace")

	// The path doubles back through c.
	vs = CheckLayout(merged(geom.Pt(0.5, 0), geom.Pt(2, 0), geom.Pt(2, 2.5), geom.Pt(2, 0), geom.Pt(3.5, 0)), Options{})
	assert.NotContains(t, kinds(vs), KindPinOffTrace)
}

func TestCheckLayout_DegenerateTrace(t *testing.T) {
	vs := CheckLayout(layout([]model.TracePath{trace(geom.Pt(0.5, 0))}), Options{})
	assert.Equal(t, []Kind{KindDegenerateTrace}, kinds(vs))
}

func TestCheckLayout_TightClearance(t *testing.T) {
	r := layout([]model.TracePath{detour()})

	assert.Empty(t, CheckLayout(r, Options{MinClearance: 0.25}))

	vs := CheckLayout(r, Options{MinClearance: 0.5})
	require.Len(t, vs, 1, "one warning per trace and chip")
	assert.Equal(t, KindTightClearance, vs[0].Kind)
	assert.Equal(t, "X", vs[0].ObjectID)
	assert.InDelta(t, 0.3, vs[0].Distance, 1e-9)
	assert.Equal(t, geom.Pt(1.5, 0), vs[0].At)
}

func TestCheckLayout_Labels(t *testing.T) {
	onTrace := model.NetLabelPlacement{NetID: "B", Center: geom.Pt(2.6, 0.5), Width: 0.4, Height: 0.2}
	onChip := model.NetLabelPlacement{NetID: "C", Center: geom.Pt(2, 0), Width: 0.4, Height: 0.2}
	onLabel := model.NetLabelPlacement{NetID: "D", Center: geom.Pt(2.6, 0.55), Width: 0.4, Height: 0.2}
	ownNet := model.NetLabelPlacement{NetID: "SIG", Center: geom.Pt(1, 0.5), Width: 0.4, Height: 0.2}

	vs := CheckLayout(layout([]model.TracePath{detour()}, onTrace, onChip, onLabel, ownNet), Options{})

	got := map[Kind][]string{}
	for _, v := range vs {
		got[v.Kind] = append(got[v.Kind], v.NetID+">"+v.ObjectID)
	}
	assert.ElementsMatch(t, []string{"B>SIG", "D>SIG"}, got[KindLabelOnTrace])
	assert.Equal(t, []string{"C>X"}, got[KindLabelOnChip])
	assert.Equal(t, []string{"B>D"}, got[KindLabelOnLabel])
}

func TestCheckLayout_RoutedResultIsClean(t *testing.T) {
	problem := model.InputProblem{
		Chips: []model.Chip{
			chip("U1", 0, 0, 1, 1, model.Pin{PinID: "a", X: 0.5, Y: 0}),
			chip("U2", 6, 0, 1, 1, model.Pin{PinID: "b", X: 5.5, Y: 0}),
			chip("U3", 3, 0, 1, 2),
		},
		NetConnections: []model.NetConnection{{NetID: "SIG", PinIDs: []string{"a", "b"}}},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	res, err := engine.Route(context.Background(), problem, model.DefaultSettings(), engine.WithLogger(logger))

	require.NoError(t, err)
	require.True(t, res.Solved, res.Error)
	assert.Empty(t, FormatViolations(CheckLayout(res, Options{})))
}

func TestFormatViolations(t *testing.T) {
	vs := []Violation{
		{Kind: KindChipCollision, TraceID: "t1", NetID: "SIG", ObjectID: "X", At: geom.Pt(1, 2)},
		{Kind: KindTightClearance, TraceID: "t1", NetID: "SIG", ObjectID: "X", At: geom.Pt(1.5, 0), Distance: 0.3},
		{Kind: KindLabelOnTrace, TraceID: "t2", NetID: "GND", ObjectID: "SIG", At: geom.Pt(0, 0)},
	}

	lines := FormatViolations(vs)

	require.Len(t, lines, 3)
	assert.Equal(t, "Trace t1 (net SIG): crosses chip X near (1.000, 2.000)", lines[0])
	assert.Contains(t, lines[1], "is 0.300 from chip X")
	assert.True(t, strings.HasPrefix(lines[2], "Label GND"))
	assert.Empty(t, FormatViolations(nil))
}
