package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/spatial"
)

func defaultTestSettings() model.Settings {
	return model.DefaultSettings()
}

func testChip(id string, cx, cy, w, h float64, pins ...model.Pin) model.Chip {
	return model.Chip{ChipID: id, Center: geom.Pt(cx, cy), Width: w, Height: h, Pins: pins}
}

func testPin(id string, x, y float64) model.Pin {
	return model.Pin{PinID: id, X: x, Y: y}
}

func mustSchematic(t *testing.T, p model.InputProblem) *model.Schematic {
	t.Helper()
	s, err := model.NewSchematic(p)
	require.NoError(t, err)
	return s
}

func chipIndex(s *model.Schematic) *spatial.Index {
	var obs []spatial.Obstacle
	for _, c := range s.Chips() {
		obs = append(obs, spatial.Obstacle{ID: c.ChipID, Bounds: c.Bounds()})
	}
	return spatial.NewIndex(obs)
}

func mustPair(t *testing.T, s *model.Schematic, netID, a, b string) model.ConnectionPair {
	t.Helper()
	ra, ok := s.PinRef(a)
	require.True(t, ok, a)
	rb, ok := s.PinRef(b)
	require.True(t, ok, b)
	return model.ConnectionPair{ID: netID + ":" + a + "-" + b, NetID: netID, Pins: [2]model.PinRef{ra, rb}}
}

// straightProblem has two chips whose facing pins share y=0 with nothing
// in between.
func straightProblem() model.InputProblem {
	return model.InputProblem{
		Chips: []model.Chip{
			testChip("U1", 0, 0, 1, 1, testPin("U1.1", 0.5, 0), testPin("U1.2", -0.5, 0)),
			testChip("U2", 3, 0, 1, 1, testPin("U2.1", 2.5, 0), testPin("U2.2", 3.5, 0)),
		},
		NetConnections: []model.NetConnection{{NetID: "SIG", PinIDs: []string{"U1.1", "U2.1"}}},
	}
}

// blockedProblem wires two pins whose straight line runs through U3.
func blockedProblem() model.InputProblem {
	return model.InputProblem{
		Chips: []model.Chip{
			testChip("U1", 0, 0, 1, 1, testPin("U1.1", 0.5, 0)),
			testChip("U2", 6, 0, 1, 1, testPin("U2.1", 5.5, 0)),
			testChip("U3", 3, 0, 1, 2),
		},
		DirectConnections: []model.DirectConnection{{PinIDs: [2]string{"U1.1", "U2.1"}}},
	}
}

func guidelinesFor(s *model.Schematic, settings model.Settings) []model.Guideline {
	chips := s.Chips()
	return append(
		axisGuidelines(chips, geom.Vertical, settings.GuidelineClearance),
		axisGuidelines(chips, geom.Horizontal, settings.GuidelineClearance)...,
	)
}
