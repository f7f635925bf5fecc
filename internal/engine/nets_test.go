package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SchemTrace/internal/model"
)

func TestGroupNets_MergesSharedPinsAndNames(t *testing.T) {
	p := model.InputProblem{
		DirectConnections: []model.DirectConnection{
			{PinIDs: [2]string{"a", "b"}},
			{PinIDs: [2]string{"e", "f"}, NetID: "CLK"},
			{PinIDs: [2]string{"g", "h"}},
		},
		NetConnections: []model.NetConnection{
			{NetID: "VCC", PinIDs: []string{"b", "c"}, NetLabelWidth: 0.7},
			{NetID: "GND", PinIDs: []string{"d"}},
		},
	}

	nets := GroupNets(p)

	require.Len(t, nets, 4)
	assert.Equal(t, "VCC", nets[0].ID)
	assert.Equal(t, []string{"a", "b", "c"}, nets[0].PinIDs)
	assert.True(t, nets[0].FromNetConnection)
	assert.InDelta(t, 0.7, nets[0].LabelWidth, 1e-9)

	assert.Equal(t, "CLK", nets[1].ID)
	assert.Equal(t, []string{"e", "f"}, nets[1].PinIDs)
	assert.False(t, nets[1].FromNetConnection)

	assert.True(t, strings.HasPrefix(nets[2].ID, "net-"), nets[2].ID)
	assert.Len(t, nets[2].ID, len("net-")+8)
	assert.Empty(t, nets[2].UserNetIDs)

	assert.Equal(t, "GND", nets[3].ID)
	assert.Equal(t, []string{"d"}, nets[3].PinIDs)
	assert.True(t, nets[3].FromNetConnection)
}

func TestGroupNets_SameNetIDJoins(t *testing.T) {
	p := model.InputProblem{
		NetConnections: []model.NetConnection{
			{NetID: "X", PinIDs: []string{"p"}},
			{NetID: "X", PinIDs: []string{"q"}},
		},
		DirectConnections: []model.DirectConnection{
			{PinIDs: [2]string{"r", "s"}, NetID: "X"},
		},
	}

	nets := GroupNets(p)

	require.Len(t, nets, 1)
	assert.Equal(t, "X", nets[0].ID)
	assert.ElementsMatch(t, []string{"p", "q", "r", "s"}, nets[0].PinIDs)
	assert.Equal(t, []string{"X"}, nets[0].UserNetIDs)
}

func TestGroupNets_GeneratedIDIsDeterministic(t *testing.T) {
	p := model.InputProblem{
		DirectConnections: []model.DirectConnection{{PinIDs: [2]string{"U1.1", "U2.1"}}},
	}
	first := GroupNets(p)
	second := GroupNets(p)
	require.Len(t, first, 1)
	assert.Equal(t, first[0].ID, second[0].ID)

	other := GroupNets(model.InputProblem{
		DirectConnections: []model.DirectConnection{{PinIDs: [2]string{"U1.2", "U2.1"}}},
	})
	assert.NotEqual(t, first[0].ID, other[0].ID)
}

func TestGroupNets_Empty(t *testing.T) {
	assert.Empty(t, GroupNets(model.InputProblem{}))
}
