package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaultScenarios(t *testing.T) {
	scenarios := BuildDefaultScenarios(defaultTestSettings())

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"Current Settings",
		"Elbows Only",
		"Clearance 0.20 (double)",
		"No Elbow Overshoot",
		"Strict Label Placement",
	}, names)
	assert.Zero(t, scenarios[1].Settings.MaxGuidelinesPerAxis)
	assert.Zero(t, scenarios[3].Settings.ElbowOvershoot)
	assert.False(t, scenarios[4].Settings.AllowTraceOverlapFallback)
}

func TestBuildDefaultScenarios_SkipsNoOps(t *testing.T) {
	base := defaultTestSettings()
	base.MaxGuidelinesPerAxis = 0
	base.ElbowOvershoot = 0
	base.AllowTraceOverlapFallback = false

	assert.Len(t, BuildDefaultScenarios(base), 2)
}

func TestCompareScenarios(t *testing.T) {
	scenarios := BuildDefaultScenarios(defaultTestSettings())

	results := CompareScenarios(context.Background(), scenarios, straightProblem(), quietLogger())

	require.Len(t, results, len(scenarios))
	for i, r := range results {
		assert.Equal(t, scenarios[i].Name, r.Scenario.Name)
		assert.NoError(t, r.Err)
		assert.Equal(t, 1, r.TraceCount)
		assert.InDelta(t, 2, r.TotalLength, 1e-9)
		assert.Zero(t, r.TotalTurns)
		assert.Zero(t, r.UnroutedPairs)
		assert.Zero(t, r.UnplacedLabels)
	}
}

func TestCompareScenarios_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := CompareScenarios(ctx, BuildDefaultScenarios(defaultTestSettings()), straightProblem(), quietLogger())

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
