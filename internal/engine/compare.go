package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the routing result and computed statistics for
// a single scenario.
type ComparisonResult struct {
	Scenario           ComparisonScenario
	Result             model.RoutingResult
	Err                error
	TraceCount         int
	TotalLength        float64
	TotalTurns         int
	UnroutedPairs      int
	UnplacedLabels     int
	UnresolvedOverlaps int
}

// CompareScenarios routes the problem once per scenario and returns the
// results in scenario order. A scenario whose run errors is reported with
// Err set; the remaining scenarios still run.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, problem model.InputProblem, opts ...Option) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := Route(ctx, problem, scenario.Settings, opts...)

		turns := 0
		for _, t := range result.Traces {
			turns += geom.TurnCount(t.Points)
		}

		results = append(results, ComparisonResult{
			Scenario:           scenario,
			Result:             result,
			Err:                err,
			TraceCount:         len(result.Traces),
			TotalLength:        result.TotalTraceLength(),
			TotalTurns:         turns,
			UnroutedPairs:      len(result.PairFailures),
			UnplacedLabels:     len(result.LabelFailures),
			UnresolvedOverlaps: result.UnresolvedOverlaps,
		})
		if ctx.Err() != nil {
			break
		}
	}

	return results
}

// BuildDefaultScenarios generates what-if alternatives around the given
// settings, varying the parameters that most change the layout.
func BuildDefaultScenarios(base model.Settings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	// Scenario: no guideline channels, elbows and the direct fallback only
	if base.MaxGuidelinesPerAxis > 0 {
		noGuides := base
		noGuides.MaxGuidelinesPerAxis = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Elbows Only",
			Settings: noGuides,
		})
	}

	// Scenario: wider channels around chips
	wide := base
	wide.GuidelineClearance = base.GuidelineClearance * 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("Clearance %.2f (double)", wide.GuidelineClearance),
		Settings: wide,
	})

	// Scenario: no elbow stubs
	if base.ElbowOvershoot > 0 {
		flush := base
		flush.ElbowOvershoot = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "No Elbow Overshoot",
			Settings: flush,
		})
	}

	// Scenario: labels must never sit on a foreign trace
	if base.AllowTraceOverlapFallback {
		strict := base
		strict.AllowTraceOverlapFallback = false
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Strict Label Placement",
			Settings: strict,
		})
	}

	return scenarios
}
