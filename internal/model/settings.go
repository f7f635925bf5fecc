package model

import (
	"fmt"
	"math"
)

// Settings tunes every routing stage. The zero value is not usable; start
// from DefaultSettings.
type Settings struct {
	// Iteration ceiling applied to every solver.
	MaxIterations int `json:"max_iterations" mapstructure:"max_iterations"`

	// Obstacle margin used for foreign chips. Negative shrinks chips.
	ObstacleMargin float64 `json:"obstacle_margin" mapstructure:"obstacle_margin"`
	// Inward margin used when checking a trace against its own chips.
	OwnChipMargin float64 `json:"own_chip_margin" mapstructure:"own_chip_margin"`

	// Single-line search
	ElbowOvershoot       float64 `json:"elbow_overshoot" mapstructure:"elbow_overshoot"`
	GuidelineClearance   float64 `json:"guideline_clearance" mapstructure:"guideline_clearance"`
	MaxGuidelinesPerAxis int     `json:"max_guidelines_per_axis" mapstructure:"max_guidelines_per_axis"`
	UseDirectFallback    bool    `json:"use_direct_fallback" mapstructure:"use_direct_fallback"`
	Parallelism          int     `json:"parallelism" mapstructure:"parallelism"`

	// Net labels
	NetLabelHeight            float64 `json:"net_label_height" mapstructure:"net_label_height"`
	NetLabelCharWidth         float64 `json:"net_label_char_width" mapstructure:"net_label_char_width"`
	NetLabelPadding           float64 `json:"net_label_padding" mapstructure:"net_label_padding"`
	LabelStandoffStep         float64 `json:"label_standoff_step" mapstructure:"label_standoff_step"`
	MaxLabelStandoffSteps     int     `json:"max_label_standoff_steps" mapstructure:"max_label_standoff_steps"`
	MaxLabelCandidates        int     `json:"max_label_candidates" mapstructure:"max_label_candidates"`
	AllowTraceOverlapFallback bool    `json:"allow_trace_overlap_fallback" mapstructure:"allow_trace_overlap_fallback"`

	// Overlap avoidance
	OverlapClearance        float64 `json:"overlap_clearance" mapstructure:"overlap_clearance"`
	MaxOverlapIterations    int     `json:"max_overlap_iterations" mapstructure:"max_overlap_iterations"`
	FailOnUnresolvedOverlap bool    `json:"fail_on_unresolved_overlap" mapstructure:"fail_on_unresolved_overlap"`

	// Multiplier applied to label budgets when the pipeline retries the
	// label stage. 1 or less disables the retry.
	RetryBudgetMultiplier int `json:"retry_budget_multiplier" mapstructure:"retry_budget_multiplier"`
}

// DefaultSettings returns the settings used when nothing is configured.
// Distances are in schematic units where a typical pin pitch is 0.2.
func DefaultSettings() Settings {
	return Settings{
		MaxIterations:             100_000,
		ObstacleMargin:            0,
		OwnChipMargin:             -0.001,
		ElbowOvershoot:            0.2,
		GuidelineClearance:        0.1,
		MaxGuidelinesPerAxis:      8,
		UseDirectFallback:         true,
		Parallelism:               1,
		NetLabelHeight:            0.2,
		NetLabelCharWidth:         0.1,
		NetLabelPadding:           0.05,
		LabelStandoffStep:         0.1,
		MaxLabelStandoffSteps:     10,
		MaxLabelCandidates:        64,
		AllowTraceOverlapFallback: true,
		OverlapClearance:          0.05,
		MaxOverlapIterations:      50,
		FailOnUnresolvedOverlap:   false,
		RetryBudgetMultiplier:     2,
	}
}

// Validate reports the first setting that would make a stage misbehave.
func (s Settings) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"obstacle_margin", s.ObstacleMargin},
		{"own_chip_margin", s.OwnChipMargin},
		{"elbow_overshoot", s.ElbowOvershoot},
		{"guideline_clearance", s.GuidelineClearance},
		{"net_label_height", s.NetLabelHeight},
		{"net_label_char_width", s.NetLabelCharWidth},
		{"net_label_padding", s.NetLabelPadding},
		{"label_standoff_step", s.LabelStandoffStep},
		{"overlap_clearance", s.OverlapClearance},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("setting %s must be finite", f.name)
		}
	}
	switch {
	case s.MaxIterations <= 0:
		return fmt.Errorf("setting max_iterations must be positive, got %d", s.MaxIterations)
	case s.OwnChipMargin > 0:
		return fmt.Errorf("setting own_chip_margin must not be positive, got %g", s.OwnChipMargin)
	case s.ElbowOvershoot < 0:
		return fmt.Errorf("setting elbow_overshoot must not be negative, got %g", s.ElbowOvershoot)
	case s.NetLabelHeight <= 0:
		return fmt.Errorf("setting net_label_height must be positive, got %g", s.NetLabelHeight)
	case s.LabelStandoffStep <= 0:
		return fmt.Errorf("setting label_standoff_step must be positive, got %g", s.LabelStandoffStep)
	case s.OverlapClearance < 0:
		return fmt.Errorf("setting overlap_clearance must not be negative, got %g", s.OverlapClearance)
	case s.MaxGuidelinesPerAxis < 0, s.MaxLabelStandoffSteps < 0, s.MaxLabelCandidates < 0,
		s.MaxOverlapIterations < 0, s.Parallelism < 0:
		return fmt.Errorf("search budgets must not be negative")
	}
	return nil
}

// ScaleBudgets returns a copy of s whose label search budgets are
// multiplied by factor.
func (s Settings) ScaleBudgets(factor int) Settings {
	if factor <= 1 {
		return s
	}
	s.MaxLabelStandoffSteps *= factor
	s.MaxLabelCandidates *= factor
	s.MaxOverlapIterations *= factor
	return s
}

// LabelWidth returns the width of the label drawn for netID. An explicit
// width from the net connection wins.
func (s Settings) LabelWidth(netID string, explicit float64) float64 {
	if explicit > 0 {
		return explicit
	}
	return float64(len(netID))*s.NetLabelCharWidth + 2*s.NetLabelPadding
}
