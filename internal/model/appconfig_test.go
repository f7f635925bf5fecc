package model

import (
	"fmt"
	"testing"
)

func TestDefaultAppConfigMatchesDefaultSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	defaults := DefaultSettings()

	if cfg.DefaultElbowOvershoot != defaults.ElbowOvershoot {
		t.Errorf("ElbowOvershoot mismatch: config=%f settings=%f", cfg.DefaultElbowOvershoot, defaults.ElbowOvershoot)
	}
	if cfg.DefaultParallelism != defaults.Parallelism {
		t.Errorf("Parallelism mismatch: config=%d settings=%d", cfg.DefaultParallelism, defaults.Parallelism)
	}
	if cfg.DefaultMaxOverlapIterations != defaults.MaxOverlapIterations {
		t.Errorf("MaxOverlapIterations mismatch: config=%d settings=%d", cfg.DefaultMaxOverlapIterations, defaults.MaxOverlapIterations)
	}
	if cfg.Theme != "light" {
		t.Errorf("expected default theme=light, got %s", cfg.Theme)
	}
	if cfg.RecentProblems == nil {
		t.Error("RecentProblems should not be nil")
	}
}

func TestApplyToSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.DefaultElbowOvershoot = 0.5
	cfg.DefaultParallelism = 4
	cfg.DefaultFailOnUnresolvedOverlap = true

	s := DefaultSettings()
	cfg.ApplyToSettings(&s)

	if s.ElbowOvershoot != 0.5 {
		t.Errorf("expected ElbowOvershoot=0.5, got %f", s.ElbowOvershoot)
	}
	if s.Parallelism != 4 {
		t.Errorf("expected Parallelism=4, got %d", s.Parallelism)
	}
	if !s.FailOnUnresolvedOverlap {
		t.Error("expected FailOnUnresolvedOverlap=true")
	}
	if s.MaxLabelCandidates != DefaultSettings().MaxLabelCandidates {
		t.Error("fields without an AppConfig default must be left alone")
	}
}

func TestAddRecentProblem(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.AddRecentProblem("a.json")
	cfg.AddRecentProblem("b.json")
	cfg.AddRecentProblem("a.json")

	if len(cfg.RecentProblems) != 2 || cfg.RecentProblems[0] != "a.json" {
		t.Errorf("expected [a.json b.json], got %v", cfg.RecentProblems)
	}

	for i := 0; i < MaxRecentProblems+5; i++ {
		cfg.AddRecentProblem(fmt.Sprintf("p%d.json", i))
	}
	if len(cfg.RecentProblems) != MaxRecentProblems {
		t.Errorf("expected %d recent problems, got %d", MaxRecentProblems, len(cfg.RecentProblems))
	}
}
