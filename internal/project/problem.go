package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/piwi3910/SchemTrace/internal/model"
)

// LoadProblem reads a routing problem. Geometry is not validated here;
// engine.Route rejects malformed problems.
func LoadProblem(path string) (model.InputProblem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.InputProblem{}, fmt.Errorf("failed to read problem: %w", err)
	}
	var p model.InputProblem
	if err := json.Unmarshal(data, &p); err != nil {
		return model.InputProblem{}, fmt.Errorf("failed to parse problem %s: %w", path, err)
	}
	if len(p.Chips) == 0 {
		return model.InputProblem{}, fmt.Errorf("problem %s has no chips", path)
	}
	return p, nil
}

// SaveProblem writes p as indented JSON.
func SaveProblem(path string, p model.InputProblem) error {
	if err := writeJSON(path, p); err != nil {
		return fmt.Errorf("failed to write problem: %w", err)
	}
	return nil
}

// LoadResult reads a routing result written by SaveResult or
// export.ExportJSON.
func LoadResult(path string) (model.RoutingResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RoutingResult{}, fmt.Errorf("failed to read result: %w", err)
	}
	var r model.RoutingResult
	if err := json.Unmarshal(data, &r); err != nil {
		return model.RoutingResult{}, fmt.Errorf("failed to parse result %s: %w", path, err)
	}
	return r, nil
}

// SaveResult writes r as indented JSON.
func SaveResult(path string, r model.RoutingResult) error {
	if err := writeJSON(path, r); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
