package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/SchemTrace/internal/model"
)

// ArchiveVersion is written into every run archive.
const ArchiveVersion = "1.0.0"

// RunArchive bundles a routing run so it can be reproduced: the problem, the
// settings it ran with and the result it produced.
type RunArchive struct {
	Version   string              `json:"version"`
	CreatedAt string              `json:"created_at"`
	Settings  model.Settings      `json:"settings"`
	Problem   model.InputProblem  `json:"problem"`
	Result    model.RoutingResult `json:"result"`
}

// SaveRun writes a run archive to path.
func SaveRun(path string, problem model.InputProblem, settings model.Settings, result model.RoutingResult) error {
	archive := RunArchive{
		Version:   ArchiveVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Settings:  settings,
		Problem:   problem,
		Result:    result,
	}
	if err := writeJSON(path, archive); err != nil {
		return fmt.Errorf("failed to write run archive: %w", err)
	}
	return nil
}

// LoadRun reads a run archive written by SaveRun.
func LoadRun(path string) (RunArchive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunArchive{}, fmt.Errorf("failed to read run archive: %w", err)
	}
	var archive RunArchive
	if err := json.Unmarshal(data, &archive); err != nil {
		return RunArchive{}, fmt.Errorf("failed to parse run archive: %w", err)
	}
	if archive.Version == "" {
		return RunArchive{}, fmt.Errorf("invalid run archive: missing version field")
	}
	return archive, nil
}
