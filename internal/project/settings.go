package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/piwi3910/SchemTrace/internal/model"
)

// SaveSettings writes routing settings as indented JSON.
func SaveSettings(path string, s model.Settings) error {
	if err := writeJSON(path, s); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// LoadSettings reads routing settings from path. Keys missing from the file
// keep their DefaultSettings value, and a missing file yields the defaults.
func LoadSettings(path string) (model.Settings, error) {
	s := model.DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return model.Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return model.Settings{}, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}
