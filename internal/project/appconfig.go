// Package project persists routing problems, settings, results and run
// archives as JSON files, plus the user's application config.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/SchemTrace/internal/model"
)

// HomeEnv overrides the config directory when set.
const HomeEnv = "SCHEMTRACE_HOME"

// DefaultConfigDir returns $SCHEMTRACE_HOME, or ~/.schemtrace when unset.
func DefaultConfigDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".schemtrace")
}

// DefaultConfigPath returns the app config file inside DefaultConfigDir.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig writes config to path, creating parent directories.
func SaveAppConfig(path string, config model.AppConfig) error {
	normalizeAppConfig(&config)
	if err := writeJSON(path, config); err != nil {
		return fmt.Errorf("failed to save app config: %w", err)
	}
	return nil
}

// LoadAppConfig reads the app config at path over DefaultAppConfig, so keys
// missing from the file keep their defaults. A missing file yields the
// defaults. The routing defaults it carries must form valid settings.
func LoadAppConfig(path string) (model.AppConfig, error) {
	config := model.DefaultAppConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to read app config: %w", err)
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to parse app config %s: %w", path, err)
	}

	s := model.DefaultSettings()
	config.ApplyToSettings(&s)
	if err := s.Validate(); err != nil {
		return model.AppConfig{}, fmt.Errorf("invalid app config %s: %w", path, err)
	}
	normalizeAppConfig(&config)
	return config, nil
}

// RememberProblem records problemPath as the most recent problem in the
// app config at path.
func RememberProblem(path, problemPath string) error {
	config, err := LoadAppConfig(path)
	if err != nil {
		return err
	}
	if abs, err := filepath.Abs(problemPath); err == nil {
		problemPath = abs
	}
	config.AddRecentProblem(problemPath)
	return SaveAppConfig(path, config)
}

// normalizeAppConfig drops blank and repeated recent entries and caps the
// list at MaxRecentProblems.
func normalizeAppConfig(c *model.AppConfig) {
	recent := make([]string, 0, len(c.RecentProblems))
	for _, p := range c.RecentProblems {
		p = strings.TrimSpace(p)
		if p == "" || containsPath(recent, p) {
			continue
		}
		recent = append(recent, p)
	}
	if len(recent) > model.MaxRecentProblems {
		recent = recent[:model.MaxRecentProblems]
	}
	c.RecentProblems = recent
}

func containsPath(list []string, p string) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

// writeJSON writes v as indented JSON through a temp file in the target
// directory, so readers never see a half-written file.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
