package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/SchemTrace/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultElbowOvershoot = 0.4
	cfg.Theme = "dark"
	cfg.DefaultParallelism = 4
	cfg.RecentProblems = []string{"/tmp/board1.json", "/tmp/board2.json"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.DefaultElbowOvershoot != 0.4 {
		t.Errorf("expected DefaultElbowOvershoot=0.4, got %f", loaded.DefaultElbowOvershoot)
	}
	if loaded.Theme != "dark" {
		t.Errorf("expected Theme=dark, got %s", loaded.Theme)
	}
	if loaded.DefaultParallelism != 4 {
		t.Errorf("expected DefaultParallelism=4, got %d", loaded.DefaultParallelism)
	}
	if len(loaded.RecentProblems) != 2 {
		t.Errorf("expected 2 recent problems, got %d", len(loaded.RecentProblems))
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	defaults := model.DefaultAppConfig()
	if cfg.DefaultElbowOvershoot != defaults.DefaultElbowOvershoot {
		t.Errorf("expected default overshoot %f, got %f", defaults.DefaultElbowOvershoot, cfg.DefaultElbowOvershoot)
	}
	if cfg.Theme != "light" {
		t.Errorf("expected theme=light, got %s", cfg.Theme)
	}
}

func TestLoadAppConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"theme":"dark"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.Theme != "dark" {
		t.Errorf("expected Theme=dark, got %s", cfg.Theme)
	}
	if cfg.DefaultParallelism != model.DefaultSettings().Parallelism {
		t.Errorf("missing keys should keep defaults, got parallelism %d", cfg.DefaultParallelism)
	}
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := os.WriteFile(path, []byte("not valid json{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadAppConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "dir", "config.json")

	cfg := model.DefaultAppConfig()
	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}
}

func TestLoadAppConfigNilRecentProblems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	data := []byte(`{"default_elbow_overshoot":0.3,"theme":"light","recent_problems":null}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.RecentProblems == nil {
		t.Error("RecentProblems should not be nil after loading")
	}
}

func TestDefaultConfigDirHonorsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	if got := DefaultConfigDir(); got != dir {
		t.Errorf("expected %s, got %s", dir, got)
	}
	if got := DefaultConfigPath(); got != filepath.Join(dir, "config.json") {
		t.Errorf("unexpected config path %s", got)
	}
}

func TestLoadAppConfigRejectsInvalidDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"default_elbow_overshoot":-1}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadAppConfig(path)
	if err == nil {
		t.Fatal("expected error for negative elbow overshoot")
	}
	if !strings.Contains(err.Error(), "elbow_overshoot") {
		t.Errorf("error should name the setting, got: %v", err)
	}
}

func TestLoadAppConfigNormalizesRecentProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := []byte(`{"recent_problems":["a.json"," ","a.json","b.json",""]}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if len(cfg.RecentProblems) != 2 || cfg.RecentProblems[0] != "a.json" || cfg.RecentProblems[1] != "b.json" {
		t.Errorf("expected [a.json b.json], got %v", cfg.RecentProblems)
	}
}

func TestRememberProblem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	for i := 0; i < model.MaxRecentProblems+2; i++ {
		if err := RememberProblem(path, filepath.Join(dir, fmt.Sprintf("board%d.json", i))); err != nil {
			t.Fatalf("RememberProblem failed: %v", err)
		}
	}
	if err := RememberProblem(path, filepath.Join(dir, "board5.json")); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.RecentProblems) != model.MaxRecentProblems {
		t.Fatalf("expected %d recent problems, got %d", model.MaxRecentProblems, len(cfg.RecentProblems))
	}
	if cfg.RecentProblems[0] != filepath.Join(dir, "board5.json") {
		t.Errorf("most recent should come first, got %s", cfg.RecentProblems[0])
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".config.json") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}
