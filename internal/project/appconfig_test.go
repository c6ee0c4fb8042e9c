package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/barcut/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultSawKerf = 4.0
	cfg.DefaultAlgorithm = model.AlgorithmGreedy
	cfg.UpdateOrderItems = true
	cfg.ExportFormats = []string{"pdf", "xlsx"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.DefaultSawKerf != 4.0 {
		t.Errorf("expected DefaultSawKerf=4.0, got %f", loaded.DefaultSawKerf)
	}
	if loaded.DefaultAlgorithm != model.AlgorithmGreedy {
		t.Errorf("expected greedy, got %s", loaded.DefaultAlgorithm)
	}
	if !loaded.UpdateOrderItems {
		t.Error("expected UpdateOrderItems=true")
	}
	if len(loaded.ExportFormats) != 2 {
		t.Errorf("expected 2 export formats, got %d", len(loaded.ExportFormats))
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	defaults := model.DefaultAppConfig()
	if cfg.DefaultSawKerf != defaults.DefaultSawKerf {
		t.Errorf("expected default kerf %f, got %f", defaults.DefaultSawKerf, cfg.DefaultSawKerf)
	}
	if cfg.UpdateOrderItems {
		t.Error("order item updates should be off by default")
	}
}

func TestLoadAppConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"default_saw_kerf": 2.5}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.DefaultSawKerf != 2.5 {
		t.Errorf("expected kerf 2.5, got %f", cfg.DefaultSawKerf)
	}
	if cfg.DefaultMaxPatterns != model.DefaultAppConfig().DefaultMaxPatterns {
		t.Errorf("missing field should keep its default, got %d", cfg.DefaultMaxPatterns)
	}
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAppConfig(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.json")
	if err := SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	if filepath.Base(DefaultConfigPath()) != "config.json" {
		t.Errorf("unexpected config path %s", DefaultConfigPath())
	}
	if filepath.Base(DefaultConfigDir()) != ".barcut" {
		t.Errorf("unexpected config dir %s", DefaultConfigDir())
	}
}
