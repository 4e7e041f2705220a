package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadConfig_MergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medqc.yaml")
	if err := os.WriteFile(path, []byte("listen: \":9000\"\ndb_path: /tmp/test.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9000" || cfg.DBPath != "/tmp/test.db" {
		t.Errorf("overrides lost: %+v", cfg)
	}
	if cfg.StorageRoot != "uploads" || cfg.MaxFileMB != 100 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medqc.yaml")
	if err := os.WriteFile(path, []byte("max_file_mb: -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/medqc.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
