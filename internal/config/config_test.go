package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Identify.ConfidenceThreshold != 5.0 {
		t.Fatalf("threshold default: got %v want 5.0", cfg.Identify.ConfidenceThreshold)
	}
	if !cfg.Observation.RequireGPS {
		t.Fatal("require_gps should default to true")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if resolved != path {
		t.Fatalf("resolved path: got %q want %q", resolved, path)
	}
	if cfg.Export.LongEdge != 1024 || cfg.Export.Quality != 90 {
		t.Fatalf("export defaults: got %+v", cfg.Export)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`temp_dir = "` + filepath.Join(dir, "tmp") + `"`,
		"[identify]",
		"confidence_threshold = 10.0",
		`accent_folding = "unicode"`,
		"[observation]",
		"require_gps = false",
		"[inaturalist]",
		`base_url = "https://example.test/"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.Identify.ConfidenceThreshold != 10.0 {
		t.Fatalf("threshold: got %v", cfg.Identify.ConfidenceThreshold)
	}
	if cfg.Identify.AccentFolding != "unicode" {
		t.Fatalf("accent folding: got %q", cfg.Identify.AccentFolding)
	}
	if cfg.Observation.RequireGPS {
		t.Fatal("require_gps override not applied")
	}
	if cfg.INaturalist.BaseURL != "https://example.test" {
		t.Fatalf("base url not normalized: %q", cfg.INaturalist.BaseURL)
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[identify]\nconfidence_threshold = 250.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation error for threshold above 100")
	}
}

func TestLoadRejectsBadFoldMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[identify]\naccent_folding = \"latin1\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unsupported fold mode")
	}
}

func TestCreateSampleWritesEmbeddedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[inaturalist]") {
		t.Fatal("sample config missing [inaturalist] section")
	}
}

func TestPathHelpers(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = "/data"
	if cfg.CatalogPath() != filepath.Join("/data", "catalog.db") {
		t.Fatalf("catalog path: %q", cfg.CatalogPath())
	}
	if cfg.TokenStatePath() != filepath.Join("/data", "token_state.json") {
		t.Fatalf("token state path: %q", cfg.TokenStatePath())
	}
}
