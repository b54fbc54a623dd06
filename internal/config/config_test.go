package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	if err := os.WriteFile(path, []byte("manifest_path: ./manifest.json\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ManifestPath != "./manifest.json" {
		t.Fatalf("ManifestPath = %q", cfg.ManifestPath)
	}
	if cfg.DirtyDebounce != 50*time.Millisecond {
		t.Fatalf("expected default DirtyDebounce, got %v", cfg.DirtyDebounce)
	}
	if cfg.API.Addr != ":8080" {
		t.Fatalf("expected default API addr, got %q", cfg.API.Addr)
	}
}

func TestEffectiveCapsNeverLowerThanFloor(t *testing.T) {
	cfg := Default()
	cfg.MaxRuleDepth = 5
	if got := cfg.EffectiveMaxRuleDepth(20); got != 20 {
		t.Fatalf("EffectiveMaxRuleDepth should not go below floor, got %d", got)
	}
	cfg.MaxRuleDepth = 30
	if got := cfg.EffectiveMaxRuleDepth(20); got != 30 {
		t.Fatalf("EffectiveMaxRuleDepth should allow raising above floor, got %d", got)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
