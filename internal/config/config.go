// Package config loads the host tuning knobs a long-running brain-runtime
// process reads at startup: where the function-table manifest lives, the
// rule dirty-debounce interval, and test-harness overrides for the rule
// depth / tileset size caps.
//
// A single struct unmarshaled wholesale from YAML, with a Default
// constructor that fills in zero-valued fields.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// RuntimeConfig configures the runtime (internal/runtime) and the API
// façade (internal/api) a host process starts up with.
type RuntimeConfig struct {
	// ManifestPath is the JSON function-table manifest loaded by
	// functions.LoadManifest at startup.
	ManifestPath string `yaml:"manifest_path"`

	// DirtyDebounce is the configured rule dirty-debounce interval; Load
	// replaces zero with the 50ms default. Expressed as a Go duration
	// string ("50ms"). Package brain does not read this field: its rules
	// always debounce by the brain.DirtyDebounce constant.
	DirtyDebounce time.Duration `yaml:"dirty_debounce"`

	// MaxRuleDepth and MaxTileSetSize are configured caps; zero means "use
	// the package default". EffectiveMaxRuleDepth and
	// EffectiveMaxTileSetSize never return less than the floor passed in,
	// so a value below it is ignored. Package brain does not read these
	// fields: it enforces its own brain.MaxRuleDepth and
	// brain.MaxTileSetSize constants.
	MaxRuleDepth   int `yaml:"max_rule_depth"`
	MaxTileSetSize int `yaml:"max_tileset_size"`

	API APIConfig `yaml:"api"`
}

// APIConfig configures internal/api's HTTP/WebSocket façade.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the zero-knob configuration: every field at its
// package-default value, API listening on :8080.
func Default() *RuntimeConfig {
	return &RuntimeConfig{
		DirtyDebounce: 50 * time.Millisecond,
		API:           APIConfig{Addr: ":8080"},
	}
}

// Load reads a YAML RuntimeConfig from path, filling in any field left at
// its zero value from Default().
func Load(path string) (*RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.DirtyDebounce == 0 {
		cfg.DirtyDebounce = Default().DirtyDebounce
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = Default().API.Addr
	}
	return cfg, nil
}

// EffectiveMaxRuleDepth returns the depth cap a caller should enforce,
// never lower than floor (the package's own constant).
func (c *RuntimeConfig) EffectiveMaxRuleDepth(floor int) int {
	if c.MaxRuleDepth <= 0 || c.MaxRuleDepth < floor {
		return floor
	}
	return c.MaxRuleDepth
}

// EffectiveMaxTileSetSize returns the tileset size cap a caller should
// enforce, never lower than floor.
func (c *RuntimeConfig) EffectiveMaxTileSetSize(floor int) int {
	if c.MaxTileSetSize <= 0 || c.MaxTileSetSize < floor {
		return floor
	}
	return c.MaxTileSetSize
}
