package cmd

import (
	"fmt"
	"os"

	"github.com/humanapp/mindcraft-lang-sub002/internal/brain"
	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/config"
	"github.com/humanapp/mindcraft-lang-sub002/internal/functions"
	"github.com/humanapp/mindcraft-lang-sub002/internal/overloads"
	"github.com/humanapp/mindcraft-lang-sub002/internal/runtime"
	"github.com/humanapp/mindcraft-lang-sub002/internal/serialize"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

// loadConfig reads configPath if set, falling back to config.Default().
func loadConfig() (*config.RuntimeConfig, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// buildEnv assembles a runtime.Env from a config's manifest, with an empty
// operator table and conversion registry — a real host process registers
// its own operator overloads and conversions programmatically at startup;
// this CLI only exercises what the manifest and the brain file itself
// declare.
func buildEnv(cfg *config.RuntimeConfig) (runtime.Env, error) {
	path := manifestPath
	if path == "" {
		path = cfg.ManifestPath
	}
	global := catalog.New()
	funcs := functions.NewRegistry()

	if path != "" {
		doc, err := os.ReadFile(path)
		if err != nil {
			return runtime.Env{}, fmt.Errorf("brainctl: reading manifest: %w", err)
		}
		reg, err := functions.LoadManifest(doc)
		if err != nil {
			return runtime.Env{}, fmt.Errorf("brainctl: loading manifest: %w", err)
		}
		funcs = reg
	}

	return runtime.Env{
		Global:      global,
		Funcs:       funcs,
		Ops:         overloads.NewTable(),
		Conversions: overloads.NewConversions(),
		Types:       types.NewRegistry(),
	}, nil
}

// loadBrainFile reads and deserializes a brain wire file against env's
// global catalog, synthesizing Missing placeholders for any tileId the
// manifest didn't declare rather than aborting outright — brainctl is a
// development tool, and a brain referencing an as-yet-unregistered sensor
// is the common case while iterating on a manifest.
func loadBrainFile(path string, global *catalog.Catalog) (*brain.BrainDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("brainctl: reading brain file: %w", err)
	}
	b, err := serialize.LoadBrain(data, global, catalog.ResolvePlaceholder)
	if err != nil {
		return nil, fmt.Errorf("brainctl: loading brain: %w", err)
	}
	return b, nil
}
