package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/humanapp/mindcraft-lang-sub002/internal/brain"
	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/serialize"
)

func writeTestBrainFile(t *testing.T) string {
	t.Helper()
	b, err := brain.NewBrainDef("cli test brain")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.AddPage("page one"); err != nil {
		t.Fatal(err)
	}

	data, err := serialize.SaveBrain(b)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "test.brain")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaultsWithoutPath(t *testing.T) {
	configPath = ""
	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Addr != ":8080" {
		t.Fatalf("expected default API addr, got %q", cfg.API.Addr)
	}
}

func TestBuildEnvWithoutManifest(t *testing.T) {
	manifestPath = ""
	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	env, err := buildEnv(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if env.Global == nil || env.Funcs == nil || env.Ops == nil {
		t.Fatalf("expected fully initialized env, got %+v", env)
	}
}

func TestBuildEnvLoadsManifestFile(t *testing.T) {
	doc := []byte(`[{"tileId": "sense.double", "returnType": "Number"}]`)
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatal(err)
	}

	manifestPath = path
	defer func() { manifestPath = "" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	env, err := buildEnv(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := env.Funcs.Lookup("sense.double"); !ok {
		t.Fatal("expected manifest-declared tile to be registered")
	}
}

func TestLoadBrainFileRoundTrips(t *testing.T) {
	path := writeTestBrainFile(t)
	global := catalog.New()

	b, err := loadBrainFile(path, global)
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != "cli test brain" || len(b.Pages) != 1 || b.Pages[0].Name() != "page one" {
		t.Fatalf("unexpected brain: name=%q pages=%d", b.Name(), len(b.Pages))
	}
}

func TestRunValidateReportsOkForEmptyBrain(t *testing.T) {
	path := writeTestBrainFile(t)
	configPath = ""
	manifestPath = ""

	if err := runValidate(nil, []string{path}); err != nil {
		t.Fatalf("expected an empty page with no rules to validate cleanly, got %v", err)
	}
}

func TestRunDumpDoesNotError(t *testing.T) {
	path := writeTestBrainFile(t)
	configPath = ""
	manifestPath = ""
	dumpHex = false

	if err := runDump(nil, []string{path}); err != nil {
		t.Fatal(err)
	}
}
