package functions

import (
	"testing"

	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
	"github.com/humanapp/mindcraft-lang-sub002/internal/value"
)

func TestRegisterAndCall(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Entry{
		TileID:     "sensor.alwaysTrue",
		ReturnType: types.Boolean,
		Placement:  PlacementInline,
		Exec: func(ctx *Context, args *value.Map) value.Value {
			return value.Bool{V: true}
		},
	})

	var diags []string
	ctx := &Context{Diagnostics: &diags}
	got := reg.Call(ctx, "sensor.alwaysTrue", value.NewMap())
	if b, ok := got.(value.Bool); !ok || !b.V {
		t.Fatalf("Call() = %v, want Bool{true}", got)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestCallUnregisteredReportsDiagnostic(t *testing.T) {
	reg := NewRegistry()
	var diags []string
	ctx := &Context{Diagnostics: &diags}
	got := reg.Call(ctx, "missing.tile", value.NewMap())
	if _, ok := got.(value.Nil); !ok {
		t.Fatalf("Call() = %v, want Nil", got)
	}
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", diags)
	}
}

func TestLoadManifest(t *testing.T) {
	doc := []byte(`[
		{"tileId": "vision.seesTarget", "returnType": "Boolean", "placement": "inline"},
		{"tileId": "actuator.moveTo", "returnType": "Nil", "actuator": true}
	]`)
	reg, err := LoadManifest(doc)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	e, ok := reg.Lookup("vision.seesTarget")
	if !ok {
		t.Fatal("expected vision.seesTarget to be registered")
	}
	if e.Placement != PlacementInline || e.ReturnType != types.Boolean {
		t.Fatalf("vision.seesTarget entry = %+v", e)
	}
	e2, ok := reg.Lookup("actuator.moveTo")
	if !ok || !e2.IsActuator {
		t.Fatalf("expected actuator.moveTo to be a registered actuator, got %+v ok=%v", e2, ok)
	}
}

func TestLoadManifestRejectsMissingTileID(t *testing.T) {
	doc := []byte(`[{"returnType": "Boolean"}]`)
	if _, err := LoadManifest(doc); err == nil {
		t.Fatal("expected error for manifest entry missing tileId")
	}
}
