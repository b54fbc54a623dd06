package checker

import (
	"testing"

	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/functions"
	"github.com/humanapp/mindcraft-lang-sub002/internal/overloads"
	"github.com/humanapp/mindcraft-lang-sub002/internal/parser"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
	"github.com/humanapp/mindcraft-lang-sub002/internal/value"
)

func newEnv(t *testing.T) (Env, *catalog.Catalog) {
	t.Helper()
	global := catalog.New()
	ops := overloads.NewTable()
	convs := overloads.NewConversions()

	if err := ops.Binary("Add", types.Number, types.Number, types.Number,
		func(ctx any, l, r value.Value) (value.Value, error) {
			return value.Number{V: l.(value.Number).V + r.(value.Number).V}, nil
		}, true); err != nil {
		t.Fatal(err)
	}
	if err := ops.Binary("Eq", types.Number, types.Number, types.Boolean,
		func(ctx any, l, r value.Value) (value.Value, error) {
			return value.Bool{V: l.(value.Number).V == r.(value.Number).V}, nil
		}, true); err != nil {
		t.Fatal(err)
	}
	convs.Register(overloads.Conversion{From: types.String, To: types.Number, Cost: 2, CallDef: "ToNumber"})

	funcs := functions.NewRegistry()
	funcs.Register(functions.Entry{TileID: "honk", ReturnType: types.Nil, IsActuator: true})

	env := Env{
		Lookup:      catalog.Lookup{Global: global},
		Funcs:       funcs,
		Ops:         ops,
		Conversions: convs,
		Types:       types.NewRegistry(),
	}
	return env, global
}

func TestCheckBinaryAddExact(t *testing.T) {
	env, global := newEnv(t)
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.2"}, ValueType: types.Number})
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.3"}, ValueType: types.Number})

	defs := []tiles.Def{
		mustGet(t, global, "lit.2"),
		tiles.Operator{Header: tiles.Header{TileID: "op.add"}, OpID: "Add"},
		mustGet(t, global, "lit.3"),
	}
	pr := parser.ParseWhen(defs)
	res := Check(pr, env)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	if pr.Exprs[0].ResolvedType != types.Number {
		t.Fatalf("expected Number, got %v", pr.Exprs[0].ResolvedType)
	}
}

func TestCheckBinaryWithImplicitConversion(t *testing.T) {
	env, global := newEnv(t)
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.str"}, ValueType: types.String})
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.num"}, ValueType: types.Number})

	defs := []tiles.Def{
		mustGet(t, global, "lit.str"),
		tiles.Operator{Header: tiles.Header{TileID: "op.eq"}, OpID: "Eq"},
		mustGet(t, global, "lit.num"),
	}
	pr := parser.ParseWhen(defs)
	res := Check(pr, env)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	if pr.Exprs[0].ResolvedType != types.Boolean {
		t.Fatalf("expected Boolean (String converts to Number for Eq), got %v", pr.Exprs[0].ResolvedType)
	}
}

func TestCheckNoOverload(t *testing.T) {
	env, global := newEnv(t)
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.true"}, ValueType: types.Boolean})
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.num"}, ValueType: types.Number})

	defs := []tiles.Def{
		mustGet(t, global, "lit.true"),
		tiles.Operator{Header: tiles.Header{TileID: "op.add"}, OpID: "Add"},
		mustGet(t, global, "lit.num"),
	}
	pr := parser.ParseWhen(defs)
	res := Check(pr, env)
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != parser.DiagNoOverload {
		t.Fatalf("expected a single NoOverload diagnostic, got %+v", res.Diagnostics)
	}
}

func TestCheckCapabilityMissing(t *testing.T) {
	env, global := newEnv(t)
	const needsVision tiles.Capabilities = 1 << 2
	global.Add(tiles.Sensor{
		Header:     tiles.Header{TileID: "sense.visible", Requirements: needsVision},
		FnEntry:    "senseVisible",
		ReturnType: types.Boolean,
	})

	defs := []tiles.Def{mustGet(t, global, "sense.visible")}
	pr := parser.ParseWhen(defs)
	res := Check(pr, env) // env.Granted is zero value: nothing granted
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == parser.DiagCapabilityMissing {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a CapabilityMissing diagnostic, got %+v", res.Diagnostics)
	}
}

// TestCheckCapabilityGrantedByEnclosingTile is the positive counterpart of
// TestCheckCapabilityMissing: a sensor whose Capabilities include the bit
// its argument Requires makes that argument legal.
func TestCheckCapabilityGrantedByEnclosingTile(t *testing.T) {
	env, global := newEnv(t)
	const targetActor tiles.Capabilities = 1 << 0
	global.Add(tiles.Sensor{
		Header:          tiles.Header{TileID: "sense.target", Capabilities: targetActor},
		FnEntry:         "senseTarget",
		ReturnType:      types.Boolean,
		SensorPlacement: tiles.PlaceInline,
	})
	global.Add(tiles.Variable{
		Header:  tiles.Header{TileID: "v.it", Requirements: targetActor},
		Name:    "it",
		VarType: types.Number,
	})

	defs := []tiles.Def{
		mustGet(t, global, "sense.target"),
		mustGet(t, global, "v.it"),
	}
	pr := parser.ParseWhen(defs)
	res := Check(pr, env)
	for _, d := range res.Diagnostics {
		if d.Code == parser.DiagCapabilityMissing {
			t.Fatalf("expected the sensor's grant to reach its argument, got %+v", res.Diagnostics)
		}
	}
}

func TestCheckUnknownVariable(t *testing.T) {
	env, _ := newEnv(t)
	defs := []tiles.Def{tiles.Variable{Header: tiles.Header{TileID: "v.ghost"}, Name: "ghost"}}
	pr := parser.ParseWhen(defs)
	res := Check(pr, env)
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != parser.DiagUnknownVariable {
		t.Fatalf("expected UnknownVariable, got %+v", res.Diagnostics)
	}
}

func TestCheckActuatorReturnTypeFromFunctionRegistry(t *testing.T) {
	env, global := newEnv(t)
	global.Add(tiles.Actuator{Header: tiles.Header{TileID: "do.honk"}, FnEntry: "honk"})

	defs := []tiles.Def{mustGet(t, global, "do.honk")}
	pr := parser.ParseDo(defs)
	res := Check(pr, env)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	if pr.Exprs[0].ResolvedType != types.Nil {
		t.Fatalf("expected Nil return type for honk, got %v", pr.Exprs[0].ResolvedType)
	}
}

func TestCheckExpectedTypeAtRoot(t *testing.T) {
	env, global := newEnv(t)
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.num"}, ValueType: types.Number})

	expected := types.Boolean
	env.Expected = &expected

	defs := []tiles.Def{mustGet(t, global, "lit.num")}
	pr := parser.ParseWhen(defs)
	res := Check(pr, env)
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != parser.DiagTypeMismatch {
		t.Fatalf("expected a TypeMismatch at the root, got %+v", res.Diagnostics)
	}
}

func mustGet(t *testing.T, c *catalog.Catalog, id string) tiles.Def {
	t.Helper()
	d, ok := c.Get(id)
	if !ok {
		t.Fatalf("expected %q to be present in catalog", id)
	}
	return d
}
