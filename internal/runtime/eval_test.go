package runtime

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

func newEvalFixture(t *testing.T) (*evaluator, *catalog.Catalog) {
	t.Helper()
	global := catalog.New()
	ops := overloads.NewTable()
	if err := ops.Binary("Add", types.Number, types.Number, types.Number,
		func(ctx any, l, r value.Value) (value.Value, error) {
			return value.Number{V: l.(value.Number).V + r.(value.Number).V}, nil
		}, true); err != nil {
		t.Fatal(err)
	}
	if err := ops.Unary("Not", types.Boolean, types.Boolean,
		func(ctx any, v value.Value) (value.Value, error) {
			return value.Bool{V: !v.(value.Bool).V}, nil
		}); err != nil {
		t.Fatal(err)
	}

	funcs := functions.NewRegistry()
	funcs.Register(functions.Entry{TileID: "sense.double", ReturnType: types.Number, Exec: func(ctx *functions.Context, args *value.Map) value.Value {
		v, _ := args.Get(0)
		return value.Number{V: v.(value.Number).V * 2}
	}})

	env := Env{Global: global, Funcs: funcs, Ops: ops, Conversions: overloads.NewConversions(), Types: types.NewRegistry()}
	ev := &evaluator{
		lookup: catalog.Lookup{Global: global},
		env:    env,
		vars:   newVarStore(),
		ctx:    &functions.Context{},
	}
	return ev, global
}

func TestEvalLiteral(t *testing.T) {
	ev, global := newEvalFixture(t)
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.5"}, ValueType: types.Number, Value: 5.0})

	e := &parser.Expr{Kind: parser.KindLiteral, TileID: "lit.5"}
	v, err := ev.eval(e, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.(value.Number).V != 5 {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestEvalBinaryAdd(t *testing.T) {
	ev, global := newEvalFixture(t)
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.2"}, ValueType: types.Number, Value: 2.0})
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.3"}, ValueType: types.Number, Value: 3.0})

	left := &parser.Expr{Kind: parser.KindLiteral, TileID: "lit.2", ResolvedType: types.Number}
	right := &parser.Expr{Kind: parser.KindLiteral, TileID: "lit.3", ResolvedType: types.Number}
	e := &parser.Expr{Kind: parser.KindBinary, Op: "Add", Left: left, Right: right}

	v, err := ev.eval(e, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.(value.Number).V != 5 {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestEvalUnaryNot(t *testing.T) {
	ev, global := newEvalFixture(t)
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.true"}, ValueType: types.Boolean, Value: true})

	operand := &parser.Expr{Kind: parser.KindLiteral, TileID: "lit.true", ResolvedType: types.Boolean}
	e := &parser.Expr{Kind: parser.KindUnary, Op: "Not", Left: operand}

	v, err := ev.eval(e, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.(value.Bool).V != false {
		t.Fatalf("expected false, got %v", v)
	}
}

func TestEvalVariableDefaultsToZeroValue(t *testing.T) {
	ev, global := newEvalFixture(t)
	global.Add(tiles.Variable{Header: tiles.Header{TileID: "v.score"}, Name: "score", VarType: types.Number, UniqueID: "v.score"})

	e := &parser.Expr{Kind: parser.KindVariable, TileID: "v.score"}
	v, err := ev.eval(e, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.(value.Number).V != 0 {
		t.Fatalf("expected zero-value Number, got %v", v)
	}
}

func TestEvalAssignmentPersistsAcrossReads(t *testing.T) {
	ev, global := newEvalFixture(t)
	global.Add(tiles.Variable{Header: tiles.Header{TileID: "v.score"}, Name: "score", VarType: types.Number, UniqueID: "v.score"})
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.7"}, ValueType: types.Number, Value: 7.0})

	target := &parser.Expr{Kind: parser.KindVariable, TileID: "v.score", ResolvedType: types.Number}
	val := &parser.Expr{Kind: parser.KindLiteral, TileID: "lit.7", ResolvedType: types.Number}
	assign := &parser.Expr{Kind: parser.KindAssignment, Target: target, Value: val}

	if _, err := ev.eval(assign, nil); err != nil {
		t.Fatal(err)
	}

	read := &parser.Expr{Kind: parser.KindVariable, TileID: "v.score"}
	v, err := ev.eval(read, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.(value.Number).V != 7 {
		t.Fatalf("expected 7 after assignment, got %v", v)
	}
}

func TestEvalCallInvokesRegisteredSensor(t *testing.T) {
	ev, global := newEvalFixture(t)
	global.Add(tiles.Sensor{Header: tiles.Header{TileID: "sense.double"}, FnEntry: "sense.double", ReturnType: types.Number})
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.4"}, ValueType: types.Number, Value: 4.0})

	arg := &parser.Expr{Kind: parser.KindLiteral, TileID: "lit.4"}
	e := &parser.Expr{Kind: parser.KindCall, TileID: "sense.double", Args: []parser.Arg{{Value: arg}}}

	v, err := ev.eval(e, newRuleScope(nil))
	if err != nil {
		t.Fatal(err)
	}
	if v.(value.Number).V != 8 {
		t.Fatalf("expected 8, got %v", v)
	}
}

func TestRuleScopeVisibleToDescendantsOnly(t *testing.T) {
	root := newRuleScope(nil)
	root.SetVariable("it", value.String{V: "root-bound"})
	child := newRuleScope(root)

	if v, ok := child.GetVariable("it"); !ok || v.String() != "root-bound" {
		t.Fatalf("expected child to see parent binding, got %v, %v", v, ok)
	}

	sibling := newRuleScope(nil)
	if _, ok := sibling.GetVariable("it"); ok {
		t.Fatalf("expected an unrelated scope to not see root's binding")
	}
}
