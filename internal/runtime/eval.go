package runtime

import (
	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/functions"
	"github.com/humanapp/mindcraft-lang-sub002/internal/overloads"
	"github.com/humanapp/mindcraft-lang-sub002/internal/parser"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
	"github.com/humanapp/mindcraft-lang-sub002/internal/value"
)

// ActuatorSwitchPage is the FnEntry a host's "switch to page X" actuator
// tile must be registered under for the runtime to recognize it as the
// page-transition primitive rather than an ordinary opaque side effect —
// everything about its control-flow (stop-the-tick, deactivate/activate,
// emit events) is core runtime behavior, not something a host-supplied
// Exec body could implement on its own.
const ActuatorSwitchPage = "core.switchPage"

// varStore is the brain-level persistent variable slot table, keyed
// by a Variable tile's UniqueID so a rename of the tile's display name
// doesn't lose the stored value.
type varStore struct {
	values map[string]value.Value
}

func newVarStore() *varStore { return &varStore{values: make(map[string]value.Value)} }

func (v *varStore) get(id string) (value.Value, bool) {
	val, ok := v.values[id]
	return val, ok
}

func (v *varStore) set(id string, val value.Value) { v.values[id] = val }

// ruleScope is the rule-scoped, name-keyed binding chain a sensor dynamically
// populates via functions.RuleHandle (e.g. a "target actor" sensor binding
// the name "it"). WHEN-side declared variables are visible to the DO side
// of the same rule and to all descendants of that rule, nothing higher —
// GetVariable walks up the parent chain, never sideways or down.
type ruleScope struct {
	vars         map[string]value.Value
	capabilities tiles.Capabilities
	parent       *ruleScope
}

func newRuleScope(parent *ruleScope) *ruleScope {
	return &ruleScope{vars: make(map[string]value.Value), parent: parent}
}

func (s *ruleScope) SetVariable(name string, v value.Value) { s.vars[name] = v }

func (s *ruleScope) GetVariable(name string) (value.Value, bool) {
	if v, ok := s.vars[name]; ok {
		return v, true
	}
	if s.parent != nil {
		return s.parent.GetVariable(name)
	}
	return nil, false
}

func (s *ruleScope) GrantCapability(bit uint64) { s.capabilities = s.capabilities.Union(tiles.Capabilities(bit)) }

var _ functions.RuleHandle = (*ruleScope)(nil)

// evaluator walks a CompiledRule's typechecked Expr trees and produces
// Values, dispatching operator/conversion work through the same
// overloads.Table and overloads.Conversions the checker validated against,
// and sensor/actuator calls through functions.Registry.
type evaluator struct {
	lookup catalog.Lookup
	env    Env
	vars   *varStore
	ctx    *functions.Context

	// switchedTo is set by evalCall when a switchPage actuator fires; the
	// tick loop checks it after every DO statement and stops rule
	// evaluation for the tick once it's set.
	switchedTo  string
	switchFired bool
}

func zeroValue(t types.TypeID) value.Value {
	switch t.Native {
	case types.NativeBoolean:
		return value.Bool{}
	case types.NativeNumber:
		return value.Number{}
	case types.NativeString:
		return value.String{}
	case types.NativeList:
		return value.List{}
	case types.NativeMap:
		return value.NewMap()
	case types.NativeStruct:
		return value.NewStruct(t)
	default:
		return value.NilValue
	}
}

func (ev *evaluator) eval(e *parser.Expr, scope *ruleScope) (value.Value, error) {
	if e == nil || e.Kind == parser.KindError {
		return value.NilValue, nil
	}
	switch e.Kind {
	case parser.KindLiteral:
		return ev.evalLiteral(e)
	case parser.KindVariable:
		return ev.evalVariable(e, scope)
	case parser.KindAccessor:
		return ev.evalAccessor(e, scope)
	case parser.KindUnary:
		return ev.evalUnary(e, scope)
	case parser.KindBinary:
		return ev.evalBinary(e, scope)
	case parser.KindCall:
		return ev.evalCall(e, scope)
	case parser.KindAssignment:
		return ev.evalAssignment(e, scope)
	default:
		return value.NilValue, nil
	}
}

func (ev *evaluator) evalLiteral(e *parser.Expr) (value.Value, error) {
	def, ok := ev.lookup.Get(e.TileID)
	if !ok {
		return value.NilValue, nil
	}
	switch t := def.(type) {
	case tiles.Literal:
		return value.FromNative(t.Value), nil
	case tiles.Page:
		return value.String{V: t.PageID}, nil
	default:
		return value.NilValue, nil
	}
}

func (ev *evaluator) evalVariable(e *parser.Expr, scope *ruleScope) (value.Value, error) {
	def, ok := ev.lookup.Get(e.TileID)
	v, isVar := def.(tiles.Variable)
	if !ok || !isVar {
		return value.NilValue, nil
	}
	if scope != nil {
		if bound, ok := scope.GetVariable(v.Name); ok {
			return bound, nil
		}
	}
	if stored, ok := ev.vars.get(v.UniqueID); ok {
		return stored, nil
	}
	return zeroValue(v.VarType), nil
}

func (ev *evaluator) evalAccessor(e *parser.Expr, scope *ruleScope) (value.Value, error) {
	base, err := ev.eval(e.Base, scope)
	if err != nil {
		return value.NilValue, err
	}
	st, ok := base.(*value.Struct)
	if !ok {
		return value.NilValue, nil
	}
	v, ok := st.Field(ev.ctx, ev.env.Types, e.Field)
	if !ok {
		return value.NilValue, nil
	}
	return v, nil
}

func (ev *evaluator) evalUnary(e *parser.Expr, scope *ruleScope) (value.Value, error) {
	operand, err := ev.eval(e.Left, scope)
	if err != nil {
		return value.NilValue, err
	}
	entry, _, _, found := ev.env.Ops.ResolveUnary(overloads.OpID(e.Op), e.Left.ResolvedType, ev.env.Conversions)
	if !found {
		return value.NilValue, nil
	}
	converted, err := ev.convert(operand, e.Left.ResolvedType, entry.Operand)
	if err != nil {
		return value.NilValue, err
	}
	return entry.Impl(ev.ctx, converted)
}

func (ev *evaluator) evalBinary(e *parser.Expr, scope *ruleScope) (value.Value, error) {
	left, err := ev.eval(e.Left, scope)
	if err != nil {
		return value.NilValue, err
	}
	right, err := ev.eval(e.Right, scope)
	if err != nil {
		return value.NilValue, err
	}
	entry, _, _, found := ev.env.Ops.ResolveBinary(overloads.OpID(e.Op), e.Left.ResolvedType, e.Right.ResolvedType, ev.env.Conversions)
	if !found {
		return value.NilValue, nil
	}
	lc, err := ev.convert(left, e.Left.ResolvedType, entry.Left)
	if err != nil {
		return value.NilValue, err
	}
	rc, err := ev.convert(right, e.Right.ResolvedType, entry.Right)
	if err != nil {
		return value.NilValue, err
	}
	return entry.Impl(ev.ctx, lc, rc)
}

func (ev *evaluator) convert(v value.Value, actual, want types.TypeID) (value.Value, error) {
	if actual == want {
		return v, nil
	}
	conv, ok := ev.env.Conversions.Find(actual, want)
	if !ok {
		return v, nil
	}
	return conv.Impl(ev.ctx, v)
}

func (ev *evaluator) evalCall(e *parser.Expr, scope *ruleScope) (value.Value, error) {
	args := value.NewMap()
	for i, a := range e.Args {
		v, err := ev.eval(a.Value, scope)
		if err != nil {
			return value.NilValue, err
		}
		args.Set(i, v)
	}

	def, ok := ev.lookup.Get(e.TileID)
	if !ok {
		return ev.ctx.ReportError("call target %q not found in any catalog", e.TileID), nil
	}

	var fnEntry string
	switch t := def.(type) {
	case tiles.Sensor:
		fnEntry = t.FnEntry
	case tiles.Actuator:
		fnEntry = t.FnEntry
	default:
		return ev.ctx.ReportError("tile %q is not callable", e.TileID), nil
	}
	if scope != nil {
		ev.ctx.Rule = scope
	}

	if fnEntry == ActuatorSwitchPage {
		target, ok := args.Get(0)
		if !ok {
			return ev.ctx.ReportError("switchPage called with no target page"), nil
		}
		ev.switchedTo = target.String()
		ev.switchFired = true
		return value.NilValue, nil
	}

	return ev.env.Funcs.Call(ev.ctx, fnEntry, args), nil
}

func (ev *evaluator) evalAssignment(e *parser.Expr, scope *ruleScope) (value.Value, error) {
	v, err := ev.eval(e.Value, scope)
	if err != nil {
		return value.NilValue, err
	}
	def, ok := ev.lookup.Get(e.Target.TileID)
	target, isVar := def.(tiles.Variable)
	if !ok || !isVar {
		return v, nil
	}
	if st, ok := v.(*value.Struct); ok {
		v = value.SnapshotForAssignment(st, ev.env.Types)
	}
	ev.vars.set(target.UniqueID, v)
	return v, nil
}
