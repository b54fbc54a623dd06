// Package checker implements type checking and overload resolution: a bottom-up pass over a parser.Expr tree that assigns each node a
// types.TypeID, resolves operator overloads and implicit conversions by
// cost, and checks capability requirements against what enclosing tiles
// grant.
//
// Overload resolution scores candidates by signature distance rather than
// matching a statically-known operator set, since the overload table is
// app-registered at runtime; capability checks thread a flat Capabilities
// bitset down the expression tree rather than walking a class hierarchy.
package checker

import (
	"fmt"

	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/functions"
	"github.com/humanapp/mindcraft-lang-sub002/internal/overloads"
	"github.com/humanapp/mindcraft-lang-sub002/internal/parser"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

// Env bundles the registries the checker resolves tiles, operators and
// functions against. All fields are process-global or per-brain catalogs
// built once at startup.
type Env struct {
	Lookup      catalog.Lookup
	Funcs       *functions.Registry
	Ops         *overloads.Table
	Conversions *overloads.Conversions
	Types       *types.Registry
	// Granted seeds the capability set available to the top-level
	// expression: the brain's ambient, always-on capabilities (e.g. "read
	// own state") plus, when the rule compiler checks a DO side or a
	// descendant rule, the union of all enclosing WHEN-side tiles' grants.
	// Tile-level grants accumulate on top of this as the checker descends.
	Granted tiles.Capabilities
	// Expected, when non-nil, is the type the root expression must resolve
	// to; a mismatch tags the root with a TypeMismatch diagnostic. The
	// suggestion service supplies this when scoring a prefix expression.
	Expected *types.TypeID
}

// Result is the checker's output: the diagnostics it found. Resolved types
// are written directly onto each parser.Expr node (ResolvedType), so
// callers needing a node's type just read expr.ResolvedType after Check
// returns with no errors for that node.
type Result struct {
	Diagnostics []parser.Diagnostic
}

// Check type-checks every top-level expression in pr (a WHEN's single
// boolean expression, or a DO side's statement list) and returns the
// diagnostics found across all of them. It never stops early: one
// unresolvable node gets ResolvedType Nil and a diagnostic, and checking
// continues so the editor can report every problem in one pass.
func Check(pr *parser.ParseResult, env Env) Result {
	c := &checker{env: env}
	for _, top := range pr.Exprs {
		c.checkNode(top, env.Granted)
	}
	if env.Expected != nil && len(pr.Exprs) > 0 {
		root := pr.Exprs[0]
		if root.Kind != parser.KindError && root.ResolvedType != *env.Expected {
			c.report(parser.DiagTypeMismatch,
				fmt.Sprintf("expression resolves to %v, expected %v", root.ResolvedType, *env.Expected), root)
		}
	}
	return Result{Diagnostics: c.diags}
}

type checker struct {
	env   Env
	diags []parser.Diagnostic
}

func (c *checker) report(code, msg string, e *parser.Expr) {
	c.diags = append(c.diags, parser.Diagnostic{Code: code, Message: msg, Span: e.Span, NodeID: e.ID})
}

// checkNode assigns e.ResolvedType and recurses into children, threading
// granted capabilities downward.
func (c *checker) checkNode(e *parser.Expr, granted tiles.Capabilities) {
	if e == nil {
		return
	}
	if e.Kind == parser.KindError {
		e.ResolvedType = types.Nil
		return
	}

	def, hasDef := c.env.Lookup.Get(e.TileID)
	if hasDef {
		if !granted.Has(def.Base().Requirements) {
			c.report(parser.DiagCapabilityMissing, fmt.Sprintf("tile %q requires a capability not granted here", e.TileID), e)
		}
		granted = granted.Union(def.Base().Capabilities)
	}

	switch e.Kind {
	case parser.KindLiteral:
		c.checkLiteral(e, def, hasDef)
	case parser.KindVariable:
		c.checkVariable(e, def, hasDef)
	case parser.KindAccessor:
		c.checkAccessor(e, def, hasDef, granted)
	case parser.KindUnary:
		c.checkUnary(e, granted)
	case parser.KindBinary:
		c.checkBinary(e, granted)
	case parser.KindCall:
		c.checkCall(e, def, hasDef, granted)
	case parser.KindAssignment:
		c.checkAssignment(e, granted)
	default:
		e.ResolvedType = types.Nil
	}
}

func (c *checker) checkLiteral(e *parser.Expr, def tiles.Def, hasDef bool) {
	if !hasDef {
		c.report(parser.DiagUnknownVariable, fmt.Sprintf("literal tile %q not found in any catalog", e.TileID), e)
		e.ResolvedType = types.Nil
		return
	}
	switch t := def.(type) {
	case tiles.Literal:
		e.ResolvedType = t.ValueType
	case tiles.Page:
		// A page reference evaluates to its pageId string.
		e.ResolvedType = types.String
	default:
		c.report(parser.DiagUnknownVariable, fmt.Sprintf("literal tile %q not found in any catalog", e.TileID), e)
		e.ResolvedType = types.Nil
	}
}

func (c *checker) checkVariable(e *parser.Expr, def tiles.Def, hasDef bool) {
	v, ok := def.(tiles.Variable)
	if !hasDef || !ok {
		c.report(parser.DiagUnknownVariable, fmt.Sprintf("variable %q not found in any catalog", e.TileID), e)
		e.ResolvedType = types.Nil
		return
	}
	e.ResolvedType = v.VarType
}

func (c *checker) checkAccessor(e *parser.Expr, def tiles.Def, hasDef bool, granted tiles.Capabilities) {
	c.checkNode(e.Base, granted)

	acc, ok := def.(tiles.Accessor)
	if !hasDef || !ok {
		c.report(parser.DiagUnknownVariable, fmt.Sprintf("accessor %q not found in any catalog", e.TileID), e)
		e.ResolvedType = types.Nil
		return
	}
	if e.Base != nil && e.Base.ResolvedType != acc.ParentType {
		c.report(parser.DiagTypeMismatch,
			fmt.Sprintf("accessor %q expects a %v base, got %v", e.TileID, acc.ParentType, e.Base.ResolvedType), e)
	}
	e.ResolvedType = acc.FieldType
}

func (c *checker) checkUnary(e *parser.Expr, granted tiles.Capabilities) {
	c.checkNode(e.Left, granted)
	operandType := e.Left.ResolvedType

	best, _, tie, found := c.env.Ops.ResolveUnary(overloads.OpID(e.Op), operandType, c.env.Conversions)
	if tie {
		c.report(parser.DiagAmbiguousOverload, fmt.Sprintf("%s has more than one equally-cheap overload for %v", e.Op, operandType), e)
		e.ResolvedType = types.Nil
		return
	}
	if !found {
		c.report(parser.DiagNoOverload, fmt.Sprintf("no overload of %s accepts %v", e.Op, operandType), e)
		e.ResolvedType = types.Nil
		return
	}
	e.ResolvedType = best.Result
}

func (c *checker) checkBinary(e *parser.Expr, granted tiles.Capabilities) {
	c.checkNode(e.Left, granted)
	c.checkNode(e.Right, granted)
	lt, rt := e.Left.ResolvedType, e.Right.ResolvedType

	best, _, tie, found := c.env.Ops.ResolveBinary(overloads.OpID(e.Op), lt, rt, c.env.Conversions)
	if tie {
		c.report(parser.DiagAmbiguousOverload, fmt.Sprintf("%s has more than one equally-cheap overload for (%v, %v)", e.Op, lt, rt), e)
		e.ResolvedType = types.Nil
		return
	}
	if !found {
		c.report(parser.DiagNoOverload, fmt.Sprintf("no overload of %s accepts (%v, %v)", e.Op, lt, rt), e)
		e.ResolvedType = types.Nil
		return
	}
	e.ResolvedType = best.Result
}

func (c *checker) checkCall(e *parser.Expr, def tiles.Def, hasDef bool, granted tiles.Capabilities) {
	for _, a := range e.Args {
		c.checkNode(a.Value, granted)
	}

	if !hasDef {
		c.report(parser.DiagUnknownVariable, fmt.Sprintf("call target %q not found in any catalog", e.TileID), e)
		e.ResolvedType = types.Nil
		return
	}

	switch t := def.(type) {
	case tiles.Sensor:
		e.ResolvedType = t.ReturnType
	case tiles.Actuator:
		if entry, ok := c.env.Funcs.Lookup(t.FnEntry); ok {
			e.ResolvedType = entry.ReturnType
		} else {
			e.ResolvedType = types.Nil
		}
	default:
		c.report(parser.DiagUnexpectedTile, fmt.Sprintf("tile %q is not callable", e.TileID), e)
		e.ResolvedType = types.Nil
	}
}

func (c *checker) checkAssignment(e *parser.Expr, granted tiles.Capabilities) {
	c.checkNode(e.Target, granted)
	c.checkNode(e.Value, granted)

	if e.Target.Kind != parser.KindVariable {
		c.report(parser.DiagTypeMismatch, "assignment target must be a variable", e)
		e.ResolvedType = types.Nil
		return
	}
	targetType := e.Target.ResolvedType
	valueType := e.Value.ResolvedType
	if targetType == valueType {
		e.ResolvedType = targetType
		return
	}
	if _, ok := c.env.Conversions.Find(valueType, targetType); ok {
		e.ResolvedType = targetType
		return
	}
	c.report(parser.DiagTypeMismatch, fmt.Sprintf("cannot assign %v to variable of type %v", valueType, targetType), e)
	e.ResolvedType = types.Nil
}

