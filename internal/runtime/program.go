// Package runtime implements the brain runtime and compiled program:
// Compile turns a brain.BrainDef into an immutable Program (pages, rules,
// parsed+typechecked WHEN/DO expressions, referenced sensor tileIds), and
// Brain cooperatively evaluates that program one tick at a time for an
// owning, opaque host actor.
//
// Compile-once, execute-repeatedly: the same split a bytecode compiler and
// VM use, applied to a chained-WHEN rule tree instead of a linear
// instruction stream.
package runtime

import (
	"fmt"

	"github.com/humanapp/mindcraft-lang-sub002/internal/brain"
	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/checker"
	"github.com/humanapp/mindcraft-lang-sub002/internal/functions"
	"github.com/humanapp/mindcraft-lang-sub002/internal/overloads"
	"github.com/humanapp/mindcraft-lang-sub002/internal/parser"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

// Env bundles every process-global (or per-brain) registry the compiler and
// the evaluator resolve tiles, operators, conversions and functions
// against.
type Env struct {
	Global      *catalog.Catalog
	Funcs       *functions.Registry
	Ops         *overloads.Table
	Conversions *overloads.Conversions
	Types       *types.Registry
	// Granted seeds the capability set available to every rule's top-level
	// WHEN expression.
	Granted tiles.Capabilities
}

// CompiledRule is one compiled node of a rule tree: its parsed+typechecked
// WHEN predicate (nil for a rule with an empty WHEN side, which is treated
// as always-true), its DO statement list, the sensor tileIds it references
// (so a containing actor can turn phased sensors like vision cones on/off
// per page), and its compiled children.
type CompiledRule struct {
	When          *parser.Expr
	Do            []*parser.Expr
	SensorTileIDs []string
	Children      []*CompiledRule

	// WhenDiagnostics and DoDiagnostics carry every parse/check diagnostic
	// found on the respective side, for a host that wants to surface
	// compile errors rather than silently skip them at runtime. Their
	// spans index into WhenTileIDs/DoTileIDs.
	WhenDiagnostics []parser.Diagnostic
	DoDiagnostics   []parser.Diagnostic

	source *brain.RuleDef
}

// WhenTileIDs returns the ordered tile references the WHEN side compiled
// from — the "source line" WhenDiagnostics' spans index into.
func (r *CompiledRule) WhenTileIDs() []string { return r.source.When.TileIDs }

// DoTileIDs is WhenTileIDs' DO-side counterpart.
func (r *CompiledRule) DoTileIDs() []string { return r.source.Do.TileIDs }

// CompiledPage is one compiled page: its stable pageId and its root-level
// compiled rules in source order.
type CompiledPage struct {
	PageID string
	Rules  []*CompiledRule
}

// Program is the immutable result of compiling a brain:
// pages indexed 0..N-1 in the brain's page order, each carrying its
// compiled rules in source order.
type Program struct {
	Pages []*CompiledPage

	pageIndex map[string]int
	lookup    catalog.Lookup
}

// PageIndex returns the 0-based index of the page with this pageId, or
// (-1, false) if no such page exists in the compiled program.
func (p *Program) PageIndex(pageID string) (int, bool) {
	idx, ok := p.pageIndex[pageID]
	if !ok {
		return -1, false
	}
	return idx, true
}

// Compile builds a Program from b. It never fails on bad user input — a
// rule side that fails to parse or typecheck compiles to a rule whose
// Diagnostics are non-empty and whose When/Do reflect whatever the parser
// could recover.
func Compile(b *brain.BrainDef, env Env) *Program {
	lookup := catalog.Lookup{Local: b.Catalog, Global: env.Global}
	prog := &Program{pageIndex: make(map[string]int, len(b.Pages)), lookup: lookup}
	for i, p := range b.Pages {
		cp := &CompiledPage{PageID: p.PageID}
		for _, r := range p.Rules {
			cp.Rules = append(cp.Rules, compileRule(r, lookup, env))
		}
		prog.Pages = append(prog.Pages, cp)
		prog.pageIndex[p.PageID] = i
	}
	return prog
}

func compileRule(r *brain.RuleDef, lookup catalog.Lookup, env Env) *CompiledRule {
	cr := &CompiledRule{source: r}

	whenDefs := resolveTileIDs(r.When.TileIDs, lookup)
	whenResult := parser.ParseWhen(whenDefs)
	checkEnv := checker.Env{Lookup: lookup, Funcs: env.Funcs, Ops: env.Ops, Conversions: env.Conversions, Types: env.Types, Granted: env.Granted}
	whenCheck := checker.Check(whenResult, checkEnv)
	cr.WhenDiagnostics = append(cr.WhenDiagnostics, whenResult.Diagnostics...)
	cr.WhenDiagnostics = append(cr.WhenDiagnostics, whenCheck.Diagnostics...)
	if len(whenResult.Exprs) > 0 {
		cr.When = whenResult.Exprs[0]
	}

	// A WHEN-side tile's capability grants extend past its own expression:
	// the DO side and every descendant rule check their requirements
	// against the union of all enclosing WHEN sides' grants.
	whenGranted := env.Granted
	for _, d := range whenDefs {
		whenGranted = whenGranted.Union(d.Base().Capabilities)
	}

	doDefs := resolveTileIDs(r.Do.TileIDs, lookup)
	doResult := parser.ParseDo(doDefs)
	doEnv := checkEnv
	doEnv.Granted = whenGranted
	doCheck := checker.Check(doResult, doEnv)
	cr.DoDiagnostics = append(cr.DoDiagnostics, doResult.Diagnostics...)
	cr.DoDiagnostics = append(cr.DoDiagnostics, doCheck.Diagnostics...)
	cr.Do = doResult.Exprs

	r.When.Typechecked.Emit(struct{}{})
	r.Do.Typechecked.Emit(struct{}{})

	cr.SensorTileIDs = collectSensorTileIDs(whenDefs, doDefs)

	childEnv := env
	childEnv.Granted = whenGranted
	for _, c := range r.Children {
		cr.Children = append(cr.Children, compileRule(c, lookup, childEnv))
	}
	return cr
}

func resolveTileIDs(ids []string, lookup catalog.Lookup) []tiles.Def {
	defs := make([]tiles.Def, len(ids))
	for i, id := range ids {
		if d, ok := lookup.Get(id); ok {
			defs[i] = d
		} else {
			defs[i] = tiles.Missing{Header: tiles.Header{TileID: id}, Label: fmt.Sprintf("unresolved:%s", id)}
		}
	}
	return defs
}

func collectSensorTileIDs(sides ...[]tiles.Def) []string {
	var out []string
	for _, defs := range sides {
		for _, d := range defs {
			if s, ok := d.(tiles.Sensor); ok {
				out = append(out, s.ID())
			}
		}
	}
	return out
}
