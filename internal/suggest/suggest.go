// Package suggest implements the tile-suggestion service: given
// an insertion context, it returns two ranked buckets of catalog tiles — ones
// whose produced type already matches what's expected, and ones reachable
// via exactly one registered implicit conversion.
//
// Uses the same "exact match beats one conversion beats nothing" ordering
// checker.go uses to pick an operator overload, repurposed here to rank
// whole tiles instead of operator signatures; maruel/natural breaks ties
// within a cost tier by natural string order.
package suggest

import (
	"sort"

	"github.com/maruel/natural"

	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/overloads"
	"github.com/humanapp/mindcraft-lang-sub002/internal/parser"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

// Request bundles the insertion context the suggestion service scores
// candidates against.
type Request struct {
	RuleSide tiles.Side
	// ExpectedType is nil when the caller has no type expectation (e.g.
	// suggesting the first tile of a fresh DO statement).
	ExpectedType *types.TypeID
	// AvailableCapabilities is the capability set granted at the insertion
	// point by every enclosing tile.
	AvailableCapabilities tiles.Capabilities
	// IsStatementPosition is true when the insertion point is a new
	// statement (DO side) or the WHEN side's root, rather than inside an
	// already-started expression.
	IsStatementPosition bool
	// InsideParens is true when the insertion point is nested inside at
	// least one open, unclosed paren. Suggest does not read it: a tile is
	// eligible or not regardless of paren nesting.
	InsideParens bool
	// UnclosedParenDepth mirrors parser.CountUnclosedParens for callers that
	// already tracked it; like InsideParens, Suggest does not read it.
	UnclosedParenDepth int
	// Expr is the already-parsed prefix expression at the insertion point,
	// and TileIndexBeingReplaced the index of the tile the editor is
	// swapping out, or -1 for a pure insertion. Neither changes which tiles
	// are eligible — placement, capabilities and type already decide that —
	// but both are part of the editor's request shape so a caller can pass
	// its cursor context through unchanged.
	Expr                   *parser.Expr
	TileIndexBeingReplaced int
	// Catalogs is searched in order; the first catalog to define a tileId
	// wins, matching the two-catalog local-then-global resolution order
	// elsewhere in this module.
	Catalogs []*catalog.Catalog
	// Conversions scores the withConversion bucket. Nil means no conversions
	// are available, so that bucket is always empty.
	Conversions *overloads.Conversions
}

// Entry is one ranked suggestion.
type Entry struct {
	TileID string
	Def    tiles.Def
	// ConversionCost is 0 for an exact-bucket entry, and the registered
	// conversion's cost for a withConversion-bucket entry.
	ConversionCost int
}

// Result is the suggestion service's two ranked buckets.
type Result struct {
	Exact          []Entry
	WithConversion []Entry
}

// Suggest scores every tile visible from req.Catalogs against req and
// returns the ranked exact/withConversion buckets.
func Suggest(req Request) Result {
	var exact, withConv []Entry
	seen := make(map[string]bool)

	for _, c := range req.Catalogs {
		if c == nil {
			continue
		}
		for _, d := range c.GetAll() {
			key := types.FoldName(d.ID())
			if seen[key] {
				continue
			}
			seen[key] = true

			if !placementLegal(d, req) {
				continue
			}
			if !req.AvailableCapabilities.Has(d.Base().Requirements) {
				continue
			}

			produced, isTyped := producedType(d)

			switch {
			case req.ExpectedType == nil:
				// No type expectation: every placement-legal, capability-eligible
				// tile counts as exact.
				exact = append(exact, Entry{TileID: d.ID(), Def: d})
			case isTyped && produced == *req.ExpectedType:
				exact = append(exact, Entry{TileID: d.ID(), Def: d})
			case isTyped && req.Conversions != nil:
				if conv, ok := req.Conversions.Find(produced, *req.ExpectedType); ok {
					withConv = append(withConv, Entry{TileID: d.ID(), Def: d, ConversionCost: conv.Cost})
				}
			}
		}
	}

	rankExact(exact)
	rankWithConversion(withConv)
	return Result{Exact: exact, WithConversion: withConv}
}

// placementLegal filters d against req's WHEN/DO side and statement-vs-inline
// axes; paren nesting (req.InsideParens) is not checked.
func placementLegal(d tiles.Def, req Request) bool {
	switch t := d.(type) {
	case tiles.VariableFactory, tiles.LiteralFactory:
		// UI-only: picking one mints a fresh concrete tile rather than
		// inserting this one directly, so it's never itself a suggestion.
		return false
	case tiles.Missing:
		return false
	case tiles.Sensor:
		if !t.Header.Placement.AllowsSide(req.RuleSide) {
			return false
		}
		inline := t.SensorPlacement&tiles.PlaceInline != 0
		if req.IsStatementPosition {
			return true // a statement-only or inline sensor may both head a fresh statement
		}
		return inline
	case tiles.Actuator:
		// Actuators are DO-side, statement-only side effects.
		return req.RuleSide == tiles.SideDo && req.IsStatementPosition
	default:
		return d.Base().Placement.AllowsSide(req.RuleSide)
	}
}

// producedType returns the TypeID a tile contributes to an expression, and
// whether the tile is type-producing at all (operators, control-flow,
// parameters and modifiers are structural, not value-producing, so they
// never populate withConversion and only ever land in exact when no
// expectedType was given).
func producedType(d tiles.Def) (types.TypeID, bool) {
	switch t := d.(type) {
	case tiles.Literal:
		return t.ValueType, true
	case tiles.Variable:
		return t.VarType, true
	case tiles.Accessor:
		return t.FieldType, true
	case tiles.Sensor:
		return t.ReturnType, true
	case tiles.Page:
		return types.String, true // a page reference evaluates to its pageId string
	default:
		return types.TypeID{}, false
	}
}

func rankExact(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return natural.Less(entries[i].TileID, entries[j].TileID)
	})
}

func rankWithConversion(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ConversionCost != entries[j].ConversionCost {
			return entries[i].ConversionCost < entries[j].ConversionCost
		}
		return natural.Less(entries[i].TileID, entries[j].TileID)
	})
}
