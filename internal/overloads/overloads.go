// Package overloads implements the operator-overload and implicit-conversion
// registries: total-order resolution over simple triplet-keyed and
// pair-keyed hash maps, no inheritance-based dispatch — an app-registered
// opId namespace rather than a fixed operator set.
package overloads

import (
	"fmt"

	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
	"github.com/humanapp/mindcraft-lang-sub002/internal/value"
)

// OpID identifies an operator (binary or unary) by the tile definitions
// that reference it, e.g. "Add", "Eq", "Not". Kept as a string rather than
// a closed enum so a host can register new operator tiles without touching
// this package.
type OpID string

// BinaryImpl evaluates a binary operator over already-typechecked operand
// values.
type BinaryImpl func(ctx any, left, right value.Value) (value.Value, error)

// UnaryImpl evaluates a unary operator.
type UnaryImpl func(ctx any, operand value.Value) (value.Value, error)

// BinaryEntry is one registered (opId, left, right) -> (result, impl)
// triplet.
type BinaryEntry struct {
	Op          OpID
	Left        types.TypeID
	Right       types.TypeID
	Result      types.TypeID
	Impl        BinaryImpl
	Commutative bool
}

// UnaryEntry is one registered (opId, operand) -> (result, impl) pair.
type UnaryEntry struct {
	Op      OpID
	Operand types.TypeID
	Result  types.TypeID
	Impl    UnaryImpl
}

type binaryKey struct {
	op          OpID
	left, right types.TypeID
}

type unaryKey struct {
	op      OpID
	operand types.TypeID
}

// OverloadConflictError reports an attempt to register a second entry for a
// triplet/pair that already has one.
type OverloadConflictError struct {
	Op                 OpID
	Left, Right, Unary types.TypeID
}

func (e *OverloadConflictError) Error() string {
	if e.Right != (types.TypeID{}) {
		return fmt.Sprintf("overloads: %s(%v, %v) already registered", e.Op, e.Left, e.Right)
	}
	return fmt.Sprintf("overloads: %s(%v) already registered", e.Op, e.Unary)
}

// Table is the operator-overload registry: at most one entry per
// (operatorId, leftType, rightType) or (operatorId, operandType).
type Table struct {
	binary map[binaryKey]BinaryEntry
	unary  map[unaryKey]UnaryEntry
}

// NewTable returns an empty overload table.
func NewTable() *Table {
	return &Table{
		binary: make(map[binaryKey]BinaryEntry),
		unary:  make(map[unaryKey]UnaryEntry),
	}
}

// Binary registers a binary operator overload. If commutative is true, the
// swapped-operand key is also registered (unless left == right, in which
// case there is nothing to swap). Registering a duplicate triplet —
// including one implied by a prior commutative registration — fails with
// *OverloadConflictError.
func (t *Table) Binary(op OpID, left, right, result types.TypeID, impl BinaryImpl, commutative bool) error {
	key := binaryKey{op: op, left: left, right: right}
	if _, exists := t.binary[key]; exists {
		return &OverloadConflictError{Op: op, Left: left, Right: right}
	}
	t.binary[key] = BinaryEntry{Op: op, Left: left, Right: right, Result: result, Impl: impl, Commutative: commutative}

	if commutative && left != right {
		swapped := binaryKey{op: op, left: right, right: left}
		if _, exists := t.binary[swapped]; exists {
			delete(t.binary, key)
			return &OverloadConflictError{Op: op, Left: right, Right: left}
		}
		t.binary[swapped] = BinaryEntry{Op: op, Left: right, Right: left, Result: result, Impl: swapImpl(impl), Commutative: commutative}
	}
	return nil
}

func swapImpl(impl BinaryImpl) BinaryImpl {
	return func(ctx any, left, right value.Value) (value.Value, error) {
		return impl(ctx, right, left)
	}
}

// Unary registers a unary operator overload.
func (t *Table) Unary(op OpID, operand, result types.TypeID, impl UnaryImpl) error {
	key := unaryKey{op: op, operand: operand}
	if _, exists := t.unary[key]; exists {
		return &OverloadConflictError{Op: op, Unary: operand}
	}
	t.unary[key] = UnaryEntry{Op: op, Operand: operand, Result: result, Impl: impl}
	return nil
}

// LookupBinary returns the entry registered for (op, left, right), if any.
func (t *Table) LookupBinary(op OpID, left, right types.TypeID) (BinaryEntry, bool) {
	e, ok := t.binary[binaryKey{op: op, left: left, right: right}]
	return e, ok
}

// LookupUnary returns the entry registered for (op, operand), if any.
func (t *Table) LookupUnary(op OpID, operand types.TypeID) (UnaryEntry, bool) {
	e, ok := t.unary[unaryKey{op: op, operand: operand}]
	return e, ok
}

// BinaryCandidates returns every registered entry for op, in no particular
// order, for the checker's overload-resolution scan. The table is small
// enough (populated once at startup) that a full scan per ambiguous call
// site is cheap; exact-match lookups still go through LookupBinary.
func (t *Table) BinaryCandidates(op OpID) []BinaryEntry {
	var out []BinaryEntry
	for k, e := range t.binary {
		if k.op == op {
			out = append(out, e)
		}
	}
	return out
}

// UnaryCandidates returns every registered entry for op.
func (t *Table) UnaryCandidates(op OpID) []UnaryEntry {
	var out []UnaryEntry
	for k, e := range t.unary {
		if k.op == op {
			out = append(out, e)
		}
	}
	return out
}

// ConversionImpl converts an already-typechecked value from one type to
// another.
type ConversionImpl func(ctx any, v value.Value) (value.Value, error)

// Conversion is one registered implicit conversion.
type Conversion struct {
	From, To types.TypeID
	Cost     int // lower = cheaper; combined additively across arguments during overload scoring
	Impl     ConversionImpl
	// CallDef optionally names the function/method this conversion reads
	// as, for diagnostics and suggestion-service labels (e.g. "ToNumber").
	CallDef string
}

// Conversions is the implicit-conversion registry: O(1) lookup of the
// single cheapest registered conversion for a (from, to) pair.
type Conversions struct {
	table map[conversionKey]Conversion
}

type conversionKey struct{ from, to types.TypeID }

// NewConversions returns an empty conversion registry.
func NewConversions() *Conversions {
	return &Conversions{table: make(map[conversionKey]Conversion)}
}

// Register adds a conversion. If a conversion for the same (from, to) pair
// already exists, the cheaper one wins; ties keep the first registered.
func (c *Conversions) Register(conv Conversion) {
	key := conversionKey{from: conv.From, to: conv.To}
	if existing, ok := c.table[key]; ok && existing.Cost <= conv.Cost {
		return
	}
	c.table[key] = conv
}

// Find returns the cheapest registered conversion from `from` to `to`.
func (c *Conversions) Find(from, to types.TypeID) (Conversion, bool) {
	conv, ok := c.table[conversionKey{from: from, to: to}]
	return conv, ok
}

// ResolveBinary is the one piece of overload-resolution logic shared by
// package checker (diagnostics) and package runtime (execution): an exact
// (op, left, right) match short-circuits at cost 0, otherwise every
// registered candidate for op is scored by summed per-argument conversion
// cost and the cheapest wins. tie is true when two
// or more candidates share the minimum cost; found is false when no
// candidate accepts (left, right) at all.
func (t *Table) ResolveBinary(op OpID, left, right types.TypeID, convs *Conversions) (entry BinaryEntry, cost int, tie bool, found bool) {
	if e, ok := t.LookupBinary(op, left, right); ok {
		return e, 0, false, true
	}
	best, bestCost, isTie := pickCheapestBinary(t.BinaryCandidates(op), left, right, convs)
	if bestCost < 0 {
		return BinaryEntry{}, -1, false, false
	}
	return best, bestCost, isTie, true
}

// ResolveUnary is ResolveBinary's unary counterpart.
func (t *Table) ResolveUnary(op OpID, operand types.TypeID, convs *Conversions) (entry UnaryEntry, cost int, tie bool, found bool) {
	if e, ok := t.LookupUnary(op, operand); ok {
		return e, 0, false, true
	}
	best, bestCost, isTie := pickCheapestUnary(t.UnaryCandidates(op), operand, convs)
	if bestCost < 0 {
		return UnaryEntry{}, -1, false, false
	}
	return best, bestCost, isTie, true
}

type scoredBinary struct {
	entry BinaryEntry
	cost  int
}

func pickCheapestBinary(candidates []BinaryEntry, left, right types.TypeID, convs *Conversions) (BinaryEntry, int, bool) {
	var scored []scoredBinary
	for _, cand := range candidates {
		cost, ok := pairCost(left, cand.Left, convs)
		if !ok {
			continue
		}
		rightCost, ok := pairCost(right, cand.Right, convs)
		if !ok {
			continue
		}
		scored = append(scored, scoredBinary{entry: cand, cost: cost + rightCost})
	}
	if len(scored) == 0 {
		return BinaryEntry{}, -1, false
	}
	best := scored[0]
	tie := false
	for _, s := range scored[1:] {
		switch {
		case s.cost < best.cost:
			best = s
			tie = false
		case s.cost == best.cost:
			tie = true
		}
	}
	return best.entry, best.cost, tie
}

type scoredUnary struct {
	entry UnaryEntry
	cost  int
}

func pickCheapestUnary(candidates []UnaryEntry, operand types.TypeID, convs *Conversions) (UnaryEntry, int, bool) {
	var scored []scoredUnary
	for _, cand := range candidates {
		cost, ok := pairCost(operand, cand.Operand, convs)
		if !ok {
			continue
		}
		scored = append(scored, scoredUnary{entry: cand, cost: cost})
	}
	if len(scored) == 0 {
		return UnaryEntry{}, -1, false
	}
	best := scored[0]
	tie := false
	for _, s := range scored[1:] {
		switch {
		case s.cost < best.cost:
			best = s
			tie = false
		case s.cost == best.cost:
			tie = true
		}
	}
	return best.entry, best.cost, tie
}

// pairCost is 0 for an exact type match, the registered conversion's cost
// if one is registered from actual to want, or (0, false) if neither.
func pairCost(actual, want types.TypeID, convs *Conversions) (int, bool) {
	if actual == want {
		return 0, true
	}
	conv, ok := convs.Find(actual, want)
	if !ok {
		return 0, false
	}
	return conv.Cost, true
}
