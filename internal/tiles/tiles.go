// Package tiles defines the catalog's tile descriptors:
// immutable, per-kind definitions that share a common header (kind, tileId,
// placement, persistence, capability/requirement bitsets, visual blob) — one
// concrete Go type per distinguishable tile kind behind a small shared
// interface, rather than one big tagged struct.
package tiles

import "github.com/humanapp/mindcraft-lang-sub002/internal/types"

// Kind discriminates a tile definition's variant.
type Kind uint8

const (
	KindOperator Kind = iota
	KindControlFlow
	KindParameter
	KindModifier
	KindVariable
	KindVariableFactory
	KindLiteral
	KindLiteralFactory
	KindAccessor
	KindSensor
	KindActuator
	KindPage
	KindMissing
)

func (k Kind) String() string {
	switch k {
	case KindOperator:
		return "Operator"
	case KindControlFlow:
		return "ControlFlow"
	case KindParameter:
		return "Parameter"
	case KindModifier:
		return "Modifier"
	case KindVariable:
		return "Variable"
	case KindVariableFactory:
		return "VariableFactory"
	case KindLiteral:
		return "Literal"
	case KindLiteralFactory:
		return "LiteralFactory"
	case KindAccessor:
		return "Accessor"
	case KindSensor:
		return "Sensor"
	case KindActuator:
		return "Actuator"
	case KindPage:
		return "Page"
	case KindMissing:
		return "Missing"
	default:
		return "Unknown"
	}
}

// Capabilities is a small fixed-width bitset: a tile's Capabilities are
// granted to descendants in the rule tree, and a tile's Requirements must
// be a subset of the OR of all enclosing WHEN-side tiles' Capabilities.
type Capabilities uint64

// Has reports whether every bit in want is present in c.
func (c Capabilities) Has(want Capabilities) bool {
	return c&want == want
}

// Union combines capability grants from multiple enclosing tiles.
func (c Capabilities) Union(other Capabilities) Capabilities {
	return c | other
}

// Side is which half of a rule a tileset belongs to.
type Side uint8

const (
	SideWhen Side = iota
	SideDo
)

func (s Side) String() string {
	if s == SideWhen {
		return "When"
	}
	return "Do"
}

// Placement is a bitmask of the contexts a tile may legally appear in:
// which side(s) of a rule, and whether it's usable as a standalone
// statement, inline within an expression, or both.
type Placement uint8

const (
	PlaceWhen Placement = 1 << iota
	PlaceDo
	PlaceStatement
	PlaceInline
)

// PlaceAnywhere is the common case for operators, literals, variables and
// accessors, which are legal on either side and inline.
const PlaceAnywhere = PlaceWhen | PlaceDo | PlaceStatement | PlaceInline

func (p Placement) AllowsSide(s Side) bool {
	if s == SideWhen {
		return p&PlaceWhen != 0
	}
	return p&PlaceDo != 0
}

// Header is the common descriptor every tile definition embeds.
type Header struct {
	TileID       string
	Placement    Placement
	Persist      bool
	Capabilities Capabilities
	Requirements Capabilities
	Visual       []byte // opaque blob (icon, label layout) the editor renders
}

// Def is implemented by every tile definition kind. Base returns the
// shared header.
type Def interface {
	ID() string
	Kind() Kind
	Base() Header
}

func (h Header) ID() string   { return h.TileID }
func (h Header) Base() Header { return h }

// Operator tiles resolve through the operator-overload table by OpID.
type Operator struct {
	Header
	OpID string
}

func (Operator) Kind() Kind { return KindOperator }

// ControlFlow tiles are paren-nesting markers (open/close paren, etc.).
type ControlFlow struct {
	Header
	CFID string
}

func (ControlFlow) Kind() Kind { return KindControlFlow }

// Parameter tiles are named argument slots for a call.
type Parameter struct {
	Header
	Name     string
	DataType types.TypeID
	Optional bool
}

func (Parameter) Kind() Kind { return KindParameter }

// Modifier tiles are syntactic adverbs consumed positionally by a nearby
// call.
type Modifier struct {
	Header
}

func (Modifier) Kind() Kind { return KindModifier }

// Variable tiles are named, persisted slots.
type Variable struct {
	Header
	Name     string
	VarType  types.TypeID
	UniqueID string
}

func (Variable) Kind() Kind { return KindVariable }

// VariableFactory tiles are UI-only: selecting one creates a fresh Variable
// tile with a user-supplied name. They are never persisted themselves.
type VariableFactory struct {
	Header
	ProducedType types.TypeID
}

func (VariableFactory) Kind() Kind { return KindVariableFactory }

// Literal tiles are persisted immediate values.
type Literal struct {
	Header
	ValueType  types.TypeID
	Value      any // a raw Go value matching ValueType's native shape
	ValueLabel string
}

func (Literal) Kind() Kind { return KindLiteral }

// LiteralFactory tiles create a Literal from a user-supplied value.
type LiteralFactory struct {
	Header
	ProducedType types.TypeID
}

func (LiteralFactory) Kind() Kind { return KindLiteralFactory }

// Accessor tiles project a struct field.
type Accessor struct {
	Header
	ParentType types.TypeID
	FieldName  string
	FieldType  types.TypeID
	ReadOnly   bool
}

func (Accessor) Kind() Kind { return KindAccessor }

// Sensor tiles call into the function registry for a value-producing or
// predicate result.
type Sensor struct {
	Header
	FnEntry    string
	ReturnType types.TypeID
	// SensorPlacement additionally distinguishes statement-only sensors
	// from ones usable inline inside an expression, independent of the
	// Header.Placement WHEN/DO mask.
	SensorPlacement Placement
}

func (Sensor) Kind() Kind { return KindSensor }

// Actuator tiles call into the function registry for a side effect; legal
// only on the DO side.
type Actuator struct {
	Header
	FnEntry string
}

func (Actuator) Kind() Kind { return KindActuator }

// Page tiles reference another page in the same brain by its stable
// pageId. Label and Hidden are the one mutable exception to tile
// immutability: Label tracks the referenced page's current
// display name, and Hidden marks a page tile whose page no longer exists
// so it survives a purge without being resolvable to a live page.
type Page struct {
	Header
	PageID string
	Label  string
	Hidden bool
}

func (Page) Kind() Kind { return KindPage }

// Missing is a placeholder for a tileId that failed to resolve during
// deserialization; it round-trips so a partially-broken brain can still be
// re-saved without losing the slot.
type Missing struct {
	Header
	OriginalKind Kind
	Label        string
}

func (Missing) Kind() Kind { return KindMissing }

