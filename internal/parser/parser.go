// Package parser implements the tile-to-expression parser: a
// shunting-yard-style precedence parser that turns an ordered tile sequence
// into a typed-but-not-yet-typechecked AST (Expr), with diagnostics
// anchored to tile indices and malformed fragments becoming Error subtrees
// rather than aborting the parse.
//
// A cursor walks resolved tile definitions directly rather than lexer
// tokens, driven by a precedence table for left-associative binary operator
// climbing; malformed input never panics the parser, since a tile sequence
// has no separate lexical stage to reject bad input earlier.
package parser

import (
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

// NodeID is a monotonically assigned identifier for every Expr node,
// independent of tile position, so diagnostics and resolved types survive
// a re-parse of a syntactically-equivalent tile sequence.
type NodeID int

// Span is a half-open range of tile indices, [From, To), that a node
// covers: To is one past the last tile, so a single-tile node at index i
// has Span{i, i+1} and an unclosed paren opened at tile 0 of a 4-tile
// sequence spans {0, 4}. Every span in this module — node coverage,
// diagnostic anchors, the editor's badge ranges — uses this convention;
// an inclusive rendering of the same range would read one lower on To.
type Span struct {
	From, To int
}

// ExprKind discriminates an Expr's shape.
type ExprKind uint8

const (
	KindLiteral ExprKind = iota
	KindVariable
	KindAccessor
	KindParameterSlot
	KindUnary
	KindBinary
	KindCall       // inline sensor call, or (on the DO side) an actuator/sensor statement
	KindAssignment // DO-side `variable := expr`
	KindError      // malformed fragment; still addressable by tile span
)

func (k ExprKind) String() string {
	switch k {
	case KindLiteral:
		return "Literal"
	case KindVariable:
		return "Variable"
	case KindAccessor:
		return "Accessor"
	case KindParameterSlot:
		return "ParameterSlot"
	case KindUnary:
		return "Unary"
	case KindBinary:
		return "Binary"
	case KindCall:
		return "Call"
	case KindAssignment:
		return "Assignment"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Arg is one argument passed to a Call node: a parameter name when the
// source was a Parameter tile ("named"), empty when it was a bare
// positional atom.
type Arg struct {
	Name  string
	Value *Expr
}

// Expr is the single AST node shape this parser produces. Using one
// struct for every node kind keeps inline-sensor
// calls and DO-side actuator statements structurally identical — both are
// KindCall, distinguished by IsActuator — since the grammar treats them the
// same way positionally.
type Expr struct {
	ID   NodeID
	Span Span
	Kind ExprKind

	// ResolvedType is filled in by package checker; zero (types.TypeID{})
	// until Check has run over this node.
	ResolvedType types.TypeID

	// Literal / Variable / Accessor / Call / Unary / Binary all originate
	// from a specific tile; TileID names it for diagnostics and for the
	// checker to look the definition back up in the catalog.
	TileID string

	// Binary / Unary
	Op       string // operator tile's OpID
	Left     *Expr  // binary left, or unary operand
	Right    *Expr  // binary right

	// Accessor
	Base  *Expr
	Field string

	// Call (inline sensor, or DO-side sensor/actuator statement)
	Args       []Arg
	Modifiers  []string // modifier tileIds attached to this call
	IsActuator bool
	IsInline   bool // false => statement-only placement

	// Assignment
	Target *Expr
	Value  *Expr

	// Parenthesized records whether this node was wrapped in parens in the
	// source tile sequence, purely for re-serialization to a tile
	// sequence; it does not affect evaluation.
	Parenthesized bool
}

// Diagnostic is a parse- or check-time finding anchored to a tile span.
type Diagnostic struct {
	Code    string
	Message string
	Span    Span
	NodeID  NodeID
}

// Diagnostic codes.
const (
	DiagUnclosedParen    = "UnclosedParen"
	DiagUnexpectedTile   = "UnexpectedTile"
	DiagAmbiguousOverload = "AmbiguousOverload" // emitted by package checker, listed here for one shared vocabulary
	DiagNoOverload        = "NoOverload"
	DiagCapabilityMissing = "CapabilityMissing"
	DiagUnknownVariable   = "UnknownVariable"
	DiagTypeMismatch      = "TypeMismatch"
)

// ParseResult is the parser's output.
type ParseResult struct {
	// Exprs holds the top-level production: exactly one boolean expression
	// for a WHEN side, or an ordered statement sequence for a DO side.
	Exprs       []*Expr
	Diagnostics []Diagnostic
	// ByID lets downstream consumers (the checker, the editor's badge
	// renderer) look a node back up by its NodeID without re-walking the
	// tree.
	ByID map[NodeID]*Expr
}

type parser struct {
	tileRefs []string // tileId per position, for span bookkeeping even when a tile failed to resolve
	defs     []tiles.Def
	pos      int
	nextID   NodeID
	diags    []Diagnostic
	byID     map[NodeID]*Expr
}

func newParser(defs []tiles.Def) *parser {
	refs := make([]string, len(defs))
	for i, d := range defs {
		if d != nil {
			refs[i] = d.ID()
		}
	}
	return &parser{tileRefs: refs, defs: defs, byID: make(map[NodeID]*Expr)}
}

func (p *parser) atEnd() bool { return p.pos >= len(p.defs) }

func (p *parser) peek() tiles.Def {
	if p.atEnd() {
		return nil
	}
	return p.defs[p.pos]
}

func (p *parser) advance() tiles.Def {
	d := p.peek()
	p.pos++
	return d
}

func (p *parser) newNode(kind ExprKind, from int) *Expr {
	e := &Expr{ID: p.nextID, Kind: kind, Span: Span{From: from, To: from + 1}}
	p.nextID++
	p.byID[e.ID] = e
	return e
}

func (p *parser) errorNode(from, to int, code, msg string) *Expr {
	e := &Expr{ID: p.nextID, Kind: KindError, Span: Span{From: from, To: to}}
	p.nextID++
	p.byID[e.ID] = e
	p.diags = append(p.diags, Diagnostic{Code: code, Message: msg, Span: e.Span, NodeID: e.ID})
	return e
}

func (p *parser) addDiag(code, msg string, span Span, nodeID NodeID) {
	p.diags = append(p.diags, Diagnostic{Code: code, Message: msg, Span: span, NodeID: nodeID})
}

// precedence is the fixed binary-operator precedence table. Higher binds tighter.
var precedence = map[string]int{
	"Or":  1,
	"And": 2,
	"Eq":  3, "Neq": 3, "Lt": 3, "Le": 3, "Gt": 3, "Ge": 3,
	"Add": 4, "Sub": 4,
	"Mul": 5, "Div": 5, "Mod": 5,
}

const unaryPrecedence = 9

func binaryPrecedence(opID string) (int, bool) {
	p, ok := precedence[opID]
	return p, ok
}

// unaryOps is the set of operator ids legal as a prefix unary operator.
var unaryOps = map[string]bool{"Not": true, "Neg": true}

// ParseWhen parses a WHEN side: the top-level production is a single
// boolean expression.
func ParseWhen(defs []tiles.Def) *ParseResult {
	p := newParser(defs)
	if p.atEnd() {
		return p.result(nil)
	}
	expr := p.parseExpr(0)
	p.consumeTrailingGarbage()
	return p.result([]*Expr{expr})
}

// ParseDo parses a DO side: an ordered sequence of statements, each an
// assignment, an actuator call, or an inline sensor used for its side
// effect.
func ParseDo(defs []tiles.Def) *ParseResult {
	p := newParser(defs)
	var stmts []*Expr
	for !p.atEnd() {
		stmts = append(stmts, p.parseStatement())
	}
	return p.result(stmts)
}

func (p *parser) result(exprs []*Expr) *ParseResult {
	return &ParseResult{Exprs: exprs, Diagnostics: p.diags, ByID: p.byID}
}

// consumeTrailingGarbage absorbs any tiles left over after a supposedly
// complete WHEN expression, each becoming its own UnexpectedTile
// diagnostic so every tile is still addressable by the editor.
func (p *parser) consumeTrailingGarbage() {
	for !p.atEnd() {
		from := p.pos
		d := p.advance()
		label := "?"
		if d != nil {
			label = d.ID()
		}
		p.addDiag(DiagUnexpectedTile, "unexpected tile "+label+" after complete expression", Span{From: from, To: p.pos}, -1)
	}
}

func (p *parser) parseStatement() *Expr {
	from := p.pos
	expr := p.parseExpr(0)

	// `variable := value` — recognize an Operator tile with OpID "Assign"
	// immediately following a Variable/Accessor target.
	if op, ok := p.peek().(tiles.Operator); ok && op.OpID == "Assign" {
		p.advance()
		value := p.parseExpr(0)
		node := p.newNode(KindAssignment, from)
		node.Target = expr
		node.Value = value
		node.Span = Span{From: from, To: p.pos}
		return node
	}
	return expr
}

// parseExpr is precedence-climbing: parse a unary/atom, then repeatedly
// fold in binary operators whose precedence is >= minPrec, left-associative.
func (p *parser) parseExpr(minPrec int) *Expr {
	left := p.parseUnary()
	for {
		opDef, ok := p.peek().(tiles.Operator)
		if !ok {
			break
		}
		prec, known := binaryPrecedence(opDef.OpID)
		if !known || prec < minPrec {
			break
		}
		from := left.Span.From
		p.advance()
		right := p.parseExpr(prec + 1)
		node := p.newNode(KindBinary, from)
		node.Op = opDef.OpID
		node.TileID = opDef.ID()
		node.Left = left
		node.Right = right
		node.Span = Span{From: from, To: p.pos}
		left = node
	}
	return left
}

func (p *parser) parseUnary() *Expr {
	if opDef, ok := p.peek().(tiles.Operator); ok && unaryOps[opDef.OpID] {
		from := p.pos
		p.advance()
		operand := p.parseExprAtPrec(unaryPrecedence)
		node := p.newNode(KindUnary, from)
		node.Op = opDef.OpID
		node.TileID = opDef.ID()
		node.Left = operand
		node.Span = Span{From: from, To: p.pos}
		return node
	}
	return p.parseAccessorChain()
}

// A unary operator binds tighter than every binary operator, so its
// operand is the next atom (with any accessor chain), never a full
// precedence-climbed expression: `not a = b` parses as `(not a) = b`.
func (p *parser) parseExprAtPrec(_ int) *Expr {
	return p.parseAccessorChain()
}

// parseAccessorChain parses one atom, then greedily consumes any
// immediately-following Accessor tiles as a field-projection chain.
// Legality of a given accessor against the base's actual type is left to
// the checker.
func (p *parser) parseAccessorChain() *Expr {
	atom := p.parseAtom()
	for {
		acc, ok := p.peek().(tiles.Accessor)
		if !ok {
			break
		}
		from := atom.Span.From
		p.advance()
		node := p.newNode(KindAccessor, from)
		node.TileID = acc.ID()
		node.Base = atom
		node.Field = acc.FieldName
		node.Span = Span{From: from, To: p.pos}
		atom = node
	}
	return atom
}

func (p *parser) parseAtom() *Expr {
	from := p.pos
	d := p.peek()
	if d == nil {
		return p.errorNode(from, p.pos, DiagUnexpectedTile, "expected an expression but ran out of tiles")
	}

	switch t := d.(type) {
	case tiles.ControlFlow:
		if t.CFID == "ParenOpen" {
			p.advance()
			inner := p.parseExpr(0)
			if cf, ok := p.peek().(tiles.ControlFlow); ok && cf.CFID == "ParenClose" {
				p.advance()
				inner.Parenthesized = true
				inner.Span = Span{From: from, To: p.pos}
				return inner
			}
			// unclosed: span covers from the opening paren tile to end of
			// input.
			span := Span{From: from, To: len(p.defs)}
			p.pos = len(p.defs)
			e := p.errorNode(from, span.To, DiagUnclosedParen, "unclosed parenthesis")
			e.Span = span
			e.Left = inner
			return e
		}
		p.advance()
		return p.errorNode(from, p.pos, DiagUnexpectedTile, "unexpected control-flow tile "+t.ID())

	case tiles.Literal:
		p.advance()
		node := p.newNode(KindLiteral, from)
		node.TileID = t.ID()
		return node

	case tiles.Variable:
		p.advance()
		node := p.newNode(KindVariable, from)
		node.TileID = t.ID()
		return node

	case tiles.Page:
		p.advance()
		node := p.newNode(KindLiteral, from) // a page reference behaves like an immediate value (its pageId)
		node.TileID = t.ID()
		return node

	case tiles.Sensor:
		p.advance()
		return p.parseCall(from, t.ID(), t.SensorPlacement&tiles.PlaceInline != 0, false)

	case tiles.Actuator:
		p.advance()
		return p.parseCall(from, t.ID(), true, true)

	case tiles.Missing:
		p.advance()
		return p.errorNode(from, p.pos, DiagUnexpectedTile, "tile "+t.ID()+" failed to resolve")

	default:
		p.advance()
		return p.errorNode(from, p.pos, DiagUnexpectedTile, "tile "+d.ID()+" cannot start an expression")
	}
}

// parseCall consumes a call's trailing Parameter/Modifier tiles and bare
// positional atom arguments, stopping at the first tile that can't extend
// the call (an operator, a closing paren, a Missing/statement boundary, or
// end of input). isInline controls whether this call may legally appear
// inside an enclosing expression vs. only as its own statement.
func (p *parser) parseCall(from int, tileID string, isInline, isActuator bool) *Expr {
	node := p.newNode(KindCall, from)
	node.TileID = tileID
	node.IsInline = isInline
	node.IsActuator = isActuator

	for {
		next := p.peek()
		if next == nil {
			break
		}
		switch t := next.(type) {
		case tiles.Parameter:
			p.advance()
			val := p.parseAccessorChain()
			node.Args = append(node.Args, Arg{Name: t.Name, Value: val})
			continue
		case tiles.Modifier:
			p.advance()
			node.Modifiers = append(node.Modifiers, t.ID())
			continue
		case tiles.Operator, tiles.ControlFlow:
			// an operator/close-paren can never start an argument atom;
			// leaves it for the enclosing parseExpr/parseAtom to consume.
		default:
			// a bare atom continues the positional argument list only if
			// one more tile is actually available to parse as an atom;
			// operators/parens are handled above; a literal, variable,
			// page, sensor or actuator tile is a positional arg, and any
			// other tile (an accessor included) ends the call.
			if canStartAtom(next) {
				val := p.parseAccessorChain()
				node.Args = append(node.Args, Arg{Value: val})
				continue
			}
		}
		break
	}
	node.Span = Span{From: from, To: p.pos}
	return node
}

func canStartAtom(d tiles.Def) bool {
	switch d.(type) {
	case tiles.Literal, tiles.Variable, tiles.Page, tiles.Sensor, tiles.Actuator:
		return true
	default:
		return false
	}
}

// CountUnclosedParens reports how many ParenOpen control-flow tiles in
// defs[:upTo] have no matching ParenClose before index upTo — exposed for
// the suggestion service, which needs to know current paren depth without
// running a full parse.
func CountUnclosedParens(defs []tiles.Def, upTo int) int {
	depth := 0
	if upTo > len(defs) {
		upTo = len(defs)
	}
	for _, d := range defs[:upTo] {
		cf, ok := d.(tiles.ControlFlow)
		if !ok {
			continue
		}
		switch cf.CFID {
		case "ParenOpen":
			depth++
		case "ParenClose":
			if depth > 0 {
				depth--
			}
		}
	}
	return depth
}
