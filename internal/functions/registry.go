// Package functions implements the function registry: a map
// from tileId to {exec, returnType} for sensors (value-producing,
// predicate-capable) and actuators (side-effectful), plus the execution
// context threaded through every call — a host registers an opaque native
// function under a name, called with a (context, positional args)
// convention rather than a fixed-arity native wrapper.
package functions

import (
	"fmt"

	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
	"github.com/humanapp/mindcraft-lang-sub002/internal/value"
)

// RuleHandle is the slice of a running rule's state a function body is
// allowed to touch: its variable set, for sensors that bind "target actor"
// style variables onto the current rule. The concrete type lives in the brain/runtime packages; this
// interface exists so package functions never imports them.
type RuleHandle interface {
	SetVariable(name string, v value.Value)
	GetVariable(name string) (value.Value, bool)
	GrantCapability(bit uint64)
}

// Context is threaded through every sensor/actuator call.
type Context struct {
	// Data is the opaque host actor the brain is bound to.
	Data any
	// Rule is the currently evaluating rule, or nil outside rule evaluation
	// (e.g. a unit test calling a function directly).
	Rule RuleHandle
	// Time is the current simulation time in milliseconds.
	Time float64
	// Dt is the elapsed simulation time since the previous tick, in
	// milliseconds.
	Dt float64
	// Diagnostics receives non-fatal runtime error reports.
	Diagnostics *[]string
}

// ReportError appends a runtime diagnostic and returns Nil, the
// conventional "failed but didn't crash the tick" result.
func (c *Context) ReportError(format string, args ...any) value.Value {
	if c.Diagnostics != nil {
		*c.Diagnostics = append(*c.Diagnostics, fmt.Sprintf(format, args...))
	}
	return value.NilValue
}

// Placement distinguishes sensors that may appear inside an expression
// (Inline) from ones that may only head a WHEN side as a statement
// (Statement).
type Placement uint8

const (
	PlacementStatement Placement = iota
	PlacementInline
)

// ExecFunc is a sensor or actuator body. args is the positional argument
// list built from the call's parameter tiles, keyed by slot index.
type ExecFunc func(ctx *Context, args *value.Map) value.Value

// Entry is one registered function.
type Entry struct {
	TileID     string
	Exec       ExecFunc
	ReturnType types.TypeID
	Placement  Placement
	// IsActuator marks a side-effectful, DO-side-only entry; false means a
	// sensor, which may be a WHEN-side predicate or — if Placement is
	// Inline — usable inside any expression.
	IsActuator bool
}

// Registry is the process-global (or per-test) function table.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry returns an empty function table.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a function entry. Re-registering an existing tileId
// overwrites it — the registry is populated once at startup by the host's
// function table, and a later registration (e.g. a test stubbing out a
// sensor) is expected to replace the earlier one rather than conflict,
// unlike the catalog's first-write-wins rule for deserialized tiles.
func (r *Registry) Register(e Entry) {
	r.entries[types.FoldName(e.TileID)] = e
}

// Lookup returns the entry for a tileId.
func (r *Registry) Lookup(tileID string) (Entry, bool) {
	e, ok := r.entries[types.FoldName(tileID)]
	return e, ok
}

// Call invokes a registered function by tileId, returning Nil and a
// context diagnostic if the tileId isn't registered.
func (r *Registry) Call(ctx *Context, tileID string, args *value.Map) value.Value {
	e, ok := r.Lookup(tileID)
	if !ok {
		return ctx.ReportError("no function registered for tile %q", tileID)
	}
	return e.Exec(ctx, args)
}
