// Package value implements the runtime value model: a tagged
// union of nil, bool, number, string, list, map and struct values. Each
// kind is a concrete Go type implementing a common Value interface rather
// than one big tagged struct, which keeps each kind's behavior (String,
// Equal) next to its data.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

// Value is the interface every runtime value implements. Values are
// immutable; "mutation" is always reassignment of the variable slot that
// holds one.
type Value interface {
	// TypeID returns the value's TypeID.
	TypeID() types.TypeID
	// String renders the value for diagnostics and the "say" style
	// actuators that print arguments.
	String() string
}

// Nil is the singleton nil value.
type Nil struct{}

func (Nil) TypeID() types.TypeID { return types.Nil }
func (Nil) String() string       { return "nil" }

// NilValue is the shared Nil instance, avoiding per-call allocation.
var NilValue = Nil{}

// Bool wraps a boolean.
type Bool struct{ V bool }

func (Bool) TypeID() types.TypeID { return types.Boolean }
func (b Bool) String() string {
	if b.V {
		return "true"
	}
	return "false"
}

// Number wraps a float64; a single numeric kind rather than distinct
// int/float values, matching the dynamically-typed scripting languages
// this runtime is modeled on.
type Number struct{ V float64 }

func (Number) TypeID() types.TypeID { return types.Number }
func (n Number) String() string {
	return strconv.FormatFloat(n.V, 'g', -1, 64)
}

// String wraps a string.
type String struct{ V string }

func (String) TypeID() types.TypeID { return types.String }
func (s String) String() string     { return s.V }

// List is an ordered, growable sequence of values.
type List struct{ Items []Value }

func (List) TypeID() types.TypeID { return types.List }
func (l List) String() string {
	parts := make([]string, len(l.Items))
	for i, v := range l.Items {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Map is an insertion-ordered mapping from integer index to Value, used as
// a positional argument list.
type Map struct {
	keys   []int
	values map[int]Value
}

func NewMap() *Map {
	return &Map{values: make(map[int]Value)}
}

func (*Map) TypeID() types.TypeID { return types.Map }

func (m *Map) Set(key int, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *Map) Get(key int) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Len() int { return len(m.keys) }

// Keys returns keys in insertion order.
func (m *Map) Keys() []int {
	out := make([]int, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *Map) String() string {
	parts := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		parts = append(parts, fmt.Sprintf("%d: %s", k, m.values[k].String()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

// Struct is a tagged struct value: a typeId, a field map, and an optional
// opaque native handle resolved lazily through the type's fieldGetter.
type Struct struct {
	Type   types.TypeID
	Fields map[string]Value
	Native any
}

func NewStruct(id types.TypeID) *Struct {
	return &Struct{Type: id, Fields: make(map[string]Value)}
}

func (s *Struct) TypeID() types.TypeID { return s.Type }

func (s *Struct) String() string {
	names := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", k, s.Fields[k].String()))
	}
	return s.Type.Name + "{" + strings.Join(parts, ", ") + "}"
}

// Field reads a struct field, honoring a registered dynamic fieldGetter
// when the field isn't present in the plain field map.
//
// ctx is passed through opaquely to the getter (it is the runtime
// execution context; this package doesn't depend on the runtime package to
// avoid an import cycle).
func (s *Struct) Field(ctx any, reg *types.Registry, name string) (Value, bool) {
	if v, ok := s.Fields[name]; ok {
		return v, true
	}
	schema, ok := reg.LookupStruct(s.Type)
	if !ok || schema.FieldGetter == nil {
		return nil, false
	}
	raw, ok := schema.FieldGetter(ctx, s.Native, name)
	if !ok {
		return nil, false
	}
	return FromNative(raw), true
}

// SnapshotForAssignment returns the struct value to actually store in a
// variable slot at assignment time. If the type declares a snapshotNative
// hook, the native handle is captured into a concrete replacement now
// ("eager capture semantics"); otherwise the struct is shared as-is, since
// Values are immutable.
func SnapshotForAssignment(s *Struct, reg *types.Registry) *Struct {
	schema, ok := reg.LookupStruct(s.Type)
	if !ok || schema.SnapshotNative == nil {
		return s
	}
	snapshot := &Struct{Type: s.Type, Fields: s.Fields, Native: schema.SnapshotNative(s.Native)}
	return snapshot
}

// FromNative wraps a raw Go value returned by a fieldGetter or host
// actuator into a Value. Supported natives are the same shapes a host
// function table is expected to hand back: nil, bool, any numeric kind
// (widened to float64), string, []Value, *Map, *Struct, or a Value itself.
func FromNative(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return NilValue
	case Value:
		return v
	case bool:
		return Bool{V: v}
	case string:
		return String{V: v}
	case float64:
		return Number{V: v}
	case float32:
		return Number{V: float64(v)}
	case int:
		return Number{V: float64(v)}
	case int32:
		return Number{V: float64(v)}
	case int64:
		return Number{V: float64(v)}
	case []Value:
		return List{Items: v}
	default:
		// Opaque native that doesn't map to a core kind: surface it as a
		// String holding its %v rendering rather than panicking; callers that
		// care about a specific shape type-assert on the native elsewhere.
		return String{V: fmt.Sprintf("%v", v)}
	}
}

// Truthy implements WHEN-side predicate coercion: only Bool(true) is truthy.
// Everything else — including Nil, zero Number, empty String — is not,
// matching a statically-typed boolean expression having already been
// required by the type checker, so Truthy is really just "unwrap the Bool".
func Truthy(v Value) bool {
	b, ok := v.(Bool)
	return ok && b.V
}
