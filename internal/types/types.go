// Package types implements the tile catalog's type registry:
// named types, built from the fixed set of native representations plus
// app-declared struct schemas, with optional dynamic field-getter and
// native-handle-snapshot hooks.
package types

import (
	"fmt"
	"sync"

	"golang.org/x/text/cases"
)

// foldCaser is the registry's case-insensitive comparison: Unicode-aware
// folding rather than a plain strings.ToLower, so non-ASCII type and tile
// names compare correctly too.
var foldCaser = cases.Fold()

func fold(s string) string {
	return foldCaser.String(s)
}

// NativeTag enumerates the fixed set of native value representations a
// TypeId can be built on.
type NativeTag uint8

const (
	NativeNil NativeTag = iota
	NativeBoolean
	NativeNumber
	NativeString
	NativeList
	NativeMap
	NativeStruct
)

func (n NativeTag) String() string {
	switch n {
	case NativeNil:
		return "Nil"
	case NativeBoolean:
		return "Boolean"
	case NativeNumber:
		return "Number"
	case NativeString:
		return "String"
	case NativeList:
		return "List"
	case NativeMap:
		return "Map"
	case NativeStruct:
		return "Struct"
	default:
		return fmt.Sprintf("NativeTag(%d)", n)
	}
}

// TypeID is the pair (native-type-tag, name) that identifies a type.
// Two TypeIDs are equal iff both components match, which makes TypeID a
// plain comparable value usable as a map key directly.
type TypeID struct {
	Native NativeTag
	Name   string
}

// String renders a TypeID for diagnostics, e.g. "Struct(ActorRef)".
func (t TypeID) String() string {
	if t.Native == NativeStruct || t.Name != "" {
		return fmt.Sprintf("%s(%s)", t.Native, t.Name)
	}
	return t.Native.String()
}

// Well-known core TypeIDs. App-declared TypeIDs share this same flat
// namespace.
var (
	Nil     = TypeID{Native: NativeNil, Name: "Nil"}
	Boolean = TypeID{Native: NativeBoolean, Name: "Boolean"}
	Number  = TypeID{Native: NativeNumber, Name: "Number"}
	String  = TypeID{Native: NativeString, Name: "String"}
	List    = TypeID{Native: NativeList, Name: "List"}
	Map     = TypeID{Native: NativeMap, Name: "Map"}
)

// FieldGetterFunc resolves a struct field dynamically instead of reading it
// out of the struct's field map. ctx and self are opaque to the type
// registry (an execution context and a native handle, respectively); the
// value package supplies concrete types when it invokes a registered
// getter, the same way the struct schema's native handle is opaque to this
// package.
type FieldGetterFunc func(ctx any, native any, field string) (result any, ok bool)

// SnapshotNativeFunc captures a struct's native handle into a concrete,
// immutable value at assignment time ("eager capture semantics").
type SnapshotNativeFunc func(native any) any

// StructField is one entry of a struct type's ordered field schema.
type StructField struct {
	Name string
	Type TypeID
}

// StructSchema is the full declaration passed to AddStructType.
type StructSchema struct {
	Name           string
	Fields         []StructField
	FieldGetter    FieldGetterFunc
	SnapshotNative SnapshotNativeFunc
}

// equivalentFields reports whether two schemas would register the same type:
// same field names and types, in order. FieldGetter/SnapshotNative are not
// compared since they are opaque function values; registering a type twice
// with different hooks but identical field shape is treated as the
// idempotent "already registered" case by the fields alone, matching
// AddStructType's doc contract.
func (s StructSchema) equivalentFields(other StructSchema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if f.Name != other.Fields[i].Name || f.Type != other.Fields[i].Type {
			return false
		}
	}
	return true
}

// TypeRegistrationConflictError is returned when a struct type name is
// registered twice with incompatible field schemas.
type TypeRegistrationConflictError struct {
	Name string
}

func (e *TypeRegistrationConflictError) Error() string {
	return fmt.Sprintf("types: %q already registered with a different schema", e.Name)
}

// Registry owns the struct-type namespace. It is safe for concurrent read
// access once populated at startup; the mutex exists only to guard the rare case of a per-brain
// local registry receiving late, editor-driven struct registrations.
type Registry struct {
	mu      sync.RWMutex
	structs map[string]StructSchema // keyed by fold(name)
	order   []string                // registration order, for deterministic AllStructs
}

// NewRegistry returns an empty type registry.
func NewRegistry() *Registry {
	return &Registry{structs: make(map[string]StructSchema)}
}

// AddStructType registers a struct type and returns its TypeID. Idempotent
// by name: registering the same name again with an equivalent field schema
// returns the same TypeID; registering it with a different schema fails
// with TypeRegistrationConflictError.
func (r *Registry) AddStructType(schema StructSchema) (TypeID, error) {
	key := fold(schema.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.structs[key]; ok {
		if !existing.equivalentFields(schema) {
			return TypeID{}, &TypeRegistrationConflictError{Name: schema.Name}
		}
		return TypeID{Native: NativeStruct, Name: existing.Name}, nil
	}

	r.structs[key] = schema
	r.order = append(r.order, key)
	return TypeID{Native: NativeStruct, Name: schema.Name}, nil
}

// LookupStruct returns the schema registered for a struct TypeID, or false
// if none is registered (e.g. id refers to a non-struct native type).
func (r *Registry) LookupStruct(id TypeID) (StructSchema, bool) {
	if id.Native != NativeStruct {
		return StructSchema{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.structs[fold(id.Name)]
	return s, ok
}

// HasStructNamed reports whether a struct type with this name (folded)
// exists, independent of TypeID value.
func (r *Registry) HasStructNamed(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.structs[fold(name)]
	return ok
}

// AllStructs returns every registered struct schema in registration order.
func (r *Registry) AllStructs() []StructSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StructSchema, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.structs[key])
	}
	return out
}

// FoldName exposes the registry's case-folding for callers (the catalog,
// the function registry and the suggestion service) that need identical tileId/type-name comparisons outside a
// Registry instance.
func FoldName(s string) string {
	return fold(s)
}
