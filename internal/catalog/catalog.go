// Package catalog implements the tile catalog: an identity map
// from tileId to definition. A process-global catalog holds built-in tiles
// registered at startup; each BrainDef owns a separate local catalog for
// user-created literals, variables and page references. Lookups try both,
// local first.
//
// This is a flat, two-catalog identity map rather than a scoped symbol
// table: tiles have no lexical scoping, only "global" vs "this brain".
package catalog

import (
	"fmt"
	"sort"

	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

// Catalog is a single identity map of tile definitions.
type Catalog struct {
	byID map[string]tiles.Def
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{byID: make(map[string]tiles.Def)}
}

// Has reports whether tileID is present.
func (c *Catalog) Has(tileID string) bool {
	_, ok := c.byID[types.FoldName(tileID)]
	return ok
}

// Add inserts a definition, overwriting any prior entry with the same
// tileId. Use AddIfAbsent for catalogs where first-write-wins matters
// (deserialization).
func (c *Catalog) Add(d tiles.Def) {
	c.byID[types.FoldName(d.ID())] = d
}

// AddIfAbsent inserts a definition only if its tileId isn't already
// present, returning false if it was already there. Deserialization uses
// this so already-present tileIds are left untouched (first-write-wins).
func (c *Catalog) AddIfAbsent(d tiles.Def) bool {
	key := types.FoldName(d.ID())
	if _, exists := c.byID[key]; exists {
		return false
	}
	c.byID[key] = d
	return true
}

// Get returns the definition for a tileId.
func (c *Catalog) Get(tileID string) (tiles.Def, bool) {
	d, ok := c.byID[types.FoldName(tileID)]
	return d, ok
}

// Delete removes a tileId.
func (c *Catalog) Delete(tileID string) {
	delete(c.byID, types.FoldName(tileID))
}

// GetAll returns every definition, ordered by tileId for deterministic
// iteration (serialization and tests both depend on stable ordering).
func (c *Catalog) GetAll() []tiles.Def {
	keys := make([]string, 0, len(c.byID))
	for k := range c.byID {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]tiles.Def, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.byID[k])
	}
	return out
}

// Find returns every definition matching pred, in tileId order.
func (c *Catalog) Find(pred func(tiles.Def) bool) []tiles.Def {
	var out []tiles.Def
	for _, d := range c.GetAll() {
		if pred(d) {
			out = append(out, d)
		}
	}
	return out
}

// Len reports the catalog's size.
func (c *Catalog) Len() int { return len(c.byID) }

// Lookup is the two-catalog resolution order the parser, checker and
// deserializer all use: try the per-brain local catalog first (it shadows
// nothing from global in practice, since tileIds are unique across the
// whole system, but local is checked first so deserialization attempts
// each catalog in order).
type Lookup struct {
	Local  *Catalog
	Global *Catalog
}

// Get resolves a tileId against local then global.
func (l Lookup) Get(tileID string) (tiles.Def, bool) {
	if l.Local != nil {
		if d, ok := l.Local.Get(tileID); ok {
			return d, true
		}
	}
	if l.Global != nil {
		if d, ok := l.Global.Get(tileID); ok {
			return d, true
		}
	}
	return nil, false
}

// Has reports membership in either catalog.
func (l Lookup) Has(tileID string) bool {
	_, ok := l.Get(tileID)
	return ok
}

// MissingTileError reports a tileId that resolved against neither catalog.
type MissingTileError struct {
	TileID string
}

func (e *MissingTileError) Error() string {
	return fmt.Sprintf("catalog: tile %q not found in any catalog", e.TileID)
}

// ResolvePolicy decides what a deserializer does with a tileId it can't
// resolve.
type ResolvePolicy int

const (
	// ResolveAbort fails deserialization outright — the brain-load path.
	ResolveAbort ResolvePolicy = iota
	// ResolvePlaceholder inserts a tiles.Missing definition so every tile
	// reference still resolves — the clipboard-paste path.
	ResolvePlaceholder
)

// ResolveOrPlaceholder applies policy to a tileId lookup failure: under
// ResolveAbort it returns *MissingTileError; under ResolvePlaceholder it
// synthesizes and returns a tiles.Missing definition carrying the best
// guess at the tile's original kind and a human label, without inserting
// it into any catalog (the caller decides whether the placeholder itself
// should be persisted).
func ResolveOrPlaceholder(tileID string, originalKind tiles.Kind, label string, policy ResolvePolicy) (tiles.Def, error) {
	if policy == ResolveAbort {
		return nil, &MissingTileError{TileID: tileID}
	}
	return tiles.Missing{
		Header:       tiles.Header{TileID: tileID, Persist: true},
		OriginalKind: originalKind,
		Label:        label,
	}, nil
}
