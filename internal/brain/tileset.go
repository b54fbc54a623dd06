package brain

import (
	"fmt"

	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
)

// MaxTileSetSize is the forever-lower-bound cap on tiles per rule side.
const MaxTileSetSize = 20

// TileSetCapacityExceededError is returned when a mutation would grow a
// tileset past MaxTileSetSize.
type TileSetCapacityExceededError struct {
	Side tiles.Side
	Size int
}

func (e *TileSetCapacityExceededError) Error() string {
	return fmt.Sprintf("brain: %s tileset would exceed capacity %d (attempted %d)", e.Side, MaxTileSetSize, e.Size)
}

// TileSet is an ordered sequence of tile references (by tileId) belonging
// to one side of a rule. It stores references only; resolving a tileId to
// its definition goes through a catalog.Lookup.
type TileSet struct {
	Side    tiles.Side
	TileIDs []string

	DirtyChanged *Emitter[bool]
	Typechecked  *Emitter[struct{}]

	owner *RuleDef
}

// NewTileSet returns an empty tileset for side.
func NewTileSet(side tiles.Side) *TileSet {
	return &TileSet{
		Side:         side,
		DirtyChanged: NewEmitter[bool](),
		Typechecked:  NewEmitter[struct{}](),
	}
}

// SetAll replaces the tileset's contents wholesale, enforcing the capacity
// cap, and propagates dirty state to the owning rule (and, for the WHEN
// side, the rule's DO side and all descendants).
func (ts *TileSet) SetAll(ids []string) error {
	if len(ids) > MaxTileSetSize {
		return &TileSetCapacityExceededError{Side: ts.Side, Size: len(ids)}
	}
	ts.TileIDs = append([]string(nil), ids...)
	ts.DirtyChanged.Emit(true)
	if ts.owner != nil {
		ts.owner.onTileSetChanged(ts.Side)
	}
	return nil
}

// Append adds one more tile reference, enforcing the capacity cap.
func (ts *TileSet) Append(tileID string) error {
	if len(ts.TileIDs) >= MaxTileSetSize {
		return &TileSetCapacityExceededError{Side: ts.Side, Size: len(ts.TileIDs) + 1}
	}
	ts.TileIDs = append(ts.TileIDs, tileID)
	ts.DirtyChanged.Emit(true)
	if ts.owner != nil {
		ts.owner.onTileSetChanged(ts.Side)
	}
	return nil
}

// LoadAll populates the tileset's contents directly, enforcing the capacity
// cap but without marking the owning rule dirty or emitting DirtyChanged —
// deserialization loads already-clean state, unlike an in-editor edit via
// SetAll/Append.
func (ts *TileSet) LoadAll(ids []string) error {
	if len(ids) > MaxTileSetSize {
		return &TileSetCapacityExceededError{Side: ts.Side, Size: len(ids)}
	}
	ts.TileIDs = append([]string(nil), ids...)
	return nil
}

// Size reports the tileset's tile count.
func (ts *TileSet) Size() int { return len(ts.TileIDs) }

// ContainsTileID reports whether id appears anywhere in this tileset.
func (ts *TileSet) ContainsTileID(id string) bool {
	for _, t := range ts.TileIDs {
		if t == id {
			return true
		}
	}
	return false
}

// clone returns a deep, unshared copy of ts with no owner set — the
// caller (RuleDef.Clone) attaches it to the new rule.
func (ts *TileSet) clone() *TileSet {
	n := NewTileSet(ts.Side)
	n.TileIDs = append([]string(nil), ts.TileIDs...)
	return n
}
