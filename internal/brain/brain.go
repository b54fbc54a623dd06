package brain

import (
	"fmt"

	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
)

// MaxPages bounds how many pages a single brain may hold. The wire format
// has no numeric ceiling of its own (the PGCT count is a plain u32), so
// this is a local bound, kept generous enough that no realistic brain
// would hit it.
const MaxPages = 256

// MaxPagesExceededError is returned by AddPage once a brain already holds
// MaxPages pages.
type MaxPagesExceededError struct{}

func (*MaxPagesExceededError) Error() string { return fmt.Sprintf("brain: cannot exceed %d pages", MaxPages) }

// PageIndexOutOfBoundsError is returned by Page/RemovePage for an invalid
// index.
type PageIndexOutOfBoundsError struct{ Index, Len int }

func (e *PageIndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("brain: page index %d out of bounds (have %d pages)", e.Index, e.Len)
}

// BrainChange is the payload of a BrainDef Changed event.
type BrainChange struct{ What string }

// BrainDef is the root container: a name, an ordered list of pages, and a
// local tile catalog for user-created literals, variables and page
// references.
type BrainDef struct {
	Pages   []*PageDef
	Catalog *catalog.Catalog

	name string

	NameChanged *Emitter[NameChange]
	Changed     *Emitter[BrainChange]
}

// NewBrainDef returns an empty brain with a fresh local catalog.
func NewBrainDef(name string) (*BrainDef, error) {
	if len(name) > MaxNameLength {
		return nil, &NameTooLongError{Name: name}
	}
	return &BrainDef{
		Catalog:     catalog.New(),
		name:        name,
		NameChanged: NewEmitter[NameChange](),
		Changed:     NewEmitter[BrainChange](),
	}, nil
}

// Name returns the brain's display name.
func (b *BrainDef) Name() string { return b.name }

// SetName renames the brain and emits NameChanged.
func (b *BrainDef) SetName(name string) error {
	if len(name) > MaxNameLength {
		return &NameTooLongError{Name: name}
	}
	old := b.name
	b.name = name
	b.NameChanged.Emit(NameChange{Old: old, New: name})
	return nil
}

// AddPage creates a new page, appends it, and returns it.
func (b *BrainDef) AddPage(name string) (*PageDef, error) {
	if len(b.Pages) >= MaxPages {
		return nil, &MaxPagesExceededError{}
	}
	p, err := NewPageDef(name)
	if err != nil {
		return nil, err
	}
	p.brain = b
	b.Pages = append(b.Pages, p)
	b.Changed.Emit(BrainChange{What: "page_added"})
	return p, nil
}

// AdoptPage appends an already-constructed page (its PageID already set,
// its Rules already attached) as owned by b, without minting a fresh id —
// used by deserialization, which rebuilds pages independently and then
// wires them to the brain.
func (b *BrainDef) AdoptPage(p *PageDef) error {
	if len(b.Pages) >= MaxPages {
		return &MaxPagesExceededError{}
	}
	p.brain = b
	b.Pages = append(b.Pages, p)
	return nil
}

// Page returns the page at idx.
func (b *BrainDef) Page(idx int) (*PageDef, error) {
	if idx < 0 || idx >= len(b.Pages) {
		return nil, &PageIndexOutOfBoundsError{Index: idx, Len: len(b.Pages)}
	}
	return b.Pages[idx], nil
}

// RemovePage deletes the page at idx and every rule it owns.
func (b *BrainDef) RemovePage(idx int) error {
	if idx < 0 || idx >= len(b.Pages) {
		return &PageIndexOutOfBoundsError{Index: idx, Len: len(b.Pages)}
	}
	p := b.Pages[idx]
	for _, r := range p.Rules {
		r.disposeAndEmitDeleted()
	}
	b.Pages = append(b.Pages[:idx], b.Pages[idx+1:]...)
	b.Changed.Emit(BrainChange{What: "page_removed"})
	return nil
}

// PurgeUnusedTiles removes every catalog entry not referenced by any rule
// in any page, leaving page tiles alone (they are reconciled separately by
// SyncPageTiles).
func (b *BrainDef) PurgeUnusedTiles() {
	used := make(map[string]bool)
	for _, p := range b.Pages {
		for _, r := range p.Rules {
			collectTileIDs(r, used)
		}
	}
	for _, d := range b.Catalog.GetAll() {
		if d.Kind() == tiles.KindPage {
			continue
		}
		if !used[d.ID()] {
			b.Catalog.Delete(d.ID())
		}
	}
}

func collectTileIDs(r *RuleDef, used map[string]bool) {
	for _, id := range r.When.TileIDs {
		used[id] = true
	}
	for _, id := range r.Do.TileIDs {
		used[id] = true
	}
	for _, c := range r.Children {
		collectTileIDs(c, used)
	}
}

// SyncPageTiles reconciles the catalog's Page-kind entries against the
// brain's live page list: every living page gets (or keeps) a catalog
// entry whose Label tracks the page's current name, and any page tile
// whose pageId no longer corresponds to a live page is marked Hidden
// rather than deleted, so a rule that still references it can round-trip.
func (b *BrainDef) SyncPageTiles() {
	alive := make(map[string]*PageDef, len(b.Pages))
	for _, p := range b.Pages {
		alive[p.PageID] = p
	}

	for _, p := range b.Pages {
		tileID := pageTileID(p.PageID)
		d, ok := b.Catalog.Get(tileID)
		existing, _ := d.(tiles.Page)
		if ok && existing.Label == p.Name() && !existing.Hidden {
			continue
		}
		b.Catalog.Add(tiles.Page{
			Header: tiles.Header{TileID: tileID, Persist: true, Placement: tiles.PlaceAnywhere},
			PageID: p.PageID,
			Label:  p.Name(),
		})
	}

	for _, d := range b.Catalog.GetAll() {
		pg, ok := d.(tiles.Page)
		if !ok || pg.Hidden {
			continue
		}
		if _, ok := alive[pg.PageID]; !ok {
			pg.Hidden = true
			b.Catalog.Add(pg)
		}
	}
}

func pageTileID(pageID string) string { return "page." + pageID }

// Clone returns a deep copy of b sharing no mutable state with the
// original: a fresh catalog populated with copies of every catalog
// entry, and freshly cloned pages/rules. Tile references
// inside tilesets are plain strings and need no rewriting since they
// resolve against the cloned catalog the same way.
func (b *BrainDef) Clone() *BrainDef {
	n, _ := NewBrainDef(b.name) // name already validated on b
	for _, d := range b.Catalog.GetAll() {
		n.Catalog.Add(d)
	}
	for _, p := range b.Pages {
		np, _ := NewPageDef(p.Name())
		np.PageID = p.PageID
		np.brain = n
		for _, r := range p.Rules {
			cr := r.Clone()
			np.AddRootRule(cr)
		}
		n.Pages = append(n.Pages, np)
	}
	return n
}
