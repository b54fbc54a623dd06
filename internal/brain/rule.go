package brain

import (
	"errors"
	"time"

	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
)

// MaxRuleDepth is the forever-lower-bound cap on rule nesting depth.
const MaxRuleDepth = 20

// DirtyDebounce is how long a rule waits after the last dirty-triggering
// mutation before notifying DirtyChanged observers, coalescing bursts of
// edits.
const DirtyDebounce = 50 * time.Millisecond

var (
	// ErrCannotMoveUp is returned by MoveUp when the rule is already first
	// among its siblings.
	ErrCannotMoveUp = errors.New("brain: rule is already first among its siblings")
	// ErrCannotMoveDown is returned by MoveDown when the rule is already last.
	ErrCannotMoveDown = errors.New("brain: rule is already last among its siblings")
	// ErrCannotIndent covers both "already first" and "would exceed max
	// depth"; CanIndent reports the same single yes/no, while CanMoveUp is
	// false exactly in the "already first" case.
	ErrCannotIndent = errors.New("brain: rule cannot be indented here")
	// ErrCannotOutdent is returned by Outdent on a rule with no ancestor.
	ErrCannotOutdent = errors.New("brain: rule has no ancestor to outdent from")
)

// RuleDef is one node of a brain's rule tree: a WHEN tileset, a DO tileset,
// an ordered list of children, and a weak ancestor/page back-reference used
// only for navigation.
type RuleDef struct {
	When *TileSet
	Do   *TileSet

	Children []*RuleDef
	parent   *RuleDef // nil if this rule is page-rooted
	page     *PageDef // set only when parent == nil

	dirty      bool
	dirtyTimer *time.Timer

	Deleted      *Emitter[struct{}]
	DirtyChanged *Emitter[bool]
}

// NewRuleDef returns an unparented rule with empty WHEN/DO tilesets.
func NewRuleDef() *RuleDef {
	r := &RuleDef{
		When:         NewTileSet(tiles.SideWhen),
		Do:           NewTileSet(tiles.SideDo),
		Deleted:      NewEmitter[struct{}](),
		DirtyChanged: NewEmitter[bool](),
	}
	r.When.owner = r
	r.Do.owner = r
	return r
}

// Depth returns the rule's distance from its page root: 0 for a root rule.
func (r *RuleDef) Depth() int {
	d := 0
	for p := r.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// MaxDescendantDepth returns the longest chain of children below r (0 if r
// has no children).
func (r *RuleDef) MaxDescendantDepth() int {
	max := 0
	for _, c := range r.Children {
		d := 1 + c.MaxDescendantDepth()
		if d > max {
			max = d
		}
	}
	return max
}

// Page walks the ancestor chain to the root and returns that rule's page.
func (r *RuleDef) Page() (*PageDef, bool) {
	n := r
	for n.parent != nil {
		n = n.parent
	}
	if n.page == nil {
		return nil, false
	}
	return n.page, true
}

// Brain returns r.Page().Brain().
func (r *RuleDef) Brain() (*BrainDef, bool) {
	p, ok := r.Page()
	if !ok {
		return nil, false
	}
	return p.brain, p.brain != nil
}

// siblings returns the slice r currently lives in (its parent's Children,
// or its page's root Rules list), and a setter to replace that slice in
// place.
func (r *RuleDef) siblings() (get func() []*RuleDef, set func([]*RuleDef)) {
	if r.parent != nil {
		p := r.parent
		return func() []*RuleDef { return p.Children }, func(s []*RuleDef) { p.Children = s }
	}
	pg := r.page
	return func() []*RuleDef { return pg.Rules }, func(s []*RuleDef) { pg.Rules = s }
}

func (r *RuleDef) indexInSiblings() int {
	get, _ := r.siblings()
	for i, s := range get() {
		if s == r {
			return i
		}
	}
	return -1
}

// CanMoveUp reports whether MoveUp would succeed.
func (r *RuleDef) CanMoveUp() bool { return r.indexInSiblings() > 0 }

// MoveUp swaps r with its previous sibling.
func (r *RuleDef) MoveUp() error {
	idx := r.indexInSiblings()
	if idx <= 0 {
		return ErrCannotMoveUp
	}
	get, set := r.siblings()
	s := get()
	s[idx-1], s[idx] = s[idx], s[idx-1]
	set(s)
	r.markDirtySubtree()
	return nil
}

// CanMoveDown reports whether MoveDown would succeed.
func (r *RuleDef) CanMoveDown() bool {
	get, _ := r.siblings()
	idx := r.indexInSiblings()
	return idx >= 0 && idx < len(get())-1
}

// MoveDown swaps r with its next sibling.
func (r *RuleDef) MoveDown() error {
	get, set := r.siblings()
	s := get()
	idx := r.indexInSiblings()
	if idx < 0 || idx >= len(s)-1 {
		return ErrCannotMoveDown
	}
	s[idx+1], s[idx] = s[idx], s[idx+1]
	set(s)
	r.markDirtySubtree()
	return nil
}

// CanIndent reports whether Indent would succeed: r must not already be
// first among its siblings, and the resulting depth (one more than the
// previous sibling's) plus r's own max descendant depth must not exceed
// MaxRuleDepth.
func (r *RuleDef) CanIndent() bool {
	idx := r.indexInSiblings()
	if idx <= 0 {
		return false
	}
	get, _ := r.siblings()
	prevSibling := get()[idx-1]
	newDepth := prevSibling.Depth() + 1
	return newDepth+r.MaxDescendantDepth() <= MaxRuleDepth
}

// Indent makes r a child of its previous sibling, appended at the end of
// that sibling's Children.
func (r *RuleDef) Indent() error {
	if !r.CanIndent() {
		return ErrCannotIndent
	}
	get, set := r.siblings()
	idx := r.indexInSiblings()
	s := get()
	prevSibling := s[idx-1]

	s = append(s[:idx], s[idx+1:]...)
	set(s)

	r.parent = prevSibling
	r.page = nil
	prevSibling.Children = append(prevSibling.Children, r)
	r.markDirtySubtree()
	return nil
}

// CanOutdent reports whether r has an ancestor to outdent from.
func (r *RuleDef) CanOutdent() bool { return r.parent != nil }

// Outdent removes r from its parent's Children and inserts it immediately
// after that old parent in the grandparent's (or page's) list.
func (r *RuleDef) Outdent() error {
	if r.parent == nil {
		return ErrCannotOutdent
	}
	oldParent := r.parent

	get, set := r.siblings() // r's current siblings: oldParent.Children
	s := get()
	idx := r.indexInSiblings()
	s = append(s[:idx], s[idx+1:]...)
	set(s)

	r.parent = oldParent.parent
	r.page = oldParent.page

	grandGet, grandSet := oldParent.siblings()
	gs := grandGet()
	oldParentIdx := -1
	for i, s2 := range gs {
		if s2 == oldParent {
			oldParentIdx = i
			break
		}
	}
	inserted := make([]*RuleDef, 0, len(gs)+1)
	inserted = append(inserted, gs[:oldParentIdx+1]...)
	inserted = append(inserted, r)
	inserted = append(inserted, gs[oldParentIdx+1:]...)
	grandSet(inserted)

	r.markDirtySubtree()
	return nil
}

// Delete detaches r from its parent/page, cancels its pending dirty timer,
// emits Deleted, then recursively deletes its children.
func (r *RuleDef) Delete() {
	get, set := r.siblings()
	s := get()
	idx := r.indexInSiblings()
	if idx >= 0 {
		set(append(s[:idx], s[idx+1:]...))
	}
	r.disposeAndEmitDeleted()
}

func (r *RuleDef) disposeAndEmitDeleted() {
	if r.dirtyTimer != nil {
		r.dirtyTimer.Stop()
		r.dirtyTimer = nil
	}
	r.Deleted.Emit(struct{}{})
	for _, c := range r.Children {
		c.disposeAndEmitDeleted()
	}
}

// AddChild appends c as r's last child, setting c's parent back-reference.
// This is the nested-rule equivalent of PageDef.AddRootRule, exported for
// deserialization, which rebuilds a rule tree top-down.
func (r *RuleDef) AddChild(c *RuleDef) {
	c.parent = r
	c.page = nil
	r.Children = append(r.Children, c)
}

// Clone produces an unparented, structurally-identical rule sharing no
// mutable state with r. A clone is conceptually a serialize-then-
// deserialize round trip through the brain's catalog; this package
// performs the equivalent deep copy directly to avoid a brain↔serialize
// import cycle, since tile references are copied by value (plain strings)
// either way and resolve through the same catalog.
func (r *RuleDef) Clone() *RuleDef {
	n := NewRuleDef()
	n.When = r.When.clone()
	n.When.owner = n
	n.Do = r.Do.clone()
	n.Do.owner = n
	for _, c := range r.Children {
		cc := c.Clone()
		cc.parent = n
		n.Children = append(n.Children, cc)
	}
	return n
}

// ContainsTileID reports whether id is referenced anywhere in r's own
// tilesets or any descendant's.
func (r *RuleDef) ContainsTileID(id string) bool {
	if r.When.ContainsTileID(id) || r.Do.ContainsTileID(id) {
		return true
	}
	for _, c := range r.Children {
		if c.ContainsTileID(id) {
			return true
		}
	}
	return false
}

// IsDirty reports the rule's current dirty flag.
func (r *RuleDef) IsDirty() bool { return r.dirty }

// onTileSetChanged implements the dirty-propagation rule: a tileset
// modification marks its own rule dirty, and additionally, for a WHEN-side
// change, the sibling DO side and all descendants.
func (r *RuleDef) onTileSetChanged(side tiles.Side) {
	r.scheduleDirty()
	if side == tiles.SideWhen {
		for _, c := range r.Children {
			c.markDirtySubtree()
		}
	}
}

// markDirtySubtree marks r and every descendant dirty — used by structural
// operations (move/indent/outdent), which dirty the affected rule and all
// descendants.
func (r *RuleDef) markDirtySubtree() {
	r.scheduleDirty()
	for _, c := range r.Children {
		c.markDirtySubtree()
	}
}

// scheduleDirty cancels any pending debounce timer and reschedules it,
// coalescing bursts of edits into a single DirtyChanged emission
// ~DirtyDebounce after the last mutation.
func (r *RuleDef) scheduleDirty() {
	r.dirty = true
	if r.dirtyTimer != nil {
		r.dirtyTimer.Stop()
	}
	r.dirtyTimer = time.AfterFunc(DirtyDebounce, func() {
		r.DirtyChanged.Emit(true)
	})
}
