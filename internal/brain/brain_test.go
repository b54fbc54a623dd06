package brain

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
)

// TestMain verifies that a rule's dirty-debounce timer (scheduleDirty,
// backed by time.AfterFunc) never outlives the test that scheduled it —
// in particular that Delete's call to dirtyTimer.Stop() actually prevents
// the timer's goroutine from firing on a deleted rule.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEmitterUnsubscribeDuringEmitSafety(t *testing.T) {
	e := NewEmitter[int]()
	var calls []string
	var unsubB func()
	e.On(func(int) { calls = append(calls, "a") })
	unsubB = e.On(func(int) {
		calls = append(calls, "b")
		unsubB() // unsubscribe self mid-emission
	})
	e.On(func(int) { calls = append(calls, "c") })

	e.Emit(1)
	if len(calls) != 3 {
		t.Fatalf("expected all 3 listeners to fire on the emission that triggers unsubscribe, got %v", calls)
	}
	calls = nil
	e.Emit(2)
	if len(calls) != 2 {
		t.Fatalf("expected b to be gone on the next emission, got %v", calls)
	}
}

func TestEmitterSwallowsPanickingListener(t *testing.T) {
	e := NewEmitter[int]()
	fired := false
	e.On(func(int) { panic("boom") })
	e.On(func(int) { fired = true })
	e.Emit(1)
	if !fired {
		t.Fatal("expected the second listener to still fire after the first panicked")
	}
}

func buildChainOfDepth(n int) *RuleDef {
	root := NewRuleDef()
	cur := root
	for i := 0; i < n; i++ {
		child := NewRuleDef()
		cur.Children = append(cur.Children, child)
		child.parent = cur
		cur = child
	}
	return root
}

func TestRuleMoveUpDownAndFirstRuleCannotMoveUp(t *testing.T) {
	b, _ := NewBrainDef("b")
	p, _ := b.AddPage("p")
	r1, r2, r3 := NewRuleDef(), NewRuleDef(), NewRuleDef()
	p.AddRootRule(r1)
	p.AddRootRule(r2)
	p.AddRootRule(r3)

	if r1.CanMoveUp() {
		t.Fatal("expected the first rule to be unable to move up")
	}
	if err := r2.MoveUp(); err != nil {
		t.Fatalf("MoveUp: %v", err)
	}
	if p.Rules[0] != r2 || p.Rules[1] != r1 {
		t.Fatalf("expected r2 before r1 after MoveUp, got %v", p.Rules)
	}
	if r3.CanMoveDown() {
		t.Fatal("expected the last rule to be unable to move down")
	}
}

// siblingsAtDepth builds a chain of depth-1 ancestors under a fresh page
// root and returns two more rules (a, b) added as siblings at exactly the
// given depth — a and b share a parent, so Indent(b under a) lands b at
// depth+1.
func siblingsAtDepth(p *PageDef, depth int) (a, b *RuleDef) {
	if depth == 0 {
		a, b = NewRuleDef(), NewRuleDef()
		p.AddRootRule(a)
		p.AddRootRule(b)
		return a, b
	}
	parent := buildChainOfDepth(depth - 1)
	p.AddRootRule(parent)
	leaf := parent
	for len(leaf.Children) > 0 {
		leaf = leaf.Children[0]
	}
	a, b = NewRuleDef(), NewRuleDef()
	leaf.Children = append(leaf.Children, a, b)
	a.parent, b.parent = leaf, leaf
	return a, b
}

// TestDepthCapRejectsIndent exercises the depth-cap formula directly:
// indenting R under its previous sibling S is legal iff
// S.Depth()+1+R.MaxDescendantDepth() <= 20.
func TestDepthCapRejectsIndent(t *testing.T) {
	b, _ := NewBrainDef("b")
	p, _ := b.AddPage("p")

	// a and b both sit at depth 19; b has one child, so indenting b under
	// a would reach depth 19+1+1 = 21 > 20.
	a, r := siblingsAtDepth(p, 19)
	child := NewRuleDef()
	r.Children = append(r.Children, child)
	child.parent = r
	_ = a
	parentBefore := r.parent

	if r.CanIndent() {
		t.Fatal("expected indenting a 1-deep subtree under a depth-19 sibling to be rejected")
	}
	if err := r.Indent(); err != ErrCannotIndent {
		t.Fatalf("expected ErrCannotIndent, got %v", err)
	}
	if r.parent != parentBefore {
		t.Fatal("expected the rejected Indent to be a no-op")
	}

	// A leaf (MaxDescendantDepth 0) indenting under a depth-19 sibling
	// reaches exactly depth 20 and must be allowed.
	b2, _ := NewBrainDef("b2")
	p2, _ := b2.AddPage("p2")
	_, leaf := siblingsAtDepth(p2, 19)
	if !leaf.CanIndent() {
		t.Fatal("expected a leaf to be indentable right up to the depth cap")
	}
	if err := leaf.Indent(); err != nil {
		t.Fatalf("Indent: %v", err)
	}
	if leaf.Depth() != 20 {
		t.Fatalf("expected the indented leaf to land at depth 20, got %d", leaf.Depth())
	}
}

func TestIndentOutdentRoundTrip(t *testing.T) {
	b, _ := NewBrainDef("b")
	p, _ := b.AddPage("p")
	r1, r2 := NewRuleDef(), NewRuleDef()
	p.AddRootRule(r1)
	p.AddRootRule(r2)

	if err := r2.Indent(); err != nil {
		t.Fatalf("Indent: %v", err)
	}
	if len(p.Rules) != 1 || p.Rules[0] != r1 {
		t.Fatalf("expected r2 removed from page roots, got %v", p.Rules)
	}
	if len(r1.Children) != 1 || r1.Children[0] != r2 {
		t.Fatalf("expected r2 to become r1's child, got %v", r1.Children)
	}
	if r2.Depth() != 1 {
		t.Fatalf("expected depth 1 after indent, got %d", r2.Depth())
	}

	if err := r2.Outdent(); err != nil {
		t.Fatalf("Outdent: %v", err)
	}
	if len(r1.Children) != 0 {
		t.Fatalf("expected r1 to have no children after outdent, got %v", r1.Children)
	}
	if len(p.Rules) != 2 || p.Rules[1] != r2 {
		t.Fatalf("expected r2 back among page roots after r1, got %v", p.Rules)
	}
}

func TestDirtyPropagationOnWhenChange(t *testing.T) {
	b, _ := NewBrainDef("b")
	p, _ := b.AddPage("p")
	parent := NewRuleDef()
	child := NewRuleDef()
	p.AddRootRule(parent)
	parent.Children = append(parent.Children, child)
	child.parent = parent

	if err := parent.When.Append("lit.true"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !parent.IsDirty() {
		t.Fatal("expected parent to be dirty after its WHEN changed")
	}
	if !child.IsDirty() {
		t.Fatal("expected child to become dirty when an ancestor's WHEN changed")
	}
}

func TestDirtyChangedIsDebounced(t *testing.T) {
	r := NewRuleDef()
	var fired atomic.Int32
	r.DirtyChanged.On(func(bool) { fired.Add(1) })

	r.When.Append("a")
	r.When.Append("b") // should cancel-and-reschedule, not double-fire
	if got := fired.Load(); got != 0 {
		t.Fatalf("expected no emission before the debounce elapses, got %d", got)
	}
	time.Sleep(80 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected exactly one debounced emission, got %d", got)
	}
}

func TestRuleDeleteCancelsDirtyTimerAndDisposesDescendants(t *testing.T) {
	b, _ := NewBrainDef("b")
	p, _ := b.AddPage("p")
	parent := NewRuleDef()
	child := NewRuleDef()
	p.AddRootRule(parent)
	parent.Children = append(parent.Children, child)
	child.parent = parent

	parentDeleted, childDeleted := false, false
	parent.Deleted.On(func(struct{}) { parentDeleted = true })
	child.Deleted.On(func(struct{}) { childDeleted = true })

	parent.When.Append("lit.x") // schedules a dirty timer
	parent.Delete()

	if len(p.Rules) != 0 {
		t.Fatalf("expected parent removed from page roots, got %v", p.Rules)
	}
	if !parentDeleted || !childDeleted {
		t.Fatal("expected Deleted to fire for both parent and child")
	}

	time.Sleep(80 * time.Millisecond) // the dirty timer, if not cancelled, would fire here
}

func TestCloneSharesNoMutableState(t *testing.T) {
	b, _ := NewBrainDef("orig")
	p, _ := b.AddPage("p1")
	r := NewRuleDef()
	r.When.Append("lit.a")
	p.AddRootRule(r)
	b.Catalog.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.a", Persist: true}})

	clone := b.Clone()
	clone.Pages[0].Rules[0].When.Append("lit.b")

	if len(b.Pages[0].Rules[0].When.TileIDs) != 1 {
		t.Fatalf("expected original rule's WHEN to be untouched by mutating the clone, got %v", b.Pages[0].Rules[0].When.TileIDs)
	}
	if len(clone.Pages[0].Rules[0].When.TileIDs) != 2 {
		t.Fatalf("expected the clone's WHEN to have the new append, got %v", clone.Pages[0].Rules[0].When.TileIDs)
	}
}

func TestPurgeUnusedTilesKeepsReferencedAndPageTiles(t *testing.T) {
	b, _ := NewBrainDef("b")
	p, _ := b.AddPage("p")
	r := NewRuleDef()
	r.When.Append("lit.used")
	p.AddRootRule(r)

	b.Catalog.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.used", Persist: true}})
	b.Catalog.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.orphan", Persist: true}})
	b.SyncPageTiles()

	b.PurgeUnusedTiles()

	if !b.Catalog.Has("lit.used") {
		t.Fatal("expected the referenced literal to survive purge")
	}
	if b.Catalog.Has("lit.orphan") {
		t.Fatal("expected the unreferenced literal to be purged")
	}
	if !b.Catalog.Has(pageTileID(p.PageID)) {
		t.Fatal("expected the page tile to survive purge even though no rule references it")
	}
}

func TestSyncPageTilesMarksOrphanHidden(t *testing.T) {
	b, _ := NewBrainDef("b")
	p, _ := b.AddPage("p")
	b.SyncPageTiles()

	if err := b.RemovePage(0); err != nil {
		t.Fatalf("RemovePage: %v", err)
	}
	b.SyncPageTiles()

	d, ok := b.Catalog.Get(pageTileID(p.PageID))
	if !ok {
		t.Fatal("expected the orphaned page tile to still be present")
	}
	pg, ok := d.(tiles.Page)
	if !ok || !pg.Hidden {
		t.Fatalf("expected the orphaned page tile to be marked Hidden, got %+v", d)
	}
}
