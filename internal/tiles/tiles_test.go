package tiles

import (
	"testing"

	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

func TestDefInterfaceSatisfiedByEmbedding(t *testing.T) {
	var d Def = Literal{
		Header:    Header{TileID: "lit.5", Placement: PlaceAnywhere, Persist: true},
		ValueType: types.Number,
		Value:     5.0,
	}
	if d.ID() != "lit.5" {
		t.Fatalf("ID() = %q, want lit.5", d.ID())
	}
	if d.Kind() != KindLiteral {
		t.Fatalf("Kind() = %v, want KindLiteral", d.Kind())
	}
	if !d.Base().Persist {
		t.Fatal("expected Persist to round-trip through Base()")
	}
}

func TestCapabilitiesSubset(t *testing.T) {
	const targetActor Capabilities = 1 << 0
	const visionGranted Capabilities = targetActor

	grants := visionGranted
	var it Capabilities = targetActor

	if !grants.Has(it) {
		t.Fatal("expected grants to satisfy the 'it' tile's requirement")
	}

	var empty Capabilities
	if empty.Has(it) {
		t.Fatal("empty capability set must not satisfy any non-zero requirement")
	}
}

func TestPlacementAllowsSide(t *testing.T) {
	p := PlaceWhen | PlaceStatement
	if !p.AllowsSide(SideWhen) {
		t.Fatal("expected PlaceWhen to allow the When side")
	}
	if p.AllowsSide(SideDo) {
		t.Fatal("expected a When-only placement to disallow the Do side")
	}
}
