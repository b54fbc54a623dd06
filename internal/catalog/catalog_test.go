package catalog

import (
	"testing"

	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
)

func lit(id string) tiles.Def {
	return tiles.Literal{Header: tiles.Header{TileID: id, Persist: true}}
}

func TestAddIfAbsentFirstWriteWins(t *testing.T) {
	c := New()
	first := lit("lit.1")
	if !c.AddIfAbsent(first) {
		t.Fatal("expected first insert to succeed")
	}
	second := tiles.Literal{Header: tiles.Header{TileID: "lit.1"}, ValueLabel: "replacement"}
	if c.AddIfAbsent(second) {
		t.Fatal("expected second insert of the same tileId to report it was already present")
	}
	got, ok := c.Get("lit.1")
	if !ok {
		t.Fatal("expected lit.1 to be present")
	}
	if l, ok := got.(tiles.Literal); !ok || l.ValueLabel != "" {
		t.Fatalf("expected the first-written definition to survive, got %+v", got)
	}
}

func TestCaseInsensitiveTileID(t *testing.T) {
	c := New()
	c.Add(lit("Lit.Foo"))
	if !c.Has("lit.foo") {
		t.Fatal("expected case-insensitive Has to find Lit.Foo")
	}
}

func TestTwoCatalogLookupOrder(t *testing.T) {
	global := New()
	global.Add(lit("shared.id"))
	local := New()
	local.Add(tiles.Literal{Header: tiles.Header{TileID: "shared.id"}, ValueLabel: "local wins"})

	l := Lookup{Local: local, Global: global}
	got, ok := l.Get("shared.id")
	if !ok {
		t.Fatal("expected shared.id to resolve")
	}
	if lv, ok := got.(tiles.Literal); !ok || lv.ValueLabel != "local wins" {
		t.Fatalf("expected local catalog to be checked first, got %+v", got)
	}
}

func TestResolveOrPlaceholder(t *testing.T) {
	if _, err := ResolveOrPlaceholder("gone", tiles.KindVariable, "X", ResolveAbort); err == nil {
		t.Fatal("expected ResolveAbort to fail with MissingTileError")
	}
	d, err := ResolveOrPlaceholder("gone", tiles.KindVariable, "X", ResolvePlaceholder)
	if err != nil {
		t.Fatalf("ResolvePlaceholder: %v", err)
	}
	if d.Kind() != tiles.KindMissing {
		t.Fatalf("expected a Missing placeholder, got kind %v", d.Kind())
	}
}
