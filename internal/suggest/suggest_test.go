package suggest

import (
	"testing"

	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/overloads"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

func TestSuggestExactMatchesByType(t *testing.T) {
	c := catalog.New()
	c.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.5", Placement: tiles.PlaceAnywhere}, ValueType: types.Number})
	c.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.hi", Placement: tiles.PlaceAnywhere}, ValueType: types.String})

	expected := types.Number
	res := Suggest(Request{
		RuleSide:     tiles.SideWhen,
		ExpectedType: &expected,
		Catalogs:     []*catalog.Catalog{c},
	})
	if len(res.Exact) != 1 || res.Exact[0].TileID != "lit.5" {
		t.Fatalf("expected exactly lit.5, got %+v", res.Exact)
	}
	if len(res.WithConversion) != 0 {
		t.Fatalf("expected no conversions, got %+v", res.WithConversion)
	}
}

func TestSuggestWithConversionSortedByCost(t *testing.T) {
	c := catalog.New()
	actorType := types.TypeID{Native: types.NativeStruct, Name: "ActorRef"}
	c.Add(tiles.Variable{Header: tiles.Header{TileID: "v.actor", Placement: tiles.PlaceAnywhere}, VarType: actorType})
	c.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.str", Placement: tiles.PlaceAnywhere}, ValueType: types.String})

	convs := overloads.NewConversions()
	convs.Register(overloads.Conversion{From: actorType, To: types.Number, Cost: 2})
	convs.Register(overloads.Conversion{From: types.String, To: types.Number, Cost: 5})

	expected := types.Number
	res := Suggest(Request{
		RuleSide:     tiles.SideWhen,
		ExpectedType: &expected,
		Catalogs:     []*catalog.Catalog{c},
		Conversions:  convs,
	})
	if len(res.Exact) != 0 {
		t.Fatalf("expected no exact matches, got %+v", res.Exact)
	}
	if len(res.WithConversion) != 2 {
		t.Fatalf("expected two conversions, got %+v", res.WithConversion)
	}
	if res.WithConversion[0].TileID != "v.actor" || res.WithConversion[1].TileID != "lit.str" {
		t.Fatalf("expected cheapest conversion first, got %+v", res.WithConversion)
	}
}

func TestSuggestExcludesCapabilityGatedTile(t *testing.T) {
	c := catalog.New()
	const needsTargetActor tiles.Capabilities = 1 << 3
	c.Add(tiles.Variable{Header: tiles.Header{TileID: "v.it", Placement: tiles.PlaceAnywhere, Requirements: needsTargetActor}, VarType: types.Number})

	res := Suggest(Request{
		RuleSide: tiles.SideWhen,
		Catalogs: []*catalog.Catalog{c},
		// AvailableCapabilities left zero: nothing granted here.
	})
	for _, e := range res.Exact {
		if e.TileID == "v.it" {
			t.Fatalf("expected v.it to be filtered out by a missing capability, got %+v", res.Exact)
		}
	}
}

func TestSuggestExcludesFactoryAndMissingTiles(t *testing.T) {
	c := catalog.New()
	c.Add(tiles.LiteralFactory{Header: tiles.Header{TileID: "fac.lit", Placement: tiles.PlaceAnywhere}})
	c.Add(tiles.VariableFactory{Header: tiles.Header{TileID: "fac.var", Placement: tiles.PlaceAnywhere}})
	c.Add(tiles.Missing{Header: tiles.Header{TileID: "missing.x", Placement: tiles.PlaceAnywhere}})

	res := Suggest(Request{RuleSide: tiles.SideWhen, Catalogs: []*catalog.Catalog{c}})
	if len(res.Exact) != 0 || len(res.WithConversion) != 0 {
		t.Fatalf("expected no suggestions from factory/missing tiles, got exact=%+v withConversion=%+v", res.Exact, res.WithConversion)
	}
}

func TestSuggestActuatorsOnlyOnDoSideAsStatement(t *testing.T) {
	c := catalog.New()
	c.Add(tiles.Actuator{Header: tiles.Header{TileID: "do.say", Placement: tiles.PlaceDo | tiles.PlaceStatement}})

	whenRes := Suggest(Request{RuleSide: tiles.SideWhen, IsStatementPosition: true, Catalogs: []*catalog.Catalog{c}})
	if len(whenRes.Exact) != 0 {
		t.Fatalf("expected do.say to be excluded on the WHEN side, got %+v", whenRes.Exact)
	}

	doRes := Suggest(Request{RuleSide: tiles.SideDo, IsStatementPosition: true, Catalogs: []*catalog.Catalog{c}})
	if len(doRes.Exact) != 1 || doRes.Exact[0].TileID != "do.say" {
		t.Fatalf("expected do.say on the DO side as a statement, got %+v", doRes.Exact)
	}

	inlineRes := Suggest(Request{RuleSide: tiles.SideDo, IsStatementPosition: false, Catalogs: []*catalog.Catalog{c}})
	if len(inlineRes.Exact) != 0 {
		t.Fatalf("expected do.say to be excluded mid-expression, got %+v", inlineRes.Exact)
	}
}
