package api

import (
	"encoding/json"
	"net/http"

	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/suggest"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

// suggestRequestBody is the wire shape POSTed to /suggest, mirroring
// suggest.Request field-for-field but with a JSON-friendly ExpectedType.
type suggestRequestBody struct {
	RuleSide     string `json:"ruleSide"`
	ExpectedType *struct {
		Native uint8  `json:"native"`
		Name   string `json:"name"`
	} `json:"expectedType"`
	AvailableCapabilities uint64 `json:"availableCapabilities"`
	IsStatementPosition   bool   `json:"isStatementPosition"`
	InsideParens          bool   `json:"insideParens"`
}

func suggestCatalogs(cfg Config) []*catalog.Catalog {
	cats := make([]*catalog.Catalog, 0, 2)
	if cfg.Brain != nil && cfg.Brain.Catalog != nil {
		cats = append(cats, cfg.Brain.Catalog)
	}
	if cfg.Global != nil {
		cats = append(cats, cfg.Global)
	}
	return cats
}

func suggestHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body suggestRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		side := tiles.SideWhen
		if body.RuleSide == "do" {
			side = tiles.SideDo
		}

		req := suggest.Request{
			RuleSide:              side,
			AvailableCapabilities: tiles.Capabilities(body.AvailableCapabilities),
			IsStatementPosition:   body.IsStatementPosition,
			InsideParens:          body.InsideParens,
			Conversions:           cfg.Conversions,
			Catalogs:              suggestCatalogs(cfg),
		}
		if body.ExpectedType != nil {
			t := types.TypeID{Native: types.NativeTag(body.ExpectedType.Native), Name: body.ExpectedType.Name}
			req.ExpectedType = &t
		}

		writeSuggestResult(w, suggest.Suggest(req))
	}
}

func writeSuggestResult(w http.ResponseWriter, res suggest.Result) {
	type entryJSON struct {
		TileID         string `json:"tileId"`
		ConversionCost int    `json:"conversionCost"`
	}
	out := struct {
		Exact          []entryJSON `json:"exact"`
		WithConversion []entryJSON `json:"withConversion"`
	}{}
	for _, e := range res.Exact {
		out.Exact = append(out.Exact, entryJSON{TileID: e.TileID})
	}
	for _, e := range res.WithConversion {
		out.WithConversion = append(out.WithConversion, entryJSON{TileID: e.TileID, ConversionCost: e.ConversionCost})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func brainDumpHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Brain == nil {
			writeJSONError(w, http.StatusNotFound, "no brain attached to this server")
			return
		}
		type pageJSON struct {
			Name      string `json:"name"`
			PageID    string `json:"pageId"`
			RuleCount int    `json:"ruleCount"`
		}
		out := struct {
			Name  string     `json:"name"`
			Pages []pageJSON `json:"pages"`
		}{Name: cfg.Brain.Name()}
		for _, p := range cfg.Brain.Pages {
			out.Pages = append(out.Pages, pageJSON{Name: p.Name(), PageID: p.PageID, RuleCount: len(p.Rules)})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
