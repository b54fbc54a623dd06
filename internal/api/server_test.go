package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	brainmodel "github.com/humanapp/mindcraft-lang-sub002/internal/brain"
	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/overloads"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

// TestMain verifies the events handler's background read-loop goroutine
// (internal/api/events.go) never outlives the connections that spawn it.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestConfig(t *testing.T) Config {
	t.Helper()
	global := catalog.New()
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.5", Placement: tiles.PlaceAnywhere}, ValueType: types.Number})
	global.Add(tiles.Literal{Header: tiles.Header{TileID: "lit.hi", Placement: tiles.PlaceAnywhere}, ValueType: types.String})

	b, err := brainmodel.NewBrainDef("test brain")
	require.NoError(t, err)
	_, err = b.AddPage("page one")
	require.NoError(t, err)

	return Config{
		Addr:        ":0",
		Brain:       b,
		Global:      global,
		Conversions: overloads.NewConversions(),
	}
}

func TestSuggestHandlerReturnsExactMatches(t *testing.T) {
	cfg := newTestConfig(t)
	srv := httptest.NewServer(NewRouter(cfg))
	defer srv.Close()

	body := strings.NewReader(`{"ruleSide":"when","expectedType":{"native":2,"name":"Number"}}`)
	resp, err := http.Post(srv.URL+"/suggest", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Exact []struct {
			TileID string `json:"tileId"`
		} `json:"exact"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Exact, 1)
	assert.Equal(t, "lit.5", out.Exact[0].TileID)
}

func TestSuggestHandlerRejectsBadBody(t *testing.T) {
	cfg := newTestConfig(t)
	srv := httptest.NewServer(NewRouter(cfg))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/suggest", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBrainDumpHandlerReturnsPages(t *testing.T) {
	cfg := newTestConfig(t)
	srv := httptest.NewServer(NewRouter(cfg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/brain")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Name  string `json:"name"`
		Pages []struct {
			Name string `json:"name"`
		} `json:"pages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "test brain", out.Name)
	require.Len(t, out.Pages, 1)
	assert.Equal(t, "page one", out.Pages[0].Name)
}

func TestBrainDumpHandlerWithoutBrainReturns404(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Brain = nil
	srv := httptest.NewServer(NewRouter(cfg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/brain")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventsHandlerWithoutRuntimeReturns404(t *testing.T) {
	cfg := newTestConfig(t)
	srv := httptest.NewServer(NewRouter(cfg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
