package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/zine-ledger/ledger"
	"github.com/warp/zine-ledger/ledger/store"
)

func TestLoadScenario_AsCaller(t *testing.T) {
	// GIVEN: Alice has a zine of her own
	// WHEN: She loads busy-season
	// THEN: Her old data is gone and the fixture belongs to her

	s := newTestServer(t)
	s.createZine("alice", "Scrapped", "")

	rec := s.do(http.MethodPost, "/api/scenarios/load", "alice", LoadScenarioRequest{ScenarioID: "busy-season"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[map[string]any](t, rec)
	assert.Equal(t, "loaded", resp["status"])
	assert.Equal(t, "alice", resp["owner"])
	assert.EqualValues(t, 4, resp["stores"])
	assert.EqualValues(t, 3, resp["zines"])
	assert.EqualValues(t, 8, resp["batches"])

	dash := decode[DashboardDTO](t, s.do(http.MethodGet, "/api/dashboard", "alice", nil))
	assert.Equal(t, 3, dash.Stats.TotalZines)
	assert.Len(t, dash.Zines, 3)
	byStock := map[string]int{}
	for _, card := range dash.Zines {
		byStock[card.Stats.StockStatus]++
	}
	assert.Equal(t, map[string]int{"active": 1, "low-stock": 1, "inactive": 1}, byStock)

	list := decode[[]ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios", "", nil))
	require.Len(t, list, 3)
	for _, sc := range list {
		assert.Equal(t, sc.ID == "busy-season", sc.Current, sc.ID)
	}
}

func TestLoadScenario_Unknown(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/scenarios/load", "alice", LoadScenarioRequest{ScenarioID: "nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetDatabase(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/scenarios/load", "alice", LoadScenarioRequest{ScenarioID: "first-drop"}).Code)

	rec := s.do(http.MethodPost, "/api/scenarios/reset", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decode[UserStatsDTO](t, s.do(http.MethodGet, "/api/stats", "alice", nil))
	assert.Equal(t, 0, stats.TotalZines)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/stores/store-quimbys", "alice", nil).Code)

	for _, sc := range decode[[]ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios", "", nil)) {
		assert.False(t, sc.Current)
	}
}

func TestScenarioRoutes_DemoDisabled(t *testing.T) {
	// GIVEN: A router built without demo mode and a batch owned by alice
	// WHEN: Bob calls the scenario endpoints
	// THEN: Every scenario route is 404 and alice's data survives

	mem := store.NewMemory()
	h := NewHandler(ledger.New(mem, mem, mem), mem)
	s := &testServer{t: t, router: NewRouter(h, RouterOptions{}), mem: mem}
	require.NoError(t, mem.SaveStore(context.Background(), ledger.Store{ID: "store-1", Name: "Quimby's"}))

	z := s.createZine("alice", "Riso Dreams", "8.00")
	b := s.createBatch("alice", z.ID, consignmentBody())

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/batches/"+b.ID, "bob", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/scenarios/reset", "bob", nil).Code)
	assert.Equal(t, http.StatusNotFound,
		s.do(http.MethodPost, "/api/scenarios/load", "bob", LoadScenarioRequest{ScenarioID: "first-drop"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/scenarios", "", nil).Code)

	list := decode[[]BatchDTO](t, s.do(http.MethodGet, "/api/batches", "alice", nil))
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/zines/"+z.ID, "alice", nil).Code)
}
