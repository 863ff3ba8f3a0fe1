/*
scenarios.go - Demo scenario handlers

PURPOSE:
  Loads built-in fixture documents (factory/scenarios/*.json) so the
  dashboard has realistic data to show. Loading goes through the ledger's
  own write path, so demo data obeys the same rules as real traffic.

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed the store directory from the fixture
 3. Create zines and batches as the caller

USAGE VIA API:

	POST /api/scenarios/load
	X-User-ID: alice
	{"scenario_id": "busy-season"}

NOTE:

	Scenarios reset the database for every user. Only use in
	development/demo environments.
*/
package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/zine-ledger/logger"
)

// ListScenarios returns the built-in fixtures and which one is loaded.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	infos, err := h.Fixtures.Scenarios()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scenarios", err)
		return
	}

	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	dtos := make([]ScenarioDTO, len(infos))
	for i, info := range infos {
		dtos[i] = ScenarioDTO{ScenarioInfo: info, Current: info.ID == current}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario wipes all data and loads a fixture as the caller.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	fx, err := h.Fixtures.Scenario(req.ScenarioID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	}

	ctx := r.Context()

	h.mu.Lock()
	defer h.mu.Unlock()

	// Reset first
	if err := h.Data.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	result, err := h.Fixtures.Load(ctx, h.Ledger, h.Data, fx, callerFrom(r))
	if err != nil {
		writeLedgerError(w, r, "Failed to load scenario", err)
		return
	}
	h.currentScenario = fx.ID

	logger.InfoCtx(ctx, "scenario loaded", zap.String("scenario", fx.ID))
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": fx.ID,
		"owner":    result.Owner,
		"stores":   result.Stores,
		"zines":    len(result.Zines),
		"batches":  result.Batches,
	})
}

// ResetDatabase wipes all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Data.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
