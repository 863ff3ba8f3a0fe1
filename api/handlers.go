/*
handlers.go - HTTP API handlers for the zine ledger

PURPOSE:
  Exposes the batch ledger and aggregation engine via REST API. Handles
  HTTP request/response and JSON serialization, and delegates everything
  else to ledger.Ledger.

ENDPOINTS:
  Zines:
    GET    /api/zines?q=               List the caller's zines
    POST   /api/zines                  Create zine
    GET    /api/zines/{id}             Get zine
    PUT    /api/zines/{id}             Edit zine
    GET    /api/zines/{id}/stats       Aggregates for one zine
    GET    /api/zines/{id}/batches     Batches for one zine, newest first
    POST   /api/zines/{id}/batches     Record a drop-off

  Batches:
    GET    /api/batches                Every batch the caller owns
    PUT    /api/batches/{id}           Partial update
    DELETE /api/batches/{id}           Hard delete
    GET    /api/checkins?as_of=        Active batches due a store visit

  Totals:
    GET    /api/stats                  Aggregates across all the caller's zines
    GET    /api/dashboard?q=           Totals plus one card per zine

  Stores:
    GET    /api/stores/{id}            Display attributes

CALLER IDENTITY:
  Taken from the X-User-ID header, which an upstream auth layer sets.
  RequireCaller rejects requests without it (401). Handlers pass the
  caller to every ledger call explicitly.

ERROR HANDLING:
  writeLedgerError maps ledger errors to status codes:
  - 400: ValidationError (fields listed), malformed body
  - 403: AuthorizationError
  - 404: NotFoundError
  - 503: TransportError (storage unreachable; safe to retry)
  - 500: anything else

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/zine-ledger/factory"
	"github.com/warp/zine-ledger/ledger"
	"github.com/warp/zine-ledger/logger"
)

// CallerHeader carries the authenticated user id.
const CallerHeader = "X-User-ID"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// DataStore is the backing store as seen by the demo endpoints: seeding
// the store directory and wiping everything.
type DataStore interface {
	factory.StoreSeeder
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger   *ledger.Ledger
	Data     DataStore
	Fixtures *factory.FixtureFactory

	mu              sync.Mutex
	currentScenario string
}

func NewHandler(l *ledger.Ledger, data DataStore) *Handler {
	return &Handler{
		Ledger:   l,
		Data:     data,
		Fixtures: factory.NewFixtureFactory(),
	}
}

// =============================================================================
// CALLER
// =============================================================================

type callerKey struct{}

// RequireCaller rejects requests without a caller id and stores it in the
// request context.
func RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := strings.TrimSpace(r.Header.Get(CallerHeader))
		if caller == "" {
			writeError(w, http.StatusUnauthorized, "Missing "+CallerHeader+" header", nil)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, ledger.UserID(caller))
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("caller", caller)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFrom(r *http.Request) ledger.UserID {
	caller, _ := r.Context().Value(callerKey{}).(ledger.UserID)
	return caller
}

// =============================================================================
// ZINE HANDLERS
// =============================================================================

// ListZines returns the caller's zines matching ?q=.
// GET /api/zines
func (h *Handler) ListZines(w http.ResponseWriter, r *http.Request) {
	zines, err := h.Ledger.ListZines(r.Context(), callerFrom(r), r.URL.Query().Get("q"))
	if err != nil {
		writeLedgerError(w, r, "Failed to list zines", err)
		return
	}
	writeJSON(w, http.StatusOK, ToZineDTOs(zines))
}

// CreateZine adds a zine to the caller's catalog.
// POST /api/zines
func (h *Handler) CreateZine(w http.ResponseWriter, r *http.Request) {
	var req CreateZineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	price, err := parseOptionalPrice(req.SuggestedRetailPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid suggested_retail_price", err)
		return
	}

	z, err := h.Ledger.CreateZine(r.Context(), callerFrom(r), ledger.ZineFields{
		Title:                req.Title,
		Description:          req.Description,
		SuggestedRetailPrice: price,
	})
	if err != nil {
		writeLedgerError(w, r, "Failed to create zine", err)
		return
	}
	writeJSON(w, http.StatusCreated, ToZineDTO(z))
}

// GetZine returns one zine. Zines are readable by any caller.
// GET /api/zines/{id}
func (h *Handler) GetZine(w http.ResponseWriter, r *http.Request) {
	z, err := h.Ledger.GetZine(r.Context(), ledger.ZineID(chi.URLParam(r, "id")))
	if err != nil {
		writeLedgerError(w, r, "Failed to get zine", err)
		return
	}
	writeJSON(w, http.StatusOK, ToZineDTO(z))
}

// UpdateZine edits title, description or suggested price.
// PUT /api/zines/{id}
func (h *Handler) UpdateZine(w http.ResponseWriter, r *http.Request) {
	var req UpdateZineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := ledger.ZinePatch{
		Title:               req.Title,
		Description:         req.Description,
		ClearSuggestedPrice: req.ClearSuggestedPrice,
	}
	if req.SuggestedRetailPrice != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*req.SuggestedRetailPrice))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid suggested_retail_price", err)
			return
		}
		patch.SuggestedRetailPrice = &price
	}

	z, err := h.Ledger.UpdateZine(r.Context(), callerFrom(r), ledger.ZineID(chi.URLParam(r, "id")), patch)
	if err != nil {
		writeLedgerError(w, r, "Failed to update zine", err)
		return
	}
	writeJSON(w, http.StatusOK, ToZineDTO(z))
}

// GetZineStats returns the aggregate view of one zine.
// GET /api/zines/{id}/stats
func (h *Handler) GetZineStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Ledger.ZineStats(r.Context(), ledger.ZineID(chi.URLParam(r, "id")))
	if err != nil {
		writeLedgerError(w, r, "Failed to compute zine stats", err)
		return
	}
	writeJSON(w, http.StatusOK, ToZineStatsDTO(stats))
}

// =============================================================================
// BATCH HANDLERS
// =============================================================================

// ListZineBatches returns one zine's batches, newest drop-off first.
// GET /api/zines/{id}/batches
func (h *Handler) ListZineBatches(w http.ResponseWriter, r *http.Request) {
	zineID := ledger.ZineID(chi.URLParam(r, "id"))
	if _, err := h.Ledger.GetZine(r.Context(), zineID); err != nil {
		writeLedgerError(w, r, "Failed to list batches", err)
		return
	}
	batches, err := h.Ledger.ListBatchesByZine(r.Context(), zineID)
	if err != nil {
		writeLedgerError(w, r, "Failed to list batches", err)
		return
	}
	writeJSON(w, http.StatusOK, ToBatchDTOs(batches))
}

// CreateBatch records a drop-off of the zine at a store.
// POST /api/zines/{id}/batches
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	storeID, fields, err := h.Fixtures.BatchFieldsFrom(req.BatchJSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid batch", err)
		return
	}

	b, err := h.Ledger.CreateBatch(r.Context(), callerFrom(r), ledger.ZineID(chi.URLParam(r, "id")), storeID, fields)
	if err != nil {
		writeLedgerError(w, r, "Failed to create batch", err)
		return
	}
	writeJSON(w, http.StatusCreated, ToBatchDTO(b))
}

// ListBatches returns every batch the caller owns.
// GET /api/batches
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Ledger.ListBatchesByOwner(r.Context(), callerFrom(r))
	if err != nil {
		writeLedgerError(w, r, "Failed to list batches", err)
		return
	}
	writeJSON(w, http.StatusOK, ToBatchDTOs(batches))
}

// UpdateBatch applies a partial update.
// PUT /api/batches/{id}
func (h *Handler) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	var req UpdateBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch, err := h.toBatchPatch(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid batch", err)
		return
	}

	b, err := h.Ledger.UpdateBatch(r.Context(), callerFrom(r), ledger.BatchID(chi.URLParam(r, "id")), patch)
	if err != nil {
		writeLedgerError(w, r, "Failed to update batch", err)
		return
	}
	writeJSON(w, http.StatusOK, ToBatchDTO(b))
}

// DeleteBatch removes a batch for good.
// DELETE /api/batches/{id}
func (h *Handler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	id := ledger.BatchID(chi.URLParam(r, "id"))
	if err := h.Ledger.DeleteBatch(r.Context(), callerFrom(r), id); err != nil {
		writeLedgerError(w, r, "Failed to delete batch", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": string(id)})
}

func (h *Handler) toBatchPatch(req UpdateBatchRequest) (ledger.BatchPatch, error) {
	patch := ledger.BatchPatch{
		CopiesPlaced:     req.CopiesPlaced,
		SplitPercent:     req.SplitPercent,
		Paid:             req.Paid,
		CopiesSold:       req.CopiesSold,
		Notes:            req.Notes,
		ClearCopiesSold:  req.ClearCopiesSold,
		ClearNextCheckin: req.ClearNextCheckin,
		ClearLastUpdate:  req.ClearLastUpdate,
	}
	if req.ZineID != nil {
		id := ledger.ZineID(*req.ZineID)
		patch.ZineID = &id
	}
	if req.StoreID != nil {
		id := ledger.StoreID(*req.StoreID)
		patch.StoreID = &id
	}
	if req.PaymentMode != nil {
		mode := ledger.PaymentMode(*req.PaymentMode)
		patch.PaymentMode = &mode
	}
	if req.Status != nil {
		status := ledger.Status(*req.Status)
		patch.Status = &status
	}
	if req.PricePerCopy != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*req.PricePerCopy))
		if err != nil {
			return patch, fmt.Errorf("price_per_copy: invalid price %q", *req.PricePerCopy)
		}
		patch.PricePerCopy = &price
	}

	var err error
	if patch.DatePlaced, err = h.parseDate(req.DatePlaced); err != nil {
		return patch, fmt.Errorf("date_placed: %w", err)
	}
	if patch.NextCheckin, err = h.parseDate(req.NextCheckin); err != nil {
		return patch, fmt.Errorf("next_checkin: %w", err)
	}
	if patch.LastUpdate, err = h.parseDate(req.LastUpdate); err != nil {
		return patch, fmt.Errorf("last_update: %w", err)
	}
	return patch, nil
}

func (h *Handler) parseDate(s *string) (*ledger.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := h.Fixtures.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDueCheckins returns the caller's active batches whose next check-in
// is on or before ?as_of= (default today; relative forms like today+7 work).
// GET /api/checkins
func (h *Handler) ListDueCheckins(w http.ResponseWriter, r *http.Request) {
	asOf := ledger.Today()
	if h.Fixtures.Today != nil {
		asOf = h.Fixtures.Today()
	}
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		d, err := h.Fixtures.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of", err)
			return
		}
		asOf = d
	}

	due, err := h.Ledger.DueCheckins(r.Context(), callerFrom(r), asOf)
	if err != nil {
		writeLedgerError(w, r, "Failed to list check-ins", err)
		return
	}
	writeJSON(w, http.StatusOK, ToBatchDTOs(due))
}

// =============================================================================
// TOTALS
// =============================================================================

// GetUserStats returns the caller's totals.
// GET /api/stats
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Ledger.UserStats(r.Context(), callerFrom(r))
	if err != nil {
		writeLedgerError(w, r, "Failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, ToUserStatsDTO(stats))
}

// GetDashboard returns totals plus a card per zine matching ?q=.
// GET /api/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Ledger.Dashboard(r.Context(), callerFrom(r), r.URL.Query().Get("q"))
	if err != nil {
		writeLedgerError(w, r, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, ToDashboardDTO(d))
}

// GetStore returns a store's display attributes.
// GET /api/stores/{id}
func (h *Handler) GetStore(w http.ResponseWriter, r *http.Request) {
	s, err := h.Ledger.GetStore(r.Context(), ledger.StoreID(chi.URLParam(r, "id")))
	if err != nil {
		writeLedgerError(w, r, "Failed to get store", err)
		return
	}
	writeJSON(w, http.StatusOK, ToStoreDTO(s))
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func parseOptionalPrice(s *string) (decimal.NullDecimal, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return ledger.PriceFromDecimal(d), nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeLedgerError maps a ledger error to its status code. Server-side
// failures are logged; client errors are not.
func writeLedgerError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Details: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, ledger.ErrUnauthorized):
		writeError(w, http.StatusForbidden, message, err)
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrTransport):
		logger.ErrorCtx(r.Context(), err, zap.String("path", r.URL.Path))
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		logger.ErrorCtx(r.Context(), err, zap.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
