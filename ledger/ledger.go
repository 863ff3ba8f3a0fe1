/*
ledger.go - Batch ledger operations

PURPOSE:
  The Ledger is the only way batches and zines are written. It resolves
  references, checks ownership, validates and normalizes, then performs a
  single store call. Reads load the relevant batch set and run the
  aggregation engine over it.

CALLER IDENTITY:
  Every write takes the acting user explicitly. There is no ambient
  "current user"; the HTTP layer extracts it per request and passes it in.

CHECK ORDER ON CREATE:
  1. zine resolves                 else ValidationError(zine_id)
  2. caller owns the zine          else AuthorizationError
  3. store resolves + field rules  else ValidationError (all fields at once)
  4. upfront normalization, insert

CONCURRENCY:
  No coordination between concurrent writers of the same batch; the store
  applies last write wins. The Ledger itself holds no mutable state.

SEE ALSO:
  - batch.go: ValidateBatch, NormalizeBatch, BatchPatch.Apply
  - aggregate.go: Summarize and friends
  - store.go: BatchStore, ZineStore, StoreDirectory
*/
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/zine-ledger/logger"
)

type Ledger struct {
	Batches BatchStore
	Zines   ZineStore
	Stores  StoreDirectory

	Transitions TransitionPolicy
	Thresholds  StockThresholds

	// NewID and Now are replaceable for deterministic tests.
	NewID func() string
	Now   func() time.Time
}

// New creates a ledger with unconstrained status transitions and the
// default low-stock threshold.
func New(batches BatchStore, zines ZineStore, stores StoreDirectory) *Ledger {
	return &Ledger{
		Batches:     batches,
		Zines:       zines,
		Stores:      stores,
		Transitions: UnconstrainedTransitions{},
		Thresholds:  DefaultStockThresholds(),
		NewID:       uuid.NewString,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// =============================================================================
// BATCH WRITES
// =============================================================================

func (l *Ledger) CreateBatch(ctx context.Context, owner UserID, zineID ZineID, storeID StoreID, fields BatchFields) (_ Batch, err error) {
	defer func() { recordWrite("create_batch", err) }()

	verr := &ValidationError{}

	zine, err := l.Zines.GetZine(ctx, zineID)
	if err != nil {
		return Batch{}, transport("get zine", err)
	}
	if zine == nil {
		verr.add("zine_id", "exists", "zine does not exist")
		return Batch{}, verr
	}
	if zine.Owner != owner {
		return Batch{}, &AuthorizationError{Caller: owner, Kind: "zine", ID: string(zineID)}
	}

	store, err := l.Stores.GetStore(ctx, storeID)
	if err != nil {
		return Batch{}, transport("get store", err)
	}
	if store == nil {
		verr.add("store_id", "exists", "store does not exist")
	}

	if !fields.PricePerCopy.Valid && zine.SuggestedRetailPrice.Valid {
		fields.PricePerCopy = zine.SuggestedRetailPrice
	}

	b := fields.build(BatchID(l.NewID()), owner, zineID, storeID, l.Now())
	NormalizeBatch(&b)
	if fieldErr := ValidateBatch(b); fieldErr != nil {
		verr.Fields = append(verr.Fields, fieldErr.Fields...)
	}
	if err := verr.orNil(); err != nil {
		return Batch{}, err
	}

	if err := l.Batches.InsertBatch(ctx, b); err != nil {
		return Batch{}, transport("insert batch", err)
	}
	logger.DebugCtx(ctx, "batch created",
		zap.String("batch_id", string(b.ID)),
		zap.String("zine_id", string(b.ZineID)),
		zap.String("store_id", string(b.StoreID)),
		zap.String("payment_mode", string(b.PaymentMode)))
	return b, nil
}

func (l *Ledger) UpdateBatch(ctx context.Context, owner UserID, id BatchID, patch BatchPatch) (_ Batch, err error) {
	defer func() { recordWrite("update_batch", err) }()

	existing, err := l.ownedBatch(ctx, owner, id)
	if err != nil {
		return Batch{}, err
	}

	updated, verr := patch.Apply(*existing)
	if verr == nil {
		verr = &ValidationError{}
	}
	if patch.Status != nil && patch.Status.Valid() && *patch.Status != existing.Status {
		if err := l.Transitions.Allow(existing.Status, *patch.Status); err != nil {
			verr.add("status", "transition", err.Error())
		}
	}

	NormalizeBatch(&updated)
	if fieldErr := ValidateBatch(updated); fieldErr != nil {
		verr.Fields = append(verr.Fields, fieldErr.Fields...)
	}
	if err := verr.orNil(); err != nil {
		return Batch{}, err
	}

	if err := l.Batches.UpdateBatch(ctx, updated); err != nil {
		return Batch{}, transport("update batch", err)
	}
	logger.DebugCtx(ctx, "batch updated",
		zap.String("batch_id", string(updated.ID)),
		zap.String("status", string(updated.Status)))
	return updated, nil
}

// DeleteBatch removes the record for good.
func (l *Ledger) DeleteBatch(ctx context.Context, owner UserID, id BatchID) (err error) {
	defer func() { recordWrite("delete_batch", err) }()

	if _, err := l.ownedBatch(ctx, owner, id); err != nil {
		return err
	}
	if err := l.Batches.DeleteBatch(ctx, id); err != nil {
		return transport("delete batch", err)
	}
	logger.DebugCtx(ctx, "batch deleted", zap.String("batch_id", string(id)))
	return nil
}

func (l *Ledger) ownedBatch(ctx context.Context, owner UserID, id BatchID) (*Batch, error) {
	b, err := l.Batches.GetBatch(ctx, id)
	if err != nil {
		return nil, transport("get batch", err)
	}
	if b == nil {
		return nil, &NotFoundError{Kind: "batch", ID: string(id)}
	}
	if b.Owner != owner {
		return nil, &AuthorizationError{Caller: owner, Kind: "batch", ID: string(id)}
	}
	return b, nil
}

// =============================================================================
// BATCH READS
// =============================================================================

func (l *Ledger) ListBatchesByZine(ctx context.Context, zineID ZineID) ([]Batch, error) {
	batches, err := l.Batches.ListBatchesByZine(ctx, zineID)
	if err != nil {
		return nil, transport("list batches", err)
	}
	return batches, nil
}

func (l *Ledger) ListBatchesByOwner(ctx context.Context, owner UserID) ([]Batch, error) {
	batches, err := l.Batches.ListBatchesByOwner(ctx, owner)
	if err != nil {
		return nil, transport("list batches", err)
	}
	return batches, nil
}

// =============================================================================
// STATS
// =============================================================================

func (l *Ledger) ZineStats(ctx context.Context, zineID ZineID) (ZineStats, error) {
	zine, err := l.GetZine(ctx, zineID)
	if err != nil {
		return ZineStats{}, err
	}
	batches, err := l.ListBatchesByZine(ctx, zineID)
	if err != nil {
		return ZineStats{}, err
	}
	recordAggregation("zine", len(batches))
	return BuildZineStats(zine, batches, l.Thresholds), nil
}

func (l *Ledger) UserStats(ctx context.Context, owner UserID) (UserStats, error) {
	zines, err := l.Zines.ListZinesByOwner(ctx, owner)
	if err != nil {
		return UserStats{}, transport("list zines", err)
	}
	batches, err := l.ListBatchesByOwner(ctx, owner)
	if err != nil {
		return UserStats{}, err
	}
	recordAggregation("user", len(batches))
	return BuildUserStats(owner, zines, batches), nil
}

// Dashboard returns the user's totals and one card per zine matching query.
// Totals always cover every zine, whatever the query.
func (l *Ledger) Dashboard(ctx context.Context, owner UserID, query string) (Dashboard, error) {
	zines, err := l.Zines.ListZinesByOwner(ctx, owner)
	if err != nil {
		return Dashboard{}, transport("list zines", err)
	}
	batches, err := l.ListBatchesByOwner(ctx, owner)
	if err != nil {
		return Dashboard{}, err
	}

	byZine := groupByZine(batches)
	cards := make([]ZineCard, 0, len(zines))
	for _, z := range zines {
		if !z.Matches(query) {
			continue
		}
		zb := byZine[z.ID]
		cards = append(cards, ZineCard{
			Zine:   z,
			Stats:  BuildZineStats(z, zb, l.Thresholds),
			Active: ActiveBatches(zb),
			Past:   ArchivedBatches(zb),
		})
	}
	recordAggregation("dashboard", len(batches))
	return Dashboard{Stats: BuildUserStats(owner, zines, batches), Zines: cards}, nil
}

// =============================================================================
// ZINE CATALOG
// =============================================================================

func (l *Ledger) CreateZine(ctx context.Context, owner UserID, fields ZineFields) (_ Zine, err error) {
	defer func() { recordWrite("create_zine", err) }()

	z := Zine{
		ID:                   ZineID(l.NewID()),
		Owner:                owner,
		Title:                strings.TrimSpace(fields.Title),
		Description:          strings.TrimSpace(fields.Description),
		SuggestedRetailPrice: fields.SuggestedRetailPrice,
		CreatedAt:            l.Now(),
	}
	z.Permalink = Permalink(z.Title)
	if verr := ValidateZine(z); verr != nil {
		return Zine{}, verr
	}
	if err := l.Zines.InsertZine(ctx, z); err != nil {
		return Zine{}, transport("insert zine", err)
	}
	logger.DebugCtx(ctx, "zine created", zap.String("zine_id", string(z.ID)), zap.String("permalink", z.Permalink))
	return z, nil
}

// UpdateZine edits title, description or suggested price. The permalink
// keeps its original value so shared links stay valid.
func (l *Ledger) UpdateZine(ctx context.Context, owner UserID, id ZineID, patch ZinePatch) (_ Zine, err error) {
	defer func() { recordWrite("update_zine", err) }()

	existing, err := l.GetZine(ctx, id)
	if err != nil {
		return Zine{}, err
	}
	if existing.Owner != owner {
		return Zine{}, &AuthorizationError{Caller: owner, Kind: "zine", ID: string(id)}
	}
	updated := patch.Apply(existing)
	if verr := ValidateZine(updated); verr != nil {
		return Zine{}, verr
	}
	if err := l.Zines.UpdateZine(ctx, updated); err != nil {
		return Zine{}, transport("update zine", err)
	}
	return updated, nil
}

func (l *Ledger) GetZine(ctx context.Context, id ZineID) (Zine, error) {
	z, err := l.Zines.GetZine(ctx, id)
	if err != nil {
		return Zine{}, transport("get zine", err)
	}
	if z == nil {
		return Zine{}, &NotFoundError{Kind: "zine", ID: string(id)}
	}
	return *z, nil
}

func (l *Ledger) ListZines(ctx context.Context, owner UserID, query string) ([]Zine, error) {
	zines, err := l.Zines.ListZinesByOwner(ctx, owner)
	if err != nil {
		return nil, transport("list zines", err)
	}
	matched := make([]Zine, 0, len(zines))
	for _, z := range zines {
		if z.Matches(query) {
			matched = append(matched, z)
		}
	}
	return matched, nil
}

// GetStore reads display attributes from the directory.
func (l *Ledger) GetStore(ctx context.Context, id StoreID) (Store, error) {
	s, err := l.Stores.GetStore(ctx, id)
	if err != nil {
		return Store{}, transport("get store", err)
	}
	if s == nil {
		return Store{}, &NotFoundError{Kind: "store", ID: string(id)}
	}
	return *s, nil
}
