/*
aggregate.go - Aggregation engine

PURPOSE:
  Folds a set of batches into the numbers shown to a publisher: copies
  out, copies sold, money earned, stock signal, sell-through.

KEY INSIGHT:
  There is one algorithm. Per-zine stats feed in one zine's batches,
  dashboard stats feed in every batch the user owns. Because every
  function here is a plain sum or count over the active subset, the user
  totals always equal the sum of the per-zine totals.

RULES:
  - Only active batches count. Sold-out, picked-up and unknown batches
    are archived and contribute nothing.
  - Unknown CopiesSold counts as 0 when summing.
  - A batch missing sold count, price or split contributes 0 earnings.
  - Earnings use the owner's split, never the full retail price.
  - Sell-through with no copies out is undefined (ok=false), not 0%.

Every function is pure and safe for concurrent use. Nothing is cached;
callers recompute from the full batch set on each read.
*/
package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// FILTERS AND SUMS
// =============================================================================

func ActiveBatches(batches []Batch) []Batch {
	var active []Batch
	for _, b := range batches {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	return active
}

func ArchivedBatches(batches []Batch) []Batch {
	var archived []Batch
	for _, b := range batches {
		if !b.IsActive() {
			archived = append(archived, b)
		}
	}
	return archived
}

func CopiesOut(batches []Batch) int {
	total := 0
	for _, b := range batches {
		if b.IsActive() {
			total += b.CopiesPlaced
		}
	}
	return total
}

func CopiesSold(batches []Batch) int {
	total := 0
	for _, b := range batches {
		if b.IsActive() {
			total += intValue(b.CopiesSold)
		}
	}
	return total
}

func Earnings(batches []Batch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		if !b.IsActive() {
			continue
		}
		if amount, ok := b.Earnings(); ok {
			total = total.Add(amount)
		}
	}
	return total
}

// Revenue is the retail value of copies sold across active batches.
func Revenue(batches []Batch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		if !b.IsActive() {
			continue
		}
		if amount, ok := b.Revenue(); ok {
			total = total.Add(amount)
		}
	}
	return total
}

// SellThroughPercent returns sold/out*100 over active batches. ok is false
// when no copies are out; render that as "n/a", never as 0%.
func SellThroughPercent(batches []Batch) (percent decimal.Decimal, ok bool) {
	out := CopiesOut(batches)
	if out == 0 {
		return decimal.Zero, false
	}
	sold := decimal.NewFromInt(int64(CopiesSold(batches)))
	return sold.Mul(hundred).Div(decimal.NewFromInt(int64(out))), true
}

// DistinctStores returns each referenced store once, in first-seen order.
// All batches count, archived included: a store that once stocked the
// zine is still listed.
func DistinctStores(batches []Batch) []StoreID {
	seen := make(map[StoreID]bool)
	var stores []StoreID
	for _, b := range batches {
		if b.StoreID == "" || seen[b.StoreID] {
			continue
		}
		seen[b.StoreID] = true
		stores = append(stores, b.StoreID)
	}
	return stores
}

// =============================================================================
// STOCK STATUS - Presentation signal, not an inventory threshold
// =============================================================================

type StockStatus string

const (
	StockInactive StockStatus = "inactive"
	StockLow      StockStatus = "low-stock"
	StockActive   StockStatus = "active"
)

// DefaultLowStockMax is the highest active-batch count still shown as low stock.
const DefaultLowStockMax = 2

type StockThresholds struct {
	LowStockMax int
}

func DefaultStockThresholds() StockThresholds {
	return StockThresholds{LowStockMax: DefaultLowStockMax}
}

// StatusFor maps an active-batch count to a stock signal.
func (t StockThresholds) StatusFor(activeCount int) StockStatus {
	switch {
	case activeCount <= 0:
		return StockInactive
	case activeCount <= t.LowStockMax:
		return StockLow
	default:
		return StockActive
	}
}

// ZineStockStatus depends only on how many batches are active.
func ZineStockStatus(batches []Batch, t StockThresholds) StockStatus {
	return t.StatusFor(len(ActiveBatches(batches)))
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is every aggregate over one batch subset.
type Summary struct {
	ActiveBatches int
	CopiesOut     int
	CopiesSold    int
	Earnings      decimal.Decimal
	Revenue       decimal.Decimal

	// SellThrough is meaningful only when HasSellThrough is true.
	SellThrough    decimal.Decimal
	HasSellThrough bool
}

func Summarize(batches []Batch) Summary {
	sellThrough, ok := SellThroughPercent(batches)
	return Summary{
		ActiveBatches:  len(ActiveBatches(batches)),
		CopiesOut:      CopiesOut(batches),
		CopiesSold:     CopiesSold(batches),
		Earnings:       Earnings(batches),
		Revenue:        Revenue(batches),
		SellThrough:    sellThrough,
		HasSellThrough: ok,
	}
}
