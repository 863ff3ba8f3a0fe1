package ledger

import "time"

// ZineStats is the aggregate view of one zine's batches.
type ZineStats struct {
	ZineID ZineID
	Summary

	StockStatus StockStatus
	Stores      []StoreID // every store that has held a batch
	LastUpdate  Date      // newest batch's LastUpdate, else the zine's creation day
}

// UserStats is the same aggregation over every batch a user owns.
type UserStats struct {
	Owner      UserID
	TotalZines int
	Summary
}

// ZineCard pairs a zine with its stats for list views.
type ZineCard struct {
	Zine   Zine
	Stats  ZineStats
	Active []Batch
	Past   []Batch
}

type Dashboard struct {
	Stats UserStats
	Zines []ZineCard
}

// BuildZineStats folds one zine's batches. batches must be newest first,
// as returned by BatchStore.ListBatchesByZine.
func BuildZineStats(z Zine, batches []Batch, t StockThresholds) ZineStats {
	return ZineStats{
		ZineID:      z.ID,
		Summary:     Summarize(batches),
		StockStatus: ZineStockStatus(batches, t),
		Stores:      DistinctStores(batches),
		LastUpdate:  lastUpdate(z, batches),
	}
}

func BuildUserStats(owner UserID, zines []Zine, batches []Batch) UserStats {
	return UserStats{
		Owner:      owner,
		TotalZines: len(zines),
		Summary:    Summarize(batches),
	}
}

func lastUpdate(z Zine, batches []Batch) Date {
	if len(batches) > 0 && batches[0].LastUpdate != nil {
		return *batches[0].LastUpdate
	}
	if z.CreatedAt.IsZero() {
		return Date{}
	}
	return DateOf(z.CreatedAt.In(time.UTC))
}

// groupByZine splits batches per zine, keeping their relative order.
func groupByZine(batches []Batch) map[ZineID][]Batch {
	groups := make(map[ZineID][]Batch)
	for _, b := range batches {
		groups[b.ZineID] = append(groups[b.ZineID], b)
	}
	return groups
}
