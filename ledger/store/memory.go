// Package store provides in-memory implementations of the ledger stores.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/zine-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.BatchStore, ledger.ZineStore and
// ledger.StoreDirectory. Values are copied in and out so callers never
// share state with the store.
type Memory struct {
	mu      sync.RWMutex
	batches map[ledger.BatchID]ledger.Batch
	zines   map[ledger.ZineID]ledger.Zine
	stores  map[ledger.StoreID]ledger.Store
}

var (
	_ ledger.BatchStore     = (*Memory)(nil)
	_ ledger.ZineStore      = (*Memory)(nil)
	_ ledger.StoreDirectory = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		batches: make(map[ledger.BatchID]ledger.Batch),
		zines:   make(map[ledger.ZineID]ledger.Zine),
		stores:  make(map[ledger.StoreID]ledger.Store),
	}
}

// Reset drops every record.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = make(map[ledger.BatchID]ledger.Batch)
	m.zines = make(map[ledger.ZineID]ledger.Zine)
	m.stores = make(map[ledger.StoreID]ledger.Store)
	return nil
}

// =============================================================================
// BATCHES
// =============================================================================

func (m *Memory) InsertBatch(_ context.Context, b ledger.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[b.ID] = cloneBatch(b)
	return nil
}

// UpdateBatch overwrites the stored record; last write wins.
func (m *Memory) UpdateBatch(_ context.Context, b ledger.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[b.ID] = cloneBatch(b)
	return nil
}

func (m *Memory) DeleteBatch(_ context.Context, id ledger.BatchID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.batches, id)
	return nil
}

func (m *Memory) GetBatch(_ context.Context, id ledger.BatchID) (*ledger.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, nil
	}
	c := cloneBatch(b)
	return &c, nil
}

func (m *Memory) ListBatchesByZine(_ context.Context, zineID ledger.ZineID) ([]ledger.Batch, error) {
	return m.listBatches(func(b ledger.Batch) bool { return b.ZineID == zineID }), nil
}

func (m *Memory) ListBatchesByOwner(_ context.Context, owner ledger.UserID) ([]ledger.Batch, error) {
	return m.listBatches(func(b ledger.Batch) bool { return b.Owner == owner }), nil
}

// ListBatchesDueForCheckin returns active batches of every owner whose
// next check-in is on or before asOf, earliest first.
func (m *Memory) ListBatchesDueForCheckin(_ context.Context, asOf ledger.Date) ([]ledger.Batch, error) {
	return ledger.DueForCheckin(m.listBatches(func(ledger.Batch) bool { return true }), asOf), nil
}

func (m *Memory) listBatches(keep func(ledger.Batch) bool) []ledger.Batch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []ledger.Batch{}
	for _, b := range m.batches {
		if keep(b) {
			result = append(result, cloneBatch(b))
		}
	}
	// Newest drop-off first; creation time then id keep the order stable
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.DatePlaced.Equal(b.DatePlaced) {
			return a.DatePlaced.After(b.DatePlaced)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return result
}

func cloneBatch(b ledger.Batch) ledger.Batch {
	if b.CopiesSold != nil {
		b.CopiesSold = ledger.IntPtr(*b.CopiesSold)
	}
	if b.SplitPercent != nil {
		b.SplitPercent = ledger.IntPtr(*b.SplitPercent)
	}
	if b.NextCheckin != nil {
		d := *b.NextCheckin
		b.NextCheckin = &d
	}
	if b.LastUpdate != nil {
		d := *b.LastUpdate
		b.LastUpdate = &d
	}
	return b
}

// =============================================================================
// ZINES
// =============================================================================

func (m *Memory) InsertZine(_ context.Context, z ledger.Zine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zines[z.ID] = z
	return nil
}

func (m *Memory) UpdateZine(_ context.Context, z ledger.Zine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zines[z.ID] = z
	return nil
}

func (m *Memory) GetZine(_ context.Context, id ledger.ZineID) (*ledger.Zine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zines[id]
	if !ok {
		return nil, nil
	}
	return &z, nil
}

func (m *Memory) ListZinesByOwner(_ context.Context, owner ledger.UserID) ([]ledger.Zine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []ledger.Zine{}
	for _, z := range m.zines {
		if z.Owner == owner {
			result = append(result, z)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// =============================================================================
// STORE DIRECTORY
// =============================================================================

// SaveStore seeds the directory. The ledger itself never writes stores.
func (m *Memory) SaveStore(_ context.Context, s ledger.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[s.ID] = s
	return nil
}

func (m *Memory) GetStore(_ context.Context, id ledger.StoreID) (*ledger.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stores[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}
