package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/zine-ledger/ledger"
	"github.com/warp/zine-ledger/ledger/store"
)

func batchAt(id ledger.BatchID, owner ledger.UserID, zine ledger.ZineID, placed ledger.Date) ledger.Batch {
	return ledger.Batch{
		ID:           id,
		ZineID:       zine,
		StoreID:      "store-1",
		Owner:        owner,
		DatePlaced:   placed,
		CopiesPlaced: 10,
		CopiesSold:   ledger.IntPtr(2),
		PaymentMode:  ledger.Consignment,
		Status:       ledger.StatusActive,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMemory_CopiesInAndOut(t *testing.T) {
	// GIVEN: A stored batch
	// WHEN: The caller mutates the value it read back
	// THEN: The stored record is unchanged

	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.InsertBatch(ctx, batchAt("b-1", "alice", "z-1", ledger.NewDate(2025, 3, 1))))

	got, err := m.GetBatch(ctx, "b-1")
	require.NoError(t, err)
	*got.CopiesSold = 9
	got.Notes = "scribbled"

	again, err := m.GetBatch(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, 2, *again.CopiesSold)
	assert.Empty(t, again.Notes)
}

func TestMemory_GetMissingReturnsNil(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	b, err := m.GetBatch(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, b)

	z, err := m.GetZine(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, z)

	s, err := m.GetStore(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestMemory_ListOrderAndFilter(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.InsertBatch(ctx, batchAt("b-1", "alice", "z-1", ledger.NewDate(2025, 1, 1))))
	require.NoError(t, m.InsertBatch(ctx, batchAt("b-2", "alice", "z-2", ledger.NewDate(2025, 3, 1))))
	require.NoError(t, m.InsertBatch(ctx, batchAt("b-3", "alice", "z-1", ledger.NewDate(2025, 2, 1))))
	require.NoError(t, m.InsertBatch(ctx, batchAt("b-4", "bob", "z-9", ledger.NewDate(2025, 4, 1))))

	byOwner, err := m.ListBatchesByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byOwner, 3)
	assert.Equal(t, []ledger.BatchID{"b-2", "b-3", "b-1"}, []ledger.BatchID{byOwner[0].ID, byOwner[1].ID, byOwner[2].ID})

	byZine, err := m.ListBatchesByZine(ctx, "z-1")
	require.NoError(t, err)
	require.Len(t, byZine, 2)
	assert.Equal(t, ledger.BatchID("b-3"), byZine[0].ID)

	empty, err := m.ListBatchesByZine(ctx, "z-none")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemory_ZinesNewestFirst(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	older := ledger.Zine{ID: "z-1", Owner: "alice", Title: "Old", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := ledger.Zine{ID: "z-2", Owner: "alice", Title: "New", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, m.InsertZine(ctx, older))
	require.NoError(t, m.InsertZine(ctx, newer))
	require.NoError(t, m.InsertZine(ctx, ledger.Zine{ID: "z-3", Owner: "bob", Title: "Other"}))

	zines, err := m.ListZinesByOwner(ctx, "alice")

	require.NoError(t, err)
	require.Len(t, zines, 2)
	assert.Equal(t, ledger.ZineID("z-2"), zines[0].ID)
}

func TestMemory_DeleteAndReset(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SaveStore(ctx, ledger.Store{ID: "store-1", Name: "Quimby's"}))
	require.NoError(t, m.InsertBatch(ctx, batchAt("b-1", "alice", "z-1", ledger.NewDate(2025, 1, 1))))
	require.NoError(t, m.InsertBatch(ctx, batchAt("b-2", "alice", "z-1", ledger.NewDate(2025, 1, 2))))

	require.NoError(t, m.DeleteBatch(ctx, "b-1"))
	left, err := m.ListBatchesByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, left, 1)

	require.NoError(t, m.Reset(ctx))
	left, err = m.ListBatchesByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, left)
	s, err := m.GetStore(ctx, "store-1")
	require.NoError(t, err)
	assert.Nil(t, s)
}
