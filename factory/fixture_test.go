package factory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/zine-ledger/factory"
	"github.com/warp/zine-ledger/ledger"
	"github.com/warp/zine-ledger/ledger/store"
)

var loadDay = ledger.NewDate(2025, 6, 15)

func newFactory() *factory.FixtureFactory {
	f := factory.NewFixtureFactory()
	f.Today = func() ledger.Date { return loadDay }
	return f
}

func strPtr(s string) *string { return &s }

// =============================================================================
// DATES
// =============================================================================

func TestParseDate(t *testing.T) {
	f := newFactory()
	tests := map[string]string{
		"2025-03-01": "2025-03-01",
		"today":      "2025-06-15",
		"today-30":   "2025-05-16",
		"today+14":   "2025-06-29",
		" today-1 ":  "2025-06-14",
	}
	for in, want := range tests {
		d, err := f.ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d.String(), in)
	}

	for _, bad := range []string{"today30", "today-x", "yesterday", "03/01/2025", "todayish"} {
		_, err := f.ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

// =============================================================================
// CONVERSION
// =============================================================================

func TestBatchFieldsFrom(t *testing.T) {
	f := newFactory()
	bj := factory.BatchJSON{
		StoreID:      "store-quimbys",
		DatePlaced:   "today-30",
		CopiesPlaced: 20,
		PricePerCopy: strPtr(" 8.00 "),
		SplitPercent: ledger.IntPtr(60),
		PaymentMode:  "consignment",
		CopiesSold:   ledger.IntPtr(12),
		NextCheckin:  strPtr("today+14"),
		Notes:        "front table",
	}

	storeID, fields, err := f.BatchFieldsFrom(bj)

	require.NoError(t, err)
	assert.Equal(t, ledger.StoreID("store-quimbys"), storeID)
	assert.Equal(t, "2025-05-16", fields.DatePlaced.String())
	assert.True(t, decimal.RequireFromString("8").Equal(fields.PricePerCopy.Decimal))
	assert.Equal(t, ledger.Consignment, fields.PaymentMode)
	require.NotNil(t, fields.NextCheckin)
	assert.Equal(t, "2025-06-29", fields.NextCheckin.String())
	assert.Nil(t, fields.LastUpdate)
	assert.Equal(t, "front table", fields.Notes)
}

func TestBatchFieldsFrom_Unconvertible(t *testing.T) {
	f := newFactory()
	tests := []struct {
		name   string
		mutate func(*factory.BatchJSON)
		field  string
	}{
		{"bad date", func(b *factory.BatchJSON) { b.DatePlaced = "last tuesday" }, "date_placed"},
		{"bad price", func(b *factory.BatchJSON) { b.PricePerCopy = strPtr("eight") }, "price_per_copy"},
		{"bad checkin", func(b *factory.BatchJSON) { b.NextCheckin = strPtr("soon") }, "next_checkin"},
		{"bad last update", func(b *factory.BatchJSON) { b.LastUpdate = strPtr("2025-13-01") }, "last_update"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bj := factory.BatchJSON{StoreID: "s", DatePlaced: "2025-01-01", CopiesPlaced: 1, PaymentMode: "upfront"}
			tt.mutate(&bj)

			_, _, err := f.BatchFieldsFrom(bj)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestBatchFieldsFrom_LeavesRulesToLedger(t *testing.T) {
	// Out-of-range values convert fine; the ledger rejects them later
	f := newFactory()
	_, fields, err := f.BatchFieldsFrom(factory.BatchJSON{
		StoreID:      "s",
		DatePlaced:   "2025-01-01",
		CopiesPlaced: 5,
		SplitPercent: ledger.IntPtr(150),
		PaymentMode:  "barter",
		Status:       "lost",
	})

	require.NoError(t, err)
	assert.Equal(t, ledger.PaymentMode("barter"), fields.PaymentMode)
	assert.Equal(t, ledger.Status("lost"), fields.Status)
}

func TestParseFixture(t *testing.T) {
	f := newFactory()

	_, err := f.ParseFixture([]byte(`{"id": "x", "stores": [{"id": " ", "name": "Nameless"}], "zines": []}`))
	assert.Error(t, err)

	_, err = f.ParseFixture([]byte(`{not json`))
	assert.Error(t, err)

	fx, err := f.ParseFixture([]byte(`{"id": "x", "owner": "carol", "zines": [{"title": "Solo", "suggested_retail_price": "2.50"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "carol", fx.Owner)

	zf, err := f.ZineFieldsFrom(fx.Zines[0])
	require.NoError(t, err)
	assert.True(t, zf.SuggestedRetailPrice.Valid)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_List(t *testing.T) {
	infos, err := newFactory().Scenarios()

	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "busy-season", infos[0].ID)
	assert.Equal(t, "first-drop", infos[1].ID)
	assert.Equal(t, "quiet-shelf", infos[2].ID)
	for _, info := range infos {
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Description)
	}

	_, err = newFactory().Scenario("no-such-scenario")
	assert.Error(t, err)
}

func loadScenario(t *testing.T, id string, owner ledger.UserID) (*ledger.Ledger, factory.LoadResult) {
	t.Helper()
	f := newFactory()
	fx, err := f.Scenario(id)
	require.NoError(t, err)

	mem := store.NewMemory()
	l := ledger.New(mem, mem, mem)
	result, err := f.Load(context.Background(), l, mem, fx, owner)
	require.NoError(t, err)
	return l, result
}

func TestLoad_EveryScenarioPassesLedgerRules(t *testing.T) {
	infos, err := newFactory().Scenarios()
	require.NoError(t, err)

	for _, info := range infos {
		t.Run(info.ID, func(t *testing.T) {
			_, result := loadScenario(t, info.ID, "")
			assert.Equal(t, ledger.UserID("demo-user"), result.Owner)
			assert.NotEmpty(t, result.Zines)
		})
	}
}

func TestLoad_FirstDrop(t *testing.T) {
	// GIVEN: The first-drop fixture
	// WHEN: Loaded as alice
	// THEN: 57.60 consignment + 72.00 upfront, 35 out, 27 sold

	l, result := loadScenario(t, "first-drop", "alice")
	ctx := context.Background()

	assert.Equal(t, 2, result.Stores)
	assert.Equal(t, 2, result.Batches)

	stats, err := l.UserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalZines)
	assert.Equal(t, 35, stats.CopiesOut)
	assert.Equal(t, 27, stats.CopiesSold)
	assert.True(t, decimal.RequireFromString("129.60").Equal(stats.Earnings), "got %s", stats.Earnings)

	s, err := l.GetStore(ctx, "store-quimbys")
	require.NoError(t, err)
	assert.Equal(t, "Chicago", s.City)
}

func TestLoad_BusySeasonStockStates(t *testing.T) {
	l, result := loadScenario(t, "busy-season", "")
	ctx := context.Background()
	require.Len(t, result.Zines, 3)

	want := []ledger.StockStatus{ledger.StockActive, ledger.StockLow, ledger.StockInactive}
	for i, id := range result.Zines {
		stats, err := l.ZineStats(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want[i], stats.StockStatus, "zine %d", i)
	}

	nightBus, err := l.ZineStats(ctx, result.Zines[0])
	require.NoError(t, err)
	assert.Equal(t, 30, nightBus.CopiesOut)
	assert.Equal(t, 18, nightBus.CopiesSold)
	assert.True(t, decimal.RequireFromString("70.85").Equal(nightBus.Earnings), "got %s", nightBus.Earnings)
	assert.Len(t, nightBus.Stores, 4)

	fax, err := l.ZineStats(ctx, result.Zines[2])
	require.NoError(t, err)
	assert.False(t, fax.HasSellThrough)
}

func TestLoad_NoOwner(t *testing.T) {
	f := newFactory()
	mem := store.NewMemory()
	l := ledger.New(mem, mem, mem)

	_, err := f.Load(context.Background(), l, mem, &factory.Fixture{ID: "x"}, "")

	assert.Error(t, err)
}

func TestLoad_StopsAtRejectedBatch(t *testing.T) {
	f := newFactory()
	mem := store.NewMemory()
	l := ledger.New(mem, mem, mem)
	fx := &factory.Fixture{
		ID:     "broken",
		Stores: []factory.StoreJSON{{ID: "store-1", Name: "One"}},
		Zines: []factory.ZineJSON{{
			Title:                "Broken",
			SuggestedRetailPrice: strPtr("4.00"),
			Batches: []factory.BatchJSON{
				{StoreID: "store-1", DatePlaced: "today", CopiesPlaced: 5, SplitPercent: ledger.IntPtr(50), PaymentMode: "consignment"},
				{StoreID: "store-1", DatePlaced: "today", CopiesPlaced: 5, SplitPercent: ledger.IntPtr(150), PaymentMode: "consignment"},
			},
		}},
	}

	result, err := f.Load(context.Background(), l, mem, fx, "alice")

	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Equal(t, 1, result.Batches)
}
