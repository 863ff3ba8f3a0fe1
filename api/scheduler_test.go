package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/zine-ledger/ledger"
	"github.com/warp/zine-ledger/ledger/store"
	"github.com/warp/zine-ledger/metrics"
)

func dueBatch(id ledger.BatchID, owner ledger.UserID, checkin ledger.Date) ledger.Batch {
	return ledger.Batch{
		ID:           id,
		ZineID:       "z-1",
		StoreID:      "store-1",
		Owner:        owner,
		DatePlaced:   ledger.NewDate(2025, 1, 1),
		CopiesPlaced: 10,
		PaymentMode:  ledger.Consignment,
		Status:       ledger.StatusActive,
		NextCheckin:  &checkin,
	}
}

func TestCheckinScheduler_Sweep(t *testing.T) {
	// GIVEN: Two owners with overdue check-ins and one batch not yet due
	// WHEN: The scheduler sweeps on 2025-05-01
	// THEN: The gauge reports the two overdue batches

	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.InsertBatch(ctx, dueBatch("b-1", "alice", ledger.NewDate(2025, 4, 20))))
	require.NoError(t, mem.InsertBatch(ctx, dueBatch("b-2", "bob", ledger.NewDate(2025, 5, 1))))
	require.NoError(t, mem.InsertBatch(ctx, dueBatch("b-3", "alice", ledger.NewDate(2025, 6, 1))))

	cs := NewCheckinScheduler(mem)
	cs.Today = func() ledger.Date { return ledger.NewDate(2025, 5, 1) }

	n, err := cs.sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CheckinsDue))
}

type brokenSource struct{}

func (brokenSource) ListBatchesDueForCheckin(context.Context, ledger.Date) ([]ledger.Batch, error) {
	return nil, errors.New("database is locked")
}

func TestCheckinScheduler_SweepFailure(t *testing.T) {
	cs := NewCheckinScheduler(brokenSource{})
	before := testutil.ToFloat64(metrics.CheckinSweeps.WithLabelValues("error"))

	_, err := cs.sweep(context.Background())

	assert.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CheckinSweeps.WithLabelValues("error")))
}

func TestCheckinScheduler_StartStop(t *testing.T) {
	cs := NewCheckinScheduler(store.NewMemory())
	cs.CheckInterval = 10 * time.Millisecond

	cs.Start()
	cs.Start()
	time.Sleep(25 * time.Millisecond)
	cs.Stop()
	cs.Stop()

	disabled := NewCheckinScheduler(store.NewMemory())
	disabled.Enabled = false
	disabled.Start()
	disabled.Stop()
}

func TestAPI_ListDueCheckins(t *testing.T) {
	s := newTestServer(t)
	z := s.createZine("alice", "Riso Dreams", "8.00")

	body := consignmentBody()
	body["next_checkin"] = "2025-03-15"
	due := s.createBatch("alice", z.ID, body)
	body["next_checkin"] = "2025-09-01"
	s.createBatch("alice", z.ID, body)

	list := decode[[]BatchDTO](t, s.do(http.MethodGet, "/api/checkins?as_of=2025-04-01", "alice", nil))
	require.Len(t, list, 1)
	assert.Equal(t, due.ID, list[0].ID)

	assert.Empty(t, decode[[]BatchDTO](t, s.do(http.MethodGet, "/api/checkins?as_of=2025-04-01", "bob", nil)))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/checkins?as_of=whenever", "alice", nil).Code)
}
