/*
scheduler.go - Check-in sweep scheduler

PURPOSE:
  Periodically finds active batches whose next check-in date has passed
  and reports them: a Prometheus gauge for alerting and one log line per
  owner. The sweep only reads; it never changes a batch.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Sweeps once immediately on start
  - A failed sweep is logged and counted; the next tick tries again

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewCheckinScheduler(store)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ListDueCheckins endpoint (per caller, on demand)
  - ledger/checkin.go: DueForCheckin
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/zine-ledger/ledger"
	"github.com/warp/zine-ledger/logger"
	"github.com/warp/zine-ledger/metrics"
)

// CheckinScheduler sweeps for overdue check-ins.
type CheckinScheduler struct {
	Source        ledger.CheckinSource
	CheckInterval time.Duration
	Enabled       bool
	Today         func() ledger.Date

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewCheckinScheduler(source ledger.CheckinSource) *CheckinScheduler {
	return &CheckinScheduler{
		Source:        source,
		CheckInterval: time.Hour,
		Enabled:       true,
		Today:         ledger.Today,
	}
}

// Start begins the scheduler. Calling Start on a running scheduler does
// nothing.
func (cs *CheckinScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		logger.Info("checkin scheduler disabled")
		return
	}
	if cs.ticker != nil {
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.stop = make(chan struct{})
	cs.wg.Add(1)
	go cs.run(cs.ticker, cs.stop)

	logger.Info("checkin scheduler started", zap.Duration("interval", cs.CheckInterval))
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (cs *CheckinScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker == nil {
		return
	}
	cs.ticker.Stop()
	close(cs.stop)
	cs.wg.Wait()
	cs.ticker = nil
	logger.Info("checkin scheduler stopped")
}

func (cs *CheckinScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cs.wg.Done()

	// Run immediately on start
	cs.sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			cs.sweep(context.Background())
		case <-stop:
			return
		}
	}
}

// sweep counts due batches and logs a line per owner. It returns the
// number of due batches.
func (cs *CheckinScheduler) sweep(ctx context.Context) (int, error) {
	asOf := cs.Today()

	due, err := cs.Source.ListBatchesDueForCheckin(ctx, asOf)
	if err != nil {
		metrics.CheckinSweeps.WithLabelValues("error").Inc()
		logger.Error(err, zap.String("component", "checkin_scheduler"))
		return 0, err
	}

	perOwner := map[ledger.UserID]int{}
	for _, b := range due {
		perOwner[b.Owner]++
	}
	for owner, n := range perOwner {
		logger.Info("checkins due",
			zap.String("owner", string(owner)),
			zap.Int("batches", n),
			zap.String("as_of", asOf.String()))
	}

	metrics.CheckinsDue.Set(float64(len(due)))
	metrics.CheckinSweeps.WithLabelValues("ok").Inc()
	return len(due), nil
}
