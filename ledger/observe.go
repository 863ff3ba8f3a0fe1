package ledger

import (
	"errors"

	"github.com/warp/zine-ledger/metrics"
)

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "error"
	}
}

func recordWrite(op string, err error) {
	metrics.LedgerWrites.WithLabelValues(op, Outcome(err)).Inc()
}

func recordAggregation(scope string, batches int) {
	metrics.StatsComputations.WithLabelValues(scope).Inc()
	metrics.BatchesAggregated.WithLabelValues(scope).Observe(float64(batches))
}
