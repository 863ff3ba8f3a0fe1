package ledger

import (
	"context"
	"sort"
)

// CheckinSource lists due batches across every owner. Implemented by the
// backing stores for the background sweep.
type CheckinSource interface {
	ListBatchesDueForCheckin(ctx context.Context, asOf Date) ([]Batch, error)
}

// DueForCheckin returns the active batches whose next check-in falls on or
// before asOf, earliest first. Archived batches are never due.
func DueForCheckin(batches []Batch, asOf Date) []Batch {
	due := []Batch{}
	for _, b := range batches {
		if !b.Status.IsActive() || b.NextCheckin == nil || b.NextCheckin.After(asOf) {
			continue
		}
		due = append(due, b)
	}
	sort.Slice(due, func(i, j int) bool {
		a, b := due[i].NextCheckin, due[j].NextCheckin
		if !a.Equal(*b) {
			return a.Before(*b)
		}
		return due[i].ID < due[j].ID
	})
	return due
}

// DueCheckins lists the owner's batches that need a store visit by asOf.
func (l *Ledger) DueCheckins(ctx context.Context, owner UserID, asOf Date) ([]Batch, error) {
	batches, err := l.ListBatchesByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return DueForCheckin(batches, asOf), nil
}
