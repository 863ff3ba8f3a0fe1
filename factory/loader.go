package factory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/zine-ledger/ledger"
	"github.com/warp/zine-ledger/logger"
)

// StoreSeeder writes retail directory entries. The ledger never writes
// stores, so fixtures seed them through the backing store directly.
type StoreSeeder interface {
	SaveStore(ctx context.Context, s ledger.Store) error
}

// LoadResult counts what a fixture created.
type LoadResult struct {
	Owner   ledger.UserID   `json:"owner"`
	Stores  int             `json:"stores"`
	Zines   []ledger.ZineID `json:"zines"`
	Batches int             `json:"batches"`
}

// Load writes fx through the ledger as owner, or as fx.Owner when owner is
// empty. It stops at the first rejected record; records written before that
// stay written.
func (f *FixtureFactory) Load(ctx context.Context, l *ledger.Ledger, seeder StoreSeeder, fx *Fixture, owner ledger.UserID) (LoadResult, error) {
	if owner == "" {
		owner = ledger.UserID(fx.Owner)
	}
	result := LoadResult{Owner: owner}
	if owner == "" {
		return result, errors.New("fixture has no owner and none was given")
	}

	for _, sj := range fx.Stores {
		if err := seeder.SaveStore(ctx, f.StoreFrom(sj)); err != nil {
			return result, fmt.Errorf("store %s: %w", sj.ID, err)
		}
		result.Stores++
	}

	for i, zj := range fx.Zines {
		zf, err := f.ZineFieldsFrom(zj)
		if err != nil {
			return result, fmt.Errorf("zine %d (%s): %w", i, zj.Title, err)
		}
		z, err := l.CreateZine(ctx, owner, zf)
		if err != nil {
			return result, fmt.Errorf("zine %d (%s): %w", i, zj.Title, err)
		}
		result.Zines = append(result.Zines, z.ID)

		for j, bj := range zj.Batches {
			storeID, bf, err := f.BatchFieldsFrom(bj)
			if err != nil {
				return result, fmt.Errorf("zine %s batch %d: %w", zj.Title, j, err)
			}
			if _, err := l.CreateBatch(ctx, owner, z.ID, storeID, bf); err != nil {
				return result, fmt.Errorf("zine %s batch %d: %w", zj.Title, j, err)
			}
			result.Batches++
		}
	}

	logger.InfoCtx(ctx, "fixture loaded",
		zap.String("fixture", fx.ID),
		zap.String("owner", string(owner)),
		zap.Int("stores", result.Stores),
		zap.Int("zines", len(result.Zines)),
		zap.Int("batches", result.Batches))
	return result, nil
}
