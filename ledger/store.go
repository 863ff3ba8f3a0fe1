/*
store.go - Persistence interfaces used by the ledger

PURPOSE:
  Defines what the ledger needs from the outside world. The backing
  database is an external collaborator reached through simple
  get/insert/update/delete calls keyed by record id.

KEY INTERFACES:
  BatchStore:     batch records (full CRUD, hard delete)
  ZineStore:      zine catalog (no delete)
  StoreDirectory: retail locations, read-only from the ledger

CONTRACT:
  - Get* returns (nil, nil) when the id does not exist.
  - Every call is atomic on its own. There are no multi-record
    transactions; last write wins.
  - Any returned error is treated as a transport failure.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - ledger/store/memory.go: In-memory for testing and demos
*/
package ledger

import (
	"context"
	"time"
)

// Store is a retail location where batches are placed.
type Store struct {
	ID        StoreID
	Name      string
	City      string
	Region    string
	Country   string
	CreatedAt time.Time
}

type BatchStore interface {
	InsertBatch(ctx context.Context, b Batch) error
	UpdateBatch(ctx context.Context, b Batch) error
	DeleteBatch(ctx context.Context, id BatchID) error
	GetBatch(ctx context.Context, id BatchID) (*Batch, error)

	// List methods return newest DatePlaced first.
	ListBatchesByZine(ctx context.Context, zineID ZineID) ([]Batch, error)
	ListBatchesByOwner(ctx context.Context, owner UserID) ([]Batch, error)
}

type ZineStore interface {
	InsertZine(ctx context.Context, z Zine) error
	UpdateZine(ctx context.Context, z Zine) error
	GetZine(ctx context.Context, id ZineID) (*Zine, error)

	// ListZinesByOwner returns newest first.
	ListZinesByOwner(ctx context.Context, owner UserID) ([]Zine, error)
}

type StoreDirectory interface {
	GetStore(ctx context.Context, id StoreID) (*Store, error)
}
