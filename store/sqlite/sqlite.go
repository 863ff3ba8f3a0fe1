/*
Package sqlite provides a SQLite-backed implementation of the ledger stores.

PURPOSE:
  Implements ledger.BatchStore, ledger.ZineStore and ledger.StoreDirectory
  on SQLite. The same SQL runs on PostgreSQL with minor dialect changes.

KEY TABLES:
  zines:   catalog entries, one owner each, never deleted
  batches: placement records, hard delete
  stores:  retail directory, read-only to the ledger (SaveStore seeds it)

STORAGE FORMATS:
  - Money as TEXT decimal strings (no float rounding)
  - Calendar dates as TEXT YYYY-MM-DD
  - Timestamps as TEXT RFC3339
  - Unknown values (copies_sold, price, split, advisory dates) as NULL

INDEXES:
  - idx_batches_zine_date:  per-zine listing, newest first (hot path)
  - idx_batches_owner_date: dashboard listing
  - idx_zines_owner:        catalog listing

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Each write is one statement, so
  concurrent edits of the same batch resolve as last write wins.

WAL MODE:
  Opened with WAL so dashboard reads do not block writers.

USAGE:
  store, err := sqlite.New("./data/zines.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  l := ledger.New(store, store, store)
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/zine-ledger/ledger"
)

// Store implements all ledger storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ ledger.BatchStore     = (*Store)(nil)
	_ ledger.ZineStore      = (*Store)(nil)
	_ ledger.StoreDirectory = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT,
		region TEXT,
		country TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS zines (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		suggested_retail_price TEXT,
		permalink TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_zines_owner
		ON zines(owner, created_at DESC);

	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		zine_id TEXT NOT NULL REFERENCES zines(id),
		store_id TEXT NOT NULL REFERENCES stores(id),
		owner TEXT NOT NULL,
		date_placed TEXT NOT NULL,
		copies_placed INTEGER NOT NULL CHECK (copies_placed > 0),
		price_per_copy TEXT,
		split_percent INTEGER CHECK (split_percent BETWEEN 0 AND 100),
		payment_mode TEXT NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		copies_sold INTEGER CHECK (copies_sold >= 0 AND copies_sold <= copies_placed),
		status TEXT NOT NULL DEFAULT 'active',
		next_checkin TEXT,
		last_update TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batches_zine_date
		ON batches(zine_id, date_placed DESC);
	CREATE INDEX IF NOT EXISTS idx_batches_owner_date
		ON batches(owner, date_placed DESC);
	CREATE INDEX IF NOT EXISTS idx_batches_status
		ON batches(status);
	CREATE INDEX IF NOT EXISTS idx_batches_checkin
		ON batches(status, next_checkin);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes all data. Dev and demo use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"batches", "zines", "stores"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// BATCH STORE (ledger.BatchStore interface)
// =============================================================================

const batchColumns = `id, zine_id, store_id, owner, date_placed, copies_placed, price_per_copy,
	split_percent, payment_mode, paid, copies_sold, status, next_checkin, last_update, notes, created_at`

func (s *Store) InsertBatch(ctx context.Context, b ledger.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO batches (` + batchColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		b.ID, b.ZineID, b.StoreID, b.Owner,
		b.DatePlaced.String(),
		b.CopiesPlaced,
		b.PricePerCopy,
		nullInt(b.SplitPercent),
		b.PaymentMode,
		b.Paid,
		nullInt(b.CopiesSold),
		b.Status,
		nullDate(b.NextCheckin),
		nullDate(b.LastUpdate),
		b.Notes,
		b.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	return nil
}

// UpdateBatch rewrites the mutable columns. zine_id, store_id, owner,
// copies_placed and created_at are never touched.
func (s *Store) UpdateBatch(ctx context.Context, b ledger.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE batches SET
			date_placed = ?,
			price_per_copy = ?,
			split_percent = ?,
			payment_mode = ?,
			paid = ?,
			copies_sold = ?,
			status = ?,
			next_checkin = ?,
			last_update = ?,
			notes = ?
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		b.DatePlaced.String(),
		b.PricePerCopy,
		nullInt(b.SplitPercent),
		b.PaymentMode,
		b.Paid,
		nullInt(b.CopiesSold),
		b.Status,
		nullDate(b.NextCheckin),
		nullDate(b.LastUpdate),
		b.Notes,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}
	return nil
}

func (s *Store) DeleteBatch(ctx context.Context, id ledger.BatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM batches WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	return nil
}

func (s *Store) GetBatch(ctx context.Context, id ledger.BatchID) (*ledger.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches, err := s.queryBatches(ctx, "SELECT "+batchColumns+" FROM batches WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, nil
	}
	return &batches[0], nil
}

func (s *Store) ListBatchesByZine(ctx context.Context, zineID ledger.ZineID) ([]ledger.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryBatches(ctx, `
		SELECT `+batchColumns+` FROM batches
		WHERE zine_id = ?
		ORDER BY date_placed DESC, created_at DESC, id ASC`, zineID)
}

func (s *Store) ListBatchesByOwner(ctx context.Context, owner ledger.UserID) ([]ledger.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryBatches(ctx, `
		SELECT `+batchColumns+` FROM batches
		WHERE owner = ?
		ORDER BY date_placed DESC, created_at DESC, id ASC`, owner)
}

// ListBatchesDueForCheckin returns active batches of every owner whose
// next check-in is on or before asOf, earliest first.
func (s *Store) ListBatchesDueForCheckin(ctx context.Context, asOf ledger.Date) ([]ledger.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryBatches(ctx, `
		SELECT `+batchColumns+` FROM batches
		WHERE status = ? AND next_checkin IS NOT NULL AND next_checkin <= ?
		ORDER BY next_checkin ASC, id ASC`, string(ledger.StatusActive), asOf.String())
}

func (s *Store) queryBatches(ctx context.Context, query string, args ...any) ([]ledger.Batch, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	batches := []ledger.Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func scanBatch(rows *sql.Rows) (ledger.Batch, error) {
	var (
		b            ledger.Batch
		datePlaced   string
		splitPercent sql.NullInt64
		copiesSold   sql.NullInt64
		nextCheckin  sql.NullString
		lastUpdate   sql.NullString
		notes        sql.NullString
		createdAt    string
	)

	err := rows.Scan(
		&b.ID, &b.ZineID, &b.StoreID, &b.Owner,
		&datePlaced, &b.CopiesPlaced, &b.PricePerCopy,
		&splitPercent, &b.PaymentMode, &b.Paid, &copiesSold, &b.Status,
		&nextCheckin, &lastUpdate, &notes, &createdAt,
	)
	if err != nil {
		return b, fmt.Errorf("failed to scan batch: %w", err)
	}

	b.DatePlaced, err = ledger.ParseDate(datePlaced)
	if err != nil {
		return b, fmt.Errorf("batch %s: %w", b.ID, err)
	}
	b.SplitPercent = intFromNull(splitPercent)
	b.CopiesSold = intFromNull(copiesSold)
	if b.NextCheckin, err = dateFromNull(nextCheckin); err != nil {
		return b, fmt.Errorf("batch %s next_checkin: %w", b.ID, err)
	}
	if b.LastUpdate, err = dateFromNull(lastUpdate); err != nil {
		return b, fmt.Errorf("batch %s last_update: %w", b.ID, err)
	}
	b.Notes = notes.String
	if b.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return b, fmt.Errorf("batch %s: %w", b.ID, err)
	}
	return b, nil
}

// =============================================================================
// ZINE STORE (ledger.ZineStore interface)
// =============================================================================

const zineColumns = `id, owner, title, description, suggested_retail_price, permalink, created_at`

func (s *Store) InsertZine(ctx context.Context, z ledger.Zine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO zines (`+zineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		z.ID, z.Owner, z.Title, z.Description, z.SuggestedRetailPrice, z.Permalink,
		z.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("zine %s already exists: %w", z.ID, err)
		}
		return fmt.Errorf("failed to insert zine: %w", err)
	}
	return nil
}

// UpdateZine rewrites the editable columns; owner and permalink stay.
func (s *Store) UpdateZine(ctx context.Context, z ledger.Zine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE zines SET title = ?, description = ?, suggested_retail_price = ? WHERE id = ?`,
		z.Title, z.Description, z.SuggestedRetailPrice, z.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update zine: %w", err)
	}
	return nil
}

func (s *Store) GetZine(ctx context.Context, id ledger.ZineID) (*ledger.Zine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	zines, err := s.queryZines(ctx, "SELECT "+zineColumns+" FROM zines WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(zines) == 0 {
		return nil, nil
	}
	return &zines[0], nil
}

func (s *Store) ListZinesByOwner(ctx context.Context, owner ledger.UserID) ([]ledger.Zine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryZines(ctx,
		"SELECT "+zineColumns+" FROM zines WHERE owner = ? ORDER BY created_at DESC, id ASC", owner)
}

func (s *Store) queryZines(ctx context.Context, query string, args ...any) ([]ledger.Zine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query zines: %w", err)
	}
	defer rows.Close()

	zines := []ledger.Zine{}
	for rows.Next() {
		var (
			z           ledger.Zine
			description sql.NullString
			permalink   sql.NullString
			price       decimal.NullDecimal
			createdAt   string
		)
		if err := rows.Scan(&z.ID, &z.Owner, &z.Title, &description, &price, &permalink, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan zine: %w", err)
		}
		z.Description = description.String
		z.SuggestedRetailPrice = price
		z.Permalink = permalink.String
		var err error
		if z.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("zine %s: %w", z.ID, err)
		}
		zines = append(zines, z)
	}
	return zines, rows.Err()
}

// =============================================================================
// STORE DIRECTORY (ledger.StoreDirectory interface)
// =============================================================================

// SaveStore seeds or refreshes a directory entry.
func (s *Store) SaveStore(ctx context.Context, st ledger.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := st.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `
		INSERT INTO stores (id, name, city, region, country, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			region = excluded.region,
			country = excluded.country
	`
	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.Name, st.City, st.Region, st.Country,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}
	return nil
}

func (s *Store) GetStore(ctx context.Context, id ledger.StoreID) (*ledger.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		st                    ledger.Store
		city, region, country sql.NullString
		createdAt             string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, city, region, country, created_at FROM stores WHERE id = ?",
		id,
	).Scan(&st.ID, &st.Name, &city, &region, &country, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}

	st.City = city.String
	st.Region = region.String
	st.Country = country.String
	if st.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("store %s: %w", st.ID, err)
	}
	return &st, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	return ledger.IntPtr(int(n.Int64))
}

func nullDate(d *ledger.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func dateFromNull(s sql.NullString) (*ledger.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := ledger.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid created_at %q: %w", s, err)
	}
	return t, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
