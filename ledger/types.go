/*
Package ledger provides the batch ledger and aggregation engine.

PURPOSE:
  A publisher drops copies of a zine at a store. Each drop-off is a Batch
  with its own commercial terms (price, split, payment mode) and its own
  lifecycle status. This package owns the rules for writing batches and
  the pure functions that fold batches into per-zine and per-user numbers.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identifiers: UserID, ZineID, BatchID, StoreID
  - PaymentMode: upfront vs consignment
  - Money helpers on top of decimal.Decimal

DESIGN PRINCIPLES:
  1. Explicit caller: every write takes the acting UserID as a parameter
  2. Precision: prices and earnings use decimal.Decimal
  3. Recompute on read: no aggregate is ever stored
  4. Normalize on write: upfront batches are made consistent before persisting

USAGE:
  l := ledger.New(batches, zines, stores)
  b, err := l.CreateBatch(ctx, "user-1", zineID, storeID, ledger.BatchFields{
      DatePlaced:   ledger.NewDate(2025, time.March, 1),
      CopiesPlaced: 20,
      PricePerCopy: ledger.Price("8.00"),
      SplitPercent: ledger.IntPtr(60),
      PaymentMode:  ledger.Consignment,
  })

SEE ALSO:
  - batch.go: Batch entity, validation, upfront normalization
  - status.go: Status values and transition policies
  - aggregate.go: Aggregation engine
  - ledger.go: Write and read operations over the stores
*/
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type ZineID string
type BatchID string
type StoreID string

// =============================================================================
// PAYMENT MODE
// =============================================================================

type PaymentMode string

const (
	// Upfront: the store pays for every copy at drop-off.
	Upfront PaymentMode = "upfront"
	// Consignment: the publisher is paid only for copies actually sold.
	Consignment PaymentMode = "consignment"
)

func (m PaymentMode) Valid() bool {
	return m == Upfront || m == Consignment
}

func ParsePaymentMode(s string) (PaymentMode, error) {
	m := PaymentMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown payment mode %q", s)
	}
	return m, nil
}

// =============================================================================
// MONEY
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Price parses a decimal string into a set NullDecimal.
// Invalid input yields an unset value so validation reports it as missing.
func Price(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func PriceFromDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func IntPtr(n int) *int { return &n }

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
