/*
Package factory provides JSON to Go fixture conversion.

PURPOSE:
  Converts JSON fixture documents (stores, zines and their batches) into
  ledger inputs. Demo scenarios and `zinectl import` both go through here,
  so fixture data is written by the ledger's own write path and gets the
  same validation and normalization as API traffic.

JSON SCHEMA:
  {
    "id": "first-drop",
    "name": "First Drop",
    "owner": "demo-user",
    "stores": [
      {"id": "store-quimbys", "name": "Quimby's", "city": "Chicago", "country": "US"}
    ],
    "zines": [
      {
        "title": "Riso Dreams",
        "suggested_retail_price": "8.00",
        "batches": [
          {
            "store_id": "store-quimbys",
            "date_placed": "today-30",
            "copies_placed": 20,
            "split_percent": 60,
            "payment_mode": "consignment",
            "copies_sold": 12
          }
        ]
      }
    ]
  }

DATES:
  Either YYYY-MM-DD or relative to the load day: "today", "today-30",
  "today+14". Relative dates keep demo data current.

WHAT IS NOT CHECKED HERE:
  Field rules (split range, copies sold <= placed, ...) belong to the
  ledger. The factory only rejects documents it cannot convert at all:
  bad JSON, unparseable dates or prices.

USAGE:
  f := factory.NewFixtureFactory()
  fx, err := f.ParseFixture(data)
  result, err := f.Load(ctx, l, store, fx, "")

SEE ALSO:
  - scenarios.go: built-in fixture documents
  - ledger/ledger.go: CreateZine, CreateBatch
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/zine-ledger/ledger"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// Fixture is the JSON representation of a data set.
type Fixture struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Owner       string      `json:"owner,omitempty"` // default owner when the loader is given none
	Stores      []StoreJSON `json:"stores,omitempty"`
	Zines       []ZineJSON  `json:"zines"`
}

type StoreJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
}

type ZineJSON struct {
	Title                string      `json:"title"`
	Description          string      `json:"description,omitempty"`
	SuggestedRetailPrice *string     `json:"suggested_retail_price,omitempty"`
	Batches              []BatchJSON `json:"batches,omitempty"`
}

// BatchJSON mirrors the batch fields accepted by the API.
type BatchJSON struct {
	StoreID      string  `json:"store_id"`
	DatePlaced   string  `json:"date_placed"`
	CopiesPlaced int     `json:"copies_placed"`
	PricePerCopy *string `json:"price_per_copy,omitempty"` // unset: zine's suggested price
	SplitPercent *int    `json:"split_percent,omitempty"`
	PaymentMode  string  `json:"payment_mode"`
	Paid         bool    `json:"paid,omitempty"`
	CopiesSold   *int    `json:"copies_sold,omitempty"`
	Status       string  `json:"status,omitempty"`
	NextCheckin  *string `json:"next_checkin,omitempty"`
	LastUpdate   *string `json:"last_update,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// =============================================================================
// FIXTURE FACTORY
// =============================================================================

// FixtureFactory converts fixture JSON to ledger inputs.
type FixtureFactory struct {
	// Today anchors relative dates. Replaceable for deterministic tests.
	Today func() ledger.Date
}

func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{Today: ledger.Today}
}

// ParseFixture parses a JSON document into a Fixture.
func (f *FixtureFactory) ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture JSON: %w", err)
	}
	for i, s := range fx.Stores {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("store %d: id is required", i)
		}
	}
	return &fx, nil
}

// StoreFrom converts a store entry.
func (f *FixtureFactory) StoreFrom(sj StoreJSON) ledger.Store {
	return ledger.Store{
		ID:      ledger.StoreID(sj.ID),
		Name:    sj.Name,
		City:    sj.City,
		Region:  sj.Region,
		Country: sj.Country,
	}
}

// ZineFieldsFrom converts a zine entry, ignoring its batches.
func (f *FixtureFactory) ZineFieldsFrom(zj ZineJSON) (ledger.ZineFields, error) {
	price, err := parsePrice(zj.SuggestedRetailPrice)
	if err != nil {
		return ledger.ZineFields{}, fmt.Errorf("suggested_retail_price: %w", err)
	}
	return ledger.ZineFields{
		Title:                zj.Title,
		Description:          zj.Description,
		SuggestedRetailPrice: price,
	}, nil
}

// BatchFieldsFrom converts a batch entry. Unknown payment modes and
// statuses pass through untouched for the ledger to reject.
func (f *FixtureFactory) BatchFieldsFrom(bj BatchJSON) (ledger.StoreID, ledger.BatchFields, error) {
	var fields ledger.BatchFields

	if bj.DatePlaced != "" {
		d, err := f.ParseDate(bj.DatePlaced)
		if err != nil {
			return "", fields, fmt.Errorf("date_placed: %w", err)
		}
		fields.DatePlaced = d
	}
	price, err := parsePrice(bj.PricePerCopy)
	if err != nil {
		return "", fields, fmt.Errorf("price_per_copy: %w", err)
	}
	nextCheckin, err := f.parseDatePtr(bj.NextCheckin)
	if err != nil {
		return "", fields, fmt.Errorf("next_checkin: %w", err)
	}
	lastUpdate, err := f.parseDatePtr(bj.LastUpdate)
	if err != nil {
		return "", fields, fmt.Errorf("last_update: %w", err)
	}

	fields.CopiesPlaced = bj.CopiesPlaced
	fields.PricePerCopy = price
	fields.SplitPercent = bj.SplitPercent
	fields.PaymentMode = ledger.PaymentMode(bj.PaymentMode)
	fields.Paid = bj.Paid
	fields.CopiesSold = bj.CopiesSold
	fields.Status = ledger.Status(bj.Status)
	fields.NextCheckin = nextCheckin
	fields.LastUpdate = lastUpdate
	fields.Notes = bj.Notes
	return ledger.StoreID(bj.StoreID), fields, nil
}

// ParseDate accepts YYYY-MM-DD, "today", "today-N" and "today+N".
func (f *FixtureFactory) ParseDate(s string) (ledger.Date, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "today") {
		return ledger.ParseDate(s)
	}

	today := f.today()
	offset := strings.TrimPrefix(s, "today")
	if offset == "" {
		return today, nil
	}
	n, err := strconv.Atoi(offset)
	if err != nil || (offset[0] != '+' && offset[0] != '-') {
		return ledger.Date{}, fmt.Errorf("invalid relative date %q (use today, today-N or today+N)", s)
	}
	return today.AddDays(n), nil
}

func (f *FixtureFactory) parseDatePtr(s *string) (*ledger.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := f.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (f *FixtureFactory) today() ledger.Date {
	if f.Today == nil {
		return ledger.Today()
	}
	return f.Today()
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parsePrice(s *string) (decimal.NullDecimal, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid price %q", *s)
	}
	return ledger.PriceFromDecimal(d), nil
}
