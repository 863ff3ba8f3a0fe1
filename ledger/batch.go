/*
batch.go - The Batch entity and its write-time rules

PURPOSE:
  A Batch is one physical drop-off of copies of one zine at one store.
  CopiesPlaced records the drop-off event, not a running count, so it is
  fixed at creation together with the zine and the store.

WRITE-TIME RULES:
  1. ValidateBatch rejects malformed terms with a ValidationError
  2. NormalizeBatch applies the upfront rule: the publisher was paid for
     the whole run, so Paid is true and CopiesSold equals CopiesPlaced

  Both run on every create and update, before the store is touched.
  Nothing here runs on read; stored rows are already consistent.

NULLABLE TERMS:
  PricePerCopy and SplitPercent are nullable in the type so that rows
  imported from older data can still be read and aggregated. The write
  path requires them.
*/
package ledger

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// =============================================================================
// BATCH
// =============================================================================

type Batch struct {
	ID      BatchID
	ZineID  ZineID
	StoreID StoreID
	Owner   UserID

	DatePlaced   Date
	CopiesPlaced int
	PricePerCopy decimal.NullDecimal
	SplitPercent *int
	PaymentMode  PaymentMode
	Paid         bool
	CopiesSold   *int // nil while unknown
	Status       Status

	NextCheckin *Date // advisory only
	LastUpdate  *Date // when the record was last reconciled with the store
	Notes       string

	CreatedAt time.Time
}

func (b Batch) IsActive() bool { return b.Status.IsActive() }

// Earnings is the owner's share of sales for this batch alone.
// ok is false when sold count, price or split is unknown.
func (b Batch) Earnings() (amount decimal.Decimal, ok bool) {
	if b.CopiesSold == nil || !b.PricePerCopy.Valid || b.SplitPercent == nil {
		return decimal.Zero, false
	}
	share := decimal.NewFromInt(int64(*b.SplitPercent)).Div(hundred)
	return share.Mul(decimal.NewFromInt(int64(*b.CopiesSold))).Mul(b.PricePerCopy.Decimal), true
}

// Revenue is the retail value of copies sold, store share included.
func (b Batch) Revenue() (amount decimal.Decimal, ok bool) {
	if b.CopiesSold == nil || !b.PricePerCopy.Valid {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(int64(*b.CopiesSold)).Mul(b.PricePerCopy.Decimal), true
}

// =============================================================================
// CREATE INPUT
// =============================================================================

// BatchFields are the caller-supplied terms of a new batch.
type BatchFields struct {
	DatePlaced   Date
	CopiesPlaced int
	PricePerCopy decimal.NullDecimal // unset: falls back to the zine's suggested price
	SplitPercent *int
	PaymentMode  PaymentMode
	Paid         bool
	CopiesSold   *int
	Status       Status // empty: active
	NextCheckin  *Date
	LastUpdate   *Date
	Notes        string
}

func (f BatchFields) build(id BatchID, owner UserID, zineID ZineID, storeID StoreID, createdAt time.Time) Batch {
	status := f.Status
	if status == "" {
		status = StatusActive
	}
	return Batch{
		ID:           id,
		ZineID:       zineID,
		StoreID:      storeID,
		Owner:        owner,
		DatePlaced:   f.DatePlaced,
		CopiesPlaced: f.CopiesPlaced,
		PricePerCopy: f.PricePerCopy,
		SplitPercent: copyInt(f.SplitPercent),
		PaymentMode:  f.PaymentMode,
		Paid:         f.Paid,
		CopiesSold:   copyInt(f.CopiesSold),
		Status:       status,
		NextCheckin:  f.NextCheckin,
		LastUpdate:   f.LastUpdate,
		Notes:        f.Notes,
		CreatedAt:    createdAt,
	}
}

// =============================================================================
// UPDATE INPUT
// =============================================================================

// BatchPatch carries a partial update. Nil fields are left unchanged.
//
// ZineID, StoreID and CopiesPlaced are write-once. They are accepted here
// only so that clients echoing the full record back do not fail; a value
// different from the stored one is rejected.
type BatchPatch struct {
	ZineID       *ZineID
	StoreID      *StoreID
	CopiesPlaced *int

	DatePlaced   *Date
	PricePerCopy *decimal.Decimal
	SplitPercent *int
	PaymentMode  *PaymentMode
	Paid         *bool
	CopiesSold   *int
	Status       *Status
	NextCheckin  *Date
	LastUpdate   *Date
	Notes        *string

	ClearCopiesSold  bool
	ClearNextCheckin bool
	ClearLastUpdate  bool
}

// Apply returns b with the patch applied. Attempts to change a write-once
// field are reported and leave that field untouched.
func (p BatchPatch) Apply(b Batch) (Batch, *ValidationError) {
	verr := &ValidationError{}
	if p.ZineID != nil && *p.ZineID != b.ZineID {
		verr.add("zine_id", "immutable", "zine cannot change; delete and recreate the batch")
	}
	if p.StoreID != nil && *p.StoreID != b.StoreID {
		verr.add("store_id", "immutable", "store cannot change; delete and recreate the batch")
	}
	if p.CopiesPlaced != nil && *p.CopiesPlaced != b.CopiesPlaced {
		verr.add("copies_placed", "immutable", "copies placed is fixed at drop-off")
	}

	if p.DatePlaced != nil {
		b.DatePlaced = *p.DatePlaced
	}
	if p.PricePerCopy != nil {
		b.PricePerCopy = PriceFromDecimal(*p.PricePerCopy)
	}
	if p.SplitPercent != nil {
		b.SplitPercent = copyInt(p.SplitPercent)
	}
	if p.PaymentMode != nil {
		b.PaymentMode = *p.PaymentMode
	}
	if p.Paid != nil {
		b.Paid = *p.Paid
	}
	switch {
	case p.ClearCopiesSold:
		b.CopiesSold = nil
	case p.CopiesSold != nil:
		b.CopiesSold = copyInt(p.CopiesSold)
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	switch {
	case p.ClearNextCheckin:
		b.NextCheckin = nil
	case p.NextCheckin != nil:
		d := *p.NextCheckin
		b.NextCheckin = &d
	}
	switch {
	case p.ClearLastUpdate:
		b.LastUpdate = nil
	case p.LastUpdate != nil:
		d := *p.LastUpdate
		b.LastUpdate = &d
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}

	if len(verr.Fields) == 0 {
		return b, nil
	}
	return b, verr
}

// =============================================================================
// VALIDATION
// =============================================================================

// batchRules is the tagged view of a Batch checked by the validator.
// Decimal terms are checked by hand in ValidateBatch.
type batchRules struct {
	DatePlaced   string `json:"date_placed" validate:"required"`
	CopiesPlaced int    `json:"copies_placed" validate:"gt=0"`
	CopiesSold   *int   `json:"copies_sold" validate:"omitempty,gte=0,ltefield=CopiesPlaced"`
	SplitPercent *int   `json:"split_percent" validate:"required,gte=0,lte=100"`
	PaymentMode  string `json:"payment_mode" validate:"required,oneof=upfront consignment"`
	Status       string `json:"status" validate:"required,oneof=active sold-out picked-up unknown"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func rulesValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

var ruleMessages = map[string]string{
	"required": "is required",
	"gt":       "must be greater than %s",
	"gte":      "must be at least %s",
	"lte":      "must be at most %s",
	"ltefield": "cannot exceed copies placed",
	"oneof":    "must be one of: %s",
}

// ValidateBatch checks the terms of b. It does not check references
// (zine, store) or ownership; the Ledger does that with its stores.
func ValidateBatch(b Batch) *ValidationError {
	verr := &ValidationError{}

	rules := batchRules{
		DatePlaced:   b.DatePlaced.String(),
		CopiesPlaced: b.CopiesPlaced,
		CopiesSold:   b.CopiesSold,
		SplitPercent: b.SplitPercent,
		PaymentMode:  string(b.PaymentMode),
		Status:       string(b.Status),
	}
	if err := rulesValidator().Struct(rules); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				verr.add(fe.Field(), fe.Tag(), ruleMessage(fe))
			}
		} else {
			verr.add("batch", "invalid", err.Error())
		}
	}

	switch {
	case !b.PricePerCopy.Valid:
		verr.add("price_per_copy", "required", "is required")
	case b.PricePerCopy.Decimal.IsNegative():
		verr.add("price_per_copy", "gte", "must be at least 0")
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

func ruleMessage(fe validator.FieldError) string {
	msg, ok := ruleMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		return strings.Replace(msg, "%s", fe.Param(), 1)
	}
	return msg
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizeBatch enforces the upfront rule in place: the store paid for the
// whole run, so the batch is paid and counts every copy as sold.
func NormalizeBatch(b *Batch) {
	if b.PaymentMode != Upfront {
		return
	}
	b.Paid = true
	b.CopiesSold = IntPtr(b.CopiesPlaced)
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	return IntPtr(*p)
}
