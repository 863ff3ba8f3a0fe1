package ledger

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ZINE - Catalog entry owned by one publisher
// =============================================================================

type Zine struct {
	ID          ZineID
	Owner       UserID
	Title       string
	Description string

	// SuggestedRetailPrice seeds PricePerCopy for new batches. The ledger
	// never writes it.
	SuggestedRetailPrice decimal.NullDecimal

	Permalink string
	CreatedAt time.Time
}

// Matches reports whether query appears in the title or description,
// ignoring case. An empty query matches everything.
func (z Zine) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(z.Title), q) ||
		strings.Contains(strings.ToLower(z.Description), q)
}

type ZineFields struct {
	Title                string
	Description          string
	SuggestedRetailPrice decimal.NullDecimal
}

type ZinePatch struct {
	Title                *string
	Description          *string
	SuggestedRetailPrice *decimal.Decimal
	ClearSuggestedPrice  bool
}

func (p ZinePatch) Apply(z Zine) Zine {
	if p.Title != nil {
		z.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		z.Description = strings.TrimSpace(*p.Description)
	}
	switch {
	case p.ClearSuggestedPrice:
		z.SuggestedRetailPrice = decimal.NullDecimal{}
	case p.SuggestedRetailPrice != nil:
		z.SuggestedRetailPrice = PriceFromDecimal(*p.SuggestedRetailPrice)
	}
	return z
}

func ValidateZine(z Zine) *ValidationError {
	verr := &ValidationError{}
	if strings.TrimSpace(z.Title) == "" {
		verr.add("title", "required", "is required")
	}
	if z.SuggestedRetailPrice.Valid && z.SuggestedRetailPrice.Decimal.IsNegative() {
		verr.add("suggested_retail_price", "gte", "must be at least 0")
	}
	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

// =============================================================================
// PERMALINK
// =============================================================================

const maxPermalinkLen = 50

var (
	permalinkStrip  = regexp.MustCompile(`[^a-z0-9\s-]`)
	permalinkSpaces = regexp.MustCompile(`\s+`)
	permalinkDashes = regexp.MustCompile(`-+`)
)

// Permalink derives a URL slug from a title: "Riso Dreams, Vol. 2!" becomes
// "riso-dreams-vol-2".
func Permalink(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = permalinkStrip.ReplaceAllString(s, "")
	s = permalinkSpaces.ReplaceAllString(s, "-")
	s = permalinkDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxPermalinkLen {
		s = strings.TrimRight(s[:maxPermalinkLen], "-")
	}
	return s
}
