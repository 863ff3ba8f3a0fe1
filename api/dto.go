/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger's model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND PERCENTAGES:
  Always strings with two decimals ("57.60"), never JSON numbers, so
  clients never see float rounding. sell_through is null when no copies
  are out.

CLEARING NULLABLE FIELDS:
  JSON null and an absent key decode the same way, so updates that need to
  unset copies_sold, next_checkin or last_update use the explicit clear_*
  flags.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/fixture.go: BatchJSON, shared with fixture documents
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/zine-ledger/factory"
	"github.com/warp/zine-ledger/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateZineRequest struct {
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	SuggestedRetailPrice *string `json:"suggested_retail_price,omitempty"`
}

type UpdateZineRequest struct {
	Title                *string `json:"title,omitempty"`
	Description          *string `json:"description,omitempty"`
	SuggestedRetailPrice *string `json:"suggested_retail_price,omitempty"`
	ClearSuggestedPrice  bool    `json:"clear_suggested_price,omitempty"`
}

// CreateBatchRequest is a fixture batch entry; the zine comes from the path.
type CreateBatchRequest struct {
	factory.BatchJSON
}

// UpdateBatchRequest carries a partial update. zine_id, store_id and
// copies_placed are accepted so full-record echoes work, but must match.
type UpdateBatchRequest struct {
	ZineID       *string `json:"zine_id,omitempty"`
	StoreID      *string `json:"store_id,omitempty"`
	CopiesPlaced *int    `json:"copies_placed,omitempty"`

	DatePlaced   *string `json:"date_placed,omitempty"`
	PricePerCopy *string `json:"price_per_copy,omitempty"`
	SplitPercent *int    `json:"split_percent,omitempty"`
	PaymentMode  *string `json:"payment_mode,omitempty"`
	Paid         *bool   `json:"paid,omitempty"`
	CopiesSold   *int    `json:"copies_sold,omitempty"`
	Status       *string `json:"status,omitempty"`
	NextCheckin  *string `json:"next_checkin,omitempty"`
	LastUpdate   *string `json:"last_update,omitempty"`
	Notes        *string `json:"notes,omitempty"`

	ClearCopiesSold  bool `json:"clear_copies_sold,omitempty"`
	ClearNextCheckin bool `json:"clear_next_checkin,omitempty"`
	ClearLastUpdate  bool `json:"clear_last_update,omitempty"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ZineDTO struct {
	ID                   string    `json:"id"`
	Owner                string    `json:"owner"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	SuggestedRetailPrice *string   `json:"suggested_retail_price"`
	Permalink            string    `json:"permalink"`
	CreatedAt            time.Time `json:"created_at"`
}

type BatchDTO struct {
	ID           string       `json:"id"`
	ZineID       string       `json:"zine_id"`
	StoreID      string       `json:"store_id"`
	Owner        string       `json:"owner"`
	DatePlaced   ledger.Date  `json:"date_placed"`
	CopiesPlaced int          `json:"copies_placed"`
	PricePerCopy *string      `json:"price_per_copy"`
	SplitPercent *int         `json:"split_percent"`
	PaymentMode  string       `json:"payment_mode"`
	Paid         bool         `json:"paid"`
	CopiesSold   *int         `json:"copies_sold"`
	Status       string       `json:"status"`
	NextCheckin  *ledger.Date `json:"next_checkin"`
	LastUpdate   *ledger.Date `json:"last_update"`
	Notes        string       `json:"notes"`
	Earnings     *string      `json:"earnings"` // null when sold, price or split is unknown
	CreatedAt    time.Time    `json:"created_at"`
}

type StoreDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
}

// SummaryDTO is shared by zine and user stats.
type SummaryDTO struct {
	ActiveBatches int     `json:"active_batches"`
	CopiesOut     int     `json:"copies_out"`
	CopiesSold    int     `json:"copies_sold"`
	Earnings      string  `json:"earnings"`
	Revenue       string  `json:"revenue"`
	SellThrough   *string `json:"sell_through"`
}

type ZineStatsDTO struct {
	ZineID string `json:"zine_id"`
	SummaryDTO
	StockStatus string      `json:"stock_status"`
	Stores      []string    `json:"stores"`
	LastUpdate  ledger.Date `json:"last_update"`
}

type UserStatsDTO struct {
	Owner      string `json:"owner"`
	TotalZines int    `json:"total_zines"`
	SummaryDTO
}

type ZineCardDTO struct {
	Zine   ZineDTO      `json:"zine"`
	Stats  ZineStatsDTO `json:"stats"`
	Active []BatchDTO   `json:"active_batches"`
	Past   []BatchDTO   `json:"past_batches"`
}

type DashboardDTO struct {
	Stats UserStatsDTO  `json:"stats"`
	Zines []ZineCardDTO `json:"zines"`
}

type ScenarioDTO struct {
	factory.ScenarioInfo
	Current bool `json:"current"`
}

// ErrorResponse is the body of every non-2xx reply. Fields is set for
// validation failures only.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details string              `json:"details,omitempty"`
	Fields  []ledger.FieldError `json:"fields,omitempty"`
}

// =============================================================================
// CONVERSION
// =============================================================================

func ToZineDTO(z ledger.Zine) ZineDTO {
	return ZineDTO{
		ID:                   string(z.ID),
		Owner:                string(z.Owner),
		Title:                z.Title,
		Description:          z.Description,
		SuggestedRetailPrice: moneyPtr(z.SuggestedRetailPrice),
		Permalink:            z.Permalink,
		CreatedAt:            z.CreatedAt,
	}
}

func ToZineDTOs(zines []ledger.Zine) []ZineDTO {
	dtos := make([]ZineDTO, len(zines))
	for i, z := range zines {
		dtos[i] = ToZineDTO(z)
	}
	return dtos
}

func ToBatchDTO(b ledger.Batch) BatchDTO {
	dto := BatchDTO{
		ID:           string(b.ID),
		ZineID:       string(b.ZineID),
		StoreID:      string(b.StoreID),
		Owner:        string(b.Owner),
		DatePlaced:   b.DatePlaced,
		CopiesPlaced: b.CopiesPlaced,
		PricePerCopy: moneyPtr(b.PricePerCopy),
		SplitPercent: b.SplitPercent,
		PaymentMode:  string(b.PaymentMode),
		Paid:         b.Paid,
		CopiesSold:   b.CopiesSold,
		Status:       string(b.Status),
		NextCheckin:  b.NextCheckin,
		LastUpdate:   b.LastUpdate,
		Notes:        b.Notes,
		CreatedAt:    b.CreatedAt,
	}
	if earnings, ok := b.Earnings(); ok {
		s := money(earnings)
		dto.Earnings = &s
	}
	return dto
}

func ToBatchDTOs(batches []ledger.Batch) []BatchDTO {
	dtos := make([]BatchDTO, len(batches))
	for i, b := range batches {
		dtos[i] = ToBatchDTO(b)
	}
	return dtos
}

func ToStoreDTO(s ledger.Store) StoreDTO {
	return StoreDTO{
		ID:      string(s.ID),
		Name:    s.Name,
		City:    s.City,
		Region:  s.Region,
		Country: s.Country,
	}
}

func toSummaryDTO(s ledger.Summary) SummaryDTO {
	dto := SummaryDTO{
		ActiveBatches: s.ActiveBatches,
		CopiesOut:     s.CopiesOut,
		CopiesSold:    s.CopiesSold,
		Earnings:      money(s.Earnings),
		Revenue:       money(s.Revenue),
	}
	if s.HasSellThrough {
		pct := s.SellThrough.StringFixed(2)
		dto.SellThrough = &pct
	}
	return dto
}

func ToZineStatsDTO(s ledger.ZineStats) ZineStatsDTO {
	stores := make([]string, len(s.Stores))
	for i, id := range s.Stores {
		stores[i] = string(id)
	}
	return ZineStatsDTO{
		ZineID:      string(s.ZineID),
		SummaryDTO:  toSummaryDTO(s.Summary),
		StockStatus: string(s.StockStatus),
		Stores:      stores,
		LastUpdate:  s.LastUpdate,
	}
}

func ToUserStatsDTO(s ledger.UserStats) UserStatsDTO {
	return UserStatsDTO{
		Owner:      string(s.Owner),
		TotalZines: s.TotalZines,
		SummaryDTO: toSummaryDTO(s.Summary),
	}
}

func ToDashboardDTO(d ledger.Dashboard) DashboardDTO {
	cards := make([]ZineCardDTO, len(d.Zines))
	for i, c := range d.Zines {
		cards[i] = ZineCardDTO{
			Zine:   ToZineDTO(c.Zine),
			Stats:  ToZineStatsDTO(c.Stats),
			Active: ToBatchDTOs(c.Active),
			Past:   ToBatchDTOs(c.Past),
		}
	}
	return DashboardDTO{Stats: ToUserStatsDTO(d.Stats), Zines: cards}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyPtr(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}
