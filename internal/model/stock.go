package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily open/high/low/close/volume observation.
// It is never mutated after being appended to a stock's history.
type PricePoint struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// PriceHistory is stored as a single JSON document column so an upsert
// replaces the whole history atomically.
type PriceHistory []PricePoint

func (h PriceHistory) Value() (driver.Value, error) {
	if h == nil {
		h = PriceHistory{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *PriceHistory) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*h = nil
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("unsupported price history column type %T", value)
	}
}

// Stock is the persisted record for one market symbol: the summary fields
// shown on the dashboard plus the full price history of the latest upload.
// Symbol is the natural key; writes go through an upsert keyed on it.
type Stock struct {
	Symbol        string          `gorm:"column:symbol;primaryKey" json:"symbol"`
	Name          string          `gorm:"column:name" json:"name"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(18,4)" json:"price"`
	Change        decimal.Decimal `gorm:"column:change;type:decimal(18,4)" json:"change"`
	ChangePercent decimal.Decimal `gorm:"column:change_percent;type:decimal(18,4)" json:"changePercent"`
	Sector        string          `gorm:"column:sector" json:"sector"`
	MarketCap     decimal.Decimal `gorm:"column:market_cap;type:decimal(18,4)" json:"marketCap"`
	Prices        PriceHistory    `gorm:"column:prices;type:text" json:"prices"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Stock) TableName() string {
	return "stock"
}
