package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockboard/internal/model"
)

// Normalizer converts raw string fields into typed values. Coercion is
// lenient across the board: a value that fails to parse becomes zero, it
// never fails the row.
type Normalizer struct {
	// Now supplies the processing date used when a row carries no date.
	// Injected so tests can pin it.
	Now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Point builds a PricePoint from a parsed row. A missing Date falls back
// to the current processing date, not any date inside the file. That
// inherits the original feed's behavior and is kept for compatibility.
func (n *Normalizer) Point(row Row) model.PricePoint {
	date := row["Date"]
	if date == "" {
		date = n.Now().Format("2006-01-02")
	}

	return model.PricePoint{
		Date:   date,
		Open:   ToDecimal(row["OPEN"]),
		High:   ToDecimal(row["HIGH"]),
		Low:    ToDecimal(row["LOW"]),
		Close:  ToDecimal(row["close"]),
		Volume: ToVolume(row["VOLUME"]),
	}
}

// ToDecimal parses a decimal field, returning zero on any failure.
func ToDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ToVolume strips every non-digit rune (thousands separators, currency
// marks) before parsing, returning zero on failure.
func ToVolume(s string) int64 {
	digits := strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, s)

	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
