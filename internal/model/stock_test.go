package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceHistoryColumnRoundTrip(t *testing.T) {
	h := PriceHistory{
		{Date: "01-Jan-2024", Open: decimal.RequireFromString("100"), Close: decimal.RequireFromString("104.5"), Volume: 500},
	}

	v, err := h.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var out PriceHistory
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d points, want 1", len(out))
	}
	if out[0].Date != "01-Jan-2024" || out[0].Volume != 500 {
		t.Errorf("point = %+v", out[0])
	}
	if !out[0].Close.Equal(h[0].Close) {
		t.Errorf("Close = %s, want %s", out[0].Close, h[0].Close)
	}
}

func TestPriceHistoryNilValue(t *testing.T) {
	var h PriceHistory

	v, err := h.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if v != "[]" {
		t.Errorf("Value() = %v, want empty JSON array", v)
	}

	var out PriceHistory
	if err := out.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error = %v", err)
	}
	if out != nil {
		t.Errorf("Scan(nil) = %+v, want nil", out)
	}
}
