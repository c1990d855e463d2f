package ingest

import (
	"github.com/shopspring/decimal"

	"stockboard/internal/model"
)

// SymbolExtractor decides which stock entity a row belongs to. The daily
// file format carries no per-row symbol column, so the default extractor
// maps every row to a single equity bucket; files that do carry symbols
// can plug in their own extractor without touching the aggregator.
type SymbolExtractor func(Row) (symbol, name string)

// DefaultSymbol assigns every row to the "EQ" entity.
func DefaultSymbol(Row) (string, string) {
	return "EQ", "Equity Stock"
}

var hundred = decimal.NewFromInt(100)

// Aggregator folds normalized rows into stock entities keyed by symbol,
// preserving first-seen symbol order and input order of price points.
//
// Summary fields (price, change, changePercent) are computed from the
// FIRST row seen for a symbol and never updated by later rows of the same
// upload; only the price list keeps growing. Inherited behavior, kept
// deliberately: dashboard consumers read the summary as "as of upload".
type Aggregator struct {
	extract SymbolExtractor
	norm    *Normalizer

	order  []string
	stocks map[string]*model.Stock
}

func NewAggregator(extract SymbolExtractor, norm *Normalizer) *Aggregator {
	if extract == nil {
		extract = DefaultSymbol
	}
	return &Aggregator{
		extract: extract,
		norm:    norm,
		stocks:  make(map[string]*model.Stock),
	}
}

// Add folds one row into its entity.
func (a *Aggregator) Add(row Row) {
	symbol, name := a.extract(row)

	st, ok := a.stocks[symbol]
	if !ok {
		st = a.newStock(symbol, name, row)
		a.stocks[symbol] = st
		a.order = append(a.order, symbol)
	}

	st.Prices = append(st.Prices, a.norm.Point(row))
}

// newStock freezes the summary fields from the entity's first row.
// changePercent is zero whenever previous close is zero or unparseable,
// never NaN or infinite.
func (a *Aggregator) newStock(symbol, name string, row Row) *model.Stock {
	closePrice := ToDecimal(row["close"])
	prevClose := ToDecimal(row["PREV. CLOSE"])

	change := closePrice.Sub(prevClose)
	changePercent := decimal.Zero
	if !prevClose.IsZero() {
		changePercent = change.Div(prevClose).Mul(hundred)
	}

	return &model.Stock{
		Symbol:        symbol,
		Name:          name,
		Price:         closePrice,
		Change:        change,
		ChangePercent: changePercent,
		Sector:        "Equity",
		MarketCap:     decimal.Zero,
	}
}

// Stocks returns the aggregated entities in first-seen order.
func (a *Aggregator) Stocks() []*model.Stock {
	out := make([]*model.Stock, 0, len(a.order))
	for _, symbol := range a.order {
		out = append(out, a.stocks[symbol])
	}
	return out
}
