package model

import (
	"math"
	"time"
)

// PricePoint is a single daily close for a symbol.
// Close is nil for days the provider reported without a settlement price
// (holidays, halts); such days are dropped before a backtest walks the series.
type PricePoint struct {
	Date  time.Time `json:"date" msgpack:"date"`
	Close *float64  `json:"close" msgpack:"close"`
}

// HasClose reports whether the provider supplied a close for this day.
func (p PricePoint) HasClose() bool {
	return p.Close != nil
}

// ValidClose returns the close price and whether it can be used to buy shares.
// A close that is missing, zero, negative or not finite cannot.
func (p PricePoint) ValidClose() (float64, bool) {
	if p.Close == nil {
		return 0, false
	}
	c := *p.Close
	if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
		return c, false
	}
	return c, true
}

// CloseOrZero returns the close price, or 0 when it is missing.
func (p PricePoint) CloseOrZero() float64 {
	if p.Close == nil {
		return 0
	}
	return *p.Close
}

// DividendEvent is a per-share cash entitlement for holders of the symbol as of ExDate.
type DividendEvent struct {
	ExDate         time.Time `json:"exDate" msgpack:"ex_date"`
	AmountPerShare float64   `json:"amountPerShare" msgpack:"amount_per_share"`
}

// PriceSeries is the provider output for one symbol and range.
type PriceSeries struct {
	Symbol   string       `json:"symbol" msgpack:"symbol"`
	Currency string       `json:"currency" msgpack:"currency"`
	Points   []PricePoint `json:"points" msgpack:"points"`
}

// DividendSeries is the provider output for one symbol and range. An empty
// Events slice is a valid result for symbols that never paid a dividend.
type DividendSeries struct {
	Symbol string          `json:"symbol" msgpack:"symbol"`
	Events []DividendEvent `json:"events" msgpack:"events"`
}

// TruncateDay drops the time component of t and returns midnight UTC of the same calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
