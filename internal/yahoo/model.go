package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
// Every value that Yahoo may send as null is a pointer so the decoder can tell
// a missing close apart from a zero close.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata (currency, exchange, UTC offset)
//   - Chart.Result[].Timestamp: Unix timestamps for each data point
//   - Chart.Result[].Indicators: Price data arrays aligned with Timestamp
//   - Chart.Result[].Events: Corporate actions, only present when requested
//   - Chart.Error: Optional error object from Yahoo API
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the top-level chart envelope.
type Chart struct {
	Result []Result    `json:"result"`
	Error  *ChartError `json:"error"`
}

// ChartError is the error object Yahoo returns instead of a result, e.g. for unknown symbols.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Result is the chart data for one symbol.
type Result struct {
	Meta       Meta                `json:"meta"`
	Timestamp  []int64             `json:"timestamp"`
	Indicators IndicatorsContainer `json:"indicators"`
	Events     *Events             `json:"events,omitempty"`
}

// Meta holds symbol metadata.
// GmtOffset is the exchange's offset from UTC in seconds; timestamps are
// shifted by it before the calendar day is taken.
type Meta struct {
	Currency         string `json:"currency"`
	Symbol           string `json:"symbol"`
	ExchangeName     string `json:"exchangeName"`
	FullExchangeName string `json:"fullExchangeName"`
	LongName         string `json:"longName"`
	Shortname        string `json:"shortName"`
	GmtOffset        int64  `json:"gmtoffset"`
}

// IndicatorsContainer wraps the quote arrays.
type IndicatorsContainer struct {
	Quote []Quote `json:"quote"`
}

// Quote holds the OHLCV arrays. Each array is aligned with Result.Timestamp.
type Quote struct {
	Open   []*float64 `json:"open"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
}

// Events holds corporate actions keyed by the event's unix timestamp as a string.
type Events struct {
	Dividends map[string]DividendEntry `json:"dividends"`
}

// DividendEntry is one cash dividend.
type DividendEntry struct {
	Amount *float64 `json:"amount"`
	Date   int64    `json:"date"`
}

// PriceChart represents a parsed and validated price chart.
// Closes is aligned with Dates; a nil close marks a day without a settlement price.
type PriceChart struct {
	Currency         string
	Symbol           string
	ExchangeName     string
	FullExchangeName string
	LongName         string
	Shortname        string
	Dates            []time.Time
	Closes           []*float64
}
