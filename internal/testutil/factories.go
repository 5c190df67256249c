package testutil

import (
	"time"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
)

// PriceSeriesBuilder provides a fluent interface for building price series.
type PriceSeriesBuilder struct {
	series model.PriceSeries
}

// NewPriceSeries creates an empty USD series builder for symbol.
func NewPriceSeries(symbol string) *PriceSeriesBuilder {
	return &PriceSeriesBuilder{
		series: model.PriceSeries{
			Symbol:   symbol,
			Currency: "USD",
			Points:   []model.PricePoint{},
		},
	}
}

// WithClose appends a day with the given close.
func (b *PriceSeriesBuilder) WithClose(date time.Time, price float64) *PriceSeriesBuilder {
	b.series.Points = append(b.series.Points, model.PricePoint{Date: date, Close: model.Float64Ptr(price)})
	return b
}

// WithMissingClose appends a day without a close.
func (b *PriceSeriesBuilder) WithMissingClose(date time.Time) *PriceSeriesBuilder {
	b.series.Points = append(b.series.Points, model.PricePoint{Date: date})
	return b
}

// Weekdays appends n consecutive weekdays starting at start, all closing at price.
func (b *PriceSeriesBuilder) Weekdays(start time.Time, n int, price float64) *PriceSeriesBuilder {
	day := start
	for added := 0; added < n; day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		b.WithClose(day, price)
		added++
	}
	return b
}

// Build returns the series.
func (b *PriceSeriesBuilder) Build() model.PriceSeries {
	return b.series
}

// NewDividendSeries builds a dividend series from events.
func NewDividendSeries(symbol string, events ...model.DividendEvent) model.DividendSeries {
	if events == nil {
		events = []model.DividendEvent{}
	}
	return model.DividendSeries{Symbol: symbol, Events: events}
}

// Dividend returns a dividend event paying amount per share on exDate.
func Dividend(exDate time.Time, amount float64) model.DividendEvent {
	return model.DividendEvent{ExDate: exDate, AmountPerShare: amount}
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
