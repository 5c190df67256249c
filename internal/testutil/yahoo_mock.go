package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
)

// MockYahooClient is a mock implementation of yahoo.Client for testing.
// It returns predefined series instead of making actual API calls and is
// safe for the concurrent price and dividend fetches of a run.
type MockYahooClient struct {
	mu sync.Mutex

	// Prices is returned from GetPriceHistory
	Prices model.PriceSeries
	// Dividends is returned from GetDividendHistory
	Dividends model.DividendSeries
	// PriceError is returned from GetPriceHistory when set
	PriceError error
	// DividendError is returned from GetDividendHistory when set
	DividendError error
	// Gate, when set, blocks every call until it is closed or the context ends.
	Gate chan struct{}

	priceCalls    int
	dividendCalls int
}

// NewMockYahooClient creates a new mock Yahoo client returning 30 weekdays of
// prices from 2024-01-01 and no dividends.
func NewMockYahooClient() *MockYahooClient {
	return &MockYahooClient{
		Prices:    NewPriceSeries("TEST").Weekdays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 30, 100).Build(),
		Dividends: model.DividendSeries{Symbol: "TEST", Events: []model.DividendEvent{}},
	}
}

// GetPriceHistory returns the configured price series or error.
func (m *MockYahooClient) GetPriceHistory(ctx context.Context, symbol string, _, _ time.Time) (model.PriceSeries, error) {
	m.mu.Lock()
	m.priceCalls++
	gate := m.Gate
	m.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return model.PriceSeries{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PriceError != nil {
		return model.PriceSeries{}, m.PriceError
	}
	series := m.Prices
	series.Symbol = symbol
	return series, nil
}

// GetDividendHistory returns the configured dividend series or error.
func (m *MockYahooClient) GetDividendHistory(ctx context.Context, symbol string, _, _ time.Time) (model.DividendSeries, error) {
	m.mu.Lock()
	m.dividendCalls++
	gate := m.Gate
	m.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return model.DividendSeries{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DividendError != nil {
		return model.DividendSeries{}, m.DividendError
	}
	series := m.Dividends
	series.Symbol = symbol
	return series, nil
}

// PriceCalls returns how many times GetPriceHistory was called.
func (m *MockYahooClient) PriceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.priceCalls
}

// DividendCalls returns how many times GetDividendHistory was called.
func (m *MockYahooClient) DividendCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dividendCalls
}

// WithPrices configures the mock to return the specified price series.
func (m *MockYahooClient) WithPrices(series model.PriceSeries) *MockYahooClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prices = series
	return m
}

// WithDividends configures the mock to return the specified dividend series.
func (m *MockYahooClient) WithDividends(series model.DividendSeries) *MockYahooClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dividends = series
	return m
}

// WithError configures both queries to return err.
func (m *MockYahooClient) WithError(err error) *MockYahooClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PriceError = err
	m.DividendError = err
	return m
}

// WithDividendError configures only the dividend query to fail.
func (m *MockYahooClient) WithDividendError(err error) *MockYahooClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DividendError = err
	return m
}

// WithGate makes every call block until the returned channel is closed.
func (m *MockYahooClient) WithGate() chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gate = make(chan struct{})
	return m.Gate
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return ctx.Err()
	}
	select {
	case <-gate:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
