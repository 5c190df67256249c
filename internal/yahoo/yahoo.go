package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
)

// DefaultBaseURL is the Yahoo Finance chart endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// ErrMalformedResponse indicates that Yahoo answered, but the payload does not
// have the shape the decoder requires.
var ErrMalformedResponse = errors.New("malformed yahoo response")

// Client is the market-data contract the backtest loader depends on.
// An empty series is a valid answer; an error means the provider was
// unreachable or sent something that failed validation.
type Client interface {
	GetPriceHistory(ctx context.Context, symbol string, startDate, endDate time.Time) (model.PriceSeries, error)
	GetDividendHistory(ctx context.Context, symbol string, startDate, endDate time.Time) (model.DividendSeries, error)
}

// FinanceClient provides methods for fetching financial data from Yahoo Finance API.
// It wraps an HTTP client and provides convenient methods for querying daily
// closes and dividend events.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewFinanceClient creates a new Yahoo Finance client.
// An empty baseURL selects DefaultBaseURL; a zero timeout leaves requests bounded
// only by the caller's context.
func NewFinanceClient(baseURL string, timeout time.Duration) *FinanceClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FinanceClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// GetPriceHistory fetches and validates the daily closes for symbol between
// startDate and endDate, both inclusive.
func (c *FinanceClient) GetPriceHistory(ctx context.Context, symbol string, startDate, endDate time.Time) (model.PriceSeries, error) {
	raw, err := c.QueryYahooSymbolByDateRange(ctx, symbol, startDate, endDate)
	if err != nil {
		return model.PriceSeries{}, err
	}
	chart, err := c.ParseChart(raw)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("price history for %s: %w", symbol, err)
	}

	points := make([]model.PricePoint, len(chart.Dates))
	for i, d := range chart.Dates {
		points[i] = model.PricePoint{Date: d, Close: chart.Closes[i]}
	}

	return model.PriceSeries{
		Symbol:   symbol,
		Currency: chart.Currency,
		Points:   points,
	}, nil
}

// GetDividendHistory fetches and validates the dividend events for symbol
// between startDate and endDate, both inclusive.
func (c *FinanceClient) GetDividendHistory(ctx context.Context, symbol string, startDate, endDate time.Time) (model.DividendSeries, error) {
	raw, err := c.QueryYahooDividendsByDateRange(ctx, symbol, startDate, endDate)
	if err != nil {
		return model.DividendSeries{}, err
	}
	events, err := c.ParseDividends(raw)
	if err != nil {
		return model.DividendSeries{}, fmt.Errorf("dividend history for %s: %w", symbol, err)
	}
	return model.DividendSeries{Symbol: symbol, Events: events}, nil
}

// ParseChart converts a raw Yahoo Finance API response into a validated price chart.
//
// The method performs validation to ensure:
//   - Exactly one result is present
//   - Quote data is present whenever timestamps are
//   - The close array has the same length as the timestamp array
//   - No close price is negative
//
// A result without timestamps is a valid, empty chart. Null closes are kept
// as nil so the caller decides how to treat non-trading days.
func (c *FinanceClient) ParseChart(yahooResult Response) (PriceChart, error) {
	result, err := singleResult(yahooResult)
	if err != nil {
		return PriceChart{}, err
	}

	chart := PriceChart{
		Symbol:           result.Meta.Symbol,
		Currency:         result.Meta.Currency,
		ExchangeName:     result.Meta.ExchangeName,
		FullExchangeName: result.Meta.FullExchangeName,
		LongName:         result.Meta.LongName,
		Shortname:        result.Meta.Shortname,
	}

	if len(result.Timestamp) == 0 {
		return chart, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return PriceChart{}, fmt.Errorf("%w: no quote data for %d timestamps", ErrMalformedResponse, len(result.Timestamp))
	}

	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return PriceChart{}, fmt.Errorf("%w: %d closes for %d timestamps", ErrMalformedResponse, len(closes), len(result.Timestamp))
	}

	chart.Dates = make([]time.Time, len(result.Timestamp))
	chart.Closes = make([]*float64, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if closes[i] != nil && *closes[i] < 0 {
			return PriceChart{}, fmt.Errorf("%w: negative close %f at %d", ErrMalformedResponse, *closes[i], ts)
		}
		chart.Dates[i] = exchangeDay(ts, result.Meta.GmtOffset)
		chart.Closes[i] = closes[i]
	}

	return chart, nil
}

// ParseDividends extracts dividend events from a response requested with
// events=div. A result without an events block means no dividends were paid.
// Events are returned in ascending ex-date order.
func (c *FinanceClient) ParseDividends(yahooResult Response) ([]model.DividendEvent, error) {
	result, err := singleResult(yahooResult)
	if err != nil {
		return nil, err
	}
	if result.Events == nil || len(result.Events.Dividends) == 0 {
		return []model.DividendEvent{}, nil
	}

	events := make([]model.DividendEvent, 0, len(result.Events.Dividends))
	for key, entry := range result.Events.Dividends {
		if entry.Amount == nil || *entry.Amount < 0 {
			return nil, fmt.Errorf("%w: dividend %s has no valid amount", ErrMalformedResponse, key)
		}
		ts := entry.Date
		if ts == 0 {
			parsed, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: dividend key %q is not a timestamp", ErrMalformedResponse, key)
			}
			ts = parsed
		}
		events = append(events, model.DividendEvent{
			ExDate:         exchangeDay(ts, result.Meta.GmtOffset),
			AmountPerShare: *entry.Amount,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].ExDate.Before(events[j].ExDate)
	})
	return events, nil
}

// QueryYahooSymbolByDateRange fetches daily price data for a symbol within a specific date range.
// The method uses Yahoo Finance's period-based query format with Unix timestamps.
// endDate is inclusive: period2 is set to the start of the following day.
func (c *FinanceClient) QueryYahooSymbolByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error) {
	return c.queryYahoo(ctx, c.rangeURL(symbol, startDate, endDate, false))
}

// QueryYahooDividendsByDateRange fetches the dividend events for a symbol within a specific date range.
func (c *FinanceClient) QueryYahooDividendsByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error) {
	return c.queryYahoo(ctx, c.rangeURL(symbol, startDate, endDate, true))
}

func (c *FinanceClient) rangeURL(symbol string, startDate, endDate time.Time, dividends bool) string {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", strconv.FormatInt(model.TruncateDay(startDate).Unix(), 10))
	q.Set("period2", strconv.FormatInt(model.TruncateDay(endDate).AddDate(0, 0, 1).Unix(), 10))
	if dividends {
		q.Set("events", "div")
	}
	return fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())
}

// queryYahoo is an internal helper that executes HTTP requests to Yahoo Finance API.
// This method handles the common logic for making requests, reading responses,
// parsing JSON, and checking for API errors.
//
// The method sets required headers:
//   - User-Agent: Mimics a browser to avoid API blocking
//   - Accept: Requests JSON response format
func (c *FinanceClient) queryYahoo(ctx context.Context, endpoint string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		if resp.StatusCode != http.StatusOK {
			return Response{}, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
		}
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s: %s", response.Chart.Error.Code, response.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return response, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	return response, nil
}

func singleResult(r Response) (Result, error) {
	if r.Chart.Error != nil {
		return Result{}, fmt.Errorf("yahoo error: %s: %s", r.Chart.Error.Code, r.Chart.Error.Description)
	}
	if len(r.Chart.Result) != 1 {
		return Result{}, fmt.Errorf("%w: expected 1 result, got %d", ErrMalformedResponse, len(r.Chart.Result))
	}
	return r.Chart.Result[0], nil
}

// exchangeDay converts a Yahoo timestamp to the calendar day at the exchange.
func exchangeDay(ts, gmtOffset int64) time.Time {
	return model.TruncateDay(time.Unix(ts+gmtOffset, 0))
}
