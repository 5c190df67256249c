package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/backtest"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/repository"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/yahoo"
)

// SeriesCache stores fetched series between runs.
// Get returns apperrors.ErrCacheMiss when nothing usable is stored.
type SeriesCache interface {
	Get(ctx context.Context, key repository.CacheKey, dst any) error
	Put(ctx context.Context, key repository.CacheKey, value any, ttl time.Duration) error
}

// MarketData is the price and dividend history a backtest walks.
// Prices carry a close on every point, ascending and unique by date.
type MarketData struct {
	Symbol    string
	Currency  string
	Prices    []model.PricePoint
	Dividends []model.DividendEvent
}

// MarketDataService loads price and dividend history, reading through the
// series cache when one is configured.
type MarketDataService struct {
	client yahoo.Client
	cache  SeriesCache
	ttl    time.Duration
	log    zerolog.Logger
}

// NewMarketDataService creates a new MarketDataService. cache may be nil.
func NewMarketDataService(client yahoo.Client, cache SeriesCache, ttl time.Duration, log zerolog.Logger) *MarketDataService {
	return &MarketDataService{
		client: client,
		cache:  cache,
		ttl:    ttl,
		log:    log.With().Str("component", "market_data").Logger(),
	}
}

// Load fetches prices and dividends for symbol concurrently and waits for both.
// Any failure cancels the other fetch and is reported as apperrors.ErrDataUnavailable.
// An empty dividend history is not a failure.
func (s *MarketDataService) Load(ctx context.Context, symbol string, startDate, endDate time.Time) (MarketData, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	start, end := model.TruncateDay(startDate), model.TruncateDay(endDate)

	var prices model.PriceSeries
	var dividends model.DividendSeries

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prices, err = s.prices(gctx, symbol, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		dividends, err = s.dividends(gctx, symbol, start, end)
		return err
	})

	if err := g.Wait(); err != nil {
		return MarketData{}, fmt.Errorf("%w: %s: %w", apperrors.ErrDataUnavailable, symbol, err)
	}

	return MarketData{
		Symbol:    symbol,
		Currency:  prices.Currency,
		Prices:    backtest.NormalizePrices(prices.Points, start, end),
		Dividends: backtest.NormalizeDividends(dividends.Events),
	}, nil
}

func (s *MarketDataService) prices(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	key := repository.CacheKey{Symbol: symbol, Kind: repository.KindPrice, StartDate: start, EndDate: end}

	var series model.PriceSeries
	if s.fromCache(ctx, key, &series) {
		return series, nil
	}

	series, err := s.client.GetPriceHistory(ctx, symbol, start, end)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("price history: %w", err)
	}
	s.toCache(ctx, key, series)
	return series, nil
}

func (s *MarketDataService) dividends(ctx context.Context, symbol string, start, end time.Time) (model.DividendSeries, error) {
	key := repository.CacheKey{Symbol: symbol, Kind: repository.KindDividend, StartDate: start, EndDate: end}

	var series model.DividendSeries
	if s.fromCache(ctx, key, &series) {
		return series, nil
	}

	series, err := s.client.GetDividendHistory(ctx, symbol, start, end)
	if err != nil {
		return model.DividendSeries{}, fmt.Errorf("dividend history: %w", err)
	}
	s.toCache(ctx, key, series)
	return series, nil
}

// fromCache reports whether dst was filled from the cache. Cache faults are
// logged and treated as a miss.
func (s *MarketDataService) fromCache(ctx context.Context, key repository.CacheKey, dst any) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dst)
	switch {
	case err == nil:
		s.log.Debug().Str("key", key.String()).Msg("series cache hit")
		return true
	case errors.Is(err, apperrors.ErrCacheMiss):
		return false
	default:
		s.log.Warn().Err(err).Str("key", key.String()).Msg("series cache read failed")
		return false
	}
}

func (s *MarketDataService) toCache(ctx context.Context, key repository.CacheKey, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, key, value, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key.String()).Msg("series cache write failed")
	}
}
