package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/repository"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/testutil"
)

func priceKey(symbol string) repository.CacheKey {
	return repository.CacheKey{
		Symbol:    symbol,
		Kind:      repository.KindPrice,
		StartDate: testutil.Date(2024, 1, 1),
		EndDate:   testutil.Date(2024, 1, 31),
	}
}

func TestCacheKey_String(t *testing.T) {
	assert.Equal(t, "SPY|price|2024-01-01|2024-01-31", priceKey("spy").String())
}

// TestSeriesCacheRepository_RoundTrip tests storing and loading a series.
//
// WHY: The cache replaces repeat provider calls; a series read back must carry
// the same closes and dates, including days without a close.
func TestSeriesCacheRepository_RoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSeriesCacheRepository(db)
	ctx := context.Background()

	series := testutil.NewPriceSeries("SPY").
		WithClose(testutil.Date(2024, 1, 2), 472.65).
		WithMissingClose(testutil.Date(2024, 1, 3)).
		WithClose(testutil.Date(2024, 1, 4), 467.28).
		Build()

	require.NoError(t, repo.Put(ctx, priceKey("SPY"), series, time.Hour))

	var got model.PriceSeries
	require.NoError(t, repo.Get(ctx, priceKey("SPY"), &got))

	assert.Equal(t, "SPY", got.Symbol)
	assert.Equal(t, "USD", got.Currency)
	require.Len(t, got.Points, 3)
	assert.True(t, series.Points[0].Date.Equal(got.Points[0].Date))
	assert.InDelta(t, 472.65, *got.Points[0].Close, 1e-12)
	assert.Nil(t, got.Points[1].Close)
	assert.InDelta(t, 467.28, *got.Points[2].Close, 1e-12)
}

func TestSeriesCacheRepository_Miss(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSeriesCacheRepository(db)

	var got model.PriceSeries
	err := repo.Get(context.Background(), priceKey("SPY"), &got)
	assert.ErrorIs(t, err, apperrors.ErrCacheMiss)
}

func TestSeriesCacheRepository_Expiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSeriesCacheRepository(db)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return now })

	require.NoError(t, repo.Put(ctx, priceKey("SPY"), testutil.NewPriceSeries("SPY").Build(), time.Hour))

	var got model.PriceSeries
	require.NoError(t, repo.Get(ctx, priceKey("SPY"), &got))

	now = now.Add(time.Hour)
	assert.ErrorIs(t, repo.Get(ctx, priceKey("SPY"), &got), apperrors.ErrCacheMiss)

	removed, err := repo.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	testutil.AssertRowCount(t, db, "series_cache", 0)
}

func TestSeriesCacheRepository_PutReplaces(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSeriesCacheRepository(db)
	ctx := context.Background()

	first := testutil.NewPriceSeries("SPY").WithClose(testutil.Date(2024, 1, 2), 1).Build()
	second := testutil.NewPriceSeries("SPY").WithClose(testutil.Date(2024, 1, 2), 2).Build()

	require.NoError(t, repo.Put(ctx, priceKey("SPY"), first, time.Hour))
	require.NoError(t, repo.Put(ctx, priceKey("SPY"), second, time.Hour))

	testutil.AssertRowCount(t, db, "series_cache", 1)

	var got model.PriceSeries
	require.NoError(t, repo.Get(ctx, priceKey("SPY"), &got))
	assert.InDelta(t, 2, *got.Points[0].Close, 1e-12)
}

func TestSeriesCacheRepository_Invalidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSeriesCacheRepository(db)
	ctx := context.Background()

	divKey := priceKey("SPY")
	divKey.Kind = repository.KindDividend

	require.NoError(t, repo.Put(ctx, priceKey("SPY"), testutil.NewPriceSeries("SPY").Build(), time.Hour))
	require.NoError(t, repo.Put(ctx, divKey, testutil.NewDividendSeries("SPY"), time.Hour))
	require.NoError(t, repo.Put(ctx, priceKey("VTI"), testutil.NewPriceSeries("VTI").Build(), time.Hour))

	removed, err := repo.Invalidate(ctx, "spy")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
