package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/repository"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/service"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/yahoo"
)

// TestCacheTTL is the cache lifetime used by test services.
const TestCacheTTL = time.Hour

// NewTestMarketDataService returns a loader backed by the given client and the
// sqlite series cache in db.
func NewTestMarketDataService(t *testing.T, db *sql.DB, client yahoo.Client) *service.MarketDataService {
	t.Helper()

	return service.NewMarketDataService(
		client,
		repository.NewSeriesCacheRepository(db),
		TestCacheTTL,
		zerolog.Nop(),
	)
}

// NewTestBacktestService returns a fully wired BacktestService using client for market data.
func NewTestBacktestService(t *testing.T, db *sql.DB, client yahoo.Client) *service.BacktestService {
	t.Helper()

	return service.NewBacktestService(
		NewTestMarketDataService(t, db, client),
		repository.NewBacktestRunRepository(db),
		service.NewRunTracker(),
		zerolog.Nop(),
	)
}

func NewTestCacheService(t *testing.T, db *sql.DB) *service.CacheService {
	t.Helper()

	return service.NewCacheService(repository.NewSeriesCacheRepository(db), zerolog.Nop())
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a stock ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("AAPL")
//	// Returns: "AAPL1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
