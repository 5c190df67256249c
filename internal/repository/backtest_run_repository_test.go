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

func sampleReport(runID string, final float64) model.BacktestReport {
	return model.BacktestReport{
		RunID: runID,
		Request: model.BacktestRequest{
			Symbol:        "SPY",
			InitialAmount: 1000,
			StartDate:     testutil.Date(2024, 1, 1),
			EndDate:       testutil.Date(2024, 12, 31),
		},
		Result: model.BacktestResult{FinalValue: final, TotalInvested: 1000},
		History: []model.PortfolioHistoryPoint{
			{Date: testutil.Date(2024, 1, 2), Close: 100, Shares: 10, Value: 1000, Invested: 1000},
		},
		Dividends:   []model.DividendCashPoint{{Date: testutil.Date(2024, 3, 15), Amount: 12.5}},
		Skipped:     []model.SkippedPurchase{{Date: testutil.Date(2024, 2, 1), Kind: model.PurchaseContribution, Amount: 100}},
		CompletedAt: time.Date(2024, 12, 31, 18, 0, 0, 0, time.UTC),
	}
}

func TestBacktestRunRepository_SaveAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBacktestRunRepository(db)
	ctx := context.Background()

	runID := testutil.MakeID()
	require.NoError(t, repo.Save(ctx, "", 0, sampleReport(runID, 1100)))

	got, err := repo.GetByID(ctx, runID)
	require.NoError(t, err)

	assert.Equal(t, runID, got.RunID)
	assert.Equal(t, "SPY", got.Request.Symbol)
	assert.Equal(t, testutil.Date(2024, 1, 1), got.Request.StartDate)
	assert.InDelta(t, 1100, got.Result.FinalValue, 1e-12)
	require.Len(t, got.History, 1)
	assert.Equal(t, testutil.Date(2024, 1, 2), got.History[0].Date)
	require.Len(t, got.Dividends, 1)
	assert.Equal(t, testutil.Date(2024, 3, 15), got.Dividends[0].Date)
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, model.PurchaseContribution, got.Skipped[0].Kind)
	assert.Equal(t, time.Date(2024, 12, 31, 18, 0, 0, 0, time.UTC), got.CompletedAt)
}

func TestBacktestRunRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBacktestRunRepository(db)

	_, err := repo.GetByID(context.Background(), testutil.MakeID())
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
}

func TestBacktestRunRepository_LatestForSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBacktestRunRepository(db)
	ctx := context.Background()

	session := testutil.MakeID()
	other := testutil.MakeID()

	require.NoError(t, repo.Save(ctx, session, 1, sampleReport(testutil.MakeID(), 1)))
	require.NoError(t, repo.Save(ctx, session, 3, sampleReport(testutil.MakeID(), 3)))
	require.NoError(t, repo.Save(ctx, session, 2, sampleReport(testutil.MakeID(), 2)))
	require.NoError(t, repo.Save(ctx, other, 9, sampleReport(testutil.MakeID(), 9)))

	got, err := repo.LatestForSession(ctx, session)
	require.NoError(t, err)
	assert.InDelta(t, 3, got.Result.FinalValue, 1e-12)

	_, err = repo.LatestForSession(ctx, testutil.MakeID())
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}
