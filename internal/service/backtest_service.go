package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/backtest"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/repository"
)

// BacktestService runs backtests: it validates the request, loads market data,
// replays it and stores the report.
type BacktestService struct {
	marketData *MarketDataService
	runRepo    *repository.BacktestRunRepository
	tracker    *RunTracker
	log        zerolog.Logger
	now        func() time.Time
}

// NewBacktestService creates a new BacktestService. runRepo may be nil, in
// which case reports are returned but not stored.
func NewBacktestService(
	marketData *MarketDataService,
	runRepo *repository.BacktestRunRepository,
	tracker *RunTracker,
	log zerolog.Logger,
) *BacktestService {
	return &BacktestService{
		marketData: marketData,
		runRepo:    runRepo,
		tracker:    tracker,
		log:        log.With().Str("component", "backtest").Logger(),
		now:        time.Now,
	}
}

// Run executes one backtest outside any session.
// Invalid inputs are rejected with apperrors.ErrInvalidConfiguration before
// any data is fetched.
func (s *BacktestService) Run(ctx context.Context, req model.BacktestRequest) (model.BacktestReport, error) {
	report, err := s.execute(ctx, req)
	if err != nil {
		return model.BacktestReport{}, err
	}
	if err := s.store(ctx, "", 0, report); err != nil {
		return model.BacktestReport{}, err
	}
	return report, nil
}

// RunInSession executes a backtest as the newest run of sessionID. Starting it
// cancels the session's in-flight run; if this run is itself superseded before
// it publishes, apperrors.ErrStaleRun is returned and its result is discarded.
func (s *BacktestService) RunInSession(ctx context.Context, sessionID string, req model.BacktestRequest) (model.BacktestReport, error) {
	runCtx, generation, release := s.tracker.Begin(ctx, sessionID)
	defer release()

	logger := s.log.With().Str("session", sessionID).Uint64("generation", generation).Logger()

	report, err := s.execute(runCtx, req)
	if err != nil {
		if !s.tracker.IsCurrent(sessionID, generation) {
			logger.Info().Msg("run superseded while loading")
			return model.BacktestReport{}, fmt.Errorf("%w: %w", apperrors.ErrStaleRun, err)
		}
		return model.BacktestReport{}, err
	}

	err = s.tracker.Publish(sessionID, generation, func() error {
		return s.store(ctx, sessionID, generation, report)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleRun) {
			logger.Info().Str("run_id", report.RunID).Msg("discarding superseded result")
		}
		return model.BacktestReport{}, err
	}
	return report, nil
}

// GetRun returns a stored report by run ID.
func (s *BacktestService) GetRun(ctx context.Context, runID string) (model.BacktestReport, error) {
	if s.runRepo == nil {
		return model.BacktestReport{}, apperrors.ErrRunNotFound
	}
	return s.runRepo.GetByID(ctx, runID)
}

// LatestForSession returns the newest report published for sessionID.
func (s *BacktestService) LatestForSession(ctx context.Context, sessionID string) (model.BacktestReport, error) {
	if s.runRepo == nil {
		return model.BacktestReport{}, apperrors.ErrSessionNotFound
	}
	return s.runRepo.LatestForSession(ctx, sessionID)
}

func (s *BacktestService) execute(ctx context.Context, req model.BacktestRequest) (model.BacktestReport, error) {
	if err := backtest.ValidateRequest(req); err != nil {
		return model.BacktestReport{}, err
	}

	started := s.now()
	data, err := s.marketData.Load(ctx, req.Symbol, req.StartDate, req.EndDate)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", req.Symbol).Msg("market data unavailable")
		return model.BacktestReport{}, err
	}

	req.Symbol = data.Symbol
	report, err := backtest.Run(req, data.Prices, data.Dividends)
	if err != nil {
		return model.BacktestReport{}, err
	}

	report.RunID = uuid.New().String()
	report.CompletedAt = s.now().UTC()

	s.log.Info().
		Str("run_id", report.RunID).
		Str("symbol", req.Symbol).
		Int("days", len(report.History)).
		Int("skipped", len(report.Skipped)).
		Float64("final_value", report.Result.FinalValue).
		Dur("duration", report.CompletedAt.Sub(started)).
		Msg("backtest completed")

	return report, nil
}

func (s *BacktestService) store(ctx context.Context, sessionID string, generation uint64, report model.BacktestReport) error {
	if s.runRepo == nil {
		return nil
	}
	if err := s.runRepo.Save(ctx, sessionID, generation, report); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToRunBacktest, err)
	}
	return nil
}
