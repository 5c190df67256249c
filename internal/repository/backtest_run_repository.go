package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
)

// BacktestRunRepository persists published backtest reports.
type BacktestRunRepository struct {
	db *sql.DB
}

func NewBacktestRunRepository(db *sql.DB) *BacktestRunRepository {
	return &BacktestRunRepository{db: db}
}

// Save stores a report. sessionID may be empty for runs outside a session.
func (r *BacktestRunRepository) Save(ctx context.Context, sessionID string, generation uint64, report model.BacktestReport) error {
	payload, err := msgpack.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode backtest report: %w", err)
	}

	var session sql.NullString
	if sessionID != "" {
		session = sql.NullString{String: sessionID, Valid: true}
	}

	query := `
		INSERT INTO backtest_runs (id, session_id, generation, symbol, start_date, end_date, report, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		report.RunID,
		session,
		int64(generation),
		report.Request.Symbol,
		formatDate(report.Request.StartDate),
		formatDate(report.Request.EndDate),
		payload,
		formatTimestamp(report.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert backtest_runs: %w", err)
	}
	return nil
}

// GetByID returns the report stored under runID.
func (r *BacktestRunRepository) GetByID(ctx context.Context, runID string) (model.BacktestReport, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT report FROM backtest_runs WHERE id = ?`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BacktestReport{}, apperrors.ErrRunNotFound
	}
	if err != nil {
		return model.BacktestReport{}, fmt.Errorf("failed to query backtest_runs: %w", err)
	}
	return decodeReport(payload)
}

// LatestForSession returns the most recently published report of a session.
func (r *BacktestRunRepository) LatestForSession(ctx context.Context, sessionID string) (model.BacktestReport, error) {
	query := `
		SELECT report
		FROM backtest_runs
		WHERE session_id = ?
		ORDER BY completed_at DESC, generation DESC
		LIMIT 1
	`
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BacktestReport{}, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return model.BacktestReport{}, fmt.Errorf("failed to query backtest_runs: %w", err)
	}
	return decodeReport(payload)
}

// decodeReport unmarshals a stored report. msgpack restores timestamps in the
// local zone, so every time field is moved back to UTC.
func decodeReport(payload []byte) (model.BacktestReport, error) {
	var report model.BacktestReport
	if err := msgpack.Unmarshal(payload, &report); err != nil {
		return model.BacktestReport{}, fmt.Errorf("failed to decode backtest report: %w", err)
	}

	report.Request.StartDate = report.Request.StartDate.UTC()
	report.Request.EndDate = report.Request.EndDate.UTC()
	report.CompletedAt = report.CompletedAt.UTC()
	for i := range report.History {
		report.History[i].Date = report.History[i].Date.UTC()
	}
	for i := range report.Dividends {
		report.Dividends[i].Date = report.Dividends[i].Date.UTC()
	}
	for i := range report.Skipped {
		report.Skipped[i].Date = report.Skipped[i].Date.UTC()
	}
	return report, nil
}
