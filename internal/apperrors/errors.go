package apperrors

import "errors"

// Backtest run errors. Handlers map these onto HTTP status codes and the CLI
// onto exit messages, so every failure path of a run must wrap one of them.
var (
	// ErrDataUnavailable indicates that the price or dividend history could not be
	// fetched or the provider returned a payload that failed validation.
	ErrDataUnavailable = errors.New("error loading price data")

	// ErrInsufficientData indicates that fewer than two usable price points exist
	// in the requested range.
	ErrInsufficientData = errors.New("insufficient price data for the selected range")

	// ErrInvalidConfiguration indicates that the backtest inputs cannot produce a
	// meaningful run (nothing invested, inverted date range, negative amounts).
	ErrInvalidConfiguration = errors.New("invalid backtest configuration")

	// ErrStaleRun indicates that a newer run was started for the same session
	// before this one completed, so its result was discarded.
	ErrStaleRun = errors.New("backtest run superseded by a newer run")
)

// Lookup errors.
var (
	// ErrSessionNotFound indicates that no result has been published for a session yet.
	ErrSessionNotFound = errors.New("backtest session not found")

	// ErrRunNotFound indicates that no stored report exists for a run ID.
	ErrRunNotFound = errors.New("backtest run not found")

	// ErrCacheMiss indicates that no unexpired cache entry exists for a key.
	ErrCacheMiss = errors.New("cache miss")
)

// Validation errors for required fields.
var (
	ErrInvalidSymbol    = errors.New("symbol is required")
	ErrInvalidDate      = errors.New("date parameter is required")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrInvalidUUID      = errors.New("invalid UUID format")
)

// Operation failure errors.
var (
	ErrFailedToRunBacktest      = errors.New("failed to run backtest")
	ErrFailedToInvalidateCache  = errors.New("failed to invalidate cache")
	ErrFailedToGetVersionInfo   = errors.New("failed to get version information")
	ErrFailedToRetrieveBacktest = errors.New("failed to retrieve backtest result")
)
