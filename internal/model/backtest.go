package model

import "time"

// BacktestRequest is the purchase intent for a single run.
// It is supplied once and never mutated while the run is in progress.
type BacktestRequest struct {
	Symbol            string
	InitialAmount     float64
	MonthlyAmount     float64
	StartDate         time.Time
	EndDate           time.Time
	ReinvestDividends bool
}

// PortfolioHistoryPoint is the portfolio valuation at the close of one trading day.
// Value always equals Shares*Close + Cash + PendingReinvestment. Close is the
// valuation price: the day's close, or the last valid close when the day's
// close was unusable. Invested is the external cash put to work that day
// (initial purchase and monthly contribution, never dividends).
// PendingReinvestment is dividend cash already earned but waiting for a usable
// close to be reinvested; it is zero on every valid-price day.
type PortfolioHistoryPoint struct {
	Date                time.Time
	Close               float64
	Shares              float64
	Cash                float64
	PendingReinvestment float64
	Value               float64
	Invested            float64
}

// DividendCashPoint is the dividend cash generated on one calendar day.
type DividendCashPoint struct {
	Date   time.Time
	Amount float64
}

// PurchaseKind identifies which path of the replay attempted a share purchase.
type PurchaseKind string

const (
	PurchaseInitial      PurchaseKind = "initial"
	PurchaseContribution PurchaseKind = "contribution"
	PurchaseReinvestment PurchaseKind = "reinvestment"
)

// SkippedPurchase records a purchase that could not execute on Date because the
// close was zero or invalid. The purchase is retried on the next valid-price day.
type SkippedPurchase struct {
	Date   time.Time
	Kind   PurchaseKind
	Amount float64
	Close  float64
}

// BacktestResult summarises a completed run.
type BacktestResult struct {
	InitialValue        float64
	FinalValue          float64
	TotalInvested       float64
	TotalReturnPct      float64
	AnnualizedReturnPct float64
	// AnnualizationApproximated is set when the calendar-year span used for
	// annualizing differs from the elapsed time: it was floored at one, or the
	// range is not a whole number of years.
	AnnualizationApproximated bool
	DividendsAccrued          float64
	TotalSharesFinal          float64
	ContributionsApplied      int
	MaxDrawdownPct            float64
	VolatilityPct             float64
}

// BacktestReport is everything a run hands to the presentation layer.
type BacktestReport struct {
	RunID     string
	Request   BacktestRequest
	Result    BacktestResult
	History   []PortfolioHistoryPoint
	Dividends []DividendCashPoint
	Skipped   []SkippedPurchase
	// CompletedAt is when the walk finished; zero for runs that never published.
	CompletedAt time.Time
}
