package response

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
)

// Decimal places used when presenting values.
const (
	moneyPlaces   = 2
	percentPlaces = 4
	sharePlaces   = 6
	pricePlaces   = 4
)

// BacktestResponse is the JSON form of a backtest report.
type BacktestResponse struct {
	RunID             string                    `json:"runId"`
	Symbol            string                    `json:"symbol"`
	StartDate         string                    `json:"startDate"`
	EndDate           string                    `json:"endDate"`
	InitialAmount     float64                   `json:"initialAmount"`
	MonthlyAmount     float64                   `json:"monthlyAmount"`
	ReinvestDividends bool                      `json:"reinvestDividends"`
	Result            ResultResponse            `json:"result"`
	History           []HistoryPointResponse    `json:"history"`
	Dividends         []DividendPointResponse   `json:"dividends"`
	Skipped           []SkippedPurchaseResponse `json:"skipped"`
	CompletedAt       time.Time                 `json:"completedAt"`
}

// ResultResponse is the JSON form of the summary metrics.
type ResultResponse struct {
	InitialValue              float64 `json:"initialValue"`
	FinalValue                float64 `json:"finalValue"`
	TotalInvested             float64 `json:"totalInvested"`
	TotalReturnPct            float64 `json:"totalReturnPct"`
	AnnualizedReturnPct       float64 `json:"annualizedReturnPct"`
	AnnualizationApproximated bool    `json:"annualizationApproximated"`
	DividendsAccrued          float64 `json:"dividendsAccrued"`
	TotalSharesFinal          float64 `json:"totalSharesFinal"`
	ContributionsApplied      int     `json:"contributionsApplied"`
	MaxDrawdownPct            float64 `json:"maxDrawdownPct"`
	VolatilityPct             float64 `json:"volatilityPct"`
}

// HistoryPointResponse is one day of the portfolio value series.
type HistoryPointResponse struct {
	Date                string  `json:"date"`
	Close               float64 `json:"close"`
	Shares              float64 `json:"shares"`
	Cash                float64 `json:"cash"`
	PendingReinvestment float64 `json:"pendingReinvestment,omitempty"`
	Value               float64 `json:"value"`
}

// DividendPointResponse is the dividend cash generated on one date.
type DividendPointResponse struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// SkippedPurchaseResponse is a purchase deferred because the close was unusable.
type SkippedPurchaseResponse struct {
	Date   string  `json:"date"`
	Kind   string  `json:"kind"`
	Amount float64 `json:"amount"`
}

// NewBacktestResponse rounds a report for presentation. Calculations always
// run on the unrounded values.
func NewBacktestResponse(report model.BacktestReport) BacktestResponse {
	res := report.Result
	out := BacktestResponse{
		RunID:             report.RunID,
		Symbol:            report.Request.Symbol,
		StartDate:         formatDate(report.Request.StartDate),
		EndDate:           formatDate(report.Request.EndDate),
		InitialAmount:     round(report.Request.InitialAmount, moneyPlaces),
		MonthlyAmount:     round(report.Request.MonthlyAmount, moneyPlaces),
		ReinvestDividends: report.Request.ReinvestDividends,
		Result: ResultResponse{
			InitialValue:              round(res.InitialValue, moneyPlaces),
			FinalValue:                round(res.FinalValue, moneyPlaces),
			TotalInvested:             round(res.TotalInvested, moneyPlaces),
			TotalReturnPct:            round(res.TotalReturnPct, percentPlaces),
			AnnualizedReturnPct:       round(res.AnnualizedReturnPct, percentPlaces),
			AnnualizationApproximated: res.AnnualizationApproximated,
			DividendsAccrued:          round(res.DividendsAccrued, moneyPlaces),
			TotalSharesFinal:          round(res.TotalSharesFinal, sharePlaces),
			ContributionsApplied:      res.ContributionsApplied,
			MaxDrawdownPct:            round(res.MaxDrawdownPct, percentPlaces),
			VolatilityPct:             round(res.VolatilityPct, percentPlaces),
		},
		History:     make([]HistoryPointResponse, len(report.History)),
		Dividends:   make([]DividendPointResponse, len(report.Dividends)),
		Skipped:     make([]SkippedPurchaseResponse, len(report.Skipped)),
		CompletedAt: report.CompletedAt,
	}

	for i, p := range report.History {
		out.History[i] = HistoryPointResponse{
			Date:                formatDate(p.Date),
			Close:               round(p.Close, pricePlaces),
			Shares:              round(p.Shares, sharePlaces),
			Cash:                round(p.Cash, moneyPlaces),
			PendingReinvestment: round(p.PendingReinvestment, moneyPlaces),
			Value:               round(p.Value, moneyPlaces),
		}
	}
	for i, d := range report.Dividends {
		out.Dividends[i] = DividendPointResponse{
			Date:   formatDate(d.Date),
			Amount: round(d.Amount, moneyPlaces),
		}
	}
	for i, s := range report.Skipped {
		out.Skipped[i] = SkippedPurchaseResponse{
			Date:   formatDate(s.Date),
			Kind:   string(s.Kind),
			Amount: round(s.Amount, moneyPlaces),
		}
	}

	return out
}

// round uses decimal arithmetic so that e.g. 1.005 rounds to 1.01 rather than
// the 1.00 binary floating point would give. Non-finite values become 0.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
