package request

// BacktestRequest represents the request body for running a backtest.
// Dates use the YYYY-MM-DD format; both are inclusive.
type BacktestRequest struct {
	Symbol            string  `json:"symbol"`
	StartDate         string  `json:"startDate"`
	EndDate           string  `json:"endDate"`
	InitialAmount     float64 `json:"initialAmount"`
	MonthlyAmount     float64 `json:"monthlyAmount"`
	ReinvestDividends bool    `json:"reinvestDividends"`
}
