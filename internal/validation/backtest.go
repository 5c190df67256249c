package validation

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/api/request"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
)

// symbolPattern matches Yahoo tickers such as SPY, BRK-B, VWRL.AS and ^GSPC.
var symbolPattern = regexp.MustCompile(`^\^?[A-Za-z0-9][A-Za-z0-9.\-=]{0,19}$`)

// ValidateBacktest validates a backtest request and converts it to the domain request.
// Checks all fields and collects every failure.
//
// Required fields:
//   - symbol: Yahoo ticker
//   - startDate: Must be in YYYY-MM-DD format
//   - endDate: Must be in YYYY-MM-DD format, not before startDate
//
// Amounts must be finite and non-negative, and at least one of them positive.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateBacktest(req request.BacktestRequest) (model.BacktestRequest, error) {
	errors := make(map[string]string)

	symbol := strings.TrimSpace(req.Symbol)
	switch {
	case symbol == "":
		errors["symbol"] = "symbol is required"
	case !symbolPattern.MatchString(symbol):
		errors["symbol"] = "symbol contains invalid characters"
	}

	start, startErr := parseDate(req.StartDate)
	if startErr != "" {
		errors["startDate"] = startErr
	}
	end, endErr := parseDate(req.EndDate)
	if endErr != "" {
		errors["endDate"] = endErr
	}
	if startErr == "" && endErr == "" && start.After(end) {
		errors["endDate"] = "endDate must not be before startDate"
	}

	if msg := amountError(req.InitialAmount); msg != "" {
		errors["initialAmount"] = msg
	}
	if msg := amountError(req.MonthlyAmount); msg != "" {
		errors["monthlyAmount"] = msg
	}
	if req.InitialAmount == 0 && req.MonthlyAmount == 0 {
		errors["initialAmount"] = "initialAmount or monthlyAmount must be positive"
	}

	if len(errors) > 0 {
		return model.BacktestRequest{}, &Error{Fields: errors}
	}

	return model.BacktestRequest{
		Symbol:            strings.ToUpper(symbol),
		InitialAmount:     req.InitialAmount,
		MonthlyAmount:     req.MonthlyAmount,
		StartDate:         start,
		EndDate:           end,
		ReinvestDividends: req.ReinvestDividends,
	}, nil
}

func parseDate(value string) (time.Time, string) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, "date is required"
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, "date must be in YYYY-MM-DD format"
	}
	return t, ""
}

func amountError(v float64) string {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return "amount must be a finite number"
	case v < 0:
		return "amount cannot be negative"
	}
	return ""
}
