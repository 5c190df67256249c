package backtest

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
)

// tradingDaysPerYear annualizes daily volatility.
const tradingDaysPerYear = 252

// ComputeMetrics reduces a finished simulation into its summary.
//
// totalInvested counts the initial amount (once it was actually spent) plus
// one monthly amount per applied contribution. Dividends are returns, not
// invested capital, so reinvested dividends never add to it.
func ComputeMetrics(req model.BacktestRequest, sim Simulation) (model.BacktestResult, error) {
	if len(sim.History) == 0 {
		return model.BacktestResult{}, fmt.Errorf("%w: empty history", apperrors.ErrInsufficientData)
	}

	final := sim.Final
	totalInvested := req.MonthlyAmount * float64(final.ContributionsApplied)
	if final.InitialApplied {
		totalInvested += req.InitialAmount
	}
	if totalInvested <= 0 {
		return model.BacktestResult{}, fmt.Errorf("%w: no capital was invested in the selected range", apperrors.ErrInvalidConfiguration)
	}

	finalValue := sim.History[len(sim.History)-1].Value
	annualized, approximated := AnnualizedReturnPct(finalValue, totalInvested, req.StartDate, req.EndDate)

	returns := DailyReturns(sim.History)

	return model.BacktestResult{
		InitialValue:              sim.History[0].Value,
		FinalValue:                finalValue,
		TotalInvested:             totalInvested,
		TotalReturnPct:            (finalValue - totalInvested) / totalInvested * 100,
		AnnualizedReturnPct:       annualized,
		AnnualizationApproximated: approximated,
		DividendsAccrued:          final.DividendsGenerated,
		TotalSharesFinal:          final.TotalShares,
		ContributionsApplied:      final.ContributionsApplied,
		MaxDrawdownPct:            MaxDrawdownPct(returns),
		VolatilityPct:             AnnualizedVolatilityPct(returns),
	}, nil
}

// AnnualizedReturnPct is the compound annual growth rate of finalValue over
// totalInvested. The span is counted in calendar years (end.Year() -
// start.Year()) and floored at one. The second return value reports that this
// span differs from the real elapsed time: the floor applied, or the range is
// not a whole number of years (2020-12-31 to 2021-01-01 counts as one year).
func AnnualizedReturnPct(finalValue, totalInvested float64, start, end time.Time) (float64, bool) {
	start, end = model.TruncateDay(start), model.TruncateDay(end)
	years := end.Year() - start.Year()
	approximated := !start.AddDate(years, 0, 0).Equal(end)
	if years < 1 {
		years = 1
		approximated = true
	}
	ratio := finalValue / totalInvested
	if ratio <= 0 {
		return -100, approximated
	}
	return (math.Pow(ratio, 1/float64(years)) - 1) * 100, approximated
}

// DailyReturns returns the time-weighted return of each day relative to the
// previous one. Cash invested on a day is removed from that day's value so
// contributions do not register as gains. Days following a zero valuation
// contribute no return.
func DailyReturns(history []model.PortfolioHistoryPoint) []float64 {
	if len(history) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		prev := history[i-1].Value
		if prev <= 0 {
			continue
		}
		returns = append(returns, (history[i].Value-history[i].Invested)/prev-1)
	}
	return returns
}

// MaxDrawdownPct is the largest peak-to-trough decline of the growth index
// built from daily returns, in percent.
func MaxDrawdownPct(returns []float64) float64 {
	index, peak, maxDD := 1.0, 1.0, 0.0
	for _, r := range returns {
		index *= 1 + r
		if index > peak {
			peak = index
		}
		if dd := (peak - index) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// AnnualizedVolatilityPct is the sample standard deviation of daily returns
// scaled to a trading year, in percent.
func AnnualizedVolatilityPct(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear) * 100
}
