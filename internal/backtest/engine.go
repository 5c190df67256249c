// Package backtest replays a buy-and-hold investment over historical daily
// closes and dividend events: an initial lump sum, optional monthly
// contributions and optional dividend reinvestment. Everything here is a pure
// function over in-memory slices; fetching and caching live in the service layer.
package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
)

// SimulationState is the running position during a replay. Each step takes a
// state value and returns the next one; nothing outside the walk mutates it.
//
// TotalShares never decreases. CashFromDividends never decreases and stays at
// zero when dividends are reinvested.
type SimulationState struct {
	TotalShares          float64
	CashFromDividends    float64
	NextContributionDate time.Time

	// DividendsGenerated is every dividend dollar computed so far, reinvested or not.
	DividendsGenerated float64
	// PendingReinvestment is dividend cash owed to a reinvestment that met an
	// unusable close. It buys shares at the next valid close.
	PendingReinvestment  float64
	ContributionsApplied int
	InitialApplied       bool

	schedule  contributionSchedule
	dividends dividendCursor
	lastClose float64
}

// Simulation is the raw output of a replay, before metrics are derived.
type Simulation struct {
	Final     SimulationState
	History   []model.PortfolioHistoryPoint
	Dividends []model.DividendCashPoint
	Skipped   []model.SkippedPurchase
}

// ValidateRequest rejects inputs that cannot produce a meaningful run.
func ValidateRequest(req model.BacktestRequest) error {
	if req.InitialAmount < 0 || req.MonthlyAmount < 0 {
		return fmt.Errorf("%w: amounts cannot be negative", apperrors.ErrInvalidConfiguration)
	}
	if req.InitialAmount == 0 && req.MonthlyAmount == 0 {
		return fmt.Errorf("%w: initial and monthly amount are both zero", apperrors.ErrInvalidConfiguration)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end date are required", apperrors.ErrInvalidConfiguration)
	}
	if req.StartDate.After(req.EndDate) {
		return fmt.Errorf("%w: start date %s is after end date %s", apperrors.ErrInvalidConfiguration,
			req.StartDate.Format(time.DateOnly), req.EndDate.Format(time.DateOnly))
	}
	return nil
}

// NormalizePrices returns the points inside [start, end] that carry a close,
// with dates truncated to the day, sorted ascending and deduplicated by date.
// When a date appears twice the later entry wins.
func NormalizePrices(points []model.PricePoint, start, end time.Time) []model.PricePoint {
	start, end = model.TruncateDay(start), model.TruncateDay(end)

	out := make([]model.PricePoint, 0, len(points))
	for _, p := range points {
		if !p.HasClose() {
			continue
		}
		day := model.TruncateDay(p.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, model.PricePoint{Date: day, Close: p.Close})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	deduped := out[:0]
	for _, p := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(p.Date) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}
	return deduped
}

// NormalizeDividends returns the events with dates truncated to the day, sorted
// ascending by ex-date. Events with a negative amount are dropped.
func NormalizeDividends(events []model.DividendEvent) []model.DividendEvent {
	out := make([]model.DividendEvent, 0, len(events))
	for _, ev := range events {
		if ev.AmountPerShare < 0 {
			continue
		}
		out = append(out, model.DividendEvent{ExDate: model.TruncateDay(ev.ExDate), AmountPerShare: ev.AmountPerShare})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExDate.Before(out[j].ExDate)
	})
	return out
}

// Simulate walks the price series once in ascending order. Per trading day it
// applies, in this order: the initial purchase (first valid-price day only),
// a due monthly contribution, every dividend whose ex-date has been reached,
// and finally records value = shares*close + dividend cash.
//
// Purchases that meet a zero or invalid close are skipped for that day,
// recorded in Simulation.Skipped and retried on the next valid-price day.
func Simulate(req model.BacktestRequest, prices []model.PricePoint, dividends []model.DividendEvent) (Simulation, error) {
	if err := ValidateRequest(req); err != nil {
		return Simulation{}, err
	}

	start, end := model.TruncateDay(req.StartDate), model.TruncateDay(req.EndDate)
	days := NormalizePrices(prices, start, end)
	if len(days) < 2 {
		return Simulation{}, fmt.Errorf("%w: need at least 2 priced days for %s, got %d",
			apperrors.ErrInsufficientData, req.Symbol, len(days))
	}

	state := SimulationState{
		schedule:  newContributionSchedule(start, end, req.MonthlyAmount),
		dividends: newDividendCursor(NormalizeDividends(dividends), start),
	}
	state.NextContributionDate = state.schedule.next

	sim := Simulation{
		History: make([]model.PortfolioHistoryPoint, 0, len(days)),
	}

	for _, day := range days {
		var point stepResult
		state, point = step(state, req, day)
		sim.History = append(sim.History, point.history)
		sim.Dividends = append(sim.Dividends, point.dividends...)
		sim.Skipped = append(sim.Skipped, point.skipped...)
	}

	sim.Final = state
	return sim, nil
}

type stepResult struct {
	history   model.PortfolioHistoryPoint
	dividends []model.DividendCashPoint
	skipped   []model.SkippedPurchase
}

// step advances the simulation by one trading day.
func step(state SimulationState, req model.BacktestRequest, day model.PricePoint) (SimulationState, stepResult) {
	var res stepResult
	price, priceOK := day.ValidClose()
	invested := 0.0

	if !state.InitialApplied && req.InitialAmount > 0 {
		if priceOK {
			state.TotalShares += req.InitialAmount / price
			state.InitialApplied = true
			invested += req.InitialAmount
		} else {
			res.skipped = append(res.skipped, model.SkippedPurchase{
				Date: day.Date, Kind: model.PurchaseInitial, Amount: req.InitialAmount, Close: day.CloseOrZero(),
			})
		}
	}

	if state.schedule.due(day.Date) {
		if priceOK {
			state.TotalShares += req.MonthlyAmount / price
			state.ContributionsApplied++
			state.schedule = state.schedule.advance()
			state.NextContributionDate = state.schedule.next
			invested += req.MonthlyAmount
		} else {
			res.skipped = append(res.skipped, model.SkippedPurchase{
				Date: day.Date, Kind: model.PurchaseContribution, Amount: req.MonthlyAmount, Close: day.CloseOrZero(),
			})
		}
	}

	var skipped *model.SkippedPurchase
	state, res.dividends, skipped = processDividends(state, day.Date, price, priceOK, req.ReinvestDividends)
	if skipped != nil {
		res.skipped = append(res.skipped, *skipped)
	}

	if priceOK {
		state.lastClose = price
	}
	res.history = model.PortfolioHistoryPoint{
		Date:                day.Date,
		Close:               state.lastClose,
		Shares:              state.TotalShares,
		Cash:                state.CashFromDividends,
		PendingReinvestment: state.PendingReinvestment,
		Value:               state.TotalShares*state.lastClose + state.CashFromDividends + state.PendingReinvestment,
		Invested:            invested,
	}
	return state, res
}

// Run simulates req and derives its metrics.
func Run(req model.BacktestRequest, prices []model.PricePoint, dividends []model.DividendEvent) (model.BacktestReport, error) {
	sim, err := Simulate(req, prices, dividends)
	if err != nil {
		return model.BacktestReport{}, err
	}

	result, err := ComputeMetrics(req, sim)
	if err != nil {
		return model.BacktestReport{}, err
	}

	return model.BacktestReport{
		Request:   req,
		Result:    result,
		History:   sim.History,
		Dividends: AggregateDividendsByDate(sim.Dividends),
		Skipped:   sim.Skipped,
	}, nil
}
