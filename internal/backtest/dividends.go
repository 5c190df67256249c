package backtest

import (
	"sort"
	"time"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/model"
)

// dividendCursor walks the ex-date ordered dividend series exactly once.
// Events are shared read-only; only pos moves.
type dividendCursor struct {
	events []model.DividendEvent
	pos    int
	start  time.Time
}

func newDividendCursor(events []model.DividendEvent, start time.Time) dividendCursor {
	return dividendCursor{events: events, start: start}
}

// pending returns the events with start <= exDate <= day that have not been
// consumed yet, and the cursor positioned after them. Events before start are
// passed over without being returned.
func (c dividendCursor) pending(day time.Time) ([]model.DividendEvent, dividendCursor) {
	for c.pos < len(c.events) && c.events[c.pos].ExDate.Before(c.start) {
		c.pos++
	}
	first := c.pos
	for c.pos < len(c.events) && !c.events[c.pos].ExDate.After(day) {
		c.pos++
	}
	return c.events[first:c.pos], c
}

// processDividends applies every dividend due on day to state.
// Each event pays totalShares*amountPerShare using the share count at that
// moment, so a contribution applied earlier the same day is entitled and a
// purchase made on a later day is not. Events are consumed on the day they
// are reached whatever the close.
//
// With reinvestment the cash buys shares at price. When price is unusable the
// cash is carried in PendingReinvestment and only the purchase waits for the
// next valid-price day.
func processDividends(state SimulationState, day time.Time, price float64, priceOK, reinvest bool) (SimulationState, []model.DividendCashPoint, *model.SkippedPurchase) {
	events, next := state.dividends.pending(day)
	state.dividends = next

	var cash []model.DividendCashPoint
	for _, ev := range events {
		amount := state.TotalShares * ev.AmountPerShare
		if amount == 0 {
			continue
		}
		state.DividendsGenerated += amount
		if reinvest {
			state.PendingReinvestment += amount
		} else {
			state.CashFromDividends += amount
		}
		cash = append(cash, model.DividendCashPoint{Date: ev.ExDate, Amount: amount})
	}

	if state.PendingReinvestment == 0 {
		return state, cash, nil
	}
	if !priceOK {
		return state, cash, &model.SkippedPurchase{
			Date:   day,
			Kind:   model.PurchaseReinvestment,
			Amount: state.PendingReinvestment,
			Close:  price,
		}
	}
	state.TotalShares += state.PendingReinvestment / price
	state.PendingReinvestment = 0
	return state, cash, nil
}

// AggregateDividendsByDate sums dividend cash generated on the same calendar
// day and returns one point per day in ascending order.
func AggregateDividendsByDate(points []model.DividendCashPoint) []model.DividendCashPoint {
	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDay[model.TruncateDay(p.Date)] += p.Amount
	}

	out := make([]model.DividendCashPoint, 0, len(byDay))
	for day, amount := range byDay {
		out = append(out, model.DividendCashPoint{Date: day, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
