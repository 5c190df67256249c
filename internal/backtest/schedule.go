package backtest

import "time"

// IsContributionDue reports whether a monthly contribution whose cursor sits at
// cursor falls due on currentDay. Nothing is due after endDate.
func IsContributionDue(currentDay, cursor, endDate time.Time) bool {
	if currentDay.After(endDate) {
		return false
	}
	return !cursor.After(currentDay)
}

// FirstContributionDate returns the first day of the month following startDate.
func FirstContributionDate(startDate time.Time) time.Time {
	return time.Date(startDate.Year(), startDate.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

// contributionSchedule is the monthly contribution cursor. It is a value type:
// advance returns a new schedule instead of mutating the receiver.
type contributionSchedule struct {
	next   time.Time
	end    time.Time
	amount float64
}

func newContributionSchedule(start, end time.Time, amount float64) contributionSchedule {
	return contributionSchedule{
		next:   FirstContributionDate(start),
		end:    end,
		amount: amount,
	}
}

func (s contributionSchedule) due(day time.Time) bool {
	if s.amount <= 0 {
		return false
	}
	return IsContributionDue(day, s.next, s.end)
}

// advance moves the cursor exactly one calendar month. The cursor always sits
// on day 1, so AddDate never overflows into the following month.
func (s contributionSchedule) advance() contributionSchedule {
	s.next = s.next.AddDate(0, 1, 0)
	return s
}
