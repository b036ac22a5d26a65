package billing

import "time"

// Period tokens accepted by dashboard and list filters.
const (
	PeriodAll     = "all"
	PeriodWeek    = "week"
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
	PeriodCustom  = "custom"
)

// Period is a half-open interval [From, To) over invoice creation time.
// A nil bound means unbounded on that side.
type Period struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the interval.
func (p Period) Contains(t time.Time) bool {
	if p.From != nil && t.Before(*p.From) {
		return false
	}
	if p.To != nil && !t.Before(*p.To) {
		return false
	}
	return true
}

// IsUnbounded reports whether the period has no bounds at all.
func (p Period) IsUnbounded() bool {
	return p.From == nil && p.To == nil
}

// ResolvePeriod maps a period token to a concrete interval anchored at
// now. Unrecognized tokens degrade to the unbounded period rather than
// failing the request. For the custom token the start and end calendar
// dates are optional; the end date is inclusive and becomes the
// exclusive upper bound of the following midnight.
func ResolvePeriod(token string, startDate, endDate *time.Time, now time.Time) Period {
	today := calendarDate(now)

	switch token {
	case PeriodWeek:
		from := today.AddDate(0, 0, -7)
		return Period{From: &from}
	case PeriodMonth:
		from := addCalendarMonths(today, -1)
		return Period{From: &from}
	case PeriodQuarter:
		from := addCalendarMonths(today, -3)
		return Period{From: &from}
	case PeriodYear:
		from := addCalendarMonths(today, -12)
		return Period{From: &from}
	case PeriodCustom:
		var p Period
		if startDate != nil {
			from := calendarDate(*startDate)
			p.From = &from
		}
		if endDate != nil {
			to := calendarDate(*endDate).AddDate(0, 0, 1)
			p.To = &to
		}
		return p
	default:
		// "all", empty and anything unknown
		return Period{}
	}
}

// addCalendarMonths shifts a calendar date by whole months, clamping to
// the last valid day of the target month: Mar 31 minus one month is
// Feb 29 in a leap year, Feb 28 otherwise.
func addCalendarMonths(date time.Time, months int) time.Time {
	y, m, d := date.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := target.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, 0, 0, 0, 0, time.UTC)
}
