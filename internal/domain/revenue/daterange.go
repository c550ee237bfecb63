package revenue

import "time"

// dateLayouts are the accepted formats for explicit date filters, tried in order.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// DateRange is a concrete UTC reporting interval. To is inclusive through the
// last millisecond of its day.
type DateRange struct {
	From time.Time
	To   time.Time
}

// PeriodQuery carries the raw, user-supplied period filters of a report
// request. All fields are optional.
type PeriodQuery struct {
	DateFrom string
	DateTo   string
	Month    int
	Year     int
}

// ResolveDateRange turns a PeriodQuery into a concrete UTC interval.
//
// Explicit dateFrom/dateTo take precedence when both parse. Otherwise
// month/year are used (month defaults to the current month, year to the
// current year). Unparseable input never fails the request; it falls through
// to the next rule, ending at the current calendar month.
func ResolveDateRange(q PeriodQuery, now time.Time) DateRange {
	now = now.UTC()

	if from, ok := parseDate(q.DateFrom); ok {
		if to, ok := parseDate(q.DateTo); ok {
			return DateRange{From: startOfDay(from), To: endOfDay(to)}
		}
	}

	month := int(now.Month())
	if q.Month >= 1 && q.Month <= 12 {
		month = q.Month
	}
	year := now.Year()
	if q.Year > 0 {
		year = q.Year
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	lastDay := from.AddDate(0, 1, -1)
	return DateRange{From: from, To: endOfDay(lastDay)}
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(r.From) && !t.After(r.To)
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}
