package outcome

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Schedule returns the follow-up call dates for a borrower's payment
// category, weekends excluded. Consistent payers get a single call about a
// week out; inconsistent payers get the next three business days; overdue
// accounts get daily calls over the next seven business days.
func Schedule(category string, now time.Time) ([]string, string) {
	var required int
	var desc string

	switch c := strings.ToLower(category); {
	case strings.Contains(c, "inconsistent"):
		required, desc = 3, "3 calls/week"
	case strings.Contains(c, "overdue"):
		required, desc = 7, "Daily (Business Days)"
	default:
		required, desc = 1, "1 call/week"
		now = now.AddDate(0, 0, 6)
	}

	dates := make([]string, 0, required)
	cur := now
	for len(dates) < required {
		cur = cur.AddDate(0, 0, 1)
		if wd := cur.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		dates = append(dates, cur.Format(dateLayout))
	}
	return dates, desc
}

// nextBusinessDay returns the first weekday strictly after t.
func nextBusinessDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	switch next.Weekday() {
	case time.Saturday:
		next = next.AddDate(0, 0, 2)
	case time.Sunday:
		next = next.AddDate(0, 0, 1)
	}
	return next
}
