package outcome

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2026-01-01 is a Thursday.
var schedNow = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func TestScheduleConsistent(t *testing.T) {
	dates, desc := Schedule("Consistent", schedNow)
	assert.Equal(t, []string{"2026-01-08"}, dates)
	assert.Equal(t, "1 call/week", desc)
}

func TestScheduleInconsistentSkipsWeekend(t *testing.T) {
	dates, desc := Schedule("Inconsistent Payer", schedNow)
	assert.Equal(t, []string{"2026-01-02", "2026-01-05", "2026-01-06"}, dates)
	assert.Equal(t, "3 calls/week", desc)
}

func TestScheduleOverdueDaily(t *testing.T) {
	dates, desc := Schedule("Overdue", schedNow)
	assert.Equal(t, []string{
		"2026-01-02", "2026-01-05", "2026-01-06", "2026-01-07",
		"2026-01-08", "2026-01-09", "2026-01-12",
	}, dates)
	assert.Equal(t, "Daily (Business Days)", desc)
}

func TestScheduleUnknownCategoryFallsBack(t *testing.T) {
	dates, desc := Schedule("whatever", schedNow)
	assert.Len(t, dates, 1)
	assert.Equal(t, "1 call/week", desc)
}

func TestNextBusinessDay(t *testing.T) {
	cases := []struct {
		from time.Time
		want string
	}{
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-01-02"}, // Thu -> Fri
		{time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), "2026-01-05"}, // Fri -> Mon
		{time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), "2026-01-05"}, // Sat -> Mon
		{time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), "2026-01-05"}, // Sun -> Mon
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, nextBusinessDay(tc.from).Format(dateLayout))
	}
}
