package workout

import (
	"sort"
	"time"
)

// graceWindowDays is the largest gap between training days that keeps a
// streak alive. Training every day is not required, frequency is.
const graceWindowDays = 3

// Streak counts how many recent training days form an unbroken chain where
// each consecutive pair of days is at most three days apart. Duplicate dates
// count once. Returns 0 for an empty history.
func Streak(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	seen := make(map[string]time.Time, len(dates))
	for _, d := range dates {
		day := normalizeDate(d)
		seen[day.Format(time.DateOnly)] = day
	}

	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 1
	for i := 1; i < len(days); i++ {
		gap := days[i-1].Sub(days[i]).Hours() / 24 //nolint:mnd // hours per day.
		if gap > graceWindowDays {
			break
		}
		streak++
	}
	return streak
}
