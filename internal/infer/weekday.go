package infer

import (
	"sort"
	"time"
)

// MondayWeekday converts t's weekday to the Monday-based convention used
// throughout this package: 0=Monday ... 6=Sunday.
func MondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// CanonicalDays returns meeting days sorted ascending with duplicates and
// out-of-range values dropped.
func CanonicalDays(days []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// NextOccurrence returns the next date strictly after the reference date
// whose Monday-based weekday is in meetingDays, wrapping into the next week
// when no later day in the current week qualifies. The reference date itself
// never qualifies, even if its weekday is in the set. The second return is
// false when meetingDays is empty.
func NextOccurrence(meetingDays []int, after time.Time) (time.Time, bool) {
	days := CanonicalDays(meetingDays)
	if len(days) == 0 {
		return time.Time{}, false
	}

	w := MondayWeekday(after)
	delta := 0
	for _, d := range days {
		if d > w {
			delta = d - w
			break
		}
	}
	if delta == 0 {
		delta = 7 - w + days[0]
	}

	next := after.AddDate(0, 0, delta)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, after.Location()), true
}
