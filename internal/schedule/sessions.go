// Package schedule expands configured meeting weekdays into concrete class
// session dates for the calendar window.
package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"canvascal/internal/infer"
)

// Monday-based index into rrule weekday constants.
var rruleDays = [...]rrule.Weekday{
	rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU,
}

// Sessions returns the dates in [from, until] on which a course with the
// given meeting weekdays (0=Monday..6=Sunday) holds class, expanded as a
// weekly recurrence. An empty day set yields no sessions.
func Sessions(meetingDays []int, from, until time.Time) ([]time.Time, error) {
	days := infer.CanonicalDays(meetingDays)
	if len(days) == 0 {
		return nil, nil
	}

	byweekday := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		byweekday = append(byweekday, rruleDays[d])
	}

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byweekday,
		Dtstart:   start,
		Until:     until,
	})
	if err != nil {
		return nil, fmt.Errorf("build weekly rule: %w", err)
	}

	return r.Between(start, until, true), nil
}
