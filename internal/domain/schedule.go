package domain

import "strings"

// CourseSchedule is the configured meeting pattern and section allow-list
// for one course. Weekdays are Monday-based ints in [0,6]. An empty section
// list means the course accepts every announcement.
type CourseSchedule struct {
	Match    string   // substring matched against the course code
	Days     []int    // ascending, deduplicated
	Sections []string // uppercase labels like "L1", "S2"
}

// ScheduleFor returns the first schedule whose match key is a substring of
// the course code. Both sides are compared with spaces stripped and letters
// upper-cased. A nil return means the course is unconfigured: accept all,
// no fixed meeting days.
func ScheduleFor(schedules []CourseSchedule, courseCode string) *CourseSchedule {
	code := normalizeKey(courseCode)
	if code == "" {
		return nil
	}

	for i := range schedules {
		key := normalizeKey(schedules[i].Match)
		if key == "" {
			continue
		}
		if strings.Contains(code, key) {
			return &schedules[i]
		}
	}

	return nil
}

func normalizeKey(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}
