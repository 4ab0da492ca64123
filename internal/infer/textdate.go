package infer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// monthDayExpr matches a three-letter English month abbreviation (optionally
// continued, so "March" matches too) followed by a 1-2 digit day.
var monthDayExpr = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})\b`)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// FindExplicitDate returns the first month/day mention in text resolved to a
// concrete date, or false when nothing usable is found. The year starts as
// the reference year and rolls forward by one when the mentioned month is
// more than six months behind the reference month, so a late-year posting
// mentioning "Mar 5" lands in the next year.
//
// The rule is deliberately asymmetric: a January posting mentioning "Dec 1"
// resolves to December of the same (future) year, never the previous one.
//
// Impossible day/month combinations ("Feb 30") yield false, not an error.
func FindExplicitDate(text string, reference time.Time) (time.Time, bool) {
	m := monthDayExpr.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	month := months[strings.ToLower(m[1])]
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 {
		return time.Time{}, false
	}

	year := reference.Year()
	if int(month) < int(reference.Month()) && int(reference.Month())-int(month) > 6 {
		year++
	}

	resolved := time.Date(year, month, day, 0, 0, 0, 0, reference.Location())
	if resolved.Month() != month || resolved.Day() != day {
		// time.Date normalized an invalid day into the next month.
		return time.Time{}, false
	}

	return resolved, true
}
