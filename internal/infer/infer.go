// Package infer derives a calendar date and a relevance decision for course
// announcements from their text, their posting time, and per-course schedule
// configuration. Every function is pure over its inputs; misses are valid
// results, never errors.
package infer

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"canvascal/internal/domain"
)

var nextClassExpr = regexp.MustCompile(`(?i)\bnext\s+(class|lecture)\b`)

// Inferrer resolves one date per announcement.
type Inferrer struct{}

// NewInferrer constructs the date-inference orchestrator.
func NewInferrer() *Inferrer {
	return &Inferrer{}
}

// InferDate resolves a single date for announcement text posted at postedAt.
// Priority: a "next class"/"next lecture" phrase resolved against the course
// meeting days, then the first explicit month/day mention, then the posting
// timestamp itself. The phrase resolution anchors to the posting date, not
// processing time, so batch runs long after posting still resolve the class
// meeting that followed the announcement.
func (i *Inferrer) InferDate(text string, postedAt time.Time, meetingDays []int) domain.InferredDate {
	if nextClassExpr.MatchString(text) {
		if next, ok := NextOccurrence(meetingDays, postedAt); ok {
			return domain.InferredDate{When: next, Source: domain.SourceNextClass}
		}
	}

	if when, ok := FindExplicitDate(text, postedAt); ok {
		return domain.InferredDate{When: when, Source: domain.SourceExplicitTextDate}
	}

	return domain.InferredDate{When: postedAt, HasTime: true, Source: domain.SourceFallbackPosted}
}

// Filter decides whether an announcement applies to the consumer's sections.
type Filter struct {
	logger *slog.Logger
}

// NewFilter wires the advisory logger used to explain rejections.
func NewFilter(logger *slog.Logger) *Filter {
	return &Filter{logger: logger}
}

// ShouldInclude reports whether the announcement should be synced. An
// unconfigured course or an empty section allow-list accepts everything;
// otherwise the combined title and body are matched against the allow-list.
// Rejections are logged with the detected and allowed sections.
func (f *Filter) ShouldInclude(ann domain.Announcement, schedule *domain.CourseSchedule) bool {
	if schedule == nil || len(schedule.Sections) == 0 {
		return true
	}

	ok, detected := Relevant(ann.Title+"\n"+ann.PlainText, schedule.Sections)
	if !ok && f.logger != nil {
		f.logger.Info("announcement filtered out",
			"title", ann.Title,
			"detected_sections", strings.Join(detected, ","),
			"allowed_sections", strings.Join(schedule.Sections, ","),
		)
	}
	return ok
}
