package ports

import (
	"context"
	"errors"
	"time"

	"canvascal/internal/domain"
)

// ErrAccessDenied marks per-course authorization failures so the pipeline
// can skip the course instead of aborting the run.
var ErrAccessDenied = errors.New("access denied")

// CourseProvider pulls courses and their content from the course platform.
type CourseProvider interface {
	ActiveCourses(ctx context.Context) ([]domain.Course, error)
	Announcements(ctx context.Context, courseID string, since time.Time) ([]domain.Announcement, error)
	UpcomingAssignments(ctx context.Context, courseID string) ([]domain.Assignment, error)
	CalendarEvents(ctx context.Context, start, end time.Time) ([]domain.CalendarEvent, error)
}

// HistoryRepository remembers item IDs that were already written out, so a
// run can report how many items are new since the last one. It never affects
// what gets written.
type HistoryRepository interface {
	AlreadyProcessed(ctx context.Context, ids []string) (map[string]bool, error)
	SaveProcessed(ctx context.Context, id, kind string, syncedAt time.Time) error
}

// CalendarWriter serializes a finished sync into a calendar file.
type CalendarWriter interface {
	Write(ctx context.Context, entries []domain.CalendarEntry) error
}

// Scheduler controls when sync runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
