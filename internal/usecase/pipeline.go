package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"canvascal/internal/domain"
	"canvascal/internal/infer"
	"canvascal/internal/ports"
	"canvascal/internal/schedule"
)

const descriptionSnippetLen = 200

// PipelineDeps wires all driven adapters into the sync pipeline.
type PipelineDeps struct {
	Provider  ports.CourseProvider
	History   ports.HistoryRepository
	Writer    ports.CalendarWriter
	Inferrer  *infer.Inferrer
	Filter    *infer.Filter
	Schedules []domain.CourseSchedule

	PastDays               int
	FutureDays             int
	AnnouncementMaxAgeDays int
	ClassSessions          bool

	Logger *slog.Logger
}

// Pipeline implements the course-sync workflow: fetch per course, filter by
// section relevance, infer one date per announcement, and write the calendar.
type Pipeline struct {
	provider  ports.CourseProvider
	history   ports.HistoryRepository
	writer    ports.CalendarWriter
	inferrer  *infer.Inferrer
	filter    *infer.Filter
	schedules []domain.CourseSchedule

	pastDays      int
	futureDays    int
	annMaxAgeDays int
	classSessions bool

	logger *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		provider:      deps.Provider,
		history:       deps.History,
		writer:        deps.Writer,
		inferrer:      deps.Inferrer,
		filter:        deps.Filter,
		schedules:     deps.Schedules,
		pastDays:      deps.PastDays,
		futureDays:    deps.FutureDays,
		annMaxAgeDays: deps.AnnouncementMaxAgeDays,
		classSessions: deps.ClassSessions,
		logger:        logger,
	}
}

// Sync runs one full cycle anchored at now. A failure fetching one course
// marks that course skipped with a reason and moves on; only listing courses
// or writing the output file can fail the whole run.
func (p *Pipeline) Sync(ctx context.Context, now time.Time) ([]domain.CourseOutcome, error) {
	if p.provider == nil {
		return nil, nil
	}

	windowStart := now.AddDate(0, 0, -p.pastDays)
	windowEnd := now.AddDate(0, 0, p.futureDays)
	annCutoff := now.AddDate(0, 0, -p.annMaxAgeDays)

	courses, err := p.provider.ActiveCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch courses: %w", err)
	}

	var entries []domain.CalendarEntry
	outcomes := make([]domain.CourseOutcome, 0, len(courses))

	for _, course := range courses {
		courseEntries, outcome := p.syncCourse(ctx, course, now, windowEnd, annCutoff)
		entries = append(entries, courseEntries...)
		outcomes = append(outcomes, outcome)
	}

	entries = append(entries, p.genericEvents(ctx, windowStart, windowEnd)...)

	p.recordHistory(ctx, now, entries)

	if p.writer != nil {
		if err := p.writer.Write(ctx, entries); err != nil {
			return outcomes, fmt.Errorf("write calendar: %w", err)
		}
	}

	p.logger.Info("sync completed", "courses", len(courses), "events", len(entries))
	return outcomes, nil
}

func (p *Pipeline) syncCourse(ctx context.Context, course domain.Course, now, windowEnd, annCutoff time.Time) ([]domain.CalendarEntry, domain.CourseOutcome) {
	outcome := domain.CourseOutcome{
		CourseID: course.ID,
		Code:     course.Code,
		Status:   domain.StatusSynced,
	}

	announcements, err := p.provider.Announcements(ctx, course.ID, annCutoff)
	if err != nil {
		return nil, p.skipCourse(outcome, course, err)
	}
	assignments, err := p.provider.UpcomingAssignments(ctx, course.ID)
	if err != nil {
		return nil, p.skipCourse(outcome, course, err)
	}

	sched := domain.ScheduleFor(p.schedules, course.Code)
	var meetingDays []int
	if sched != nil {
		meetingDays = sched.Days
	}

	var entries []domain.CalendarEntry

	for _, ann := range announcements {
		if !p.filter.ShouldInclude(ann, sched) {
			outcome.Filtered++
			continue
		}
		outcome.Included++

		text := ann.Title + "\n" + ann.PlainText
		inferred := p.inferrer.InferDate(text, ann.PostedAt, meetingDays)
		p.logger.Debug("announcement date inferred",
			"course", course.Code,
			"title", ann.Title,
			"date", inferred.When.Format("2006-01-02"),
			"source", string(inferred.Source),
		)

		entries = append(entries, domain.CalendarEntry{
			UID:         "canvascal-ann-" + ann.ID,
			Title:       fmt.Sprintf("%s (%s)", ann.Title, course.Code),
			Description: announcementDescription(ann),
			Start:       inferred.When,
			AllDay:      true,
		})
	}

	for _, assign := range assignments {
		if assign.DueAt == nil {
			continue
		}
		entries = append(entries, domain.CalendarEntry{
			UID:         "canvascal-asg-" + assign.ID,
			Title:       fmt.Sprintf("%s (%s)", assign.Name, course.Code),
			Description: assign.URL,
			Start:       *assign.DueAt,
		})
	}

	if p.classSessions && len(meetingDays) > 0 {
		sessions, err := schedule.Sessions(meetingDays, now, windowEnd)
		if err != nil {
			p.logger.Warn("class session expansion failed", "course", course.Code, "error", err)
		}
		for _, day := range sessions {
			entries = append(entries, domain.CalendarEntry{
				UID:    fmt.Sprintf("canvascal-class-%s-%s", course.ID, day.Format("20060102")),
				Title:  fmt.Sprintf("%s class", course.Code),
				Start:  day,
				AllDay: true,
			})
		}
	}

	return entries, outcome
}

func (p *Pipeline) skipCourse(outcome domain.CourseOutcome, course domain.Course, err error) domain.CourseOutcome {
	outcome.Status = domain.StatusSkipped
	if errors.Is(err, ports.ErrAccessDenied) {
		outcome.Reason = "access denied"
	} else {
		outcome.Reason = err.Error()
	}
	p.logger.Warn("course skipped", "course", course.Code, "reason", outcome.Reason)
	return outcome
}

func (p *Pipeline) genericEvents(ctx context.Context, windowStart, windowEnd time.Time) []domain.CalendarEntry {
	events, err := p.provider.CalendarEvents(ctx, windowStart, windowEnd)
	if err != nil {
		// Matching per-course behavior: a failing generic-events fetch is
		// logged and skipped, never fatal.
		p.logger.Warn("could not fetch generic calendar events", "error", err)
		return nil
	}

	entries := make([]domain.CalendarEntry, 0, len(events))
	for _, evt := range events {
		entries = append(entries, domain.CalendarEntry{
			UID:         "canvascal-evt-" + evt.ID,
			Title:       evt.Title,
			Description: evt.Description,
			Start:       evt.StartAt,
			End:         evt.EndAt,
		})
	}
	return entries
}

// recordHistory is an advisory audit trail: it reports how many entries are
// new since the last run and records them. Failures are logged, never fatal,
// and never change the calendar output.
func (p *Pipeline) recordHistory(ctx context.Context, now time.Time, entries []domain.CalendarEntry) {
	if p.history == nil || len(entries) == 0 {
		return
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UID)
	}

	known, err := p.history.AlreadyProcessed(ctx, ids)
	if err != nil {
		p.logger.Warn("history lookup failed", "error", err)
		return
	}

	newCount := 0
	for _, e := range entries {
		if known[e.UID] {
			continue
		}
		newCount++
		if err := p.history.SaveProcessed(ctx, e.UID, entryKind(e.UID), now); err != nil {
			p.logger.Warn("history save failed", "uid", e.UID, "error", err)
		}
	}

	p.logger.Info("history updated", "new_items", newCount, "total_items", len(entries))
}

func entryKind(uid string) string {
	switch {
	case strings.HasPrefix(uid, "canvascal-ann-"):
		return "announcement"
	case strings.HasPrefix(uid, "canvascal-asg-"):
		return "assignment"
	case strings.HasPrefix(uid, "canvascal-evt-"):
		return "event"
	default:
		return "class"
	}
}

func announcementDescription(ann domain.Announcement) string {
	snippet := ann.PlainText
	if runes := []rune(snippet); len(runes) > descriptionSnippetLen {
		snippet = string(runes[:descriptionSnippetLen]) + "..."
	}
	if ann.URL == "" {
		return snippet
	}
	return fmt.Sprintf("Read more: %s\n\n%s", ann.URL, snippet)
}
