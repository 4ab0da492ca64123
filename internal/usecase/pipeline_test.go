package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"canvascal/internal/domain"
	"canvascal/internal/infer"
	"canvascal/internal/ports"
)

type fakeProvider struct {
	courses       []domain.Course
	announcements map[string][]domain.Announcement
	assignments   map[string][]domain.Assignment
	events        []domain.CalendarEvent

	errAnnouncements map[string]error
	errEvents        error
}

func (f *fakeProvider) ActiveCourses(ctx context.Context) ([]domain.Course, error) {
	return f.courses, nil
}

func (f *fakeProvider) Announcements(ctx context.Context, courseID string, since time.Time) ([]domain.Announcement, error) {
	if err := f.errAnnouncements[courseID]; err != nil {
		return nil, err
	}
	return f.announcements[courseID], nil
}

func (f *fakeProvider) UpcomingAssignments(ctx context.Context, courseID string) ([]domain.Assignment, error) {
	return f.assignments[courseID], nil
}

func (f *fakeProvider) CalendarEvents(ctx context.Context, start, end time.Time) ([]domain.CalendarEvent, error) {
	if f.errEvents != nil {
		return nil, f.errEvents
	}
	return f.events, nil
}

type captureWriter struct {
	entries []domain.CalendarEntry
}

func (c *captureWriter) Write(ctx context.Context, entries []domain.CalendarEntry) error {
	c.entries = entries
	return nil
}

func newTestPipeline(provider *fakeProvider, writer *captureWriter, schedules []domain.CourseSchedule) *Pipeline {
	return NewPipeline(PipelineDeps{
		Provider:               provider,
		Writer:                 writer,
		Inferrer:               infer.NewInferrer(),
		Filter:                 infer.NewFilter(nil),
		Schedules:              schedules,
		PastDays:               30,
		FutureDays:             365,
		AnnouncementMaxAgeDays: 14,
	})
}

func TestSyncFiltersAndInfers(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.November, 10, 12, 0, 0, 0, time.UTC) // a Monday
	posted := time.Date(2025, time.November, 10, 9, 30, 0, 0, time.UTC)

	provider := &fakeProvider{
		courses: []domain.Course{{ID: "42", Name: "Algorithms", Code: "CS101-A"}},
		announcements: map[string][]domain.Announcement{
			"42": {
				{ID: "1", CourseID: "42", Title: "Quiz", PlainText: "See you next class for the quiz", PostedAt: posted},
				{ID: "2", CourseID: "42", Title: "Room change for L2", PlainText: "L2 moves to room 5", PostedAt: posted},
			},
		},
	}
	writer := &captureWriter{}
	schedules := []domain.CourseSchedule{
		{Match: "CS101", Days: []int{1, 3}, Sections: []string{"L1"}},
	}

	outcomes, err := newTestPipeline(provider, writer, schedules).Sync(context.Background(), now)
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Status != domain.StatusSynced || outcomes[0].Included != 1 || outcomes[0].Filtered != 1 {
		t.Fatalf("unexpected outcome: %+v", outcomes[0])
	}

	if len(writer.entries) != 1 {
		t.Fatalf("expected 1 calendar entry, got %d", len(writer.entries))
	}
	entry := writer.entries[0]
	if entry.Title != "Quiz (CS101-A)" {
		t.Fatalf("unexpected title: %q", entry.Title)
	}
	// "next class" posted on a Monday with Tue/Thu meetings lands on Tuesday.
	if want := time.Date(2025, time.November, 11, 0, 0, 0, 0, time.UTC); !entry.Start.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format("2006-01-02"), entry.Start.Format("2006-01-02"))
	}
	if !entry.AllDay {
		t.Fatal("announcement entries are all-day banners")
	}
}

func TestSyncSkipsDeniedCourse(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		courses: []domain.Course{
			{ID: "1", Code: "CS101"},
			{ID: "2", Code: "BIO200"},
		},
		announcements: map[string][]domain.Announcement{},
		errAnnouncements: map[string]error{
			"1": fmt.Errorf("403 Forbidden: %w", ports.ErrAccessDenied),
		},
	}
	writer := &captureWriter{}

	outcomes, err := newTestPipeline(provider, writer, nil).Sync(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Status != domain.StatusSkipped || outcomes[0].Reason != "access denied" {
		t.Fatalf("expected access-denied skip, got %+v", outcomes[0])
	}
	if outcomes[1].Status != domain.StatusSynced {
		t.Fatalf("expected the second course to sync, got %+v", outcomes[1])
	}
}

func TestSyncAssignmentsAndEvents(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, time.December, 1, 23, 59, 0, 0, time.UTC)
	provider := &fakeProvider{
		courses: []domain.Course{{ID: "42", Code: "CS101-A"}},
		assignments: map[string][]domain.Assignment{
			"42": {
				{ID: "9", Name: "Problem Set 3", URL: "https://x/9", DueAt: &due},
				{ID: "10", Name: "Undated", URL: "https://x/10"},
			},
		},
		events: []domain.CalendarEvent{
			{ID: "7", Title: "Midterm", StartAt: due},
		},
	}
	writer := &captureWriter{}

	if _, err := newTestPipeline(provider, writer, nil).Sync(context.Background(), time.Now()); err != nil {
		t.Fatalf("Sync error: %v", err)
	}

	if len(writer.entries) != 2 {
		t.Fatalf("expected assignment + event entries, got %d", len(writer.entries))
	}
	if !strings.HasPrefix(writer.entries[0].UID, "canvascal-asg-") {
		t.Fatalf("unexpected first entry: %+v", writer.entries[0])
	}
	if !strings.HasPrefix(writer.entries[1].UID, "canvascal-evt-") {
		t.Fatalf("unexpected second entry: %+v", writer.entries[1])
	}
}

func TestSyncEventFetchFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		courses:   []domain.Course{{ID: "42", Code: "CS101-A"}},
		errEvents: fmt.Errorf("upstream timeout"),
	}
	writer := &captureWriter{}

	outcomes, err := newTestPipeline(provider, writer, nil).Sync(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Sync must tolerate a generic-events failure, got: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != domain.StatusSynced {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
}

func TestSyncClassSessions(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.November, 10, 12, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		courses: []domain.Course{{ID: "42", Code: "CS101-A"}},
	}
	writer := &captureWriter{}

	pipeline := NewPipeline(PipelineDeps{
		Provider:               provider,
		Writer:                 writer,
		Inferrer:               infer.NewInferrer(),
		Filter:                 infer.NewFilter(nil),
		Schedules:              []domain.CourseSchedule{{Match: "CS101", Days: []int{0, 2}}},
		PastDays:               30,
		FutureDays:             13,
		AnnouncementMaxAgeDays: 14,
		ClassSessions:          true,
	})

	if _, err := pipeline.Sync(context.Background(), now); err != nil {
		t.Fatalf("Sync error: %v", err)
	}

	if len(writer.entries) == 0 {
		t.Fatal("expected class session entries")
	}
	for _, e := range writer.entries {
		if !strings.HasPrefix(e.UID, "canvascal-class-42-") {
			t.Fatalf("unexpected entry: %+v", e)
		}
		if !e.AllDay {
			t.Fatal("class sessions are all-day entries")
		}
	}
}
