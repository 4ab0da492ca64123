package canvas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"canvascal/internal/ports"
)

func TestActiveCourses(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/courses" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if got := r.URL.Query().Get("enrollment_state"); got != "active" {
			t.Errorf("unexpected enrollment_state: %q", got)
		}
		_, _ = w.Write([]byte(`[{"id": 42, "name": "Algorithms", "course_code": "CS101-A"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123", server.Client(), nil)

	courses, err := client.ActiveCourses(context.Background())
	if err != nil {
		t.Fatalf("ActiveCourses error: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("expected 1 course, got %d", len(courses))
	}
	if courses[0].ID != "42" || courses[0].Code != "CS101-A" {
		t.Fatalf("unexpected course: %+v", courses[0])
	}
}

func TestAnnouncements(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/courses/42/discussion_topics" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("only_announcements"); got != "true" {
			t.Errorf("expected only_announcements=true, got %q", got)
		}
		_, _ = w.Write([]byte(`[
			{"id": 1, "title": "Quiz", "message": "<p>See you <b>next class</b></p>", "html_url": "https://x/1", "posted_at": "2025-11-10T09:30:00Z"},
			{"id": 2, "title": "Old", "message": "stale", "html_url": "https://x/2", "posted_at": "2025-10-01T09:30:00Z"},
			{"id": 3, "title": "Draft", "message": "unpublished", "html_url": "https://x/3", "posted_at": null}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123", server.Client(), nil)
	since := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)

	anns, err := client.Announcements(context.Background(), "42", since)
	if err != nil {
		t.Fatalf("Announcements error: %v", err)
	}
	if len(anns) != 1 {
		t.Fatalf("expected 1 recent announcement, got %d", len(anns))
	}
	if anns[0].PlainText != "See you next class" {
		t.Fatalf("expected stripped plain text, got %q", anns[0].PlainText)
	}
	if anns[0].CourseID != "42" {
		t.Fatalf("unexpected course id: %q", anns[0].CourseID)
	}
}

func TestAccessDenied(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123", server.Client(), nil)

	_, err := client.Announcements(context.Background(), "42", time.Time{})
	if !errors.Is(err, ports.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestCalendarEvents(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/calendar_events" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("start_date"); got != "2025-10-11" {
			t.Errorf("unexpected start_date: %q", got)
		}
		_, _ = w.Write([]byte(`[
			{"id": 7, "title": "Midterm", "description": "<p>Room 5</p>", "start_at": "2025-11-28T10:00:00Z", "end_at": null},
			{"id": 8, "title": "TBD", "description": "", "start_at": null, "end_at": null}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123", server.Client(), nil)
	start := time.Date(2025, time.October, 11, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	events, err := client.CalendarEvents(context.Background(), start, end)
	if err != nil {
		t.Fatalf("CalendarEvents error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event with a start time, got %d", len(events))
	}
	if events[0].Description != "Room 5" {
		t.Fatalf("expected stripped description, got %q", events[0].Description)
	}
	if events[0].EndAt != nil {
		t.Fatal("expected nil end for an open-ended event")
	}
}
