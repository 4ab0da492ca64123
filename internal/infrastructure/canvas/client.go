package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"canvascal/internal/domain"
	"canvascal/internal/ports"
)

// Client talks to a Canvas-compatible REST API (endpoints under /api/v1).
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.CourseProvider = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets a 20s timeout default.
func NewClient(baseURL, token string, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  client,
		logger:  logger,
	}
}

type courseResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
}

type announcementResponse struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	HTMLURL  string     `json:"html_url"`
	PostedAt *time.Time `json:"posted_at"`
}

type assignmentResponse struct {
	ID      int64      `json:"id"`
	Name    string     `json:"name"`
	HTMLURL string     `json:"html_url"`
	DueAt   *time.Time `json:"due_at"`
}

type calendarEventResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
}

// ActiveCourses lists the user's active enrollments.
func (c *Client) ActiveCourses(ctx context.Context) ([]domain.Course, error) {
	query := url.Values{}
	query.Set("enrollment_state", "active")
	query.Set("per_page", "100")

	var raw []courseResponse
	if err := c.getJSON(ctx, "/api/v1/courses", query, &raw); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	courses := make([]domain.Course, 0, len(raw))
	for _, r := range raw {
		courses = append(courses, domain.Course{
			ID:   strconv.FormatInt(r.ID, 10),
			Name: r.Name,
			Code: r.CourseCode,
		})
	}
	return courses, nil
}

// Announcements returns the course's announcements posted after since.
// Message bodies are HTML; the returned PlainText field carries the
// markup-stripped body the inference core works on.
func (c *Client) Announcements(ctx context.Context, courseID string, since time.Time) ([]domain.Announcement, error) {
	query := url.Values{}
	query.Set("only_announcements", "true")
	query.Set("per_page", "100")

	var raw []announcementResponse
	path := fmt.Sprintf("/api/v1/courses/%s/discussion_topics", courseID)
	if err := c.getJSON(ctx, path, query, &raw); err != nil {
		return nil, fmt.Errorf("list announcements for course %s: %w", courseID, err)
	}

	announcements := make([]domain.Announcement, 0, len(raw))
	for _, r := range raw {
		if r.PostedAt == nil || !r.PostedAt.After(since) {
			continue
		}
		announcements = append(announcements, domain.Announcement{
			ID:        strconv.FormatInt(r.ID, 10),
			CourseID:  courseID,
			Title:     r.Title,
			Message:   r.Message,
			PlainText: StripHTML(r.Message),
			URL:       r.HTMLURL,
			PostedAt:  *r.PostedAt,
		})
	}
	return announcements, nil
}

// UpcomingAssignments returns the course's upcoming assignments. Assignments
// without a due timestamp are passed through with a nil DueAt; the pipeline
// decides what to do with them.
func (c *Client) UpcomingAssignments(ctx context.Context, courseID string) ([]domain.Assignment, error) {
	query := url.Values{}
	query.Set("bucket", "upcoming")
	query.Set("per_page", "100")

	var raw []assignmentResponse
	path := fmt.Sprintf("/api/v1/courses/%s/assignments", courseID)
	if err := c.getJSON(ctx, path, query, &raw); err != nil {
		return nil, fmt.Errorf("list assignments for course %s: %w", courseID, err)
	}

	assignments := make([]domain.Assignment, 0, len(raw))
	for _, r := range raw {
		assignments = append(assignments, domain.Assignment{
			ID:       strconv.FormatInt(r.ID, 10),
			CourseID: courseID,
			Name:     r.Name,
			URL:      r.HTMLURL,
			DueAt:    r.DueAt,
		})
	}
	return assignments, nil
}

// CalendarEvents returns the user's generic calendar events in [start, end].
func (c *Client) CalendarEvents(ctx context.Context, start, end time.Time) ([]domain.CalendarEvent, error) {
	query := url.Values{}
	query.Set("type", "event")
	query.Set("start_date", start.Format("2006-01-02"))
	query.Set("end_date", end.Format("2006-01-02"))
	query.Set("per_page", "100")

	var raw []calendarEventResponse
	if err := c.getJSON(ctx, "/api/v1/calendar_events", query, &raw); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}

	events := make([]domain.CalendarEvent, 0, len(raw))
	for _, r := range raw {
		if r.StartAt == nil {
			continue
		}
		events = append(events, domain.CalendarEvent{
			ID:          strconv.FormatInt(r.ID, 10),
			Title:       r.Title,
			Description: StripHTML(r.Description),
			StartAt:     *r.StartAt,
			EndAt:       r.EndAt,
		})
	}
	return events, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", resp.Status, ports.ErrAccessDenied)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("canvas returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
