package domain

import "time"

// Announcement is a single timestamped item posted to a course notice board.
type Announcement struct {
	ID        string
	CourseID  string
	Title     string
	Message   string // message body as delivered by the platform (HTML)
	PlainText string // markup-stripped body used for inference
	URL       string
	PostedAt  time.Time
}

// Course describes one enrolled course as reported by the platform.
type Course struct {
	ID   string
	Name string
	Code string // display course code, matched against schedule config
}

// Assignment is a gradable item; undated assignments (nil DueAt) are skipped.
type Assignment struct {
	ID       string
	CourseID string
	Name     string
	URL      string
	DueAt    *time.Time
}

// CalendarEvent is a generic event from the user's platform calendar.
// These pass through to the output untouched.
type CalendarEvent struct {
	ID          string
	Title       string
	Description string
	StartAt     time.Time
	EndAt       *time.Time
}

// DateSource records which inference rule produced an InferredDate.
type DateSource string

const (
	SourceFallbackPosted   DateSource = "fallback-posted"
	SourceExplicitTextDate DateSource = "explicit-text-date"
	SourceNextClass        DateSource = "next-class-resolved"
)

// InferredDate is the single resolved date for an announcement.
type InferredDate struct {
	When    time.Time
	HasTime bool // false when only a calendar date could be resolved
	Source  DateSource
}

// CalendarEntry is one event destined for the output calendar file.
type CalendarEntry struct {
	UID         string
	Title       string
	Description string
	Start       time.Time
	End         *time.Time // nil lets the writer apply its default duration
	AllDay      bool
}

// SyncStatus enumerates per-course sync results.
type SyncStatus string

const (
	StatusSynced  SyncStatus = "synced"
	StatusSkipped SyncStatus = "skipped"
)

// CourseOutcome reports what happened to a single course during one run,
// so callers can tell "no data" apart from "access denied" without digging
// through logs.
type CourseOutcome struct {
	CourseID string
	Code     string
	Status   SyncStatus
	Reason   string // empty unless skipped
	Included int
	Filtered int
}
