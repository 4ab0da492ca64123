package icsfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"

	"canvascal/internal/domain"
	"canvascal/internal/ports"
)

const defaultEventDuration = time.Hour

// Writer serializes calendar entries into an .ics file on disk.
type Writer struct {
	path   string
	logger *slog.Logger
}

var _ ports.CalendarWriter = (*Writer)(nil)

// NewWriter targets the given output path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Write renders all entries in input order and replaces the target file
// atomically via a temp file in the same directory.
func (w *Writer) Write(ctx context.Context, entries []domain.CalendarEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//canvascal//EN")

	now := time.Now().UTC()
	for _, e := range entries {
		ev := cal.AddEvent(e.UID)
		ev.SetDtStampTime(now)
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}

		if e.AllDay {
			ev.SetAllDayStartAt(e.Start)
			ev.SetAllDayEndAt(e.Start.AddDate(0, 0, 1))
			continue
		}

		ev.SetStartAt(e.Start)
		end := e.Start.Add(defaultEventDuration)
		if e.End != nil {
			end = *e.End
		}
		ev.SetEndAt(end)
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".canvascal-*.ics")
	if err != nil {
		return fmt.Errorf("create temp calendar: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := cal.SerializeTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("serialize calendar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp calendar: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("replace calendar file: %w", err)
	}

	if w.logger != nil {
		w.logger.Info("calendar file written", "path", w.path, "events", len(entries))
	}
	return nil
}
