// Package icalout renders canonical events as an iCalendar document with
// whole-day date values.
//
// The output layout (VALUE=DATE rendering, the exact X- properties, the
// text escapes) is normative for downstream consumers, so the writer emits
// the lines itself instead of going through a serializer that controls its
// own property formatting.
package icalout

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"eventcal/internal/model"
)

// Options carries the calendar-level metadata.
type Options struct {
	// CalendarName becomes X-WR-CALNAME and the PRODID vendor text.
	CalendarName string
	// HubURL is advertised as the calendar's URL property when set.
	HubURL string
	// Timezone is the X-WR-TIMEZONE hint.
	Timezone string
	// Category is attached to every event; LocalCategory additionally to
	// locality-matching ones.
	Category      string
	LocalCategory string
	// Now is the shared DTSTAMP for all events in the run.
	Now time.Time
}

// Item pairs a canonical event with its assigned identity.
type Item struct {
	Event    *model.Event
	UID      string
	Sequence int
}

const (
	priorityLocal   = "1"
	priorityDefault = "5"
)

// Render produces the complete VCALENDAR text, CRLF-terminated.
func Render(items []Item, opts Options) string {
	dtstamp := opts.Now.UTC().Format("20060102T150405Z")

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//" + opts.CalendarName + "//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:" + escapeText(opts.CalendarName),
	}
	if opts.Timezone != "" {
		lines = append(lines, "X-WR-TIMEZONE:"+opts.Timezone)
	}
	if opts.HubURL != "" {
		lines = append(lines, "URL:"+opts.HubURL)
	}
	lines = append(lines,
		"REFRESH-INTERVAL;VALUE=DURATION:P1D",
		"X-PUBLISHED-TTL:PT12H",
	)

	for _, item := range items {
		lines = append(lines, eventLines(item, dtstamp, opts)...)
	}

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

// eventLines renders one VEVENT. Both ends are whole-day values; DTEND is
// one calendar day past the end instant because DTEND is exclusive, which
// makes the event span through its actual last day.
func eventLines(item Item, dtstamp string, opts Options) []string {
	ev := item.Event

	lines := []string{
		"BEGIN:VEVENT",
		"UID:" + item.UID,
		"DTSTAMP:" + dtstamp,
		"SEQUENCE:" + strconv.Itoa(item.Sequence),
		"DTSTART;VALUE=DATE:" + ev.Start.UTC().Format("20060102"),
		"DTEND;VALUE=DATE:" + ev.End.UTC().AddDate(0, 0, 1).Format("20060102"),
		"SUMMARY:" + escapeText(ev.Summary),
		"LOCATION:" + escapeText(ev.Location),
		"DESCRIPTION:" + escapeText(ev.Description),
	}
	if ev.URL != "" {
		lines = append(lines, "URL:"+ev.URL)
	}

	categories := opts.Category
	if ev.Local && opts.LocalCategory != "" {
		categories += "," + opts.LocalCategory
	}
	priority := priorityDefault
	if ev.Local {
		priority = priorityLocal
	}

	return append(lines,
		"CATEGORIES:"+categories,
		"PRIORITY:"+priority,
		"STATUS:CONFIRMED",
		"TRANSP:TRANSPARENT",
		"END:VEVENT",
	)
}

// escapeText applies the four iCalendar text escapes. Backslash first, or
// the escapes themselves would be escaped again.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// WriteFile writes the calendar atomically next to its final location.
func WriteFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventcal-out-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
