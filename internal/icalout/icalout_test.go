package icalout_test

import (
	"os"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcal/internal/icalout"
	"eventcal/internal/model"
)

func opts() icalout.Options {
	return icalout.Options{
		CalendarName:  "Shrewsbury & Shropshire Events",
		HubURL:        "https://example.github.io/events",
		Timezone:      "Europe/London",
		Category:      "Events",
		LocalCategory: "Shrewsbury",
		Now:           time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC),
	}
}

func item(ev model.Event, uid string, seq int) icalout.Item {
	return icalout.Item{Event: &ev, UID: uid, Sequence: seq}
}

func TestRenderContainer(t *testing.T) {
	out := icalout.Render(nil, opts())

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	assert.Contains(t, out, "VERSION:2.0\r\n")
	assert.Contains(t, out, "CALSCALE:GREGORIAN\r\n")
	assert.Contains(t, out, "X-WR-CALNAME:Shrewsbury & Shropshire Events\r\n")
	assert.Contains(t, out, "X-WR-TIMEZONE:Europe/London\r\n")
	assert.Contains(t, out, "URL:https://example.github.io/events\r\n")
	assert.Contains(t, out, "REFRESH-INTERVAL;VALUE=DURATION:P1D\r\n")
	assert.Contains(t, out, "X-PUBLISHED-TTL:PT12H\r\n")
}

func TestRenderWholeDayEndExclusive(t *testing.T) {
	// End instant 2025-09-14T18:00Z: the last day is the 14th, so the
	// exclusive DTEND must be the 15th.
	out := icalout.Render([]icalout.Item{item(model.Event{
		Summary: "Festival",
		Start:   time.Date(2025, 9, 12, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 9, 14, 18, 0, 0, 0, time.UTC),
	}, "festival-2025@test", 0)}, opts())

	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250912\r\n")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20250915\r\n")
	// Whole-day values only, never a time-of-day component.
	assert.NotContains(t, out, "DTSTART:2025")
}

func TestRenderSingleDayEvent(t *testing.T) {
	day := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	out := icalout.Render([]icalout.Item{item(model.Event{
		Summary: "Market", Start: day, End: day,
	}, "market-2025@test", 0)}, opts())

	assert.Contains(t, out, "DTSTART;VALUE=DATE:20250912\r\n")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20250913\r\n")
}

func TestRenderEscapesText(t *testing.T) {
	day := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	out := icalout.Render([]icalout.Item{item(model.Event{
		Summary:     `Fair; food, fun\games`,
		Description: "line one\nline two",
		Start:       day, End: day,
	}, "fair-2025@test", 0)}, opts())

	assert.Contains(t, out, `SUMMARY:Fair\; food\, fun\\games`)
	assert.Contains(t, out, `DESCRIPTION:line one\nline two`)
}

func TestRenderIdentityAndLocality(t *testing.T) {
	day := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	out := icalout.Render([]icalout.Item{
		item(model.Event{Summary: "Local Fair", Start: day, End: day, Local: true, URL: "https://shrewsbury.example/x"}, "local-fair-2025@test", 3),
		item(model.Event{Summary: "Generic Gig", Start: day, End: day}, "generic-gig-2025@test", 0),
	}, opts())

	assert.Contains(t, out, "UID:local-fair-2025@test\r\n")
	assert.Contains(t, out, "SEQUENCE:3\r\n")
	assert.Contains(t, out, "DTSTAMP:20250901T103000Z\r\n")
	assert.Contains(t, out, "URL:https://shrewsbury.example/x\r\n")

	assert.Contains(t, out, "CATEGORIES:Events,Shrewsbury\r\n")
	assert.Contains(t, out, "PRIORITY:1\r\n")
	assert.Contains(t, out, "CATEGORIES:Events\r\n")
	assert.Contains(t, out, "PRIORITY:5\r\n")
	assert.Contains(t, out, "STATUS:CONFIRMED\r\n")
	assert.Contains(t, out, "TRANSP:TRANSPARENT\r\n")
}

// The output must stay consumable by an iCalendar parser.
func TestRenderRoundTripsThroughParser(t *testing.T) {
	day := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	out := icalout.Render([]icalout.Item{
		item(model.Event{Summary: "One", Start: day, End: day}, "one-2025@test", 0),
		item(model.Event{Summary: "Two", Start: day.AddDate(0, 0, 1), End: day.AddDate(0, 0, 2)}, "two-2025@test", 1),
	}, opts())

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 2)
	assert.Equal(t, "one-2025@test", cal.Events()[0].GetProperty(ical.ComponentPropertyUniqueId).Value)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out/events.ics"

	require.NoError(t, icalout.WriteFile(path, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "VCALENDAR")

	// No temp droppings left behind.
	entries, err := os.ReadDir(dir + "/out")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
