package source

import (
	"bytes"
	"context"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"eventcal/internal/config"
	"eventcal/internal/fetch"
	applog "eventcal/internal/log"
	"eventcal/internal/model"
)

// Safety cap so a malformed RRULE cannot flood the pipeline.
const maxOccurrences = 1000

// icsSource imports a remote iCalendar document. Recurring events are
// expanded into concrete occurrences inside the retention window;
// date-only values become midnight-UTC instants.
type icsSource struct {
	cfg    config.Source
	client *fetch.Client
	win    Window
}

func newICS(cfg config.Source, client *fetch.Client, win Window) *icsSource {
	return &icsSource{cfg: cfg, client: client, win: win}
}

func (s *icsSource) Name() string { return s.cfg.Name }

func (s *icsSource) Extract(ctx context.Context) ([]model.RawEvent, error) {
	body, err := s.client.Get(ctx, s.cfg.URL)
	if err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var events []model.RawEvent
	for _, ve := range cal.Events() {
		events = append(events, s.fromVEvent(ve)...)
	}
	return events, nil
}

// fromVEvent turns one VEVENT into zero or more raw events. A recurring
// event contributes one raw event per occurrence inside the window.
func (s *icsSource) fromVEvent(ve *ical.VEvent) []model.RawEvent {
	start, err := ve.GetStartAt()
	if err != nil {
		return nil
	}
	end, err := ve.GetEndAt()
	if err != nil || end.IsZero() {
		end = start
	}

	if isDateOnly(ve.GetProperty(ical.ComponentPropertyDtStart)) {
		start = midnightUTC(start)
		// Date-only DTEND is exclusive; fold it back one day so the
		// pipeline's inclusive end lands on the actual last day.
		end = midnightUTC(end).AddDate(0, 0, -1)
		if end.Before(start) {
			end = start
		}
	}

	base := model.RawEvent{
		Summary: propValue(ve, ical.ComponentPropertySummary),
		URL:     propValue(ve, ical.ComponentProperty("URL")),
		Source:  s.cfg.Name,
	}
	base.Location = propValue(ve, ical.ComponentPropertyLocation)
	base.Description = propValue(ve, ical.ComponentPropertyDescription)

	rawRule := propValue(ve, ical.ComponentPropertyRrule)
	if rawRule == "" {
		base.Start = start.UTC().Format(time.RFC3339)
		base.End = end.UTC().Format(time.RFC3339)
		return []model.RawEvent{base}
	}

	return s.expand(ve, base, rawRule, start, end)
}

// expand applies the RRULE (honouring EXDATE) within the retention window,
// preserving the original duration for each occurrence.
func (s *icsSource) expand(ve *ical.VEvent, base model.RawEvent, rawRule string, start, end time.Time) []model.RawEvent {
	rule, err := rrule.StrToRRule(rawRule)
	if err != nil {
		applog.Warn("unparseable RRULE, keeping base event only",
			"source", s.cfg.Name, "rrule", rawRule)
		base.Start = start.UTC().Format(time.RFC3339)
		base.End = end.UTC().Format(time.RFC3339)
		return []model.RawEvent{base}
	}
	rule.DTStart(start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range exDates(ve) {
		set.ExDate(ex.In(start.Location()))
	}

	times := set.Between(s.win.Start.In(start.Location()), s.win.End.In(start.Location()), true)
	if len(times) > maxOccurrences {
		applog.Warn("recurrence expansion truncated",
			"source", s.cfg.Name, "cap", maxOccurrences)
		times = times[:maxOccurrences]
	}

	duration := end.Sub(start)
	out := make([]model.RawEvent, 0, len(times))
	for _, occStart := range times {
		occ := base
		occ.Start = occStart.UTC().Format(time.RFC3339)
		occ.End = occStart.Add(duration).UTC().Format(time.RFC3339)
		out = append(out, occ)
	}
	return out
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

// isDateOnly reports whether a DTSTART property carries VALUE=DATE or a
// bare YYYYMMDD value.
func isDateOnly(p *ical.IANAProperty) bool {
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// exDates collects EXDATE values; EXDATE may appear multiple times and
// carry comma-separated lists.
func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, ok := parseICSStamp(part); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseICSStamp parses the basic iCalendar date and date-time shapes used
// by EXDATE. Values without an explicit zone are read as UTC.
func parseICSStamp(v string) (time.Time, bool) {
	for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
