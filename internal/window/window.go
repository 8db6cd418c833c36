// Package window drops events outside the retention horizon and tags the
// survivors with the locality-affinity flag.
package window

import (
	"strings"
	"time"

	"eventcal/internal/dateparse"
	applog "eventcal/internal/log"
	"eventcal/internal/model"
)

// Options configures the filter.
type Options struct {
	// Now anchors the window; zero means time.Now().
	Now time.Time
	// PastDays/FutureDays are the retention horizon around Now.
	PastDays   int
	FutureDays int
	// Hints are matched case-insensitively against location, URL and
	// summary to decide locality affinity.
	Hints []string
}

// Bounds returns the inclusive window [Now-PastDays, Now+FutureDays].
func (o Options) Bounds() (time.Time, time.Time) {
	now := o.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return now.AddDate(0, 0, -o.PastDays), now.AddDate(0, 0, o.FutureDays)
}

// Filter resolves raw date text to instants and keeps only events that
// intersect the window. Events whose start cannot be parsed are dropped:
// they cannot be placed on a calendar. End defaults to start and is never
// allowed before it.
func Filter(raws []model.RawEvent, opts Options) []model.Event {
	lo, hi := opts.Bounds()
	hints := lowered(opts.Hints)

	out := make([]model.Event, 0, len(raws))
	for _, raw := range raws {
		start, ok := dateparse.Parse(raw.Start)
		if !ok {
			applog.Warn("dropping event with unparseable start",
				"summary", raw.Summary, "start", raw.Start, "source", raw.Source)
			continue
		}
		end, ok := dateparse.Parse(raw.End)
		if !ok || end.Before(start) {
			end = start
		}
		if end.Before(lo) || start.After(hi) {
			continue
		}

		out = append(out, model.Event{
			Summary:     raw.Summary,
			Start:       start,
			End:         end,
			URL:         raw.URL,
			Location:    raw.Location,
			Description: raw.Description,
			Source:      raw.Source,
			Local:       matchesHints(raw, hints),
		})
	}
	return out
}

func lowered(hints []string) []string {
	out := make([]string, 0, len(hints))
	for _, h := range hints {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func matchesHints(raw model.RawEvent, hints []string) bool {
	if len(hints) == 0 {
		return false
	}
	haystack := strings.ToLower(raw.Location + " " + raw.URL + " " + raw.Summary)
	for _, h := range hints {
		if strings.Contains(haystack, h) {
			return true
		}
	}
	return false
}
