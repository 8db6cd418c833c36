package model

import "time"

// RawEvent is what a source extractor produces: field values as the source
// published them, dates still in source-native text form. Only Summary is
// expected to be present; anything else may be empty or unparseable.
type RawEvent struct {
	Summary     string
	Start       string // source-native date text
	End         string
	URL         string
	Location    string
	Description string

	// Source identifies the producing source (config name or URL),
	// kept for logging and troubleshooting only.
	Source string
}

// Event is the pipeline-internal representation after window filtering:
// dates resolved to timezone-aware instants, locality affinity decided.
// After the merge phase there is exactly one Event per dedup key and the
// value is treated as immutable.
type Event struct {
	Summary     string
	Start       time.Time // UTC
	End         time.Time // UTC, never before Start
	URL         string
	Location    string
	Description string
	Source      string

	// Local marks events matching the configured locality hints.
	// Local events win merges and sort ahead of everything else.
	Local bool
}

// Day returns the calendar day of the event start, which together with the
// summary forms the dedup key.
func (e Event) Day() string {
	return e.Start.UTC().Format("2006-01-02")
}

// Key returns the dedup key: two events with the same summary starting on
// the same calendar day are assumed to be the same real-world occurrence.
func (e Event) Key() string {
	return e.Summary + "|" + e.Day()
}
