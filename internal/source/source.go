// Package source contains the per-source-type extractors. Every extractor
// turns one configured source into a list of raw events; a failure is
// returned to the caller, counted against the source, and never stops the
// run.
package source

import (
	"context"
	"fmt"
	"time"

	"eventcal/internal/config"
	"eventcal/internal/fetch"
	"eventcal/internal/model"
)

// Extractor is the capability all source types share.
type Extractor interface {
	Name() string
	Extract(ctx context.Context) ([]model.RawEvent, error)
}

// Window carries the retention horizon into extractors that need it:
// recurrence expansion is bounded by it and free-text year inference is
// anchored at its lower bound.
type Window struct {
	Start time.Time
	End   time.Time
}

// Report is the per-source outcome the pipeline aggregates instead of
// swallowing failures in place.
type Report struct {
	Name   string
	Events int
	Err    error
}

// New builds the extractor for a configured source.
func New(cfg config.Source, client *fetch.Client, win Window) (Extractor, error) {
	switch cfg.Type {
	case config.TypeJSONLD:
		return newJSONLD(cfg, client, win), nil
	case config.TypeFeed:
		return newFeed(cfg, client), nil
	case config.TypeICS:
		return newICS(cfg, client, win), nil
	case config.TypeHTML:
		return newHTML(cfg, client, win), nil
	default:
		return nil, fmt.Errorf("source %q: unknown type %q", cfg.Name, cfg.Type)
	}
}

// Run executes one extractor and folds the outcome into a Report.
func Run(ctx context.Context, ex Extractor) ([]model.RawEvent, Report) {
	events, err := ex.Extract(ctx)
	return events, Report{Name: ex.Name(), Events: len(events), Err: err}
}
