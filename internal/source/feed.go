package source

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"

	"eventcal/internal/config"
	"eventcal/internal/fetch"
	"eventcal/internal/model"
)

// feedSource reads an RSS/Atom feed. Feeds rarely carry structured event
// dates, so the entry's published timestamp is used as a best-effort start;
// entries without one are dropped later by the window filter.
type feedSource struct {
	cfg    config.Source
	client *fetch.Client
}

func newFeed(cfg config.Source, client *fetch.Client) *feedSource {
	return &feedSource{cfg: cfg, client: client}
}

func (s *feedSource) Name() string { return s.cfg.Name }

func (s *feedSource) Extract(ctx context.Context) ([]model.RawEvent, error) {
	body, err := s.client.Get(ctx, s.cfg.URL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, err
	}

	events := make([]model.RawEvent, 0, len(feed.Items))
	for _, item := range feed.Items {
		start := ""
		switch {
		case item.PublishedParsed != nil:
			start = item.PublishedParsed.UTC().Format(time.RFC3339)
		case item.UpdatedParsed != nil:
			start = item.UpdatedParsed.UTC().Format(time.RFC3339)
		}

		link := item.Link
		if link == "" {
			link = s.cfg.URL
		}

		events = append(events, model.RawEvent{
			Summary:     item.Title,
			Start:       start,
			End:         start,
			URL:         link,
			Description: item.Description,
			Source:      s.cfg.Name,
		})
	}

	return events, nil
}
