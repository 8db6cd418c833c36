package source

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"eventcal/internal/config"
	"eventcal/internal/dateparse"
	"eventcal/internal/fetch"
	applog "eventcal/internal/log"
	"eventcal/internal/model"
)

// A guess must match at least this many blocks before it is trusted.
const minGuessMatches = 3

// selectorGuesses is tried in order when a source has no configured
// selectors. Listing pages differ endlessly; these cover the common
// WordPress/listing-plugin shapes.
var selectorGuesses = []config.Selectors{
	{Event: ".event", Title: "h3", Link: "a", Date: ".date", Location: ".location", Description: ".description"},
	{Event: ".event-item", Title: ".event-title", Link: "a", Date: ".event-date", Location: ".event-location"},
	{Event: "article.event", Title: "h2", Link: "a", Date: "time", Location: ".venue"},
	{Event: "li.event", Title: "a", Link: "a", Date: ".date"},
	{Event: ".events-list li", Title: "a", Link: "a", Date: ".date"},
	{Event: "article", Title: "h2", Link: "a", Date: "time"},
}

// htmlSource scrapes a listing page with CSS selectors. With configured
// selectors it crawls via colly, following an optional next-page link up to
// MaxPages; without them it fetches once and tries generic guesses.
type htmlSource struct {
	cfg    config.Source
	client *fetch.Client
	win    Window
}

func newHTML(cfg config.Source, client *fetch.Client, win Window) *htmlSource {
	return &htmlSource{cfg: cfg, client: client, win: win}
}

func (s *htmlSource) Name() string { return s.cfg.Name }

func (s *htmlSource) Extract(ctx context.Context) ([]model.RawEvent, error) {
	if s.cfg.Selectors.Event == "" {
		body, err := s.client.Get(ctx, s.cfg.URL)
		if err != nil {
			return nil, err
		}
		return s.extractFromBody(body)
	}
	return s.crawl(ctx)
}

// crawl visits the source URL and, when configured, follows the next-page
// selector. The collector refuses to revisit URLs, so cyclic pagination
// terminates; pages is the hard bound.
func (s *htmlSource) crawl(ctx context.Context) ([]model.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel := s.cfg.Selectors

	c := colly.NewCollector(
		colly.UserAgent(s.client.UserAgent()),
		colly.MaxDepth(s.cfg.MaxPages),
	)
	c.SetRequestTimeout(s.client.Timeout())

	var events []model.RawEvent
	pages := 0

	c.OnResponse(func(*colly.Response) {
		pages++
	})
	c.OnHTML(sel.Event, func(h *colly.HTMLElement) {
		events = append(events, s.fromSelection(h.DOM, sel, h.Request.URL))
	})
	if sel.NextPage != "" && s.cfg.MaxPages > 1 {
		c.OnHTML(sel.NextPage, func(h *colly.HTMLElement) {
			if pages >= s.cfg.MaxPages {
				return
			}
			link := h.Attr("href")
			if link == "" {
				return
			}
			if err := h.Request.Visit(link); err != nil {
				applog.Debug("next page not followed", "source", s.cfg.Name, "reason", err)
			}
		})
	}

	if err := c.Visit(s.cfg.URL); err != nil {
		return nil, err
	}
	applog.Debug("html crawl finished", "source", s.cfg.Name, "pages", pages, "events", len(events))
	return events, nil
}

// extractFromBody runs selector extraction over an already-fetched page.
// It is also the retry path for jsonld sources with fallback_html.
func (s *htmlSource) extractFromBody(body []byte) ([]model.RawEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(s.cfg.URL)

	if s.cfg.Selectors.Event != "" {
		return s.fromDocument(doc, s.cfg.Selectors, base), nil
	}

	for _, guess := range selectorGuesses {
		if doc.Find(guess.Event).Length() >= minGuessMatches {
			applog.Debug("selector guess matched", "source", s.cfg.Name, "selector", guess.Event)
			return s.fromDocument(doc, guess, base), nil
		}
	}

	// Nothing matched: zero events from this source, not an error.
	return nil, nil
}

func (s *htmlSource) fromDocument(doc *goquery.Document, sel config.Selectors, base *url.URL) []model.RawEvent {
	var events []model.RawEvent
	doc.Find(sel.Event).Each(func(_ int, block *goquery.Selection) {
		events = append(events, s.fromSelection(block, sel, base))
	})
	return events
}

func (s *htmlSource) fromSelection(block *goquery.Selection, sel config.Selectors, base *url.URL) model.RawEvent {
	title := childText(block, sel.Title)
	if title == "" {
		title = strings.TrimSpace(block.Text())
	}

	link := ""
	if sel.Link != "" {
		if href, ok := block.Find(sel.Link).First().Attr("href"); ok {
			link = absolutize(base, href)
		}
	}
	if link == "" {
		link = s.cfg.URL
	}

	raw := model.RawEvent{
		Summary:     title,
		URL:         link,
		Location:    childText(block, sel.Location),
		Description: childText(block, sel.Description),
		Source:      s.cfg.Name,
	}
	raw.Start, raw.End = s.resolveDates(childText(block, sel.Date), childText(block, sel.End))
	return raw
}

// resolveDates feeds scraped date text through the free-text parser and
// rewrites it as RFC 3339 so the window filter sees a uniform format.
// Unparseable text is passed through untouched; the filter drops it.
func (s *htmlSource) resolveDates(dateText, endText string) (string, string) {
	start, end, ok := dateparse.ParseRange(dateText, s.win.Start)
	if !ok {
		return dateText, endText
	}
	if endText != "" {
		if _, e, ok := dateparse.ParseRange(endText, s.win.Start); ok {
			end = e
		}
	}
	return start.Format(time.RFC3339), end.Format(time.RFC3339)
}

func childText(block *goquery.Selection, sel string) string {
	if sel == "" {
		return ""
	}
	return strings.TrimSpace(block.Find(sel).First().Text())
}

func absolutize(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}
