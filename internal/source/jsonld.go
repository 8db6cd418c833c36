package source

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"eventcal/internal/config"
	"eventcal/internal/fetch"
	applog "eventcal/internal/log"
	"eventcal/internal/model"
)

// Ordered accessor keys for the field-name synonyms seen across sites.
// New synonyms are added here, not as new conditionals.
var (
	jsonldNameKeys  = []string{"name", "headline"}
	jsonldStartKeys = []string{"startDate", "start", "startTime"}
	jsonldEndKeys   = []string{"endDate", "endDateTime", "end"}
	jsonldAddrKeys  = []string{"streetAddress", "addressLocality", "addressRegion", "postalCode"}
)

// jsonldSource scans a page for embedded schema.org Event blocks.
type jsonldSource struct {
	cfg      config.Source
	client   *fetch.Client
	fallback *htmlSource // heuristic retry when no structured data is found
}

func newJSONLD(cfg config.Source, client *fetch.Client, win Window) *jsonldSource {
	s := &jsonldSource{cfg: cfg, client: client}
	if cfg.FallbackHTML {
		s.fallback = newHTML(cfg, client, win)
	}
	return s
}

func (s *jsonldSource) Name() string { return s.cfg.Name }

func (s *jsonldSource) Extract(ctx context.Context) ([]model.RawEvent, error) {
	body, err := s.client.Get(ctx, s.cfg.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var events []model.RawEvent
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			// Broken blocks are common in the wild; skip quietly.
			applog.Debug("jsonld block unparseable", "source", s.cfg.Name)
			return
		}
		for _, item := range flattenJSONLD(data) {
			if !isEventType(item["@type"]) {
				continue
			}
			events = append(events, s.fromItem(item))
		}
	})

	if len(events) == 0 && s.fallback != nil {
		applog.Info("no structured data, falling back to html extraction",
			"source", s.cfg.Name, "url", fetch.RedactURL(s.cfg.URL))
		return s.fallback.extractFromBody(body)
	}

	return events, nil
}

func (s *jsonldSource) fromItem(item map[string]any) model.RawEvent {
	start := firstString(item, jsonldStartKeys)
	end := firstString(item, jsonldEndKeys)
	if end == "" {
		end = start
	}
	url, _ := item["url"].(string)
	if url == "" {
		url = s.cfg.URL
	}
	desc, _ := item["description"].(string)

	return model.RawEvent{
		Summary:     firstString(item, jsonldNameKeys),
		Start:       start,
		End:         end,
		URL:         url,
		Location:    composeLocation(item["location"]),
		Description: desc,
		Source:      s.cfg.Name,
	}
}

// flattenJSONLD unwraps the three shapes a ld+json block comes in: a single
// object, a list of objects, or an object wrapping a @graph list.
func flattenJSONLD(data any) []map[string]any {
	var items []map[string]any
	switch v := data.(type) {
	case []any:
		for _, el := range v {
			if m, ok := el.(map[string]any); ok {
				items = append(items, m)
			}
		}
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			for _, el := range graph {
				if m, ok := el.(map[string]any); ok {
					items = append(items, m)
				}
			}
		} else {
			items = append(items, v)
		}
	}
	return items
}

// isEventType matches @type "Event" whether it is a string or a list.
func isEventType(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Event")
	case []any:
		for _, el := range v {
			if s, ok := el.(string); ok && strings.EqualFold(s, "Event") {
				return true
			}
		}
	}
	return false
}

// composeLocation builds "Venue, street, town, region, postcode" from a
// schema.org location object. Non-object locations degrade to their string
// form.
func composeLocation(loc any) string {
	switch v := loc.(type) {
	case string:
		return v
	case map[string]any:
		parts := make([]string, 0, 5)
		if name, ok := v["name"].(string); ok && name != "" {
			parts = append(parts, name)
		}
		if addr, ok := v["address"].(map[string]any); ok {
			for _, key := range jsonldAddrKeys {
				if p, ok := addr[key].(string); ok && p != "" {
					parts = append(parts, p)
				}
			}
		} else if addr, ok := v["address"].(string); ok && addr != "" {
			parts = append(parts, addr)
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func firstString(item map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := item[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
