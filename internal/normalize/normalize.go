// Package normalize merges raw events that describe the same real-world
// occurrence into one canonical record.
package normalize

import "eventcal/internal/model"

// Merge groups events by dedup key (summary + start day) and folds each
// group into a single canonical event. The merge is asymmetric on purpose:
// a locality-matching record replaces a generic one's url, location and
// description outright, because local sources are trusted over aggregators
// even when their text is shorter. Otherwise the longer non-empty text
// wins per field. The end instant is always extended to the latest seen.
//
// The returned events preserve first-seen order.
func Merge(events []model.Event) []*model.Event {
	byKey := make(map[string]*model.Event, len(events))
	order := make([]*model.Event, 0, len(events))

	for _, ev := range events {
		if ev.Summary == "" {
			ev.Summary = "Event"
		}
		key := ev.Key()
		curr, ok := byKey[key]
		if !ok {
			cp := ev
			byKey[key] = &cp
			order = append(order, &cp)
			continue
		}
		mergeInto(curr, ev)
	}

	return order
}

func mergeInto(dst *model.Event, src model.Event) {
	if src.Local && !dst.Local {
		dst.URL = src.URL
		dst.Location = src.Location
		dst.Description = src.Description
		dst.Local = true
	} else {
		dst.URL = longer(dst.URL, src.URL)
		dst.Location = longer(dst.Location, src.Location)
		dst.Description = longer(dst.Description, src.Description)
	}
	if src.End.After(dst.End) {
		dst.End = src.End
	}
	if dst.Source == "" {
		dst.Source = src.Source
	}
}

func longer(a, b string) string {
	if len(a) >= len(b) {
		return a
	}
	return b
}
