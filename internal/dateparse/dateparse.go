// Package dateparse turns the date text found in the wild (ISO forms, bare
// dates, free-text ranges like "22-25 Aug 2025") into UTC instants.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Strict layouts tried in order. Layouts without an offset are interpreted
// as UTC, matching the behaviour callers rely on for bare dates.
var layouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse converts an ISO-ish date or date-time string into a UTC instant.
// The second return value reports whether parsing succeeded; failure means
// "cannot place on calendar", not an error condition.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

const monthPat = `(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?`

var (
	// "22 Aug - 25 Aug 2025" (day-month through day-month-year)
	reSpanMonths = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPat + `\s*-\s*(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPat + `\s+(\d{4})$`)
	// "22 - 25 Aug 2025"
	reSpanYear = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\s*-\s*(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPat + `\s+(\d{4})$`)
	// "22 - 25 Aug" (year inferred)
	reSpan = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\s*-\s*(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPat + `$`)
	// "22 Aug 2025", "22 August", "Aug 22, 2025" single textual dates
	reDayMonthYear = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPat + `(?:\s+(\d{4}))?$`)
	reMonthDayYear = regexp.MustCompile(`(?i)^` + monthPat + `\s+(\d{1,2})(?:st|nd|rd|th)?(?:,)?(?:\s+(\d{4}))?$`)

	reDashes = regexp.MustCompile(`[\x{2010}\x{2012}\x{2013}\x{2014}]`)
	reToWord = regexp.MustCompile(`(?i)\s+(?:to|until|through)\s+`)
)

// ParseRange parses free-text single dates and ranges. ref anchors year
// inference for forms that omit the year. Patterns are tried most-specific
// first: day-month through day-month-year spans, day-to-day spans, two
// complete dates around a separator, and finally a single date applied to
// the whole string.
func ParseRange(s string, ref time.Time) (time.Time, time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, time.Time{}, false
	}
	s = reDashes.ReplaceAllString(s, "-")
	s = reToWord.ReplaceAllString(s, " - ")

	if m := reSpanMonths.FindStringSubmatch(s); m != nil {
		year := atoi(m[5])
		start := dayMonth(atoi(m[1]), m[2], year)
		end := dayMonth(atoi(m[3]), m[4], year)
		return start, end, true
	}
	if m := reSpanYear.FindStringSubmatch(s); m != nil {
		year := atoi(m[4])
		return dayMonth(atoi(m[1]), m[3], year), dayMonth(atoi(m[2]), m[3], year), true
	}
	if m := reSpan.FindStringSubmatch(s); m != nil {
		start := inferYear(atoi(m[1]), m[3], ref)
		end := inferYear(atoi(m[2]), m[3], ref)
		if end.Before(start) {
			end = end.AddDate(1, 0, 0)
		}
		return start, end, true
	}

	// Two complete dates around a dash. Only split when both halves parse,
	// so hyphenated ISO dates are not torn apart.
	if i := strings.Index(s, " - "); i >= 0 {
		a, okA := parseSingle(strings.TrimSpace(s[:i]), ref)
		b, okB := parseSingle(strings.TrimSpace(s[i+3:]), ref)
		if okA && okB {
			return a, b, true
		}
	}

	if t, ok := parseSingle(s, ref); ok {
		return t, t, true
	}
	return time.Time{}, time.Time{}, false
}

// parseSingle handles one date token: strict ISO forms first, then textual
// day-month(-year) and month-day(-year) forms.
func parseSingle(s string, ref time.Time) (time.Time, bool) {
	if t, ok := Parse(s); ok {
		return t, true
	}
	if m := reDayMonthYear.FindStringSubmatch(s); m != nil {
		if m[3] != "" {
			return dayMonth(atoi(m[1]), m[2], atoi(m[3])), true
		}
		return inferYear(atoi(m[1]), m[2], ref), true
	}
	if m := reMonthDayYear.FindStringSubmatch(s); m != nil {
		if m[3] != "" {
			return dayMonth(atoi(m[2]), m[1], atoi(m[3])), true
		}
		return inferYear(atoi(m[2]), m[1], ref), true
	}
	return time.Time{}, false
}

func dayMonth(day int, month string, year int) time.Time {
	return time.Date(year, monthOf(month), day, 0, 0, 0, 0, time.UTC)
}

// inferYear picks the reference year, rolling forward when the resulting
// date would sit well behind the reference point. Listings without a year
// describe upcoming events, not last year's.
func inferYear(day int, month string, ref time.Time) time.Time {
	t := dayMonth(day, month, ref.Year())
	if t.Before(ref.AddDate(0, 0, -45)) {
		t = t.AddDate(1, 0, 0)
	}
	return t
}

func monthOf(name string) time.Month {
	return months[strings.ToLower(name)[:3]]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
