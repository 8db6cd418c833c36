package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source types understood by the extractor factory.
const (
	TypeJSONLD = "jsonld"
	TypeFeed   = "feed"
	TypeICS    = "ics"
	TypeHTML   = "html"
)

// Selectors holds the CSS selectors for a heuristic HTML source. All fields
// are optional; when Event is empty the extractor falls back to a built-in
// list of generic guesses.
type Selectors struct {
	// Event selects the repeating per-event block.
	Event string `yaml:"event"`
	// The remaining selectors are evaluated relative to the event block.
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Date        string `yaml:"date"`
	End         string `yaml:"end"`
	Location    string `yaml:"location"`
	Description string `yaml:"description"`
	// NextPage selects the pagination link to follow, if any.
	NextPage string `yaml:"next_page"`
}

// Source describes one place events are collected from.
type Source struct {
	// Name is a human-friendly label used in logs and reports.
	// Defaults to the URL when empty.
	Name string `yaml:"name"`
	// Type is one of jsonld, feed, ics, html.
	Type string `yaml:"type"`
	URL  string `yaml:"url"`

	// FallbackHTML lets a jsonld source retry with the heuristic HTML
	// extractor when no structured data was found.
	FallbackHTML bool `yaml:"fallback_html"`

	// MaxPages bounds pagination for html sources. 1 means no pagination.
	MaxPages  int       `yaml:"max_pages"`
	Selectors Selectors `yaml:"selectors"`
}

// ManualEvent is a hand-curated entry merged into the raw event stream
// before window filtering, exactly like scraped events.
type ManualEvent struct {
	Summary     string `yaml:"summary"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Location    string `yaml:"location"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
}

// Window is the retention horizon around "now".
type Window struct {
	PastDays   int `yaml:"past_days"`
	FutureDays int `yaml:"future_days"`
}

// Config is the top-level application configuration.
type Config struct {
	// CalendarName becomes X-WR-CALNAME in the output.
	CalendarName string `yaml:"calendar_name"`
	// Namespace is the domain part of generated UIDs.
	Namespace string `yaml:"namespace"`
	// HubURL is the public home of the calendar, advertised in the
	// container and in the User-Agent.
	HubURL string `yaml:"hub_url"`
	// Timezone is the X-WR-TIMEZONE hint; all emitted values are
	// whole-day dates, so this is advisory only.
	Timezone string `yaml:"timezone"`
	// UserAgent overrides the default one derived from HubURL.
	UserAgent string `yaml:"user_agent"`

	Window Window `yaml:"window"`

	// LocalHints are matched case-insensitively against an event's
	// location, URL and summary to set the locality-affinity flag.
	LocalHints []string `yaml:"local_hints"`

	// Category is attached to every event; LocalCategory additionally to
	// locality-matching ones.
	Category      string `yaml:"category"`
	LocalCategory string `yaml:"local_category"`

	// MinActiveSources is the partial-failure threshold: when fewer
	// sources than this produce at least one event, the run exits
	// non-zero (output is still written best-effort).
	MinActiveSources int `yaml:"min_active_sources"`

	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds"`

	Output string `yaml:"output"`
	State  string `yaml:"state"`

	Sources []Source      `yaml:"sources"`
	Manual  []ManualEvent `yaml:"manual"`
}

// Default returns the built-in configuration: no sources, no manual
// events, documented default knobs.
func Default() *Config {
	return &Config{
		CalendarName:       "Local Events",
		Namespace:          "events.example.org",
		Timezone:           "Europe/London",
		Window:             Window{PastDays: 7, FutureDays: 240},
		Category:           "Events",
		MinActiveSources:   1,
		HTTPTimeoutSeconds: 20,
		Output:             "events.ics",
		State:              "data/state.json",
	}
}

// Normalize fills missing or zero values with defaults so partially filled
// configs behave predictably.
func (c *Config) Normalize() {
	def := Default()
	if c.CalendarName == "" {
		c.CalendarName = def.CalendarName
	}
	if c.Namespace == "" {
		c.Namespace = def.Namespace
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Window.PastDays <= 0 {
		c.Window.PastDays = def.Window.PastDays
	}
	if c.Window.FutureDays <= 0 {
		c.Window.FutureDays = def.Window.FutureDays
	}
	if c.Category == "" {
		c.Category = def.Category
	}
	if c.MinActiveSources <= 0 {
		c.MinActiveSources = def.MinActiveSources
	}
	if c.HTTPTimeoutSeconds <= 0 {
		c.HTTPTimeoutSeconds = def.HTTPTimeoutSeconds
	}
	if c.Output == "" {
		c.Output = def.Output
	}
	if c.State == "" {
		c.State = def.State
	}
	if c.UserAgent == "" {
		c.UserAgent = "eventcal/1.0 (+" + c.HubURL + ")"
	}

	for i := range c.Sources {
		if c.Sources[i].Name == "" {
			c.Sources[i].Name = c.Sources[i].URL
		}
		if c.Sources[i].MaxPages <= 0 {
			c.Sources[i].MaxPages = 1
		}
	}
}

// HTTPTimeout returns the per-request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Load reads configuration from the given YAML path.
//
// A missing file is not an error: the run proceeds with defaults and empty
// source and manual lists. Any other read or parse failure is returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			cfg.Normalize()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}
