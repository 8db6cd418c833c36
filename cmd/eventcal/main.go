package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventcal/internal/config"
	"eventcal/internal/fetch"
	"eventcal/internal/icalout"
	"eventcal/internal/identity"
	applog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/normalize"
	"eventcal/internal/source"
	"eventcal/internal/window"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	outPath    string
	statePath  string
	debug      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()
	if flags.debug {
		applog.SetLevel(applog.LevelDebug)
	}

	applog.Info("eventcal starting", "config", flags.configPath)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		applog.Error("failed to load config", err, "config_path", flags.configPath)
		return 1
	}

	// CLI overrides for the two output paths.
	if flags.outPath != "" {
		conf.Output = flags.outPath
	}
	if flags.statePath != "" {
		conf.State = flags.statePath
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		applog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	now := time.Now().UTC()
	winOpts := window.Options{
		Now:        now,
		PastDays:   conf.Window.PastDays,
		FutureDays: conf.Window.FutureDays,
		Hints:      conf.LocalHints,
	}
	lo, hi := winOpts.Bounds()

	applog.Info("effective config",
		"sources", len(conf.Sources),
		"manual", len(conf.Manual),
		"window_start", lo.Format("2006-01-02"),
		"window_end", hi.Format("2006-01-02"),
		"output", conf.Output,
		"state", conf.State,
	)

	client := fetch.New(conf.HTTPTimeout(), conf.UserAgent)

	// One source at a time; a failing source contributes zero events and a
	// report line, never a dead run.
	var raws []model.RawEvent
	reports := make([]source.Report, 0, len(conf.Sources))
	for _, sc := range conf.Sources {
		if ctx.Err() != nil {
			applog.Warn("run cancelled, skipping remaining sources")
			break
		}

		ex, err := source.New(sc, client, source.Window{Start: lo, End: hi})
		if err != nil {
			reports = append(reports, source.Report{Name: sc.Name, Err: err})
			continue
		}

		events, rep := source.Run(ctx, ex)
		reports = append(reports, rep)
		raws = append(raws, events...)
	}

	for _, rep := range reports {
		if rep.Err != nil {
			applog.Warn("source failed", "source", rep.Name, "reason", rep.Err)
			continue
		}
		applog.Info("source done", "source", rep.Name, "events", rep.Events)
	}

	raws = append(raws, manualEvents(conf.Manual)...)

	filtered := window.Filter(raws, winOpts)
	canonical := normalize.Merge(filtered)
	identity.Sort(canonical)

	state := identity.LoadState(conf.State)
	assigner := identity.NewAssigner(state, conf.Namespace)

	items := make([]icalout.Item, 0, len(canonical))
	for _, ev := range canonical {
		uid, seq := assigner.Assign(ev)
		items = append(items, icalout.Item{Event: ev, UID: uid, Sequence: seq})
	}

	content := icalout.Render(items, icalout.Options{
		CalendarName:  conf.CalendarName,
		HubURL:        conf.HubURL,
		Timezone:      conf.Timezone,
		Category:      conf.Category,
		LocalCategory: conf.LocalCategory,
		Now:           now,
	})
	if err := icalout.WriteFile(conf.Output, content); err != nil {
		applog.Error("failed to write calendar", err, "path", conf.Output)
		return 1
	}
	if err := state.Save(conf.State); err != nil {
		applog.Error("failed to save state", err, "path", conf.State)
		return 1
	}

	active := 0
	for _, rep := range reports {
		if rep.Err == nil && rep.Events > 0 {
			active++
		}
	}

	applog.Info("run complete",
		"raw_events", len(raws),
		"events", len(items),
		"active_sources", active,
		"output", conf.Output,
	)

	// Partial-failure signal: output was written best-effort above, but a
	// run where too few sources yielded anything must not look healthy to
	// whatever schedules it.
	if len(conf.Sources) > 0 && active < conf.MinActiveSources {
		applog.Error("too few sources produced events", errors.New("below min_active_sources"),
			"active", active, "required", conf.MinActiveSources)
		return 1
	}

	return 0
}

// manualEvents converts hand-curated config entries into raw events so they
// flow through the same window filter and dedup as scraped ones.
func manualEvents(entries []config.ManualEvent) []model.RawEvent {
	out := make([]model.RawEvent, 0, len(entries))
	for _, m := range entries {
		end := m.End
		if end == "" {
			end = m.Start
		}
		out = append(out, model.RawEvent{
			Summary:     m.Summary,
			Start:       m.Start,
			End:         end,
			URL:         m.URL,
			Location:    m.Location,
			Description: m.Description,
			Source:      "manual",
		})
	}
	return out
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.outPath, "out", "", "Output ICS path (overrides config if set)")
	flag.StringVar(&cfg.statePath, "state", "", "State file path (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
