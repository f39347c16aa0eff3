// Command taxwatch runs one poll-filter-notify pass over the configured
// government publication sources. It is meant to be invoked periodically by
// an external scheduler (cron, systemd timer, CI job).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/dayoung-lee/taxwatch/internal/config"
	"github.com/dayoung-lee/taxwatch/internal/notify"
	"github.com/dayoung-lee/taxwatch/internal/relevance"
	"github.com/dayoung-lee/taxwatch/internal/sources"
	"github.com/dayoung-lee/taxwatch/internal/state"
	"github.com/dayoung-lee/taxwatch/internal/storage"
	"github.com/dayoung-lee/taxwatch/internal/watch"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The verdict cache is an optimization; if it cannot be opened the run
	// proceeds uncached.
	var cache relevance.VerdictCache
	if cfg.Cache.Path != "" {
		c, err := storage.Open(cfg.Cache.Path, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		if err != nil {
			slog.Warn("verdict cache unavailable, running uncached", "path", cfg.Cache.Path, "error", err)
		} else {
			defer c.Close()
			cache = c
		}
	}

	fetcher := sources.NewFetcher(cfg.Watch.MaxItemsPerSource)
	filter := relevance.NewFilter(relevance.NewMatcher(cfg.Keywords), cache)
	sink := notify.NewClient(cfg.Notify.URL, cfg.Notify.Topic)
	store := state.NewStore(cfg.Watch.StateFile)

	runner := watch.NewRunner(cfg, fetcher, filter, sink, store)
	if err := runner.Run(context.Background()); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}
