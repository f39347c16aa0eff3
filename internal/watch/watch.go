// Package watch drives one run of the pipeline: load state, poll every
// source, filter for new relevant items, push the digest, commit state.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dayoung-lee/taxwatch/internal/config"
	"github.com/dayoung-lee/taxwatch/internal/digest"
	"github.com/dayoung-lee/taxwatch/internal/sources"
	"github.com/dayoung-lee/taxwatch/internal/state"
)

// Hit is a candidate item that passed relevance filtering and was not
// previously notified.
type Hit struct {
	ID     state.ID
	Title  string
	URL    string
	Source string
}

// SourceFetcher produces the candidate items for one configured source.
type SourceFetcher interface {
	Fetch(ctx context.Context, src config.Source) ([]sources.Item, error)
}

// Filter decides whether an unseen candidate item is relevant.
type Filter interface {
	IsRelevant(ctx context.Context, id string, item sources.Item) bool
}

// Sink delivers one formatted notification chunk.
type Sink interface {
	Send(ctx context.Context, title, body string) error
}

// Runner executes runs of the watch pipeline.
type Runner struct {
	cfg     *config.Config
	fetcher SourceFetcher
	filter  Filter
	sink    Sink
	store   *state.Store
	now     func() time.Time
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(cfg *config.Config, fetcher SourceFetcher, filter Filter, sink Sink, store *state.Store) *Runner {
	return &Runner{
		cfg:     cfg,
		fetcher: fetcher,
		filter:  filter,
		sink:    sink,
		store:   store,
		now:     time.Now,
	}
}

// Run executes one pipeline pass. Sources are polled sequentially; a failed
// source is logged and skipped, never aborting the run. State I/O failures
// are fatal because dedup correctness depends on working state.
//
// When nothing new and relevant was found, the run ends without touching
// the state file and without sending anything.
//
// An item's identity is committed once it was included in an outgoing
// notification batch, even if delivery of that batch failed: re-notifying
// on a flaky sink is considered worse than losing one push, and the next
// scheduled run retries nothing.
func (r *Runner) Run(ctx context.Context) error {
	st, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}

	var hits []Hit
	for _, src := range r.cfg.Sources {
		items, err := r.fetcher.Fetch(ctx, src)
		if err != nil {
			slog.Warn("source fetch failed", "source", src.Name, "error", err)
			continue
		}

		found := 0
		for _, item := range items {
			id := state.ComputeID(item.Title, item.URL)
			// Seen items are excluded before the filter runs, so they
			// never trigger a secondary body fetch.
			if st.Seen(id) {
				continue
			}
			if !r.filter.IsRelevant(ctx, string(id), item) {
				continue
			}
			hits = append(hits, Hit{ID: id, Title: item.Title, URL: item.URL, Source: src.Name})
			found++
		}
		slog.Info("polled source", "source", src.Name, "items", len(items), "new", found)
	}

	if len(hits) == 0 {
		slog.Info("no new updates")
		return nil
	}

	if limit := r.cfg.Watch.MaxNotifyItems; len(hits) > limit {
		slog.Info("capping notification batch", "hits", len(hits), "max", limit)
		hits = hits[:limit]
	}

	entries := make([]digest.Entry, len(hits))
	for i, h := range hits {
		entries[i] = digest.Entry{Source: h.Source, Title: h.Title, URL: h.URL}
	}
	d := digest.Build(entries, r.cfg.Watch.Label, r.now(), r.cfg.Watch.TitleMaxLen, r.cfg.Watch.ChunkSize)

	for i, chunk := range d.Chunks {
		if err := r.sink.Send(ctx, d.Titles[i], chunk); err != nil {
			slog.Warn("notification delivery failed", "title", d.Titles[i], "error", err)
		}
	}

	// Only the hits that made it into the batch are committed; anything
	// cut by the cap is re-evaluated (and notified) next run.
	for _, h := range hits {
		st.MarkSent(h.ID)
	}
	if err := r.store.Save(st); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}

	slog.Info("run complete", "notified", len(hits), "chunks", len(d.Chunks), "known_ids", st.Len())
	return nil
}
