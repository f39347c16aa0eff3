package sources

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/dayoung-lee/taxwatch/internal/config"
	"github.com/mmcdole/gofeed"
)

var htmlTagPattern = regexp.MustCompile("<[^>]*>")

// fetchFeed parses the RSS/Atom document at the source URL and converts its
// entries into candidate items, capped at the per-source maximum.
func (f *Fetcher) fetchFeed(ctx context.Context, src config.Source) ([]Item, error) {
	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", src.URL, err)
	}

	entries := feed.Items
	if len(entries) > f.maxItems {
		entries = entries[:f.maxItems]
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		link := e.Link
		if link == "" {
			link = src.URL
		}
		// gofeed folds RSS <description> and Atom <summary> into
		// Description; Content is the fallback for feeds that only
		// carry a body.
		summary := e.Description
		if summary == "" {
			summary = e.Content
		}
		items = append(items, Item{
			Title:   e.Title,
			URL:     link,
			Summary: stripHTML(summary),
		})
	}
	return items, nil
}

// stripHTML removes markup from s, unescapes HTML entities and trims
// surrounding whitespace.
func stripHTML(s string) string {
	clean := htmlTagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(clean))
}
