// Package sources normalizes configured publication sources (RSS/Atom feeds
// and HTML listing pages) into a uniform sequence of candidate items.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dayoung-lee/taxwatch/internal/config"
)

const (
	httpTimeout = 30 * time.Second

	// UserAgent identifies the watcher on every outbound request. Some
	// government sites reject requests without a browser-like UA.
	UserAgent = "Mozilla/5.0 (TaxLawWatcher/1.0)"
)

// Item is one candidate entry discovered from a source in the current run.
type Item struct {
	Title   string
	URL     string
	Summary string
}

// Fetcher retrieves candidate items from configured sources. It holds a
// shared HTTP client with a fixed timeout and user agent.
type Fetcher struct {
	client   *http.Client
	maxItems int
}

// NewFetcher creates a Fetcher that returns at most maxItems candidate items
// per source.
func NewFetcher(maxItems int) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: httpTimeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		maxItems: maxItems,
	}
}

// userAgentTransport wraps an http.RoundTripper to inject the watcher's
// User-Agent header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(req)
}

// Fetch produces the ordered candidate items for one source, dispatching on
// the source kind. Failures are returned to the caller, which isolates them
// per source; one broken source never aborts the run.
func (f *Fetcher) Fetch(ctx context.Context, src config.Source) ([]Item, error) {
	switch src.Kind {
	case config.KindFeed:
		return f.fetchFeed(ctx, src)
	case config.KindListing:
		return f.fetchListing(ctx, src)
	default:
		return nil, fmt.Errorf("source %q: unknown kind %q", src.Name, src.Kind)
	}
}
