package relevance

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dayoung-lee/taxwatch/internal/sources"
	readability "github.com/go-shiori/go-readability"
)

const fetchTimeout = 30 * time.Second

// maxBodyBytes bounds how much of a document the secondary check reads.
const maxBodyBytes = 8 << 20

// VerdictCache remembers body-fetch outcomes so items that stay irrelevant
// are not re-fetched on every run. Implementations are best-effort; errors
// are logged and the fetch proceeds as if uncached.
type VerdictCache interface {
	Lookup(id string) (relevant bool, ok bool, err error)
	Store(id string, relevant bool) error
}

// Filter applies the two-tier relevance check: keyword match against the
// title, then against the fetched document body.
//
// Callers must exclude already-seen items before invoking the filter, so a
// seen item never costs a body fetch.
type Filter struct {
	matcher *Matcher
	client  *http.Client
	cache   VerdictCache // nil when the cache is disabled
}

// NewFilter creates a Filter using the given matcher and optional verdict
// cache (pass nil to disable caching).
func NewFilter(matcher *Matcher, cache VerdictCache) *Filter {
	return &Filter{
		matcher: matcher,
		client:  &http.Client{Timeout: fetchTimeout},
		cache:   cache,
	}
}

// IsRelevant reports whether the item matches any configured keyword. A
// title match short-circuits without any network traffic. Otherwise the
// item's URL is fetched and its visible text matched; fetch or parse
// failures are treated as not relevant (the secondary check is best-effort
// and never propagates errors).
func (f *Filter) IsRelevant(ctx context.Context, id string, item sources.Item) bool {
	if f.matcher.MatchText(item.Title) {
		return true
	}

	if f.cache != nil {
		relevant, ok, err := f.cache.Lookup(id)
		if err != nil {
			slog.Warn("verdict cache lookup failed", "id", id, "error", err)
		} else if ok {
			return relevant
		}
	}

	relevant := f.matchBody(ctx, item.URL)

	if f.cache != nil {
		if err := f.cache.Store(id, relevant); err != nil {
			slog.Warn("verdict cache store failed", "id", id, "error", err)
		}
	}
	return relevant
}

// matchBody fetches the document at rawURL and matches its visible text.
// Any failure yields false.
func (f *Filter) matchBody(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", sources.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Debug("body fetch failed", "url", rawURL, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false
	}

	return f.matcher.MatchText(extractText(body, resp.Request.URL))
}

// extractText returns the readable text of an HTML document. It prefers
// readability's main-content extraction and falls back to the whole
// document's visible text, which covers listing and notice pages that have
// no article-shaped content.
func extractText(body []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.TextContent
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return doc.Text()
}
