package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dayoung-lee/taxwatch/internal/config"
)

// fetchListing retrieves an HTML listing page and extracts candidate items
// from the anchors matching the source's CSS selector.
func (f *Fetcher) fetchListing(ctx context.Context, src config.Source) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %q: %w", src.URL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %q: HTTP %d", src.URL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML from %q: %w", src.URL, err)
	}

	base, err := url.Parse(src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", src.BaseURL, err)
	}

	selector := src.ItemSelector
	if selector == "" {
		selector = "a"
	}

	type itemKey struct {
		title string
		url   string
	}
	seen := make(map[itemKey]struct{})

	var items []Item
	doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		// The cap applies to scanned anchors, matching the sequence
		// semantics of the listing: the page's top N entries.
		if i >= f.maxItems {
			return false
		}

		title := strings.Join(strings.Fields(sel.Text()), " ")
		href, ok := sel.Attr("href")
		if title == "" || !ok || href == "" {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref).String()

		// Listing pages often repeat the same link (pager rows, icon +
		// text anchors); emit the first occurrence only.
		key := itemKey{title: title, url: resolved}
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}

		items = append(items, Item{Title: title, URL: resolved})
		return true
	})

	return items, nil
}
