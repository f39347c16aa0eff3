package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dayoung-lee/taxwatch/internal/config"
)

const testListing = `<!DOCTYPE html>
<html><body>
  <nav><a href="/">홈</a></nav>
  <div class="bbsList">
    <ul>
      <li><a href="/board/view?id=1">법인세법 시행령 개정 고시</a></li>
      <li><a href="/board/view?id=2">연말정산 안내</a></li>
      <li><a href="/board/view?id=1">법인세법 시행령 개정 고시</a></li>
      <li><a href="">제목만 있는 항목</a></li>
      <li><a href="/board/view?id=3">   </a></li>
      <li><a href="https://other.example.org/abs">외부 공지</a></li>
    </ul>
  </div>
</body></html>`

func serveListing(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchListing(t *testing.T) {
	srv := serveListing(t, testListing)

	src := config.Source{
		Name:         "notices",
		Kind:         config.KindListing,
		URL:          srv.URL,
		ItemSelector: "div.bbsList li a",
		BaseURL:      "https://www.example.go.kr",
	}
	items, err := NewFetcher(30).Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	// Six anchors match the selector: one is a duplicate, one has no href,
	// one has no text.
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3: %+v", len(items), items)
	}

	if items[0].Title != "법인세법 시행령 개정 고시" {
		t.Errorf("items[0].Title = %q", items[0].Title)
	}
	if items[0].URL != "https://www.example.go.kr/board/view?id=1" {
		t.Errorf("items[0].URL = %q, want href resolved against base", items[0].URL)
	}
	if items[1].Title != "연말정산 안내" {
		t.Errorf("items[1].Title = %q", items[1].Title)
	}
	// Absolute hrefs are kept as-is.
	if items[2].URL != "https://other.example.org/abs" {
		t.Errorf("items[2].URL = %q", items[2].URL)
	}
}

func TestFetchListingDefaultSelectorAndBase(t *testing.T) {
	srv := serveListing(t, `<html><body><a href="item/7">공지 하나</a></body></html>`)

	src := config.Source{Name: "plain", Kind: config.KindListing, URL: srv.URL + "/list/", BaseURL: srv.URL + "/list/"}
	items, err := NewFetcher(30).Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if want := srv.URL + "/list/item/7"; items[0].URL != want {
		t.Errorf("items[0].URL = %q, want %q", items[0].URL, want)
	}
}

func TestFetchListingCapAppliesToScannedAnchors(t *testing.T) {
	srv := serveListing(t, testListing)

	src := config.Source{
		Name:         "notices",
		Kind:         config.KindListing,
		URL:          srv.URL,
		ItemSelector: "div.bbsList li a",
		BaseURL:      "https://www.example.go.kr",
	}
	items, err := NewFetcher(2).Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (first two anchors)", len(items))
	}
}

func TestFetchListingNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := config.Source{Name: "down", Kind: config.KindListing, URL: srv.URL, BaseURL: srv.URL}
	if _, err := NewFetcher(30).Fetch(context.Background(), src); err == nil {
		t.Fatal("Fetch of a 503 page succeeded, want error")
	}
}

func TestFetchListingCollapsesAnchorWhitespace(t *testing.T) {
	srv := serveListing(t, `<html><body><a href="/n/1"><span>법인세</span>
		<span>개정	안내</span></a></body></html>`)

	src := config.Source{Name: "n", Kind: config.KindListing, URL: srv.URL, BaseURL: srv.URL}
	items, err := NewFetcher(30).Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Title != "법인세 개정 안내" {
		t.Errorf("Title = %q, want whitespace collapsed to single spaces", items[0].Title)
	}
}
