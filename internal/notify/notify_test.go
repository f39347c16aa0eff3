package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSendWithoutTopicIsNoOp(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if err := c.Send(context.Background(), "title", "body"); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("Send without topic issued %d requests, want 0", hits.Load())
	}
}

func TestSendPostsToTopic(t *testing.T) {
	var (
		gotPath  string
		gotTitle string
		gotBody  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	// Trailing slashes on the base URL must not double up in the path.
	c := NewClient(srv.URL+"/", "tax-alerts")
	if err := c.Send(context.Background(), "2026-08-26 세법/공지 업데이트", "• (src) 제목\nhttps://x/1"); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	if gotPath != "/tax-alerts" {
		t.Errorf("path = %q, want /tax-alerts", gotPath)
	}
	if gotTitle != "2026-08-26 세법/공지 업데이트" {
		t.Errorf("Title header = %q", gotTitle)
	}
	if gotBody != "• (src) 제목\nhttps://x/1" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestSendReturnsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "tax-alerts")
	if err := c.Send(context.Background(), "title", "body"); err == nil {
		t.Fatal("Send to a closed server succeeded, want error")
	}
}
