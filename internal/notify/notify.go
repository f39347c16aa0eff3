// Package notify delivers digest chunks to an ntfy-compatible push endpoint.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const sendTimeout = 20 * time.Second

// Client posts notifications to <base>/<topic>. An empty topic disables
// delivery: Send logs the skip and returns nil, so a run without a
// configured topic still completes normally.
type Client struct {
	base   string
	topic  string
	client *http.Client
}

// NewClient creates a push client for the given endpoint base URL and topic.
func NewClient(baseURL, topic string) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		topic:  topic,
		client: &http.Client{Timeout: sendTimeout},
	}
}

// Send posts one notification: the body as raw UTF-8 bytes, the title in
// the Title header. Delivery is best-effort; the transport error, if any,
// is returned for the caller to log.
func (c *Client) Send(ctx context.Context, title, body string) error {
	if c.topic == "" {
		slog.Info("notify topic not set, skipping push", "title", title)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+c.topic, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating push request: %w", err)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushing notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse

	return nil
}
