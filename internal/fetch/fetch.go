// Package fetch downloads referenced input images with bounded timeouts.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxImageBytes = 25 << 20

// Client downloads image bytes from URLs.
type Client struct {
	httpClient *http.Client
}

// New constructs a fetch client. A nil httpClient gets a bounded default.
func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{httpClient: httpClient}
}

// Bytes downloads the resource at url and returns its content and MIME type.
func (c *Client) Bytes(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch: get %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("fetch: read %s: %w", url, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
