// internal/common/http/client.go

// Package http wraps the outbound HTTP client the engine uses to reach the
// browser push proxy. The timeout set at construction is the per-request
// ceiling; every call carries the caller's context.
package http

import (
	"context"
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req.WithContext(ctx))
}
