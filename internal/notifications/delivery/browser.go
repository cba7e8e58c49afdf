// internal/notifications/delivery/browser.go
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"

	"notification-engine/internal/common/http"
	"notification-engine/internal/models"
)

// HTTPBrowserPushClient posts payloads to the subscription's push endpoint.
// The web-push encryption proxy sits in front of the raw push services;
// this client only speaks the proxy's JSON contract.
type HTTPBrowserPushClient struct {
	client *http.Client
}

func NewHTTPBrowserPushClient(client *http.Client) *HTTPBrowserPushClient {
	return &HTTPBrowserPushClient{client: client}
}

func (c *HTTPBrowserPushClient) Send(ctx context.Context, sub *models.BrowserSubscription, payload PushPayload) SendResult {
	body, err := json.Marshal(map[string]interface{}{
		"title": payload.Title,
		"body":  payload.Body,
		"data":  payload.Data,
		"keys": map[string]string{
			"p256dh": sub.P256DHKey,
			"auth":   sub.AuthKey,
		},
	})
	if err != nil {
		return SendResult{Err: err}
	}

	req, err := nethttp.NewRequest(nethttp.MethodPost, sub.Endpoint, bytes.NewReader(body))
	if err != nil {
		return SendResult{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("TTL", "86400")

	resp, err := c.client.DoWithContext(ctx, req)
	if err != nil {
		return SendResult{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return SendResult{}
	}

	result := SendResult{
		Err: fmt.Errorf("browser push endpoint returned %d", resp.StatusCode),
	}
	// 404/410 mean the subscription is gone and should be deleted.
	if resp.StatusCode == nethttp.StatusNotFound || resp.StatusCode == nethttp.StatusGone {
		result.PermanentFailure = true
	}
	return result
}
