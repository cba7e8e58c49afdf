// internal/notifications/delivery/clients.go
package delivery

import (
	"context"

	"notification-engine/internal/models"
)

// PushPayload is the channel-agnostic push message. Data is the
// discriminated deep-link block tagged by event kind; GroupID and the event
// timestamp ride along as the client-visible dedup key.
type PushPayload struct {
	Title      string                 `json:"title"`
	Body       string                 `json:"body"`
	Data       map[string]interface{} `json:"data"`
	BadgeCount int                    `json:"badgeCount,omitempty"`
}

// SendResult reports one provider send. PermanentFailure marks the endpoint
// as gone for good; transient failures (timeouts) carry only Err so the
// endpoint survives.
type SendResult struct {
	Err              error
	PermanentFailure bool
}

// MobilePushClient is the push-provider transport contract.
type MobilePushClient interface {
	Send(ctx context.Context, platform models.PlatformType, endpointHandle string, payload PushPayload) SendResult
}

// BrowserPushClient is the browser-push transport contract. An HTTP
// 404/410-equivalent response is a permanent failure.
type BrowserPushClient interface {
	Send(ctx context.Context, sub *models.BrowserSubscription, payload PushPayload) SendResult
}

// EmailClient is the transactional email transport contract.
// Fire-and-forget: errors are logged by the caller, never retried
// synchronously.
type EmailClient interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Renderer turns formatted email props into subject and HTML. The real
// template renderer lives outside this engine.
type Renderer interface {
	Render(kind models.EventKind, props map[string]interface{}) (subject, html string, err error)
}

// BadgeCounter owns the per-user unread counter.
type BadgeCounter interface {
	Increment(ctx context.Context, userID int64) (int64, error)
}

// EndpointStore applies permanent-failure cleanup: device tokens are soft
// disabled, browser subscriptions are deleted.
type EndpointStore interface {
	DisableDevice(ctx context.Context, endpointHandle string) error
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// NopMobileClient reports success without sending; used when the push
// provider is disabled in config.
type NopMobileClient struct{}

func (NopMobileClient) Send(context.Context, models.PlatformType, string, PushPayload) SendResult {
	return SendResult{}
}

// NopEmailClient reports success without sending; used when the email
// provider is disabled in config.
type NopEmailClient struct{}

func (NopEmailClient) Send(context.Context, string, string, string) error { return nil }
