// internal/notifications/delivery/orchestrator.go
package delivery

import (
	"context"
	"sync"

	"notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/common/metrics"
	"notification-engine/internal/models"
	"notification-engine/internal/notifications/audit"
)

// Notification is the fully computed message a variant hands to the
// orchestrator for one recipient. EmailProps is lazy so entity resolution
// only happens when the email gate actually opens; nil means the kind never
// emails.
type Notification struct {
	Event         *models.NotificationEvent
	Title         string
	Body          string
	Data          map[string]interface{}
	ToggleKey     models.Feature
	SenderAbusive bool
	EmailProps    func(ctx context.Context) (map[string]interface{}, error)
}

// Receipt summarizes what one Deliver call did, for logging and tests.
type Receipt struct {
	BrowserSent      int
	BrowserFailed    int
	MobileSent       int
	MobileFailed     int
	EmailSent        bool
	BadgeIncremented bool
}

// Orchestrator executes the channel sends for one recipient of one event.
// Channels are independent: a failed push never blocks the email attempt
// and vice versa. Within a channel the device/subscription fan-out runs
// concurrently and results are joined before cleanup.
type Orchestrator struct {
	mobile    MobilePushClient
	browser   BrowserPushClient
	email     EmailClient
	renderer  Renderer
	badges    BadgeCounter
	endpoints EndpointStore
	audit     audit.Sink
	logger    logger.Logger
}

func NewOrchestrator(
	mobile MobilePushClient,
	browser BrowserPushClient,
	email EmailClient,
	renderer Renderer,
	badges BadgeCounter,
	endpoints EndpointStore,
	auditSink audit.Sink,
	log logger.Logger,
) *Orchestrator {
	if auditSink == nil {
		auditSink = audit.NopSink{}
	}
	return &Orchestrator{
		mobile:    mobile,
		browser:   browser,
		email:     email,
		renderer:  renderer,
		badges:    badges,
		endpoints: endpoints,
		audit:     auditSink,
		logger:    log.WithFields(map[string]interface{}{"component": "delivery-orchestrator"}),
	}
}

// Deliver runs all three channel gates for one recipient. Send failures are
// collected and logged, never returned: the only errors that escape the
// engine are batch-fatal and event-retryable ones, and neither originates
// here.
func (o *Orchestrator) Deliver(ctx context.Context, profile *models.RecipientChannelProfile, n *Notification) *Receipt {
	receipt := &Receipt{}

	// A deactivated account short-circuits every channel, including
	// browser push. Abuse flags are narrower and handled per channel.
	if profile.IsDeactivated {
		return receipt
	}

	o.deliverBrowser(ctx, profile, n, receipt)
	o.deliverMobile(ctx, profile, n, receipt)
	o.deliverEmail(ctx, profile, n, receipt)

	return receipt
}

// deliverBrowser gates on the feature toggle alone. Abuse flags
// deliberately do not apply here; see the mobile gate for the contrast.
func (o *Orchestrator) deliverBrowser(ctx context.Context, profile *models.RecipientChannelProfile, n *Notification, receipt *Receipt) {
	if !profile.BrowserToggle(n.ToggleKey) {
		return
	}

	subs := profile.EnabledBrowserSubscriptions()
	if len(subs) == 0 {
		return
	}

	payload := PushPayload{Title: n.Title, Body: n.Body, Data: n.Data}

	results := make([]SendResult, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub *models.BrowserSubscription) {
			defer wg.Done()
			results[i] = o.browser.Send(ctx, sub, payload)
		}(i, sub)
	}
	wg.Wait()

	for i, res := range results {
		sub := subs[i]
		switch {
		case res.Err == nil:
			receipt.BrowserSent++
			metrics.ChannelSends.WithLabelValues("browser", "sent").Inc()
			o.audit.Record(ctx, o.record(n, profile.UserID, "browser", "sent", sub.Endpoint, nil))
		case res.PermanentFailure:
			receipt.BrowserFailed++
			metrics.ChannelSends.WithLabelValues("browser", "failed").Inc()
			metrics.EndpointsDisabled.WithLabelValues("browser").Inc()
			sub.Enabled = false
			if err := o.endpoints.DeleteSubscription(ctx, sub.Endpoint); err != nil {
				o.logger.Warn("failed to delete gone browser subscription", map[string]interface{}{
					"error":  errors.NewEndpointDisableFailedError(sub.Endpoint, err),
					"userId": profile.UserID,
				})
			}
			o.audit.Record(ctx, o.record(n, profile.UserID, "browser", "disabled", sub.Endpoint, res.Err))
		default:
			receipt.BrowserFailed++
			metrics.ChannelSends.WithLabelValues("browser", "failed").Inc()
			sendErr := errors.NewBrowserSendFailedError(sub.Endpoint, res.Err)
			o.logger.Warn("browser push failed", map[string]interface{}{
				"error":  sendErr,
				"userId": profile.UserID,
				"kind":   string(n.Event.Type),
			})
			o.audit.Record(ctx, o.record(n, profile.UserID, "browser", "failed", sub.Endpoint, sendErr))
		}
	}
}

// deliverMobile gates on devices, both abuse flags, and the feature toggle.
// The badge increment happens exactly once per user per event once the gate
// opens, never once per device.
func (o *Orchestrator) deliverMobile(ctx context.Context, profile *models.RecipientChannelProfile, n *Notification, receipt *Receipt) {
	devices := profile.EnabledDevices()
	if len(devices) == 0 {
		return
	}
	if n.SenderAbusive || profile.IsAbusive {
		return
	}
	if !profile.MobileToggle(n.ToggleKey) {
		return
	}

	badgeCount, err := o.badges.Increment(ctx, profile.UserID)
	if err != nil {
		o.logger.Warn("badge increment failed", map[string]interface{}{
			"error":  errors.NewBadgeUpdateFailedError(profile.UserID, err),
			"userId": profile.UserID,
		})
	} else {
		receipt.BadgeIncremented = true
		metrics.BadgeIncrements.Inc()
	}

	payload := PushPayload{
		Title:      n.Title,
		Body:       n.Body,
		Data:       n.Data,
		BadgeCount: int(badgeCount),
	}

	results := make([]SendResult, len(devices))
	var wg sync.WaitGroup
	for i, device := range devices {
		wg.Add(1)
		go func(i int, device *models.DeviceToken) {
			defer wg.Done()
			results[i] = o.mobile.Send(ctx, device.PlatformType, device.EndpointHandle, payload)
		}(i, device)
	}
	// Join before cleanup so one device's failure can never cancel a
	// sibling send.
	wg.Wait()

	for i, res := range results {
		device := devices[i]
		switch {
		case res.Err == nil:
			receipt.MobileSent++
			metrics.ChannelSends.WithLabelValues("mobile", "sent").Inc()
			o.audit.Record(ctx, o.record(n, profile.UserID, "mobile", "sent", device.EndpointHandle, nil))
		case res.PermanentFailure:
			receipt.MobileFailed++
			metrics.ChannelSends.WithLabelValues("mobile", "failed").Inc()
			metrics.EndpointsDisabled.WithLabelValues("mobile").Inc()
			// Flip the in-memory flag too so later events in this
			// batch skip the dead endpoint.
			device.Enabled = false
			if err := o.endpoints.DisableDevice(ctx, device.EndpointHandle); err != nil {
				o.logger.Warn("failed to disable dead device token", map[string]interface{}{
					"error":  errors.NewEndpointDisableFailedError(device.EndpointHandle, err),
					"userId": profile.UserID,
				})
			}
			o.audit.Record(ctx, o.record(n, profile.UserID, "mobile", "disabled", device.EndpointHandle, res.Err))
		default:
			receipt.MobileFailed++
			metrics.ChannelSends.WithLabelValues("mobile", "failed").Inc()
			sendErr := errors.NewPushSendFailedError(device.EndpointHandle, res.Err)
			o.logger.Warn("mobile push failed", map[string]interface{}{
				"error":    sendErr,
				"userId":   profile.UserID,
				"platform": string(device.PlatformType),
				"kind":     string(n.Event.Type),
			})
			o.audit.Record(ctx, o.record(n, profile.UserID, "mobile", "failed", device.EndpointHandle, sendErr))
		}
	}
}

// deliverEmail sends at most one live email. Digest frequencies belong to
// the scheduled digest jobs, not this engine.
func (o *Orchestrator) deliverEmail(ctx context.Context, profile *models.RecipientChannelProfile, n *Notification, receipt *Receipt) {
	if n.EmailProps == nil {
		return
	}
	if n.SenderAbusive || profile.IsAbusive {
		return
	}
	if !profile.IsEmailDeliverable || profile.Email.Address == "" {
		return
	}
	if profile.Email.Frequency != models.EmailLive {
		return
	}

	props, err := n.EmailProps(ctx)
	if err != nil {
		o.logger.Warn("email props resolution failed", map[string]interface{}{
			"error":  err,
			"userId": profile.UserID,
			"kind":   string(n.Event.Type),
		})
		return
	}

	subject, html, err := o.renderer.Render(n.Event.Type, props)
	if err != nil {
		o.logger.Warn("email render failed", map[string]interface{}{
			"error":  err,
			"userId": profile.UserID,
			"kind":   string(n.Event.Type),
		})
		return
	}

	if err := o.email.Send(ctx, profile.Email.Address, subject, html); err != nil {
		receipt.EmailSent = false
		metrics.ChannelSends.WithLabelValues("email", "failed").Inc()
		sendErr := errors.NewEmailSendFailedError(err)
		o.logger.Warn("live email failed", map[string]interface{}{
			"error":  sendErr,
			"userId": profile.UserID,
			"kind":   string(n.Event.Type),
		})
		o.audit.Record(ctx, o.record(n, profile.UserID, "email", "failed", "", sendErr))
		return
	}

	receipt.EmailSent = true
	metrics.ChannelSends.WithLabelValues("email", "sent").Inc()
	o.audit.Record(ctx, o.record(n, profile.UserID, "email", "sent", "", nil))
}

func (o *Orchestrator) record(n *Notification, userID int64, channel, status, endpoint string, err error) audit.Record {
	rec := audit.Record{
		Kind:     n.Event.Type,
		GroupID:  n.Event.GroupID,
		UserID:   userID,
		Channel:  channel,
		Status:   status,
		Endpoint: endpoint,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}
