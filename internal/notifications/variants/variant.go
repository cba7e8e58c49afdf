// internal/notifications/variants/variant.go

// Package variants implements the per-event-kind decision logic. Most kinds
// are rows in a data catalog (toggle key, message template, entity needs,
// deep-link block); only the true behavioral outliers (price-gated publish,
// broadcast announcements) are bespoke types.
package variants

import (
	"context"
	"fmt"

	"notification-engine/internal/common/logger"
	"notification-engine/internal/models"
	"notification-engine/internal/notifications/delivery"
	"notification-engine/internal/notifications/resources"
)

// Variant is the shared contract every event kind fulfills. Process runs the
// decision/dispatch pass for one event against the batch-scoped profiles;
// ResourcesForEmail and FormatEmailProps support digest grouping, where many
// same-kind events collapse into one email.
type Variant interface {
	Kind() models.EventKind
	Process(ctx context.Context, profiles map[int64]*models.RecipientChannelProfile) error
	ResourcesForEmail() resources.Needs
	FormatEmailProps(res *resources.Resolved, events []*models.NotificationEvent) map[string]interface{}

	// SenderUserID reports the acting user whose abuse flag gates mobile
	// and email delivery, when the kind has one. The processor folds it
	// into the bulk settings load.
	SenderUserID() (int64, bool)
}

// Deps carries the collaborators a variant needs. One value is shared by
// every variant in a batch.
type Deps struct {
	Resources    *resources.Store
	Orchestrator *delivery.Orchestrator
	Logger       logger.Logger

	// Flags is the config-backed feature-flag table consulted by the
	// publish variant's purchase gate.
	Flags map[string]bool

	// PageSize bounds broadcast fan-out per page.
	PageSize int
}

// catalogVariant executes one catalog row for one event.
type catalogVariant struct {
	event *models.NotificationEvent
	row   kindRow
	deps  Deps

	// emailGroup is set by the registry when this event leads a same-kind
	// digest group; emailMuted marks the trailing events of that group so
	// the recipient gets one grouped email instead of N.
	emailGroup *emailGroup
	emailMuted bool
}

// emailGroup carries the shared resolution of a same-kind digest group.
type emailGroup struct {
	res    *resources.Resolved
	events []*models.NotificationEvent
}

func (v *catalogVariant) Kind() models.EventKind { return v.event.Type }

func (v *catalogVariant) SenderUserID() (int64, bool) {
	if v.row.SenderKey == "" {
		return 0, false
	}
	return v.event.Int64Field(v.row.SenderKey)
}

func (v *catalogVariant) ResourcesForEmail() resources.Needs {
	return v.row.Needs(v.event)
}

// FormatEmailProps collapses same-kind events into one email payload. With a
// grouped template registered, multiple events render as one line ("X and N
// others ..."); otherwise the first event's message carries a count.
func (v *catalogVariant) FormatEmailProps(res *resources.Resolved, events []*models.NotificationEvent) map[string]interface{} {
	if len(events) == 0 {
		events = []*models.NotificationEvent{v.event}
	}

	var title, body string
	if len(events) > 1 && v.row.GroupedMessage != nil {
		title, body = v.row.GroupedMessage(events, res)
	} else {
		title, body = v.row.Message(events[0], res)
	}

	return map[string]interface{}{
		"kind":    string(v.event.Type),
		"groupId": events[0].GroupID,
		"title":   title,
		"body":    body,
		"count":   len(events),
	}
}

// Process runs the recipient skip first, resolves entities once for the
// event, then runs the delivery gates for every remaining recipient. With no
// reachable recipient the entity lookup never runs, so the event is a silent
// skip even when the lookup would have failed. Entity resolution failure is
// retryable and aborts only this event.
func (v *catalogVariant) Process(ctx context.Context, profiles map[int64]*models.RecipientChannelProfile) error {
	recipients := v.reachableRecipients(profiles)
	if len(recipients) == 0 {
		return nil
	}
	res, err := v.deps.Resources.Resolve(ctx, v.row.Needs(v.event))
	if err != nil {
		return err
	}
	v.deliver(ctx, profiles, recipients, res)
	return nil
}

// reachableRecipients dedupes the recipient list and drops profiles with no
// open channel left: deactivated accounts are silent skips, and an abusive
// account with no enabled browser subscription has nothing to receive (abuse
// suppresses mobile and email but not browser).
func (v *catalogVariant) reachableRecipients(profiles map[int64]*models.RecipientChannelProfile) []*models.RecipientChannelProfile {
	seen := make(map[int64]struct{}, len(v.event.RecipientUserIDs))
	out := make([]*models.RecipientChannelProfile, 0, len(v.event.RecipientUserIDs))
	for _, userID := range v.event.RecipientUserIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		profile, ok := profiles[userID]
		if !ok || profile.IsDeactivated {
			continue
		}
		if profile.IsAbusive && len(profile.EnabledBrowserSubscriptions()) == 0 {
			continue
		}
		out = append(out, profile)
	}
	return out
}

// deliver builds the notification once and fans it out sequentially per
// recipient. The per-device/per-subscription concurrency lives inside the
// orchestrator.
func (v *catalogVariant) deliver(ctx context.Context, profiles map[int64]*models.RecipientChannelProfile, recipients []*models.RecipientChannelProfile, res *resources.Resolved) {
	n := v.notification(ctx, profiles, res)
	for _, profile := range recipients {
		v.deps.Orchestrator.Deliver(ctx, profile, n)
	}
}

func (v *catalogVariant) notification(ctx context.Context, profiles map[int64]*models.RecipientChannelProfile, res *resources.Resolved) *delivery.Notification {
	title, body := v.row.Message(v.event, res)

	n := &delivery.Notification{
		Event:         v.event,
		Title:         title,
		Body:          body,
		Data:          v.row.Data(v.event),
		ToggleKey:     v.row.Toggle,
		SenderAbusive: v.senderAbusive(profiles),
	}

	if v.row.Emails && !v.emailMuted {
		group := v.emailGroup
		n.EmailProps = func(context.Context) (map[string]interface{}, error) {
			if group != nil {
				return v.FormatEmailProps(group.res, group.events), nil
			}
			// Entities are already resolved for the push text, so a
			// standalone live email reuses them instead of re-querying.
			return v.FormatEmailProps(res, []*models.NotificationEvent{v.event}), nil
		}
	}
	return n
}

func (v *catalogVariant) senderAbusive(profiles map[int64]*models.RecipientChannelProfile) bool {
	senderID, ok := v.SenderUserID()
	if !ok {
		return false
	}
	sender, ok := profiles[senderID]
	return ok && sender.IsAbusive
}

// ---- shared text helpers ----

func userName(res *resources.Resolved, id int64) string {
	if u, ok := res.Users[id]; ok && u.Name != "" {
		return u.Name
	}
	return "Someone"
}

func trackTitle(res *resources.Resolved, id int64) string {
	if t, ok := res.Tracks[id]; ok && t.Title != "" {
		return t.Title
	}
	return "your track"
}

func playlistName(res *resources.Resolved, id int64) string {
	if p, ok := res.Playlists[id]; ok && p.Name != "" {
		return p.Name
	}
	return "your playlist"
}

// entityTitle resolves the title of a track/playlist/album reference carried
// as entityId + entityType.
func entityTitle(e *models.NotificationEvent, res *resources.Resolved) string {
	id, ok := e.Int64Field("entityId")
	if !ok {
		return "your content"
	}
	entityType, _ := e.StringField("entityType")
	switch models.EntityKind(entityType) {
	case models.EntityTrack:
		return trackTitle(res, id)
	case models.EntityPlaylist:
		return playlistName(res, id)
	default:
		if _, isAlbum := res.Playlists[id]; isAlbum {
			return playlistName(res, id)
		}
		return trackTitle(res, id)
	}
}

func formatAmount(e *models.NotificationEvent) string {
	amount, ok := e.Int64Field("amount")
	if !ok {
		return "a reward"
	}
	return fmt.Sprintf("%d", amount)
}
