// internal/notifications/variants/registry.go
package variants

import (
	"context"
	"fmt"
	"strings"

	"notification-engine/internal/common/errors"
	"notification-engine/internal/models"
	"notification-engine/internal/notifications/resources"
)

// Registry turns parsed events into variants. Construction validates the
// kind and the kind's required payload fields, so a variant that exists is
// always safe to Process.
type Registry struct {
	deps    Deps
	catalog map[models.EventKind]kindRow
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:    deps,
		catalog: newCatalog(),
	}
}

// New builds the variant for one event. Unknown kinds and missing required
// fields are non-retryable event defects.
func (r *Registry) New(event *models.NotificationEvent) (Variant, error) {
	row, ok := r.catalog[event.Type]
	if !ok {
		return nil, errors.NewUnknownEventKindError(string(event.Type))
	}

	if err := validateRequired(event, row.Required); err != nil {
		return nil, err
	}

	base := catalogVariant{event: event, row: row, deps: r.deps}

	switch event.Type {
	case models.KindCreate:
		return &createVariant{catalogVariant: base}, nil
	case models.KindAnnouncement:
		return &announcementVariant{catalogVariant: base}, nil
	default:
		return &base, nil
	}
}

// PrepareEmailDigests collapses same-kind events aimed at the same
// recipients into one grouped live email. The union of the group's entity
// needs resolves once through the aggregator, the first event of each group
// renders the grouped line, and the rest stay push-only. Grouping is best
// effort: on a lookup failure every member falls back to its own standalone
// email.
func (r *Registry) PrepareEmailDigests(ctx context.Context, built []Variant) {
	groups := map[string][]*catalogVariant{}
	var order []string
	for _, v := range built {
		cv := emailCatalog(v)
		if cv == nil || !cv.row.Emails {
			continue
		}
		key := digestKey(cv.event)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], cv)
	}

	agg := resources.NewAggregator(r.deps.Resources)
	for _, key := range order {
		members := groups[key]
		if len(members) < 2 {
			continue
		}

		providers := make([]resources.NeedsProvider, len(members))
		events := make([]*models.NotificationEvent, len(members))
		for i, m := range members {
			providers[i] = m
			events[i] = m.event
		}

		res, err := agg.Resolve(ctx, providers...)
		if err != nil {
			r.deps.Logger.Debug("email digest resolution failed, sending standalone emails", map[string]interface{}{
				"kind":  string(members[0].event.Type),
				"error": err,
			})
			continue
		}

		members[0].emailGroup = &emailGroup{res: res, events: events}
		for _, m := range members[1:] {
			m.emailMuted = true
		}
	}
}

// digestKey groups events by kind and recipient list.
func digestKey(e *models.NotificationEvent) string {
	key := string(e.Type)
	for _, id := range e.RecipientUserIDs {
		key += fmt.Sprintf(":%d", id)
	}
	return key
}

// emailCatalog unwraps the catalog core of a variant. Announcements never
// email and are excluded.
func emailCatalog(v Variant) *catalogVariant {
	switch t := v.(type) {
	case *catalogVariant:
		return t
	case *createVariant:
		return &t.catalogVariant
	default:
		return nil
	}
}

func validateRequired(event *models.NotificationEvent, required []string) error {
	var missing []string
	for _, key := range required {
		if _, ok := event.Data[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return errors.NewEventPayloadInvalidError(
			fmt.Sprintf("kind %s missing fields: %s", event.Type, strings.Join(missing, ", ")))
	}
	return nil
}
