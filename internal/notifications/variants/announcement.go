// internal/notifications/variants/announcement.go
package variants

import (
	"context"
	"sync"

	"notification-engine/internal/models"
	"notification-engine/internal/notifications/resources"
)

const defaultBroadcastPageSize = 1000

// announcementVariant handles broadcast kinds, where the recipient list can
// be the whole user base. Recipients are processed in fixed-size pages with
// concurrent delivery inside a page, so total goroutine fan-out stays
// bounded no matter how large the broadcast is.
type announcementVariant struct {
	catalogVariant
}

func (v *announcementVariant) Process(ctx context.Context, profiles map[int64]*models.RecipientChannelProfile) error {
	// Deduped up front: a recipient listed twice must not land in one
	// concurrent page as two sends against the same profile.
	recipients := v.reachableRecipients(profiles)
	if len(recipients) == 0 {
		return nil
	}

	res, err := v.deps.Resources.Resolve(ctx, v.row.Needs(v.event))
	if err != nil {
		return err
	}

	pageSize := v.deps.PageSize
	if pageSize <= 0 {
		pageSize = defaultBroadcastPageSize
	}

	n := v.notification(ctx, profiles, res)

	for start := 0; start < len(recipients); start += pageSize {
		end := start + pageSize
		if end > len(recipients) {
			end = len(recipients)
		}

		var wg sync.WaitGroup
		for _, profile := range recipients[start:end] {
			wg.Add(1)
			go func(profile *models.RecipientChannelProfile) {
				defer wg.Done()
				v.deps.Orchestrator.Deliver(ctx, profile, n)
			}(profile)
		}
		wg.Wait()
	}

	return nil
}

// ResourcesForEmail is inherited but announcements never email; declare no
// needs explicitly so the aggregator skips them.
func (v *announcementVariant) ResourcesForEmail() resources.Needs {
	return resources.NewNeeds()
}
