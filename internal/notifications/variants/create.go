// internal/notifications/variants/create.go
package variants

import (
	"context"

	"notification-engine/internal/common/errors"
	"notification-engine/internal/models"
)

// PremiumContentFlag is the feature-flag key the publish variant consults
// before notifying followers about price-gated content.
const PremiumContentFlag = "premium_content_enabled"

// createVariant handles new-content publish events. It is the one variant
// with a distinguishable retry-later signal: price-gated content published
// while the seller gating flag is still disabled must not notify yet, and
// must not be dropped either, because the flag is expected to flip soon.
type createVariant struct {
	catalogVariant
}

func (v *createVariant) Process(ctx context.Context, profiles map[int64]*models.RecipientChannelProfile) error {
	// The recipient skip outranks the purchase gate: with nobody left to
	// notify there is nothing to hold back for a retry.
	recipients := v.reachableRecipients(profiles)
	if len(recipients) == 0 {
		return nil
	}

	res, err := v.deps.Resources.Resolve(ctx, v.row.Needs(v.event))
	if err != nil {
		return err
	}

	if trackID, ok := v.event.Int64Field("entityId"); ok {
		entityType, _ := v.event.StringField("entityType")
		if models.EntityKind(entityType) != models.EntityPlaylist {
			if track, ok := res.Tracks[trackID]; ok && track.IsPriceGated && !v.deps.Flags[PremiumContentFlag] {
				return errors.NewPurchaseGateDisabledError(trackID)
			}
		}
	}

	v.deliver(ctx, profiles, recipients, res)
	return nil
}
