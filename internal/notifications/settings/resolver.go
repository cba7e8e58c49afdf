// internal/notifications/settings/resolver.go
package settings

import (
	"context"
	"database/sql"

	"notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/models"

	"github.com/lib/pq"
)

// Queries are bulk by design: Load runs once per batch for the union of all
// recipient ids, never once per event.
const (
	userFlagsQuery = `SELECT user_id, is_abusive, is_deactivated, is_email_deliverable, COALESCE(timezone, 'UTC')
		FROM users
		WHERE is_current = TRUE AND user_id = ANY($1)`

	deviceTokensQuery = `SELECT user_id, device_type, aws_arn
		FROM notification_device_tokens
		WHERE enabled = TRUE AND device_type IN ('ios', 'android') AND user_id = ANY($1)`

	mobileSettingsQuery = `SELECT user_id, favorites, reposts, followers, remixes, comments, mentions, milestones_and_achievements, announcements
		FROM user_notification_mobile_settings
		WHERE user_id = ANY($1)`

	browserSubscriptionsQuery = `SELECT user_id, endpoint, p256dh_key, auth_key
		FROM notification_browser_subscriptions
		WHERE enabled = TRUE AND user_id = ANY($1)`

	browserSettingsQuery = `SELECT user_id, favorites, reposts, followers, remixes, comments, mentions, milestones_and_achievements, announcements
		FROM user_notification_browser_settings
		WHERE user_id = ANY($1)`

	emailSettingsQuery = `SELECT user_id, COALESCE(email, ''), COALESCE(frequency, 'live')
		FROM user_notification_email_settings
		WHERE user_id = ANY($1)`
)

// toggleColumns matches the column order of the mobile/browser settings
// queries.
var toggleColumns = []models.Feature{
	models.FeatureFavorites,
	models.FeatureReposts,
	models.FeatureFollowers,
	models.FeatureRemixes,
	models.FeatureComments,
	models.FeatureMentions,
	models.FeatureMilestones,
	models.FeatureAnnouncements,
}

// Resolver bulk-loads recipient channel profiles. Missing rows for an
// individual user are defaults, not errors; only a transport failure of the
// bulk queries themselves is surfaced, and the caller treats that as fatal
// for the whole batch.
type Resolver struct {
	db     *sql.DB
	logger logger.Logger
}

func NewResolver(db *sql.DB, log logger.Logger) *Resolver {
	return &Resolver{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "settings-resolver"}),
	}
}

// Load builds one RecipientChannelProfile per requested user id.
func (r *Resolver) Load(ctx context.Context, userIDs []int64) (map[int64]*models.RecipientChannelProfile, error) {
	ids := dedupe(userIDs)
	profiles := make(map[int64]*models.RecipientChannelProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	for _, id := range ids {
		profiles[id] = &models.RecipientChannelProfile{
			UserID: id,
			Mobile: models.MobileProfile{
				FeatureToggles: map[models.Feature]bool{},
			},
			Browser: models.BrowserProfile{
				FeatureToggles: map[models.Feature]bool{},
			},
			Email: models.EmailProfile{
				Frequency: models.EmailLive,
			},
			Timezone: "UTC",
		}
	}

	if err := r.loadUserFlags(ctx, ids, profiles); err != nil {
		return nil, errors.NewSettingsLoadFailedError(err)
	}
	if err := r.loadDevices(ctx, ids, profiles); err != nil {
		return nil, errors.NewSettingsLoadFailedError(err)
	}
	if err := r.loadToggles(ctx, mobileSettingsQuery, ids, profiles, func(p *models.RecipientChannelProfile) map[models.Feature]bool {
		return p.Mobile.FeatureToggles
	}); err != nil {
		return nil, errors.NewSettingsLoadFailedError(err)
	}
	if err := r.loadBrowserSubscriptions(ctx, ids, profiles); err != nil {
		return nil, errors.NewSettingsLoadFailedError(err)
	}
	if err := r.loadToggles(ctx, browserSettingsQuery, ids, profiles, func(p *models.RecipientChannelProfile) map[models.Feature]bool {
		return p.Browser.FeatureToggles
	}); err != nil {
		return nil, errors.NewSettingsLoadFailedError(err)
	}
	if err := r.loadEmailSettings(ctx, ids, profiles); err != nil {
		return nil, errors.NewSettingsLoadFailedError(err)
	}

	return profiles, nil
}

func (r *Resolver) loadUserFlags(ctx context.Context, ids []int64, profiles map[int64]*models.RecipientChannelProfile) error {
	rows, err := r.db.QueryContext(ctx, userFlagsQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID                            int64
			abusive, deactivated, deliverable bool
			timezone                          string
		)
		if err := rows.Scan(&userID, &abusive, &deactivated, &deliverable, &timezone); err != nil {
			return err
		}
		if p, ok := profiles[userID]; ok {
			p.IsAbusive = abusive
			p.IsDeactivated = deactivated
			p.IsEmailDeliverable = deliverable
			p.Timezone = timezone
		}
	}
	return rows.Err()
}

func (r *Resolver) loadDevices(ctx context.Context, ids []int64, profiles map[int64]*models.RecipientChannelProfile) error {
	rows, err := r.db.QueryContext(ctx, deviceTokensQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID      int64
			deviceType  string
			endpointARN string
		)
		if err := rows.Scan(&userID, &deviceType, &endpointARN); err != nil {
			return err
		}
		p, ok := profiles[userID]
		if !ok {
			continue
		}
		p.Mobile.Devices = append(p.Mobile.Devices, &models.DeviceToken{
			PlatformType:   models.PlatformType(deviceType),
			EndpointHandle: endpointARN,
			Enabled:        true,
		})
	}
	return rows.Err()
}

func (r *Resolver) loadToggles(
	ctx context.Context,
	query string,
	ids []int64,
	profiles map[int64]*models.RecipientChannelProfile,
	target func(*models.RecipientChannelProfile) map[models.Feature]bool,
) error {
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		values := make([]bool, len(toggleColumns))
		dest := make([]interface{}, 0, len(toggleColumns)+1)
		dest = append(dest, &userID)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		p, ok := profiles[userID]
		if !ok {
			continue
		}
		toggles := target(p)
		for i, feature := range toggleColumns {
			toggles[feature] = values[i]
		}
	}
	return rows.Err()
}

func (r *Resolver) loadBrowserSubscriptions(ctx context.Context, ids []int64, profiles map[int64]*models.RecipientChannelProfile) error {
	rows, err := r.db.QueryContext(ctx, browserSubscriptionsQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID                    int64
			endpoint, p256dh, authKey sql.NullString
		)
		if err := rows.Scan(&userID, &endpoint, &p256dh, &authKey); err != nil {
			return err
		}
		p, ok := profiles[userID]
		if !ok {
			continue
		}
		// Records lacking a usable subscription payload are dropped
		// silently rather than failing the load.
		if !endpoint.Valid || endpoint.String == "" || !p256dh.Valid || !authKey.Valid {
			continue
		}
		p.Browser.Subscriptions = append(p.Browser.Subscriptions, &models.BrowserSubscription{
			Endpoint:  endpoint.String,
			P256DHKey: p256dh.String,
			AuthKey:   authKey.String,
			Enabled:   true,
		})
	}
	return rows.Err()
}

func (r *Resolver) loadEmailSettings(ctx context.Context, ids []int64, profiles map[int64]*models.RecipientChannelProfile) error {
	rows, err := r.db.QueryContext(ctx, emailSettingsQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID    int64
			email     string
			frequency string
		)
		if err := rows.Scan(&userID, &email, &frequency); err != nil {
			return err
		}
		if p, ok := profiles[userID]; ok {
			p.Email.Address = email
			p.Email.Frequency = models.EmailFrequency(frequency)
		}
	}
	return rows.Err()
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
