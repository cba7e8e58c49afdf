// internal/notifications/delivery/endpoints.go
package delivery

import (
	"context"
	"database/sql"
)

const (
	disableDeviceQuery = `UPDATE notification_device_tokens
		SET enabled = FALSE, updated_at = NOW()
		WHERE aws_arn = $1`

	deleteSubscriptionQuery = `DELETE FROM notification_browser_subscriptions
		WHERE endpoint = $1`
)

// SQLEndpointStore applies permanent-failure cleanup against the settings
// store: device tokens are soft disabled so registration history survives,
// browser subscriptions are deleted outright.
type SQLEndpointStore struct {
	db *sql.DB
}

func NewSQLEndpointStore(db *sql.DB) *SQLEndpointStore {
	return &SQLEndpointStore{db: db}
}

func (s *SQLEndpointStore) DisableDevice(ctx context.Context, endpointHandle string) error {
	_, err := s.db.ExecContext(ctx, disableDeviceQuery, endpointHandle)
	return err
}

func (s *SQLEndpointStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	_, err := s.db.ExecContext(ctx, deleteSubscriptionQuery, endpoint)
	return err
}
