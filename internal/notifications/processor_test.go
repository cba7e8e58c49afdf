// internal/notifications/processor_test.go
package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/models"
	"notification-engine/internal/notifications/delivery"
	"notification-engine/internal/notifications/resources"
	"notification-engine/internal/notifications/settings"
	"notification-engine/internal/notifications/variants"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type countingMobileClient struct {
	mu    sync.Mutex
	sends int
}

func (m *countingMobileClient) Send(ctx context.Context, platform models.PlatformType, endpointHandle string, payload delivery.PushPayload) delivery.SendResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends++
	return delivery.SendResult{}
}

type nopBrowserClient struct{}

func (nopBrowserClient) Send(context.Context, *models.BrowserSubscription, delivery.PushPayload) delivery.SendResult {
	return delivery.SendResult{}
}

type nopBadges struct{}

func (nopBadges) Increment(context.Context, int64) (int64, error) { return 1, nil }

type nopEndpoints struct{}

func (nopEndpoints) DisableDevice(context.Context, string) error      { return nil }
func (nopEndpoints) DeleteSubscription(context.Context, string) error { return nil }

// ==========================
// Test Helper Functions
// ==========================

type processorFixture struct {
	settingsMock  sqlmock.Sqlmock
	resourcesMock sqlmock.Sqlmock
	mobile        *countingMobileClient
	processor     *Processor
}

func newProcessorFixture(t *testing.T) *processorFixture {
	settingsDB, settingsMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { settingsDB.Close() })

	resourcesDB, resourcesMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { resourcesDB.Close() })

	log := logger.NewNoOpLogger()
	mobile := &countingMobileClient{}

	orch := delivery.NewOrchestrator(
		mobile, nopBrowserClient{}, delivery.NopEmailClient{}, delivery.PlainRenderer{},
		nopBadges{}, nopEndpoints{}, nil, log,
	)
	registry := variants.NewRegistry(variants.Deps{
		Resources:    resources.NewStore(resourcesDB, log),
		Orchestrator: orch,
		Logger:       log,
	})

	return &processorFixture{
		settingsMock:  settingsMock,
		resourcesMock: resourcesMock,
		mobile:        mobile,
		processor:     NewProcessor(settings.NewResolver(settingsDB, log), registry, log),
	}
}

// expectSettingsLoad mocks the full six-query settings pass. Every listed
// user gets a clean row plus one enabled android device.
func (f *processorFixture) expectSettingsLoad(userIDs ...int64) {
	userRows := sqlmock.NewRows([]string{"user_id", "is_abusive", "is_deactivated", "is_email_deliverable", "timezone"})
	deviceRows := sqlmock.NewRows([]string{"user_id", "device_type", "aws_arn"})
	for _, id := range userIDs {
		userRows.AddRow(id, false, false, true, "UTC")
		deviceRows.AddRow(id, "android", "arn:device")
	}

	toggleColumns := []string{
		"user_id", "favorites", "reposts", "followers", "remixes",
		"comments", "mentions", "milestones_and_achievements", "announcements",
	}

	f.settingsMock.ExpectQuery("FROM users").WillReturnRows(userRows)
	f.settingsMock.ExpectQuery("FROM notification_device_tokens").WillReturnRows(deviceRows)
	f.settingsMock.ExpectQuery("FROM user_notification_mobile_settings").
		WillReturnRows(sqlmock.NewRows(toggleColumns))
	f.settingsMock.ExpectQuery("FROM notification_browser_subscriptions").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "endpoint", "p256dh_key", "auth_key"}))
	f.settingsMock.ExpectQuery("FROM user_notification_browser_settings").
		WillReturnRows(sqlmock.NewRows(toggleColumns))
	f.settingsMock.ExpectQuery("FROM user_notification_email_settings").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "email", "frequency"}))
}

func followEvent(recipient, follower int64) *models.NotificationEvent {
	return &models.NotificationEvent{
		Type:             models.KindFollow,
		Data:             map[string]interface{}{"followerUserId": float64(follower)},
		RecipientUserIDs: []int64{recipient},
		GroupID:          "follow:test",
		Timestamp:        time.Now(),
	}
}

// ==========================
// ProcessBatch Tests
// ==========================

func TestProcessBatch_DeliversAndReportsOutcomes(t *testing.T) {
	f := newProcessorFixture(t)

	// Recipient and sender land in one settings load.
	f.expectSettingsLoad(1, 9)
	f.resourcesMock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "handle", "profile_picture_url"}).
			AddRow(9, "Alice", "alice", ""))

	result, err := f.processor.ProcessBatch(context.Background(),
		[]*models.NotificationEvent{followEvent(1, 9)})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, OutcomeOK, result.Outcomes[0].Outcome)
	assert.False(t, result.HasRetryable())
	assert.Nil(t, result.FirstRetryable())
	assert.Equal(t, 1, f.mobile.sends)

	assert.NoError(t, f.settingsMock.ExpectationsWereMet())
	assert.NoError(t, f.resourcesMock.ExpectationsWereMet())
}

func TestProcessBatch_InvalidEventsDropBeforeAnyQuery(t *testing.T) {
	f := newProcessorFixture(t)

	events := []*models.NotificationEvent{
		{Type: "bogus_kind", GroupID: "g1", RecipientUserIDs: []int64{1}},
		{Type: models.KindFollow, GroupID: "g2", RecipientUserIDs: []int64{1},
			Data: map[string]interface{}{}},
	}

	result, err := f.processor.ProcessBatch(context.Background(), events)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Succeeded)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, OutcomeInvalid, result.Outcomes[0].Outcome)
	assert.Contains(t, result.Outcomes[0].Error, "UNKNOWN_EVENT_KIND")
	assert.Equal(t, OutcomeInvalid, result.Outcomes[1].Outcome)
	assert.Contains(t, result.Outcomes[1].Error, "EVENT_PAYLOAD_INVALID")
	assert.False(t, result.HasRetryable())

	// No valid variant means no settings load at all.
	assert.NoError(t, f.settingsMock.ExpectationsWereMet())
}

func TestProcessBatch_SettingsFailureIsBatchFatal(t *testing.T) {
	f := newProcessorFixture(t)

	f.settingsMock.ExpectQuery("FROM users").WillReturnError(assert.AnError)

	result, err := f.processor.ProcessBatch(context.Background(),
		[]*models.NotificationEvent{followEvent(1, 9)})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsBatchFatal(err))
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, 0, f.mobile.sends)
}

func TestProcessBatch_RetryableEventDoesNotAbortSiblings(t *testing.T) {
	f := newProcessorFixture(t)

	f.expectSettingsLoad(1, 2, 9)

	// First event's entity lookup fails; second event's succeeds.
	f.resourcesMock.ExpectQuery("FROM users").WillReturnError(assert.AnError)
	f.resourcesMock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "handle", "profile_picture_url"}).
			AddRow(9, "Alice", "alice", ""))

	result, err := f.processor.ProcessBatch(context.Background(),
		[]*models.NotificationEvent{followEvent(1, 9), followEvent(2, 9)})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, OutcomeRetryable, result.Outcomes[0].Outcome)
	assert.Equal(t, OutcomeOK, result.Outcomes[1].Outcome)

	require.True(t, result.HasRetryable())
	require.Len(t, result.Retryable, 1)
	assert.Equal(t, 0, result.Retryable[0].Index)
	assert.True(t, errors.IsCode(result.FirstRetryable(), errors.ErrCodeEntityLookupFailed))

	// The surviving sibling still delivered.
	assert.Equal(t, 1, f.mobile.sends)
}

func TestProcessBatch_SameKindEventsShareOneEmailLookup(t *testing.T) {
	f := newProcessorFixture(t)

	f.expectSettingsLoad(1, 9, 8)

	userCols := []string{"user_id", "name", "handle", "profile_picture_url"}
	// One union lookup for the grouped email, then one per-event lookup
	// for each push text.
	f.resourcesMock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(8, "Bob", "bob", "").
			AddRow(9, "Alice", "alice", ""))
	f.resourcesMock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(9, "Alice", "alice", ""))
	f.resourcesMock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(8, "Bob", "bob", ""))

	result, err := f.processor.ProcessBatch(context.Background(),
		[]*models.NotificationEvent{followEvent(1, 9), followEvent(1, 8)})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, f.mobile.sends)
	assert.NoError(t, f.resourcesMock.ExpectationsWereMet())
}

func TestProcessBatch_EmptyBatch(t *testing.T) {
	f := newProcessorFixture(t)

	result, err := f.processor.ProcessBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Empty(t, result.Outcomes)
	assert.NoError(t, f.settingsMock.ExpectationsWereMet())
}

func TestProcessBatch_MixedValidAndInvalid(t *testing.T) {
	f := newProcessorFixture(t)

	f.expectSettingsLoad(1, 9)
	f.resourcesMock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "handle", "profile_picture_url"}).
			AddRow(9, "Alice", "alice", ""))

	events := []*models.NotificationEvent{
		{Type: "bogus_kind", GroupID: "g1", RecipientUserIDs: []int64{1}},
		followEvent(1, 9),
	}

	result, err := f.processor.ProcessBatch(context.Background(), events)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, OutcomeInvalid, result.Outcomes[0].Outcome)
	assert.Equal(t, OutcomeOK, result.Outcomes[1].Outcome)
	assert.Equal(t, 1, result.Outcomes[1].Index)
}
