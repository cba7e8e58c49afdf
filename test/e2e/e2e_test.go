// test/e2e/e2e_test.go
//
// End-to-end tests against real services (PostgreSQL, Redis, Elasticsearch,
// Zeebe). Gated behind the E2E environment variable so the unit suite stays
// hermetic:
//
//	E2E=1 go test ./test/e2e/...
package e2e

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification-engine/internal/common/camunda"
	"notification-engine/internal/common/config"
	"notification-engine/internal/common/database"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/models"
	"notification-engine/internal/notifications"
	"notification-engine/internal/notifications/delivery"
	"notification-engine/internal/notifications/resources"
	"notification-engine/internal/notifications/settings"
	"notification-engine/internal/notifications/variants"
)

// capturePushClient stands in for SNS so the e2e run exercises the full
// pipeline without a live push provider.
type capturePushClient struct {
	mu       sync.Mutex
	payloads []delivery.PushPayload
}

func (c *capturePushClient) Send(ctx context.Context, platform models.PlatformType, endpointHandle string, payload delivery.PushPayload) delivery.SendResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	return delivery.SendResult{}
}

type nopBrowserClient struct{}

func (nopBrowserClient) Send(context.Context, *models.BrowserSubscription, delivery.PushPayload) delivery.SendResult {
	return delivery.SendResult{}
}

func TestMain(m *testing.M) {
	if os.Getenv("E2E") == "" {
		fmt.Println("⏭️  E2E not set, skipping end-to-end tests")
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func loadTestConfig(t *testing.T) *config.Config {
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestServiceConnectivity(t *testing.T) {
	cfg := loadTestConfig(t)
	ctx := context.Background()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	defer pg.Close()
	assert.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")
	t.Log("✅ PostgreSQL connected")

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis client creation failed")
	defer rdb.Close()
	assert.NoError(t, rdb.Ping(ctx), "Redis ping failed")
	t.Log("✅ Redis connected")

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err, "Elasticsearch client creation failed")
	assert.NoError(t, es.Ping(), "Elasticsearch ping failed")
	t.Log("✅ Elasticsearch connected")

	zeebe, err := camunda.NewClient(cfg.Camunda.BrokerAddress, 10*time.Second)
	require.NoError(t, err, "Zeebe connection failed")
	defer zeebe.Close()
	t.Log("✅ Zeebe connected")
}

func createSchema(t *testing.T, pg *database.PostgresClient) {
	ctx := context.Background()
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			name VARCHAR(255),
			handle VARCHAR(255),
			profile_picture_url TEXT,
			is_abusive BOOLEAN DEFAULT FALSE,
			is_deactivated BOOLEAN DEFAULT FALSE,
			is_email_deliverable BOOLEAN DEFAULT TRUE,
			is_current BOOLEAN DEFAULT TRUE,
			timezone VARCHAR(64) DEFAULT 'UTC'
		)`,
		`CREATE TABLE IF NOT EXISTS tracks (
			track_id BIGINT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			owner_id BIGINT,
			cover_art_url TEXT,
			is_price_gated BOOLEAN DEFAULT FALSE,
			is_current BOOLEAN DEFAULT TRUE,
			is_delete BOOLEAN DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS playlists (
			playlist_id BIGINT PRIMARY KEY,
			playlist_name VARCHAR(255) NOT NULL,
			owner_id BIGINT,
			is_album BOOLEAN DEFAULT FALSE,
			cover_art_url TEXT,
			is_current BOOLEAN DEFAULT TRUE,
			is_delete BOOLEAN DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS notification_device_tokens (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			device_type VARCHAR(16) NOT NULL,
			aws_arn TEXT NOT NULL UNIQUE,
			enabled BOOLEAN DEFAULT TRUE,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS notification_browser_subscriptions (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			endpoint TEXT NOT NULL UNIQUE,
			p256dh_key TEXT,
			auth_key TEXT,
			enabled BOOLEAN DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS user_notification_mobile_settings (
			user_id BIGINT PRIMARY KEY,
			favorites BOOLEAN DEFAULT TRUE,
			reposts BOOLEAN DEFAULT TRUE,
			followers BOOLEAN DEFAULT TRUE,
			remixes BOOLEAN DEFAULT TRUE,
			comments BOOLEAN DEFAULT TRUE,
			mentions BOOLEAN DEFAULT TRUE,
			milestones_and_achievements BOOLEAN DEFAULT TRUE,
			announcements BOOLEAN DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS user_notification_browser_settings (
			user_id BIGINT PRIMARY KEY,
			favorites BOOLEAN DEFAULT TRUE,
			reposts BOOLEAN DEFAULT TRUE,
			followers BOOLEAN DEFAULT TRUE,
			remixes BOOLEAN DEFAULT TRUE,
			comments BOOLEAN DEFAULT TRUE,
			mentions BOOLEAN DEFAULT TRUE,
			milestones_and_achievements BOOLEAN DEFAULT TRUE,
			announcements BOOLEAN DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS user_notification_email_settings (
			user_id BIGINT PRIMARY KEY,
			email VARCHAR(255),
			frequency VARCHAR(16) DEFAULT 'live'
		)`,
	}
	for _, q := range queries {
		_, err := pg.Exec(ctx, q)
		require.NoError(t, err)
	}

	seed := []string{
		`INSERT INTO users (user_id, name, handle) VALUES (900001, 'E2E Listener', 'e2e_listener')
		 ON CONFLICT (user_id) DO NOTHING`,
		`INSERT INTO users (user_id, name, handle) VALUES (900002, 'E2E Artist', 'e2e_artist')
		 ON CONFLICT (user_id) DO NOTHING`,
		`INSERT INTO tracks (track_id, title, owner_id) VALUES (910001, 'E2E First Light', 900001)
		 ON CONFLICT (track_id) DO NOTHING`,
		`INSERT INTO notification_device_tokens (user_id, device_type, aws_arn)
		 VALUES (900001, 'android', 'arn:e2e:900001:device-1')
		 ON CONFLICT (aws_arn) DO UPDATE SET enabled = TRUE`,
	}
	for _, q := range seed {
		_, err := pg.Exec(ctx, q)
		require.NoError(t, err)
	}
}

// TestProcessBatchEndToEnd drives the real engine against live PostgreSQL
// and Redis: settings and entity resolution hit the seeded tables, the badge
// counter hits Redis, and only the provider transports are captured.
func TestProcessBatchEndToEnd(t *testing.T) {
	cfg := loadTestConfig(t)
	ctx := context.Background()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer pg.Close()
	createSchema(t, pg)

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer rdb.Close()

	log := logger.NewNoOpLogger()
	mobile := &capturePushClient{}
	badges := delivery.NewRedisBadgeCounter(rdb.GetClient(), "e2e:badges")
	require.NoError(t, badges.Reset(ctx, 900001))

	orch := delivery.NewOrchestrator(
		mobile, nopBrowserClient{}, delivery.NopEmailClient{}, delivery.PlainRenderer{},
		badges, delivery.NewSQLEndpointStore(pg.GetDB()), nil, log,
	)
	registry := variants.NewRegistry(variants.Deps{
		Resources:    resources.NewStore(pg.GetDB(), log),
		Orchestrator: orch,
		Logger:       log,
	})
	processor := notifications.NewProcessor(settings.NewResolver(pg.GetDB(), log), registry, log)

	events := []*models.NotificationEvent{
		{
			Type:             models.KindFollow,
			Data:             map[string]interface{}{"followerUserId": float64(900002)},
			RecipientUserIDs: []int64{900001},
			GroupID:          "e2e:follow:900002",
			Timestamp:        time.Now(),
		},
		{
			Type: models.KindSave,
			Data: map[string]interface{}{
				"userId": float64(900002), "entityId": float64(910001), "entityType": "track",
			},
			RecipientUserIDs: []int64{900001},
			GroupID:          "e2e:save:910001",
			Timestamp:        time.Now(),
		},
	}

	result, err := processor.ProcessBatch(ctx, events)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Succeeded)
	assert.False(t, result.HasRetryable())

	require.Len(t, mobile.payloads, 2)
	assert.Equal(t, "E2E Artist followed you", mobile.payloads[0].Body)
	assert.Equal(t, "E2E Artist favorited E2E First Light", mobile.payloads[1].Body)

	// Badge counter incremented once per delivered event, and the running
	// count rode along in the payloads.
	count, err := badges.Get(ctx, 900001)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 1, mobile.payloads[0].BadgeCount)
	assert.Equal(t, 2, mobile.payloads[1].BadgeCount)

	t.Log("✅ ProcessBatch end-to-end successful")
}

func BenchmarkProcessBatch(b *testing.B) {
	cfg, err := config.Load()
	if err != nil {
		b.Skip("config not available")
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		b.Skip("postgres not available")
	}
	defer pg.Close()

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		b.Skip("redis not available")
	}
	defer rdb.Close()

	log := logger.NewNoOpLogger()
	orch := delivery.NewOrchestrator(
		&capturePushClient{}, nopBrowserClient{}, delivery.NopEmailClient{}, delivery.PlainRenderer{},
		delivery.NewRedisBadgeCounter(rdb.GetClient(), "e2e:bench:badges"),
		delivery.NewSQLEndpointStore(pg.GetDB()), nil, log,
	)
	registry := variants.NewRegistry(variants.Deps{
		Resources:    resources.NewStore(pg.GetDB(), log),
		Orchestrator: orch,
		Logger:       log,
	})
	processor := notifications.NewProcessor(settings.NewResolver(pg.GetDB(), log), registry, log)

	events := []*models.NotificationEvent{{
		Type:             models.KindFollow,
		Data:             map[string]interface{}{"followerUserId": float64(900002)},
		RecipientUserIDs: []int64{900001},
		GroupID:          "e2e:bench:follow",
		Timestamp:        time.Now(),
	}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		processor.ProcessBatch(context.Background(), events)
	}
}
