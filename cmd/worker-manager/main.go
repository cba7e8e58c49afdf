// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"notification-engine/internal/common/aws"
	"notification-engine/internal/common/camunda"
	"notification-engine/internal/common/config"
	"notification-engine/internal/common/database"
	commonhttp "notification-engine/internal/common/http"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/common/observability"
	"notification-engine/internal/notifications"
	"notification-engine/internal/notifications/audit"
	"notification-engine/internal/notifications/delivery"
	"notification-engine/internal/notifications/resources"
	"notification-engine/internal/notifications/settings"
	"notification-engine/internal/notifications/variants"

	pe "notification-engine/internal/workers/notifications/process-events"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("notification-engine")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress, 10*time.Second)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("Zeebe client init failed", zap.Error(err))
	}

	// --- Init Postgres with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Postgres initialization")
	if err != nil {
		zapLog.Fatal("Postgres init failed", zap.Error(err))
	}
	defer pg.Close()

	// --- Init Redis with retry ---
	var rds *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rds, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rds.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis initialization")
	if err != nil {
		zapLog.Fatal("Redis init failed", zap.Error(err))
	}
	defer rds.Close()

	// --- Init Elasticsearch (audit trail is best effort) ---
	var auditSink audit.Sink = audit.NopSink{}
	if cfg.Notifications.AuditIndex != "" {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Warn("Elasticsearch init failed, audit trail disabled", zap.Error(err))
		} else {
			if err := es.Ping(); err != nil {
				zapLog.Warn("Elasticsearch unreachable, audit trail degraded", zap.Error(err))
			}
			auditSink = audit.NewIndexer(es, cfg.Notifications.AuditIndex, log)
		}
	}

	// --- Init delivery clients ---
	var mobileClient delivery.MobilePushClient
	if cfg.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client init failed", zap.Error(err))
		}
		mobileClient = delivery.NewSNSPushClient(snsClient)
	} else {
		mobileClient = delivery.NopMobileClient{}
		zapLog.Warn("SNS disabled, mobile push is a no-op")
	}

	var emailClient delivery.EmailClient
	if cfg.AWS.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client init failed", zap.Error(err))
		}
		emailClient = delivery.NewSESEmailClient(sesClient, cfg.AWS.SES.FromEmail, cfg.AWS.SES.FromName)
	} else {
		emailClient = delivery.NopEmailClient{}
		zapLog.Warn("SES disabled, live email is a no-op")
	}

	browserTimeout := time.Duration(cfg.Notifications.BrowserPushTimeout) * time.Millisecond
	if browserTimeout <= 0 {
		browserTimeout = 10 * time.Second
	}
	browserClient := delivery.NewHTTPBrowserPushClient(commonhttp.NewClient(browserTimeout))

	// --- Wire the engine ---
	badges := delivery.NewRedisBadgeCounter(rds.GetClient(), cfg.Notifications.BadgeKeyPrefix)
	endpoints := delivery.NewSQLEndpointStore(pg.GetDB())

	orchestrator := delivery.NewOrchestrator(
		mobileClient,
		browserClient,
		emailClient,
		delivery.PlainRenderer{},
		badges,
		endpoints,
		auditSink,
		log,
	)

	registry := variants.NewRegistry(variants.Deps{
		Resources:    resources.NewStore(pg.GetDB(), log),
		Orchestrator: orchestrator,
		Logger:       log,
		Flags:        cfg.Notifications.Features,
		PageSize:     cfg.Notifications.BroadcastPageSize,
	})

	processor := notifications.NewProcessor(
		settings.NewResolver(pg.GetDB(), log),
		registry,
		log,
	)

	// --- Register worker ---
	var runningWorkers []*camunda.Worker
	if taskType := pe.TaskType; cfg.Workers[taskType].Enabled {
		workerCfg := pe.DefaultConfig()
		if wcfg := cfg.Workers[taskType]; wcfg.Timeout > 0 {
			workerCfg.Timeout = time.Duration(wcfg.Timeout) * time.Millisecond
			workerCfg.MaxJobsActive = wcfg.MaxJobsActive
		}

		handler, err := pe.NewHandler(workerCfg, processor, obs, log)
		if err != nil {
			zapLog.Fatal("failed to create process-events handler", zap.Error(err))
		}
		w := camunda.StartWorker(
			zeebeClient.GetClient(),
			taskType,
			workerCfg.MaxJobsActive,
			workerCfg.Timeout,
			handler.Handle,
			zapLog,
		)
		runningWorkers = append(runningWorkers, w)
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range runningWorkers {
		w.Stop()
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
