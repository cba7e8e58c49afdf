// internal/notifications/audit/indexer.go
package audit

import (
	"context"
	"encoding/json"
	"time"

	"notification-engine/internal/common/database"
	"notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/models"

	"github.com/google/uuid"
)

// Record is one attempted channel delivery.
type Record struct {
	ID        string           `json:"id"`
	Kind      models.EventKind `json:"kind"`
	GroupID   string           `json:"groupId"`
	UserID    int64            `json:"userId"`
	Channel   string           `json:"channel"`
	Status    string           `json:"status"` // sent, failed, disabled
	Endpoint  string           `json:"endpoint,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Sink receives delivery records. Implementations must never fail a
// delivery: auditing is best effort.
type Sink interface {
	Record(ctx context.Context, rec Record)
}

// Indexer writes one Elasticsearch document per attempted delivery.
type Indexer struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewIndexer(es *database.ElasticsearchClient, index string, log logger.Logger) *Indexer {
	return &Indexer{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit-indexer"}),
	}
}

func (i *Indexer) Record(ctx context.Context, rec Record) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(rec)
	if err != nil {
		i.logger.Warn("audit record marshal failed", map[string]interface{}{"error": err})
		return
	}

	if err := i.es.Index(ctx, i.index, rec.ID, body); err != nil {
		i.logger.Warn("audit index failed", map[string]interface{}{
			"error":  errors.NewAuditIndexFailedError(err),
			"userId": rec.UserID,
			"kind":   string(rec.Kind),
		})
	}
}

// NopSink discards records; used when auditing is disabled.
type NopSink struct{}

func (NopSink) Record(context.Context, Record) {}
