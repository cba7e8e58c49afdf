// internal/workers/notifications/process-events/handler_test.go
package processevents

import (
	"context"
	"testing"
	"time"

	"notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/models"
	"notification-engine/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockBatchProcessor struct {
	ProcessBatchFunc func(ctx context.Context, events []*models.NotificationEvent) (*notifications.BatchResult, error)
}

func (m *MockBatchProcessor) ProcessBatch(ctx context.Context, events []*models.NotificationEvent) (*notifications.BatchResult, error) {
	if m.ProcessBatchFunc != nil {
		return m.ProcessBatchFunc(ctx, events)
	}
	result := &notifications.BatchResult{Processed: len(events)}
	for i, e := range events {
		result.Add(notifications.EventOutcome{
			Index: i, Kind: e.Type, GroupID: e.GroupID, Outcome: notifications.OutcomeOK,
		}, nil)
	}
	return result, nil
}

// ==========================
// Test Helper Functions
// ==========================

func newTestHandler(t *testing.T, processor BatchProcessor) *Handler {
	handler, err := NewHandler(DefaultConfig(), processor, nil, logger.NewNoOpLogger())
	require.NoError(t, err)
	return handler
}

func batchPayload(groupIDs ...string) []byte {
	payload := `{"events":[`
	for i, groupID := range groupIDs {
		if i > 0 {
			payload += ","
		}
		payload += `{"type":"follow","data":{"followerUserId":9},` +
			`"recipientUserIds":[1],"groupId":"` + groupID + `",` +
			`"timestamp":"2026-08-27T10:00:00Z"}`
	}
	return []byte(payload + `]}`)
}

// ==========================
// Configuration Tests
// ==========================

func TestNewHandler_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBatchSize = 0

	_, err := NewHandler(cfg, &MockBatchProcessor{}, nil, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_batch_size")
}

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

// ==========================
// Payload Validation Tests
// ==========================

func TestExecute_RejectsPayloadWithoutEvents(t *testing.T) {
	handler := newTestHandler(t, &MockBatchProcessor{
		ProcessBatchFunc: func(context.Context, []*models.NotificationEvent) (*notifications.BatchResult, error) {
			t.Fatal("processor must not run on an invalid payload")
			return nil, nil
		},
	})

	_, err := handler.execute(context.Background(), []byte(`{"batch": []}`))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventPayloadInvalid))
	assert.False(t, errors.IsRetryable(err))
}

func TestExecute_RejectsEventMissingRequiredEnvelopeFields(t *testing.T) {
	handler := newTestHandler(t, &MockBatchProcessor{})

	// groupId and timestamp missing from the envelope.
	payload := []byte(`{"events":[{"type":"follow","recipientUserIds":[1]}]}`)
	_, err := handler.execute(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventPayloadInvalid))
}

func TestExecute_RejectsMalformedJSON(t *testing.T) {
	handler := newTestHandler(t, &MockBatchProcessor{})

	_, err := handler.execute(context.Background(), []byte(`{"events": [`))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventPayloadInvalid))
}

func TestExecute_RejectsOversizedBatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBatchSize = 2
	handler, err := NewHandler(cfg, &MockBatchProcessor{}, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	_, err = handler.execute(context.Background(), batchPayload("g1", "g2", "g3"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventPayloadInvalid))
	assert.Contains(t, err.Error(), "exceeds limit")
}

// ==========================
// Batch Outcome Tests
// ==========================

func TestExecute_CompletesCleanBatch(t *testing.T) {
	handler := newTestHandler(t, &MockBatchProcessor{})

	output, err := handler.execute(context.Background(), batchPayload("g1", "g2"))
	require.NoError(t, err)

	assert.Equal(t, 2, output.Processed)
	assert.Equal(t, 2, output.Succeeded)
	assert.Equal(t, 0, output.Invalid)
	assert.Equal(t, "completed", output.Status)
	require.Len(t, output.Outcomes, 2)
	assert.Equal(t, "g1", output.Outcomes[0].GroupID)
}

func TestExecute_PartialBatchReportsInvalidEvents(t *testing.T) {
	handler := newTestHandler(t, &MockBatchProcessor{
		ProcessBatchFunc: func(ctx context.Context, events []*models.NotificationEvent) (*notifications.BatchResult, error) {
			result := &notifications.BatchResult{Processed: 2}
			result.Add(notifications.EventOutcome{
				Index: 0, Kind: events[0].Type, Outcome: notifications.OutcomeInvalid,
				Error: "UNKNOWN_EVENT_KIND",
			}, nil)
			result.Add(notifications.EventOutcome{
				Index: 1, Kind: events[1].Type, Outcome: notifications.OutcomeOK,
			}, nil)
			return result, nil
		},
	})

	output, err := handler.execute(context.Background(), batchPayload("g1", "g2"))
	require.NoError(t, err)

	assert.Equal(t, "partial", output.Status)
	assert.Equal(t, 1, output.Succeeded)
	assert.Equal(t, 1, output.Invalid)
}

func TestExecute_BatchFatalErrorPassesThrough(t *testing.T) {
	handler := newTestHandler(t, &MockBatchProcessor{
		ProcessBatchFunc: func(context.Context, []*models.NotificationEvent) (*notifications.BatchResult, error) {
			return nil, errors.NewSettingsLoadFailedError(assert.AnError)
		},
	})

	_, err := handler.execute(context.Background(), batchPayload("g1"))
	require.Error(t, err)
	assert.True(t, errors.IsBatchFatal(err))
	assert.True(t, errors.IsRetryable(err))
}

func TestExecute_RetryableEventsFailJobWithOutcomes(t *testing.T) {
	handler := newTestHandler(t, &MockBatchProcessor{
		ProcessBatchFunc: func(ctx context.Context, events []*models.NotificationEvent) (*notifications.BatchResult, error) {
			result := &notifications.BatchResult{Processed: 2}
			result.Add(notifications.EventOutcome{
				Index: 0, Kind: events[0].Type, GroupID: events[0].GroupID,
				Outcome: notifications.OutcomeOK,
			}, nil)
			result.Add(notifications.EventOutcome{
				Index: 1, Kind: events[1].Type, GroupID: events[1].GroupID,
				Outcome: notifications.OutcomeRetryable, Error: "ENTITY_LOOKUP_FAILED",
			}, errors.NewEntityLookupFailedError("users", assert.AnError))
			return result, nil
		},
	})

	_, err := handler.execute(context.Background(), batchPayload("g1", "g2"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEntityLookupFailed))
	assert.True(t, errors.IsRetryable(err))
	assert.False(t, errors.IsBatchFatal(err))

	// The retryable outcomes ride along as error metadata so the workflow
	// can re-enqueue exactly those events.
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	outcomes, ok := stdErr.Metadata["retryableOutcomes"].([]notifications.EventOutcome)
	require.True(t, ok)
	require.Len(t, outcomes, 1)
	assert.Equal(t, 1, outcomes[0].Index)
	assert.Equal(t, "g2", outcomes[0].GroupID)
}

func TestExecute_ProcessorReceivesDecodedEvents(t *testing.T) {
	var received []*models.NotificationEvent
	handler := newTestHandler(t, &MockBatchProcessor{
		ProcessBatchFunc: func(ctx context.Context, events []*models.NotificationEvent) (*notifications.BatchResult, error) {
			received = events
			return &notifications.BatchResult{Processed: len(events)}, nil
		},
	})

	_, err := handler.execute(context.Background(), batchPayload("g1"))
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, models.KindFollow, received[0].Type)
	assert.Equal(t, []int64{1}, received[0].RecipientUserIDs)
	assert.Equal(t, "g1", received[0].GroupID)
	assert.Equal(t, time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC), received[0].Timestamp.UTC())

	followerID, ok := received[0].Int64Field("followerUserId")
	require.True(t, ok)
	assert.Equal(t, int64(9), followerID)
}
