// internal/workers/notifications/process-events/handler.go
package processevents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/common/observability"
	"notification-engine/internal/common/validation"
	"notification-engine/internal/models"
	"notification-engine/internal/notifications"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "process-notification-events"
)

// BatchProcessor is the engine entry point, narrowed for mocking.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, events []*models.NotificationEvent) (*notifications.BatchResult, error)
}

type Handler struct {
	config       *Config
	processor    BatchProcessor
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, processor BatchProcessor, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Handler{
		config:       config,
		processor:    processor,
		errorHandler: errors.NewErrorHandler(log),
		obs:          obs,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

// Handle consumes one event batch job. The outcome contract: the job fails
// with retries on a batch-fatal or event-retryable error, throws a BPMN
// error on a malformed payload, and completes with per-event outcomes in
// every other case, partial send failures included.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	start := time.Now()
	status := "failed"
	defer func() {
		if h.obs != nil {
			h.obs.RecordBatchProcessed(ctx, status)
			h.obs.RecordBatchDuration(ctx, time.Since(start), status)
		}
	}()

	output, err := h.execute(ctx, []byte(job.Variables))
	if err != nil {
		status = errors.GetErrorCategory(classifyCode(err))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	status = output.Status
	h.completeJob(ctx, client, job, output)
}

// execute runs validation and the batch pipeline. The returned error is
// always a StandardError: payload defects throw BPMN errors, batch-fatal and
// event-retryable errors fail the job with retries. Partial send failures
// are not errors; they surface in the output's per-event outcomes.
func (h *Handler) execute(ctx context.Context, raw []byte) (*Output, error) {
	if err := validation.ValidateEventBatch(raw); err != nil {
		return nil, errors.NewEventPayloadInvalidError(err.Error())
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewEventPayloadInvalidError(err.Error())
	}

	if len(input.Events) > h.config.MaxBatchSize {
		return nil, errors.NewEventPayloadInvalidError(
			fmt.Sprintf("batch of %d exceeds limit %d", len(input.Events), h.config.MaxBatchSize))
	}

	result, err := h.processor.ProcessBatch(ctx, input.Events)
	if err != nil {
		if errors.IsBatchFatal(err) {
			// The whole batch retries; no event was delivered.
			h.logger.Error("batch aborted before delivery", map[string]interface{}{
				"events": len(input.Events),
				"error":  err,
			})
		}
		return nil, err
	}

	if result.HasRetryable() {
		// Only some events need re-delivery. The retryable outcomes ride
		// along as error variables so the workflow can re-enqueue exactly
		// those events; settled events must not be replayed.
		h.logger.Warn("batch has retryable events", map[string]interface{}{
			"retryable": len(result.Retryable),
			"processed": result.Processed,
		})
		retryErr := result.FirstRetryable()
		if stdErr, ok := errors.AsStandard(retryErr); ok {
			if stdErr.Metadata == nil {
				stdErr.Metadata = map[string]interface{}{}
			}
			stdErr.Metadata["retryableOutcomes"] = result.Retryable
		}
		return nil, retryErr
	}

	return buildOutput(result), nil
}

func classifyCode(err error) errors.ErrorCode {
	if stdErr, ok := errors.AsStandard(err); ok {
		return stdErr.Code
	}
	return ""
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	h.logger.Info("batch completed", map[string]interface{}{
		"jobKey":    job.Key,
		"processed": output.Processed,
		"succeeded": output.Succeeded,
		"invalid":   output.Invalid,
	})
}

func buildOutput(result *notifications.BatchResult) *Output {
	invalid := 0
	for _, o := range result.Outcomes {
		if o.Outcome == notifications.OutcomeInvalid {
			invalid++
		}
	}

	status := "completed"
	if result.Succeeded < result.Processed {
		status = "partial"
	}

	return &Output{
		Processed: result.Processed,
		Succeeded: result.Succeeded,
		Invalid:   invalid,
		Outcomes:  result.Outcomes,
		Status:    status,
	}
}
