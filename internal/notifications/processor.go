// internal/notifications/processor.go

// Package notifications wires the batch pipeline: bulk settings resolution,
// per-event variant dispatch, and outcome classification for the outer
// consumer.
package notifications

import (
	"context"
	"time"

	"notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/common/metrics"
	"notification-engine/internal/models"
	"notification-engine/internal/notifications/settings"
	"notification-engine/internal/notifications/variants"
)

// Outcome classifies what happened to one event in a batch.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeRetryable Outcome = "retryable"
	OutcomeInvalid   Outcome = "invalid"
)

// EventOutcome is the per-event result reported back to the consumer.
type EventOutcome struct {
	Index   int              `json:"index"`
	Kind    models.EventKind `json:"kind"`
	GroupID string           `json:"groupId"`
	Outcome Outcome          `json:"outcome"`
	Error   string           `json:"error,omitempty"`
}

// BatchResult summarizes a processed batch. Retryable holds the event-level
// errors the consumer should re-enqueue; invalid events are reported and
// dropped.
type BatchResult struct {
	Processed int            `json:"processed"`
	Succeeded int            `json:"succeeded"`
	Outcomes  []EventOutcome `json:"outcomes"`
	Retryable []EventOutcome `json:"retryable,omitempty"`

	// firstRetryableErr keeps the original error value so the consumer
	// can classify it without re-parsing strings.
	firstRetryableErr error
}

// FirstRetryable returns the first retryable error of the batch, nil when
// every event settled.
func (r *BatchResult) FirstRetryable() error { return r.firstRetryableErr }

// Add records one event outcome and maintains the success and retryable
// tallies.
func (r *BatchResult) Add(eo EventOutcome, err error) {
	r.Outcomes = append(r.Outcomes, eo)
	switch eo.Outcome {
	case OutcomeOK:
		r.Succeeded++
	case OutcomeRetryable:
		r.Retryable = append(r.Retryable, eo)
		if r.firstRetryableErr == nil {
			r.firstRetryableErr = err
		}
	}
}

// HasRetryable reports whether any event in the batch needs re-delivery.
func (r *BatchResult) HasRetryable() bool { return len(r.Retryable) > 0 }

// Processor is the processBatch entry point exposed to the queue consumer.
type Processor struct {
	settings *settings.Resolver
	registry *variants.Registry
	logger   logger.Logger
}

func NewProcessor(settingsResolver *settings.Resolver, registry *variants.Registry, log logger.Logger) *Processor {
	return &Processor{
		settings: settingsResolver,
		registry: registry,
		logger:   log.WithFields(map[string]interface{}{"component": "batch-processor"}),
	}
}

// ProcessBatch runs one batch end to end. The only error it returns is the
// batch-fatal settings load failure; everything event-level lands in the
// result so the consumer can requeue exactly the events that need it.
func (p *Processor) ProcessBatch(ctx context.Context, events []*models.NotificationEvent) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{Processed: len(events)}

	// Construct variants up front: invalid kinds and payloads are
	// reported and dropped before any query runs, and valid variants
	// contribute their sender ids to the single settings load.
	built := make([]variants.Variant, len(events))
	for i, event := range events {
		v, err := p.registry.New(event)
		if err != nil {
			p.recordOutcome(result, i, event, OutcomeInvalid, err)
			continue
		}
		built[i] = v
	}

	userIDs := collectUserIDs(events, built)
	if len(userIDs) == 0 {
		metrics.BatchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
		return result, nil
	}

	// One bulk load for the union of every recipient and sender in the
	// batch. A transport failure here aborts the whole batch.
	profiles, err := p.settings.Load(ctx, userIDs)
	if err != nil {
		metrics.BatchDuration.WithLabelValues("fatal").Observe(time.Since(start).Seconds())
		return nil, err
	}

	// Same-kind events aimed at the same recipients collapse into one
	// grouped live email; the union of their entity needs resolves once.
	p.registry.PrepareEmailDigests(ctx, built)

	for i, v := range built {
		if v == nil {
			continue
		}
		err := v.Process(ctx, profiles)
		p.recordOutcome(result, i, events[i], classify(err), err)
	}

	outcome := "ok"
	if result.HasRetryable() {
		outcome = "retryable"
	}
	metrics.BatchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	p.logger.Info("batch processed", map[string]interface{}{
		"events":    result.Processed,
		"succeeded": result.Succeeded,
		"retryable": len(result.Retryable),
	})

	return result, nil
}

func (p *Processor) recordOutcome(result *BatchResult, index int, event *models.NotificationEvent, outcome Outcome, err error) {
	eo := EventOutcome{
		Index:   index,
		Kind:    event.Type,
		GroupID: event.GroupID,
		Outcome: outcome,
	}
	if err != nil {
		eo.Error = err.Error()
	}
	result.Add(eo, err)
	metrics.EventsProcessed.WithLabelValues(string(event.Type), string(outcome)).Inc()

	if outcome != OutcomeOK {
		p.logger.Warn("event not delivered", map[string]interface{}{
			"kind":    string(event.Type),
			"groupId": event.GroupID,
			"outcome": string(outcome),
			"error":   eo.Error,
		})
	}
}

// collectUserIDs unions every recipient and sender id across the batch.
func collectUserIDs(events []*models.NotificationEvent, built []variants.Variant) []int64 {
	seen := map[int64]struct{}{}
	var out []int64
	add := func(id int64) {
		if id <= 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for i, event := range events {
		if built[i] == nil {
			continue
		}
		for _, id := range event.RecipientUserIDs {
			add(id)
		}
		if senderID, ok := built[i].SenderUserID(); ok {
			add(senderID)
		}
	}
	return out
}

// classify maps an event-level error to its outcome.
func classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if errors.IsRetryable(err) {
		return OutcomeRetryable
	}
	return OutcomeInvalid
}
