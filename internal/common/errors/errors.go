// Package errors provides standardized error handling for the notification
// engine. The taxonomy follows the batch processing contract: fatal
// batch-level errors abort the whole batch, retryable event-level errors
// requeue a single event, and send-level failures are collected by the
// delivery layer and never raised.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Fatal / batch-level. The bulk settings load is the only operation
	// whose failure aborts a whole batch.
	ErrCodeSettingsLoadFailed ErrorCode = "SETTINGS_LOAD_FAILED"

	// Retryable / event-level.
	ErrCodePurchaseGateDisabled ErrorCode = "PURCHASE_GATE_DISABLED"
	ErrCodeEntityLookupFailed   ErrorCode = "ENTITY_LOOKUP_FAILED"

	// Non-retryable event defects.
	ErrCodeEventPayloadInvalid ErrorCode = "EVENT_PAYLOAD_INVALID"
	ErrCodeUnknownEventKind    ErrorCode = "UNKNOWN_EVENT_KIND"

	// Recoverable / send-level. Logged and collected, never raised past
	// the delivery layer.
	ErrCodePushSendFailed        ErrorCode = "PUSH_SEND_FAILED"
	ErrCodeBrowserSendFailed     ErrorCode = "BROWSER_SEND_FAILED"
	ErrCodeEmailSendFailed       ErrorCode = "EMAIL_SEND_FAILED"
	ErrCodeBadgeUpdateFailed     ErrorCode = "BADGE_UPDATE_FAILED"
	ErrCodeEndpointDisableFailed ErrorCode = "ENDPOINT_DISABLE_FAILED"
	ErrCodeAuditIndexFailed      ErrorCode = "AUDIT_INDEX_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewSettingsLoadFailedError creates the fatal batch-level error for a
// transport failure of the bulk settings queries.
func NewSettingsLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSettingsLoadFailed,
		Message:   "Bulk notification settings load failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPurchaseGateDisabledError creates the retryable event-level error for
// price-gated content published while the seller gating flag is off. The
// flag is expected to flip soon, so the consumer re-enqueues the event
// instead of dropping it.
func NewPurchaseGateDisabledError(trackID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodePurchaseGateDisabled,
		Message:   "Premium content gating flag disabled for published content",
		Details:   fmt.Sprintf("trackId: %d", trackID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEntityLookupFailedError creates a retryable entity resolution error.
func NewEntityLookupFailedError(kind string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEntityLookupFailed,
		Message:   "Referenced entity lookup failed",
		Details:   fmt.Sprintf("entityKind: %s, error: %s", kind, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventPayloadInvalidError creates a non-retryable payload error.
func NewEventPayloadInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventPayloadInvalid,
		Message:   "Event payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownEventKindError creates a non-retryable error for kinds with no
// registered variant.
func NewUnknownEventKindError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownEventKind,
		Message:   "No variant registered for event kind",
		Details:   fmt.Sprintf("kind: %s", kind),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPushSendFailedError creates a send-level mobile push error.
func NewPushSendFailedError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePushSendFailed,
		Message:   "Mobile push delivery failed",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
	}
}

// NewBrowserSendFailedError creates a send-level browser push error.
func NewBrowserSendFailedError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrowserSendFailed,
		Message:   "Browser push delivery failed",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailSendFailedError creates a send-level email error.
func NewEmailSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Transactional email delivery failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBadgeUpdateFailedError creates a send-level badge counter error.
func NewBadgeUpdateFailedError(userID int64, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBadgeUpdateFailed,
		Message:   "Badge count increment failed",
		Details:   fmt.Sprintf("userId: %d, error: %s", userID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEndpointDisableFailedError creates a send-level cleanup error.
func NewEndpointDisableFailedError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEndpointDisableFailed,
		Message:   "Disabling invalid endpoint failed",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditIndexFailedError creates a send-level audit trail error.
func NewAuditIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditIndexFailed,
		Message:   "Notification audit indexing failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// AsStandard extracts a *StandardError from an error chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	ok := errors.As(err, &stdErr)
	return stdErr, ok
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// IsRetryable reports whether err should be retried by the outer consumer.
// Unclassified errors are not retried.
func IsRetryable(err error) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Retryable
}

// IsBatchFatal reports whether err aborts the whole batch rather than a
// single event.
func IsBatchFatal(err error) bool {
	return IsCode(err, ErrCodeSettingsLoadFailed)
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSettingsLoadFailed, ErrCodeEntityLookupFailed:
		return 3
	case ErrCodePurchaseGateDisabled:
		return 5
	default:
		return 0
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeSettingsLoadFailed:
		return "batch_fatal"
	case ErrCodePurchaseGateDisabled, ErrCodeEntityLookupFailed:
		return "event_retryable"
	case ErrCodeEventPayloadInvalid, ErrCodeUnknownEventKind:
		return "event_invalid"
	default:
		return "send_recoverable"
	}
}
