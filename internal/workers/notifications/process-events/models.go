// internal/workers/notifications/process-events/models.go
package processevents

import (
	"notification-engine/internal/models"
	"notification-engine/internal/notifications"
)

type Input struct {
	Events []*models.NotificationEvent `json:"events"`
}

type Output struct {
	Processed int                          `json:"processed"`
	Succeeded int                          `json:"succeeded"`
	Invalid   int                          `json:"invalid"`
	Outcomes  []notifications.EventOutcome `json:"outcomes"`
	Status    string                       `json:"status"` // "completed", "partial"
}
