package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookEventStatus is the outcome of the most recent delivery of a provider
// event.
type WebhookEventStatus string

const (
	WebhookEventStatusApplied     WebhookEventStatus = "applied"
	WebhookEventStatusDropped     WebhookEventStatus = "dropped"
	WebhookEventStatusFailed      WebhookEventStatus = "failed"
	WebhookEventStatusQuarantined WebhookEventStatus = "quarantined"
)

type WebhookEvent struct {
	ID              uuid.UUID
	ProviderEventID string
	EventType       string
	BookingID       *string
	Payload         json.RawMessage
	Status          WebhookEventStatus
	Reason          *string
	Attempts        int
	LastAttempt     *time.Time
	CreatedAt       time.Time
}
