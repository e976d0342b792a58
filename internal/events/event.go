package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeBookingCreated  = "booking.created"
	TypeBookingApproved = "booking.approved"
	TypeBookingRejected = "booking.rejected"
)

const producerName = "shareit-backend"

// Event is the envelope every published message uses.
type Event struct {
	ID         string          `json:"event_id"`
	Type       string          `json:"event_type"`
	Version    int             `json:"event_version"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
}

// New wraps payload in an envelope. key selects the partition (kafka) and should be the aggregate id.
func New(eventType, key string, occurredAt time.Time, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Version:    1,
		OccurredAt: occurredAt.UTC(),
		Producer:   producerName,
		Key:        key,
		Payload:    raw,
	}, nil
}
