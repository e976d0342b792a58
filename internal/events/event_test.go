package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	at := time.Date(2031, 5, 1, 10, 0, 0, 0, time.FixedZone("X", 7200))

	e, err := New(TypeBookingApproved, "booking-1", at, map[string]string{"status": "APPROVED"})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, TypeBookingApproved, e.Type)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "booking-1", e.Key)
	assert.Equal(t, producerName, e.Producer)
	assert.Equal(t, time.UTC, e.OccurredAt.Location())
	assert.JSONEq(t, `{"status":"APPROVED"}`, string(e.Payload))

	other, err := New(TypeBookingApproved, "booking-1", at, nil)
	require.NoError(t, err)
	assert.NotEqual(t, e.ID, other.ID)
}

func TestNewRejectsUnencodablePayload(t *testing.T) {
	_, err := New(TypeBookingCreated, "k", time.Now(), make(chan int))
	assert.Error(t, err)
}

func TestEnvelopeWireNames(t *testing.T) {
	e, err := New(TypeBookingCreated, "k", time.Now(), struct{}{})
	require.NoError(t, err)

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, k := range []string{"event_id", "event_type", "event_version", "occurred_at", "producer", "key", "payload"} {
		assert.Contains(t, m, k)
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
