package mq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	msg, err := encodeEvent(DomainEvent{
		Type:       EventMessageSent,
		Key:        "C100",
		OccurredAt: at,
		Payload:    map[string]string{"messageId": "M1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "C100", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, EventMessageSent, string(msg.Headers[0].Value))
	assert.True(t, at.Equal(msg.Time))

	var decoded struct {
		Type    string            `json:"type"`
		Key     string            `json:"key"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, EventMessageSent, decoded.Type)
	assert.Equal(t, "M1", decoded.Payload["messageId"])
}

func TestEncodeEventFillsTime(t *testing.T) {
	msg, err := encodeEvent(DomainEvent{Type: EventPresenceChanged, Key: "U1"})
	require.NoError(t, err)
	assert.False(t, msg.Time.IsZero())
}

func TestEncodeEventRejectsUnencodablePayload(t *testing.T) {
	_, err := encodeEvent(DomainEvent{Type: EventCallEnded, Payload: make(chan int)})
	assert.Error(t, err)
}
