package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewPayload struct {
	ReviewID string `json:"review_id"`
	Rating   int    `json:"rating"`
}

func TestNewEvent_Fields(t *testing.T) {
	data := reviewPayload{ReviewID: "r-1", Rating: 5}
	event, err := NewEvent("review.created", "v-1", "vendor", "reputation", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "review.created", event.EventType)
	assert.Equal(t, "v-1", event.AggregateID)
	assert.Equal(t, "vendor", event.AggregateType)
	assert.Equal(t, "reputation", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got reviewPayload
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent("x", "a", "t", "s", make(chan int))
	require.Error(t, err)
}

func TestEvent_Chaining(t *testing.T) {
	event, err := NewEvent("review.upvoted", "r-1", "review", "reputation", nil)
	require.NoError(t, err)

	out := event.WithCorrelationID("corr-1").WithMetadata("k", "v")
	assert.Same(t, event, out)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, "v", event.Metadata["k"])
}

func TestUnmarshalEvent(t *testing.T) {
	original, err := NewEvent("vendor.score_updated", "v-9", "vendor", "reputation", map[string]int{"trust_score": 88})
	require.NoError(t, err)
	raw, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, original.EventType, restored.EventType)
	assert.JSONEq(t, string(original.Data), string(restored.Data))
}

func TestUnmarshalEvent_Rejects(t *testing.T) {
	for name, raw := range map[string]string{
		"broken json":   `{broken`,
		"empty":         ``,
		"no event type": `{"event_id":"1","data":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := UnmarshalEvent([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestEvent_UnmarshalData_Invalid(t *testing.T) {
	event := &Event{Data: json.RawMessage(`nope`)}
	var target map[string]string
	assert.Error(t, event.UnmarshalData(&target))
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "trustdot.review.created", Topic("review", "created"))
	assert.Equal(t, "trustdot.vendor.score_updated", Topic("vendor", "score_updated"))
	assert.Equal(t, "trustdot.dlq.trustdot.review.created", DLQTopic(Topic("review", "created")))
}
