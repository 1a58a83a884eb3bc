package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/fittrack/internal/events"
)

type stubWriter struct {
	messages []kafka.Message
	err      error
	lastCtx  context.Context
}

func (w *stubWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.lastCtx = ctx
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

type testWriter struct{ t *testing.T }

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}

func sampleFact() events.ActivityRecorded {
	return events.ActivityRecorded{
		ActivityID:  "a1",
		UserID:      "u1",
		Kind:        "running",
		DurationMin: 30,
		Calories:    300,
		StartedAt:   time.Date(2026, time.March, 1, 7, 0, 0, 0, time.UTC),
		Metrics:     map[string]float64{"distance_km": 5.2},
		Version:     "v1",
	}
}

func TestPublishWritesKeyedFact(t *testing.T) {
	writer := &stubWriter{}
	pub := NewPublisher(writer, time.Second, log.New(testWriter{t}, "", 0))

	pub.Publish(context.Background(), sampleFact())

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	require.Equal(t, "u1", string(msg.Key))

	var decoded events.ActivityRecorded
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, sampleFact(), decoded)

	require.Len(t, msg.Headers, 1)
	require.Equal(t, "event_type", msg.Headers[0].Key)
	require.Equal(t, EventType, string(msg.Headers[0].Value))
}

func TestPublishBoundsTheAttempt(t *testing.T) {
	writer := &stubWriter{}
	pub := NewPublisher(writer, time.Second, log.New(testWriter{t}, "", 0))

	pub.Publish(context.Background(), sampleFact())

	deadline, ok := writer.lastCtx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
}

func TestPublishAbsorbsBrokerFailure(t *testing.T) {
	writer := &stubWriter{err: errors.New("broker unreachable")}
	pub := NewPublisher(writer, time.Second, log.New(testWriter{t}, "", 0))

	// Must not panic or propagate; the caller's response is already decided.
	pub.Publish(context.Background(), sampleFact())

	require.Empty(t, writer.messages)
}
