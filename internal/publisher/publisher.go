// Package publisher announces stored activities for asynchronous processing.
package publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/fittrack/internal/events"
)

// EventType identifies the activity fact on the wire.
const EventType = "activity.recorded"

type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
}

// Publisher performs fire-and-forget delivery of activity facts. Publish
// failures are logged and counted but never surface to the caller: an
// activity is considered successfully recorded once storage commits,
// independent of downstream processing.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *log.Logger
}

// NewPublisher constructs a Publisher over an existing writer.
func NewPublisher(writer messageWriter, timeout time.Duration, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(log.Writer(), "[publisher] ", log.LstdFlags)
	}
	return &Publisher{writer: writer, timeout: timeout, logger: logger}
}

// NewKafkaWriter builds the kafka.Writer used in production.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
}

// Publish serializes the fact and writes it to the broker, keyed by user id.
// The attempt is bounded by the configured timeout so a broker outage cannot
// stall the request already being answered.
func (p *Publisher) Publish(ctx context.Context, fact events.ActivityRecorded) {
	payload, err := json.Marshal(fact)
	if err != nil {
		p.logger.Printf("marshal activity fact failed (activity=%s): %v", fact.ActivityID, err)
		recordPublishFailure()
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(fact.UserID),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventType)},
		},
	}

	if err := p.writer.WriteMessages(publishCtx, msg); err != nil {
		p.logger.Printf("publish activity fact failed (activity=%s): %v", fact.ActivityID, err)
		recordPublishFailure()
		return
	}

	recordPublished()
}
