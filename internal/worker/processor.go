// Package worker consumes activity facts and produces recommendations.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"

	"example.com/fittrack/internal/events"
)

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded activity facts.
type Handler interface {
	Handle(context.Context, events.ActivityRecorded) error
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *log.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor pulls activity facts from the broker one at a time and
// dispatches them to a Handler. Each processor instance has at most one
// fact in flight; scaling out means running more instances in the same
// consumer group.
//
// Every fetched message is committed, whether decoding or handling
// succeeded or not. There is no redelivery, no dead-letter path and no
// retry: the handler answers failures with fallback content instead, and a
// fact whose result cannot be persisted is dropped.
type Processor struct {
	reader  Reader
	handler Handler
	logger  *log.Logger
}

// NewProcessor constructs a Processor with the provided reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:  reader,
		handler: handler,
		logger:  log.New(log.Writer(), "[worker] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts a blocking loop that processes facts until the context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.logger.Printf("fetch error: %v", err)
			continue
		}

		var fact events.ActivityRecorded
		if decodeErr := json.Unmarshal(msg.Value, &fact); decodeErr != nil {
			p.logger.Printf("decode error (topic=%s, partition=%d, offset=%d): %v", msg.Topic, msg.Partition, msg.Offset, decodeErr)
			recordDecodeError(msg.Topic)
		} else if handleErr := p.handler.Handle(ctx, fact); handleErr != nil {
			p.logger.Printf("handler error (activity=%s): %v", fact.ActivityID, handleErr)
			recordHandlerError(msg.Topic)
		}

		// Commit unconditionally: malformed or failed facts must not loop.
		if commitErr := p.reader.CommitMessages(ctx, msg); commitErr != nil {
			p.logger.Printf("commit error (topic=%s, offset=%d): %v", msg.Topic, msg.Offset, commitErr)
		}
	}
}
