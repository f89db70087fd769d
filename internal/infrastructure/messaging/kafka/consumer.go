package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/config"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventHandler receives one decoded run event.
type EventHandler func(ctx context.Context, ev regionalization.Event, env *EventEnvelope) error

// Consumer follows the run-event topic in a consumer group.
type Consumer struct {
	reader  ReaderInterface
	logger  logging.Logger
	running atomic.Bool

	consumed atomic.Int64
	skipped  atomic.Int64
}

// NewConsumer joins groupID on cfg.Topic. fromStart selects the earliest
// offset for a group without committed offsets.
func NewConsumer(cfg config.KafkaConfig, groupID string, fromStart bool, logger logging.Logger) (*Consumer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	if groupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "consumer group required")
	}
	start := kafka.LastOffset
	if fromStart {
		start = kafka.FirstOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        groupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       maxMessageBytes,
		MaxWait:        time.Second,
		StartOffset:    start,
		SessionTimeout: 30 * time.Second,
	})
	return NewConsumerWithReader(reader, logger), nil
}

func NewConsumerWithReader(r ReaderInterface, logger logging.Logger) *Consumer {
	return &Consumer{reader: r, logger: logger}
}

// Run fetches until ctx is done. Messages that fail to decode are skipped;
// every message is committed once handled, even when handler fails.
func (c *Consumer) Run(ctx context.Context, handler EventHandler) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeMessaging, "fetch failed")
		}
		c.consumed.Add(1)

		env, err := MessageToEventEnvelope(m)
		if err == nil {
			var ev regionalization.Event
			if err = env.DecodePayload(&ev); err == nil {
				if herr := handler(ctx, ev, env); herr != nil {
					c.logger.Warn("event handler failed", logging.Err(herr), logging.String("type", ev.Type))
				}
			}
		}
		if err != nil {
			c.skipped.Add(1)
			c.logger.Warn("skipping undecodable message", logging.Err(err), logging.Int64("offset", m.Offset))
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("CommitMessages failed", logging.Err(err))
		}
	}
}

// Counts returns consumed and skipped message counts.
func (c *Consumer) Counts() (consumed, skipped int64) {
	return c.consumed.Load(), c.skipped.Load()
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessaging, "failed to close kafka reader")
	}
	return nil
}

//Personal.AI order the ending
