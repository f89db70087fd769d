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

const (
	defaultBatchSize    = 1
	defaultWriteTimeout = 10 * time.Second
	maxMessageBytes     = 1024 * 1024
)

var ErrProducerClosed = errors.New(errors.ErrCodeMessaging, "producer closed")

// ProducerMetrics holds producer counters.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
	LastSentAt     atomic.Value // time.Time
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.WriterStats
}

// Producer publishes run events as JSON envelopes keyed by run ID, so every
// event of one run lands on the same partition.
type Producer struct {
	writer  WriterInterface
	topic   string
	logger  logging.Logger
	closed  atomic.Bool
	metrics *ProducerMetrics
}

// NewProducer builds a Producer for cfg.Topic.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	writeTimeout := defaultWriteTimeout
	if cfg.TimeoutMS > 0 {
		writeTimeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}

	var requiredAcks kafka.RequiredAcks
	switch cfg.RequiredAcks {
	case 0:
		requiredAcks = kafka.RequireNone
	case -1:
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    batchSize,
		BatchTimeout: 100 * time.Millisecond,
		WriteTimeout: writeTimeout,
		RequiredAcks: requiredAcks,
		Transport:    &kafka.Transport{DialTimeout: 10 * time.Second},
	}
	return NewProducerWithWriter(writer, cfg.Topic, logger), nil
}

// NewProducerWithWriter wraps an existing writer. The writer must already
// target topic.
func NewProducerWithWriter(w WriterInterface, topic string, logger logging.Logger) *Producer {
	return &Producer{writer: w, topic: topic, logger: logger, metrics: &ProducerMetrics{}}
}

// Publish sends ev. It implements regionalization.EventPublisher.
func (p *Producer) Publish(ctx context.Context, ev regionalization.Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if ev.Type == "" || ev.RunID == "" {
		return errors.New(errors.ErrCodeValidation, "event type and run id are required")
	}

	env, err := NewEventEnvelope(ev.Type, ev)
	if err != nil {
		return err
	}
	if !ev.Timestamp.IsZero() {
		env.Timestamp = ev.Timestamp
	}
	msg, err := env.ToMessage(ev.RunID)
	if err != nil {
		return err
	}
	if len(msg.Value) > maxMessageBytes {
		return errors.Newf(errors.ErrCodeValidation, "event of %d bytes exceeds the message limit", len(msg.Value))
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodeMessaging, "publish failed").WithDetail(ev.Type)
	}
	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(msg.Value)))
	p.metrics.LastSentAt.Store(time.Now())
	p.logger.Debug("event published",
		logging.String("topic", p.topic),
		logging.String("type", ev.Type),
		logging.String("run_id", ev.RunID))
	return nil
}

// GetMetrics returns a snapshot of the counters.
func (p *Producer) GetMetrics() (sent, failed, bytes int64) {
	return p.metrics.MessagesSent.Load(), p.metrics.MessagesFailed.Load(), p.metrics.BytesSent.Load()
}

// Close flushes and closes the writer. Later calls are no-ops.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessaging, "failed to close kafka writer")
	}
	return nil
}

// ValidateProducerConfig checks the broker list and topic.
func ValidateProducerConfig(cfg config.KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one broker is required")
	}
	if cfg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic is required")
	}
	return nil
}

var _ regionalization.EventPublisher = (*Producer)(nil)

//Personal.AI order the ending
