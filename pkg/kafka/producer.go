package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	MaxAttempts  int
	Async        bool
}

// DefaultProducerConfig returns producer defaults for the given brokers.
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
	}
}

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes Event envelopes keyed by aggregate ID.
type Producer struct {
	writer  messageWriter
	brokers []string
	logger  *slog.Logger
}

// NewProducer creates a producer. No connection is made until the first publish.
func NewProducer(cfg ProducerConfig, logger *slog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		Async:        cfg.Async,
		RequiredAcks: kafka.RequireAll,
	}
	return newProducer(w, cfg.Brokers, logger)
}

func newProducer(w messageWriter, brokers []string, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{writer: w, brokers: brokers, logger: logger}
}

// Publish writes event to topic. The trace context of ctx travels in the
// message headers.
func (p *Producer) Publish(ctx context.Context, topic string, event *Event) error {
	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(event.AggregateID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "source", Value: []byte(event.Source)},
		},
	}
	if event.CorrelationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "correlation_id", Value: []byte(event.CorrelationID)})
	}
	injectTrace(ctx, &msg)

	start := time.Now()
	err = p.writer.WriteMessages(ctx, msg)
	producerDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	if err != nil {
		producerErrors.WithLabelValues(topic).Inc()
		return fmt.Errorf("publish %s to %s: %w", event.EventType, topic, err)
	}
	producerPublished.WithLabelValues(topic).Inc()

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID),
	)
	return nil
}

// Ping checks that at least one configured broker answers.
func (p *Producer) Ping(ctx context.Context) error {
	return PingBrokers(ctx, p.brokers)
}

// PingBrokers dials brokers in order and returns nil on the first one that
// answers a metadata request.
func PingBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("kafka: no brokers configured")
	}

	var lastErr error
	for _, addr := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.Brokers()
		_ = conn.Close()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("kafka ping: all brokers unreachable: %w", lastErr)
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
