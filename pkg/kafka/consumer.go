package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	maxHandlerAttempts = 3
	handlerRetryStep   = 100 * time.Millisecond
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type deadLetterer interface {
	Publish(ctx context.Context, original kafka.Message, cause error, group string) error
}

// Consumer reads a topic in a consumer group and dispatches to a Handler.
// Failed messages are retried, then forwarded to the DLQ (when set) and
// committed so a poison message never blocks the partition.
type Consumer struct {
	reader    messageReader
	topic     string
	group     string
	handler   Handler
	dlq       deadLetterer
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewConsumer creates a consumer. dlq may be nil.
func NewConsumer(cfg ConsumerConfig, handler Handler, dlq *DLQProducer, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	c := &Consumer{
		reader:  r,
		topic:   cfg.Topic,
		group:   cfg.GroupID,
		handler: handler,
		logger:  logger,
	}
	if dlq != nil {
		c.dlq = dlq
	}
	return c
}

// Start consumes until ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started", slog.String("topic", c.topic), slog.String("group", c.group))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("topic", c.topic))
				return c.Close()
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

// process runs the handler with retries. It never returns an error: the
// caller always commits.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	ctx = extractTrace(ctx, &msg)
	start := time.Now()
	defer func() {
		consumerDuration.WithLabelValues(c.topic, c.group).Observe(time.Since(start).Seconds())
	}()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.ErrorContext(ctx, "undecodable message",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.deadLetter(ctx, msg, err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= maxHandlerAttempts; attempt++ {
		if lastErr = c.handler(ctx, event); lastErr == nil {
			consumerProcessed.WithLabelValues(c.topic, c.group).Inc()
			return
		}
		c.logger.WarnContext(ctx, "handler failed",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
		if attempt < maxHandlerAttempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt) * handlerRetryStep):
			}
		}
	}

	consumerFailed.WithLabelValues(c.topic, c.group).Inc()
	c.deadLetter(ctx, msg, lastErr)
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		c.logger.ErrorContext(ctx, "dropping message, no DLQ configured", slog.Int64("offset", msg.Offset))
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.group); err != nil {
		c.logger.ErrorContext(ctx, "failed to dead-letter message", slog.String("error", err.Error()))
	}
}

// Close closes the reader. Safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
