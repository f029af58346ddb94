package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DLQTopic returns the dead-letter topic for a source topic.
func DLQTopic(originalTopic string) string {
	return TopicPrefix + ".dlq." + originalTopic
}

// DLQProducer forwards messages that exhausted their retries.
type DLQProducer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewDLQProducer creates a synchronous single-message DLQ writer.
func NewDLQProducer(brokers []string, logger *slog.Logger) *DLQProducer {
	return &DLQProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			BatchSize:    1,
			BatchTimeout: 100 * time.Millisecond,
			RequiredAcks: kafka.RequireAll,
		},
		logger: logger,
	}
}

// dlqMessage copies the original key, value and headers and appends the
// failure context under dlq.* headers.
func dlqMessage(original kafka.Message, cause error, group string) kafka.Message {
	headers := make([]kafka.Header, 0, len(original.Headers)+5)
	headers = append(headers, original.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.original_topic", Value: []byte(original.Topic)},
		kafka.Header{Key: "dlq.original_partition", Value: []byte(strconv.Itoa(original.Partition))},
		kafka.Header{Key: "dlq.original_offset", Value: []byte(strconv.FormatInt(original.Offset, 10))},
		kafka.Header{Key: "dlq.consumer_group", Value: []byte(group)},
	)
	if cause != nil {
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(cause.Error())})
	}
	return kafka.Message{
		Topic:   DLQTopic(original.Topic),
		Key:     original.Key,
		Value:   original.Value,
		Headers: headers,
	}
}

// Publish sends original to its DLQ topic.
func (d *DLQProducer) Publish(ctx context.Context, original kafka.Message, cause error, group string) error {
	msg := dlqMessage(original, cause, group)
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to DLQ %s: %w", msg.Topic, err)
	}
	consumerDLQ.WithLabelValues(original.Topic, group).Inc()
	d.logger.WarnContext(ctx, "message sent to DLQ",
		slog.String("dlq_topic", msg.Topic),
		slog.Int("partition", original.Partition),
		slog.Int64("offset", original.Offset),
	)
	return nil
}

// Close closes the DLQ writer.
func (d *DLQProducer) Close() error {
	return d.writer.Close()
}
