package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// HeaderCarrier adapts kafka message headers to propagation.TextMapCarrier.
type HeaderCarrier struct {
	headers *[]kafka.Header
}

var _ propagation.TextMapCarrier = (*HeaderCarrier)(nil)

// NewHeaderCarrier returns a carrier reading and writing h in place.
func NewHeaderCarrier(h *[]kafka.Header) *HeaderCarrier {
	return &HeaderCarrier{headers: h}
}

func (c *HeaderCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *HeaderCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func injectTrace(ctx context.Context, msg *kafka.Message) {
	otel.GetTextMapPropagator().Inject(ctx, NewHeaderCarrier(&msg.Headers))
}

func extractTrace(ctx context.Context, msg *kafka.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg.Headers))
}
