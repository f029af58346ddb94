package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers processed event IDs. Implementations must be
// safe for concurrent use.
type IdempotencyStore interface {
	Contains(ctx context.Context, eventID string) (bool, error)
	Add(ctx context.Context, eventID string) error
}

// MemoryIdempotencyStore keeps event IDs in process for ttl.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryIdempotencyStore creates an in-memory store. Expired entries are
// dropped lazily.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryIdempotencyStore) Contains(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen, ok := s.entries[eventID]
	if !ok {
		return false, nil
	}
	if s.now().Sub(seen) > s.ttl {
		delete(s.entries, eventID)
		return false, nil
	}
	return true, nil
}

func (s *MemoryIdempotencyStore) Add(_ context.Context, eventID string) error {
	s.mu.Lock()
	s.entries[eventID] = s.now()
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RedisIdempotencyStore shares processed IDs across consumer replicas.
type RedisIdempotencyStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisIdempotencyStore stores keys as "<prefix>:<eventID>" expiring after ttl.
func NewRedisIdempotencyStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisIdempotencyStore) key(eventID string) string {
	return s.prefix + ":" + eventID
}

func (s *RedisIdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency lookup %s: %w", eventID, err)
	}
	return n > 0, nil
}

func (s *RedisIdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, s.key(eventID), 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency record %s: %w", eventID, err)
	}
	return nil
}

// IdempotentHandler skips events whose ID the store has already seen. A store
// lookup failure processes the event anyway; IDs are recorded only after
// inner succeeds.
func IdempotentHandler(store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.EventID == "" {
			return inner(ctx, event)
		}

		seen, err := store.Contains(ctx, event.EventID)
		if err != nil {
			logger.WarnContext(ctx, "idempotency lookup failed, processing anyway",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
		}
		if seen {
			consumerDuplicates.WithLabelValues(event.EventType).Inc()
			logger.DebugContext(ctx, "skipping duplicate event",
				slog.String("event_id", event.EventID),
				slog.String("event_type", event.EventType),
			)
			return nil
		}

		if err := inner(ctx, event); err != nil {
			return err
		}

		if err := store.Add(ctx, event.EventID); err != nil {
			logger.WarnContext(ctx, "failed to record processed event",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
}
