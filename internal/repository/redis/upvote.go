package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/trustdot/reputation/internal/domain"
	apperrors "github.com/trustdot/reputation/pkg/errors"
)

const keyPrefix = "upvotes:review:"

// UpvoteRepository implements repository.UpvoteRepository with one Redis set
// of session IDs per review. SADD reports 0 for a member already present,
// which makes the dedup check and the write a single atomic command.
type UpvoteRepository struct {
	client redis.Cmdable
}

// NewUpvoteRepository creates a new Redis-backed upvote repository.
func NewUpvoteRepository(client redis.Cmdable) *UpvoteRepository {
	return &UpvoteRepository{client: client}
}

func key(reviewID string) string { return keyPrefix + reviewID }

// Insert records a vote, or returns apperrors.ErrAlreadyExists when the
// session has already voted on the review.
func (r *UpvoteRepository) Insert(ctx context.Context, reviewID, sessionID string) error {
	added, err := r.client.SAdd(ctx, key(reviewID), sessionID).Result()
	if err != nil {
		return fmt.Errorf("redis sadd upvote: %w", err)
	}
	if added == 0 {
		return apperrors.ErrAlreadyExists
	}
	return nil
}

// Tally pipelines SCARD and SISMEMBER for every id into one round-trip.
func (r *UpvoteRepository) Tally(ctx context.Context, reviewIDs []string, sessionID string) (domain.UpvoteTally, error) {
	tally := domain.NewUpvoteTally(reviewIDs)
	if len(reviewIDs) == 0 {
		return tally, nil
	}

	counts := make(map[string]*redis.IntCmd, len(reviewIDs))
	voted := make(map[string]*redis.BoolCmd, len(reviewIDs))

	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range reviewIDs {
			counts[id] = p.SCard(ctx, key(id))
			if sessionID != "" {
				voted[id] = p.SIsMember(ctx, key(id), sessionID)
			}
		}
		return nil
	})
	if err != nil {
		return domain.UpvoteTally{}, fmt.Errorf("redis tally upvotes: %w", err)
	}

	for id, cmd := range counts {
		tally.Counts[id] = int(cmd.Val())
	}
	for id, cmd := range voted {
		tally.Voted[id] = cmd.Val()
	}
	return tally, nil
}
