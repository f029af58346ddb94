package postgres

import (
	"context"
	"fmt"

	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/pkg/database"
	apperrors "github.com/trustdot/reputation/pkg/errors"
)

const (
	insertUpvoteSQL = `
		INSERT INTO review_upvotes (review_id, session_id)
		VALUES ($1, $2)
		ON CONFLICT (review_id, session_id) DO NOTHING`

	listUpvotesSQL = `
		SELECT review_id, session_id
		FROM review_upvotes
		WHERE review_id = ANY($1)`
)

// UpvoteRepository implements upvote persistence using PostgreSQL. The
// primary key on (review_id, session_id) is the dedup guard.
type UpvoteRepository struct {
	pool database.DBTX
}

// NewUpvoteRepository creates a new PostgreSQL-backed upvote repository.
func NewUpvoteRepository(pool database.DBTX) *UpvoteRepository {
	return &UpvoteRepository{pool: pool}
}

// Insert records a vote, or returns apperrors.ErrAlreadyExists when the
// session has already voted on the review.
func (r *UpvoteRepository) Insert(ctx context.Context, reviewID, sessionID string) (err error) {
	ctx, end := database.TraceQuery(ctx, "InsertUpvote", insertUpvoteSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, insertUpvoteSQL, reviewID, sessionID)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return apperrors.NotFound("review", reviewID)
		case isUniqueViolation(err):
			return apperrors.ErrAlreadyExists
		}
		return fmt.Errorf("insert upvote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAlreadyExists
	}
	return nil
}

// Tally reads every vote on reviewIDs in a single query.
func (r *UpvoteRepository) Tally(ctx context.Context, reviewIDs []string, sessionID string) (_ domain.UpvoteTally, err error) {
	if len(reviewIDs) == 0 {
		return domain.NewUpvoteTally(nil), nil
	}

	ctx, end := database.TraceQuery(ctx, "ListUpvotes", listUpvotesSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listUpvotesSQL, reviewIDs)
	if err != nil {
		return domain.UpvoteTally{}, fmt.Errorf("list upvotes: %w", err)
	}
	defer rows.Close()

	var votes []domain.Upvote
	for rows.Next() {
		var v domain.Upvote
		if err := rows.Scan(&v.ReviewID, &v.SessionID); err != nil {
			return domain.UpvoteTally{}, fmt.Errorf("scan upvote row: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return domain.UpvoteTally{}, fmt.Errorf("iterate upvote rows: %w", err)
	}
	return domain.TallyUpvotes(reviewIDs, votes, sessionID), nil
}
