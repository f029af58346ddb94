package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/internal/repository"
	"github.com/trustdot/reputation/pkg/database"
	apperrors "github.com/trustdot/reputation/pkg/errors"
)

const (
	insertReviewSQL = `
		INSERT INTO reviews (id, vendor_id, rating, comment, author_label, image_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	getReviewSQL = `
		SELECT id, vendor_id, rating, comment, author_label, image_ref, created_at
		FROM reviews
		WHERE id = $1`

	listReviewsSQL = `
		SELECT id, vendor_id, rating, comment, author_label, image_ref, created_at
		FROM reviews
		WHERE vendor_id = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	reviewStatsSQL = `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8
		FROM reviews
		WHERE vendor_id = $1`
)

// ReviewRepository implements review persistence using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Insert stores a new review.
func (r *ReviewRepository) Insert(ctx context.Context, review *domain.Review) (err error) {
	ctx, end := database.TraceQuery(ctx, "InsertReview", insertReviewSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertReviewSQL,
		review.ID,
		review.VendorID,
		review.Rating,
		review.Comment,
		review.AuthorLabel,
		review.ImageRef,
		review.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("vendor", review.VendorID)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// Get retrieves a review by its ID.
func (r *ReviewRepository) Get(ctx context.Context, id string) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, "GetReview", getReviewSQL)
	defer func() { end(err) }()

	rv, err := scanReview(r.pool.QueryRow(ctx, getReviewSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

// List returns one window of a vendor's reviews, newest first.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, "ListReviews", listReviewsSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listReviewsSQL, filter.VendorID, filter.Since, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

// Stats returns the review count and mean rating for a vendor.
func (r *ReviewRepository) Stats(ctx context.Context, vendorID string) (_ domain.ReviewStats, err error) {
	ctx, end := database.TraceQuery(ctx, "ReviewStats", reviewStatsSQL)
	defer func() { end(err) }()

	var stats domain.ReviewStats
	if err = r.pool.QueryRow(ctx, reviewStatsSQL, vendorID).Scan(&stats.Count, &stats.AvgRating); err != nil {
		return domain.ReviewStats{}, fmt.Errorf("review stats: %w", err)
	}
	return stats, nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	if err := row.Scan(
		&rv.ID,
		&rv.VendorID,
		&rv.Rating,
		&rv.Comment,
		&rv.AuthorLabel,
		&rv.ImageRef,
		&rv.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rv, nil
}
