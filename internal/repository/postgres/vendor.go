package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/pkg/database"
	apperrors "github.com/trustdot/reputation/pkg/errors"
)

const getVendorSQL = `
	SELECT id, business_name, service_type, total_jobs, verified_jobs, avg_rating, trust_score, created_at, updated_at
	FROM vendor_profiles
	WHERE id = $1`

// The four derived fields are replaced together so readers never see a
// partially written aggregate.
const updateAggregateSQL = `
	UPDATE vendor_profiles
	SET total_jobs = $2, verified_jobs = $3, avg_rating = $4, trust_score = $5, updated_at = NOW()
	WHERE id = $1`

// VendorRepository implements vendor persistence using PostgreSQL.
type VendorRepository struct {
	pool database.DBTX
}

// NewVendorRepository creates a new PostgreSQL-backed vendor repository.
func NewVendorRepository(pool database.DBTX) *VendorRepository {
	return &VendorRepository{pool: pool}
}

// Get retrieves a vendor profile by its ID.
func (r *VendorRepository) Get(ctx context.Context, id string) (_ *domain.Vendor, err error) {
	ctx, end := database.TraceQuery(ctx, "GetVendor", getVendorSQL)
	defer func() { end(err) }()

	var v domain.Vendor
	err = r.pool.QueryRow(ctx, getVendorSQL, id).Scan(
		&v.ID,
		&v.BusinessName,
		&v.ServiceType,
		&v.TotalJobs,
		&v.VerifiedJobs,
		&v.AvgRating,
		&v.TrustScore,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get vendor: %w", err)
	}
	return &v, nil
}

// UpdateAggregate overwrites the vendor's derived metrics.
func (r *VendorRepository) UpdateAggregate(ctx context.Context, id string, agg domain.Aggregate) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateVendorAggregate", updateAggregateSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, updateAggregateSQL,
		id,
		agg.TotalJobs,
		agg.VerifiedJobs,
		agg.AvgRating,
		agg.TrustScore,
	)
	if err != nil {
		return fmt.Errorf("update vendor aggregate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
