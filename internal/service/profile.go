package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/internal/repository"
	apperrors "github.com/trustdot/reputation/pkg/errors"
)

// VendorProfile is the public view of a vendor's reputation. Badges and
// trust level are derived on every read and never stored.
type VendorProfile struct {
	Vendor                 *domain.Vendor    `json:"vendor"`
	TrustLevel             domain.TrustLevel `json:"trust_level"`
	VerificationPercentage int               `json:"verification_percentage"`
	Badges                 []domain.Badge    `json:"badges"`
}

// ProfileService serves vendor profiles.
type ProfileService struct {
	vendors repository.VendorRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewProfileService creates a new profile service.
func NewProfileService(vendors repository.VendorRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		vendors: vendors,
		logger:  logger,
		now:     time.Now,
	}
}

// GetVendorProfile returns the vendor's aggregate with its badges.
func (s *ProfileService) GetVendorProfile(ctx context.Context, vendorID string) (*VendorProfile, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, apperrors.InvalidInput("vendor_id is required")
	}

	vendor, err := s.vendors.Get(ctx, vendorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("vendor", vendorID)
		}
		return nil, apperrors.Transient("read vendor", err)
	}

	agg := vendor.Aggregate()
	return &VendorProfile{
		Vendor:                 vendor,
		TrustLevel:             domain.TrustLevelFor(agg.TrustScore),
		VerificationPercentage: domain.VerificationPercentage(agg.VerifiedJobs, agg.TotalJobs),
		Badges:                 domain.EvaluateBadges(agg, vendor.CreatedAt, s.now()),
	}, nil
}
