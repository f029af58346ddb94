package domain

import (
	"math"
	"time"
)

// Vendor is a vendor profile together with its derived reputation aggregate.
// Profile fields are owned by onboarding; the aggregate fields are only ever
// written by the aggregator.
type Vendor struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"business_name"`
	ServiceType  string    `json:"service_type"`
	TotalJobs    int       `json:"total_jobs"`
	VerifiedJobs int       `json:"verified_jobs"`
	AvgRating    float64   `json:"avg_rating"`
	TrustScore   int       `json:"trust_score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Aggregate returns the vendor's current derived metrics.
func (v *Vendor) Aggregate() Aggregate {
	return Aggregate{
		TotalJobs:    v.TotalJobs,
		VerifiedJobs: v.VerifiedJobs,
		AvgRating:    v.AvgRating,
		TrustScore:   v.TrustScore,
	}
}

// Apply copies agg onto the vendor record.
func (v *Vendor) Apply(agg Aggregate) {
	v.TotalJobs = agg.TotalJobs
	v.VerifiedJobs = agg.VerifiedJobs
	v.AvgRating = agg.AvgRating
	v.TrustScore = agg.TrustScore
}

// TrustLevel is the coarse label shown next to a trust score.
type TrustLevel string

const (
	TrustLevelExcellent TrustLevel = "excellent"
	TrustLevelGood      TrustLevel = "good"
	TrustLevelBuilding  TrustLevel = "building"
)

// TrustLevelFor maps a score onto its label.
func TrustLevelFor(score int) TrustLevel {
	switch {
	case score >= 80:
		return TrustLevelExcellent
	case score >= 60:
		return TrustLevelGood
	default:
		return TrustLevelBuilding
	}
}

// VerificationPercentage is verified/total as a whole percentage, 0 when
// there are no jobs.
func VerificationPercentage(verified, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(verified) / float64(total) * 100))
}
