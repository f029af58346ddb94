package domain

import (
	"errors"
	"fmt"
	"math"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// MaxTrustScore caps the trust score so it reads as a percentage.
const MaxTrustScore = 100

// ErrInvalidStats is returned when a store hands back review statistics
// outside their valid ranges.
var ErrInvalidStats = errors.New("invalid review statistics")

// ReviewStats is the raw read the aggregator recomputes from.
type ReviewStats struct {
	Count     int
	AvgRating float64
}

// Validate checks the statistics before they are turned into an aggregate.
func (s ReviewStats) Validate() error {
	if s.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidStats, s.Count)
	}
	if math.IsNaN(s.AvgRating) || s.AvgRating < 0 || s.AvgRating > MaxRating {
		return fmt.Errorf("%w: average rating %v out of range", ErrInvalidStats, s.AvgRating)
	}
	if s.Count == 0 && s.AvgRating != 0 {
		return fmt.Errorf("%w: average rating %v without reviews", ErrInvalidStats, s.AvgRating)
	}
	return nil
}

// Aggregate is the derived summary stored on a vendor.
type Aggregate struct {
	TotalJobs    int     `json:"total_jobs"`
	VerifiedJobs int     `json:"verified_jobs"`
	AvgRating    float64 `json:"avg_rating"`
	TrustScore   int     `json:"trust_score"`
}

// ComputeTrustScore returns
//
//	min(100, round((avg/5) * 100 * (1 + log10(n+1)/2)))
//
// The log term rewards review volume with diminishing returns.
func ComputeTrustScore(avgRating float64, reviews int) int {
	if reviews <= 0 || avgRating <= 0 {
		return 0
	}
	raw := (avgRating / MaxRating) * 100 * (1 + math.Log10(float64(reviews)+1)/2)
	score := int(math.Round(raw))
	if score > MaxTrustScore {
		return MaxTrustScore
	}
	return score
}

// ComputeAggregate derives the full aggregate from the vendor's complete
// review population. Every review counts as a verified job.
func ComputeAggregate(stats ReviewStats) (Aggregate, error) {
	if err := stats.Validate(); err != nil {
		return Aggregate{}, err
	}
	avg := stats.AvgRating
	if stats.Count == 0 {
		avg = 0
	}
	return Aggregate{
		TotalJobs:    stats.Count,
		VerifiedJobs: stats.Count,
		AvgRating:    avg,
		TrustScore:   ComputeTrustScore(avg, stats.Count),
	}, nil
}

