package domain

import "time"

// Badge keys, in catalog order.
const (
	BadgeReviews10  = "reviews10"
	BadgeReviews50  = "reviews50"
	BadgeReviews100 = "reviews100"
	BadgeRating45   = "rating4.5"
	BadgeTrust90    = "trust90"
	BadgeOneYear    = "oneyear"
)

// Badge is a derived achievement. Badges are never persisted.
type Badge struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type badgeRule struct {
	key, label, description string
	unlocked                func(agg Aggregate, createdAt, now time.Time) bool
}

var badgeCatalog = []badgeRule{
	{BadgeReviews10, "10 Reviews", "Received 10 customer reviews", func(a Aggregate, _, _ time.Time) bool {
		return a.TotalJobs >= 10
	}},
	{BadgeReviews50, "50 Reviews", "Received 50 customer reviews", func(a Aggregate, _, _ time.Time) bool {
		return a.TotalJobs >= 50
	}},
	{BadgeReviews100, "100 Reviews", "Received 100 customer reviews", func(a Aggregate, _, _ time.Time) bool {
		return a.TotalJobs >= 100
	}},
	{BadgeRating45, "Top Rated", "Maintained a 4.5+ average rating", func(a Aggregate, _, _ time.Time) bool {
		return a.AvgRating >= 4.5
	}},
	{BadgeTrust90, "Trust Champion", "Achieved a 90%+ trust score", func(a Aggregate, _, _ time.Time) bool {
		return a.TrustScore >= 90
	}},
	// Calendar years, not elapsed days: Dec 31 -> Jan 1 qualifies.
	{BadgeOneYear, "1 Year Member", "Been on the platform for 1 year", func(_ Aggregate, createdAt, now time.Time) bool {
		if createdAt.IsZero() {
			return false
		}
		return now.Year()-createdAt.Year() >= 1
	}},
}

// EvaluateBadges returns the full catalog in declared order with each
// badge's unlock state.
func EvaluateBadges(agg Aggregate, accountCreatedAt, now time.Time) []Badge {
	badges := make([]Badge, 0, len(badgeCatalog))
	for _, rule := range badgeCatalog {
		badges = append(badges, Badge{
			Key:         rule.key,
			Label:       rule.label,
			Description: rule.description,
			Unlocked:    rule.unlocked(agg, accountCreatedAt, now),
		})
	}
	return badges
}
