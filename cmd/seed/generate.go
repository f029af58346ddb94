package main

import (
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/trustdot/reputation/internal/domain"
)

// deterministicUUID produces a stable UUID-shaped string from a namespace and
// an index so re-runs always produce the same IDs.
func deterministicUUID(namespace string, index int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", namespace, index)))
	hex := fmt.Sprintf("%x", h[:16])
	return fmt.Sprintf("%s-%s-4%s-%x%s-%s",
		hex[0:8],
		hex[8:12],
		hex[13:16],
		0x8|(h[8]&0x3),
		hex[17:20],
		hex[20:32],
	)
}

var serviceTypes = []string{"plumbing", "electrical", "cleaning", "landscaping", "painting", "roofing", "moving", "hvac"}

var businessPrefixes = []string{"Ace", "Prime", "Summit", "Blue Ridge", "Oakwood", "Metro", "Golden", "Northside", "Reliable", "Swift"}

// Comment fragments. Each vendor leans positive or negative so analytics
// pages show both keyword lists.
var (
	positivePhrases = []string{
		"Great work", "very professional", "fast and friendly", "would recommend",
		"excellent attention to detail", "helpful crew", "amazing result", "good value",
	}
	negativePhrases = []string{
		"arrived late", "slow to respond", "a bit rude", "had a problem with the invoice",
		"poor cleanup", "one issue left unresolved", "bad communication",
	}
	neutralPhrases = []string{"job done", "as quoted", "booked online", "second visit"}
)

type seedVendor struct {
	ID           string
	BusinessName string
	ServiceType  string
	CreatedAt    time.Time
	// quality in [0,1] biases ratings and comment tone.
	quality float64
}

func generateVendors(rng *rand.Rand, n int, now time.Time) []seedVendor {
	vendors := make([]seedVendor, n)
	for i := range vendors {
		st := serviceTypes[i%len(serviceTypes)]
		vendors[i] = seedVendor{
			ID:           deterministicUUID("vendor", i),
			BusinessName: fmt.Sprintf("%s %s Co. #%d", businessPrefixes[rng.IntN(len(businessPrefixes))], strings.ToUpper(st[:1])+st[1:], i+1),
			ServiceType:  st,
			CreatedAt:    now.AddDate(0, 0, -rng.IntN(3*365)),
			quality:      rng.Float64(),
		}
	}
	return vendors
}

// generateReviews builds up to maxReviews reviews dated between the vendor's
// creation and now. Roughly a third carry no comment.
func generateReviews(rng *rand.Rand, v seedVendor, vendorIndex, maxReviews int, now time.Time) []domain.Review {
	if maxReviews < 1 {
		return nil
	}
	n := rng.IntN(maxReviews + 1)
	span := now.Sub(v.CreatedAt)
	reviews := make([]domain.Review, 0, n)

	for i := 0; i < n; i++ {
		rating := int(1 + v.quality*4 + rng.NormFloat64()*0.8 + 0.5)
		rating = min(domain.MaxRating, max(domain.MinRating, rating))

		var comment *string
		if rng.Float64() >= 0.33 {
			c := commentFor(rng, rating)
			comment = &c
		}

		label := domain.AuthorCustomer
		if rng.Float64() < 0.2 {
			label = domain.AuthorAnonymous
		}

		createdAt := v.CreatedAt
		if span > 0 {
			createdAt = v.CreatedAt.Add(time.Duration(rng.Int64N(int64(span))))
		}

		reviews = append(reviews, domain.Review{
			ID:          deterministicUUID(fmt.Sprintf("review:%d", vendorIndex), i),
			VendorID:    v.ID,
			Rating:      rating,
			Comment:     comment,
			AuthorLabel: label,
			CreatedAt:   createdAt.UTC(),
		})
	}
	return reviews
}

func commentFor(rng *rand.Rand, rating int) string {
	pool := neutralPhrases
	switch {
	case rating >= 4:
		pool = positivePhrases
	case rating <= 2:
		pool = negativePhrases
	}
	parts := []string{pool[rng.IntN(len(pool))]}
	if rng.Float64() < 0.5 {
		parts = append(parts, neutralPhrases[rng.IntN(len(neutralPhrases))])
	}
	return strings.Join(parts, ", ") + "."
}
