package domain

import (
	"fmt"
	"strings"
	"time"
)

// Author labels. Reviews never carry a verified customer identity.
const (
	AuthorAnonymous = "Anonymous"
	AuthorCustomer  = "Customer"
)

// Review is an immutable customer review of a vendor.
type Review struct {
	ID          string    `json:"id"`
	VendorID    string    `json:"vendor_id"`
	Rating      int       `json:"rating"`
	Comment     *string   `json:"comment,omitempty"`
	AuthorLabel string    `json:"author_label"`
	ImageRef    *string   `json:"image_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommentText returns the comment or "" when absent.
func (r *Review) CommentText() string {
	if r.Comment == nil {
		return ""
	}
	return *r.Comment
}

// NewReviewParams holds the caller-supplied review fields.
type NewReviewParams struct {
	VendorID  string
	Rating    int
	Comment   string
	Anonymous bool
	ImageRef  string
}

// Validate checks the review fields.
func (p NewReviewParams) Validate() error {
	if strings.TrimSpace(p.VendorID) == "" {
		return fmt.Errorf("vendor_id is required")
	}
	if p.Rating < MinRating || p.Rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// NewReview builds a review from validated params. Blank comments and image
// references are stored as absent.
func NewReview(id string, p NewReviewParams, now time.Time) *Review {
	label := AuthorCustomer
	if p.Anonymous {
		label = AuthorAnonymous
	}
	return &Review{
		ID:          id,
		VendorID:    p.VendorID,
		Rating:      p.Rating,
		Comment:     optional(p.Comment),
		AuthorLabel: label,
		ImageRef:    optional(p.ImageRef),
		CreatedAt:   now.UTC(),
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// RecencyFilter narrows a review listing to a trailing time window.
type RecencyFilter string

const (
	RecencyAll       RecencyFilter = "all"
	RecencyLastWeek  RecencyFilter = "lastWeek"
	RecencyLastMonth RecencyFilter = "lastMonth"
)

// ParseRecency maps a query value onto a filter. Empty means all.
func ParseRecency(s string) (RecencyFilter, error) {
	switch RecencyFilter(s) {
	case "", RecencyAll:
		return RecencyAll, nil
	case RecencyLastWeek, RecencyLastMonth:
		return RecencyFilter(s), nil
	default:
		return "", fmt.Errorf("unknown recency filter %q", s)
	}
}

// Since returns the inclusive lower bound on created_at, or nil for all.
func (f RecencyFilter) Since(now time.Time) *time.Time {
	var d time.Duration
	switch f {
	case RecencyLastWeek:
		d = 7 * 24 * time.Hour
	case RecencyLastMonth:
		d = 30 * 24 * time.Hour
	default:
		return nil
	}
	t := now.Add(-d)
	return &t
}
