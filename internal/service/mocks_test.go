package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/internal/repository"
	"github.com/trustdot/reputation/pkg/breaker"
)

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Insert(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Get(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Stats(ctx context.Context, vendorID string) (domain.ReviewStats, error) {
	args := m.Called(ctx, vendorID)
	return args.Get(0).(domain.ReviewStats), args.Error(1)
}

// --- Mock Vendor Repository ---

type mockVendorRepository struct {
	mock.Mock
}

func (m *mockVendorRepository) Get(ctx context.Context, id string) (*domain.Vendor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vendor), args.Error(1)
}

func (m *mockVendorRepository) UpdateAggregate(ctx context.Context, id string, agg domain.Aggregate) error {
	args := m.Called(ctx, id, agg)
	return args.Error(0)
}

// --- Mock Upvote Repository ---

type mockUpvoteRepository struct {
	mock.Mock
}

func (m *mockUpvoteRepository) Insert(ctx context.Context, reviewID, sessionID string) error {
	args := m.Called(ctx, reviewID, sessionID)
	return args.Error(0)
}

func (m *mockUpvoteRepository) Tally(ctx context.Context, reviewIDs []string, sessionID string) (domain.UpvoteTally, error) {
	args := m.Called(ctx, reviewIDs, sessionID)
	return args.Get(0).(domain.UpvoteTally), args.Error(1)
}

// --- Mock Event Publisher ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockEvents) PublishScoreUpdated(ctx context.Context, vendorID string, agg domain.Aggregate) error {
	return m.Called(ctx, vendorID, agg).Error(0)
}

func (m *mockEvents) PublishReviewUpvoted(ctx context.Context, reviewID, vendorID string) error {
	return m.Called(ctx, reviewID, vendorID).Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBreakerConfig(name string) breaker.Config {
	cfg := breaker.DefaultConfig(name)
	cfg.Timeout = 50 * time.Millisecond
	cfg.MinRequests = 2
	return cfg
}

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func sampleVendor() *domain.Vendor {
	return &domain.Vendor{
		ID:           "v-1",
		BusinessName: "Ace Plumbing",
		ServiceType:  "plumbing",
		CreatedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func strPtr(s string) *string { return &s }
