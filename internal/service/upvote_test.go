package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trustdot/reputation/internal/domain"
	apperrors "github.com/trustdot/reputation/pkg/errors"
)

func newTestUpvoteService(t *testing.T) (*UpvoteService, *mockReviewRepository, *mockUpvoteRepository, *mockEvents) {
	t.Helper()
	reviews := new(mockReviewRepository)
	upvotes := new(mockUpvoteRepository)
	events := new(mockEvents)
	svc := NewUpvoteService(reviews, upvotes, testBreakerConfig(t.Name()), events, newTestLogger())
	return svc, reviews, upvotes, events
}

func review1() *domain.Review {
	return &domain.Review{ID: "r-1", VendorID: "v-1", Rating: 5, AuthorLabel: domain.AuthorCustomer, CreatedAt: fixedNow}
}

// memoryUpvotes is an in-memory UpvoteRepository used to exercise the
// dedup sequence end to end.
type memoryUpvotes struct {
	votes map[domain.Upvote]struct{}
}

func (m *memoryUpvotes) Insert(_ context.Context, reviewID, sessionID string) error {
	key := domain.Upvote{ReviewID: reviewID, SessionID: sessionID}
	if _, ok := m.votes[key]; ok {
		return apperrors.ErrAlreadyExists
	}
	m.votes[key] = struct{}{}
	return nil
}

func (m *memoryUpvotes) Tally(_ context.Context, reviewIDs []string, sessionID string) (domain.UpvoteTally, error) {
	all := make([]domain.Upvote, 0, len(m.votes))
	for v := range m.votes {
		all = append(all, v)
	}
	return domain.TallyUpvotes(reviewIDs, all, sessionID), nil
}

func TestUpvote_DedupSequence(t *testing.T) {
	reviews := new(mockReviewRepository)
	events := new(mockEvents)
	store := &memoryUpvotes{votes: map[domain.Upvote]struct{}{}}
	svc := NewUpvoteService(reviews, store, testBreakerConfig(t.Name()), events, newTestLogger())
	ctx := context.Background()

	reviews.On("Get", ctx, "r-1").Return(review1(), nil)
	events.On("PublishReviewUpvoted", ctx, "r-1", "v-1").Return(nil)

	first, err := svc.Upvote(ctx, "r-1", "s-a")
	require.NoError(t, err)
	assert.False(t, first.AlreadyVoted)
	assert.Equal(t, 1, first.Count)

	again, err := svc.Upvote(ctx, "r-1", "s-a")
	require.NoError(t, err)
	assert.True(t, again.AlreadyVoted)
	assert.Equal(t, 1, again.Count)

	other, err := svc.Upvote(ctx, "r-1", "s-b")
	require.NoError(t, err)
	assert.False(t, other.AlreadyVoted)
	assert.Equal(t, 2, other.Count)

	events.AssertNumberOfCalls(t, "PublishReviewUpvoted", 2)
}

func TestUpvote_InvalidInput(t *testing.T) {
	svc, _, _, _ := newTestUpvoteService(t)

	_, err := svc.Upvote(context.Background(), "", "s-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Upvote(context.Background(), "r-1", " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpvote_UnknownReview(t *testing.T) {
	svc, reviews, upvotes, _ := newTestUpvoteService(t)
	ctx := context.Background()

	reviews.On("Get", ctx, "ghost").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Upvote(ctx, "ghost", "s-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	upvotes.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpvote_InsertFailureIsTransient(t *testing.T) {
	svc, reviews, upvotes, events := newTestUpvoteService(t)
	ctx := context.Background()

	reviews.On("Get", ctx, "r-1").Return(review1(), nil)
	upvotes.On("Insert", ctx, "r-1", "s-1").Return(errors.New("connection reset"))

	_, err := svc.Upvote(ctx, "r-1", "s-1")
	assert.ErrorIs(t, err, apperrors.ErrTransient)
	events.AssertNotCalled(t, "PublishReviewUpvoted", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpvote_EventFailureIgnored(t *testing.T) {
	svc, reviews, upvotes, events := newTestUpvoteService(t)
	ctx := context.Background()

	reviews.On("Get", ctx, "r-1").Return(review1(), nil)
	upvotes.On("Insert", ctx, "r-1", "s-1").Return(nil)
	upvotes.On("Tally", ctx, []string{"r-1"}, "s-1").Return(domain.UpvoteTally{
		Counts: map[string]int{"r-1": 1}, Voted: map[string]bool{"r-1": true},
	}, nil)
	events.On("PublishReviewUpvoted", ctx, "r-1", "v-1").Return(errors.New("broker down"))

	res, err := svc.Upvote(ctx, "r-1", "s-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
}

func TestCountUpvotes_DedupesIDsIntoOneRead(t *testing.T) {
	svc, _, upvotes, _ := newTestUpvoteService(t)
	ctx := context.Background()

	upvotes.On("Tally", ctx, []string{"r-1", "r-2"}, "s-1").Return(domain.UpvoteTally{
		Counts: map[string]int{"r-1": 4, "r-2": 0},
		Voted:  map[string]bool{"r-1": false, "r-2": false},
	}, nil).Once()

	got := svc.CountUpvotes(ctx, []string{"r-1", "", "r-2", "r-1"}, "s-1")
	assert.False(t, got.Degraded)
	assert.Equal(t, 4, got.Counts["r-1"])
	upvotes.AssertExpectations(t)
}

func TestCountUpvotes_NoIDs(t *testing.T) {
	svc, _, upvotes, _ := newTestUpvoteService(t)

	got := svc.CountUpvotes(context.Background(), nil, "s-1")
	assert.Empty(t, got.Counts)
	upvotes.AssertNotCalled(t, "Tally", mock.Anything, mock.Anything, mock.Anything)
}

func TestCountUpvotes_BreakerOpensAndDegrades(t *testing.T) {
	svc, _, upvotes, _ := newTestUpvoteService(t)
	ctx := context.Background()

	upvotes.On("Tally", ctx, []string{"r-1"}, "s-1").Return(domain.UpvoteTally{}, errors.New("store down"))

	for i := 0; i < 4; i++ {
		got := svc.CountUpvotes(ctx, []string{"r-1"}, "s-1")
		assert.True(t, got.Degraded)
		assert.Equal(t, map[string]int{"r-1": 0}, got.Counts)
		assert.Equal(t, map[string]bool{"r-1": false}, got.Voted)
	}

	assert.Equal(t, gobreaker.StateOpen, svc.tallies.State())
	upvotes.AssertNumberOfCalls(t, "Tally", 2)
}
