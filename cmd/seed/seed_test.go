package main

import (
	"context"
	"math/rand/v2"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/pkg/database"
)

var seedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestDeterministicUUID(t *testing.T) {
	a := deterministicUUID("vendor", 7)
	assert.Equal(t, a, deterministicUUID("vendor", 7))
	assert.NotEqual(t, a, deterministicUUID("vendor", 8))

	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestGenerate_IsDeterministic(t *testing.T) {
	gen := func() ([]seedVendor, []domain.Review) {
		rng := rand.New(rand.NewPCG(1, 2))
		vendors := generateVendors(rng, 5, seedNow)
		var reviews []domain.Review
		for i, v := range vendors {
			reviews = append(reviews, generateReviews(rng, v, i, 30, seedNow)...)
		}
		return vendors, reviews
	}

	v1, r1 := gen()
	v2, r2 := gen()
	assert.Equal(t, v1, v2)
	assert.Equal(t, r1, r2)
}

func TestGenerateReviews_Invariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	vendors := generateVendors(rng, 20, seedNow)

	for i, v := range vendors {
		for _, r := range generateReviews(rng, v, i, 50, seedNow) {
			assert.Equal(t, v.ID, r.VendorID)
			assert.GreaterOrEqual(t, r.Rating, domain.MinRating)
			assert.LessOrEqual(t, r.Rating, domain.MaxRating)
			assert.False(t, r.CreatedAt.Before(v.CreatedAt))
			assert.False(t, r.CreatedAt.After(seedNow))
			if r.Comment != nil {
				assert.NotEmpty(t, *r.Comment)
			}
		}
	}
}

func TestGenerateReviews_NoneWhenMaxIsZero(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	v := generateVendors(rng, 1, seedNow)[0]
	assert.Empty(t, generateReviews(rng, v, 0, 0, seedNow))
}

func TestValuesClause(t *testing.T) {
	assert.Equal(t, "($1, $2), ($3, $4), ($5, $6)", valuesClause(3, 2))
	assert.Equal(t, "($1)", valuesClause(1, 1))
}

func TestInsertBatched_SplitsIntoBatches(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := make([][]any, batchSize+1)
	for i := range rows {
		rows[i] = []any{i}
	}

	firstArgs := make([]any, batchSize)
	for i := range firstArgs {
		firstArgs[i] = i
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO t (n) VALUES ($1)")).
		WithArgs(firstArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", batchSize))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO t (n) VALUES ($1) ON CONFLICT DO NOTHING")).
		WithArgs(batchSize).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, insertBatched(context.Background(), mock, "INSERT INTO t (n)", "ON CONFLICT DO NOTHING", 1, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
