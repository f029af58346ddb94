package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrustLevelFor(t *testing.T) {
	tests := map[int]TrustLevel{
		100: TrustLevelExcellent,
		80:  TrustLevelExcellent,
		79:  TrustLevelGood,
		60:  TrustLevelGood,
		59:  TrustLevelBuilding,
		0:   TrustLevelBuilding,
	}
	for score, want := range tests {
		assert.Equal(t, want, TrustLevelFor(score), "score=%d", score)
	}
}

func TestVerificationPercentage(t *testing.T) {
	assert.Equal(t, 0, VerificationPercentage(0, 0))
	assert.Equal(t, 100, VerificationPercentage(12, 12))
	assert.Equal(t, 67, VerificationPercentage(2, 3))
}

func TestVendor_ApplyAggregate(t *testing.T) {
	v := &Vendor{ID: "v-1", BusinessName: "Ace Plumbing"}
	agg := Aggregate{TotalJobs: 3, VerifiedJobs: 3, AvgRating: 4, TrustScore: 92}

	v.Apply(agg)

	assert.Equal(t, agg, v.Aggregate())
	assert.Equal(t, "Ace Plumbing", v.BusinessName)
}
