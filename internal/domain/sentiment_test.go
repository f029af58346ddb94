package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeSentiment_MixedComments(t *testing.T) {
	got := AnalyzeSentiment([]string{"Great and professional service", "Late and slow"})

	assert.ElementsMatch(t, []string{"great", "professional"}, got.Positives)
	assert.ElementsMatch(t, []string{"slow", "late"}, got.Negatives)
	assert.NotContains(t, got.Positives, "good")
	assert.NotContains(t, got.Negatives, "rude")
}

func TestAnalyzeSentiment_RanksByFrequency(t *testing.T) {
	got := AnalyzeSentiment([]string{
		"fast, FAST and friendly",
		"friendly? fast!",
		"good",
	})

	assert.Equal(t, []string{"fast", "friendly", "good"}, got.Positives)
	assert.Empty(t, got.Negatives)
}

func TestAnalyzeSentiment_TiesKeepLexiconOrder(t *testing.T) {
	got := AnalyzeSentiment([]string{"worst issue problem bad"})
	assert.Equal(t, []string{"bad", "problem", "issue", "worst"}, got.Negatives)
}

func TestAnalyzeSentiment_ExactTokensOnly(t *testing.T) {
	got := AnalyzeSentiment([]string{"disappointed by greatness, goods were slowly delivered"})
	assert.True(t, got.Empty())
}

func TestAnalyzeSentiment_EmptyInput(t *testing.T) {
	for _, comments := range [][]string{nil, {}, {"", "   "}} {
		got := AnalyzeSentiment(comments)
		assert.NotNil(t, got.Positives)
		assert.NotNil(t, got.Negatives)
		assert.True(t, got.Empty())
	}
}
