package domain

import (
	"regexp"
	"sort"
	"strings"
)

// Keyword lexicons. Declaration order breaks frequency ties.
var (
	PositiveKeywords = []string{"good", "great", "excellent", "amazing", "awesome", "fast", "friendly", "helpful", "professional", "recommend"}
	NegativeKeywords = []string{"bad", "poor", "slow", "rude", "unprofessional", "late", "disappoint", "problem", "issue", "worst"}
)

var nonWord = regexp.MustCompile(`\W+`)

// Sentiment holds the lexicon keywords found in a set of comments, most
// frequent first.
type Sentiment struct {
	Positives []string `json:"positives"`
	Negatives []string `json:"negatives"`
}

// Empty reports whether no keyword matched.
func (s Sentiment) Empty() bool {
	return len(s.Positives) == 0 && len(s.Negatives) == 0
}

// AnalyzeSentiment counts exact lexicon matches across the comments. Words
// outside the two lexicons are ignored.
func AnalyzeSentiment(comments []string) Sentiment {
	counts := make(map[string]int)
	for _, c := range comments {
		if strings.TrimSpace(c) == "" {
			continue
		}
		for _, tok := range nonWord.Split(strings.ToLower(c), -1) {
			if tok != "" {
				counts[tok]++
			}
		}
	}
	return Sentiment{
		Positives: rank(PositiveKeywords, counts),
		Negatives: rank(NegativeKeywords, counts),
	}
}

func rank(lexicon []string, counts map[string]int) []string {
	out := make([]string, 0, len(lexicon))
	for _, w := range lexicon {
		if counts[w] > 0 {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return counts[out[i]] > counts[out[j]]
	})
	return out
}
