package domain

// UpvoteResult reports the outcome of an upvote attempt. A repeat vote from
// the same session is not an error.
type UpvoteResult struct {
	ReviewID     string `json:"review_id"`
	AlreadyVoted bool   `json:"already_voted"`
	Count        int    `json:"count"`
}

// UpvoteTally holds vote counts per review and whether the asking session
// has voted on each.
type UpvoteTally struct {
	Counts map[string]int  `json:"counts"`
	Voted  map[string]bool `json:"voted"`
}

// NewUpvoteTally returns a tally with every id at zero.
func NewUpvoteTally(reviewIDs []string) UpvoteTally {
	t := UpvoteTally{
		Counts: make(map[string]int, len(reviewIDs)),
		Voted:  make(map[string]bool, len(reviewIDs)),
	}
	for _, id := range reviewIDs {
		t.Counts[id] = 0
		t.Voted[id] = false
	}
	return t
}

// Upvote is one (review, session) vote.
type Upvote struct {
	ReviewID  string
	SessionID string
}

// TallyUpvotes folds raw vote rows into a tally for reviewIDs as seen by
// sessionID. Rows for other reviews are ignored.
func TallyUpvotes(reviewIDs []string, votes []Upvote, sessionID string) UpvoteTally {
	t := NewUpvoteTally(reviewIDs)
	for _, v := range votes {
		if _, ok := t.Counts[v.ReviewID]; !ok {
			continue
		}
		t.Counts[v.ReviewID]++
		if sessionID != "" && v.SessionID == sessionID {
			t.Voted[v.ReviewID] = true
		}
	}
	return t
}
