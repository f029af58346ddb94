package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reputation_aggregate_recomputes_total",
			Help: "Aggregate recomputations by result (updated, read_failed, write_failed, not_found).",
		},
		[]string{"result"},
	)

	reviewsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reputation_reviews_submitted_total",
			Help: "Reviews saved, by score status (updated, pending).",
		},
		[]string{"score_status"},
	)

	upvotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reputation_upvotes_total",
			Help: "Upvote attempts by outcome (recorded, duplicate).",
		},
		[]string{"outcome"},
	)

	upvoteTallyDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reputation_upvote_tally_degraded_total",
			Help: "Upvote tally reads served as zero counts because the store failed.",
		},
	)
)
