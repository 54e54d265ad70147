package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generation request counters, split by operation (respond, summarize).
	GenerationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phoenix",
			Subsystem: "generation",
			Name:      "requests_total",
			Help:      "Total generation backend requests",
		},
		[]string{"operation", "status"},
	)

	// Generation latency histogram.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "phoenix",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Generation backend request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// Time spent waiting on the shared request quota.
	RateLimitWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "phoenix",
			Subsystem: "generation",
			Name:      "quota_wait_seconds",
			Help:      "Time callers spent blocked on the rate limiter",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	// Turns deleted because an earlier turn was edited.
	TruncatedTurnsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "phoenix",
			Subsystem: "conversation",
			Name:      "truncated_turns_total",
			Help:      "Turns deleted as a side effect of editing an earlier turn",
		},
	)

	// Truncation deletions that failed and were skipped.
	TruncationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "phoenix",
			Subsystem: "conversation",
			Name:      "truncation_failures_total",
			Help:      "Future-turn deletions that failed during an edit commit",
		},
	)

	// Submissions rejected because one was already in flight or the latest
	// reveal had not settled.
	SubmissionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phoenix",
			Subsystem: "conversation",
			Name:      "submissions_rejected_total",
			Help:      "Prompt submissions rejected by the serialization guard",
		},
		[]string{"reason"},
	)

	// Completed incremental reveals.
	RevealsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "phoenix",
			Subsystem: "reveal",
			Name:      "completed_total",
			Help:      "Incremental reveals that ran to completion",
		},
	)
)
