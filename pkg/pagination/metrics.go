package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched tracks page fetches by sequence name and outcome
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buildkite_pages_fetched_total",
			Help: "Total number of pages fetched by paging sequences",
		},
		[]string{"sequence", "outcome"}, // "ok", "error"
	)

	// ItemsYielded tracks records handed to consumers
	ItemsYielded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buildkite_items_yielded_total",
			Help: "Total number of records yielded by paging sequences",
		},
		[]string{"sequence"},
	)

	// SequencesTerminated tracks why sequences ended
	SequencesTerminated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buildkite_sequences_terminated_total",
			Help: "Total number of paging sequences that reached their end",
		},
		[]string{"sequence", "reason"}, // "short_page", "error"
	)
)
