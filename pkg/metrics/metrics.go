// Package metrics provides centralized Prometheus metrics registry for the
// Buildkite client. All metrics are defined in their respective packages
// (client, pagination, ratelimit) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation, a reference to the registry and an
// HTTP handler for exposing the metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the Buildkite client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry the Handler serves.
var Gatherer = prometheus.DefaultGatherer

// Handler returns an HTTP handler exposing every registered metric.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - buildkite_requests_total{method, status} (Counter): Requests by method and HTTP status
//   - buildkite_request_duration_seconds{method} (Histogram): Request duration by method
//   - buildkite_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Pagination Metrics (pkg/pagination):
//   - buildkite_pages_fetched_total{sequence, outcome} (Counter): Page fetches by resource and outcome (ok, error)
//   - buildkite_items_yielded_total{sequence} (Counter): Records yielded to callers
//   - buildkite_sequences_terminated_total{sequence, reason} (Counter): Ended sequences by reason (short_page, error)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - buildkite_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - buildkite_rate_limit_blocks_total (Counter): Requests refused because the budget was critical
//   - buildkite_rate_limit_throttles_total (Counter): Requests delayed because the budget was low
//
// Example Prometheus Queries:
//
//   # Failed page fetches
//   sum by (sequence) (rate(buildkite_pages_fetched_total{outcome="error"}[5m]))
//
//   # Rate limit budget status
//   buildkite_rate_limit_remaining < 20
//
//   # Request Error Rate
//   rate(buildkite_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(buildkite_request_duration_seconds_bucket[5m]))
