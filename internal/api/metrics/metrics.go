// Package metrics defines the custom Prometheus metrics of the badge API.
// HTTP request metrics come from echoprometheus; the ones here count domain
// outcomes and are incremented by the handlers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "badge"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RequestsCreatedTotal counts newly submitted badge requests.
// Label:
//   - type: the requested badge type (e.g. "1_week", "permanent")
var RequestsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_created_total",
		Help:      "Total number of badge requests submitted, by badge type.",
	},
	[]string{"type"},
)

// RequestsProcessedTotal counts admin decisions.
// Label:
//   - status: "approved" or "rejected"
var RequestsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_processed_total",
		Help:      "Total number of badge requests approved or rejected.",
	},
	[]string{"status"},
)

// BadgesIssuedTotal counts successfully issued badges.
var BadgesIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "issued_total",
		Help:      "Total number of badges issued.",
	},
)

// IssueFailuresTotal counts failed issuance attempts.
// Label:
//   - reason: "invalid_state", "conflict", "render", "not_found" or "error"
var IssueFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "issue_failures_total",
		Help:      "Total number of badge issuance attempts that failed, by reason.",
	},
	[]string{"reason"},
)

// IssueDuration measures issuance end-to-end, rendering included.
// Label:
//   - result: "success" or "error"
var IssueDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "issue_duration_seconds",
		Help:      "Duration of badge issuance including PDF rendering.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
