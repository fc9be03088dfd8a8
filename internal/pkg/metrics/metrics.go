// Package metrics defines and registers all custom Prometheus metrics for the
// reservation console. It is the single source of truth for metric names,
// labels, and help strings.
//
// All metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// ── Access metrics ────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts access guard outcomes.
// Labels:
//   - subtree: the guarded route prefix (e.g. "/dashboard/admin")
//   - decision: "render", "must_login" or "forbidden"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of access guard decisions, by subtree and outcome.",
	},
	[]string{"subtree", "decision"},
)

// SessionEventsTotal counts session lifecycle transitions.
// Label:
//   - event: "login", "logout", "invalidated" or "restored"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle events.",
	},
	[]string{"event"},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestsTotal counts calls to the REST backend.
// Labels:
//   - method: HTTP method
//   - resource: first path segment (e.g. "reserva", "tickets")
//   - code: response status, or "error" when no response arrived
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of requests sent to the REST backend.",
	},
	[]string{"method", "resource", "code"},
)

// BackendRequestDuration measures round-trip latency to the REST backend.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of REST backend requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "resource"},
)

// ── Screen metrics ────────────────────────────────────────────────────────────

// MountedScreens tracks how many screens are currently mounted, by screen.
var MountedScreens = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mounted_screens",
		Help:      "Current number of mounted screens.",
	},
	[]string{"screen"},
)

// PollFetchesTotal counts background refetches.
// Labels:
//   - screen: the polling screen
//   - result: "applied", "stale" (arrived after unmount) or "error"
var PollFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_fetches_total",
		Help:      "Total number of polling refetches, by screen and result.",
	},
	[]string{"screen", "result"},
)
