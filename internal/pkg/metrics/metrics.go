// Package metrics defines and registers the custom Prometheus metrics of the
// edge backend. It is the single source of truth for metric names, labels and
// help strings.
//
// Metrics are registered with the default registry on import via promauto and
// served by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "edge"

// Result label values.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultLegacy   = "legacy"
	ResultError    = "error"
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Labels:
//   - method: "password", "google_id_token" or "google_oauth"
//   - result: "success", "rejected" (bad credentials, disabled) or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total number of login attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "rejected" (validation, duplicate) or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// PasswordUpgradesTotal counts legacy hashes migrated to PBKDF2 at login.
var PasswordUpgradesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "password_upgrades_total",
		Help:      "Total number of legacy password hashes upgraded to PBKDF2.",
	},
)

// TokenValidationsTotal counts token validations.
// Label:
//   - result: "success", "legacy" (accepted and rotated), "rejected" or "error"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "token_validations_total",
		Help:      "Total number of token validations, by result.",
	},
	[]string{"result"},
)

// PBKDF2Duration measures a single key derivation. It tracks the latency cost
// of the configured iteration count.
var PBKDF2Duration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "pbkdf2_duration_seconds",
		Help:      "Duration of PBKDF2 password derivations.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1},
	},
)

// ── Feedback metrics ──────────────────────────────────────────────────────────

// FeedbackSubmissionsTotal counts feedback submissions.
// Label:
//   - result: "success", "rejected" (validation, rate limit) or "error"
var FeedbackSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "feedback",
		Name:      "submissions_total",
		Help:      "Total number of feedback submissions, by result.",
	},
	[]string{"result"},
)
