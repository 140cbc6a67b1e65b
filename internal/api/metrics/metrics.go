// Package metrics defines and registers all custom Prometheus metrics for the
// authentication service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Credential metrics ────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "email_not_verified",
//     "blocked", "invalid_input" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenValidationsTotal counts token validations.
// Label:
//   - result: "valid" or "invalid"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of session token validations, by result.",
	},
	[]string{"result"},
)

// SessionsRevokedTotal counts explicit logouts.
var SessionsRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of sessions revoked through logout.",
	},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts registration outcomes.
// Labels:
//   - role: requested role
//   - result: "success" or a short failure reason
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration requests, by role and result.",
	},
	[]string{"role", "result"},
)

// RoleChangesTotal counts role update requests.
// Labels:
//   - to: the requested role
//   - result: "success", "forbidden", "invalid_transition", "conflict",
//     "not_found" or "error"
var RoleChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_changes_total",
		Help:      "Total number of role change requests, by target role and result.",
	},
	[]string{"to", "result"},
)

// PasswordOperationsTotal counts password flows.
// Labels:
//   - operation: "forgot", "reset" or "change"
//   - result: "success" or "failure"
var PasswordOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_operations_total",
		Help:      "Total number of password reset and change operations.",
	},
	[]string{"operation", "result"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailsTotal counts transactional mail outcomes.
// Labels:
//   - kind: "password_reset" or "email_verification"
//   - result: "sent", "failed" or "dropped" (queue full)
var MailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mails_total",
		Help:      "Total number of transactional mails, by kind and result.",
	},
	[]string{"kind", "result"},
)

// MailQueueDepth tracks the current number of mails waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of mails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// MailSendDuration measures how long a provider takes to accept a mail.
var MailSendDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mail_send_duration_seconds",
		Help:      "Duration of a single provider send call.",
		Buckets:   prometheus.DefBuckets,
	},
)
