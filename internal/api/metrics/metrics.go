// Package metrics defines the custom Prometheus metrics of the auth gateway.
// Metrics register with the default registry on package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authgate"

// AuthDecisionsTotal counts authorization filter outcomes.
// Labels:
//   - outcome: "allow" or "deny"
//   - reason: "public", "authenticated", "role", "missing_header",
//     "invalid_token", "insufficient_role"
var AuthDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_decisions_total",
		Help:      "Authorization filter decisions by outcome and reason.",
	},
	[]string{"outcome", "reason"},
)

// TokenValidationFailuresTotal counts rejected tokens.
// Label:
//   - kind: "malformed", "bad_signature" or "expired"
var TokenValidationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validation_failures_total",
		Help:      "Bearer tokens rejected by the validator, by failure kind.",
	},
	[]string{"kind"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Login attempts by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Registration attempts by result.",
	},
	[]string{"result"},
)
