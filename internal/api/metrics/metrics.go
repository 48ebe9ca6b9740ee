// Package metrics defines and registers all custom Prometheus metrics for the
// car school API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carschool"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login and refresh calls.
// Labels:
//   - operation: "login" or "refresh"
//   - result: "success", "rejected" (caller error) or "error" (unexpected failure)
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login and token refresh attempts.",
	},
	[]string{"operation", "result"},
)

// PolicyDecisionsTotal counts access policy outcomes.
// Label:
//   - decision: "allow", "unauthenticated" or "forbidden"
var PolicyDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_decisions_total",
		Help:      "Total number of access policy decisions, by outcome.",
	},
	[]string{"decision"},
)

// ── User metrics ──────────────────────────────────────────────────────────────

// RoleMutationsTotal counts role add/remove/replace operations.
// Labels:
//   - operation: "add", "remove" or "replace"
//   - result: "success" or "rejected"
var RoleMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_mutations_total",
		Help:      "Total number of role mutations applied to users.",
	},
	[]string{"operation", "result"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestDuration measures request latency per route pattern.
// Labels:
//   - method: HTTP method
//   - route: the router pattern (e.g. "/users/:id"), never the raw path
//   - status: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by method, route pattern and status.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method", "route", "status"},
)

// Result converts an error into the result label used by the counters above.
// rejected reports whether err is a caller error rather than a fault.
func Result(err error, rejected func(error) bool) string {
	switch {
	case err == nil:
		return "success"
	case rejected(err):
		return "rejected"
	default:
		return "error"
	}
}

// Middleware records HTTPRequestDuration for every request.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Render now so the recorded status is the one the client sees.
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
