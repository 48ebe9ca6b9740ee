package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hits/carschool/internal/api/metrics"
	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/security"
)

// Enforce applies policy to every routed request. It must run after Auth.
// Denied anonymous callers get 401, denied authenticated callers 403.
func Enforce(policy *security.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, _ := security.PrincipalFrom(c.Request().Context())

			if policy.Decide(c.Request().Method, c.Path(), caller, selfTargeted(c, caller)) == security.Allow {
				metrics.PolicyDecisionsTotal.WithLabelValues("allow").Inc()
				return next(c)
			}

			if caller == nil {
				metrics.PolicyDecisionsTotal.WithLabelValues("unauthenticated").Inc()
				return domain.ErrUnauthenticated
			}
			metrics.PolicyDecisionsTotal.WithLabelValues("forbidden").Inc()
			return domain.ErrForbidden
		}
	}
}

// selfTargeted reports whether the request acts on the caller's own identity:
// either the route names the caller in its :id parameter or it has none and
// so can only address the caller.
func selfTargeted(c echo.Context, caller *security.Principal) bool {
	if caller == nil {
		return false
	}
	raw := c.Param("id")
	if raw == "" {
		return true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return err == nil && id == caller.ID
}
