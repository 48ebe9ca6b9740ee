package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/security"
)

// Authenticator resolves an Authorization header into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*security.Principal, error)
}

// Auth attaches the caller's principal to the request context when the
// request carries a usable bearer token. Requests without one continue
// anonymously; the access policy decides whether that is enough.
func Auth(authn Authenticator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}

			req := c.Request()
			principal, err := authn.Authenticate(req.Context(), header)
			switch {
			case err == nil:
				c.SetRequest(req.WithContext(security.WithPrincipal(req.Context(), principal)))
			case errors.Is(err, domain.ErrMalformedAuthHeader),
				errors.Is(err, domain.ErrInvalidOrExpiredToken),
				errors.Is(err, domain.ErrIdentityNotFound):
				log.Debug().Err(err).Str("path", c.Path()).Msg("request treated as anonymous")
			default:
				return err
			}
			return next(c)
		}
	}
}
