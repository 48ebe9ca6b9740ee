package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hits/carschool/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// errorStatus maps domain sentinels to HTTP status codes. The first match wins.
var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrMalformedAuthHeader, http.StatusUnauthorized},
	{domain.ErrInvalidOrExpiredToken, http.StatusUnauthorized},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},

	{domain.ErrForbidden, http.StatusForbidden},

	{domain.ErrIdentityNotFound, http.StatusNotFound},
	{domain.ErrRoleNotFound, http.StatusNotFound},
	{domain.ErrChannelNotFound, http.StatusNotFound},
	{domain.ErrPostNotFound, http.StatusNotFound},

	{domain.ErrDuplicateEmailOrPhone, http.StatusConflict},
	{domain.ErrRequestInProgress, http.StatusConflict},
	{domain.ErrVersionConflict, http.StatusConflict},

	{domain.ErrRoleNotPresent, http.StatusBadRequest},
	{domain.ErrCannotRemoveLastRole, http.StatusBadRequest},
	{domain.ErrEmptyRoleSet, http.StatusBadRequest},
	{domain.ErrAlreadyActive, http.StatusBadRequest},
	{domain.ErrAlreadyInactive, http.StatusBadRequest},
	{domain.ErrWrongPassword, http.StatusBadRequest},
	{domain.ErrInvalidChannelName, http.StatusBadRequest},
	{domain.ErrInvalidPostType, http.StatusBadRequest},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			if m.err == domain.ErrInvalidCredentials || m.err == domain.ErrInvalidOrExpiredToken {
				// Never reveal which check failed.
				return m.status, m.err.Error()
			}
			return m.status, err.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
