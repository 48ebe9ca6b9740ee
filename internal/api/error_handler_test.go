package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/security"
)

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"expired token hides reason", security.ErrTokenExpired, http.StatusUnauthorized, domain.ErrInvalidOrExpiredToken.Error()},
		{"malformed header", domain.ErrMalformedAuthHeader, http.StatusUnauthorized, ""},
		{"forbidden", fmt.Errorf("delete post: %w", domain.ErrForbidden), http.StatusForbidden, ""},
		{"identity not found", domain.ErrIdentityNotFound, http.StatusNotFound, "user not found"},
		{"role not found", fmt.Errorf("%w: %q", domain.ErrRoleNotFound, "ADMIN"), http.StatusNotFound, ""},
		{"duplicate", domain.ErrDuplicateEmailOrPhone, http.StatusConflict, ""},
		{"version conflict", domain.ErrVersionConflict, http.StatusConflict, ""},
		{"idempotent request in flight", domain.ErrRequestInProgress, http.StatusConflict, ""},
		{"last role", domain.ErrCannotRemoveLastRole, http.StatusBadRequest, ""},
		{"wrong password", domain.ErrWrongPassword, http.StatusBadRequest, ""},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{"unexpected", errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if tc.msg != "" && body.Error != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, body.Error)
			}
		})
	}
}
