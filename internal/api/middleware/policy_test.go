package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/security"
)

// serve routes a single request through Enforce and returns the error the
// chain produced, if any.
func serve(t *testing.T, method, pattern, target string, caller *security.Principal) error {
	t.Helper()
	e := echo.New()

	var got error
	reached := false
	e.Add(method, pattern, func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	}, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if caller != nil {
				req := c.Request()
				c.SetRequest(req.WithContext(security.WithPrincipal(req.Context(), caller)))
			}
			got = Enforce(security.DefaultPolicy())(next)(c)
			return got
		}
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	if got == nil && !reached {
		t.Fatalf("handler not reached for an allowed request")
	}
	return got
}

func TestEnforce(t *testing.T) {
	student := &security.Principal{ID: 5, Roles: domain.NewRoleSet(domain.RoleStudent)}
	manager := &security.Principal{ID: 1, Roles: domain.NewRoleSet(domain.RoleManager)}

	tests := []struct {
		name    string
		method  string
		pattern string
		target  string
		caller  *security.Principal
		want    error
	}{
		{"public login", http.MethodPost, "/auth/login", "/auth/login", nil, nil},
		{"anonymous profile", http.MethodGet, "/users/profile", "/users/profile", nil, domain.ErrUnauthenticated},
		{"student profile", http.MethodGet, "/users/profile", "/users/profile", student, nil},
		{"student lists users", http.MethodGet, "/users", "/users", student, domain.ErrForbidden},
		{"manager deletes user", http.MethodDelete, "/users/:id", "/users/5", manager, nil},
		{"student deletes self", http.MethodDelete, "/users/:id", "/users/5", student, domain.ErrForbidden},
		{"student changes password", http.MethodPatch, "/users/change-password", "/users/change-password", student, nil},
		{"anonymous changes password", http.MethodPatch, "/users/change-password", "/users/change-password", nil, domain.ErrUnauthenticated},
		{"student creates channel", http.MethodPost, "/channel/create", "/channel/create", student, domain.ErrForbidden},
		{"anonymous reads post", http.MethodGet, "/posts/:postId", "/posts/abc", nil, nil},
		{"anonymous creates post", http.MethodPost, "/posts", "/posts", nil, domain.ErrUnauthenticated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := serve(t, tc.method, tc.pattern, tc.target, tc.caller)
			if !errors.Is(got, tc.want) && got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSelfTargeted(t *testing.T) {
	e := echo.New()
	caller := &security.Principal{ID: 5}

	newCtx := func(id string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if id != "" {
			c.SetParamNames("id")
			c.SetParamValues(id)
		}
		return c
	}

	if !selfTargeted(newCtx(""), caller) {
		t.Fatalf("routes without :id address the caller")
	}
	if !selfTargeted(newCtx("5"), caller) {
		t.Fatalf("matching :id must be self-targeted")
	}
	if selfTargeted(newCtx("6"), caller) {
		t.Fatalf("other :id must not be self-targeted")
	}
	if selfTargeted(newCtx("abc"), caller) {
		t.Fatalf("non-numeric :id must not be self-targeted")
	}
	if selfTargeted(newCtx(""), nil) {
		t.Fatalf("anonymous callers never target themselves")
	}
}
