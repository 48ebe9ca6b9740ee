package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hits/carschool/internal/api/handler"
	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
	"github.com/hits/carschool/internal/core/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type finderFunc func(ctx context.Context, id int64) (*domain.Identity, error)

func (f finderFunc) FindByID(ctx context.Context, id int64) (*domain.Identity, error) {
	return f(ctx, id)
}

type loginOnly struct{ ports.AuthService }

func (loginOnly) Login(context.Context, string, string) (string, error) {
	return "", domain.ErrInvalidCredentials
}

type addRoleOnly struct {
	ports.UserService
	calls int
}

func (s *addRoleOnly) AddRole(_ context.Context, id int64, role string) (*domain.Identity, error) {
	s.calls++
	return &domain.Identity{ID: id, Roles: domain.NewRoleSet(domain.RoleStudent, domain.RoleTeacher)}, nil
}

type routerFixture struct {
	e     *echo.Echo
	codec *security.TokenCodec
	users *addRoleOnly
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()
	codec, err := security.NewTokenCodec(testSecret)
	require.NoError(t, err)

	identities := map[int64]*domain.Identity{
		1: {ID: 1, Roles: domain.NewRoleSet(domain.RoleManager, domain.RoleStudent)},
		2: {ID: 2, Roles: domain.NewRoleSet(domain.RoleStudent)},
	}
	finder := finderFunc(func(_ context.Context, id int64) (*domain.Identity, error) {
		if u, ok := identities[id]; ok {
			return u.Clone(), nil
		}
		return nil, domain.ErrIdentityNotFound
	})

	users := &addRoleOnly{}
	e := NewRouter(Dependencies{
		AuthService:   loginOnly{},
		UserService:   users,
		Authenticator: security.NewAuthenticator(codec, finder),
		Readiness: map[string]handler.DependencyCheck{
			"mongodb": func(context.Context) error { return nil },
		},
		Log: zerolog.Nop(),
	})
	return routerFixture{e: e, codec: codec, users: users}
}

func (f routerFixture) do(t *testing.T, method, target string, subject int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if subject != 0 {
		token, err := f.codec.Issue(subject, time.Now(), time.Hour, nil)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_AccessControl(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/users/profile", 0, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	rec = f.do(t, http.MethodPost, "/users/2/add-role", 2, `{"role":"TEACHER"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, f.users.calls)

	rec = f.do(t, http.MethodPost, "/users/2/add-role", 1, `{"role":"TEACHER"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.users.calls)

	// A token for a deleted identity is treated as no token at all.
	rec = f.do(t, http.MethodGet, "/users", 99, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_PublicRoutes(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/login", 0, `{"email":"ghost@example.com","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrInvalidCredentials.Error())

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", 0, "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health/ready", 0, "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/metrics", 0, "").Code)
}
