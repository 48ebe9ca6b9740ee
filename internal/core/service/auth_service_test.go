package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/security"
)

func newTestAuthService(t *testing.T, store *stubIdentityStore) (*AuthService, *security.TokenCodec) {
	t.Helper()
	codec, err := security.NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("NewTokenCodec returned error: %v", err)
	}
	return NewAuthService(store, codec, testHasher(), time.Hour, discardLogger), codec
}

func TestAuthService_Login_Success(t *testing.T) {
	store := newStubIdentityStore()
	alice := seedIdentity(store, "alice@example.com", "pass123", domain.RoleStudent)
	svc, codec := newTestAuthService(t, store)

	token, err := svc.Login(context.Background(), "alice@example.com", "pass123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	tok, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("issued token does not decode: %v", err)
	}
	if tok.Subject != alice.ID {
		t.Fatalf("expected subject %d, got %d", alice.ID, tok.Subject)
	}
	if !tok.Roles.Has(domain.RoleStudent) {
		t.Fatalf("expected role snapshot to contain STUDENT, got %v", tok.Roles)
	}
	if got := tok.ExpiresAt.Sub(tok.IssuedAt); got != time.Hour {
		t.Fatalf("expected lifetime of 1h, got %s", got)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	store := newStubIdentityStore()
	seedIdentity(store, "alice@example.com", "pass123", domain.RoleStudent)
	svc, _ := newTestAuthService(t, store)

	_, ghostErr := svc.Login(context.Background(), "ghost@example.com", "pass123")
	_, wrongErr := svc.Login(context.Background(), "alice@example.com", "nope")

	if ghostErr != domain.ErrInvalidCredentials {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", ghostErr)
	}
	if wrongErr != domain.ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	if ghostErr.Error() != wrongErr.Error() {
		t.Fatalf("failure messages differ: %q vs %q", ghostErr, wrongErr)
	}
}

func TestAuthService_Login_EmailIsExactMatch(t *testing.T) {
	store := newStubIdentityStore()
	seedIdentity(store, "alice@example.com", "pass123", domain.RoleStudent)
	svc, _ := newTestAuthService(t, store)

	if _, err := svc.Login(context.Background(), "Alice@Example.com", "pass123"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	store := newStubIdentityStore()
	store.err = errors.New("connection refused")
	svc, _ := newTestAuthService(t, store)

	_, err := svc.Login(context.Background(), "alice@example.com", "pass123")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestAuthService_Refresh_Success(t *testing.T) {
	store := newStubIdentityStore()
	alice := seedIdentity(store, "alice@example.com", "pass123", domain.RoleStudent)
	svc, codec := newTestAuthService(t, store)

	old, err := codec.Issue(alice.ID, time.Now().Add(-time.Minute), time.Hour, alice.Roles)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Roles changed after the old token was issued.
	stored, _ := store.FindByID(context.Background(), alice.ID)
	stored.GrantRole(domain.RoleTeacher)
	if _, err := store.Save(context.Background(), stored); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	fresh, err := svc.Refresh(context.Background(), "Bearer "+old)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	tok, err := codec.Decode(fresh)
	if err != nil {
		t.Fatalf("refreshed token does not decode: %v", err)
	}
	if tok.Subject != alice.ID {
		t.Fatalf("expected subject %d, got %d", alice.ID, tok.Subject)
	}
	if !tok.Roles.Has(domain.RoleTeacher) {
		t.Fatalf("expected refreshed snapshot to carry current roles, got %v", tok.Roles)
	}
	if !codec.Validate(old) {
		t.Fatalf("old token must stay valid after refresh")
	}
}

func TestAuthService_Refresh_DeletedIdentity(t *testing.T) {
	store := newStubIdentityStore()
	alice := seedIdentity(store, "alice@example.com", "pass123", domain.RoleStudent)
	svc, codec := newTestAuthService(t, store)

	token, _ := codec.Issue(alice.ID, time.Now(), time.Hour, alice.Roles)
	if err := store.Delete(context.Background(), alice); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), "Bearer "+token); err != domain.ErrIdentityNotFound {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestAuthService_Refresh_BadInput(t *testing.T) {
	store := newStubIdentityStore()
	alice := seedIdentity(store, "alice@example.com", "pass123", domain.RoleStudent)
	svc, codec := newTestAuthService(t, store)

	expired, _ := codec.Issue(alice.ID, time.Now().Add(-2*time.Hour), time.Hour, alice.Roles)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"empty header", "", domain.ErrMalformedAuthHeader},
		{"wrong scheme", "Basic abc", domain.ErrMalformedAuthHeader},
		{"lowercase scheme", "bearer abc", domain.ErrMalformedAuthHeader},
		{"prefix only", "Bearer ", domain.ErrMalformedAuthHeader},
		{"garbage token", "Bearer not-a-token", domain.ErrInvalidOrExpiredToken},
		{"expired token", "Bearer " + expired, domain.ErrInvalidOrExpiredToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Refresh(context.Background(), tc.header); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
