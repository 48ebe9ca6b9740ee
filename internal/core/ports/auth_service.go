package ports

import "context"

// AuthService issues bearer tokens.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	// Refresh validates the token carried by an "Authorization: Bearer <token>"
	// header value and issues a new one with a fresh expiry.
	Refresh(ctx context.Context, authHeader string) (string, error)
}
