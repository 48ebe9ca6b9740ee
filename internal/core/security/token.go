// Package security holds the stateless authentication primitives: the bearer
// token codec, the password hasher, the request authenticator and the access
// policy engine.
package security

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hits/carschool/internal/core/domain"
)

const (
	bearerPrefix = "Bearer "
	minKeyLength = 32
)

// Reasons a token fails to decode. All of them match
// domain.ErrInvalidOrExpiredToken under errors.Is.
var (
	ErrTokenMalformed = fmt.Errorf("%w: malformed", domain.ErrInvalidOrExpiredToken)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", domain.ErrInvalidOrExpiredToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", domain.ErrInvalidOrExpiredToken)
)

// ErrWeakSigningKey is returned by NewTokenCodec for keys shorter than 256 bits.
var ErrWeakSigningKey = errors.New("jwt signing key must be at least 32 bytes")

// Claims is the JWT payload. Roles is a snapshot taken at issue time and is
// informational only; authorization always reloads roles from the store.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Token is the result of a successful Decode. The subject can only be read
// from a token that passed signature and expiry checks.
type Token struct {
	Subject   int64
	Roles     domain.RoleSet
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec signs and verifies HS256 tokens with a key fixed for the
// lifetime of the process.
type TokenCodec struct {
	key []byte
	now func() time.Time
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock replaces time.Now as the reference clock for expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec builds a codec around secret.
func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) < minKeyLength {
		return nil, ErrWeakSigningKey
	}
	c := &TokenCodec{key: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue produces a signed token for subject valid during [issuedAt, issuedAt+ttl).
// issuedAt is truncated to the second before the expiry is computed.
func (c *TokenCodec) Issue(subject int64, issuedAt time.Time, ttl time.Duration, roles domain.RoleSet) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("issue token: non-positive ttl %s", ttl)
	}
	iat := issuedAt.Truncate(time.Second)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subject, 10),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
		},
		Roles: roles.Strings(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Decode verifies raw and returns its claims. It never panics on arbitrary
// input; every failure is one of ErrTokenMalformed, ErrTokenSignature or
// ErrTokenExpired. A token is expired from its expiry second onwards.
func (c *TokenCodec) Decode(raw string) (*Token, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock),
	)
	if err != nil {
		return nil, classify(err)
	}

	sub, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || sub <= 0 {
		return nil, ErrTokenMalformed
	}

	tok := &Token{
		Subject:   sub,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		tok.IssuedAt = claims.IssuedAt.Time
	}
	// Unknown role names in the snapshot are dropped rather than failing the token.
	for _, name := range claims.Roles {
		if r, err := domain.ParseRoleName(name); err == nil {
			tok.Roles = tok.Roles.With(r)
		}
	}
	return tok, nil
}

// Validate reports whether raw decodes successfully.
func (c *TokenCodec) Validate(raw string) bool {
	_, err := c.Decode(raw)
	return err == nil
}

func (c *TokenCodec) keyFunc(*jwt.Token) (any, error) {
	return c.key, nil
}

// clock truncates to whole seconds so that expiry is compared at the same
// granularity the token carries.
func (c *TokenCodec) clock() time.Time {
	return c.now().Truncate(time.Second)
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}

// BearerToken extracts the token from an Authorization header value. The
// header must start with the exact prefix "Bearer ".
func BearerToken(header string) (string, error) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return "", domain.ErrMalformedAuthHeader
	}
	return token, nil
}
