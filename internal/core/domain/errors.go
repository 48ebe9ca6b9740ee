package domain

import "errors"

// Authentication errors. ErrInvalidCredentials is returned for both an unknown
// email and a wrong password so callers cannot tell the two apart.
var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrMalformedAuthHeader   = errors.New("malformed authorization header")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrForbidden             = errors.New("access forbidden")
)

// Identity and role errors.
var (
	ErrIdentityNotFound      = errors.New("user not found")
	ErrDuplicateEmailOrPhone = errors.New("email or phone already registered")
	ErrVersionConflict       = errors.New("user was modified concurrently")
	ErrRoleNotFound          = errors.New("role not found")
	ErrRoleNotPresent        = errors.New("user does not have this role")
	ErrCannotRemoveLastRole  = errors.New("cannot remove the last role of a user")
	ErrEmptyRoleSet          = errors.New("at least one role is required")
	ErrAlreadyActive         = errors.New("user is already active")
	ErrAlreadyInactive       = errors.New("user is already deactivated")
	ErrWrongPassword         = errors.New("old password does not match")
)

// Channel and post errors.
var (
	ErrChannelNotFound    = errors.New("channel not found")
	ErrInvalidChannelName = errors.New("channel name must be at least 5 characters long")
	ErrPostNotFound       = errors.New("post not found")
	ErrInvalidPostType    = errors.New("invalid post type")
	ErrRequestInProgress  = errors.New("a request with this idempotency key is still in progress")
)
