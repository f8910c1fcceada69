package auth

import "errors"

var (
	// ErrEmptyToken is returned when the request carries no bearer token.
	ErrEmptyToken = errors.New("auth: empty token")
	// ErrEmptySecret is returned when no signing secret is configured.
	ErrEmptySecret = errors.New("auth: empty secret")
	// ErrInvalidToken is returned for a token that fails signature or claim checks.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrInvalidRole is returned when the role claim is not a known role.
	ErrInvalidRole = errors.New("auth: invalid role")
)
