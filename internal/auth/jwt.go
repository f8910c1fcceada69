package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the API accepts.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var tokenParser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithExpirationRequired(),
)

// Verify checks an HS256 token against secret and returns the caller it names.
func Verify(token string, secret []byte) (Identity, error) {
	switch {
	case token == "":
		return Identity{}, ErrEmptyToken
	case len(secret) == 0:
		return Identity{}, ErrEmptySecret
	}

	var claims Claims
	if _, err := tokenParser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	role, ok := NormalizeRole(claims.Role)
	if !ok {
		return Identity{}, fmt.Errorf("%w: %q", ErrInvalidRole, claims.Role)
	}
	return Identity{Role: role, Subject: claims.Subject}, nil
}
