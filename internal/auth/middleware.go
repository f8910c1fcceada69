package auth

import (
	"net/http"
	"strings"
)

// Middleware validates bearer tokens and enforces the policy's roles.
type Middleware struct {
	secret []byte
	policy Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{secret: secret, policy: policy}
}

// Wrap applies authentication and role checks to next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		required, ok := m.policy.RequiredRole(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		id, err := Verify(bearerToken(r), m.secret)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="adjustments"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !RoleAtLeast(id.Role, required) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
