package auth

import (
	"net/http"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Route grants access to every path under Prefix to Role and above.
type Route struct {
	Prefix string
	Role   Role
}

// Policy maps requests to the role they need.
type Policy struct {
	exempt mapset.Set[string]
	routes []Route
}

// DefaultRoutes: running an adjustment needs an operator, tariff lookup a viewer.
var DefaultRoutes = []Route{
	{Prefix: "/api/v1/adjustments", Role: RoleOperator},
	{Prefix: "/api/v1/tariffs", Role: RoleViewer},
}

// NewDefaultPolicy builds a policy over DefaultRoutes. Exempt paths match exactly.
func NewDefaultPolicy(exemptPaths ...string) Policy {
	return NewPolicy(DefaultRoutes, exemptPaths...)
}

// NewPolicy builds a policy from explicit routes.
func NewPolicy(routes []Route, exemptPaths ...string) Policy {
	return Policy{
		exempt: mapset.NewThreadUnsafeSet(exemptPaths...),
		routes: append([]Route(nil), routes...),
	}
}

// IsExempt reports whether a request skips authentication.
func (p Policy) IsExempt(r *http.Request) bool {
	return p.exempt != nil && p.exempt.Contains(r.URL.Path)
}

// RequiredRole resolves the role a request needs. Paths outside /api/ need none;
// unlisted API paths need an admin.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	path := r.URL.Path
	for _, route := range p.routes {
		if path == route.Prefix || strings.HasPrefix(path, route.Prefix+"/") {
			return route.Role, true
		}
	}
	if strings.HasPrefix(path, "/api/") {
		return RoleAdmin, true
	}
	return "", false
}
