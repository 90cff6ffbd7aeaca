package role

import "strings"

// Role is the fixed set of user roles. Every entry flow validates role
// membership before touching storage; an unknown role is rejected outright.
type Role string

const (
	Xvariate   Role = "XVARIATE"
	Freelancer Role = "FREELANCER"
	Ambassador Role = "AMBASSADOR"
	Client     Role = "CLIENT"
)

// All lists every valid role. Order is stable and used to generate the
// per-role login/signup route variants.
func All() []Role {
	return []Role{Xvariate, Freelancer, Ambassador, Client}
}

// IsValid reports whether r is one of the four fixed roles.
func (r Role) IsValid() bool {
	switch r {
	case Xvariate, Freelancer, Ambassador, Client:
		return true
	}
	return false
}

// Slug returns the lowercase path segment for the role, e.g. "freelancer".
func (r Role) Slug() string {
	return strings.ToLower(string(r))
}

// Parse normalizes a raw role string (any case) into a Role. The boolean is
// false when the value is not a recognized role.
func Parse(raw string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.IsValid() {
		return "", false
	}
	return r, true
}

// DefaultDashboard returns the role-specific landing path after a successful
// authentication. Unknown roles fall back to the client dashboard.
func DefaultDashboard(r Role) string {
	switch r {
	case Xvariate:
		return "/xvariate"
	case Freelancer:
		return "/freelancer"
	case Ambassador:
		return "/ambassador"
	default:
		return "/client"
	}
}
