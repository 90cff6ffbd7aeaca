// Package routes holds the static route classification tables consumed by the
// route guard. These are configuration, not computed state: public routes,
// auth-flow routes (including per-role login/signup variants generated from
// the role enum), and the dashboard-prefix-to-login mapping.
package routes

import (
	"sort"
	"strings"

	"github.com/xvariate/auth-api/internal/role"
)

// HomeRoute is always allowed through the guard.
const HomeRoute = "/"

// APIAuthPrefix marks the auth API namespace, which bypasses the guard.
const APIAuthPrefix = "/api/auth"

// HealthRoute is the operational health check, exempt from the guard.
const HealthRoute = "/health"

// PublicRoutes do not need authentication.
var PublicRoutes = []string{
	"/",
	"/new-verification",
	"/services",
	"/contact",
	"/about",
	"/privacy",
	"/pricing",
}

var staticAuthRoutes = []string{
	"/error",
	"/reset",
	"/new-password",
	"/login",
	"/signup",
}

// AuthRoutes combines the static auth-flow routes with per-role login and
// signup variants, e.g. /login/freelancer and /signup/client.
var AuthRoutes = buildAuthRoutes()

func buildAuthRoutes() []string {
	out := make([]string, 0, len(staticAuthRoutes)+2*len(role.All()))
	out = append(out, staticAuthRoutes...)
	for _, r := range role.All() {
		out = append(out, "/signup/"+r.Slug())
	}
	for _, r := range role.All() {
		out = append(out, "/login/"+r.Slug())
	}
	return out
}

// dashboardLoginRoutes maps each dashboard prefix to the login page an
// unauthenticated visitor should land on.
var dashboardLoginRoutes = buildDashboardLoginRoutes()

func buildDashboardLoginRoutes() map[string]string {
	m := make(map[string]string, len(role.All()))
	for _, r := range role.All() {
		m[role.DefaultDashboard(r)] = "/login/" + r.Slug()
	}
	return m
}

// DashboardRoles maps each dashboard prefix to the roles permitted to access
// it. Consulted only when dashboard role enforcement is switched on.
var DashboardRoles = map[string][]role.Role{
	"/xvariate":   {role.Xvariate},
	"/ambassador": {role.Ambassador},
	"/client":     {role.Client},
	"/freelancer": {role.Freelancer},
}

// NormalizePath lowercases the path and strips a trailing slash, except for
// the root path itself.
func NormalizePath(path string) string {
	p := strings.ToLower(path)
	if p != "/" && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	if p == "" {
		p = "/"
	}
	return p
}

// IsPublic reports whether the normalized path matches a public route prefix.
func IsPublic(path string) bool {
	for _, route := range PublicRoutes {
		if strings.HasPrefix(path, route) && route != "/" {
			return true
		}
		if route == "/" && path == "/" {
			return true
		}
	}
	return false
}

// IsAuthRoute reports whether the normalized path matches an auth-flow route.
func IsAuthRoute(path string) bool {
	for _, route := range AuthRoutes {
		if strings.HasPrefix(path, route) {
			return true
		}
	}
	return false
}

// LoginRouteFor picks the login page for an unauthenticated request by
// longest-prefix match against the dashboard mapping. Paths that match no
// dashboard fall back to the generic client login.
func LoginRouteFor(path string) string {
	prefixes := make([]string, 0, len(dashboardLoginRoutes))
	for prefix := range dashboardLoginRoutes {
		prefixes = append(prefixes, prefix)
	}
	// Longest prefix wins.
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return dashboardLoginRoutes[prefix]
		}
	}
	return "/login/client"
}
