package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/xvariate/auth-api/internal/config"
	"github.com/xvariate/auth-api/internal/role"
	"github.com/xvariate/auth-api/internal/routes"
	"github.com/xvariate/auth-api/internal/session"
)

const sessionCookieName = "session"

// RouteGuard gates page routes by authentication state. Decision order:
//
//  1. The auth API namespace, the health check, and the home page always
//     pass.
//  2. An authenticated visitor on an auth-flow page (login, signup, reset)
//     is bounced to their role's dashboard.
//  3. An unauthenticated visitor on a non-public page is bounced to the
//     login page matching the dashboard section they tried to reach.
//  4. Optionally, a dashboard section can be restricted to its own role.
//
// A session that fails validation is treated as absent and its cookie is
// cleared, so a revoked or expired token cannot keep a page open.
func RouteGuard(sessions *session.Manager, cfg *config.Config, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := routes.NormalizePath(r.URL.Path)

			if strings.HasPrefix(path, routes.APIAuthPrefix) || path == routes.HomeRoute || path == routes.HealthRoute {
				next.ServeHTTP(w, r)
				return
			}

			claims, rotated, authed := authenticate(r, sessions)
			if !authed {
				clearStaleSession(w, r, cfg)
			} else if rotated != "" {
				setSessionCookie(w, cfg, rotated, int(sessions.AbsoluteTTL().Seconds()))
			}

			if routes.IsAuthRoute(path) {
				if authed {
					http.Redirect(w, r, role.DefaultDashboard(claims.Role), http.StatusFound)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !authed {
				if routes.IsPublic(path) {
					next.ServeHTTP(w, r)
					return
				}
				http.Redirect(w, r, routes.LoginRouteFor(path), http.StatusFound)
				return
			}

			if cfg.Guard.EnforceDashboardRoles {
				if target, ok := deniedDashboard(path, claims.Role); ok {
					logger.Warn("dashboard role mismatch", "path", path, "role", claims.Role)
					http.Redirect(w, r, target, http.StatusFound)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// authenticate validates the session cookie. rotated is non-empty when the
// token passed its refresh checkpoint and was re-issued.
func authenticate(r *http.Request, sessions *session.Manager) (session.Claims, string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return session.Claims{}, "", false
	}

	claims, rotated, err := sessions.Validate(r.Context(), cookie.Value)
	if err != nil {
		return session.Claims{}, "", false
	}
	return claims, rotated, true
}

// deniedDashboard reports whether the path sits in a dashboard section the
// role may not enter, and where to send the visitor instead.
func deniedDashboard(path string, r role.Role) (string, bool) {
	for prefix, allowed := range routes.DashboardRoles {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		for _, a := range allowed {
			if a == r {
				return "", false
			}
		}
		return role.DefaultDashboard(r), true
	}
	return "", false
}

func setSessionCookie(w http.ResponseWriter, cfg *config.Config, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func clearStaleSession(w http.ResponseWriter, r *http.Request, cfg *config.Config) {
	if _, err := r.Cookie(sessionCookieName); err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}
