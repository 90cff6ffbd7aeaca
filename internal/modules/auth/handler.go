package auth

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/xvariate/auth-api/internal/config"
	"github.com/xvariate/auth-api/internal/role"
)

const (
	// SessionCookieName carries the signed session token.
	SessionCookieName = "session"

	// PendingRoleCookieName pins the role chosen before an OAuth redirect so
	// the callback can apply it after the provider round-trip.
	PendingRoleCookieName = "pending_oauth_role"

	// pendingRoleCookieTTL matches the OAuth state TTL in the state store.
	pendingRoleCookieTTL = 300
)

// Handler holds the dependencies for the auth module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
	config  *config.Config
}

// NewHandler creates a new handler for the auth module.
func NewHandler(service Service, logger *slog.Logger, cfg *config.Config) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		config:  cfg,
	}
}

// RegisterRoutes sets up the routing for the auth module.
func (h *Handler) RegisterRoutes(api huma.API) {
	// --- Credential flows ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/api/auth/signup",
		Summary: "Register a new account",
	}, h.SignUpHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/api/auth/login",
		Summary: "Log in with email and password",
	}, h.LoginHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/api/auth/logout",
		Summary: "Log out and clear the session",
	}, h.LogoutHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/api/auth/session",
		Summary: "Return the current session claims",
	}, h.SessionHandler)

	// --- Email verification ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/api/auth/new-verification",
		Summary: "Verify an email address with a token",
	}, h.VerifyEmailHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/api/auth/new-verification/resend",
		Summary: "Re-send a verification token",
	}, h.ResendVerificationHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/api/auth/passwordless",
		Summary: "Sign in a verified user with shared secrets",
	}, h.PasswordlessHandler)

	// --- Password reset ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/api/auth/reset",
		Summary: "Initiate a password reset",
	}, h.RequestPasswordResetHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodPost,
		Path:    "/api/auth/new-password",
		Summary: "Set a new password with a reset token",
	}, h.CompletePasswordResetHandler)

	// --- OAuth ---
	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/api/auth/oauth/{provider}",
		Summary: "Initiate OAuth sign-in",
	}, h.OAuthStartHandler)

	huma.Register(api, huma.Operation{
		Method:  http.MethodGet,
		Path:    "/api/auth/oauth/{provider}/callback",
		Summary: "Handle the OAuth provider callback",
	}, h.OAuthCallbackHandler)
}

// --- Cookie helpers ---

func (h *Handler) sessionCookie(token string) http.Cookie {
	return http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.service.Sessions().AbsoluteTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) clearSessionCookie() http.Cookie {
	return http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
}

// pendingRoleCookie survives the cross-site redirect back from the provider,
// which requires SameSite=None in production. Local development runs over
// plain HTTP where None would be rejected, so it falls back to Lax.
func (h *Handler) pendingRoleCookie(r role.Role) http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.config.IsProduction() {
		sameSite = http.SameSiteNoneMode
	}
	return http.Cookie{
		Name:     PendingRoleCookieName,
		Value:    r.Slug(),
		Path:     "/",
		MaxAge:   pendingRoleCookieTTL,
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: sameSite,
	}
}

func (h *Handler) clearPendingRoleCookie() http.Cookie {
	c := h.pendingRoleCookie("")
	c.Value = ""
	c.MaxAge = -1
	return c
}
