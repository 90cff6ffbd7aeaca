package auth

import (
	"context"
	"net/http"

	"github.com/xvariate/auth-api/internal/httpx"
)

// --- DTOs ---

// OAuthStartRequest names the provider in the path and the desired role in
// the query string.
type OAuthStartRequest struct {
	Provider string `path:"provider"`
	Role     string `query:"role"`
}

// OAuthStartResponse returns the provider consent URL for the frontend to
// redirect to, and pins the chosen role in a short-lived cookie.
type OAuthStartResponse struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      struct {
		RedirectURL string `json:"redirectUrl"`
	}
}

// OAuthCallbackRequest carries the provider callback parameters. The pending
// role cookie is read back if it survived the round-trip.
type OAuthCallbackRequest struct {
	Provider    string `path:"provider"`
	Code        string `query:"code"`
	State       string `query:"state"`
	PendingRole string `cookie:"pending_oauth_role"`
}

// OAuthCallbackResponse sets the session cookie and clears the pending role
// cookie regardless of which role ended up applying.
type OAuthCallbackResponse struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Message    string `json:"message"`
		RedirectTo string `json:"redirectTo"`
	}
}

// --- Handlers ---

// OAuthStartHandler initiates the OAuth flow.
func (h *Handler) OAuthStartHandler(ctx context.Context, input *OAuthStartRequest) (*OAuthStartResponse, error) {
	h.logger.Info("initiating oauth sign-in", "provider", input.Provider)

	result, err := h.service.StartOAuth(ctx, input.Provider, input.Role)
	if err != nil {
		h.logger.Warn("failed to initiate oauth sign-in", "provider", input.Provider, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &OAuthStartResponse{
		SetCookie: []http.Cookie{h.pendingRoleCookie(result.PendingRole)},
	}
	resp.Body.RedirectURL = result.RedirectURL
	return resp, nil
}

// OAuthCallbackHandler completes the OAuth flow and issues a session.
func (h *Handler) OAuthCallbackHandler(ctx context.Context, input *OAuthCallbackRequest) (*OAuthCallbackResponse, error) {
	h.logger.Info("handling oauth callback", "provider", input.Provider)

	result, err := h.service.CompleteOAuth(ctx, OAuthCallbackInput{
		Provider:    input.Provider,
		State:       input.State,
		Code:        input.Code,
		PendingRole: input.PendingRole,
	})
	if err != nil {
		h.logger.Warn("oauth callback failed", "provider", input.Provider, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &OAuthCallbackResponse{
		SetCookie: []http.Cookie{
			h.sessionCookie(result.SessionToken),
			h.clearPendingRoleCookie(),
		},
	}
	resp.Body.Message = result.Message
	resp.Body.RedirectTo = result.RedirectTo
	return resp, nil
}
