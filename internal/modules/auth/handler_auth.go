package auth

import (
	"context"
	"net/http"

	"github.com/xvariate/auth-api/internal/httpx"
	"github.com/xvariate/auth-api/internal/validation"
)

// --- DTOs ---

// SignUpRequest defines the account registration request body.
type SignUpRequest struct {
	Body struct {
		Name     string `json:"name" validate:"required,min=2,max=50"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6,max=50"`
		Role     string `json:"role" validate:"required"`
	}
}

// MessageResponse is a plain confirmation body shared by several flows.
type MessageResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// LoginRequest defines the credential login request body. Code is only set
// when answering a two-factor challenge.
type LoginRequest struct {
	Body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Code     string `json:"code,omitempty" validate:"omitempty,len=6,numeric"`
		Role     string `json:"role" validate:"required"`
	}
}

// LoginResponse reports the terminal state of a sign-in attempt. A session
// cookie is only set when Status is "success".
type LoginResponse struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Status     string `json:"status"`
		Message    string `json:"message"`
		RedirectTo string `json:"redirectTo,omitempty"`
	}
}

// SessionRequest reads the session cookie.
type SessionRequest struct {
	Token string `cookie:"session"`
}

// SessionResponse returns the claims behind a valid session. The cookie is
// rotated when validation refreshed the token.
type SessionResponse struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      struct {
		UserID             string `json:"sub"`
		Name               string `json:"name"`
		Email              string `json:"email"`
		Role               string `json:"role"`
		IsTwoFactorEnabled bool   `json:"isTwoFactorEnabled"`
		IsOAuth            bool   `json:"isOAuth"`
	}
}

// LogoutResponse clears the session cookie.
type LogoutResponse struct {
	SetCookie []http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Message string `json:"message"`
	}
}

func newMessageResponse(msg string) *MessageResponse {
	resp := &MessageResponse{}
	resp.Body.Message = msg
	return resp
}

func (h *Handler) loginResponse(result *LoginResult) *LoginResponse {
	resp := &LoginResponse{}
	resp.Body.Status = string(result.Status)
	resp.Body.Message = result.Message
	resp.Body.RedirectTo = result.RedirectTo
	if result.Status == LoginStatusSuccess {
		resp.SetCookie = []http.Cookie{h.sessionCookie(result.SessionToken)}
	}
	return resp
}

// --- Handlers ---

// SignUpHandler handles account registration.
func (h *Handler) SignUpHandler(ctx context.Context, input *SignUpRequest) (*MessageResponse, error) {
	h.logger.Info("handling signup request")

	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	result, err := h.service.SignUp(ctx, SignUpInput{
		Name:     input.Body.Name,
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Role:     input.Body.Role,
	})
	if err != nil {
		h.logger.Warn("signup failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return newMessageResponse(result.Message), nil
}

// LoginHandler handles credential login, including the two-factor round-trip.
func (h *Handler) LoginHandler(ctx context.Context, input *LoginRequest) (*LoginResponse, error) {
	h.logger.Info("handling login request")

	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	result, err := h.service.Login(ctx, LoginInput{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		OTP:      input.Body.Code,
		Role:     input.Body.Role,
	})
	if err != nil {
		h.logger.Warn("login attempt failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return h.loginResponse(result), nil
}

// LogoutHandler clears the session cookie. The token itself simply expires;
// there is no server-side session row to delete.
func (h *Handler) LogoutHandler(ctx context.Context, _ *struct{}) (*LogoutResponse, error) {
	resp := &LogoutResponse{SetCookie: []http.Cookie{h.clearSessionCookie()}}
	resp.Body.Message = "Signed out."
	return resp, nil
}

// SessionHandler validates the session cookie and returns the claims. A
// stale-but-valid token is rotated in place.
func (h *Handler) SessionHandler(ctx context.Context, input *SessionRequest) (*SessionResponse, error) {
	if input.Token == "" {
		return nil, httpx.ToProblem(ctx, ErrInvalidCredentials.WithDetail("Not signed in."))
	}

	claims, rotated, err := h.service.Sessions().Validate(ctx, input.Token)
	if err != nil {
		return nil, httpx.ToProblem(ctx, ErrInvalidCredentials.WithCause(err).WithDetail("Session expired."))
	}

	resp := &SessionResponse{}
	resp.Body.UserID = claims.UserID
	resp.Body.Name = claims.Name
	resp.Body.Email = claims.Email
	resp.Body.Role = string(claims.Role)
	resp.Body.IsTwoFactorEnabled = claims.IsTwoFactorEnabled
	resp.Body.IsOAuth = claims.IsOAuth
	if rotated != "" {
		resp.SetCookie = []http.Cookie{h.sessionCookie(rotated)}
	}
	return resp, nil
}
