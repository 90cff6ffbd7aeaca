package auth

import (
	"context"

	"github.com/xvariate/auth-api/internal/httpx"
	"github.com/xvariate/auth-api/internal/validation"
)

// --- DTOs ---

// VerifyEmailRequest carries the verification token from the emailed link.
type VerifyEmailRequest struct {
	Body struct {
		Token string `json:"token" validate:"required"`
	}
}

// ResendVerificationRequest carries the stale token from the emailed link.
type ResendVerificationRequest struct {
	Body struct {
		Token string `json:"token" validate:"required"`
	}
}

// PasswordlessRequest signs in a user server-to-server with shared secrets
// instead of a password. The secrets travel in headers so they stay out of
// request body logs.
type PasswordlessRequest struct {
	NewVerificationSecret string `header:"X-New-Verification-Secret"`
	ServerSecret          string `header:"X-Server-Secret"`
	Body                  struct {
		Email string `json:"email" validate:"required,email"`
	}
}

// --- Handlers ---

// VerifyEmailHandler redeems a verification token and signs the user in.
func (h *Handler) VerifyEmailHandler(ctx context.Context, input *VerifyEmailRequest) (*LoginResponse, error) {
	h.logger.Info("handling email verification request")

	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	result, err := h.service.VerifyEmail(ctx, input.Body.Token)
	if err != nil {
		h.logger.Warn("email verification failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return h.loginResponse(result), nil
}

// ResendVerificationHandler issues a replacement verification token.
func (h *Handler) ResendVerificationHandler(ctx context.Context, input *ResendVerificationRequest) (*MessageResponse, error) {
	h.logger.Info("handling verification re-send request")

	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	result, err := h.service.ResendVerification(ctx, input.Body.Token)
	if err != nil {
		h.logger.Warn("verification re-send failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return newMessageResponse(result.Message), nil
}

// PasswordlessHandler signs in a verified user with shared secrets.
func (h *Handler) PasswordlessHandler(ctx context.Context, input *PasswordlessRequest) (*LoginResponse, error) {
	h.logger.Info("handling passwordless sign-in request")

	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	result, err := h.service.PasswordlessSignIn(ctx, PasswordlessInput{
		Email:                 input.Body.Email,
		NewVerificationSecret: input.NewVerificationSecret,
		ServerSecret:          input.ServerSecret,
	})
	if err != nil {
		h.logger.Warn("passwordless sign-in failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return h.loginResponse(result), nil
}
