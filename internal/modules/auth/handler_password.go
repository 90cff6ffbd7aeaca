package auth

import (
	"context"

	"github.com/xvariate/auth-api/internal/httpx"
	"github.com/xvariate/auth-api/internal/validation"
)

// --- DTOs ---

// RequestPasswordResetRequest starts the reset flow.
type RequestPasswordResetRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

// CompletePasswordResetRequest finalizes the reset with the emailed token.
type CompletePasswordResetRequest struct {
	Body struct {
		Token           string `json:"token" validate:"required"`
		Password        string `json:"password" validate:"required,min=6,max=50"`
		ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	}
}

// CompletePasswordResetResponse confirms the reset and points at the login
// page matching the account's role.
type CompletePasswordResetResponse struct {
	Body struct {
		Message    string `json:"message"`
		RedirectTo string `json:"redirectTo"`
	}
}

// --- Handlers ---

// RequestPasswordResetHandler handles the "forgot password" endpoint. The
// response is identical whether or not the email exists.
func (h *Handler) RequestPasswordResetHandler(ctx context.Context, input *RequestPasswordResetRequest) (*MessageResponse, error) {
	h.logger.Info("handling password reset request")

	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	result, err := h.service.RequestPasswordReset(ctx, input.Body.Email)
	if err != nil {
		h.logger.Error("password reset request failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return newMessageResponse(result.Message), nil
}

// CompletePasswordResetHandler handles the "new password" endpoint.
func (h *Handler) CompletePasswordResetHandler(ctx context.Context, input *CompletePasswordResetRequest) (*CompletePasswordResetResponse, error) {
	h.logger.Info("handling password reset completion")

	if err := validation.ValidateStruct(input.Body); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	result, err := h.service.CompletePasswordReset(ctx, CompleteResetInput{
		Token:           input.Body.Token,
		Password:        input.Body.Password,
		ConfirmPassword: input.Body.ConfirmPassword,
	})
	if err != nil {
		h.logger.Warn("password reset completion failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &CompletePasswordResetResponse{}
	resp.Body.Message = result.Message
	resp.Body.RedirectTo = result.RedirectTo
	return resp, nil
}
