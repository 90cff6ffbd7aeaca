package auth

import (
	"context"
	"errors"
	"fmt"
)

const resetSentMessage = "Check your email for a password reset link."

// RequestPasswordReset starts the reset flow. An unknown email and an
// OAuth-only account both get the same confirmation as a real reset, so the
// endpoint cannot be used to probe which addresses exist.
func (s *service) RequestPasswordReset(ctx context.Context, email string) (*MessageResult, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &MessageResult{Message: resetSentMessage}, nil
		}
		s.logger.Error("failed to look up user for password reset", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if user.PasswordHash == nil {
		return &MessageResult{Message: resetSentMessage}, nil
	}

	token, err := s.repo.UpsertTokenByEmail(ctx, TokenKindPasswordReset, user.Email, generateToken(), s.now().Add(tokenTTL))
	if err != nil {
		s.logger.Error("failed to upsert password reset token", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	link := fmt.Sprintf("%s/new-password?token=%s", s.config.Server.AppURL, token.Value)
	s.notifier.SendPasswordReset(ctx, user.Email, link, user.FirstName())

	return &MessageResult{Message: resetSentMessage}, nil
}

// CompletePasswordReset redeems a reset token and sets the new password.
// Every validation failure happens before any mutation; a rejected attempt
// leaves both the password and the token untouched.
func (s *service) CompletePasswordReset(ctx context.Context, input CompleteResetInput) (*ResetResult, error) {
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	token, err := s.repo.FindTokenByValue(ctx, TokenKindPasswordReset, input.Token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("failed to look up password reset token", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if token.Expired(s.now()) {
		return nil, ErrTokenExpired
	}

	user, err := s.repo.FindUserByEmail(ctx, token.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to look up user for password reset", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash new password", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if err := s.repo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		s.logger.Error("failed to update password", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if err := s.repo.DeleteTokenByID(ctx, TokenKindPasswordReset, token.ID); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("failed to consume password reset token", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	return &ResetResult{
		Message:    "Password updated!",
		RedirectTo: "/login/" + user.Role.Slug(),
	}, nil
}
