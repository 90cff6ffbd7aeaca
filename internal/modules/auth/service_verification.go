package auth

import (
	"context"
	"errors"
)

// VerifyEmail redeems a verification token, marks the account verified, and
// signs the user in without a password round-trip.
func (s *service) VerifyEmail(ctx context.Context, tokenValue string) (*LoginResult, error) {
	token, err := s.repo.FindTokenByValue(ctx, TokenKindVerification, tokenValue)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("failed to look up verification token", "error", err)
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
		s.logger.Error("failed to look up user for verification", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if err := s.repo.MarkEmailVerified(ctx, user.ID, s.now()); err != nil {
		s.logger.Error("failed to mark email verified", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if err := s.repo.DeleteTokenByID(ctx, TokenKindVerification, token.ID); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("failed to consume verification token", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if err := s.checkSigninSecrets(); err != nil {
		return nil, err
	}

	result, err := s.issueSession(ctx, user, s.credentialAttempt())
	if err != nil {
		return nil, err
	}
	result.Message = "Email verified successfully!"
	return result, nil
}

// ResendVerification issues a replacement verification token keyed off a
// stale one, so the re-send link in the email keeps working after expiry.
func (s *service) ResendVerification(ctx context.Context, staleToken string) (*MessageResult, error) {
	token, err := s.repo.FindTokenByValue(ctx, TokenKindVerification, staleToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("failed to look up verification token", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	user, err := s.repo.FindUserByEmail(ctx, token.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to look up user for re-verification", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if err := s.issueVerificationToken(ctx, user.Email, user.FirstName()); err != nil {
		return nil, err
	}
	return &MessageResult{Message: "Verification token has been sent."}, nil
}

// PasswordlessSignIn authenticates a trusted server-side caller with shared
// secrets instead of a password, used right after email verification. Two
// factor is not challenged here; the email link already proved mailbox
// control.
func (s *service) PasswordlessSignIn(ctx context.Context, input PasswordlessInput) (*LoginResult, error) {
	if s.config.Auth.NewVerificationSecret == "" {
		return nil, ErrConfig.WithCause(errors.New("new verification secret is missing"))
	}
	if err := s.checkSigninSecrets(); err != nil {
		return nil, err
	}

	if !secretEquals(input.NewVerificationSecret, s.config.Auth.NewVerificationSecret) ||
		!secretEquals(input.ServerSecret, s.config.Auth.ServerSecret) {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user for passwordless sign-in", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if user.PasswordHash == nil {
		return nil, ErrOAuthOnlyAccount
	}

	return s.issueSession(ctx, user, s.credentialAttempt())
}
