package auth

import (
	"context"
	"errors"

	"github.com/xvariate/auth-api/internal/role"
)

// Login runs the credential sign-in state machine. It can terminate in three
// non-error states: a fresh verification email for unverified accounts, a
// two-factor challenge, or an issued session.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if _, ok := role.Parse(input.Role); !ok {
		return nil, ErrInvalidRole
	}

	user, err := s.repo.FindUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user for login", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if user.PasswordHash == nil {
		return nil, ErrOAuthOnlyAccount
	}

	// Unverified accounts never reach the password check. A login attempt
	// re-arms the verification flow instead.
	if user.EmailVerified == nil {
		if err := s.issueVerificationToken(ctx, user.Email, user.FirstName()); err != nil {
			return nil, err
		}
		return &LoginResult{
			Status:  LoginStatusPendingVerification,
			Message: "Confirmation email sent!",
		}, nil
	}

	if err := s.checkSigninSecrets(); err != nil {
		return nil, err
	}

	if !checkPasswordHash(input.Password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if user.IsTwoFactorEnabled {
		if input.OTP == "" {
			return s.startTwoFactorChallenge(ctx, user)
		}
		if err := s.settleTwoFactorChallenge(ctx, user, input.OTP); err != nil {
			return nil, err
		}
	}

	return s.issueSession(ctx, user, s.credentialAttempt())
}

// startTwoFactorChallenge mints a fresh OTP, replacing any live one for the
// email, and mails it out.
func (s *service) startTwoFactorChallenge(ctx context.Context, user *User) (*LoginResult, error) {
	otp, err := generateOTP()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	if _, err := s.repo.UpsertTokenByEmail(ctx, TokenKindTwoFactorOTP, user.Email, otp, s.now().Add(tokenTTL)); err != nil {
		s.logger.Error("failed to upsert two-factor code", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	s.notifier.SendTwoFactorOTP(ctx, user.Email, otp)

	return &LoginResult{
		Status:  LoginStatusAwaitingOTP,
		Message: "Two-factor code sent!",
	}, nil
}

// settleTwoFactorChallenge verifies the submitted code against the live OTP,
// consumes it, and replaces any prior confirmation with a fresh one.
func (s *service) settleTwoFactorChallenge(ctx context.Context, user *User, otp string) error {
	token, err := s.repo.FindTokenByEmail(ctx, TokenKindTwoFactorOTP, user.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidOTP
		}
		s.logger.Error("failed to look up two-factor code", "error", err)
		return ErrInternal.WithCause(err)
	}
	if token.Value != otp {
		return ErrInvalidOTP
	}
	if token.Expired(s.now()) {
		return ErrOTPExpired
	}

	if err := s.repo.DeleteTokenByID(ctx, TokenKindTwoFactorOTP, token.ID); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("failed to consume two-factor code", "error", err)
		return ErrInternal.WithCause(err)
	}

	if existing, err := s.repo.FindConfirmationByUserID(ctx, user.ID); err == nil {
		if err := s.repo.DeleteConfirmation(ctx, existing.ID); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to replace two-factor confirmation", "error", err)
			return ErrInternal.WithCause(err)
		}
	} else if !errors.Is(err, ErrNotFound) {
		s.logger.Error("failed to look up two-factor confirmation", "error", err)
		return ErrInternal.WithCause(err)
	}

	if _, err := s.repo.CreateConfirmation(ctx, user.ID); err != nil {
		s.logger.Error("failed to record two-factor confirmation", "error", err)
		return ErrInternal.WithCause(err)
	}
	return nil
}
