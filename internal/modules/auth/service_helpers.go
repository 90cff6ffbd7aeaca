package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/xvariate/auth-api/internal/role"
	"github.com/xvariate/auth-api/internal/session"
)

// hashPassword uses bcrypt to generate a hash from a plaintext password.
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// checkPasswordHash compares a plaintext password with a bcrypt hash.
func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// generateToken creates an opaque unique token for verification and password
// reset links.
func generateToken() string {
	return uuid.NewString()
}

// generateOTP creates a random 6-digit numeric code in [100000, 1000000).
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100_000), nil
}

// secretEquals compares two shared secrets in constant time.
func secretEquals(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// checkSigninSecrets verifies that both shared secrets required for session
// issuance are configured. A missing secret is an operator problem, not a
// user one, and aborts the flow before any session work.
func (s *service) checkSigninSecrets() error {
	if s.config.Auth.CredentialProviderSecret == "" {
		return ErrConfig.WithCause(errors.New("credential provider secret is missing"))
	}
	if s.config.Auth.ServerSecret == "" {
		return ErrConfig.WithCause(errors.New("server secret is missing"))
	}
	return nil
}

// signInAttempt is the out-of-band proof handed to the session-issuance
// boundary: it carries the shared secrets so issueSession can assert the
// request passed through the state machine instead of being forged directly.
type signInAttempt struct {
	credentialProviderSecret string
	serverSecret             string
	isOAuth                  bool
}

// credentialAttempt builds the proof for a credential-based sign-in using
// the configured secrets.
func (s *service) credentialAttempt() signInAttempt {
	return signInAttempt{
		credentialProviderSecret: s.config.Auth.CredentialProviderSecret,
		serverSecret:             s.config.Auth.ServerSecret,
	}
}

// issueSession is the session-issuance boundary. It re-checks the shared
// secrets carried on the attempt (the sign-in gate), enriches the verified
// identity into claims, and mints the session token.
//
// Credential attempts must present both matching secrets; OAuth attempts
// always pass the gate. A gate failure surfaces as a credential rejection so
// a forged direct call cannot learn which check it tripped.
func (s *service) issueSession(ctx context.Context, user *User, attempt signInAttempt) (*LoginResult, error) {
	if !attempt.isOAuth {
		if !secretEquals(attempt.credentialProviderSecret, s.config.Auth.CredentialProviderSecret) {
			return nil, ErrInvalidCredentials
		}
		if !secretEquals(attempt.serverSecret, s.config.Auth.ServerSecret) {
			return nil, ErrInvalidCredentials
		}
	}

	claims, err := s.claimsFor(ctx, user)
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	token, err := s.sessions.Issue(claims)
	if err != nil {
		s.logger.Error("failed to issue session token", "user_id", user.ID, "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	return &LoginResult{
		Status:       LoginStatusSuccess,
		Message:      "Successfully signed in!",
		SessionToken: token,
		RedirectTo:   role.DefaultDashboard(user.Role),
		Claims:       claims,
	}, nil
}

// claimsFor enriches a verified user into session claims. isOAuth is derived
// from the presence of at least one linked provider account.
func (s *service) claimsFor(ctx context.Context, user *User) (session.Claims, error) {
	isOAuth := false
	if _, err := s.repo.FindLinkedAccountByUserID(ctx, user.ID); err == nil {
		isOAuth = true
	} else if !errors.Is(err, ErrNotFound) {
		return session.Claims{}, err
	}

	return session.Claims{
		UserID:             user.ID,
		Name:               user.Name,
		Email:              user.Email,
		Role:               user.Role,
		IsTwoFactorEnabled: user.IsTwoFactorEnabled,
		IsOAuth:            isOAuth,
	}, nil
}

// SessionClaims implements session.UserSource. A vanished user yields zero
// claims with no error so the session manager can fail closed.
func (s *service) SessionClaims(ctx context.Context, userID string) (session.Claims, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return session.Claims{}, nil
		}
		return session.Claims{}, ErrInternal.WithCause(err)
	}
	return s.claimsFor(ctx, user)
}

// issueVerificationToken replaces any live verification token for the email
// and dispatches the verification notification.
func (s *service) issueVerificationToken(ctx context.Context, email, firstName string) error {
	token, err := s.repo.UpsertTokenByEmail(ctx, TokenKindVerification, email, generateToken(), s.now().Add(tokenTTL))
	if err != nil {
		s.logger.Error("failed to upsert verification token", "error", err)
		return ErrInternal.WithCause(err)
	}

	link := fmt.Sprintf("%s/new-verification?token=%s", s.config.Server.AppURL, token.Value)
	s.notifier.SendVerification(ctx, email, link, firstName)
	return nil
}
