package auth

import (
	"context"
	"errors"

	"github.com/xvariate/auth-api/internal/role"
)

// SignUp registers a credential-based account and sends the verification
// email. The role is checked before any storage work so an invalid role never
// leaks whether the email is taken.
func (s *service) SignUp(ctx context.Context, input SignUpInput) (*MessageResult, error) {
	newRole, ok := role.Parse(input.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	if _, err := s.repo.FindUserByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		s.logger.Error("failed to check email availability", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	user := &User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: &hash,
		Role:         newRole,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		s.logger.Error("failed to create user", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if err := s.issueVerificationToken(ctx, user.Email, user.FirstName()); err != nil {
		return nil, err
	}

	return &MessageResult{Message: "Please check your email to verify your account."}, nil
}
