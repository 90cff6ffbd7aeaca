package auth

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/xvariate/auth-api/internal/database"
	"github.com/xvariate/auth-api/internal/role"
)

// Repository defines the storage boundary for the auth module: the user store
// and the token store. The upsert operations rely on unique-email constraints
// so the single-live-token invariant holds under concurrent requests.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	UpdateUserPassword(ctx context.Context, userID string, passwordHash string) error
	UpdateUserRole(ctx context.Context, userID string, r role.Role) error
	MarkEmailVerified(ctx context.Context, userID string, at time.Time) error

	// Linked OAuth accounts
	CreateLinkedAccount(ctx context.Context, account *LinkedAccount) error
	FindLinkedAccountByUserID(ctx context.Context, userID string) (*LinkedAccount, error)

	// Single-use tokens (verification, password reset, two-factor OTP)
	FindTokenByEmail(ctx context.Context, kind TokenKind, email string) (*Token, error)
	FindTokenByValue(ctx context.Context, kind TokenKind, value string) (*Token, error)
	UpsertTokenByEmail(ctx context.Context, kind TokenKind, email, value string, expires time.Time) (*Token, error)
	DeleteTokenByID(ctx context.Context, kind TokenKind, id string) error

	// Two-factor confirmations
	CreateConfirmation(ctx context.Context, userID string) (*TwoFactorConfirmation, error)
	DeleteConfirmation(ctx context.Context, id string) error
	FindConfirmationByUserID(ctx context.Context, userID string) (*TwoFactorConfirmation, error)
}

// repository implements the Repository interface using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a new auth repository with the given database connection.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}
