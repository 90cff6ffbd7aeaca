package auth

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/xvariate/auth-api/internal/role"
)

var userColumns = []string{
	"id", "email", "name", "password_hash", "role",
	"email_verified", "is_two_factor_enabled", "image",
	"created_at", "updated_at",
}

// CreateUser inserts a new user record into the database.
func (r *repository) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		user.ID = id.String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	query, args, err := r.psql.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Email, user.Name, user.PasswordHash, string(user.Role),
			user.EmailVerified, user.IsTwoFactorEnabled, user.Image,
			user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// FindUserByEmail retrieves a user by their email address.
// It returns ErrNotFound if no user is found.
func (r *repository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.findUser(ctx, squirrel.Eq{"email": email})
}

// FindUserByID retrieves a user by their unique ID.
// It returns ErrNotFound if no user is found.
func (r *repository) FindUserByID(ctx context.Context, id string) (*User, error) {
	return r.findUser(ctx, squirrel.Eq{"id": id})
}

func (r *repository) findUser(ctx context.Context, condition squirrel.Sqlizer) (*User, error) {
	query, args, err := r.psql.Select(userColumns...).
		From("users").
		Where(condition).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := pgxscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}

	return &user, nil
}

// UpdateUserPassword sets a new password hash for a user.
func (r *repository) UpdateUserPassword(ctx context.Context, userID string, passwordHash string) error {
	query, args, err := r.psql.Update("users").
		Set("password_hash", passwordHash).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserRole assigns a role to a user, used when an OAuth link applies a
// pending role.
func (r *repository) UpdateUserRole(ctx context.Context, userID string, newRole role.Role) error {
	query, args, err := r.psql.Update("users").
		Set("role", string(newRole)).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkEmailVerified records the instant the user's email was confirmed.
func (r *repository) MarkEmailVerified(ctx context.Context, userID string, at time.Time) error {
	query, args, err := r.psql.Update("users").
		Set("email_verified", at).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateLinkedAccount records an OAuth provider identity for a user.
func (r *repository) CreateLinkedAccount(ctx context.Context, account *LinkedAccount) error {
	if account.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		account.ID = id.String()
	}
	account.CreatedAt = time.Now()

	query, args, err := r.psql.Insert("linked_accounts").
		Columns("id", "user_id", "provider", "provider_account_id", "created_at").
		Values(account.ID, account.UserID, account.Provider, account.ProviderAccountID, account.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// FindLinkedAccountByUserID returns the first linked account for the user.
// It returns ErrNotFound when the user has no OAuth linkage.
func (r *repository) FindLinkedAccountByUserID(ctx context.Context, userID string) (*LinkedAccount, error) {
	query, args, err := r.psql.Select("id", "user_id", "provider", "provider_account_id", "created_at").
		From("linked_accounts").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var account LinkedAccount
	if err := pgxscan.Get(ctx, r.db, &account, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}

	return &account, nil
}
