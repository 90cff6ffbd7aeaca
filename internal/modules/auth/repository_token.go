package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// tokenTable maps a token kind to its table and value column. The three
// tables share the {email unique, value, expires} shape.
func tokenTable(kind TokenKind) (table, valueColumn string, err error) {
	switch kind {
	case TokenKindVerification:
		return "verification_tokens", "token", nil
	case TokenKindPasswordReset:
		return "password_reset_tokens", "token", nil
	case TokenKindTwoFactorOTP:
		return "two_factor_otps", "otp", nil
	default:
		return "", "", fmt.Errorf("unknown token kind: %q", kind)
	}
}

// FindTokenByEmail retrieves the live token of the given kind for an email.
func (r *repository) FindTokenByEmail(ctx context.Context, kind TokenKind, email string) (*Token, error) {
	return r.findToken(ctx, kind, squirrel.Eq{"email": email})
}

// FindTokenByValue retrieves a token of the given kind by its opaque value.
func (r *repository) FindTokenByValue(ctx context.Context, kind TokenKind, value string) (*Token, error) {
	_, valueColumn, err := tokenTable(kind)
	if err != nil {
		return nil, err
	}
	return r.findToken(ctx, kind, squirrel.Eq{valueColumn: value})
}

func (r *repository) findToken(ctx context.Context, kind TokenKind, condition squirrel.Sqlizer) (*Token, error) {
	table, valueColumn, err := tokenTable(kind)
	if err != nil {
		return nil, err
	}

	query, args, err := r.psql.Select("id", "email", valueColumn+" AS value", "expires").
		From(table).
		Where(condition).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var token Token
	if err := pgxscan.Get(ctx, r.db, &token, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}

	return &token, nil
}

// UpsertTokenByEmail creates or replaces the live token for an email.
// The replace-if-exists is atomic at the storage layer via the unique email
// constraint, preserving the single-live-token invariant under concurrency.
func (r *repository) UpsertTokenByEmail(ctx context.Context, kind TokenKind, email, value string, expires time.Time) (*Token, error) {
	table, valueColumn, err := tokenTable(kind)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	query, args, err := r.psql.Insert(table).
		Columns("id", "email", valueColumn, "expires").
		Values(id.String(), email, value, expires).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (email) DO UPDATE SET %s = EXCLUDED.%s, expires = EXCLUDED.expires RETURNING id",
			valueColumn, valueColumn,
		)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rowID string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&rowID); err != nil {
		return nil, err
	}

	return &Token{ID: rowID, Email: email, Value: value, Expires: expires}, nil
}

// DeleteTokenByID removes a consumed or superseded token.
func (r *repository) DeleteTokenByID(ctx context.Context, kind TokenKind, id string) error {
	table, _, err := tokenTable(kind)
	if err != nil {
		return err
	}

	query, args, err := r.psql.Delete(table).
		Where(squirrel.Eq{"id": id}).
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

// CreateConfirmation records that 2FA was satisfied for the user's current
// sign-in attempt.
func (r *repository) CreateConfirmation(ctx context.Context, userID string) (*TwoFactorConfirmation, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	confirmation := &TwoFactorConfirmation{
		ID:        id.String(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	query, args, err := r.psql.Insert("two_factor_confirmations").
		Columns("id", "user_id", "created_at").
		Values(confirmation.ID, confirmation.UserID, confirmation.CreatedAt).
		ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return nil, err
	}
	return confirmation, nil
}

// DeleteConfirmation removes a prior confirmation.
func (r *repository) DeleteConfirmation(ctx context.Context, id string) error {
	query, args, err := r.psql.Delete("two_factor_confirmations").
		Where(squirrel.Eq{"id": id}).
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

// FindConfirmationByUserID returns the live confirmation for a user, or
// ErrNotFound when none exists.
func (r *repository) FindConfirmationByUserID(ctx context.Context, userID string) (*TwoFactorConfirmation, error) {
	query, args, err := r.psql.Select("id", "user_id", "created_at").
		From("two_factor_confirmations").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var confirmation TwoFactorConfirmation
	if err := pgxscan.Get(ctx, r.db, &confirmation, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}

	return &confirmation, nil
}
