package auth

import (
	"time"

	"github.com/xvariate/auth-api/internal/role"
)

// User is the identity record at the heart of every flow.
// PasswordHash is nil for OAuth-only accounts; such accounts can never pass
// the credential-compare path. EmailVerified is nil until the address has
// been confirmed.
type User struct {
	ID                 string     `db:"id"`
	Email              string     `db:"email"`
	Name               string     `db:"name"`
	PasswordHash       *string    `db:"password_hash"`
	Role               role.Role  `db:"role"`
	EmailVerified      *time.Time `db:"email_verified"`
	IsTwoFactorEnabled bool       `db:"is_two_factor_enabled"`
	Image              *string    `db:"image"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// FirstName returns the leading segment of the user's name, used to
// personalize notification emails.
func (u *User) FirstName() string {
	for i := 0; i < len(u.Name); i++ {
		if u.Name[i] == ' ' {
			return u.Name[:i]
		}
	}
	return u.Name
}

// LinkedAccount associates a user with an external OAuth provider identity.
// The existence of at least one record implies isOAuth for session claims.
type LinkedAccount struct {
	ID                string    `db:"id"`
	UserID            string    `db:"user_id"`
	Provider          string    `db:"provider"`
	ProviderAccountID string    `db:"provider_account_id"`
	CreatedAt         time.Time `db:"created_at"`
}

// TokenKind selects one of the three single-use token tables. All three share
// the {email, value, expires} shape and upsert-by-email semantics.
type TokenKind string

const (
	TokenKindVerification  TokenKind = "verification"
	TokenKindPasswordReset TokenKind = "password_reset"
	TokenKindTwoFactorOTP  TokenKind = "two_factor_otp"
)

// Token is a single-use secret bound to an email with an expiry. At most one
// live token of each kind exists per email; issuing a new one replaces any
// prior one.
type Token struct {
	ID      string    `db:"id"`
	Email   string    `db:"email"`
	Value   string    `db:"value"`
	Expires time.Time `db:"expires"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.Expires)
}

// TwoFactorConfirmation marks that 2FA was satisfied for the user's current
// sign-in attempt. At most one live confirmation exists per user.
type TwoFactorConfirmation struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// OAuthState is the short-lived CSRF state persisted while an OAuth redirect
// round-trips through the provider. It expires after five minutes, bounding
// how long a partially-completed link can wait for the callback.
type OAuthState struct {
	State    string    `json:"state"`
	Provider string    `json:"provider"`
	Verifier string    `json:"verifier"`
	Role     role.Role `json:"role"`
}
