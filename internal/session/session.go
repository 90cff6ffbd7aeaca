// Package session mints and validates the signed session token carried by the
// client. The token encodes the verified identity plus role and flag
// enrichment; it is the only session state this service keeps.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xvariate/auth-api/internal/role"
)

var (
	// ErrInvalidSession covers malformed, tampered, or expired tokens.
	ErrInvalidSession = errors.New("invalid or expired session")

	// ErrSessionRevoked is returned when a stale token is refreshed and the
	// underlying user no longer exists. Callers must treat this as a logout.
	ErrSessionRevoked = errors.New("session revoked")
)

// Claims is the enriched identity encoded in the session token.
type Claims struct {
	UserID             string    `json:"sub"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               role.Role `json:"role"`
	IsTwoFactorEnabled bool      `json:"isTwoFactorEnabled"`
	IsOAuth            bool      `json:"isOAuth"`
}

// IsZero reports whether the claims carry no identity.
func (c Claims) IsZero() bool { return c.UserID == "" }

// UserSource re-derives session claims for a user ID during refresh.
// The auth module implements this; a "not found" user must surface as
// (zero Claims, nil) so the manager can fail closed.
type UserSource interface {
	SessionClaims(ctx context.Context, userID string) (Claims, error)
}

// Config controls token lifetimes.
type Config struct {
	// AbsoluteTTL is the maximum session lifetime. Default: 7 days.
	AbsoluteTTL time.Duration

	// RefreshAfter is the age past which claims are re-derived from the user
	// store on validation. Default: 12 hours.
	RefreshAfter time.Duration
}

// Manager issues and validates session tokens.
type Manager struct {
	secret []byte
	cfg    Config
	users  UserSource
	now    func() time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	IsTwoFactorEnabled bool   `json:"isTwoFactorEnabled"`
	IsOAuth            bool   `json:"isOAuth"`
}

// NewManager creates a session manager signing with the given secret.
func NewManager(secret string, cfg Config, users UserSource) *Manager {
	if cfg.AbsoluteTTL == 0 {
		cfg.AbsoluteTTL = 7 * 24 * time.Hour
	}
	if cfg.RefreshAfter == 0 {
		cfg.RefreshAfter = 12 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		cfg:    cfg,
		users:  users,
		now:    time.Now,
	}
}

// AbsoluteTTL exposes the maximum session lifetime, used to bound the
// session cookie's Max-Age.
func (m *Manager) AbsoluteTTL() time.Duration {
	return m.cfg.AbsoluteTTL
}

// Issue mints a signed session token from the given claims.
func (m *Manager) Issue(claims Claims) (string, error) {
	now := m.now()
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.AbsoluteTTL)),
		},
		Name:               claims.Name,
		Email:              claims.Email,
		Role:               string(claims.Role),
		IsTwoFactorEnabled: claims.IsTwoFactorEnabled,
		IsOAuth:            claims.IsOAuth,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	return token.SignedString(m.secret)
}

// Validate parses and verifies a session token. When the token is older than
// the refresh checkpoint, claims are re-derived from the user store and a
// rotated token is returned alongside the fresh claims; refreshed contains
// the new token or "" when no rotation happened.
//
// If the user behind a stale token no longer exists, Validate returns
// ErrSessionRevoked with zero claims: the session fails closed instead of
// outliving its user.
func (m *Manager) Validate(ctx context.Context, tokenString string) (Claims, string, error) {
	tc := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, tc, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return Claims{}, "", ErrInvalidSession
	}

	claims := Claims{
		UserID:             tc.Subject,
		Name:               tc.Name,
		Email:              tc.Email,
		Role:               role.Role(tc.Role),
		IsTwoFactorEnabled: tc.IsTwoFactorEnabled,
		IsOAuth:            tc.IsOAuth,
	}

	if tc.IssuedAt == nil || m.now().Sub(tc.IssuedAt.Time) < m.cfg.RefreshAfter {
		return claims, "", nil
	}

	// Past the checkpoint: re-derive claims so role/flag changes propagate.
	fresh, err := m.users.SessionClaims(ctx, claims.UserID)
	if err != nil {
		return Claims{}, "", err
	}
	if fresh.IsZero() {
		return Claims{}, "", ErrSessionRevoked
	}

	rotated, err := m.Issue(fresh)
	if err != nil {
		return Claims{}, "", err
	}
	return fresh, rotated, nil
}
