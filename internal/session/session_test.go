package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvariate/auth-api/internal/role"
)

type fakeUserSource struct {
	claims map[string]Claims
	err    error
}

func (f *fakeUserSource) SessionClaims(ctx context.Context, userID string) (Claims, error) {
	if f.err != nil {
		return Claims{}, f.err
	}
	return f.claims[userID], nil
}

func testClaims() Claims {
	return Claims{
		UserID:             "user-1",
		Name:               "Ada Lovelace",
		Email:              "ada@example.com",
		Role:               role.Freelancer,
		IsTwoFactorEnabled: true,
		IsOAuth:            false,
	}
}

func newTestManager(users UserSource) (*Manager, *time.Time) {
	m := NewManager("test-secret", Config{}, users)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	m, _ := newTestManager(&fakeUserSource{})

	token, err := m.Issue(testClaims())
	require.NoError(t, err)

	claims, rotated, err := m.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Empty(t, rotated, "fresh token must not rotate")
	assert.Equal(t, testClaims(), claims)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m, _ := newTestManager(&fakeUserSource{})

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, _, err := m.Validate(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidSession, "token %q", token)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	m, _ := newTestManager(&fakeUserSource{})
	other := NewManager("other-secret", Config{}, &fakeUserSource{})

	token, err := other.Issue(testClaims())
	require.NoError(t, err)

	_, _, err = m.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m, now := newTestManager(&fakeUserSource{})

	token, err := m.Issue(testClaims())
	require.NoError(t, err)

	*now = now.Add(7*24*time.Hour + time.Minute)

	_, _, err = m.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestValidateRefreshesStaleClaims(t *testing.T) {
	fresh := testClaims()
	fresh.Role = role.Ambassador
	fresh.IsTwoFactorEnabled = false
	users := &fakeUserSource{claims: map[string]Claims{"user-1": fresh}}
	m, now := newTestManager(users)

	token, err := m.Issue(testClaims())
	require.NoError(t, err)

	// Past the 12h checkpoint but well within the absolute lifetime.
	*now = now.Add(13 * time.Hour)

	claims, rotated, err := m.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated, "stale token must rotate")
	assert.Equal(t, fresh, claims, "claims re-derive from the user store")

	// The rotated token is fresh again and carries the updated claims.
	claims2, rotated2, err := m.Validate(context.Background(), rotated)
	require.NoError(t, err)
	assert.Empty(t, rotated2)
	assert.Equal(t, fresh, claims2)
}

func TestValidateFailsClosedWhenUserGone(t *testing.T) {
	users := &fakeUserSource{claims: map[string]Claims{}}
	m, now := newTestManager(users)

	token, err := m.Issue(testClaims())
	require.NoError(t, err)

	*now = now.Add(13 * time.Hour)

	_, _, err = m.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestValidatePropagatesUserSourceError(t *testing.T) {
	boom := errors.New("store down")
	m, now := newTestManager(&fakeUserSource{err: boom})

	token, err := m.Issue(testClaims())
	require.NoError(t, err)

	*now = now.Add(13 * time.Hour)

	_, _, err = m.Validate(context.Background(), token)
	assert.ErrorIs(t, err, boom)
}
