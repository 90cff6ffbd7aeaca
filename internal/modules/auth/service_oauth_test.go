package auth

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvariate/auth-api/internal/role"
)

func TestStartOAuth(t *testing.T) {
	f := newFixture()

	result, err := f.svc.StartOAuth(context.Background(), ProviderGoogle, "freelancer")
	require.NoError(t, err)
	assert.Equal(t, role.Freelancer, result.PendingRole)

	parsed, err := url.Parse(result.RedirectURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.NotEmpty(t, q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))

	stored, ok := f.states.states[q.Get("state")]
	require.True(t, ok, "state is persisted for the callback")
	assert.Equal(t, ProviderGoogle, stored.Provider)
	assert.Equal(t, role.Freelancer, stored.Role)
	assert.NotEmpty(t, stored.Verifier)
}

func TestStartOAuthRejectsInvalidRole(t *testing.T) {
	f := newFixture()

	_, err := f.svc.StartOAuth(context.Background(), ProviderGoogle, "ADMIN")
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Empty(t, f.states.states)
}

func TestStartOAuthRejectsUnknownProvider(t *testing.T) {
	f := newFixture()

	_, err := f.svc.StartOAuth(context.Background(), "github", "client")
	assert.ErrorIs(t, err, ErrUnsupportedOAuthProvider)
}

func TestStartOAuthRequiresCredentials(t *testing.T) {
	f := newFixture()
	f.svc.config.Google.ClientID = ""

	_, err := f.svc.StartOAuth(context.Background(), ProviderGoogle, "client")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestCompleteOAuthRejectsUnknownState(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CompleteOAuth(context.Background(), OAuthCallbackInput{
		Provider: ProviderGoogle,
		State:    "never-issued",
		Code:     "code",
	})
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)
}

func TestCompleteOAuthStateIsSingleUse(t *testing.T) {
	f := newFixture()
	start, err := f.svc.StartOAuth(context.Background(), ProviderGoogle, "client")
	require.NoError(t, err)

	parsed, err := url.Parse(start.RedirectURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")

	// A mismatched provider consumes the state without redeeming it.
	_, err = f.svc.CompleteOAuth(context.Background(), OAuthCallbackInput{
		Provider: "github",
		State:    state,
		Code:     "code",
	})
	assert.Error(t, err)

	_, err = f.svc.CompleteOAuth(context.Background(), OAuthCallbackInput{
		Provider: ProviderGoogle,
		State:    state,
		Code:     "code",
	})
	assert.ErrorIs(t, err, ErrOAuthStateInvalid, "a consumed state cannot be replayed")
}

func TestCompleteOAuthRejectsProviderMismatch(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.states.Put(context.Background(), &OAuthState{
		State:    "st-1",
		Provider: ProviderGoogle,
		Verifier: "verifier",
		Role:     role.Client,
	}))

	_, err := f.svc.CompleteOAuth(context.Background(), OAuthCallbackInput{
		Provider: "github",
		State:    "st-1",
		Code:     "code",
	})
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)
}

func TestFindOrCreateOAuthUserCreatesVerifiedUser(t *testing.T) {
	f := newFixture()

	profile := &googleUserInfo{
		ID:    "google-123",
		Email: "new@example.com",
		Name:  "New Person",
		Image: "https://img.example/new.png",
	}
	user, err := f.svc.findOrCreateOAuthUser(context.Background(), ProviderGoogle, profile, role.Ambassador)
	require.NoError(t, err)

	assert.Equal(t, role.Ambassador, user.Role)
	assert.Nil(t, user.PasswordHash)
	require.NotNil(t, user.EmailVerified, "provider-vouched emails are verified immediately")
	require.NotNil(t, user.Image)
	assert.Equal(t, profile.Image, *user.Image)

	account, err := f.repo.FindLinkedAccountByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "google-123", account.ProviderAccountID)
}

func TestFindOrCreateOAuthUserLinksExistingAccount(t *testing.T) {
	f := newFixture()
	existing := f.addUser("cred@example.com", role.Client, false, false)

	profile := &googleUserInfo{ID: "google-9", Email: existing.Email, Name: "Cred User"}
	user, err := f.svc.findOrCreateOAuthUser(context.Background(), ProviderGoogle, profile, role.Freelancer)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, user.ID, "no duplicate account")
	assert.Equal(t, role.Freelancer, user.Role, "first link applies the pending role")
	assert.NotNil(t, user.EmailVerified, "first link confirms the address")

	_, err = f.repo.FindLinkedAccountByUserID(context.Background(), user.ID)
	assert.NoError(t, err)
}

func TestFindOrCreateOAuthUserSecondSignInKeepsRole(t *testing.T) {
	f := newFixture()
	existing := f.addOAuthUser("oauth@example.com", role.Xvariate)

	profile := &googleUserInfo{ID: "google-1", Email: existing.Email, Name: "OAuth User"}
	user, err := f.svc.findOrCreateOAuthUser(context.Background(), ProviderGoogle, profile, role.Client)
	require.NoError(t, err)

	assert.Equal(t, role.Xvariate, user.Role, "pending role only applies on the first link")
}

func TestOAuthSessionMarksIsOAuth(t *testing.T) {
	f := newFixture()
	user := f.addOAuthUser("oauth@example.com", role.Client)

	result, err := f.svc.issueSession(context.Background(), user, signInAttempt{isOAuth: true})
	require.NoError(t, err)

	claims, err := f.claimsOf(result.SessionToken)
	require.NoError(t, err)
	assert.True(t, claims.IsOAuth)
}

func TestIssueSessionGateRejectsForgedCredentialAttempt(t *testing.T) {
	f := newFixture()
	user := f.addUser("user@example.com", role.Client, true, false)

	_, err := f.svc.issueSession(context.Background(), user, signInAttempt{
		credentialProviderSecret: "guessed",
		serverSecret:             "guessed",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
