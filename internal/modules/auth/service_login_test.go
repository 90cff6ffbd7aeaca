package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvariate/auth-api/internal/role"
)

func TestLoginRejectsInvalidRoleBeforeLookup(t *testing.T) {
	f := newFixture()
	f.addUser("user@example.com", role.Client, true, false)
	f.repo.userLookups = 0

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: testPassword,
		Role:     "ADMIN",
	})

	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Zero(t, f.repo.userLookups, "role must be checked before any storage access")
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "ghost@example.com",
		Password: testPassword,
		Role:     "client",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginOAuthOnlyAccount(t *testing.T) {
	f := newFixture()
	f.addOAuthUser("federated@example.com", role.Client)

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "federated@example.com",
		Password: testPassword,
		Role:     "client",
	})

	assert.ErrorIs(t, err, ErrOAuthOnlyAccount)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture()
	f.addUser("user@example.com", role.Client, true, false)

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "wrong",
		Role:     "client",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnverifiedEmailReArmsVerification(t *testing.T) {
	f := newFixture()
	user := f.addUser("fresh@example.com", role.Freelancer, false, false)

	result, err := f.svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: "does-not-matter-yet",
		Role:     "freelancer",
	})

	require.NoError(t, err)
	assert.Equal(t, LoginStatusPendingVerification, result.Status)
	assert.Empty(t, result.SessionToken, "no session before verification")

	token, err := f.repo.FindTokenByEmail(context.Background(), TokenKindVerification, user.Email)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(tokenTTL), token.Expires)

	require.Len(t, f.notifier.verifications, 1)
	assert.Equal(t, user.Email, f.notifier.verifications[0].email)
	assert.Contains(t, f.notifier.verifications[0].link, "/new-verification?token="+token.Value)
}

func TestLoginSuccessIssuesSession(t *testing.T) {
	f := newFixture()
	user := f.addUser("user@example.com", role.Ambassador, true, false)

	result, err := f.svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: testPassword,
		Role:     "ambassador",
	})

	require.NoError(t, err)
	assert.Equal(t, LoginStatusSuccess, result.Status)
	assert.Equal(t, "Successfully signed in!", result.Message)
	assert.Equal(t, "/ambassador", result.RedirectTo)

	claims, err := f.claimsOf(result.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, role.Ambassador, claims.Role)
	assert.False(t, claims.IsOAuth)
}

func TestLoginFailsWhenSecretsMissing(t *testing.T) {
	f := newFixture()
	user := f.addUser("user@example.com", role.Client, true, false)
	f.svc.config.Auth.ServerSecret = ""

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: testPassword,
		Role:     "client",
	})

	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoginTwoFactorChallenge(t *testing.T) {
	f := newFixture()
	user := f.addUser("2fa@example.com", role.Client, true, true)

	// First attempt without a code starts the challenge.
	result, err := f.svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: testPassword,
		Role:     "client",
	})
	require.NoError(t, err)
	assert.Equal(t, LoginStatusAwaitingOTP, result.Status)
	assert.Empty(t, result.SessionToken)

	require.Len(t, f.notifier.otps, 1)
	otp := f.notifier.otps[0].otp
	assert.Len(t, otp, 6)

	stored, err := f.repo.FindTokenByEmail(context.Background(), TokenKindTwoFactorOTP, user.Email)
	require.NoError(t, err)
	assert.Equal(t, otp, stored.Value)

	// Second attempt with the emailed code completes the sign-in.
	result, err = f.svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: testPassword,
		OTP:      otp,
		Role:     "client",
	})
	require.NoError(t, err)
	assert.Equal(t, LoginStatusSuccess, result.Status)
	assert.NotEmpty(t, result.SessionToken)

	// The code is consumed and a confirmation recorded.
	_, err = f.repo.FindTokenByEmail(context.Background(), TokenKindTwoFactorOTP, user.Email)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.repo.FindConfirmationByUserID(context.Background(), user.ID)
	assert.NoError(t, err)
}

func TestLoginTwoFactorWrongCode(t *testing.T) {
	f := newFixture()
	user := f.addUser("2fa@example.com", role.Client, true, true)
	_, err := f.repo.UpsertTokenByEmail(context.Background(), TokenKindTwoFactorOTP, user.Email, "123456", f.now.Add(tokenTTL))
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: testPassword,
		OTP:      "654321",
		Role:     "client",
	})
	assert.ErrorIs(t, err, ErrInvalidOTP)

	// The stored code survives a wrong guess.
	_, err = f.repo.FindTokenByEmail(context.Background(), TokenKindTwoFactorOTP, user.Email)
	assert.NoError(t, err)
}

func TestLoginTwoFactorExpiredCode(t *testing.T) {
	f := newFixture()
	user := f.addUser("2fa@example.com", role.Client, true, true)
	_, err := f.repo.UpsertTokenByEmail(context.Background(), TokenKindTwoFactorOTP, user.Email, "123456", f.now.Add(-time.Second))
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: testPassword,
		OTP:      "123456",
		Role:     "client",
	})
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestLoginTwoFactorCodeWithoutChallenge(t *testing.T) {
	f := newFixture()
	user := f.addUser("2fa@example.com", role.Client, true, true)

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    user.Email,
		Password: testPassword,
		OTP:      "123456",
		Role:     "client",
	})
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestLoginTwoFactorReplacesConfirmation(t *testing.T) {
	f := newFixture()
	user := f.addUser("2fa@example.com", role.Client, true, true)

	signIn := func() {
		t.Helper()
		_, err := f.svc.Login(context.Background(), LoginInput{
			Email: user.Email, Password: testPassword, Role: "client",
		})
		require.NoError(t, err)
		otp := f.notifier.otps[len(f.notifier.otps)-1].otp
		_, err = f.svc.Login(context.Background(), LoginInput{
			Email: user.Email, Password: testPassword, OTP: otp, Role: "client",
		})
		require.NoError(t, err)
	}

	signIn()
	first, err := f.repo.FindConfirmationByUserID(context.Background(), user.ID)
	require.NoError(t, err)

	signIn()
	second, err := f.repo.FindConfirmationByUserID(context.Background(), user.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "a new sign-in replaces the prior confirmation")
	assert.Len(t, f.repo.confirmations, 1, "at most one live confirmation per user")
}

func TestLoginRepeatedChallengeReplacesOTP(t *testing.T) {
	f := newFixture()
	user := f.addUser("2fa@example.com", role.Client, true, true)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(context.Background(), LoginInput{
			Email: user.Email, Password: testPassword, Role: "client",
		})
		require.NoError(t, err)
	}

	require.Len(t, f.notifier.otps, 2)
	stored, err := f.repo.FindTokenByEmail(context.Background(), TokenKindTwoFactorOTP, user.Email)
	require.NoError(t, err)
	assert.Equal(t, f.notifier.otps[1].otp, stored.Value, "only the latest code is live")
	assert.Len(t, f.repo.tokens[TokenKindTwoFactorOTP], 1)
}
