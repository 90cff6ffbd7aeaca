package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/xvariate/auth-api/internal/config"
	"github.com/xvariate/auth-api/internal/notification"
	"github.com/xvariate/auth-api/internal/role"
	"github.com/xvariate/auth-api/internal/session"
)

// tokenTTL is the lifetime of verification tokens, password reset tokens and
// two-factor OTPs.
const tokenTTL = 5 * time.Minute

// --- Inputs ---

// SignUpInput carries a validated sign-up request.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginInput carries a credential sign-in attempt. OTP is empty unless the
// caller is answering a two-factor challenge.
type LoginInput struct {
	Email    string
	Password string
	OTP      string
	Role     string
}

// OAuthCallbackInput carries the provider callback parameters plus the
// pending-role cookie value ("" when the cookie is absent or expired).
type OAuthCallbackInput struct {
	Provider    string
	State       string
	Code        string
	PendingRole string
}

// PasswordlessInput authenticates the re-verification sign-in path with
// shared secrets instead of a password.
type PasswordlessInput struct {
	Email                 string
	NewVerificationSecret string
	ServerSecret          string
}

// CompleteResetInput finalizes a password reset.
type CompleteResetInput struct {
	Token           string
	Password        string
	ConfirmPassword string
}

// --- Results ---

// LoginStatus is the terminal state of a sign-in attempt that did not fail.
type LoginStatus string

const (
	// LoginStatusSuccess means a session was issued.
	LoginStatusSuccess LoginStatus = "success"

	// LoginStatusPendingVerification means the email is unverified; a fresh
	// verification link was sent. Not an error.
	LoginStatusPendingVerification LoginStatus = "pending_verification"

	// LoginStatusAwaitingOTP means credentials checked out but the caller
	// must re-submit with the emailed two-factor code.
	LoginStatusAwaitingOTP LoginStatus = "awaiting_otp"
)

// LoginResult is the outcome of any flow that can end in a session.
type LoginResult struct {
	Status       LoginStatus
	Message      string
	SessionToken string
	RedirectTo   string
	Claims       session.Claims
}

// MessageResult carries a plain user-facing confirmation.
type MessageResult struct {
	Message string
}

// ResetResult carries the reset confirmation and a role-derived login path.
type ResetResult struct {
	Message    string
	RedirectTo string
}

// OAuthStartResult tells the handler where to redirect and which role to pin
// in the pending-role cookie for the duration of the provider round-trip.
type OAuthStartResult struct {
	RedirectURL string
	PendingRole role.Role
}

// Service defines the auth module's business logic: the sign-in state
// machine and its satellite flows.
type Service interface {
	SignUp(ctx context.Context, input SignUpInput) (*MessageResult, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	StartOAuth(ctx context.Context, provider, rawRole string) (*OAuthStartResult, error)
	CompleteOAuth(ctx context.Context, input OAuthCallbackInput) (*LoginResult, error)
	VerifyEmail(ctx context.Context, token string) (*LoginResult, error)
	ResendVerification(ctx context.Context, staleToken string) (*MessageResult, error)
	RequestPasswordReset(ctx context.Context, email string) (*MessageResult, error)
	CompletePasswordReset(ctx context.Context, input CompleteResetInput) (*ResetResult, error)
	PasswordlessSignIn(ctx context.Context, input PasswordlessInput) (*LoginResult, error)

	// SessionClaims implements session.UserSource for claim refresh.
	SessionClaims(ctx context.Context, userID string) (session.Claims, error)

	// Sessions exposes the session manager for the route guard.
	Sessions() *session.Manager
}

// service implements the Service interface.
type service struct {
	repo     Repository
	states   StateStore
	notifier notification.Service
	sessions *session.Manager
	logger   *slog.Logger
	config   *config.Config
	now      func() time.Time
}

// Config holds the dependencies for the auth service.
type Config struct {
	Repo     Repository
	States   StateStore
	Notifier notification.Service
	Logger   *slog.Logger
	Config   *config.Config
	Session  session.Config
}

// NewService creates a new auth service with the given dependencies. The
// session manager is created here so claim refresh re-derives through this
// service's user store.
func NewService(cfg *Config) Service {
	s := &service{
		repo:     cfg.Repo,
		states:   cfg.States,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		config:   cfg.Config,
		now:      time.Now,
	}
	s.sessions = session.NewManager(cfg.Config.Auth.SessionSecret, cfg.Session, s)
	return s
}

func (s *service) Sessions() *session.Manager {
	return s.sessions
}
