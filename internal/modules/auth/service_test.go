package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/xvariate/auth-api/internal/config"
	"github.com/xvariate/auth-api/internal/role"
	"github.com/xvariate/auth-api/internal/session"
)

// --- In-memory repository ---

type fakeRepo struct {
	users         map[string]*User                  // by ID
	accounts      map[string]*LinkedAccount         // by user ID
	tokens        map[TokenKind]map[string]*Token   // by email
	confirmations map[string]*TwoFactorConfirmation // by user ID
	seq           int

	userLookups int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[string]*User),
		accounts: make(map[string]*LinkedAccount),
		tokens: map[TokenKind]map[string]*Token{
			TokenKindVerification:  {},
			TokenKindPasswordReset: {},
			TokenKindTwoFactorOTP:  {},
		},
		confirmations: make(map[string]*TwoFactorConfirmation),
	}
}

func (r *fakeRepo) nextID() string {
	r.seq++
	return fmt.Sprintf("id-%d", r.seq)
}

func (r *fakeRepo) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = r.nextID()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeRepo) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	r.userLookups++
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) FindUserByID(ctx context.Context, id string) (*User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) UpdateUserPassword(ctx context.Context, userID string, hash string) error {
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = &hash
	return nil
}

func (r *fakeRepo) UpdateUserRole(ctx context.Context, userID string, newRole role.Role) error {
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Role = newRole
	return nil
}

func (r *fakeRepo) MarkEmailVerified(ctx context.Context, userID string, at time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.EmailVerified = &at
	return nil
}

func (r *fakeRepo) CreateLinkedAccount(ctx context.Context, account *LinkedAccount) error {
	if account.ID == "" {
		account.ID = r.nextID()
	}
	r.accounts[account.UserID] = account
	return nil
}

func (r *fakeRepo) FindLinkedAccountByUserID(ctx context.Context, userID string) (*LinkedAccount, error) {
	if a, ok := r.accounts[userID]; ok {
		return a, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) FindTokenByEmail(ctx context.Context, kind TokenKind, email string) (*Token, error) {
	if t, ok := r.tokens[kind][email]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) FindTokenByValue(ctx context.Context, kind TokenKind, value string) (*Token, error) {
	for _, t := range r.tokens[kind] {
		if t.Value == value {
			return t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) UpsertTokenByEmail(ctx context.Context, kind TokenKind, email, value string, expires time.Time) (*Token, error) {
	token := &Token{ID: r.nextID(), Email: email, Value: value, Expires: expires}
	r.tokens[kind][email] = token
	return token, nil
}

func (r *fakeRepo) DeleteTokenByID(ctx context.Context, kind TokenKind, id string) error {
	for email, t := range r.tokens[kind] {
		if t.ID == id {
			delete(r.tokens[kind], email)
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepo) CreateConfirmation(ctx context.Context, userID string) (*TwoFactorConfirmation, error) {
	c := &TwoFactorConfirmation{ID: r.nextID(), UserID: userID, CreatedAt: time.Now()}
	r.confirmations[userID] = c
	return c, nil
}

func (r *fakeRepo) DeleteConfirmation(ctx context.Context, id string) error {
	for userID, c := range r.confirmations {
		if c.ID == id {
			delete(r.confirmations, userID)
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeRepo) FindConfirmationByUserID(ctx context.Context, userID string) (*TwoFactorConfirmation, error) {
	if c, ok := r.confirmations[userID]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

// --- Recording notifier ---

type sentMail struct {
	email, link, firstName, otp string
}

type fakeNotifier struct {
	verifications []sentMail
	otps          []sentMail
	resets        []sentMail
}

func (n *fakeNotifier) SendVerification(ctx context.Context, email, link, firstName string) {
	n.verifications = append(n.verifications, sentMail{email: email, link: link, firstName: firstName})
}

func (n *fakeNotifier) SendTwoFactorOTP(ctx context.Context, email, otp string) {
	n.otps = append(n.otps, sentMail{email: email, otp: otp})
}

func (n *fakeNotifier) SendPasswordReset(ctx context.Context, email, link, firstName string) {
	n.resets = append(n.resets, sentMail{email: email, link: link, firstName: firstName})
}

// --- In-memory OAuth state store ---

type memStateStore struct {
	states map[string]*OAuthState
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: make(map[string]*OAuthState)}
}

func (s *memStateStore) Put(ctx context.Context, state *OAuthState) error {
	s.states[state.State] = state
	return nil
}

func (s *memStateStore) Consume(ctx context.Context, state string) (*OAuthState, error) {
	out, ok := s.states[state]
	if !ok {
		return nil, ErrOAuthStateInvalid
	}
	delete(s.states, state)
	return out, nil
}

// --- Fixture ---

type fixture struct {
	svc      *service
	repo     *fakeRepo
	notifier *fakeNotifier
	states   *memStateStore
	now      time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "development", AppURL: "http://app.test"},
		Auth: config.AuthConfig{
			CredentialProviderSecret: "cp-secret",
			ServerSecret:             "server-secret",
			NewVerificationSecret:    "nv-secret",
			SessionSecret:            "session-secret",
		},
		Google: config.GoogleConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "http://app.test/api/auth/oauth/google/callback",
		},
	}
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newFakeRepo(),
		notifier: &fakeNotifier{},
		states:   newMemStateStore(),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	svc := NewService(&Config{
		Repo:     f.repo,
		States:   f.states,
		Notifier: f.notifier,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:   testConfig(),
	}).(*service)
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

const testPassword = "correct horse battery"

func (f *fixture) addUser(email string, r role.Role, verified, twoFactor bool) *User {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	h := string(hash)
	u := &User{
		Email:              email,
		Name:               "Test User",
		PasswordHash:       &h,
		Role:               r,
		IsTwoFactorEnabled: twoFactor,
	}
	if verified {
		at := f.now.Add(-24 * time.Hour)
		u.EmailVerified = &at
	}
	_ = f.repo.CreateUser(context.Background(), u)
	return u
}

func (f *fixture) addOAuthUser(email string, r role.Role) *User {
	at := f.now.Add(-24 * time.Hour)
	u := &User{
		Email:         email,
		Name:          "OAuth User",
		Role:          r,
		EmailVerified: &at,
	}
	_ = f.repo.CreateUser(context.Background(), u)
	_ = f.repo.CreateLinkedAccount(context.Background(), &LinkedAccount{
		UserID:            u.ID,
		Provider:          ProviderGoogle,
		ProviderAccountID: "google-" + u.ID,
	})
	return u
}

// claimsOf decodes the session token minted by a flow under test.
func (f *fixture) claimsOf(token string) (session.Claims, error) {
	claims, _, err := f.svc.sessions.Validate(context.Background(), token)
	return claims, err
}
