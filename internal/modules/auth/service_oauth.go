package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/xvariate/auth-api/internal/role"
)

// ProviderGoogle is the only federated identity provider currently wired up.
const ProviderGoogle = "google"

// googleUserInfo is the subset of the Google userinfo response we consume.
type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"picture"`
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func (s *service) oauthConfig(provider string) (*oauth2.Config, error) {
	if provider != ProviderGoogle {
		return nil, ErrUnsupportedOAuthProvider
	}
	if s.config.Google.ClientID == "" || s.config.Google.ClientSecret == "" {
		return nil, ErrConfig.WithCause(errors.New("google oauth credentials are missing"))
	}
	return &oauth2.Config{
		ClientID:     s.config.Google.ClientID,
		ClientSecret: s.config.Google.ClientSecret,
		RedirectURL:  s.config.Google.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}, nil
}

// StartOAuth validates the requested provider and role, stashes the CSRF
// state and PKCE verifier, and returns the provider consent URL.
func (s *service) StartOAuth(ctx context.Context, provider, rawRole string) (*OAuthStartResult, error) {
	pendingRole, ok := role.Parse(rawRole)
	if !ok {
		return nil, ErrInvalidRole
	}

	cfg, err := s.oauthConfig(provider)
	if err != nil {
		return nil, err
	}

	state := &OAuthState{
		State:    uuid.NewString(),
		Provider: provider,
		Verifier: oauth2.GenerateVerifier(),
		Role:     pendingRole,
	}
	if err := s.states.Put(ctx, state); err != nil {
		s.logger.Error("failed to store oauth state", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	url := cfg.AuthCodeURL(state.State, oauth2.S256ChallengeOption(state.Verifier))
	return &OAuthStartResult{RedirectURL: url, PendingRole: pendingRole}, nil
}

// CompleteOAuth handles the provider callback: it redeems the CSRF state,
// exchanges the code, fetches the profile, links or creates the local
// account, and issues a session.
func (s *service) CompleteOAuth(ctx context.Context, input OAuthCallbackInput) (*LoginResult, error) {
	state, err := s.states.Consume(ctx, input.State)
	if err != nil {
		if errors.Is(err, ErrOAuthStateInvalid) {
			return nil, err
		}
		s.logger.Error("failed to consume oauth state", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	if state.Provider != input.Provider {
		return nil, ErrOAuthStateInvalid
	}

	cfg, err := s.oauthConfig(input.Provider)
	if err != nil {
		return nil, err
	}

	token, err := cfg.Exchange(ctx, input.Code, oauth2.VerifierOption(state.Verifier))
	if err != nil {
		s.logger.Warn("oauth code exchange failed", "provider", input.Provider, "error", err)
		return nil, ErrOAuthExchangeFailed.WithCause(err)
	}

	profile, err := s.fetchGoogleProfile(ctx, cfg, token)
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, ErrOAuthEmailMissing
	}

	// The role chosen before the redirect travels in the state record, with
	// the pending-role cookie as a fallback when the record predates it.
	pendingRole := state.Role
	if pendingRole == "" {
		if r, ok := role.Parse(input.PendingRole); ok {
			pendingRole = r
		}
	}

	user, err := s.findOrCreateOAuthUser(ctx, input.Provider, profile, pendingRole)
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user, signInAttempt{isOAuth: true})
}

func (s *service) fetchGoogleProfile(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*googleUserInfo, error) {
	client := cfg.Client(ctx, token)
	client.Timeout = 10 * time.Second

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		s.logger.Error("failed to fetch oauth profile", "error", err)
		return nil, ErrOAuthExchangeFailed.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrOAuthExchangeFailed.WithCause(fmt.Errorf("userinfo returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, ErrOAuthExchangeFailed.WithCause(err)
	}

	var profile googleUserInfo
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, ErrOAuthExchangeFailed.WithCause(err)
	}
	return &profile, nil
}

// findOrCreateOAuthUser resolves the provider identity to a local user. A
// first-time link also applies the pending role and marks the email verified,
// since the provider already vouched for it.
func (s *service) findOrCreateOAuthUser(ctx context.Context, provider string, profile *googleUserInfo, pendingRole role.Role) (*User, error) {
	user, err := s.repo.FindUserByEmail(ctx, profile.Email)
	if errors.Is(err, ErrNotFound) {
		now := s.now()
		userRole := pendingRole
		if userRole == "" {
			userRole = role.Client
		}
		user = &User{
			Email:         profile.Email,
			Name:          profile.Name,
			Role:          userRole,
			EmailVerified: &now,
		}
		if profile.Image != "" {
			user.Image = &profile.Image
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			s.logger.Error("failed to create oauth user", "error", err)
			return nil, ErrInternal.WithCause(err)
		}
		if err := s.linkAccount(ctx, user.ID, provider, profile.ID); err != nil {
			return nil, err
		}
		return user, nil
	}
	if err != nil {
		s.logger.Error("failed to look up oauth user", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if _, err := s.repo.FindLinkedAccountByUserID(ctx, user.ID); errors.Is(err, ErrNotFound) {
		// First federated sign-in on an existing credential account.
		if err := s.linkAccount(ctx, user.ID, provider, profile.ID); err != nil {
			return nil, err
		}
		if pendingRole != "" && pendingRole != user.Role {
			if err := s.repo.UpdateUserRole(ctx, user.ID, pendingRole); err != nil {
				s.logger.Error("failed to apply pending role", "error", err)
				return nil, ErrInternal.WithCause(err)
			}
			user.Role = pendingRole
		}
		if user.EmailVerified == nil {
			now := s.now()
			if err := s.repo.MarkEmailVerified(ctx, user.ID, now); err != nil {
				s.logger.Error("failed to mark email verified", "error", err)
				return nil, ErrInternal.WithCause(err)
			}
			user.EmailVerified = &now
		}
	} else if err != nil {
		s.logger.Error("failed to look up linked account", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	return user, nil
}

func (s *service) linkAccount(ctx context.Context, userID, provider, providerAccountID string) error {
	account := &LinkedAccount{
		UserID:            userID,
		Provider:          provider,
		ProviderAccountID: providerAccountID,
	}
	if err := s.repo.CreateLinkedAccount(ctx, account); err != nil {
		s.logger.Error("failed to link oauth account", "error", err)
		return ErrInternal.WithCause(err)
	}
	return nil
}
