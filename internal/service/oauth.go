package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/vidyasetu/vidyasetu/internal/domain"
)

// Provider describes an OAuth identity provider: its authorization and
// token endpoints plus the userinfo URL the verified profile is fetched
// from.
type Provider struct {
	Name        string
	Endpoint    oauth2.Endpoint
	UserinfoURL string
}

// GoogleProvider is the Google OpenID Connect provider. The endpoints are
// spelled out here so the core oauth2 package suffices.
var GoogleProvider = Provider{
	Name: "google",
	Endpoint: oauth2.Endpoint{
		AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	},
	UserinfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
}

// Identity is the verified profile returned by an external identity
// provider after a completed code exchange.
type Identity struct {
	Provider  string
	AccountID string
	Email     string
	Name      string
}

// OAuthService delegates identity proof to an external provider and maps
// the verified identity onto a local user record.
type OAuthService struct {
	users    domain.UserRepository
	accounts domain.AccountRepository
	config   *oauth2.Config
	provider Provider
}

// NewOAuthService creates an OAuthService for Google sign-in.
func NewOAuthService(users domain.UserRepository, accounts domain.AccountRepository, clientID, clientSecret, redirectURL string) *OAuthService {
	return NewOAuthServiceWithProvider(users, accounts, clientID, clientSecret, redirectURL, GoogleProvider)
}

// NewOAuthServiceWithProvider creates an OAuthService against an arbitrary
// provider, letting tests stand in their own endpoints.
func NewOAuthServiceWithProvider(users domain.UserRepository, accounts domain.AccountRepository, clientID, clientSecret, redirectURL string, provider Provider) *OAuthService {
	return &OAuthService{
		users:    users,
		accounts: accounts,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     provider.Endpoint,
		},
		provider: provider,
	}
}

// AuthCodeURL returns the provider's consent page URL for the given
// anti-forgery state.
func (s *OAuthService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades the callback's authorization code for the provider's
// verified identity.
func (s *OAuthService) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return s.fetchIdentity(ctx, token)
}

func (s *OAuthService) fetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.provider.UserinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := s.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("userinfo response missing subject")
	}

	return &Identity{
		Provider:  s.provider.Name,
		AccountID: claims.Sub,
		Email:     claims.Email,
		Name:      claims.Name,
	}, nil
}

// SignIn resolves a verified external identity to a local user, creating
// the user and the provider-account link as needed. Identities without an
// email claim are rejected outright.
func (s *OAuthService) SignIn(ctx context.Context, identity *Identity) (*domain.User, error) {
	if identity.Email == "" {
		return nil, fmt.Errorf("%w: identity has no email claim", domain.ErrUnauthorized)
	}

	email := strings.ToLower(Sanitize(identity.Email))
	if !IsValidEmail(email) {
		return nil, fmt.Errorf("%w: identity email is not usable", domain.ErrUnauthorized)
	}

	// Returning visitor with an existing provider link.
	account, err := s.accounts.GetByProviderAccount(ctx, identity.Provider, identity.AccountID)
	if err == nil {
		user, err := s.users.GetByID(ctx, account.UserID)
		if err != nil {
			return nil, fmt.Errorf("get linked user: %w", err)
		}
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get provider account: %w", err)
	}

	// Existing local account for the same address gains a provider link;
	// otherwise a password-less user is created on first sign-in.
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		name := Sanitize(identity.Name)
		if len(name) < 2 {
			name = email[:strings.Index(email, "@")]
		}
		user = &domain.User{Email: email, DisplayName: name}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	link := &domain.Account{
		UserID:            user.ID,
		Provider:          identity.Provider,
		ProviderAccountID: identity.AccountID,
	}
	if err := s.accounts.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("link provider account: %w", err)
	}

	return user, nil
}
