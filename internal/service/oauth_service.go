package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"authgate/internal/apperr"
	"authgate/internal/auth"
	"authgate/internal/model"
	"authgate/internal/repository"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ErrProviderDenied is returned when the third-party handshake fails (bad
// code, unverified or missing email). Sign-in fails closed.
var ErrProviderDenied = errors.New("identity provider sign-in failed")

// ProviderProfile is the verified identity asserted by the provider.
type ProviderProfile struct {
	Email string
	Name  string
	Image string
}

// OAuthService drives the third-party sign-in flow: the redirect handshake
// with Google and the reconciliation of the asserted identity against the
// user store.
type OAuthService interface {
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (ProviderProfile, error)
	SignIn(ctx context.Context, profile ProviderProfile) (token string, identity model.Identity, err error)
}

type oauthService struct {
	config     *oauth2.Config
	users      repository.UserRepository
	jwtService *auth.JWTService
}

// NewOAuthService builds the Google OAuth service. The redirect URL is the
// callback route under baseURL.
func NewOAuthService(clientID, clientSecret, baseURL string, users repository.UserRepository, jwtService *auth.JWTService) OAuthService {
	return &oauthService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  baseURL + "/api/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		users:      users,
		jwtService: jwtService,
	}
}

// AuthCodeURL returns the provider consent URL carrying the state nonce.
func (s *oauthService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// FetchProfile exchanges the authorization code and fetches the userinfo
// document. Only profiles with a verified email are accepted.
func (s *oauthService) FetchProfile(ctx context.Context, code string) (ProviderProfile, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return ProviderProfile{}, fmt.Errorf("%w: exchange code: %v", ErrProviderDenied, err)
	}

	resp, err := s.config.Client(ctx, token).Get(googleUserinfoURL)
	if err != nil {
		return ProviderProfile{}, fmt.Errorf("%w: fetch userinfo: %v", ErrProviderDenied, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ProviderProfile{}, fmt.Errorf("%w: userinfo status %d", ErrProviderDenied, resp.StatusCode)
	}

	var info struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ProviderProfile{}, fmt.Errorf("%w: decode userinfo: %v", ErrProviderDenied, err)
	}
	if info.Email == "" || !info.VerifiedEmail {
		return ProviderProfile{}, fmt.Errorf("%w: no verified email", ErrProviderDenied)
	}

	return ProviderProfile{Email: info.Email, Name: info.Name, Image: info.Picture}, nil
}

// SignIn reconciles the provider identity against the user store and issues a
// session token for the canonical stored record. A first sign-in creates the
// user; repeated sign-ins never overwrite stored fields. Any store failure
// denies access.
func (s *oauthService) SignIn(ctx context.Context, profile ProviderProfile) (string, model.Identity, error) {
	email := NormalizeEmail(profile.Email)
	if email == "" {
		return "", model.Identity{}, ErrProviderDenied
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return "", model.Identity{}, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
		}
		user = &model.User{
			Name:  profile.Name,
			Email: email,
			Kind:  model.KindProvider,
			Role:  "user",
			Image: profile.Image,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if isDuplicateKey(err) {
				// Lost a create race with a concurrent sign-in; the stored
				// record wins.
				if user, err = s.users.FindByEmail(ctx, email); err != nil {
					return "", model.Identity{}, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
				}
			} else {
				return "", model.Identity{}, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
			}
		}
	}

	identity := user.Identity()
	token, err := s.jwtService.Issue(identity)
	if err != nil {
		return "", model.Identity{}, fmt.Errorf("issue session token: %w", err)
	}
	return token, identity, nil
}
