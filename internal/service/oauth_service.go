package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Identity is what the identity provider tells us about a user.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// OAuthService runs the Google authorization-code flow.
type OAuthService struct {
	oauth       *oauth2.Config
	missing     []string
	userInfoURL string
	log         zerolog.Logger
}

// NewOAuthService creates a new OAuthService. Missing client settings are reported
// when the flow is used, not here.
func NewOAuthService(cfg *config.Config, log zerolog.Logger) *OAuthService {
	return &OAuthService{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		missing:     cfg.MissingGoogleSettings(),
		userInfoURL: googleUserInfoURL,
		log:         log.With().Str("component", "oauth_service").Logger(),
	}
}

func (s *OAuthService) checkConfigured() error {
	if len(s.missing) > 0 {
		return configurationError("Google sign-in is not configured", s.missing)
	}
	return nil
}

// AuthURL returns the consent page URL carrying state.
func (s *OAuthService) AuthURL(state string) (string, error) {
	if err := s.checkConfigured(); err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Identify exchanges an authorization code and fetches the user's email and name.
func (s *OAuthService) Identify(ctx context.Context, code string) (*Identity, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, newError(KindExternal, "google token exchange failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	resp, err := s.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, newError(KindExternal, "google userinfo request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindExternal, "read google userinfo", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindExternal, "google userinfo request failed",
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var id Identity
	if err := json.Unmarshal(body, &id); err != nil {
		return nil, newError(KindExternal, "decode google userinfo", err)
	}
	if id.Email == "" {
		return nil, newError(KindExternal, "google userinfo has no email", nil)
	}

	s.log.Debug().Str("email", id.Email).Msg("Google identity resolved")
	return &id, nil
}
