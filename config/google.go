package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var ErrInvalidGoogleToken = errors.New("invalid google token")

type GoogleConfig struct {
	ClientID string
	Config   *oauth2.Config

	tokenInfoURL string
	userInfoURL  string
	client       *http.Client
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Audience      string `json:"aud"`
}

// UserID returns the stable Google account id from either endpoint's payload.
func (u *GoogleUserInfo) UserID() string {
	if u.ID != "" {
		return u.ID
	}
	return u.Sub
}

// NewGoogleConfig returns nil when Google sign-in is not configured.
func NewGoogleConfig(cfg GoogleOAuthConfig) *GoogleConfig {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}

	return &GoogleConfig{
		ClientID: cfg.ClientID,
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		tokenInfoURL: "https://oauth2.googleapis.com/tokeninfo",
		userInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GoogleConfig) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	info, err := g.fetch(ctx, g.tokenInfoURL+"?id_token="+url.QueryEscape(idToken))
	if err != nil {
		return nil, err
	}
	if info.Audience != "" && info.Audience != g.ClientID {
		return nil, ErrInvalidGoogleToken
	}
	return info, nil
}

func (g *GoogleConfig) GetUserInfo(ctx context.Context, accessToken string) (*GoogleUserInfo, error) {
	return g.fetch(ctx, g.userInfoURL+"?access_token="+url.QueryEscape(accessToken))
}

func (g *GoogleConfig) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return g.Config.Exchange(ctx, code)
}

func (g *GoogleConfig) fetch(ctx context.Context, endpoint string) (*GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach google: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidGoogleToken
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.UserID() == "" || info.Email == "" {
		return nil, ErrInvalidGoogleToken
	}
	return &info, nil
}
