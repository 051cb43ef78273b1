// Package oauth implements Google federated login: consent URL building,
// authorization-code exchange, and userinfo retrieval.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/famloop/backend/config"
)

var (
	// ErrNotConfigured is returned when Google OAuth credentials are missing
	ErrNotConfigured = errors.New("google oauth is not configured")
	// ErrInvalidCode is returned when the authorization code is invalid
	ErrInvalidCode = errors.New("invalid authorization code")
	// ErrProviderAPIError is returned when the Google API returns an error
	ErrProviderAPIError = errors.New("oauth provider API error")
)

// UserInfo holds basic profile information returned by Google
type UserInfo struct {
	ID            string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// Service handles the Google OAuth flow
type Service struct {
	config *config.Config
	client *http.Client
}

// NewService creates a new OAuth service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetHTTPClient overrides the HTTP client used for Google API calls (tests)
func (s *Service) SetHTTPClient(client *http.Client) {
	s.client = client
}

// Enabled reports whether Google OAuth credentials are configured
func (s *Service) Enabled() bool {
	return s.config.GoogleOAuthEnabled()
}

// AuthURL returns the Google consent screen URL carrying the given state
func (s *Service) AuthURL(state string) string {
	baseURL := "https://accounts.google.com/o/oauth2/v2/auth"
	params := url.Values{}
	params.Add("client_id", s.config.GoogleClientID)
	params.Add("redirect_uri", s.config.GoogleRedirectURI)
	params.Add("response_type", "code")
	params.Add("scope", "openid email profile")
	params.Add("access_type", "offline")
	params.Add("prompt", "select_account")
	params.Add("state", state)
	return baseURL + "?" + params.Encode()
}

// Exchange swaps an authorization code for tokens and fetches the
// user's Google profile
func (s *Service) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}

	tokenURL := "https://oauth2.googleapis.com/token"
	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", s.config.GoogleClientID)
	data.Set("client_secret", s.config.GoogleClientSecret)
	data.Set("redirect_uri", s.config.GoogleRedirectURI)
	data.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidCode
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		IDToken     string `json:"id_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, ErrInvalidCode
	}

	return s.fetchUserInfo(ctx, tokenResp.AccessToken)
}

func (s *Service) fetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	userInfoURL := "https://www.googleapis.com/oauth2/v3/userinfo"
	req, err := http.NewRequestWithContext(ctx, "GET", userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrProviderAPIError
	}

	var googleUser struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	if googleUser.Email == "" {
		return nil, fmt.Errorf("%w: userinfo response missing email", ErrProviderAPIError)
	}

	name := googleUser.Name
	if name == "" {
		name = strings.SplitN(googleUser.Email, "@", 2)[0]
	}

	return &UserInfo{
		ID:            googleUser.Sub,
		Email:         googleUser.Email,
		Name:          name,
		Picture:       googleUser.Picture,
		EmailVerified: googleUser.EmailVerified,
	}, nil
}

// DefaultReturnURL is where OAuth completion lands when no return URL
// was requested
func (s *Service) DefaultReturnURL() string {
	return s.config.DefaultFrontendOrigin() + "/auth/social/callback"
}

// SanitizeReturnURL allows return URLs only on configured frontend origins.
// Anything else falls back to the default callback page.
func (s *Service) SanitizeReturnURL(returnURL string) string {
	if returnURL == "" {
		return s.DefaultReturnURL()
	}

	parsed, err := url.Parse(returnURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return s.DefaultReturnURL()
	}
	candidate := parsed.Scheme + "://" + parsed.Host

	for _, origin := range s.config.CORSAllowedOrigins {
		if candidate == strings.TrimRight(origin, "/") {
			return returnURL
		}
	}
	if s.config.FrontendURL != "" && candidate == strings.TrimRight(s.config.FrontendURL, "/") {
		return returnURL
	}

	return s.DefaultReturnURL()
}

// AppendQuery appends query parameters to a URL, preserving existing ones
func AppendQuery(rawURL string, params map[string]string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	for k, v := range params {
		query.Set(k, v)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
