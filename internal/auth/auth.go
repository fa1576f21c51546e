// Package auth exchanges an identity-provider authorization code for an
// access token and username. It exists only to prefill display names; the
// game core never validates or stores credentials.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrInvalidCode indicates the authorization code was rejected.
	ErrInvalidCode = errors.New("auth: invalid code")

	// ErrUnavailable indicates the identity provider is unreachable or
	// misbehaving.
	ErrUnavailable = errors.New("auth: unavailable")
)

// Identity is the pair the game consumes from a successful exchange
type Identity struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// Exchanger trades an authorization code for an identity.
// Returns:
//   - (*Identity, nil) on success
//   - (nil, ErrInvalidCode) if the code is definitively rejected
//   - (nil, ErrUnavailable) if the provider is unavailable
//   - (nil, nil) when auth is disabled (NoopExchanger only)
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// HTTPExchanger performs the OAuth code exchange against a real provider
type HTTPExchanger struct {
	tokenURL     string
	userInfoURL  string
	clientID     string
	clientSecret string
	redirectURI  string
	client       *http.Client
}

// NewHTTPExchanger creates an exchanger for the given provider endpoints
func NewHTTPExchanger(tokenURL, userInfoURL, clientID, clientSecret, redirectURI string) *HTTPExchanger {
	return &HTTPExchanger{
		tokenURL:     tokenURL,
		userInfoURL:  userInfoURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Error       string `json:"error,omitempty"`
}

type userInfoResponse struct {
	Username string `json:"username"`
}

func (e *HTTPExchanger) Exchange(ctx context.Context, code string) (*Identity, error) {
	if code == "" {
		return nil, ErrInvalidCode
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	token, err := e.fetchToken(ctx, code)
	if err != nil {
		return nil, err
	}

	username, err := e.fetchUsername(ctx, token)
	if err != nil {
		return nil, err
	}

	return &Identity{AccessToken: token, Username: username}, nil
}

func (e *HTTPExchanger) fetchToken(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {e.clientID},
		"client_secret": {e.clientSecret},
		"redirect_uri":  {e.redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrInvalidCode
	default:
		return "", fmt.Errorf("%w: token endpoint status %d", ErrUnavailable, resp.StatusCode)
	}

	// Limit response body to 1MB to avoid pathological responses
	var tr tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrUnavailable, err)
	}
	if tr.AccessToken == "" {
		return "", ErrInvalidCode
	}
	return tr.AccessToken, nil
}

func (e *HTTPExchanger) fetchUsername(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrInvalidCode
	default:
		return "", fmt.Errorf("%w: userinfo status %d", ErrUnavailable, resp.StatusCode)
	}

	var ui userInfoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&ui); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrUnavailable, err)
	}
	return ui.Username, nil
}

// NoopExchanger disables the auth boundary (local play)
type NoopExchanger struct{}

// NewNoopExchanger creates an exchanger that reports auth as disabled
func NewNoopExchanger() *NoopExchanger {
	return &NoopExchanger{}
}

func (e *NoopExchanger) Exchange(ctx context.Context, code string) (*Identity, error) {
	return nil, nil
}
