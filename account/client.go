/*
client.go - Client for the external account API

PURPOSE:
  Authentication is delegated entirely to the account API. This client only
  shuttles credentials, OAuth codes and bearer tokens; it holds no state
  beyond its HTTP client.

ENDPOINTS USED:
  POST {base}/auth/login                       email + password → grant
  GET  {base}/auth/oauth/{provider}            authorize (browser redirect)
  POST {base}/auth/oauth/{provider}/callback   code → grant
  GET  {base}/auth/me                          bearer token → user
  POST {base}/auth/logout                      bearer token → revoke

ERRORS:
  ErrInvalidCredentials  401/403 on login or exchange
  ErrUnauthorized        401 on token-authenticated calls
  *APIError              any other non-2xx response
  ErrUnavailable         transport failures (wrapped)

SEE ALSO:
  - api/auth.go: HTTP handlers using this client
  - session/manager.go: Stores the returned grant
*/
package account

import (
	"bytes"
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
	// ErrInvalidCredentials is returned when the account API rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned when a bearer token is rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable is returned when the account API cannot be reached.
	ErrUnavailable = errors.New("account API unavailable")
)

// APIError is a non-2xx response that is not an auth failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("account API returned %d", e.Status)
	}
	return fmt.Sprintf("account API returned %d: %s", e.Status, e.Message)
}

// IsClientError reports whether err was caused by what the user sent
// (rejected credentials or a 4xx response) rather than by the account API
// or the network.
func IsClientError(err error) bool {
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// Credentials are submitted by the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the account profile returned by the API.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Grant is the result of a successful login or OAuth exchange.
type Grant struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in,omitempty"` // seconds, 0 = unspecified
	User        User   `json:"user"`
}

// Client talks to the account API.
type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
}

// NewClient creates a client for baseURL with the given request timeout.
// One client serves every signed-in user, so it never keeps cookies: each
// call is authenticated only by the token passed to it.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse account API URL: %w", err)
	}
	return &Client{
		BaseURL: u,
		HTTP:    &http.Client{Timeout: timeout},
	}, nil
}

// Login exchanges email and password for a grant.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Grant, error) {
	var grant Grant
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", creds, &grant); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if grant.AccessToken == "" {
		return nil, &APIError{Status: http.StatusOK, Message: "login response without access token"}
	}
	return &grant, nil
}

// ExchangeOAuth trades an authorization code for a grant.
func (c *Client) ExchangeOAuth(ctx context.Context, provider, code, redirectURI string) (*Grant, error) {
	body := map[string]string{"code": code, "redirect_uri": redirectURI}
	var grant Grant
	path := "/auth/oauth/" + url.PathEscape(provider) + "/callback"
	if err := c.do(ctx, http.MethodPost, path, "", body, &grant); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if grant.AccessToken == "" {
		return nil, &APIError{Status: http.StatusOK, Message: "oauth response without access token"}
	}
	return &grant, nil
}

// Me returns the user the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout revokes the token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// AuthorizeURL is where the browser is sent to start an OAuth login.
func (c *Client) AuthorizeURL(provider, redirectURI, state string) string {
	u := *c.BaseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/auth/oauth/" + url.PathEscape(provider)
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	u := *c.BaseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// readMessage pulls a human-readable message out of an error body.
func readMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}
