package authapi

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

	"github.com/MrEthical07/payguard/session"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects the login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable is returned when the backend cannot be reached or
	// answers with an unexpected status or body.
	ErrUnavailable = errors.New("auth backend unavailable")
	// ErrMalformedResponse is returned when a 2xx login body lacks the token or user.
	ErrMalformedResponse = errors.New("malformed login response")
)

const maxBodyBytes = 1 << 20

// Credentials are exchanged for a session at login. PartnerBankID selects
// the tenant scope for users that operate on behalf of a partner bank.
type Credentials struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	PartnerBankID string `json:"partnerBankId,omitempty"`
}

// LoginResult is what a successful login yields.
type LoginResult struct {
	User  session.User `json:"user"`
	Token string       `json:"token"`
}

// Config locates the backend's auth endpoints.
type Config struct {
	BaseURL    string
	LoginPath  string
	LogoutPath string
	Timeout    time.Duration
}

// DefaultConfig returns the backend's standard auth paths with no base URL.
func DefaultConfig() Config {
	return Config{
		LoginPath:  "/auth/login",
		LogoutPath: "/auth/logout",
		Timeout:    15 * time.Second,
	}
}

// Client talks to the backend's auth endpoints.
type Client struct {
	cfg    Config
	login  *http.Client
	logout *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogoutClient sends logout through c, typically a client built on the
// request signer so the call carries the bearer being revoked. Login never
// uses it: a rejected login must not reach the signer's 401 handling.
func WithLogoutClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.logout = c
		}
	}
}

// New creates a Client. httpClient sends login, and logout too unless
// WithLogoutClient is given. A nil httpClient selects one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client, opts ...Option) (*Client, error) {
	def := DefaultConfig()
	if cfg.LoginPath == "" {
		cfg.LoginPath = def.LoginPath
	}
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = def.LogoutPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid auth base url %q", cfg.BaseURL)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	c := &Client{cfg: cfg, login: httpClient, logout: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginEnvelope struct {
	LoginResult
	Data *LoginResult `json:"data"`
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	body, err := json.Marshal(creds)
	if err != nil {
		return LoginResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.cfg.LoginPath, bytes.NewReader(body))
	if err != nil {
		return LoginResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.login.Do(req)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return LoginResult{}, ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return LoginResult{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var env loginEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env); err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	result := env.LoginResult
	if env.Data != nil {
		result = *env.Data
	}
	if result.Token == "" || result.User.IsZero() || !result.User.Role.Valid() {
		return LoginResult{}, ErrMalformedResponse
	}
	return result, nil
}

// Logout tells the backend to revoke the current token. Callers clear the
// local session regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.cfg.LogoutPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.logout.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
