// Package api is the HTTP client for the recommendation backend.
package api

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

	"github.com/comigor/dermachat-go/internal/config"
	"github.com/comigor/dermachat-go/internal/logger"
	"github.com/comigor/dermachat-go/internal/session"
)

// ErrUnauthorized is returned for any 401 answer. Stored credentials have already
// been cleared by the time a caller sees it, except for activity log calls.
var ErrUnauthorized = errors.New("unauthorized: please log in again")

// APIError is a non-2xx answer carrying the backend's message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Credentials is the slice of the session context the client needs.
type Credentials interface {
	Token() string
	SetCredentials(token string, user session.User) error
	SetUser(user session.User) error
	ClearCredentials() error
}

// Client is a client for the recommendation backend.
type Client struct {
	baseURL     string
	client      *http.Client
	creds       Credentials
	searchLimit int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its transport is still wrapped
// with the bearer-token handling.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithCredentials attaches the session context used for bearer tokens.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) { c.creds = creds }
}

// NewClient creates a new Client. onUnauthorized, when non-nil, runs after a 401 has
// cleared the stored credentials.
func NewClient(cfg config.APIConfig, onUnauthorized func(), opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		client:      &http.Client{Timeout: cfg.Timeout},
		searchLimit: cfg.SearchLimit,
	}
	if c.searchLimit <= 0 {
		c.searchLimit = 4
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *c.client
	wrapped.Transport = &authTransport{base: base, creds: c.creds, onUnauthorized: onUnauthorized}
	c.client = &wrapped
	return c
}

type keepCredentialsKey struct{}

// keepCredentials marks requests whose 401 must not sign the user out. The activity
// log is best effort and often rejects anonymous users.
func keepCredentials(ctx context.Context) context.Context {
	return context.WithValue(ctx, keepCredentialsKey{}, true)
}

// authTransport attaches the bearer token to every request and turns a 401 into a
// process-wide sign-out.
type authTransport struct {
	base           http.RoundTripper
	creds          Credentials
	onUnauthorized func()
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.creds != nil {
		if token := t.creds.Token(); token != "" {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		if keep, _ := req.Context().Value(keepCredentialsKey{}).(bool); keep {
			logger.L.Debug("backend rejected credentials; keeping session", "path", req.URL.Path)
			return resp, nil
		}
		logger.L.Warn("backend rejected credentials; signing out", "path", req.URL.Path)
		if t.creds != nil {
			if err := t.creds.ClearCredentials(); err != nil {
				logger.L.Error("failed to clear credentials", "error", err)
			}
		}
		if t.onUnauthorized != nil {
			t.onUnauthorized()
		}
	}
	return resp, nil
}

// do sends a JSON request and returns the raw response body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req)
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	logger.L.Debug("api call", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
			apiErr.Message = payload.Message
		}
		return nil, apiErr
	}
	return raw, nil
}
