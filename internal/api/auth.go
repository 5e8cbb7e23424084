package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/comigor/dermachat-go/internal/catalog"
	"github.com/comigor/dermachat-go/internal/logger"
	"github.com/comigor/dermachat-go/internal/session"
)

// LoginRequest is the /auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the /auth/register body.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

// AuthResult is the data block of the login, register and refresh answers.
type AuthResult struct {
	User      session.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
}

// Login signs in and stores the returned credentials.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", req)
}

// Register creates an account and stores the returned credentials.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/register", req)
}

// RefreshToken exchanges the current token for a fresh one.
func (c *Client) RefreshToken(ctx context.Context) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/refresh-token", nil)
}

func (c *Client) authenticate(ctx context.Context, path string, in any) (*AuthResult, error) {
	body, err := c.do(ctx, http.MethodPost, path, nil, in)
	if err != nil {
		return nil, err
	}
	var res AuthResult
	if _, err := catalog.Decode(body, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, fmt.Errorf("%w: no token in auth response", catalog.ErrMalformed)
	}
	if c.creds != nil {
		if err := c.creds.SetCredentials(res.Token, res.User); err != nil {
			return nil, fmt.Errorf("store credentials: %w", err)
		}
	}
	return &res, nil
}

// Logout tells the backend to end the session. Local credentials are cleared even
// when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if err != nil {
		logger.L.Warn("logout request failed", "error", err)
	}
	if c.creds != nil {
		if cerr := c.creds.ClearCredentials(); cerr != nil {
			return fmt.Errorf("clear credentials: %w", cerr)
		}
	}
	return nil
}

// CurrentUser fetches the signed-in account.
func (c *Client) CurrentUser(ctx context.Context) (*session.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil)
	if err != nil {
		return nil, err
	}
	var u session.User
	if _, err := catalog.Decode(body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateBasicProfile updates name and contact fields and refreshes the stored user.
func (c *Client) UpdateBasicProfile(ctx context.Context, user session.User) (*session.User, error) {
	body, err := c.do(ctx, http.MethodPut, "/auth/profile", nil, user)
	if err != nil {
		return nil, err
	}
	var u session.User
	if _, err := catalog.Decode(body, &u); err != nil {
		return nil, err
	}
	if c.creds != nil {
		if err := c.creds.SetUser(u); err != nil {
			return nil, fmt.Errorf("store user: %w", err)
		}
	}
	return &u, nil
}

// UploadSkinPhoto sends a skin photo for analysis as multipart form data.
func (c *Client) UploadSkinPhoto(ctx context.Context, filename string, photo io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", filepath.Base(filename))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return fmt.Errorf("copy photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/profile/skin/upload-photo", &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	body, err := c.send(req)
	if err != nil {
		return err
	}
	_, err = catalog.Decode(body, nil)
	return err
}
