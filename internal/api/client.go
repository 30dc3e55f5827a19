// Package api is the REST side of the backend: accounts, profiles,
// passwords and search. The socket carries everything conversational;
// this client only does request/response calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vinhng/zolaterm/internal/model"
)

// Error is a server-reported business error. The message is surfaced to
// the user verbatim.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error (status %d)", e.Status)
}

// Client talks to the REST API. Token, when set, is sent as a bearer
// credential on every request.
type Client struct {
	BaseURL string
	Token   string

	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// AuthResponse is returned by login and registration verification.
type AuthResponse struct {
	User  model.UserProfile `json:"user"`
	Token string            `json:"token"`
}

// RequestRegisterCode starts registration: the server mails an OTP to the
// address.
func (c *Client) RequestRegisterCode(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/register/request-code",
		map[string]string{"email": email}, nil)
}

// VerifyRegisterRequest completes registration once the mailed code is
// entered.
type VerifyRegisterRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// VerifyRegister exchanges the OTP code for a full account and session.
func (c *Client) VerifyRegister(ctx context.Context, req VerifyRegisterRequest) (AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register/verify", req, &resp)
	return resp, err
}

// Login authenticates with username and password.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login",
		map[string]string{"username": username, "password": password}, &resp)
	return resp, err
}

// RequestPasswordCode starts a password reset by mailing an OTP to the
// account's address.
func (c *Client) RequestPasswordCode(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/password/request-code",
		map[string]string{"email": email}, nil)
}

// ResetPassword sets a new password using an emailed OTP code.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/password/reset", map[string]string{
		"email":        email,
		"code":         code,
		"new_password": newPassword,
	}, nil)
}

// ChangePassword replaces the password of the authenticated user.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/password/change", map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}, nil)
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (model.UserProfile, error) {
	var p model.UserProfile
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &p)
	return p, err
}

// UpdateProfile saves the editable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, p model.UserProfile) error {
	return c.do(ctx, http.MethodPut, "/users/me", p, nil)
}

// Exists checks whether an account field value is already taken.
// Field is one of "email", "username", "phone".
func (c *Client) Exists(ctx context.Context, field, value string) (bool, error) {
	var resp struct {
		Exists bool `json:"exists"`
	}
	path := "/users/exists?" + url.Values{field: {value}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// Search lists accounts matching q, for the friend-search screen.
func (c *Client) Search(ctx context.Context, q string) ([]model.UserProfile, error) {
	var resp struct {
		Users []model.UserProfile `json:"users"`
	}
	path := "/users/search?" + url.Values{"q": {q}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		// Best effort: a non-JSON body just leaves the generic message.
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s response: %w", path, err)
	}
	return nil
}
