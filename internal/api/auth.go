package api

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyToken is returned when a login succeeds without a token.
var ErrEmptyToken = errors.New("login response has no access_token")

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges a username and password for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp tokenResponse
	err := c.post(ctx, "/auth/login", credentials{Username: username, Password: password}, &resp)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return "", ErrEmptyToken
	}

	c.logger.Info("logged in", "username", username)
	return resp.AccessToken, nil
}

// Register creates an account. The returned token is empty when the
// server requires a separate login.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	var resp tokenResponse
	err := c.post(ctx, "/auth/register", credentials{Username: username, Email: email, Password: password}, &resp)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}

	c.logger.Info("registered", "username", username)
	return resp.AccessToken, nil
}
