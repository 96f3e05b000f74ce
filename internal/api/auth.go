package api

import (
	"context"
	"net/http"

	"github.com/jonathan/ipp-client/internal/types"
)

// Login exchanges a Google ID token for a backend session.
func (c *Client) Login(ctx context.Context, googleToken string) (*types.AuthResponse, error) {
	body := &types.GoogleLoginRequest{Token: googleToken}
	if err := body.Validate(); err != nil {
		return nil, err
	}

	r, err := jsonRequest(http.MethodPost, "/auth/login", body)
	if err != nil {
		return nil, err
	}
	r.anonymous = true

	var out types.AuthResponse
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*types.User, error) {
	var out types.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the backend the session ended.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil)
}

// RefreshToken exchanges accessToken for a fresh one. It sends the token explicitly
// so it can be used underneath the refreshing token source.
func (c *Client) RefreshToken(ctx context.Context, accessToken string) (*types.AuthResponse, error) {
	r := request{
		method:    http.MethodPost,
		path:      "/auth/refresh",
		header:    http.Header{"Authorization": []string{"Bearer " + accessToken}},
		anonymous: true,
	}
	var out types.AuthResponse
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
