// Package types provides the wire types exchanged with the IPP backend.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// GoogleLoginRequest is the body of POST /auth/login.
type GoogleLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// User represents the authenticated user profile returned by /auth/me and /auth/login.
type User struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	GivenName  string     `json:"given_name,omitempty"`
	FamilyName string     `json:"family_name,omitempty"`
	Picture    string     `json:"picture,omitempty"`
	CreatedAt  Timestamp  `json:"created_at"`
	LastLogin  *Timestamp `json:"last_login,omitempty"`
}

// AuthResponse is returned by the login and refresh endpoints.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
	User        *User  `json:"user"`
}

// MessageResponse is the generic {"message": ...} body.
type MessageResponse struct {
	Message string `json:"message"`
}

// Validate validates the GoogleLoginRequest using the validator.
func (r *GoogleLoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
