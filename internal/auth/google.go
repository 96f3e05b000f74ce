package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is the subset of Google ID token claims the client shows.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// Verifier checks a Google ID token.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// IDTokenVerifier validates tokens against Google's public keys for one OAuth
// client id.
type IDTokenVerifier struct {
	ClientID string
}

// Verify implements Verifier.
func (v *IDTokenVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, idToken, v.ClientID)
	if err != nil {
		return nil, fmt.Errorf("invalid Google ID token: %w", err)
	}
	id := &GoogleIdentity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

// NewVerifier returns an IDTokenVerifier for clientID, or nil when clientID is empty
// (verification is then left to the backend).
func NewVerifier(clientID string) Verifier {
	if clientID == "" {
		return nil
	}
	return &IDTokenVerifier{ClientID: clientID}
}
