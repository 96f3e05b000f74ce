package sandbox

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/jonathan/ipp-client/internal/types"
)

// DefaultTokenTTL is the lifetime of issued access tokens.
const DefaultTokenTTL = 30 * time.Minute

// DefaultEmail identifies the user when a sign-in token carries no email.
const DefaultEmail = "demo@example.com"

// Claims are the access token claims. Subject holds the user's email.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewTokenService creates a service signing with secret.
func NewTokenService(secret string, ttl time.Duration, clock clockwork.Clock) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, clock: clock}
}

// TTL returns the token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for u.
func (s *TokenService) Issue(u *types.User) (string, error) {
	now := s.clock.Now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature and expiry of tokenString.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// identity is who a Google sign-in token claims to be.
type identity struct {
	Email string
	Name  string
}

// identify reads the email and name from a sign-in token without verifying it.
// A token that is not a JWT is taken as an email when it looks like one.
func identify(googleToken string) identity {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(googleToken, claims); err == nil {
		email, _ := claims["email"].(string)
		name, _ := claims["name"].(string)
		if email != "" {
			return withName(identity{Email: email, Name: name})
		}
	}
	if strings.Contains(googleToken, "@") && !strings.ContainsAny(googleToken, " \t") {
		return withName(identity{Email: strings.ToLower(googleToken)})
	}
	return withName(identity{Email: DefaultEmail})
}

func withName(id identity) identity {
	if id.Name != "" {
		return id
	}
	local, _, _ := strings.Cut(id.Email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, p := range parts {
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	id.Name = strings.Join(parts, " ")
	return id
}
