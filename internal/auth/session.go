// Package auth manages the signed-in session: Google sign-in exchange, token
// persistence, refresh and logout.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"

	"github.com/jonathan/ipp-client/internal/logging"
	"github.com/jonathan/ipp-client/internal/storage"
	"github.com/jonathan/ipp-client/internal/types"
)

// ErrNotSignedIn is returned when no session is stored.
var ErrNotSignedIn = errors.New("not signed in")

// Session is the persisted sign-in state.
type Session struct {
	User        *types.User `json:"user,omitempty"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	Expiry      time.Time   `json:"expiry,omitempty"`
}

// Token converts the session into an oauth2 token for the bearer transport.
func (s *Session) Token() *oauth2.Token {
	return &oauth2.Token{AccessToken: s.AccessToken, TokenType: s.TokenType, Expiry: s.Expiry}
}

// Backend is the subset of the API client used for session calls. *api.Client
// implements it.
type Backend interface {
	Login(ctx context.Context, googleToken string) (*types.AuthResponse, error)
	RefreshToken(ctx context.Context, accessToken string) (*types.AuthResponse, error)
}

// KV persists the session; *storage.Store implements it.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Manager owns the session lifecycle.
type Manager struct {
	backend  Backend
	kv       KV
	verifier Verifier
	clock    clockwork.Clock
	logger   *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithVerifier checks Google ID tokens locally before they are exchanged.
func WithVerifier(v Verifier) ManagerOption {
	return func(m *Manager) { m.verifier = v }
}

// WithClock injects the clock used to compute expiries.
func WithClock(c clockwork.Clock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager.
func NewManager(backend Backend, kv KV, opts ...ManagerOption) *Manager {
	m := &Manager{backend: backend, kv: kv, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrDiscard(m.logger)
	return m
}

// Login verifies googleToken (when a verifier is configured), exchanges it for a
// backend token and persists the session.
func (m *Manager) Login(ctx context.Context, googleToken string) (*Session, error) {
	if m.verifier != nil {
		id, err := m.verifier.Verify(ctx, googleToken)
		if err != nil {
			return nil, fmt.Errorf("google sign-in rejected: %w", err)
		}
		m.logger.Debug("auth.google.verified", "email", id.Email)
	}

	resp, err := m.backend.Login(ctx, googleToken)
	if err != nil {
		return nil, err
	}
	s := m.sessionFrom(resp, nil)
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	m.logger.Info("auth.login", "user_id", userID(s))
	return s, nil
}

// Current returns the stored session or ErrNotSignedIn.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	raw, err := m.kv.Get(ctx, storage.KeyAuthToken)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotSignedIn
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.AccessToken == "" {
		// Older clients stored the bare token string.
		s = Session{AccessToken: raw, TokenType: "bearer"}
	}
	if s.Expiry.IsZero() {
		if exp, ok := TokenExpiry(s.AccessToken); ok {
			s.Expiry = exp
		}
	}
	return &s, nil
}

// Refresh exchanges the current token for a new one. If the refresh fails the
// session is cleared, matching an explicit logout.
func (m *Manager) Refresh(ctx context.Context) (*Session, error) {
	cur, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := m.backend.RefreshToken(ctx, cur.AccessToken)
	if err != nil {
		m.logger.Warn("auth.refresh.failed", "error", err)
		if clearErr := m.Clear(ctx); clearErr != nil {
			m.logger.Warn("auth.clear.failed", "error", clearErr)
		}
		return nil, fmt.Errorf("session expired, sign in again: %w", err)
	}

	s := m.sessionFrom(resp, cur.User)
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	m.logger.Debug("auth.refresh", "user_id", userID(s), "expiry", s.Expiry)
	return s, nil
}

// Logout calls notify (typically the API logout endpoint) and always clears the
// local session, even if notify fails. The notify error is logged, not returned.
func (m *Manager) Logout(ctx context.Context, notify func(context.Context) error) error {
	if notify != nil {
		if err := notify(ctx); err != nil {
			m.logger.Warn("auth.logout.remote_failed", "error", err)
		}
	}
	return m.Clear(ctx)
}

// Clear removes the stored session.
func (m *Manager) Clear(ctx context.Context) error {
	return m.kv.Delete(ctx, storage.KeyAuthToken)
}

// TokenSource returns a source yielding the stored token and refreshing it shortly
// before it expires.
func (m *Manager) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	s, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.ReuseTokenSourceWithExpiry(s.Token(), &refreshingSource{ctx: ctx, m: m}, RefreshMargin), nil
}

// RefreshMargin is how long before expiry a token is refreshed. The backend only
// refreshes still-valid tokens.
const RefreshMargin = time.Minute

type refreshingSource struct {
	ctx context.Context
	m   *Manager
}

func (r *refreshingSource) Token() (*oauth2.Token, error) {
	s, err := r.m.Refresh(r.ctx)
	if err != nil {
		return nil, err
	}
	return s.Token(), nil
}

func (m *Manager) sessionFrom(resp *types.AuthResponse, fallbackUser *types.User) *Session {
	s := &Session{
		User:        resp.User,
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
	}
	if s.User == nil {
		s.User = fallbackUser
	}
	if s.TokenType == "" {
		s.TokenType = "bearer"
	}
	if resp.ExpiresIn > 0 {
		s.Expiry = m.clock.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	} else if exp, ok := TokenExpiry(resp.AccessToken); ok {
		s.Expiry = exp
	}
	return s
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return m.kv.Set(ctx, storage.KeyAuthToken, string(data))
}

func userID(s *Session) int64 {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}
