package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ipp-client/internal/storage"
	"github.com/jonathan/ipp-client/internal/types"
)

type fakeBackend struct {
	loginResp   *types.AuthResponse
	refreshResp *types.AuthResponse
	refreshErr  error
	refreshes   atomic.Int32
	lastRefresh string
}

func (f *fakeBackend) Login(_ context.Context, googleToken string) (*types.AuthResponse, error) {
	if googleToken == "bad" {
		return nil, errors.New("Invalid Google token")
	}
	return f.loginResp, nil
}

func (f *fakeBackend) RefreshToken(_ context.Context, accessToken string) (*types.AuthResponse, error) {
	f.refreshes.Add(1)
	f.lastRefresh = accessToken
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshResp, nil
}

type fakeVerifier struct{ err error }

func (v fakeVerifier) Verify(context.Context, string) (*GoogleIdentity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &GoogleIdentity{Email: "ana@example.com"}, nil
}

func openKV(t *testing.T) *storage.Store {
	t.Helper()
	kv, err := storage.Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "google-sub",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return s
}

func TestManager_LoginPersistsSession(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	backend := &fakeBackend{loginResp: &types.AuthResponse{
		AccessToken: "jwt-1", TokenType: "bearer", ExpiresIn: 1800,
		User: &types.User{ID: 7, Email: "ana@example.com"},
	}}
	m := NewManager(backend, openKV(t), WithClock(clock), WithVerifier(fakeVerifier{}))

	s, err := m.Login(ctx, "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(30*time.Minute), s.Expiry)

	cur, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", cur.AccessToken)
	assert.Equal(t, int64(7), cur.User.ID)
	assert.True(t, cur.Expiry.Equal(s.Expiry))
}

func TestManager_LoginRejectedByVerifier(t *testing.T) {
	m := NewManager(&fakeBackend{}, openKV(t), WithVerifier(fakeVerifier{err: errors.New("wrong audience")}))

	_, err := m.Login(context.Background(), "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong audience")

	_, err = m.Current(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestManager_CurrentAcceptsBareToken(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, kv.Set(ctx, storage.KeyAuthToken, signed(t, exp)))

	s, err := NewManager(&fakeBackend{}, kv).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bearer", s.TokenType)
	assert.True(t, s.Expiry.Equal(exp))
}

func TestManager_RefreshFailureLogsOut(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t)
	backend := &fakeBackend{
		loginResp:  &types.AuthResponse{AccessToken: "jwt-1", ExpiresIn: 60},
		refreshErr: errors.New("HTTP 401"),
	}
	m := NewManager(backend, kv)
	_, err := m.Login(ctx, "google")
	require.NoError(t, err)

	_, err = m.Refresh(ctx)
	require.Error(t, err)
	assert.Equal(t, "jwt-1", backend.lastRefresh)

	_, err = m.Current(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestManager_RefreshKeepsUser(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		loginResp:   &types.AuthResponse{AccessToken: "jwt-1", ExpiresIn: 60, User: &types.User{ID: 1}},
		refreshResp: &types.AuthResponse{AccessToken: "jwt-2", ExpiresIn: 60},
	}
	m := NewManager(backend, openKV(t))
	_, err := m.Login(ctx, "google")
	require.NoError(t, err)

	s, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt-2", s.AccessToken)
	require.NotNil(t, s.User)
	assert.Equal(t, int64(1), s.User.ID)
}

func TestManager_LogoutAlwaysClears(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&fakeBackend{loginResp: &types.AuthResponse{AccessToken: "jwt"}}, openKV(t))
	_, err := m.Login(ctx, "google")
	require.NoError(t, err)

	called := false
	err = m.Logout(ctx, func(context.Context) error {
		called = true
		return errors.New("network down")
	})
	require.NoError(t, err)
	assert.True(t, called)

	_, err = m.Current(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestManager_TokenSourceRefreshesNearExpiry(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		loginResp:   &types.AuthResponse{AccessToken: "old", ExpiresIn: 30},
		refreshResp: &types.AuthResponse{AccessToken: "new", ExpiresIn: 1800},
	}
	m := NewManager(backend, openKV(t))
	_, err := m.Login(ctx, "google")
	require.NoError(t, err)

	ts, err := m.TokenSource(ctx)
	require.NoError(t, err)

	// 30s left is inside RefreshMargin, so the first Token call refreshes.
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)

	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)
	assert.Equal(t, int32(1), backend.refreshes.Load())
}

func TestManager_TokenSourceNotSignedIn(t *testing.T) {
	_, err := NewManager(&fakeBackend{}, openKV(t)).TokenSource(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
}
