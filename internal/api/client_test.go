package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jonathan/ipp-client/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL+"/api/", WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok", TokenType: "bearer"})))
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_SendsBearerAndRequestID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 1, "email": "ana@example.com", "name": "Ana",
			"created_at": "2024-05-01T10:00:00.123456",
		})
	})

	u, err := c.Me(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, 2024, u.CreatedAt.Year())
}

func TestClient_HTTPErrorDetail(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	})

	_, err := c.Me(t.Context())
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "Could not validate credentials", httpErr.Detail)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"detail":"Document not found"}`, "Document not found"},
		{"validation list", `{"detail":[{"msg":"field required"},{"msg":"value is not a valid integer"}]}`,
			"field required; value is not a valid integer"},
		{"missing", `{"message":"x"}`, ""},
		{"not json", `<html>502</html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDetail([]byte(tt.body)))
		})
	}
}

func TestDetailOf(t *testing.T) {
	assert.Equal(t, "bad file", DetailOf(&HTTPError{StatusCode: 400, Detail: "bad file"}, "fallback"))
	assert.Equal(t, "fallback", DetailOf(&HTTPError{StatusCode: 500}, "fallback"))
	assert.Equal(t, "fallback", DetailOf(errors.New("dial tcp: refused"), "fallback"))
}

func TestLogin_IsAnonymous(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"token":"google-id-token"}`, string(body))
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "jwt", "token_type": "bearer", "expires_in": 1800,
			"user": map[string]any{"id": 3, "email": "a@b.c", "name": "A", "created_at": "2024-01-01T00:00:00"},
		})
	})

	resp, err := c.Login(t.Context(), "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.AccessToken)
	assert.Equal(t, 1800, resp.ExpiresIn)
	require.NotNil(t, resp.User)
	assert.Equal(t, int64(3), resp.User.ID)
}

func TestLogin_EmptyTokenNeverSent(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })

	_, err := c.Login(t.Context(), "")
	assert.Error(t, err)
	assert.Zero(t, hits.Load())
}

func TestRefreshToken_UsesGivenToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/refresh", r.URL.Path)
		assert.Equal(t, "Bearer old-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, types.AuthResponse{AccessToken: "new-token", TokenType: "bearer", ExpiresIn: 60})
	})

	resp, err := c.RefreshToken(t.Context(), "old-token")
	require.NoError(t, err)
	assert.Equal(t, "new-token", resp.AccessToken)
}

func TestLogout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/logout", r.URL.Path)
		writeJSON(w, http.StatusOK, types.MessageResponse{Message: "Successfully logged out"})
	})
	assert.NoError(t, c.Logout(t.Context()))
}

func TestAuthenticated_CopiesClient(t *testing.T) {
	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, types.DocumentList{})
	}))
	defer srv.Close()

	anon := New(srv.URL)
	authed := anon.Authenticated(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc"}))

	_, err := anon.ListDocuments(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "", seen.Load())

	_, err = authed.ListDocuments(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", seen.Load())
	assert.Equal(t, srv.URL, authed.BaseURL())
}
