package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ipp-client/internal/auth"
	"github.com/jonathan/ipp-client/internal/config"
	"github.com/jonathan/ipp-client/internal/drafts"
	"github.com/jonathan/ipp-client/internal/sandbox"
	"github.com/jonathan/ipp-client/internal/types"
	"github.com/jonathan/ipp-client/internal/upload"
	"github.com/jonathan/ipp-client/internal/workflow"
)

func newTestContext(t *testing.T, apiURL string) *Context {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = apiURL
	cfg.StateDB = filepath.Join(t.TempDir(), "state.db")

	a, err := New(t.Context(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestAuthenticated_NotSignedIn(t *testing.T) {
	a := newTestContext(t, "http://localhost:1/api")

	_, err := a.Authenticated(t.Context())
	require.ErrorIs(t, err, auth.ErrNotSignedIn)

	_, err = a.Controller(t.Context())
	require.ErrorIs(t, err, auth.ErrNotSignedIn)
}

func TestAuthenticated_SendsStoredToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600,"user":{"id":1,"email":"a@example.com"}}`))
		case "/api/auth/me":
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":1,"email":"a@example.com"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := newTestContext(t, srv.URL+"/api")
	_, err := a.Session.Login(t.Context(), "google-id-token")
	require.NoError(t, err)

	client, err := a.Authenticated(t.Context())
	require.NoError(t, err)
	me, err := client.Me(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", me.Email)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestDrafts_LocalWithoutDatabaseURL(t *testing.T) {
	a := newTestContext(t, "http://localhost:1/api")

	d, err := a.Drafts(t.Context())
	require.NoError(t, err)
	same, err := a.Drafts(t.Context())
	require.NoError(t, err)
	assert.Same(t, d, same)

	d.Save(drafts.QuestionnaireFormID, types.Responses{"q1": "answer"})
	require.NoError(t, d.Flush(t.Context()))

	stored, err := drafts.NewLocalStore(a.Store, nil).Load(t.Context(), drafts.QuestionnaireFormID)
	require.NoError(t, err)
	assert.Equal(t, "answer", stored["q1"])
}

func TestDrafts_LocalWhenSignedOutEvenWithDatabaseURL(t *testing.T) {
	cfg := config.Default()
	cfg.StateDB = filepath.Join(t.TempDir(), "state.db")
	cfg.DatabaseURL = "postgres://nobody@localhost:1/none"
	cfg.RequestTimeout = config.Duration(time.Second)

	a, err := New(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close(t.Context()) }()

	_, err = a.Drafts(t.Context())
	require.NoError(t, err)
}

func TestSelectedPath(t *testing.T) {
	a := newTestContext(t, "http://localhost:1/api")

	require.NoError(t, workflow.SelectPath(t.Context(), a.Store, workflow.PathExploration))
	p, err := a.SelectedPath(t.Context())
	require.NoError(t, err)
	assert.Equal(t, workflow.PathExploration, p)
}

func TestWorkspace_PinsAcrossRuns(t *testing.T) {
	srv := httptest.NewServer(sandbox.New().Handler())
	defer srv.Close()

	a := newTestContext(t, srv.URL+sandbox.BasePath)
	_, err := a.Session.Login(t.Context(), "pat@example.com")
	require.NoError(t, err)

	ctl, snap, err := a.Workspace(t.Context())
	require.NoError(t, err)
	assert.Empty(t, snap.Documents)
	assert.Nil(t, snap.Latest)

	for _, name := range []string{"old.txt", "new.txt"} {
		_, err := ctl.Upload(t.Context(), types.DocumentTypeResume,
			upload.File{Name: name, Size: 5, MIMEType: "text/plain"}, strings.NewReader("hello"))
		require.NoError(t, err)
	}
	require.NoError(t, a.SaveWorkspace(t.Context(), ctl))
	ctl.Close()

	ctl, snap, err = a.Workspace(t.Context())
	require.NoError(t, err)
	defer ctl.Close()
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "new.txt", snap.Documents[0].OriginalFilename)

	ctl.Discard(types.DocumentTypeResume)
	require.NoError(t, a.SaveWorkspace(t.Context(), ctl))

	ctl2, snap, err := a.Workspace(t.Context())
	require.NoError(t, err)
	defer ctl2.Close()
	assert.Empty(t, snap.Documents)
}
