// Package app assembles the explicit application context shared by every command:
// configuration, logger, local state, session, API client and drafts.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonathan/ipp-client/internal/api"
	"github.com/jonathan/ipp-client/internal/auth"
	"github.com/jonathan/ipp-client/internal/config"
	"github.com/jonathan/ipp-client/internal/db"
	"github.com/jonathan/ipp-client/internal/drafts"
	"github.com/jonathan/ipp-client/internal/logging"
	"github.com/jonathan/ipp-client/internal/storage"
	"github.com/jonathan/ipp-client/internal/workflow"
)

// Context carries the long-lived dependencies. Build it once with New and pass it
// down; there are no package-level globals.
type Context struct {
	Config  config.Config
	Logger  *slog.Logger
	Store   *storage.Store
	Session *auth.Manager
	// API is the anonymous client. Use Authenticated for calls that need a token.
	API *api.Client

	mu     sync.Mutex
	pg     *db.DB
	drafts *drafts.Debouncer
}

// New opens the local state database and wires the session manager and API client.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Context, error) {
	logger = logging.OrDiscard(logger)

	path := cfg.StateDB
	if path == "" {
		path = config.DefaultStateDBPath()
	}
	store, err := storage.Open(ctx, path, logger)
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.APIBaseURL(),
		api.WithTimeout(cfg.RequestTimeout.Std()),
		api.WithLogger(logger),
	)
	session := auth.NewManager(client, store,
		auth.WithVerifier(auth.NewVerifier(cfg.GoogleClientID)),
		auth.WithLogger(logger),
	)

	return &Context{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Session: session,
		API:     client,
	}, nil
}

// Authenticated returns an API client that sends the stored token and refreshes it
// before it expires. It fails with auth.ErrNotSignedIn when there is no session.
func (a *Context) Authenticated(ctx context.Context) (*api.Client, error) {
	ts, err := a.Session.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return a.API.Authenticated(ts), nil
}

// SelectedPath returns the stored journey, or "" when none was chosen.
func (a *Context) SelectedPath(ctx context.Context) (workflow.Path, error) {
	return workflow.SelectedPath(ctx, a.Store)
}

// Drafts returns the debounced draft store. With DATABASE_URL configured and a
// signed-in user, drafts are kept in Postgres under the user's email; otherwise in
// the local state database.
func (a *Context) Drafts(ctx context.Context) (*drafts.Debouncer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drafts != nil {
		return a.drafts, nil
	}

	store, err := a.draftStore(ctx)
	if err != nil {
		return nil, err
	}
	a.drafts = drafts.NewDebouncer(store, drafts.WithLogger(a.Logger))
	return a.drafts, nil
}

func (a *Context) draftStore(ctx context.Context) (drafts.Store, error) {
	local := drafts.NewLocalStore(a.Store, a.Logger)
	if a.Config.DatabaseURL == "" {
		return local, nil
	}

	s, err := a.Session.Current(ctx)
	if errors.Is(err, auth.ErrNotSignedIn) || (err == nil && (s.User == nil || s.User.Email == "")) {
		a.Logger.Debug("app.drafts.local", "reason", "no signed-in user for shared drafts")
		return local, nil
	}
	if err != nil {
		return nil, err
	}

	pg, err := db.Connect(ctx, a.Config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	a.pg = pg
	a.Logger.Debug("app.drafts.postgres", "owner", s.User.Email)
	return drafts.NewPGStore(pg, s.User.Email, a.Logger), nil
}

// Controller builds a workflow controller over the authenticated API client.
func (a *Context) Controller(ctx context.Context, opts ...workflow.Option) (*workflow.Controller, error) {
	client, err := a.Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	d, err := a.Drafts(ctx)
	if err != nil {
		return nil, err
	}
	base := []workflow.Option{
		workflow.WithPollInterval(a.Config.PollInterval.Std()),
		workflow.WithMaxPollAttempts(a.Config.MaxPollAttempts),
		workflow.WithDrafts(d),
		workflow.WithLogger(a.Logger),
	}
	return workflow.NewController(client, append(base, opts...)...), nil
}

// Workspace builds a controller, loads the user's documents and latest analysis and
// applies the pinned working set.
func (a *Context) Workspace(ctx context.Context, opts ...workflow.Option) (*workflow.Controller, *workflow.Snapshot, error) {
	ctl, err := a.Controller(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ctl.Load(ctx); err != nil {
		ctl.Close()
		return nil, nil, err
	}
	ws, err := workflow.LoadWorkingSet(ctx, a.Store)
	if err != nil {
		ctl.Close()
		return nil, nil, err
	}
	ctl.Pin(ws)
	return ctl, &workflow.Snapshot{Documents: ctl.Documents(), Latest: ctl.Latest()}, nil
}

// SaveWorkspace pins ctl's current working set for later runs.
func (a *Context) SaveWorkspace(ctx context.Context, ctl *workflow.Controller) error {
	return workflow.SaveWorkingSet(ctx, a.Store, ctl.Pinned())
}

// Close flushes pending drafts, waits for background draft writes and releases the
// databases.
func (a *Context) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.drafts != nil {
		if err := a.drafts.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush drafts: %w", err))
		}
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
