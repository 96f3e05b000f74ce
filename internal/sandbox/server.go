// Package sandbox is a local stand-in for the IPP backend. It implements the API
// surface the client consumes, keeps everything in memory and runs analyses as a
// scripted progression: each status read advances a job by one progress step.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"

	"github.com/jonathan/ipp-client/internal/logging"
)

// BasePath prefixes every route.
const BasePath = "/api"

// DefaultSecret signs tokens when none is configured.
const DefaultSecret = "ipp-sandbox-secret"

// Server is the sandbox backend.
type Server struct {
	clock       clockwork.Clock
	logger      *slog.Logger
	secret      string
	tokenTTL    time.Duration
	failStep    string
	failMessage string
	limits      []EndpointLimit

	tokens   *TokenService
	limiter  *limiter
	store    *store
	validate *validator.Validate
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for timestamps and token expiry.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSecret sets the token signing secret.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = secret }
}

// WithTokenTTL sets the access token lifetime.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithFailAt makes every analysis fail with message when it reaches step.
func WithFailAt(step, message string) Option {
	return func(s *Server) {
		s.failStep = step
		s.failMessage = message
	}
}

// WithRateLimits replaces the per-route request budgets. An empty list turns rate
// limiting off.
func WithRateLimits(limits []EndpointLimit) Option {
	return func(s *Server) { s.limits = limits }
}

// New creates a sandbox server.
func New(opts ...Option) *Server {
	s := &Server{
		clock:    clockwork.NewRealClock(),
		secret:   DefaultSecret,
		tokenTTL: DefaultTokenTTL,
		limits:   DefaultEndpointLimits(),
		store:    newStore(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)
	if s.failStep != "" && s.failMessage == "" {
		s.failMessage = "Analysis failed"
	}
	s.tokens = NewTokenService(s.secret, s.tokenTTL, s.clock)
	if len(s.limits) > 0 {
		s.limiter = newLimiter(s.clock, s.limits)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+BasePath+"/health", s.handleHealth)

	mux.HandleFunc("POST "+BasePath+"/auth/login", s.handleLogin)
	mux.HandleFunc("GET "+BasePath+"/auth/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("POST "+BasePath+"/auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("POST "+BasePath+"/auth/refresh", s.requireAuth(s.handleRefresh))

	mux.HandleFunc("POST "+BasePath+"/documents/upload", s.requireAuth(s.handleUpload))
	mux.HandleFunc("GET "+BasePath+"/documents/{$}", s.requireAuth(s.handleListDocuments))
	mux.HandleFunc("GET "+BasePath+"/documents/{id}", s.requireAuth(s.handleGetDocument))
	mux.HandleFunc("DELETE "+BasePath+"/documents/{id}", s.requireAuth(s.handleDeleteDocument))

	mux.HandleFunc("POST "+BasePath+"/analysis/start", s.requireAuth(s.handleStartFull))
	mux.HandleFunc("POST "+BasePath+"/analysis/resume/start", s.requireAuth(s.handleStartResume))
	mux.HandleFunc("POST "+BasePath+"/analysis/job/start", s.requireAuth(s.handleStartJob))
	mux.HandleFunc("GET "+BasePath+"/analysis/{$}", s.requireAuth(s.handleListAnalyses))
	mux.HandleFunc("GET "+BasePath+"/analysis/latest/status", s.requireAuth(s.handleLatestAnalysis))
	mux.HandleFunc("GET "+BasePath+"/analysis/{id}", s.requireAuth(s.handleGetAnalysis))

	mux.HandleFunc("POST "+BasePath+"/questionnaire/background", s.requireAuth(s.handleCreateQuestionnaire))
	mux.HandleFunc("GET "+BasePath+"/questionnaire/background/latest", s.requireAuth(s.handleLatestQuestionnaire))
	mux.HandleFunc("PUT "+BasePath+"/questionnaire/background/{id}", s.requireAuth(s.handleUpdateQuestionnaire))

	s.handler = s.withLogging(s.withCORS(s.withRateLimit(mux)))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("sandbox.start", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("sandbox server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("sandbox.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("sandbox shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
