package sandbox

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/ipp-client/internal/types"
)

type contextKey string

const userKey contextKey = "user"

// requireAuth resolves the bearer token to a user and stores it in the request
// context. Every failure is a 401 with the backend's credentials detail.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Fields(r.Header.Get("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			s.unauthorized(w)
			return
		}

		claims, err := s.tokens.Validate(parts[1])
		if err != nil {
			s.logger.Debug("sandbox.auth.rejected", "error", err)
			s.unauthorized(w)
			return
		}

		u := s.store.userByID(claims.UserID)
		if u == nil {
			s.unauthorized(w)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

func (s *Server) unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	s.detail(w, http.StatusUnauthorized, "Could not validate credentials")
}

// currentUser returns the user stored by requireAuth.
func currentUser(r *http.Request) *types.User {
	u, _ := r.Context().Value(userKey).(*types.User)
	return u
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("sandbox.http.request",
			"req_id", r.Header.Get("X-Request-ID"),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

// withCORS lets a browser client on another origin call the sandbox.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
