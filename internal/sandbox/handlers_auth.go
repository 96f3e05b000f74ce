package sandbox

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/ipp-client/internal/types"
)

func (s *Server) now() types.Timestamp {
	return types.NewTimestamp(s.clock.Now().UTC())
}

func (s *Server) authResponse(w http.ResponseWriter, u *types.User) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		s.detail(w, http.StatusInternalServerError, "Authentication failed: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, types.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		User:        u,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.invalid(w, "token", "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.invalid(w, "token", "Field required")
		return
	}

	u := s.store.upsertUser(identify(req.Token), s.now())
	s.logger.Info("sandbox.auth.login", "user_id", u.ID, "email", u.Email)
	s.authResponse(w, u)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, types.MessageResponse{Message: "Successfully logged out"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	u := s.store.touchLogin(currentUser(r).ID, s.now())
	if u == nil {
		s.unauthorized(w)
		return
	}
	s.authResponse(w, u)
}
