package sandbox

import (
	"encoding/json"
	"net/http"
)

// fieldError is one entry of a validation detail list.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("sandbox.http.encode_failed", "error", err)
	}
}

// detail writes the {"detail": "..."} error body.
func (s *Server) detail(w http.ResponseWriter, status int, msg string) {
	s.jsonResponse(w, status, map[string]string{"detail": msg})
}

// invalid writes a 422 with a validation detail list.
func (s *Server) invalid(w http.ResponseWriter, field, msg string) {
	s.jsonResponse(w, http.StatusUnprocessableEntity, map[string][]fieldError{
		"detail": {{Loc: []string{"body", field}, Msg: msg, Type: "value_error"}},
	})
}
