package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors matched with errors.Is against *HTTPError.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Fallback messages used when the server supplies no detail.
const (
	FallbackUploadDetail  = "Upload failed"
	FallbackStartDetail   = "Failed to start analysis"
	FallbackRequestDetail = "Request failed"
)

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string // server supplied "detail", may be empty
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

// Is maps status codes onto the package sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// UploadError is a rejected or failed document upload.
type UploadError struct {
	Filename string
	Detail   string
	Cause    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %s failed: %s", e.Filename, e.Detail)
}

func (e *UploadError) Unwrap() error {
	return e.Cause
}

// JobStartError is a failed analysis start. It is safe to retry.
type JobStartError struct {
	Detail string
	Cause  error
}

func (e *JobStartError) Error() string {
	return e.Detail
}

func (e *JobStartError) Unwrap() error {
	return e.Cause
}

// DetailOf returns the server detail carried by err, or fallback.
func DetailOf(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail != "" {
		return httpErr.Detail
	}
	return fallback
}

// parseDetail extracts FastAPI's "detail" field. Validation errors carry a list of
// objects with "msg"; those are joined.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
