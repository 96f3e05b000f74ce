package workflow

import (
	"context"
	"errors"

	"github.com/jonathan/ipp-client/internal/api"
	"github.com/jonathan/ipp-client/internal/auth"
	"github.com/jonathan/ipp-client/internal/poller"
	"github.com/jonathan/ipp-client/internal/upload"
)

// User-facing messages for errors without their own text.
const (
	MsgSignIn       = "Please sign in to continue."
	MsgTimedOut     = "Analysis is taking longer than expected. Check back with `status` in a moment."
	MsgCancelled    = "Stopped waiting for the analysis."
	MsgRequestTime  = "The request timed out. Please try again."
	MsgNotFound     = "Nothing found."
	MsgNoResume     = "Upload a resume first."
	MsgUnknownError = "Something went wrong. Please try again."
)

// UserMessage converts err into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		validationErr *upload.ValidationError
		uploadErr     *api.UploadError
		startErr      *api.JobStartError
		failedErr     *poller.JobFailedError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &uploadErr):
		return uploadErr.Detail
	case errors.As(err, &startErr):
		return startErr.Detail
	case errors.As(err, &failedErr):
		return failedErr.Error()
	case errors.Is(err, poller.ErrTimeout):
		return MsgTimedOut
	case errors.Is(err, poller.ErrCancelled), errors.Is(err, context.Canceled):
		return MsgCancelled
	case errors.Is(err, auth.ErrNotSignedIn), errors.Is(err, api.ErrUnauthorized):
		return MsgSignIn
	case errors.Is(err, context.DeadlineExceeded):
		return MsgRequestTime
	case errors.Is(err, ErrNoResume):
		return MsgNoResume
	case errors.Is(err, api.ErrNotFound):
		return MsgNotFound
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnknownError
}
