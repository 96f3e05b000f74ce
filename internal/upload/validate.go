// Package upload validates documents before they are sent to the backend.
package upload

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxFileSize is the largest accepted upload (10 MiB).
const MaxFileSize int64 = 10 * 1024 * 1024

// MaxFileSizeDisplay is MaxFileSize for messages.
const MaxFileSizeDisplay = "10MB"

// AllowedMIMETypes maps accepted MIME types to their short format name.
var AllowedMIMETypes = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"text/plain": "txt",
}

// Accept lists the accepted file extensions.
const Accept = ".pdf,.doc,.docx,.txt"

// FormatsDisplay is the accepted formats for messages.
const FormatsDisplay = "PDF, DOC, DOCX, or TXT"

var (
	// ErrFileTooLarge is the cause of a ValidationError for oversized files.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedType is the cause of a ValidationError for disallowed MIME types.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// File describes a candidate upload.
type File struct {
	Path     string
	Name     string
	Size     int64
	MIMEType string
}

// ValidationError reports why a file was rejected. It is surfaced inline and
// never sent to the server.
type ValidationError struct {
	Filename string
	Message  string
	Cause    error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Validate checks f against the size limit and the allowed formats. The size
// check runs first so oversized files are reported as too large whatever their type.
func Validate(f File) error {
	if f.Size > MaxFileSize {
		return &ValidationError{
			Filename: f.Name,
			Message:  fmt.Sprintf("File size must be less than %s", MaxFileSizeDisplay),
			Cause:    ErrFileTooLarge,
		}
	}

	if _, ok := AllowedMIMETypes[NormalizeMIME(f.MIMEType)]; !ok {
		return &ValidationError{
			Filename: f.Name,
			Message:  fmt.Sprintf("Please upload a %s file", FormatsDisplay),
			Cause:    ErrUnsupportedType,
		}
	}

	return nil
}

// NormalizeMIME lowercases a MIME type and strips its parameters.
func NormalizeMIME(mt string) string {
	mt = strings.TrimSpace(mt)
	if mt == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// Describe stats the file at path and detects its MIME type from content.
// Legacy Word documents sniff as generic OLE containers, so the extension
// decides for those.
func Describe(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to detect file type of %s: %w", path, err)
	}

	detected := NormalizeMIME(mt.String())
	if _, ok := AllowedMIMETypes[detected]; !ok {
		if strings.EqualFold(filepath.Ext(path), ".doc") && mt.Is("application/x-ole-storage") {
			detected = "application/msword"
		}
	}

	return File{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEType: detected,
	}, nil
}
