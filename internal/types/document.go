package types

import (
	"fmt"
	"strings"
)

// DocumentType identifies the role of an uploaded document.
type DocumentType string

// Document types accepted by the backend.
const (
	DocumentTypeResume         DocumentType = "resume"
	DocumentTypeJobDescription DocumentType = "job_description"
)

// ParseDocumentType converts user input ("resume", "job", "job_description") into a DocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resume", "cv":
		return DocumentTypeResume, nil
	case "job_description", "job-description", "job":
		return DocumentTypeJobDescription, nil
	default:
		return "", fmt.Errorf("unknown document type %q (want resume or job_description)", s)
	}
}

// Label returns the human-readable name of the document type.
func (t DocumentType) Label() string {
	if t == DocumentTypeResume {
		return "Resume"
	}
	return "Job Description"
}

// Document is an uploaded document as returned by the backend.
type Document struct {
	ID               int64        `json:"id"`
	DocumentType     DocumentType `json:"document_type"`
	Filename         string       `json:"filename"`
	OriginalFilename string       `json:"original_filename"`
	FileSize         int64        `json:"file_size"`
	CreatedAt        Timestamp    `json:"created_at"`
	ContentText      string       `json:"content_text,omitempty"`
}

// DocumentList is the body of GET /documents/.
type DocumentList struct {
	Documents []Document `json:"documents"`
}

// FindDocument returns the first document of the given type, or nil.
func FindDocument(docs []Document, docType DocumentType) *Document {
	for i := range docs {
		if docs[i].DocumentType == docType {
			return &docs[i]
		}
	}
	return nil
}
