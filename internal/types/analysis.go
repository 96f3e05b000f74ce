package types

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// JobStatus is the lifecycle state of a remote analysis job.
type JobStatus string

// Job statuses reported by the backend.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transitions can happen.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// AnalysisJob mirrors the backend's document analysis record. The client only reads it.
type AnalysisJob struct {
	ID                  int64           `json:"id"`
	Status              JobStatus       `json:"status"`
	ProgressStep        string          `json:"progress_step,omitempty"`
	ProgressMessage     string          `json:"progress_message,omitempty"`
	ResumeAnalysis      json.RawMessage `json:"resume_analysis,omitempty"`
	JobAnalysis         json.RawMessage `json:"job_analysis,omitempty"`
	ConnectionsAnalysis json.RawMessage `json:"connections_analysis,omitempty"`
	ContextSummary      string          `json:"context_summary,omitempty"`
	ErrorMessage        string          `json:"error_message,omitempty"`
	CreatedAt           Timestamp       `json:"created_at"`
	CompletedAt         *Timestamp      `json:"completed_at,omitempty"`
}

// AnalysisKind selects which start endpoint is used.
type AnalysisKind string

// Analysis kinds.
const (
	// AnalysisFull analyzes a resume against a job description.
	AnalysisFull AnalysisKind = "full"
	// AnalysisResume analyzes the resume alone.
	AnalysisResume AnalysisKind = "resume"
	// AnalysisJobOnly adds a job description to an existing resume analysis.
	AnalysisJobOnly AnalysisKind = "job"
)

// ParseAnalysisKind validates a user supplied kind.
func ParseAnalysisKind(s string) (AnalysisKind, error) {
	switch AnalysisKind(s) {
	case AnalysisFull, AnalysisResume, AnalysisJobOnly:
		return AnalysisKind(s), nil
	default:
		return "", fmt.Errorf("unknown analysis kind %q (want full, resume or job)", s)
	}
}

// DocumentRefs holds the identifiers an analysis start request may reference.
// Which fields are required depends on the AnalysisKind.
type DocumentRefs struct {
	ResumeDocumentID   int64
	JobDocumentID      int64
	ExistingAnalysisID int64
}

// StartFullAnalysisRequest is the body of POST /analysis/start.
type StartFullAnalysisRequest struct {
	ResumeDocumentID int64 `json:"resume_document_id" validate:"required,gt=0"`
	JobDocumentID    int64 `json:"job_document_id" validate:"required,gt=0"`
}

// StartResumeAnalysisRequest is the body of POST /analysis/resume/start.
type StartResumeAnalysisRequest struct {
	ResumeDocumentID int64 `json:"resume_document_id" validate:"required,gt=0"`
}

// StartJobAnalysisRequest is the body of POST /analysis/job/start.
type StartJobAnalysisRequest struct {
	ExistingAnalysisID int64 `json:"existing_analysis_id" validate:"required,gt=0"`
	JobDocumentID      int64 `json:"job_document_id" validate:"required,gt=0"`
}

// StartAnalysisResponse is returned by every start endpoint.
type StartAnalysisResponse struct {
	AnalysisID int64     `json:"analysis_id"`
	Status     JobStatus `json:"status"`
}

// StartRequest builds the validated request body and endpoint path for kind.
func StartRequest(kind AnalysisKind, refs DocumentRefs) (path string, body any, err error) {
	validate := validator.New()

	switch kind {
	case AnalysisFull:
		req := &StartFullAnalysisRequest{ResumeDocumentID: refs.ResumeDocumentID, JobDocumentID: refs.JobDocumentID}
		return "/analysis/start", req, validate.Struct(req)
	case AnalysisResume:
		req := &StartResumeAnalysisRequest{ResumeDocumentID: refs.ResumeDocumentID}
		return "/analysis/resume/start", req, validate.Struct(req)
	case AnalysisJobOnly:
		req := &StartJobAnalysisRequest{ExistingAnalysisID: refs.ExistingAnalysisID, JobDocumentID: refs.JobDocumentID}
		return "/analysis/job/start", req, validate.Struct(req)
	default:
		return "", nil, fmt.Errorf("unknown analysis kind %q", kind)
	}
}
