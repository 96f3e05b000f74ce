package sandbox

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/ipp-client/internal/types"
)

const startMessage = "Document analysis started. This may take 1-2 minutes to complete."

const errDocsNotFound = "Documents not found or don't belong to user"

type startResponse struct {
	AnalysisID int64           `json:"analysis_id"`
	Message    string          `json:"message"`
	Status     types.JobStatus `json:"status"`
}

// decodeValid decodes the JSON body into dst and runs its validate tags.
func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.invalid(w, "body", "Invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.invalid(w, "body", err.Error())
		return false
	}
	return true
}

// hasDoc reports whether the user owns document id of type t.
func (s *Server) hasDoc(userID, id int64, t types.DocumentType) bool {
	d, ok := s.store.document(userID, id)
	return ok && d.DocumentType == t
}

func (s *Server) start(w http.ResponseWriter, rec *jobRecord) {
	rec.step = -1
	rec.job.Status = types.JobStatusPending
	rec.job.CreatedAt = s.now()
	job := s.store.addJob(rec)
	s.logger.Info("sandbox.analysis.started", "analysis_id", job.ID, "kind", rec.kind, "user_id", rec.userID)
	s.jsonResponse(w, http.StatusOK, startResponse{AnalysisID: job.ID, Message: startMessage, Status: job.Status})
}

func (s *Server) handleStartFull(w http.ResponseWriter, r *http.Request) {
	var req types.StartFullAnalysisRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	u := currentUser(r)
	if !s.hasDoc(u.ID, req.ResumeDocumentID, types.DocumentTypeResume) || !s.hasDoc(u.ID, req.JobDocumentID, types.DocumentTypeJobDescription) {
		s.detail(w, http.StatusBadRequest, errDocsNotFound)
		return
	}
	s.start(w, &jobRecord{userID: u.ID, kind: types.AnalysisFull, resumeID: req.ResumeDocumentID, jobDocID: req.JobDocumentID})
}

func (s *Server) handleStartResume(w http.ResponseWriter, r *http.Request) {
	var req types.StartResumeAnalysisRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	u := currentUser(r)
	if !s.hasDoc(u.ID, req.ResumeDocumentID, types.DocumentTypeResume) {
		s.detail(w, http.StatusBadRequest, errDocsNotFound)
		return
	}
	s.start(w, &jobRecord{userID: u.ID, kind: types.AnalysisResume, resumeID: req.ResumeDocumentID})
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req types.StartJobAnalysisRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	u := currentUser(r)
	if !s.hasDoc(u.ID, req.JobDocumentID, types.DocumentTypeJobDescription) {
		s.detail(w, http.StatusBadRequest, errDocsNotFound)
		return
	}

	var resumeID int64
	if _, ok := s.store.withJob(u.ID, req.ExistingAnalysisID, func(rec *jobRecord) { resumeID = rec.resumeID }); !ok {
		s.detail(w, http.StatusNotFound, "Analysis not found")
		return
	}
	s.start(w, &jobRecord{userID: u.ID, kind: types.AnalysisJobOnly, resumeID: resumeID, jobDocID: req.JobDocumentID})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.detail(w, http.StatusNotFound, "Analysis not found")
		return
	}
	u := currentUser(r)

	job, ok := s.store.withJob(u.ID, id, func(rec *jobRecord) {
		resume, _ := s.store.documentLocked(u.ID, rec.resumeID)
		jobDoc, _ := s.store.documentLocked(u.ID, rec.jobDocID)
		s.advance(rec, resume.ContentText, jobDoc.ContentText)
	})
	if !ok {
		s.detail(w, http.StatusNotFound, "Analysis not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.store.jobsFor(currentUser(r).ID))
}

func (s *Server) handleLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	jobs := s.store.jobsFor(currentUser(r).ID)
	if len(jobs) == 0 {
		s.detail(w, http.StatusNotFound, "No analyses found")
		return
	}
	s.jsonResponse(w, http.StatusOK, jobs[0])
}
