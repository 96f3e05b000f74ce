package sandbox

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/jonathan/ipp-client/internal/types"
	"github.com/jonathan/ipp-client/internal/upload"
)

var allowedExtensions = []string{".pdf", ".doc", ".docx", ".txt"}

// multipartOverhead is the room left for form fields and part headers on top of
// the file size limit.
const multipartOverhead = 1 << 20

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	tooLarge := fmt.Sprintf("File size too large. Maximum size is %s", upload.MaxFileSizeDisplay)

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.detail(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		s.invalid(w, "file", "Invalid multipart body")
		return
	}

	docType := types.DocumentType(r.FormValue("document_type"))
	if docType != types.DocumentTypeResume && docType != types.DocumentTypeJobDescription {
		s.invalid(w, "document_type", "Input should be 'resume' or 'job_description'")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.invalid(w, "file", "Field required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, upload.MaxFileSize+1))
	if err != nil {
		s.detail(w, http.StatusInternalServerError, "Document upload failed: "+err.Error())
		return
	}
	if int64(len(content)) > upload.MaxFileSize {
		s.detail(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(allowedExtensions, ext) {
		s.detail(w, http.StatusBadRequest, "File type not allowed. Allowed types: "+strings.Join(allowedExtensions, ", "))
		return
	}

	doc := types.Document{
		DocumentType:     docType,
		Filename:         uuid.NewString() + ext,
		OriginalFilename: header.Filename,
		FileSize:         int64(len(content)),
		CreatedAt:        s.now(),
	}
	if mimetype.Detect(content).Is("text/plain") {
		doc.ContentText = string(content)
	}

	u := currentUser(r)
	doc = s.store.addDocument(u.ID, doc)
	s.logger.Info("sandbox.documents.uploaded", "user_id", u.ID, "document_id", doc.ID, "type", doc.DocumentType, "bytes", doc.FileSize)
	s.jsonResponse(w, http.StatusOK, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, types.DocumentList{Documents: s.store.documents(currentUser(r).ID)})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.detail(w, http.StatusNotFound, "Document not found")
		return
	}
	doc, ok := s.store.document(currentUser(r).ID, id)
	if !ok {
		s.detail(w, http.StatusNotFound, "Document not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok || !s.store.deleteDocument(currentUser(r).ID, id) {
		s.detail(w, http.StatusNotFound, "Document not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, types.MessageResponse{Message: "Document deleted successfully"})
}
