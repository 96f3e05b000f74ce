package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ipp-client/internal/types"
)

func TestListDocuments(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"documents": []map[string]any{
			{"id": 1, "document_type": "resume", "filename": "u1_resume.pdf", "original_filename": "resume.pdf",
				"file_size": 2048, "created_at": "2024-05-01T10:00:00"},
			{"id": 2, "document_type": "job_description", "filename": "u1_job.txt", "original_filename": "job.txt",
				"file_size": 100, "created_at": "2024-05-01T10:05:00"},
		}})
	})

	docs, err := c.ListDocuments(t.Context())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, types.DocumentTypeJobDescription, docs[1].DocumentType)
	assert.Equal(t, int64(2048), docs[0].FileSize)
}

func TestUpload_Multipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "resume", r.FormValue("document_type"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, "resume.txt", hdr.Filename)
		assert.Equal(t, "text/plain", hdr.Header.Get("Content-Type"))
		assert.Equal(t, "ten years of go", string(content))

		writeJSON(w, http.StatusOK, map[string]any{
			"id": 9, "document_type": "resume", "filename": "stored.txt", "original_filename": hdr.Filename,
			"file_size": len(content), "created_at": "2024-05-01T10:00:00",
		})
	})

	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("ten years of go"), 0o644))

	doc, err := c.UploadFile(t.Context(), types.DocumentTypeResume, path, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(9), doc.ID)
	assert.Equal(t, "resume.txt", doc.OriginalFilename)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"server detail", http.StatusBadRequest, `{"detail":"Unsupported file type"}`, "Unsupported file type"},
		{"no detail", http.StatusInternalServerError, `oops`, FallbackUploadDetail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Upload(t.Context(), types.DocumentTypeJobDescription, "job.txt", "text/plain", strings.NewReader("x"))
			var upErr *UploadError
			require.ErrorAs(t, err, &upErr)
			assert.Equal(t, tt.wantDetail, upErr.Detail)
			assert.Equal(t, "job.txt", upErr.Filename)
		})
	}
}

func TestUploadFile_Missing(t *testing.T) {
	c := New("http://127.0.0.1:0")
	_, err := c.UploadFile(t.Context(), types.DocumentTypeResume, "/no/such/file.pdf", "application/pdf")
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
