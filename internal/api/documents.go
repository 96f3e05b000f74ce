package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/jonathan/ipp-client/internal/types"
)

// ListDocuments returns the user's uploaded documents.
func (c *Client) ListDocuments(ctx context.Context) ([]types.Document, error) {
	var out types.DocumentList
	if err := c.do(ctx, request{method: http.MethodGet, path: "/documents/"}, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// GetDocument returns one document including its extracted text.
func (c *Client) GetDocument(ctx context.Context, id int64) (*types.Document, error) {
	var out types.Document
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/documents/%d", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload sends content as a multipart upload. Failures are returned as *UploadError
// carrying the server detail or FallbackUploadDetail.
func (c *Client) Upload(ctx context.Context, docType types.DocumentType, filename, mimeType string, content io.Reader) (*types.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("document_type", string(docType)); err != nil {
		return nil, &UploadError{Filename: filename, Detail: FallbackUploadDetail, Cause: err}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, &UploadError{Filename: filename, Detail: FallbackUploadDetail, Cause: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, &UploadError{Filename: filename, Detail: FallbackUploadDetail, Cause: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &UploadError{Filename: filename, Detail: FallbackUploadDetail, Cause: err}
	}

	r := request{
		method:      http.MethodPost,
		path:        "/documents/upload",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}
	var out types.Document
	if err := c.do(ctx, r, &out); err != nil {
		return nil, &UploadError{Filename: filename, Detail: DetailOf(err, FallbackUploadDetail), Cause: err}
	}
	return &out, nil
}

// UploadFile uploads the file at path.
func (c *Client) UploadFile(ctx context.Context, docType types.DocumentType, path, mimeType string) (*types.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &UploadError{Filename: filepath.Base(path), Detail: FallbackUploadDetail, Cause: err}
	}
	defer func() { _ = f.Close() }()
	return c.Upload(ctx, docType, filepath.Base(path), mimeType, f)
}
