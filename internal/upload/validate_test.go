package upload

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_FileTooLargeRegardlessOfType(t *testing.T) {
	types := []string{
		"application/pdf",
		"text/plain",
		"image/png",
		"",
	}

	for _, mt := range types {
		t.Run(mt, func(t *testing.T) {
			err := Validate(File{Name: "big", Size: MaxFileSize + 1, MIMEType: mt})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFileTooLarge)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Contains(t, vErr.Message, "10MB")
		})
	}
}

func TestValidate_UnsupportedTypeWithValidSize(t *testing.T) {
	types := []string{
		"image/png",
		"application/zip",
		"text/html",
		"",
	}

	for _, mt := range types {
		t.Run(mt, func(t *testing.T) {
			err := Validate(File{Name: "x", Size: 1024, MIMEType: mt})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedType)
			assert.Contains(t, err.Error(), "PDF, DOC, DOCX, or TXT")
		})
	}
}

func TestValidate_Accepted(t *testing.T) {
	tests := []File{
		{Name: "resume.pdf", Size: 2 * 1024 * 1024, MIMEType: "application/pdf"},
		{Name: "resume.doc", Size: 1, MIMEType: "application/msword"},
		{Name: "resume.docx", Size: MaxFileSize, MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{Name: "job.txt", Size: 10, MIMEType: "text/plain; charset=utf-8"},
		{Name: "JOB.TXT", Size: 10, MIMEType: "Text/Plain"},
	}

	for _, f := range tests {
		t.Run(f.Name, func(t *testing.T) {
			assert.NoError(t, Validate(f))
		})
	}
}

func TestNormalizeMIME(t *testing.T) {
	assert.Equal(t, "text/plain", NormalizeMIME("text/plain; charset=utf-8"))
	assert.Equal(t, "application/pdf", NormalizeMIME(" APPLICATION/PDF "))
	assert.Equal(t, "", NormalizeMIME(""))
}

func TestDescribe_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(path, []byte("Senior Go Engineer\nBuild reliable services."), 0644))

	f, err := Describe(path)
	require.NoError(t, err)
	assert.Equal(t, "job.txt", f.Name)
	assert.Equal(t, "text/plain", f.MIMEType)
	assert.NoError(t, Validate(f))
}

func TestDescribe_PDFFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n"), 0644))

	f, err := Describe(path)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.MIMEType)
}

func TestDescribe_Missing(t *testing.T) {
	_, err := Describe(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}

func TestDescribe_Directory(t *testing.T) {
	_, err := Describe(t.TempDir())
	assert.Error(t, err)
}
