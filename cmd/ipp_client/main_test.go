package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ipp-client/internal/config"
	"github.com/jonathan/ipp-client/internal/sandbox"
	"github.com/jonathan/ipp-client/internal/types"
	"github.com/jonathan/ipp-client/internal/workflow"
)

const resumeText = `Experienced engineer.
- Built payment services in Go and Python for five years
- Led a team of four engineers, mentoring juniors
Skills: Go, Python, SQL, leadership`

const jobText = `We need Go, Kubernetes and SQL.
- Operate Kubernetes clusters in production`

// setupCLI points the client at a fresh sandbox and a temporary state database.
func setupCLI(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(sandbox.New().Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv(config.EnvAPIURL, srv.URL+sandbox.BasePath)
	t.Setenv(config.EnvStateDB, filepath.Join(dir, "state.db"))
	t.Setenv(config.EnvPollInterval, "10ms")
	t.Setenv(config.EnvGoogleClientID, "")
	t.Setenv(config.EnvDatabaseURL, "")
	t.Setenv(config.EnvAppEnv, "test")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestParseDocType(t *testing.T) {
	tests := []struct {
		in      string
		want    types.DocumentType
		wantErr bool
	}{
		{"resume", types.DocumentTypeResume, false},
		{" CV ", types.DocumentTypeResume, false},
		{"job", types.DocumentTypeJobDescription, false},
		{"job_description", types.DocumentTypeJobDescription, false},
		{"cover-letter", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDocType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAnswers(t *testing.T) {
	base := types.Responses{"goal": "teach"}

	got, err := parseAnswers(base, []string{"values=service", "values=growth", "years = 5"})
	require.NoError(t, err)
	assert.Equal(t, types.Responses{
		"goal":   "teach",
		"values": []string{"service", "growth"},
		"years":  "5",
	}, got)
	assert.Len(t, base, 1, "base is not modified")

	_, err = parseAnswers(base, []string{"no-equals"})
	require.Error(t, err)
	_, err = parseAnswers(base, []string{"=value"})
	require.Error(t, err)
}

func TestCLI_NotSignedIn(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "whoami")
	require.Error(t, err)
	assert.Equal(t, workflow.MsgSignIn, workflow.UserMessage(err))
}

func TestCLI_GuidedFlow(t *testing.T) {
	dir := setupCLI(t)

	out := run(t, "login", "sam@example.com")
	assert.Contains(t, out, "sam@example.com")
	assert.Contains(t, out, "Choose your journey")

	assert.Contains(t, run(t, "path", "interview"), "Path set to interview.")
	assert.Contains(t, run(t, "path"), "Path: interview")

	resume := filepath.Join(dir, "resume.txt")
	job := filepath.Join(dir, "job.txt")
	require.NoError(t, os.WriteFile(resume, []byte(resumeText), 0o600))
	require.NoError(t, os.WriteFile(job, []byte(jobText), 0o600))

	assert.Contains(t, run(t, "upload", "resume", "--file", resume), "Uploaded resume.txt")
	assert.Contains(t, run(t, "upload", "job", "--file", job), "Uploaded job.txt")

	out = run(t, "documents")
	assert.Contains(t, out, "resume.txt")
	assert.Contains(t, out, "job.txt")

	out = run(t, "analyze", "--timeout", "30s")
	assert.Contains(t, out, "Analysis #")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "SKILL ALIGNMENT")

	assert.Contains(t, run(t, "status"), "completed")

	out = run(t, "experience", "select", "job-req-0", "job-req-1", "connection-0")
	assert.Contains(t, out, "Selected: 3 (need 3)")

	assert.Contains(t, run(t, "gate"), "Ready to continue to Experience.")
	assert.Contains(t, run(t, "gate", "next"), "Now in Experience.")
	assert.Contains(t, run(t, "gate"), "Ready to continue to Reflection.")

	run(t, "questionnaire", "draft", "save", "goal=teach")
	assert.Contains(t, run(t, "questionnaire", "draft", "show"), "goal: teach")

	out = run(t, "questionnaire", "submit")
	assert.Contains(t, out, "QUESTIONNAIRE SUBMITTED")
	assert.Contains(t, run(t, "questionnaire", "show"), "goal: teach")
	assert.Contains(t, run(t, "questionnaire", "draft", "show"), "No responses saved.")

	out = run(t, "export", "--out", filepath.Join(dir, "report"))
	assert.Contains(t, out, "report.xlsx")
	_, err := os.Stat(filepath.Join(dir, "report.xlsx"))
	require.NoError(t, err)

	assert.Contains(t, run(t, "discard", "job"), "discarded")
	out = run(t, "documents")
	assert.Contains(t, out, "resume.txt")
	assert.NotContains(t, out, "job.txt")

	assert.Contains(t, run(t, "logout"), "Signed out.")
	_, err = execute(t, "whoami")
	require.Error(t, err)
}
