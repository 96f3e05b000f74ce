package sandbox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jonathan/ipp-client/internal/api"
	"github.com/jonathan/ipp-client/internal/connections"
	"github.com/jonathan/ipp-client/internal/experience"
	"github.com/jonathan/ipp-client/internal/types"
)

const resumeText = `Experienced engineer.
- Built payment services in Go and Python for five years
- Led a team of four engineers, mentoring juniors
Skills: Go, Python, SQL, leadership`

const jobText = `We need Go, Kubernetes and SQL.
- Operate Kubernetes clusters in production`

type harness struct {
	srv    *httptest.Server
	anon   *api.Client
	client *api.Client
	token  string
	user   *types.User
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	srv := httptest.NewServer(New(opts...).Handler())
	t.Cleanup(srv.Close)

	anon := api.New(srv.URL + BasePath)
	resp, err := anon.Login(t.Context(), "sam.doe@example.com")
	require.NoError(t, err)
	require.NotNil(t, resp.User)

	return &harness{
		srv:    srv,
		anon:   anon,
		client: anon.Authenticated(tokenSource(resp.AccessToken)),
		token:  resp.AccessToken,
		user:   resp.User,
	}
}

func tokenSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "bearer"})
}

func (h *harness) upload(t *testing.T, docType types.DocumentType, name, text string) *types.Document {
	t.Helper()
	doc, err := h.client.Upload(t.Context(), docType, name, "text/plain", strings.NewReader(text))
	require.NoError(t, err)
	return doc
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "sam.doe@example.com", h.user.Email)
	assert.Equal(t, "Sam Doe", h.user.Name)
	assert.NotNil(t, h.user.LastLogin)

	me, err := h.client.Me(t.Context())
	require.NoError(t, err)
	assert.Equal(t, h.user.ID, me.ID)

	again, err := h.anon.Login(t.Context(), "sam.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, h.user.ID, again.User.ID, "same email signs into the same user")
}

func TestLogin_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(New().Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+BasePath+"/auth/login", "application/json", strings.NewReader(`{"token":""}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUnauthorized(t *testing.T) {
	h := newHarness(t)

	_, err := h.anon.Me(t.Context())
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	bogus := h.anon.Authenticated(tokenSource("not-a-token"))
	_, err = bogus.ListDocuments(t.Context())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestTokenExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := newHarness(t, WithClock(clock), WithTokenTTL(time.Minute))

	_, err := h.client.Me(t.Context())
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = h.client.Me(t.Context())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestRefreshAndLogout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := newHarness(t, WithClock(clock))

	clock.Advance(time.Minute)
	resp, err := h.anon.RefreshToken(t.Context(), h.token)
	require.NoError(t, err)
	assert.NotEqual(t, h.token, resp.AccessToken)
	assert.Equal(t, int(DefaultTokenTTL.Seconds()), resp.ExpiresIn)

	fresh := h.anon.Authenticated(tokenSource(resp.AccessToken))
	require.NoError(t, fresh.Logout(t.Context()))
}

func TestDocuments(t *testing.T) {
	h := newHarness(t)

	docs, err := h.client.ListDocuments(t.Context())
	require.NoError(t, err)
	assert.Empty(t, docs)

	resume := h.upload(t, types.DocumentTypeResume, "cv.txt", resumeText)
	job := h.upload(t, types.DocumentTypeJobDescription, "job.txt", jobText)
	assert.Equal(t, "cv.txt", resume.OriginalFilename)
	assert.Equal(t, int64(len(resumeText)), resume.FileSize)
	assert.True(t, strings.HasSuffix(resume.Filename, ".txt"))

	docs, err = h.client.ListDocuments(t.Context())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, resume.ID, docs[0].ID)
	assert.Equal(t, job.ID, docs[1].ID)

	got, err := h.client.GetDocument(t.Context(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobText, got.ContentText)

	_, err = h.client.GetDocument(t.Context(), 9999)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestUpload_RejectsExtension(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Upload(t.Context(), types.DocumentTypeResume, "tool.exe", "application/octet-stream", strings.NewReader("MZ"))
	var upErr *api.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "File type not allowed. Allowed types: .pdf, .doc, .docx, .txt", upErr.Detail)
}

func TestUpload_RejectsOversized(t *testing.T) {
	h := newHarness(t)

	big := strings.Repeat("a", 10*1024*1024+1)
	_, err := h.client.Upload(t.Context(), types.DocumentTypeResume, "big.txt", "text/plain", strings.NewReader(big))
	var upErr *api.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "File size too large. Maximum size is 10MB", upErr.Detail)
}

func fetchN(t *testing.T, c *api.Client, id int64, n int) *types.AnalysisJob {
	t.Helper()
	var job *types.AnalysisJob
	for i := 0; i < n; i++ {
		var err error
		job, err = c.FetchStatus(t.Context(), id)
		require.NoError(t, err)
	}
	return job
}

func TestAnalysis_ScriptedProgression(t *testing.T) {
	h := newHarness(t)
	resume := h.upload(t, types.DocumentTypeResume, "cv.txt", resumeText)
	jobDoc := h.upload(t, types.DocumentTypeJobDescription, "job.txt", jobText)

	started, err := h.client.StartAnalysis(t.Context(), types.AnalysisFull, types.DocumentRefs{
		ResumeDocumentID: resume.ID,
		JobDocumentID:    jobDoc.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusPending, started.Status)

	latest, err := h.client.LatestStatus(t.Context())
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusPending, latest.Status, "latest status does not advance the job")

	for i, step := range types.ProgressSteps[:len(types.ProgressSteps)-1] {
		job, err := h.client.FetchStatus(t.Context(), started.AnalysisID)
		require.NoError(t, err)
		assert.Equal(t, types.JobStatusProcessing, job.Status, "read %d", i)
		assert.Equal(t, step.ID, job.ProgressStep)
	}

	job, err := h.client.FetchStatus(t.Context(), started.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Contains(t, job.ContextSummary, "2 of the 3 skills")

	again := fetchN(t, h.client, started.AnalysisID, 2)
	assert.Equal(t, types.JobStatusCompleted, again.Status, "completed jobs stay completed")

	alignment, err := connections.Parse(job.ConnectionsAnalysis, nil)
	require.NoError(t, err)
	require.NotNil(t, alignment)
	require.Len(t, alignment.DirectMatches, 2)
	assert.Equal(t, "Go", alignment.DirectMatches[0].Skill)
	assert.Equal(t, "SQL", alignment.DirectMatches[1].Skill)
	assert.Len(t, alignment.TransferableSkills, 3)
	require.Len(t, alignment.SkillGaps, 1)
	assert.Equal(t, "Kubernetes", alignment.SkillGaps[0].MissingSkill)

	items, err := experience.Candidates(job)
	require.NoError(t, err)
	assert.Len(t, items, 12)
	assert.Equal(t, "job-req-0", items[0].ID)
	assert.Equal(t, experience.ItemConnection, items[3].Type)

	list, err := h.client.ListAnalyses(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestAnalysis_ResumeOnlyThenJob(t *testing.T) {
	h := newHarness(t)
	resume := h.upload(t, types.DocumentTypeResume, "cv.txt", resumeText)

	first, err := h.client.StartAnalysis(t.Context(), types.AnalysisResume, types.DocumentRefs{ResumeDocumentID: resume.ID})
	require.NoError(t, err)
	done := fetchN(t, h.client, first.AnalysisID, len(types.ProgressSteps))
	assert.Equal(t, types.JobStatusCompleted, done.Status)
	assert.Empty(t, done.ConnectionsAnalysis)

	jobDoc := h.upload(t, types.DocumentTypeJobDescription, "job.txt", jobText)
	second, err := h.client.StartAnalysis(t.Context(), types.AnalysisJobOnly, types.DocumentRefs{
		ExistingAnalysisID: first.AnalysisID,
		JobDocumentID:      jobDoc.ID,
	})
	require.NoError(t, err)
	done = fetchN(t, h.client, second.AnalysisID, len(types.ProgressSteps))
	assert.Equal(t, types.JobStatusCompleted, done.Status)
	assert.NotEmpty(t, done.ConnectionsAnalysis)

	latest, err := h.client.LatestStatus(t.Context())
	require.NoError(t, err)
	assert.Equal(t, second.AnalysisID, latest.ID)
}

func TestAnalysis_StartErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.StartAnalysis(t.Context(), types.AnalysisFull, types.DocumentRefs{ResumeDocumentID: 998, JobDocumentID: 999})
	var startErr *api.JobStartError
	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, errDocsNotFound, startErr.Detail)

	_, err = h.client.LatestStatus(t.Context())
	assert.ErrorIs(t, err, api.ErrNotFound)

	_, err = h.client.FetchStatus(t.Context(), 12345)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestAnalysis_FailAt(t *testing.T) {
	h := newHarness(t, WithFailAt("finding_connections", "LLM quota exceeded"))
	resume := h.upload(t, types.DocumentTypeResume, "cv.txt", resumeText)
	jobDoc := h.upload(t, types.DocumentTypeJobDescription, "job.txt", jobText)

	started, err := h.client.StartAnalysis(t.Context(), types.AnalysisFull, types.DocumentRefs{
		ResumeDocumentID: resume.ID,
		JobDocumentID:    jobDoc.ID,
	})
	require.NoError(t, err)

	job := fetchN(t, h.client, started.AnalysisID, 4)
	assert.Equal(t, types.JobStatusFailed, job.Status)
	assert.Equal(t, "LLM quota exceeded", job.ErrorMessage)

	job = fetchN(t, h.client, started.AnalysisID, 1)
	assert.Equal(t, types.JobStatusFailed, job.Status)
}

func TestAnalysis_OtherUsersJobsAreHidden(t *testing.T) {
	h := newHarness(t)
	resume := h.upload(t, types.DocumentTypeResume, "cv.txt", resumeText)
	started, err := h.client.StartAnalysis(t.Context(), types.AnalysisResume, types.DocumentRefs{ResumeDocumentID: resume.ID})
	require.NoError(t, err)

	other, err := h.anon.Login(t.Context(), "other@example.com")
	require.NoError(t, err)
	oc := h.anon.Authenticated(tokenSource(other.AccessToken))

	_, err = oc.FetchStatus(t.Context(), started.AnalysisID)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestQuestionnaire(t *testing.T) {
	h := newHarness(t)

	q, err := h.client.LatestQuestionnaire(t.Context())
	require.NoError(t, err)
	assert.Nil(t, q)

	draft, err := h.client.SaveQuestionnaire(t.Context(), 0, types.QuestionnaireSubmission{
		Responses: types.Responses{"goals": "teach"},
	})
	require.NoError(t, err)
	assert.Nil(t, draft.CompletedAt)
	assert.Equal(t, h.user.ID, draft.UserID)

	done, err := h.client.SaveQuestionnaire(t.Context(), draft.ID, types.QuestionnaireSubmission{
		Responses:  types.Responses{"goals": "teach", "values": []any{"service"}},
		IsComplete: true,
	})
	require.NoError(t, err)
	assert.Equal(t, draft.ID, done.ID)
	assert.NotNil(t, done.CompletedAt)

	latest, err := h.client.LatestQuestionnaire(t.Context())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "teach", latest.Responses["goals"])

	_, err = h.client.SaveQuestionnaire(t.Context(), 777, types.QuestionnaireSubmission{Responses: types.Responses{}})
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestQuestionnaire_PostAfterCompletionUpdates(t *testing.T) {
	h := newHarness(t)

	first, err := h.client.SaveQuestionnaire(t.Context(), 0, types.QuestionnaireSubmission{
		Responses: types.Responses{"a": "1"}, IsComplete: true,
	})
	require.NoError(t, err)

	second, err := h.client.SaveQuestionnaire(t.Context(), 0, types.QuestionnaireSubmission{
		Responses: types.Responses{"a": "2"}, IsComplete: true,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "2", second.Responses["a"])
}

func TestHealthAndCORS(t *testing.T) {
	handler := New().Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, BasePath+"/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, BasePath+"/documents/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- New().ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-errCh:
		assert.False(t, errors.Is(err, context.Canceled))
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
