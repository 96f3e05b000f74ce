package ingestion

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ipp-client/internal/fetch"
	"github.com/jonathan/ipp-client/internal/upload"
)

const postingHTML = `<html>
<head><title>Careers</title></head>
<body>
	<nav>Home | Jobs</nav>
	<h1>Platform Engineer</h1>
	<div class="job-description">
		<p>Build   the platform.</p>
		<ul><li>Go</li><li>Kubernetes</li></ul>
	</div>
	<form class="application-form">Upload resume</form>
</body>
</html>`

func TestFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer srv.Close()

	p, err := FromURL(context.Background(), srv.URL+"/jobs/1", nil)
	require.NoError(t, err)

	assert.Equal(t, fetch.PlatformUnknown, p.Platform)
	assert.Equal(t, "Platform Engineer", p.Title)
	assert.Equal(t, "Build the platform.\n- Go\n- Kubernetes", p.Text)
	assert.Len(t, p.Hash, 64)
	assert.NotContains(t, p.Text, "Upload resume")
}

func TestFromURL_Errors(t *testing.T) {
	_, err := FromURL(context.Background(), "no host", nil)
	require.ErrorIs(t, err, ErrInvalidURL)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err = FromURL(context.Background(), srv.URL, nil)
	require.ErrorIs(t, err, ErrHTTPRequestFailed)
}

func TestFromHTML_Empty(t *testing.T) {
	_, err := FromHTML("https://example.com/job", `<html><body><nav>only nav</nav></body></html>`)
	require.ErrorIs(t, err, ErrNoContent)
}

func TestFromHTML_Greenhouse(t *testing.T) {
	html := `<body><div class="job__description body">Own the billing service</div><div class="post-apply">Apply</div></body>`
	p, err := FromHTML("https://boards.greenhouse.io/acme/jobs/1", html)
	require.NoError(t, err)
	assert.Equal(t, fetch.PlatformGreenhouse, p.Platform)
	assert.Equal(t, "Own the billing service", p.Text)
}

func TestPosting_Upload(t *testing.T) {
	p := &Posting{URL: "https://jobs.example.com/42", Title: "Senior Go Engineer (Remote)", Text: "Build things."}

	assert.Equal(t, "senior-go-engineer-remote.txt", p.Filename())

	f := p.File()
	require.NoError(t, upload.Validate(f))
	assert.Equal(t, MIMEType, f.MIMEType)

	body, err := io.ReadAll(p.Reader())
	require.NoError(t, err)
	assert.Equal(t, f.Size, int64(len(body)))
	assert.True(t, strings.HasPrefix(string(body), "Senior Go Engineer (Remote)\nSource: https://jobs.example.com/42\n\nBuild things."))
}

func TestPosting_FilenameFallbacks(t *testing.T) {
	assert.Equal(t, "jobs-example-com.txt", (&Posting{URL: "https://jobs.example.com/42"}).Filename())
	assert.Equal(t, "job-posting.txt", (&Posting{URL: "::"}).Filename())

	long := &Posting{Title: strings.Repeat("word ", 30)}
	name := long.Filename()
	assert.LessOrEqual(t, len(name), 64)
	assert.False(t, strings.HasSuffix(strings.TrimSuffix(name, ".txt"), "-"))
}
