package ingestion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/ipp-client/internal/fetch"
	"github.com/jonathan/ipp-client/internal/upload"
)

// MIMEType is the upload type of an ingested posting.
const MIMEType = "text/plain"

var (
	// ErrInvalidURL is returned when the URL is malformed.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrHTTPRequestFailed is returned when the page could not be fetched.
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrNoContent is returned when no text could be extracted.
	ErrNoContent = errors.New("no posting text found")
)

// Posting is a job posting fetched from the web.
type Posting struct {
	URL       string
	Platform  fetch.Platform
	Title     string
	Text      string
	Hash      string // SHA-256 of Text, hex
	FetchedAt time.Time
}

// FromURL fetches urlStr and extracts the posting text using platform-specific
// selectors.
func FromURL(ctx context.Context, urlStr string, opts *fetch.Options) (*Posting, error) {
	if u, err := url.Parse(urlStr); err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, urlStr)
	}

	result, err := fetch.URL(ctx, urlStr, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	return FromHTML(urlStr, result.HTML)
}

// FromHTML extracts a posting from an already downloaded page.
func FromHTML(urlStr, html string) (*Posting, error) {
	platform := fetch.DetectPlatform(urlStr)
	text, err := fetch.ExtractMainText(html, fetch.ContentSelectors(platform), fetch.NoiseSelectors(platform)...)
	if err != nil {
		return nil, err
	}
	text = CleanText(text)
	if text == "" {
		return nil, ErrNoContent
	}

	sum := sha256.Sum256([]byte(text))
	return &Posting{
		URL:       urlStr,
		Platform:  platform,
		Title:     fetch.Title(html),
		Text:      text,
		Hash:      hex.EncodeToString(sum[:]),
		FetchedAt: time.Now().UTC(),
	}, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Filename names the upload after the posting title, falling back to the host.
func (p *Posting) Filename() string {
	base := p.Title
	if base == "" {
		if u, err := url.Parse(p.URL); err == nil {
			base = u.Hostname()
		}
	}
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(base), "-"), "-")
	if slug == "" {
		slug = "job-posting"
	}
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	return slug + ".txt"
}

// Content renders the uploaded document: a source header followed by the text.
func (p *Posting) Content() []byte {
	var b bytes.Buffer
	if p.Title != "" {
		b.WriteString(p.Title + "\n")
	}
	b.WriteString("Source: " + p.URL + "\n\n")
	b.WriteString(p.Text)
	b.WriteString("\n")
	return b.Bytes()
}

// File describes the posting as an upload candidate.
func (p *Posting) File() upload.File {
	return upload.File{Name: p.Filename(), Size: int64(len(p.Content())), MIMEType: MIMEType}
}

// Reader returns the upload body.
func (p *Posting) Reader() io.Reader {
	return bytes.NewReader(p.Content())
}
