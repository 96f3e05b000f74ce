// Package workflow drives the guided workflow: the document working set, analysis
// jobs and their polling, stage gating and questionnaire submission.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/ipp-client/internal/api"
	"github.com/jonathan/ipp-client/internal/gate"
	"github.com/jonathan/ipp-client/internal/logging"
	"github.com/jonathan/ipp-client/internal/poller"
	"github.com/jonathan/ipp-client/internal/types"
	"github.com/jonathan/ipp-client/internal/upload"
)

// Re-analysis after a questionnaire submission polls every ReanalysisInterval for at
// most ReanalysisAttempts status requests.
const (
	ReanalysisInterval = 500 * time.Millisecond
	ReanalysisAttempts = 60
)

// API is the backend surface the controller uses. *api.Client implements it.
type API interface {
	ListDocuments(ctx context.Context) ([]types.Document, error)
	Upload(ctx context.Context, docType types.DocumentType, filename, mimeType string, content io.Reader) (*types.Document, error)
	StartAnalysis(ctx context.Context, kind types.AnalysisKind, refs types.DocumentRefs) (*types.StartAnalysisResponse, error)
	FetchStatus(ctx context.Context, jobID int64) (*types.AnalysisJob, error)
	LatestStatus(ctx context.Context) (*types.AnalysisJob, error)
	LatestQuestionnaire(ctx context.Context) (*types.BackgroundQuestionnaire, error)
	SaveQuestionnaire(ctx context.Context, existingID int64, sub types.QuestionnaireSubmission) (*types.BackgroundQuestionnaire, error)
}

// DraftDiscarder clears a saved form draft. *drafts.Debouncer implements it.
type DraftDiscarder interface {
	Discard(ctx context.Context, formID string) error
}

// Controller owns the client-side working set for one signed-in user.
type Controller struct {
	api        API
	registry   *poller.Registry
	reanalysis *poller.Poller
	drafts     DraftDiscarder
	logger     *slog.Logger

	mu      sync.Mutex
	all     []types.Document
	docs    map[types.DocumentType]types.Document
	dropped map[types.DocumentType]bool
	latest  *types.AnalysisJob
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	clock    clockwork.Clock
	interval time.Duration
	maxPolls int
	onUpdate func(poller.Update)
	drafts   DraftDiscarder
	logger   *slog.Logger
}

// WithClock injects the clock used by the pollers.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithPollInterval overrides the stage polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithMaxPollAttempts caps stage polling. Zero polls until a terminal status.
func WithMaxPollAttempts(n int) Option {
	return func(o *options) { o.maxPolls = n }
}

// WithOnUpdate receives progress of every polled job.
func WithOnUpdate(fn func(poller.Update)) Option {
	return func(o *options) { o.onUpdate = fn }
}

// WithDrafts lets a successful questionnaire submission discard the saved draft.
func WithDrafts(d DraftDiscarder) Option {
	return func(o *options) { o.drafts = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewController creates a Controller talking to backend.
func NewController(backend API, opts ...Option) *Controller {
	o := options{
		clock:    clockwork.NewRealClock(),
		interval: poller.DefaultInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrDiscard(o.logger)

	stagePoller := poller.New(backend,
		poller.WithClock(o.clock),
		poller.WithInterval(o.interval),
		poller.WithMaxAttempts(o.maxPolls),
		poller.WithOnUpdate(o.onUpdate),
		poller.WithLogger(logger),
	)
	reanalysis := poller.New(backend,
		poller.WithClock(o.clock),
		poller.WithInterval(ReanalysisInterval),
		poller.WithMaxAttempts(ReanalysisAttempts),
		poller.WithOnUpdate(o.onUpdate),
		poller.WithLogger(logger),
	)

	return &Controller{
		api:        backend,
		registry:   poller.NewRegistry(stagePoller),
		reanalysis: reanalysis,
		drafts:     o.drafts,
		logger:     logger,
		docs:       make(map[types.DocumentType]types.Document),
		dropped:    make(map[types.DocumentType]bool),
	}
}

// Snapshot is the state loaded on stage entry.
type Snapshot struct {
	Documents []types.Document
	Latest    *types.AnalysisJob
}

// Load fetches the user's documents and latest analysis concurrently and replaces
// the working set. A user without analyses has a nil Latest.
func (c *Controller) Load(ctx context.Context) (*Snapshot, error) {
	var (
		docs   []types.Document
		latest *types.AnalysisJob
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = c.api.ListDocuments(gctx)
		if err != nil {
			return fmt.Errorf("failed to load documents: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		job, err := c.api.LatestStatus(gctx)
		if errors.Is(err, api.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load latest analysis: %w", err)
		}
		latest = job
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.all = docs
	c.docs = make(map[types.DocumentType]types.Document)
	c.dropped = make(map[types.DocumentType]bool)
	for _, d := range docs {
		// The first document of each type wins.
		if _, ok := c.docs[d.DocumentType]; !ok {
			c.docs[d.DocumentType] = d
		}
	}
	c.mu.Unlock()

	c.setLatest(latest)
	c.logger.Debug("workflow.load", "documents", len(docs), "has_analysis", latest != nil)
	return &Snapshot{Documents: c.Documents(), Latest: c.Latest()}, nil
}

// Documents returns the working set, resume first.
func (c *Controller) Documents() []types.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Document, 0, len(c.docs))
	for _, t := range []types.DocumentType{types.DocumentTypeResume, types.DocumentTypeJobDescription} {
		if d, ok := c.docs[t]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Document returns the working-set document of docType, or nil.
func (c *Controller) Document(docType types.DocumentType) *types.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.docs[docType]
	if !ok {
		return nil
	}
	return &d
}

// Latest returns the most recent analysis job seen, or nil.
func (c *Controller) Latest() *types.AnalysisJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

func (c *Controller) setLatest(job *types.AnalysisJob) {
	job = c.registry.Observe(job)
	c.mu.Lock()
	defer c.mu.Unlock()
	if job == nil {
		return
	}
	// A read of an older job never replaces a newer one.
	if c.latest != nil && job.ID < c.latest.ID {
		return
	}
	c.latest = job
}

// Upload validates f, sends it and makes it the working-set document of its type.
// Validation failures are returned as *upload.ValidationError and never reach the
// backend.
func (c *Controller) Upload(ctx context.Context, docType types.DocumentType, f upload.File, content io.Reader) (*types.Document, error) {
	if err := upload.Validate(f); err != nil {
		return nil, err
	}
	doc, err := c.api.Upload(ctx, docType, f.Name, upload.NormalizeMIME(f.MIMEType), content)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.all = append(c.all, *doc)
	c.docs[doc.DocumentType] = *doc
	delete(c.dropped, doc.DocumentType)
	c.mu.Unlock()

	c.logger.Info("workflow.upload", "document_id", doc.ID, "type", doc.DocumentType, "size", doc.FileSize)
	return doc, nil
}

// UploadPath describes, validates and uploads a local file.
func (c *Controller) UploadPath(ctx context.Context, docType types.DocumentType, path string) (*types.Document, error) {
	f, err := upload.Describe(path)
	if err != nil {
		return nil, err
	}
	if err := upload.Validate(f); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()
	return c.Upload(ctx, docType, f, file)
}

// Discard drops the working-set document of docType so a different one can be
// uploaded. The server copy is untouched.
func (c *Controller) Discard(docType types.DocumentType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.docs[docType]
	delete(c.docs, docType)
	c.dropped[docType] = true
	return ok
}

// Pin replaces working-set entries with the pinned documents. A zero id drops the
// type from the working set; ids that are not among the loaded documents are ignored.
func (c *Controller) Pin(ws WorkingSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for docType, id := range ws {
		if id == 0 {
			delete(c.docs, docType)
			c.dropped[docType] = true
			continue
		}
		for _, d := range c.all {
			if d.ID == id && d.DocumentType == docType {
				c.docs[docType] = d
				break
			}
		}
	}
}

// Pinned returns the working set as document ids, zero for discarded types.
func (c *Controller) Pinned() WorkingSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	ws := WorkingSet{}
	for docType := range c.dropped {
		ws[docType] = 0
	}
	for docType, d := range c.docs {
		ws[docType] = d.ID
	}
	return ws
}

// Refs collects the ids an analysis start needs from the working set.
func (c *Controller) Refs() types.DocumentRefs {
	c.mu.Lock()
	defer c.mu.Unlock()
	var refs types.DocumentRefs
	if d, ok := c.docs[types.DocumentTypeResume]; ok {
		refs.ResumeDocumentID = d.ID
	}
	if d, ok := c.docs[types.DocumentTypeJobDescription]; ok {
		refs.JobDocumentID = d.ID
	}
	if c.latest != nil {
		refs.ExistingAnalysisID = c.latest.ID
	}
	return refs
}

// StartAnalysis starts a job of kind for the working set and polls it under the
// stage's key, replacing any job already polled for that stage.
func (c *Controller) StartAnalysis(ctx context.Context, stage gate.Stage, kind types.AnalysisKind) (*poller.Handle, error) {
	resp, err := c.api.StartAnalysis(ctx, kind, c.Refs())
	if err != nil {
		return nil, err
	}
	c.logger.Info("workflow.analysis.start", "stage", stage, "kind", kind, "analysis_id", resp.AnalysisID)
	return c.registry.Start(ctx, string(stage), resp.AnalysisID), nil
}

// Watch polls an existing job under the stage's key.
func (c *Controller) Watch(ctx context.Context, stage gate.Stage, jobID int64) *poller.Handle {
	return c.registry.Start(ctx, string(stage), jobID)
}

// Await blocks until h finishes and records the final job.
func (c *Controller) Await(ctx context.Context, h *poller.Handle) (*types.AnalysisJob, error) {
	job, err := h.Wait(ctx)
	if job != nil {
		c.setLatest(job)
	}
	return job, err
}

// CancelStage stops polling for stage, if any.
func (c *Controller) CancelStage(stage gate.Stage) {
	c.registry.Cancel(string(stage))
}

// Close stops every active poll.
func (c *Controller) Close() {
	c.registry.CancelAll()
}

// GateInputs returns gate inputs for stage prefilled with the working set and the
// latest job status. Callers add the stage-local fields.
func (c *Controller) GateInputs(stage gate.Stage) gate.Inputs {
	in := gate.Inputs{Stage: stage, Documents: c.Documents()}
	if job := c.Latest(); job != nil {
		in.JobStatus = job.Status
	}
	return in
}
