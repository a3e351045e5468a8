package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
	"github.com/custodia-labs/owngpt/internal/logger"
	"github.com/custodia-labs/owngpt/internal/observability"
)

// Ensure Orchestrator implements the interface.
var _ driving.Pipeline = (*Orchestrator)(nil)

// historyTimeout bounds the run history write, which happens even after
// the run's own context is cancelled.
const historyTimeout = 5 * time.Second

// PipelineConfig holds the settings the orchestrator reads per run.
type PipelineConfig struct {
	NumResults int
	Fetch      domain.FetchSettings
	K          int
}

// NewPipelineConfig extracts the pipeline settings from the app settings.
func NewPipelineConfig(s domain.AppSettings) PipelineConfig {
	return PipelineConfig{
		NumResults: s.Search.NumResults,
		Fetch:      s.Fetch,
		K:          s.Retrieval.K,
	}
}

// Deps are the collaborators of the orchestrator.
// Search and Runs may be nil.
type Deps struct {
	Search    driven.SearchProvider
	Fetcher   driven.Fetcher
	Extractor driven.Extractor
	Chunker   driven.Chunker
	Indexer   *Indexer
	Retriever *Retriever
	Generator *Generator
	Runs      driven.RunStore
	Config    PipelineConfig
}

// Orchestrator drives one run through the pipeline state machine.
// It holds no per-run state; concurrent runs are independent apart
// from the shared vector store.
type Orchestrator struct {
	deps Deps
	now  func() time.Time
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{
		deps: deps,
		now:  time.Now,
	}
}

// RunContext is the state of a single run.
type RunContext struct {
	ID     string
	Report *domain.RunReport

	onState   func(domain.State)
	traceCtx  context.Context
	stageSpan trace.Span
}

func (o *Orchestrator) newRun(ctx context.Context, id, query string, onState func(domain.State)) *RunContext {
	rc := &RunContext{
		ID: id,
		Report: &domain.RunReport{
			ID:        id,
			Query:     query,
			StartedAt: o.now(),
		},
		onState:  onState,
		traceCtx: ctx,
	}
	rc.enter(domain.StateSearchPending)
	return rc
}

// State returns the current state of the run.
func (rc *RunContext) State() domain.State {
	return rc.Report.State
}

func (rc *RunContext) enter(state domain.State) {
	if rc.stageSpan != nil {
		rc.stageSpan.End()
		rc.stageSpan = nil
	}
	rc.Report.State = state
	rc.Report.Transitions = append(rc.Report.Transitions, state)
	if !state.IsTerminal() {
		_, rc.stageSpan = observability.StartStageSpan(rc.traceCtx, state.String())
	}
	logger.Stage(rc.ID, state.String())
	if rc.onState != nil {
		rc.onState(state)
	}
}

// advance moves the run to next, failing if ctx is done.
func (rc *RunContext) advance(ctx context.Context, next domain.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !rc.State().CanTransition(next) {
		return fmt.Errorf("illegal transition %s -> %s", rc.State(), next)
	}
	rc.enter(next)
	return nil
}

// Ask runs the full pipeline for query.
func (o *Orchestrator) Ask(ctx context.Context, query string, opts driving.AskOptions) (*domain.RunReport, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	id := uuid.NewString()
	ctx, span := observability.StartRunSpan(ctx, id, query)
	defer span.End()

	rc := o.newRun(ctx, id, query, opts.OnState)
	logger.Section("Ask")
	logger.Debug("Run %s: %q", rc.ID, query)

	err := o.run(ctx, rc, opts, true)
	observability.RecordError(span, err)
	return rc.Report, err
}

// Index fetches and indexes urls without generating an answer.
func (o *Orchestrator) Index(ctx context.Context, urls []string) (*domain.RunReport, error) {
	urls = dedupeURLs(urls)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no URLs to index", domain.ErrInvalidInput)
	}

	id := uuid.NewString()
	ctx, span := observability.StartRunSpan(ctx, id, "")
	defer span.End()

	rc := o.newRun(ctx, id, "", nil)
	logger.Section("Index")

	err := o.run(ctx, rc, driving.AskOptions{URLs: urls}, false)
	observability.RecordError(span, err)
	return rc.Report, err
}

// Retrieve returns the k stored records most similar to query.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, k int) (*domain.RetrievedContext, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if o.deps.Retriever == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}
	rctx, err := o.deps.Retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return &rctx, nil
}

//nolint:gocyclo // The state machine is clearest as one linear function.
func (o *Orchestrator) run(ctx context.Context, rc *RunContext, opts driving.AskOptions, generate bool) error {
	report := rc.Report
	defer o.finish(ctx, rc)

	// 1. Seed URLs
	report.URLs = o.seedURLs(ctx, report.Query, opts)
	if err := ctx.Err(); err != nil {
		return o.fail(rc, err)
	}

	// 2. Fetch, extract, chunk, index
	if len(report.URLs) > 0 {
		if err := o.ingest(ctx, rc); err != nil {
			return o.fail(rc, err)
		}
	} else {
		logger.Debug("No URLs, skipping ingestion")
	}

	if !generate {
		if err := rc.advance(ctx, domain.StateDone); err != nil {
			return o.fail(rc, err)
		}
		return nil
	}

	// 3. Retrieve
	if err := rc.advance(ctx, domain.StateRetrieving); err != nil {
		return o.fail(rc, err)
	}
	k := o.deps.Config.K
	if opts.K > 0 {
		k = opts.K
	}
	if o.deps.Retriever != nil {
		rctx, err := o.deps.Retriever.Retrieve(ctx, report.Query, k)
		if err != nil {
			logger.Warn("Retrieval failed, answering without context: %v", err)
		} else {
			report.Context = rctx
		}
	}

	// 4. Generate
	if err := rc.advance(ctx, domain.StateGenerating); err != nil {
		return o.fail(rc, err)
	}
	generator := o.deps.Generator
	if generator == nil {
		generator = NewGenerator(nil, nil)
	}
	report.Answer, report.Degraded = generator.Generate(ctx, report.Query, report.Context.Text, opts.OnFragment)

	// Generation failures already degraded to an apology; the run is done
	// even if ctx expired while streaming.
	rc.enter(domain.StateDone)
	return nil
}

// seedURLs returns explicit URLs or asks the search provider.
// Search failures degrade to no URLs.
func (o *Orchestrator) seedURLs(ctx context.Context, query string, opts driving.AskOptions) []string {
	if len(opts.URLs) > 0 {
		return dedupeURLs(opts.URLs)
	}
	if opts.NoSearch || o.deps.Search == nil || o.deps.Config.NumResults == 0 {
		return nil
	}

	urls, err := o.deps.Search.Search(ctx, query, o.deps.Config.NumResults)
	if err != nil {
		logger.Warn("Search via %s failed, continuing with stored knowledge: %v", o.deps.Search.Name(), err)
		return nil
	}
	urls = dedupeURLs(urls)
	if len(urls) > o.deps.Config.NumResults {
		urls = urls[:o.deps.Config.NumResults]
	}
	logger.Debug("Search returned %d URLs", len(urls))
	return urls
}

// ingest runs Fetching through Indexing. It leaves the run in the last
// stage it completed; the caller moves on to Retrieving or Done.
func (o *Orchestrator) ingest(ctx context.Context, rc *RunContext) error {
	report := rc.Report

	if err := rc.advance(ctx, domain.StateFetching); err != nil {
		return err
	}
	report.Fetch = FetchAll(ctx, o.deps.Fetcher, report.URLs, o.deps.Config.Fetch)
	for _, f := range report.Fetch.Failed() {
		logger.Warn("Could not fetch %s: %s", f.URL, f.Failure)
	}

	if err := rc.advance(ctx, domain.StateExtracting); err != nil {
		return err
	}
	docs := o.extract(report.Fetch)
	report.Documents = len(docs)
	if len(docs) == 0 {
		logger.Debug("No text extracted")
		return nil
	}

	if err := rc.advance(ctx, domain.StateChunking); err != nil {
		return err
	}
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, o.deps.Chunker.Chunk(doc.Text, doc.SourceURL)...)
	}
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		return nil
	}

	if err := rc.advance(ctx, domain.StateIndexing); err != nil {
		return err
	}
	if o.deps.Indexer == nil {
		report.Index = domain.IndexReport{Failed: len(chunks), Err: domain.ErrVectorStoreUnavailable}
		return nil
	}

	// Retrieval must not start before this run's batch is committed.
	committed := o.startIndexing(ctx, chunks)
	select {
	case report.Index = <-committed:
	case <-ctx.Done():
		return ctx.Err()
	}
	observability.RecordIndexResult(rc.stageSpan, report.Index.Indexed, report.Index.Failed)
	return nil
}

// startIndexing indexes chunks in the background and delivers the report
// exactly once on the returned channel.
func (o *Orchestrator) startIndexing(ctx context.Context, chunks []domain.Chunk) <-chan domain.IndexReport {
	done := make(chan domain.IndexReport, 1)
	go func() {
		done <- o.deps.Indexer.Index(ctx, chunks)
	}()
	return done
}

func (o *Orchestrator) extract(fetch domain.FetchResult) []domain.Document {
	var docs []domain.Document
	for _, outcome := range fetch.Succeeded() {
		doc := domain.Document{
			SourceURL: outcome.URL,
			Text:      o.deps.Extractor.Extract(outcome.Content),
		}
		if doc.IsEmpty() {
			logger.Debug("No text in %s", outcome.URL)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

func (o *Orchestrator) fail(rc *RunContext, err error) error {
	report := rc.Report
	report.FailedStage = rc.State()
	report.Err = err
	rc.enter(domain.StateFailed)
	logger.Error("Run %s failed during %s: %v", rc.ID, report.FailedStage, err)
	return fmt.Errorf("run failed during %s: %w", report.FailedStage, err)
}

// finish stamps the report and records it in history. A history write
// failure is logged and never changes the run's outcome.
func (o *Orchestrator) finish(ctx context.Context, rc *RunContext) {
	if rc.stageSpan != nil {
		rc.stageSpan.End()
		rc.stageSpan = nil
	}
	rc.Report.FinishedAt = o.now()

	if o.deps.Runs == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	if err := o.deps.Runs.SaveRun(saveCtx, rc.Report.Summary()); err != nil {
		logger.Warn("Could not record run %s: %v", rc.ID, err)
	}
}
