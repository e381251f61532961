package extraction

import (
	"context"
	"fmt"
	"time"

	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/pkg/progress"
	"ai-reqextract-be/pkg/ragstore"
)

// Config aggregates every tunable of the extraction pipeline.
type Config struct {
	Monitor            MonitorConfig
	Completeness       CompletenessConfig
	QueryTimeout       time.Duration
	ValidationTimeout  time.Duration
	ValidationFailOpen bool
	FallbackMax        int
}

func DefaultConfig() Config {
	return Config{
		Monitor:            DefaultMonitorConfig(),
		Completeness:       DefaultCompletenessConfig(),
		QueryTimeout:       4 * time.Minute,
		ValidationTimeout:  2 * time.Minute,
		ValidationFailOpen: true,
		FallbackMax:        50,
	}
}

// Downloader supplies raw attachment bytes. Download failure is fatal for
// the attachment: no strategy can run without bytes.
type Downloader interface {
	Download(ctx context.Context, id string) ([]byte, error)
}

// Escalation chain stages. Each transition happens only after the prior
// stage is confirmed failed, never because it is merely slow.
type chainStage int

const (
	stageRagExtraction chainStage = iota // primary file upload + RAG query
	stageForcedReprocess                 // fresh workspace, same upload path
	stageAlternateUpload                 // raw-text upload path
	stageDirectText                      // pattern scan over raw bytes
	stageManualReview                    // terminal placeholder
)

func (s chainStage) String() string {
	switch s {
	case stageRagExtraction:
		return "rag-extraction"
	case stageForcedReprocess:
		return "forced-reprocess"
	case stageAlternateUpload:
		return "alternate-upload"
	case stageDirectText:
		return "direct-text"
	default:
		return "manual-review"
	}
}

// Pipeline runs the document-to-requirements extraction for one
// attachment at a time. Each attachment gets its own workspace; no state
// is shared between runs.
type Pipeline struct {
	backend    ragstore.Client
	downloader Downloader
	workspaces *WorkspaceManager
	monitor    *Monitor
	prompts    func(att *Attachment) *PromptBuilder
	parser     *Parser
	validator  *Validator
	checker    *Completeness
	fallback   *TextExtractor
	orch       *Orchestrator

	cfg      Config
	logger   logger.ILogger
	progress progress.Sink
}

func NewPipeline(backend ragstore.Client, downloader Downloader, cfg Config, log logger.ILogger, sink progress.Sink) *Pipeline {
	if sink == nil {
		sink = progress.NopSink{}
	}
	parser := NewParser(log)
	return &Pipeline{
		backend:    backend,
		downloader: downloader,
		workspaces: NewWorkspaceManager(backend, log),
		monitor:    NewMonitor(backend, cfg.Monitor, log),
		prompts:    NewPromptBuilder,
		parser:     parser,
		validator:  NewValidator(backend, cfg.ValidationTimeout, cfg.ValidationFailOpen, log),
		checker:    NewCompleteness(backend, parser, cfg.Completeness, log),
		fallback:   NewTextExtractor(cfg.FallbackMax, log),
		orch:       NewOrchestrator(backend, cfg.QueryTimeout, log),
		cfg:        cfg,
		logger:     log,
		progress:   sink,
	}
}

// Extract runs the full pipeline for one attachment. The only error
// returns are a failed download and cancellation; every backend failure
// degrades through the escalation chain into a result instead.
func (p *Pipeline) Extract(ctx context.Context, att *Attachment) (*Result, error) {
	start := time.Now()

	p.emit(att, StageDownload, "Downloading %s (%s, %d bytes)", att.FileName, att.Kind(), att.Size)
	content, err := p.downloader.Download(ctx, att.ID)
	if err != nil {
		p.logger.Error("pipeline", "Attachment download failed", map[string]interface{}{
			"attachment": att.ID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("download attachment %s: %w", att.ID, err)
	}

	for stage := stageRagExtraction; ; stage++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch stage {
		case stageRagExtraction, stageForcedReprocess, stageAlternateUpload:
			result, ok := p.runRagStage(ctx, stage, att, content)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if ok {
				result.Elapsed = time.Since(start)
				return result, nil
			}
			// Confirmed failure: fall through to the next stage.

		case stageDirectText:
			p.emit(att, StageFallback, "Indexing backend confirmed broken, scanning raw text")
			if candidates, ok := p.fallback.Extract(att, content); ok {
				p.emit(att, StageDone, "Fallback extraction produced %d candidate(s)", len(candidates))
				return &Result{
					AttachmentID: att.ID,
					FileName:     att.FileName,
					Status:       StatusFallbackExtracted,
					Candidates:   candidates,
					Elapsed:      time.Since(start),
				}, nil
			}

		default: // stageManualReview
			p.emit(att, StageDone, "All extraction strategies failed, flagging for manual review")
			return &Result{
				AttachmentID: att.ID,
				FileName:     att.FileName,
				Status:       StatusManualReview,
				Candidates:   []Candidate{ManualReviewPlaceholder(att)},
				Elapsed:      time.Since(start),
			}, nil
		}
	}
}

// ExtractBatch processes attachments sequentially (one workspace open at
// a time, bounding backend load) and returns results in input order.
func (p *Pipeline) ExtractBatch(ctx context.Context, atts []*Attachment) ([]*Result, error) {
	results := make([]*Result, 0, len(atts))
	for _, att := range atts {
		result, err := p.Extract(ctx, att)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			// Download failures abort the attachment, not the batch.
			p.logger.Error("pipeline", "Attachment skipped", map[string]interface{}{
				"attachment": att.ID,
				"error":      err.Error(),
			})
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// runRagStage runs one RAG-based chain stage: workspace acquisition,
// upload with embedding confirmation, then the query phase. The bool
// reports whether the stage produced a terminal result.
func (p *Pipeline) runRagStage(ctx context.Context, stage chainStage, att *Attachment, content []byte) (result *Result, done bool) {
	var text string
	if stage == stageAlternateUpload {
		text = decodePlainText(content)
		if len(text) < 20 {
			p.logger.Warn("pipeline", "Alternate upload skipped: no decodable text", map[string]interface{}{
				"attachment": att.ID,
			})
			return nil, false
		}
	}

	p.emit(att, StageWorkspace, "Stage %s: acquiring workspace", stage)
	ws, err := p.workspaces.Acquire(ctx, att.FileName)
	if err != nil {
		// Backend cannot even create a workspace; further RAG stages are
		// pointless, but the loop still walks them (each fails fast here)
		// so the chain bookkeeping stays linear.
		return nil, false
	}
	defer p.workspaces.Release(ws)

	upload := func(uctx context.Context) error {
		if stage == stageAlternateUpload {
			return p.backend.UploadRawText(uctx, ws.Slug, att.FileName, text)
		}
		return p.backend.UploadDocument(uctx, ws.Slug, att.FileName, content)
	}

	p.emit(att, StageUpload, "Stage %s: uploading and confirming embedding", stage)
	report := p.monitor.UploadAndConfirm(ctx, ws, upload)
	if report.Outcome != OutcomeConfirmed {
		p.emit(att, StageUpload, "Stage %s failed: %s", stage, report.Reason)
		p.diagnoseBackend(ctx)
		return nil, false
	}

	return p.runQueryPhase(ctx, ws, att)
}

// runQueryPhase executes extraction, validation and the completeness
// check against a workspace with confirmed embedding.
func (p *Pipeline) runQueryPhase(ctx context.Context, ws *ragstore.Workspace, att *Attachment) (*Result, bool) {
	prompts := p.prompts(att)

	p.emit(att, StageQuery, "Querying for requirement statements")
	response, aborted, err := p.orch.Query(ctx, ws, prompts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false
		}
		p.logger.Error("pipeline", "Extraction query failed, escalating", map[string]interface{}{
			"attachment": att.ID,
			"error":      err.Error(),
		})
		return nil, false
	}
	if aborted {
		// Hard gate: the model admitted it cannot see the document.
		// Anything it produced would be fabrication.
		p.emit(att, StageDone, "Model cannot access document content, extraction aborted")
		return &Result{
			AttachmentID: att.ID,
			FileName:     att.FileName,
			Status:       StatusAborted,
		}, true
	}

	p.emit(att, StageParse, "Parsing model response")
	candidates := p.parser.Parse(response)

	p.emit(att, StageValidate, "Validating %d candidate(s) against document content", len(candidates))
	candidates = p.validator.Validate(ctx, ws, prompts, candidates)

	if p.checker.NeedsRecovery(len(candidates), att.Size) {
		p.emit(att, StageCompleteness, "Yield %d below floor %d, running recovery query",
			len(candidates), p.checker.Floor(att.Size))
		candidates = p.checker.Recover(ctx, ws, prompts, att, candidates)
	}

	p.emit(att, StageDone, "Extraction complete: %d candidate(s)", len(candidates))
	return &Result{
		AttachmentID: att.ID,
		FileName:     att.FileName,
		Status:       StatusExtracted,
		Candidates:   candidates,
	}, true
}

// diagnoseBackend asks the backend for a document-processor report after
// an embedding failure. Logging only; errors are swallowed.
func (p *Pipeline) diagnoseBackend(ctx context.Context) {
	diagCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	report, err := p.backend.Diagnose(diagCtx)
	if err != nil {
		p.logger.Debug("pipeline", "Backend diagnostics unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	p.logger.Info("pipeline", "Backend diagnostics", map[string]interface{}{
		"report": report,
	})
}

func (p *Pipeline) emit(att *Attachment, stage, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	p.logger.Info("pipeline", message, map[string]interface{}{
		"attachment": att.ID,
		"stage":      stage,
	})
	p.progress.Publish(progress.Event{
		AttachmentID: att.ID,
		Stage:        stage,
		Message:      message,
		At:           time.Now(),
	})
}
