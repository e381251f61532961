package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-reqextract-be/internal/dto"
	"ai-reqextract-be/internal/entity"
	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/internal/repository/contract"
	"ai-reqextract-be/internal/repository/specification"
	"ai-reqextract-be/pkg/attachment"
	"ai-reqextract-be/pkg/extraction"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IExtractionService defines the extraction service interface
type IExtractionService interface {
	ExtractAttachment(ctx context.Context, attachmentId string) (*dto.ExtractionRunResponse, error)
	ExtractBatch(ctx context.Context, attachmentIds []string) (*dto.ExtractBatchResponse, error)
	GetRuns(ctx context.Context, limit int) ([]*dto.ExtractionRunResponse, error)
	GetRun(ctx context.Context, runId uuid.UUID) (*dto.ExtractionRunResponse, error)
}

// EventPublisher mirrors terminal run events to an external bus.
// Best-effort; a nil publisher disables mirroring.
type EventPublisher interface {
	PublishRunFinished(ctx context.Context, payload map[string]interface{}) error
}

type extractionService struct {
	pipeline  *extraction.Pipeline
	store     attachment.Store
	runRepo   contract.ExtractionRunRepository
	rdb       *redis.Client
	events    EventPublisher
	logger    logger.ILogger
	resultTTL time.Duration
}

func NewExtractionService(
	pipeline *extraction.Pipeline,
	store attachment.Store,
	runRepo contract.ExtractionRunRepository,
	rdb *redis.Client,
	events EventPublisher,
	log logger.ILogger,
	resultTTL time.Duration,
) IExtractionService {
	return &extractionService{
		pipeline:  pipeline,
		store:     store,
		runRepo:   runRepo,
		rdb:       rdb,
		events:    events,
		logger:    log,
		resultTTL: resultTTL,
	}
}

func (s *extractionService) ExtractAttachment(ctx context.Context, attachmentId string) (*dto.ExtractionRunResponse, error) {
	// Idempotency: skip attachments already processed within the TTL.
	if cached := s.recentRun(ctx, attachmentId); cached != nil {
		cached.Skipped = true
		return cached, nil
	}

	att, err := s.store.GetAttachment(ctx, attachmentId)
	if err != nil {
		return nil, fmt.Errorf("attachment metadata: %w", err)
	}

	started := time.Now()
	result, err := s.pipeline.Extract(ctx, att)
	if err != nil {
		return nil, err
	}

	run := s.toRunEntity(att, result, started)
	if s.runRepo != nil {
		if err := s.runRepo.Create(ctx, run); err != nil {
			s.logger.Error("extraction_service", "Failed to persist extraction run", map[string]interface{}{
				"attachment": attachmentId,
				"error":      err.Error(),
			})
		}
	}

	s.markProcessed(ctx, attachmentId, run)
	s.publishFinished(ctx, run)

	return runToResponse(run), nil
}

func (s *extractionService) ExtractBatch(ctx context.Context, attachmentIds []string) (*dto.ExtractBatchResponse, error) {
	results := make([]dto.ExtractionRunResponse, 0, len(attachmentIds))
	for _, id := range attachmentIds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := s.ExtractAttachment(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			// One broken attachment must not sink the batch.
			s.logger.Error("extraction_service", "Batch item failed", map[string]interface{}{
				"attachment": id,
				"error":      err.Error(),
			})
			continue
		}
		results = append(results, *res)
	}
	return &dto.ExtractBatchResponse{Results: results}, nil
}

func (s *extractionService) GetRuns(ctx context.Context, limit int) ([]*dto.ExtractionRunResponse, error) {
	if s.runRepo == nil {
		return nil, fmt.Errorf("run persistence is not configured")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	runs, err := s.runRepo.FindAll(ctx, specification.NewestFirst{}, specification.Limit{N: limit})
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ExtractionRunResponse, 0, len(runs))
	for _, run := range runs {
		resp := runToResponse(run)
		resp.Candidates = nil // list view stays light
		out = append(out, resp)
	}
	return out, nil
}

func (s *extractionService) GetRun(ctx context.Context, runId uuid.UUID) (*dto.ExtractionRunResponse, error) {
	if s.runRepo == nil {
		return nil, fmt.Errorf("run persistence is not configured")
	}

	run, err := s.runRepo.FindOne(ctx, specification.ByID{ID: runId})
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}
	return runToResponse(run), nil
}

// recentRun returns the cached response for an attachment processed
// within the TTL, or nil. Redis being down just disables the shortcut.
func (s *extractionService) recentRun(ctx context.Context, attachmentId string) *dto.ExtractionRunResponse {
	if s.rdb == nil {
		return nil
	}

	raw, err := s.rdb.Get(ctx, resultKey(attachmentId)).Result()
	if err != nil {
		return nil
	}

	var resp dto.ExtractionRunResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}
	s.logger.Info("extraction_service", "Attachment already processed, returning cached run", map[string]interface{}{
		"attachment": attachmentId,
		"run_id":     resp.RunId.String(),
	})
	return &resp
}

func (s *extractionService) markProcessed(ctx context.Context, attachmentId string, run *entity.ExtractionRun) {
	if s.rdb == nil {
		return
	}

	payload, err := json.Marshal(runToResponse(run))
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, resultKey(attachmentId), payload, s.resultTTL).Err(); err != nil {
		s.logger.Warn("extraction_service", "Failed to store idempotency marker", map[string]interface{}{
			"attachment": attachmentId,
			"error":      err.Error(),
		})
	}
}

func (s *extractionService) publishFinished(ctx context.Context, run *entity.ExtractionRun) {
	if s.events == nil {
		return
	}

	err := s.events.PublishRunFinished(ctx, map[string]interface{}{
		"run_id":          run.Id.String(),
		"attachment_id":   run.AttachmentId,
		"status":          run.Status,
		"candidate_count": run.CandidateCount,
	})
	if err != nil {
		s.logger.Warn("extraction_service", "Failed to publish run-finished event", map[string]interface{}{
			"run_id": run.Id.String(),
			"error":  err.Error(),
		})
	}
}

func (s *extractionService) toRunEntity(att *extraction.Attachment, result *extraction.Result, started time.Time) *entity.ExtractionRun {
	finished := time.Now()
	run := &entity.ExtractionRun{
		Id:             uuid.New(),
		AttachmentId:   att.ID,
		FileName:       att.FileName,
		Status:         string(result.Status),
		CandidateCount: len(result.Candidates),
		StartedAt:      started,
		FinishedAt:     &finished,
		DurationMs:     finished.Sub(started).Milliseconds(),
	}
	for _, c := range result.Candidates {
		run.Candidates = append(run.Candidates, entity.ExtractionCandidate{
			Id:           uuid.New(),
			RunId:        run.Id,
			Code:         c.ID,
			Text:         c.Text,
			Category:     c.Category,
			Priority:     c.Priority,
			Verification: c.Verification,
			SourceRef:    c.SourceRef,
			Origin:       string(c.Origin),
		})
	}
	return run
}

func runToResponse(run *entity.ExtractionRun) *dto.ExtractionRunResponse {
	resp := &dto.ExtractionRunResponse{
		RunId:          run.Id,
		AttachmentId:   run.AttachmentId,
		FileName:       run.FileName,
		Status:         run.Status,
		CandidateCount: run.CandidateCount,
		StartedAt:      run.StartedAt,
		DurationMs:     run.DurationMs,
	}
	for _, c := range run.Candidates {
		resp.Candidates = append(resp.Candidates, dto.CandidateResponse{
			Code:         c.Code,
			Text:         c.Text,
			Category:     c.Category,
			Priority:     c.Priority,
			Verification: c.Verification,
			SourceRef:    c.SourceRef,
			Origin:       c.Origin,
		})
	}
	return resp
}

func resultKey(attachmentId string) string {
	return "extraction:result:" + attachmentId
}
