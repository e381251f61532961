package dto

import (
	"time"

	"github.com/google/uuid"
)

type ExtractRequest struct {
	AttachmentId string `json:"attachment_id" validate:"required"`
}

type ExtractBatchRequest struct {
	AttachmentIds []string `json:"attachment_ids" validate:"required,min=1,dive,required"`
}

type CandidateResponse struct {
	Code         string `json:"code"`
	Text         string `json:"text"`
	Category     string `json:"category,omitempty"`
	Priority     string `json:"priority,omitempty"`
	Verification string `json:"verification,omitempty"`
	SourceRef    string `json:"source_ref,omitempty"`
	Origin       string `json:"origin"`
}

type ExtractionRunResponse struct {
	RunId          uuid.UUID           `json:"run_id"`
	AttachmentId   string              `json:"attachment_id"`
	FileName       string              `json:"file_name"`
	Status         string              `json:"status"`
	CandidateCount int                 `json:"candidate_count"`
	Candidates     []CandidateResponse `json:"candidates,omitempty"`
	StartedAt      time.Time           `json:"started_at"`
	DurationMs     int64               `json:"duration_ms"`
	Skipped        bool                `json:"skipped,omitempty"` // already processed within TTL
}

type ExtractBatchResponse struct {
	Results []ExtractionRunResponse `json:"results"`
}
