package entity

import (
	"time"

	"github.com/google/uuid"
)

type ExtractionRun struct {
	Id             uuid.UUID
	AttachmentId   string
	FileName       string
	Status         string
	CandidateCount int
	Candidates     []ExtractionCandidate
	StartedAt      time.Time
	FinishedAt     *time.Time
	DurationMs     int64
}

type ExtractionCandidate struct {
	Id           uuid.UUID
	RunId        uuid.UUID
	Code         string // requirement identifier as reported in the document
	Text         string
	Category     string
	Priority     string
	Verification string
	SourceRef    string
	Origin       string
}
