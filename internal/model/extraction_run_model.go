package model

import (
	"time"

	"github.com/google/uuid"
)

type ExtractionRun struct {
	Id             uuid.UUID             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AttachmentId   string                `gorm:"type:varchar(64);not null;index"`
	FileName       string                `gorm:"type:varchar(255);not null"`
	Status         string                `gorm:"type:varchar(32);not null;index"`
	CandidateCount int                   `gorm:"not null;default:0"`
	Candidates     []ExtractionCandidate `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
	StartedAt      time.Time             `gorm:"autoCreateTime"`
	FinishedAt     *time.Time
	DurationMs     int64
}

func (ExtractionRun) TableName() string {
	return "extraction_runs"
}

type ExtractionCandidate struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RunId        uuid.UUID `gorm:"type:uuid;not null;index"`
	Code         string    `gorm:"type:varchar(128);not null"`
	Text         string    `gorm:"type:text;not null"`
	Category     string    `gorm:"type:varchar(64)"`
	Priority     string    `gorm:"type:varchar(32)"`
	Verification string    `gorm:"type:varchar(64)"`
	SourceRef    string    `gorm:"type:varchar(255)"`
	Origin       string    `gorm:"type:varchar(32);not null"`
}

func (ExtractionCandidate) TableName() string {
	return "extraction_candidates"
}
