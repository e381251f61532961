package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by primary key
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// ByAttachmentID filters runs by the source attachment
type ByAttachmentID struct {
	AttachmentID string
}

func (s ByAttachmentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("attachment_id = ?", s.AttachmentID)
}

// ByStatus filters runs by terminal status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// NewestFirst orders by start time, newest first
type NewestFirst struct{}

func (NewestFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("started_at DESC")
}

// Limit caps the result count
type Limit struct {
	N int
}

func (s Limit) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.N)
}
