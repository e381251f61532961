package mapper

import (
	"ai-reqextract-be/internal/entity"
	"ai-reqextract-be/internal/model"
)

type ExtractionRunMapper struct{}

func NewExtractionRunMapper() *ExtractionRunMapper {
	return &ExtractionRunMapper{}
}

func (m *ExtractionRunMapper) ToEntity(r *model.ExtractionRun) *entity.ExtractionRun {
	if r == nil {
		return nil
	}

	candidates := make([]entity.ExtractionCandidate, 0, len(r.Candidates))
	for i := range r.Candidates {
		candidates = append(candidates, *m.candidateToEntity(&r.Candidates[i]))
	}

	return &entity.ExtractionRun{
		Id:             r.Id,
		AttachmentId:   r.AttachmentId,
		FileName:       r.FileName,
		Status:         r.Status,
		CandidateCount: r.CandidateCount,
		Candidates:     candidates,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		DurationMs:     r.DurationMs,
	}
}

func (m *ExtractionRunMapper) ToModel(r *entity.ExtractionRun) *model.ExtractionRun {
	if r == nil {
		return nil
	}

	candidates := make([]model.ExtractionCandidate, 0, len(r.Candidates))
	for i := range r.Candidates {
		candidates = append(candidates, *m.candidateToModel(&r.Candidates[i]))
	}

	return &model.ExtractionRun{
		Id:             r.Id,
		AttachmentId:   r.AttachmentId,
		FileName:       r.FileName,
		Status:         r.Status,
		CandidateCount: r.CandidateCount,
		Candidates:     candidates,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		DurationMs:     r.DurationMs,
	}
}

func (m *ExtractionRunMapper) candidateToEntity(c *model.ExtractionCandidate) *entity.ExtractionCandidate {
	return &entity.ExtractionCandidate{
		Id:           c.Id,
		RunId:        c.RunId,
		Code:         c.Code,
		Text:         c.Text,
		Category:     c.Category,
		Priority:     c.Priority,
		Verification: c.Verification,
		SourceRef:    c.SourceRef,
		Origin:       c.Origin,
	}
}

func (m *ExtractionRunMapper) candidateToModel(c *entity.ExtractionCandidate) *model.ExtractionCandidate {
	return &model.ExtractionCandidate{
		Id:           c.Id,
		RunId:        c.RunId,
		Code:         c.Code,
		Text:         c.Text,
		Category:     c.Category,
		Priority:     c.Priority,
		Verification: c.Verification,
		SourceRef:    c.SourceRef,
		Origin:       c.Origin,
	}
}
