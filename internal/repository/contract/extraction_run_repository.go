package contract

import (
	"context"

	"ai-reqextract-be/internal/entity"
	"ai-reqextract-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ExtractionRunRepository interface {
	Create(ctx context.Context, run *entity.ExtractionRun) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ExtractionRun, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ExtractionRun, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
