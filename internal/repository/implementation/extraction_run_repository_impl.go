package implementation

import (
	"context"
	"errors"

	"ai-reqextract-be/internal/entity"
	"ai-reqextract-be/internal/mapper"
	"ai-reqextract-be/internal/model"
	"ai-reqextract-be/internal/repository/contract"
	"ai-reqextract-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExtractionRunRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ExtractionRunMapper
}

func NewExtractionRunRepository(db *gorm.DB) contract.ExtractionRunRepository {
	return &ExtractionRunRepositoryImpl{
		db:     db,
		mapper: mapper.NewExtractionRunMapper(),
	}
}

func (r *ExtractionRunRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ExtractionRunRepositoryImpl) Create(ctx context.Context, run *entity.ExtractionRun) error {
	m := r.mapper.ToModel(run)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*run = *r.mapper.ToEntity(m)
	return nil
}

func (r *ExtractionRunRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ExtractionRun, error) {
	var m model.ExtractionRun
	query := r.applySpecifications(r.db.WithContext(ctx).Preload("Candidates"), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ExtractionRunRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ExtractionRun, error) {
	var models []model.ExtractionRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	runs := make([]*entity.ExtractionRun, 0, len(models))
	for i := range models {
		runs = append(runs, r.mapper.ToEntity(&models[i]))
	}
	return runs, nil
}

func (r *ExtractionRunRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ExtractionRun{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ExtractionRunRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ExtractionRun{}, id).Error
}
