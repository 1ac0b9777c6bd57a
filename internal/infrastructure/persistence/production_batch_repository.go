package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/production"
	"github.com/shirin/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBatchRepository implements production.Repository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Create inserts a batch with its consumption lines
func (r *GormBatchRepository) Create(ctx context.Context, batch *production.ProductionBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// FindByID finds a batch by its ID, consumption lines included
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.ProductionBatch, error) {
	var batch production.ProductionBatch
	if err := r.db.WithContext(ctx).
		Preload("Consumptions").
		First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("production batch")
		}
		return nil, err
	}
	return &batch, nil
}

// FindByNumber finds a batch by its batch number
func (r *GormBatchRepository) FindByNumber(ctx context.Context, batchNumber string) (*production.ProductionBatch, error) {
	var batch production.ProductionBatch
	if err := r.db.WithContext(ctx).
		Preload("Consumptions").
		First(&batch, "batch_number = ?", batchNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("production batch")
		}
		return nil, err
	}
	return &batch, nil
}

// FindAll finds batches with filtering and pagination
func (r *GormBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]production.ProductionBatch, error) {
	var batches []production.ProductionBatch
	query := applyPagination(r.filtered(ctx, filter), filter)
	if err := query.Preload("Consumptions").Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// Count counts batches matching the filter
func (r *GormBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the aggregate and its consumption lines
func (r *GormBatchRepository) Save(ctx context.Context, batch *production.ProductionBatch) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(batch).Error
}

// UpdateStatus performs a compare-and-set on the status column. A
// double submit finds the expected status gone and loses the race.
func (r *GormBatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next production.BatchStatus) error {
	result := r.db.WithContext(ctx).
		Model(&production.ProductionBatch{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError("production batch")
	}
	return nil
}

// GenerateBatchNumber produces the next sequential batch number
func (r *GormBatchRepository) GenerateBatchNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(ctx, r.db, "production_batches", "batch_number", "PB")
}

func (r *GormBatchRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&production.ProductionBatch{})
	for key, value := range filter.Filters {
		switch key {
		case "branch_id":
			query = query.Where("branch_id = ?", value)
		case "recipe_id":
			query = query.Where("recipe_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}
	return query
}

// Ensure GormBatchRepository implements production.Repository
var _ production.Repository = (*GormBatchRepository)(nil)
