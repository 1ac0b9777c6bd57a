package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shirin/backend/internal/domain/stocktaking"
	"gorm.io/gorm"
)

// GormStockTakingRepository implements stocktaking.Repository using GORM
type GormStockTakingRepository struct {
	db *gorm.DB
}

// NewGormStockTakingRepository creates a new GormStockTakingRepository
func NewGormStockTakingRepository(db *gorm.DB) *GormStockTakingRepository {
	return &GormStockTakingRepository{db: db}
}

// Create inserts a stock taking with its item lines
func (r *GormStockTakingRepository) Create(ctx context.Context, st *stocktaking.StockTaking) error {
	return r.db.WithContext(ctx).Create(st).Error
}

// FindByID finds a stock taking by its ID
func (r *GormStockTakingRepository) FindByID(ctx context.Context, id uuid.UUID) (*stocktaking.StockTaking, error) {
	var st stocktaking.StockTaking
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&st, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("stock taking")
		}
		return nil, err
	}
	return &st, nil
}

// FindByNumber finds a stock taking by its taking number
func (r *GormStockTakingRepository) FindByNumber(ctx context.Context, takingNumber string) (*stocktaking.StockTaking, error) {
	var st stocktaking.StockTaking
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&st, "taking_number = ?", takingNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("stock taking")
		}
		return nil, err
	}
	return &st, nil
}

// FindAll finds stock takings with filtering and pagination
func (r *GormStockTakingRepository) FindAll(ctx context.Context, filter shared.Filter) ([]stocktaking.StockTaking, error) {
	var takings []stocktaking.StockTaking
	query := applyPagination(r.filtered(ctx, filter), filter)
	if err := query.Preload("Items").Find(&takings).Error; err != nil {
		return nil, err
	}
	return takings, nil
}

// Count counts stock takings matching the filter
func (r *GormStockTakingRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the aggregate and its item lines
func (r *GormStockTakingRepository) Save(ctx context.Context, st *stocktaking.StockTaking) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(st).Error
}

// UpdateStatus performs a compare-and-set on the status column and
// returns CONCURRENCY_CONFLICT if the expected status was gone
func (r *GormStockTakingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next stocktaking.StockTakingStatus) error {
	result := r.db.WithContext(ctx).
		Model(&stocktaking.StockTaking{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError("stock taking")
	}
	return nil
}

// GenerateTakingNumber produces the next sequential taking number
func (r *GormStockTakingRepository) GenerateTakingNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(ctx, r.db, "stock_takings", "taking_number", "ST")
}

func (r *GormStockTakingRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&stocktaking.StockTaking{})
	for key, value := range filter.Filters {
		switch key {
		case "branch_id":
			query = query.Where("branch_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}
	return query
}

// Ensure GormStockTakingRepository implements stocktaking.Repository
var _ stocktaking.Repository = (*GormStockTakingRepository)(nil)
