package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/sales"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReturnRepository implements ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// Create inserts a return with its item lines
func (r *GormReturnRepository) Create(ctx context.Context, ret *sales.SaleReturn) error {
	return r.db.WithContext(ctx).Create(ret).Error
}

// FindByID finds a return by its ID
func (r *GormReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SaleReturn, error) {
	var ret sales.SaleReturn
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&ret, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("sale return")
		}
		return nil, err
	}
	return &ret, nil
}

// FindBySale returns every return recorded against a sale
func (r *GormReturnRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]sales.SaleReturn, error) {
	var returns []sales.SaleReturn
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("sale_id = ?", saleID).
		Order("returned_at ASC").
		Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// FindAll finds returns with filtering and pagination
func (r *GormReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.SaleReturn, error) {
	var returns []sales.SaleReturn
	query := applyPagination(r.filtered(ctx, filter), filter)
	if err := query.Preload("Items").Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// Count counts returns matching the filter
func (r *GormReturnRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumReturnedBySale aggregates returned quantity per product across
// every return of a sale
func (r *GormReturnRepository) SumReturnedBySale(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		ProductID uuid.UUID
		Total     decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Table("sale_return_items").
		Select("sale_return_items.product_id, COALESCE(SUM(sale_return_items.quantity), 0) as total").
		Joins("JOIN sale_returns ON sale_returns.id = sale_return_items.return_id").
		Where("sale_returns.sale_id = ?", saleID).
		Group("sale_return_items.product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.ProductID] = row.Total
	}
	return sums, nil
}

// GenerateReturnNumber produces the next sequential return number
func (r *GormReturnRepository) GenerateReturnNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(ctx, r.db, "sale_returns", "return_number", "SR")
}

func (r *GormReturnRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&sales.SaleReturn{})
	for key, value := range filter.Filters {
		switch key {
		case "branch_id":
			query = query.Where("branch_id = ?", value)
		case "sale_id":
			query = query.Where("sale_id = ?", value)
		}
	}
	return query
}

// Ensure GormReturnRepository implements ReturnRepository
var _ sales.ReturnRepository = (*GormReturnRepository)(nil)
