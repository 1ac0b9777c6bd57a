package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/sales"
	"github.com/shirin/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create inserts a sale with its item lines
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// FindByID finds a sale by its ID with items and payments
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("sale")
		}
		return nil, err
	}
	return &sale, nil
}

// FindByNumber finds a sale by its sale number
func (r *GormSaleRepository) FindByNumber(ctx context.Context, saleNumber string) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&sale, "sale_number = ?", saleNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("sale")
		}
		return nil, err
	}
	return &sale, nil
}

// FindAll finds sales with filtering and pagination
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.Sale, error) {
	var list []sales.Sale
	query := applyPagination(r.filtered(ctx, filter), filter)
	if err := query.Preload("Items").Preload("Payments").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Count counts sales matching the filter
func (r *GormSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the aggregate with its items and payments. Items
// removed from a draft are deleted by replacing the association.
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Model(sale).Association("Items").Unscoped().Replace(sale.Items); err != nil {
		return err
	}
	if err := tx.Model(sale).Association("Payments").Unscoped().Replace(sale.Payments); err != nil {
		return err
	}
	return tx.Save(sale).Error
}

// UpdateStatus performs a compare-and-set on the status column and
// returns CONCURRENCY_CONFLICT if the expected status was gone
func (r *GormSaleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next sales.SaleStatus) error {
	result := r.db.WithContext(ctx).
		Model(&sales.Sale{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError("sale")
	}
	return nil
}

// GenerateSaleNumber produces the next sequential sale number
func (r *GormSaleRepository) GenerateSaleNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(ctx, r.db, "sales", "sale_number", "S")
}

func (r *GormSaleRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&sales.Sale{})
	for key, value := range filter.Filters {
		switch key {
		case "branch_id":
			query = query.Where("branch_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "sale_date_from":
			query = query.Where("sale_date >= ?", value)
		case "sale_date_to":
			query = query.Where("sale_date < ?", value)
		}
	}
	return query
}

// Ensure GormSaleRepository implements SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
