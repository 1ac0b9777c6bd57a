package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shirin/backend/internal/domain/transfer"
	"gorm.io/gorm"
)

// GormTransferRepository implements transfer.Repository using GORM
type GormTransferRepository struct {
	db *gorm.DB
}

// NewGormTransferRepository creates a new GormTransferRepository
func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

// Create inserts a transfer with its item lines
func (r *GormTransferRepository) Create(ctx context.Context, tr *transfer.Transfer) error {
	return r.db.WithContext(ctx).Create(tr).Error
}

// FindByID finds a transfer by its ID
func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	var tr transfer.Transfer
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&tr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("transfer")
		}
		return nil, err
	}
	return &tr, nil
}

// FindByNumber finds a transfer by its transfer number
func (r *GormTransferRepository) FindByNumber(ctx context.Context, transferNumber string) (*transfer.Transfer, error) {
	var tr transfer.Transfer
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&tr, "transfer_number = ?", transferNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("transfer")
		}
		return nil, err
	}
	return &tr, nil
}

// FindAll finds transfers with filtering and pagination
func (r *GormTransferRepository) FindAll(ctx context.Context, filter shared.Filter) ([]transfer.Transfer, error) {
	var transfers []transfer.Transfer
	query := applyPagination(r.filtered(ctx, filter), filter)
	if err := query.Preload("Items").Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

// Count counts transfers matching the filter
func (r *GormTransferRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the aggregate and its item lines
func (r *GormTransferRepository) Save(ctx context.Context, tr *transfer.Transfer) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(tr).Error
}

// UpdateStatus performs a compare-and-set on the status column and
// returns CONCURRENCY_CONFLICT if the expected status was gone
func (r *GormTransferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next transfer.TransferStatus) error {
	result := r.db.WithContext(ctx).
		Model(&transfer.Transfer{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrencyConflictError("transfer")
	}
	return nil
}

// GenerateTransferNumber produces the next sequential transfer number
func (r *GormTransferRepository) GenerateTransferNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(ctx, r.db, "transfers", "transfer_number", "T")
}

func (r *GormTransferRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&transfer.Transfer{})
	for key, value := range filter.Filters {
		switch key {
		case "from_branch_id":
			query = query.Where("from_branch_id = ?", value)
		case "to_branch_id":
			query = query.Where("to_branch_id = ?", value)
		case "branch_id":
			query = query.Where("from_branch_id = ? OR to_branch_id = ?", value, value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}
	return query
}

// Ensure GormTransferRepository implements transfer.Repository
var _ transfer.Repository = (*GormTransferRepository)(nil)
