package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLotRepository implements LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// Create inserts a new lot
func (r *GormLotRepository) Create(ctx context.Context, lot *ledger.ProductLot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.ProductLot, error) {
	var lot ledger.ProductLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("product lot")
		}
		return nil, err
	}
	return &lot, nil
}

// FindAvailableForUpdate returns the unconsumed lots of a product at a
// branch in FIFO order. On PostgreSQL the rows are locked for the
// current transaction so two shipments cannot drain the same lot.
func (r *GormLotRepository) FindAvailableForUpdate(ctx context.Context, branchID, productID uuid.UUID) ([]ledger.ProductLot, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findAvailable(query, branchID, productID)
}

// FindAvailable returns the unconsumed lots in FIFO order without locks
func (r *GormLotRepository) FindAvailable(ctx context.Context, branchID, productID uuid.UUID) ([]ledger.ProductLot, error) {
	return r.findAvailable(r.db.WithContext(ctx), branchID, productID)
}

func (r *GormLotRepository) findAvailable(query *gorm.DB, branchID, productID uuid.UUID) ([]ledger.ProductLot, error) {
	var lots []ledger.ProductLot
	if err := query.
		Where("branch_id = ? AND product_id = ? AND consumed = ? AND quantity_remaining > 0", branchID, productID, false).
		Order("produced_at ASC, created_at ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindLatest returns the most recently produced lot of a product at a
// branch, consumed or not. Used to price adjustment credits.
func (r *GormLotRepository) FindLatest(ctx context.Context, branchID, productID uuid.UUID) (*ledger.ProductLot, error) {
	var lot ledger.ProductLot
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND product_id = ?", branchID, productID).
		Order("produced_at DESC, created_at DESC").
		First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("product lot")
		}
		return nil, err
	}
	return &lot, nil
}

// Save updates a lot after consumption
func (r *GormLotRepository) Save(ctx context.Context, lot *ledger.ProductLot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

// FindByBatch returns the lots produced by a production batch
func (r *GormLotRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]ledger.ProductLot, error) {
	var lots []ledger.ProductLot
	if err := r.db.WithContext(ctx).
		Where("production_batch_id = ?", batchID).
		Order("produced_at ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// Ensure GormLotRepository implements LotRepository
var _ ledger.LotRepository = (*GormLotRepository)(nil)
