package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBalanceRepository implements BalanceRepository using GORM
type GormBalanceRepository struct {
	db *gorm.DB
}

// NewGormBalanceRepository creates a new GormBalanceRepository
func NewGormBalanceRepository(db *gorm.DB) *GormBalanceRepository {
	return &GormBalanceRepository{db: db}
}

// FindByID finds a balance by its ID
func (r *GormBalanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StockBalance, error) {
	var balance ledger.StockBalance
	if err := r.db.WithContext(ctx).First(&balance, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("stock balance")
		}
		return nil, err
	}
	return &balance, nil
}

// FindByKey looks up the balance for one item at one branch
func (r *GormBalanceRepository) FindByKey(ctx context.Context, branchID, itemID uuid.UUID, kind ledger.ItemKind) (*ledger.StockBalance, error) {
	var balance ledger.StockBalance
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND item_id = ? AND item_kind = ?", branchID, itemID, kind).
		First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("stock balance")
		}
		return nil, err
	}
	return &balance, nil
}

// ObtainForUpdate returns the balance row for the key, creating a zero
// balance if none exists. On PostgreSQL the row is locked with
// SELECT ... FOR UPDATE for the rest of the current transaction, so
// concurrent postings on the same key serialize here.
func (r *GormBalanceRepository) ObtainForUpdate(ctx context.Context, branchID, itemID uuid.UUID, kind ledger.ItemKind, unit string) (*ledger.StockBalance, error) {
	balance, err := r.lockedFind(ctx, branchID, itemID, kind)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh, err := ledger.NewStockBalance(branchID, itemID, kind, unit)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(fresh).Error; err != nil {
		// A concurrent transaction created the row first; lock theirs.
		if isUniqueViolation(err) {
			return r.lockedFindWait(ctx, branchID, itemID, kind)
		}
		return nil, err
	}
	return fresh, nil
}

func (r *GormBalanceRepository) lockedFind(ctx context.Context, branchID, itemID uuid.UUID, kind ledger.ItemKind) (*ledger.StockBalance, error) {
	var balance ledger.StockBalance
	query := r.db.WithContext(ctx)
	if r.supportsRowLocks() {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.
		Where("branch_id = ? AND item_id = ? AND item_kind = ?", branchID, itemID, kind).
		First(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *GormBalanceRepository) lockedFindWait(ctx context.Context, branchID, itemID uuid.UUID, kind ledger.ItemKind) (*ledger.StockBalance, error) {
	balance, err := r.lockedFind(ctx, branchID, itemID, kind)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError("stock balance")
	}
	return balance, err
}

// supportsRowLocks reports whether the dialect supports FOR UPDATE.
// SQLite (used in tests) locks the whole database file instead.
func (r *GormBalanceRepository) supportsRowLocks() bool {
	return r.db.Dialector.Name() == "postgres"
}

// isUniqueViolation detects duplicate-key errors across dialects
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// Save creates or updates a balance
func (r *GormBalanceRepository) Save(ctx context.Context, balance *ledger.StockBalance) error {
	return r.db.WithContext(ctx).Save(balance).Error
}

// FindByBranch finds balances at a branch, optionally narrowed by kind
func (r *GormBalanceRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, kind ledger.ItemKind, filter shared.Filter) ([]ledger.StockBalance, error) {
	var balances []ledger.StockBalance
	query := r.branchQuery(ctx, branchID, kind)
	query = applyPagination(query, filter)
	if err := query.Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// FindBelowMin lists balances under their low-stock threshold
func (r *GormBalanceRepository) FindBelowMin(ctx context.Context, branchID uuid.UUID) ([]ledger.StockBalance, error) {
	var balances []ledger.StockBalance
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND min_quantity > 0 AND quantity < min_quantity", branchID).
		Order("item_kind ASC, unit ASC").
		Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// Count counts balances at a branch
func (r *GormBalanceRepository) Count(ctx context.Context, branchID uuid.UUID, kind ledger.ItemKind, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.branchQuery(ctx, branchID, kind).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormBalanceRepository) branchQuery(ctx context.Context, branchID uuid.UUID, kind ledger.ItemKind) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&ledger.StockBalance{}).Where("branch_id = ?", branchID)
	if kind != "" {
		query = query.Where("item_kind = ?", kind)
	}
	return query
}

// applyPagination applies pagination and ordering to a query
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}
	return query
}

// Ensure GormBalanceRepository implements BalanceRepository
var _ ledger.BalanceRepository = (*GormBalanceRepository)(nil)
