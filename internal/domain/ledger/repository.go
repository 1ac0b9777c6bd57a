package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BalanceRepository manages materialized stock balances
type BalanceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockBalance, error)
	// FindByKey looks up the balance for one item at one branch
	FindByKey(ctx context.Context, branchID, itemID uuid.UUID, kind ItemKind) (*StockBalance, error)
	// ObtainForUpdate returns the balance row for the key, creating a
	// zero balance if none exists, locked for the rest of the current
	// transaction so concurrent postings serialize on it.
	ObtainForUpdate(ctx context.Context, branchID, itemID uuid.UUID, kind ItemKind, unit string) (*StockBalance, error)
	Save(ctx context.Context, balance *StockBalance) error
	FindByBranch(ctx context.Context, branchID uuid.UUID, kind ItemKind, filter shared.Filter) ([]StockBalance, error)
	// FindBelowMin lists balances under their low-stock threshold
	FindBelowMin(ctx context.Context, branchID uuid.UUID) ([]StockBalance, error)
	Count(ctx context.Context, branchID uuid.UUID, kind ItemKind, filter shared.Filter) (int64, error)
}

// MovementFilter narrows movement history queries
type MovementFilter struct {
	BranchID      *uuid.UUID
	ItemID        *uuid.UUID
	ItemKind      *ItemKind
	MovementType  *MovementType
	ReferenceType *ReferenceType
	ReferenceID   *uuid.UUID
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// MovementRepository is the append-only movement log
type MovementRepository interface {
	// Append inserts a movement. There is deliberately no update or
	// delete on this interface.
	Append(ctx context.Context, movement *Movement) error
	FindByID(ctx context.Context, id uuid.UUID) (*Movement, error)
	Find(ctx context.Context, filter MovementFilter) ([]Movement, error)
	Count(ctx context.Context, filter MovementFilter) (int64, error)
	// SumQuantity recomputes a balance from the log, the audit path for
	// verifying the materialized quantity.
	SumQuantity(ctx context.Context, branchID, itemID uuid.UUID, kind ItemKind) (decimal.Decimal, error)
}

// LotRepository manages product lots
type LotRepository interface {
	Create(ctx context.Context, lot *ProductLot) error
	FindByID(ctx context.Context, id uuid.UUID) (*ProductLot, error)
	// FindAvailableForUpdate returns the unconsumed lots of a product at
	// a branch in FIFO order, locked for the current transaction.
	FindAvailableForUpdate(ctx context.Context, branchID, productID uuid.UUID) ([]ProductLot, error)
	FindAvailable(ctx context.Context, branchID, productID uuid.UUID) ([]ProductLot, error)
	// FindLatest returns the most recently produced lot of a product at
	// a branch, consumed or not. Used to price adjustment credits.
	FindLatest(ctx context.Context, branchID, productID uuid.UUID) (*ProductLot, error)
	Save(ctx context.Context, lot *ProductLot) error
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]ProductLot, error)
}
