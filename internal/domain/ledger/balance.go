package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockBalance is the materialized current quantity of one item at one
// branch. It is always updated in the same transaction as the movement
// that changed it; summing the movement log must reproduce Quantity
// exactly.
type StockBalance struct {
	shared.BaseAggregateRoot
	BranchID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_balances_key,priority:1"`
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_balances_key,priority:2"`
	ItemKind       ItemKind        `gorm:"type:varchar(16);not null;uniqueIndex:ux_balances_key,priority:3"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinQuantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Unit           string          `gorm:"type:varchar(20);not null"`
	LastMovementAt *time.Time      `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (StockBalance) TableName() string {
	return "stock_balances"
}

// NewStockBalance creates a zero balance for an item at a branch
func NewStockBalance(branchID, itemID uuid.UUID, kind ItemKind, unit string) (*StockBalance, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("branch ID cannot be empty")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewValidationError("item ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError("invalid item kind")
	}
	if unit == "" {
		return nil, shared.NewValidationError("unit cannot be empty")
	}

	return &StockBalance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BranchID:          branchID,
		ItemID:            itemID,
		ItemKind:          kind,
		Quantity:          decimal.Zero,
		MinQuantity:       decimal.Zero,
		Unit:              unit,
	}, nil
}

// Apply adds a movement's signed quantity to the balance. The balance
// can never go below zero, regardless of movement type.
func (b *StockBalance) Apply(m *Movement) error {
	newQuantity := b.Quantity.Add(m.Quantity)
	if newQuantity.IsNegative() {
		return shared.NewInsufficientStockError(
			b.ItemID.String(),
			b.Quantity.String(),
			m.Quantity.Abs().String(),
		)
	}

	b.Quantity = newQuantity
	occurredAt := m.OccurredAt
	b.LastMovementAt = &occurredAt
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// SetMinQuantity sets the low-stock threshold
func (b *StockBalance) SetMinQuantity(min decimal.Decimal) error {
	if min.IsNegative() {
		return shared.NewValidationError("minimum quantity cannot be negative")
	}
	b.MinQuantity = min
	b.UpdatedAt = time.Now()
	return nil
}

// IsBelowMin returns true if the balance is under its low-stock threshold
func (b *StockBalance) IsBelowMin() bool {
	return b.MinQuantity.IsPositive() && b.Quantity.LessThan(b.MinQuantity)
}

// CanDebit returns true if the balance covers the given positive quantity
func (b *StockBalance) CanDebit(quantity decimal.Decimal) bool {
	return b.Quantity.GreaterThanOrEqual(quantity)
}
