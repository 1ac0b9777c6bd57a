package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LotOrigin identifies how a product lot entered stock
type LotOrigin string

const (
	LotOriginProduction LotOrigin = "PRODUCTION"
	LotOriginSaleReturn LotOrigin = "SALE_RETURN"
	LotOriginTransferIn LotOrigin = "TRANSFER_IN"
	LotOriginAdjustment LotOrigin = "ADJUSTMENT"
)

// String returns the string representation of LotOrigin
func (o LotOrigin) String() string {
	return string(o)
}

// IsValid returns true if the lot origin is valid
func (o LotOrigin) IsValid() bool {
	switch o {
	case LotOriginProduction, LotOriginSaleReturn, LotOriginTransferIn, LotOriginAdjustment:
		return true
	}
	return false
}

// ProductLot is a batch of finished product carrying its cost basis in
// both currencies, fixed at production time. The cost pair and the
// exchange rate are immutable for the life of the lot; only
// QuantityRemaining changes, and it only decreases. Returns that go
// back to stock create new lots instead of refilling old ones.
type ProductLot struct {
	shared.BaseEntity
	BranchID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_lots_key,priority:1"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_lots_key,priority:2"`
	ProductionBatchID *uuid.UUID      `gorm:"type:uuid;index"`
	Origin            LotOrigin       `gorm:"type:varchar(20);not null"`
	ProducedAt        time.Time       `gorm:"type:timestamptz;not null;index"`
	QuantityInitial   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityRemaining decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCostUSD       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCostTJS       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ExchangeRate      decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Consumed          bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProductLot) TableName() string {
	return "product_lots"
}

// NewProductLot creates a new lot with its full quantity remaining
func NewProductLot(
	branchID uuid.UUID,
	productID uuid.UUID,
	origin LotOrigin,
	producedAt time.Time,
	quantity decimal.Decimal,
	unitCostUSD decimal.Decimal,
	unitCostTJS decimal.Decimal,
	exchangeRate decimal.Decimal,
) (*ProductLot, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("branch ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product ID cannot be empty")
	}
	if !origin.IsValid() {
		return nil, shared.NewValidationError("invalid lot origin")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("lot quantity must be positive")
	}
	if unitCostUSD.IsNegative() || unitCostTJS.IsNegative() {
		return nil, shared.NewValidationError("lot unit cost cannot be negative")
	}
	if exchangeRate.IsNegative() {
		return nil, shared.NewValidationError("exchange rate cannot be negative")
	}

	return &ProductLot{
		BaseEntity:        shared.NewBaseEntity(),
		BranchID:          branchID,
		ProductID:         productID,
		Origin:            origin,
		ProducedAt:        producedAt,
		QuantityInitial:   quantity,
		QuantityRemaining: quantity,
		UnitCostUSD:       unitCostUSD,
		UnitCostTJS:       unitCostTJS,
		ExchangeRate:      exchangeRate,
		Consumed:          false,
	}, nil
}

// WithProductionBatch links the lot to the batch that produced it
func (l *ProductLot) WithProductionBatch(batchID uuid.UUID) *ProductLot {
	l.ProductionBatchID = &batchID
	return l
}

// Draw removes quantity from the lot. Unlike an aggregate balance, a
// lot draw is strict: asking for more than remains is a caller bug.
func (l *ProductLot) Draw(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("draw quantity must be positive")
	}
	if quantity.GreaterThan(l.QuantityRemaining) {
		return shared.NewLedgerInconsistencyError(
			"lot " + l.ID.String() + " cannot cover draw of " + quantity.String() +
				", remaining " + l.QuantityRemaining.String())
	}

	l.QuantityRemaining = l.QuantityRemaining.Sub(quantity)
	if l.QuantityRemaining.IsZero() {
		l.Consumed = true
	}
	l.UpdatedAt = time.Now()
	return nil
}

// HasStock returns true if the lot still has quantity remaining
func (l *ProductLot) HasStock() bool {
	return l.QuantityRemaining.IsPositive() && !l.Consumed
}

// ValueUSD returns the remaining value of the lot in USD
func (l *ProductLot) ValueUSD() decimal.Decimal {
	return l.QuantityRemaining.Mul(l.UnitCostUSD)
}

// ValueTJS returns the remaining value of the lot in TJS
func (l *ProductLot) ValueTJS() decimal.Decimal {
	return l.QuantityRemaining.Mul(l.UnitCostTJS)
}
