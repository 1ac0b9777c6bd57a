package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ItemKind separates the two ledgers: raw ingredients bought from
// suppliers and finished products coming out of production.
type ItemKind string

const (
	ItemKindIngredient ItemKind = "INGREDIENT"
	ItemKindProduct    ItemKind = "PRODUCT"
)

// String returns the string representation of ItemKind
func (k ItemKind) String() string {
	return string(k)
}

// IsValid returns true if the item kind is valid
func (k ItemKind) IsValid() bool {
	return k == ItemKindIngredient || k == ItemKindProduct
}

// MovementType represents the business cause of a stock movement
type MovementType string

const (
	// MovementTypeReceipt is an ingredient purchase arriving at a branch
	MovementTypeReceipt MovementType = "RECEIPT"
	// MovementTypeProductionConsumption is an ingredient consumed by a production batch
	MovementTypeProductionConsumption MovementType = "PRODUCTION_CONSUMPTION"
	// MovementTypeProductionOutput is a finished product credited by a completed batch
	MovementTypeProductionOutput MovementType = "PRODUCTION_OUTPUT"
	// MovementTypeSaleShipment is a product shipped against a sale
	MovementTypeSaleShipment MovementType = "SALE_SHIPMENT"
	// MovementTypeSaleReturn is a product returned to stock by a customer
	MovementTypeSaleReturn MovementType = "SALE_RETURN"
	// MovementTypeTransferOut is stock leaving the sending branch of a transfer
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
	// MovementTypeTransferIn is stock arriving at the receiving branch of a transfer
	MovementTypeTransferIn MovementType = "TRANSFER_IN"
	// MovementTypeWriteOff is damaged or expired stock removed from the ledger
	MovementTypeWriteOff MovementType = "WRITE_OFF"
	// MovementTypeAdjustment is a signed correction posted by a completed stock taking
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeReceipt,
		MovementTypeProductionConsumption,
		MovementTypeProductionOutput,
		MovementTypeSaleShipment,
		MovementTypeSaleReturn,
		MovementTypeTransferOut,
		MovementTypeTransferIn,
		MovementTypeWriteOff,
		MovementTypeAdjustment:
		return true
	}
	return false
}

// IsIncrease returns true if this movement type always credits stock
func (t MovementType) IsIncrease() bool {
	switch t {
	case MovementTypeReceipt,
		MovementTypeProductionOutput,
		MovementTypeSaleReturn,
		MovementTypeTransferIn:
		return true
	}
	return false
}

// IsDecrease returns true if this movement type always debits stock
func (t MovementType) IsDecrease() bool {
	switch t {
	case MovementTypeProductionConsumption,
		MovementTypeSaleShipment,
		MovementTypeTransferOut,
		MovementTypeWriteOff:
		return true
	}
	return false
}

// ReferenceType identifies the source document of a movement
type ReferenceType string

const (
	ReferenceTypeGoodsReceipt    ReferenceType = "GOODS_RECEIPT"
	ReferenceTypeProductionBatch ReferenceType = "PRODUCTION_BATCH"
	ReferenceTypeSale            ReferenceType = "SALE"
	ReferenceTypeSaleReturn      ReferenceType = "SALE_RETURN"
	ReferenceTypeTransfer        ReferenceType = "TRANSFER"
	ReferenceTypeStockTaking     ReferenceType = "STOCK_TAKING"
	ReferenceTypeManual          ReferenceType = "MANUAL"
)

// String returns the string representation of ReferenceType
func (r ReferenceType) String() string {
	return string(r)
}

// IsValid returns true if the reference type is valid
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceTypeGoodsReceipt,
		ReferenceTypeProductionBatch,
		ReferenceTypeSale,
		ReferenceTypeSaleReturn,
		ReferenceTypeTransfer,
		ReferenceTypeStockTaking,
		ReferenceTypeManual:
		return true
	}
	return false
}

// Movement is an immutable record of a single stock change. The quantity
// is signed: positive credits the balance, negative debits it. Once
// appended a movement is never updated or deleted; corrections are made
// with compensating movements.
type Movement struct {
	shared.BaseEntity
	BranchID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_movements_key,priority:1"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_movements_key,priority:2"`
	ItemKind      ItemKind        `gorm:"type:varchar(16);not null;index:idx_movements_key,priority:3"`
	MovementType  MovementType    `gorm:"type:varchar(32);not null;index:idx_movements_type"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit          string          `gorm:"type:varchar(20);not null"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCostUSD   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCostTJS   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReferenceType ReferenceType   `gorm:"type:varchar(32);not null;index:idx_movements_ref,priority:1"`
	ReferenceID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_movements_ref,priority:2"`
	LotID         *uuid.UUID      `gorm:"type:uuid;index"`
	Reason        string          `gorm:"type:varchar(255)"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid"`
	OccurredAt    time.Time       `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (Movement) TableName() string {
	return "stock_movements"
}

// NewMovement creates a new movement with the given signed quantity.
// The sign must agree with the movement type: increase types require a
// positive quantity, decrease types a negative one. ADJUSTMENT accepts
// either sign but never zero.
func NewMovement(
	branchID uuid.UUID,
	itemID uuid.UUID,
	kind ItemKind,
	movementType MovementType,
	quantity decimal.Decimal,
	unit string,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	referenceType ReferenceType,
	referenceID uuid.UUID,
) (*Movement, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("branch ID cannot be empty")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewValidationError("item ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError("invalid item kind")
	}
	if !movementType.IsValid() {
		return nil, shared.NewValidationError("invalid movement type")
	}
	if quantity.IsZero() {
		return nil, shared.NewValidationError("movement quantity cannot be zero")
	}
	if movementType.IsIncrease() && quantity.IsNegative() {
		return nil, shared.NewValidationError("movement type " + movementType.String() + " requires a positive quantity")
	}
	if movementType.IsDecrease() && quantity.IsPositive() {
		return nil, shared.NewValidationError("movement type " + movementType.String() + " requires a negative quantity")
	}
	if unit == "" {
		return nil, shared.NewValidationError("unit cannot be empty")
	}
	if !referenceType.IsValid() {
		return nil, shared.NewValidationError("invalid reference type")
	}
	if referenceID == uuid.Nil {
		return nil, shared.NewValidationError("reference ID cannot be empty")
	}

	return &Movement{
		BaseEntity:    shared.NewBaseEntity(),
		BranchID:      branchID,
		ItemID:        itemID,
		ItemKind:      kind,
		MovementType:  movementType,
		Quantity:      quantity,
		Unit:          unit,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		OccurredAt:    time.Now(),
	}, nil
}

// WithLotID links the movement to a product lot
func (m *Movement) WithLotID(lotID uuid.UUID) *Movement {
	m.LotID = &lotID
	return m
}

// WithUnitCost records the cost basis carried by the movement
func (m *Movement) WithUnitCost(usd, tjs decimal.Decimal) *Movement {
	m.UnitCostUSD = usd
	m.UnitCostTJS = tjs
	return m
}

// WithReason records the human-entered reason for the movement
func (m *Movement) WithReason(reason string) *Movement {
	m.Reason = reason
	return m
}

// WithCreatedBy records the operator who caused the movement
func (m *Movement) WithCreatedBy(operatorID uuid.UUID) *Movement {
	m.CreatedBy = &operatorID
	return m
}

// WithOccurredAt overrides the movement timestamp
func (m *Movement) WithOccurredAt(at time.Time) *Movement {
	m.OccurredAt = at
	return m
}

// IsCredit returns true if the movement increased the balance
func (m *Movement) IsCredit() bool {
	return m.Quantity.IsPositive()
}

// TotalCostUSD returns the absolute cost of the movement in USD
func (m *Movement) TotalCostUSD() decimal.Decimal {
	return m.Quantity.Abs().Mul(m.UnitCostUSD)
}

// TotalCostTJS returns the absolute cost of the movement in TJS
func (m *Movement) TotalCostTJS() decimal.Decimal {
	return m.Quantity.Abs().Mul(m.UnitCostTJS)
}
