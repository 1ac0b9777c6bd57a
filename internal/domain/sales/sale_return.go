package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleReturnItem is one returned product line. The cost pair is the
// original COGS basis of the sale item, so stock-returning items go
// back on the shelf at the value they left with.
type SaleReturnItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReturnID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName   string          `gorm:"type:varchar(120);not null"`
	Unit          string          `gorm:"type:varchar(20);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCostUSD   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCostTJS   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnToStock bool            `gorm:"not null"`
	CreatedAt     time.Time
}

// TableName returns the table name for GORM
func (SaleReturnItem) TableName() string {
	return "sale_return_items"
}

// ReturnRequestItem is the caller's description of one line to return
type ReturnRequestItem struct {
	ProductID     uuid.UUID
	Quantity      decimal.Decimal
	ReturnToStock bool
}

// SaleReturn records products coming back against a shipped sale. It is
// created in one step; there is no draft lifecycle.
type SaleReturn struct {
	shared.BaseAggregateRoot
	ReturnNumber string           `gorm:"type:varchar(40);not null;uniqueIndex"`
	SaleID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	BranchID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Items        []SaleReturnItem `gorm:"foreignKey:ReturnID"`
	Reason       string           `gorm:"type:varchar(255)"`
	ReturnedAt   time.Time        `gorm:"type:timestamptz;not null"`
	CreatedBy    uuid.UUID        `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (SaleReturn) TableName() string {
	return "sale_returns"
}

// NewSaleReturn validates requested lines against the sale and the
// quantities already returned by earlier documents, then builds the
// return. previouslyReturned maps product ID to the summed quantity of
// prior returns for this sale, computed by the caller at validation
// time.
func NewSaleReturn(
	sale *Sale,
	returnNumber string,
	requested []ReturnRequestItem,
	previouslyReturned map[uuid.UUID]decimal.Decimal,
	reason string,
	createdBy uuid.UUID,
) (*SaleReturn, error) {
	if sale == nil {
		return nil, shared.NewValidationError("sale is required")
	}
	if sale.Status != SaleStatusShipped {
		return nil, shared.NewInvalidStateTransitionError("sale return", sale.Status.String(), "created")
	}
	if returnNumber == "" {
		return nil, shared.NewValidationError("return number cannot be empty")
	}
	if len(requested) == 0 {
		return nil, shared.NewValidationError("return must contain at least one item")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewValidationError("creator ID cannot be empty")
	}

	ret := &SaleReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnNumber:      returnNumber,
		SaleID:            sale.ID,
		BranchID:          sale.BranchID,
		Items:             make([]SaleReturnItem, 0, len(requested)),
		Reason:            reason,
		ReturnedAt:        time.Now(),
		CreatedBy:         createdBy,
	}

	seen := make(map[uuid.UUID]bool, len(requested))
	for _, req := range requested {
		if seen[req.ProductID] {
			return nil, shared.NewValidationError("duplicate product on return")
		}
		seen[req.ProductID] = true

		if req.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewValidationError("return quantity must be positive")
		}

		sold := sale.FindItem(req.ProductID)
		if sold == nil {
			return nil, shared.NewValidationError("product was not on the sale")
		}

		returnable := sold.Quantity.Sub(previouslyReturned[req.ProductID])
		if req.Quantity.GreaterThan(returnable) {
			return nil, shared.NewValidationError(fmt.Sprintf(
				"cannot return %s of %s: only %s still returnable",
				req.Quantity.String(), sold.ProductName, returnable.String()))
		}

		ret.Items = append(ret.Items, SaleReturnItem{
			ID:            uuid.New(),
			ReturnID:      ret.ID,
			ProductID:     req.ProductID,
			ProductName:   sold.ProductName,
			Unit:          sold.Unit,
			Quantity:      req.Quantity,
			UnitCostUSD:   sold.COGSUnitUSD,
			UnitCostTJS:   sold.COGSUnitTJS,
			ReturnToStock: req.ReturnToStock,
		})
	}

	ret.AddDomainEvent(NewSaleReturnCreatedEvent(ret))

	return ret, nil
}

// StockItems returns the lines that go back to stock as new lots
func (r *SaleReturn) StockItems() []SaleReturnItem {
	items := make([]SaleReturnItem, 0, len(r.Items))
	for _, item := range r.Items {
		if item.ReturnToStock {
			items = append(items, item)
		}
	}
	return items
}

// TotalQuantity returns the summed returned quantity across lines
func (r *SaleReturn) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.Quantity)
	}
	return total
}
