package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the lifecycle state of a sale
type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "DRAFT"
	SaleStatusConfirmed SaleStatus = "CONFIRMED"
	SaleStatusShipped   SaleStatus = "SHIPPED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusDraft, SaleStatusConfirmed, SaleStatusShipped, SaleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target
// status. A shipped sale is terminal; returns compensate it instead of
// reversing it.
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	switch s {
	case SaleStatusDraft:
		return target == SaleStatusConfirmed || target == SaleStatusCancelled
	case SaleStatusConfirmed:
		return target == SaleStatusShipped || target == SaleStatusCancelled
	case SaleStatusShipped, SaleStatusCancelled:
		return false
	}
	return false
}

// PaymentStatus is derived from the outstanding debt, never stored as an
// independent column
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// SaleItem is one product line of a sale. The COGS pair is recorded at
// shipment from the FIFO walk over the branch's lots.
type SaleItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName  string          `gorm:"type:varchar(120);not null"`
	Unit         string          `gorm:"type:varchar(20);not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPriceTJS decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalTJS     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	COGSUnitUSD  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	COGSUnitTJS  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (SaleItem) TableName() string {
	return "sale_items"
}

// Payment is money received against a sale, always in TJS
type Payment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	AmountTJS  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method     string          `gorm:"type:varchar(30);not null"`
	PaidAt     time.Time       `gorm:"type:timestamptz;not null"`
	ReceivedBy uuid.UUID       `gorm:"type:uuid;not null"`
	Note       string          `gorm:"type:varchar(255)"`
	CreatedAt  time.Time
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "sale_payments"
}

// Sale is the aggregate root of the sales workflow
type Sale struct {
	shared.BaseAggregateRoot
	SaleNumber   string     `gorm:"type:varchar(40);not null;uniqueIndex"`
	BranchID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID   *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName string     `gorm:"type:varchar(120)"`
	Status       SaleStatus `gorm:"type:varchar(20);not null;index"`
	SaleDate     time.Time  `gorm:"type:timestamptz;not null"`
	Items        []SaleItem `gorm:"foreignKey:SaleID"`
	Payments     []Payment  `gorm:"foreignKey:SaleID"`
	// TotalTJS is the sum of item totals, recomputed on every item edit
	TotalTJS    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ConfirmedAt *time.Time      `gorm:"type:timestamptz"`
	ShippedAt   *time.Time      `gorm:"type:timestamptz"`
	CancelledAt *time.Time      `gorm:"type:timestamptz"`
	CreatedBy   uuid.UUID       `gorm:"type:uuid;not null"`
	Note        string          `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// NewSale creates a draft sale
func NewSale(branchID uuid.UUID, saleNumber, customerName string, saleDate time.Time, createdBy uuid.UUID) (*Sale, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("branch ID cannot be empty")
	}
	if saleNumber == "" {
		return nil, shared.NewValidationError("sale number cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewValidationError("creator ID cannot be empty")
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SaleNumber:        saleNumber,
		BranchID:          branchID,
		CustomerName:      customerName,
		Status:            SaleStatusDraft,
		SaleDate:          saleDate,
		Items:             make([]SaleItem, 0),
		Payments:          make([]Payment, 0),
		TotalTJS:          decimal.Zero,
		CreatedBy:         createdBy,
	}

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))

	return sale, nil
}

// WithCustomerID links the sale to a known customer
func (s *Sale) WithCustomerID(customerID uuid.UUID) *Sale {
	s.CustomerID = &customerID
	return s
}

// AddItem adds a product line. Items are editable only while the sale
// is a draft.
func (s *Sale) AddItem(productID uuid.UUID, productName, unit string, quantity, unitPriceTJS decimal.Decimal) error {
	if s.Status != SaleStatusDraft {
		return shared.NewInvalidStateTransitionError("sale items", s.Status.String(), "modified")
	}
	if productID == uuid.Nil {
		return shared.NewValidationError("product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("item quantity must be positive")
	}
	if unitPriceTJS.IsNegative() {
		return shared.NewValidationError("unit price cannot be negative")
	}
	for _, item := range s.Items {
		if item.ProductID == productID {
			return shared.NewValidationError("product already on the sale")
		}
	}

	now := time.Now()
	s.Items = append(s.Items, SaleItem{
		ID:           uuid.New(),
		SaleID:       s.ID,
		ProductID:    productID,
		ProductName:  productName,
		Unit:         unit,
		Quantity:     quantity,
		UnitPriceTJS: unitPriceTJS,
		TotalTJS:     quantity.Mul(unitPriceTJS).Round(4),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	s.recalculateTotal()
	s.UpdatedAt = now
	s.IncrementVersion()

	return nil
}

// RemoveItem removes a product line from a draft sale
func (s *Sale) RemoveItem(productID uuid.UUID) error {
	if s.Status != SaleStatusDraft {
		return shared.NewInvalidStateTransitionError("sale items", s.Status.String(), "modified")
	}

	for i, item := range s.Items {
		if item.ProductID == productID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			s.recalculateTotal()
			s.UpdatedAt = time.Now()
			s.IncrementVersion()
			return nil
		}
	}

	return shared.NewNotFoundError("sale item")
}

func (s *Sale) recalculateTotal() {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.TotalTJS)
	}
	s.TotalTJS = total
}

// Confirm locks the item list and makes the sale eligible for payments
// and shipment
func (s *Sale) Confirm() error {
	if !s.Status.CanTransitionTo(SaleStatusConfirmed) {
		return shared.NewInvalidStateTransitionError("sale", s.Status.String(), SaleStatusConfirmed.String())
	}
	if len(s.Items) == 0 {
		return shared.NewValidationError("cannot confirm a sale with no items")
	}

	now := time.Now()
	s.Status = SaleStatusConfirmed
	s.ConfirmedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleConfirmedEvent(s))

	return nil
}

// MarkShipped transitions the sale to SHIPPED. The caller posts the
// ledger debits and passes back the per-item COGS via RecordItemCOGS
// before calling this.
func (s *Sale) MarkShipped() error {
	if !s.Status.CanTransitionTo(SaleStatusShipped) {
		return shared.NewInvalidStateTransitionError("sale", s.Status.String(), SaleStatusShipped.String())
	}

	now := time.Now()
	s.Status = SaleStatusShipped
	s.ShippedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleShippedEvent(s))

	return nil
}

// RecordItemCOGS stores the weighted cost pair the shipment consumed
// for one item
func (s *Sale) RecordItemCOGS(productID uuid.UUID, unitUSD, unitTJS decimal.Decimal) error {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			s.Items[i].COGSUnitUSD = unitUSD
			s.Items[i].COGSUnitTJS = unitTJS
			s.Items[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewNotFoundError("sale item")
}

// Cancel abandons a sale that has not shipped
func (s *Sale) Cancel(reason string) error {
	if !s.Status.CanTransitionTo(SaleStatusCancelled) {
		return shared.NewInvalidStateTransitionError("sale", s.Status.String(), SaleStatusCancelled.String())
	}
	if len(s.Payments) > 0 {
		return shared.NewValidationError("cannot cancel a sale with recorded payments")
	}

	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.Note = reason
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleCancelledEvent(s))

	return nil
}

// AddPayment records money received. Payments are legal from
// confirmation onward and may never exceed the outstanding debt.
func (s *Sale) AddPayment(amountTJS decimal.Decimal, method string, receivedBy uuid.UUID, note string) (*Payment, error) {
	if s.Status != SaleStatusConfirmed && s.Status != SaleStatusShipped {
		return nil, shared.NewInvalidStateTransitionError("sale payments", s.Status.String(), "modified")
	}
	if amountTJS.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("payment amount must be positive")
	}
	if receivedBy == uuid.Nil {
		return nil, shared.NewValidationError("payment receiver cannot be empty")
	}
	if amountTJS.GreaterThan(s.Debt()) {
		return nil, shared.NewValidationError("payment exceeds outstanding debt")
	}

	now := time.Now()
	payment := Payment{
		ID:         uuid.New(),
		SaleID:     s.ID,
		AmountTJS:  amountTJS,
		Method:     method,
		PaidAt:     now,
		ReceivedBy: receivedBy,
		Note:       note,
		CreatedAt:  now,
	}
	s.Payments = append(s.Payments, payment)
	s.UpdatedAt = now
	s.IncrementVersion()

	return &payment, nil
}

// RemovePayment deletes a mistakenly recorded payment
func (s *Sale) RemovePayment(paymentID uuid.UUID) error {
	if s.Status != SaleStatusConfirmed && s.Status != SaleStatusShipped {
		return shared.NewInvalidStateTransitionError("sale payments", s.Status.String(), "modified")
	}

	for i, p := range s.Payments {
		if p.ID == paymentID {
			s.Payments = append(s.Payments[:i], s.Payments[i+1:]...)
			s.UpdatedAt = time.Now()
			s.IncrementVersion()
			return nil
		}
	}

	return shared.NewNotFoundError("payment")
}

// PaidAmount returns the sum of recorded payments
func (s *Sale) PaidAmount() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Payments {
		total = total.Add(p.AmountTJS)
	}
	return total
}

// Debt returns the outstanding amount in TJS
func (s *Sale) Debt() decimal.Decimal {
	return s.TotalTJS.Sub(s.PaidAmount())
}

// PaymentState derives the payment status from the current debt
func (s *Sale) PaymentState() PaymentStatus {
	paid := s.PaidAmount()
	switch {
	case paid.IsZero():
		return PaymentStatusUnpaid
	case paid.GreaterThanOrEqual(s.TotalTJS):
		return PaymentStatusPaid
	default:
		return PaymentStatusPartial
	}
}

// FindItem returns the item for a product, or nil
func (s *Sale) FindItem(productID uuid.UUID) *SaleItem {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return &s.Items[i]
		}
	}
	return nil
}
