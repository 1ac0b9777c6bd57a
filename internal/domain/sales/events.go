package sales

import (
	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeSale       = "Sale"
	AggregateTypeSaleReturn = "SaleReturn"

	EventTypeSaleCreated       = "sales.sale.created"
	EventTypeSaleConfirmed     = "sales.sale.confirmed"
	EventTypeSaleShipped       = "sales.sale.shipped"
	EventTypeSaleCancelled     = "sales.sale.cancelled"
	EventTypeSaleReturnCreated = "sales.return.created"
)

// SaleCreatedEvent is raised when a draft sale is created
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID `json:"sale_id"`
	SaleNumber string    `json:"sale_number"`
	BranchID   uuid.UUID `json:"branch_id"`
}

// NewSaleCreatedEvent creates a new sale created event
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		BranchID:        s.BranchID,
	}
}

// EventType returns the event type name
func (e *SaleCreatedEvent) EventType() string {
	return EventTypeSaleCreated
}

// SaleConfirmedEvent is raised when a sale is confirmed
type SaleConfirmedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID       `json:"sale_id"`
	SaleNumber string          `json:"sale_number"`
	TotalTJS   decimal.Decimal `json:"total_tjs"`
}

// NewSaleConfirmedEvent creates a new sale confirmed event
func NewSaleConfirmedEvent(s *Sale) *SaleConfirmedEvent {
	return &SaleConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleConfirmed, AggregateTypeSale, s.ID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		TotalTJS:        s.TotalTJS,
	}
}

// EventType returns the event type name
func (e *SaleConfirmedEvent) EventType() string {
	return EventTypeSaleConfirmed
}

// SaleShippedEvent is raised when stock leaves for the customer
type SaleShippedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID `json:"sale_id"`
	SaleNumber string    `json:"sale_number"`
	BranchID   uuid.UUID `json:"branch_id"`
}

// NewSaleShippedEvent creates a new sale shipped event
func NewSaleShippedEvent(s *Sale) *SaleShippedEvent {
	return &SaleShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleShipped, AggregateTypeSale, s.ID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		BranchID:        s.BranchID,
	}
}

// EventType returns the event type name
func (e *SaleShippedEvent) EventType() string {
	return EventTypeSaleShipped
}

// SaleCancelledEvent is raised when a sale is cancelled before shipment
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID `json:"sale_id"`
	SaleNumber string    `json:"sale_number"`
	Reason     string    `json:"reason"`
}

// NewSaleCancelledEvent creates a new sale cancelled event
func NewSaleCancelledEvent(s *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		Reason:          s.Note,
	}
}

// EventType returns the event type name
func (e *SaleCancelledEvent) EventType() string {
	return EventTypeSaleCancelled
}

// SaleReturnCreatedEvent is raised when a return document is recorded
type SaleReturnCreatedEvent struct {
	shared.BaseDomainEvent
	ReturnID     uuid.UUID `json:"return_id"`
	ReturnNumber string    `json:"return_number"`
	SaleID       uuid.UUID `json:"sale_id"`
	BranchID     uuid.UUID `json:"branch_id"`
}

// NewSaleReturnCreatedEvent creates a new sale return created event
func NewSaleReturnCreatedEvent(r *SaleReturn) *SaleReturnCreatedEvent {
	return &SaleReturnCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleReturnCreated, AggregateTypeSaleReturn, r.ID),
		ReturnID:        r.ID,
		ReturnNumber:    r.ReturnNumber,
		SaleID:          r.SaleID,
		BranchID:        r.BranchID,
	}
}

// EventType returns the event type name
func (e *SaleReturnCreatedEvent) EventType() string {
	return EventTypeSaleReturnCreated
}
