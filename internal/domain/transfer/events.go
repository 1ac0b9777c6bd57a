package transfer

import (
	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeTransfer = "Transfer"

	EventTypeTransferCreated   = "transfer.created"
	EventTypeTransferSent      = "transfer.sent"
	EventTypeTransferReceived  = "transfer.received"
	EventTypeTransferCancelled = "transfer.cancelled"
)

// TransferCreatedEvent is raised when a transfer document is drafted
type TransferCreatedEvent struct {
	shared.BaseDomainEvent
	TransferID     uuid.UUID `json:"transfer_id"`
	TransferNumber string    `json:"transfer_number"`
	FromBranchID   uuid.UUID `json:"from_branch_id"`
	ToBranchID     uuid.UUID `json:"to_branch_id"`
}

// NewTransferCreatedEvent creates a new transfer created event
func NewTransferCreatedEvent(t *Transfer) *TransferCreatedEvent {
	return &TransferCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferCreated, AggregateTypeTransfer, t.ID),
		TransferID:      t.ID,
		TransferNumber:  t.TransferNumber,
		FromBranchID:    t.FromBranchID,
		ToBranchID:      t.ToBranchID,
	}
}

// EventType returns the event type name
func (e *TransferCreatedEvent) EventType() string {
	return EventTypeTransferCreated
}

// TransferSentEvent is raised when stock leaves the sending branch
type TransferSentEvent struct {
	shared.BaseDomainEvent
	TransferID     uuid.UUID `json:"transfer_id"`
	TransferNumber string    `json:"transfer_number"`
	FromBranchID   uuid.UUID `json:"from_branch_id"`
	ToBranchID     uuid.UUID `json:"to_branch_id"`
	ItemCount      int       `json:"item_count"`
}

// NewTransferSentEvent creates a new transfer sent event
func NewTransferSentEvent(t *Transfer) *TransferSentEvent {
	return &TransferSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferSent, AggregateTypeTransfer, t.ID),
		TransferID:      t.ID,
		TransferNumber:  t.TransferNumber,
		FromBranchID:    t.FromBranchID,
		ToBranchID:      t.ToBranchID,
		ItemCount:       len(t.Items),
	}
}

// EventType returns the event type name
func (e *TransferSentEvent) EventType() string {
	return EventTypeTransferSent
}

// TransferReceivedEvent is raised when the receiving branch confirms
// arrival, with the total in-transit loss if any
type TransferReceivedEvent struct {
	shared.BaseDomainEvent
	TransferID       uuid.UUID       `json:"transfer_id"`
	TransferNumber   string          `json:"transfer_number"`
	ToBranchID       uuid.UUID       `json:"to_branch_id"`
	TotalDiscrepancy decimal.Decimal `json:"total_discrepancy"`
}

// NewTransferReceivedEvent creates a new transfer received event
func NewTransferReceivedEvent(t *Transfer) *TransferReceivedEvent {
	return &TransferReceivedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeTransferReceived, AggregateTypeTransfer, t.ID),
		TransferID:       t.ID,
		TransferNumber:   t.TransferNumber,
		ToBranchID:       t.ToBranchID,
		TotalDiscrepancy: t.TotalDiscrepancy(),
	}
}

// EventType returns the event type name
func (e *TransferReceivedEvent) EventType() string {
	return EventTypeTransferReceived
}

// TransferCancelledEvent is raised when an unsent transfer is abandoned
type TransferCancelledEvent struct {
	shared.BaseDomainEvent
	TransferID     uuid.UUID `json:"transfer_id"`
	TransferNumber string    `json:"transfer_number"`
	Reason         string    `json:"reason"`
}

// NewTransferCancelledEvent creates a new transfer cancelled event
func NewTransferCancelledEvent(t *Transfer) *TransferCancelledEvent {
	return &TransferCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferCancelled, AggregateTypeTransfer, t.ID),
		TransferID:      t.ID,
		TransferNumber:  t.TransferNumber,
		Reason:          t.Note,
	}
}

// EventType returns the event type name
func (e *TransferCancelledEvent) EventType() string {
	return EventTypeTransferCancelled
}
