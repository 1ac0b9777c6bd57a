package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransferStatus represents the lifecycle state of a branch transfer
type TransferStatus string

const (
	TransferStatusCreated   TransferStatus = "CREATED"
	TransferStatusInTransit TransferStatus = "IN_TRANSIT"
	TransferStatusReceived  TransferStatus = "RECEIVED"
	TransferStatusCancelled TransferStatus = "CANCELLED"
)

// IsValid checks if the status is a valid TransferStatus
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusCreated, TransferStatusInTransit, TransferStatusReceived, TransferStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of TransferStatus
func (s TransferStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target
// status. Once stock left the sender, the transfer can only be received.
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	switch s {
	case TransferStatusCreated:
		return target == TransferStatusInTransit || target == TransferStatusCancelled
	case TransferStatusInTransit:
		return target == TransferStatusReceived
	case TransferStatusReceived, TransferStatusCancelled:
		return false
	}
	return false
}

// TransferItem is one line of a transfer. For products the cost pair is
// the weighted basis of the sender's FIFO walk, recorded at send time;
// the receiver's lot is created at that basis.
type TransferItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransferID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID           uuid.UUID       `gorm:"type:uuid;not null"`
	ItemKind         ledger.ItemKind `gorm:"type:varchar(16);not null"`
	Name             string          `gorm:"type:varchar(120);not null"`
	Unit             string          `gorm:"type:varchar(20);not null"`
	QuantitySent     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	// Discrepancy is sent minus received: loss in transit, absorbed by
	// the transfer and reported, never posted back to the sender
	Discrepancy  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCostUSD  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCostTJS  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (TransferItem) TableName() string {
	return "transfer_items"
}

// HasDiscrepancy returns true if some sent quantity never arrived
func (i *TransferItem) HasDiscrepancy() bool {
	return i.Discrepancy.IsPositive()
}

// Transfer is the aggregate root of the branch transfer workflow
type Transfer struct {
	shared.BaseAggregateRoot
	TransferNumber string         `gorm:"type:varchar(40);not null;uniqueIndex"`
	FromBranchID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	ToBranchID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status         TransferStatus `gorm:"type:varchar(20);not null;index"`
	Items          []TransferItem `gorm:"foreignKey:TransferID"`
	SentAt         *time.Time     `gorm:"type:timestamptz"`
	ReceivedAt     *time.Time     `gorm:"type:timestamptz"`
	CancelledAt    *time.Time     `gorm:"type:timestamptz"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;not null"`
	ReceivedBy     *uuid.UUID     `gorm:"type:uuid"`
	Note           string         `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (Transfer) TableName() string {
	return "transfers"
}

// NewTransfer creates a transfer between two distinct branches
func NewTransfer(fromBranchID, toBranchID uuid.UUID, transferNumber string, createdBy uuid.UUID) (*Transfer, error) {
	if fromBranchID == uuid.Nil || toBranchID == uuid.Nil {
		return nil, shared.NewValidationError("both branches are required")
	}
	if fromBranchID == toBranchID {
		return nil, shared.NewValidationError("cannot transfer within the same branch")
	}
	if transferNumber == "" {
		return nil, shared.NewValidationError("transfer number cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewValidationError("creator ID cannot be empty")
	}

	tr := &Transfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TransferNumber:    transferNumber,
		FromBranchID:      fromBranchID,
		ToBranchID:        toBranchID,
		Status:            TransferStatusCreated,
		Items:             make([]TransferItem, 0),
		CreatedBy:         createdBy,
	}

	tr.AddDomainEvent(NewTransferCreatedEvent(tr))

	return tr, nil
}

// AddItem adds a line while the transfer has not been sent
func (t *Transfer) AddItem(itemID uuid.UUID, kind ledger.ItemKind, name, unit string, quantity decimal.Decimal) error {
	if t.Status != TransferStatusCreated {
		return shared.NewInvalidStateTransitionError("transfer items", t.Status.String(), "modified")
	}
	if itemID == uuid.Nil {
		return shared.NewValidationError("item ID cannot be empty")
	}
	if !kind.IsValid() {
		return shared.NewValidationError("invalid item kind")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("transfer quantity must be positive")
	}
	for _, item := range t.Items {
		if item.ItemID == itemID && item.ItemKind == kind {
			return shared.NewValidationError("item already on the transfer")
		}
	}

	now := time.Now()
	t.Items = append(t.Items, TransferItem{
		ID:           uuid.New(),
		TransferID:   t.ID,
		ItemID:       itemID,
		ItemKind:     kind,
		Name:         name,
		Unit:         unit,
		QuantitySent: quantity,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	t.UpdatedAt = now
	t.IncrementVersion()

	return nil
}

// RecordItemCost stores the cost basis debited from the sender for one
// item, taken from the FIFO walk at send time
func (t *Transfer) RecordItemCost(itemID uuid.UUID, unitUSD, unitTJS, exchangeRate decimal.Decimal) error {
	for i := range t.Items {
		if t.Items[i].ItemID == itemID {
			t.Items[i].UnitCostUSD = unitUSD
			t.Items[i].UnitCostTJS = unitTJS
			t.Items[i].ExchangeRate = exchangeRate
			t.Items[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewNotFoundError("transfer item")
}

// MarkInTransit transitions the transfer after the sender's debits
// posted. All items leave atomically; there is no partial send.
func (t *Transfer) MarkInTransit() error {
	if !t.Status.CanTransitionTo(TransferStatusInTransit) {
		return shared.NewInvalidStateTransitionError("transfer", t.Status.String(), TransferStatusInTransit.String())
	}
	if len(t.Items) == 0 {
		return shared.NewValidationError("cannot send a transfer with no items")
	}

	now := time.Now()
	t.Status = TransferStatusInTransit
	t.SentAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferSentEvent(t))

	return nil
}

// Receive fixes the received quantities and the per-item discrepancy.
// Items absent from the received map arrived in full. Receiving more
// than was sent is rejected.
func (t *Transfer) Receive(received map[uuid.UUID]decimal.Decimal, receivedBy uuid.UUID) error {
	if !t.Status.CanTransitionTo(TransferStatusReceived) {
		return shared.NewInvalidStateTransitionError("transfer", t.Status.String(), TransferStatusReceived.String())
	}
	if receivedBy == uuid.Nil {
		return shared.NewValidationError("receiver ID cannot be empty")
	}

	for i := range t.Items {
		qty, ok := received[t.Items[i].ItemID]
		if !ok {
			qty = t.Items[i].QuantitySent
		}
		if qty.IsNegative() {
			return shared.NewValidationError("received quantity cannot be negative")
		}
		if qty.GreaterThan(t.Items[i].QuantitySent) {
			return shared.NewValidationError("received quantity cannot exceed sent quantity")
		}
		t.Items[i].QuantityReceived = qty
		t.Items[i].Discrepancy = t.Items[i].QuantitySent.Sub(qty)
		t.Items[i].UpdatedAt = time.Now()
	}

	now := time.Now()
	t.Status = TransferStatusReceived
	t.ReceivedAt = &now
	t.ReceivedBy = &receivedBy
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferReceivedEvent(t))

	return nil
}

// Cancel abandons a transfer that has not been sent
func (t *Transfer) Cancel(reason string) error {
	if !t.Status.CanTransitionTo(TransferStatusCancelled) {
		return shared.NewInvalidStateTransitionError("transfer", t.Status.String(), TransferStatusCancelled.String())
	}

	now := time.Now()
	t.Status = TransferStatusCancelled
	t.CancelledAt = &now
	t.Note = reason
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewTransferCancelledEvent(t))

	return nil
}

// TotalDiscrepancy sums the lost quantity across items
func (t *Transfer) TotalDiscrepancy() decimal.Decimal {
	total := decimal.Zero
	for _, item := range t.Items {
		total = total.Add(item.Discrepancy)
	}
	return total
}

// FindItem returns the line for an item, or nil
func (t *Transfer) FindItem(itemID uuid.UUID) *TransferItem {
	for i := range t.Items {
		if t.Items[i].ItemID == itemID {
			return &t.Items[i]
		}
	}
	return nil
}
