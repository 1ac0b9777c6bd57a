package stocktaking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockTakingStatus represents the lifecycle state of a stock count
type StockTakingStatus string

const (
	StockTakingStatusDraft      StockTakingStatus = "DRAFT"
	StockTakingStatusInProgress StockTakingStatus = "IN_PROGRESS"
	StockTakingStatusCompleted  StockTakingStatus = "COMPLETED"
	StockTakingStatusCancelled  StockTakingStatus = "CANCELLED"
)

// IsValid checks if the status is a valid StockTakingStatus
func (s StockTakingStatus) IsValid() bool {
	switch s {
	case StockTakingStatusDraft, StockTakingStatusInProgress, StockTakingStatusCompleted, StockTakingStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of StockTakingStatus
func (s StockTakingStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s StockTakingStatus) CanTransitionTo(target StockTakingStatus) bool {
	switch s {
	case StockTakingStatusDraft:
		return target == StockTakingStatusInProgress || target == StockTakingStatusCancelled
	case StockTakingStatusInProgress:
		return target == StockTakingStatusCompleted || target == StockTakingStatusCancelled
	case StockTakingStatusCompleted, StockTakingStatusCancelled:
		return false
	}
	return false
}

// StockTakingItem is one counted position. ExpectedQuantity is the
// balance snapshot taken when the count was created; Discrepancy is
// actual minus that snapshot and is what the count report shows.
// The ledger adjustment posted at completion is computed against the
// live balance instead, so sales and production that happened during
// the count are not double-corrected.
type StockTakingItem struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	StockTakingID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	ItemID           uuid.UUID        `gorm:"type:uuid;not null"`
	ItemKind         ledger.ItemKind  `gorm:"type:varchar(16);not null"`
	Name             string           `gorm:"type:varchar(120);not null"`
	Unit             string           `gorm:"type:varchar(20);not null"`
	ExpectedQuantity decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ActualQuantity   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Discrepancy      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	CountedBy        *uuid.UUID       `gorm:"type:uuid"`
	CountedAt        *time.Time       `gorm:"type:timestamptz"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (StockTakingItem) TableName() string {
	return "stock_taking_items"
}

// IsCounted returns true once an actual quantity has been recorded
func (i *StockTakingItem) IsCounted() bool {
	return i.ActualQuantity != nil
}

// HasDiscrepancy returns true if the count differs from the snapshot
func (i *StockTakingItem) HasDiscrepancy() bool {
	return !i.Discrepancy.IsZero()
}

// StockTaking is the aggregate root of the physical count workflow
type StockTaking struct {
	shared.BaseAggregateRoot
	TakingNumber string            `gorm:"type:varchar(40);not null;uniqueIndex"`
	BranchID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status       StockTakingStatus `gorm:"type:varchar(20);not null;index"`
	Items        []StockTakingItem `gorm:"foreignKey:StockTakingID"`
	StartedAt    *time.Time        `gorm:"type:timestamptz"`
	CompletedAt  *time.Time        `gorm:"type:timestamptz"`
	CancelledAt  *time.Time        `gorm:"type:timestamptz"`
	CreatedBy    uuid.UUID         `gorm:"type:uuid;not null"`
	Note         string            `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (StockTaking) TableName() string {
	return "stock_takings"
}

// NewStockTaking creates a draft count for one branch
func NewStockTaking(branchID uuid.UUID, takingNumber string, createdBy uuid.UUID) (*StockTaking, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("branch ID cannot be empty")
	}
	if takingNumber == "" {
		return nil, shared.NewValidationError("stock taking number cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewValidationError("creator ID cannot be empty")
	}

	st := &StockTaking{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TakingNumber:      takingNumber,
		BranchID:          branchID,
		Status:            StockTakingStatusDraft,
		Items:             make([]StockTakingItem, 0),
		CreatedBy:         createdBy,
	}

	st.AddDomainEvent(NewStockTakingCreatedEvent(st))

	return st, nil
}

// AddItem snapshots the expected balance for one item while the count
// is still a draft
func (st *StockTaking) AddItem(itemID uuid.UUID, kind ledger.ItemKind, name, unit string, expectedQuantity decimal.Decimal) error {
	if st.Status != StockTakingStatusDraft {
		return shared.NewInvalidStateTransitionError("stock taking items", st.Status.String(), "modified")
	}
	if itemID == uuid.Nil {
		return shared.NewValidationError("item ID cannot be empty")
	}
	if !kind.IsValid() {
		return shared.NewValidationError("invalid item kind")
	}
	if expectedQuantity.IsNegative() {
		return shared.NewValidationError("expected quantity cannot be negative")
	}
	for _, item := range st.Items {
		if item.ItemID == itemID && item.ItemKind == kind {
			return shared.NewValidationError("item already on the count")
		}
	}

	now := time.Now()
	st.Items = append(st.Items, StockTakingItem{
		ID:               uuid.New(),
		StockTakingID:    st.ID,
		ItemID:           itemID,
		ItemKind:         kind,
		Name:             name,
		Unit:             unit,
		ExpectedQuantity: expectedQuantity,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	st.UpdatedAt = now
	st.IncrementVersion()

	return nil
}

// Start opens the count for recording
func (st *StockTaking) Start() error {
	if !st.Status.CanTransitionTo(StockTakingStatusInProgress) {
		return shared.NewInvalidStateTransitionError("stock taking", st.Status.String(), StockTakingStatusInProgress.String())
	}
	if len(st.Items) == 0 {
		return shared.NewValidationError("cannot start a count with no items")
	}

	now := time.Now()
	st.Status = StockTakingStatusInProgress
	st.StartedAt = &now
	st.UpdatedAt = now
	st.IncrementVersion()

	st.AddDomainEvent(NewStockTakingStartedEvent(st))

	return nil
}

// RecordCount stores the physically counted quantity for one item.
// Recounting an item overwrites the previous figure.
func (st *StockTaking) RecordCount(itemID uuid.UUID, actual decimal.Decimal, countedBy uuid.UUID) error {
	if st.Status != StockTakingStatusInProgress {
		return shared.NewInvalidStateTransitionError("stock taking count", st.Status.String(), "recorded")
	}
	if actual.IsNegative() {
		return shared.NewValidationError("counted quantity cannot be negative")
	}

	for i := range st.Items {
		if st.Items[i].ItemID == itemID {
			now := time.Now()
			qty := actual
			st.Items[i].ActualQuantity = &qty
			st.Items[i].Discrepancy = actual.Sub(st.Items[i].ExpectedQuantity)
			st.Items[i].CountedBy = &countedBy
			st.Items[i].CountedAt = &now
			st.Items[i].UpdatedAt = now
			st.UpdatedAt = now
			st.IncrementVersion()
			return nil
		}
	}

	return shared.NewNotFoundError("stock taking item")
}

// Complete closes the count. Items never counted are left alone; the
// caller posts ledger adjustments for the counted ones against live
// balances afterwards.
func (st *StockTaking) Complete() error {
	if !st.Status.CanTransitionTo(StockTakingStatusCompleted) {
		return shared.NewInvalidStateTransitionError("stock taking", st.Status.String(), StockTakingStatusCompleted.String())
	}

	now := time.Now()
	st.Status = StockTakingStatusCompleted
	st.CompletedAt = &now
	st.UpdatedAt = now
	st.IncrementVersion()

	st.AddDomainEvent(NewStockTakingCompletedEvent(st))

	return nil
}

// Cancel abandons a count that has not been completed
func (st *StockTaking) Cancel(reason string) error {
	if !st.Status.CanTransitionTo(StockTakingStatusCancelled) {
		return shared.NewInvalidStateTransitionError("stock taking", st.Status.String(), StockTakingStatusCancelled.String())
	}

	now := time.Now()
	st.Status = StockTakingStatusCancelled
	st.CancelledAt = &now
	st.Note = reason
	st.UpdatedAt = now
	st.IncrementVersion()

	st.AddDomainEvent(NewStockTakingCancelledEvent(st))

	return nil
}

// UncountedItems lists items still missing an actual quantity
func (st *StockTaking) UncountedItems() []StockTakingItem {
	var out []StockTakingItem
	for _, item := range st.Items {
		if !item.IsCounted() {
			out = append(out, item)
		}
	}
	return out
}

// DiscrepancyItems lists counted items whose figure differs from the
// snapshot
func (st *StockTaking) DiscrepancyItems() []StockTakingItem {
	var out []StockTakingItem
	for _, item := range st.Items {
		if item.IsCounted() && item.HasDiscrepancy() {
			out = append(out, item)
		}
	}
	return out
}

// FindItem returns the line for an item, or nil
func (st *StockTaking) FindItem(itemID uuid.UUID) *StockTakingItem {
	for i := range st.Items {
		if st.Items[i].ItemID == itemID {
			return &st.Items[i]
		}
	}
	return nil
}
