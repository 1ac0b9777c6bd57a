package stocktaking

import (
	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
)

const (
	AggregateTypeStockTaking = "StockTaking"

	EventTypeStockTakingCreated   = "stocktaking.created"
	EventTypeStockTakingStarted   = "stocktaking.started"
	EventTypeStockTakingCompleted = "stocktaking.completed"
	EventTypeStockTakingCancelled = "stocktaking.cancelled"
)

// StockTakingCreatedEvent is raised when a count document is drafted
type StockTakingCreatedEvent struct {
	shared.BaseDomainEvent
	StockTakingID uuid.UUID `json:"stock_taking_id"`
	TakingNumber  string    `json:"taking_number"`
	BranchID      uuid.UUID `json:"branch_id"`
}

// NewStockTakingCreatedEvent creates a new stock taking created event
func NewStockTakingCreatedEvent(st *StockTaking) *StockTakingCreatedEvent {
	return &StockTakingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockTakingCreated, AggregateTypeStockTaking, st.ID),
		StockTakingID:   st.ID,
		TakingNumber:    st.TakingNumber,
		BranchID:        st.BranchID,
	}
}

// EventType returns the event type name
func (e *StockTakingCreatedEvent) EventType() string {
	return EventTypeStockTakingCreated
}

// StockTakingStartedEvent is raised when counting begins
type StockTakingStartedEvent struct {
	shared.BaseDomainEvent
	StockTakingID uuid.UUID `json:"stock_taking_id"`
	TakingNumber  string    `json:"taking_number"`
	ItemCount     int       `json:"item_count"`
}

// NewStockTakingStartedEvent creates a new stock taking started event
func NewStockTakingStartedEvent(st *StockTaking) *StockTakingStartedEvent {
	return &StockTakingStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockTakingStarted, AggregateTypeStockTaking, st.ID),
		StockTakingID:   st.ID,
		TakingNumber:    st.TakingNumber,
		ItemCount:       len(st.Items),
	}
}

// EventType returns the event type name
func (e *StockTakingStartedEvent) EventType() string {
	return EventTypeStockTakingStarted
}

// StockTakingCompletedEvent is raised when the count closes, with the
// number of positions that differed from the snapshot
type StockTakingCompletedEvent struct {
	shared.BaseDomainEvent
	StockTakingID    uuid.UUID `json:"stock_taking_id"`
	TakingNumber     string    `json:"taking_number"`
	BranchID         uuid.UUID `json:"branch_id"`
	DiscrepancyCount int       `json:"discrepancy_count"`
}

// NewStockTakingCompletedEvent creates a new stock taking completed event
func NewStockTakingCompletedEvent(st *StockTaking) *StockTakingCompletedEvent {
	return &StockTakingCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockTakingCompleted, AggregateTypeStockTaking, st.ID),
		StockTakingID:    st.ID,
		TakingNumber:     st.TakingNumber,
		BranchID:         st.BranchID,
		DiscrepancyCount: len(st.DiscrepancyItems()),
	}
}

// EventType returns the event type name
func (e *StockTakingCompletedEvent) EventType() string {
	return EventTypeStockTakingCompleted
}

// StockTakingCancelledEvent is raised when a count is abandoned
type StockTakingCancelledEvent struct {
	shared.BaseDomainEvent
	StockTakingID uuid.UUID `json:"stock_taking_id"`
	TakingNumber  string    `json:"taking_number"`
	Reason        string    `json:"reason"`
}

// NewStockTakingCancelledEvent creates a new stock taking cancelled event
func NewStockTakingCancelledEvent(st *StockTaking) *StockTakingCancelledEvent {
	return &StockTakingCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockTakingCancelled, AggregateTypeStockTaking, st.ID),
		StockTakingID:   st.ID,
		TakingNumber:    st.TakingNumber,
		Reason:          st.Note,
	}
}

// EventType returns the event type name
func (e *StockTakingCancelledEvent) EventType() string {
	return EventTypeStockTakingCancelled
}
