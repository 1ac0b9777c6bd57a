package production

import (
	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeProductionBatch = "ProductionBatch"

	EventTypeBatchPlanned   = "production.batch.planned"
	EventTypeBatchStarted   = "production.batch.started"
	EventTypeBatchCompleted = "production.batch.completed"
	EventTypeBatchCancelled = "production.batch.cancelled"
)

// BatchPlannedEvent is raised when a batch is planned
type BatchPlannedEvent struct {
	shared.BaseDomainEvent
	BatchID         uuid.UUID       `json:"batch_id"`
	BatchNumber     string          `json:"batch_number"`
	BranchID        uuid.UUID       `json:"branch_id"`
	RecipeID        uuid.UUID       `json:"recipe_id"`
	PlannedQuantity decimal.Decimal `json:"planned_quantity"`
}

// NewBatchPlannedEvent creates a new batch planned event
func NewBatchPlannedEvent(b *ProductionBatch) *BatchPlannedEvent {
	return &BatchPlannedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchPlanned, AggregateTypeProductionBatch, b.ID),
		BatchID:         b.ID,
		BatchNumber:     b.BatchNumber,
		BranchID:        b.BranchID,
		RecipeID:        b.RecipeID,
		PlannedQuantity: b.PlannedQuantity,
	}
}

// EventType returns the event type name
func (e *BatchPlannedEvent) EventType() string {
	return EventTypeBatchPlanned
}

// BatchStartedEvent is raised when ingredient consumption is fixed and
// the batch begins
type BatchStartedEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
	BranchID    uuid.UUID `json:"branch_id"`
}

// NewBatchStartedEvent creates a new batch started event
func NewBatchStartedEvent(b *ProductionBatch) *BatchStartedEvent {
	return &BatchStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchStarted, AggregateTypeProductionBatch, b.ID),
		BatchID:         b.ID,
		BatchNumber:     b.BatchNumber,
		BranchID:        b.BranchID,
	}
}

// EventType returns the event type name
func (e *BatchStartedEvent) EventType() string {
	return EventTypeBatchStarted
}

// BatchCompletedEvent is raised when a batch completes with its computed
// unit cost pair
type BatchCompletedEvent struct {
	shared.BaseDomainEvent
	BatchID        uuid.UUID       `json:"batch_id"`
	BatchNumber    string          `json:"batch_number"`
	BranchID       uuid.UUID       `json:"branch_id"`
	RecipeID       uuid.UUID       `json:"recipe_id"`
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
	UnitCostUSD    decimal.Decimal `json:"unit_cost_usd"`
	UnitCostTJS    decimal.Decimal `json:"unit_cost_tjs"`
}

// NewBatchCompletedEvent creates a new batch completed event
func NewBatchCompletedEvent(b *ProductionBatch) *BatchCompletedEvent {
	return &BatchCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchCompleted, AggregateTypeProductionBatch, b.ID),
		BatchID:         b.ID,
		BatchNumber:     b.BatchNumber,
		BranchID:        b.BranchID,
		RecipeID:        b.RecipeID,
		ActualQuantity:  b.ActualQuantity,
		UnitCostUSD:     b.UnitCostUSD,
		UnitCostTJS:     b.UnitCostTJS,
	}
}

// EventType returns the event type name
func (e *BatchCompletedEvent) EventType() string {
	return EventTypeBatchCompleted
}

// BatchCancelledEvent is raised when a planned batch is abandoned
type BatchCancelledEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
	Reason      string    `json:"reason"`
}

// NewBatchCancelledEvent creates a new batch cancelled event
func NewBatchCancelledEvent(b *ProductionBatch) *BatchCancelledEvent {
	return &BatchCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchCancelled, AggregateTypeProductionBatch, b.ID),
		BatchID:         b.ID,
		BatchNumber:     b.BatchNumber,
		Reason:          b.Note,
	}
}

// EventType returns the event type name
func (e *BatchCancelledEvent) EventType() string {
	return EventTypeBatchCancelled
}
