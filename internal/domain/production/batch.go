package production

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/catalog"
	"github.com/shirin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BatchStatus represents the lifecycle state of a production batch
type BatchStatus string

const (
	BatchStatusPlanned    BatchStatus = "PLANNED"
	BatchStatusInProgress BatchStatus = "IN_PROGRESS"
	BatchStatusCompleted  BatchStatus = "COMPLETED"
	BatchStatusCancelled  BatchStatus = "CANCELLED"
)

// IsValid checks if the status is a valid BatchStatus
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPlanned, BatchStatusInProgress, BatchStatusCompleted, BatchStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of BatchStatus
func (s BatchStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Only a batch that has not started consuming ingredients can be cancelled.
func (s BatchStatus) CanTransitionTo(target BatchStatus) bool {
	switch s {
	case BatchStatusPlanned:
		return target == BatchStatusInProgress || target == BatchStatusCancelled
	case BatchStatusInProgress:
		return target == BatchStatusCompleted
	case BatchStatusCompleted, BatchStatusCancelled:
		return false
	}
	return false
}

// IngredientConsumption is one ingredient line of a batch. The planned
// quantity is frozen from the recipe version at creation; the actual
// quantity is fixed when the batch starts and is what the ledger debits.
type IngredientConsumption struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BatchID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID    uuid.UUID       `gorm:"type:uuid;not null"`
	Name            string          `gorm:"type:varchar(120);not null"`
	Unit            string          `gorm:"type:varchar(20);not null"`
	PlannedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ActualQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCostUSD     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (IngredientConsumption) TableName() string {
	return "batch_ingredient_consumptions"
}

// ActualCostUSD returns the USD cost of the actually consumed quantity
func (c *IngredientConsumption) ActualCostUSD() decimal.Decimal {
	return c.ActualQuantity.Mul(c.UnitCostUSD)
}

// ProductionBatch is the aggregate root of the production workflow. It
// freezes the recipe version it was planned against, owns its scaled
// ingredient lines, and carries the unit cost pair computed at
// completion.
type ProductionBatch struct {
	shared.BaseAggregateRoot
	BatchNumber     string      `gorm:"type:varchar(40);not null;uniqueIndex"`
	BranchID        uuid.UUID   `gorm:"type:uuid;not null;index"`
	RecipeID        uuid.UUID   `gorm:"type:uuid;not null;index"`
	RecipeVersionID uuid.UUID   `gorm:"type:uuid;not null"`
	Status          BatchStatus `gorm:"type:varchar(20);not null;index"`
	// PlannedQuantity is the intended output volume
	PlannedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	// ActualQuantity is the real output, recorded at completion
	ActualQuantity decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	OutputUnit     string                  `gorm:"type:varchar(20);not null"`
	UnitCostUSD    decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCostTJS    decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	ExchangeRate   decimal.Decimal         `gorm:"type:decimal(18,6);not null;default:0"`
	Consumptions   []IngredientConsumption `gorm:"foreignKey:BatchID"`
	StartedAt      *time.Time              `gorm:"type:timestamptz"`
	CompletedAt    *time.Time              `gorm:"type:timestamptz"`
	CancelledAt    *time.Time              `gorm:"type:timestamptz"`
	CreatedBy      uuid.UUID               `gorm:"type:uuid;not null"`
	Note           string                  `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (ProductionBatch) TableName() string {
	return "production_batches"
}

// NewProductionBatch plans a batch against a frozen recipe version.
// Ingredient lines are scaled by plannedQuantity / recipe output volume.
func NewProductionBatch(
	branchID uuid.UUID,
	recipe *catalog.RecipeVersion,
	plannedQuantity decimal.Decimal,
	batchNumber string,
	createdBy uuid.UUID,
) (*ProductionBatch, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("branch ID cannot be empty")
	}
	if recipe == nil {
		return nil, shared.NewValidationError("recipe version is required")
	}
	if recipe.OutputVolume.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("recipe output volume must be positive")
	}
	if len(recipe.Ingredients) == 0 {
		return nil, shared.NewValidationError("recipe version has no ingredients")
	}
	if plannedQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("planned quantity must be positive")
	}
	if batchNumber == "" {
		return nil, shared.NewValidationError("batch number cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewValidationError("creator ID cannot be empty")
	}

	batch := &ProductionBatch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BatchNumber:       batchNumber,
		BranchID:          branchID,
		RecipeID:          recipe.RecipeID,
		RecipeVersionID:   recipe.ID,
		Status:            BatchStatusPlanned,
		PlannedQuantity:   plannedQuantity,
		OutputUnit:        recipe.OutputUnit,
		Consumptions:      make([]IngredientConsumption, 0, len(recipe.Ingredients)),
		CreatedBy:         createdBy,
	}

	scale := plannedQuantity.Div(recipe.OutputVolume)
	now := time.Now()
	for _, ing := range recipe.Ingredients {
		batch.Consumptions = append(batch.Consumptions, IngredientConsumption{
			ID:              uuid.New(),
			BatchID:         batch.ID,
			IngredientID:    ing.IngredientID,
			Name:            ing.Name,
			Unit:            ing.Unit,
			PlannedQuantity: ing.Quantity.Mul(scale).Round(4),
			UnitCostUSD:     ing.UnitCostUSD,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	batch.AddDomainEvent(NewBatchPlannedEvent(batch))

	return batch, nil
}

// Start moves the batch to IN_PROGRESS and fixes the actual ingredient
// quantities. A zero (or absent) override means the planned quantity is
// consumed as-is.
func (b *ProductionBatch) Start(actualOverrides map[uuid.UUID]decimal.Decimal) error {
	if !b.Status.CanTransitionTo(BatchStatusInProgress) {
		return shared.NewInvalidStateTransitionError("production batch", b.Status.String(), BatchStatusInProgress.String())
	}

	for i := range b.Consumptions {
		actual := b.Consumptions[i].PlannedQuantity
		if override, ok := actualOverrides[b.Consumptions[i].IngredientID]; ok && !override.IsZero() {
			if override.IsNegative() {
				return shared.NewValidationError(
					fmt.Sprintf("actual quantity for ingredient %s cannot be negative", b.Consumptions[i].Name))
			}
			actual = override
		}
		b.Consumptions[i].ActualQuantity = actual
		b.Consumptions[i].UpdatedAt = time.Now()
	}

	now := time.Now()
	b.Status = BatchStatusInProgress
	b.StartedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBatchStartedEvent(b))

	return nil
}

// Complete moves the batch to COMPLETED and computes the unit cost pair:
// unitCostUSD = sum of actual ingredient costs / actual output, and the
// TJS side via the exchange rate at completion time.
func (b *ProductionBatch) Complete(actualQuantity, exchangeRate decimal.Decimal) error {
	if !b.Status.CanTransitionTo(BatchStatusCompleted) {
		return shared.NewInvalidStateTransitionError("production batch", b.Status.String(), BatchStatusCompleted.String())
	}
	if actualQuantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("actual output quantity must be positive")
	}
	if exchangeRate.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("exchange rate must be positive")
	}

	totalUSD := decimal.Zero
	for i := range b.Consumptions {
		totalUSD = totalUSD.Add(b.Consumptions[i].ActualCostUSD())
	}

	now := time.Now()
	b.ActualQuantity = actualQuantity
	b.UnitCostUSD = totalUSD.Div(actualQuantity).Round(4)
	b.UnitCostTJS = b.UnitCostUSD.Mul(exchangeRate).Round(4)
	b.ExchangeRate = exchangeRate
	b.Status = BatchStatusCompleted
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBatchCompletedEvent(b))

	return nil
}

// Cancel abandons a batch that has not started. Once ingredients are
// consumed the batch can only run to completion.
func (b *ProductionBatch) Cancel(reason string) error {
	if !b.Status.CanTransitionTo(BatchStatusCancelled) {
		return shared.NewInvalidStateTransitionError("production batch", b.Status.String(), BatchStatusCancelled.String())
	}

	now := time.Now()
	b.Status = BatchStatusCancelled
	b.CancelledAt = &now
	b.Note = reason
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBatchCancelledEvent(b))

	return nil
}

// TotalIngredientCostUSD returns the USD cost of all actually consumed
// ingredients
func (b *ProductionBatch) TotalIngredientCostUSD() decimal.Decimal {
	total := decimal.Zero
	for i := range b.Consumptions {
		total = total.Add(b.Consumptions[i].ActualCostUSD())
	}
	return total
}

// YieldRatio returns actual output over planned output, zero before
// completion
func (b *ProductionBatch) YieldRatio() decimal.Decimal {
	if b.ActualQuantity.IsZero() || b.PlannedQuantity.IsZero() {
		return decimal.Zero
	}
	return b.ActualQuantity.Div(b.PlannedQuantity).Round(4)
}
