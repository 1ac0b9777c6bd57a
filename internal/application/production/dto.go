package production

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/production"
	"github.com/shopspring/decimal"
)

// CreateBatchRequest plans a batch against the active recipe version
type CreateBatchRequest struct {
	BranchID        uuid.UUID       `json:"branch_id" binding:"required"`
	RecipeID        uuid.UUID       `json:"recipe_id" binding:"required"`
	PlannedQuantity decimal.Decimal `json:"planned_quantity" binding:"required"`
	Note            string          `json:"note"`
	CreatedBy       uuid.UUID       `json:"-"`
}

// ActualConsumption overrides one ingredient's consumed quantity when a
// batch starts
type ActualConsumption struct {
	IngredientID uuid.UUID       `json:"ingredient_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
}

// StartBatchRequest fixes the actual ingredient quantities and debits
// them from stock
type StartBatchRequest struct {
	ActualConsumptions []ActualConsumption `json:"actual_consumptions"`
	OperatorID         *uuid.UUID          `json:"-"`
}

// CompleteBatchRequest records the real output volume
type CompleteBatchRequest struct {
	ActualQuantity decimal.Decimal `json:"actual_quantity" binding:"required"`
	OperatorID     *uuid.UUID      `json:"-"`
}

// ConsumptionResponse represents one ingredient line of a batch
type ConsumptionResponse struct {
	IngredientID    uuid.UUID       `json:"ingredient_id"`
	Name            string          `json:"name"`
	Unit            string          `json:"unit"`
	PlannedQuantity decimal.Decimal `json:"planned_quantity"`
	ActualQuantity  decimal.Decimal `json:"actual_quantity"`
	UnitCostUSD     decimal.Decimal `json:"unit_cost_usd"`
	ActualCostUSD   decimal.Decimal `json:"actual_cost_usd"`
}

// BatchResponse represents a production batch in API responses
type BatchResponse struct {
	ID              uuid.UUID              `json:"id"`
	BatchNumber     string                 `json:"batch_number"`
	BranchID        uuid.UUID              `json:"branch_id"`
	RecipeID        uuid.UUID              `json:"recipe_id"`
	RecipeVersionID uuid.UUID              `json:"recipe_version_id"`
	Status          production.BatchStatus `json:"status"`
	PlannedQuantity decimal.Decimal        `json:"planned_quantity"`
	ActualQuantity  decimal.Decimal        `json:"actual_quantity"`
	OutputUnit      string                 `json:"output_unit"`
	UnitCostUSD     decimal.Decimal        `json:"unit_cost_usd"`
	UnitCostTJS     decimal.Decimal        `json:"unit_cost_tjs"`
	ExchangeRate    decimal.Decimal        `json:"exchange_rate"`
	YieldRatio      decimal.Decimal        `json:"yield_ratio"`
	Consumptions    []ConsumptionResponse  `json:"consumptions"`
	StartedAt       *time.Time             `json:"started_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	Note            string                 `json:"note,omitempty"`
}

// ToBatchResponse maps a domain batch to its API shape
func ToBatchResponse(b *production.ProductionBatch) BatchResponse {
	consumptions := make([]ConsumptionResponse, len(b.Consumptions))
	for i := range b.Consumptions {
		c := &b.Consumptions[i]
		consumptions[i] = ConsumptionResponse{
			IngredientID:    c.IngredientID,
			Name:            c.Name,
			Unit:            c.Unit,
			PlannedQuantity: c.PlannedQuantity,
			ActualQuantity:  c.ActualQuantity,
			UnitCostUSD:     c.UnitCostUSD,
			ActualCostUSD:   c.ActualCostUSD(),
		}
	}
	return BatchResponse{
		ID:              b.ID,
		BatchNumber:     b.BatchNumber,
		BranchID:        b.BranchID,
		RecipeID:        b.RecipeID,
		RecipeVersionID: b.RecipeVersionID,
		Status:          b.Status,
		PlannedQuantity: b.PlannedQuantity,
		ActualQuantity:  b.ActualQuantity,
		OutputUnit:      b.OutputUnit,
		UnitCostUSD:     b.UnitCostUSD,
		UnitCostTJS:     b.UnitCostTJS,
		ExchangeRate:    b.ExchangeRate,
		YieldRatio:      b.YieldRatio(),
		Consumptions:    consumptions,
		StartedAt:       b.StartedAt,
		CompletedAt:     b.CompletedAt,
		CancelledAt:     b.CancelledAt,
		CreatedAt:       b.CreatedAt,
		Note:            b.Note,
	}
}

// ToBatchResponses maps a slice of batches
func ToBatchResponses(batches []production.ProductionBatch) []BatchResponse {
	out := make([]BatchResponse, len(batches))
	for i := range batches {
		out[i] = ToBatchResponse(&batches[i])
	}
	return out
}
