package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// GoodsReceiptRequest represents an ingredient delivery from a supplier
type GoodsReceiptRequest struct {
	BranchID     uuid.UUID       `json:"branch_id" binding:"required"`
	IngredientID uuid.UUID       `json:"ingredient_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	Unit         string          `json:"unit" binding:"required"`
	UnitCostUSD  decimal.Decimal `json:"unit_cost_usd"`
	DocumentID   *uuid.UUID      `json:"document_id"`
	OperatorID   *uuid.UUID      `json:"operator_id"`
	Note         string          `json:"note"`
}

// WriteOffRequest represents spoilage, breakage or expiry leaving stock
type WriteOffRequest struct {
	BranchID   uuid.UUID       `json:"branch_id" binding:"required"`
	ItemID     uuid.UUID       `json:"item_id" binding:"required"`
	ItemKind   ledger.ItemKind `json:"item_kind" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Unit       string          `json:"unit" binding:"required"`
	Reason     string          `json:"reason" binding:"required,min=1,max=255"`
	OperatorID *uuid.UUID      `json:"operator_id"`
}

// AdjustStockRequest represents a manual correction to an actual quantity
type AdjustStockRequest struct {
	BranchID       uuid.UUID       `json:"branch_id" binding:"required"`
	ItemID         uuid.UUID       `json:"item_id" binding:"required"`
	ItemKind       ledger.ItemKind `json:"item_kind" binding:"required"`
	ActualQuantity decimal.Decimal `json:"actual_quantity" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	Reason         string          `json:"reason" binding:"required,min=1,max=255"`
	OperatorID     *uuid.UUID      `json:"operator_id"`
}

// SetMinQuantityRequest sets the low-stock threshold for one balance
type SetMinQuantityRequest struct {
	BranchID    uuid.UUID       `json:"branch_id" binding:"required"`
	ItemID      uuid.UUID       `json:"item_id" binding:"required"`
	ItemKind    ledger.ItemKind `json:"item_kind" binding:"required"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
}

// BalanceResponse represents a stock balance in API responses
type BalanceResponse struct {
	ID             uuid.UUID       `json:"id"`
	BranchID       uuid.UUID       `json:"branch_id"`
	ItemID         uuid.UUID       `json:"item_id"`
	ItemKind       ledger.ItemKind `json:"item_kind"`
	Quantity       decimal.Decimal `json:"quantity"`
	MinQuantity    decimal.Decimal `json:"min_quantity"`
	Unit           string          `json:"unit"`
	IsBelowMin     bool            `json:"is_below_min"`
	LastMovementAt *time.Time      `json:"last_movement_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToBalanceResponse maps a domain balance to its API shape
func ToBalanceResponse(b *ledger.StockBalance) BalanceResponse {
	return BalanceResponse{
		ID:             b.ID,
		BranchID:       b.BranchID,
		ItemID:         b.ItemID,
		ItemKind:       b.ItemKind,
		Quantity:       b.Quantity,
		MinQuantity:    b.MinQuantity,
		Unit:           b.Unit,
		IsBelowMin:     b.IsBelowMin(),
		LastMovementAt: b.LastMovementAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// ToBalanceResponses maps a slice of balances
func ToBalanceResponses(balances []ledger.StockBalance) []BalanceResponse {
	out := make([]BalanceResponse, len(balances))
	for i := range balances {
		out[i] = ToBalanceResponse(&balances[i])
	}
	return out
}

// MovementResponse represents a ledger movement in API responses
type MovementResponse struct {
	ID            uuid.UUID            `json:"id"`
	BranchID      uuid.UUID            `json:"branch_id"`
	ItemID        uuid.UUID            `json:"item_id"`
	ItemKind      ledger.ItemKind      `json:"item_kind"`
	MovementType  ledger.MovementType  `json:"movement_type"`
	Quantity      decimal.Decimal      `json:"quantity"`
	Unit          string               `json:"unit"`
	BalanceBefore decimal.Decimal      `json:"balance_before"`
	BalanceAfter  decimal.Decimal      `json:"balance_after"`
	UnitCostUSD   decimal.Decimal      `json:"unit_cost_usd"`
	UnitCostTJS   decimal.Decimal      `json:"unit_cost_tjs"`
	ReferenceType ledger.ReferenceType `json:"reference_type"`
	ReferenceID   uuid.UUID            `json:"reference_id"`
	LotID         *uuid.UUID           `json:"lot_id,omitempty"`
	Reason        string               `json:"reason,omitempty"`
	CreatedBy     *uuid.UUID           `json:"created_by,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// ToMovementResponse maps a domain movement to its API shape
func ToMovementResponse(m *ledger.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		BranchID:      m.BranchID,
		ItemID:        m.ItemID,
		ItemKind:      m.ItemKind,
		MovementType:  m.MovementType,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		UnitCostUSD:   m.UnitCostUSD,
		UnitCostTJS:   m.UnitCostTJS,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		LotID:         m.LotID,
		Reason:        m.Reason,
		CreatedBy:     m.CreatedBy,
		OccurredAt:    m.OccurredAt,
	}
}

// ToMovementResponses maps a slice of movements
func ToMovementResponses(movements []ledger.Movement) []MovementResponse {
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out
}

// MovementHistoryFilter represents filter options for the movement log
type MovementHistoryFilter struct {
	BranchID      *uuid.UUID `form:"branch_id"`
	ItemID        *uuid.UUID `form:"item_id"`
	ItemKind      *string    `form:"item_kind"`
	MovementType  *string    `form:"movement_type"`
	ReferenceType *string    `form:"reference_type"`
	ReferenceID   *uuid.UUID `form:"reference_id"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// LotResponse represents a product lot in API responses
type LotResponse struct {
	ID                uuid.UUID        `json:"id"`
	BranchID          uuid.UUID        `json:"branch_id"`
	ProductID         uuid.UUID        `json:"product_id"`
	ProductionBatchID *uuid.UUID       `json:"production_batch_id,omitempty"`
	Origin            ledger.LotOrigin `json:"origin"`
	ProducedAt        time.Time        `json:"produced_at"`
	QuantityInitial   decimal.Decimal  `json:"quantity_initial"`
	QuantityRemaining decimal.Decimal  `json:"quantity_remaining"`
	UnitCostUSD       decimal.Decimal  `json:"unit_cost_usd"`
	UnitCostTJS       decimal.Decimal  `json:"unit_cost_tjs"`
	ExchangeRate      decimal.Decimal  `json:"exchange_rate"`
	ValueUSD          decimal.Decimal  `json:"value_usd"`
	ValueTJS          decimal.Decimal  `json:"value_tjs"`
}

// ToLotResponse maps a domain lot to its API shape
func ToLotResponse(l *ledger.ProductLot) LotResponse {
	return LotResponse{
		ID:                l.ID,
		BranchID:          l.BranchID,
		ProductID:         l.ProductID,
		ProductionBatchID: l.ProductionBatchID,
		Origin:            l.Origin,
		ProducedAt:        l.ProducedAt,
		QuantityInitial:   l.QuantityInitial,
		QuantityRemaining: l.QuantityRemaining,
		UnitCostUSD:       l.UnitCostUSD,
		UnitCostTJS:       l.UnitCostTJS,
		ExchangeRate:      l.ExchangeRate,
		ValueUSD:          l.ValueUSD(),
		ValueTJS:          l.ValueTJS(),
	}
}

// ToLotResponses maps a slice of lots
func ToLotResponses(lots []ledger.ProductLot) []LotResponse {
	out := make([]LotResponse, len(lots))
	for i := range lots {
		out[i] = ToLotResponse(&lots[i])
	}
	return out
}

// ValuationResponse is the value of a product's stock at one branch,
// priced at lot cost
type ValuationResponse struct {
	BranchID  uuid.UUID       `json:"branch_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	ValueUSD  decimal.Decimal `json:"value_usd"`
	ValueTJS  decimal.Decimal `json:"value_tjs"`
	LotCount  int             `json:"lot_count"`
}
