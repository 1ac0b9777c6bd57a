package stocktaking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/stocktaking"
	"github.com/shopspring/decimal"
)

// TakingItemRequest names one item to count
type TakingItemRequest struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	ItemKind ledger.ItemKind `json:"item_kind" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Unit     string          `json:"unit" binding:"required"`
}

// CreateTakingRequest creates a count for one branch. The expected
// quantity of every item is snapshotted from the live balance at
// creation time.
type CreateTakingRequest struct {
	BranchID  uuid.UUID           `json:"branch_id" binding:"required"`
	Items     []TakingItemRequest `json:"items" binding:"required,min=1"`
	Note      string              `json:"note"`
	CreatedBy uuid.UUID           `json:"-"`
}

// RecordCountRequest stores the physically counted quantity of one item
type RecordCountRequest struct {
	ItemID    uuid.UUID       `json:"item_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	CountedBy uuid.UUID       `json:"-"`
}

// TakingItemResponse represents a stock taking item in API responses
type TakingItemResponse struct {
	ID               uuid.UUID        `json:"id"`
	ItemID           uuid.UUID        `json:"item_id"`
	ItemKind         ledger.ItemKind  `json:"item_kind"`
	Name             string           `json:"name"`
	Unit             string           `json:"unit"`
	ExpectedQuantity decimal.Decimal  `json:"expected_quantity"`
	ActualQuantity   *decimal.Decimal `json:"actual_quantity,omitempty"`
	Discrepancy      decimal.Decimal  `json:"discrepancy"`
	CountedAt        *time.Time       `json:"counted_at,omitempty"`
}

// TakingResponse represents a stock taking in API responses
type TakingResponse struct {
	ID           uuid.UUID                     `json:"id"`
	TakingNumber string                        `json:"taking_number"`
	BranchID     uuid.UUID                     `json:"branch_id"`
	Status       stocktaking.StockTakingStatus `json:"status"`
	Items        []TakingItemResponse          `json:"items"`
	StartedAt    *time.Time                    `json:"started_at,omitempty"`
	CompletedAt  *time.Time                    `json:"completed_at,omitempty"`
	CancelledAt  *time.Time                    `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time                     `json:"created_at"`
	Note         string                        `json:"note,omitempty"`
}

// ToTakingResponse maps a domain stock taking to its API shape
func ToTakingResponse(st *stocktaking.StockTaking) TakingResponse {
	items := make([]TakingItemResponse, len(st.Items))
	for i, item := range st.Items {
		items[i] = TakingItemResponse{
			ID:               item.ID,
			ItemID:           item.ItemID,
			ItemKind:         item.ItemKind,
			Name:             item.Name,
			Unit:             item.Unit,
			ExpectedQuantity: item.ExpectedQuantity,
			ActualQuantity:   item.ActualQuantity,
			Discrepancy:      item.Discrepancy,
			CountedAt:        item.CountedAt,
		}
	}
	return TakingResponse{
		ID:           st.ID,
		TakingNumber: st.TakingNumber,
		BranchID:     st.BranchID,
		Status:       st.Status,
		Items:        items,
		StartedAt:    st.StartedAt,
		CompletedAt:  st.CompletedAt,
		CancelledAt:  st.CancelledAt,
		CreatedAt:    st.CreatedAt,
		Note:         st.Note,
	}
}

// ToTakingResponses maps a slice of stock takings
func ToTakingResponses(items []stocktaking.StockTaking) []TakingResponse {
	out := make([]TakingResponse, len(items))
	for i := range items {
		out[i] = ToTakingResponse(&items[i])
	}
	return out
}

// CompletionAdjustment reports one adjustment posted at completion.
// The delta is against the live balance at completion time, not the
// snapshot, so stock that moved during the count is not corrected away.
type CompletionAdjustment struct {
	ItemID       uuid.UUID       `json:"item_id"`
	ItemKind     ledger.ItemKind `json:"item_kind"`
	LiveQuantity decimal.Decimal `json:"live_quantity"`
	Counted      decimal.Decimal `json:"counted"`
	Delta        decimal.Decimal `json:"delta"`
	MovementID   uuid.UUID       `json:"movement_id"`
}

// CompleteTakingResponse is the result of completing a count
type CompleteTakingResponse struct {
	Taking      TakingResponse         `json:"taking"`
	Adjustments []CompletionAdjustment `json:"adjustments"`
}
