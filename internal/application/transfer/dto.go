package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/transfer"
	"github.com/shopspring/decimal"
)

// TransferItemRequest is one line of a transfer being created.
// UnitCostUSD declares the cost basis of an ingredient line; product
// lines ignore it, their basis comes from the FIFO walk at send time.
type TransferItemRequest struct {
	ItemID      uuid.UUID       `json:"item_id" binding:"required"`
	ItemKind    ledger.ItemKind `json:"item_kind" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Unit        string          `json:"unit" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitCostUSD decimal.Decimal `json:"unit_cost_usd"`
}

// CreateTransferRequest creates a transfer between two branches
type CreateTransferRequest struct {
	FromBranchID uuid.UUID             `json:"from_branch_id" binding:"required"`
	ToBranchID   uuid.UUID             `json:"to_branch_id" binding:"required"`
	Items        []TransferItemRequest `json:"items" binding:"required,min=1"`
	Note         string                `json:"note"`
	CreatedBy    uuid.UUID             `json:"-"`
}

// ReceiveItemRequest fixes the arrived quantity for one line. Lines
// absent from the receive request arrived in full.
type ReceiveItemRequest struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReceiveTransferRequest confirms arrival at the receiving branch
type ReceiveTransferRequest struct {
	Items      []ReceiveItemRequest `json:"items"`
	ReceivedBy uuid.UUID            `json:"-"`
}

// TransferItemResponse represents a transfer item in API responses
type TransferItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ItemID           uuid.UUID       `json:"item_id"`
	ItemKind         ledger.ItemKind `json:"item_kind"`
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	QuantitySent     decimal.Decimal `json:"quantity_sent"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	Discrepancy      decimal.Decimal `json:"discrepancy"`
	UnitCostUSD      decimal.Decimal `json:"unit_cost_usd"`
	UnitCostTJS      decimal.Decimal `json:"unit_cost_tjs"`
}

// TransferResponse represents a transfer in API responses
type TransferResponse struct {
	ID               uuid.UUID               `json:"id"`
	TransferNumber   string                  `json:"transfer_number"`
	FromBranchID     uuid.UUID               `json:"from_branch_id"`
	ToBranchID       uuid.UUID               `json:"to_branch_id"`
	Status           transfer.TransferStatus `json:"status"`
	Items            []TransferItemResponse  `json:"items"`
	TotalDiscrepancy decimal.Decimal         `json:"total_discrepancy"`
	SentAt           *time.Time              `json:"sent_at,omitempty"`
	ReceivedAt       *time.Time              `json:"received_at,omitempty"`
	CancelledAt      *time.Time              `json:"cancelled_at,omitempty"`
	CreatedBy        uuid.UUID               `json:"created_by"`
	ReceivedBy       *uuid.UUID              `json:"received_by,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	Note             string                  `json:"note,omitempty"`
}

// ToTransferResponse maps a domain transfer to its API shape
func ToTransferResponse(t *transfer.Transfer) TransferResponse {
	items := make([]TransferItemResponse, len(t.Items))
	for i, item := range t.Items {
		items[i] = TransferItemResponse{
			ID:               item.ID,
			ItemID:           item.ItemID,
			ItemKind:         item.ItemKind,
			Name:             item.Name,
			Unit:             item.Unit,
			QuantitySent:     item.QuantitySent,
			QuantityReceived: item.QuantityReceived,
			Discrepancy:      item.Discrepancy,
			UnitCostUSD:      item.UnitCostUSD,
			UnitCostTJS:      item.UnitCostTJS,
		}
	}
	return TransferResponse{
		ID:               t.ID,
		TransferNumber:   t.TransferNumber,
		FromBranchID:     t.FromBranchID,
		ToBranchID:       t.ToBranchID,
		Status:           t.Status,
		Items:            items,
		TotalDiscrepancy: t.TotalDiscrepancy(),
		SentAt:           t.SentAt,
		ReceivedAt:       t.ReceivedAt,
		CancelledAt:      t.CancelledAt,
		CreatedBy:        t.CreatedBy,
		ReceivedBy:       t.ReceivedBy,
		CreatedAt:        t.CreatedAt,
		Note:             t.Note,
	}
}

// ToTransferResponses maps a slice of transfers
func ToTransferResponses(items []transfer.Transfer) []TransferResponse {
	out := make([]TransferResponse, len(items))
	for i := range items {
		out[i] = ToTransferResponse(&items[i])
	}
	return out
}
