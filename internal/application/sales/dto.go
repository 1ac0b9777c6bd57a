package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shirin/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SaleItemRequest is one product line of a sale being created or edited
type SaleItemRequest struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	ProductName  string          `json:"product_name" binding:"required"`
	Unit         string          `json:"unit" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	UnitPriceTJS decimal.Decimal `json:"unit_price_tjs" binding:"required"`
}

// CreateSaleRequest creates a draft sale with its initial item lines
type CreateSaleRequest struct {
	BranchID     uuid.UUID         `json:"branch_id" binding:"required"`
	CustomerID   *uuid.UUID        `json:"customer_id"`
	CustomerName string            `json:"customer_name"`
	SaleDate     time.Time         `json:"sale_date"`
	Items        []SaleItemRequest `json:"items"`
	Note         string            `json:"note"`
	CreatedBy    uuid.UUID         `json:"-"`
}

// AddPaymentRequest records money received against a sale
type AddPaymentRequest struct {
	AmountTJS  decimal.Decimal `json:"amount_tjs" binding:"required"`
	Method     string          `json:"method" binding:"required"`
	Note       string          `json:"note"`
	ReceivedBy uuid.UUID       `json:"-"`
}

// ReturnItemRequest is one product line of a sale return
type ReturnItemRequest struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	ReturnToStock bool            `json:"return_to_stock"`
}

// CreateReturnRequest records products coming back against a shipped sale
type CreateReturnRequest struct {
	Items     []ReturnItemRequest `json:"items" binding:"required,min=1"`
	Reason    string              `json:"reason"`
	CreatedBy uuid.UUID           `json:"-"`
}

// SaleItemResponse represents a sale item in API responses
type SaleItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPriceTJS decimal.Decimal `json:"unit_price_tjs"`
	TotalTJS     decimal.Decimal `json:"total_tjs"`
	COGSUnitUSD  decimal.Decimal `json:"cogs_unit_usd"`
	COGSUnitTJS  decimal.Decimal `json:"cogs_unit_tjs"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID         uuid.UUID       `json:"id"`
	AmountTJS  decimal.Decimal `json:"amount_tjs"`
	Method     string          `json:"method"`
	PaidAt     time.Time       `json:"paid_at"`
	ReceivedBy uuid.UUID       `json:"received_by"`
	Note       string          `json:"note,omitempty"`
}

// SaleResponse represents a sale in API responses. The payment status
// is derived from the outstanding debt at response time.
type SaleResponse struct {
	ID            uuid.UUID           `json:"id"`
	SaleNumber    string              `json:"sale_number"`
	BranchID      uuid.UUID           `json:"branch_id"`
	CustomerID    *uuid.UUID          `json:"customer_id,omitempty"`
	CustomerName  string              `json:"customer_name,omitempty"`
	Status        sales.SaleStatus    `json:"status"`
	SaleDate      time.Time           `json:"sale_date"`
	Items         []SaleItemResponse  `json:"items"`
	Payments      []PaymentResponse   `json:"payments"`
	TotalTJS      decimal.Decimal     `json:"total_tjs"`
	PaidTJS       decimal.Decimal     `json:"paid_tjs"`
	DebtTJS       decimal.Decimal     `json:"debt_tjs"`
	PaymentStatus sales.PaymentStatus `json:"payment_status"`
	ConfirmedAt   *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt     *time.Time          `json:"shipped_at,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	Note          string              `json:"note,omitempty"`
}

// ToSaleResponse maps a domain sale to its API shape
func ToSaleResponse(s *sales.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Unit:         item.Unit,
			Quantity:     item.Quantity,
			UnitPriceTJS: item.UnitPriceTJS,
			TotalTJS:     item.TotalTJS,
			COGSUnitUSD:  item.COGSUnitUSD,
			COGSUnitTJS:  item.COGSUnitTJS,
		}
	}
	payments := make([]PaymentResponse, len(s.Payments))
	for i, p := range s.Payments {
		payments[i] = PaymentResponse{
			ID:         p.ID,
			AmountTJS:  p.AmountTJS,
			Method:     p.Method,
			PaidAt:     p.PaidAt,
			ReceivedBy: p.ReceivedBy,
			Note:       p.Note,
		}
	}
	return SaleResponse{
		ID:            s.ID,
		SaleNumber:    s.SaleNumber,
		BranchID:      s.BranchID,
		CustomerID:    s.CustomerID,
		CustomerName:  s.CustomerName,
		Status:        s.Status,
		SaleDate:      s.SaleDate,
		Items:         items,
		Payments:      payments,
		TotalTJS:      s.TotalTJS,
		PaidTJS:       s.PaidAmount(),
		DebtTJS:       s.Debt(),
		PaymentStatus: s.PaymentState(),
		ConfirmedAt:   s.ConfirmedAt,
		ShippedAt:     s.ShippedAt,
		CancelledAt:   s.CancelledAt,
		CreatedAt:     s.CreatedAt,
		Note:          s.Note,
	}
}

// ToSaleResponses maps a slice of sales
func ToSaleResponses(items []sales.Sale) []SaleResponse {
	out := make([]SaleResponse, len(items))
	for i := range items {
		out[i] = ToSaleResponse(&items[i])
	}
	return out
}

// ReturnItemResponse represents a sale return item in API responses
type ReturnItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCostUSD   decimal.Decimal `json:"unit_cost_usd"`
	UnitCostTJS   decimal.Decimal `json:"unit_cost_tjs"`
	ReturnToStock bool            `json:"return_to_stock"`
}

// ReturnResponse represents a sale return in API responses
type ReturnResponse struct {
	ID           uuid.UUID            `json:"id"`
	ReturnNumber string               `json:"return_number"`
	SaleID       uuid.UUID            `json:"sale_id"`
	BranchID     uuid.UUID            `json:"branch_id"`
	Items        []ReturnItemResponse `json:"items"`
	Reason       string               `json:"reason,omitempty"`
	ReturnedAt   time.Time            `json:"returned_at"`
	CreatedBy    uuid.UUID            `json:"created_by"`
}

// ToReturnResponse maps a domain return to its API shape
func ToReturnResponse(r *sales.SaleReturn) ReturnResponse {
	items := make([]ReturnItemResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = ReturnItemResponse{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Unit:          item.Unit,
			Quantity:      item.Quantity,
			UnitCostUSD:   item.UnitCostUSD,
			UnitCostTJS:   item.UnitCostTJS,
			ReturnToStock: item.ReturnToStock,
		}
	}
	return ReturnResponse{
		ID:           r.ID,
		ReturnNumber: r.ReturnNumber,
		SaleID:       r.SaleID,
		BranchID:     r.BranchID,
		Items:        items,
		Reason:       r.Reason,
		ReturnedAt:   r.ReturnedAt,
		CreatedBy:    r.CreatedBy,
	}
}

// ToReturnResponses maps a slice of returns
func ToReturnResponses(items []sales.SaleReturn) []ReturnResponse {
	out := make([]ReturnResponse, len(items))
	for i := range items {
		out[i] = ToReturnResponse(&items[i])
	}
	return out
}
