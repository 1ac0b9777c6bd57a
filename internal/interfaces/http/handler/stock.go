package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appledger "github.com/shirin/backend/internal/application/ledger"
	"github.com/shirin/backend/internal/domain/ledger"
)

// StockHandler handles stock ledger API endpoints: receipts, write-offs,
// adjustments, balances, movements, lots and valuation.
type StockHandler struct {
	BaseHandler
	stockService *appledger.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *appledger.StockService) *StockHandler {
	return &StockHandler{
		stockService: stockService,
	}
}

// parseItemKind validates the item_kind query parameter
func parseItemKind(c *gin.Context) (ledger.ItemKind, bool) {
	kind := ledger.ItemKind(c.Query("item_kind"))
	if !kind.IsValid() {
		return "", false
	}
	return kind, true
}

// parseBranchID validates the branch_id query parameter
func parseBranchID(c *gin.Context) (uuid.UUID, bool) {
	branchID, err := uuid.Parse(c.Query("branch_id"))
	if err != nil {
		return uuid.Nil, false
	}
	return branchID, true
}

// ReceiveGoods records an ingredient delivery from a supplier
func (h *StockHandler) ReceiveGoods(c *gin.Context) {
	var req appledger.GoodsReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getOperatorID(c)
	}

	result, err := h.stockService.ReceiveGoods(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// WriteOff records spoilage, breakage or expiry leaving stock
func (h *StockHandler) WriteOff(c *gin.Context) {
	var req appledger.WriteOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if !req.ItemKind.IsValid() {
		h.BadRequest(c, "Invalid item kind")
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getOperatorID(c)
	}

	result, err := h.stockService.WriteOff(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// Adjust corrects a balance to a physically verified quantity
func (h *StockHandler) Adjust(c *gin.Context) {
	var req appledger.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if !req.ItemKind.IsValid() {
		h.BadRequest(c, "Invalid item kind")
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getOperatorID(c)
	}

	result, err := h.stockService.Adjust(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetBalance retrieves one stock balance by branch, item and kind
func (h *StockHandler) GetBalance(c *gin.Context) {
	branchID, ok := parseBranchID(c)
	if !ok {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	kind, ok := parseItemKind(c)
	if !ok {
		h.BadRequest(c, "Invalid item kind")
		return
	}

	result, err := h.stockService.GetBalance(c.Request.Context(), branchID, itemID, kind)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListBalances retrieves a paginated list of balances for one branch
func (h *StockHandler) ListBalances(c *gin.Context) {
	branchID, ok := parseBranchID(c)
	if !ok {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	kind, ok := parseItemKind(c)
	if !ok {
		h.BadRequest(c, "Invalid item kind")
		return
	}

	filter, err := bindListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, total, err := h.stockService.ListBalances(c.Request.Context(), branchID, kind, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListLowStock retrieves all balances at or below their minimum quantity
func (h *StockHandler) ListLowStock(c *gin.Context) {
	branchID, ok := parseBranchID(c)
	if !ok {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	items, err := h.stockService.ListLowStock(c.Request.Context(), branchID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// SetMinQuantity sets the low-stock threshold for one balance
func (h *StockHandler) SetMinQuantity(c *gin.Context) {
	var req appledger.SetMinQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if !req.ItemKind.IsValid() {
		h.BadRequest(c, "Invalid item kind")
		return
	}

	result, err := h.stockService.SetMinQuantity(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListMovements retrieves the movement log with optional filtering
func (h *StockHandler) ListMovements(c *gin.Context) {
	var filter appledger.MovementHistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	items, total, err := h.stockService.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListLots retrieves the open lots of a product at one branch, oldest first
func (h *StockHandler) ListLots(c *gin.Context) {
	branchID, ok := parseBranchID(c)
	if !ok {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	items, err := h.stockService.ListLots(c.Request.Context(), branchID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// Valuation prices a product's stock at one branch at lot cost
func (h *StockHandler) Valuation(c *gin.Context) {
	branchID, ok := parseBranchID(c)
	if !ok {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	result, err := h.stockService.Valuation(c.Request.Context(), branchID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// AuditBalance recomputes a balance from the movement log and reports
// whether it matches the materialized value
func (h *StockHandler) AuditBalance(c *gin.Context) {
	branchID, ok := parseBranchID(c)
	if !ok {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	kind, ok := parseItemKind(c)
	if !ok {
		h.BadRequest(c, "Invalid item kind")
		return
	}

	result, err := h.stockService.AuditBalance(c.Request.Context(), branchID, itemID, kind)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
