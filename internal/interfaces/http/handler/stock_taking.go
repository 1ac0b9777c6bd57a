package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appstocktaking "github.com/shirin/backend/internal/application/stocktaking"
)

// StockTakingHandler handles stock taking API endpoints
type StockTakingHandler struct {
	BaseHandler
	stockTakingService *appstocktaking.StockTakingService
}

// NewStockTakingHandler creates a new StockTakingHandler
func NewStockTakingHandler(stockTakingService *appstocktaking.StockTakingService) *StockTakingHandler {
	return &StockTakingHandler{
		stockTakingService: stockTakingService,
	}
}

// CancelTakingRequest carries the reason for cancelling a stock taking
type CancelTakingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CreateTaking creates a count for one branch, snapshotting the expected
// quantity of every named item from the live balance
func (h *StockTakingHandler) CreateTaking(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req appstocktaking.CreateTakingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	for _, item := range req.Items {
		if !item.ItemKind.IsValid() {
			h.BadRequest(c, "Invalid item kind")
			return
		}
	}
	req.CreatedBy = userID

	result, err := h.stockTakingService.CreateTaking(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// StartTaking transitions a stock taking to counting
func (h *StockTakingHandler) StartTaking(c *gin.Context) {
	takingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock taking ID format")
		return
	}

	result, err := h.stockTakingService.StartTaking(c.Request.Context(), takingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// RecordCount stores the physically counted quantity of one item
func (h *StockTakingHandler) RecordCount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	takingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock taking ID format")
		return
	}

	var req appstocktaking.RecordCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.CountedBy = userID

	result, err := h.stockTakingService.RecordCount(c.Request.Context(), takingID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// CompleteTaking completes the count and posts adjustments for every
// discrepancy against the live balance
func (h *StockTakingHandler) CompleteTaking(c *gin.Context) {
	takingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock taking ID format")
		return
	}

	result, err := h.stockTakingService.CompleteTaking(c.Request.Context(), takingID, getOperatorID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// CancelTaking cancels a stock taking without posting any adjustments
func (h *StockTakingHandler) CancelTaking(c *gin.Context) {
	takingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock taking ID format")
		return
	}

	var req CancelTakingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.stockTakingService.CancelTaking(c.Request.Context(), takingID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetTaking retrieves a stock taking by ID with all items
func (h *StockTakingHandler) GetTaking(c *gin.Context) {
	takingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock taking ID format")
		return
	}

	result, err := h.stockTakingService.GetTaking(c.Request.Context(), takingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListTakings retrieves a paginated list of stock takings
func (h *StockTakingHandler) ListTakings(c *gin.Context) {
	filter, err := bindListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if branchID := c.Query("branch_id"); branchID != "" {
		id, err := uuid.Parse(branchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID format")
			return
		}
		filter.Filters["branch_id"] = id
	}
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}

	items, total, err := h.stockTakingService.ListTakings(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}
