package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appproduction "github.com/shirin/backend/internal/application/production"
)

// ProductionHandler handles production batch API endpoints
type ProductionHandler struct {
	BaseHandler
	productionService *appproduction.ProductionService
}

// NewProductionHandler creates a new ProductionHandler
func NewProductionHandler(productionService *appproduction.ProductionService) *ProductionHandler {
	return &ProductionHandler{
		productionService: productionService,
	}
}

// CancelBatchRequest carries the reason for cancelling a batch
type CancelBatchRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CreateBatch plans a new batch against the active recipe version
func (h *ProductionHandler) CreateBatch(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req appproduction.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.CreatedBy = userID

	result, err := h.productionService.CreateBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// StartBatch fixes actual ingredient consumption and debits stock
func (h *ProductionHandler) StartBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req appproduction.StartBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.OperatorID = getOperatorID(c)

	result, err := h.productionService.StartBatch(c.Request.Context(), batchID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// CompleteBatch records the real output volume and creates the product lot
func (h *ProductionHandler) CompleteBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req appproduction.CompleteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.OperatorID = getOperatorID(c)

	result, err := h.productionService.CompleteBatch(c.Request.Context(), batchID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// CancelBatch cancels a batch, returning consumed ingredients to stock
// when the batch was already started
func (h *ProductionHandler) CancelBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req CancelBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.productionService.CancelBatch(c.Request.Context(), batchID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetBatch retrieves a production batch by ID
func (h *ProductionHandler) GetBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	result, err := h.productionService.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListBatches retrieves a paginated list of production batches
func (h *ProductionHandler) ListBatches(c *gin.Context) {
	filter, err := bindListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// Optional filters passed through to the repository
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

	items, total, err := h.productionService.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}
