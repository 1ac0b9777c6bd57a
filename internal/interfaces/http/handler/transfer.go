package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apptransfer "github.com/shirin/backend/internal/application/transfer"
)

// TransferHandler handles branch-to-branch transfer API endpoints
type TransferHandler struct {
	BaseHandler
	transferService *apptransfer.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService *apptransfer.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
	}
}

// CancelTransferRequest carries the reason for cancelling a transfer
type CancelTransferRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CreateTransfer creates a draft transfer between two branches
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	var req apptransfer.CreateTransferRequest
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

	result, err := h.transferService.CreateTransfer(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// Send debits the sending branch and puts the transfer in transit
func (h *TransferHandler) Send(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	result, err := h.transferService.Send(c.Request.Context(), transferID, getOperatorID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Receive credits the receiving branch with the arrived quantities
func (h *TransferHandler) Receive(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	var req apptransfer.ReceiveTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ReceivedBy = userID

	result, err := h.transferService.Receive(c.Request.Context(), transferID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel cancels a transfer. In-transit transfers return stock to the
// sending branch.
func (h *TransferHandler) Cancel(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	var req CancelTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.transferService.Cancel(c.Request.Context(), transferID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetTransfer retrieves a transfer by ID
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	result, err := h.transferService.GetTransfer(c.Request.Context(), transferID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListTransfers retrieves a paginated list of transfers
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	filter, err := bindListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if branchID := c.Query("from_branch_id"); branchID != "" {
		id, err := uuid.Parse(branchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID format")
			return
		}
		filter.Filters["from_branch_id"] = id
	}
	if branchID := c.Query("to_branch_id"); branchID != "" {
		id, err := uuid.Parse(branchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID format")
			return
		}
		filter.Filters["to_branch_id"] = id
	}
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}

	items, total, err := h.transferService.ListTransfers(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}
