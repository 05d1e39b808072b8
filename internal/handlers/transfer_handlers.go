package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmapos_backend/internal/services"
)

// TransferHandler exposes inter-store transfer endpoints.
type TransferHandler struct {
	transferService *services.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService *services.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// CreateTransfer moves stock between two stores.
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.TransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.transferService.Transfer(input, userID)
	if err != nil {
		respondServiceError(c, err, "CreateTransfer: failed to transfer stock")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetTransfersByReference returns all records of one transfer request.
func (h *TransferHandler) GetTransfersByReference(c *gin.Context) {
	reference := c.Param("reference")

	transfers, err := h.transferService.GetTransfersByReference(reference)
	if err != nil {
		respondServiceError(c, err, "GetTransfersByReference: failed to load transfers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference": reference, "transfers": transfers})
}

// GetTransfersByStore lists recent transfers touching a store.
func (h *TransferHandler) GetTransfersByStore(c *gin.Context) {
	storeID, ok := idParam(c, "storeId")
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 50)

	transfers, err := h.transferService.GetTransfersByStore(storeID, limit)
	if err != nil {
		respondServiceError(c, err, "GetTransfersByStore: failed to list transfers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"store_id": storeID, "transfers": transfers})
}
