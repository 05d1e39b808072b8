package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmapos_backend/internal/services"
)

// ReconciliationHandler exposes physical-count session endpoints.
type ReconciliationHandler struct {
	reconciliationService *services.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationService *services.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

type startReconciliationRequest struct {
	StoreID int64  `json:"store_id" binding:"required"`
	Notes   string `json:"notes,omitempty"`
}

// StartReconciliation opens a count session for a store.
func (h *ReconciliationHandler) StartReconciliation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req startReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rec, err := h.reconciliationService.Start(req.StoreID, userID, req.Notes)
	if err != nil {
		respondServiceError(c, err, "StartReconciliation: failed to start session")
		return
	}
	c.JSON(http.StatusCreated, rec)
}

type recordCountRequest struct {
	BatchID         int64 `json:"batch_id" binding:"required"`
	CountedQuantity *int  `json:"counted_quantity" binding:"required"`
}

// RecordCount stores one physical count against an open session.
func (h *ReconciliationHandler) RecordCount(c *gin.Context) {
	reconciliationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req recordCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.reconciliationService.RecordCount(reconciliationID, req.BatchID, *req.CountedQuantity)
	if err != nil {
		respondServiceError(c, err, "RecordCount: failed to record count")
		return
	}
	c.JSON(http.StatusCreated, item)
}

type completeReconciliationRequest struct {
	ApplyAdjustments bool `json:"apply_adjustments"`
}

// CompleteReconciliation closes a session, optionally adjusting stock to the
// counted values.
func (h *ReconciliationHandler) CompleteReconciliation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	reconciliationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req completeReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondBindError(c, err)
		return
	}

	summary, err := h.reconciliationService.Complete(reconciliationID, userID, req.ApplyAdjustments)
	if err != nil {
		respondServiceError(c, err, "CompleteReconciliation: failed to complete session")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetReconciliation returns one session with its items.
func (h *ReconciliationHandler) GetReconciliation(c *gin.Context) {
	reconciliationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	rec, items, err := h.reconciliationService.GetReconciliation(reconciliationID)
	if err != nil {
		respondServiceError(c, err, "GetReconciliation: failed to load session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reconciliation": rec, "items": items})
}
