package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pharmapos_backend/internal/models"
	"pharmapos_backend/internal/services"
	"pharmapos_backend/pkg/utils"
)

// InventoryHandler exposes the batch ledger: receiving, adjustments,
// stock queries, allocation planning and the audit trail.
type InventoryHandler struct {
	ledgerService *services.LedgerService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(ledgerService *services.LedgerService) *InventoryHandler {
	return &InventoryHandler{ledgerService: ledgerService}
}

// ReceiveStock records an incoming delivery as a new batch.
func (h *InventoryHandler) ReceiveStock(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.ReceiveStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	batch, err := h.ledgerService.ReceiveStock(input, userID)
	if err != nil {
		respondServiceError(c, err, "ReceiveStock: failed to receive batch")
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// GetBatch returns one batch.
func (h *InventoryHandler) GetBatch(c *gin.Context) {
	batchID, ok := idParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.ledgerService.GetBatch(batchID)
	if err != nil {
		respondServiceError(c, err, "GetBatch: failed to load batch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// GetBatchHistory returns a batch's full audit chain, oldest first.
func (h *InventoryHandler) GetBatchHistory(c *gin.Context) {
	batchID, ok := idParam(c, "id")
	if !ok {
		return
	}

	history, err := h.ledgerService.GetBatchHistory(batchID)
	if err != nil {
		respondServiceError(c, err, "GetBatchHistory: failed to load history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch_id": batchID, "history": history})
}

type adjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AdjustStock applies an ad-hoc signed correction to one batch.
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	batch, err := h.ledgerService.AdjustStock(batchID, req.Delta, req.Reason, userID)
	if err != nil {
		respondServiceError(c, err, "AdjustStock: failed to adjust batch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

type writeOffRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// WriteOffBatch zeroes a batch's remaining quantity.
func (h *InventoryHandler) WriteOffBatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	batchID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req writeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	batch, err := h.ledgerService.WriteOffBatch(batchID, req.Reason, userID)
	if err != nil {
		respondServiceError(c, err, "WriteOffBatch: failed to write off batch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// GetStoreInventory lists a store's in-stock batches in FEFO order.
func (h *InventoryHandler) GetStoreInventory(c *gin.Context) {
	storeID, ok := idParam(c, "storeId")
	if !ok {
		return
	}

	batches, err := h.ledgerService.StoreInventory(storeID)
	if err != nil {
		respondServiceError(c, err, "GetStoreInventory: failed to list inventory")
		return
	}
	c.JSON(http.StatusOK, gin.H{"store_id": storeID, "batches": batches})
}

// GetExpiringBatches lists batches expiring within ?days (default 30).
func (h *InventoryHandler) GetExpiringBatches(c *gin.Context) {
	storeID, ok := idParam(c, "storeId")
	if !ok {
		return
	}
	days := queryInt(c, "days", 30)

	batches, err := h.ledgerService.ExpiringBatches(storeID, days)
	if err != nil {
		respondServiceError(c, err, "GetExpiringBatches: failed to list expiring batches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"store_id": storeID, "days": days, "batches": batches})
}

// GetLowStockBatches lists batches under ?threshold (default 10).
func (h *InventoryHandler) GetLowStockBatches(c *gin.Context) {
	storeID, ok := idParam(c, "storeId")
	if !ok {
		return
	}
	threshold := queryInt(c, "threshold", 10)

	batches, err := h.ledgerService.LowStockBatches(storeID, threshold)
	if err != nil {
		respondServiceError(c, err, "GetLowStockBatches: failed to list low stock")
		return
	}
	c.JSON(http.StatusOK, gin.H{"store_id": storeID, "threshold": threshold, "batches": batches})
}

// GetProductStock returns the summed on-hand quantity of one product at one
// store.
func (h *InventoryHandler) GetProductStock(c *gin.Context) {
	storeID, ok := idParam(c, "storeId")
	if !ok {
		return
	}
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}

	total, err := h.ledgerService.ProductStock(productID, storeID)
	if err != nil {
		respondServiceError(c, err, "GetProductStock: failed to sum stock")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": productID, "store_id": storeID, "quantity": total})
}

type planAllocationRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	StoreID   int64 `json:"store_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

// PlanAllocation returns an advisory FEFO plan without mutating stock.
func (h *InventoryHandler) PlanAllocation(c *gin.Context) {
	var req planAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	plan, err := h.ledgerService.PlanAllocation(req.ProductID, req.StoreID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "PlanAllocation: failed to plan allocation")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetAuditTrail lists audit entries with optional filters, newest first.
func (h *InventoryHandler) GetAuditTrail(c *gin.Context) {
	filters := models.AuditFilters{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 50),
	}

	if raw := c.Query("batch_id"); raw != "" {
		batchID, err := utils.StrToInt64(raw)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid batch_id filter.", ""))
			return
		}
		filters.BatchID = &batchID
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := utils.StrToInt64(raw)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid user_id filter.", ""))
			return
		}
		filters.UserID = &userID
	}
	filters.ChangeType = optionalQuery(c, "change_type")
	filters.StartDate = optionalQuery(c, "start_date")
	filters.EndDate = optionalQuery(c, "end_date")

	entries, total, err := h.ledgerService.GetAuditTrail(filters)
	if err != nil {
		respondServiceError(c, err, "GetAuditTrail: failed to list audit entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries":   entries,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// optionalQuery returns nil for an absent or empty query parameter.
func optionalQuery(c *gin.Context, name string) *string {
	value := c.Query(name)
	if value == "" {
		return nil
	}
	return &value
}
