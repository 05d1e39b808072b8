package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmapos_backend/internal/services"
)

// ExpiryHandler exposes the expiry sweep as an HTTP endpoint.
type ExpiryHandler struct {
	expiryService *services.ExpiryService
}

// NewExpiryHandler creates a new ExpiryHandler.
func NewExpiryHandler(expiryService *services.ExpiryService) *ExpiryHandler {
	return &ExpiryHandler{expiryService: expiryService}
}

type expireSweepRequest struct {
	StoreID *int64 `json:"store_id,omitempty"`
	Days    int    `json:"days"`
}

// RunSweep zeroes expiring stock for one store, or for every store when
// store_id is omitted.
func (h *ExpiryHandler) RunSweep(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req expireSweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.StoreID != nil {
		count, err := h.expiryService.ExpireWithinDays(*req.StoreID, req.Days, userID)
		if err != nil {
			respondServiceError(c, err, "RunSweep: failed to expire store stock")
			return
		}
		c.JSON(http.StatusOK, gin.H{"store_id": *req.StoreID, "days": req.Days, "batches_expired": count})
		return
	}

	counts, err := h.expiryService.ExpireAllStores(req.Days, userID)
	if err != nil {
		respondServiceError(c, err, "RunSweep: failed to expire stock across stores")
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": req.Days, "batches_expired_by_store": counts})
}
