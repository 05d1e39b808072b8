package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pharmapos_backend/internal/services"
	"pharmapos_backend/pkg/utils"
)

// SaleHandler exposes point-of-sale endpoints.
type SaleHandler struct {
	saleService *services.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(saleService *services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// CreateSale performs a complete sale.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.CreateSaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	sale, err := h.saleService.CreateSale(input, userID)
	if err != nil {
		respondServiceError(c, err, "CreateSale: failed to create sale")
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetSale returns one sale with its items.
func (h *SaleHandler) GetSale(c *gin.Context) {
	saleID, ok := idParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(saleID)
	if err != nil {
		respondServiceError(c, err, "GetSale: failed to load sale")
		return
	}
	c.JSON(http.StatusOK, sale)
}

// GetSalesByDate lists a store's sales for ?date (YYYY-MM-DD, default today).
func (h *SaleHandler) GetSalesByDate(c *gin.Context) {
	storeID, ok := idParam(c, "storeId")
	if !ok {
		return
	}

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest,
				"Invalid date, expected YYYY-MM-DD.", ""))
			return
		}
		date = parsed
	}

	sales, err := h.saleService.GetSalesByDate(storeID, date)
	if err != nil {
		respondServiceError(c, err, "GetSalesByDate: failed to list sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{"store_id": storeID, "date": date.Format("2006-01-02"), "sales": sales})
}
