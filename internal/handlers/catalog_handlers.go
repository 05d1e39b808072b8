package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmapos_backend/internal/models"
	"pharmapos_backend/internal/services"
)

// CatalogHandler exposes product and store reference-data endpoints.
type CatalogHandler struct {
	catalogService *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// CreateProduct adds a catalog entry.
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.catalogService.CreateProduct(&product); err != nil {
		respondServiceError(c, err, "CreateProduct: failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProduct returns one product.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(productID)
	if err != nil {
		respondServiceError(c, err, "GetProduct: failed to load product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListProducts lists products; ?active=true filters to the active catalog.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	products, err := h.catalogService.ListProducts(activeOnly)
	if err != nil {
		respondServiceError(c, err, "ListProducts: failed to list products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// DeactivateProduct hides a product from the active catalog.
func (h *CatalogHandler) DeactivateProduct(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeactivateProduct(productID); err != nil {
		respondServiceError(c, err, "DeactivateProduct: failed to deactivate product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": productID, "is_active": false})
}

// CreateStore adds a store.
func (h *CatalogHandler) CreateStore(c *gin.Context) {
	var store models.Store
	if err := c.ShouldBindJSON(&store); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.catalogService.CreateStore(&store); err != nil {
		respondServiceError(c, err, "CreateStore: failed to create store")
		return
	}
	c.JSON(http.StatusCreated, store)
}

// GetStore returns one store.
func (h *CatalogHandler) GetStore(c *gin.Context) {
	storeID, ok := idParam(c, "id")
	if !ok {
		return
	}

	store, err := h.catalogService.GetStore(storeID)
	if err != nil {
		respondServiceError(c, err, "GetStore: failed to load store")
		return
	}
	c.JSON(http.StatusOK, store)
}

// ListStores lists all stores.
func (h *CatalogHandler) ListStores(c *gin.Context) {
	stores, err := h.catalogService.ListStores()
	if err != nil {
		respondServiceError(c, err, "ListStores: failed to list stores")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}
