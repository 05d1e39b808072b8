package router

import (
	"github.com/gin-gonic/gin"

	"pharmapos_backend/internal/handlers"
	"pharmapos_backend/internal/middleware"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, jwtSecret string) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)

		authRequired := authRoutes.Group("")
		authRequired.Use(middleware.AuthMiddleware(jwtSecret))
		{
			authRequired.GET("/me", authHandler.GetCurrentUser)
		}
	}
}

// SetupCatalogRoutes sets up product and store routes. Catalog writes are
// restricted to managers and admins.
func SetupCatalogRoutes(group *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	productRoutes := group.Group("/products")
	{
		productRoutes.GET("", catalogHandler.ListProducts)
		productRoutes.GET("/:id", catalogHandler.GetProduct)

		productWrites := productRoutes.Group("")
		productWrites.Use(middleware.RoleAuthMiddleware("admin", "manager"))
		{
			productWrites.POST("", catalogHandler.CreateProduct)
			productWrites.DELETE("/:id", catalogHandler.DeactivateProduct)
		}
	}

	storeRoutes := group.Group("/stores")
	{
		storeRoutes.GET("", catalogHandler.ListStores)
		storeRoutes.GET("/:id", catalogHandler.GetStore)
		storeRoutes.POST("", middleware.RoleAuthMiddleware("admin"), catalogHandler.CreateStore)
	}
}

// SetupInventoryRoutes sets up the batch ledger routes.
func SetupInventoryRoutes(group *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := group.Group("/inventory")
	{
		inventoryRoutes.POST("/receive", middleware.RoleAuthMiddleware("admin", "manager"), inventoryHandler.ReceiveStock)
		inventoryRoutes.POST("/allocation-plan", inventoryHandler.PlanAllocation)

		inventoryRoutes.GET("/batches/:id", inventoryHandler.GetBatch)
		inventoryRoutes.GET("/batches/:id/history", inventoryHandler.GetBatchHistory)
		inventoryRoutes.POST("/batches/:id/adjust", middleware.RoleAuthMiddleware("admin", "manager"), inventoryHandler.AdjustStock)
		inventoryRoutes.POST("/batches/:id/write-off", middleware.RoleAuthMiddleware("admin", "manager"), inventoryHandler.WriteOffBatch)

		inventoryRoutes.GET("/stores/:storeId", inventoryHandler.GetStoreInventory)
		inventoryRoutes.GET("/stores/:storeId/expiring", inventoryHandler.GetExpiringBatches)
		inventoryRoutes.GET("/stores/:storeId/low-stock", inventoryHandler.GetLowStockBatches)
		inventoryRoutes.GET("/stores/:storeId/products/:productId/stock", inventoryHandler.GetProductStock)

		inventoryRoutes.GET("/audit", inventoryHandler.GetAuditTrail)
	}
}

// SetupSaleRoutes sets up the point-of-sale routes.
func SetupSaleRoutes(group *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := group.Group("/sales")
	{
		saleRoutes.POST("", saleHandler.CreateSale)
		saleRoutes.GET("/:id", saleHandler.GetSale)
		saleRoutes.GET("/stores/:storeId", saleHandler.GetSalesByDate)
	}
}

// SetupTransferRoutes sets up the inter-store transfer routes.
func SetupTransferRoutes(group *gin.RouterGroup, transferHandler *handlers.TransferHandler) {
	transferRoutes := group.Group("/transfers")
	transferRoutes.Use(middleware.RoleAuthMiddleware("admin", "manager"))
	{
		transferRoutes.POST("", transferHandler.CreateTransfer)
		transferRoutes.GET("/:reference", transferHandler.GetTransfersByReference)
		transferRoutes.GET("/stores/:storeId", transferHandler.GetTransfersByStore)
	}
}

// SetupReservationRoutes sets up the stock reservation routes.
func SetupReservationRoutes(group *gin.RouterGroup, reservationHandler *handlers.ReservationHandler) {
	reservationRoutes := group.Group("/reservations")
	{
		reservationRoutes.POST("", reservationHandler.CreateReservation)
		reservationRoutes.GET("/:id", reservationHandler.GetReservation)
		reservationRoutes.POST("/:id/release", reservationHandler.ReleaseReservation)
		reservationRoutes.POST("/:id/confirm", reservationHandler.ConfirmReservation)
		reservationRoutes.GET("/batches/:batchId", reservationHandler.GetActiveReservationsByBatch)
	}
}

// SetupReconciliationRoutes sets up the physical-count session routes.
func SetupReconciliationRoutes(group *gin.RouterGroup, reconciliationHandler *handlers.ReconciliationHandler) {
	reconciliationRoutes := group.Group("/reconciliations")
	reconciliationRoutes.Use(middleware.RoleAuthMiddleware("admin", "manager"))
	{
		reconciliationRoutes.POST("", reconciliationHandler.StartReconciliation)
		reconciliationRoutes.GET("/:id", reconciliationHandler.GetReconciliation)
		reconciliationRoutes.POST("/:id/counts", reconciliationHandler.RecordCount)
		reconciliationRoutes.POST("/:id/complete", reconciliationHandler.CompleteReconciliation)
	}
}

// SetupExpiryRoutes sets up the expiry sweep route.
func SetupExpiryRoutes(group *gin.RouterGroup, expiryHandler *handlers.ExpiryHandler) {
	expiryRoutes := group.Group("/expiry")
	expiryRoutes.Use(middleware.RoleAuthMiddleware("admin", "manager"))
	{
		expiryRoutes.POST("/sweep", expiryHandler.RunSweep)
	}
}
