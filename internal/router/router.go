package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"pharmapos_backend/internal/config"
	"pharmapos_backend/internal/handlers"
	"pharmapos_backend/internal/middleware"
	"pharmapos_backend/internal/repositories"
	"pharmapos_backend/internal/services"
)

// Setup wires repositories, services and handlers and registers every route.
// All dependencies flow in through parameters; nothing is global.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config) {
	batchRepo := repositories.NewBatchRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	transferRepo := repositories.NewTransferRepository(db)
	reservationRepo := repositories.NewReservationRepository(db)
	reconciliationRepo := repositories.NewReconciliationRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	authRepo := repositories.NewAuthRepository(db)

	transactor := services.NewTransactor(db)

	ledgerService := services.NewLedgerService(batchRepo, auditRepo, catalogRepo, transactor)
	saleService := services.NewSaleService(saleRepo, batchRepo, catalogRepo, ledgerService, transactor)
	transferService := services.NewTransferService(transferRepo, batchRepo, catalogRepo, ledgerService, transactor)
	reservationService := services.NewReservationService(reservationRepo, ledgerService, transactor)
	reconciliationService := services.NewReconciliationService(reconciliationRepo, batchRepo, catalogRepo, ledgerService, transactor)
	expiryService := services.NewExpiryService(batchRepo, catalogRepo, ledgerService, transactor)
	catalogService := services.NewCatalogService(catalogRepo, transactor)
	authService := services.NewAuthService(authRepo, cfg.JWTSecret, cfg.JWTExpiration)

	authHandler := handlers.NewAuthHandler(authService)
	inventoryHandler := handlers.NewInventoryHandler(ledgerService)
	saleHandler := handlers.NewSaleHandler(saleService)
	transferHandler := handlers.NewTransferHandler(transferService)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	reconciliationHandler := handlers.NewReconciliationHandler(reconciliationService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	expiryHandler := handlers.NewExpiryHandler(expiryService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler, cfg.JWTSecret)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		SetupCatalogRoutes(authenticated, catalogHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupSaleRoutes(authenticated, saleHandler)
		SetupTransferRoutes(authenticated, transferHandler)
		SetupReservationRoutes(authenticated, reservationHandler)
		SetupReconciliationRoutes(authenticated, reconciliationHandler)
		SetupExpiryRoutes(authenticated, expiryHandler)
	}
}
