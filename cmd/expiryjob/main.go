package main

import (
	"flag"
	"log"

	"pharmapos_backend/internal/config"
	"pharmapos_backend/internal/database"
	"pharmapos_backend/internal/jobs"
	"pharmapos_backend/internal/repositories"
	"pharmapos_backend/internal/services"
	"pharmapos_backend/pkg/utils"
)

// Cron-friendly one-shot expiry sweep. Sweeps every store unless --store-id
// narrows it to one.
func main() {
	days := flag.Int("days", 0, "expire batches whose expiry falls within this many days (0 = already expired only)")
	storeID := flag.Int64("store-id", 0, "sweep only this store (0 = all stores)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	utils.InitLogger(cfg.IsProduction())

	db, err := database.Connect(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	batchRepo := repositories.NewBatchRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	transactor := services.NewTransactor(db)
	ledgerService := services.NewLedgerService(batchRepo, auditRepo, catalogRepo, transactor)
	expiryService := services.NewExpiryService(batchRepo, catalogRepo, ledgerService, transactor)

	if *storeID > 0 {
		count, err := expiryService.ExpireWithinDays(*storeID, *days, jobs.SystemUserID)
		if err != nil {
			utils.LogError(err, "Expiry sweep failed")
			log.Fatalf("Expiry sweep failed for store %d: %v", *storeID, err)
		}
		utils.LogInfo("Expiry sweep completed", map[string]interface{}{
			"store_id": *storeID, "days": *days, "batches_expired": count,
		})
		return
	}

	counts, err := expiryService.ExpireAllStores(*days, jobs.SystemUserID)
	if err != nil {
		utils.LogError(err, "Expiry sweep failed")
		log.Fatalf("Expiry sweep failed: %v", err)
	}
	total := 0
	for _, count := range counts {
		total += count
	}
	utils.LogInfo("Expiry sweep completed", map[string]interface{}{
		"days": *days, "stores": len(counts), "batches_expired": total,
	})
}
