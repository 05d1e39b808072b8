package main

import (
	"log"

	"github.com/hibiken/asynq"

	"pharmapos_backend/internal/config"
	"pharmapos_backend/internal/database"
	"pharmapos_backend/internal/jobs"
	"pharmapos_backend/internal/repositories"
	"pharmapos_backend/internal/services"
	"pharmapos_backend/pkg/utils"
)

// Background worker: processes expiry sweep tasks and schedules the nightly
// sweep.
func main() {
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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	mux := asynq.NewServeMux()
	mux.Handle(jobs.TaskTypeExpirySweep, jobs.NewExpirySweepHandler(expiryService))

	sweepTask, err := jobs.NewExpirySweepTask(jobs.ExpirySweepPayload{Days: cfg.ExpiryHorizonDays})
	if err != nil {
		log.Fatalf("Failed to build expiry sweep task: %v", err)
	}

	scheduler := asynq.NewScheduler(redisOpts, nil)
	if _, err := scheduler.Register(cfg.ExpirySweepCron, sweepTask); err != nil {
		log.Fatalf("Failed to register expiry sweep schedule: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Shutdown()

	server := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{jobs.QueueDefault: 1},
	})

	utils.LogInfo("Worker starting", map[string]interface{}{
		"redis_addr": cfg.RedisAddr, "sweep_cron": cfg.ExpirySweepCron,
	})
	if err := server.Run(mux); err != nil {
		utils.LogError(err, "Worker stopped")
		log.Fatalf("Worker stopped: %v", err)
	}
}
