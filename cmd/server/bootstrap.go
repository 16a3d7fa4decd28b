package main

import (
	"github.com/mortgagemate/backend/internal/config"
	"github.com/mortgagemate/backend/internal/handlers"
	"github.com/mortgagemate/backend/internal/models"
	"github.com/mortgagemate/backend/internal/services"
	"github.com/mortgagemate/backend/internal/storage"
	"github.com/mortgagemate/backend/internal/utils"
	"github.com/mortgagemate/backend/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	db              *gorm.DB
	store           storage.Storage
	taskQueue       services.TaskQueue
	worker          *services.Worker
	authHandler     *handlers.AuthHandler
	projectHandler  *handlers.ProjectHandler
	documentHandler *handlers.DocumentHandler
	userHandler     *handlers.UserHandler
	bankHandler     *handlers.BankHandler
	referralHandler *handlers.ReferralHandler
	auditHandler    *handlers.AuditLogHandler
	dashHandler     *handlers.DashboardHandler
}

// bootstrap initializes all application dependencies: database, storage,
// task queue, schedulers and handlers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize blob storage for uploaded documents
	store, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	cleanupProcessor := services.NewCleanupProcessor(store)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(cleanupProcessor)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(cleanupProcessor)
			worker.Start()
		}
	}

	// Start audit trail retention scheduler
	services.StartAuditCleanupScheduler(models.GetDB(), cfg.Audit.RetentionDays)

	// Create default admin user
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	db := models.GetDB()
	return &appServices{
		db:              db,
		store:           store,
		taskQueue:       taskQueue,
		worker:          worker,
		authHandler:     authHandler,
		projectHandler:  handlers.NewProjectHandler(db, taskQueue),
		documentHandler: handlers.NewDocumentHandler(db, store, taskQueue, &cfg.Storage),
		userHandler:     handlers.NewUserHandler(db),
		bankHandler:     handlers.NewBankHandler(db),
		referralHandler: handlers.NewReferralHandler(db),
		auditHandler:    handlers.NewAuditLogHandler(db),
		dashHandler:     handlers.NewDashboardHandler(db),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	services.StopAuditCleanupScheduler()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("Shutdown complete")
}
