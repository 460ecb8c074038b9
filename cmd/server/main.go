package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	installmentapp "github.com/cashflow/backend/internal/application/installment"
	partnerapp "github.com/cashflow/backend/internal/application/partner"
	paymentapp "github.com/cashflow/backend/internal/application/payment"
	reportapp "github.com/cashflow/backend/internal/application/report"
	"github.com/cashflow/backend/internal/infrastructure/cache"
	"github.com/cashflow/backend/internal/infrastructure/config"
	"github.com/cashflow/backend/internal/infrastructure/logger"
	"github.com/cashflow/backend/internal/infrastructure/persistence"
	"github.com/cashflow/backend/internal/infrastructure/scheduler"
	"github.com/cashflow/backend/internal/infrastructure/sheets"
	"github.com/cashflow/backend/internal/interfaces/http/handler"
	"github.com/cashflow/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting cashflow backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, gormlogger.Warn))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis: snapshot cache, idempotency markers and contract locks share
	// one client.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cancel()
	}
	defer func() {
		_ = redisClient.Close()
	}()

	snapshotCache := cache.NewRedisCacheWithClient(redisClient, cfg.Cache.KeyPrefix)
	idempotencyStore := cache.NewRedisIdempotencyStoreWithClient(redisClient, "")
	contractLocker := cache.NewRedisLocker(redisClient)

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	appRepo := persistence.NewGormApplicationRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)
	noteRepo := persistence.NewGormNoteRepository(db.DB)
	eventRepo := persistence.NewGormPaymentEventRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)

	// Aggregation services and the cached dashboard facade
	intelligenceSvc := reportapp.NewIntelligenceService(customerRepo, appRepo, contractRepo, eventRepo, categoryRepo, log)
	periodicSvc := reportapp.NewPeriodicService(appRepo, log)
	efficiencySvc := reportapp.NewEfficiencyService(contractRepo, eventRepo, log)
	dashboardSvc := reportapp.NewDashboardService(intelligenceSvc, periodicSvc, efficiencySvc, snapshotCache, cfg.Cache.TTL, log)
	balanceSheetSvc := reportapp.NewBalanceSheetService(customerRepo, supplierRepo, appRepo, eventRepo, categoryRepo, accountRepo, log)
	reportSvc := reportapp.NewReportService(customerRepo, supplierRepo, appRepo, contractRepo, eventRepo, categoryRepo, accountRepo, ledgerRepo, log)

	// Write-path services
	debtSvc := partnerapp.NewDebtService(customerRepo, supplierRepo, appRepo, contractRepo, eventRepo, log)
	linkerSvc := paymentapp.NewLinkerService(
		eventRepo, categoryRepo, accountRepo, contractRepo, customerRepo,
		debtSvc, idempotencyStore, contractLocker, log,
		paymentapp.WithDashboardInvalidator(dashboardSvc),
	)
	contractSvc := installmentapp.NewContractService(
		appRepo, contractRepo, customerRepo, supplierRepo,
		eventRepo, categoryRepo, accountRepo, ledgerRepo,
		linkerSvc, debtSvc, log,
		installmentapp.WithDashboardInvalidator(dashboardSvc),
	)
	contractQuerySvc := installmentapp.NewContractQueryService(contractRepo, customerRepo, noteRepo, log)
	partnerQuerySvc := partnerapp.NewPartnerQueryService(customerRepo, supplierRepo, appRepo, eventRepo, log)

	// Background jobs
	maintenanceScheduler := scheduler.NewMaintenanceScheduler(cfg.Scheduler, dashboardSvc, debtSvc, log)
	if err := maintenanceScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start maintenance scheduler", zap.Error(err))
	}

	// Google Sheets export (optional)
	var exporter *sheets.Exporter
	if cfg.Sheets.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		exporter, err = sheets.NewExporter(ctx, cfg.Sheets, log)
		cancel()
		if err != nil {
			log.Fatal("Failed to initialize Google Sheets exporter", zap.Error(err))
		}
	}

	engine := router.Setup(cfg, log, router.Handlers{
		Health:      handler.NewHealthHandler(db.DB, maintenanceScheduler),
		Application: handler.NewApplicationHandler(contractSvc),
		Contract:    handler.NewContractHandler(contractQuerySvc),
		Payment:     handler.NewPaymentHandler(linkerSvc),
		Partner:     handler.NewPartnerHandler(partnerQuerySvc, debtSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc, balanceSheetSvc),
		Report:      handler.NewReportHandler(reportSvc),
		Export:      handler.NewExportHandler(reportSvc, exporter),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := maintenanceScheduler.Stop(ctx); err != nil {
		log.Warn("Maintenance scheduler did not stop cleanly", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
