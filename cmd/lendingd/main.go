package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kredexa/lending-engine/internal/application/usecase"
	"github.com/kredexa/lending-engine/internal/domain/service"
	"github.com/kredexa/lending-engine/internal/infrastructure/alerts"
	"github.com/kredexa/lending-engine/internal/infrastructure/config"
	"github.com/kredexa/lending-engine/internal/infrastructure/messaging"
	pgRepo "github.com/kredexa/lending-engine/internal/infrastructure/persistence/postgres"
	"github.com/kredexa/lending-engine/internal/infrastructure/scheduler"
	"github.com/kredexa/lending-engine/internal/presentation/rest"
	"github.com/kredexa/lending-engine/pkg/auth"
	"github.com/kredexa/lending-engine/pkg/dates"
	pkgkafka "github.com/kredexa/lending-engine/pkg/kafka"
	"github.com/kredexa/lending-engine/pkg/observability"
	pkgpostgres "github.com/kredexa/lending-engine/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	cfg.Validate()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  "json",
		Service: cfg.ServiceName,
	})
	slog.SetDefault(logger)

	logger.Info("starting lending-engine", "http_port", cfg.HTTPPort)

	_, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	runMetrics := observability.NewRunMetrics()

	// Database connection.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpostgres.NewPool(dbCtx, pkgpostgres.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := pkgpostgres.RunMigrations(cfg.DSN(), pkgpostgres.DefaultMigrationsDir); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	// Infrastructure adapters.
	loanRepo := pgRepo.NewLoanRepo(pool)
	repaymentRepo := pgRepo.NewRepaymentRepo(pool)
	lateFeeRepo := pgRepo.NewLateFeeRepo(pool)
	logRepo := pgRepo.NewProcessingLogRepo(pool)
	productRepo := pgRepo.NewProductRepo(pool)
	settingsRepo := pgRepo.NewSettingsRepo(pool)
	ledger := pgRepo.NewLedgerUnit(pool)

	alertStore, err := alerts.NewFileStore(cfg.AlertsDir)
	if err != nil {
		logger.Error("failed to open alert store", "error", err)
		os.Exit(1)
	}

	producer := pkgkafka.NewProducer(pkgkafka.Config{Brokers: cfg.Kafka.Brokers})
	defer producer.Close()
	publisher := messaging.NewKafkaPublisher(producer, logger)

	// Domain services and use cases.
	calculator := service.NewFeeCalculator(dates.BusinessDay)
	riskEvaluator := service.NewRiskEvaluator()

	processUC := usecase.NewProcessLateFeesUseCase(
		repaymentRepo, lateFeeRepo, logRepo, ledger, settingsRepo,
		publisher, alertStore, calculator, riskEvaluator, runMetrics, logger,
	)
	waiveUC := usecase.NewWaiveLateFeesUseCase(repaymentRepo, lateFeeRepo, ledger, publisher, logger)
	settleUC := usecase.NewHandleRepaymentClearedUseCase(repaymentRepo, lateFeeRepo, ledger, publisher, logger)
	queries := usecase.NewLateFeeQueries(repaymentRepo, lateFeeRepo, logRepo, alertStore)
	disburseUC := usecase.NewDisburseLoanUseCase(productRepo, ledger, publisher, logger)
	paymentUC := usecase.NewMakePaymentUseCase(loanRepo, repaymentRepo, lateFeeRepo, ledger, publisher, logger)
	getLoanUC := usecase.NewGetLoanUseCase(loanRepo, repaymentRepo)

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{
		Secret: cfg.JWTSecret,
		Issuer: "kredexa-platform",
	})
	if err != nil {
		logger.Error("failed to initialize JWT service", "error", err)
		os.Exit(1)
	}

	// In-process daily trigger, opt-in via FEE_CRON_SCHEDULE. By default
	// runs are driven externally through the HTTP endpoint.
	if cfg.CronSchedule != "off" {
		sched := scheduler.New(processUC, logger)
		if err := sched.Start(cfg.CronSchedule); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	// HTTP surface.
	router := rest.NewRouter(rest.RouterDeps{
		LateFees: rest.NewLateFeeHandler(processUC, waiveUC, settleUC, queries),
		Loans:    rest.NewLoanHandler(disburseUC, paymentUC, getLoanUC),
		JWT:      jwtSvc,
		Pool:     pool,
		Metrics:  metricsHandler,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("lending-engine stopped")
}
