package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/caredesk/golang_services/internal/platform/config"
	"github.com/caredesk/golang_services/internal/platform/database"
	"github.com/caredesk/golang_services/internal/platform/logger"
	"github.com/caredesk/golang_services/internal/platform/messagebroker"

	"github.com/caredesk/golang_services/internal/care_service/adapters/aigateway"
	"github.com/caredesk/golang_services/internal/care_service/adapters/deliveryhook"
	"github.com/caredesk/golang_services/internal/care_service/app"
	"github.com/caredesk/golang_services/internal/care_service/repository/postgres"
	transporthttp "github.com/caredesk/golang_services/internal/care_service/transport/http"
)

const (
	serviceName     = "care-api-service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.LogLevel)
	log.Info("Starting service...")

	dbPool, err := database.NewPostgresPool(mainCtx, cfg.Postgres.DSN, log)
	if err != nil {
		log.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	natsClient, err := messagebroker.NewNATSClient(cfg.NATS.URL, log, serviceName)
	if err != nil {
		log.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	// Repositories
	messageRepo := postgres.NewPgCareMessageRepository(dbPool, log)
	settingsRepo := postgres.NewPgDeliverySettingsRepository(dbPool, log)
	promptRepo := postgres.NewPgPromptConfigRepository(dbPool, log)
	customerRepo := postgres.NewPgCustomerRepository(dbPool, log)
	promptLogRepo := postgres.NewPgAIPromptLogRepository(dbPool, log)
	eligibilityRepo := postgres.NewPgEligibilityRepository(dbPool, log)

	// Adapters
	deliveryClient := deliveryhook.NewClient(log, &http.Client{Timeout: cfg.Dispatch.WebhookTimeout})
	aiClient := aigateway.NewClient(log, cfg.Auth.AIGatewayToken, &http.Client{Timeout: cfg.Draft.RequestTimeout})

	// Application components
	dispatcher := app.NewDispatcher(messageRepo, settingsRepo, deliveryClient, log, app.DispatcherConfig{
		BatchSize:      cfg.Dispatch.BatchSize,
		MaxConcurrency: cfg.Dispatch.MaxConcurrency,
		WebhookTimeout: cfg.Dispatch.WebhookTimeout,
	})
	scanner := app.NewEligibilityScanner(eligibilityRepo, natsClient, log, app.ScannerConfig{
		Subject:     cfg.Draft.Subject,
		BatchSize:   cfg.Scanner.BatchSize,
		QuietPeriod: cfg.Scanner.QuietPeriod,
	})
	drafter := app.NewDrafter(messageRepo, settingsRepo, promptRepo, customerRepo, promptLogRepo, aiClient, log, app.DrafterConfig{
		RequestTimeout: cfg.Draft.RequestTimeout,
	})

	handler := transporthttp.NewCareHandler(dispatcher, scanner, drafter, log, validator.New())
	router := transporthttp.NewRouter(handler, transporthttp.RouterConfig{
		TriggerSecret: cfg.Auth.TriggerSecret,
		JWTSecret:     cfg.Auth.JWTSecret,
	}, log)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: router,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		log.Info("Starting HTTP server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		log.Info("Initiating HTTP server graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Optional in-process dispatch loop for deployments without an
	// external cron; the trigger endpoint works either way.
	if cfg.Dispatch.TickerEnabled {
		g.Go(func() error {
			log.Info("Starting in-process dispatch ticker", "polling_interval", cfg.Dispatch.PollingInterval)
			ticker := time.NewTicker(cfg.Dispatch.PollingInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					result, err := dispatcher.RunCycle(groupCtx)
					if err != nil {
						// Claim failures are retryable; keep ticking.
						log.ErrorContext(groupCtx, "Dispatch cycle failed", "error", err)
						continue
					}
					if result.Processed > 0 {
						log.InfoContext(groupCtx, "Dispatch tick processed messages",
							"processed", result.Processed, "sent", result.Sent, "failed", result.Failed)
					}
				case <-groupCtx.Done():
					return groupCtx.Err()
				}
			}
		})
	}

	log.Info("Service components initialized. Service is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received termination signal", "signal", sig)
	case <-groupCtx.Done():
		log.Error("A component failed, initiating shutdown")
	}

	mainCancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Error during shutdown", "error", err)
	}
	log.Info("Service shutdown complete.")
}
