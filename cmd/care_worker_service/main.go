package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caredesk/golang_services/internal/platform/config"
	"github.com/caredesk/golang_services/internal/platform/database"
	"github.com/caredesk/golang_services/internal/platform/logger"
	"github.com/caredesk/golang_services/internal/platform/messagebroker"

	"github.com/caredesk/golang_services/internal/care_service/adapters/aigateway"
	"github.com/caredesk/golang_services/internal/care_service/app"
	"github.com/caredesk/golang_services/internal/care_service/repository/postgres"
)

const serviceName = "care-worker-service"

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

	messageRepo := postgres.NewPgCareMessageRepository(dbPool, log)
	settingsRepo := postgres.NewPgDeliverySettingsRepository(dbPool, log)
	promptRepo := postgres.NewPgPromptConfigRepository(dbPool, log)
	customerRepo := postgres.NewPgCustomerRepository(dbPool, log)
	promptLogRepo := postgres.NewPgAIPromptLogRepository(dbPool, log)

	aiClient := aigateway.NewClient(log, cfg.Auth.AIGatewayToken, &http.Client{Timeout: cfg.Draft.RequestTimeout})

	drafter := app.NewDrafter(messageRepo, settingsRepo, promptRepo, customerRepo, promptLogRepo, aiClient, log, app.DrafterConfig{
		RequestTimeout: cfg.Draft.RequestTimeout,
	})

	consumer := app.NewDraftConsumer(drafter, natsClient, log, app.DraftConsumerConfig{
		Subject:    cfg.Draft.Subject,
		QueueGroup: cfg.Draft.QueueGroup,
		JobTimeout: cfg.Draft.JobTimeout,
	})
	if err := consumer.Start(mainCtx); err != nil {
		log.Error("Failed to start draft consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Stop()

	log.Info("Draft worker is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("Received termination signal", "signal", sig)

	mainCancel()
	log.Info("Service shutdown complete.")
}
