package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/caredesk/golang_services/internal/care_service/repository"
)

// JobPublisher fans draft jobs out to the worker pool.
type JobPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// DraftJob is the NATS payload telling a worker to draft for one thread.
type DraftJob struct {
	UserID   uuid.UUID `json:"user_id"`
	ThreadID string    `json:"thread_id"`
}

// ScannerConfig holds configuration specific to the EligibilityScanner.
type ScannerConfig struct {
	Subject     string
	BatchSize   int
	QuietPeriod time.Duration
}

// EligibilityScanner finds customers due for an automatic care draft and
// fans out one draft job per customer, capped per invocation. It reports
// how many jobs it triggered; individual draft outcomes are recorded
// asynchronously in the AI prompt log.
type EligibilityScanner struct {
	eligibility repository.EligibilityRepository
	publisher   JobPublisher
	logger      *slog.Logger
	config      ScannerConfig
}

func NewEligibilityScanner(
	eligibility repository.EligibilityRepository,
	publisher JobPublisher,
	logger *slog.Logger,
	cfg ScannerConfig,
) *EligibilityScanner {
	return &EligibilityScanner{
		eligibility: eligibility,
		publisher:   publisher,
		logger:      logger.With("component", "eligibility_scanner"),
		config:      cfg,
	}
}

// Scan returns the number of customers it triggered a draft for. Only a
// failure of the eligibility query itself fails the scan; publish
// failures are logged and skipped.
func (s *EligibilityScanner) Scan(ctx context.Context) (int, error) {
	customers, err := s.eligibility.FindEligibleCustomers(ctx, s.config.QuietPeriod, s.config.BatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "Eligibility query failed", "error", err)
		return 0, fmt.Errorf("failed to find eligible customers: %w", err)
	}
	if len(customers) == 0 {
		s.logger.InfoContext(ctx, "No eligible customers in this scan")
		return 0, nil
	}

	triggered := 0
	for _, c := range customers {
		job := DraftJob{UserID: c.UserID, ThreadID: c.ThreadID}
		data, err := json.Marshal(job)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to marshal draft job", "error", err, "customer_id", c.ID)
			continue
		}
		if err := s.publisher.Publish(ctx, s.config.Subject, data); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish draft job", "error", err, "customer_id", c.ID)
			continue
		}
		triggered++
		scanTriggeredCounter.Inc()
	}

	s.logger.InfoContext(ctx, "Eligibility scan complete", "eligible", len(customers), "triggered", triggered)
	return triggered, nil
}
