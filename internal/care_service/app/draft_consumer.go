package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/caredesk/golang_services/internal/platform/messagebroker"
)

// DraftExecutor is the Drafter seen from the consumer side.
type DraftExecutor interface {
	Draft(ctx context.Context, userID uuid.UUID, threadID string) error
}

// DraftConsumerConfig holds configuration specific to the DraftConsumer.
type DraftConsumerConfig struct {
	Subject    string
	QueueGroup string
	JobTimeout time.Duration
}

// DraftConsumer executes draft jobs fanned out by the scanner. Jobs are
// fire-and-forget: outcomes land in the AI prompt log, errors are only
// logged here.
type DraftConsumer struct {
	drafter DraftExecutor
	broker  *messagebroker.NATSClient
	logger  *slog.Logger
	config  DraftConsumerConfig
	sub     *nats.Subscription
}

func NewDraftConsumer(drafter DraftExecutor, broker *messagebroker.NATSClient, logger *slog.Logger, cfg DraftConsumerConfig) *DraftConsumer {
	return &DraftConsumer{
		drafter: drafter,
		broker:  broker,
		logger:  logger.With("component", "draft_consumer"),
		config:  cfg,
	}
}

// Start subscribes to the draft subject with a queue group so each job is
// handled by exactly one worker.
func (c *DraftConsumer) Start(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Starting draft job consumer", "subject", c.config.Subject, "queue_group", c.config.QueueGroup)

	sub, err := c.broker.SubscribeQueue(c.config.Subject, c.config.QueueGroup, func(msg *nats.Msg) {
		var job DraftJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			c.logger.Error("Failed to unmarshal draft job", "error", err, "data", string(msg.Data))
			return
		}

		jobCtx, cancel := context.WithTimeout(context.Background(), c.config.JobTimeout)
		defer cancel()

		if err := c.drafter.Draft(jobCtx, job.UserID, job.ThreadID); err != nil {
			// Already persisted in the prompt log by the Drafter.
			c.logger.Warn("Draft job failed", "error", err, "user_id", job.UserID, "thread_id", job.ThreadID)
		}
	})
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

// Stop unsubscribes the consumer.
func (c *DraftConsumer) Stop() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Warn("Failed to unsubscribe draft consumer", "error", err)
		}
	}
}
