package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/caredesk/golang_services/internal/care_service/adapters/deliveryhook"
	"github.com/caredesk/golang_services/internal/care_service/domain"
	"github.com/caredesk/golang_services/internal/care_service/repository"
)

// DeliveryClient posts a payload to a user's delivery webhook.
type DeliveryClient interface {
	Send(ctx context.Context, webhookURL string, payload deliveryhook.Payload) error
}

// DispatcherConfig holds configuration specific to the Dispatcher.
type DispatcherConfig struct {
	BatchSize      int
	MaxConcurrency int
	WebhookTimeout time.Duration
}

// CycleResult summarizes one dispatch cycle.
type CycleResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// Dispatcher claims due care messages and forwards them to per-user
// delivery webhooks, writing exactly one terminal status per message.
type Dispatcher struct {
	messages repository.CareMessageRepository
	settings repository.DeliverySettingsRepository
	delivery DeliveryClient
	logger   *slog.Logger
	config   DispatcherConfig
}

func NewDispatcher(
	messages repository.CareMessageRepository,
	settings repository.DeliverySettingsRepository,
	delivery DeliveryClient,
	logger *slog.Logger,
	cfg DispatcherConfig,
) *Dispatcher {
	return &Dispatcher{
		messages: messages,
		settings: settings,
		delivery: delivery,
		logger:   logger.With("component", "dispatcher"),
		config:   cfg,
	}
}

// RunCycle executes one dispatch cycle. A claim failure aborts the cycle
// with nothing mutated, so the trigger may retry it wholesale. Failures
// past the claim are contained per message and never abort the batch.
func (d *Dispatcher) RunCycle(ctx context.Context) (CycleResult, error) {
	timer := prometheus.NewTimer(dispatchCycleDurationHist)
	defer timer.ObserveDuration()

	now := time.Now().UTC()
	claimed, err := d.messages.ClaimDue(ctx, now, d.config.BatchSize)
	if err != nil {
		if errors.Is(err, domain.ErrNoDueMessages) {
			d.logger.InfoContext(ctx, "No due care messages in this cycle")
			return CycleResult{}, nil
		}
		d.logger.ErrorContext(ctx, "Failed to claim due care messages", "error", err)
		return CycleResult{}, fmt.Errorf("failed to claim due care messages: %w", err)
	}

	d.logger.InfoContext(ctx, "Claimed care messages for dispatch", "count", len(claimed))

	settings, err := d.settings.GetForUsers(ctx, distinctUserIDs(claimed))
	if err != nil {
		// Messages are already in processing and there is no retry path;
		// resolve every one of them to failed rather than leaving the
		// rows unresolved.
		d.logger.ErrorContext(ctx, "Failed to resolve delivery settings; failing claimed batch", "error", err)
		var failed int64
		for _, msg := range claimed {
			d.markFailed(ctx, msg, "delivery settings lookup failed: "+err.Error(), "failed", &failed)
		}
		return CycleResult{Processed: len(claimed), Failed: int(failed)}, nil
	}

	var sent, failed int64

	g, groupCtx := errgroup.WithContext(ctx)
	if d.config.MaxConcurrency > 0 {
		g.SetLimit(d.config.MaxConcurrency)
	}
	for _, msg := range claimed {
		msg := msg
		g.Go(func() error {
			d.dispatchOne(groupCtx, msg, settings, &sent, &failed)
			return nil // per-message failures never abort the batch
		})
	}
	_ = g.Wait()

	result := CycleResult{Processed: len(claimed), Sent: int(sent), Failed: int(failed)}
	d.logger.InfoContext(ctx, "Dispatch cycle complete",
		"processed", result.Processed, "sent", result.Sent, "failed", result.Failed)
	return result, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, msg *domain.CareMessage, settings map[uuid.UUID]domain.DeliverySettings, sent, failed *int64) {
	userSettings, ok := settings[msg.UserID]
	if !ok || userSettings.WebhookURL == "" {
		d.logger.WarnContext(ctx, "No delivery webhook configured; failing message without network call",
			"message_id", msg.ID, "user_id", msg.UserID)
		d.markFailed(ctx, msg, "no delivery webhook configured for user", "failed_no_webhook", failed)
		return
	}

	payload := deliveryhook.BuildPayload(msg)

	sendCtx, cancel := context.WithTimeout(ctx, d.config.WebhookTimeout)
	defer cancel()

	if err := d.delivery.Send(sendCtx, userSettings.WebhookURL, payload); err != nil {
		d.logger.WarnContext(ctx, "Delivery failed", "message_id", msg.ID, "error", err)
		d.markFailed(ctx, msg, err.Error(), "failed", failed)
		return
	}

	if err := d.messages.MarkSent(ctx, msg.ID, time.Now().UTC()); err != nil {
		// The webhook accepted the message but the row still says
		// processing; the row is the source of truth, so don't report
		// the message as sent.
		d.logger.ErrorContext(ctx, "Failed to mark care message as sent", "message_id", msg.ID, "error", err)
		return
	}
	messagesDispatchedCounter.WithLabelValues("sent").Inc()
	atomic.AddInt64(sent, 1)
}

// markFailed writes the terminal failed status; the tally and metric
// follow the write so they only ever count rows that actually flipped.
func (d *Dispatcher) markFailed(ctx context.Context, msg *domain.CareMessage, reason, outcome string, failed *int64) {
	if err := d.messages.MarkFailed(ctx, msg.ID, time.Now().UTC(), reason); err != nil {
		d.logger.ErrorContext(ctx, "Failed to mark care message as failed", "message_id", msg.ID, "error", err)
		return
	}
	messagesDispatchedCounter.WithLabelValues(outcome).Inc()
	atomic.AddInt64(failed, 1)
}

func distinctUserIDs(msgs []*domain.CareMessage) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(msgs))
	ids := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.UserID]; ok {
			continue
		}
		seen[m.UserID] = struct{}{}
		ids = append(ids, m.UserID)
	}
	return ids
}
