package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caredesk/golang_services/internal/care_service/domain"
	"github.com/caredesk/golang_services/internal/care_service/repository"
)

// AIClient posts a rendered prompt to a user's AI endpoint and returns
// the raw response text.
type AIClient interface {
	Complete(ctx context.Context, endpointURL string, prompt string) (string, error)
}

// DrafterConfig holds configuration specific to the Drafter.
type DrafterConfig struct {
	RequestTimeout time.Duration
}

// fencedJSONRe extracts the first ```json fenced block from an AI
// response. When no fence is present the raw response is parsed as JSON.
var fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)```")

// aiDraft is the JSON object the AI endpoint must return. Both fields
// are required; absence of either is a shape failure, not a partial
// success.
type aiDraft struct {
	Content     string `json:"content"`
	ScheduledAt string `json:"scheduled_at"`
}

// Drafter produces an AI-generated care message for a customer thread.
// Every attempt, successful or not, leaves exactly one AIPromptLog row.
type Drafter struct {
	messages  repository.CareMessageRepository
	settings  repository.DeliverySettingsRepository
	prompts   repository.PromptConfigRepository
	customers repository.CustomerRepository
	auditLog  repository.AIPromptLogRepository
	ai        AIClient
	logger    *slog.Logger
	config    DrafterConfig
	now       func() time.Time
}

func NewDrafter(
	messages repository.CareMessageRepository,
	settings repository.DeliverySettingsRepository,
	prompts repository.PromptConfigRepository,
	customers repository.CustomerRepository,
	auditLog repository.AIPromptLogRepository,
	ai AIClient,
	logger *slog.Logger,
	cfg DrafterConfig,
) *Drafter {
	return &Drafter{
		messages:  messages,
		settings:  settings,
		prompts:   prompts,
		customers: customers,
		auditLog:  auditLog,
		ai:        ai,
		logger:    logger.With("component", "drafter"),
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Draft runs one drafting attempt for the thread. On success a pending
// care message and a success audit row are inserted; on any failure only
// a failed audit row is written and the typed error is returned.
func (d *Drafter) Draft(ctx context.Context, userID uuid.UUID, threadID string) error {
	log := d.logger.With("user_id", userID, "thread_id", threadID)

	// Debounce: one outstanding AI-scheduled message per customer.
	pending, err := d.messages.HasPending(ctx, userID, threadID)
	if err != nil {
		return fmt.Errorf("failed to check for pending care message: %w", err)
	}
	if pending {
		log.InfoContext(ctx, "Draft rejected: customer already has a pending care message")
		return d.fail(ctx, uuid.NullUUID{}, "", "", domain.NewDraftError(domain.DraftAlreadyScheduled, nil))
	}

	userSettings, err := d.settings.GetForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load delivery settings: %w", err)
	}
	if userSettings.AIEndpointURL == "" {
		return d.fail(ctx, uuid.NullUUID{}, "", "", domain.NewNotConfiguredError("ai_endpoint_url"))
	}

	promptCfg, err := d.prompts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return d.fail(ctx, uuid.NullUUID{}, "", "", domain.NewNotConfiguredError("prompt_template"))
		}
		return fmt.Errorf("failed to load prompt config: %w", err)
	}
	if strings.TrimSpace(promptCfg.Template) == "" {
		return d.fail(ctx, uuid.NullUUID{}, "", "", domain.NewNotConfiguredError("prompt_template"))
	}

	customer, err := d.customers.GetByThread(ctx, userID, threadID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return d.fail(ctx, uuid.NullUUID{}, "", "", domain.NewDraftError(domain.DraftCustomerNotFound, nil))
		}
		return fmt.Errorf("failed to load customer: %w", err)
	}
	customerRef := uuid.NullUUID{UUID: customer.ID, Valid: true}

	history, err := d.customers.ListConversation(ctx, customer.ID)
	if err != nil {
		return d.fail(ctx, customerRef, "", "", domain.NewDraftError(domain.DraftUpstreamCallFailed, fmt.Errorf("failed to load conversation: %w", err)))
	}

	prompt := RenderPrompt(promptCfg.Template, customer.Name, history, d.now())

	aiCtx, cancel := context.WithTimeout(ctx, d.config.RequestTimeout)
	defer cancel()

	raw, err := d.ai.Complete(aiCtx, userSettings.AIEndpointURL, prompt)
	if err != nil {
		log.WarnContext(ctx, "AI endpoint call failed", "error", err)
		return d.fail(ctx, customerRef, prompt, "", domain.NewDraftError(domain.DraftUpstreamCallFailed, err))
	}

	draft, derr := parseDraftResponse(raw)
	if derr != nil {
		log.WarnContext(ctx, "AI response rejected", "reason", derr.Reason)
		return d.fail(ctx, customerRef, prompt, raw, derr)
	}

	scheduledAt, err := time.Parse(time.RFC3339, draft.ScheduledAt)
	if err != nil {
		return d.fail(ctx, customerRef, prompt, raw,
			domain.NewDraftError(domain.DraftInvalidResponseShape, fmt.Errorf("scheduled_at is not a timestamp: %w", err)))
	}

	msg := domain.NewCareMessage(
		customer.ID,
		customer.ThreadID,
		userID,
		sql.NullString{String: draft.Content, Valid: true},
		sql.NullString{},
		scheduledAt.UTC(),
	)
	msg.PromptLog = sql.NullString{String: prompt, Valid: true}

	if err := d.messages.Create(ctx, msg); err != nil {
		return d.fail(ctx, customerRef, prompt, raw, fmt.Errorf("failed to store drafted care message: %w", err))
	}

	if err := d.auditLog.Create(ctx, domain.NewSuccessPromptLog(customer.ID, prompt, raw)); err != nil {
		// The draft itself succeeded; losing the audit row is logged, not fatal.
		log.ErrorContext(ctx, "Failed to write success prompt log", "error", err)
	}

	draftsProcessedCounter.WithLabelValues("success").Inc()
	log.InfoContext(ctx, "Draft created", "message_id", msg.ID, "scheduled_at", msg.ScheduledAt)
	return nil
}

// fail records the failed attempt in the audit log and returns the error.
func (d *Drafter) fail(ctx context.Context, customerID uuid.NullUUID, prompt, rawResponse string, cause error) error {
	outcome := "error"
	var derr *domain.DraftError
	if errors.As(cause, &derr) {
		outcome = string(derr.Reason)
	}
	draftsProcessedCounter.WithLabelValues(outcome).Inc()

	entry := domain.NewFailedPromptLog(customerID, prompt, cause.Error(), rawResponse)
	if err := d.auditLog.Create(ctx, entry); err != nil {
		d.logger.ErrorContext(ctx, "Failed to write failed prompt log", "error", err, "cause", cause)
	}
	return cause
}

// RenderPrompt substitutes the three placeholder tokens into the
// template. Plain string replacement, by contract.
func RenderPrompt(template, customerName string, history []domain.ConversationMessage, now time.Time) string {
	rendered := strings.ReplaceAll(template, domain.TokenMessageHistory, RenderHistory(history))
	rendered = strings.ReplaceAll(rendered, domain.TokenCustomerName, customerName)
	rendered = strings.ReplaceAll(rendered, domain.TokenCurrentDatetime, now.Format(time.RFC3339))
	return rendered
}

// RenderHistory flattens a conversation, oldest first, into the
// "Shop:"/"Khách:" line format the prompt templates expect.
func RenderHistory(history []domain.ConversationMessage) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		switch m.Sender {
		case domain.SenderShop:
			lines = append(lines, "Shop: "+m.Text)
		default:
			lines = append(lines, "Khách: "+m.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// parseDraftResponse extracts the draft object from the raw AI response:
// first fenced ```json block if present, otherwise the raw text.
func parseDraftResponse(raw string) (*aiDraft, *domain.DraftError) {
	candidate := raw
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	}

	var draft aiDraft
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &draft); err != nil {
		return nil, domain.NewDraftError(domain.DraftUnparseableResponse, err)
	}
	if draft.Content == "" || draft.ScheduledAt == "" {
		return nil, domain.NewDraftError(domain.DraftInvalidResponseShape,
			errors.New("response must contain non-empty content and scheduled_at"))
	}
	return &draft, nil
}
