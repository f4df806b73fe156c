package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/caredesk/golang_services/internal/care_service/domain"
)

// CareMessageRepository manages the scheduled care-message table. All
// status mutation goes through ClaimDue or the terminal Mark* writes;
// correctness of concurrent dispatch cycles relies on ClaimDue being a
// single atomic statement.
type CareMessageRepository interface {
	Create(ctx context.Context, msg *domain.CareMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CareMessage, error)

	// ClaimDue atomically flips pending messages with scheduled_at <=
	// dueTime to processing and returns exactly the flipped rows. No
	// concurrent caller can observe or re-claim them. Returns
	// domain.ErrNoDueMessages when nothing is due.
	ClaimDue(ctx context.Context, dueTime time.Time, limit int) ([]*domain.CareMessage, error)

	// MarkSent and MarkFailed are the only legal exits from processing.
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, at time.Time, reason string) error

	// HasPending reports whether the customer behind (userID, threadID)
	// already has a pending care message. Drafter's debounce check.
	HasPending(ctx context.Context, userID uuid.UUID, threadID string) (bool, error)
}

// DeliverySettingsRepository resolves per-user endpoint configuration.
type DeliverySettingsRepository interface {
	// GetForUsers returns settings for each user that has a row; users
	// without settings are simply absent from the map. URLs are trimmed.
	GetForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]domain.DeliverySettings, error)
	GetForUser(ctx context.Context, userID uuid.UUID) (domain.DeliverySettings, error)
}

// PromptConfigRepository resolves a user's prompt template.
type PromptConfigRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.PromptConfig, error)
}

// AIPromptLogRepository appends draft audit records.
type AIPromptLogRepository interface {
	Create(ctx context.Context, entry *domain.AIPromptLog) error
}

// CustomerRepository reads customer and conversation data.
type CustomerRepository interface {
	GetByThread(ctx context.Context, userID uuid.UUID, threadID string) (*domain.Customer, error)
	// ListConversation returns the full history, oldest first.
	ListConversation(ctx context.Context, customerID uuid.UUID) ([]domain.ConversationMessage, error)
}

// EligibilityRepository finds customers qualifying for an automatic care
// draft. The selection rule is deliberately confined to this interface.
type EligibilityRepository interface {
	FindEligibleCustomers(ctx context.Context, quietPeriod time.Duration, limit int) ([]*domain.Customer, error)
}
