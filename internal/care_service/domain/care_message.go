package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// CareMessageStatus represents the delivery state of a care message.
type CareMessageStatus string

const (
	StatusPending    CareMessageStatus = "pending"    // Created, waiting for its scheduled time
	StatusProcessing CareMessageStatus = "processing" // Claimed by a dispatch cycle
	StatusSent       CareMessageStatus = "sent"       // Accepted by the delivery webhook
	StatusFailed     CareMessageStatus = "failed"     // Terminal failure; no retry path
)

// CareMessage is a scheduled outbound message to a customer.
// Lifecycle: pending -> processing (atomic claim only) -> sent | failed.
// A message never returns to pending after being claimed.
type CareMessage struct {
	ID          uuid.UUID         `json:"id"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	ThreadID    string            `json:"thread_id"` // External conversation identifier used by the delivery sink
	UserID      uuid.UUID         `json:"user_id"`
	Content     sql.NullString    `json:"content,omitempty"`
	ImageURL    sql.NullString    `json:"image_url,omitempty"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	Status      CareMessageStatus `json:"status"`
	// PromptLog is a snapshot of the full prompt that produced this
	// message, kept for audit/debugging.
	PromptLog    sql.NullString `json:"prompt_log,omitempty"`
	ErrorMessage sql.NullString `json:"error_message,omitempty"`
	ProcessedAt  sql.NullTime   `json:"processed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewCareMessage creates a pending care message.
func NewCareMessage(customerID uuid.UUID, threadID string, userID uuid.UUID, content, imageURL sql.NullString, scheduledAt time.Time) *CareMessage {
	now := time.Now().UTC()
	return &CareMessage{
		ID:          uuid.New(),
		CustomerID:  customerID,
		ThreadID:    threadID,
		UserID:      userID,
		Content:     content,
		ImageURL:    imageURL,
		ScheduledAt: scheduledAt,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
