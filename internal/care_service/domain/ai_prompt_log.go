package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// AIPromptLogStatus is the outcome of a single draft attempt.
type AIPromptLogStatus string

const (
	PromptLogSuccess AIPromptLogStatus = "success"
	PromptLogFailed  AIPromptLogStatus = "failed"
)

// AIPromptLog is an insert-only audit record of one Drafter invocation.
// It is never consulted by control flow.
type AIPromptLog struct {
	ID           uuid.UUID         `json:"id"`
	CustomerID   uuid.NullUUID     `json:"customer_id,omitempty"` // Null when the customer lookup itself failed
	Status       AIPromptLogStatus `json:"status"`
	ErrorMessage sql.NullString    `json:"error_message,omitempty"`
	PromptSent   string            `json:"prompt_sent"`
	RawResponse  sql.NullString    `json:"raw_response,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// NewSuccessPromptLog records a draft attempt that produced a message.
func NewSuccessPromptLog(customerID uuid.UUID, promptSent, rawResponse string) *AIPromptLog {
	return &AIPromptLog{
		ID:          uuid.New(),
		CustomerID:  uuid.NullUUID{UUID: customerID, Valid: true},
		Status:      PromptLogSuccess,
		PromptSent:  promptSent,
		RawResponse: sql.NullString{String: rawResponse, Valid: true},
		CreatedAt:   time.Now().UTC(),
	}
}

// NewFailedPromptLog records a draft attempt that failed at any step.
func NewFailedPromptLog(customerID uuid.NullUUID, promptSent, errorMessage, rawResponse string) *AIPromptLog {
	l := &AIPromptLog{
		ID:           uuid.New(),
		CustomerID:   customerID,
		Status:       PromptLogFailed,
		ErrorMessage: sql.NullString{String: errorMessage, Valid: true},
		PromptSent:   promptSent,
		CreatedAt:    time.Now().UTC(),
	}
	if rawResponse != "" {
		l.RawResponse = sql.NullString{String: rawResponse, Valid: true}
	}
	return l
}
