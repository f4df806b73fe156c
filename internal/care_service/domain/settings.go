package domain

import "github.com/google/uuid"

// DeliverySettings holds a user's outbound endpoints. Empty values mean
// "not configured"; that is a valid state, not an error.
type DeliverySettings struct {
	UserID        uuid.UUID `json:"user_id"`
	WebhookURL    string    `json:"webhook_url"`
	AIEndpointURL string    `json:"ai_endpoint_url"`
}

// Placeholder tokens substituted verbatim into a prompt template.
// Literal string replacement is intentional; do not swap in a templating
// engine without flagging the behavior change.
const (
	TokenMessageHistory  = "{{MESSAGE_HISTORY}}"
	TokenCustomerName    = "{{CUSTOMER_NAME}}"
	TokenCurrentDatetime = "{{CURRENT_DATETIME}}"
)

// PromptConfig is a user's prompt template for AI-generated drafts.
type PromptConfig struct {
	UserID   uuid.UUID `json:"user_id"`
	Template string    `json:"prompt_template"`
}
