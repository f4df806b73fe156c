package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a contact in the care inbox, keyed to an external thread.
type Customer struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	ThreadID string    `json:"thread_id"`
	Name     string    `json:"name"`
}

// ConversationSender identifies who wrote a conversation message.
type ConversationSender string

const (
	SenderShop     ConversationSender = "shop"
	SenderCustomer ConversationSender = "customer"
)

// ConversationMessage is one entry of a customer's message history.
// The care core only reads these.
type ConversationMessage struct {
	ID         uuid.UUID          `json:"id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	Sender     ConversationSender `json:"sender"`
	Text       string             `json:"text"`
	CreatedAt  time.Time          `json:"created_at"`
}
