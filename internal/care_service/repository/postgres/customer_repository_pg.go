package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caredesk/golang_services/internal/care_service/domain"
)

type PgCustomerRepository struct {
	db     PGXQuerier
	logger *slog.Logger
}

func NewPgCustomerRepository(db PGXQuerier, logger *slog.Logger) *PgCustomerRepository {
	return &PgCustomerRepository{db: db, logger: logger}
}

func (r *PgCustomerRepository) GetByThread(ctx context.Context, userID uuid.UUID, threadID string) (*domain.Customer, error) {
	query := `SELECT id, user_id, thread_id, name FROM customers WHERE user_id = $1 AND thread_id = $2`
	c := &domain.Customer{}
	err := r.db.QueryRow(ctx, query, userID, threadID).Scan(&c.ID, &c.UserID, &c.ThreadID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error loading customer by thread", "error", err, "thread_id", threadID)
		return nil, err
	}
	return c, nil
}

func (r *PgCustomerRepository) ListConversation(ctx context.Context, customerID uuid.UUID) ([]domain.ConversationMessage, error) {
	query := `
		SELECT id, customer_id, sender, text, created_at
		FROM conversation_messages
		WHERE customer_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing conversation", "error", err, "customer_id", customerID)
		return nil, err
	}
	defer rows.Close()

	var history []domain.ConversationMessage
	for rows.Next() {
		var m domain.ConversationMessage
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.Sender, &m.Text, &m.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Error scanning conversation message row", "error", err)
			return nil, err
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating conversation message rows", "error", err)
		return nil, err
	}
	return history, nil
}
