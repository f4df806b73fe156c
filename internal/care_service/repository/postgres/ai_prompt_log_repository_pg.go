package postgres

import (
	"context"
	"log/slog"

	"github.com/caredesk/golang_services/internal/care_service/domain"
)

type PgAIPromptLogRepository struct {
	db     PGXQuerier
	logger *slog.Logger
}

func NewPgAIPromptLogRepository(db PGXQuerier, logger *slog.Logger) *PgAIPromptLogRepository {
	return &PgAIPromptLogRepository{db: db, logger: logger}
}

func (r *PgAIPromptLogRepository) Create(ctx context.Context, entry *domain.AIPromptLog) error {
	query := `
		INSERT INTO ai_prompt_logs (id, customer_id, status, error_message, prompt_sent, raw_response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.CustomerID, entry.Status, entry.ErrorMessage,
		entry.PromptSent, entry.RawResponse, entry.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating AI prompt log", "error", err, "log_id", entry.ID)
		return err
	}
	return nil
}
