package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caredesk/golang_services/internal/care_service/domain"
)

type PgPromptConfigRepository struct {
	db     PGXQuerier
	logger *slog.Logger
}

func NewPgPromptConfigRepository(db PGXQuerier, logger *slog.Logger) *PgPromptConfigRepository {
	return &PgPromptConfigRepository{db: db, logger: logger}
}

func (r *PgPromptConfigRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.PromptConfig, error) {
	query := `SELECT user_id, prompt_template FROM prompt_configs WHERE user_id = $1`
	cfg := &domain.PromptConfig{}
	err := r.db.QueryRow(ctx, query, userID).Scan(&cfg.UserID, &cfg.Template)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error loading prompt config", "error", err, "user_id", userID)
		return nil, err
	}
	return cfg, nil
}
