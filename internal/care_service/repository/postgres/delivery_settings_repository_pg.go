package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caredesk/golang_services/internal/care_service/domain"
)

type PgDeliverySettingsRepository struct {
	db     PGXQuerier
	logger *slog.Logger
}

func NewPgDeliverySettingsRepository(db PGXQuerier, logger *slog.Logger) *PgDeliverySettingsRepository {
	return &PgDeliverySettingsRepository{db: db, logger: logger}
}

func (r *PgDeliverySettingsRepository) GetForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]domain.DeliverySettings, error) {
	settings := make(map[uuid.UUID]domain.DeliverySettings, len(userIDs))
	if len(userIDs) == 0 {
		return settings, nil
	}

	query := `
		SELECT user_id, COALESCE(webhook_url, ''), COALESCE(ai_endpoint_url, '')
		FROM user_delivery_settings
		WHERE user_id = ANY($1)
	`
	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error loading delivery settings", "error", err, "user_count", len(userIDs))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.DeliverySettings
		if err := rows.Scan(&s.UserID, &s.WebhookURL, &s.AIEndpointURL); err != nil {
			r.logger.ErrorContext(ctx, "Error scanning delivery settings row", "error", err)
			return nil, err
		}
		s.WebhookURL = strings.TrimSpace(s.WebhookURL)
		s.AIEndpointURL = strings.TrimSpace(s.AIEndpointURL)
		settings[s.UserID] = s
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating delivery settings rows", "error", err)
		return nil, err
	}
	return settings, nil
}

func (r *PgDeliverySettingsRepository) GetForUser(ctx context.Context, userID uuid.UUID) (domain.DeliverySettings, error) {
	query := `
		SELECT user_id, COALESCE(webhook_url, ''), COALESCE(ai_endpoint_url, '')
		FROM user_delivery_settings
		WHERE user_id = $1
	`
	var s domain.DeliverySettings
	err := r.db.QueryRow(ctx, query, userID).Scan(&s.UserID, &s.WebhookURL, &s.AIEndpointURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Missing settings are a valid, non-exceptional state.
			return domain.DeliverySettings{UserID: userID}, nil
		}
		r.logger.ErrorContext(ctx, "Error loading delivery settings for user", "error", err, "user_id", userID)
		return domain.DeliverySettings{}, err
	}
	s.WebhookURL = strings.TrimSpace(s.WebhookURL)
	s.AIEndpointURL = strings.TrimSpace(s.AIEndpointURL)
	return s, nil
}
