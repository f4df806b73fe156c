package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caredesk/golang_services/internal/care_service/domain"
)

type PgCareMessageRepository struct {
	db     PGXQuerier
	logger *slog.Logger
}

func NewPgCareMessageRepository(db PGXQuerier, logger *slog.Logger) *PgCareMessageRepository {
	return &PgCareMessageRepository{db: db, logger: logger}
}

const careMessageColumns = `id, customer_id, thread_id, user_id, content, image_url, scheduled_at, status, prompt_log, error_message, processed_at, created_at, updated_at`

func (r *PgCareMessageRepository) Create(ctx context.Context, msg *domain.CareMessage) error {
	query := `
		INSERT INTO care_messages (id, customer_id, thread_id, user_id, content, image_url, scheduled_at, status, prompt_log, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.CustomerID, msg.ThreadID, msg.UserID, msg.Content, msg.ImageURL,
		msg.ScheduledAt, msg.Status, msg.PromptLog, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating care message", "error", err, "message_id", msg.ID)
		return err
	}
	r.logger.InfoContext(ctx, "Care message created", "message_id", msg.ID, "scheduled_at", msg.ScheduledAt)
	return nil
}

func (r *PgCareMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CareMessage, error) {
	query := `SELECT ` + careMessageColumns + ` FROM care_messages WHERE id = $1`
	msg := &domain.CareMessage{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.CustomerID, &msg.ThreadID, &msg.UserID, &msg.Content, &msg.ImageURL,
		&msg.ScheduledAt, &msg.Status, &msg.PromptLog, &msg.ErrorMessage, &msg.ProcessedAt,
		&msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting care message by ID", "error", err, "message_id", id)
		return nil, err
	}
	return msg, nil
}

// ClaimDue flips due pending rows to processing and returns them in one
// statement. The locking CTE plus UPDATE ... RETURNING guarantees that
// overlapping dispatch cycles never claim the same message twice.
func (r *PgCareMessageRepository) ClaimDue(ctx context.Context, dueTime time.Time, limit int) ([]*domain.CareMessage, error) {
	query := `
		WITH due_message_ids AS (
			SELECT id
			FROM care_messages
			WHERE status = $1 AND scheduled_at <= $2
			ORDER BY scheduled_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		UPDATE care_messages cm
		SET status = $4, updated_at = $5
		FROM due_message_ids dm
		WHERE cm.id = dm.id
		RETURNING cm.id, cm.customer_id, cm.thread_id, cm.user_id, cm.content, cm.image_url,
		          cm.scheduled_at, cm.status, cm.prompt_log, cm.error_message, cm.processed_at,
		          cm.created_at, cm.updated_at;
	`
	now := time.Now().UTC()
	rows, err := r.db.Query(ctx, query, domain.StatusPending, dueTime, limit, domain.StatusProcessing, now)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error claiming due care messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	var msgs []*domain.CareMessage
	for rows.Next() {
		msg := &domain.CareMessage{}
		if err := rows.Scan(
			&msg.ID, &msg.CustomerID, &msg.ThreadID, &msg.UserID, &msg.Content, &msg.ImageURL,
			&msg.ScheduledAt, &msg.Status, &msg.PromptLog, &msg.ErrorMessage, &msg.ProcessedAt,
			&msg.CreatedAt, &msg.UpdatedAt,
		); err != nil {
			r.logger.ErrorContext(ctx, "Error scanning claimed care message row", "error", err)
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating claimed care message rows", "error", err)
		return nil, err
	}

	if len(msgs) == 0 {
		return nil, domain.ErrNoDueMessages
	}

	r.logger.InfoContext(ctx, "Claimed due care messages", "count", len(msgs))
	return msgs, nil
}

func (r *PgCareMessageRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.markTerminal(ctx, id, domain.StatusSent, at, "")
}

func (r *PgCareMessageRepository) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time, reason string) error {
	return r.markTerminal(ctx, id, domain.StatusFailed, at, reason)
}

func (r *PgCareMessageRepository) markTerminal(ctx context.Context, id uuid.UUID, status domain.CareMessageStatus, at time.Time, reason string) error {
	query := `
		UPDATE care_messages
		SET status = $1, processed_at = $2, error_message = NULLIF($3, ''), updated_at = $4
		WHERE id = $5 AND status = $6
	`
	tag, err := r.db.Exec(ctx, query, status, at, reason, time.Now().UTC(), id, domain.StatusProcessing)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating care message status", "error", err, "message_id", id, "new_status", status)
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Care message not in processing state for terminal update", "message_id", id, "new_status", status)
		return domain.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Care message status updated", "message_id", id, "new_status", status)
	return nil
}

func (r *PgCareMessageRepository) HasPending(ctx context.Context, userID uuid.UUID, threadID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM care_messages cm
			JOIN customers c ON c.id = cm.customer_id
			WHERE c.user_id = $1 AND c.thread_id = $2 AND cm.status = $3
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, threadID, domain.StatusPending).Scan(&exists); err != nil {
		r.logger.ErrorContext(ctx, "Error checking for pending care message", "error", err, "thread_id", threadID)
		return false, err
	}
	return exists, nil
}
