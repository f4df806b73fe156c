package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/caredesk/golang_services/internal/care_service/domain"
)

type PgEligibilityRepository struct {
	db     PGXQuerier
	logger *slog.Logger
}

func NewPgEligibilityRepository(db PGXQuerier, logger *slog.Logger) *PgEligibilityRepository {
	return &PgEligibilityRepository{db: db, logger: logger}
}

// FindEligibleCustomers selects customers whose latest conversation
// message is older than the quiet period and who have no pending care
// message. The rule is owned by the product side; keep it confined to
// this query.
func (r *PgEligibilityRepository) FindEligibleCustomers(ctx context.Context, quietPeriod time.Duration, limit int) ([]*domain.Customer, error) {
	query := `
		SELECT c.id, c.user_id, c.thread_id, c.name
		FROM customers c
		JOIN LATERAL (
			SELECT MAX(created_at) AS last_contact_at
			FROM conversation_messages m
			WHERE m.customer_id = c.id
		) lc ON TRUE
		WHERE lc.last_contact_at IS NOT NULL
		  AND lc.last_contact_at <= $1
		  AND NOT EXISTS (
			SELECT 1 FROM care_messages cm
			WHERE cm.customer_id = c.id AND cm.status = $2
		  )
		ORDER BY lc.last_contact_at ASC
		LIMIT $3
	`
	cutoff := time.Now().UTC().Add(-quietPeriod)
	rows, err := r.db.Query(ctx, query, cutoff, domain.StatusPending, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error finding eligible customers", "error", err)
		return nil, err
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		c := &domain.Customer{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.ThreadID, &c.Name); err != nil {
			r.logger.ErrorContext(ctx, "Error scanning eligible customer row", "error", err)
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating eligible customer rows", "error", err)
		return nil, err
	}
	return customers, nil
}
