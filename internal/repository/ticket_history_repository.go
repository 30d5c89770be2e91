package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/portal-core/internal/domain"
)

// TicketHistoryRepository persists the append-only ticket audit trail.
type TicketHistoryRepository interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.HistoryEntry, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository instantiates repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, actor_label, action, created_at)
        VALUES ($1,$2,$3,$4)
        RETURNING seq`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.ActorLabel,
		entry.Action,
		entry.CreatedAt,
	).Scan(&entry.Seq)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT seq, ticket_id, actor_label, action, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY seq`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.Seq,
			&entry.TicketID,
			&entry.ActorLabel,
			&entry.Action,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
