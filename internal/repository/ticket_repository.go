package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/pkg/util"
)

// TicketFilter captures listing parameters. TextQuery matches ticket
// number, subject and creator email.
type TicketFilter struct {
	TextQuery    *string
	Status       *domain.TicketStatus
	CreatorEmail *string
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create inserts the ticket together with its opening history entry
	// in one transaction so no ticket ever exists without an audit trail.
	Create(ctx context.Context, ticket *domain.Ticket, entry *domain.HistoryEntry) error
	// SaveResponse persists a status flip together with its history entry
	// in one transaction, guarded by the ticket's version so two
	// concurrent responders cannot both flip the same state.
	SaveResponse(ctx context.Context, ticket *domain.Ticket, entry *domain.HistoryEntry) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByTicketNo(ctx context.Context, ticketNo string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_no, subject, message, creator_email, party_name, party_type,
       to_operator, status, version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, entry *domain.HistoryEntry) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO tickets (ticket_no, subject, message, creator_email, party_name, party_type, to_operator, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, version, created_at, updated_at`
	if err := tx.QueryRow(ctx, insert,
		ticket.TicketNo,
		ticket.Subject,
		ticket.Message,
		ticket.CreatorEmail,
		ticket.PartyName,
		ticket.PartyType,
		ticket.ToOperator,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}

	entry.TicketID = ticket.ID
	if err := tx.QueryRow(ctx,
		`INSERT INTO ticket_history (ticket_id, actor_label, action, created_at)
         VALUES ($1,$2,$3,$4) RETURNING seq`,
		entry.TicketID, entry.ActorLabel, entry.Action, entry.CreatedAt,
	).Scan(&entry.Seq); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) SaveResponse(ctx context.Context, ticket *domain.Ticket, entry *domain.HistoryEntry) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx,
		`UPDATE tickets SET status=$1, version=version+1, updated_at=NOW() WHERE id=$2 AND version=$3`,
		ticket.Status, ticket.ID, ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return util.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticket.ID})
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO ticket_history (ticket_id, actor_label, action, created_at)
         VALUES ($1,$2,$3,$4) RETURNING seq`,
		entry.TicketID, entry.ActorLabel, entry.Action, entry.CreatedAt,
	).Scan(&entry.Seq); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetByTicketNo(ctx context.Context, ticketNo string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_no=$1`, ticketNo)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.TicketNo,
		&ticket.Subject,
		&ticket.Message,
		&ticket.CreatorEmail,
		&ticket.PartyName,
		&ticket.PartyType,
		&ticket.ToOperator,
		&ticket.Status,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.CreatorEmail != nil {
		args = append(args, *filter.CreatorEmail)
		clauses = append(clauses, fmt.Sprintf("creator_email=$%d", len(args)))
	}
	if filter.TextQuery != nil && strings.TrimSpace(*filter.TextQuery) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.TextQuery)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(ticket_no) LIKE %s OR LOWER(subject) LIKE %s OR LOWER(creator_email) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.TicketNo,
			&ticket.Subject,
			&ticket.Message,
			&ticket.CreatorEmail,
			&ticket.PartyName,
			&ticket.PartyType,
			&ticket.ToOperator,
			&ticket.Status,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
