package repository

import (
	"context"
	"database/sql"
	"time"

	"stagedoor/internal/database"
	"stagedoor/internal/models"
)

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, event_id, event_name, venue_id, user_id, user_email,
	price, purchase_date, status, used_at, ticket_number`

func (r *TicketRepository) scan(row interface{ Scan(...any) error }) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	var usedAt sql.NullTime

	err := row.Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.EventName,
		&ticket.VenueID,
		&ticket.UserID,
		&ticket.UserEmail,
		&ticket.Price,
		&ticket.PurchaseDate,
		&ticket.Status,
		&usedAt,
		&ticket.TicketNumber,
	)
	if err != nil {
		return nil, err
	}

	if usedAt.Valid {
		ticket.UsedAt = &usedAt.Time
	}
	return ticket, nil
}

// Upsert inserts a ticket arriving from the external purchase flow,
// replacing any earlier copy of the same document.
func (r *TicketRepository) Upsert(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (id, event_id, event_name, venue_id, user_id, user_email,
			price, purchase_date, status, used_at, ticket_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET event_name = EXCLUDED.event_name,
		    user_email = EXCLUDED.user_email,
		    price = EXCLUDED.price,
		    status = EXCLUDED.status,
		    used_at = EXCLUDED.used_at,
		    ticket_number = EXCLUDED.ticket_number`

	var usedAt any
	if ticket.UsedAt != nil {
		usedAt = *ticket.UsedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.EventID,
		ticket.EventName,
		ticket.VenueID,
		ticket.UserID,
		ticket.UserEmail,
		ticket.Price,
		ticket.PurchaseDate,
		ticket.Status,
		usedAt,
		ticket.TicketNumber,
	)
	return err
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	ticket, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ticket, err
}

// List returns tickets, scoped to a venue when venueID is non-empty.
func (r *TicketRepository) List(ctx context.Context, venueID string) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	args := []any{}
	if venueID != "" {
		query += ` WHERE venue_id = $1`
		args = append(args, venueID)
	}
	query += ` ORDER BY purchase_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		ticket, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}

	return tickets, rows.Err()
}

// MarkUsed flips a confirmed ticket to used in a single guarded write.
// Returns false without writing anything observable when the ticket is
// already used or cancelled.
func (r *TicketRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	query := `
		UPDATE tickets
		SET status = 'USED', used_at = $1
		WHERE id = $2 AND status = 'CONFIRMED'`

	result, err := r.db.ExecContext(ctx, query, usedAt, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// DeleteByEvent removes every child ticket of an event as one batched
// delete. Returns how many rows went away.
func (r *TicketRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	query := `DELETE FROM tickets WHERE event_id = $1`
	result, err := r.db.ExecContext(ctx, query, eventID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
