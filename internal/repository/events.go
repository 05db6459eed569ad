package repository

import (
	"context"
	"database/sql"

	"stagedoor/internal/database"
	"stagedoor/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, name, description, venue_id, venue_name, date, price,
	max_tickets, tickets_sold, is_featured, image_url, created_by, created_at, updated_at`

func (r *EventRepository) scan(row interface{ Scan(...any) error }) (*models.Event, error) {
	event := &models.Event{}
	var createdBy sql.NullString

	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.VenueID,
		&event.VenueName,
		&event.Date,
		&event.Price,
		&event.MaxTickets,
		&event.TicketsSold,
		&event.IsFeatured,
		&event.ImageURL,
		&createdBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.CreatedBy = fromNull(createdBy)
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, name, description, venue_id, venue_name, date, price,
			max_tickets, tickets_sold, is_featured, image_url, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11)
		RETURNING tickets_sold, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		event.ID,
		event.Name,
		event.Description,
		event.VenueID,
		event.VenueName,
		event.Date,
		event.Price,
		event.MaxTickets,
		event.IsFeatured,
		event.ImageURL,
		nullable(event.CreatedBy),
	).Scan(&event.TicketsSold, &event.CreatedAt, &event.UpdatedAt)
}

// Update writes the editable fields and refreshes updated_at. The image
// URL is written separately, only when an upload actually happened.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, venue_id = $3, venue_name = $4, date = $5,
		    price = $6, max_tickets = $7, is_featured = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at`

	return r.db.QueryRowContext(ctx, query,
		event.Name,
		event.Description,
		event.VenueID,
		event.VenueName,
		event.Date,
		event.Price,
		event.MaxTickets,
		event.IsFeatured,
		event.ID,
	).Scan(&event.UpdatedAt)
}

func (r *EventRepository) UpdateImageURL(ctx context.Context, id, imageURL string) error {
	query := `UPDATE events SET image_url = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, imageURL, id)
	return err
}

func (r *EventRepository) SetFeatured(ctx context.Context, id string, featured bool) error {
	query := `UPDATE events SET is_featured = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, featured, id)
	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return event, err
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// List returns events newest first, featured first, scoped to a venue
// when venueID is non-empty. Scoping happens in SQL so out-of-scope
// tenant rows never leave the database.
func (r *EventRepository) List(ctx context.Context, venueID string) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	args := []any{}
	if venueID != "" {
		query += ` WHERE venue_id = $1`
		args = append(args, venueID)
	}
	query += ` ORDER BY is_featured DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}

	return events, rows.Err()
}
