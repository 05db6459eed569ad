package repository

import (
	"context"
	"database/sql"

	"stagedoor/internal/database"
	"stagedoor/internal/models"

	"github.com/lib/pq"
)

type VenueRepository struct {
	db *database.DB
}

func NewVenueRepository(db *database.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

func (r *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	query := `
		INSERT INTO venues (id, name, admins, sub_admins)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		venue.ID,
		venue.Name,
		pq.Array(venue.Admins),
		pq.Array(venue.SubAdmins),
	)
	return err
}

func (r *VenueRepository) GetByID(ctx context.Context, id string) (*models.Venue, error) {
	venue := &models.Venue{}
	query := `SELECT id, name, admins, sub_admins FROM venues WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&venue.ID,
		&venue.Name,
		pq.Array(&venue.Admins),
		pq.Array(&venue.SubAdmins),
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return venue, err
}

func (r *VenueRepository) List(ctx context.Context) ([]models.Venue, error) {
	query := `SELECT id, name, admins, sub_admins FROM venues ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		var venue models.Venue
		err := rows.Scan(
			&venue.ID,
			&venue.Name,
			pq.Array(&venue.Admins),
			pq.Array(&venue.SubAdmins),
		)
		if err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}

	return venues, rows.Err()
}

func (r *VenueRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM venues WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// AddMember appends an email to the venue's admins or sub_admins array.
func (r *VenueRepository) AddMember(ctx context.Context, venueID, email string, venueAdmin bool) error {
	column := "sub_admins"
	if venueAdmin {
		column = "admins"
	}

	query := `UPDATE venues SET ` + column + ` = array_append(` + column + `, $1) WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, email, venueID)
	return err
}

// RemoveMember removes an email from the venue's admins or sub_admins array.
func (r *VenueRepository) RemoveMember(ctx context.Context, venueID, email string, venueAdmin bool) error {
	column := "sub_admins"
	if venueAdmin {
		column = "admins"
	}

	query := `UPDATE venues SET ` + column + ` = array_remove(` + column + `, $1) WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, email, venueID)
	return err
}

// GetName resolves a venue's display name server-side.
func (r *VenueRepository) GetName(ctx context.Context, id string) (string, error) {
	var name string
	query := `SELECT name FROM venues WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return name, err
}
