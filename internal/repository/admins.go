package repository

import (
	"context"
	"database/sql"

	"stagedoor/internal/database"
	"stagedoor/internal/models"
)

type AdminRepository struct {
	db *database.DB
}

func NewAdminRepository(db *database.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

const adminColumns = `id, uid, email, name, role, venue_id, active, created_at, last_login`

func (r *AdminRepository) scan(row interface{ Scan(...any) error }) (*models.AdminRecord, error) {
	rec := &models.AdminRecord{}
	var venueID sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&rec.ID,
		&rec.UID,
		&rec.Email,
		&rec.Name,
		&rec.Role,
		&venueID,
		&rec.Active,
		&rec.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		return nil, err
	}

	rec.VenueID = fromNull(venueID)
	if lastLogin.Valid {
		rec.LastLogin = &lastLogin.Time
	}
	return rec, nil
}

func (r *AdminRepository) Create(ctx context.Context, rec *models.AdminRecord) error {
	query := `
		INSERT INTO admins (id, uid, email, name, role, venue_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		rec.ID,
		rec.UID,
		rec.Email,
		rec.Name,
		rec.Role,
		nullable(rec.VenueID),
		rec.Active,
	).Scan(&rec.CreatedAt)
}

// CreateFirstSiteAdmin inserts a site admin record only while no active
// site admin exists. The guard and the insert run as one statement so
// two concurrent bootstraps cannot both succeed.
func (r *AdminRepository) CreateFirstSiteAdmin(ctx context.Context, rec *models.AdminRecord) (bool, error) {
	query := `
		INSERT INTO admins (id, uid, email, name, role, active)
		SELECT $1, $2, $3, $4, 'siteAdmin', TRUE
		WHERE NOT EXISTS (
			SELECT 1 FROM admins WHERE role = 'siteAdmin' AND active
		)`

	result, err := r.db.ExecContext(ctx, query, rec.ID, rec.UID, rec.Email, rec.Name)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (*models.AdminRecord, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	rec, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (r *AdminRepository) GetByUID(ctx context.Context, uid string) (*models.AdminRecord, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE uid = $1`
	rec, err := r.scan(r.db.QueryRowContext(ctx, query, uid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.AdminRecord, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE email = $1`
	rec, err := r.scan(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (r *AdminRepository) Update(ctx context.Context, rec *models.AdminRecord) error {
	query := `
		UPDATE admins
		SET name = $1, role = $2, venue_id = $3, active = $4
		WHERE id = $5`

	_, err := r.db.ExecContext(ctx, query,
		rec.Name,
		rec.Role,
		nullable(rec.VenueID),
		rec.Active,
		rec.ID,
	)
	return err
}

func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM admins WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *AdminRepository) List(ctx context.Context) ([]models.AdminRecord, error) {
	query := `SELECT ` + adminColumns + ` FROM admins ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AdminRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// CountActiveSiteAdmins reports how many active site admin records
// exist. Used by the bootstrap precheck.
func (r *AdminRepository) CountActiveSiteAdmins(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM admins WHERE role = 'siteAdmin' AND active`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// DeactivateByVenue clears the venue link and deactivates every admin
// record pointing at the venue. Part of the venue-deletion cascade.
func (r *AdminRepository) DeactivateByVenue(ctx context.Context, venueID string) (int64, error) {
	query := `UPDATE admins SET active = FALSE, venue_id = NULL WHERE venue_id = $1`
	result, err := r.db.ExecContext(ctx, query, venueID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *AdminRepository) TouchLastLogin(ctx context.Context, uid string) error {
	query := `UPDATE admins SET last_login = NOW() WHERE uid = $1`
	_, err := r.db.ExecContext(ctx, query, uid)
	return err
}
