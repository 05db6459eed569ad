package repository

import (
	"context"
	"database/sql"

	"stagedoor/internal/database"
	"stagedoor/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `uid, email, password_hash, name, role, venue_id, active, created_at, last_login`

func (r *UserRepository) scan(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	var venueID sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.UID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&venueID,
		&user.Active,
		&user.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		return nil, err
	}

	user.VenueID = fromNull(venueID)
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (uid, email, password_hash, name, role, venue_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		user.UID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		nullable(user.VenueID),
		user.Active,
	).Scan(&user.CreatedAt)
}

func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	user, err := r.scan(r.db.QueryRowContext(ctx, query, uid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := r.scan(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, uid, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE uid = $2`
	_, err := r.db.ExecContext(ctx, query, passwordHash, uid)
	return err
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, uid string) error {
	query := `UPDATE users SET last_login = NOW() WHERE uid = $1`
	_, err := r.db.ExecContext(ctx, query, uid)
	return err
}

// AssignVenueRole points a principal at a venue with the given role.
func (r *UserRepository) AssignVenueRole(ctx context.Context, uid string, role models.Role, venueID string) error {
	query := `UPDATE users SET role = $1, venue_id = $2 WHERE uid = $3`
	_, err := r.db.ExecContext(ctx, query, role, nullable(venueID), uid)
	return err
}

// ResetToUser strips any venue affiliation and demotes to plain user.
func (r *UserRepository) ResetToUser(ctx context.Context, uid string) error {
	query := `UPDATE users SET role = 'user', venue_id = NULL WHERE uid = $1`
	_, err := r.db.ExecContext(ctx, query, uid)
	return err
}

func (r *UserRepository) ListByVenue(ctx context.Context, venueID string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE venue_id = $1`

	rows, err := r.db.QueryContext(ctx, query, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

// ListVenueRoles returns principals currently holding a venue role,
// used by the management page and the reconciliation sweep.
func (r *UserRepository) ListVenueRoles(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role IN ('venueAdmin', 'subAdmin')
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}
