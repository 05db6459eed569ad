package repository

import (
	"database/sql"

	"stagedoor/internal/database"
)

type Repositories struct {
	Users   *UserRepository
	Admins  *AdminRepository
	Venues  *VenueRepository
	Events  *EventRepository
	Tickets *TicketRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:   NewUserRepository(db),
		Admins:  NewAdminRepository(db),
		Venues:  NewVenueRepository(db),
		Events:  NewEventRepository(db),
		Tickets: NewTicketRepository(db),
	}
}

// nullable maps an empty string to NULL for UUID columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// fromNull maps a NULL column back to the empty string.
func fromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
