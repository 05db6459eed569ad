package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createAdminsTable,
		createVenuesTable,
		createEventsTable,
		createTicketsTable,
		createAdminsRoleIndex,
		createTicketsEventIndex,
		createEventsVenueIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    uid UUID PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL DEFAULT '',
    name VARCHAR(255) NOT NULL DEFAULT '',
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    venue_id UUID,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login TIMESTAMPTZ,

    CHECK (role IN ('siteAdmin', 'venueAdmin', 'subAdmin', 'user'))
);`

const createAdminsTable = `
CREATE TABLE IF NOT EXISTS admins (
    id UUID PRIMARY KEY,
    uid UUID UNIQUE NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    name VARCHAR(255) NOT NULL DEFAULT '',
    role VARCHAR(20) NOT NULL,
    venue_id UUID,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login TIMESTAMPTZ,

    CHECK (role IN ('siteAdmin', 'venueAdmin', 'subAdmin'))
);`

const createVenuesTable = `
CREATE TABLE IF NOT EXISTS venues (
    id UUID PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    admins TEXT[] NOT NULL DEFAULT '{}',
    sub_admins TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY,
    name VARCHAR(500) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    venue_id UUID NOT NULL,
    venue_name VARCHAR(255) NOT NULL DEFAULT '',
    date TIMESTAMPTZ NOT NULL,
    price DECIMAL(10,2) NOT NULL DEFAULT 0,
    max_tickets INTEGER NOT NULL DEFAULT 0,
    tickets_sold INTEGER NOT NULL DEFAULT 0,
    is_featured BOOLEAN NOT NULL DEFAULT FALSE,
    image_url TEXT NOT NULL DEFAULT '',
    created_by UUID,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id UUID PRIMARY KEY,
    event_id UUID NOT NULL REFERENCES events(id),
    event_name VARCHAR(500) NOT NULL DEFAULT '',
    venue_id UUID NOT NULL,
    user_id VARCHAR(255) NOT NULL DEFAULT '',
    user_email VARCHAR(255) NOT NULL DEFAULT '',
    price DECIMAL(10,2) NOT NULL DEFAULT 0,
    purchase_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    status VARCHAR(20) NOT NULL DEFAULT 'CONFIRMED',
    used_at TIMESTAMPTZ,
    ticket_number VARCHAR(50) NOT NULL DEFAULT '',

    CHECK (status IN ('CONFIRMED', 'USED', 'CANCELLED'))
);`

const createAdminsRoleIndex = `
CREATE INDEX IF NOT EXISTS admins_role_idx ON admins (role) WHERE active;`

const createTicketsEventIndex = `
CREATE INDEX IF NOT EXISTS tickets_event_id_idx ON tickets (event_id);`

const createEventsVenueIndex = `
CREATE INDEX IF NOT EXISTS events_venue_id_idx ON events (venue_id);`
