package models

import (
	"time"
)

// Role is the privilege level of a principal.
type Role string

const (
	RoleSiteAdmin  Role = "siteAdmin"
	RoleVenueAdmin Role = "venueAdmin"
	RoleSubAdmin   Role = "subAdmin"
	RoleUser       Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSiteAdmin, RoleVenueAdmin, RoleSubAdmin, RoleUser:
		return true
	}
	return false
}

// Admin reports whether the role carries any administrative privilege.
func (r Role) Admin() bool {
	return r == RoleSiteAdmin || r == RoleVenueAdmin || r == RoleSubAdmin
}

// Principal is the resolved identity, role and venue context for an
// authenticated actor. VenueID is empty for site admins and plain users.
type Principal struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	VenueID string `json:"venue_id,omitempty"`
	Active  bool   `json:"active"`
}

// User represents a self-service login in the users store. Venue
// workflows write role/venue assignments onto these rows.
type User struct {
	UID          string     `json:"uid" db:"uid"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	Role         Role       `json:"role" db:"role"`
	VenueID      string     `json:"venue_id" db:"venue_id"`
	Active       bool       `json:"active" db:"active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLogin    *time.Time `json:"last_login" db:"last_login"`
}

// AdminRecord is a provisioned administrator, distinct from the
// self-service login. The role resolver consults these before users.
type AdminRecord struct {
	ID        string     `json:"id" db:"id"`
	UID       string     `json:"uid" db:"uid"`
	Email     string     `json:"email" db:"email"`
	Name      string     `json:"name" db:"name"`
	Role      Role       `json:"role" db:"role"`
	VenueID   string     `json:"venue_id" db:"venue_id"`
	Active    bool       `json:"active" db:"active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	LastLogin *time.Time `json:"last_login" db:"last_login"`
}

// Venue is a tenant owning events and ticket sales. Admins and
// SubAdmins hold member emails; each must correspond to a principal
// whose venue and role match.
type Venue struct {
	ID        string   `json:"id" db:"id"`
	Name      string   `json:"name" db:"name"`
	Admins    []string `json:"admins" db:"admins"`
	SubAdmins []string `json:"sub_admins" db:"sub_admins"`
}

// Event is a ticketed occasion belonging to exactly one venue.
// VenueName is a denormalized copy refreshed on every save.
type Event struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	VenueID     string    `json:"venue_id" db:"venue_id"`
	VenueName   string    `json:"venue_name" db:"venue_name"`
	Date        time.Time `json:"date" db:"date"`
	Price       float64   `json:"price" db:"price"`
	MaxTickets  int       `json:"max_tickets" db:"max_tickets"`
	TicketsSold int       `json:"tickets_sold" db:"tickets_sold"`
	IsFeatured  bool      `json:"is_featured" db:"is_featured"`
	ImageURL    string    `json:"image_url,omitempty" db:"image_url"`
	CreatedBy   string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Ticket status values. USED and CANCELLED are terminal.
const (
	TicketConfirmed = "CONFIRMED"
	TicketUsed      = "USED"
	TicketCancelled = "CANCELLED"
)

// Ticket represents one sold admission. Created by the external
// purchase flow; this system only reads, aggregates, marks used and
// cascades deletes.
type Ticket struct {
	ID           string     `json:"id" db:"id"`
	EventID      string     `json:"event_id" db:"event_id"`
	EventName    string     `json:"event_name" db:"event_name"`
	VenueID      string     `json:"venue_id" db:"venue_id"`
	UserID       string     `json:"user_id" db:"user_id"`
	UserEmail    string     `json:"user_email" db:"user_email"`
	Price        float64    `json:"price" db:"price"`
	PurchaseDate time.Time  `json:"purchase_date" db:"purchase_date"`
	Status       string     `json:"status" db:"status"`
	UsedAt       *time.Time `json:"used_at,omitempty" db:"used_at"`
	TicketNumber string     `json:"ticket_number,omitempty" db:"ticket_number"`
}
