package models

import "time"

// NATS subjects
const (
	SubjectEventCreated = "event.created"
	SubjectEventUpdated = "event.updated"
	SubjectEventDeleted = "event.deleted"
	SubjectTicketUsed   = "ticket.used"
	SubjectVenueDeleted = "venue.deleted"
	SubjectAdminCreated = "admin.created"

	// Published by the external purchase flow; consumed here to keep the
	// local ticket store current. Payload is the legacy document shape.
	SubjectTicketPurchased = "ticket.purchased"
)

// EventChangedMessage announces a created or updated event so the
// search index can be brought up to date.
type EventChangedMessage struct {
	Event     Event     `json:"event"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// EventDeletedMessage announces a deleted event.
type EventDeletedMessage struct {
	EventID        string    `json:"event_id"`
	VenueID        string    `json:"venue_id"`
	TicketsDeleted int       `json:"tickets_deleted"`
	Actor          string    `json:"actor"`
	Timestamp      time.Time `json:"timestamp"`
}

// TicketUsedMessage announces a ticket usage transition.
type TicketUsedMessage struct {
	TicketID  string    `json:"ticket_id"`
	EventID   string    `json:"event_id"`
	VenueID   string    `json:"venue_id"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// VenueDeletedMessage announces a venue deletion and how many
// principals the cascade reset.
type VenueDeletedMessage struct {
	VenueID         string    `json:"venue_id"`
	PrincipalsReset int       `json:"principals_reset"`
	Actor           string    `json:"actor"`
	Timestamp       time.Time `json:"timestamp"`
}

// AdminCreatedMessage announces a provisioned administrator.
type AdminCreatedMessage struct {
	AdminID   string    `json:"admin_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	VenueID   string    `json:"venue_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
