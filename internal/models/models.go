package models

import "time"

// Auth

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	Principal Principal `json:"principal"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// Venues

type CreateVenueRequest struct {
	Name       string `json:"name" binding:"required"`
	AdminEmail string `json:"admin_email" binding:"required"`
}

type AddAdminRequest struct {
	Email      string `json:"email" binding:"required"`
	VenueAdmin bool   `json:"venue_admin"`
}

type RemoveAdminRequest struct {
	Email      string `json:"email" binding:"required"`
	VenueAdmin bool   `json:"venue_admin"`
}

// Events

type SaveEventRequest struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	VenueID     string    `json:"venue_id"`
	Date        time.Time `json:"date" binding:"required"`
	Price       float64   `json:"price"`
	MaxTickets  int       `json:"max_tickets"`
	IsFeatured  bool      `json:"is_featured"`
}

// EventView is an event plus its derived display status.
type EventView struct {
	Event
	Status string `json:"status"`
}

// Tickets

type MarkTicketUsedRequest struct {
	TicketID string `json:"ticket_id" binding:"required"`
}

// EventGroup aggregates the tickets of one event.
type EventGroup struct {
	EventID      string   `json:"event_id"`
	EventName    string   `json:"event_name"`
	Tickets      []Ticket `json:"tickets"`
	TotalRevenue float64  `json:"total_revenue"`
	UsedCount    int      `json:"used_count"`
	TotalCount   int      `json:"total_count"`
}

// TicketStats is the dashboard overview aggregate.
type TicketStats struct {
	TotalTickets int     `json:"total_tickets"`
	UsedTickets  int     `json:"used_tickets"`
	TotalRevenue float64 `json:"total_revenue"`
	ActiveEvents int     `json:"active_events"`
}

// Admin provisioning

type SetupFirstAdminRequest struct {
	Email string `json:"email" binding:"required"`
}

type CreateAdminRequest struct {
	Email   string `json:"email" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Role    Role   `json:"role" binding:"required"`
	VenueID string `json:"venue_id"`
}

type UpdateAdminRequest struct {
	Name    string  `json:"name"`
	Role    Role    `json:"role"`
	VenueID *string `json:"venue_id"`
	Active  *bool   `json:"active"`
}

// AdminEnvelope is the success/message envelope the privileged admin
// operations return.
type AdminEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	AdminID string `json:"admin_id,omitempty"`
}
