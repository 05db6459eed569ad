package models

import (
	"math"
	"time"
)

// Event display statuses. Derived, never stored: past wins over sold
// out, sold out wins over available.
const (
	EventStatusPast      = "past"
	EventStatusSoldOut   = "soldout"
	EventStatusAvailable = "available"
)

// DeriveEventStatus computes the display status of an event at the
// given instant.
func DeriveEventStatus(e *Event, now time.Time) string {
	if e.Date.Before(now) {
		return EventStatusPast
	}
	if e.TicketsSold >= e.MaxTickets {
		return EventStatusSoldOut
	}
	return EventStatusAvailable
}

// SafePrice coerces NaN and infinite prices to 0 so that a malformed
// ticket never poisons a revenue sum.
func SafePrice(price float64) float64 {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0
	}
	return price
}

// LegacyTicketDoc is the loose shape older exported ticket documents
// carried: a boolean used flag instead of the tri-state status.
type LegacyTicketDoc struct {
	ID           string     `json:"id"`
	EventID      string     `json:"eventId"`
	EventName    string     `json:"eventName"`
	VenueID      string     `json:"venueId"`
	UserID       string     `json:"userID"`
	UserEmail    string     `json:"userEmail"`
	TicketPrice  float64    `json:"ticketPrice"`
	PurchaseDate time.Time  `json:"purchaseDate"`
	Status       string     `json:"status,omitempty"`
	IsUsed       *bool      `json:"isUsed,omitempty"`
	UsedAt       *time.Time `json:"usedAt,omitempty"`
	TicketNumber string     `json:"ticketNumber,omitempty"`
}

// NormalizeTicketStatus collapses the two historical ticket shapes into
// the canonical tri-state representation at the read boundary.
func NormalizeTicketStatus(doc *LegacyTicketDoc) Ticket {
	status := doc.Status
	usedAt := doc.UsedAt
	switch status {
	case TicketConfirmed, TicketUsed, TicketCancelled:
		// Already canonical.
	default:
		if doc.IsUsed != nil && *doc.IsUsed {
			status = TicketUsed
		} else {
			status = TicketConfirmed
			usedAt = nil
		}
	}
	if status != TicketUsed {
		usedAt = nil
	}

	return Ticket{
		ID:           doc.ID,
		EventID:      doc.EventID,
		EventName:    doc.EventName,
		VenueID:      doc.VenueID,
		UserID:       doc.UserID,
		UserEmail:    doc.UserEmail,
		Price:        SafePrice(doc.TicketPrice),
		PurchaseDate: doc.PurchaseDate,
		Status:       status,
		UsedAt:       usedAt,
		TicketNumber: doc.TicketNumber,
	}
}
