package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"stagedoor/internal/models"
	"stagedoor/internal/repository"
	"stagedoor/internal/search"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	repos  *repository.Repositories
	search *search.Client
}

func NewHandlers(repos *repository.Repositories, searchClient *search.Client) *Handlers {
	return &Handlers{
		repos:  repos,
		search: searchClient,
	}
}

// HandleEventChanged mirrors a created or updated event into the index.
// The message is left unacked on failure so the durable subscription
// redelivers it.
func (h *Handlers) HandleEventChanged(m *stan.Msg) {
	var msg models.EventChangedMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		slog.Error("Failed to unmarshal event change", "subject", m.Subject, "error", err)
		m.Ack()
		return
	}

	if err := h.search.IndexEvent(context.Background(), &msg.Event); err != nil {
		slog.Error("Failed to index event", "event_id", msg.Event.ID, "error", err)
		return
	}

	slog.Info("Indexed event", "event_id", msg.Event.ID, "subject", m.Subject)
	m.Ack()
}

// HandleEventDeleted drops a deleted event from the index.
func (h *Handlers) HandleEventDeleted(m *stan.Msg) {
	var msg models.EventDeletedMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		slog.Error("Failed to unmarshal event deletion", "error", err)
		m.Ack()
		return
	}

	if err := h.search.DeleteEvent(context.Background(), msg.EventID); err != nil {
		slog.Error("Failed to remove event from index", "event_id", msg.EventID, "error", err)
		return
	}

	slog.Info("Removed event from index", "event_id", msg.EventID, "tickets_deleted", msg.TicketsDeleted)
	m.Ack()
}

// HandleTicketPurchased ingests a ticket sold by the external purchase
// flow. The document arrives in the legacy shape and is normalized to
// the canonical tri-state status before it is stored.
func (h *Handlers) HandleTicketPurchased(m *stan.Msg) {
	var doc models.LegacyTicketDoc
	if err := json.Unmarshal(m.Data, &doc); err != nil {
		slog.Error("Failed to unmarshal purchased ticket", "error", err)
		m.Ack()
		return
	}
	if doc.ID == "" || doc.EventID == "" {
		slog.Error("Discarding purchased ticket without ids", "ticket_id", doc.ID)
		m.Ack()
		return
	}

	ticket := models.NormalizeTicketStatus(&doc)
	if err := h.repos.Tickets.Upsert(context.Background(), &ticket); err != nil {
		slog.Error("Failed to store purchased ticket", "ticket_id", ticket.ID, "error", err)
		return
	}

	slog.Info("Stored purchased ticket", "ticket_id", ticket.ID, "event_id", ticket.EventID)
	m.Ack()
}

// HandleTicketUsed logs usage transitions for the audit trail. The
// authoritative write already happened in the API.
func (h *Handlers) HandleTicketUsed(m *stan.Msg) {
	var msg models.TicketUsedMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		slog.Error("Failed to unmarshal ticket usage", "error", err)
		m.Ack()
		return
	}

	slog.Info("Ticket used",
		"ticket_id", msg.TicketID, "event_id", msg.EventID,
		"venue_id", msg.VenueID, "actor", msg.Actor, "at", msg.Timestamp)
	m.Ack()
}
