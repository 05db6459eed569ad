package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/authz"
	"stagedoor/internal/models"
)

type ticketStore interface {
	List(ctx context.Context, venueID string) ([]models.Ticket, error)
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)
}

type eventLister interface {
	List(ctx context.Context, venueID string) ([]models.Event, error)
}

type publisher interface {
	Publish(subject string, data interface{}) error
}

// TicketService serves the check-in desk: listing, grouping and the
// mark-used transition.
type TicketService struct {
	tickets ticketStore
	events  eventLister
	nats    publisher
}

func NewTicketService(tickets ticketStore, events eventLister, nats publisher) *TicketService {
	return &TicketService{tickets: tickets, events: events, nats: nats}
}

// List returns the tickets visible to the caller. Venue scoping is a
// SQL predicate picked by policy, never a client-side filter.
func (s *TicketService) List(ctx context.Context, p *models.Principal) ([]models.Ticket, error) {
	venueID, all, err := authz.ViewScope(p)
	if err != nil {
		return nil, err
	}
	if all {
		venueID = ""
	}
	return s.tickets.List(ctx, venueID)
}

// MarkUsed transitions a confirmed ticket to used. Used and cancelled
// tickets are terminal: marking them again is a no-op that reports the
// current state rather than an error, so double scans at the door stay
// harmless.
func (s *TicketService) MarkUsed(ctx context.Context, p *models.Principal, ticketID string) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up ticket: %w", err)
	}
	if ticket == nil {
		return nil, apperrors.NotFound("ticket %s not found", ticketID)
	}
	if err := authz.CanMarkTicketUsed(p, ticket.VenueID); err != nil {
		return nil, err
	}
	if ticket.Status != models.TicketConfirmed {
		// Terminal state; no write, no announcement.
		return ticket, nil
	}

	now := time.Now()
	transitioned, err := s.tickets.MarkUsed(ctx, ticketID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark ticket used: %w", err)
	}
	if !transitioned {
		// Lost a race with another scanner; fetch the settled state.
		return s.tickets.GetByID(ctx, ticketID)
	}

	ticket.Status = models.TicketUsed
	ticket.UsedAt = &now

	if err := s.nats.Publish(models.SubjectTicketUsed, models.TicketUsedMessage{
		TicketID:  ticket.ID,
		EventID:   ticket.EventID,
		VenueID:   ticket.VenueID,
		Actor:     p.UID,
		Timestamp: now,
	}); err != nil {
		slog.Error("Failed to publish ticket usage", "ticket_id", ticket.ID, "error", err)
	}
	return ticket, nil
}

// GroupByEvent returns the caller's visible tickets grouped per event,
// newest group first by event name for stable output.
func (s *TicketService) GroupByEvent(ctx context.Context, p *models.Principal) ([]models.EventGroup, error) {
	tickets, err := s.List(ctx, p)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	var groups []models.EventGroup
	for _, ticket := range tickets {
		i, ok := index[ticket.EventID]
		if !ok {
			i = len(groups)
			index[ticket.EventID] = i
			groups = append(groups, models.EventGroup{
				EventID:   ticket.EventID,
				EventName: ticket.EventName,
			})
		}
		groups[i].Tickets = append(groups[i].Tickets, ticket)
		groups[i].TotalRevenue += models.SafePrice(ticket.Price)
		groups[i].TotalCount++
		if ticket.Status == models.TicketUsed {
			groups[i].UsedCount++
		}
	}
	return groups, nil
}

// Stats computes the dashboard overview for the caller's scope.
func (s *TicketService) Stats(ctx context.Context, p *models.Principal) (*models.TicketStats, error) {
	venueID, all, err := authz.ViewScope(p)
	if err != nil {
		return nil, err
	}
	if all {
		venueID = ""
	}

	tickets, err := s.tickets.List(ctx, venueID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.List(ctx, venueID)
	if err != nil {
		return nil, err
	}

	stats := &models.TicketStats{}
	for _, ticket := range tickets {
		stats.TotalTickets++
		stats.TotalRevenue += models.SafePrice(ticket.Price)
		if ticket.Status == models.TicketUsed {
			stats.UsedTickets++
		}
	}
	now := time.Now()
	for _, event := range events {
		if models.DeriveEventStatus(&event, now) != models.EventStatusPast {
			stats.ActiveEvents++
		}
	}
	return stats, nil
}
