package service

import (
	"context"
	"fmt"
	"time"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/authz"
	"stagedoor/internal/models"
)

type eventStore interface {
	List(ctx context.Context, venueID string) ([]models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type eventSearcher interface {
	Search(ctx context.Context, query, venueID string, size int) ([]models.Event, error)
}

// EventService is the read side of the event catalogue: listings with
// derived status, single lookups and full-text search.
type EventService struct {
	events eventStore
	search eventSearcher
}

func NewEventService(events eventStore, search eventSearcher) *EventService {
	return &EventService{events: events, search: search}
}

func toViews(events []models.Event, now time.Time) []models.EventView {
	views := make([]models.EventView, len(events))
	for i, event := range events {
		views[i] = models.EventView{
			Event:  event,
			Status: models.DeriveEventStatus(&event, now),
		}
	}
	return views
}

// List returns the events visible to the caller, featured first.
func (s *EventService) List(ctx context.Context, p *models.Principal) ([]models.EventView, error) {
	venueID, all, err := authz.ViewScope(p)
	if err != nil {
		return nil, err
	}
	if all {
		venueID = ""
	}

	events, err := s.events.List(ctx, venueID)
	if err != nil {
		return nil, err
	}
	return toViews(events, time.Now()), nil
}

// Get returns one event if it lies within the caller's scope.
func (s *EventService) Get(ctx context.Context, p *models.Principal, id string) (*models.EventView, error) {
	venueID, all, err := authz.ViewScope(p)
	if err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up event: %w", err)
	}
	if event == nil || (!all && event.VenueID != venueID) {
		return nil, apperrors.NotFound("event %s not found", id)
	}

	view := models.EventView{Event: *event, Status: models.DeriveEventStatus(event, time.Now())}
	return &view, nil
}

// Search runs a full-text query over the event index, scoped to the
// caller's venue.
func (s *EventService) Search(ctx context.Context, p *models.Principal, query string, size int) ([]models.EventView, error) {
	venueID, all, err := authz.ViewScope(p)
	if err != nil {
		return nil, err
	}
	if all {
		venueID = ""
	}

	events, err := s.search.Search(ctx, query, venueID, size)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return toViews(events, time.Now()), nil
}
