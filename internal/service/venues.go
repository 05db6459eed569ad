package service

import (
	"context"
	"fmt"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/authz"
	"stagedoor/internal/models"
)

type venueStore interface {
	List(ctx context.Context) ([]models.Venue, error)
	GetByID(ctx context.Context, id string) (*models.Venue, error)
}

type venueMemberStore interface {
	ListVenueRoles(ctx context.Context) ([]models.User, error)
}

// VenueService is the read side of venue management.
type VenueService struct {
	venues venueStore
	users  venueMemberStore
}

func NewVenueService(venues venueStore, users venueMemberStore) *VenueService {
	return &VenueService{venues: venues, users: users}
}

// List returns venues visible to the caller. Site admins see all;
// venue-scoped admins see only their own.
func (s *VenueService) List(ctx context.Context, p *models.Principal) ([]models.Venue, error) {
	venueID, all, err := authz.ViewScope(p)
	if err != nil {
		return nil, err
	}

	if all {
		return s.venues.List(ctx)
	}

	venue, err := s.venues.GetByID(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return []models.Venue{}, nil
	}
	return []models.Venue{*venue}, nil
}

// Get returns one venue within the caller's scope.
func (s *VenueService) Get(ctx context.Context, p *models.Principal, id string) (*models.Venue, error) {
	venueID, all, err := authz.ViewScope(p)
	if err != nil {
		return nil, err
	}
	if !all && venueID != id {
		return nil, apperrors.Forbidden("venue %s is outside your scope", id)
	}

	venue, err := s.venues.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up venue: %w", err)
	}
	if venue == nil {
		return nil, apperrors.NotFound("venue %s not found", id)
	}
	return venue, nil
}

// ListVenueRoles returns every principal currently holding a venue
// role. Site admins only; feeds the management page.
func (s *VenueService) ListVenueRoles(ctx context.Context, p *models.Principal) ([]models.User, error) {
	if err := authz.CanManageAdminRecords(p); err != nil {
		return nil, err
	}
	return s.users.ListVenueRoles(ctx)
}
