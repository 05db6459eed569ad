package service

import (
	"context"
	"math"
	"testing"
	"time"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeTicketStore struct {
	tickets    map[string]*models.Ticket
	listCalls  []string
	marked     []string
	markResult bool
}

func newFakeTicketStore(tickets ...*models.Ticket) *fakeTicketStore {
	f := &fakeTicketStore{tickets: map[string]*models.Ticket{}, markResult: true}
	for _, t := range tickets {
		f.tickets[t.ID] = t
	}
	return f
}

func (f *fakeTicketStore) List(ctx context.Context, venueID string) ([]models.Ticket, error) {
	f.listCalls = append(f.listCalls, venueID)
	var out []models.Ticket
	for _, t := range f.tickets {
		if venueID == "" || t.VenueID == venueID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketStore) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	return f.tickets[id], nil
}

func (f *fakeTicketStore) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	if !f.markResult {
		return false, nil
	}
	f.marked = append(f.marked, id)
	if t, ok := f.tickets[id]; ok {
		t.Status = models.TicketUsed
		t.UsedAt = &usedAt
	}
	return true, nil
}

type fakeEventLister struct {
	events []models.Event
}

func (f *fakeEventLister) List(ctx context.Context, venueID string) ([]models.Event, error) {
	return f.events, nil
}

type fakePublisher struct {
	subjects []string
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func siteAdmin() *models.Principal {
	return &models.Principal{UID: "sa", Role: models.RoleSiteAdmin, Active: true}
}

func subAdmin(venueID string) *models.Principal {
	return &models.Principal{UID: "sub", Role: models.RoleSubAdmin, VenueID: venueID, Active: true}
}

func TestListScopesToVenueInQuery(t *testing.T) {
	store := newFakeTicketStore(
		&models.Ticket{ID: "t1", VenueID: "v1", Status: models.TicketConfirmed},
		&models.Ticket{ID: "t2", VenueID: "v2", Status: models.TicketConfirmed},
	)
	s := NewTicketService(store, &fakeEventLister{}, &fakePublisher{})

	tickets, err := s.List(context.Background(), subAdmin("v1"))
	assert.NoError(t, err)
	assert.Len(t, tickets, 1)
	assert.Equal(t, []string{"v1"}, store.listCalls, "scope passed down to the store")

	tickets, err = s.List(context.Background(), siteAdmin())
	assert.NoError(t, err)
	assert.Len(t, tickets, 2)
}

func TestListForbiddenForPlainUser(t *testing.T) {
	s := NewTicketService(newFakeTicketStore(), &fakeEventLister{}, &fakePublisher{})

	_, err := s.List(context.Background(), &models.Principal{UID: "u", Role: models.RoleUser, Active: true})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestMarkUsedTransitionsAndPublishes(t *testing.T) {
	store := newFakeTicketStore(&models.Ticket{ID: "t1", VenueID: "v1", Status: models.TicketConfirmed})
	pub := &fakePublisher{}
	s := NewTicketService(store, &fakeEventLister{}, pub)

	ticket, err := s.MarkUsed(context.Background(), subAdmin("v1"), "t1")
	assert.NoError(t, err)
	assert.Equal(t, models.TicketUsed, ticket.Status)
	assert.NotNil(t, ticket.UsedAt)
	assert.Contains(t, pub.subjects, models.SubjectTicketUsed)
}

func TestMarkUsedAlreadyUsedIsNoOp(t *testing.T) {
	usedAt := time.Now().Add(-time.Hour)
	store := newFakeTicketStore(&models.Ticket{ID: "t1", VenueID: "v1", Status: models.TicketUsed, UsedAt: &usedAt})
	pub := &fakePublisher{}
	s := NewTicketService(store, &fakeEventLister{}, pub)

	ticket, err := s.MarkUsed(context.Background(), subAdmin("v1"), "t1")
	assert.NoError(t, err, "double scan is not an error")
	assert.Equal(t, models.TicketUsed, ticket.Status)
	assert.Equal(t, usedAt.Unix(), ticket.UsedAt.Unix(), "original usage time preserved")
	assert.Empty(t, store.marked, "no write for an already used ticket")
	assert.Empty(t, pub.subjects, "no duplicate announcement")
}

func TestMarkUsedCancelledIsNoOp(t *testing.T) {
	store := newFakeTicketStore(&models.Ticket{ID: "t1", VenueID: "v1", Status: models.TicketCancelled})
	pub := &fakePublisher{}
	s := NewTicketService(store, &fakeEventLister{}, pub)

	ticket, err := s.MarkUsed(context.Background(), subAdmin("v1"), "t1")
	assert.NoError(t, err, "cancelled is terminal, not an error")
	assert.Equal(t, models.TicketCancelled, ticket.Status)
	assert.Nil(t, ticket.UsedAt)
	assert.Empty(t, store.marked, "no write for a cancelled ticket")
	assert.Empty(t, pub.subjects)
}

func TestMarkUsedOtherVenueForbidden(t *testing.T) {
	store := newFakeTicketStore(&models.Ticket{ID: "t1", VenueID: "v2", Status: models.TicketConfirmed})
	s := NewTicketService(store, &fakeEventLister{}, &fakePublisher{})

	_, err := s.MarkUsed(context.Background(), subAdmin("v1"), "t1")
	assert.True(t, apperrors.IsForbidden(err))
	assert.Empty(t, store.marked)
}

func TestMarkUsedNotFound(t *testing.T) {
	s := NewTicketService(newFakeTicketStore(), &fakeEventLister{}, &fakePublisher{})

	_, err := s.MarkUsed(context.Background(), subAdmin("v1"), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGroupByEvent(t *testing.T) {
	store := newFakeTicketStore(
		&models.Ticket{ID: "t1", EventID: "e1", EventName: "Concert", VenueID: "v1", Price: 10, Status: models.TicketUsed},
		&models.Ticket{ID: "t2", EventID: "e1", EventName: "Concert", VenueID: "v1", Price: 10, Status: models.TicketConfirmed},
		&models.Ticket{ID: "t3", EventID: "e2", EventName: "Play", VenueID: "v1", Price: 20, Status: models.TicketConfirmed},
	)
	s := NewTicketService(store, &fakeEventLister{}, &fakePublisher{})

	groups, err := s.GroupByEvent(context.Background(), subAdmin("v1"))
	assert.NoError(t, err)
	assert.Len(t, groups, 2)

	byEvent := map[string]models.EventGroup{}
	for _, g := range groups {
		byEvent[g.EventID] = g
	}
	assert.Equal(t, 2, byEvent["e1"].TotalCount)
	assert.Equal(t, 1, byEvent["e1"].UsedCount)
	assert.Equal(t, 20.0, byEvent["e1"].TotalRevenue)
	assert.Equal(t, 1, byEvent["e2"].TotalCount)
	assert.Equal(t, 20.0, byEvent["e2"].TotalRevenue)
}

func TestStatsSanitizesPrices(t *testing.T) {
	store := newFakeTicketStore(
		&models.Ticket{ID: "t1", VenueID: "v1", Price: math.NaN(), Status: models.TicketUsed},
		&models.Ticket{ID: "t2", VenueID: "v1", Price: 15, Status: models.TicketConfirmed},
	)
	events := &fakeEventLister{events: []models.Event{
		{ID: "e1", Date: time.Now().Add(time.Hour), MaxTickets: 100},
		{ID: "e2", Date: time.Now().Add(-time.Hour), MaxTickets: 100},
	}}
	s := NewTicketService(store, events, &fakePublisher{})

	stats, err := s.Stats(context.Background(), subAdmin("v1"))
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTickets)
	assert.Equal(t, 1, stats.UsedTickets)
	assert.Equal(t, 15.0, stats.TotalRevenue, "NaN price counts as zero")
	assert.Equal(t, 1, stats.ActiveEvents, "past events excluded")
}
