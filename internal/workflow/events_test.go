package workflow

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/external"
	"stagedoor/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeEventStore struct {
	events    map[string]*models.Event
	created   []*models.Event
	updated   []*models.Event
	deleted   []string
	imageURLs map[string]string
	featured  map[string]bool
}

func newFakeEventStore(events ...*models.Event) *fakeEventStore {
	f := &fakeEventStore{
		events:    map[string]*models.Event{},
		imageURLs: map[string]string{},
		featured:  map[string]bool{},
	}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeEventStore) Create(ctx context.Context, event *models.Event) error {
	f.created = append(f.created, event)
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventStore) Update(ctx context.Context, event *models.Event) error {
	f.updated = append(f.updated, event)
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventStore) UpdateImageURL(ctx context.Context, id, imageURL string) error {
	f.imageURLs[id] = imageURL
	return nil
}

func (f *fakeEventStore) SetFeatured(ctx context.Context, id string, featured bool) error {
	f.featured[id] = featured
	return nil
}

func (f *fakeEventStore) GetByID(ctx context.Context, id string) (*models.Event, error) {
	return f.events[id], nil
}

func (f *fakeEventStore) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.events, id)
	return nil
}

type fakeTicketBatch struct {
	deleted []string
	count   int64
	err     error
}

func (f *fakeTicketBatch) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deleted = append(f.deleted, eventID)
	return f.count, nil
}

type fakeVenueNames struct {
	names map[string]string
}

func (f *fakeVenueNames) GetName(ctx context.Context, id string) (string, error) {
	return f.names[id], nil
}

type fakeStorage struct {
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
}

func (f *fakeStorage) Upload(ctx context.Context, eventID, contentType string, size int64, body io.Reader, progress external.ProgressFunc) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, eventID)
	return "http://storage/event-images/events/" + eventID + ".jpg", nil
}

func (f *fakeStorage) Delete(ctx context.Context, imageURL string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, imageURL)
	return nil
}

func eventWorkflows(events *fakeEventStore, tickets *fakeTicketBatch, storage *fakeStorage, pub *fakePublisher) *EventWorkflows {
	names := &fakeVenueNames{names: map[string]string{"v1": "Grand Hall", "v2": "Side Stage"}}
	return NewEventWorkflows(events, tickets, names, storage, pub, nil)
}

func saveRequest(venueID string) models.SaveEventRequest {
	return models.SaveEventRequest{
		Name:       "Concert",
		VenueID:    venueID,
		Date:       time.Now().Add(24 * time.Hour),
		Price:      25,
		MaxTickets: 100,
	}
}

func TestSaveEventForcesOwnVenue(t *testing.T) {
	events := newFakeEventStore()
	pub := &fakePublisher{}
	w := eventWorkflows(events, &fakeTicketBatch{}, &fakeStorage{}, pub)

	// A venue admin claiming another venue still writes into their own.
	event, err := w.SaveEvent(context.Background(), venueAdmin("v1"), saveRequest("v2"), nil)
	assert.NoError(t, err)
	assert.Equal(t, "v1", event.VenueID)
	assert.Equal(t, "Grand Hall", event.VenueName)
	assert.Contains(t, pub.subjects, models.SubjectEventCreated)
}

func TestSaveEventSiteAdminPicksVenue(t *testing.T) {
	events := newFakeEventStore()
	w := eventWorkflows(events, &fakeTicketBatch{}, &fakeStorage{}, &fakePublisher{})

	event, err := w.SaveEvent(context.Background(), siteAdmin(), saveRequest("v2"), nil)
	assert.NoError(t, err)
	assert.Equal(t, "v2", event.VenueID)
}

func TestSaveEventSiteAdminRequiresVenue(t *testing.T) {
	w := eventWorkflows(newFakeEventStore(), &fakeTicketBatch{}, &fakeStorage{}, &fakePublisher{})

	_, err := w.SaveEvent(context.Background(), siteAdmin(), saveRequest(""), nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSaveEventFeaturedOnlyFromSiteAdmin(t *testing.T) {
	events := newFakeEventStore()
	w := eventWorkflows(events, &fakeTicketBatch{}, &fakeStorage{}, &fakePublisher{})

	req := saveRequest("v1")
	req.IsFeatured = true

	event, err := w.SaveEvent(context.Background(), venueAdmin("v1"), req, nil)
	assert.NoError(t, err)
	assert.False(t, event.IsFeatured, "featured flag silently dropped for venue admins")

	req.VenueID = "v2"
	event, err = w.SaveEvent(context.Background(), siteAdmin(), req, nil)
	assert.NoError(t, err)
	assert.True(t, event.IsFeatured)
}

func TestSaveEventSanitizesPrice(t *testing.T) {
	events := newFakeEventStore()
	w := eventWorkflows(events, &fakeTicketBatch{}, &fakeStorage{}, &fakePublisher{})

	req := saveRequest("v1")
	req.Price = math.NaN()

	event, err := w.SaveEvent(context.Background(), venueAdmin("v1"), req, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, event.Price)
}

func TestSaveEventRejectsBadImage(t *testing.T) {
	w := eventWorkflows(newFakeEventStore(), &fakeTicketBatch{}, &fakeStorage{}, &fakePublisher{})

	_, err := w.SaveEvent(context.Background(), venueAdmin("v1"), saveRequest("v1"), &ImageUpload{
		ContentType: "application/pdf",
		Size:        100,
		Body:        strings.NewReader("x"),
	})
	assert.True(t, apperrors.IsValidation(err))

	_, err = w.SaveEvent(context.Background(), venueAdmin("v1"), saveRequest("v1"), &ImageUpload{
		ContentType: "image/png",
		Size:        external.MaxImageSize + 1,
		Body:        strings.NewReader("x"),
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestSaveEventEditReplacesImage(t *testing.T) {
	existing := &models.Event{
		ID: "e1", Name: "Concert", VenueID: "v1", VenueName: "Grand Hall",
		ImageURL: "http://storage/event-images/events/old.png",
	}
	events := newFakeEventStore(existing)
	storage := &fakeStorage{}
	w := eventWorkflows(events, &fakeTicketBatch{}, storage, &fakePublisher{})

	req := saveRequest("v1")
	req.ID = "e1"

	event, err := w.SaveEvent(context.Background(), venueAdmin("v1"), req, &ImageUpload{
		ContentType: "image/jpeg",
		Size:        1024,
		Body:        strings.NewReader("jpeg bytes"),
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"e1"}, storage.uploads)
	assert.Equal(t, []string{"http://storage/event-images/events/old.png"}, storage.deletes)
	assert.Equal(t, event.ImageURL, events.imageURLs["e1"])
}

func TestSaveEventEditOtherVenueForbidden(t *testing.T) {
	existing := &models.Event{ID: "e1", Name: "Concert", VenueID: "v2", VenueName: "Side Stage"}
	events := newFakeEventStore(existing)
	w := eventWorkflows(events, &fakeTicketBatch{}, &fakeStorage{}, &fakePublisher{})

	req := saveRequest("")
	req.ID = "e1"

	_, err := w.SaveEvent(context.Background(), venueAdmin("v1"), req, nil)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Empty(t, events.updated)
}

func TestToggleFeaturedSiteAdminOnly(t *testing.T) {
	events := newFakeEventStore(&models.Event{ID: "e1", VenueID: "v1"})
	w := eventWorkflows(events, &fakeTicketBatch{}, &fakeStorage{}, &fakePublisher{})

	_, err := w.ToggleFeatured(context.Background(), venueAdmin("v1"), "e1", true)
	assert.True(t, apperrors.IsForbidden(err), "even for the admin's own venue")

	event, err := w.ToggleFeatured(context.Background(), siteAdmin(), "e1", true)
	assert.NoError(t, err)
	assert.True(t, event.IsFeatured)
	assert.True(t, events.featured["e1"])
}

func TestDeleteEventCascade(t *testing.T) {
	existing := &models.Event{ID: "e1", VenueID: "v1", ImageURL: "http://storage/event-images/events/e1.jpg"}
	events := newFakeEventStore(existing)
	tickets := &fakeTicketBatch{count: 7}
	storage := &fakeStorage{}
	pub := &fakePublisher{}
	w := eventWorkflows(events, tickets, storage, pub)

	result, err := w.DeleteEvent(context.Background(), venueAdmin("v1"), "e1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"e1"}, tickets.deleted)
	assert.Equal(t, []string{"http://storage/event-images/events/e1.jpg"}, storage.deletes)
	assert.Equal(t, []string{"e1"}, events.deleted)
	assert.Empty(t, result.Failed())

	assert.Contains(t, pub.subjects, models.SubjectEventDeleted)
	msg := pub.payloads[0].(models.EventDeletedMessage)
	assert.Equal(t, 7, msg.TicketsDeleted)
}

func TestDeleteEventAbortsWhenTicketsFail(t *testing.T) {
	existing := &models.Event{ID: "e1", VenueID: "v1"}
	events := newFakeEventStore(existing)
	tickets := &fakeTicketBatch{err: errors.New("db down")}
	pub := &fakePublisher{}
	w := eventWorkflows(events, tickets, &fakeStorage{}, pub)

	result, err := w.DeleteEvent(context.Background(), siteAdmin(), "e1")
	assert.Error(t, err)
	assert.True(t, result.Aborted)
	assert.Empty(t, events.deleted, "event record survives when tickets cannot be removed")
	assert.Empty(t, pub.subjects)
}

func TestDeleteEventContinuesWhenImageFails(t *testing.T) {
	existing := &models.Event{ID: "e1", VenueID: "v1", ImageURL: "http://storage/x.jpg"}
	events := newFakeEventStore(existing)
	storage := &fakeStorage{deleteErr: errors.New("storage down")}
	w := eventWorkflows(events, &fakeTicketBatch{}, storage, &fakePublisher{})

	result, err := w.DeleteEvent(context.Background(), siteAdmin(), "e1")
	assert.NoError(t, err, "a lost poster never blocks the delete")
	assert.Equal(t, []string{"e1"}, events.deleted)
	assert.Equal(t, []string{"delete image"}, result.Failed())
}

func TestDeleteEventOtherVenueForbidden(t *testing.T) {
	events := newFakeEventStore(&models.Event{ID: "e1", VenueID: "v2"})
	w := eventWorkflows(events, &fakeTicketBatch{}, &fakeStorage{}, &fakePublisher{})

	_, err := w.DeleteEvent(context.Background(), venueAdmin("v1"), "e1")
	assert.True(t, apperrors.IsForbidden(err))
	assert.Empty(t, events.deleted)
}
