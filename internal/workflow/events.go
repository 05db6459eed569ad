package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/authz"
	"stagedoor/internal/external"
	"stagedoor/internal/models"

	"github.com/google/uuid"
)

type eventStore interface {
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	UpdateImageURL(ctx context.Context, id, imageURL string) error
	SetFeatured(ctx context.Context, id string, featured bool) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

type ticketBatchStore interface {
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

type venueNameStore interface {
	GetName(ctx context.Context, id string) (string, error)
}

type imageStorage interface {
	Upload(ctx context.Context, eventID, contentType string, size int64, body io.Reader, progress external.ProgressFunc) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

// ImageUpload carries a poster image alongside a save request.
type ImageUpload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// EventWorkflows runs event saves and the event-deletion cascade.
type EventWorkflows struct {
	events  eventStore
	tickets ticketBatchStore
	venues  venueNameStore
	storage imageStorage
	nats    publisher
	runner  runner
}

func NewEventWorkflows(events eventStore, tickets ticketBatchStore, venues venueNameStore, storage imageStorage, nats publisher, metrics stepMetrics) *EventWorkflows {
	return &EventWorkflows{
		events:  events,
		tickets: tickets,
		venues:  venues,
		storage: storage,
		nats:    nats,
		runner:  runner{metrics: metrics},
	}
}

// SaveEvent creates or updates an event. Venue-scoped admins always
// write into their own venue regardless of what the request claims,
// and only site admins can set the featured flag.
func (w *EventWorkflows) SaveEvent(ctx context.Context, p *models.Principal, req models.SaveEventRequest, image *ImageUpload) (*models.Event, error) {
	if p == nil {
		return nil, apperrors.ErrUnauthorized
	}

	venueID := req.VenueID
	if p.Role != models.RoleSiteAdmin {
		venueID = p.VenueID
	}
	if err := authz.CanWriteEvent(p, venueID); err != nil {
		return nil, err
	}
	if venueID == "" {
		return nil, apperrors.Invalid("venue is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.Invalid("event name is required")
	}
	if req.MaxTickets < 0 {
		return nil, apperrors.Invalid("max tickets must not be negative")
	}
	if image != nil {
		if err := external.ValidateImage(image.ContentType, image.Size); err != nil {
			return nil, apperrors.Invalid("%s", err.Error())
		}
	}

	venueName, err := w.venues.GetName(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve venue name: %w", err)
	}
	if venueName == "" {
		return nil, apperrors.NotFound("venue %s not found", venueID)
	}

	if req.ID == "" {
		return w.createEvent(ctx, p, req, venueID, venueName, image)
	}
	return w.updateEvent(ctx, p, req, venueID, venueName, image)
}

func (w *EventWorkflows) createEvent(ctx context.Context, p *models.Principal, req models.SaveEventRequest, venueID, venueName string, image *ImageUpload) (*models.Event, error) {
	event := &models.Event{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		VenueID:     venueID,
		VenueName:   venueName,
		Date:        req.Date,
		Price:       models.SafePrice(req.Price),
		MaxTickets:  req.MaxTickets,
		CreatedBy:   p.UID,
	}
	if p.Role == models.RoleSiteAdmin {
		event.IsFeatured = req.IsFeatured
	}

	if image != nil {
		url, err := w.storage.Upload(ctx, event.ID, image.ContentType, image.Size, image.Body, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		event.ImageURL = url
	}

	if err := w.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	w.publishChange(models.SubjectEventCreated, event, p.UID)
	return event, nil
}

func (w *EventWorkflows) updateEvent(ctx context.Context, p *models.Principal, req models.SaveEventRequest, venueID, venueName string, image *ImageUpload) (*models.Event, error) {
	existing, err := w.events.GetByID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up event: %w", err)
	}
	if existing == nil {
		return nil, apperrors.NotFound("event %s not found", req.ID)
	}
	if err := authz.CanWriteEvent(p, existing.VenueID); err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Description = req.Description
	existing.VenueID = venueID
	existing.VenueName = venueName
	existing.Date = req.Date
	existing.Price = models.SafePrice(req.Price)
	existing.MaxTickets = req.MaxTickets
	if p.Role == models.RoleSiteAdmin {
		existing.IsFeatured = req.IsFeatured
	}

	if err := w.events.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if image != nil {
		oldURL := existing.ImageURL
		url, err := w.storage.Upload(ctx, existing.ID, image.ContentType, image.Size, image.Body, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		if err := w.events.UpdateImageURL(ctx, existing.ID, url); err != nil {
			return nil, fmt.Errorf("failed to record image URL: %w", err)
		}
		existing.ImageURL = url

		// Old asset removal is best-effort; an orphan in storage is
		// cheaper than a failed edit.
		if oldURL != "" && oldURL != url {
			if err := w.storage.Delete(ctx, oldURL); err != nil {
				slog.Warn("Failed to delete replaced image", "event_id", existing.ID, "error", err)
			}
		}
	}

	w.publishChange(models.SubjectEventUpdated, existing, p.UID)
	return existing, nil
}

// ToggleFeatured flips the featured flag. Site admins only.
func (w *EventWorkflows) ToggleFeatured(ctx context.Context, p *models.Principal, eventID string, featured bool) (*models.Event, error) {
	if err := authz.CanToggleFeatured(p); err != nil {
		return nil, err
	}

	event, err := w.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound("event %s not found", eventID)
	}

	if err := w.events.SetFeatured(ctx, eventID, featured); err != nil {
		return nil, fmt.Errorf("failed to set featured flag: %w", err)
	}
	event.IsFeatured = featured

	w.publishChange(models.SubjectEventUpdated, event, p.UID)
	return event, nil
}

// DeleteEvent removes an event and everything hanging off it. Child
// tickets go first and must succeed; losing the poster image is
// tolerable, orphaned tickets are not.
func (w *EventWorkflows) DeleteEvent(ctx context.Context, p *models.Principal, eventID string) (*Result, error) {
	event, err := w.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up event: %w", err)
	}
	if event == nil {
		return nil, apperrors.NotFound("event %s not found", eventID)
	}
	if err := authz.CanDeleteEvent(p, event.VenueID); err != nil {
		return nil, err
	}

	var ticketsDeleted int64
	steps := []Step{
		{
			Name:     "delete tickets",
			Critical: true,
			Run: func(ctx context.Context) error {
				n, err := w.tickets.DeleteByEvent(ctx, eventID)
				ticketsDeleted = n
				return err
			},
		},
		{
			Name: "delete image",
			Run: func(ctx context.Context) error {
				if event.ImageURL == "" {
					return nil
				}
				return w.storage.Delete(ctx, event.ImageURL)
			},
		},
		{
			Name:     "delete event record",
			Critical: true,
			Run: func(ctx context.Context) error {
				return w.events.Delete(ctx, eventID)
			},
		},
	}

	result := w.runner.run(ctx, "event.delete", steps)
	if result.Aborted {
		return result, fmt.Errorf("failed to delete event: %w", result.FirstError())
	}

	if err := w.nats.Publish(models.SubjectEventDeleted, models.EventDeletedMessage{
		EventID:        eventID,
		VenueID:        event.VenueID,
		TicketsDeleted: int(ticketsDeleted),
		Actor:          p.UID,
		Timestamp:      time.Now(),
	}); err != nil {
		result.Steps = append(result.Steps, StepResult{Name: "publish event.deleted", Err: err})
	}
	return result, nil
}

func (w *EventWorkflows) publishChange(subject string, event *models.Event, actor string) {
	if err := w.nats.Publish(subject, models.EventChangedMessage{
		Event:     *event,
		Actor:     actor,
		Timestamp: time.Now(),
	}); err != nil {
		// The reconciliation sweep repairs the index if this is lost.
		slog.Error("Failed to publish event change", "subject", subject, "event_id", event.ID, "error", err)
	}
}
