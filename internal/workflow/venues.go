package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/authz"
	"stagedoor/internal/models"

	"github.com/google/uuid"
)

type venueStore interface {
	Create(ctx context.Context, venue *models.Venue) error
	GetByID(ctx context.Context, id string) (*models.Venue, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, venueID, email string, venueAdmin bool) error
	RemoveMember(ctx context.Context, venueID, email string, venueAdmin bool) error
}

type principalStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	AssignVenueRole(ctx context.Context, uid string, role models.Role, venueID string) error
	ResetToUser(ctx context.Context, uid string) error
	ListByVenue(ctx context.Context, venueID string) ([]models.User, error)
}

type adminRecordStore interface {
	DeactivateByVenue(ctx context.Context, venueID string) (int64, error)
}

type accountProvisioner interface {
	ProvisionAccount(ctx context.Context, email, name string) (*models.User, error)
}

type cacheInvalidator interface {
	InvalidatePrincipal(ctx context.Context, uid string) error
}

type publisher interface {
	Publish(subject string, data interface{}) error
}

// VenueWorkflows runs the multi-store venue operations as explicit
// step sequences so partial outcomes are observable instead of silent.
type VenueWorkflows struct {
	venues   venueStore
	users    principalStore
	admins   adminRecordStore
	accounts accountProvisioner
	cache    cacheInvalidator
	nats     publisher
	runner   runner
}

func NewVenueWorkflows(venues venueStore, users principalStore, admins adminRecordStore, accounts accountProvisioner, cache cacheInvalidator, nats publisher, metrics stepMetrics) *VenueWorkflows {
	return &VenueWorkflows{
		venues:   venues,
		users:    users,
		admins:   admins,
		accounts: accounts,
		cache:    cache,
		nats:     nats,
		runner:   runner{metrics: metrics},
	}
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

// CreateVenueWithAdmin creates the venue record and links the named
// account as its venue admin, provisioning a fresh account when none
// exists for the email. The linking is best-effort: a failure leaves
// the venue in place and is reported, not rolled back.
func (w *VenueWorkflows) CreateVenueWithAdmin(ctx context.Context, p *models.Principal, req models.CreateVenueRequest) (*models.Venue, *Result, error) {
	if err := authz.CanCreateVenue(p); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, nil, apperrors.Invalid("venue name is required")
	}
	if !validEmail(req.AdminEmail) {
		return nil, nil, apperrors.Invalid("invalid admin email %q", req.AdminEmail)
	}

	admin, err := w.users.GetByEmail(ctx, req.AdminEmail)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up admin account: %w", err)
	}

	adminEmail := req.AdminEmail
	if admin != nil {
		adminEmail = admin.Email
	}

	venue := &models.Venue{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Admins:    []string{adminEmail},
		SubAdmins: []string{},
	}

	steps := []Step{
		{
			Name:     "create venue record",
			Critical: true,
			Run: func(ctx context.Context) error {
				return w.venues.Create(ctx, venue)
			},
		},
		{
			Name: "promote venue admin",
			Run: func(ctx context.Context) error {
				if admin == nil {
					created, err := w.accounts.ProvisionAccount(ctx, adminEmail, "")
					if err != nil {
						return err
					}
					admin = created
				}
				if err := w.users.AssignVenueRole(ctx, admin.UID, models.RoleVenueAdmin, venue.ID); err != nil {
					return err
				}
				return w.cache.InvalidatePrincipal(ctx, admin.UID)
			},
		},
	}

	result := w.runner.run(ctx, "venue.create", steps)
	if result.Aborted {
		return nil, result, fmt.Errorf("failed to create venue: %w", result.FirstError())
	}
	return venue, result, nil
}

// DeleteVenue removes the venue record, then demotes everyone attached
// to it. The record delete comes first and aborts the cascade on
// failure; the principal resets that follow are best-effort per
// account, so a single failed reset never blocks the rest.
func (w *VenueWorkflows) DeleteVenue(ctx context.Context, p *models.Principal, venueID string) (*Result, error) {
	if err := authz.CanDeleteVenue(p); err != nil {
		return nil, err
	}

	venue, err := w.venues.GetByID(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up venue: %w", err)
	}
	if venue == nil {
		return nil, apperrors.NotFound("venue %s not found", venueID)
	}

	members, err := w.users.ListByVenue(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list venue members: %w", err)
	}

	reset := 0
	steps := []Step{
		{
			Name:     "delete venue record",
			Critical: true,
			Run: func(ctx context.Context) error {
				return w.venues.Delete(ctx, venueID)
			},
		},
	}
	for _, member := range members {
		uid := member.UID
		steps = append(steps, Step{
			Name: "reset principal",
			Run: func(ctx context.Context) error {
				if err := w.users.ResetToUser(ctx, uid); err != nil {
					return err
				}
				reset++
				return w.cache.InvalidatePrincipal(ctx, uid)
			},
		})
	}
	steps = append(steps, Step{
		Name: "deactivate admin records",
		Run: func(ctx context.Context) error {
			_, err := w.admins.DeactivateByVenue(ctx, venueID)
			return err
		},
	})

	result := w.runner.run(ctx, "venue.delete", steps)
	if result.Aborted {
		return result, fmt.Errorf("failed to delete venue: %w", result.FirstError())
	}

	if err := w.nats.Publish(models.SubjectVenueDeleted, models.VenueDeletedMessage{
		VenueID:         venueID,
		PrincipalsReset: reset,
		Actor:           p.UID,
		Timestamp:       time.Now(),
	}); err != nil {
		result.Steps = append(result.Steps, StepResult{Name: "publish venue.deleted", Err: err})
	}
	return result, nil
}

// AddAdmin attaches an account to a venue, provisioning one when the
// email is unknown. The principal role is the authoritative write and
// goes first; the membership array on the venue record is denormalized
// display data.
func (w *VenueWorkflows) AddAdmin(ctx context.Context, p *models.Principal, venueID string, req models.AddAdminRequest) (*Result, error) {
	if err := authz.CanAddAdmin(p, venueID, req.VenueAdmin); err != nil {
		return nil, err
	}
	if !validEmail(req.Email) {
		return nil, apperrors.Invalid("invalid email %q", req.Email)
	}

	venue, err := w.venues.GetByID(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up venue: %w", err)
	}
	if venue == nil {
		return nil, apperrors.NotFound("venue %s not found", venueID)
	}

	user, err := w.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	memberEmail := req.Email
	if user != nil {
		memberEmail = user.Email
	}

	role := models.RoleSubAdmin
	if req.VenueAdmin {
		role = models.RoleVenueAdmin
	}

	steps := []Step{
		{
			Name:     "assign venue role",
			Critical: true,
			Run: func(ctx context.Context) error {
				if user == nil {
					created, err := w.accounts.ProvisionAccount(ctx, memberEmail, "")
					if err != nil {
						return err
					}
					user = created
				}
				if err := w.users.AssignVenueRole(ctx, user.UID, role, venueID); err != nil {
					return err
				}
				return w.cache.InvalidatePrincipal(ctx, user.UID)
			},
		},
		{
			Name: "append membership",
			Run: func(ctx context.Context) error {
				return w.venues.AddMember(ctx, venueID, memberEmail, req.VenueAdmin)
			},
		},
	}

	result := w.runner.run(ctx, "venue.add_admin", steps)
	if result.Aborted {
		return result, fmt.Errorf("failed to add admin: %w", result.FirstError())
	}
	return result, nil
}

// RemoveAdmin detaches an account from a venue. The membership array
// is cleaned first so the management page stops listing the account
// even if the role reset then fails and has to be retried.
func (w *VenueWorkflows) RemoveAdmin(ctx context.Context, p *models.Principal, venueID string, req models.RemoveAdminRequest) (*Result, error) {
	if err := authz.CanRemoveAdmin(p, venueID, req.VenueAdmin); err != nil {
		return nil, err
	}

	venue, err := w.venues.GetByID(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up venue: %w", err)
	}
	if venue == nil {
		return nil, apperrors.NotFound("venue %s not found", venueID)
	}

	user, err := w.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("no account registered for %s", req.Email)
	}

	steps := []Step{
		{
			Name:     "remove membership",
			Critical: true,
			Run: func(ctx context.Context) error {
				return w.venues.RemoveMember(ctx, venueID, user.Email, req.VenueAdmin)
			},
		},
		{
			Name: "reset principal",
			Run: func(ctx context.Context) error {
				if err := w.users.ResetToUser(ctx, user.UID); err != nil {
					return err
				}
				return w.cache.InvalidatePrincipal(ctx, user.UID)
			},
		},
	}

	result := w.runner.run(ctx, "venue.remove_admin", steps)
	if result.Aborted {
		return result, fmt.Errorf("failed to remove admin: %w", result.FirstError())
	}
	return result, nil
}
