package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/authz"
	"stagedoor/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type adminStore interface {
	Create(ctx context.Context, rec *models.AdminRecord) error
	CreateFirstSiteAdmin(ctx context.Context, rec *models.AdminRecord) (bool, error)
	GetByID(ctx context.Context, id string) (*models.AdminRecord, error)
	GetByEmail(ctx context.Context, email string) (*models.AdminRecord, error)
	Update(ctx context.Context, rec *models.AdminRecord) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.AdminRecord, error)
}

type accountProvisioner interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	AssignVenueRole(ctx context.Context, uid string, role models.Role, venueID string) error
	ResetToUser(ctx context.Context, uid string) error
}

type principalInvalidator interface {
	InvalidatePrincipal(ctx context.Context, uid string) error
}

type resetMailer interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

// AdminService implements the privileged provisioning operations: the
// one-time bootstrap and administrator CRUD.
type AdminService struct {
	admins     adminStore
	users      accountProvisioner
	cache      principalInvalidator
	mailer     resetMailer
	nats       publisher
	resetBase  string
	bcryptCost int
}

func NewAdminService(admins adminStore, users accountProvisioner, cache principalInvalidator, mailer resetMailer, nats publisher, resetBase string, bcryptCost int) *AdminService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AdminService{
		admins:     admins,
		users:      users,
		cache:      cache,
		mailer:     mailer,
		nats:       nats,
		resetBase:  resetBase,
		bcryptCost: bcryptCost,
	}
}

// SetupFirstAdmin promotes the caller's own account to site admin,
// once. The insert carries its own existence guard, so two concurrent
// calls cannot both win.
func (s *AdminService) SetupFirstAdmin(ctx context.Context, p *models.Principal, req models.SetupFirstAdminRequest) (*models.AdminEnvelope, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, apperrors.Invalid("email is required")
	}
	if p == nil || !strings.EqualFold(p.Email, email) {
		return nil, apperrors.Forbidden("the bootstrap email must match your own account")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("no account registered for %s", email)
	}

	rec := &models.AdminRecord{
		ID:    uuid.New().String(),
		UID:   user.UID,
		Email: user.Email,
		Name:  user.Name,
		Role:  models.RoleSiteAdmin,
	}
	created, err := s.admins.CreateFirstSiteAdmin(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to provision site admin: %w", err)
	}
	if !created {
		return nil, apperrors.Conflict("a site admin already exists")
	}

	if err := s.users.AssignVenueRole(ctx, user.UID, models.RoleSiteAdmin, ""); err != nil {
		slog.Error("Failed to promote bootstrap account", "uid", user.UID, "error", err)
	}
	s.invalidate(ctx, user.UID)

	return &models.AdminEnvelope{
		Success: true,
		Message: "site admin provisioned",
		AdminID: rec.ID,
	}, nil
}

// CreateAdmin provisions an administrator, creating the login account
// if it does not exist yet. Freshly created accounts get a random
// password and a reset mail; nobody ever learns the placeholder.
func (s *AdminService) CreateAdmin(ctx context.Context, p *models.Principal, req models.CreateAdminRequest) (*models.AdminEnvelope, error) {
	if err := authz.CanManageAdminRecords(p); err != nil {
		return nil, err
	}
	if !req.Role.Admin() {
		return nil, apperrors.Invalid("role %s is not an administrative role", req.Role)
	}
	if req.Role == models.RoleSiteAdmin && req.VenueID != "" {
		return nil, apperrors.Invalid("site admins are not venue-scoped")
	}
	if req.Role != models.RoleSiteAdmin && req.VenueID == "" {
		return nil, apperrors.Invalid("role %s requires a venue", req.Role)
	}

	existing, err := s.admins.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin record: %w", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("an admin record already exists for %s", req.Email)
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		user, err = s.ProvisionAccount(ctx, req.Email, req.Name)
		if err != nil {
			return nil, err
		}
	}

	if err := s.users.AssignVenueRole(ctx, user.UID, req.Role, req.VenueID); err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}

	rec := &models.AdminRecord{
		ID:      uuid.New().String(),
		UID:     user.UID,
		Email:   user.Email,
		Name:    req.Name,
		Role:    req.Role,
		VenueID: req.VenueID,
		Active:  true,
	}
	if err := s.admins.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create admin record: %w", err)
	}
	s.invalidate(ctx, user.UID)

	if err := s.nats.Publish(models.SubjectAdminCreated, models.AdminCreatedMessage{
		AdminID:   rec.ID,
		Email:     rec.Email,
		Role:      rec.Role,
		VenueID:   rec.VenueID,
		Timestamp: time.Now(),
	}); err != nil {
		slog.Error("Failed to publish admin creation", "admin_id", rec.ID, "error", err)
	}

	return &models.AdminEnvelope{
		Success: true,
		Message: "administrator created",
		AdminID: rec.ID,
	}, nil
}

// ProvisionAccount creates a login account for an email with a random
// placeholder password and dispatches a reset mail so the owner picks
// their own. Also used by the venue workflows when linking an admin
// whose account does not exist yet.
func (s *AdminService) ProvisionAccount(ctx context.Context, email, name string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	user := &models.User{
		UID:          uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         models.RoleUser,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	link := s.resetBase + "/reset-password?uid=" + user.UID
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		slog.Error("Failed to send welcome reset mail", "uid", user.UID, "error", err)
	}
	return user, nil
}

// UpdateAdmin edits an admin record and keeps the login account's role
// in step. Self-targeting mutations are refused by policy.
func (s *AdminService) UpdateAdmin(ctx context.Context, p *models.Principal, id string, req models.UpdateAdminRequest) (*models.AdminEnvelope, error) {
	rec, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin record: %w", err)
	}
	if rec == nil {
		return nil, apperrors.NotFound("admin record %s not found", id)
	}
	if err := authz.CanMutateAdminRecord(p, rec.UID); err != nil {
		return nil, err
	}

	if req.Name != "" {
		rec.Name = req.Name
	}
	if req.Role != "" {
		if !req.Role.Admin() {
			return nil, apperrors.Invalid("role %s is not an administrative role", req.Role)
		}
		rec.Role = req.Role
	}
	if req.VenueID != nil {
		rec.VenueID = *req.VenueID
	}
	if req.Active != nil {
		rec.Active = *req.Active
	}
	if rec.Role == models.RoleSiteAdmin {
		rec.VenueID = ""
	} else if rec.VenueID == "" {
		return nil, apperrors.Invalid("role %s requires a venue", rec.Role)
	}

	if err := s.admins.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update admin record: %w", err)
	}

	if rec.Active {
		if err := s.users.AssignVenueRole(ctx, rec.UID, rec.Role, rec.VenueID); err != nil {
			slog.Error("Failed to sync account role", "uid", rec.UID, "error", err)
		}
	} else {
		if err := s.users.ResetToUser(ctx, rec.UID); err != nil {
			slog.Error("Failed to demote deactivated admin", "uid", rec.UID, "error", err)
		}
	}
	s.invalidate(ctx, rec.UID)

	return &models.AdminEnvelope{Success: true, Message: "administrator updated", AdminID: rec.ID}, nil
}

// DeleteAdmin removes an admin record and demotes the login account.
func (s *AdminService) DeleteAdmin(ctx context.Context, p *models.Principal, id string) (*models.AdminEnvelope, error) {
	rec, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin record: %w", err)
	}
	if rec == nil {
		return nil, apperrors.NotFound("admin record %s not found", id)
	}
	if err := authz.CanMutateAdminRecord(p, rec.UID); err != nil {
		return nil, err
	}

	if err := s.admins.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete admin record: %w", err)
	}
	if err := s.users.ResetToUser(ctx, rec.UID); err != nil {
		slog.Error("Failed to demote deleted admin", "uid", rec.UID, "error", err)
	}
	s.invalidate(ctx, rec.UID)

	return &models.AdminEnvelope{Success: true, Message: "administrator deleted", AdminID: id}, nil
}

// List returns every admin record. Site admins only.
func (s *AdminService) List(ctx context.Context, p *models.Principal) ([]models.AdminRecord, error) {
	if err := authz.CanManageAdminRecords(p); err != nil {
		return nil, err
	}
	return s.admins.List(ctx)
}

func (s *AdminService) invalidate(ctx context.Context, uid string) {
	if err := s.cache.InvalidatePrincipal(ctx, uid); err != nil {
		slog.Warn("Failed to invalidate cached principal", "uid", uid, "error", err)
	}
}
