package workflow

import (
	"context"
	"errors"
	"testing"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeVenueStore struct {
	venues    map[string]*models.Venue
	createErr error
	deleteErr error
	added     []string
	removed   []string
	deleted   []string
}

func newFakeVenueStore(venues ...*models.Venue) *fakeVenueStore {
	f := &fakeVenueStore{venues: map[string]*models.Venue{}}
	for _, v := range venues {
		f.venues[v.ID] = v
	}
	return f
}

func (f *fakeVenueStore) Create(ctx context.Context, venue *models.Venue) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.venues[venue.ID] = venue
	return nil
}

func (f *fakeVenueStore) GetByID(ctx context.Context, id string) (*models.Venue, error) {
	return f.venues[id], nil
}

func (f *fakeVenueStore) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	delete(f.venues, id)
	return nil
}

func (f *fakeVenueStore) AddMember(ctx context.Context, venueID, email string, venueAdmin bool) error {
	f.added = append(f.added, email)
	return nil
}

func (f *fakeVenueStore) RemoveMember(ctx context.Context, venueID, email string, venueAdmin bool) error {
	f.removed = append(f.removed, email)
	return nil
}

type fakePrincipalStore struct {
	byEmail   map[string]*models.User
	members   []models.User
	assignErr error
	resetErr  map[string]error
	assigned  []string
	resets    []string
}

func (f *fakePrincipalStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.byEmail[email], nil
}

func (f *fakePrincipalStore) AssignVenueRole(ctx context.Context, uid string, role models.Role, venueID string) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	f.assigned = append(f.assigned, uid)
	return nil
}

func (f *fakePrincipalStore) ResetToUser(ctx context.Context, uid string) error {
	if err := f.resetErr[uid]; err != nil {
		return err
	}
	f.resets = append(f.resets, uid)
	return nil
}

func (f *fakePrincipalStore) ListByVenue(ctx context.Context, venueID string) ([]models.User, error) {
	return f.members, nil
}

type fakeAdminRecords struct {
	deactivated []string
	err         error
}

func (f *fakeAdminRecords) DeactivateByVenue(ctx context.Context, venueID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deactivated = append(f.deactivated, venueID)
	return 1, nil
}

type fakeProvisioner struct {
	provisioned []string
	err         error
}

func (f *fakeProvisioner) ProvisionAccount(ctx context.Context, email, name string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.provisioned = append(f.provisioned, email)
	return &models.User{UID: "new-" + email, Email: email, Role: models.RoleUser, Active: true}, nil
}

type fakeInvalidator struct {
	uids []string
}

func (f *fakeInvalidator) InvalidatePrincipal(ctx context.Context, uid string) error {
	f.uids = append(f.uids, uid)
	return nil
}

type fakePublisher struct {
	subjects []string
	payloads []interface{}
	err      error
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func siteAdmin() *models.Principal {
	return &models.Principal{UID: "sa", Email: "sa@x.y", Role: models.RoleSiteAdmin, Active: true}
}

func venueAdmin(venueID string) *models.Principal {
	return &models.Principal{UID: "va", Email: "va@x.y", Role: models.RoleVenueAdmin, VenueID: venueID, Active: true}
}

func TestCreateVenueWithAdmin(t *testing.T) {
	venues := newFakeVenueStore()
	users := &fakePrincipalStore{byEmail: map[string]*models.User{
		"owner@x.y": {UID: "u1", Email: "owner@x.y", Role: models.RoleUser, Active: true},
	}}
	cache := &fakeInvalidator{}
	w := NewVenueWorkflows(venues, users, &fakeAdminRecords{}, &fakeProvisioner{}, cache, &fakePublisher{}, nil)

	venue, result, err := w.CreateVenueWithAdmin(context.Background(), siteAdmin(), models.CreateVenueRequest{
		Name:       "Grand Hall",
		AdminEmail: "owner@x.y",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, venue.ID)
	assert.Equal(t, []string{"owner@x.y"}, venue.Admins)
	assert.Equal(t, []string{"u1"}, users.assigned)
	assert.Contains(t, cache.uids, "u1")
	assert.Empty(t, result.Failed())
}

func TestCreateVenueForbiddenForVenueAdmin(t *testing.T) {
	w := NewVenueWorkflows(newFakeVenueStore(), &fakePrincipalStore{}, &fakeAdminRecords{}, &fakeProvisioner{}, &fakeInvalidator{}, &fakePublisher{}, nil)

	_, _, err := w.CreateVenueWithAdmin(context.Background(), venueAdmin("v1"), models.CreateVenueRequest{
		Name:       "Grand Hall",
		AdminEmail: "owner@x.y",
	})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestCreateVenueUnknownAdminProvisionsAccount(t *testing.T) {
	venues := newFakeVenueStore()
	users := &fakePrincipalStore{byEmail: map[string]*models.User{}}
	accounts := &fakeProvisioner{}
	cache := &fakeInvalidator{}
	w := NewVenueWorkflows(venues, users, &fakeAdminRecords{}, accounts, cache, &fakePublisher{}, nil)

	venue, result, err := w.CreateVenueWithAdmin(context.Background(), siteAdmin(), models.CreateVenueRequest{
		Name:       "Riverside",
		AdminEmail: "a@x.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, venue.Admins)
	assert.Equal(t, []string{"a@x.com"}, accounts.provisioned, "fresh account created for the unknown email")
	assert.Equal(t, []string{"new-a@x.com"}, users.assigned, "new account promoted to venue admin")
	assert.Contains(t, cache.uids, "new-a@x.com")
	assert.Empty(t, result.Failed())
}

func TestCreateVenueProvisioningFailureReported(t *testing.T) {
	venues := newFakeVenueStore()
	users := &fakePrincipalStore{byEmail: map[string]*models.User{}}
	accounts := &fakeProvisioner{err: errors.New("db down")}
	w := NewVenueWorkflows(venues, users, &fakeAdminRecords{}, accounts, &fakeInvalidator{}, &fakePublisher{}, nil)

	venue, result, err := w.CreateVenueWithAdmin(context.Background(), siteAdmin(), models.CreateVenueRequest{
		Name:       "Riverside",
		AdminEmail: "a@x.com",
	})
	assert.NoError(t, err, "venue creation survives a failed account provision")
	assert.Contains(t, venues.venues, venue.ID)
	assert.Equal(t, []string{"promote venue admin"}, result.Failed())
	assert.Empty(t, users.assigned, "no role written without an account")
}

func TestCreateVenuePromotionFailureReported(t *testing.T) {
	venues := newFakeVenueStore()
	users := &fakePrincipalStore{
		byEmail:   map[string]*models.User{"owner@x.y": {UID: "u1", Email: "owner@x.y"}},
		assignErr: errors.New("db down"),
	}
	w := NewVenueWorkflows(venues, users, &fakeAdminRecords{}, &fakeProvisioner{}, &fakeInvalidator{}, &fakePublisher{}, nil)

	venue, result, err := w.CreateVenueWithAdmin(context.Background(), siteAdmin(), models.CreateVenueRequest{
		Name:       "Grand Hall",
		AdminEmail: "owner@x.y",
	})
	assert.NoError(t, err, "venue creation survives a failed promotion")
	assert.NotNil(t, venue)
	assert.Contains(t, venues.venues, venue.ID, "no rollback of the venue record")
	assert.Equal(t, []string{"promote venue admin"}, result.Failed())
}

func TestDeleteVenueContinuesPastFailedReset(t *testing.T) {
	venues := newFakeVenueStore(&models.Venue{ID: "v1", Name: "Grand Hall"})
	users := &fakePrincipalStore{
		members: []models.User{
			{UID: "u1", VenueID: "v1", Role: models.RoleVenueAdmin},
			{UID: "u2", VenueID: "v1", Role: models.RoleSubAdmin},
		},
		resetErr: map[string]error{"u1": errors.New("db down")},
	}
	admins := &fakeAdminRecords{}
	pub := &fakePublisher{}
	w := NewVenueWorkflows(venues, users, admins, &fakeProvisioner{}, &fakeInvalidator{}, pub, nil)

	result, err := w.DeleteVenue(context.Background(), siteAdmin(), "v1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"u2"}, users.resets, "remaining resets still run")
	assert.Equal(t, []string{"v1"}, admins.deactivated)
	assert.Equal(t, []string{"v1"}, venues.deleted, "venue removed despite partial resets")
	assert.Equal(t, []string{"reset principal"}, result.Failed())
	assert.Contains(t, pub.subjects, models.SubjectVenueDeleted)
}

func TestDeleteVenueAbortsWhenRecordDeleteFails(t *testing.T) {
	venues := newFakeVenueStore(&models.Venue{ID: "v1"})
	venues.deleteErr = errors.New("db down")
	users := &fakePrincipalStore{
		members: []models.User{{UID: "u1", VenueID: "v1", Role: models.RoleVenueAdmin}},
	}
	pub := &fakePublisher{}
	w := NewVenueWorkflows(venues, users, &fakeAdminRecords{}, &fakeProvisioner{}, &fakeInvalidator{}, pub, nil)

	result, err := w.DeleteVenue(context.Background(), siteAdmin(), "v1")
	assert.Error(t, err)
	assert.True(t, result.Aborted)
	assert.Empty(t, users.resets, "record delete comes first; no principals touched")
	assert.Empty(t, pub.subjects, "nothing announced for a failed delete")
}

func TestDeleteVenueNotFound(t *testing.T) {
	w := NewVenueWorkflows(newFakeVenueStore(), &fakePrincipalStore{}, &fakeAdminRecords{}, &fakeProvisioner{}, &fakeInvalidator{}, &fakePublisher{}, nil)

	_, err := w.DeleteVenue(context.Background(), siteAdmin(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAddAdminRoleWriteComesFirst(t *testing.T) {
	venues := newFakeVenueStore(&models.Venue{ID: "v1"})
	users := &fakePrincipalStore{
		byEmail:   map[string]*models.User{"sub@x.y": {UID: "u3", Email: "sub@x.y"}},
		assignErr: errors.New("db down"),
	}
	w := NewVenueWorkflows(venues, users, &fakeAdminRecords{}, &fakeProvisioner{}, &fakeInvalidator{}, &fakePublisher{}, nil)

	result, err := w.AddAdmin(context.Background(), venueAdmin("v1"), "v1", models.AddAdminRequest{
		Email: "sub@x.y",
	})
	assert.Error(t, err)
	assert.True(t, result.Aborted)
	assert.Empty(t, venues.added, "membership never written when the role write fails")
}

func TestAddAdminUnknownEmailProvisionsAccount(t *testing.T) {
	venues := newFakeVenueStore(&models.Venue{ID: "v1"})
	users := &fakePrincipalStore{byEmail: map[string]*models.User{}}
	accounts := &fakeProvisioner{}
	w := NewVenueWorkflows(venues, users, &fakeAdminRecords{}, accounts, &fakeInvalidator{}, &fakePublisher{}, nil)

	result, err := w.AddAdmin(context.Background(), venueAdmin("v1"), "v1", models.AddAdminRequest{
		Email: "sub@x.y",
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"sub@x.y"}, accounts.provisioned)
	assert.Equal(t, []string{"new-sub@x.y"}, users.assigned)
	assert.Equal(t, []string{"sub@x.y"}, venues.added)
	assert.Empty(t, result.Failed())
}

func TestAddAdminVenueAdminCannotAddVenueAdmin(t *testing.T) {
	w := NewVenueWorkflows(newFakeVenueStore(&models.Venue{ID: "v1"}), &fakePrincipalStore{}, &fakeAdminRecords{}, &fakeProvisioner{}, &fakeInvalidator{}, &fakePublisher{}, nil)

	_, err := w.AddAdmin(context.Background(), venueAdmin("v1"), "v1", models.AddAdminRequest{
		Email:      "sub@x.y",
		VenueAdmin: true,
	})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestRemoveAdmin(t *testing.T) {
	venues := newFakeVenueStore(&models.Venue{ID: "v1", SubAdmins: []string{"sub@x.y"}})
	users := &fakePrincipalStore{
		byEmail: map[string]*models.User{"sub@x.y": {UID: "u3", Email: "sub@x.y", VenueID: "v1"}},
	}
	cache := &fakeInvalidator{}
	w := NewVenueWorkflows(venues, users, &fakeAdminRecords{}, &fakeProvisioner{}, cache, &fakePublisher{}, nil)

	result, err := w.RemoveAdmin(context.Background(), venueAdmin("v1"), "v1", models.RemoveAdminRequest{
		Email: "sub@x.y",
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"sub@x.y"}, venues.removed)
	assert.Equal(t, []string{"u3"}, users.resets)
	assert.Contains(t, cache.uids, "u3")
	assert.Empty(t, result.Failed())
}
