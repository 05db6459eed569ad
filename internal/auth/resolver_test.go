package auth

import (
	"context"
	"errors"
	"testing"

	"stagedoor/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeAdminStore struct {
	rec *models.AdminRecord
	err error
}

func (f *fakeAdminStore) GetByUID(ctx context.Context, uid string) (*models.AdminRecord, error) {
	return f.rec, f.err
}

type fakeUserStore struct {
	user *models.User
	err  error
}

func (f *fakeUserStore) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	return f.user, f.err
}

type fakeCache struct {
	cached      *models.Principal
	invalidated []string
	stored      []*models.Principal
}

func (f *fakeCache) GetPrincipal(ctx context.Context, uid string) (*models.Principal, error) {
	if f.cached == nil {
		return nil, errors.New("principal not cached")
	}
	return f.cached, nil
}

func (f *fakeCache) SetPrincipal(ctx context.Context, p *models.Principal) error {
	f.stored = append(f.stored, p)
	return nil
}

func (f *fakeCache) InvalidatePrincipal(ctx context.Context, uid string) error {
	f.invalidated = append(f.invalidated, uid)
	return nil
}

func TestResolveAdminRecordWins(t *testing.T) {
	admins := &fakeAdminStore{rec: &models.AdminRecord{
		UID: "u1", Email: "a@b.c", Role: models.RoleVenueAdmin, VenueID: "v1", Active: true,
	}}
	users := &fakeUserStore{user: &models.User{
		UID: "u1", Email: "a@b.c", Role: models.RoleUser, Active: true,
	}}
	r := NewResolver(admins, users, &fakeCache{})

	p, err := r.Resolve(context.Background(), "u1", "a@b.c")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleVenueAdmin, p.Role)
	assert.Equal(t, "v1", p.VenueID)
}

func TestResolveFallsThroughToUser(t *testing.T) {
	users := &fakeUserStore{user: &models.User{
		UID: "u1", Email: "a@b.c", Role: models.RoleUser, Active: true,
	}}
	r := NewResolver(&fakeAdminStore{}, users, &fakeCache{})

	p, err := r.Resolve(context.Background(), "u1", "a@b.c")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, p.Role)
}

func TestResolveUnknownIdentityDefaultsToUser(t *testing.T) {
	r := NewResolver(&fakeAdminStore{}, &fakeUserStore{}, &fakeCache{})

	p, err := r.Resolve(context.Background(), "ghost", "ghost@b.c")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, p.Role)
	assert.Equal(t, "ghost", p.UID)
}

func TestResolveInactiveAdminTerminatesSession(t *testing.T) {
	admins := &fakeAdminStore{rec: &models.AdminRecord{
		UID: "u1", Role: models.RoleSiteAdmin, Active: false,
	}}
	cache := &fakeCache{}
	r := NewResolver(admins, &fakeUserStore{}, cache)

	p, err := r.Resolve(context.Background(), "u1", "a@b.c")
	assert.NoError(t, err)
	assert.Nil(t, p, "deactivated account resolves to no principal")
	assert.Contains(t, cache.invalidated, "u1")
}

func TestResolveInactiveUserTerminatesSession(t *testing.T) {
	users := &fakeUserStore{user: &models.User{UID: "u1", Active: false}}
	r := NewResolver(&fakeAdminStore{}, users, &fakeCache{})

	p, err := r.Resolve(context.Background(), "u1", "a@b.c")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolveLookupFailureDegradesToLowestPrivilege(t *testing.T) {
	admins := &fakeAdminStore{err: errors.New("db down")}
	r := NewResolver(admins, &fakeUserStore{}, &fakeCache{})

	p, err := r.Resolve(context.Background(), "u1", "a@b.c")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, p.Role, "outage never grants elevated privileges")
	assert.Empty(t, p.VenueID)
}

func TestResolveUsesCache(t *testing.T) {
	cache := &fakeCache{cached: &models.Principal{
		UID: "u1", Role: models.RoleSubAdmin, VenueID: "v1", Active: true,
	}}
	// Stores would fail if consulted.
	admins := &fakeAdminStore{err: errors.New("must not be called")}
	r := NewResolver(admins, &fakeUserStore{}, cache)

	p, err := r.Resolve(context.Background(), "u1", "a@b.c")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleSubAdmin, p.Role)
}

func TestResolveCachesResolution(t *testing.T) {
	users := &fakeUserStore{user: &models.User{UID: "u1", Role: models.RoleUser, Active: true}}
	cache := &fakeCache{}
	r := NewResolver(&fakeAdminStore{}, users, cache)

	_, err := r.Resolve(context.Background(), "u1", "a@b.c")
	assert.NoError(t, err)
	assert.Len(t, cache.stored, 1)
}
