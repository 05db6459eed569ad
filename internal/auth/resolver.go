package auth

import (
	"context"
	"log/slog"

	"stagedoor/internal/models"
)

type adminStore interface {
	GetByUID(ctx context.Context, uid string) (*models.AdminRecord, error)
}

type userStore interface {
	GetByUID(ctx context.Context, uid string) (*models.User, error)
}

type principalCache interface {
	GetPrincipal(ctx context.Context, uid string) (*models.Principal, error)
	SetPrincipal(ctx context.Context, p *models.Principal) error
	InvalidatePrincipal(ctx context.Context, uid string) error
}

// Resolver maps an authenticated identity to its current privileges.
// Admin records take precedence over plain user accounts; an identity
// matching neither resolves to an ordinary user. Results are cached
// briefly so repeated requests do not hit the database.
type Resolver struct {
	admins adminStore
	users  userStore
	cache  principalCache
}

func NewResolver(admins adminStore, users userStore, cache principalCache) *Resolver {
	return &Resolver{admins: admins, users: users, cache: cache}
}

// Resolve returns the caller's current principal, or nil when the
// account has been deactivated and the session must end.
//
// Database failures degrade to an ordinary user principal rather than
// failing the request. That keeps read access alive during an outage
// without ever granting elevated privileges on unverified data.
func (r *Resolver) Resolve(ctx context.Context, uid, email string) (*models.Principal, error) {
	if r.cache != nil {
		cached, err := r.cache.GetPrincipal(ctx, uid)
		if err != nil {
			slog.Warn("Principal cache read failed", "uid", uid, "error", err)
		} else if cached != nil {
			if !cached.Active {
				return nil, nil
			}
			return cached, nil
		}
	}

	principal, terminated := r.resolve(ctx, uid, email)
	if terminated {
		if r.cache != nil {
			if err := r.cache.InvalidatePrincipal(ctx, uid); err != nil {
				slog.Warn("Principal cache invalidation failed", "uid", uid, "error", err)
			}
		}
		return nil, nil
	}

	if r.cache != nil {
		if err := r.cache.SetPrincipal(ctx, principal); err != nil {
			slog.Warn("Principal cache write failed", "uid", uid, "error", err)
		}
	}
	return principal, nil
}

func (r *Resolver) resolve(ctx context.Context, uid, email string) (p *models.Principal, terminated bool) {
	admin, err := r.admins.GetByUID(ctx, uid)
	if err != nil {
		slog.Error("Admin lookup failed, resolving as ordinary user", "uid", uid, "error", err)
		return defaultPrincipal(uid, email), false
	}
	if admin != nil {
		if !admin.Active {
			return nil, true
		}
		return &models.Principal{
			UID:     admin.UID,
			Email:   admin.Email,
			Role:    admin.Role,
			VenueID: admin.VenueID,
			Active:  true,
		}, false
	}

	user, err := r.users.GetByUID(ctx, uid)
	if err != nil {
		slog.Error("User lookup failed, resolving as ordinary user", "uid", uid, "error", err)
		return defaultPrincipal(uid, email), false
	}
	if user != nil {
		if !user.Active {
			return nil, true
		}
		return &models.Principal{
			UID:     user.UID,
			Email:   user.Email,
			Role:    user.Role,
			VenueID: user.VenueID,
			Active:  true,
		}, false
	}

	return defaultPrincipal(uid, email), false
}

func defaultPrincipal(uid, email string) *models.Principal {
	return &models.Principal{
		UID:    uid,
		Email:  email,
		Role:   models.RoleUser,
		Active: true,
	}
}
