// Package authz holds the pure role/scope decision functions consulted
// before every mutation. No function here performs I/O; a denial is
// returned as apperrors.ErrForbidden before any network call happens.
package authz

import (
	"stagedoor/internal/apperrors"
	"stagedoor/internal/models"
)

// CanCreateVenue allows venue creation for site admins only.
func CanCreateVenue(p *models.Principal) error {
	if p == nil {
		return apperrors.ErrUnauthorized
	}
	if p.Role != models.RoleSiteAdmin {
		return apperrors.Forbidden("only site admins may create venues")
	}
	return nil
}

// CanDeleteVenue allows venue deletion for site admins only.
func CanDeleteVenue(p *models.Principal) error {
	if p == nil {
		return apperrors.ErrUnauthorized
	}
	if p.Role != models.RoleSiteAdmin {
		return apperrors.Forbidden("only site admins may delete venues")
	}
	return nil
}

// CanAddAdmin decides whether p may add a member to venueID. Site
// admins add venue admins anywhere; venue admins add sub-admins to
// their own venue only.
func CanAddAdmin(p *models.Principal, venueID string, asVenueAdmin bool) error {
	if p == nil {
		return apperrors.ErrUnauthorized
	}
	switch p.Role {
	case models.RoleSiteAdmin:
		return nil
	case models.RoleVenueAdmin:
		if asVenueAdmin {
			return apperrors.Forbidden("venue admins may only add sub-admins")
		}
		if p.VenueID != venueID {
			return apperrors.Forbidden("venue admins may only act on their own venue")
		}
		return nil
	}
	return apperrors.Forbidden("role %s may not add admins", p.Role)
}

// CanRemoveAdmin decides whether p may remove a member from venueID.
func CanRemoveAdmin(p *models.Principal, venueID string, targetIsVenueAdmin bool) error {
	if p == nil {
		return apperrors.ErrUnauthorized
	}
	switch p.Role {
	case models.RoleSiteAdmin:
		return nil
	case models.RoleVenueAdmin:
		if targetIsVenueAdmin {
			return apperrors.Forbidden("venue admins may only remove sub-admins")
		}
		if p.VenueID != venueID {
			return apperrors.Forbidden("venue admins may only act on their own venue")
		}
		return nil
	}
	return apperrors.Forbidden("role %s may not remove admins", p.Role)
}

// CanWriteEvent decides whether p may create or edit an event in
// venueID. Non-site admins are confined to their own venue.
func CanWriteEvent(p *models.Principal, venueID string) error {
	if p == nil {
		return apperrors.ErrUnauthorized
	}
	switch p.Role {
	case models.RoleSiteAdmin:
		return nil
	case models.RoleVenueAdmin, models.RoleSubAdmin:
		if p.VenueID == "" {
			return apperrors.Forbidden("no venue assigned to account")
		}
		if venueID != "" && venueID != p.VenueID {
			return apperrors.Forbidden("events may only be managed for your own venue")
		}
		return nil
	}
	return apperrors.Forbidden("role %s may not manage events", p.Role)
}

// CanDeleteEvent mirrors CanWriteEvent.
func CanDeleteEvent(p *models.Principal, venueID string) error {
	return CanWriteEvent(p, venueID)
}

// CanToggleFeatured allows the featured flag to change for site admins
// only.
func CanToggleFeatured(p *models.Principal) error {
	if p == nil {
		return apperrors.ErrUnauthorized
	}
	if p.Role != models.RoleSiteAdmin {
		return apperrors.Forbidden("only site admins may manage featured events")
	}
	return nil
}

// CanMarkTicketUsed decides whether p may mark a ticket of ticketVenueID
// as used.
func CanMarkTicketUsed(p *models.Principal, ticketVenueID string) error {
	if p == nil {
		return apperrors.ErrUnauthorized
	}
	switch p.Role {
	case models.RoleSiteAdmin:
		return nil
	case models.RoleVenueAdmin, models.RoleSubAdmin:
		if p.VenueID == "" || p.VenueID != ticketVenueID {
			return apperrors.Forbidden("tickets may only be processed for your own venue")
		}
		return nil
	}
	return apperrors.Forbidden("role %s may not process tickets", p.Role)
}

// ViewScope returns the venue the actor's list queries must be
// restricted to. all is true for site admins; otherwise venueID names
// the single visible venue. The returned scope is applied as a SQL
// predicate, never as a client-side filter.
func ViewScope(p *models.Principal) (venueID string, all bool, err error) {
	if p == nil {
		return "", false, apperrors.ErrUnauthorized
	}
	switch p.Role {
	case models.RoleSiteAdmin:
		return "", true, nil
	case models.RoleVenueAdmin, models.RoleSubAdmin:
		if p.VenueID == "" {
			return "", false, apperrors.Forbidden("no venue assigned to account")
		}
		return p.VenueID, false, nil
	}
	return "", false, apperrors.Forbidden("role %s may not view admin data", p.Role)
}

// CanManageAdminRecords allows admin-record CRUD for site admins only.
func CanManageAdminRecords(p *models.Principal) error {
	if p == nil {
		return apperrors.ErrUnauthorized
	}
	if p.Role != models.RoleSiteAdmin {
		return apperrors.Forbidden("only site admins may manage administrator accounts")
	}
	return nil
}

// CanMutateAdminRecord additionally refuses self-targeting mutations:
// a site admin can never deactivate or delete their own record.
func CanMutateAdminRecord(p *models.Principal, targetUID string) error {
	if err := CanManageAdminRecords(p); err != nil {
		return err
	}
	if targetUID != "" && targetUID == p.UID {
		return apperrors.Forbidden("administrators may not modify their own record")
	}
	return nil
}
