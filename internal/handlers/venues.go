package handlers

import (
	"net/http"

	"stagedoor/internal/auth"
	"stagedoor/internal/models"

	"github.com/gin-gonic/gin"
)

// ListVenues - GET /api/venues
func (h *Handlers) ListVenues(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	venues, err := h.venues.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"venues": venues})
}

// GetVenue - GET /api/venues/:id
func (h *Handlers) GetVenue(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	venue, err := h.venues.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, venue)
}

// CreateVenue - POST /api/venues
// Creates the venue and promotes its first admin in one workflow.
func (h *Handlers) CreateVenue(c *gin.Context) {
	var req models.CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := auth.PrincipalFromContext(c.Request.Context())
	venue, result, err := h.venueFlows.CreateVenueWithAdmin(c.Request.Context(), p, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"venue":        venue,
		"failed_steps": result.Failed(),
	})
}

// DeleteVenue - DELETE /api/venues/:id
// Partial cascade success is reported, not hidden.
func (h *Handlers) DeleteVenue(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	result, err := h.venueFlows.DeleteVenue(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"failed_steps": result.Failed(),
	})
}

// AddVenueAdmin - POST /api/venues/:id/admins
func (h *Handlers) AddVenueAdmin(c *gin.Context) {
	var req models.AddAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := auth.PrincipalFromContext(c.Request.Context())
	result, err := h.venueFlows.AddAdmin(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "failed_steps": result.Failed()})
}

// RemoveVenueAdmin - DELETE /api/venues/:id/admins
func (h *Handlers) RemoveVenueAdmin(c *gin.Context) {
	var req models.RemoveAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := auth.PrincipalFromContext(c.Request.Context())
	result, err := h.venueFlows.RemoveAdmin(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "failed_steps": result.Failed()})
}

// ListVenueRoles - GET /api/venues/roles
// Every principal currently holding a venue role, for the management
// page.
func (h *Handlers) ListVenueRoles(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	users, err := h.venues.ListVenueRoles(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
