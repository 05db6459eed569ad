package handlers

import (
	"net/http"

	"stagedoor/internal/auth"
	"stagedoor/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupFirstAdmin - POST /api/setup/first-admin
// One-time bootstrap for the caller's own account; refuses once a site
// admin exists.
func (h *Handlers) SetupFirstAdmin(c *gin.Context) {
	var req models.SetupFirstAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := auth.PrincipalFromContext(c.Request.Context())
	envelope, err := h.admins.SetupFirstAdmin(c.Request.Context(), p, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, envelope)
}

// ListAdmins - GET /api/admins
func (h *Handlers) ListAdmins(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	records, err := h.admins.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": records})
}

// CreateAdmin - POST /api/admins
func (h *Handlers) CreateAdmin(c *gin.Context) {
	var req models.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := auth.PrincipalFromContext(c.Request.Context())
	envelope, err := h.admins.CreateAdmin(c.Request.Context(), p, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, envelope)
}

// UpdateAdmin - PATCH /api/admins/:id
func (h *Handlers) UpdateAdmin(c *gin.Context) {
	var req models.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := auth.PrincipalFromContext(c.Request.Context())
	envelope, err := h.admins.UpdateAdmin(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// DeleteAdmin - DELETE /api/admins/:id
func (h *Handlers) DeleteAdmin(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	envelope, err := h.admins.DeleteAdmin(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope)
}
