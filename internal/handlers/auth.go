package handlers

import (
	"net/http"

	"stagedoor/internal/auth"
	"stagedoor/internal/middleware"
	"stagedoor/internal/models"

	"github.com/gin-gonic/gin"
)

// Login - POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout - POST /api/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	claims, err := middleware.TokenClaims(c, h.tokens)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), p.UID, claims.ID, claims.ExpiresAt.Time); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me - GET /api/auth/me
// Returns the caller's resolved privileges.
func (h *Handlers) Me(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	c.JSON(http.StatusOK, p)
}

// ChangePassword - POST /api/auth/password
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := auth.PrincipalFromContext(c.Request.Context())
	if err := h.authService.ChangePassword(c.Request.Context(), p.UID, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RequestPasswordReset - POST /api/auth/reset
// Always answers 200 so the endpoint cannot probe for accounts.
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_ = h.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
