package handlers

import (
	"errors"
	"net/http"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/auth"
	"stagedoor/internal/logger"
	"stagedoor/internal/service"
	"stagedoor/internal/workflow"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	authService *auth.Service
	tokens      *auth.TokenIssuer
	events      *service.EventService
	tickets     *service.TicketService
	admins      *service.AdminService
	venues      *service.VenueService
	venueFlows  *workflow.VenueWorkflows
	eventFlows  *workflow.EventWorkflows
}

func NewHandlers(
	authService *auth.Service,
	tokens *auth.TokenIssuer,
	events *service.EventService,
	tickets *service.TicketService,
	admins *service.AdminService,
	venues *service.VenueService,
	venueFlows *workflow.VenueWorkflows,
	eventFlows *workflow.EventWorkflows,
) *Handlers {
	return &Handlers{
		authService: authService,
		tokens:      tokens,
		events:      events,
		tickets:     tickets,
		admins:      admins,
		venues:      venues,
		venueFlows:  venueFlows,
		eventFlows:  eventFlows,
	}
}

// respondError maps the error taxonomy to HTTP statuses. Anything
// outside the taxonomy is a backend failure and stays opaque to the
// client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case apperrors.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.WithContext(c.Request.Context()).Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
