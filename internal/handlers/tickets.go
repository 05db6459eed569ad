package handlers

import (
	"net/http"

	"stagedoor/internal/auth"
	"stagedoor/internal/models"

	"github.com/gin-gonic/gin"
)

// ListTickets - GET /api/tickets
func (h *Handlers) ListTickets(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	tickets, err := h.tickets.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// ListTicketsGrouped - GET /api/tickets/grouped
// Tickets grouped per event with revenue and usage counts.
func (h *Handlers) ListTicketsGrouped(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	groups, err := h.tickets.GroupByEvent(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// TicketStats - GET /api/tickets/stats
func (h *Handlers) TicketStats(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	stats, err := h.tickets.Stats(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MarkTicketUsed - POST /api/tickets/used
// Idempotent: scanning an already used ticket returns its state.
func (h *Handlers) MarkTicketUsed(c *gin.Context) {
	var req models.MarkTicketUsedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := auth.PrincipalFromContext(c.Request.Context())
	ticket, err := h.tickets.MarkUsed(c.Request.Context(), p, req.TicketID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
