package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stagedoor/internal/apperrors"
	"stagedoor/internal/auth"
	"stagedoor/internal/models"
	"stagedoor/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func injectPrincipal(p *models.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.ContextWithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func TestErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", apperrors.Forbidden("nope"), http.StatusForbidden},
		{"validation", apperrors.Invalid("bad input"), http.StatusBadRequest},
		{"not found", apperrors.NotFound("missing"), http.StatusNotFound},
		{"conflict", apperrors.Conflict("dup"), http.StatusConflict},
		{"opaque backend failure", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { respondError(c, tt.err) })

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/x", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "pq:", "backend details stay opaque")
			}
		})
	}
}

// The featured toggle must be rejected by policy before any backend is
// touched: every workflow dependency here is nil and would panic if
// reached.
func TestSetEventFeaturedDeniedBeforeBackendCalls(t *testing.T) {
	gin.SetMode(gin.TestMode)

	eventFlows := workflow.NewEventWorkflows(nil, nil, nil, nil, nil, nil)
	h := &Handlers{eventFlows: eventFlows}

	r := gin.New()
	r.PATCH("/api/events/:id/featured",
		injectPrincipal(&models.Principal{UID: "va", Role: models.RoleVenueAdmin, VenueID: "v1", Active: true}),
		h.SetEventFeatured)

	body, _ := json.Marshal(gin.H{"featured": true})
	req, _ := http.NewRequest("PATCH", "/api/events/e1/featured", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateVenueDeniedForVenueAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	venueFlows := workflow.NewVenueWorkflows(nil, nil, nil, nil, nil, nil, nil)
	h := &Handlers{venueFlows: venueFlows}

	r := gin.New()
	r.POST("/api/venues",
		injectPrincipal(&models.Principal{UID: "va", Role: models.RoleVenueAdmin, VenueID: "v1", Active: true}),
		h.CreateVenue)

	body, _ := json.Marshal(models.CreateVenueRequest{Name: "Hall", AdminEmail: "a@b.c"})
	req, _ := http.NewRequest("POST", "/api/venues", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMarkTicketUsedRequiresTicketID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}
	r := gin.New()
	r.POST("/api/tickets/used",
		injectPrincipal(&models.Principal{UID: "sa", Role: models.RoleSiteAdmin, Active: true}),
		h.MarkTicketUsed)

	req, _ := http.NewRequest("POST", "/api/tickets/used", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeReturnsPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}
	r := gin.New()
	r.GET("/api/auth/me",
		injectPrincipal(&models.Principal{UID: "u1", Email: "a@b.c", Role: models.RoleSubAdmin, VenueID: "v1", Active: true}),
		h.Me)

	req, _ := http.NewRequest("GET", "/api/auth/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var p models.Principal
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "u1", p.UID)
	assert.Equal(t, models.RoleSubAdmin, p.Role)
	assert.Equal(t, "v1", p.VenueID)
}
