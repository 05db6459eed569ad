package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"stagedoor/internal/auth"
	"stagedoor/internal/models"
	"stagedoor/internal/workflow"

	"github.com/gin-gonic/gin"
)

// ListEvents - GET /api/events
func (h *Handlers) ListEvents(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	events, err := h.events.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// SearchEvents - GET /api/events/search?q=...
func (h *Handlers) SearchEvents(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	events, err := h.events.Search(c.Request.Context(), p, c.Query("q"), size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetEvent - GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	event, err := h.events.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// SaveEvent - POST /api/events
// Accepts plain JSON, or multipart with a "payload" JSON part and an
// optional "image" file part.
func (h *Handlers) SaveEvent(c *gin.Context) {
	req, image, err := bindSaveEvent(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if image != nil {
		defer image.close()
	}

	p := auth.PrincipalFromContext(c.Request.Context())
	var upload *workflow.ImageUpload
	if image != nil {
		upload = &image.upload
	}

	event, err := h.eventFlows.SaveEvent(c.Request.Context(), p, *req, upload)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, event)
}

type boundImage struct {
	upload workflow.ImageUpload
	close  func() error
}

func bindSaveEvent(c *gin.Context) (*models.SaveEventRequest, *boundImage, error) {
	contentType := c.GetHeader("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var req models.SaveEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	var req models.SaveEventRequest
	payload := c.PostForm("payload")
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, nil, err
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		// No image part; the save proceeds without one.
		return &req, nil, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, err
	}

	return &req, &boundImage{
		upload: workflow.ImageUpload{
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Body:        file,
		},
		close: file.Close,
	}, nil
}

// SetEventFeatured - PATCH /api/events/:id/featured
func (h *Handlers) SetEventFeatured(c *gin.Context) {
	var req struct {
		Featured bool `json:"featured"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := auth.PrincipalFromContext(c.Request.Context())
	event, err := h.eventFlows.ToggleFeatured(c.Request.Context(), p, c.Param("id"), req.Featured)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// DeleteEvent - DELETE /api/events/:id
// Runs the deletion cascade: tickets, image, then the record.
func (h *Handlers) DeleteEvent(c *gin.Context) {
	p := auth.PrincipalFromContext(c.Request.Context())
	result, err := h.eventFlows.DeleteEvent(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"failed_steps": result.Failed(),
	})
}
