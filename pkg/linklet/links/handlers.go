package links

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/linklet/linklet/pkg/linklet/auth"
	"github.com/linklet/linklet/pkg/linklet/models"
)

// Handler exposes the mutation core over HTTP. Every response uses the
// {success, data|error} envelope; no request path escapes as a panic or
// an unhandled error.
type Handler struct {
	service *Service
}

// NewHandler creates a new links handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateLinkRequest represents the request to create a link.
// Validation messages come from the service's rule order, not from
// binding tags, so the request shape is deliberately unconstrained here.
type CreateLinkRequest struct {
	URL  string `json:"url"`
	Slug string `json:"slug"`
}

// UpdateLinkRequest represents the request to update a link
type UpdateLinkRequest struct {
	URL  string `json:"url"`
	Slug string `json:"slug"`
}

// LinkResponse represents a link in API responses
type LinkResponse struct {
	ID        uint   `json:"id"`
	OwnerID   string `json:"owner_id"`
	Slug      string `json:"slug"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func linkToResponse(link models.Link) LinkResponse {
	return LinkResponse{
		ID:        link.ID,
		OwnerID:   link.OwnerID,
		Slug:      link.Slug,
		URL:       link.OriginalURL,
		CreatedAt: link.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: link.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondFault(c *gin.Context, f *Fault) {
	c.JSON(f.Status(), gin.H{"success": false, "error": f.Message})
}

// Create creates a new link
// @Summary Create a link
// @Description Create a new shortened link owned by the authenticated user
// @Tags links
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Link details"
// @Success 201 {object} LinkResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 429 {object} map[string]string "Rate limited"
// @Security BearerAuth
// @Router /links [post]
func (h *Handler) Create(c *gin.Context) {
	actorID, _ := auth.GetActorID(c)

	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFault(c, fault(FaultInvalidInput, "Invalid request body"))
		return
	}

	link, f := h.service.Create(actorID, CreateInput{URL: req.URL, Slug: req.Slug})
	if f != nil {
		respondFault(c, f)
		return
	}
	respondData(c, http.StatusCreated, linkToResponse(*link))
}

// Update updates a link
// @Summary Update a link
// @Description Replace the slug and destination URL of an owned link
// @Tags links
// @Accept json
// @Produce json
// @Param id path int true "Link ID"
// @Param request body UpdateLinkRequest true "Updated link details"
// @Success 200 {object} LinkResponse
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Link not found"
// @Security BearerAuth
// @Router /links/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	actorID, _ := auth.GetActorID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondFault(c, fault(FaultInvalidInput, "Invalid link ID"))
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFault(c, fault(FaultInvalidInput, "Invalid request body"))
		return
	}

	link, f := h.service.Update(actorID, uint(id), UpdateInput{URL: req.URL, Slug: req.Slug})
	if f != nil {
		respondFault(c, f)
		return
	}
	respondData(c, http.StatusOK, linkToResponse(*link))
}

// Delete deletes a link
// @Summary Delete a link
// @Description Permanently delete an owned link
// @Tags links
// @Produce json
// @Param id path int true "Link ID"
// @Success 200 {object} map[string]interface{} "Link deleted"
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Link not found"
// @Security BearerAuth
// @Router /links/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	actorID, _ := auth.GetActorID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondFault(c, fault(FaultInvalidInput, "Invalid link ID"))
		return
	}

	if f := h.service.Delete(actorID, uint(id)); f != nil {
		respondFault(c, f)
		return
	}
	respondData(c, http.StatusOK, nil)
}

// List returns the authenticated user's links
// @Summary List links
// @Description Get all links owned by the authenticated user, newest first
// @Tags links
// @Produce json
// @Success 200 {array} LinkResponse
// @Security BearerAuth
// @Router /links [get]
func (h *Handler) List(c *gin.Context) {
	actorID, _ := auth.GetActorID(c)

	links, f := h.service.ListByOwner(actorID)
	if f != nil {
		respondFault(c, f)
		return
	}

	responses := make([]LinkResponse, len(links))
	for i, link := range links {
		responses[i] = linkToResponse(link)
	}
	respondData(c, http.StatusOK, responses)
}

// RegisterRoutes registers link routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/links", h.List)
	rg.POST("/links", h.Create)
	rg.PUT("/links/:id", h.Update)
	rg.DELETE("/links/:id", h.Delete)
}
