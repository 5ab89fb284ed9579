package redirect

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linklet/linklet/pkg/linklet/validation"
	"github.com/rs/zerolog"
)

// Handler handles redirect requests
type Handler struct {
	resolver *Resolver
	log      zerolog.Logger
}

// NewHandler creates a new redirect handler
func NewHandler(resolver *Resolver, log zerolog.Logger) *Handler {
	return &Handler{resolver: resolver, log: log}
}

// Redirect resolves a slug and issues a temporary redirect. The path is
// public and unthrottled; only the mutation surface is rate limited. The
// redirect is a 307 so clients do not cache it permanently.
func (h *Handler) Redirect(c *gin.Context) {
	slug := c.Param("slug")

	dest, err := h.resolver.Resolve(slug)
	switch {
	case err == nil:
		c.Redirect(http.StatusTemporaryRedirect, dest)
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
	case errors.Is(err, validation.ErrSchemeNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL protocol"})
	case errors.Is(err, validation.ErrMalformedURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL format"})
	default:
		h.log.Error().Err(err).Str("slug", slug).Msg("redirect resolution failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// RegisterRoutes registers the public redirect route.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/l/:slug", h.Redirect)
}
