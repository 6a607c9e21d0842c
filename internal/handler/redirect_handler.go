package handler

import (
	"errors"
	"net/http"

	"github.com/L7NNON-loop/incutador-pro/internal/service"
	"github.com/gin-gonic/gin"
)

// RedirectHandler serves the lightweight resolve endpoint used by
// embedded clients that cannot follow 302 redirects themselves.
type RedirectHandler struct {
	service *service.LinkService
}

func NewRedirectHandler(service *service.LinkService) *RedirectHandler {
	return &RedirectHandler{service: service}
}

// Resolve handles GET /api/v1/redirect?code=<short_code>. The payload
// is a bare JSON object rather than the standard envelope so existing
// clients keep working.
func (h *RedirectHandler) Resolve(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Short code is required"})
		return
	}

	originalURL, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	recordVisitAsync(c, h.service, code)
	c.JSON(http.StatusOK, gin.H{"url": originalURL})
}
