package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/L7NNON-loop/incutador-pro/internal/auth"
	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/repository"
	"github.com/L7NNON-loop/incutador-pro/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit      = 10
	defaultAnalyticsLimit = 50
	visitRecordTimeout    = 10 * time.Second
)

// LinkHandler handles HTTP requests for link operations
type LinkHandler struct {
	service *service.LinkService
}

// NewLinkHandler creates a new link handler instance
func NewLinkHandler(service *service.LinkService) *LinkHandler {
	return &LinkHandler{service: service}
}

// CreateShortURLRequest represents the request body for creating a short URL
type CreateShortURLRequest struct {
	URL        string     `json:"url" binding:"required"`
	CustomCode string     `json:"custom_code,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	WantQR     bool       `json:"want_qr,omitempty"`
}

// CreateShortURLResponse represents the response for creating a short URL
type CreateShortURLResponse struct {
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	CustomCode  bool       `json:"custom_code"`
	QRCode      string     `json:"qr_code,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// URLInfoResponse represents the response for URL info
type URLInfoResponse struct {
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	Clicks      uint64     `json:"clicks"`
	CustomCode  bool       `json:"custom_code"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// CreateShortURL handles POST /api/v1/shorten. Anonymous callers get a
// free link; authenticated callers are charged the configured credit
// cost atomically with the insert.
func (h *LinkHandler) CreateShortURL(c *gin.Context) {
	var req CreateShortURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid request: " + err.Error(),
		})
		return
	}

	params := service.CreateLinkParams{
		OriginalURL: req.URL,
		CustomCode:  req.CustomCode,
		ExpiresAt:   req.ExpiresAt,
		WantQR:      req.WantQR,
	}
	if userID, ok := auth.GetUserID(c); ok {
		params.UserID = &userID
	}

	link, err := h.service.CreateLink(c.Request.Context(), params)
	if err != nil {
		status, msg := createErrorStatus(err)
		c.JSON(status, Response{Code: status, Message: msg})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Code: http.StatusCreated,
		Data: CreateShortURLResponse{
			ShortCode:   link.ShortCode,
			ShortURL:    h.service.ShortURL(link.ShortCode),
			OriginalURL: link.OriginalURL,
			CustomCode:  link.CustomCode,
			QRCode:      link.QRCode,
			ExpiresAt:   link.ExpiresAt,
		},
	})
}

func createErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrInvalidCustomCode):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrCodeTaken):
		return http.StatusConflict, "Code already in use"
	case errors.Is(err, repository.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "Insufficient credits"
	default:
		return http.StatusInternalServerError, "Failed to create short URL"
	}
}

// RedirectToOriginalURL handles GET /:short_code
func (h *LinkHandler) RedirectToOriginalURL(c *gin.Context) {
	shortCode := c.Param("short_code")
	if shortCode == "" {
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: "Short code is required",
		})
		return
	}

	originalURL, err := h.service.Resolve(c.Request.Context(), shortCode)
	if err != nil {
		c.JSON(http.StatusNotFound, Response{
			Code:    http.StatusNotFound,
			Message: "Short URL not found or expired",
		})
		return
	}

	recordVisitAsync(c, h.service, shortCode)
	c.Redirect(http.StatusFound, originalURL)
}

// recordVisitAsync captures request metadata and records the visit off
// the redirect path. Resolution never waits on analytics.
func recordVisitAsync(c *gin.Context, svc *service.LinkService, shortCode string) {
	meta := service.VisitMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
		// Geo headers are set by the CDN when present; empty otherwise
		Country: c.GetHeader("CF-IPCountry"),
		City:    c.GetHeader("CF-IPCity"),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), visitRecordTimeout)
		defer cancel()
		if err := svc.RecordVisit(ctx, shortCode, meta); err != nil {
			log.Printf("failed to record visit for %s: %v", shortCode, err)
		}
	}()
}

// GetURLInfo handles GET /api/v1/info/:short_code
func (h *LinkHandler) GetURLInfo(c *gin.Context) {
	shortCode := c.Param("short_code")

	link, err := h.service.GetInfo(c.Request.Context(), shortCode)
	if err != nil {
		c.JSON(http.StatusNotFound, Response{
			Code:    http.StatusNotFound,
			Message: "Short URL not found",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code: http.StatusOK,
		Data: URLInfoResponse{
			ShortCode:   link.ShortCode,
			OriginalURL: link.OriginalURL,
			Clicks:      link.Clicks,
			CustomCode:  link.CustomCode,
			CreatedAt:   link.CreatedAt,
			ExpiresAt:   link.ExpiresAt,
		},
	})
}

// ListLinks handles GET /api/v1/links. Authenticated callers see their
// own links; anonymous callers see the latest anonymous ones.
func (h *LinkHandler) ListLinks(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	var userID *int64
	if id, ok := auth.GetUserID(c); ok {
		userID = &id
	}

	links, err := h.service.List(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list links",
		})
		return
	}
	if links == nil {
		links = []model.Link{}
	}

	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: links})
}

// DeleteLink handles DELETE /api/v1/links/:short_code (owner only)
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{
			Code:    http.StatusUnauthorized,
			Message: "Authentication required",
		})
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("short_code"), userID); err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Code:    http.StatusNotFound,
				Message: "Short URL not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to delete link",
		})
		return
	}

	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "Link deleted"})
}

// GetAnalytics handles GET /api/v1/links/:short_code/analytics
func (h *LinkHandler) GetAnalytics(c *gin.Context) {
	report, err := h.service.Analytics(c.Request.Context(), c.Param("short_code"), defaultAnalyticsLimit)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Code:    http.StatusNotFound,
				Message: "Short URL not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to load analytics",
		})
		return
	}

	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: report})
}

// HealthCheck handles GET /health
func (h *LinkHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "OK"})
}
