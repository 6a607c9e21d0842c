package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/L7NNON-loop/incutador-pro/internal/auth"
	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/service"
	"github.com/gin-gonic/gin"
)

// SMSHandler handles bulk SMS queueing and history requests
type SMSHandler struct {
	service *service.SMSService
}

func NewSMSHandler(service *service.SMSService) *SMSHandler {
	return &SMSHandler{service: service}
}

// SendSMSRequest represents the request body for queueing a message
type SendSMSRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// SMSHistoryResponse bundles recent messages with per-status counts
type SMSHistoryResponse struct {
	Messages []model.SMSMessage `json:"messages"`
	Counts   map[string]int64   `json:"counts"`
}

// Send handles POST /api/v1/sms
func (h *SMSHandler) Send(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{
			Code:    http.StatusUnauthorized,
			Message: "Authentication required",
		})
		return
	}

	var req SendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid request: " + err.Error(),
		})
		return
	}

	msg, err := h.service.Queue(c.Request.Context(), userID, req.PhoneNumber, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhoneNumber) || errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, Response{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to queue message",
		})
		return
	}

	c.JSON(http.StatusCreated, Response{Code: http.StatusCreated, Data: msg})
}

// History handles GET /api/v1/sms
func (h *SMSHandler) History(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{
			Code:    http.StatusUnauthorized,
			Message: "Authentication required",
		})
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	msgs, counts, err := h.service.History(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to load history",
		})
		return
	}
	if msgs == nil {
		msgs = []model.SMSMessage{}
	}

	c.JSON(http.StatusOK, Response{
		Code: http.StatusOK,
		Data: SMSHistoryResponse{Messages: msgs, Counts: counts},
	})
}
