package handler

import (
	"net/http"

	"github.com/L7NNON-loop/incutador-pro/internal/auth"
	"github.com/L7NNON-loop/incutador-pro/internal/service"
	"github.com/gin-gonic/gin"
)

// CreditHandler handles credit balance and redemption requests
type CreditHandler struct {
	service *service.CreditService
}

func NewCreditHandler(service *service.CreditService) *CreditHandler {
	return &CreditHandler{service: service}
}

// RedeemRequest represents the request body for a redemption attempt
type RedeemRequest struct {
	CodeText string `json:"code_text" binding:"required"`
}

// BalanceResponse represents the current credit balance
type BalanceResponse struct {
	Credits int64 `json:"credits"`
}

// Redeem handles POST /api/v1/credits/redeem. A rejected code is a
// 200 with success=false so clients can surface the reason directly.
func (h *CreditHandler) Redeem(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{
			Code:    http.StatusUnauthorized,
			Message: "Authentication required",
		})
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid request: " + err.Error(),
		})
		return
	}

	result, err := h.service.Redeem(c.Request.Context(), userID, req.CodeText)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to redeem code",
		})
		return
	}

	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: result})
}

// Balance handles GET /api/v1/credits
func (h *CreditHandler) Balance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{
			Code:    http.StatusUnauthorized,
			Message: "Authentication required",
		})
		return
	}

	credits, err := h.service.Balance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to load balance",
		})
		return
	}

	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: BalanceResponse{Credits: credits}})
}
