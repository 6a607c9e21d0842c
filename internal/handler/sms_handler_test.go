package handler

import (
	"net/http"
	"testing"

	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSMSAndHistory(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "sender@example.com")

	w := doJSON(router, http.MethodPost, "/api/v1/sms", token, gin.H{
		"phone_number": "+258841234567",
		"message":      "Ola, o teu link expira amanha",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var msg model.SMSMessage
	decodeData(t, w, &msg)
	assert.Equal(t, model.SMSStatusPending, msg.Status)
	assert.Equal(t, "Placar.sms", msg.SenderName)

	w = doJSON(router, http.MethodGet, "/api/v1/sms", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history SMSHistoryResponse
	decodeData(t, w, &history)
	assert.Len(t, history.Messages, 1)
	assert.Equal(t, int64(1), history.Counts[model.SMSStatusPending])
}

func TestSendSMSInvalidPhone(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "typo@example.com")

	w := doJSON(router, http.MethodPost, "/api/v1/sms", token, gin.H{
		"phone_number": "+1 555 0100",
		"message":      "hello",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSMSRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/sms", "", gin.H{
		"phone_number": "+258841234567",
		"message":      "hello",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
