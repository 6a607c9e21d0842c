package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/shorten", "", gin.H{
		"url":         "https://example.com/edge",
		"custom_code": "edgelink",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/redirect?code=edgelink", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "https://example.com/edge", body["url"])

	// Click recording happens off the response path
	assert.Eventually(t, func() bool {
		w := doJSON(router, http.MethodGet, "/api/v1/info/edgelink", "", nil)
		if w.Code != http.StatusOK {
			return false
		}
		var resp struct {
			Data URLInfoResponse `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			return false
		}
		return resp.Data.Clicks == 1
	}, 2*time.Second, 50*time.Millisecond)
}

func TestResolveEndpointMissingCode(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/redirect", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Short code is required", body["error"])
}

func TestResolveEndpointUnknownCode(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/redirect?code=nosuch", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Link not found", body["error"])
}
