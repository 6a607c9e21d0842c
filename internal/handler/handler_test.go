package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/L7NNON-loop/incutador-pro/internal/auth"
	"github.com/L7NNON-loop/incutador-pro/internal/middleware"
	"github.com/L7NNON-loop/incutador-pro/internal/notify"
	"github.com/L7NNON-loop/incutador-pro/internal/repository"
	"github.com/L7NNON-loop/incutador-pro/internal/service"
	"github.com/L7NNON-loop/incutador-pro/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memCache is an in-memory LinkCache for handler tests
type memCache struct {
	entries map[string]string
}

func (m *memCache) Get(ctx context.Context, shortCode string) (string, error) {
	return m.entries[shortCode], nil
}

func (m *memCache) SetWithTTL(ctx context.Context, shortCode, originalURL string, ttl time.Duration) error {
	if ttl > 0 {
		m.entries[shortCode] = originalURL
	}
	return nil
}

func (m *memCache) Delete(ctx context.Context, shortCode string) error {
	delete(m.entries, shortCode)
	return nil
}

// memFilter is an exact-set CodeFilter for handler tests
type memFilter struct {
	codes map[string]bool
}

func (m *memFilter) Add(shortCode string) { m.codes[shortCode] = true }

func (m *memFilter) AddBatch(shortCodes []string) {
	for _, c := range shortCodes {
		m.codes[c] = true
	}
}

func (m *memFilter) Test(shortCode string) bool { return m.codes[shortCode] }

// dropNotifier swallows change hints
type dropNotifier struct{}

func (dropNotifier) Publish(ctx context.Context, change notify.Change) error { return nil }

// newTestRouter wires the full handler stack onto an in-memory SQLite
// database, mirroring the server's route table minus rate limiting.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	require.NoError(t, utils.InitSnowflake(0, 1))

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	linkRepo := repository.NewLinkRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	userRepo := repository.NewUserRepository(db)
	smsRepo := repository.NewSMSRepository(db)

	tokens := auth.NewManager("test-secret", time.Hour)
	notifier := dropNotifier{}

	linkService := service.NewLinkService(linkRepo,
		&memCache{entries: make(map[string]string)},
		&memFilter{codes: make(map[string]bool)},
		notifier, "http://localhost:8080", 2)
	creditService := service.NewCreditService(creditRepo, notifier, true, 10)
	userService := service.NewUserService(userRepo, tokens, creditService)
	smsService := service.NewSMSService(smsRepo)

	linkHandler := NewLinkHandler(linkService)
	redirectHandler := NewRedirectHandler(linkService)
	authHandler := NewAuthHandler(userService)
	creditHandler := NewCreditHandler(creditService)
	smsHandler := NewSMSHandler(smsService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())

	router.GET("/health", linkHandler.HealthCheck)
	router.GET("/:short_code", linkHandler.RedirectToOriginalURL)

	api := router.Group("/api/v1")
	{
		api.POST("/shorten", tokens.OptionalMiddleware(), linkHandler.CreateShortURL)
		api.GET("/redirect", redirectHandler.Resolve)
		api.GET("/info/:short_code", linkHandler.GetURLInfo)
		api.GET("/links", tokens.OptionalMiddleware(), linkHandler.ListLinks)
		api.DELETE("/links/:short_code", tokens.Middleware(), linkHandler.DeleteLink)
		api.GET("/links/:short_code/analytics", tokens.Middleware(), linkHandler.GetAnalytics)

		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", tokens.Middleware(), authHandler.Profile)

		api.GET("/credits", tokens.Middleware(), creditHandler.Balance)
		api.POST("/credits/redeem", tokens.Middleware(), creditHandler.Redeem)

		api.POST("/sms", tokens.Middleware(), smsHandler.Send)
		api.GET("/sms", tokens.Middleware(), smsHandler.History)
	}

	return router
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func registerUser(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var authResp AuthResponse
	decodeData(t, w, &authResp)
	require.NotEmpty(t, authResp.Token)
	return authResp.Token
}
