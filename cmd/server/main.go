package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/L7NNON-loop/incutador-pro/config"
	"github.com/L7NNON-loop/incutador-pro/internal/auth"
	"github.com/L7NNON-loop/incutador-pro/internal/cache"
	"github.com/L7NNON-loop/incutador-pro/internal/filter"
	"github.com/L7NNON-loop/incutador-pro/internal/handler"
	"github.com/L7NNON-loop/incutador-pro/internal/middleware"
	"github.com/L7NNON-loop/incutador-pro/internal/notify"
	"github.com/L7NNON-loop/incutador-pro/internal/repository"
	"github.com/L7NNON-loop/incutador-pro/internal/service"
	"github.com/L7NNON-loop/incutador-pro/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; real deployments set env vars directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT secret is required: set auth.jwt_secret or JWT_SECRET")
	}

	// Initialize Snowflake ID generator before anything that inserts rows
	if err := utils.InitSnowflake(cfg.Snowflake.DatacenterID, cfg.Snowflake.WorkerID); err != nil {
		log.Fatalf("Failed to initialize Snowflake: %v", err)
	}

	// Initialize MySQL connection, run migrations and seed promo codes
	db, err := repository.NewDB(cfg.MySQL.DSN(), cfg.MySQL.MaxIdleConns, cfg.MySQL.MaxOpenConns)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer repository.CloseDB(db)

	// Initialize Redis cache
	redisCache, err := cache.NewRedisCache(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		log.Fatalf("Failed to initialize Redis cache: %v", err)
	}
	defer redisCache.Close()

	// Initialize Bloom filter
	bloomFilter := filter.NewBloomFilter(
		cfg.BloomFilter.Capacity,
		cfg.BloomFilter.FalsePositiveRate,
	)

	// Change notifier shares the cache's Redis client
	notifier := notify.NewNotifier(redisCache.GetClient())

	// Repositories
	linkRepo := repository.NewLinkRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	userRepo := repository.NewUserRepository(db)
	smsRepo := repository.NewSMSRepository(db)

	// Session token manager
	tokens := auth.NewManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	// Build base URL
	baseURL := cfg.Server.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}

	// Services
	linkService := service.NewLinkService(linkRepo, redisCache, bloomFilter, notifier,
		baseURL, cfg.Credits.LinkCost)
	creditService := service.NewCreditService(creditRepo, notifier,
		cfg.Credits.CaseInsensitiveCodes, cfg.Credits.SignupBonus)
	userService := service.NewUserService(userRepo, tokens, creditService)
	smsService := service.NewSMSService(smsRepo)

	// Load all short codes into bloom filter
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 30*time.Second)
	if err := linkService.WarmFilter(warmCtx); err != nil {
		log.Printf("Warning: failed to warm bloom filter: %v", err)
	}
	cancelWarm()

	// Background sweep for expired links
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go runExpirySweep(sweepCtx, linkService, time.Duration(cfg.Links.SweepIntervalMinutes)*time.Minute)

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())

	// Handlers
	linkHandler := handler.NewLinkHandler(linkService)
	redirectHandler := handler.NewRedirectHandler(linkService)
	authHandler := handler.NewAuthHandler(userService)
	creditHandler := handler.NewCreditHandler(creditService)
	smsHandler := handler.NewSMSHandler(smsService)

	// Global rate limiter (health checks exempt)
	strategy := middleware.ParseStrategy(cfg.RateLimit.Strategy)
	if cfg.RateLimit.Enabled {
		log.Println("Rate limiting enabled with strategy:", strategy)
		globalLimiter := middleware.NewRateLimiter(redisCache.GetClient(), &middleware.RateLimitConfig{
			Strategy: strategy,
			Limit:    cfg.RateLimit.Global.Limit,
			Window:   time.Duration(cfg.RateLimit.Global.Window) * time.Second,
			SkipFunc: middleware.SkipHealthCheck,
		})
		router.Use(globalLimiter.Middleware())
	}

	// endpointLimiter returns the per-endpoint middleware chain for a
	// path, empty when no rule is configured.
	endpointLimiter := func(path string) []gin.HandlerFunc {
		if !cfg.RateLimit.Enabled {
			return nil
		}
		for _, endpoint := range cfg.RateLimit.Endpoints {
			if endpoint.Path == path {
				limiter := middleware.NewRateLimiter(redisCache.GetClient(), &middleware.RateLimitConfig{
					Strategy: strategy,
					Limit:    endpoint.Limit,
					Window:   time.Duration(endpoint.Window) * time.Second,
				})
				return []gin.HandlerFunc{limiter.Middleware()}
			}
		}
		return nil
	}

	// Register routes
	router.GET("/health", linkHandler.HealthCheck)
	router.GET("/:short_code", append(endpointLimiter("/:short_code"), linkHandler.RedirectToOriginalURL)...)

	api := router.Group("/api/v1")
	{
		api.POST("/shorten", append(endpointLimiter("/api/v1/shorten"),
			tokens.OptionalMiddleware(), linkHandler.CreateShortURL)...)
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

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %d...", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// runExpirySweep deletes expired links on a fixed interval until ctx is
// cancelled. A zero or negative interval disables the sweep.
func runExpirySweep(ctx context.Context, links *service.LinkService, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
			deleted, err := links.SweepExpired(sweepCtx)
			cancel()
			if err != nil {
				log.Printf("expiry sweep failed: %v", err)
			} else if deleted > 0 {
				log.Printf("expiry sweep removed %d links", deleted)
			}
		}
	}
}
