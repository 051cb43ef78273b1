package main

// @title FamLoop API
// @version 1.0
// @description Authentication and billing API for the FamLoop family-organization app.

// @contact.name API Support
// @contact.email support@famloop.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/famloop/backend/config"
	_ "github.com/famloop/backend/docs" // Swagger docs (generated)
	"github.com/famloop/backend/pkg/api/handlers"
	"github.com/famloop/backend/pkg/auth"
	"github.com/famloop/backend/pkg/billing"
	"github.com/famloop/backend/pkg/cache"
	"github.com/famloop/backend/pkg/email"
	"github.com/famloop/backend/pkg/logger"
	"github.com/famloop/backend/pkg/metrics"
	custommiddleware "github.com/famloop/backend/pkg/middleware"
	"github.com/famloop/backend/pkg/oauth"
	"github.com/famloop/backend/pkg/store"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0, // Adjust in production
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Plan catalog is shared by the store (plan recomputation on upsert) and
	// the billing service (entitlement derivation)
	catalog := billing.NewCatalog(cfg)

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Initialize storage. Without DATABASE_URL the API runs on the in-memory
	// store, which is enough for local frontend development.
	var (
		users handlers.UserStore
		subs  billing.SubscriptionStore
		ping  func(ctx context.Context) error
	)
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(cfg.DatabaseURL, catalog, prometheusMetrics)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer pg.Close()
		prometheus.MustRegister(collectors.NewDBStatsCollector(pg.DB(), "famloop"))
		users, subs, ping = pg, pg, pg.Ping
		log.Printf("✅ PostgreSQL connected, migrations applied")
	} else {
		mem := store.NewMemory(catalog)
		users, subs = mem, mem
		ping = func(ctx context.Context) error { return nil }
		log.Printf("⚠️  DATABASE_URL not set, using in-memory store")
	}

	// Initialize Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize JWT blacklist
	tokenBlacklist := auth.NewTokenBlacklist(redisClient)

	// Initialize email service
	emailService := email.NewService(cfg.EmailFrom, cfg.EmailFromName, cfg.FrontendURL, cfg.SendGridAPIKey)

	// Initialize OAuth and billing services
	oauthService := oauth.NewService(cfg)
	billingService := billing.NewService(subs, users, catalog, cfg, logger.Component(appLogger, "billing"), prometheusMetrics)
	if billingService.Enabled() {
		log.Printf("✅ Stripe billing enabled")
	} else {
		log.Printf("⚠️  Stripe billing disabled (no STRIPE_SECRET_KEY)")
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Initialize rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	authRateLimiter := custommiddleware.NewRateLimiter(5, 2)       // login/signup brute-force protection
	passwordRateLimiter := custommiddleware.NewRateLimiter(3, 1)   // forgot/reset password
	webhookRateLimiter := custommiddleware.NewRateLimiter(100, 20) // Stripe webhooks

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Sentry error tracking middleware (if configured)
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true, // Let the Recover middleware handle the panic afterwards
		}))
	}

	// Prometheus metrics middleware
	e.Use(prometheusMetrics.Middleware())

	// CORS with restricted origins
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))

	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))

	// Global rate limiting
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "FamLoop API",
			"version":     "1.0.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}

		if _, err := redisClient.Redis.Ping(ctx).Result(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"cache":  "down",
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"cache":    "up",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Swagger documentation (public)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(users, billingService, cfg, tokenBlacklist, redisClient, oauthService, emailService, prometheusMetrics)
	billingHandler := handlers.NewBillingHandler(billingService, users, prometheusMetrics)

	// JWT middleware for protected routes
	jwtMiddleware := custommiddleware.JWTMiddlewareWithBlacklist(cfg.JWTSecret, tokenBlacklist, users)

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "pong"})
	})

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup, authRateLimiter.RateLimitMiddleware())
	authGroup.POST("/login", authHandler.Login, authRateLimiter.RateLimitMiddleware())
	authGroup.POST("/forgot-password", authHandler.ForgotPassword, passwordRateLimiter.RateLimitMiddleware())
	authGroup.POST("/reset-password", authHandler.ResetPassword, passwordRateLimiter.RateLimitMiddleware())
	authGroup.GET("/google/login", authHandler.GoogleLogin)
	authGroup.GET("/google/callback", authHandler.GoogleCallback)

	// Auth routes (protected)
	authGroup.GET("/me", authHandler.Me, jwtMiddleware)
	authGroup.POST("/logout", authHandler.Logout, jwtMiddleware)

	// Billing routes
	billingGroup := v1.Group("/billing")
	billingGroup.GET("/plans", billingHandler.ListPlans)
	billingGroup.POST("/webhook", billingHandler.Webhook, webhookRateLimiter.RateLimitMiddleware())
	billingGroup.GET("/subscription", billingHandler.GetSubscription, jwtMiddleware)
	billingGroup.POST("/subscription/cancel", billingHandler.CancelSubscription, jwtMiddleware)
	billingGroup.POST("/subscription/resume", billingHandler.ResumeSubscription, jwtMiddleware)
	billingGroup.POST("/checkout", billingHandler.CreateCheckoutSession, jwtMiddleware)
	billingGroup.POST("/portal", billingHandler.CreatePortalSession, jwtMiddleware)
	billingGroup.GET("/invoices", billingHandler.ListInvoices, jwtMiddleware)

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 FamLoop API starting on %s", address)
	log.Printf("🔐 JWT expiration: %d hours", cfg.JWTExpirationHours)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
