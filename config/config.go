package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// API Configuration
	APIPort        string
	APIHost        string
	APIEnvironment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT & Security
	JWTSecret          string
	JWTExpirationHours int

	// CORS
	CORSAllowedOrigins []string

	// Rate Limiting
	RateLimitRequestsPerMinute int
	RateLimitBurst             int

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// Stripe
	StripeSecretKey              string
	StripePublishableKey         string
	StripeWebhookSecret          string
	StripePriceFamilyPlusMonthly string
	StripePriceFamilyPlusAnnual  string
	StripePriceFamilyProMonthly  string
	StripePriceFamilyProAnnual   string
	StripeCheckoutSuccessURL     string
	StripeCheckoutCancelURL      string
	StripeBillingReturnURL       string

	// Frontend
	FrontendURL string

	// Email
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	// Sentry
	SentryDSN         string
	SentryEnvironment string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// API
		APIPort:        getEnv("API_PORT", "8080"),
		APIHost:        getEnv("API_HOST", "0.0.0.0"),
		APIEnvironment: getEnv("API_ENVIRONMENT", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		// JWT
		JWTSecret:          getEnv("JWT_SECRET", "change-this-in-production"),
		JWTExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 168),

		// CORS
		CORSAllowedOrigins: getEnvAsSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		// Rate Limiting
		RateLimitRequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 100),
		RateLimitBurst:             getEnvAsInt("RATE_LIMIT_BURST", 20),

		// Google OAuth
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/v1/auth/google/callback"),

		// Stripe
		StripeSecretKey:              getEnv("STRIPE_SECRET_KEY", ""),
		StripePublishableKey:         getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		StripeWebhookSecret:          getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceFamilyPlusMonthly: getEnv("STRIPE_PRICE_FAMILY_PLUS_MONTHLY", ""),
		StripePriceFamilyPlusAnnual:  getEnv("STRIPE_PRICE_FAMILY_PLUS_ANNUAL", ""),
		StripePriceFamilyProMonthly:  getEnv("STRIPE_PRICE_FAMILY_PRO_MONTHLY", ""),
		StripePriceFamilyProAnnual:   getEnv("STRIPE_PRICE_FAMILY_PRO_ANNUAL", ""),
		StripeCheckoutSuccessURL:     getEnv("STRIPE_CHECKOUT_SUCCESS_URL", ""),
		StripeCheckoutCancelURL:      getEnv("STRIPE_CHECKOUT_CANCEL_URL", ""),
		StripeBillingReturnURL:       getEnv("STRIPE_BILLING_RETURN_URL", ""),

		// Frontend
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Email
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "noreply@famloop.app"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "FamLoop"),

		// Sentry
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", getEnv("API_ENVIRONMENT", "development")),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// StripeEnabled reports whether Stripe billing is configured
func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != ""
}

// GoogleOAuthEnabled reports whether Google OAuth is configured
func (c *Config) GoogleOAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// DefaultFrontendOrigin returns the preferred frontend origin for redirects
func (c *Config) DefaultFrontendOrigin() string {
	if c.FrontendURL != "" {
		return strings.TrimRight(c.FrontendURL, "/")
	}
	if len(c.CORSAllowedOrigins) > 0 {
		return strings.TrimRight(c.CORSAllowedOrigins[0], "/")
	}
	return "http://localhost:3000"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice gets a comma-separated environment variable as a slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
