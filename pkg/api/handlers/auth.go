package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/famloop/backend/config"
	"github.com/famloop/backend/pkg/api/errors"
	"github.com/famloop/backend/pkg/auth"
	"github.com/famloop/backend/pkg/billing"
	"github.com/famloop/backend/pkg/cache"
	"github.com/famloop/backend/pkg/email"
	"github.com/famloop/backend/pkg/metrics"
	"github.com/famloop/backend/pkg/models"
	"github.com/famloop/backend/pkg/oauth"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// UserStore abstracts the user persistence operations the auth handlers need
type UserStore interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, email, name, passwordHash, role string, profileImageURL *string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	UpdateProfile(ctx context.Context, id int, name *string, profileImageURL *string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	users        UserStore
	billing      *billing.Service
	config       *config.Config
	blacklist    *auth.TokenBlacklist
	cache        *cache.Client
	oauth        *oauth.Service
	emailService *email.Service
	metrics      *metrics.Metrics
	validator    *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users UserStore, billingService *billing.Service, cfg *config.Config, blacklist *auth.TokenBlacklist, cacheClient *cache.Client, oauthService *oauth.Service, emailService *email.Service, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		users:        users,
		billing:      billingService,
		config:       cfg,
		blacklist:    blacklist,
		cache:        cacheClient,
		oauth:        oauthService,
		emailService: emailService,
		metrics:      m,
		validator:    validator.New(),
	}
}

// Signup godoc
// @Summary Register a new user
// @Description Create a new user account with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Signup data"
// @Success 200 {object} models.TokenResponse "User registered successfully"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "Email already registered"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Check if email is already taken
	existing, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return errors.DatabaseError(c, err)
	}
	if existing != nil {
		return errors.ConflictError(c, "Email already registered")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "password_hashing_error",
		})
	}

	role := req.Role
	if role == "" {
		role = "parent"
	}

	newUser, err := h.users.CreateUser(ctx, req.Email, req.Name, hashedPassword, role, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "user_creation_error",
		})
	}

	// Seed the free/inactive subscription row for the new account
	if _, err := h.billing.SeedSubscription(ctx, newUser.ID); err != nil {
		return errors.DatabaseError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordUserRegistered()
	}

	// Send welcome email (async)
	go h.emailService.SendWelcomeEmail(newUser.Email, newUser.Name)

	token, err := auth.GenerateJWT(newUser.ID, newUser.Email, h.config.JWTSecret, h.config.JWTExpirationHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "token_generation_error",
		})
	}

	return c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        newUser.PublicUser(),
	})
}

// Login godoc
// @Summary Login with email and password
// @Description Authenticate a user and return a JWT access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.TokenResponse "Login successful"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	// Same response for unknown email and wrong password
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		if h.metrics != nil {
			h.metrics.RecordLoginAttempt(false)
		}
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid email or password",
		})
	}

	if h.metrics != nil {
		h.metrics.RecordLoginAttempt(true)
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, h.config.JWTSecret, h.config.JWTExpirationHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "token_generation_error",
		})
	}

	return c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.PublicUser(),
	})
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user's profile
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserOut "Current user"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return errors.UnauthorizedError(c, "missing user context")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}
	if user == nil {
		return errors.NotFoundError(c, "user")
	}

	return c.JSON(http.StatusOK, user.PublicUser())
}

// Logout godoc
// @Summary Logout
// @Description Revokes the current JWT token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SuccessResponse "Logged out"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "missing_token",
			Message: "No token found in request",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Blacklist with TTL matching the JWT expiration
	expiration := time.Duration(h.config.JWTExpirationHours) * time.Hour
	if err := h.blacklist.Add(ctx, token, expiration); err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "logout_error",
			Message: "Failed to revoke token",
		})
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Successfully logged out",
	})
}

// ForgotPassword godoc
// @Summary Request a password reset
// @Description Sends a password reset link if the email exists. Always returns success.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.ForgotPasswordRequest true "Account email"
// @Success 200 {object} models.SuccessResponse "Reset link sent if account exists"
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req models.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Never reveal whether the email exists
	neutral := models.SuccessResponse{
		Success: true,
		Message: "If an account exists with this email, you will receive a password reset link",
	}

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return c.JSON(http.StatusOK, neutral)
	}

	resetToken, err := generateResetToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "token_generation_error",
			Message: "Failed to generate reset token",
		})
	}

	// Store the token hash in Redis with a 1-hour expiration
	tokenKey := fmt.Sprintf("password_reset:%s", auth.HashResetToken(resetToken))
	if err := h.cache.Set(ctx, tokenKey, strconv.Itoa(user.ID), time.Hour); err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "cache_error",
			Message: "Failed to store reset token",
		})
	}

	// Send password reset email (async)
	go h.emailService.SendPasswordResetEmail(user.Email, user.Name, resetToken)

	return c.JSON(http.StatusOK, neutral)
}

// ResetPassword godoc
// @Summary Reset password
// @Description Validates the reset token and updates the user's password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} models.SuccessResponse "Password reset successfully"
// @Failure 400 {object} models.ErrorResponse "Invalid or expired token"
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req models.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tokenKey := fmt.Sprintf("password_reset:%s", auth.HashResetToken(req.Token))

	userIDStr, err := h.cache.Get(ctx, tokenKey)
	if err != nil || userIDStr == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired reset token",
		})
	}

	userID, err := strconv.Atoi(userIDStr)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "invalid_user_id",
		})
	}

	hashedPassword, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "password_hashing_error",
		})
	}

	if err := h.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "update_error",
			Message: "Failed to update password",
		})
	}

	// One-time use
	h.cache.Delete(ctx, tokenKey)

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Password reset successfully",
	})
}

// generateResetToken generates a random token for password reset
func generateResetToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
