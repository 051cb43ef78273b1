package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/famloop/backend/pkg/api/errors"
	"github.com/famloop/backend/pkg/auth"
	"github.com/famloop/backend/pkg/models"
	"github.com/famloop/backend/pkg/oauth"
	"github.com/labstack/echo/v4"
)

// stateTokenTTL bounds how long a Google login redirect remains valid
const stateTokenTTL = 10 * time.Minute

// GoogleLogin godoc
// @Summary Start Google OAuth login
// @Description Redirects to the Google consent screen. The optional return_url
// @Description query parameter must be on a configured frontend origin.
// @Tags Authentication
// @Param return_url query string false "Frontend URL to return to after login"
// @Success 302 "Redirect to Google"
// @Failure 503 {object} models.ErrorResponse "Google OAuth not configured"
// @Router /auth/google/login [get]
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	if !h.oauth.Enabled() {
		return errors.ServiceUnavailableError(c, "Google login is not configured")
	}

	returnURL := h.oauth.SanitizeReturnURL(c.QueryParam("return_url"))

	state, err := auth.GenerateStateJWT(returnURL, h.config.JWTSecret, stateTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "token_generation_error",
		})
	}

	return c.Redirect(http.StatusFound, h.oauth.AuthURL(state))
}

// GoogleCallback godoc
// @Summary Google OAuth callback
// @Description Exchanges the authorization code, finds or creates the user,
// @Description and redirects back to the frontend with a token.
// @Tags Authentication
// @Param code query string true "Authorization code from Google"
// @Param state query string true "Signed state token"
// @Success 302 "Redirect back to the frontend"
// @Failure 400 {object} models.ErrorResponse "Invalid state token"
// @Failure 503 {object} models.ErrorResponse "Google OAuth not configured"
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if !h.oauth.Enabled() {
		return errors.ServiceUnavailableError(c, "Google login is not configured")
	}

	returnURL, err := auth.ValidateStateJWT(c.QueryParam("state"), h.config.JWTSecret)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_state",
			Message: "Invalid state token",
		})
	}
	returnURL = h.oauth.SanitizeReturnURL(returnURL)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	info, err := h.oauth.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		return c.Redirect(http.StatusFound, oauth.AppendQuery(returnURL, map[string]string{
			"error": "google_token_exchange_failed",
		}))
	}

	user, created, err := h.findOrCreateGoogleUser(ctx, info)
	if err != nil {
		return c.Redirect(http.StatusFound, oauth.AppendQuery(returnURL, map[string]string{
			"error": "google_signin_failed",
		}))
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, h.config.JWTSecret, h.config.JWTExpirationHours)
	if err != nil {
		return c.Redirect(http.StatusFound, oauth.AppendQuery(returnURL, map[string]string{
			"error": "google_signin_failed",
		}))
	}

	params := map[string]string{"token": token}
	if created {
		params["created"] = "1"
	}
	if !info.EmailVerified {
		params["email_unverified"] = "1"
	}

	return c.Redirect(http.StatusFound, oauth.AppendQuery(returnURL, params))
}

// findOrCreateGoogleUser matches the Google account to a local user by email,
// creating one with a random password when none exists. Existing users get
// missing profile fields filled in from Google.
func (h *AuthHandler) findOrCreateGoogleUser(ctx context.Context, info *oauth.UserInfo) (*models.User, bool, error) {
	user, err := h.users.GetByEmail(ctx, info.Email)
	if err != nil {
		return nil, false, err
	}

	if user == nil {
		// OAuth users never log in with this password; it only satisfies the
		// NOT NULL column.
		placeholder, err := generateResetToken()
		if err != nil {
			return nil, false, err
		}
		placeholderHash, err := auth.HashPassword(placeholder)
		if err != nil {
			return nil, false, err
		}

		var picture *string
		if info.Picture != "" {
			picture = &info.Picture
		}

		user, err = h.users.CreateUser(ctx, info.Email, info.Name, placeholderHash, "parent", picture)
		if err != nil {
			return nil, false, err
		}

		if _, err := h.billing.SeedSubscription(ctx, user.ID); err != nil {
			return nil, false, err
		}

		if h.metrics != nil {
			h.metrics.RecordUserRegistered()
		}

		go h.emailService.SendWelcomeEmail(user.Email, user.Name)

		return user, true, nil
	}

	var name *string
	if info.Name != "" && user.Name == "" {
		name = &info.Name
	}
	var picture *string
	if info.Picture != "" && user.ProfileImageURL == nil {
		picture = &info.Picture
	}
	if name != nil || picture != nil {
		if err := h.users.UpdateProfile(ctx, user.ID, name, picture); err != nil {
			return nil, false, err
		}
		if name != nil {
			user.Name = *name
		}
		if picture != nil {
			user.ProfileImageURL = picture
		}
	}

	return user, false, nil
}
