package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/famloop/backend/pkg/api/errors"
	"github.com/famloop/backend/pkg/billing"
	"github.com/famloop/backend/pkg/metrics"
	"github.com/famloop/backend/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// BillingHandler handles subscription and Stripe billing endpoints
type BillingHandler struct {
	billing   *billing.Service
	users     UserStore
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *billing.Service, users UserStore, m *metrics.Metrics) *BillingHandler {
	return &BillingHandler{
		billing:   billingService,
		users:     users,
		metrics:   m,
		validator: validator.New(),
	}
}

// ListPlans godoc
// @Summary List subscription plans
// @Description Returns plans available for purchase. Paid plans appear only
// @Description when their Stripe prices are configured.
// @Tags Billing
// @Produce json
// @Success 200 {array} models.PlanPublic "Available plans"
// @Router /billing/plans [get]
func (h *BillingHandler) ListPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.billing.ListPlans())
}

// GetSubscription godoc
// @Summary Get subscription status
// @Description Returns the authenticated user's subscription state with the
// @Description derived effective plan.
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SubscriptionOut "Subscription state"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /billing/subscription [get]
func (h *BillingHandler) GetSubscription(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return errors.UnauthorizedError(c, "missing user context")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.billing.GetStatus(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// CreateCheckoutSession godoc
// @Summary Create a Stripe checkout session
// @Description Starts a subscription purchase for a configured price
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CheckoutRequest true "Price and redirect URLs"
// @Success 200 {object} models.CheckoutResponse "Checkout session"
// @Failure 400 {object} models.ErrorResponse "Unknown price"
// @Failure 503 {object} models.ErrorResponse "Billing not configured"
// @Router /billing/checkout [post]
func (h *BillingHandler) CreateCheckoutSession(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return errors.UnauthorizedError(c, "missing user context")
	}

	var req models.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}
	if user == nil {
		return errors.UnauthorizedError(c, "user not found")
	}

	resp, err := h.billing.CreateCheckoutSession(ctx, user, req)
	if err != nil {
		return h.billingError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordCheckoutSession()
	}

	return c.JSON(http.StatusOK, resp)
}

// CreatePortalSession godoc
// @Summary Create a Stripe billing portal session
// @Description Opens the Stripe customer portal for payment method and plan management
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PortalRequest false "Optional return URL"
// @Success 200 {object} models.PortalResponse "Portal session"
// @Failure 404 {object} models.ErrorResponse "No Stripe customer"
// @Failure 503 {object} models.ErrorResponse "Billing not configured"
// @Router /billing/portal [post]
func (h *BillingHandler) CreatePortalSession(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return errors.UnauthorizedError(c, "missing user context")
	}

	var req models.PortalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	resp, err := h.billing.CreatePortalSession(ctx, userID, req.ReturnURL)
	if err != nil {
		return h.billingError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// CancelSubscription godoc
// @Summary Cancel at period end
// @Description Flags the subscription to cancel when the current period ends
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SubscriptionOut "Updated subscription state"
// @Failure 404 {object} models.ErrorResponse "No subscription"
// @Failure 503 {object} models.ErrorResponse "Billing not configured"
// @Router /billing/subscription/cancel [post]
func (h *BillingHandler) CancelSubscription(c echo.Context) error {
	return h.setCancelAtPeriodEnd(c, true)
}

// ResumeSubscription godoc
// @Summary Resume a pending cancellation
// @Description Clears the cancel-at-period-end flag before the period ends
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SubscriptionOut "Updated subscription state"
// @Failure 404 {object} models.ErrorResponse "No subscription"
// @Failure 503 {object} models.ErrorResponse "Billing not configured"
// @Router /billing/subscription/resume [post]
func (h *BillingHandler) ResumeSubscription(c echo.Context) error {
	return h.setCancelAtPeriodEnd(c, false)
}

func (h *BillingHandler) setCancelAtPeriodEnd(c echo.Context, cancel bool) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return errors.UnauthorizedError(c, "missing user context")
	}

	ctx, cancelCtx := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancelCtx()

	out, err := h.billing.SetCancelAtPeriodEnd(ctx, userID, cancel)
	if err != nil {
		return h.billingError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// ListInvoices godoc
// @Summary List invoices
// @Description Returns recent Stripe invoices for the authenticated user
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.InvoiceOut "Invoices"
// @Failure 404 {object} models.ErrorResponse "No Stripe customer"
// @Failure 503 {object} models.ErrorResponse "Billing not configured"
// @Router /billing/invoices [get]
func (h *BillingHandler) ListInvoices(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return errors.UnauthorizedError(c, "missing user context")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	invoices, err := h.billing.ListInvoices(ctx, userID)
	if err != nil {
		return h.billingError(c, err)
	}

	return c.JSON(http.StatusOK, invoices)
}

// Webhook godoc
// @Summary Stripe webhook receiver
// @Description Verifies the Stripe signature and applies subscription events.
// @Description Returns 400 only for signature failures; verified events always
// @Description return 200 so Stripe does not retry unprocessable payloads.
// @Tags Billing
// @Accept json
// @Produce json
// @Success 200 {object} models.SuccessResponse "Event received"
// @Failure 400 {object} models.ErrorResponse "Invalid signature"
// @Router /billing/webhook [post]
func (h *BillingHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_payload",
			Message: "Failed to read request body",
		})
	}

	signature := c.Request().Header.Get("Stripe-Signature")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	if err := h.billing.HandleWebhook(ctx, payload, signature); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_signature",
			Message: "Webhook signature verification failed",
		})
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// billingError maps billing service errors to HTTP responses
func (h *BillingHandler) billingError(c echo.Context, err error) error {
	switch err {
	case billing.ErrStripeDisabled:
		return errors.ServiceUnavailableError(c, "Billing is not configured")
	case billing.ErrUnknownPrice:
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "unknown_price",
			Message: "Unknown or unsupported price_id",
		})
	case billing.ErrNoCustomer, billing.ErrNoSubscription:
		return errors.NotFoundError(c, err.Error())
	case billing.ErrMissingRedirectURL:
		// server misconfiguration, not a client mistake
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "missing_redirect_url",
			Message: "Checkout redirect URLs are not configured",
		})
	default:
		return errors.InternalError(c, err)
	}
}
