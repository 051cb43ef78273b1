package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/famloop/backend/pkg/models"
	"github.com/stripe/stripe-go/v76"
	billingportalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/invoice"
	stripesubscription "github.com/stripe/stripe-go/v76/subscription"
	"github.com/stripe/stripe-go/v76/webhook"
)

// EnsureCustomer returns the user's subscription row and Stripe customer ID,
// creating the customer (and the local row) when absent. The customer ID is
// written through Upsert so it can never be lost by a later partial update.
func (s *Service) EnsureCustomer(ctx context.Context, user *models.User) (*models.Subscription, string, error) {
	sub, err := s.store.Get(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub != nil && sub.StripeCustomerID != nil && *sub.StripeCustomerID != "" {
		return sub, *sub.StripeCustomerID, nil
	}

	if !s.Enabled() {
		return nil, "", ErrStripeDisabled
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.Name),
		Metadata: map[string]string{
			"user_id": strconv.Itoa(user.ID),
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create customer: %w", err)
	}

	upsert := models.SubscriptionUpsert{
		StripeCustomerID: stripe.String(cust.ID),
		Status:           models.StatusInactive,
	}
	if sub != nil {
		upsert.PriceID = sub.PriceID
		upsert.StripeSubscriptionID = sub.StripeSubscriptionID
		upsert.Status = sub.Status
		upsert.CurrentPeriodEnd = sub.CurrentPeriodEnd
		upsert.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	}

	sub, err = s.store.Upsert(ctx, user.ID, upsert)
	if err != nil {
		return nil, "", fmt.Errorf("failed to save customer ID: %w", err)
	}
	return sub, cust.ID, nil
}

// CreateCheckoutSession creates a Stripe checkout session for a subscription
// price and pre-creates the local row so a record exists before the redirect.
func (s *Service) CreateCheckoutSession(ctx context.Context, user *models.User, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if !s.Enabled() {
		return nil, ErrStripeDisabled
	}

	if !s.catalog.ValidPriceIDs()[req.PriceID] {
		return nil, ErrUnknownPrice
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.config.StripeCheckoutSuccessURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.config.StripeCheckoutCancelURL
	}
	if successURL == "" || cancelURL == "" {
		return nil, ErrMissingRedirectURL
	}

	sub, customerID, err := s.EnsureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(cancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": strconv.Itoa(user.ID),
				"email":   user.Email,
			},
		},
		Metadata: map[string]string{
			"user_id": strconv.Itoa(user.ID),
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	// Record the checkout intent. Status stays whatever Stripe last reported;
	// a fresh row starts as incomplete until the webhook confirms payment.
	upsert := models.SubscriptionUpsert{
		PriceID:          stripe.String(req.PriceID),
		StripeCustomerID: stripe.String(customerID),
		Status:           models.StatusIncomplete,
	}
	if sub != nil {
		upsert.StripeSubscriptionID = sub.StripeSubscriptionID
		upsert.Status = sub.Status
		upsert.CurrentPeriodEnd = sub.CurrentPeriodEnd
		upsert.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	}
	if _, err := s.store.Upsert(ctx, user.ID, upsert); err != nil {
		return nil, fmt.Errorf("failed to record checkout intent: %w", err)
	}

	return &models.CheckoutResponse{
		SessionID: sess.ID,
		URL:       sess.URL,
	}, nil
}

// CreatePortalSession creates a Stripe billing portal session
func (s *Service) CreatePortalSession(ctx context.Context, userID int, returnURL string) (*models.PortalResponse, error) {
	if !s.Enabled() {
		return nil, ErrStripeDisabled
	}

	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil || sub.StripeCustomerID == nil || *sub.StripeCustomerID == "" {
		return nil, ErrNoCustomer
	}

	if returnURL == "" {
		returnURL = s.config.StripeBillingReturnURL
	}
	if returnURL == "" {
		return nil, ErrMissingRedirectURL
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*sub.StripeCustomerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := billingportalsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create portal session: %w", err)
	}

	return &models.PortalResponse{URL: sess.URL}, nil
}

// SetCancelAtPeriodEnd flips the cancel-at-period-end flag on the user's
// Stripe subscription and syncs the local row from Stripe's response.
func (s *Service) SetCancelAtPeriodEnd(ctx context.Context, userID int, cancel bool) (models.SubscriptionOut, error) {
	if !s.Enabled() {
		return models.SubscriptionOut{}, ErrStripeDisabled
	}

	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return models.SubscriptionOut{}, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil || sub.StripeSubscriptionID == nil || *sub.StripeSubscriptionID == "" {
		return models.SubscriptionOut{}, ErrNoSubscription
	}

	stripeSub, err := stripesubscription.Update(*sub.StripeSubscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	})
	if err != nil {
		return models.SubscriptionOut{}, fmt.Errorf("failed to update subscription: %w", err)
	}

	s.SyncFromStripe(ctx, stripeSub)

	updated, err := s.store.Get(ctx, userID)
	if err != nil {
		return models.SubscriptionOut{}, fmt.Errorf("failed to get subscription: %w", err)
	}
	return s.catalog.Serialize(updated), nil
}

// ListInvoices lists recent invoices for the user's Stripe customer
func (s *Service) ListInvoices(ctx context.Context, userID int) ([]models.InvoiceOut, error) {
	if !s.Enabled() {
		return nil, ErrStripeDisabled
	}

	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil || sub.StripeCustomerID == nil || *sub.StripeCustomerID == "" {
		return nil, ErrNoCustomer
	}

	params := &stripe.InvoiceListParams{
		Customer: stripe.String(*sub.StripeCustomerID),
	}
	params.Limit = stripe.Int64(12)

	results := []models.InvoiceOut{}
	iter := invoice.List(params)
	for iter.Next() {
		inv := iter.Invoice()
		out := models.InvoiceOut{
			ID:         inv.ID,
			Status:     string(inv.Status),
			AmountDue:  inv.AmountDue,
			AmountPaid: inv.AmountPaid,
			Currency:   string(inv.Currency),
			Created:    time.Unix(inv.Created, 0).UTC(),
		}
		if inv.HostedInvoiceURL != "" {
			out.HostedInvoiceURL = stripe.String(inv.HostedInvoiceURL)
		}
		if inv.InvoicePDF != "" {
			out.InvoicePDF = stripe.String(inv.InvoicePDF)
		}
		if inv.PeriodStart != 0 {
			out.PeriodStart = timePtr(time.Unix(inv.PeriodStart, 0).UTC())
		}
		if inv.PeriodEnd != 0 {
			out.PeriodEnd = timePtr(time.Unix(inv.PeriodEnd, 0).UTC())
		}
		results = append(results, out)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	return results, nil
}

// HandleWebhook processes Stripe webhook events. Signature failure is the
// only hard error; everything inside a verified event is handled defensively
// so Stripe never sees a delivery failure for malformed or foreign payloads.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.config.StripeWebhookSecret)
	if err != nil {
		s.recordWebhookEvent("unknown", "invalid")
		return fmt.Errorf("webhook signature verification failed: %w", err)
	}

	s.log.Info("stripe webhook received", "type", event.Type)
	eventType := string(event.Type)

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			s.log.Warn("failed to unmarshal checkout session", "error", err)
			s.recordWebhookEvent(eventType, "skipped")
			return nil
		}
		// The session embeds only a subscription reference; re-fetch the full
		// object before syncing.
		if sess.Subscription != nil && sess.Subscription.ID != "" {
			s.refetchAndSync(ctx, sess.Subscription.ID)
			s.recordWebhookEvent(eventType, "synced")
		} else {
			s.recordWebhookEvent(eventType, "skipped")
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			s.log.Warn("failed to unmarshal subscription", "error", err)
			s.recordWebhookEvent(eventType, "skipped")
			return nil
		}
		// The event object is the subscription resource itself; sync directly.
		s.SyncFromStripe(ctx, &sub)
		s.recordWebhookEvent(eventType, "synced")

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			s.log.Warn("failed to unmarshal invoice", "error", err)
			s.recordWebhookEvent(eventType, "skipped")
			return nil
		}
		// Failure payloads can be partial or stale; trust only the
		// subscription ID and re-fetch the current state.
		if inv.Subscription != nil && inv.Subscription.ID != "" {
			s.refetchAndSync(ctx, inv.Subscription.ID)
			s.recordWebhookEvent(eventType, "synced")
		} else {
			s.recordWebhookEvent(eventType, "skipped")
		}

	default:
		s.log.Debug("unhandled webhook event type", "type", event.Type)
		s.recordWebhookEvent(eventType, "skipped")
	}

	return nil
}

// refetchAndSync retrieves the current subscription object from Stripe and
// syncs it. Remote failures are logged and swallowed; Stripe will redeliver.
func (s *Service) refetchAndSync(ctx context.Context, subscriptionID string) {
	stripeSub, err := s.retrieveSubscription(subscriptionID)
	if err != nil {
		s.log.Error("failed to retrieve subscription from stripe",
			"subscription_id", subscriptionID, "error", err)
		return
	}
	s.SyncFromStripe(ctx, stripeSub)
}

// SyncFromStripe updates the local subscription row from a Stripe
// subscription object. This is the single path through which external
// subscription truth enters local storage. It never fails the caller:
// malformed or foreign payloads are logged and dropped.
func (s *Service) SyncFromStripe(ctx context.Context, stripeSub *stripe.Subscription) {
	userIDStr, ok := stripeSub.Metadata["user_id"]
	if !ok || userIDStr == "" {
		s.log.Warn("stripe subscription missing user_id metadata", "subscription_id", stripeSub.ID)
		return
	}

	userID, err := strconv.Atoi(userIDStr)
	if err != nil {
		s.log.Warn("invalid user_id metadata on stripe subscription",
			"subscription_id", stripeSub.ID, "user_id", userIDStr)
		return
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Error("failed to look up user for stripe webhook", "user_id", userID, "error", err)
		return
	}
	if user == nil {
		s.log.Warn("user not found for stripe webhook", "user_id", userID)
		return
	}

	// Missing line items must not abort the sync; the price simply resolves
	// to nil and entitlement degrades to free once the status reflects it.
	var priceID *string
	if stripeSub.Items != nil && len(stripeSub.Items.Data) > 0 {
		item := stripeSub.Items.Data[0]
		if item.Price != nil && item.Price.ID != "" {
			priceID = stripe.String(item.Price.ID)
		}
	}
	if priceID == nil {
		s.log.Warn("unable to read price_id from stripe subscription", "subscription_id", stripeSub.ID)
	}

	var periodEnd *time.Time
	if stripeSub.CurrentPeriodEnd != 0 {
		periodEnd = timePtr(time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC())
	}

	status := string(stripeSub.Status)
	if status == "" {
		status = models.StatusInactive
	}

	var customerID *string
	if stripeSub.Customer != nil && stripeSub.Customer.ID != "" {
		customerID = stripe.String(stripeSub.Customer.ID)
	}

	sub, err := s.store.Upsert(ctx, user.ID, models.SubscriptionUpsert{
		PriceID:              priceID,
		StripeSubscriptionID: optionalString(stripeSub.ID),
		StripeCustomerID:     customerID,
		Status:               status,
		CurrentPeriodEnd:     periodEnd,
		CancelAtPeriodEnd:    stripeSub.CancelAtPeriodEnd,
	})
	if err != nil {
		s.log.Error("failed to upsert subscription from stripe",
			"user_id", user.ID, "subscription_id", stripeSub.ID, "error", err)
		return
	}

	s.recordSubscriptionSync(sub.Plan)
	s.log.Info("subscription synced from stripe",
		"user_id", user.ID, "subscription_id", stripeSub.ID, "status", status, "plan", sub.Plan)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
