package models

import "time"

// Plan names
const (
	PlanFree       = "free"
	PlanFamilyPlus = "family_plus"
	PlanFamilyPro  = "family_pro"
)

// Subscription statuses. Stripe-reported statuses are stored verbatim;
// StatusInactive is the local placeholder for rows seeded before any
// billing interaction.
const (
	StatusInactive   = "inactive"
	StatusActive     = "active"
	StatusTrialing   = "trialing"
	StatusPastDue    = "past_due"
	StatusCanceled   = "canceled"
	StatusIncomplete = "incomplete"
)

// Subscription is the local mirror of a user's billing relationship with Stripe.
// At most one row exists per user; it is created lazily and mutated only through
// the store's Upsert.
type Subscription struct {
	ID                   int        `json:"id"`
	UserID               int        `json:"user_id"`
	StripeCustomerID     *string    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id,omitempty"`
	PriceID              *string    `json:"price_id,omitempty"`
	Plan                 string     `json:"plan"`
	Status               string     `json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// SubscriptionUpsert carries the fields written by the store's Upsert.
// The plan column is always recomputed from PriceID and is deliberately absent.
type SubscriptionUpsert struct {
	PriceID              *string
	StripeSubscriptionID *string
	StripeCustomerID     *string
	Status               string
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool
}

// PlanLimits holds seat limits for a plan. Nil means unlimited.
type PlanLimits struct {
	MaxChildren *int `json:"max_children"`
	MaxFamilies *int `json:"max_families"`
}

// PlanInfo is a static plan definition from the catalog
type PlanInfo struct {
	Name              string `json:"name"`
	Label             string `json:"label"`
	Description       string `json:"description"`
	MonthlyPriceCents *int   `json:"monthly_price_cents"`
	AnnualPriceCents  *int   `json:"annual_price_cents"`
	Currency          string `json:"currency"`
	PriceMonthlyID    string `json:"-"`
	PriceAnnualID     string `json:"-"`
	MaxChildren       *int   `json:"max_children"`
	MaxFamilies       *int   `json:"max_families"`
}

// PlanPublic is the plan representation exposed to the frontend
type PlanPublic struct {
	Name              string  `json:"name"`
	Label             string  `json:"label"`
	Description       string  `json:"description"`
	Currency          string  `json:"currency"`
	MonthlyPriceCents *int    `json:"monthly_price_cents"`
	AnnualPriceCents  *int    `json:"annual_price_cents"`
	PriceMonthlyID    *string `json:"price_monthly_id"`
	PriceAnnualID     *string `json:"price_annual_id"`
	MaxChildren       *int    `json:"max_children"`
	MaxFamilies       *int    `json:"max_families"`
}

// SubscriptionOut is the serialized subscription state returned to clients.
// Plan and IsActive are derived through the entitlement resolver, never read
// from the stored columns directly.
type SubscriptionOut struct {
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	PriceID           *string    `json:"price_id"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	IsActive          bool       `json:"is_active"`
}

// CheckoutRequest represents a request to create a checkout session
type CheckoutRequest struct {
	PriceID    string `json:"price_id" validate:"required"`
	SuccessURL string `json:"success_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
}

// CheckoutResponse represents a checkout session response
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PortalRequest represents a request to create a billing portal session
type PortalRequest struct {
	ReturnURL string `json:"return_url,omitempty"`
}

// PortalResponse represents a billing portal session response
type PortalResponse struct {
	URL string `json:"url"`
}

// InvoiceOut represents a Stripe invoice exposed to clients
type InvoiceOut struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	AmountDue        int64      `json:"amount_due"`
	AmountPaid       int64      `json:"amount_paid"`
	Currency         string     `json:"currency"`
	HostedInvoiceURL *string    `json:"hosted_invoice_url,omitempty"`
	InvoicePDF       *string    `json:"invoice_pdf,omitempty"`
	Created          time.Time  `json:"created"`
	PeriodStart      *time.Time `json:"period_start,omitempty"`
	PeriodEnd        *time.Time `json:"period_end,omitempty"`
}
