package billing

import (
	"context"
	"errors"

	"github.com/famloop/backend/config"
	"github.com/famloop/backend/pkg/logger"
	"github.com/famloop/backend/pkg/metrics"
	"github.com/famloop/backend/pkg/models"
	"github.com/stripe/stripe-go/v76"
	stripesubscription "github.com/stripe/stripe-go/v76/subscription"
)

var (
	// ErrStripeDisabled is returned when Stripe is not configured
	ErrStripeDisabled = errors.New("stripe is not configured")
	// ErrNoCustomer is returned when the user has no Stripe customer yet
	ErrNoCustomer = errors.New("no stripe customer for this user")
	// ErrNoSubscription is returned when the user has no Stripe subscription
	ErrNoSubscription = errors.New("no active subscription found")
	// ErrUnknownPrice is returned when a checkout requests an unconfigured price
	ErrUnknownPrice = errors.New("unknown or unsupported price_id")
	// ErrMissingRedirectURL is returned when checkout/portal URLs are not set
	ErrMissingRedirectURL = errors.New("redirect URLs are not configured")
)

// SubscriptionStore abstracts subscription persistence. Get returns nil
// without error when no row exists. Upsert is the only mutation path for
// subscription rows and must be idempotent; an empty incoming customer ID
// never erases a stored one, and the plan column is recomputed from the
// incoming price on every call.
type SubscriptionStore interface {
	Get(ctx context.Context, userID int) (*models.Subscription, error)
	Upsert(ctx context.Context, userID int, params models.SubscriptionUpsert) (*models.Subscription, error)
}

// UserStore abstracts the user lookups the billing service needs
type UserStore interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// Service handles Stripe billing operations and subscription state
type Service struct {
	store   SubscriptionStore
	users   UserStore
	catalog *Catalog
	config  *config.Config
	log     logger.Logger
	metrics *metrics.Metrics

	// retrieveSubscription fetches a subscription from Stripe by ID. Swapped
	// out in tests; the webhook path re-fetches for events that embed only a
	// partial or unrelated object.
	retrieveSubscription func(id string) (*stripe.Subscription, error)
}

// NewService creates a new billing service. The metrics instance may be nil.
func NewService(store SubscriptionStore, users UserStore, catalog *Catalog, cfg *config.Config, log logger.Logger, m *metrics.Metrics) *Service {
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
	}

	return &Service{
		store:   store,
		users:   users,
		catalog: catalog,
		config:  cfg,
		log:     log,
		metrics: m,
		retrieveSubscription: func(id string) (*stripe.Subscription, error) {
			return stripesubscription.Get(id, nil)
		},
	}
}

// Enabled reports whether Stripe billing is configured
func (s *Service) Enabled() bool {
	return s.config.StripeEnabled()
}

// Catalog returns the plan catalog used by this service
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// ListPlans returns the plans exposed to the frontend
func (s *Service) ListPlans() []models.PlanPublic {
	available := s.catalog.Available()
	plans := make([]models.PlanPublic, 0, len(available))
	for _, plan := range available {
		plans = append(plans, models.PlanPublic{
			Name:              plan.Name,
			Label:             plan.Label,
			Description:       plan.Description,
			Currency:          plan.Currency,
			MonthlyPriceCents: plan.MonthlyPriceCents,
			AnnualPriceCents:  plan.AnnualPriceCents,
			PriceMonthlyID:    optionalString(plan.PriceMonthlyID),
			PriceAnnualID:     optionalString(plan.PriceAnnualID),
			MaxChildren:       plan.MaxChildren,
			MaxFamilies:       plan.MaxFamilies,
		})
	}
	return plans
}

// GetStatus returns the serialized subscription state for a user
func (s *Service) GetStatus(ctx context.Context, userID int) (models.SubscriptionOut, error) {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return models.SubscriptionOut{}, err
	}
	return s.catalog.Serialize(sub), nil
}

// SeedSubscription lazily creates the free/inactive subscription row for a
// new user. Called from the signup and OAuth-signup flows.
func (s *Service) SeedSubscription(ctx context.Context, userID int) (*models.Subscription, error) {
	return s.store.Upsert(ctx, userID, models.SubscriptionUpsert{
		Status: models.StatusInactive,
	})
}

func (s *Service) recordWebhookEvent(eventType, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordWebhookEvent(eventType, outcome)
	}
}

func (s *Service) recordSubscriptionSync(plan string) {
	if s.metrics != nil {
		s.metrics.RecordSubscriptionSync(plan)
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
