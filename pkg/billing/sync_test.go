package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/famloop/backend/pkg/logger"
	"github.com/famloop/backend/pkg/metrics"
	"github.com/famloop/backend/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_test_secret"

// fakeStore implements SubscriptionStore with the same upsert semantics as
// the real stores: one row per user, plan recomputed from the price, and an
// empty incoming customer ID never erasing a stored one.
type fakeStore struct {
	catalog *Catalog
	subs    map[int]*models.Subscription
	nextID  int
}

func newFakeStore(catalog *Catalog) *fakeStore {
	return &fakeStore{catalog: catalog, subs: make(map[int]*models.Subscription), nextID: 1}
}

func (f *fakeStore) Get(ctx context.Context, userID int) (*models.Subscription, error) {
	sub, ok := f.subs[userID]
	if !ok {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

func (f *fakeStore) Upsert(ctx context.Context, userID int, params models.SubscriptionUpsert) (*models.Subscription, error) {
	now := time.Now().UTC()
	sub, ok := f.subs[userID]
	if !ok {
		sub = &models.Subscription{ID: f.nextID, UserID: userID, CreatedAt: now}
		f.nextID++
		f.subs[userID] = sub
	}

	if params.StripeCustomerID != nil && *params.StripeCustomerID != "" {
		sub.StripeCustomerID = params.StripeCustomerID
	}
	sub.PriceID = params.PriceID
	sub.StripeSubscriptionID = params.StripeSubscriptionID
	sub.Status = params.Status
	sub.CurrentPeriodEnd = params.CurrentPeriodEnd
	sub.CancelAtPeriodEnd = params.CancelAtPeriodEnd
	sub.Plan = f.catalog.PriceToPlan(params.PriceID)
	sub.UpdatedAt = now

	copied := *sub
	return &copied, nil
}

type fakeUsers struct {
	users map[int]*models.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id int) (*models.User, error) {
	return f.users[id], nil
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()

	cfg := testConfig()
	cfg.StripeWebhookSecret = testWebhookSecret

	catalog := NewCatalog(cfg)
	store := newFakeStore(catalog)
	users := &fakeUsers{users: map[int]*models.User{
		1: {ID: 1, Email: "parent@example.com", Name: "Parent One"},
	}}

	svc := NewService(store, users, catalog, cfg, logger.New("error", "json"), nil)
	return svc, store
}

// signPayload builds a valid Stripe-Signature header for a webhook payload
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func subscriptionEventPayload(eventType, subStatus, priceID, userID string, periodEnd int64) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"api_version": "2023-10-16",
		"type": %q,
		"data": {
			"object": {
				"id": "sub_test_1",
				"object": "subscription",
				"status": %q,
				"customer": "cus_test_1",
				"cancel_at_period_end": false,
				"current_period_end": %d,
				"metadata": {"user_id": %q},
				"items": {
					"object": "list",
					"data": [{"id": "si_test_1", "price": {"id": %q}}]
				}
			}
		}
	}`, eventType, subStatus, periodEnd, userID, priceID))
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	svc, store := newTestService(t)

	payload := subscriptionEventPayload("customer.subscription.updated", "active", "price_plus_monthly", "1", 0)

	err := svc.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.Error(t, err)
	assert.Empty(t, store.subs, "no state may change on signature failure")
}

func TestHandleWebhook_RecordsMetrics(t *testing.T) {
	svc, _ := newTestService(t)
	svc.metrics = metrics.New()

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	payload := subscriptionEventPayload("customer.subscription.updated", "active", "price_plus_monthly", "1", periodEnd)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	require.NoError(t, err)

	assert.Equal(t, 1.0,
		testutil.ToFloat64(svc.metrics.WebhookEvents.WithLabelValues("customer.subscription.updated", "synced")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(svc.metrics.SubscriptionSyncs.WithLabelValues(models.PlanFamilyPlus)))

	err = svc.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	require.Error(t, err)
	assert.Equal(t, 1.0,
		testutil.ToFloat64(svc.metrics.WebhookEvents.WithLabelValues("unknown", "invalid")))
}

func TestHandleWebhook_SubscriptionUpdated(t *testing.T) {
	svc, store := newTestService(t)

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	payload := subscriptionEventPayload("customer.subscription.updated", "active", "price_plus_monthly", "1", periodEnd)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	require.NoError(t, err)

	sub := store.subs[1]
	require.NotNil(t, sub)
	assert.Equal(t, models.StatusActive, sub.Status)
	assert.Equal(t, models.PlanFamilyPlus, sub.Plan)
	assert.Equal(t, "price_plus_monthly", *sub.PriceID)
	assert.Equal(t, "sub_test_1", *sub.StripeSubscriptionID)
	assert.Equal(t, "cus_test_1", *sub.StripeCustomerID)
	assert.Equal(t, periodEnd, sub.CurrentPeriodEnd.Unix())

	out, err := svc.GetStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, out.IsActive)
	assert.Equal(t, models.PlanFamilyPlus, out.Plan)
}

func TestHandleWebhook_SubscriptionDeleted(t *testing.T) {
	svc, store := newTestService(t)

	// Start from an active paid state
	payload := subscriptionEventPayload("customer.subscription.updated", "active", "price_pro_monthly", "1", 0)
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret)))

	payload = subscriptionEventPayload("customer.subscription.deleted", "canceled", "price_pro_monthly", "1", 0)
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret)))

	sub := store.subs[1]
	require.NotNil(t, sub)
	assert.Equal(t, models.StatusCanceled, sub.Status)

	out, err := svc.GetStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, out.IsActive)
	assert.Equal(t, models.PlanFree, out.Plan, "canceled subscription entitles only free")
}

func TestHandleWebhook_MissingUserMetadata(t *testing.T) {
	svc, store := newTestService(t)

	payload := []byte(`{
		"id": "evt_test_2",
		"object": "event",
		"api_version": "2023-10-16",
		"type": "customer.subscription.updated",
		"data": {
			"object": {
				"id": "sub_foreign",
				"object": "subscription",
				"status": "active",
				"metadata": {}
			}
		}
	}`)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	assert.NoError(t, err, "verified events never fail the delivery")
	assert.Empty(t, store.subs)
}

func TestHandleWebhook_UnknownUser(t *testing.T) {
	svc, store := newTestService(t)

	payload := subscriptionEventPayload("customer.subscription.updated", "active", "price_plus_monthly", "9999", 0)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	assert.NoError(t, err)
	assert.Empty(t, store.subs)
}

func TestHandleWebhook_MalformedUserID(t *testing.T) {
	svc, store := newTestService(t)

	payload := subscriptionEventPayload("customer.subscription.updated", "active", "price_plus_monthly", "not-a-number", 0)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	assert.NoError(t, err)
	assert.Empty(t, store.subs)
}

func TestHandleWebhook_UnhandledEventType(t *testing.T) {
	svc, store := newTestService(t)

	payload := []byte(`{
		"id": "evt_test_3",
		"object": "event",
		"api_version": "2023-10-16",
		"type": "customer.created",
		"data": {"object": {"id": "cus_test_1", "object": "customer"}}
	}`)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	assert.NoError(t, err)
	assert.Empty(t, store.subs)
}

func TestHandleWebhook_CheckoutCompleted_RefetchesSubscription(t *testing.T) {
	svc, store := newTestService(t)

	var fetchedID string
	svc.retrieveSubscription = func(id string) (*stripe.Subscription, error) {
		fetchedID = id
		return &stripe.Subscription{
			ID:       id,
			Status:   stripe.SubscriptionStatusActive,
			Customer: &stripe.Customer{ID: "cus_test_1"},
			Metadata: map[string]string{"user_id": "1"},
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{
					{Price: &stripe.Price{ID: "price_plus_annual"}},
				},
			},
		}, nil
	}

	payload := []byte(`{
		"id": "evt_test_4",
		"object": "event",
		"api_version": "2023-10-16",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"subscription": "sub_test_1"
			}
		}
	}`)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	require.NoError(t, err)

	assert.Equal(t, "sub_test_1", fetchedID, "session payloads are never trusted directly")

	sub := store.subs[1]
	require.NotNil(t, sub)
	assert.Equal(t, models.StatusActive, sub.Status)
	assert.Equal(t, models.PlanFamilyPlus, sub.Plan)
}

func TestHandleWebhook_InvoicePaymentFailed(t *testing.T) {
	svc, store := newTestService(t)

	svc.retrieveSubscription = func(id string) (*stripe.Subscription, error) {
		return &stripe.Subscription{
			ID:       id,
			Status:   stripe.SubscriptionStatusPastDue,
			Customer: &stripe.Customer{ID: "cus_test_1"},
			Metadata: map[string]string{"user_id": "1"},
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{
					{Price: &stripe.Price{ID: "price_plus_monthly"}},
				},
			},
		}, nil
	}

	payload := []byte(`{
		"id": "evt_test_5",
		"object": "event",
		"api_version": "2023-10-16",
		"type": "invoice.payment_failed",
		"data": {
			"object": {
				"id": "in_test_1",
				"object": "invoice",
				"subscription": "sub_test_1"
			}
		}
	}`)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	require.NoError(t, err)

	sub := store.subs[1]
	require.NotNil(t, sub)
	assert.Equal(t, models.StatusPastDue, sub.Status)

	// past_due keeps the paid entitlement during the grace period
	out, err := svc.GetStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, out.IsActive)
	assert.Equal(t, models.PlanFamilyPlus, out.Plan)
}

func TestHandleWebhook_RefetchFailureSwallowed(t *testing.T) {
	svc, store := newTestService(t)

	svc.retrieveSubscription = func(id string) (*stripe.Subscription, error) {
		return nil, fmt.Errorf("stripe is down")
	}

	payload := []byte(`{
		"id": "evt_test_6",
		"object": "event",
		"api_version": "2023-10-16",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"subscription": "sub_test_1"
			}
		}
	}`)

	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret))
	assert.NoError(t, err, "Stripe redelivers; the receiver must not error")
	assert.Empty(t, store.subs)
}

func TestSyncFromStripe_Idempotent(t *testing.T) {
	svc, store := newTestService(t)

	stripeSub := &stripe.Subscription{
		ID:       "sub_test_1",
		Status:   stripe.SubscriptionStatusActive,
		Customer: &stripe.Customer{ID: "cus_test_1"},
		Metadata: map[string]string{"user_id": "1"},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{Price: &stripe.Price{ID: "price_plus_monthly"}},
			},
		},
	}

	svc.SyncFromStripe(context.Background(), stripeSub)
	first := *store.subs[1]

	svc.SyncFromStripe(context.Background(), stripeSub)
	second := *store.subs[1]

	assert.Len(t, store.subs, 1, "sync must never create a second row")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Plan, second.Plan)
}

func TestSyncFromStripe_PreservesCustomerID(t *testing.T) {
	svc, store := newTestService(t)

	// Row already carries a customer ID from checkout
	_, err := store.Upsert(context.Background(), 1, models.SubscriptionUpsert{
		StripeCustomerID: stripe.String("cus_existing"),
		Status:           models.StatusIncomplete,
	})
	require.NoError(t, err)

	// An event without a customer reference must not erase it
	svc.SyncFromStripe(context.Background(), &stripe.Subscription{
		ID:       "sub_test_1",
		Status:   stripe.SubscriptionStatusActive,
		Metadata: map[string]string{"user_id": "1"},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{Price: &stripe.Price{ID: "price_plus_monthly"}},
			},
		},
	})

	sub := store.subs[1]
	require.NotNil(t, sub)
	assert.Equal(t, "cus_existing", *sub.StripeCustomerID)
	assert.Equal(t, models.StatusActive, sub.Status)
}

func TestSyncFromStripe_MissingItems(t *testing.T) {
	svc, store := newTestService(t)

	// No line items: sync still lands, price resolves to nil, plan to free
	svc.SyncFromStripe(context.Background(), &stripe.Subscription{
		ID:       "sub_test_1",
		Status:   stripe.SubscriptionStatusActive,
		Customer: &stripe.Customer{ID: "cus_test_1"},
		Metadata: map[string]string{"user_id": "1"},
	})

	sub := store.subs[1]
	require.NotNil(t, sub)
	assert.Nil(t, sub.PriceID)
	assert.Equal(t, models.PlanFree, sub.Plan)
	assert.Equal(t, models.StatusActive, sub.Status)
}

func TestSeedSubscription(t *testing.T) {
	svc, store := newTestService(t)

	sub, err := svc.SeedSubscription(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, sub.Status)
	assert.Equal(t, models.PlanFree, sub.Plan)

	// Seeding twice keeps a single row
	_, err = svc.SeedSubscription(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, store.subs, 1)

	out, err := svc.GetStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, out.Plan)
	assert.Equal(t, models.StatusInactive, out.Status)
	assert.False(t, out.IsActive)
}

func TestGetStatus_NoRow(t *testing.T) {
	svc, _ := newTestService(t)

	out, err := svc.GetStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, out.Plan)
	assert.Equal(t, models.StatusInactive, out.Status)
	assert.False(t, out.IsActive)
}

func TestEnsureCustomer_ShortCircuit(t *testing.T) {
	svc, store := newTestService(t)

	_, err := store.Upsert(context.Background(), 1, models.SubscriptionUpsert{
		StripeCustomerID: stripe.String("cus_existing"),
		Status:           models.StatusInactive,
	})
	require.NoError(t, err)

	// Stripe is not configured in tests, so reaching the API would error;
	// an existing customer ID must be returned without any call.
	sub, customerID, err := svc.EnsureCustomer(context.Background(), &models.User{ID: 1, Email: "parent@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "cus_existing", customerID)
	assert.Equal(t, "cus_existing", *sub.StripeCustomerID)
}

func TestEnsureCustomer_Disabled(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.EnsureCustomer(context.Background(), &models.User{ID: 1, Email: "parent@example.com"})
	assert.ErrorIs(t, err, ErrStripeDisabled)
}

func TestCreateCheckoutSession_Disabled(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateCheckoutSession(context.Background(), &models.User{ID: 1}, models.CheckoutRequest{
		PriceID: "price_plus_monthly",
	})
	assert.ErrorIs(t, err, ErrStripeDisabled)
}

func TestCreateCheckoutSession_UnknownPrice(t *testing.T) {
	svc, _ := newTestService(t)
	svc.config.StripeSecretKey = "sk_test_dummy"

	_, err := svc.CreateCheckoutSession(context.Background(), &models.User{ID: 1}, models.CheckoutRequest{
		PriceID: "price_from_another_env",
	})
	assert.ErrorIs(t, err, ErrUnknownPrice)
}

func TestCreateCheckoutSession_NoRedirectURLs(t *testing.T) {
	svc, _ := newTestService(t)
	svc.config.StripeSecretKey = "sk_test_dummy"

	_, err := svc.CreateCheckoutSession(context.Background(), &models.User{ID: 1}, models.CheckoutRequest{
		PriceID: "price_plus_monthly",
	})
	assert.ErrorIs(t, err, ErrMissingRedirectURL)
}

func TestCreatePortalSession_NoCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	svc.config.StripeSecretKey = "sk_test_dummy"

	_, err := svc.CreatePortalSession(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrNoCustomer)
}

func TestSetCancelAtPeriodEnd_NoSubscription(t *testing.T) {
	svc, _ := newTestService(t)
	svc.config.StripeSecretKey = "sk_test_dummy"

	_, err := svc.SetCancelAtPeriodEnd(context.Background(), 1, true)
	assert.ErrorIs(t, err, ErrNoSubscription)
}

func TestListInvoices_NoCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	svc.config.StripeSecretKey = "sk_test_dummy"

	_, err := svc.ListInvoices(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoCustomer)
}
