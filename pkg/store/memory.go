package store

import (
	"context"
	"sync"
	"time"

	"github.com/famloop/backend/pkg/billing"
	"github.com/famloop/backend/pkg/models"
)

// Memory is an in-memory store with the same semantics as Postgres. It backs
// package tests and lets the API run without a database in development.
type Memory struct {
	mu            sync.RWMutex
	catalog       *billing.Catalog
	users         map[int]*models.User
	subscriptions map[int]*models.Subscription
	nextUserID    int
	nextSubID     int
}

// NewMemory creates an empty in-memory store
func NewMemory(catalog *billing.Catalog) *Memory {
	return &Memory{
		catalog:       catalog,
		users:         make(map[int]*models.User),
		subscriptions: make(map[int]*models.Subscription),
		nextUserID:    1,
		nextSubID:     1,
	}
}

// Get fetches the subscription for a user, nil when absent
func (m *Memory) Get(ctx context.Context, userID int) (*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subscriptions[userID]
	if !ok {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

// Upsert inserts or updates the single subscription row for a user,
// mirroring the Postgres semantics: plan recomputed from the incoming price,
// stored customer ID preserved against empty incoming values.
func (m *Memory) Upsert(ctx context.Context, userID int, params models.SubscriptionUpsert) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	plan := m.catalog.PriceToPlan(params.PriceID)

	sub, ok := m.subscriptions[userID]
	if !ok {
		sub = &models.Subscription{
			ID:        m.nextSubID,
			UserID:    userID,
			CreatedAt: now,
		}
		m.nextSubID++
		m.subscriptions[userID] = sub
	}

	if params.StripeCustomerID != nil && *params.StripeCustomerID != "" {
		sub.StripeCustomerID = params.StripeCustomerID
	}
	sub.StripeSubscriptionID = params.StripeSubscriptionID
	sub.PriceID = params.PriceID
	sub.Plan = plan
	sub.Status = params.Status
	sub.CurrentPeriodEnd = params.CurrentPeriodEnd
	sub.CancelAtPeriodEnd = params.CancelAtPeriodEnd
	sub.UpdatedAt = now

	copied := *sub
	return &copied, nil
}

// GetByID fetches a user by ID, nil when absent
func (m *Memory) GetByID(ctx context.Context, id int) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

// GetByEmail fetches a user by email, nil when absent
func (m *Memory) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

// CreateUser inserts a new user
func (m *Memory) CreateUser(ctx context.Context, email, name, passwordHash, role string, profileImageURL *string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	user := &models.User{
		ID:              m.nextUserID,
		Email:           email,
		Name:            name,
		PasswordHash:    passwordHash,
		Role:            role,
		ProfileImageURL: profileImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.nextUserID++
	m.users[user.ID] = user

	copied := *user
	return &copied, nil
}

// UpdatePassword replaces a user's password hash
func (m *Memory) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user, ok := m.users[id]; ok {
		user.PasswordHash = passwordHash
		user.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// UpdateProfile fills in name and profile image when provided
func (m *Memory) UpdateProfile(ctx context.Context, id int, name *string, profileImageURL *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil
	}
	if name != nil && *name != "" {
		user.Name = *name
	}
	if profileImageURL != nil {
		user.ProfileImageURL = profileImageURL
	}
	user.UpdatedAt = time.Now().UTC()
	return nil
}
