// Command seed populates the database with demo accounts for local
// development. Every account gets the password "password123".
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/famloop/backend/config"
	"github.com/famloop/backend/pkg/auth"
	"github.com/famloop/backend/pkg/billing"
	"github.com/famloop/backend/pkg/models"
	"github.com/famloop/backend/pkg/store"
)

const demoPassword = "password123"

func main() {
	count := flag.Int("users", 10, "number of random users to create")
	flag.Parse()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL must be set to seed demo data")
	}

	catalog := billing.NewCatalog(cfg)
	pg, err := store.NewPostgres(cfg.DatabaseURL, catalog, nil)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gofakeit.Seed(0)

	passwordHash, err := auth.HashPassword(demoPassword)
	if err != nil {
		log.Fatalf("failed to hash demo password: %v", err)
	}

	// Fixed demo account for frontend development
	if err := seedUser(ctx, pg, catalog, "demo@famloop.app", "Demo Parent", passwordHash, true); err != nil {
		log.Printf("skipping demo@famloop.app: %v", err)
	}

	created := 0
	for i := 0; i < *count; i++ {
		name := gofakeit.Name()
		email := fmt.Sprintf("%s.%d@example.com",
			strings.ToLower(strings.ReplaceAll(name, " ", ".")), gofakeit.Number(100, 999))

		// Roughly a third of the demo accounts carry a paid subscription
		paid := gofakeit.Number(0, 2) == 0

		if err := seedUser(ctx, pg, catalog, email, name, passwordHash, paid); err != nil {
			log.Printf("skipping %s: %v", email, err)
			continue
		}
		created++
	}

	log.Printf("seeded %d users (password: %q)", created+1, demoPassword)
}

// seedUser creates a user with its subscription row. Paid users get an active
// family_plus subscription when the monthly price is configured, otherwise
// they fall back to the free row like everyone else.
func seedUser(ctx context.Context, pg *store.Postgres, catalog *billing.Catalog, email, name, passwordHash string, paid bool) error {
	existing, err := pg.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("user already exists")
	}

	user, err := pg.CreateUser(ctx, email, name, passwordHash, "parent", nil)
	if err != nil {
		return err
	}

	upsert := models.SubscriptionUpsert{Status: models.StatusInactive}

	var priceID string
	for _, plan := range catalog.Plans() {
		if plan.Name == models.PlanFamilyPlus {
			priceID = plan.PriceMonthlyID
		}
	}
	if paid && priceID != "" {
		periodEnd := time.Now().AddDate(0, 1, 0).UTC()
		upsert = models.SubscriptionUpsert{
			PriceID:              &priceID,
			StripeCustomerID:     strPtr("cus_demo_" + gofakeit.LetterN(14)),
			StripeSubscriptionID: strPtr("sub_demo_" + gofakeit.LetterN(14)),
			Status:               models.StatusActive,
			CurrentPeriodEnd:     &periodEnd,
		}
	}

	_, err = pg.Upsert(ctx, user.ID, upsert)
	return err
}

func strPtr(s string) *string {
	return &s
}
