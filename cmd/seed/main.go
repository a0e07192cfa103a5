// seed inserts the default admin account and a small offer catalog.
// Idempotent: rows that already exist are left untouched.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	admindomain "ticket-office/backend/internal/admin/domain"
	adminrepo "ticket-office/backend/internal/admin/repository"
	"ticket-office/backend/internal/config"
	"ticket-office/backend/internal/db"
	offerdomain "ticket-office/backend/internal/offer/domain"
	offerrepo "ticket-office/backend/internal/offer/repository"
	"ticket-office/backend/internal/security"
)

const (
	defaultAdminEmail    = "admin@ticket-office.local"
	defaultAdminPassword = "ChangeMe123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	now := time.Now().UTC()

	admins := adminrepo.NewPostgresRepository(database)
	existing, err := admins.GetByEmail(ctx, defaultAdminEmail)
	if err != nil {
		log.Fatalf("admin lookup: %v", err)
	}
	if existing == nil {
		hasher := security.NewHasher(cfg.BcryptCost)
		hash, err := hasher.Hash([]byte(defaultAdminPassword))
		if err != nil {
			log.Fatalf("hash: %v", err)
		}
		err = admins.Create(ctx, &admindomain.Admin{
			ID:           uuid.New().String(),
			Email:        defaultAdminEmail,
			PasswordHash: hash,
			FullName:     "Default Admin",
			CreatedAt:    now,
		})
		if err != nil {
			log.Fatalf("admin create: %v", err)
		}
		log.Printf("seeded admin %s (change the password)", defaultAdminEmail)
	} else {
		log.Printf("admin %s already present", defaultAdminEmail)
	}

	offers := offerrepo.NewPostgresRepository(database)
	catalog := []offerdomain.Offer{
		{Name: "Solo Pass", Description: "One entry for one event", Price: 29.99, Persons: 1, Quantity: 500},
		{Name: "Duo Pass", Description: "Two entries, come with a friend", Price: 49.99, Persons: 2, Quantity: 300},
		{Name: "Family Pass", Description: "Four entries for the whole family", Price: 89.99, Persons: 4, Quantity: 150},
	}
	existingOffers, err := offers.List(ctx)
	if err != nil {
		log.Fatalf("offer list: %v", err)
	}
	present := map[string]bool{}
	for _, o := range existingOffers {
		present[o.Name] = true
	}
	for _, o := range catalog {
		if present[o.Name] {
			log.Printf("offer %q already present", o.Name)
			continue
		}
		o.ID = uuid.New().String()
		o.CreatedAt = now
		o.UpdatedAt = now
		if err := offers.Create(ctx, &o); err != nil {
			log.Fatalf("offer create %q: %v", o.Name, err)
		}
		log.Printf("seeded offer %q", o.Name)
	}
}
