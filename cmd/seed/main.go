package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"shipslot/internal/config"
	"shipslot/internal/database"
	"shipslot/internal/domain"
	jwtsvc "shipslot/internal/pkg/jwt"
	"shipslot/internal/repository"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

// Seeds a local database with demo companies and published slots.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	ctx := context.Background()
	companies := repository.NewCompanyRepository(db)
	slots := repository.NewSlotRepository(db)

	seedCompanies := []domain.Company{
		{OwnerID: 1, Name: "Lanna Express", Plan: domain.PlanFree},
		{OwnerID: 2, Name: "Gulf Freight", Plan: domain.PlanStarter, ProcessorAccount: "acct_gulf"},
		{OwnerID: 3, Name: "Isan Cargo", Plan: domain.PlanPro, ProcessorAccount: "acct_isan"},
	}
	for idx := range seedCompanies {
		if err := companies.Create(ctx, &seedCompanies[idx]); err != nil {
			log.Fatalf("seed company %q: %v", seedCompanies[idx].Name, err)
		}
	}

	departure := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour)
	seedSlots := []domain.Slot{
		{
			CompanyID:         seedCompanies[0].ID,
			Origin:            "Chiang Mai",
			Dest:              "Bangkok",
			DepartureAt:       departure,
			Pricing:           domain.PricingPerKg,
			PricePerKg:        f64(12.5),
			RemainingWeightKg: f64(500),
			Published:         true,
		},
		{
			CompanyID:      seedCompanies[1].ID,
			Origin:         "Bangkok",
			Dest:           "Phuket",
			DepartureAt:    departure.Add(24 * time.Hour),
			Pricing:        domain.PricingPerItem,
			PricePerItem:   f64(80),
			RemainingItems: i(200),
			Published:      true,
		},
		{
			CompanyID:   seedCompanies[2].ID,
			Origin:      "Khon Kaen",
			Dest:        "Bangkok",
			DepartureAt: departure.Add(48 * time.Hour),
			Pricing:     domain.PricingFlat,
			PriceFlat:   f64(1500),
			Published:   true,
		},
	}
	for idx := range seedSlots {
		if err := slots.Create(ctx, &seedSlots[idx]); err != nil {
			log.Fatalf("seed slot %d: %v", idx, err)
		}
	}

	log.Printf("seed completed: companies=%d slots=%d", len(seedCompanies), len(seedSlots))

	// Demo tokens for poking the API by hand. Owner ids match the seeded
	// companies; user 10 is a plain customer.
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	for _, u := range []struct {
		id   int64
		role domain.Role
	}{
		{1, domain.RoleCompany},
		{2, domain.RoleCompany},
		{3, domain.RoleCompany},
		{10, domain.RoleCustomer},
	} {
		token, err := j.GenerateToken(u.id, string(u.role))
		if err != nil {
			log.Fatalf("demo token user=%d: %v", u.id, err)
		}
		log.Printf("demo token user=%d role=%s token=%s", u.id, u.role, token)
	}
}
