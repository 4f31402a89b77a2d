package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shipslot/internal/config"
	"shipslot/internal/database"
	"shipslot/internal/repository"
)

// Expires overdue pending extra charges on an interval. Safe to run next to
// the API: expiry is a guarded one-shot per row.
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

	repo := repository.NewExtraChargeRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	log.Printf("level=info msg=sweeper started interval=%s", cfg.SweepInterval)
	sweep(ctx, repo)
	for {
		select {
		case <-ctx.Done():
			log.Print("level=info msg=sweeper stopping")
			return
		case <-ticker.C:
			sweep(ctx, repo)
		}
	}
}

func sweep(ctx context.Context, repo *repository.ExtraChargeRepository) {
	n, err := repo.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("level=error msg=sweep failed err=%v", err)
		return
	}
	if n > 0 {
		log.Printf("level=info msg=extra charges expired count=%d", n)
	}
}
