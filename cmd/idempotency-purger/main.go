package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-gin-order-taxes/internal/app/api"
	orderspostgres "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/go-gin-order-taxes/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN not set; cannot purge idempotency keys")
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN, platformpostgres.WithPool(1, 1, 0))
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer func() { _ = platformpostgres.Close(db) }()

	store := orderspostgres.NewIdempotencyStore(db)
	cutoff := time.Now().Add(-cfg.IdempotencyKeyTTL)
	removed, err := store.PurgeBefore(ctx, cutoff)
	if err != nil {
		log.Fatalf("failed to purge idempotency keys: %v", err)
	}
	logger.Info("idempotency key purge completed", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
}
