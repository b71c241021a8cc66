package main

import (
	"context"
	"fmt"
	"os"

	"github.com/geotax/api/internal/config"
	"github.com/geotax/api/internal/database"
	"github.com/geotax/api/internal/logger"
	"github.com/geotax/api/internal/repository"
	"github.com/geotax/api/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, nil)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to apply database schema", err, nil)
	}

	if err := seed.Run(ctx, repository.NewRateRepository(db), log); err != nil {
		log.Fatal("Failed to seed tax rates", err, nil)
	}
}
