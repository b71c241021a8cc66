package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/geotax/api/internal/config"
	"github.com/geotax/api/internal/database"
	"github.com/geotax/api/internal/geocode"
	"github.com/geotax/api/internal/importer"
	"github.com/geotax/api/internal/logger"
	"github.com/geotax/api/internal/queue"
	"github.com/geotax/api/internal/repository"
	"github.com/geotax/api/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting geotax import worker", map[string]interface{}{
		"environment": cfg.Server.Env,
		"workers":     cfg.Import.Workers,
		"batch_size":  cfg.Import.BatchSize,
		"provider":    cfg.Geocode.Provider,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, nil)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to apply database schema", err, nil)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", err, map[string]interface{}{
			"url": cfg.Redis.URL,
		})
	}
	defer redisClient.Close()

	rateRepo := repository.NewRateRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cacheRepo := repository.NewGeocodeCacheRepository(db)
	jobRepo := repository.NewImportJobRepository(db)

	resolver, err := geocode.NewResolver(cfg.Geocode, cacheRepo, log)
	if err != nil {
		log.Fatal("Failed to build geocode resolver", err, nil)
	}

	taxService := services.NewTaxService(resolver, rateRepo, orderRepo, log)
	importQueue := queue.NewRedisQueue(redisClient, cfg.Redis.QueueKey)

	// One queue consumer per configured worker. Each consumer owns the jobs
	// it dequeues end to end.
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Import.Workers; i++ {
		worker := importer.NewWorker(taxService, jobRepo, importQueue, cfg.Import.BatchSize, log.With(map[string]interface{}{
			"worker": i,
		}))
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Worker pool exited with error", err, nil)
	}

	log.Info("Worker pool exited", nil)
}
