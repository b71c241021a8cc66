package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geotax/api/internal/config"
	"github.com/geotax/api/internal/database"
	"github.com/geotax/api/internal/geocode"
	"github.com/geotax/api/internal/handlers"
	"github.com/geotax/api/internal/logger"
	"github.com/geotax/api/internal/middleware"
	"github.com/geotax/api/internal/queue"
	"github.com/geotax/api/internal/repository"
	"github.com/geotax/api/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting geotax API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"provider":    cfg.Geocode.Provider,
	})

	// Create database connection pool and apply the schema
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to apply database schema", err, nil)
	}

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Connect to Redis for the import queue
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", err, map[string]interface{}{
			"url": cfg.Redis.URL,
		})
	}
	defer redisClient.Close()

	// Wire repositories, the resolver and services
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

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(taxService, jobRepo, importQueue)
	importHandler := handlers.NewImportHandler(jobRepo)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", orderHandler.List)
			orders.POST("/clear", orderHandler.Clear)
			orders.POST("/import_csv", orderHandler.ImportCSV)
		}

		imports := v1.Group("/imports")
		{
			imports.GET("", importHandler.List)
			imports.GET("/:id", importHandler.Get)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
