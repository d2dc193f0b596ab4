package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"betmate/api"
	"betmate/api/ws"
	"betmate/application"
	"betmate/config"
	"betmate/database"
	"betmate/domain/events"
	"betmate/infrastructure"
	"betmate/repository"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting betmate server...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize Redis connection
	log.Println("Connecting to Redis...")
	rdb, err := infrastructure.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("Redis connection established successfully")

	// Initialize event bus
	log.Println("Initializing event bus...")
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Wire notification fan-out onto the event bus
	pusher := infrastructure.NewPushPublisher(rdb)
	application.RegisterApplicationSubscriptions(eventBus, uowFactory, pusher)
	log.Println("Event subscriptions registered successfully")

	// Initialize realtime hub and push delivery
	hub := ws.NewHub(nil)
	infrastructure.StartPushSubscriber(ctx, rdb, hub.Deliver)

	// Initialize presence tracking
	presence := infrastructure.NewPresenceService(rdb, cfg.PresenceTTL)

	// Start the deadline sweeper
	log.Println("Starting deadline sweeper...")
	worker := application.NewDeadlineWorker(uowFactory, cfg.DeadlineSweepInterval)
	stopWorker := worker.Start(ctx)

	// Start the metrics sidecar
	metricsServer := api.StartMetricsServer(cfg.MetricsPort, func(healthCtx context.Context) error {
		return db.Ping(healthCtx)
	})

	// Run the HTTP server until shutdown
	server := api.NewServer(cfg, uowFactory, presence, hub)
	log.Printf("Server is running in %s mode...", cfg.Environment)
	serveErr := server.Start(ctx)

	// Cleanup resources
	log.Println("Shutting down server...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics server: %v", err)
	}

	if err := rdb.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	log.Println("Closing database connection...")
	db.Close()

	if serveErr != nil {
		return serveErr
	}
	log.Println("Shutdown completed")
	return nil
}
