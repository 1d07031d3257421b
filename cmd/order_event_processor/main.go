package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dinehall-loyalty-service/internal/config"
	"github.com/dinehall-loyalty-service/internal/data/mongo"
	"github.com/dinehall-loyalty-service/internal/data/postgres"
	"github.com/dinehall-loyalty-service/internal/logger"
	"github.com/dinehall-loyalty-service/internal/loyalty"
	"github.com/dinehall-loyalty-service/internal/order_event_processor/consumer"
	"github.com/dinehall-loyalty-service/internal/order_event_processor/outbox_poller"
	"github.com/dinehall-loyalty-service/internal/order_event_processor/service"
	"github.com/dinehall-loyalty-service/internal/platform/messaging/consumers"
	"github.com/dinehall-loyalty-service/internal/platform/messaging/producers"
	"github.com/dinehall-loyalty-service/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("order_event_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Order Event Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	orderRepo := postgres.NewOrderRepository(log, postgresDB)
	userRepo := postgres.NewUserRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	activityRepo := mongo.NewActivityRepository(log, mongoDB.Database())

	// Initialize the loyalty core
	gate := loyalty.NewEligibilityGate(cfg.Loyalty.WalkInUserSlug)
	percent := loyalty.NewConfigPercentProvider(&cfg.Loyalty)
	loyaltyService := loyalty.NewService(
		log,
		postgresDB,
		accountRepo,
		ledgerRepo,
		orderRepo,
		userRepo,
		outboxRepo,
		gate,
		percent,
	)

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler should be nil-safe.

	// Initialize the loyalty events producer used by the outbox poller
	loyaltyProducer, err := producers.NewLoyaltyEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize loyalty events Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize processing service behind the worker pool
	processingService := createProcessingService(loyaltyService, cfg, log)

	// Initialize order event handler
	orderEventHandler := consumer.NewOrderEventHandler(
		log,
		processingService,
		dlqProducer,
	)

	// Initialize outbox poller
	activityPublisher := outbox_poller.NewActivityPublisher(
		outboxRepo,
		activityRepo,
		loyaltyProducer,
		log,
	)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		activityPublisher,
		log,
	)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.OrderEventsTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.OrderEventsTopic, cfg.Kafka.ConsumerGroup, orderEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool if it's a WorkerPoolProcessingService
	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close DLQ Kafka producer
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = loyaltyProducer.Close(); err != nil {
		log.Error("Error closing loyalty events Kafka producer", "error", err)
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Order Event Processor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Order Event Processor shutdown completed with errors")
	} else {
		log.Info("Order Event Processor shutdown completed successfully")
	}
}

// createProcessingService wires the loyalty core behind the worker pool,
// falling back to the unbuffered service when the pool cannot be created
func createProcessingService(loyaltyService *loyalty.Service, cfg *config.Config, log *slog.Logger) service.ProcessingService {
	baseService := service.NewOrderProcessingService(log, loyaltyService, loyaltyService)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		log.With("component", "worker_pool"),
	)
	if err != nil {
		log.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	log.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
