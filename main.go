package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"cinema-reservation/cmd"
	"cinema-reservation/internal/data/memstore"
	"cinema-reservation/internal/data/repository"
	"cinema-reservation/internal/usecase"
	"cinema-reservation/internal/wire"
	"cinema-reservation/internal/worker"
	"cinema-reservation/pkg/cache"
	"cinema-reservation/pkg/database"
	"cinema-reservation/pkg/messaging"
	"cinema-reservation/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.App.StorageDriver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var repo *repository.Repository
	switch config.App.StorageDriver {
	case utils.StorageDriverMemory:
		repo = memstore.New(logger).Repository()
		logger.Warn("Using in-memory storage, data is lost on exit")
	default:
		db, err := database.InitDB(config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if config.Database.AutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				logger.Fatal("Failed to apply schema", zap.Error(err))
			}
			logger.Info("Schema applied")
		}

		logger.Info("Database connected successfully")
		repo = repository.NewRepository(db, logger)
	}

	deps := usecase.Dependencies{}

	// Availability cache (optional)
	redisClient, err := cache.NewRedisClient(config.Redis)
	switch {
	case err != nil:
		logger.Warn("Redis unavailable, availability cache disabled", zap.Error(err))
	case redisClient != nil:
		defer redisClient.Close()
		deps.Cache = cache.NewRedisCache(redisClient, config.App.Name)
		logger.Info("Redis connected", zap.String("addr", config.Redis.Addr))
	}

	// Ledger events (optional)
	if config.RabbitMQ.URL != "" {
		publisher, err := messaging.NewRabbitPublisher(config.RabbitMQ.URL, usecase.EventQueues()...)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, ledger events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			deps.Publisher = publisher
			logger.Info("RabbitMQ connected")
		}
	}

	// Wire all dependencies
	app := wire.Wiring(repo, config, logger, deps)

	if err := app.Service.Auth.EnsureAdmin(ctx); err != nil {
		logger.Fatal("Failed to bootstrap admin", zap.Error(err))
	}

	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	sweeper := worker.NewSweeper(app.Service.Reservation, config.Booking.SweepInterval(), config.Booking.SweepBatchSize, logger)
	sweeperDone := sweeper.Start(sweeperCtx)

	shutdownTimeout := time.Duration(config.App.ShutdownTimeoutSeconds) * time.Second
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, shutdownTimeout, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}

	stopSweeper()
	<-sweeperDone

	logger.Info("Application stopped")
}
