package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"leadcore/config"
	"leadcore/middleware"
	"leadcore/routes"
	"leadcore/store"
	"leadcore/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "LEADCORE: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize Sentry for operator-facing failure capture
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Fatalf("Failed to initialize Sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Create Fiber app
	app := fiber.New()

	// Rate limiter: in-process counters by default, Redis when shared
	// limits across instances are needed
	var counters middleware.CounterStore
	if config.AppConfig.Redis.Enabled {
		counters = middleware.NewRedisCounterStore(
			config.AppConfig.Redis.Address,
			config.AppConfig.Redis.Password,
			config.AppConfig.Redis.DB,
		)
	} else {
		counters = middleware.NewMemoryCounterStore()
	}
	limiter := middleware.NewRateLimiter(
		counters,
		config.AppConfig.RateLimitMax,
		time.Duration(config.AppConfig.RateLimitWindowMs)*time.Millisecond,
	)

	// Setup routes
	routes.SetupRoutes(app, config.DB, limiter)

	// Initialize and start score refresh worker
	st := store.NewGormStore(config.DB)
	scoreWorker := worker.NewScoreWorker(st, st,
		log.New(os.Stdout, "SCORE: ", log.LstdFlags),
		time.Duration(config.AppConfig.ScoreRefreshMinutes)*time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scoreWorker.Start(ctx)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
