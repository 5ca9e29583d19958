package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"leadcore/config"
	controller "leadcore/controllers"
	"leadcore/middleware"
	"leadcore/store"
)

// SetupRoutes wires the ingestion API. Every endpoint under /api/v1
// sits behind the rate limiter and the credential gate, in that order:
// admission control first, then identity.
func SetupRoutes(app *fiber.App, db *gorm.DB, limiter *middleware.RateLimiter) {
	st := store.NewGormStore(db)

	gateLogger := log.New(os.Stdout, "GATE: ", log.Ldate|log.Ltime|log.Lshortfile)
	ingestController := controller.NewIngestController(
		st, st,
		log.New(os.Stdout, "INGEST: ", log.LstdFlags),
		controller.ParseMergePolicy(config.AppConfig.MergePolicy),
	)
	journeyController := controller.NewJourneyController(st, st, log.New(os.Stdout, "JOURNEY: ", log.LstdFlags))
	scoreController := controller.NewScoreController(st, st, log.New(os.Stdout, "SCORE: ", log.LstdFlags))

	api := app.Group("/api/v1",
		logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}),
		middleware.RateLimit(limiter),
		middleware.APIKeyGate(st, gateLogger),
	)

	// Lead intake
	api.Post("/leads/bulk", ingestController.IngestBulk)

	// Behavioral signals and marketing journey
	api.Post("/events", journeyController.RecordEvent)
	api.Post("/leads/:id/touchpoints", journeyController.AddTouchpoint)
	api.Get("/leads/:id/attribution", journeyController.GetAttribution)

	// Scoring
	api.Get("/leads/:id/score", scoreController.GetScore)
	api.Post("/scores/refresh", scoreController.RefreshScores)

	gateLogger.Println("Ingestion routes initialized successfully")
}
