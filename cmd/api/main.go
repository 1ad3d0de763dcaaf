/**
 * @description
 * Main entry point for the BookClub Backend API.
 * Initializes the Fiber web server, loads configuration, runs migrations
 * and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - github.com/bookclub-project/backend/internal/config: Config loader
 * - github.com/bookclub-project/backend/internal/db: Database connections
 *
 * @notes
 * - Connects to Postgres and Redis on startup. Redis is optional; the API
 *   degrades to uncached reads without it.
 */

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookclub-project/backend/internal/api"
	"github.com/bookclub-project/backend/internal/config"
	"github.com/bookclub-project/backend/internal/db"
	applogger "github.com/bookclub-project/backend/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Database Connections
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = db.ConnectRedis(cfg)
		if err != nil {
			applogger.Error("Redis unavailable, continuing without cache: %v", err)
			redisClient = nil
		}
	}

	// 3. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "BookClub Exchange",
		StrictRouting: false,
		CaseSensitive: true,
		BodyLimit:     12 << 20, // multipart image uploads
	})

	// 4. Global Middleware
	app.Use(recover.New()) // Panic recovery
	app.Use(logger.New())  // Request logging
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AppURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Job-Secret",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// 5. Routes
	if err := api.SetupRoutes(app, pgDB, redisClient, cfg); err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// 6. Start Server
	go func() {
		applogger.Info("🚀 Starting BookClub Backend on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	applogger.Info("Shutting down API...")
	if err := app.Shutdown(); err != nil {
		applogger.Error("Error during shutdown: %v", err)
	}
	applogger.Info("API exited.")
}
