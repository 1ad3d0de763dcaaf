/**
 * @description
 * API Route definitions.
 * Sets up the router groups, wires the service graph and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 */

package api

import (
	"log"

	"github.com/bookclub-project/backend/internal/api/handlers"
	"github.com/bookclub-project/backend/internal/api/middleware"
	"github.com/bookclub-project/backend/internal/config"
	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) error {
	// 1. Initialize Middleware
	if err := middleware.InitAuthMiddleware(cfg); err != nil {
		return err
	}

	// 2. Initialize Services
	notificationService := services.NewNotificationService(db)
	emailService := services.NewEmailService(cfg)
	pointsService := services.NewPointsService(db, notificationService)
	ratingService := services.NewRatingService(db, pointsService, notificationService, emailService)
	exchangeService := services.NewExchangeService(db, pointsService, notificationService, emailService)
	bookService := services.NewBookService(db, rdb, pointsService)
	chatService := services.NewChatService(db, notificationService, emailService)
	forumService := services.NewForumService(db, pointsService)
	userService := services.NewUserService(db, rdb)
	leaderboardService := services.NewLeaderboardService(db, rdb)

	authService, err := services.NewAuthService(db, cfg, userService)
	if err != nil {
		return err
	}

	// Uploads stay optional so the API can run without Cloudinary credentials.
	var uploadService *services.UploadService
	if cfg.Cloudinary.CloudName != "" {
		uploadService, err = services.NewUploadService(cfg)
		if err != nil {
			log.Printf("Failed to init upload service: %v", err)
			uploadService = nil
		}
	} else {
		logger.Info("⚠️ Warning: CLOUDINARY_CLOUD_NAME is empty. Uploads are disabled.")
	}

	// 3. Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	bookHandler := handlers.NewBookHandler(bookService)
	exchangeHandler := handlers.NewExchangeHandler(exchangeService, ratingService)
	chatHandler := handlers.NewChatHandler(chatService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	forumHandler := handlers.NewForumHandler(forumService)
	profileHandler := handlers.NewProfileHandler(userService, ratingService, leaderboardService)
	uploadHandler := handlers.NewUploadHandler(uploadService)
	adminHandler := handlers.NewAdminHandler(cfg, pointsService, notificationService, leaderboardService)

	// 4. Define Routes
	api := app.Group("/api")

	// Public Routes
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/google", authHandler.Google)
	auth.Get("/me", middleware.Protected(), authHandler.GetMe)

	// Book Routes (catalog is public, writes are protected)
	books := api.Group("/books")
	books.Get("/mine", middleware.Protected(), bookHandler.MyBooks)
	books.Get("/", bookHandler.List)
	books.Get("/:id", bookHandler.Get)
	books.Post("/", middleware.Protected(), bookHandler.Create)
	books.Put("/:id", middleware.Protected(), bookHandler.Update)
	books.Delete("/:id", middleware.Protected(), bookHandler.Delete)

	// Exchange Routes (Protected)
	exchanges := api.Group("/exchanges", middleware.Protected())
	exchanges.Post("/", exchangeHandler.Create)
	exchanges.Get("/", exchangeHandler.List)
	exchanges.Get("/:id", exchangeHandler.Get)
	exchanges.Put("/:id", exchangeHandler.Action)
	exchanges.Post("/:id/messages", chatHandler.Send)
	exchanges.Get("/:id/messages", chatHandler.History)
	exchanges.Put("/:id/messages/read", chatHandler.MarkRead)

	// Message Routes (Protected)
	messages := api.Group("/messages", middleware.Protected())
	messages.Get("/unread", chatHandler.UnreadCount)
	messages.Delete("/:id", chatHandler.Delete)

	// Notification Routes (Protected)
	notifications := api.Group("/notifications", middleware.Protected())
	notifications.Get("/", notificationHandler.List)
	notifications.Get("/unread", notificationHandler.UnreadCount)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)

	// Forum Routes (reads are public, writes are protected)
	forum := api.Group("/forum")
	forum.Get("/posts", forumHandler.ListPosts)
	forum.Get("/posts/:id", forumHandler.GetPost)
	forum.Post("/posts", middleware.Protected(), forumHandler.CreatePost)
	forum.Post("/posts/:id/replies", middleware.Protected(), forumHandler.Reply)
	forum.Post("/posts/:id/like", middleware.Protected(), forumHandler.ToggleLike)
	forum.Delete("/posts/:id", middleware.Protected(), forumHandler.DeletePost)

	// User + Leaderboard Routes
	api.Get("/leaderboard", profileHandler.Leaderboard)
	api.Get("/leaderboard/me", middleware.Protected(), profileHandler.MyRank)
	users := api.Group("/users")
	users.Get("/", profileHandler.ListUsers)
	users.Put("/me", middleware.Protected(), profileHandler.UpdateProfile)
	users.Get("/:id", profileHandler.GetProfile)
	users.Post("/:id/rate", middleware.Protected(), profileHandler.RateUser)

	// Upload Routes (Protected)
	uploads := api.Group("/uploads", middleware.Protected())
	uploads.Post("/", uploadHandler.Upload)
	uploads.Get("/sign", uploadHandler.SignParams)

	// Operational Routes (job secret)
	admin := api.Group("/admin", middleware.JobSecret(cfg))
	admin.Post("/recalculate-points", adminHandler.RecalculatePoints)
	admin.Post("/sync-levels", adminHandler.SyncLevels)
	admin.Post("/cleanup-notifications", adminHandler.CleanupNotifications)
	admin.Post("/refresh-leaderboard", adminHandler.RefreshLeaderboard)

	return nil
}
