/**
 * @description
 * Worker Service Entry Point.
 * Responsible for scheduled background jobs:
 * 1. Points reconciliation: re-derives every user's points from activity.
 * 2. Level repair between reconciliation sweeps.
 * 3. Old-notification cleanup.
 * 4. Leaderboard cache refresh.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/services
 * - github.com/robfig/cron/v3
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookclub-project/backend/internal/config"
	"github.com/bookclub-project/backend/internal/db"
	"github.com/bookclub-project/backend/internal/logger"
	"github.com/bookclub-project/backend/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

func main() {
	logger.Info("🔥 Starting BookClub Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = db.ConnectRedis(cfg)
		if err != nil {
			logger.Error("Redis unavailable, leaderboard refresh disabled: %v", err)
			redisClient = nil
		}
	}

	// 3. Initialize Services
	notificationService := services.NewNotificationService(pgDB)
	pointsService := services.NewPointsService(pgDB, notificationService)
	leaderboardService := services.NewLeaderboardService(pgDB, redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Schedule Jobs
	c := cron.New()

	if _, err := c.AddFunc(cfg.Jobs.ResyncSpec, func() {
		runCtx, done := context.WithTimeout(ctx, 10*time.Minute)
		defer done()

		logger.Info("🔄 Running points reconciliation...")
		updated, err := pointsService.RecalculateAll(runCtx)
		if err != nil {
			logger.Error("Points reconciliation failed: %v", err)
			return
		}
		logger.Info("Points reconciliation done, %d users updated", updated)

		if _, err := pointsService.SyncLevels(runCtx); err != nil {
			logger.Error("Level repair failed: %v", err)
		}
	}); err != nil {
		logger.Fatal("Invalid POINTS_RESYNC_CRON %q: %v", cfg.Jobs.ResyncSpec, err)
	}

	if _, err := c.AddFunc(cfg.Jobs.CleanupSpec, func() {
		runCtx, done := context.WithTimeout(ctx, 5*time.Minute)
		defer done()

		retention := time.Duration(cfg.Jobs.RetentionDays) * 24 * time.Hour
		logger.Info("🧹 Cleaning notifications older than %d days...", cfg.Jobs.RetentionDays)
		if err := notificationService.DeleteOldNotifications(runCtx, retention); err != nil {
			logger.Error("Notification cleanup failed: %v", err)
		}
	}); err != nil {
		logger.Fatal("Invalid NOTIFICATION_CLEANUP_CRON %q: %v", cfg.Jobs.CleanupSpec, err)
	}

	if redisClient != nil {
		if _, err := c.AddFunc("*/5 * * * *", func() {
			runCtx, done := context.WithTimeout(ctx, time.Minute)
			defer done()

			if err := leaderboardService.Refresh(runCtx); err != nil {
				logger.Error("Leaderboard refresh failed: %v", err)
			}
		}); err != nil {
			logger.Fatal("Failed to schedule leaderboard refresh: %v", err)
		}
	}

	c.Start()
	logger.Info("✅ Worker scheduled %d jobs", len(c.Entries()))

	// 5. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Error("Timed out waiting for running jobs")
	}
	logger.Info("Worker exited.")
}
