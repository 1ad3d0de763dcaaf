/**
 * @description
 * Operational API Handlers.
 * Job-secret gated endpoints mirroring the worker's scheduled jobs so an
 * operator can trigger them on demand: points reconciliation, level repair,
 * notification cleanup and leaderboard refresh.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"time"

	"github.com/bookclub-project/backend/internal/config"
	"github.com/bookclub-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Cfg           *config.Config
	Points        *services.PointsService
	Notifications *services.NotificationService
	Leaderboard   *services.LeaderboardService
}

func NewAdminHandler(cfg *config.Config, points *services.PointsService, notifications *services.NotificationService, leaderboard *services.LeaderboardService) *AdminHandler {
	return &AdminHandler{
		Cfg:           cfg,
		Points:        points,
		Notifications: notifications,
		Leaderboard:   leaderboard,
	}
}

// RecalculatePoints re-derives every user's points from their activity
// POST /api/admin/recalculate-points
func (h *AdminHandler) RecalculatePoints(c *fiber.Ctx) error {
	updated, err := h.Points.RecalculateAll(c.Context())
	if err != nil {
		return svcError(c, "RecalculatePoints", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"updated": updated})
}

// SyncLevels repairs level drift without touching point totals
// POST /api/admin/sync-levels
func (h *AdminHandler) SyncLevels(c *fiber.Ctx) error {
	updated, err := h.Points.SyncLevels(c.Context())
	if err != nil {
		return svcError(c, "SyncLevels", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"updated": updated})
}

// CleanupNotifications deletes notifications past the retention window
// POST /api/admin/cleanup-notifications
func (h *AdminHandler) CleanupNotifications(c *fiber.Ctx) error {
	retention := time.Duration(h.Cfg.Jobs.RetentionDays) * 24 * time.Hour
	if err := h.Notifications.DeleteOldNotifications(c.Context(), retention); err != nil {
		return svcError(c, "CleanupNotifications", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Cleanup complete"})
}

// RefreshLeaderboard recomputes the cached leaderboard
// POST /api/admin/refresh-leaderboard
func (h *AdminHandler) RefreshLeaderboard(c *fiber.Ctx) error {
	if err := h.Leaderboard.Refresh(c.Context()); err != nil {
		return svcError(c, "RefreshLeaderboard", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Leaderboard refreshed"})
}
