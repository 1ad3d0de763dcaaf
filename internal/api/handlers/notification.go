/**
 * @description
 * Notification API Handlers.
 * In-app notification feed: list, unread count, mark read.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"github.com/bookclub-project/backend/internal/api/middleware"
	"github.com/bookclub-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	Notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Notifications: notifications}
}

// List returns the caller's notification feed, newest first
// GET /api/notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	notifications, err := h.Notifications.GetNotifications(c.Context(), userID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return svcError(c, "ListNotifications", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"notifications": notifications})
}

// UnreadCount returns the caller's unread notification total
// GET /api/notifications/unread
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	count, err := h.Notifications.GetUnreadCount(c.Context(), userID)
	if err != nil {
		return svcError(c, "UnreadNotifications", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"unread": count})
}

// MarkRead flags one notification as read
// PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	if err := h.Notifications.MarkAsRead(c.Context(), userID, notificationID); err != nil {
		return svcError(c, "MarkNotificationRead", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Marked read"})
}

// MarkAllRead flags all of the caller's notifications as read
// PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := h.Notifications.MarkAllAsRead(c.Context(), userID); err != nil {
		return svcError(c, "MarkAllNotificationsRead", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "All marked read"})
}
