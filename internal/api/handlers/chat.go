/**
 * @description
 * Chat API Handlers.
 * Exchange-scoped messaging: send, history, read receipts, delete, and the
 * global unread counter.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"github.com/bookclub-project/backend/internal/api/middleware"
	"github.com/bookclub-project/backend/internal/models"
	"github.com/bookclub-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	Chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{Chat: chat}
}

// SendMessageRequest defines payload for posting a message
type SendMessageRequest struct {
	Type     string `json:"type" validate:"omitempty,oneof=text image"`
	Content  string `json:"content" validate:"omitempty,max=1000"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

// Send posts a message into an exchange chat
// POST /api/exchanges/:id/messages
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	exchangeID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	var req SendMessageRequest
	if !parseBody(c, &req) {
		return nil
	}
	msgType := models.MessageType(req.Type)
	if req.Type == "" {
		msgType = models.MessageTypeText
	}

	message, err := h.Chat.Send(c.Context(), userID, exchangeID, msgType, req.Content, req.ImageURL)
	if err != nil {
		return svcError(c, "SendMessage", err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// History returns an exchange's messages and marks incoming ones read
// GET /api/exchanges/:id/messages
func (h *ChatHandler) History(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	exchangeID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	messages, err := h.Chat.History(c.Context(), userID, exchangeID)
	if err != nil {
		return svcError(c, "ChatHistory", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"messages": messages})
}

// MarkRead flags incoming messages in one exchange as read
// PUT /api/exchanges/:id/messages/read
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	exchangeID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	if err := h.Chat.MarkRead(c.Context(), userID, exchangeID); err != nil {
		return svcError(c, "MarkRead", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Marked read"})
}

// Delete soft-deletes one of the caller's own messages
// DELETE /api/messages/:id
func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	messageID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	if err := h.Chat.Delete(c.Context(), userID, messageID); err != nil {
		return svcError(c, "DeleteMessage", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Message deleted"})
}

// UnreadCount returns the caller's unread message total
// GET /api/messages/unread
func (h *ChatHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	count, err := h.Chat.UnreadCount(c.Context(), userID)
	if err != nil {
		return svcError(c, "UnreadMessages", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"unread": count})
}
