/**
 * @description
 * Forum API Handlers.
 * Community threads: listing, detail, posting, replies and likes.
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

type ForumHandler struct {
	Forum *services.ForumService
}

func NewForumHandler(forum *services.ForumService) *ForumHandler {
	return &ForumHandler{Forum: forum}
}

// ListPosts returns a page of threads
// GET /api/forum/posts
func (h *ForumHandler) ListPosts(c *fiber.Ctx) error {
	result, err := h.Forum.ListPosts(c.Context(), services.ForumListParams{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 20),
	})
	if err != nil {
		return svcError(c, "ListForumPosts", err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// GetPost returns one thread with replies and likes
// GET /api/forum/posts/:id
func (h *ForumHandler) GetPost(c *fiber.Ctx) error {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	post, err := h.Forum.GetPost(c.Context(), postID)
	if err != nil {
		return svcError(c, "GetForumPost", err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// CreatePostRequest defines payload for opening a thread
type CreatePostRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=200"`
	Content  string `json:"content" validate:"required,min=1"`
	Category string `json:"category" validate:"omitempty,max=32"`
}

// CreatePost opens a new thread
// POST /api/forum/posts
func (h *ForumHandler) CreatePost(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req CreatePostRequest
	if !parseBody(c, &req) {
		return nil
	}

	post, err := h.Forum.CreatePost(c.Context(), userID, req.Title, req.Content, req.Category)
	if err != nil {
		return svcError(c, "CreateForumPost", err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// ReplyRequest defines payload for replying to a thread
type ReplyRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// Reply adds a reply to a thread
// POST /api/forum/posts/:id/replies
func (h *ForumHandler) Reply(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	postID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	var req ReplyRequest
	if !parseBody(c, &req) {
		return nil
	}

	reply, err := h.Forum.Reply(c.Context(), userID, postID, req.Content)
	if err != nil {
		return svcError(c, "ForumReply", err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

// ToggleLike likes or unlikes a thread
// POST /api/forum/posts/:id/like
func (h *ForumHandler) ToggleLike(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	postID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	liked, count, err := h.Forum.ToggleLike(c.Context(), userID, postID)
	if err != nil {
		return svcError(c, "ToggleLike", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"liked": liked, "likes": count})
}

// DeletePost removes one of the caller's own threads
// DELETE /api/forum/posts/:id
func (h *ForumHandler) DeletePost(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	postID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	if err := h.Forum.DeletePost(c.Context(), userID, postID); err != nil {
		return svcError(c, "DeleteForumPost", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Post deleted"})
}
