/**
 * @description
 * Profile API Handlers.
 * Public user profiles, profile editing, user ratings and the leaderboard.
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

// ProfileHandler handles profile-related requests
type ProfileHandler struct {
	users       *services.UserService
	ratings     *services.RatingService
	leaderboard *services.LeaderboardService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(users *services.UserService, ratings *services.RatingService, leaderboard *services.LeaderboardService) *ProfileHandler {
	return &ProfileHandler{
		users:       users,
		ratings:     ratings,
		leaderboard: leaderboard,
	}
}

// ListUsers returns the community member directory
// GET /api/users
func (h *ProfileHandler) ListUsers(c *fiber.Ctx) error {
	result, err := h.users.ListMembers(c.Context(),
		c.Query("search"), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return svcError(c, "ListUsers", err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// GetProfile returns a user's public profile with books, ratings and stats
// GET /api/users/:id
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	profile, err := h.users.GetProfile(c.Context(), userID)
	if err != nil {
		return svcError(c, "GetProfile", err)
	}
	return c.Status(fiber.StatusOK).JSON(profile)
}

// UpdateProfile edits the caller's own profile
// PUT /api/users/me
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var input services.ProfileInput
	if !parseBody(c, &input) {
		return nil
	}

	user, err := h.users.UpdateProfile(c.Context(), userID, input)
	if err != nil {
		return svcError(c, "UpdateProfile", err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// RateUserRequest defines payload for rating a user
type RateUserRequest struct {
	Score  int    `json:"score" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"omitempty,max=1000"`
}

// RateUser records or updates the caller's rating of another user
// POST /api/users/:id/rate
func (h *ProfileHandler) RateUser(c *fiber.Ctx) error {
	raterID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	userID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	var req RateUserRequest
	if !parseBody(c, &req) {
		return nil
	}

	result, err := h.ratings.Rate(c.Context(), raterID, userID, req.Score, req.Review)
	if err != nil {
		return svcError(c, "RateUser", err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// Leaderboard returns the top users by points
// GET /api/leaderboard
func (h *ProfileHandler) Leaderboard(c *fiber.Ctx) error {
	entries, err := h.leaderboard.Top(c.Context(), c.QueryInt("limit", 20))
	if err != nil {
		return svcError(c, "Leaderboard", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"leaderboard": entries})
}

// MyRank returns the caller's leaderboard position
// GET /api/leaderboard/me
func (h *ProfileHandler) MyRank(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	rank, err := h.leaderboard.Rank(c.Context(), userID)
	if err != nil {
		return svcError(c, "MyRank", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"rank": rank})
}
