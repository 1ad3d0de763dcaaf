/**
 * @description
 * Auth API Handlers.
 * Registration, login, Google sign-in and the current-user endpoint.
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

type AuthHandler struct {
	Auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// RegisterRequest defines payload for local registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// Register creates a local account
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if !parseBody(c, &req) {
		return nil
	}

	result, err := h.Auth.Register(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return svcError(c, "Register", err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// LoginRequest defines payload for local login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies a password and returns a session token
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if !parseBody(c, &req) {
		return nil
	}

	result, err := h.Auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return svcError(c, "Login", err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// GoogleRequest carries a Google ID token
type GoogleRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// Google exchanges a Google ID token for a session token
// POST /api/auth/google
func (h *AuthHandler) Google(c *fiber.Ctx) error {
	var req GoogleRequest
	if !parseBody(c, &req) {
		return nil
	}

	result, err := h.Auth.GoogleSignIn(c.Context(), req.IDToken)
	if err != nil {
		return svcError(c, "Google", err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// GetMe returns the current authenticated user
// GET /api/auth/me
func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	user, err := h.Auth.Me(c.Context(), userID)
	if err != nil {
		return svcError(c, "GetMe", err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}
