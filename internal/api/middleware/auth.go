/**
 * @description
 * Authentication middleware for session JWTs.
 * Validates HS256 Bearer tokens signed by the auth service and stores the
 * user's UUID in the request context.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: HTTP Context
 * - github.com/golang-jwt/jwt/v5: JWT parsing
 *
 * @notes
 * - Requires JWT_SECRET to be set in configuration.
 */

package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/bookclub-project/backend/internal/config"
	"github.com/bookclub-project/backend/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthMiddlewareConfig holds the session signing secret
type AuthMiddlewareConfig struct {
	Secret []byte
}

var mwConfig *AuthMiddlewareConfig

// InitAuthMiddleware stores the session secret. Should be called at startup.
func InitAuthMiddleware(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	mwConfig = &AuthMiddlewareConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
	}
	logger.Info("✅ Auth Middleware Initialized")
	return nil
}

// Protected protects routes requiring authentication
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if mwConfig == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Auth configuration not initialized",
			})
		}

		// 1. Get Token from Header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token format"})
		}

		// 2. Parse and Validate Token
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			return mwConfig.Secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token: " + err.Error()})
		}
		if !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
		}

		// 3. Extract User ID (sub)
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing subject"})
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token subject is not a user id"})
		}

		// 4. Set User ID in Context
		c.Locals("user_id", userID)

		return c.Next()
	}
}

// GetUserID returns the authenticated user's ID from context
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals("user_id").(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("user id not found in context")
	}
	return id, nil
}

// JobSecret gates operational endpoints behind a shared secret header
func JobSecret(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Jobs.Secret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Job endpoints are disabled",
			})
		}
		got := c.Get("X-Job-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.Jobs.Secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid job secret"})
		}
		return c.Next()
	}
}
