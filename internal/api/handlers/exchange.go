/**
 * @description
 * Exchange API Handlers.
 * Creating exchange requests, listing and reading them, and driving the
 * lifecycle through a single action endpoint (approve, reject, complete,
 * cancel, rate).
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
	"github.com/google/uuid"
)

type ExchangeHandler struct {
	Exchanges *services.ExchangeService
	Ratings   *services.RatingService
}

func NewExchangeHandler(exchanges *services.ExchangeService, ratings *services.RatingService) *ExchangeHandler {
	return &ExchangeHandler{Exchanges: exchanges, Ratings: ratings}
}

// CreateExchangeRequest defines payload for opening an exchange
type CreateExchangeRequest struct {
	BookID  string `json:"book_id" validate:"required,uuid4"`
	Message string `json:"message" validate:"omitempty,max=500"`
}

// Create opens a new exchange request
// POST /api/exchanges
func (h *ExchangeHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req CreateExchangeRequest
	if !parseBody(c, &req) {
		return nil
	}
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid book_id"})
	}

	exchange, err := h.Exchanges.Create(c.Context(), userID, bookID, req.Message)
	if err != nil {
		return svcError(c, "CreateExchange", err)
	}
	return c.Status(fiber.StatusCreated).JSON(exchange)
}

// List returns the caller's exchanges
// GET /api/exchanges?type=sent|received|all&status=...
func (h *ExchangeHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	exchanges, err := h.Exchanges.List(c.Context(), userID, c.Query("type", "all"), c.Query("status"))
	if err != nil {
		return svcError(c, "ListExchanges", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"exchanges": exchanges})
}

// Get returns one exchange with its messages
// GET /api/exchanges/:id
func (h *ExchangeHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	exchangeID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	exchange, err := h.Exchanges.Get(c.Context(), userID, exchangeID)
	if err != nil {
		return svcError(c, "GetExchange", err)
	}
	return c.Status(fiber.StatusOK).JSON(exchange)
}

// ActionRequest defines payload for driving the lifecycle
type ActionRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject complete cancel rate"`
	Rating int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Review string `json:"review" validate:"omitempty,max=1000"`
}

// Action applies a lifecycle transition to an exchange
// PUT /api/exchanges/:id
func (h *ExchangeHandler) Action(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	exchangeID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	var req ActionRequest
	if !parseBody(c, &req) {
		return nil
	}

	var exchange interface{}
	switch req.Action {
	case "approve":
		exchange, err = h.Exchanges.Approve(c.Context(), userID, exchangeID)
	case "reject":
		exchange, err = h.Exchanges.Reject(c.Context(), userID, exchangeID)
	case "complete":
		exchange, err = h.Exchanges.Complete(c.Context(), userID, exchangeID)
	case "cancel":
		exchange, err = h.Exchanges.Cancel(c.Context(), userID, exchangeID)
	case "rate":
		exchange, err = h.Exchanges.Rate(c.Context(), h.Ratings, userID, exchangeID, req.Rating, req.Review)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown action"})
	}
	if err != nil {
		return svcError(c, "ExchangeAction", err)
	}
	return c.Status(fiber.StatusOK).JSON(exchange)
}
