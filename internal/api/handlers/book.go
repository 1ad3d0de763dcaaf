/**
 * @description
 * Book API Handlers.
 * Catalog browsing, book detail, and owner-gated create/update/delete.
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

type BookHandler struct {
	Books *services.BookService
}

func NewBookHandler(books *services.BookService) *BookHandler {
	return &BookHandler{Books: books}
}

// List returns a filtered, paginated page of the catalog
// GET /api/books
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := services.BookListParams{
		Search:    c.Query("search"),
		Genre:     c.Query("genre"),
		Condition: c.Query("condition"),
		Status:    c.Query("status"),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 20),
		Sort:      c.Query("sort"),
	}
	if raw := c.Query("exclude_owner"); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid exclude_owner"})
		}
		params.ExcludeOwnerID = &ownerID
	}

	result, err := h.Books.List(c.Context(), params)
	if err != nil {
		return svcError(c, "ListBooks", err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// MyBooks returns the caller's own listings
// GET /api/books/mine
func (h *BookHandler) MyBooks(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	books, err := h.Books.ListByOwner(c.Context(), userID)
	if err != nil {
		return svcError(c, "MyBooks", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"books": books})
}

// Get returns one book and counts the view
// GET /api/books/:id
func (h *BookHandler) Get(c *fiber.Ctx) error {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	book, err := h.Books.Get(c.Context(), bookID)
	if err != nil {
		return svcError(c, "GetBook", err)
	}
	return c.Status(fiber.StatusOK).JSON(book)
}

// Create lists a new book
// POST /api/books
func (h *BookHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var input services.BookInput
	if !parseBody(c, &input) {
		return nil
	}

	book, err := h.Books.Create(c.Context(), userID, input)
	if err != nil {
		return svcError(c, "CreateBook", err)
	}
	return c.Status(fiber.StatusCreated).JSON(book)
}

// Update edits a listing
// PUT /api/books/:id
func (h *BookHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	var input services.BookInput
	if !parseBody(c, &input) {
		return nil
	}

	book, err := h.Books.Update(c.Context(), userID, bookID, input)
	if err != nil {
		return svcError(c, "UpdateBook", err)
	}
	return c.Status(fiber.StatusOK).JSON(book)
}

// Delete deactivates a listing
// DELETE /api/books/:id
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return nil
	}

	if err := h.Books.Delete(c.Context(), userID, bookID); err != nil {
		return svcError(c, "DeleteBook", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Book deleted"})
}
