/**
 * @description
 * Upload API Handlers.
 * Server-side image uploads and signed parameters for direct-to-Cloudinary
 * uploads from the browser.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"github.com/bookclub-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const maxUploadBytes = 10 << 20 // 10 MiB

type UploadHandler struct {
	Uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{Uploads: uploads}
}

// Upload stores a multipart image
// POST /api/uploads?kind=cover|avatar|message
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	if h.Uploads == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Image uploads are not configured",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing file"})
	}
	if file.Size > maxUploadBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File too large"})
	}

	kind := c.Query("kind", "cover")
	switch kind {
	case "cover", "avatar", "message":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown upload kind"})
	}

	result, err := h.Uploads.UploadImage(c.Context(), file, kind)
	if err != nil {
		return svcError(c, "Upload", err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// SignParams returns signed parameters for a direct browser upload
// GET /api/uploads/sign
func (h *UploadHandler) SignParams(c *fiber.Ctx) error {
	if h.Uploads == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Image uploads are not configured",
		})
	}
	return c.Status(fiber.StatusOK).JSON(h.Uploads.GenerateUploadParams())
}
