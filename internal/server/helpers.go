package server

import (
	"errors"
	"strconv"

	"chirp/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondError maps an application error to its HTTP status and writes the
// standardized error body. Unknown errors become opaque 500s.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "VALIDATION_ERROR":
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		case "UNAUTHORIZED":
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		case "NOT_FOUND":
			return models.RespondWithError(c, fiber.StatusNotFound, appErr)
		}
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}

// parseID parses a numeric route parameter. On failure it writes a 400
// response and returns ok=false.
func parseID(c *fiber.Ctx, param string) (uint, bool) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param+" parameter"))
		return 0, false
	}
	return uint(id), true
}
