package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications. Fetching the caller's
// notifications also marks them all read; both happen in one transaction.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	notifications, err := s.notifRepo.ListAndMarkRead(c.Context(), userID)
	if err != nil {
		return s.respondError(c, err)
	}

	for i := range notifications {
		notifications[i].Actor.Password = ""
	}
	return c.JSON(notifications)
}

// DeleteNotifications handles DELETE /api/notifications — clears all of the
// caller's notifications.
func (s *Server) DeleteNotifications(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if err := s.notifRepo.DeleteAllForRecipient(c.Context(), userID); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notifications deleted successfully"})
}
