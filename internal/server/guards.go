package server

import (
	"socialnet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// currentUser returns the authenticated principal. Routes behind
// AuthRequired always have one; the error keeps a misrouted handler at 401
// instead of acting anonymously.
func currentUser(c *fiber.Ctx) (uint, error) {
	userID, _ := c.Locals("userID").(uint)
	if err := service.RequireAuthenticated(userID); err != nil {
		return 0, err
	}
	return userID, nil
}

// viewerID returns the principal when OptionalAuth resolved one, otherwise 0.
func viewerID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}
