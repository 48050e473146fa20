package server

import (
	"socialnet/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary The caller's notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.NotificationView]
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	page, err := s.parsePage(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	unreadOnly := c.QueryBool("unread", false)

	items, total, err := s.notificationService.List(c.UserContext(), userID, unreadOnly, page.Limit(), page.Offset())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPage(c, page, total, items, models.ViewOfNotification)
}

// MarkNotificationRead handles POST /api/notifications/:id/read
// @Summary Mark one notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} object{detail=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if err := s.notificationService.MarkRead(c.UserContext(), userID, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return detail(c, fiber.StatusOK, "Notification marked as read.")
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
// @Summary Mark every notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{detail=string,updated=int}
// @Router /notifications/read-all [post]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	n, err := s.notificationService.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"detail": "All notifications marked as read.", "updated": n})
}
