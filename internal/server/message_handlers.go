package server

import (
	"socialnet/internal/models"
	"socialnet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /api/messages/send
// @Summary Send a direct message
// @Description At most five messages per sender in any trailing 30 minutes.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{recipient=string,recipient_id=int,content=string,post_id=int} true "Message"
// @Success 201 {object} models.MessageDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /messages/send [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	var req struct {
		Recipient   string `json:"recipient"`
		RecipientID uint   `json:"recipient_id"`
		Content     string `json:"content"`
		PostID      *uint  `json:"post_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.messageService.Send(c.UserContext(), service.SendMessageInput{
		SenderID:          userID,
		RecipientID:       req.RecipientID,
		RecipientUsername: req.Recipient,
		Content:           req.Content,
		PostID:            req.PostID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.MessageDetailOf(msg))
}

// GetInbox handles GET /api/messages/inbox
// @Summary Received messages, newest first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.InboxMessage]
// @Router /messages/inbox [get]
func (s *Server) GetInbox(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	page, err := s.parsePage(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	msgs, total, err := s.messageService.Inbox(c.UserContext(), userID, page.Limit(), page.Offset())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPage(c, page, total, msgs, models.InboxMessageOf)
}

// GetSent handles GET /api/messages/sent
// @Summary Sent messages, newest first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.SentMessage]
// @Router /messages/sent [get]
func (s *Server) GetSent(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	page, err := s.parsePage(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	msgs, total, err := s.messageService.Sent(c.UserContext(), userID, page.Limit(), page.Offset())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPage(c, page, total, msgs, models.SentMessageOf)
}

// GetUnreadCount handles GET /api/messages/unread-count
// @Summary Number of unread received messages
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{unread_count=int}
// @Router /messages/unread-count [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	count, err := s.messageService.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"unread_count": count})
}

// GetMessageDetail handles GET /api/messages/:id/detail. The recipient
// viewing a message marks it read.
// @Summary Get one message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} models.MessageDetail
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{id}/detail [get]
func (s *Server) GetMessageDetail(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	msg, err := s.messageService.Detail(c.UserContext(), userID, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.MessageDetailOf(msg))
}

// MarkMessageRead handles POST /api/messages/:id/read
// @Summary Mark a received message read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} object{detail=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{id}/read [post]
func (s *Server) MarkMessageRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if err := s.messageService.MarkRead(c.UserContext(), userID, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return detail(c, fiber.StatusOK, "Message marked as read.")
}

// DeleteMessage handles DELETE /api/messages/:id/delete
// @Summary Delete a message
// @Tags messages
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{id}/delete [delete]
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if err := s.messageService.Delete(c.UserContext(), userID, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
