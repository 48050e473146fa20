package server

import (
	"socialnet/internal/models"
	"socialnet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:postId/comments
// @Summary List comments on a post, oldest first
// @Tags comments
// @Produce json
// @Param postId path int true "Post ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.CommentView]
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	page, err := s.parsePage(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	comments, total, err := s.commentService.ListComments(c.UserContext(), postID, page.Limit(), page.Offset())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondPage(c, page, total, comments, models.ViewOfComment)
}

// CreateComment handles POST /api/posts/:postId/comment
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.CommentView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comment [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  userID,
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.ViewOfComment(comment))
}

// UpdateComment handles PUT /api/posts/:postId/comments/:commentId
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param commentId path int true "Comment ID"
// @Param request body object{content=string} true "Comment"
// @Success 200 {object} models.CommentView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments/{commentId} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    userID,
		PostID:    postID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.ViewOfComment(comment))
}

// DeleteComment handles DELETE /api/posts/:postId/comments/:commentId
// @Summary Delete a comment
// @Tags comments
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param commentId path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    userID,
		PostID:    postID,
		CommentID: commentID,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
